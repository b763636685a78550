package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/stormadvisor/stormadvisor/internal/api/models"
	"github.com/stormadvisor/stormadvisor/internal/api/response"
	"github.com/stormadvisor/stormadvisor/internal/provider/resilience"
	"github.com/stormadvisor/stormadvisor/internal/transit"
	"github.com/stormadvisor/stormadvisor/internal/weather"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	weather   *weather.Service
	transit   *transit.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, weatherSvc *weather.Service, transitSvc *transit.Service) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		weather:   weatherSvc,
		transit:   transitSvc,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service
// holds no connections of its own, so readiness tracks provider circuits: an
// open circuit on every provider means nothing upstream is reachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	if h.registry != nil && h.registry.ProviderCount() > 0 {
		open := 0
		for _, p := range h.registry.GetAllHealth() {
			if p.IsUnhealthy() {
				open++
			}
		}
		switch {
		case open == h.registry.ProviderCount():
			status = models.HealthStatusFail
		case open > 0:
			status = models.HealthStatusDegraded
		}
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /v1/ops/status - provider circuits and cache state.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      now,
		Providers: []models.ProviderStatus{},
		Caches:    []models.CacheStatus{},
	}

	if h.registry != nil {
		for _, p := range h.registry.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider: p.Name,
				Status:   circuitHealth(p.CircuitState),
				Circuit:  p.CircuitState.String(),
			}
			if p.LastSuccessAt != nil {
				ts := models.Timestamp(*p.LastSuccessAt)
				ps.LastSuccessAt = &ts
			}
			if p.LastFailureAt != nil {
				ts := models.Timestamp(*p.LastFailureAt)
				ps.LastFailureAt = &ts
			}
			if p.LastError != "" {
				msg := p.LastError
				ps.Message = &msg
			}
			if ps.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.weather != nil {
		stats := h.weather.CacheStats()
		detail := fmt.Sprintf("%d fresh", stats.FreshEntries)
		status.Caches = append(status.Caches, models.CacheStatus{
			Name:     "weather",
			Provider: stats.Provider,
			Entries:  stats.Entries,
			Detail:   &detail,
		})
	}

	if h.transit != nil {
		stats := h.transit.CacheStats()
		entries := 0
		var detail *string
		if stats.HasAlertCache {
			entries = 1
			d := fmt.Sprintf("%d entities, age %s", stats.EntityCount, stats.AlertCacheAge.Round(time.Second))
			detail = &d
		}
		status.Caches = append(status.Caches, models.CacheStatus{
			Name:     "transit-alerts",
			Provider: stats.Provider,
			Entries:  entries,
			Detail:   detail,
		})
	}

	response.JSON(w, r, http.StatusOK, status)
}

func circuitHealth(state gobreaker.State) models.HealthStatus {
	switch state {
	case gobreaker.StateOpen:
		return models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}
