package transit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AlertProvider fetches the raw subway alert entity collection.
type AlertProvider interface {
	FetchAlerts(ctx context.Context) ([]map[string]any, error)
	Name() string
}

// PATHProvider fetches the current PATH line status.
type PATHProvider interface {
	FetchStatus(ctx context.Context) (LineStatus, error)
	Name() string
}

// njKeywords gates the PATH fetch: PATH is only relevant when the trip
// plausibly touches New Jersey. Matched case-insensitively against the
// concatenated origin and destination text.
var njKeywords = []string{
	"new jersey",
	"nj",
	"hoboken",
	"jersey city",
	"newark",
	"harrison",
	"exchange place",
	"grove st",
	"journal square",
	"newport",
	"path",
}

// TripTouchesNewJersey reports whether the PATH fetch should be issued for a
// trip described by the given origin and destination free text.
func TripTouchesNewJersey(origin, destination string) bool {
	haystack := strings.ToLower(origin + " " + destination)
	for _, kw := range njKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// CacheMetrics records cache hit and miss counts for provider calls.
type CacheMetrics interface {
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// ServiceConfig holds configuration for the transit service.
type ServiceConfig struct {
	// AlertProvider is the subway alert feed source (required).
	AlertProvider AlertProvider

	// PATHProvider is the PATH status source (required).
	PATHProvider PATHProvider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records alert cache hits and misses (optional).
	Metrics CacheMetrics

	// CacheTTL is how long to cache the raw alert feed (default: 1 minute).
	// Alerts change quickly; this only smooths bursts of requests.
	CacheTTL time.Duration
}

// Service derives trip-scoped transit status from the alert and PATH feeds.
// Its GetStatus method is total: any upstream failure resolves to the
// all-normal default rather than an error.
type Service struct {
	alerts   AlertProvider
	path     PATHProvider
	logger   zerolog.Logger
	metrics  CacheMetrics
	cacheTTL time.Duration

	mu         sync.RWMutex
	cached     []map[string]any
	cachedAt   time.Time
	cacheFresh bool
}

// NewService creates a new transit service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Minute
	}
	return &Service{
		alerts:   cfg.AlertProvider,
		path:     cfg.PATHProvider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		cacheTTL: cacheTTL,
	}
}

// GetStatus returns the transit status for a trip. The alert fetch and, when
// the trip plausibly involves New Jersey, the PATH fetch run concurrently.
// If lines is non-empty the subway map is trimmed to the requested lines.
func (s *Service) GetStatus(ctx context.Context, origin, destination string, lines []string) Status {
	fetchPATH := TripTouchesNewJersey(origin, destination)

	var (
		wg         sync.WaitGroup
		summary    AlertSummary
		pathStatus *LineStatus
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		entities, err := s.fetchAlerts(ctx)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("provider", s.alerts.Name()).
				Msg("alert feed unavailable, assuming normal service")
			summary = NormalizeAlerts(nil, nil)
			return
		}
		summary = NormalizeAlerts(entities, lines)
	}()

	if fetchPATH {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, err := s.path.FetchStatus(ctx)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("provider", s.path.Name()).
					Msg("PATH feed unavailable, assuming normal service")
				st = NormalLine()
			}
			pathStatus = &st
		}()
	}

	wg.Wait()

	subway := summary.SubwayStatus
	if len(lines) > 0 {
		trimmed := make(map[string]LineStatus, len(lines))
		for _, line := range lines {
			if st, ok := subway[line]; ok {
				trimmed[line] = st
			}
		}
		subway = trimmed
	}

	return Status{
		Subway:   subway,
		PATH:     pathStatus,
		Summary:  BuildSummary(subway, pathStatus),
		Severity: summary.MaxSeverity,
	}
}

// fetchAlerts returns the raw alert entities, serving a short-lived cache to
// smooth request bursts.
func (s *Service) fetchAlerts(ctx context.Context) ([]map[string]any, error) {
	s.mu.RLock()
	if s.cacheFresh && time.Since(s.cachedAt) < s.cacheTTL {
		entities := s.cached
		s.mu.RUnlock()
		s.recordCache(true)
		return entities, nil
	}
	s.mu.RUnlock()
	s.recordCache(false)

	entities, err := s.alerts.FetchAlerts(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = entities
	s.cachedAt = time.Now()
	s.cacheFresh = true
	s.mu.Unlock()

	s.logger.Debug().
		Int("entities", len(entities)).
		Str("provider", s.alerts.Name()).
		Msg("alert feed refreshed")

	return entities, nil
}

func (s *Service) recordCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit(s.alerts.Name(), "alerts")
		return
	}
	s.metrics.RecordCacheMiss(s.alerts.Name(), "alerts")
}

// Summary phrasing. Derived deterministically from which lines and PATH carry
// non-nil messages.
const (
	summaryAllClear     = "Good service on all lines"
	summaryPATHAffected = "PATH service affected"
)

// BuildSummary derives the one-line textual summary from the per-line map and
// the optional PATH status.
func BuildSummary(subway map[string]LineStatus, path *LineStatus) string {
	var delayed []string
	for _, line := range SubwayLines {
		if st, ok := subway[line]; ok && st.Message != nil {
			delayed = append(delayed, line)
		}
	}
	pathAffected := path != nil && path.Message != nil

	switch {
	case len(delayed) == 0 && !pathAffected:
		return summaryAllClear
	case len(delayed) > 0 && !pathAffected:
		return "Delays on " + strings.Join(delayed, ", ")
	case len(delayed) == 0 && pathAffected:
		return summaryPATHAffected
	default:
		return "Delays on " + strings.Join(delayed, ", ") + "; " + summaryPATHAffected
	}
}

// CacheStats reports the state of the alert feed cache for ops visibility.
type CacheStats struct {
	HasAlertCache bool
	AlertCacheAge time.Duration
	EntityCount   int
	Provider      string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := CacheStats{Provider: s.alerts.Name()}
	if s.cacheFresh {
		stats.HasAlertCache = true
		stats.AlertCacheAge = time.Since(s.cachedAt)
		stats.EntityCount = len(s.cached)
	}
	return stats
}
