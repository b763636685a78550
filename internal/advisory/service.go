package advisory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stormadvisor/stormadvisor/internal/ban"
	"github.com/stormadvisor/stormadvisor/internal/reasoning"
	"github.com/stormadvisor/stormadvisor/internal/transit"
	"github.com/stormadvisor/stormadvisor/internal/travel"
	"github.com/stormadvisor/stormadvisor/internal/weather"
)

// ServiceConfig holds configuration for the advisory service.
type ServiceConfig struct {
	// Weather is the weather service (required).
	Weather *weather.Service

	// Transit is the transit status service (required).
	Transit *transit.Service

	// Travel is the travel data service (required).
	Travel *travel.Service

	// Ban is the travel-ban service (required).
	Ban *ban.Service

	// Reasoning is the language-model provider (required).
	Reasoning reasoning.Provider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service runs the full advisory pipeline: concurrent fetches, fusion,
// reasoning, and schema enforcement.
type Service struct {
	weather   *weather.Service
	transit   *transit.Service
	travel    *travel.Service
	ban       *ban.Service
	reasoning reasoning.Provider
	logger    zerolog.Logger
}

// NewService creates a new advisory service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		weather:   cfg.Weather,
		transit:   cfg.Transit,
		travel:    cfg.Travel,
		ban:       cfg.Ban,
		reasoning: cfg.Reasoning,
		logger:    cfg.Logger,
	}
}

// Request describes one trip to evaluate.
type Request struct {
	// Origin is the free-text origin label.
	Origin string

	// Destination is the free-text destination label.
	Destination string

	// OriginCoords is the origin point.
	OriginCoords travel.Coordinate

	// DestinationCoords, when known, skips geocoding the destination label.
	DestinationCoords *travel.Coordinate

	// Lines optionally restricts the transit status to specific subway lines.
	Lines []string
}

// Advise evaluates one trip. Every upstream fetch runs concurrently and
// resolves to its own typed default on failure; the barrier never rejects.
// The reasoning call follows sequentially, and its output passes through the
// schema enforcer, so the returned Result is always fully populated.
func (s *Service) Advise(ctx context.Context, req Request) Result {
	var (
		wg            sync.WaitGroup
		weatherData   weather.Snapshot
		transitStatus transit.Status
		travelData    *travel.Data
		banStatus     ban.Status
	)

	wg.Add(4)

	go func() {
		defer wg.Done()
		weatherData = s.weather.Snapshot(ctx, req.OriginCoords.Lat, req.OriginCoords.Lon)
	}()

	go func() {
		defer wg.Done()
		transitStatus = s.transit.GetStatus(ctx, req.Origin, req.Destination, req.Lines)
	}()

	go func() {
		defer wg.Done()
		data, err := s.travel.Derive(ctx, req.OriginCoords, req.Destination, req.DestinationCoords)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("destination", req.Destination).
				Msg("travel data unavailable")
			return
		}
		travelData = data
	}()

	go func() {
		defer wg.Done()
		banStatus = s.ban.Current(ctx)
	}()

	wg.Wait()

	weatherSeverity := weatherData.Severity()
	travelData.ApplyStormProjection(weatherSeverity)

	payload := Payload{
		Origin:          req.Origin,
		Destination:     req.Destination,
		Weather:         weatherData,
		WeatherSeverity: weatherSeverity,
		Transit:         transitStatus,
		Travel:          travelData,
		TravelBan:       banStatus,
		IsWalkable:      travelData != nil && travelData.DistanceCategory == travel.DistanceWalkable,
	}

	return Result{
		Recommendation: s.recommend(ctx, payload),
		Weather:        weatherData,
		Transit:        transitStatus,
		Travel:         travelData,
		TravelBan:      banStatus,
		IsWalkable:     payload.IsWalkable,
		GeneratedAt:    time.Now().UTC(),
	}
}

// recommend runs the reasoning call and schema enforcement. Any failure on
// the way, from prompt construction to an unreachable model, resolves to the
// safe default.
func (s *Service) recommend(ctx context.Context, payload Payload) Recommendation {
	userMessage, err := BuildUserMessage(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("building reasoning message failed")
		return SafeDefault()
	}

	raw, err := s.reasoning.Complete(ctx, systemPolicy, userMessage)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("provider", s.reasoning.Name()).
			Msg("reasoning call failed, substituting safe default")
		return SafeDefault()
	}

	rec := EnforceSchema(raw)
	s.logger.Debug().
		Str("verdict", string(rec.Verdict)).
		Str("return_risk", string(rec.ReturnRisk)).
		Msg("recommendation produced")
	return rec
}
