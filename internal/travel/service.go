package travel

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stormadvisor/stormadvisor/internal/transit"
	"github.com/stormadvisor/stormadvisor/internal/weather"
)

const (
	metersPerMile = 0.000621371

	walkableMiles     = 0.8
	shortTransitMiles = 3.0

	maxCarriedSteps = 6
)

// stormMultipliers projects storm-adjusted travel time from the baseline,
// keyed by weather severity bucket.
var stormMultipliers = map[weather.Severity]float64{
	weather.SeverityNone:     1.0,
	weather.SeverityLight:    1.3,
	weather.SeverityModerate: 1.7,
	weather.SeveritySevere:   2.2,
	weather.SeverityExtreme:  3.0,
}

// waterKeywords marks a step as water transport when its instruction text
// mentions one of these, in addition to the provider's mode field.
var waterKeywords = []string{"ferry", "boat", "water taxi", "water shuttle"}

// lineMention matches phrasings like "the A train" or "the A/C/E line" in
// step instructions. Extracted tokens are validated against the fixed subway
// line universe before use.
var lineMention = regexp.MustCompile(`(?i)\bthe\s+([0-9A-Za-z](?:\s*/\s*[0-9A-Za-z])*)[\s-]+(?:train|line)s?\b`)

// ServiceConfig holds configuration for the travel service.
type ServiceConfig struct {
	// Provider is the directions/geocoding provider (required).
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service derives travel data for a trip.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a new travel service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Derive computes the travel data for a trip. Destination coordinates may be
// supplied to skip geocoding; resolving a short destination label can land in
// an unrelated city, so callers that already know the point should pass it.
//
// Derive runs concurrently with the weather fetch, so the storm projection
// (which needs the weather severity) is applied afterwards via
// ApplyStormProjection.
//
// A trip where every route alternative crosses water returns the ferry-only
// terminal shape, which is a first-class outcome. Any fetch or parse failure
// returns a nil Data and an error: a hard stop, distinct from ferry-only.
func (s *Service) Derive(ctx context.Context, origin Coordinate, destination string, destCoords *Coordinate) (*Data, error) {
	dest, err := s.resolveDestination(ctx, destination, destCoords)
	if err != nil {
		return nil, err
	}

	routes, err := s.provider.GetWalkingDirections(ctx, origin, dest)
	if err != nil {
		return nil, fmt.Errorf("fetching directions: %w", err)
	}
	if len(routes) == 0 {
		return nil, ErrNoRouteFound
	}

	route, ok := firstLandRoute(routes)
	if !ok {
		s.logger.Info().
			Str("destination", destination).
			Int("alternatives", len(routes)).
			Msg("every route alternative crosses water")
		return FerryOnlyData(), nil
	}

	baseline := int(math.Round(float64(route.DurationSeconds) / 60))

	rawMiles := float64(route.DistanceMeters) * metersPerMile
	category := bucketDistance(rawMiles)
	miles := math.Round(rawMiles*10) / 10

	data := &Data{
		BaselineMinutes:  &baseline,
		DistanceMiles:    &miles,
		DistanceCategory: category,
		FerryOnlyRoute:   false,
		RelevantLines:    extractLines(route.Steps),
		RouteSteps:       carrySteps(route.Steps),
		FetchedAt:        time.Now(),
	}

	if description := describeRoute(usableSteps(route.Steps), baseline); description != "" {
		data.BestRoute = &description
	}

	s.logger.Debug().
		Int("baseline_minutes", baseline).
		Float64("distance_miles", miles).
		Str("category", string(category)).
		Strs("relevant_lines", data.RelevantLines).
		Msg("derived travel data")

	return data, nil
}

// ApplyStormProjection fills in the storm-adjusted duration and, when no
// usable step text produced a route description, the fixed fallback phrase.
// Called after the weather fetch joins the barrier; no-op for the ferry-only
// shape.
func (d *Data) ApplyStormProjection(severity weather.Severity) {
	if d == nil || d.FerryOnlyRoute || d.BaselineMinutes == nil {
		return
	}
	storm := int(math.Round(float64(*d.BaselineMinutes) * stormMultiplier(severity)))
	d.StormMinutes = &storm
	if d.BestRoute == nil {
		description := fallbackDescription(d.DistanceCategory, severity)
		d.BestRoute = &description
	}
}

func (s *Service) resolveDestination(ctx context.Context, destination string, destCoords *Coordinate) (Coordinate, error) {
	if destCoords != nil {
		return *destCoords, nil
	}
	coord, err := s.provider.Geocode(ctx, destination)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %s", ErrGeocodeFailed, destination)
	}
	return coord, nil
}

// firstLandRoute returns the first route alternative with no water-transport
// step, or false when every alternative touches water.
func firstLandRoute(routes []Route) (Route, bool) {
	for _, r := range routes {
		if !touchesWater(r) {
			return r, true
		}
	}
	return Route{}, false
}

func touchesWater(r Route) bool {
	for _, step := range r.Steps {
		if isWaterStep(step) {
			return true
		}
	}
	return false
}

func isWaterStep(step Step) bool {
	mode := strings.ToUpper(step.TravelMode)
	if mode == "FERRY" || mode == "BOAT" {
		return true
	}
	text := strings.ToLower(step.Instruction)
	for _, kw := range waterKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func stormMultiplier(severity weather.Severity) float64 {
	if m, ok := stormMultipliers[severity]; ok {
		return m
	}
	return 1.0
}

// bucketDistance buckets the unrounded trip distance. Rounding first would
// push 2.99 miles into the wrong bucket.
func bucketDistance(miles float64) DistanceCategory {
	switch {
	case miles < walkableMiles:
		return DistanceWalkable
	case miles < shortTransitMiles:
		return DistanceShortTransit
	default:
		return DistanceLongTransit
	}
}

// usableSteps filters out arrival and water-transport steps, which make poor
// description anchors.
func usableSteps(steps []Step) []Step {
	usable := make([]Step, 0, len(steps))
	for _, step := range steps {
		if step.Instruction == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(step.Instruction), "arrive") {
			continue
		}
		if isWaterStep(step) {
			continue
		}
		usable = append(usable, step)
	}
	return usable
}

// describeRoute builds a one-sentence route description from the first and,
// for multi-step routes, last usable step plus the total time.
func describeRoute(usable []Step, baselineMinutes int) string {
	if len(usable) == 0 {
		return ""
	}
	first := strings.TrimRight(usable[0].Instruction, ". ")
	if len(usable) == 1 {
		return fmt.Sprintf("%s (about %d min)", first, baselineMinutes)
	}
	last := strings.TrimRight(usable[len(usable)-1].Instruction, ". ")
	return fmt.Sprintf("%s, then %s (about %d min)", first, lowerFirst(last), baselineMinutes)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// fallbackDescription covers routes whose steps carry no usable text, keyed
// by distance bucket and weather severity.
func fallbackDescription(category DistanceCategory, severity weather.Severity) string {
	rough := severity.Rank() >= weather.SeverityModerate.Rank()
	switch category {
	case DistanceWalkable:
		if rough {
			return "A short walk, but conditions are rough"
		}
		return "A short walk away"
	case DistanceShortTransit:
		if rough {
			return "A quick transit hop, expect weather delays"
		}
		return "A quick transit hop away"
	case DistanceLongTransit:
		if rough {
			return "A longer transit trip, expect significant weather delays"
		}
		return "A longer transit trip away"
	default:
		return "Route details unavailable"
	}
}

// extractLines scans step instructions for subway line mentions, validates
// each token against the line universe, and returns a deduplicated set.
func extractLines(steps []Step) []string {
	seen := make(map[string]struct{})
	var lines []string
	for _, step := range steps {
		for _, match := range lineMention.FindAllStringSubmatch(step.Instruction, -1) {
			for _, token := range strings.Split(match[1], "/") {
				id := strings.ToUpper(strings.TrimSpace(token))
				if !transit.IsKnownLine(id) {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				lines = append(lines, id)
			}
		}
	}
	if lines == nil {
		lines = []string{}
	}
	return lines
}

// carrySteps keeps at most maxCarriedSteps raw steps for reasoning context.
func carrySteps(steps []Step) []RouteStep {
	carried := make([]RouteStep, 0, maxCarriedSteps)
	for _, step := range steps {
		if len(carried) == maxCarriedSteps {
			break
		}
		carried = append(carried, RouteStep{
			Instruction: step.Instruction,
			Street:      step.Street,
			DurationSec: step.DurationSeconds,
		})
	}
	return carried
}
