// Package travel derives trip travel data from walking directions: baseline
// and storm-adjusted durations, distance bucketing, ferry exclusion, and
// subway line extraction.
package travel

import (
	"context"
	"errors"
	"time"
)

// Travel errors.
var (
	// ErrProviderUnavailable indicates the directions provider is down or the
	// circuit breaker is open.
	ErrProviderUnavailable = errors.New("directions provider unavailable")
	// ErrNoRouteFound indicates no route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrGeocodeFailed indicates the destination could not be resolved.
	ErrGeocodeFailed = errors.New("destination could not be geocoded")
)

// Coordinate represents a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Step is a single directions step as returned by the provider.
type Step struct {
	Instruction     string
	Street          string
	TravelMode      string
	DurationSeconds int
	DistanceMeters  int
}

// Route is one route alternative.
type Route struct {
	DurationSeconds int
	DistanceMeters  int
	Steps           []Step
}

// Provider defines the interface for directions and geocoding providers.
type Provider interface {
	// GetWalkingDirections returns route alternatives with step-level detail.
	GetWalkingDirections(ctx context.Context, origin, destination Coordinate) ([]Route, error)

	// Geocode resolves a free-text place query to coordinates.
	Geocode(ctx context.Context, query string) (Coordinate, error)

	// Name returns the provider identifier for logging.
	Name() string
}

// DistanceCategory buckets the trip distance.
type DistanceCategory string

const (
	DistanceWalkable     DistanceCategory = "walkable"
	DistanceShortTransit DistanceCategory = "short_transit"
	DistanceLongTransit  DistanceCategory = "long_transit"
	DistanceUnknown      DistanceCategory = "unknown"
)

// RouteStep is a directions step carried forward for reasoning context.
type RouteStep struct {
	Instruction string `json:"instruction"`
	Street      string `json:"street"`
	DurationSec int    `json:"duration_sec"`
}

// Data is the derived travel picture for a trip. When FerryOnlyRoute is true
// every other field is nil or empty: the two states are mutually exclusive
// and together cover every successful derivation.
type Data struct {
	BaselineMinutes  *int             `json:"baseline_minutes"`
	StormMinutes     *int             `json:"storm_minutes"`
	DistanceMiles    *float64         `json:"distance_miles"`
	DistanceCategory DistanceCategory `json:"distance_category"`
	BestRoute        *string          `json:"best_route"`
	FerryOnlyRoute   bool             `json:"ferry_only_route"`
	RelevantLines    []string         `json:"relevant_lines"`
	RouteSteps       []RouteStep      `json:"route_steps"`

	FetchedAt time.Time `json:"fetched_at"`
}

// FerryOnlyData returns the terminal shape for a trip where every route
// alternative crosses water.
func FerryOnlyData() *Data {
	return &Data{
		DistanceCategory: DistanceUnknown,
		FerryOnlyRoute:   true,
		RelevantLines:    []string{},
		RouteSteps:       []RouteStep{},
		FetchedAt:        time.Now(),
	}
}
