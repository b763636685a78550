// Package weather provides the trip-scoped weather snapshot and its severity
// bucketing for storm delay projection.
package weather

import (
	"errors"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
)

// Severity buckets current conditions for storm-delay projection. The bucket
// keys the travel-time multiplier table.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLight    Severity = "light"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityExtreme  Severity = "extreme"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityLight:    1,
	SeverityModerate: 2,
	SeveritySevere:   3,
	SeverityExtreme:  4,
}

// Rank returns the ordinal rank of the severity.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Trend describes where the short-range forecast is heading.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendSteady    Trend = "steady"
	TrendWorsening Trend = "worsening"
)

// Snapshot is the weather picture consumed by the advisory pipeline. Every
// field is a pointer: an unavailable provider yields the all-nil snapshot,
// never an error, and nil fields serialize as explicit nulls downstream.
type Snapshot struct {
	PrecipMMPerHour  *float64 `json:"precip_mm_per_hour"`
	PrecipType       *string  `json:"precip_type"`
	WindSpeedMS      *float64 `json:"wind_speed_ms"`
	WindGustMS       *float64 `json:"wind_gust_ms"`
	VisibilityMeters *float64 `json:"visibility_meters"`
	FeelsLikeC       *float64 `json:"feels_like_c"`
	Condition        *string  `json:"condition"`
	Trend            *Trend   `json:"trend"`

	FetchedAt time.Time `json:"fetched_at"`
}

// EmptySnapshot returns the all-nil snapshot used when the provider is
// unavailable or unconfigured.
func EmptySnapshot() Snapshot {
	return Snapshot{FetchedAt: time.Now()}
}

// Severity derives the storm severity bucket from the snapshot. Thresholds
// combine precipitation intensity, wind gusts, and visibility; snow bumps the
// bucket one level because the same intensity degrades travel more.
func (s Snapshot) Severity() Severity {
	precip := deref(s.PrecipMMPerHour)
	gust := deref(s.WindGustMS)
	if speed := deref(s.WindSpeedMS); speed > gust {
		gust = speed
	}
	vis := deref(s.VisibilityMeters)
	hasVis := s.VisibilityMeters != nil

	sev := SeverityNone
	switch {
	case precip >= 10 || gust >= 25 || (hasVis && vis < 200):
		sev = SeverityExtreme
	case precip >= 6 || gust >= 20 || (hasVis && vis < 500):
		sev = SeveritySevere
	case precip >= 2.5 || gust >= 14 || (hasVis && vis < 1000):
		sev = SeverityModerate
	case precip > 0 || gust >= 10:
		sev = SeverityLight
	}

	if s.PrecipType != nil && *s.PrecipType == "snow" && sev != SeverityExtreme && sev != SeverityNone {
		sev = bump(sev)
	}
	return sev
}

func bump(s Severity) Severity {
	switch s {
	case SeverityLight:
		return SeverityModerate
	case SeverityModerate:
		return SeveritySevere
	case SeveritySevere:
		return SeverityExtreme
	default:
		return s
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// ForecastPoint is one short-range forecast entry used for trend derivation.
type ForecastPoint struct {
	Time            time.Time
	PrecipMMPerHour float64
	WindGustMS      float64
}

// DeriveTrend compares near-term forecast points against current conditions.
// Returns steady when the forecast list is too thin to judge.
func DeriveTrend(current Snapshot, points []ForecastPoint) Trend {
	if len(points) < 2 {
		return TrendSteady
	}

	now := deref(current.PrecipMMPerHour) + deref(current.WindGustMS)/5
	var later float64
	n := len(points)
	if n > 3 {
		n = 3
	}
	for _, p := range points[:n] {
		later += p.PrecipMMPerHour + p.WindGustMS/5
	}
	later /= float64(n)

	switch {
	case later < now*0.7:
		return TrendImproving
	case later > now*1.3 && later > 0.5:
		return TrendWorsening
	default:
		return TrendSteady
	}
}
