// Package advisory fuses weather, transit, travel, and travel-ban data into
// one reasoning payload and enforces the recommendation output schema.
package advisory

import (
	"time"

	"github.com/stormadvisor/stormadvisor/internal/ban"
	"github.com/stormadvisor/stormadvisor/internal/transit"
	"github.com/stormadvisor/stormadvisor/internal/travel"
	"github.com/stormadvisor/stormadvisor/internal/weather"
)

// Verdict is the headline trip recommendation.
type Verdict string

const (
	VerdictGo       Verdict = "Go for it"
	VerdictIfNeeded Verdict = "Go if you have to"
	VerdictWait     Verdict = "Wait it out"
	VerdictStayIn   Verdict = "Stay in tonight"
)

// ReturnRisk rates the risk of the return leg getting worse.
type ReturnRisk string

const (
	RiskLow     ReturnRisk = "low"
	RiskMedium  ReturnRisk = "medium"
	RiskHigh    ReturnRisk = "high"
	RiskUnknown ReturnRisk = "unknown"
)

// Recommendation is the final advisory output. It is always fully populated
// and always passes validation; the enforcer guarantees the shape, the model
// is never trusted to.
type Recommendation struct {
	Verdict         Verdict    `json:"verdict" validate:"required,oneof='Go for it' 'Go if you have to' 'Wait it out' 'Stay in tonight'"`
	Reasons         []string   `json:"reasons" validate:"min=2,max=3,dive,required"`
	ReturnRisk      ReturnRisk `json:"return_risk" validate:"required,oneof=low medium high unknown"`
	BestRouteAdvice *string    `json:"best_route_advice"`
	Summary         string     `json:"summary" validate:"required"`
}

// Fixed strings used when the model under-delivers.
const (
	fillerReason    = "Conditions can change quickly during a storm"
	fallbackSummary = "Check conditions again before heading out."
	apologySummary  = "Sorry, we couldn't fully assess conditions right now. When in doubt during a storm, waiting it out is the safer call."
)

// SafeDefault is the recommendation substituted when the reasoning call
// fails outright. Biased toward caution, never toward false confidence.
func SafeDefault() Recommendation {
	return Recommendation{
		Verdict: VerdictWait,
		Reasons: []string{
			"Live condition data was unavailable",
			fillerReason,
		},
		ReturnRisk:      RiskHigh,
		BestRouteAdvice: nil,
		Summary:         apologySummary,
	}
}

// Payload is the fused, request-scoped input to the reasoning step. Optional
// fields are explicit pointers so they serialize as null, never as a missing
// or undefined-shaped value.
type Payload struct {
	Origin          string           `json:"origin"`
	Destination     string           `json:"destination"`
	Weather         weather.Snapshot `json:"weather"`
	WeatherSeverity weather.Severity `json:"weather_severity"`
	Transit         transit.Status   `json:"transit"`
	Travel          *travel.Data     `json:"travel"`
	TravelBan       ban.Status       `json:"travel_ban"`
	IsWalkable      bool             `json:"is_walkable"`
}

// Result is the full advisory returned to the caller.
type Result struct {
	Recommendation Recommendation   `json:"recommendation"`
	Weather        weather.Snapshot `json:"weather"`
	Transit        transit.Status   `json:"transit"`
	Travel         *travel.Data     `json:"travel"`
	TravelBan      ban.Status       `json:"travel_ban"`
	IsWalkable     bool             `json:"is_walkable"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
