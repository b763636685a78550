package advisory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stormadvisor/stormadvisor/internal/transit"
)

// systemPolicy is the fixed system prompt for the reasoning step. The output
// contract it states is a request, not a guarantee; the enforcer backstops it.
const systemPolicy = `You are a New York City travel advisor during storm conditions. Given live weather, transit status, and route data for one trip, decide whether the traveler should make the trip right now.

Respond with a single JSON object and nothing else, using exactly these fields:
{
  "verdict": one of "Go for it", "Go if you have to", "Wait it out", "Stay in tonight",
  "reasons": an array of 2 to 3 short strings citing the specific conditions that drove the verdict,
  "return_risk": one of "low", "medium", "high", "unknown" for the risk the return trip is worse,
  "best_route_advice": a one-sentence route suggestion, or null if you have none,
  "summary": one friendly sentence a traveler can act on
}

Rules:
- Weigh the return trip, not just the outbound leg. Storms worsen.
- An active travel ban means "Stay in tonight" regardless of other factors.
- Cite the transit summary line when transit conditions affect the verdict.
- Be honest about uncertainty. When data is missing, lean cautious.`

// BuildUserMessage serializes the fused payload into the reasoning user
// message. The full per-line transit map is trimmed to lines currently
// carrying an issue before inclusion; a context window full of normal lines
// degrades the model's ability to cite the one problem line. The one-line
// transit summary goes in separately as the citation anchor.
func BuildUserMessage(p Payload) (string, error) {
	trimmed := p
	trimmed.Transit.Subway = issueLines(p.Transit.Subway)

	encoded, err := json.MarshalIndent(trimmed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	var b strings.Builder
	b.WriteString("Trip: ")
	b.WriteString(p.Origin)
	b.WriteString(" to ")
	b.WriteString(p.Destination)
	b.WriteString("\n\nTransit summary: ")
	b.WriteString(p.Transit.Summary)
	b.WriteString("\n\n")
	b.WriteString(routeDirective(p))
	b.WriteString("\n\nConditions:\n")
	b.Write(encoded)
	return b.String(), nil
}

// issueLines keeps only lines whose status is not normal.
func issueLines(subway map[string]transit.LineStatus) map[string]transit.LineStatus {
	issues := make(map[string]transit.LineStatus)
	for line, status := range subway {
		if status.Status != transit.StateNormal {
			issues[line] = status
		}
	}
	return issues
}

// routeDirective scopes which transit lines the model may name, keeping its
// advice anchored to the actual route.
func routeDirective(p Payload) string {
	if p.Travel == nil {
		return "Route data is unavailable for this trip; do not invent specific route details."
	}
	if p.Travel.FerryOnlyRoute {
		return "Every route for this trip crosses water, so subway and PATH guidance does not apply. Do not name any transit line."
	}
	if len(p.Travel.RelevantLines) > 0 {
		return fmt.Sprintf("Only reference these subway lines, which serve this route: %s.", strings.Join(p.Travel.RelevantLines, ", "))
	}
	return "No specific subway lines were identified for this route; keep transit advice general."
}
