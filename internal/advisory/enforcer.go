package advisory

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

// The model is prompted for an exact schema but drifts: fenced output, prose
// around the JSON, renamed keys, boolean verdicts, too few or too many
// reasons. EnforceSchema is a total function from arbitrary completion text
// to a valid Recommendation; nothing the model emits can make it fail.

var validate = validator.New()

// verdictAliases maps the exact lowercase forms a drifting model has been
// seen to emit onto canonical verdicts.
var verdictAliases = map[string]Verdict{
	"go for it":         VerdictGo,
	"go":                VerdictGo,
	"yes":               VerdictGo,
	"go if you have to": VerdictIfNeeded,
	"go if needed":      VerdictIfNeeded,
	"if you have to":    VerdictIfNeeded,
	"maybe":             VerdictIfNeeded,
	"wait it out":       VerdictWait,
	"wait":              VerdictWait,
	"not tonight":       VerdictWait,
	"no":                VerdictWait,
	"stay in tonight":   VerdictStayIn,
	"stay in":           VerdictStayIn,
	"stay home":         VerdictStayIn,
	"do not travel":     VerdictStayIn,
}

var riskAliases = map[string]ReturnRisk{
	"low":      RiskLow,
	"medium":   RiskMedium,
	"moderate": RiskMedium,
	"high":     RiskHigh,
	"severe":   RiskHigh,
	"unknown":  RiskUnknown,
}

// Key alias lists, probed in order. First key present in the object wins.
var (
	verdictKeys = []string{"verdict", "recommendation", "decision"}
	reasonKeys  = []string{"reasons", "reasoning", "rationale", "factors", "key_reasons"}
	riskKeys    = []string{"return_risk", "returnRisk", "risk", "return_trip_risk"}
	routeKeys   = []string{"best_route_advice", "route_advice", "best_route", "route_recommendation"}
	summaryKeys = []string{"summary", "tldr", "overview", "message"}
)

// EnforceSchema converts raw completion text into a valid Recommendation.
// Unsalvageable input falls back field by field, never as a whole: a garbled
// verdict with clean reasons keeps the reasons.
func EnforceSchema(raw string) Recommendation {
	obj, ok := decodeObject(ExtractJSON(raw))
	if !ok {
		return SafeDefault()
	}

	rec := Recommendation{
		Verdict:         extractVerdict(obj),
		Reasons:         extractReasons(obj),
		ReturnRisk:      extractRisk(obj),
		BestRouteAdvice: extractRoute(obj),
		Summary:         extractSummary(obj),
	}

	// The field extractors individually guarantee valid values, so this gate
	// only trips on a bug in the enforcer itself.
	if err := validate.Struct(rec); err != nil {
		return SafeDefault()
	}
	return rec
}

// ExtractJSON slices the first '{' through the last '}' out of the raw text,
// after stripping markdown code fences. Returns the trimmed input unchanged
// when no braces are found.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

func decodeObject(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// firstPresent returns the value under the first alias key present in the
// object, even when that value is null.
func firstPresent(obj map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func extractVerdict(obj map[string]any) Verdict {
	v, ok := firstPresent(obj, verdictKeys)
	if !ok {
		return VerdictWait
	}
	switch val := v.(type) {
	case string:
		if verdict, ok := verdictAliases[strings.ToLower(strings.TrimSpace(val))]; ok {
			return verdict
		}
		return VerdictWait
	case bool:
		if val {
			return VerdictGo
		}
		return VerdictStayIn
	default:
		return VerdictWait
	}
}

func extractReasons(obj map[string]any) []string {
	reasons := []string{}
	if v, ok := firstPresent(obj, reasonKeys); ok {
		switch val := v.(type) {
		case []any:
			for _, item := range val {
				if s := coerceString(item); s != "" {
					reasons = append(reasons, s)
				}
			}
		case string:
			if s := strings.TrimSpace(val); s != "" {
				reasons = append(reasons, s)
			}
		}
	}

	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	for len(reasons) < 2 {
		reasons = append(reasons, fillerReason)
	}
	return reasons
}

// coerceString renders any reason element as text. Models occasionally emit
// numbers or nested objects in the reasons array.
func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return strings.Trim(string(encoded), `"`)
	}
}

func extractRisk(obj map[string]any) ReturnRisk {
	v, ok := firstPresent(obj, riskKeys)
	if !ok {
		return RiskUnknown
	}
	s, ok := v.(string)
	if !ok {
		return RiskUnknown
	}
	if risk, ok := riskAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return risk
	}
	return RiskUnknown
}

// extractRoute returns nil for anything but a non-empty string; route advice
// is the one genuinely optional field.
func extractRoute(obj map[string]any) *string {
	v, ok := firstPresent(obj, routeKeys)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func extractSummary(obj map[string]any) string {
	if v, ok := firstPresent(obj, summaryKeys); ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fallbackSummary
}
