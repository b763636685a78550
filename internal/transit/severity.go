package transit

// effectSeverity maps upstream GTFS-style alert effect codes to severity
// buckets. The MTA feed leaves several real-world effect codes out of the
// published enum, so any unrecognized non-empty code falls through to
// moderate rather than being dropped.
var effectSeverity = map[string]Severity{
	"NO_SERVICE":         SeverityExtreme,
	"SIGNIFICANT_DELAYS": SeverityHigh,
	"REDUCED_SERVICE":    SeverityHigh,
	"DETOUR":             SeverityModerate,
	"MODIFIED_SERVICE":   SeverityModerate,
	"DELAYS":             SeverityModerate,
	"ADDITIONAL_SERVICE": SeverityLow,
	"STOP_MOVED":         SeverityLow,
	"OTHER_EFFECT":       SeverityLow,
	"UNKNOWN_EFFECT":     SeverityLow,
}

// MapEffectSeverity maps a raw alert effect code to a severity bucket.
// An absent or empty code maps to none; an unrecognized non-empty code maps
// to moderate, never silently to none.
func MapEffectSeverity(effect string) Severity {
	if effect == "" {
		return SeverityNone
	}
	if sev, ok := effectSeverity[effect]; ok {
		return sev
	}
	return SeverityModerate
}
