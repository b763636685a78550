package transit

// The MTA service-alerts feed is consumed in its JSON form, and its shape is
// not a contract we control: header and description text arrive either as a
// translation list or as a flat string, informed entities may be missing, and
// the effect field is frequently absent even on real storm alerts. Everything
// in this file therefore works field by field on loosely decoded entities and
// degrades per alert, never per feed.

// AlertSummary is the result of normalizing a raw alert collection.
type AlertSummary struct {
	// SubwayStatus has every known line initialized, delayed lines carry the
	// extracted alert message.
	SubwayStatus map[string]LineStatus

	// MaxSeverity is the worst severity observed across matched alerts.
	MaxSeverity Severity
}

// NormalizeAlerts filters a raw alert entity collection down to the requested
// routes and produces a per-line status map plus the worst observed severity.
// routeFilter may be nil to consider every alert. The function is pure: the
// same input always yields the same output.
//
// A line is marked delayed whenever a matched alert carries any extractable
// message, independent of the alert's effect code. Gating on effect silently
// drops storm alerts whose effect field is absent, which is exactly the
// moment this system exists for.
func NormalizeAlerts(entities []map[string]any, routeFilter []string) AlertSummary {
	summary := AlertSummary{
		SubwayStatus: make(map[string]LineStatus, len(SubwayLines)),
		MaxSeverity:  SeverityNone,
	}
	for _, line := range SubwayLines {
		summary.SubwayStatus[line] = NormalLine()
	}

	var filter map[string]struct{}
	if len(routeFilter) > 0 {
		filter = make(map[string]struct{}, len(routeFilter))
		for _, r := range routeFilter {
			filter[r] = struct{}{}
		}
	}

	for _, entity := range entities {
		alert := alertBody(entity)
		if alert == nil {
			continue
		}

		// A route-less alert still contributes severity on an unfiltered
		// pass; the message loop below is a natural no-op for it.
		routes := affectedRoutes(alert)

		if filter != nil {
			matched := false
			for _, r := range routes {
				if _, ok := filter[r]; ok {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}

		summary.MaxSeverity = MaxSeverity(summary.MaxSeverity, MapEffectSeverity(effectCode(alert)))

		msg, ok := ExtractMessage(alert)
		if !ok {
			continue
		}
		for _, r := range routes {
			if !IsKnownLine(r) {
				continue
			}
			m := msg
			summary.SubwayStatus[r] = LineStatus{Status: StateDelays, Message: &m}
		}
	}

	return summary
}

// alertBody returns the alert object of a feed entity. Some mirrors wrap the
// alert in an entity envelope, others emit the alert fields at the top level.
func alertBody(entity map[string]any) map[string]any {
	if entity == nil {
		return nil
	}
	if a, ok := entity["alert"].(map[string]any); ok {
		return a
	}
	return entity
}

// affectedRoutes extracts route identifiers from the informed-entity list.
// Returns an empty slice when the list is absent or malformed; a single bad
// alert never fails the whole pass.
func affectedRoutes(alert map[string]any) []string {
	list, ok := alert["informed_entity"].([]any)
	if !ok {
		list, ok = alert["informedEntity"].([]any)
	}
	if !ok {
		return nil
	}

	seen := make(map[string]struct{}, len(list))
	routes := make([]string, 0, len(list))
	for _, item := range list {
		ie, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := stringField(ie, "route_id", "routeId")
		if !ok || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		routes = append(routes, id)
	}
	return routes
}

// effectCode returns the alert effect as a string. A non-string, non-nil
// effect counts as unrecognized and is reported as such so the severity
// mapper applies its conservative default.
func effectCode(alert map[string]any) string {
	v, ok := alert["effect"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "UNRECOGNIZED"
}

// messageExtractor is one entry in the ordered fallback chain for extracting
// human-readable alert text. Each entry is independently unit-testable.
type messageExtractor struct {
	name    string
	extract func(alert map[string]any) (string, bool)
}

// messageExtractors is tried in order; the first success wins. The order
// mirrors the upstream feed's reliability: translated header text is the
// richest shape, flat description strings the last resort.
var messageExtractors = []messageExtractor{
	{"header_translation", func(a map[string]any) (string, bool) {
		return translationText(a, "header_text", "headerText")
	}},
	{"header_flat", func(a map[string]any) (string, bool) {
		return flatText(a, "header_text", "headerText")
	}},
	{"header_string", func(a map[string]any) (string, bool) {
		return stringField(a, "header_text", "headerText", "header")
	}},
	{"description_translation", func(a map[string]any) (string, bool) {
		return translationText(a, "description_text", "descriptionText")
	}},
	{"description_flat", func(a map[string]any) (string, bool) {
		return flatText(a, "description_text", "descriptionText")
	}},
	{"description_string", func(a map[string]any) (string, bool) {
		return stringField(a, "description_text", "descriptionText", "description")
	}},
}

// ExtractMessage extracts a human-readable message from an alert, trying each
// known feed shape in order. Returns false when no shape yields text.
func ExtractMessage(alert map[string]any) (string, bool) {
	for _, e := range messageExtractors {
		if msg, ok := e.extract(alert); ok && msg != "" {
			return msg, true
		}
	}
	return "", false
}

// translationText reads text from a {translation:[{text,language}]} shape,
// preferring an English entry and falling back to the first with text.
func translationText(alert map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		wrapper, ok := alert[key].(map[string]any)
		if !ok {
			continue
		}
		list, ok := wrapper["translation"].([]any)
		if !ok {
			continue
		}
		first := ""
		for _, item := range list {
			t, ok := item.(map[string]any)
			if !ok {
				continue
			}
			text, _ := t["text"].(string)
			if text == "" {
				continue
			}
			lang, _ := t["language"].(string)
			if lang == "en" || lang == "" {
				return text, true
			}
			if first == "" {
				first = text
			}
		}
		if first != "" {
			return first, true
		}
	}
	return "", false
}

// flatText reads text from a {text: "..."} wrapper shape.
func flatText(alert map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		wrapper, ok := alert[key].(map[string]any)
		if !ok {
			continue
		}
		if text, ok := wrapper["text"].(string); ok && text != "" {
			return text, true
		}
	}
	return "", false
}

// stringField reads the first of the given keys that holds a plain string.
func stringField(m map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
