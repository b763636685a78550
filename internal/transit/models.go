// Package transit provides NYC subway and PATH service status derived from
// live alert feeds.
package transit

import "errors"

// Transit errors.
var (
	ErrFeedUnavailable = errors.New("transit alert feed unavailable")
)

// Severity is the ordinal collapse of upstream alert effect codes.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityExtreme  Severity = "extreme"
)

// severityRank orders severities for worst-case comparison.
var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityModerate: 2,
	SeverityHigh:     3,
	SeverityExtreme:  4,
}

// Rank returns the ordinal rank of the severity. Unknown values rank as none.
func (s Severity) Rank() int {
	return severityRank[s]
}

// MaxSeverity returns the worse of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ServiceState is the per-line service state.
type ServiceState string

const (
	StateNormal ServiceState = "normal"
	StateDelays ServiceState = "delays"
)

// LineStatus is the status of a single line. Message is nil when there is no
// active alert text for the line; a non-nil message always means delays.
type LineStatus struct {
	Status  ServiceState `json:"status"`
	Message *string      `json:"message"`
}

// NormalLine returns the default status for a line with no alerts.
func NormalLine() LineStatus {
	return LineStatus{Status: StateNormal, Message: nil}
}

// SubwayLines is the fixed universe of NYC subway line identifiers.
var SubwayLines = []string{
	"1", "2", "3", "4", "5", "6", "7",
	"A", "C", "E", "B", "D", "F", "M",
	"G", "J", "Z", "L", "N", "Q", "R", "W",
}

var subwayLineSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(SubwayLines))
	for _, l := range SubwayLines {
		m[l] = struct{}{}
	}
	return m
}()

// IsKnownLine reports whether id is in the fixed subway line universe.
func IsKnownLine(id string) bool {
	_, ok := subwayLineSet[id]
	return ok
}

// Status is the fused transit picture for one trip. PATH is nil exactly when
// the trip does not plausibly involve New Jersey and the PATH fetch was
// skipped entirely.
type Status struct {
	Subway   map[string]LineStatus `json:"subway"`
	PATH     *LineStatus           `json:"path"`
	Summary  string                `json:"summary"`
	Severity Severity              `json:"severity"`
}

// AllNormalStatus returns the default status with every known line normal.
func AllNormalStatus() Status {
	subway := make(map[string]LineStatus, len(SubwayLines))
	for _, line := range SubwayLines {
		subway[line] = NormalLine()
	}
	return Status{
		Subway:   subway,
		PATH:     nil,
		Summary:  summaryAllClear,
		Severity: SeverityNone,
	}
}
