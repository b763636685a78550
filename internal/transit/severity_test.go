package transit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stormadvisor/stormadvisor/internal/transit"
)

func TestMapEffectSeverity(t *testing.T) {
	tests := []struct {
		name   string
		effect string
		want   transit.Severity
	}{
		{"absent effect", "", transit.SeverityNone},
		{"no service", "NO_SERVICE", transit.SeverityExtreme},
		{"significant delays", "SIGNIFICANT_DELAYS", transit.SeverityHigh},
		{"reduced service", "REDUCED_SERVICE", transit.SeverityHigh},
		{"plain delays", "DELAYS", transit.SeverityModerate},
		{"detour", "DETOUR", transit.SeverityModerate},
		{"modified service", "MODIFIED_SERVICE", transit.SeverityModerate},
		{"additional service", "ADDITIONAL_SERVICE", transit.SeverityLow},
		{"stop moved", "STOP_MOVED", transit.SeverityLow},
		{"other effect", "OTHER_EFFECT", transit.SeverityLow},
		{"unknown effect code", "UNKNOWN_EFFECT", transit.SeverityLow},
		{"unrecognized value defaults to moderate", "SOMETHING_NEW", transit.SeverityModerate},
		{"non-string marker defaults to moderate", "UNRECOGNIZED", transit.SeverityModerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transit.MapEffectSeverity(tt.effect))
		})
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	ordered := []transit.Severity{
		transit.SeverityNone,
		transit.SeverityLow,
		transit.SeverityModerate,
		transit.SeverityHigh,
		transit.SeverityExtreme,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank())
	}
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, transit.SeverityHigh, transit.MaxSeverity(transit.SeverityHigh, transit.SeverityLow))
	assert.Equal(t, transit.SeverityHigh, transit.MaxSeverity(transit.SeverityLow, transit.SeverityHigh))
	assert.Equal(t, transit.SeverityNone, transit.MaxSeverity(transit.SeverityNone, transit.SeverityNone))
}
