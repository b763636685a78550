package transit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormadvisor/stormadvisor/internal/transit"
)

// mockAlertProvider is a mock subway alert source for testing.
type mockAlertProvider struct {
	mu        sync.Mutex
	callCount int
	entities  []map[string]any
	err       error
}

func (m *mockAlertProvider) FetchAlerts(_ context.Context) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	return m.entities, nil
}

func (m *mockAlertProvider) Name() string { return "mock-alerts" }

func (m *mockAlertProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// mockPATHProvider is a mock PATH status source for testing.
type mockPATHProvider struct {
	mu        sync.Mutex
	callCount int
	status    transit.LineStatus
	err       error
}

func (m *mockPATHProvider) FetchStatus(_ context.Context) (transit.LineStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.err != nil {
		return transit.LineStatus{}, m.err
	}
	return m.status, nil
}

func (m *mockPATHProvider) Name() string { return "mock-path" }

func (m *mockPATHProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func newTestService(alerts *mockAlertProvider, path *mockPATHProvider) *transit.Service {
	return transit.NewService(transit.ServiceConfig{
		AlertProvider: alerts,
		PATHProvider:  path,
		Logger:        zerolog.Nop(),
	})
}

func TestTripTouchesNewJersey(t *testing.T) {
	tests := []struct {
		origin      string
		destination string
		want        bool
	}{
		{"Hoboken, NJ", "Manhattan", true},
		{"Manhattan", "Jersey City", true},
		{"Newark Penn Station", "World Trade Center", true},
		{"Brooklyn", "Queens", false},
		{"Upper West Side", "East Village", false},
		{"JOURNAL SQUARE", "Midtown", true},
	}

	for _, tt := range tests {
		got := transit.TripTouchesNewJersey(tt.origin, tt.destination)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.origin, tt.destination)
	}
}

func TestGetStatus_PATHGating(t *testing.T) {
	t.Run("NJ trip issues PATH fetch", func(t *testing.T) {
		alerts := &mockAlertProvider{}
		path := &mockPATHProvider{status: transit.NormalLine()}
		svc := newTestService(alerts, path)

		status := svc.GetStatus(context.Background(), "Hoboken, NJ", "Manhattan", nil)

		assert.Equal(t, 1, path.calls())
		require.NotNil(t, status.PATH)
		assert.Equal(t, transit.StateNormal, status.PATH.Status)
	})

	t.Run("NYC-only trip skips PATH fetch", func(t *testing.T) {
		alerts := &mockAlertProvider{}
		path := &mockPATHProvider{status: transit.NormalLine()}
		svc := newTestService(alerts, path)

		status := svc.GetStatus(context.Background(), "Brooklyn", "Queens", nil)

		assert.Equal(t, 0, path.calls())
		assert.Nil(t, status.PATH)
	})
}

func TestGetStatus_TrimsToRequestedLines(t *testing.T) {
	alerts := &mockAlertProvider{
		entities: []map[string]any{
			alertEntity([]string{"A"}, map[string]any{
				"header_text": translatedHeader("A trains delayed"),
			}),
		},
	}
	svc := newTestService(alerts, &mockPATHProvider{})

	status := svc.GetStatus(context.Background(), "Brooklyn", "Queens", []string{"A", "G"})

	assert.Len(t, status.Subway, 2)
	assert.Equal(t, transit.StateDelays, status.Subway["A"].Status)
	assert.Equal(t, transit.StateNormal, status.Subway["G"].Status)
	_, hasOthers := status.Subway["L"]
	assert.False(t, hasOthers)
}

func TestGetStatus_AlertFeedFailureYieldsAllNormal(t *testing.T) {
	alerts := &mockAlertProvider{err: errors.New("upstream down")}
	svc := newTestService(alerts, &mockPATHProvider{})

	status := svc.GetStatus(context.Background(), "Brooklyn", "Queens", nil)

	assert.Equal(t, transit.SeverityNone, status.Severity)
	assert.Equal(t, "Good service on all lines", status.Summary)
	for _, st := range status.Subway {
		assert.Equal(t, transit.StateNormal, st.Status)
	}
}

func TestGetStatus_PATHFailureYieldsNormalPATH(t *testing.T) {
	alerts := &mockAlertProvider{}
	path := &mockPATHProvider{err: errors.New("feed down")}
	svc := newTestService(alerts, path)

	status := svc.GetStatus(context.Background(), "Hoboken, NJ", "Manhattan", nil)

	require.NotNil(t, status.PATH)
	assert.Equal(t, transit.StateNormal, status.PATH.Status)
	assert.Nil(t, status.PATH.Message)
}

func TestGetStatus_CachesAlertFeed(t *testing.T) {
	alerts := &mockAlertProvider{}
	svc := transit.NewService(transit.ServiceConfig{
		AlertProvider: alerts,
		PATHProvider:  &mockPATHProvider{},
		Logger:        zerolog.Nop(),
		CacheTTL:      time.Minute,
	})

	svc.GetStatus(context.Background(), "Brooklyn", "Queens", nil)
	svc.GetStatus(context.Background(), "Brooklyn", "Queens", nil)

	assert.Equal(t, 1, alerts.calls())

	stats := svc.CacheStats()
	assert.True(t, stats.HasAlertCache)
	assert.Equal(t, "mock-alerts", stats.Provider)
}

func TestBuildSummary(t *testing.T) {
	msg := "delayed"
	delayed := transit.LineStatus{Status: transit.StateDelays, Message: &msg}

	tests := []struct {
		name   string
		subway map[string]transit.LineStatus
		path   *transit.LineStatus
		want   string
	}{
		{
			"all clear",
			map[string]transit.LineStatus{"A": transit.NormalLine()},
			nil,
			"Good service on all lines",
		},
		{
			"subway only",
			map[string]transit.LineStatus{"A": delayed, "C": delayed},
			nil,
			"Delays on A, C",
		},
		{
			"path only",
			map[string]transit.LineStatus{"A": transit.NormalLine()},
			&delayed,
			"PATH service affected",
		},
		{
			"both",
			map[string]transit.LineStatus{"4": delayed},
			&delayed,
			"Delays on 4; PATH service affected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transit.BuildSummary(tt.subway, tt.path))
		})
	}
}
