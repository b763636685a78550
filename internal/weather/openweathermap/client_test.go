package openweathermap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormadvisor/stormadvisor/internal/weather"
	"github.com/stormadvisor/stormadvisor/internal/weather/openweathermap"
)

func newUpstream(t *testing.T, currentBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/weather", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentBody))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"list":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *openweathermap.Client {
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Logger:  zerolog.Nop(),
	})
}

func TestGetSnapshot_OmittedVisibilityStaysUnset(t *testing.T) {
	// The upstream drops the visibility field entirely in clear conditions;
	// that must not decode as a 0 m reading.
	srv := newUpstream(t, `{
		"weather": [{"main": "Clear"}],
		"main": {"feels_like": 20},
		"wind": {"speed": 2}
	}`)
	client := newTestClient(srv)

	snap, err := client.GetSnapshot(context.Background(), 40.71, -74.00)

	require.NoError(t, err)
	assert.Nil(t, snap.VisibilityMeters)
	assert.Equal(t, weather.SeverityNone, snap.Severity())
}

func TestGetSnapshot_ZeroVisibilityIsAReading(t *testing.T) {
	srv := newUpstream(t, `{
		"weather": [{"main": "Fog"}],
		"main": {"feels_like": 5},
		"wind": {"speed": 1},
		"visibility": 0
	}`)
	client := newTestClient(srv)

	snap, err := client.GetSnapshot(context.Background(), 40.71, -74.00)

	require.NoError(t, err)
	require.NotNil(t, snap.VisibilityMeters)
	assert.Equal(t, 0.0, *snap.VisibilityMeters)
	assert.Equal(t, weather.SeverityExtreme, snap.Severity())
}

func TestGetSnapshot_ReducesCurrentConditions(t *testing.T) {
	srv := newUpstream(t, `{
		"weather": [{"main": "Rain"}],
		"main": {"feels_like": 8.5},
		"wind": {"speed": 6, "gust": 12},
		"rain": {"1h": 3.2},
		"visibility": 9000
	}`)
	client := newTestClient(srv)

	snap, err := client.GetSnapshot(context.Background(), 40.71, -74.00)

	require.NoError(t, err)
	require.NotNil(t, snap.PrecipMMPerHour)
	assert.Equal(t, 3.2, *snap.PrecipMMPerHour)
	require.NotNil(t, snap.PrecipType)
	assert.Equal(t, "rain", *snap.PrecipType)
	require.NotNil(t, snap.WindGustMS)
	assert.Equal(t, 12.0, *snap.WindGustMS)
	require.NotNil(t, snap.VisibilityMeters)
	assert.Equal(t, 9000.0, *snap.VisibilityMeters)
	require.NotNil(t, snap.Condition)
	assert.Equal(t, "Rain", *snap.Condition)
	assert.Equal(t, weather.SeverityModerate, snap.Severity())
}

func TestGetSnapshot_SnowOutweighsRain(t *testing.T) {
	srv := newUpstream(t, `{
		"weather": [{"main": "Snow"}],
		"main": {"feels_like": -2},
		"wind": {"speed": 4},
		"rain": {"1h": 0.5},
		"snow": {"1h": 4.0}
	}`)
	client := newTestClient(srv)

	snap, err := client.GetSnapshot(context.Background(), 40.71, -74.00)

	require.NoError(t, err)
	require.NotNil(t, snap.PrecipMMPerHour)
	assert.Equal(t, 4.0, *snap.PrecipMMPerHour)
	require.NotNil(t, snap.PrecipType)
	assert.Equal(t, "snow", *snap.PrecipType)
}
