// Package openweathermap provides a weather provider backed by the
// OpenWeatherMap current-conditions and forecast APIs.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/stormadvisor/stormadvisor/internal/provider/resilience"
	"github.com/stormadvisor/stormadvisor/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client reduced to the advisory snapshot
// contract.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// currentResponse is the subset of the current-conditions payload we consume.
type currentResponse struct {
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main struct {
		FeelsLike float64 `json:"feels_like"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
	// Visibility is a pointer: the field is omitted upstream in clear
	// conditions, and an absent reading must not decode as 0 m.
	Visibility *int `json:"visibility"`
}

// forecastResponse is the subset of the 3-hourly forecast payload we consume.
type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Wind struct {
			Gust float64 `json:"gust"`
		} `json:"wind"`
		Rain struct {
			ThreeHour float64 `json:"3h"`
		} `json:"rain"`
		Snow struct {
			ThreeHour float64 `json:"3h"`
		} `json:"snow"`
	} `json:"list"`
}

// GetSnapshot fetches current conditions and the short-range forecast and
// reduces them to a Snapshot.
func (c *Client) GetSnapshot(ctx context.Context, lat, lon float64) (*weather.Snapshot, error) {
	cur, err := c.fetchCurrent(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	snap := c.toSnapshot(cur)

	// Forecast failure only costs the trend field.
	if points, err := c.fetchForecast(ctx, lat, lon); err != nil {
		c.logger.Warn().Err(err).Msg("forecast fetch failed, trend omitted")
	} else {
		trend := weather.DeriveTrend(snap, points)
		snap.Trend = &trend
	}

	return &snap, nil
}

func (c *Client) fetchCurrent(ctx context.Context, lat, lon float64) (*currentResponse, error) {
	url := fmt.Sprintf("%s/weather?lat=%.6f&lon=%.6f&appid=%s&units=metric",
		c.baseURL, lat, lon, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var cur currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&cur); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &cur, nil
}

func (c *Client) fetchForecast(ctx context.Context, lat, lon float64) ([]weather.ForecastPoint, error) {
	url := fmt.Sprintf("%s/forecast?lat=%.6f&lon=%.6f&appid=%s&units=metric&cnt=4",
		c.baseURL, lat, lon, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var fc forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	points := make([]weather.ForecastPoint, 0, len(fc.List))
	for _, entry := range fc.List {
		points = append(points, weather.ForecastPoint{
			Time:            time.Unix(entry.Dt, 0),
			PrecipMMPerHour: (entry.Rain.ThreeHour + entry.Snow.ThreeHour) / 3,
			WindGustMS:      entry.Wind.Gust,
		})
	}
	return points, nil
}

func (c *Client) toSnapshot(cur *currentResponse) weather.Snapshot {
	snap := weather.Snapshot{FetchedAt: time.Now()}

	precip := cur.Rain.OneHour
	precipType := "rain"
	if cur.Snow.OneHour > cur.Rain.OneHour {
		precip = cur.Snow.OneHour
		precipType = "snow"
	}
	snap.PrecipMMPerHour = &precip
	if precip > 0 {
		snap.PrecipType = &precipType
	}

	speed := cur.Wind.Speed
	snap.WindSpeedMS = &speed
	if cur.Wind.Gust > 0 {
		gust := cur.Wind.Gust
		snap.WindGustMS = &gust
	}

	if cur.Visibility != nil {
		vis := float64(*cur.Visibility)
		snap.VisibilityMeters = &vis
	}

	feels := cur.Main.FeelsLike
	snap.FeelsLikeC = &feels

	if len(cur.Weather) > 0 && cur.Weather[0].Main != "" {
		cond := cur.Weather[0].Main
		snap.Condition = &cond
	}

	return snap
}
