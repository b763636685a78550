// Package googlemaps provides a directions and geocoding client for the
// Google Maps web service APIs.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stormadvisor/stormadvisor/internal/provider/resilience"
	"github.com/stormadvisor/stormadvisor/internal/travel"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "googlemaps"

	// DefaultBaseURL is the Google Maps web services base URL.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"
)

// ClientConfig holds configuration for the Google Maps client.
type ClientConfig struct {
	// APIKey is the Google Maps API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Maps directions and geocoding client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Google Maps client.
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

// directionsResponse is the subset of the Directions API payload we consume.
type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Steps []struct {
				HTMLInstructions string `json:"html_instructions"`
				TravelMode       string `json:"travel_mode"`
				Duration         struct {
					Value int `json:"value"`
				} `json:"duration"`
				Distance struct {
					Value int `json:"value"`
				} `json:"distance"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// geocodeResponse is the subset of the Geocoding API payload we consume.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// GetWalkingDirections returns walking route alternatives with step detail.
func (c *Client) GetWalkingDirections(ctx context.Context, origin, destination travel.Coordinate) ([]travel.Route, error) {
	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%.6f,%.6f", origin.Lat, origin.Lon))
	q.Set("destination", fmt.Sprintf("%.6f,%.6f", destination.Lat, destination.Lon))
	q.Set("mode", "walking")
	q.Set("alternatives", "true")
	q.Set("key", c.apiKey)

	var dr directionsResponse
	if err := c.getJSON(ctx, c.baseURL+"/directions/json?"+q.Encode(), &dr); err != nil {
		return nil, err
	}

	switch dr.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, travel.ErrNoRouteFound
	default:
		return nil, fmt.Errorf("%w: directions status %s", travel.ErrProviderUnavailable, dr.Status)
	}

	routes := make([]travel.Route, 0, len(dr.Routes))
	for _, r := range dr.Routes {
		if len(r.Legs) == 0 {
			continue
		}
		leg := r.Legs[0]
		route := travel.Route{
			DurationSeconds: leg.Duration.Value,
			DistanceMeters:  leg.Distance.Value,
			Steps:           make([]travel.Step, 0, len(leg.Steps)),
		}
		for _, s := range leg.Steps {
			instruction := stripHTML(s.HTMLInstructions)
			route.Steps = append(route.Steps, travel.Step{
				Instruction:     instruction,
				Street:          streetFromInstruction(instruction),
				TravelMode:      s.TravelMode,
				DurationSeconds: s.Duration.Value,
				DistanceMeters:  s.Distance.Value,
			})
		}
		routes = append(routes, route)
	}

	c.logger.Debug().
		Int("route_count", len(routes)).
		Msg("received walking directions")

	return routes, nil
}

// Geocode resolves a free-text place query to coordinates.
func (c *Client) Geocode(ctx context.Context, query string) (travel.Coordinate, error) {
	q := url.Values{}
	q.Set("address", query)
	q.Set("key", c.apiKey)

	var gr geocodeResponse
	if err := c.getJSON(ctx, c.baseURL+"/geocode/json?"+q.Encode(), &gr); err != nil {
		return travel.Coordinate{}, err
	}

	if gr.Status != "OK" || len(gr.Results) == 0 {
		return travel.Coordinate{}, fmt.Errorf("%w: geocode status %s", travel.ErrGeocodeFailed, gr.Status)
	}

	loc := gr.Results[0].Geometry.Location
	return travel.Coordinate{Lat: loc.Lat, Lon: loc.Lng}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", travel.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", travel.ErrProviderUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

var (
	htmlTag       = regexp.MustCompile(`<[^>]+>`)
	ontoStreet    = regexp.MustCompile(`(?i)\bonto\s+(.+)$`)
	onStreet      = regexp.MustCompile(`(?i)\bon\s+(.+)$`)
	towardClauses = regexp.MustCompile(`(?i)\s+toward.*$`)
)

// stripHTML flattens the HTML instruction text the Directions API returns.
func stripHTML(s string) string {
	s = htmlTag.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return strings.Join(strings.Fields(s), " ")
}

// streetFromInstruction pulls the street name out of a turn instruction.
// Best effort; an empty street is acceptable downstream.
func streetFromInstruction(instruction string) string {
	text := towardClauses.ReplaceAllString(instruction, "")
	if m := ontoStreet.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(m[1], ". ")
	}
	if m := onStreet.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(m[1], ". ")
	}
	return ""
}
