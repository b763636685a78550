// Package mta provides a client for the MTA subway service-alerts feed.
package mta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stormadvisor/stormadvisor/internal/provider/resilience"
)

const (
	// ProviderName identifies this alert provider.
	ProviderName = "mta"

	// DefaultFeedURL is the MTA subway alerts JSON feed.
	DefaultFeedURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/camsys%2Fsubway-alerts.json"
)

// ClientConfig holds configuration for the MTA client.
type ClientConfig struct {
	// APIKey is the MTA API key (optional, the public mirror accepts none).
	APIKey string

	// FeedURL is the alerts feed URL (optional, defaults to the MTA feed).
	FeedURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches the MTA subway alerts feed. The feed is decoded loosely: the
// upstream schema drifts, so the normalizer downstream works on raw entities
// rather than typed structs.
type Client struct {
	apiKey     string
	feedURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new MTA client.
func NewClient(cfg ClientConfig) *Client {
	feedURL := cfg.FeedURL
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		feedURL:    feedURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchAlerts fetches the full alert entity collection. A top-level shape
// that carries no entity list yields an empty collection, not an error: the
// alert feed must never be the reason an advisory fails.
func (c *Client) FetchAlerts(ctx context.Context) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var feed map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	raw, ok := feed["entity"].([]any)
	if !ok {
		c.logger.Warn().Msg("alert feed carried no entity list")
		return nil, nil
	}

	entities := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if e, ok := item.(map[string]any); ok {
			entities = append(entities, e)
		}
	}

	c.logger.Debug().
		Int("entities", len(entities)).
		Msg("fetched alert feed")

	return entities, nil
}
