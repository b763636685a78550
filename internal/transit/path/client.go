// Package path provides a client for the PATH real-time arrivals feed.
package path

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stormadvisor/stormadvisor/internal/provider/resilience"
	"github.com/stormadvisor/stormadvisor/internal/transit"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "path"

	// DefaultFeedURL is the community real-time PATH arrivals feed.
	DefaultFeedURL = "https://path.api.razza.dev/v1/stations/hoboken/realtime"

	// delayThresholdSeconds marks an arrival as delayed when the feed reports
	// a wait beyond 20 minutes.
	delayThresholdSeconds = 1200
)

// feed mirrors the arrivals feed shape: results -> destinations -> messages.
type feed struct {
	Results []struct {
		Destinations []struct {
			Messages []message `json:"messages"`
		} `json:"destinations"`
	} `json:"results"`
}

type message struct {
	HeadSign           string `json:"headSign"`
	ArrivalTimeMessage string `json:"arrivalTimeMessage"`
	SecondsToArrival   string `json:"secondsToArrival"`
}

// ClientConfig holds configuration for the PATH client.
type ClientConfig struct {
	// FeedURL is the arrivals feed URL (optional).
	FeedURL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches PATH status from the real-time arrivals feed.
type Client struct {
	feedURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new PATH client.
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
		feedURL:    feedURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchStatus fetches and parses the arrivals feed. Any fetch or parse
// failure resolves to the normal default; this endpoint must never be the
// cause of a user-facing failure.
func (c *Client) FetchStatus(ctx context.Context) (transit.LineStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, http.NoBody)
	if err != nil {
		return transit.NormalLine(), nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("PATH feed fetch failed, assuming normal service")
		return transit.NormalLine(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("PATH feed returned non-OK, assuming normal service")
		return transit.NormalLine(), nil
	}

	var f feed
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		c.logger.Warn().Err(err).Msg("PATH feed unparsable, assuming normal service")
		return transit.NormalLine(), nil
	}

	return ParseFeedStatus(f), nil
}

// ParseFeedStatus scans the nested messages for either an explicit delay
// marker or a wait beyond the delay threshold. The first qualifying message
// short-circuits the scan.
func ParseFeedStatus(f feed) transit.LineStatus {
	for _, result := range f.Results {
		for _, dest := range result.Destinations {
			for _, msg := range dest.Messages {
				if delayed, text := classifyMessage(msg); delayed {
					return transit.LineStatus{Status: transit.StateDelays, Message: &text}
				}
			}
		}
	}
	return transit.NormalLine()
}

func classifyMessage(msg message) (bool, string) {
	if strings.Contains(strings.ToLower(msg.ArrivalTimeMessage), "delay") {
		return true, delayText(msg)
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(msg.SecondsToArrival)); err == nil && secs > delayThresholdSeconds {
		return true, delayText(msg)
	}
	return false, ""
}

func delayText(msg message) string {
	if msg.HeadSign != "" {
		return fmt.Sprintf("PATH service to %s is delayed", msg.HeadSign)
	}
	return "PATH service is experiencing delays"
}
