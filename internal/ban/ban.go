// Package ban provides the citywide travel-ban signal with a single-slot
// TTL cache.
package ban

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/stormadvisor/stormadvisor/internal/provider/resilience"
)

// Ban errors.
var (
	ErrSourceUnavailable = errors.New("travel ban source unavailable")
)

// Status is the citywide travel restriction signal.
type Status string

const (
	StatusNone     Status = "none"
	StatusAdvisory Status = "advisory"
	StatusBan      Status = "ban"
	StatusUnknown  Status = "unknown"
)

// DefaultTTL is how long one fetched value stays valid.
const DefaultTTL = 10 * time.Minute

// Fetcher resolves the current travel-ban status from its source.
type Fetcher interface {
	Fetch(ctx context.Context) (Status, error)
	Name() string
}

// Cache is a single-slot TTL cache: one process-wide value, replaced
// wholesale on expiry. Concurrent requests racing past expiry may both
// refetch and both write; the value is idempotent and cheap, so the race is
// acceptable and unlocked.
type Cache struct {
	mu        sync.RWMutex
	value     Status
	fetchedAt time.Time
	has       bool

	ttl   time.Duration
	clock clockwork.Clock
}

// NewCache creates a single-slot cache. A nil clock uses the real clock.
func NewCache(ttl time.Duration, clock clockwork.Clock) *Cache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{ttl: ttl, clock: clock}
}

// Get returns the cached value and whether it is still fresh.
func (c *Cache) Get() (Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.has || c.clock.Since(c.fetchedAt) >= c.ttl {
		return StatusUnknown, false
	}
	return c.value, true
}

// Put replaces the slot.
func (c *Cache) Put(value Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.fetchedAt = c.clock.Now()
	c.has = true
}

// ServiceConfig holds configuration for the ban service.
type ServiceConfig struct {
	// Fetcher is the ban status source (required).
	Fetcher Fetcher

	// Cache is the single-slot cache (optional, defaults to a 10-minute TTL
	// real-clock cache).
	Cache *Cache

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service provides the travel-ban signal. Current is total: fetch failures
// resolve to unknown rather than an error.
type Service struct {
	fetcher Fetcher
	cache   *Cache
	logger  zerolog.Logger
}

// NewService creates a new ban service.
func NewService(cfg ServiceConfig) *Service {
	cache := cfg.Cache
	if cache == nil {
		cache = NewCache(DefaultTTL, nil)
	}
	return &Service{
		fetcher: cfg.Fetcher,
		cache:   cache,
		logger:  cfg.Logger,
	}
}

// Current returns the current travel-ban status, serving the cache when
// fresh.
func (s *Service) Current(ctx context.Context) Status {
	if status, ok := s.cache.Get(); ok {
		return status
	}

	status, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("source", s.fetcher.Name()).
			Msg("travel ban source unavailable")
		return StatusUnknown
	}

	s.cache.Put(status)
	return status
}

// StubFetcher always reports no restriction. The official signal has no
// machine-readable feed yet; the stub keeps the pipeline shape intact.
type StubFetcher struct{}

// Fetch returns StatusNone.
func (StubFetcher) Fetch(_ context.Context) (Status, error) {
	return StatusNone, nil
}

// Name returns the fetcher name.
func (StubFetcher) Name() string { return "stub" }

// PageFetcher keyword-scans the city advisory HTML page for restriction
// language.
type PageFetcher struct {
	url        string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewPageFetcher creates a fetcher for the given advisory page URL.
func NewPageFetcher(pageURL string, httpClient *resilience.Client, logger zerolog.Logger) *PageFetcher {
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("travel-ban"))
	}
	return &PageFetcher{url: pageURL, httpClient: httpClient, logger: logger}
}

// Name returns the fetcher name.
func (f *PageFetcher) Name() string { return "advisory-page" }

// Fetch scans the advisory page for restriction language.
func (f *PageFetcher) Fetch(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return StatusUnknown, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return StatusUnknown, ErrSourceUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusUnknown, ErrSourceUnavailable
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return StatusUnknown, err
	}

	return ClassifyPage(string(body)), nil
}

// ClassifyPage maps advisory page text to a ban status. A ban phrase wins
// over an advisory phrase.
func ClassifyPage(page string) Status {
	text := strings.ToLower(page)
	if strings.Contains(text, "travel ban") {
		return StatusBan
	}
	if strings.Contains(text, "travel advisory") || strings.Contains(text, "avoid unnecessary travel") {
		return StatusAdvisory
	}
	return StatusNone
}
