package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for weather data providers.
type Provider interface {
	// GetSnapshot fetches current conditions plus a short-range forecast and
	// reduces them to the advisory snapshot.
	GetSnapshot(ctx context.Context, lat, lon float64) (*Snapshot, error)

	// Name returns the provider name for logging.
	Name() string
}

// CacheMetrics records cache hit and miss counts for provider calls.
type CacheMetrics interface {
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider. May be nil when no API key is
	// configured; the service then always serves the empty snapshot.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records cache hits and misses (optional).
	Metrics CacheMetrics

	// CacheTTL is how long to cache snapshots (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.05).
	// Points within the same grid cell share cached data.
	CacheGridSize float64
}

// Service provides weather snapshots with caching. Snapshot never fails:
// provider errors resolve to the all-nil snapshot.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	metrics       CacheMetrics
	cacheTTL      time.Duration
	cacheGridSize float64

	mu    sync.RWMutex
	cache map[string]*cachedSnapshot
}

type cachedSnapshot struct {
	snapshot  Snapshot
	expiresAt time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.05
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		cacheTTL:      cacheTTL,
		cacheGridSize: cacheGridSize,
		cache:         make(map[string]*cachedSnapshot),
	}
}

// Snapshot returns the weather snapshot for a location. Any provider failure,
// including an unconfigured provider, yields the empty snapshot.
func (s *Service) Snapshot(ctx context.Context, lat, lon float64) Snapshot {
	if s.provider == nil {
		return EmptySnapshot()
	}

	key := s.cacheKey(lat, lon)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.recordCache(true)
		return cached.snapshot
	}
	s.mu.RUnlock()
	s.recordCache(false)

	snap, err := s.provider.GetSnapshot(ctx, lat, lon)
	if err != nil || snap == nil {
		s.logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Str("provider", s.provider.Name()).
			Msg("weather provider unavailable, serving empty snapshot")
		return EmptySnapshot()
	}

	s.mu.Lock()
	s.cache[key] = &cachedSnapshot{
		snapshot:  *snap,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	s.mu.Unlock()

	return *snap
}

func (s *Service) recordCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit(s.provider.Name(), "snapshot")
		return
	}
	s.metrics.RecordCacheMiss(s.provider.Name(), "snapshot")
}

// cacheKey groups nearby points into grid cells to reduce provider calls.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int
	FreshEntries int
	Provider     string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := CacheStats{Entries: len(s.cache)}
	if s.provider != nil {
		stats.Provider = s.provider.Name()
	}
	now := time.Now()
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			stats.FreshEntries++
		}
	}
	return stats
}
