// Package main provides the entrypoint for the StormAdvisor API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stormadvisor/stormadvisor/internal/advisory"
	"github.com/stormadvisor/stormadvisor/internal/api"
	"github.com/stormadvisor/stormadvisor/internal/api/middleware"
	"github.com/stormadvisor/stormadvisor/internal/ban"
	"github.com/stormadvisor/stormadvisor/internal/provider/resilience"
	"github.com/stormadvisor/stormadvisor/internal/reasoning/openai"
	"github.com/stormadvisor/stormadvisor/internal/telemetry"
	"github.com/stormadvisor/stormadvisor/internal/transit"
	"github.com/stormadvisor/stormadvisor/internal/transit/mta"
	"github.com/stormadvisor/stormadvisor/internal/transit/path"
	"github.com/stormadvisor/stormadvisor/internal/travel"
	"github.com/stormadvisor/stormadvisor/internal/travel/googlemaps"
	"github.com/stormadvisor/stormadvisor/internal/weather"
	"github.com/stormadvisor/stormadvisor/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "stormadvisor-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting StormAdvisor API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	providerMetrics, err := middleware.NewProviderMetrics(serviceName)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	// Resilient HTTP clients, one circuit per upstream, all registered for
	// ops visibility
	registry := resilience.GlobalRegistry

	newUpstreamClient := func(name string) *resilience.Client {
		cfg := resilience.DefaultClientConfig(name)
		cfg.Registry = registry
		client := resilience.NewClient(cfg)
		registry.Register(name, client)
		return client
	}

	weatherHTTP := newUpstreamClient(openweathermap.ProviderName)
	mtaHTTP := newUpstreamClient(mta.ProviderName)
	pathHTTP := newUpstreamClient(path.ProviderName)
	mapsHTTP := newUpstreamClient(googlemaps.ProviderName)

	openaiCfg := resilience.DefaultClientConfig(openai.ProviderName)
	openaiCfg.Timeout = openai.DefaultTimeout
	openaiCfg.MaxRetries = 1
	openaiCfg.Registry = registry
	openaiHTTP := resilience.NewClient(openaiCfg)
	registry.Register(openai.ProviderName, openaiHTTP)

	// Weather service. Without an API key the provider stays nil and the
	// service serves empty snapshots.
	var weatherProvider weather.Provider
	if key := os.Getenv("OPENWEATHER_API_KEY"); key != "" {
		weatherProvider = openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     key,
			HTTPClient: weatherHTTP,
			Logger:     log,
		})
	} else {
		log.Warn().Msg("OPENWEATHER_API_KEY not set - weather data disabled")
	}
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherProvider,
		Logger:   log,
		Metrics:  providerMetrics,
	})
	log.Info().Msg("weather service initialized")

	// Transit service
	mtaClient := mta.NewClient(mta.ClientConfig{
		APIKey:     os.Getenv("MTA_API_KEY"),
		FeedURL:    os.Getenv("MTA_ALERTS_FEED_URL"),
		HTTPClient: mtaHTTP,
		Logger:     log,
	})
	pathClient := path.NewClient(path.ClientConfig{
		FeedURL:    os.Getenv("PATH_FEED_URL"),
		HTTPClient: pathHTTP,
		Logger:     log,
	})
	transitService := transit.NewService(transit.ServiceConfig{
		AlertProvider: mtaClient,
		PATHProvider:  pathClient,
		Logger:        log,
		Metrics:       providerMetrics,
	})
	log.Info().Msg("transit service initialized")

	// Travel service
	mapsClient := googlemaps.NewClient(googlemaps.ClientConfig{
		APIKey:     os.Getenv("GOOGLE_MAPS_API_KEY"),
		HTTPClient: mapsHTTP,
		Logger:     log,
	})
	travelService := travel.NewService(travel.ServiceConfig{
		Provider: mapsClient,
		Logger:   log,
	})
	log.Info().Msg("travel service initialized")

	// Travel ban service. The city publishes no machine-readable feed; a page
	// URL enables keyword scanning, otherwise the stub reports no restriction.
	var banFetcher ban.Fetcher = ban.StubFetcher{}
	if pageURL := os.Getenv("TRAVEL_BAN_PAGE_URL"); pageURL != "" {
		banFetcher = ban.NewPageFetcher(pageURL, nil, log)
	}
	banService := ban.NewService(ban.ServiceConfig{
		Fetcher: banFetcher,
		Logger:  log,
	})
	log.Info().Str("source", banFetcher.Name()).Msg("travel ban service initialized")

	// Reasoning provider
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set - advisories will use the safe default")
	}
	reasoningClient := openai.NewClient(openai.ClientConfig{
		APIKey:     openaiKey,
		Model:      os.Getenv("OPENAI_MODEL"),
		HTTPClient: openaiHTTP,
		Logger:     log,
	})

	// Advisory service ties the pipeline together
	advisoryService := advisory.NewService(advisory.ServiceConfig{
		Weather:   weatherService,
		Transit:   transitService,
		Travel:    travelService,
		Ban:       banService,
		Reasoning: reasoningClient,
		Logger:    log,
	})
	log.Info().Msg("advisory service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		AdvisoryService: advisoryService,
		TransitService:  transitService,
		WeatherService:  weatherService,
		Registry:        registry,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
