package cli

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/config"
	httpDelivery "github.com/sweet-meenu/urbanpulse-sub000/internal/delivery/http"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/cache"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/firebase"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/gemini"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/openmeteo"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/sqlite"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/tomtom"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/upstream"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/usecase"
)

// app is the wired dependency graph shared by the commands
type app struct {
	services     httpDelivery.Services
	geocodeCache *cache.MemoryCache[domain.Address]
	searchCache  *cache.MemoryCache[[]domain.LocationSuggestion]
	store        *sqlite.Store
	verifier     domain.TokenVerifier
	log          *zap.SugaredLogger
}

// newApp builds providers, caches, storage and use cases from cfg
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.Named("app")

	// Initialize infrastructure dependencies
	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}
	upCfg := upstream.Config{
		HTTPClient:      httpClient,
		Timeout:         cfg.Upstream.Timeout,
		BreakerFailures: cfg.Upstream.BreakerFailures,
		BreakerOpenFor:  cfg.Upstream.BreakerOpenFor,
	}

	tomtomClient := tomtom.NewClient(tomtom.Config{
		APIKey:            cfg.TomTom.APIKey,
		BaseURL:           cfg.TomTom.BaseURL,
		SearchRadius:      cfg.TomTom.SearchRadius,
		SearchLimit:       cfg.TomTom.SearchLimit,
		RequestsPerSecond: cfg.TomTom.RequestsPerSecond,
		Burst:             cfg.TomTom.Burst,
		Upstream:          upCfg,
	})
	if tomtomClient.Configured() {
		log.Infow("TomTom API configured", "base_url", cfg.TomTom.BaseURL)
	} else {
		log.Warn("TomTom API key not configured; geocoding, routing and traffic will answer 500")
	}

	weather := openmeteo.NewClient(openmeteo.Config{
		ForecastURL:   cfg.OpenMeteo.ForecastURL,
		AirQualityURL: cfg.OpenMeteo.AirQualityURL,
		ForecastDays:  cfg.OpenMeteo.ForecastDays,
		Upstream:      upCfg,
	})

	var generator domain.InsightGenerator
	geminiClient := gemini.NewClient(gemini.Config{
		APIKey:   cfg.Gemini.APIKey,
		BaseURL:  cfg.Gemini.BaseURL,
		Model:    cfg.Gemini.Model,
		Upstream: upCfg,
	})
	if geminiClient.Configured() {
		generator = geminiClient
		log.Infow("Gemini configured", "model", cfg.Gemini.Model)
	} else {
		log.Info("Gemini API key not configured; insights use the rule table")
	}

	a := &app{
		geocodeCache: cache.NewMemoryCache[domain.Address](cache.Config{
			Name:       "geocode",
			TTL:        cfg.Cache.GeocodeTTL,
			MaxEntries: cfg.Cache.MaxEntries,
		}),
		searchCache: cache.NewMemoryCache[[]domain.LocationSuggestion](cache.Config{
			Name:       "location_search",
			TTL:        cfg.Cache.SearchTTL,
			MaxEntries: cfg.Cache.MaxEntries,
		}),
		log: log,
	}

	var (
		reports     domain.ReportRepository
		simulations domain.SimulationRepository
		storage     domain.HealthChecker
	)
	if cfg.Storage.Enabled {
		store, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.store = store
		reports, simulations, storage = store, store, store
		log.Infow("report store ready", "path", cfg.Storage.Path)
	}

	if cfg.FirebaseEnabled() {
		verifier, err := firebase.NewVerifier(ctx, firebase.Config{
			ProjectID:       cfg.Firebase.ProjectID,
			CredentialsPath: cfg.Firebase.CredentialsPath,
			CredentialsJSON: cfg.Firebase.CredentialsJSON,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init firebase: %w", err)
		}
		a.verifier = verifier
		log.Infow("Firebase auth enabled", "project", cfg.Firebase.ProjectID)
	} else {
		log.Warn("Firebase not configured; writes are attributed to the anonymous owner")
	}

	// Initialize usecase layer
	defaultLocation := domain.NamedLocation{
		Name:        cfg.Defaults.LocationName,
		Coordinates: domain.Coordinates{Lat: cfg.Defaults.Lat, Lon: cfg.Defaults.Lon},
	}
	locations := usecase.NewLocationService(tomtomClient, a.geocodeCache, a.searchCache)
	routes := usecase.NewRouteService(tomtomClient)
	insights := usecase.NewInsightService(generator)

	a.services = httpDelivery.Services{
		Storage:   storage,
		Locations: locations,
		Routes:    routes,
		Incidents: usecase.NewIncidentService(tomtomClient, reports, defaultLocation.Coordinates),
		Dashboard: usecase.NewDashboardService(weather, tomtomClient, locations, insights, usecase.DashboardServiceConfig{
			DefaultLocation:  defaultLocation,
			IncidentRadiusKm: cfg.Defaults.IncidentRadiusKm,
		}),
		Insights:    insights,
		Simulations: usecase.NewSimulationService(routes, weather, tomtomClient, insights, simulations, usecase.SimulationServiceConfig{}),
	}

	return a, nil
}

// Close releases the store
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warnw("close store", "error", err)
		}
	}
}
