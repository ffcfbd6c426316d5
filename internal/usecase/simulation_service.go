package usecase

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

// SimulationServiceConfig holds configuration for the simulation service
type SimulationServiceConfig struct {
	// CorridorPadKm widens the origin/destination box searched for incidents
	CorridorPadKm float64
	Now           func() time.Time
}

// SimulationService runs and stores trip simulations
type SimulationService struct {
	routes   *RouteService
	env      domain.EnvironmentClient
	traffic  domain.TrafficClient
	insights *InsightService
	store    domain.SimulationRepository
	padKm    float64
	now      func() time.Time
	log      *zap.SugaredLogger
}

// NewSimulationService creates a new simulation service. store may be nil,
// in which case runs are not persisted.
func NewSimulationService(
	routes *RouteService,
	env domain.EnvironmentClient,
	traffic domain.TrafficClient,
	insights *InsightService,
	store domain.SimulationRepository,
	config SimulationServiceConfig,
) *SimulationService {
	pad := config.CorridorPadKm
	if pad <= 0 {
		pad = 2
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &SimulationService{
		routes:   routes,
		env:      env,
		traffic:  traffic,
		insights: insights,
		store:    store,
		padKm:    pad,
		now:      now,
		log:      logger.Named("simulation"),
	}
}

// Run simulates a trip: route, conditions at the destination and incidents
// along the corridor are fetched concurrently, insights follow, and the
// result is saved for ownerID.
func (s *SimulationService) Run(ctx context.Context, ownerID string, origin, destination domain.Coordinates) (*domain.SimulationView, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}

	var (
		route     json.RawMessage
		weather   *domain.WeatherReport
		air       *domain.AirQualityReport
		incidents []domain.TrafficIncident
		degraded  degradedSet
		g         errgroup.Group
	)

	g.Go(func() error {
		var err error
		if route, err = s.routes.Route(ctx, origin, destination); err != nil {
			s.log.Warnw("route unavailable", "error", err)
			degraded.add(SectionRoute)
			route = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if weather, err = s.env.Weather(ctx, destination); err != nil {
			s.log.Warnw("weather unavailable", "error", err)
			degraded.add(SectionWeather)
			weather = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if air, err = s.env.AirQuality(ctx, destination); err != nil {
			s.log.Warnw("air quality unavailable", "error", err)
			degraded.add(SectionAirQuality)
			air = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		box := domain.BoxCovering(s.padKm, origin, destination)
		if incidents, err = s.traffic.Incidents(ctx, box); err != nil {
			s.log.Warnw("incidents unavailable", "error", err)
			degraded.add(SectionIncidents)
			incidents = nil
		}
		return nil
	})
	_ = g.Wait()

	view := &domain.SimulationView{
		Origin:      origin,
		Destination: destination,
		RouteData:   route,
		Route:       SummarizeRoute(route),
		Weather:     domain.UnknownWeather(),
		AirQuality:  domain.UnknownAirQuality(),
		Incidents:   incidents,
		GeneratedAt: s.now().UTC(),
	}
	if view.Incidents == nil {
		view.Incidents = []domain.TrafficIncident{}
	}
	if weather != nil && weather.Current != nil {
		view.Weather = weather.Current
	}
	if air != nil && air.Current != nil {
		view.AirQuality = air.Current
	}

	metrics := domain.InsightMetrics{
		Location:    "the trip destination",
		Temperature: view.Weather.Temperature,
		Humidity:    view.Weather.Humidity,
		WindSpeed:   view.Weather.WindSpeed,
		AQI:         view.AirQuality.AQI,
	}
	if r := view.Route; r != nil && r.TravelTimeSeconds > 0 {
		// share of the trip spent in traffic delay
		congestion := float64(r.TrafficDelaySecond) / float64(r.TravelTimeSeconds)
		metrics.Congestion = &congestion
	}
	if incidents != nil {
		n := len(incidents)
		metrics.Incidents = &n
	}

	if result, err := s.insights.Generate(ctx, domain.InsightRequest{Metrics: &metrics}); err == nil {
		view.Insights = result.Insights
		view.InsightSource = result.Source
	} else {
		view.Insights = FallbackInsights(metrics)
		view.InsightSource = domain.InsightSourceFallback
	}

	view.Degraded = degraded.list(SectionRoute, SectionWeather, SectionAirQuality, SectionIncidents)
	s.save(ctx, ownerID, view)
	return view, nil
}

// save persists view; a storage failure is reported in view.Degraded
func (s *SimulationService) save(ctx context.Context, ownerID string, view *domain.SimulationView) {
	if s.store == nil {
		return
	}

	status := domain.SimulationCompleted
	if len(view.Degraded) > 0 {
		status = domain.SimulationDegraded
	}

	// the raw route geometry is large and can be recomputed
	stored := *view
	stored.RouteData = nil
	result, err := json.Marshal(stored)
	if err != nil {
		s.log.Errorw("encode simulation", "error", err)
		view.Degraded = append(view.Degraded, SectionStorage)
		return
	}

	sim := &domain.Simulation{
		OwnerID:     ownerID,
		Origin:      view.Origin,
		Destination: view.Destination,
		Status:      status,
		Result:      result,
	}
	if err := s.store.SaveSimulation(ctx, sim); err != nil {
		s.log.Errorw("save simulation", "owner", ownerID, "error", err)
		view.Degraded = append(view.Degraded, SectionStorage)
		return
	}
	view.ID = sim.ID
}

// List returns the owner's saved simulations, newest first
func (s *SimulationService) List(ctx context.Context, ownerID string, limit int) ([]domain.Simulation, error) {
	if s.store == nil {
		return []domain.Simulation{}, nil
	}
	return s.store.ListSimulations(ctx, ownerID, limit)
}
