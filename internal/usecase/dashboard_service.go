package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

// Dashboard sections reported in DashboardView.Degraded
const (
	SectionWeather    = "weather"
	SectionAirQuality = "airQuality"
	SectionTraffic    = "traffic"
	SectionIncidents  = "incidents"
	SectionRoute      = "route"
	SectionStorage    = "storage"
)

// DashboardServiceConfig holds configuration for the dashboard service
type DashboardServiceConfig struct {
	DefaultLocation  domain.NamedLocation
	IncidentRadiusKm float64
	Now              func() time.Time
}

// DashboardService aggregates providers into the dashboard view-model
type DashboardService struct {
	env              domain.EnvironmentClient
	traffic          domain.TrafficClient
	locations        *LocationService
	insights         *InsightService
	defaultLocation  domain.NamedLocation
	incidentRadiusKm float64
	now              func() time.Time
	log              *zap.SugaredLogger
}

// NewDashboardService creates a new dashboard service. locations may be nil,
// in which case the view carries no place name.
func NewDashboardService(
	env domain.EnvironmentClient,
	traffic domain.TrafficClient,
	locations *LocationService,
	insights *InsightService,
	config DashboardServiceConfig,
) *DashboardService {
	radius := config.IncidentRadiusKm
	if radius <= 0 {
		radius = 5
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &DashboardService{
		env:              env,
		traffic:          traffic,
		locations:        locations,
		insights:         insights,
		defaultLocation:  config.DefaultLocation,
		incidentRadiusKm: radius,
		now:              now,
		log:              logger.Named("dashboard"),
	}
}

// degradedSet collects failed sections from concurrent fetches
type degradedSet struct {
	mu       sync.Mutex
	sections []string
}

func (d *degradedSet) add(section string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sections = append(d.sections, section)
}

// list returns sections in a stable order
func (d *degradedSet) list(order ...string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, o := range order {
		for _, s := range d.sections {
			if s == o {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// Build assembles the dashboard for point, or for the default location when
// point is nil. Provider failures degrade only their own section; Build
// itself fails only on invalid coordinates.
func (s *DashboardService) Build(ctx context.Context, point *domain.Coordinates) (*domain.DashboardView, error) {
	location := s.defaultLocation
	if point != nil {
		if err := point.Validate(); err != nil {
			return nil, err
		}
		location = domain.NamedLocation{Coordinates: *point}
	}
	c := location.Coordinates

	var (
		weather   *domain.WeatherReport
		air       *domain.AirQualityReport
		flow      *domain.TrafficFlow
		incidents []domain.TrafficIncident
		placeName string
		degraded  degradedSet
		g         errgroup.Group
	)

	// every fetch returns nil so one failure never cancels the others
	g.Go(func() error {
		var err error
		if weather, err = s.env.Weather(ctx, c); err != nil {
			s.log.Warnw("weather unavailable", "point", c.Key(), "error", err)
			degraded.add(SectionWeather)
			weather = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if air, err = s.env.AirQuality(ctx, c); err != nil {
			s.log.Warnw("air quality unavailable", "point", c.Key(), "error", err)
			degraded.add(SectionAirQuality)
			air = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if flow, err = s.traffic.TrafficFlow(ctx, c); err != nil {
			s.log.Warnw("traffic flow unavailable", "point", c.Key(), "error", err)
			degraded.add(SectionTraffic)
			flow = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if incidents, err = s.traffic.Incidents(ctx, domain.BoxAround(c, s.incidentRadiusKm)); err != nil {
			s.log.Warnw("incidents unavailable", "point", c.Key(), "error", err)
			degraded.add(SectionIncidents)
			incidents = nil
		}
		return nil
	})
	if location.Name == "" && s.locations != nil {
		g.Go(func() error {
			placeName = s.locations.PlaceName(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	if placeName != "" {
		location.Name = placeName
	}

	view := &domain.DashboardView{
		Location:    location,
		Weather:     domain.UnknownWeather(),
		AirQuality:  domain.UnknownAirQuality(),
		Traffic:     flow,
		Incidents:   incidents,
		GeneratedAt: s.now().UTC(),
	}
	if view.Incidents == nil {
		view.Incidents = []domain.TrafficIncident{}
	}

	var hourlyWeather []domain.HourlyWeather
	var hourlyAir []domain.HourlyAirQuality
	if weather != nil {
		if weather.Current != nil {
			view.Weather = weather.Current
		}
		hourlyWeather = weather.Hourly
	}
	if air != nil {
		if air.Current != nil {
			view.AirQuality = air.Current
		}
		hourlyAir = air.Hourly
	}
	view.Forecast = domain.MergeForecast(hourlyWeather, hourlyAir)
	view.Degraded = degraded.list(SectionWeather, SectionAirQuality, SectionTraffic, SectionIncidents)

	metrics := domain.InsightMetrics{
		Location:    location.Name,
		Temperature: view.Weather.Temperature,
		Humidity:    view.Weather.Humidity,
		WindSpeed:   view.Weather.WindSpeed,
		AQI:         view.AirQuality.AQI,
	}
	if flow != nil {
		congestion := flow.Congestion
		metrics.Congestion = &congestion
	}
	if incidents != nil {
		n := len(incidents)
		metrics.Incidents = &n
	}

	result, err := s.insights.Generate(ctx, domain.InsightRequest{Metrics: &metrics})
	if err == nil {
		view.Insights = result.Insights
		view.InsightSource = result.Source
	} else {
		view.Insights = FallbackInsights(metrics)
		view.InsightSource = domain.InsightSourceFallback
	}

	return view, nil
}
