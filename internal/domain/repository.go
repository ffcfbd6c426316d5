package domain

import (
	"context"
	"encoding/json"
	"net/url"
)

// CacheRepository defines the interface for TTL caching of provider results
type CacheRepository[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Evict(key string)
	// GetOrFetch returns the fresh cached value for key or calls fetch once
	// for all concurrent callers and stores a successful result.
	GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error)
}

// GeocodingClient defines the interface for geocoding and place search providers
type GeocodingClient interface {
	ReverseGeocode(ctx context.Context, point Coordinates) (Address, error)
	SearchLocations(ctx context.Context, query string) ([]LocationSuggestion, error)
}

// RouteQuery is a whitelisted routing request
type RouteQuery struct {
	Locations string
	Params    url.Values
	// Body is forwarded verbatim for POST routing (supportingPoints, encodedPolyline, ...)
	Body json.RawMessage
}

// RoutingClient defines the interface for route calculation providers
type RoutingClient interface {
	CalculateRoute(ctx context.Context, query RouteQuery) (json.RawMessage, error)
}

// TrafficClient defines the interface for traffic flow and incident providers
type TrafficClient interface {
	TrafficFlow(ctx context.Context, point Coordinates) (*TrafficFlow, error)
	Incidents(ctx context.Context, box BoundingBox) ([]TrafficIncident, error)
}

// EnvironmentClient defines the interface for weather and air-quality providers
type EnvironmentClient interface {
	Weather(ctx context.Context, point Coordinates) (*WeatherReport, error)
	AirQuality(ctx context.Context, point Coordinates) (*AirQualityReport, error)
}

// InsightGenerator defines the interface for generative insight providers
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, prompt string) ([]Insight, error)
}

// ReportRepository persists community incident reports
type ReportRepository interface {
	CreateReport(ctx context.Context, report *IncidentReport) error
	ListReports(ctx context.Context, box *BoundingBox, limit int) ([]IncidentReport, error)
	UpdateReportStatus(ctx context.Context, id, ownerID string, status ReportStatus) (*IncidentReport, error)
}

// SimulationRepository persists simulation runs
type SimulationRepository interface {
	SaveSimulation(ctx context.Context, sim *Simulation) error
	ListSimulations(ctx context.Context, ownerID string, limit int) ([]Simulation, error)
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// TokenVerifier resolves a bearer token to a user id
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}
