package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/cache"
)

func floatPtr(v float64) *float64 { return &v }

// MockGeocodingClient is a mock implementation of domain.GeocodingClient
type MockGeocodingClient struct {
	address      domain.Address
	geocodeError error
	suggestions  []domain.LocationSuggestion
	searchError  error
	geocodeCalls int32
	searchCalls  int32
	lastQuery    string
}

func (m *MockGeocodingClient) ReverseGeocode(ctx context.Context, point domain.Coordinates) (domain.Address, error) {
	atomic.AddInt32(&m.geocodeCalls, 1)
	if m.geocodeError != nil {
		return nil, m.geocodeError
	}
	return m.address, nil
}

func (m *MockGeocodingClient) SearchLocations(ctx context.Context, query string) ([]domain.LocationSuggestion, error) {
	atomic.AddInt32(&m.searchCalls, 1)
	m.lastQuery = query
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.suggestions, nil
}

// MockRoutingClient is a mock implementation of domain.RoutingClient
type MockRoutingClient struct {
	response  json.RawMessage
	err       error
	lastQuery domain.RouteQuery
	calls     int
}

func (m *MockRoutingClient) CalculateRoute(ctx context.Context, query domain.RouteQuery) (json.RawMessage, error) {
	m.calls++
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

// MockEnvironmentClient is a mock implementation of domain.EnvironmentClient
type MockEnvironmentClient struct {
	weather       *domain.WeatherReport
	weatherError  error
	airQuality    *domain.AirQualityReport
	airError      error
	mu            sync.Mutex
	weatherPoints []domain.Coordinates
}

func (m *MockEnvironmentClient) Weather(ctx context.Context, point domain.Coordinates) (*domain.WeatherReport, error) {
	m.mu.Lock()
	m.weatherPoints = append(m.weatherPoints, point)
	m.mu.Unlock()
	if m.weatherError != nil {
		return nil, m.weatherError
	}
	return m.weather, nil
}

func (m *MockEnvironmentClient) AirQuality(ctx context.Context, point domain.Coordinates) (*domain.AirQualityReport, error) {
	if m.airError != nil {
		return nil, m.airError
	}
	return m.airQuality, nil
}

// MockTrafficClient is a mock implementation of domain.TrafficClient
type MockTrafficClient struct {
	flow          *domain.TrafficFlow
	flowError     error
	incidents     []domain.TrafficIncident
	incidentError error
	mu            sync.Mutex
	boxes         []domain.BoundingBox
}

func (m *MockTrafficClient) TrafficFlow(ctx context.Context, point domain.Coordinates) (*domain.TrafficFlow, error) {
	if m.flowError != nil {
		return nil, m.flowError
	}
	return m.flow, nil
}

func (m *MockTrafficClient) Incidents(ctx context.Context, box domain.BoundingBox) ([]domain.TrafficIncident, error) {
	m.mu.Lock()
	m.boxes = append(m.boxes, box)
	m.mu.Unlock()
	if m.incidentError != nil {
		return nil, m.incidentError
	}
	return m.incidents, nil
}

// MockInsightGenerator is a mock implementation of domain.InsightGenerator
type MockInsightGenerator struct {
	insights   []domain.Insight
	err        error
	lastPrompt string
	calls      int
}

func (m *MockInsightGenerator) GenerateInsights(ctx context.Context, prompt string) ([]domain.Insight, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return nil, m.err
	}
	return m.insights, nil
}

// MockSimulationRepository is a mock implementation of domain.SimulationRepository
type MockSimulationRepository struct {
	saved     []domain.Simulation
	saveError error
}

func (m *MockSimulationRepository) SaveSimulation(ctx context.Context, sim *domain.Simulation) error {
	if m.saveError != nil {
		return m.saveError
	}
	sim.ID = "sim-1"
	sim.CreatedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m.saved = append(m.saved, *sim)
	return nil
}

func (m *MockSimulationRepository) ListSimulations(ctx context.Context, ownerID string, limit int) ([]domain.Simulation, error) {
	var out []domain.Simulation
	for _, s := range m.saved {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

// MockReportRepository is a mock implementation of domain.ReportRepository
type MockReportRepository struct {
	created  []domain.IncidentReport
	lastBox  *domain.BoundingBox
	updateID string
}

func (m *MockReportRepository) CreateReport(ctx context.Context, r *domain.IncidentReport) error {
	r.ID = "rep-1"
	m.created = append(m.created, *r)
	return nil
}

func (m *MockReportRepository) ListReports(ctx context.Context, box *domain.BoundingBox, limit int) ([]domain.IncidentReport, error) {
	m.lastBox = box
	return m.created, nil
}

func (m *MockReportRepository) UpdateReportStatus(ctx context.Context, id, ownerID string, status domain.ReportStatus) (*domain.IncidentReport, error) {
	m.updateID = id
	return &domain.IncidentReport{ID: id, OwnerID: ownerID, Status: status}, nil
}

// newTestCaches returns real TTL caches driven by clock
func newTestCaches(clock func() time.Time) (*cache.MemoryCache[domain.Address], *cache.MemoryCache[[]domain.LocationSuggestion]) {
	geo := cache.NewMemoryCache[domain.Address](cache.Config{Name: "test_geocode", TTL: time.Hour, Now: clock})
	search := cache.NewMemoryCache[[]domain.LocationSuggestion](cache.Config{Name: "test_search", TTL: 30 * time.Minute, Now: clock})
	return geo, search
}
