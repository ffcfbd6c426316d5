package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

// Radius bounds for incident and report lookups, in km
const (
	DefaultIncidentRadiusKm = 5.0
	MaxIncidentRadiusKm     = 50.0
)

// IncidentQuery selects an area either by centre and radius or by box.
// A nil Center with no Box means the default location.
type IncidentQuery struct {
	Center   *domain.Coordinates
	RadiusKm float64
	Box      *domain.BoundingBox
}

// ReportInput is a new community incident report
type ReportInput struct {
	Category    string
	Description string
	Lat         float64
	Lon         float64
}

// IncidentService serves provider traffic incidents and community reports
type IncidentService struct {
	traffic         domain.TrafficClient
	reports         domain.ReportRepository
	defaultLocation domain.Coordinates
	log             *zap.SugaredLogger
}

// NewIncidentService creates a new incident service. reports may be nil, in
// which case community reports are unavailable.
func NewIncidentService(traffic domain.TrafficClient, reports domain.ReportRepository, defaultLocation domain.Coordinates) *IncidentService {
	return &IncidentService{
		traffic:         traffic,
		reports:         reports,
		defaultLocation: defaultLocation,
		log:             logger.Named("incidents"),
	}
}

// Area resolves q to a bounding box
func (s *IncidentService) Area(q IncidentQuery) (domain.BoundingBox, error) {
	if q.Box != nil {
		b := *q.Box
		if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
			return domain.BoundingBox{}, fmt.Errorf("%w: bbox min exceeds max", domain.ErrInvalidRequest)
		}
		for _, c := range []domain.Coordinates{{Lat: b.MinLat, Lon: b.MinLon}, {Lat: b.MaxLat, Lon: b.MaxLon}} {
			if err := c.Validate(); err != nil {
				return domain.BoundingBox{}, err
			}
		}
		return b, nil
	}

	center := s.defaultLocation
	if q.Center != nil {
		if err := q.Center.Validate(); err != nil {
			return domain.BoundingBox{}, err
		}
		center = *q.Center
	}
	radius := q.RadiusKm
	switch {
	case radius <= 0:
		radius = DefaultIncidentRadiusKm
	case radius > MaxIncidentRadiusKm:
		radius = MaxIncidentRadiusKm
	}
	return domain.BoxAround(center, radius), nil
}

// TrafficIncidents returns current provider incidents in the queried area
func (s *IncidentService) TrafficIncidents(ctx context.Context, q IncidentQuery) ([]domain.TrafficIncident, error) {
	box, err := s.Area(q)
	if err != nil {
		return nil, err
	}
	incidents, err := s.traffic.Incidents(ctx, box)
	if err != nil {
		return nil, err
	}
	if incidents == nil {
		incidents = []domain.TrafficIncident{}
	}
	return incidents, nil
}

// CreateReport stores a community report for ownerID
func (s *IncidentService) CreateReport(ctx context.Context, ownerID string, in ReportInput) (*domain.IncidentReport, error) {
	if s.reports == nil {
		return nil, fmt.Errorf("%w: report storage is disabled", domain.ErrNotFound)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidRequest)
	}
	point := domain.Coordinates{Lat: in.Lat, Lon: in.Lon}
	if err := point.Validate(); err != nil {
		return nil, err
	}

	report := &domain.IncidentReport{
		OwnerID:     ownerID,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		Lat:         in.Lat,
		Lon:         in.Lon,
		Status:      domain.ReportOpen,
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	s.log.Infow("report created", "id", report.ID, "owner", ownerID, "category", category)
	return report, nil
}

// ListReports returns recent reports in the queried area
func (s *IncidentService) ListReports(ctx context.Context, q IncidentQuery, limit int) ([]domain.IncidentReport, error) {
	if s.reports == nil {
		return []domain.IncidentReport{}, nil
	}
	box, err := s.Area(q)
	if err != nil {
		return nil, err
	}
	return s.reports.ListReports(ctx, &box, limit)
}

// UpdateReportStatus moves a report owned by ownerID to status
func (s *IncidentService) UpdateReportStatus(ctx context.Context, id, ownerID string, status domain.ReportStatus) (*domain.IncidentReport, error) {
	if s.reports == nil {
		return nil, fmt.Errorf("%w: report storage is disabled", domain.ErrNotFound)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidRequest, status)
	}
	return s.reports.UpdateReportStatus(ctx, id, ownerID, status)
}
