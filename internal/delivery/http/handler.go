package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/usecase"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	healthTimeout    = 2 * time.Second
)

// Services are the use cases the handlers delegate to. Any of them may be nil,
// in which case the matching endpoints answer 503. A nil Storage is reported
// as disabled by /health.
type Services struct {
	Storage     domain.HealthChecker
	Locations   *usecase.LocationService
	Routes      *usecase.RouteService
	Incidents   *usecase.IncidentService
	Dashboard   *usecase.DashboardService
	Insights    *usecase.InsightService
	Simulations *usecase.SimulationService
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	services Services
	log      *zap.SugaredLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services) *Handler {
	return &Handler{
		services: services,
		log:      logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API and its report store
func (h *Handler) HealthCheck(c *gin.Context) {
	status, storage, code := "healthy", "disabled", http.StatusOK
	if h.services.Storage != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := h.services.Storage.Ping(ctx); err != nil {
			h.log.Warnw("storage ping failed", "error", err)
			status, storage, code = "degraded", "unavailable", http.StatusServiceUnavailable
		} else {
			storage = "ok"
		}
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "urbanpulse",
		"version": "1.0.0",
		"storage": storage,
	})
}

type pointQuery struct {
	Lat *float64 `form:"lat" binding:"required,latitude"`
	Lon *float64 `form:"lon" binding:"required,longitude"`
}

type optionalPointQuery struct {
	Lat *float64 `form:"lat" binding:"omitempty,latitude"`
	Lon *float64 `form:"lon" binding:"omitempty,longitude"`
}

// point returns nil when neither coordinate is present
func (q optionalPointQuery) point() (*domain.Coordinates, error) {
	if q.Lat == nil && q.Lon == nil {
		return nil, nil
	}
	if q.Lat == nil || q.Lon == nil {
		return nil, fmt.Errorf("%w: lat and lon must be given together", domain.ErrInvalidRequest)
	}
	return &domain.Coordinates{Lat: *q.Lat, Lon: *q.Lon}, nil
}

type areaQuery struct {
	optionalPointQuery
	Radius float64 `form:"radius" binding:"omitempty,gt=0"`
	// BBox is minLon,minLat,maxLon,maxLat
	BBox  string `form:"bbox"`
	Limit int    `form:"limit" binding:"omitempty,min=1"`
}

func (q areaQuery) incidentQuery() (usecase.IncidentQuery, error) {
	center, err := q.point()
	if err != nil {
		return usecase.IncidentQuery{}, err
	}
	out := usecase.IncidentQuery{Center: center, RadiusKm: q.Radius}
	if q.BBox != "" {
		box, err := parseBBox(q.BBox)
		if err != nil {
			return usecase.IncidentQuery{}, err
		}
		out.Box = &box
	}
	return out, nil
}

func parseBBox(s string) (domain.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.BoundingBox{}, fmt.Errorf("%w: bbox must be minLon,minLat,maxLon,maxLat", domain.ErrInvalidRequest)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("%w: bbox value %q", domain.ErrInvalidRequest, p)
		}
		v[i] = f
	}
	return domain.BoundingBox{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}, nil
}

// Geocode handles reverse geocoding requests
func (h *Handler) Geocode(c *gin.Context) {
	if h.services.Locations == nil {
		h.unavailable(c)
		return
	}

	var q pointQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err, "lat and lon are required")})
		return
	}

	address, err := h.services.Locations.ReverseGeocode(c.Request.Context(), domain.Coordinates{Lat: *q.Lat, Lon: *q.Lon})
	if err != nil {
		h.log.Warnw("reverse geocode failed", "lat", *q.Lat, "lon", *q.Lon, "error", err)
		c.JSON(statusFor(err), gin.H{"error": publicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, address)
}

// LocationSearch handles forward place search. It never fails: short queries
// and provider failures answer an empty list.
func (h *Handler) LocationSearch(c *gin.Context) {
	if h.services.Locations == nil {
		c.JSON(http.StatusOK, []domain.LocationSuggestion{})
		return
	}
	c.JSON(http.StatusOK, h.services.Locations.Search(c.Request.Context(), c.Query("query")))
}

// Incidents lists provider traffic incidents around a point or inside a bbox
func (h *Handler) Incidents(c *gin.Context) {
	if h.services.Incidents == nil {
		h.unavailable(c)
		return
	}

	var q areaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": bindingMessage(err, "invalid area")})
		return
	}
	query, err := q.incidentQuery()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": publicMessage(err)})
		return
	}

	incidents, err := h.services.Incidents.TrafficIncidents(c.Request.Context(), query)
	if err != nil {
		h.log.Warnw("incidents failed", "error", err)
		c.JSON(statusFor(err), gin.H{"ok": false, "message": publicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "incidents": incidents})
}

// TomTomRoute proxies a whitelisted routing request. POST bodies are
// forwarded for supporting points and encoded polylines.
func (h *Handler) TomTomRoute(c *gin.Context) {
	if h.services.Routes == nil {
		h.unavailable(c)
		return
	}

	var body []byte
	if c.Request.Method == http.MethodPost {
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "could not read request body"})
			return
		}
		body = raw
	}

	data, err := h.services.Routes.Calculate(c.Request.Context(), c.Request.URL.Query(), body)
	if err != nil {
		h.log.Warnw("route calculation failed", "error", err)
		c.JSON(statusFor(err), gin.H{"ok": false, "error": publicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

// Dashboard aggregates weather, air quality, traffic and insights for a point
func (h *Handler) Dashboard(c *gin.Context) {
	if h.services.Dashboard == nil {
		h.unavailable(c)
		return
	}

	var q optionalPointQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err, "invalid coordinates")})
		return
	}
	point, err := q.point()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": publicMessage(err)})
		return
	}

	view, err := h.services.Dashboard.Build(c.Request.Context(), point)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": publicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, view)
}

// Insights answers an insight request from the LLM or the rule table
func (h *Handler) Insights(c *gin.Context) {
	if h.services.Insights == nil {
		h.unavailable(c)
		return
	}

	var req domain.InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.services.Insights.Generate(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": publicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, result)
}

type simulationRequest struct {
	Origin      *domain.Coordinates `json:"origin" binding:"required"`
	Destination *domain.Coordinates `json:"destination" binding:"required"`
}

// CreateSimulation runs and stores a trip simulation for the caller
func (h *Handler) CreateSimulation(c *gin.Context) {
	if h.services.Simulations == nil {
		h.unavailable(c)
		return
	}

	var req simulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err, "origin and destination are required")})
		return
	}

	view, err := h.services.Simulations.Run(c.Request.Context(), ownerID(c), *req.Origin, *req.Destination)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": publicMessage(err)})
		return
	}

	c.JSON(http.StatusCreated, view)
}

// ListSimulations returns the caller's recent simulations
func (h *Handler) ListSimulations(c *gin.Context) {
	if h.services.Simulations == nil {
		h.unavailable(c)
		return
	}

	limit, ok := listLimit(c)
	if !ok {
		return
	}

	sims, err := h.services.Simulations.List(c.Request.Context(), ownerID(c), limit)
	if err != nil {
		h.log.Errorw("list simulations failed", "error", err)
		c.JSON(statusFor(err), gin.H{"error": publicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"simulations": sims})
}

type reportRequest struct {
	Category    string   `json:"category" binding:"required,max=64"`
	Description string   `json:"description" binding:"max=1000"`
	Lat         *float64 `json:"lat" binding:"required,latitude"`
	Lon         *float64 `json:"lon" binding:"required,longitude"`
}

// CreateReport stores a community incident report
func (h *Handler) CreateReport(c *gin.Context) {
	if h.services.Incidents == nil {
		h.unavailable(c)
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err, "Invalid request body")})
		return
	}

	report, err := h.services.Incidents.CreateReport(c.Request.Context(), ownerID(c), usecase.ReportInput{
		Category:    req.Category,
		Description: req.Description,
		Lat:         *req.Lat,
		Lon:         *req.Lon,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": publicMessage(err)})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListReports returns recent community reports near a point or inside a bbox
func (h *Handler) ListReports(c *gin.Context) {
	if h.services.Incidents == nil {
		h.unavailable(c)
		return
	}

	var q areaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err, "invalid area")})
		return
	}
	query, err := q.incidentQuery()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": publicMessage(err)})
		return
	}

	limit := q.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	reports, err := h.services.Incidents.ListReports(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": publicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

type reportStatusRequest struct {
	Status domain.ReportStatus `json:"status" binding:"required,oneof=open acknowledged resolved"`
}

// UpdateReport changes the status of one of the caller's reports
func (h *Handler) UpdateReport(c *gin.Context) {
	if h.services.Incidents == nil {
		h.unavailable(c)
		return
	}

	var req reportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err, "status is required")})
		return
	}

	report, err := h.services.Incidents.UpdateReportStatus(c.Request.Context(), c.Param("id"), ownerID(c), req.Status)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": publicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) unavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service not configured"})
}

// listLimit reads ?limit, writing a 400 when it is not a positive integer
func listLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return min(n, maxListLimit), true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var upErr *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingAPIKey):
		return http.StatusInternalServerError
	case errors.As(err, &upErr) && upErr.StatusCode >= 400 && upErr.StatusCode < 600:
		return upErr.StatusCode
	case errors.Is(err, domain.ErrUpstreamFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the client-facing text for err. Provider response bodies
// are logged, never returned.
func publicMessage(err error) string {
	var upErr *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "No result found"
	case errors.Is(err, domain.ErrMissingAPIKey):
		return "API key not configured"
	case errors.As(err, &upErr):
		return fmt.Sprintf("Upstream %s request failed with status %d", upErr.Provider, upErr.StatusCode)
	case errors.Is(err, domain.ErrUpstreamFailure):
		return "Upstream request failed"
	default:
		return "Internal server error"
	}
}

// bindingMessage names the first failing field of a validation error
func bindingMessage(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag())
	}
	return fallback
}
