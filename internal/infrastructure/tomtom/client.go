package tomtom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/upstream"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

const providerName = "tomtom"

// incidentFields selects the incident properties we map
const incidentFields = "{incidents{type,geometry{type,coordinates},properties{id,iconCategory,magnitudeOfDelay,events{description,code},startTime,endTime,from,to,length,delay}}}"

// Config holds TomTom client settings
type Config struct {
	APIKey  string
	BaseURL string
	// SearchRadius is the reverse geocoding radius in meters
	SearchRadius int
	// SearchLimit caps forward search results
	SearchLimit int
	// RequestsPerSecond and Burst throttle outbound calls to stay inside the plan's QPS
	RequestsPerSecond float64
	Burst             int
	Upstream          upstream.Config
}

// Client handles communication with the TomTom Search, Routing and Traffic APIs
type Client struct {
	api          *upstream.Client
	apiKey       string
	baseURL      string
	searchRadius int
	searchLimit  int
	rateLimiter  *rate.Limiter
	log          *zap.SugaredLogger
}

// NewClient creates a new TomTom API client
func NewClient(cfg Config) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	radius := cfg.SearchRadius
	if radius <= 0 {
		radius = 100
	}
	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = 5
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.tomtom.com"
	}

	upCfg := cfg.Upstream
	upCfg.Name = providerName

	return &Client{
		api:          upstream.New(upCfg),
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		searchRadius: radius,
		searchLimit:  limit,
		rateLimiter:  rate.NewLimiter(rate.Limit(rps), burst),
		log:          logger.Named(providerName),
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// get waits for the limiter and performs a GET on path with params plus the key
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if !c.Configured() {
		return nil, domain.ErrMissingAPIKey
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	return c.api.Get(ctx, reqURL)
}

// ReverseGeocode returns the first address record for a point, as TomTom sent it
func (c *Client) ReverseGeocode(ctx context.Context, point domain.Coordinates) (domain.Address, error) {
	c.log.Debugw("reverse geocode", "lat", point.Lat, "lon", point.Lon)

	path := fmt.Sprintf("/search/2/reverseGeocode/%s,%s.json", formatCoord(point.Lat), formatCoord(point.Lon))
	params := url.Values{}
	params.Set("radius", strconv.Itoa(c.searchRadius))

	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var resp reverseGeocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode reverse geocode: %v", domain.ErrUpstreamFailure, err)
	}
	if len(resp.Addresses) == 0 || len(resp.Addresses[0].Address) == 0 {
		return nil, domain.ErrNotFound
	}

	return domain.Address(resp.Addresses[0].Address), nil
}

// SearchLocations runs a fuzzy place search and normalizes the hits
func (c *Client) SearchLocations(ctx context.Context, query string) ([]domain.LocationSuggestion, error) {
	c.log.Debugw("location search", "query", query)

	path := fmt.Sprintf("/search/2/search/%s.json", url.PathEscape(query))
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.searchLimit))
	params.Set("typeahead", "true")

	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode search: %v", domain.ErrUpstreamFailure, err)
	}

	return MapSearchResults(resp.Results), nil
}

// CalculateRoute forwards a whitelisted routing request. A non-empty body
// switches to POST for supporting points and other advanced inputs.
func (c *Client) CalculateRoute(ctx context.Context, query domain.RouteQuery) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, domain.ErrMissingAPIKey
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	params := url.Values{}
	for k, v := range query.Params {
		params[k] = append([]string(nil), v...)
	}
	params.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s/routing/1/calculateRoute/%s/json?%s", c.baseURL, query.Locations, params.Encode())

	method := http.MethodGet
	var payload io.Reader
	if len(query.Body) > 0 {
		method = http.MethodPost
		payload = bytes.NewReader(query.Body)
	}

	req, err := upstream.NewRequest(ctx, method, reqURL, payload)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugw("calculate route", "method", method, "locations", query.Locations)
	body, err := c.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: routing response is not JSON", domain.ErrUpstreamFailure)
	}
	return json.RawMessage(body), nil
}

// TrafficFlow returns flow data for the road segment nearest to point
func (c *Client) TrafficFlow(ctx context.Context, point domain.Coordinates) (*domain.TrafficFlow, error) {
	params := url.Values{}
	params.Set("point", formatCoord(point.Lat)+","+formatCoord(point.Lon))
	params.Set("unit", "KMPH")

	body, err := c.get(ctx, "/traffic/services/4/flowSegmentData/absolute/10/json", params)
	if err != nil {
		return nil, err
	}

	var resp flowResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode traffic flow: %v", domain.ErrUpstreamFailure, err)
	}
	return MapFlow(resp.FlowSegmentData), nil
}

// Incidents returns current traffic incidents inside box
func (c *Client) Incidents(ctx context.Context, box domain.BoundingBox) ([]domain.TrafficIncident, error) {
	params := url.Values{}
	params.Set("bbox", strings.Join([]string{
		formatCoord(box.MinLon), formatCoord(box.MinLat),
		formatCoord(box.MaxLon), formatCoord(box.MaxLat),
	}, ","))
	params.Set("fields", incidentFields)
	params.Set("language", "en-GB")
	params.Set("timeValidityFilter", "present")

	body, err := c.get(ctx, "/traffic/services/5/incidentDetails", params)
	if err != nil {
		return nil, err
	}

	var resp incidentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode incidents: %v", domain.ErrUpstreamFailure, err)
	}
	return MapIncidents(resp.Incidents), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
