package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

// routeParams are the routing options forwarded to the provider
var routeParams = map[string]bool{
	"routeType":            true,
	"maxAlternatives":      true,
	"traffic":              true,
	"routeRepresentation":  true,
	"instructionsType":     true,
	"travelMode":           true,
	"avoid":                true,
	"departAt":             true,
	"arriveAt":             true,
	"computeTravelTimeFor": true,
	"sectionType":          true,
	"language":             true,
	"vehicleHeading":       true,
	"report":               true,
}

// routeBodyFields are the POST body members forwarded verbatim
var routeBodyFields = map[string]bool{
	"supportingPoints":         true,
	"encodedPolyline":          true,
	"encodedPolylinePrecision": true,
	"pointWaypoints":           true,
	"avoidVignette":            true,
	"allowVignette":            true,
	"avoidAreas":               true,
}

// routeDefaults apply when the caller leaves an option unset
var routeDefaults = map[string]string{
	"routeRepresentation": "polyline",
	"maxAlternatives":     "2",
	"traffic":             "true",
	"routeType":           "fastest",
}

var locationParams = []string{"routePlanningLocations", "origLat", "origLon", "destLat", "destLon"}

// RouteService validates and forwards route calculations
type RouteService struct {
	router domain.RoutingClient
	log    *zap.SugaredLogger
}

// NewRouteService creates a new route service
func NewRouteService(router domain.RoutingClient) *RouteService {
	return &RouteService{
		router: router,
		log:    logger.Named("route"),
	}
}

// Calculate plans a route from query parameters and an optional JSON object
// body. Scalar body members are treated like query parameters and override
// them; whitelisted structured members are forwarded as the POST body.
func (s *RouteService) Calculate(ctx context.Context, params url.Values, body json.RawMessage) (json.RawMessage, error) {
	merged := url.Values{}
	for k, v := range params {
		merged[k] = v
	}

	forward, err := liftBodyParams(body, merged)
	if err != nil {
		return nil, err
	}

	locations, err := routeLocations(merged)
	if err != nil {
		return nil, err
	}

	query := domain.RouteQuery{
		Locations: locations,
		Params:    filterRouteParams(merged),
		Body:      forward,
	}
	s.log.Debugw("route request", "locations", locations, "post", len(forward) > 0)
	return s.router.CalculateRoute(ctx, query)
}

// Route plans a default route between two points
func (s *RouteService) Route(ctx context.Context, origin, destination domain.Coordinates) (json.RawMessage, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}
	return s.router.CalculateRoute(ctx, domain.RouteQuery{
		Locations: formatPair(origin) + ":" + formatPair(destination),
		Params:    filterRouteParams(nil),
	})
}

// liftBodyParams copies scalar members of body into params and returns the
// structured members to forward, or nil when there are none
func liftBodyParams(body json.RawMessage, params url.Values) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: route body must be a JSON object", domain.ErrInvalidRequest)
	}

	forward := map[string]json.RawMessage{}
	for k, raw := range fields {
		if routeBodyFields[k] {
			forward[k] = raw
			continue
		}
		if !routeParams[k] && !isLocationParam(k) {
			continue
		}
		if vs, ok := paramValues(raw); ok {
			params[k] = vs
		}
	}

	if len(forward) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(forward)
	if err != nil {
		return nil, fmt.Errorf("encode route body: %w", err)
	}
	return b, nil
}

// paramValues converts a JSON scalar, or an array of scalars, to query values
func paramValues(raw json.RawMessage) ([]string, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	if list, ok := v.([]any); ok {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := scalarString(item); ok {
				out = append(out, s)
			}
		}
		return out, len(out) > 0
	}
	s, ok := scalarString(v)
	if !ok {
		return nil, false
	}
	return []string{s}, true
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func isLocationParam(k string) bool {
	for _, p := range locationParams {
		if p == k {
			return true
		}
	}
	return false
}

// routeLocations returns "lat,lon:lat,lon[:...]" from routePlanningLocations
// or the origLat/origLon/destLat/destLon quartet
func routeLocations(params url.Values) (string, error) {
	if raw := strings.TrimSpace(params.Get("routePlanningLocations")); raw != "" {
		pairs := strings.Split(raw, ":")
		if len(pairs) < 2 {
			return "", fmt.Errorf("%w: routePlanningLocations needs at least two points", domain.ErrInvalidRequest)
		}
		points := make([]string, 0, len(pairs))
		for _, pair := range pairs {
			c, err := parsePair(pair)
			if err != nil {
				return "", err
			}
			points = append(points, formatPair(c))
		}
		return strings.Join(points, ":"), nil
	}

	values := make([]float64, 0, 4)
	for _, key := range []string{"origLat", "origLon", "destLat", "destLon"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(params.Get(key)), 64)
		if err != nil {
			return "", fmt.Errorf("%w: routePlanningLocations or origLat, origLon, destLat and destLon are required", domain.ErrInvalidRequest)
		}
		values = append(values, v)
	}
	origin := domain.Coordinates{Lat: values[0], Lon: values[1]}
	destination := domain.Coordinates{Lat: values[2], Lon: values[3]}
	if err := origin.Validate(); err != nil {
		return "", err
	}
	if err := destination.Validate(); err != nil {
		return "", err
	}
	return formatPair(origin) + ":" + formatPair(destination), nil
}

func parsePair(pair string) (domain.Coordinates, error) {
	parts := strings.Split(strings.TrimSpace(pair), ",")
	if len(parts) != 2 {
		return domain.Coordinates{}, fmt.Errorf("%w: invalid route point %q", domain.ErrInvalidRequest, pair)
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: invalid route point %q", domain.ErrInvalidRequest, pair)
	}
	c := domain.Coordinates{Lat: lat, Lon: lon}
	return c, c.Validate()
}

func formatPair(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// filterRouteParams keeps whitelisted options and fills defaults
func filterRouteParams(params url.Values) url.Values {
	out := url.Values{}
	for k, v := range params {
		if routeParams[k] && len(v) > 0 {
			out[k] = append([]string(nil), v...)
		}
	}
	for k, v := range routeDefaults {
		if out.Get(k) == "" {
			out.Set(k, v)
		}
	}
	return out
}

// SummarizeRoute reads the summary of the first route in a routing response
func SummarizeRoute(data json.RawMessage) *domain.RouteSummary {
	var resp struct {
		Routes []struct {
			Summary domain.RouteSummary `json:"summary"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || len(resp.Routes) == 0 {
		return nil
	}
	summary := resp.Routes[0].Summary
	return &summary
}
