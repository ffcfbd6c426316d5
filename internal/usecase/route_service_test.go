package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

func TestCalculateRoute(t *testing.T) {
	ctx := context.Background()

	t.Run("coordinate quartet with defaults", func(t *testing.T) {
		client := &MockRoutingClient{response: json.RawMessage(`{"routes":[]}`)}
		svc := NewRouteService(client)

		params := url.Values{
			"origLat": {"19.07"}, "origLon": {"72.87"},
			"destLat": {"19.2"}, "destLon": {"72.97"},
			"key":       {"client-supplied"},
			"routeType": {"shortest"},
		}
		if _, err := svc.Calculate(ctx, params, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		q := client.lastQuery
		if q.Locations != "19.07,72.87:19.2,72.97" {
			t.Errorf("Locations = %q", q.Locations)
		}
		if q.Params.Get("key") != "" {
			t.Error("non-whitelisted parameter was forwarded")
		}
		if q.Params.Get("origLat") != "" {
			t.Error("location parameter was forwarded as an option")
		}
		if q.Params.Get("routeType") != "shortest" {
			t.Errorf("routeType = %q, want caller value", q.Params.Get("routeType"))
		}
		want := map[string]string{"routeRepresentation": "polyline", "maxAlternatives": "2", "traffic": "true"}
		for k, v := range want {
			if q.Params.Get(k) != v {
				t.Errorf("%s = %q, want %q", k, q.Params.Get(k), v)
			}
		}
		if q.Body != nil {
			t.Errorf("Body = %s, want nil for GET", q.Body)
		}
	})

	t.Run("routePlanningLocations with waypoints", func(t *testing.T) {
		client := &MockRoutingClient{response: json.RawMessage(`{}`)}
		svc := NewRouteService(client)

		params := url.Values{"routePlanningLocations": {"19.07, 72.87:19.1,72.9:19.2,72.97"}}
		if _, err := svc.Calculate(ctx, params, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.lastQuery.Locations != "19.07,72.87:19.1,72.9:19.2,72.97" {
			t.Errorf("Locations = %q", client.lastQuery.Locations)
		}
	})

	t.Run("body options and forwarded members", func(t *testing.T) {
		client := &MockRoutingClient{response: json.RawMessage(`{}`)}
		svc := NewRouteService(client)

		body := json.RawMessage(`{
			"origLat": 19.07, "origLon": 72.87, "destLat": 19.2, "destLon": 72.97,
			"travelMode": "motorcycle",
			"avoid": ["tollRoads", "ferries"],
			"traffic": false,
			"supportingPoints": [{"latitude": 19.1, "longitude": 72.9}],
			"apiKey": "nope"
		}`)
		if _, err := svc.Calculate(ctx, url.Values{"travelMode": {"car"}}, body); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		q := client.lastQuery
		if q.Params.Get("travelMode") != "motorcycle" {
			t.Errorf("travelMode = %q, want body value", q.Params.Get("travelMode"))
		}
		if got := q.Params["avoid"]; len(got) != 2 {
			t.Errorf("avoid = %v, want two values", got)
		}
		if q.Params.Get("traffic") != "false" {
			t.Errorf("traffic = %q, want false", q.Params.Get("traffic"))
		}

		var forwarded map[string]json.RawMessage
		if err := json.Unmarshal(q.Body, &forwarded); err != nil {
			t.Fatalf("forwarded body is not JSON: %v", err)
		}
		if _, ok := forwarded["supportingPoints"]; !ok {
			t.Error("supportingPoints not forwarded")
		}
		if len(forwarded) != 1 {
			t.Errorf("forwarded body = %s, want only supportingPoints", q.Body)
		}
	})

	t.Run("invalid requests", func(t *testing.T) {
		tests := []struct {
			name   string
			params url.Values
			body   json.RawMessage
		}{
			{"no locations", url.Values{}, nil},
			{"single point", url.Values{"routePlanningLocations": {"19,72"}}, nil},
			{"malformed point", url.Values{"routePlanningLocations": {"19;72:20,73"}}, nil},
			{"out of range", url.Values{"origLat": {"95"}, "origLon": {"1"}, "destLat": {"1"}, "destLon": {"1"}}, nil},
			{"partial quartet", url.Values{"origLat": {"19"}, "origLon": {"72"}}, nil},
			{"body not an object", url.Values{}, json.RawMessage(`[1,2]`)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				client := &MockRoutingClient{}
				svc := NewRouteService(client)

				_, err := svc.Calculate(ctx, tt.params, tt.body)
				if !errors.Is(err, domain.ErrInvalidRequest) {
					t.Errorf("error = %v, want ErrInvalidRequest", err)
				}
				if client.calls != 0 {
					t.Error("provider was called for an invalid request")
				}
			})
		}
	})

	t.Run("provider errors pass through", func(t *testing.T) {
		upErr := &domain.UpstreamError{Provider: "tomtom", StatusCode: 403}
		svc := NewRouteService(&MockRoutingClient{err: upErr})

		_, err := svc.Calculate(ctx, url.Values{"routePlanningLocations": {"1,1:2,2"}}, nil)
		var got *domain.UpstreamError
		if !errors.As(err, &got) || got.StatusCode != 403 {
			t.Errorf("error = %v, want upstream 403", err)
		}
	})
}

func TestRoute(t *testing.T) {
	client := &MockRoutingClient{response: json.RawMessage(`{}`)}
	svc := NewRouteService(client)

	_, err := svc.Route(context.Background(), domain.Coordinates{Lat: 19.07, Lon: 72.87}, domain.Coordinates{Lat: 19.2, Lon: 72.97})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.lastQuery.Locations != "19.07,72.87:19.2,72.97" {
		t.Errorf("Locations = %q", client.lastQuery.Locations)
	}
	if client.lastQuery.Params.Get("routeType") != "fastest" {
		t.Error("defaults not applied")
	}
}

func TestSummarizeRoute(t *testing.T) {
	got := SummarizeRoute(json.RawMessage(`{"routes":[{"summary":{"lengthInMeters":12000,"travelTimeInSeconds":1800,"trafficDelayInSeconds":300}}]}`))
	if got == nil {
		t.Fatal("expected summary")
	}
	if got.LengthMeters != 12000 || got.TravelTimeSeconds != 1800 || got.TrafficDelaySecond != 300 {
		t.Errorf("summary = %+v", got)
	}

	if SummarizeRoute(json.RawMessage(`{"routes":[]}`)) != nil {
		t.Error("expected nil for empty routes")
	}
	if SummarizeRoute(nil) != nil {
		t.Error("expected nil for missing data")
	}
}
