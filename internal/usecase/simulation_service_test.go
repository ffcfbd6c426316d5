package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

const routeResponse = `{"routes":[{"summary":{"lengthInMeters":15000,"travelTimeInSeconds":1800,"trafficDelayInSeconds":900},"legs":[{"points":[]}]}]}`

func newSimulation(router *MockRoutingClient, env *MockEnvironmentClient, traffic *MockTrafficClient, store *MockSimulationRepository) *SimulationService {
	var repo domain.SimulationRepository
	if store != nil {
		repo = store
	}
	return NewSimulationService(NewRouteService(router), env, traffic, NewInsightService(nil), repo, SimulationServiceConfig{
		Now: func() time.Time { return fixedNow },
	})
}

func TestRunSimulation(t *testing.T) {
	ctx := context.Background()
	origin := domain.Coordinates{Lat: 19.07, Lon: 72.87}
	destination := domain.Coordinates{Lat: 19.2, Lon: 72.97}

	t.Run("complete run is saved", func(t *testing.T) {
		env := healthyEnvironment()
		traffic := healthyTraffic()
		store := &MockSimulationRepository{}
		svc := newSimulation(&MockRoutingClient{response: json.RawMessage(routeResponse)}, env, traffic, store)

		view, err := svc.Run(ctx, "user-1", origin, destination)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.ID != "sim-1" {
			t.Errorf("ID = %q, want sim-1", view.ID)
		}
		if view.Route == nil || view.Route.LengthMeters != 15000 {
			t.Errorf("Route = %+v", view.Route)
		}
		if len(view.Degraded) != 0 {
			t.Errorf("Degraded = %v", view.Degraded)
		}
		if env.weatherPoints[0] != destination {
			t.Errorf("weather fetched for %+v, want destination", env.weatherPoints[0])
		}

		box := traffic.boxes[0]
		if box.MinLat >= origin.Lat || box.MaxLat <= destination.Lat || box.MinLon >= origin.Lon || box.MaxLon <= destination.Lon {
			t.Errorf("incident box %+v does not cover the trip", box)
		}

		// delay is half the travel time, so traffic shows up
		if !categories(view.Insights)[domain.InsightTraffic] {
			t.Errorf("insights = %+v, want traffic", view.Insights)
		}

		if len(store.saved) != 1 {
			t.Fatalf("saved = %d, want 1", len(store.saved))
		}
		saved := store.saved[0]
		if saved.OwnerID != "user-1" || saved.Status != domain.SimulationCompleted {
			t.Errorf("saved = %+v", saved)
		}
		var stored map[string]json.RawMessage
		if err := json.Unmarshal(saved.Result, &stored); err != nil {
			t.Fatalf("stored result is not JSON: %v", err)
		}
		if _, ok := stored["routeData"]; ok {
			t.Error("raw route data should not be stored")
		}
	})

	t.Run("route failure degrades", func(t *testing.T) {
		store := &MockSimulationRepository{}
		svc := newSimulation(&MockRoutingClient{err: domain.ErrMissingAPIKey}, healthyEnvironment(), healthyTraffic(), store)

		view, err := svc.Run(ctx, "user-1", origin, destination)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.Route != nil || view.RouteData != nil {
			t.Errorf("route = %+v", view.Route)
		}
		if !reflect.DeepEqual(view.Degraded, []string{SectionRoute}) {
			t.Errorf("Degraded = %v", view.Degraded)
		}
		if store.saved[0].Status != domain.SimulationDegraded {
			t.Errorf("Status = %q, want degraded", store.saved[0].Status)
		}
	})

	t.Run("storage failure is reported, not returned", func(t *testing.T) {
		store := &MockSimulationRepository{saveError: errors.New("disk full")}
		svc := newSimulation(&MockRoutingClient{response: json.RawMessage(routeResponse)}, healthyEnvironment(), healthyTraffic(), store)

		view, err := svc.Run(ctx, "user-1", origin, destination)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.ID != "" {
			t.Errorf("ID = %q, want empty", view.ID)
		}
		if !reflect.DeepEqual(view.Degraded, []string{SectionStorage}) {
			t.Errorf("Degraded = %v", view.Degraded)
		}
	})

	t.Run("without a store nothing is persisted", func(t *testing.T) {
		svc := newSimulation(&MockRoutingClient{response: json.RawMessage(routeResponse)}, healthyEnvironment(), healthyTraffic(), nil)

		view, err := svc.Run(ctx, "user-1", origin, destination)
		if err != nil || view.ID != "" {
			t.Errorf("view = %+v err = %v", view, err)
		}
		list, err := svc.List(ctx, "user-1", 10)
		if err != nil || len(list) != 0 {
			t.Errorf("List = %v, %v", list, err)
		}
	})

	t.Run("invalid destination", func(t *testing.T) {
		router := &MockRoutingClient{}
		svc := newSimulation(router, healthyEnvironment(), healthyTraffic(), nil)

		_, err := svc.Run(ctx, "user-1", origin, domain.Coordinates{Lat: 0, Lon: 200})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
		if router.calls != 0 {
			t.Error("provider called for invalid input")
		}
	})
}

func TestListSimulations(t *testing.T) {
	store := &MockSimulationRepository{saved: []domain.Simulation{{ID: "a", OwnerID: "u1"}, {ID: "b", OwnerID: "u2"}}}
	svc := newSimulation(&MockRoutingClient{}, healthyEnvironment(), healthyTraffic(), store)

	got, err := svc.List(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("List = %+v", got)
	}
}
