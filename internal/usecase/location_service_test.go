package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

func TestReverseGeocode(t *testing.T) {
	ctx := context.Background()
	mumbai := domain.Coordinates{Lat: 19.076, Lon: 72.8777}

	t.Run("caches within ttl and refetches after", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		geo, search := newTestCaches(clock)
		client := &MockGeocodingClient{address: domain.Address(`{"municipality":"Mumbai"}`)}
		svc := NewLocationService(client, geo, search)

		for i := 0; i < 3; i++ {
			addr, err := svc.ReverseGeocode(ctx, mumbai)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := addr.Field("municipality"); got != "Mumbai" {
				t.Errorf("municipality = %q, want Mumbai", got)
			}
		}
		if client.geocodeCalls != 1 {
			t.Errorf("provider calls = %d, want 1", client.geocodeCalls)
		}

		now = now.Add(time.Hour)
		if _, err := svc.ReverseGeocode(ctx, mumbai); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.geocodeCalls != 2 {
			t.Errorf("provider calls after expiry = %d, want 2", client.geocodeCalls)
		}
	})

	t.Run("rejects invalid coordinates without calling provider", func(t *testing.T) {
		geo, search := newTestCaches(time.Now)
		client := &MockGeocodingClient{}
		svc := NewLocationService(client, geo, search)

		_, err := svc.ReverseGeocode(ctx, domain.Coordinates{Lat: 120, Lon: 0})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
		if client.geocodeCalls != 0 {
			t.Errorf("provider calls = %d, want 0", client.geocodeCalls)
		}
	})

	t.Run("does not cache failures", func(t *testing.T) {
		geo, search := newTestCaches(time.Now)
		client := &MockGeocodingClient{geocodeError: domain.ErrNotFound}
		svc := NewLocationService(client, geo, search)

		for i := 0; i < 2; i++ {
			if _, err := svc.ReverseGeocode(ctx, mumbai); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		}
		if client.geocodeCalls != 2 {
			t.Errorf("provider calls = %d, want 2", client.geocodeCalls)
		}
	})
}

func TestPlaceName(t *testing.T) {
	ctx := context.Background()
	point := domain.Coordinates{Lat: 1, Lon: 1}

	tests := []struct {
		name     string
		address  domain.Address
		err      error
		expected string
	}{
		{"municipality", domain.Address(`{"municipality":"Pune","freeformAddress":"X"}`), nil, "Pune"},
		{"subdivision fallback", domain.Address(`{"countrySubdivision":"Goa"}`), nil, "Goa"},
		{"provider error", nil, domain.ErrMissingAPIKey, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo, search := newTestCaches(time.Now)
			svc := NewLocationService(&MockGeocodingClient{address: tt.address, geocodeError: tt.err}, geo, search)

			if got := svc.PlaceName(ctx, point); got != tt.expected {
				t.Errorf("PlaceName = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("short query returns empty list without provider call", func(t *testing.T) {
		for _, q := range []string{"", "a", "  b  "} {
			geo, search := newTestCaches(time.Now)
			client := &MockGeocodingClient{}
			svc := NewLocationService(client, geo, search)

			got := svc.Search(ctx, q)
			if got == nil || len(got) != 0 {
				t.Errorf("Search(%q) = %v, want empty non-nil list", q, got)
			}
			if client.searchCalls != 0 {
				t.Errorf("Search(%q) called provider %d times", q, client.searchCalls)
			}
		}
	})

	t.Run("equivalent queries share a cache entry", func(t *testing.T) {
		geo, search := newTestCaches(time.Now)
		client := &MockGeocodingClient{suggestions: []domain.LocationSuggestion{{ID: "1", Name: "Bandra West"}}}
		svc := NewLocationService(client, geo, search)

		first := svc.Search(ctx, "  Bandra   West ")
		second := svc.Search(ctx, "bandra west")

		if len(first) != 1 || len(second) != 1 {
			t.Fatalf("results = %v / %v, want one suggestion each", first, second)
		}
		if client.searchCalls != 1 {
			t.Errorf("provider calls = %d, want 1", client.searchCalls)
		}
		if client.lastQuery != "Bandra   West" {
			t.Errorf("provider query = %q, want trimmed original", client.lastQuery)
		}
	})

	t.Run("provider failure yields empty list", func(t *testing.T) {
		geo, search := newTestCaches(time.Now)
		client := &MockGeocodingClient{searchError: &domain.UpstreamError{Provider: "tomtom", StatusCode: 500}}
		svc := NewLocationService(client, geo, search)

		got := svc.Search(ctx, "colaba")
		if got == nil || len(got) != 0 {
			t.Errorf("Search = %v, want empty list", got)
		}
	})

	t.Run("nil provider result becomes empty list", func(t *testing.T) {
		geo, search := newTestCaches(time.Now)
		svc := NewLocationService(&MockGeocodingClient{}, geo, search)

		if got := svc.Search(ctx, "nowhere"); got == nil {
			t.Error("Search returned nil, want empty list")
		}
	})
}
