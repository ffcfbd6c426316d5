package usecase

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

// MinSearchQueryLength is the shortest trimmed query sent to the provider
const MinSearchQueryLength = 2

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// LocationService answers geocoding and place search through TTL caches
type LocationService struct {
	geocoder     domain.GeocodingClient
	geocodeCache domain.CacheRepository[domain.Address]
	searchCache  domain.CacheRepository[[]domain.LocationSuggestion]
	log          *zap.SugaredLogger
}

// NewLocationService creates a new location service with dependencies
func NewLocationService(
	geocoder domain.GeocodingClient,
	geocodeCache domain.CacheRepository[domain.Address],
	searchCache domain.CacheRepository[[]domain.LocationSuggestion],
) *LocationService {
	return &LocationService{
		geocoder:     geocoder,
		geocodeCache: geocodeCache,
		searchCache:  searchCache,
		log:          logger.Named("location"),
	}
}

// ReverseGeocode returns the address record for point.
// Flow: validate -> cache -> provider -> cache -> return
func (s *LocationService) ReverseGeocode(ctx context.Context, point domain.Coordinates) (domain.Address, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}

	return s.geocodeCache.GetOrFetch(ctx, point.Key(), func(ctx context.Context) (domain.Address, error) {
		return s.geocoder.ReverseGeocode(ctx, point)
	})
}

// PlaceName returns a short label for point, or "" when geocoding fails
func (s *LocationService) PlaceName(ctx context.Context, point domain.Coordinates) string {
	addr, err := s.ReverseGeocode(ctx, point)
	if err != nil {
		s.log.Debugw("place name unavailable", "point", point.Key(), "error", err)
		return ""
	}
	for _, field := range []string{"municipality", "municipalitySubdivision", "countrySubdivision", "freeformAddress"} {
		if v := addr.Field(field); v != "" {
			return v
		}
	}
	return ""
}

// Search returns place suggestions for query. Short queries and provider
// failures both yield an empty list; failures are logged, not returned.
func (s *LocationService) Search(ctx context.Context, query string) []domain.LocationSuggestion {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchQueryLength {
		return []domain.LocationSuggestion{}
	}

	results, err := s.searchCache.GetOrFetch(ctx, normalizeSearchKey(query), func(ctx context.Context) ([]domain.LocationSuggestion, error) {
		return s.geocoder.SearchLocations(ctx, query)
	})
	if err != nil {
		s.log.Warnw("location search failed", "query", query, "error", err)
		return []domain.LocationSuggestion{}
	}
	if results == nil {
		return []domain.LocationSuggestion{}
	}
	return results
}

// normalizeSearchKey lowercases and collapses whitespace so equivalent
// queries share a cache entry
func normalizeSearchKey(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	return "search:" + multipleSpacesRegex.ReplaceAllString(q, " ")
}
