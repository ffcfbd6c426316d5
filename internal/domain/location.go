package domain

import (
	"encoding/json"
	"fmt"
)

// Coordinates is a WGS84 point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports ErrInvalidRequest for out-of-range coordinates
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: coordinates out of range (%f,%f)", ErrInvalidRequest, c.Lat, c.Lon)
	}
	return nil
}

// Key returns the cache key form "lat,lon"
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// NamedLocation is a coordinate with a display label
type NamedLocation struct {
	Name string `json:"name"`
	Coordinates
}

// LocationSuggestion is the normalized shape of a search hit
type LocationSuggestion struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Address is a reverse geocoding record passed through as the provider sent it.
type Address json.RawMessage

// MarshalJSON emits the raw provider record
func (a Address) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("null"), nil
	}
	return a, nil
}

// Field decodes a single top-level string field, e.g. "municipality"
func (a Address) Field(name string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(a, &fields); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(fields[name], &s); err != nil {
		return ""
	}
	return s
}
