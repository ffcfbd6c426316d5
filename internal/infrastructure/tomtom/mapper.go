package tomtom

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

type reverseGeocodeResponse struct {
	Addresses []struct {
		Address  json.RawMessage `json:"address"`
		Position string          `json:"position"`
	} `json:"addresses"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	POI     *struct {
		Name string `json:"name"`
	} `json:"poi,omitempty"`
	Address struct {
		FreeformAddress string `json:"freeformAddress"`
		Municipality    string `json:"municipality"`
	} `json:"address"`
	Position struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"position"`
}

type flowResponse struct {
	FlowSegmentData flowSegment `json:"flowSegmentData"`
}

type flowSegment struct {
	CurrentSpeed       float64 `json:"currentSpeed"`
	FreeFlowSpeed      float64 `json:"freeFlowSpeed"`
	CurrentTravelTime  int     `json:"currentTravelTime"`
	FreeFlowTravelTime int     `json:"freeFlowTravelTime"`
	Confidence         float64 `json:"confidence"`
	RoadClosure        bool    `json:"roadClosure"`
}

type incidentResponse struct {
	Incidents []incidentFeature `json:"incidents"`
}

type incidentFeature struct {
	Properties struct {
		ID               string `json:"id"`
		IconCategory     int    `json:"iconCategory"`
		MagnitudeOfDelay int    `json:"magnitudeOfDelay"`
		Events           []struct {
			Description string `json:"description"`
			Code        int    `json:"code"`
		} `json:"events"`
		StartTime *string `json:"startTime"`
		EndTime   *string `json:"endTime"`
		From      string  `json:"from"`
		To        string  `json:"to"`
		Length    float64 `json:"length"`
		Delay     *int    `json:"delay"`
	} `json:"properties"`
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// iconCategories maps TomTom iconCategory codes to labels
var iconCategories = map[int]string{
	0:  "Unknown",
	1:  "Accident",
	2:  "Fog",
	3:  "Dangerous Conditions",
	4:  "Rain",
	5:  "Ice",
	6:  "Jam",
	7:  "Lane Closed",
	8:  "Road Closed",
	9:  "Road Works",
	10: "Wind",
	11: "Flooding",
	14: "Broken Down Vehicle",
}

// MapSearchResults converts TomTom search hits into suggestions. The display
// name prefers the formatted address over the POI name when both exist.
func MapSearchResults(results []searchResult) []domain.LocationSuggestion {
	out := make([]domain.LocationSuggestion, 0, len(results))
	for _, r := range results {
		name := r.Address.FreeformAddress
		if name == "" && r.POI != nil {
			name = r.POI.Name
		}
		if name == "" {
			name = r.Address.Municipality
		}
		if name == "" {
			continue
		}

		out = append(out, domain.LocationSuggestion{
			ID:      r.ID,
			Name:    name,
			Address: r.Address.FreeformAddress,
			Lat:     r.Position.Lat,
			Lon:     r.Position.Lon,
		})
	}
	return out
}

// MapFlow converts a flow segment and derives congestion
func MapFlow(s flowSegment) *domain.TrafficFlow {
	congestion := 0.0
	if s.FreeFlowSpeed > 0 {
		congestion = 1 - s.CurrentSpeed/s.FreeFlowSpeed
	}
	if s.RoadClosure {
		congestion = 1
	}
	congestion = math.Max(0, math.Min(1, congestion))

	return &domain.TrafficFlow{
		CurrentSpeed:       s.CurrentSpeed,
		FreeFlowSpeed:      s.FreeFlowSpeed,
		CurrentTravelTime:  s.CurrentTravelTime,
		FreeFlowTravelTime: s.FreeFlowTravelTime,
		Confidence:         s.Confidence,
		RoadClosure:        s.RoadClosure,
		Congestion:         math.Round(congestion*100) / 100,
	}
}

// MapIncidents converts incident features, locating each at its first coordinate
func MapIncidents(features []incidentFeature) []domain.TrafficIncident {
	out := make([]domain.TrafficIncident, 0, len(features))
	for _, f := range features {
		p := f.Properties
		category, ok := iconCategories[p.IconCategory]
		if !ok {
			category = iconCategories[0]
		}

		descriptions := make([]string, 0, len(p.Events))
		for _, e := range p.Events {
			if e.Description != "" {
				descriptions = append(descriptions, e.Description)
			}
		}

		inc := domain.TrafficIncident{
			ID:           p.ID,
			Category:     category,
			Severity:     p.MagnitudeOfDelay,
			Description:  strings.Join(descriptions, "; "),
			From:         p.From,
			To:           p.To,
			LengthMeters: p.Length,
			Start:        parseTime(p.StartTime),
			End:          parseTime(p.EndTime),
		}
		if p.Delay != nil {
			inc.DelaySeconds = *p.Delay
		}
		inc.Lat, inc.Lon = firstPosition(f.Geometry.Type, f.Geometry.Coordinates)

		out = append(out, inc)
	}
	return out
}

// firstPosition reads [lon,lat] for Point or the first pair of a LineString
func firstPosition(geomType string, raw json.RawMessage) (lat, lon float64) {
	switch geomType {
	case "Point":
		var pt []float64
		if err := json.Unmarshal(raw, &pt); err == nil && len(pt) >= 2 {
			return pt[1], pt[0]
		}
	default:
		var line [][]float64
		if err := json.Unmarshal(raw, &line); err == nil && len(line) > 0 && len(line[0]) >= 2 {
			return line[0][1], line[0][0]
		}
	}
	return 0, 0
}

func parseTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}
