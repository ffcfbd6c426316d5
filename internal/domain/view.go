package domain

import (
	"encoding/json"
	"time"
)

// DashboardView is the aggregated dashboard view-model
type DashboardView struct {
	Location      NamedLocation      `json:"location"`
	Weather       *WeatherSummary    `json:"weather"`
	AirQuality    *AirQualitySummary `json:"airQuality"`
	Forecast      []ForecastEntry    `json:"forecast"`
	Traffic       *TrafficFlow       `json:"traffic"`
	Incidents     []TrafficIncident  `json:"incidents"`
	Insights      []Insight          `json:"insights"`
	InsightSource string             `json:"insightSource"`
	Degraded      []string           `json:"degraded,omitempty"`
	GeneratedAt   time.Time          `json:"generatedAt"`
}

// RouteSummary is the headline of the first route returned by the routing provider
type RouteSummary struct {
	LengthMeters       int `json:"lengthInMeters"`
	TravelTimeSeconds  int `json:"travelTimeInSeconds"`
	TrafficDelaySecond int `json:"trafficDelayInSeconds"`
}

// SimulationView is the aggregated simulation view-model
type SimulationView struct {
	ID            string             `json:"id,omitempty"`
	Origin        Coordinates        `json:"origin"`
	Destination   Coordinates        `json:"destination"`
	Route         *RouteSummary      `json:"route"`
	RouteData     json.RawMessage    `json:"routeData,omitempty"`
	Weather       *WeatherSummary    `json:"weather"`
	AirQuality    *AirQualitySummary `json:"airQuality"`
	Incidents     []TrafficIncident  `json:"incidents"`
	Insights      []Insight          `json:"insights"`
	InsightSource string             `json:"insightSource"`
	Degraded      []string           `json:"degraded,omitempty"`
	GeneratedAt   time.Time          `json:"generatedAt"`
}
