package domain

import (
	"math"
	"time"
)

// AirQualityUnknown is the category reported when no AQI is available
const AirQualityUnknown = "Unknown"

// WeatherSummary is a current-conditions snapshot. Nil fields are unknown.
type WeatherSummary struct {
	Temperature *float64   `json:"temperature"` // °C
	Humidity    *float64   `json:"humidity"`    // %
	WindSpeed   *float64   `json:"windSpeed"`   // km/h
	Pressure    *float64   `json:"pressure"`    // hPa
	WeatherCode *int       `json:"weatherCode"`
	Condition   string     `json:"condition"`
	ObservedAt  *time.Time `json:"observedAt,omitempty"`
}

// AirQualitySummary is a current air-quality snapshot. Nil fields are unknown.
type AirQualitySummary struct {
	AQI      *float64 `json:"aqi"` // US AQI
	PM25     *float64 `json:"pm25"`
	PM10     *float64 `json:"pm10"`
	Category string   `json:"category"`
}

// UnknownAirQuality is the placeholder used when the provider fails
func UnknownAirQuality() *AirQualitySummary {
	return &AirQualitySummary{Category: AirQualityUnknown}
}

// UnknownWeather is the placeholder used when the provider fails
func UnknownWeather() *WeatherSummary {
	return &WeatherSummary{Condition: "unknown"}
}

// AQICategory buckets a US AQI value using EPA breakpoints
func AQICategory(aqi *float64) string {
	if aqi == nil {
		return AirQualityUnknown
	}
	switch v := *aqi; {
	case v <= 50:
		return "Good"
	case v <= 100:
		return "Moderate"
	case v <= 150:
		return "Unhealthy for Sensitive Groups"
	case v <= 200:
		return "Unhealthy"
	case v <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// ForecastEntry is one hourly point of the combined weather and air-quality series
type ForecastEntry struct {
	Time        string   `json:"time"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	WindSpeed   *float64 `json:"windSpeed"`
	AQI         *float64 `json:"aqi"`
	PM25        *float64 `json:"pm25"`
	PM10        *float64 `json:"pm10"`
}

// HourlyWeather is a single hour of weather as reported by the provider
type HourlyWeather struct {
	Time        string
	Temperature *float64
	Humidity    *float64
	WindSpeed   *float64
}

// HourlyAirQuality is a single hour of air quality as reported by the provider
type HourlyAirQuality struct {
	Time string
	AQI  *float64
	PM25 *float64
	PM10 *float64
}

// WeatherReport is a weather adapter result
type WeatherReport struct {
	Current *WeatherSummary
	Hourly  []HourlyWeather
}

// AirQualityReport is an air-quality adapter result
type AirQualityReport struct {
	Current *AirQualitySummary
	Hourly  []HourlyAirQuality
}

// TrafficFlow describes the road segment closest to a point
type TrafficFlow struct {
	CurrentSpeed       float64 `json:"currentSpeed"`
	FreeFlowSpeed      float64 `json:"freeFlowSpeed"`
	CurrentTravelTime  int     `json:"currentTravelTime"`
	FreeFlowTravelTime int     `json:"freeFlowTravelTime"`
	Confidence         float64 `json:"confidence"`
	RoadClosure        bool    `json:"roadClosure"`
	// Congestion is 1 - current/freeFlow, clamped to [0,1]
	Congestion float64 `json:"congestion"`
}

// TrafficIncident is a provider-reported traffic incident
type TrafficIncident struct {
	ID           string     `json:"id"`
	Category     string     `json:"category"`
	Severity     int        `json:"severity"`
	Description  string     `json:"description"`
	From         string     `json:"from,omitempty"`
	To           string     `json:"to,omitempty"`
	DelaySeconds int        `json:"delaySeconds"`
	LengthMeters float64    `json:"lengthMeters"`
	Start        *time.Time `json:"start,omitempty"`
	End          *time.Time `json:"end,omitempty"`
	Lat          float64    `json:"lat"`
	Lon          float64    `json:"lon"`
}

// BoundingBox is an axis-aligned lat/lon box
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// BoxAround returns a box extending radiusKm in every direction from c
func BoxAround(c Coordinates, radiusKm float64) BoundingBox {
	// one degree of latitude is ~111 km; longitude is scaled by cos(lat)
	dLat := radiusKm / 111.0
	dLon := radiusKm / (111.0 * cosDeg(c.Lat))
	return BoundingBox{
		MinLat: c.Lat - dLat,
		MinLon: c.Lon - dLon,
		MaxLat: c.Lat + dLat,
		MaxLon: c.Lon + dLon,
	}
}

// cosDeg is cos of an angle in degrees, floored near the poles
func cosDeg(deg float64) float64 {
	c := math.Cos(deg * math.Pi / 180)
	if c < 0.01 {
		return 0.01
	}
	return c
}

// BoxCovering returns the smallest box holding all points, padded by padKm
func BoxCovering(padKm float64, points ...Coordinates) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	box := BoundingBox{MinLat: points[0].Lat, MaxLat: points[0].Lat, MinLon: points[0].Lon, MaxLon: points[0].Lon}
	for _, p := range points[1:] {
		box.MinLat = min(box.MinLat, p.Lat)
		box.MaxLat = max(box.MaxLat, p.Lat)
		box.MinLon = min(box.MinLon, p.Lon)
		box.MaxLon = max(box.MaxLon, p.Lon)
	}
	pad := BoxAround(Coordinates{Lat: (box.MinLat + box.MaxLat) / 2}, padKm)
	dLat := pad.MaxLat - pad.MinLat
	dLon := pad.MaxLon - pad.MinLon
	box.MinLat -= dLat / 2
	box.MaxLat += dLat / 2
	box.MinLon -= dLon / 2
	box.MaxLon += dLon / 2
	return box
}

// MergeForecast joins hourly weather and air quality on the timestamp. The
// series is as long as the shorter non-empty input; an hour present in only
// one provider keeps nil values for the other.
func MergeForecast(weather []HourlyWeather, air []HourlyAirQuality) []ForecastEntry {
	n := len(weather)
	switch {
	case n == 0:
		n = len(air)
	case len(air) > 0 && len(air) < n:
		n = len(air)
	}

	airByTime := make(map[string]HourlyAirQuality, len(air))
	for _, a := range air {
		airByTime[a.Time] = a
	}

	out := make([]ForecastEntry, 0, n)
	for i := 0; i < n; i++ {
		if len(weather) == 0 {
			a := air[i]
			out = append(out, ForecastEntry{Time: a.Time, AQI: a.AQI, PM25: a.PM25, PM10: a.PM10})
			continue
		}

		w := weather[i]
		entry := ForecastEntry{
			Time:        w.Time,
			Temperature: w.Temperature,
			Humidity:    w.Humidity,
			WindSpeed:   w.WindSpeed,
		}
		if a, ok := airByTime[w.Time]; ok {
			entry.AQI, entry.PM25, entry.PM10 = a.AQI, a.PM25, a.PM10
		}
		out = append(out, entry)
	}
	return out
}
