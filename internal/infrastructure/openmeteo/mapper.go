package openmeteo

import (
	"time"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

// timeLayout is the ISO8601 form Open-Meteo uses, without seconds or zone
const timeLayout = "2006-01-02T15:04"

type forecastResponse struct {
	Current *struct {
		Time             string   `json:"time"`
		Temperature      *float64 `json:"temperature_2m"`
		RelativeHumidity *float64 `json:"relative_humidity_2m"`
		WindSpeed        *float64 `json:"wind_speed_10m"`
		SurfacePressure  *float64 `json:"surface_pressure"`
		WeatherCode      *int     `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		Time             []string   `json:"time"`
		Temperature      []*float64 `json:"temperature_2m"`
		RelativeHumidity []*float64 `json:"relative_humidity_2m"`
		WindSpeed        []*float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

type airQualityResponse struct {
	Current *struct {
		Time  string   `json:"time"`
		USAQI *float64 `json:"us_aqi"`
		PM25  *float64 `json:"pm2_5"`
		PM10  *float64 `json:"pm10"`
	} `json:"current"`
	Hourly struct {
		Time  []string   `json:"time"`
		USAQI []*float64 `json:"us_aqi"`
		PM25  []*float64 `json:"pm2_5"`
		PM10  []*float64 `json:"pm10"`
	} `json:"hourly"`
}

// MapWeather converts a forecast payload into a weather report
func MapWeather(resp forecastResponse) *domain.WeatherReport {
	report := &domain.WeatherReport{Current: domain.UnknownWeather()}

	if cur := resp.Current; cur != nil {
		report.Current = &domain.WeatherSummary{
			Temperature: cur.Temperature,
			Humidity:    cur.RelativeHumidity,
			WindSpeed:   cur.WindSpeed,
			Pressure:    cur.SurfacePressure,
			WeatherCode: cur.WeatherCode,
			Condition:   "unknown",
			ObservedAt:  parseTime(cur.Time),
		}
		if cur.WeatherCode != nil {
			report.Current.Condition = ConditionFor(*cur.WeatherCode)
		}
	}

	h := resp.Hourly
	report.Hourly = make([]domain.HourlyWeather, 0, len(h.Time))
	for i, ts := range h.Time {
		report.Hourly = append(report.Hourly, domain.HourlyWeather{
			Time:        ts,
			Temperature: at(h.Temperature, i),
			Humidity:    at(h.RelativeHumidity, i),
			WindSpeed:   at(h.WindSpeed, i),
		})
	}
	return report
}

// MapAirQuality converts an air-quality payload into a report
func MapAirQuality(resp airQualityResponse) *domain.AirQualityReport {
	report := &domain.AirQualityReport{Current: domain.UnknownAirQuality()}

	if cur := resp.Current; cur != nil {
		report.Current = &domain.AirQualitySummary{
			AQI:      cur.USAQI,
			PM25:     cur.PM25,
			PM10:     cur.PM10,
			Category: domain.AQICategory(cur.USAQI),
		}
	}

	h := resp.Hourly
	report.Hourly = make([]domain.HourlyAirQuality, 0, len(h.Time))
	for i, ts := range h.Time {
		report.Hourly = append(report.Hourly, domain.HourlyAirQuality{
			Time: ts,
			AQI:  at(h.USAQI, i),
			PM25: at(h.PM25, i),
			PM10: at(h.PM10, i),
		})
	}
	return report
}

// ConditionFor maps a WMO weather code to a short condition label
func ConditionFor(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code >= 1 && code <= 3:
		return "cloudy"
	case code == 45 || code == 48:
		return "fog"
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return "rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "snow"
	case code >= 95:
		return "storm"
	default:
		return "unknown"
	}
}

// at returns s[i], or nil when the provider sent a shorter array
func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	ts, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil
	}
	return &ts
}
