package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/infrastructure/upstream"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

const (
	defaultForecastURL   = "https://api.open-meteo.com/v1/forecast"
	defaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	weatherCurrent = "temperature_2m,relative_humidity_2m,wind_speed_10m,surface_pressure,weather_code"
	weatherHourly  = "temperature_2m,relative_humidity_2m,wind_speed_10m"
	airQualityVars = "us_aqi,pm2_5,pm10"
)

// Config holds Open-Meteo endpoints. Both APIs are keyless.
type Config struct {
	ForecastURL   string
	AirQualityURL string
	// ForecastDays bounds the hourly series
	ForecastDays int
	Upstream     upstream.Config
}

// Client fetches weather and air quality from Open-Meteo
type Client struct {
	weatherAPI    *upstream.Client
	airQualityAPI *upstream.Client
	forecastURL   string
	airQualityURL string
	forecastDays  int
	log           *zap.SugaredLogger
}

// NewClient creates a new Open-Meteo client. Weather and air quality get
// separate breakers because they are served by different hosts.
func NewClient(cfg Config) *Client {
	forecastURL := cfg.ForecastURL
	if forecastURL == "" {
		forecastURL = defaultForecastURL
	}
	airQualityURL := cfg.AirQualityURL
	if airQualityURL == "" {
		airQualityURL = defaultAirQualityURL
	}
	days := cfg.ForecastDays
	if days <= 0 {
		days = 1
	}

	weatherCfg := cfg.Upstream
	weatherCfg.Name = "openmeteo_weather"
	aqCfg := cfg.Upstream
	aqCfg.Name = "openmeteo_air_quality"

	return &Client{
		weatherAPI:    upstream.New(weatherCfg),
		airQualityAPI: upstream.New(aqCfg),
		forecastURL:   forecastURL,
		airQualityURL: airQualityURL,
		forecastDays:  days,
		log:           logger.Named("openmeteo"),
	}
}

func (c *Client) params(point domain.Coordinates) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(point.Lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(point.Lon, 'f', -1, 64))
	params.Set("forecast_days", strconv.Itoa(c.forecastDays))
	params.Set("timezone", "GMT")
	return params
}

// Weather returns current conditions and the hourly forecast for point
func (c *Client) Weather(ctx context.Context, point domain.Coordinates) (*domain.WeatherReport, error) {
	params := c.params(point)
	params.Set("current", weatherCurrent)
	params.Set("hourly", weatherHourly)
	params.Set("wind_speed_unit", "kmh")

	c.log.Debugw("weather", "lat", point.Lat, "lon", point.Lon)
	body, err := c.weatherAPI.Get(ctx, c.forecastURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode forecast: %v", domain.ErrUpstreamFailure, err)
	}
	return MapWeather(resp), nil
}

// AirQuality returns current air quality and the hourly series for point
func (c *Client) AirQuality(ctx context.Context, point domain.Coordinates) (*domain.AirQualityReport, error) {
	params := c.params(point)
	params.Set("current", airQualityVars)
	params.Set("hourly", airQualityVars)

	c.log.Debugw("air quality", "lat", point.Lat, "lon", point.Lon)
	body, err := c.airQualityAPI.Get(ctx, c.airQualityURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp airQualityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode air quality: %v", domain.ErrUpstreamFailure, err)
	}
	return MapAirQuality(resp), nil
}
