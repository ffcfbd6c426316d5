package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	TomTom    TomTomConfig
	OpenMeteo OpenMeteoConfig
	Gemini    GeminiConfig
	Upstream  UpstreamConfig
	Cache     CacheConfig
	Firebase  FirebaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
	Defaults  DefaultsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TomTomConfig holds TomTom API configuration
type TomTomConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	SearchRadius      int     `mapstructure:"search_radius"`
	SearchLimit       int     `mapstructure:"search_limit"`
}

// OpenMeteoConfig holds Open-Meteo endpoints
type OpenMeteoConfig struct {
	ForecastURL   string `mapstructure:"forecast_url"`
	AirQualityURL string `mapstructure:"air_quality_url"`
	ForecastDays  int    `mapstructure:"forecast_days"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// UpstreamConfig holds outbound HTTP and circuit breaker settings
type UpstreamConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerOpenFor  time.Duration `mapstructure:"breaker_open_for"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	GeocodeTTL    time.Duration `mapstructure:"geocode_ttl"`
	SearchTTL     time.Duration `mapstructure:"search_ttl"`
	MaxEntries    int           `mapstructure:"max_entries"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// FirebaseConfig holds Firebase Admin credentials
type FirebaseConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsPath string `mapstructure:"credentials_path"`
	CredentialsJSON string `mapstructure:"credentials_json"`
}

// AuthConfig controls authentication of write endpoints
type AuthConfig struct {
	// Required rejects unauthenticated writes even when Firebase is not configured
	Required bool `mapstructure:"required"`
}

// StorageConfig holds report store settings
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TelemetryConfig holds tracing settings
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

// DefaultsConfig holds the location used when a request has no coordinates
type DefaultsConfig struct {
	LocationName     string  `mapstructure:"location_name"`
	Lat              float64 `mapstructure:"lat"`
	Lon              float64 `mapstructure:"lon"`
	IncidentRadiusKm float64 `mapstructure:"incident_radius_km"`
}

// legacyEnv lists the unprefixed variable names accepted for compatibility,
// in priority order after the URBANPULSE_ form
var legacyEnv = map[string][]string{
	"tomtom.api_key":            {"TOMTOM_API_KEY", "NEXT_PUBLIC_TOMTOM_API_KEY"},
	"gemini.api_key":            {"GEMINI_API_KEY", "NEXT_PUBLIC_GEMINI_API_KEY"},
	"gemini.model":              {"GEMINI_MODEL"},
	"firebase.project_id":       {"FIREBASE_PROJECT_ID"},
	"firebase.credentials_path": {"FIREBASE_CREDENTIALS_PATH"},
	"firebase.credentials_json": {"FIREBASE_CREDENTIALS"},
	"telemetry.otlp_endpoint":   {"OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/urbanpulse/")

	// Environment variable settings
	v.SetEnvPrefix("URBANPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory without overriding set variables
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// bindLegacyEnv binds each key to its URBANPULSE_ variable first, then the legacy names
func bindLegacyEnv(v *viper.Viper) error {
	for key, names := range legacyEnv {
		prefixed := "URBANPULSE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, prefixed}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// TomTom defaults
	v.SetDefault("tomtom.base_url", "https://api.tomtom.com")
	v.SetDefault("tomtom.requests_per_second", 5)
	v.SetDefault("tomtom.burst", 10)
	v.SetDefault("tomtom.search_radius", 100)
	v.SetDefault("tomtom.search_limit", 5)

	// Open-Meteo defaults
	v.SetDefault("openmeteo.forecast_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("openmeteo.air_quality_url", "https://air-quality-api.open-meteo.com/v1/air-quality")
	v.SetDefault("openmeteo.forecast_days", 1)

	// Gemini defaults
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-1.5-flash")

	// Upstream defaults
	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("upstream.breaker_failures", 5)
	v.SetDefault("upstream.breaker_open_for", "1m")

	// Cache defaults
	v.SetDefault("cache.geocode_ttl", "1h")
	v.SetDefault("cache.search_ttl", "30m")
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.sweep_interval", "10m")

	// Auth and storage defaults
	v.SetDefault("auth.required", false)
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.path", "data/urbanpulse.db")
	v.SetDefault("telemetry.insecure", false)

	// Default location: Mumbai
	v.SetDefault("defaults.location_name", "Mumbai")
	v.SetDefault("defaults.lat", 19.076)
	v.SetDefault("defaults.lon", 72.8777)
	v.SetDefault("defaults.incident_radius_km", 5)
}

// FirebaseEnabled reports whether Firebase token verification can be set up
func (c *Config) FirebaseEnabled() bool {
	f := c.Firebase
	return f.ProjectID != "" || f.CredentialsPath != "" || f.CredentialsJSON != ""
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("server environment must be development, production or test, got: %s", config.Server.Environment)
	}

	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.Cache.GeocodeTTL <= 0 || config.Cache.SearchTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	if config.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache max entries cannot be negative, got: %d", config.Cache.MaxEntries)
	}

	if config.TomTom.RequestsPerSecond <= 0 {
		return fmt.Errorf("tomtom requests per second must be positive")
	}

	d := config.Defaults
	if d.Lat < -90 || d.Lat > 90 || d.Lon < -180 || d.Lon > 180 {
		return fmt.Errorf("default location out of range: %f,%f", d.Lat, d.Lon)
	}

	if config.Storage.Enabled && config.Storage.Path == "" {
		return fmt.Errorf("storage path is required when storage is enabled")
	}

	if config.Auth.Required && !config.FirebaseEnabled() {
		return fmt.Errorf("auth.required needs Firebase (set FIREBASE_PROJECT_ID or FIREBASE_CREDENTIALS_PATH)")
	}

	return nil
}
