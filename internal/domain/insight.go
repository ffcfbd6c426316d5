package domain

// Insight categories
const (
	InsightHeat       = "heat"
	InsightCold       = "cold"
	InsightAirQuality = "air_quality"
	InsightHumidity   = "humidity"
	InsightWind       = "wind"
	InsightTraffic    = "traffic"
	InsightGeneral    = "general"
)

// Insight sources
const (
	InsightSourceLLM      = "llm"
	InsightSourceFallback = "fallback"
)

// Insight is a single actionable suggestion shown to the user
type Insight struct {
	Icon       string `json:"icon"`
	Title      string `json:"title"`
	Suggestion string `json:"suggestion"`
	Color      string `json:"color"`
	Category   string `json:"category,omitempty"`
}

// InsightMetrics are the structured values an insight prompt is built from
type InsightMetrics struct {
	Location    string   `json:"location,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	AQI         *float64 `json:"aqi,omitempty"`
	WindSpeed   *float64 `json:"windSpeed,omitempty"`
	Congestion  *float64 `json:"congestion,omitempty"`
	Incidents   *int     `json:"incidents,omitempty"`
}

// InsightRequest asks for insights. Metrics take precedence over Prompt for
// the rule-based fallback; Prompt alone is parsed for known phrases.
type InsightRequest struct {
	Prompt  string          `json:"prompt"`
	Metrics *InsightMetrics `json:"metrics,omitempty"`
}

// InsightResult is the outcome of an insight request
type InsightResult struct {
	Source   string    `json:"source"`
	Insights []Insight `json:"insights"`
}
