package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/telemetry"
)

// Phrases recognised in free-text prompts when no typed metrics are sent
var (
	temperaturePhrase = regexp.MustCompile(`(?i)temperature:\s*(-?\d+(?:\.\d+)?)`)
	aqiPhrase         = regexp.MustCompile(`(?i)aqi:\s*(\d+(?:\.\d+)?)`)
	humidityPhrase    = regexp.MustCompile(`(?i)humidity:\s*(\d+(?:\.\d+)?)`)
	windPhrase        = regexp.MustCompile(`(?i)wind(?: speed)?:\s*(\d+(?:\.\d+)?)`)
)

// Fallback thresholds
const (
	heatThreshold       = 35.0
	coldThreshold       = 5.0
	poorAirThreshold    = 150.0
	sensitiveAirAQI     = 100.0
	humidThreshold      = 80.0
	dryThreshold        = 25.0
	windThreshold       = 40.0
	congestionThreshold = 0.5
)

// InsightService produces insights from the LLM with a rule-based fallback
type InsightService struct {
	generator domain.InsightGenerator
	log       *zap.SugaredLogger
}

// NewInsightService creates a new insight service. generator may be nil.
func NewInsightService(generator domain.InsightGenerator) *InsightService {
	return &InsightService{
		generator: generator,
		log:       logger.Named("insight"),
	}
}

// Generate returns LLM insights, or rule-based ones when the model is
// unavailable or answers with something unusable. Only an empty request fails.
func (s *InsightService) Generate(ctx context.Context, req domain.InsightRequest) (*domain.InsightResult, error) {
	if strings.TrimSpace(req.Prompt) == "" && req.Metrics == nil {
		return nil, fmt.Errorf("%w: prompt or metrics required", domain.ErrInvalidRequest)
	}

	prompt := req.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = BuildInsightPrompt(*req.Metrics)
	}

	reason := "no_generator"
	if s.generator != nil {
		insights, err := s.generator.GenerateInsights(ctx, prompt)
		if err == nil && len(insights) > 0 {
			return &domain.InsightResult{Source: domain.InsightSourceLLM, Insights: insights}, nil
		}
		reason = fallbackReason(err)
		if reason != "missing_key" {
			s.log.Warnw("insight generation failed, using fallback", "reason", reason, "error", err)
		}
	}
	telemetry.InsightFallbacks.WithLabelValues(reason).Inc()

	metrics := req.Metrics
	if metrics == nil {
		metrics = ExtractMetrics(req.Prompt)
	}
	return &domain.InsightResult{
		Source:   domain.InsightSourceFallback,
		Insights: FallbackInsights(*metrics),
	}, nil
}

func fallbackReason(err error) string {
	switch {
	case err == nil:
		return "empty"
	case errors.Is(err, domain.ErrMissingAPIKey):
		return "missing_key"
	case errors.Is(err, domain.ErrUnparsableInsight):
		return "unparsable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "upstream"
	}
}

// ExtractMetrics reads "Temperature: ", "AQI: ", "Humidity: " and "Wind: "
// phrases from a free-text prompt
func ExtractMetrics(prompt string) *domain.InsightMetrics {
	return &domain.InsightMetrics{
		Temperature: matchFloat(temperaturePhrase, prompt),
		AQI:         matchFloat(aqiPhrase, prompt),
		Humidity:    matchFloat(humidityPhrase, prompt),
		WindSpeed:   matchFloat(windPhrase, prompt),
	}
}

func matchFloat(re *regexp.Regexp, s string) *float64 {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// BuildInsightPrompt renders metrics into the model prompt. Values use the
// same "Name: value" phrases ExtractMetrics understands.
func BuildInsightPrompt(m domain.InsightMetrics) string {
	var b strings.Builder
	location := m.Location
	if location == "" {
		location = "the user's area"
	}
	fmt.Fprintf(&b, "You are a city conditions assistant. Current conditions for %s:\n", location)
	if m.Temperature != nil {
		fmt.Fprintf(&b, "Temperature: %.1f°C\n", *m.Temperature)
	}
	if m.Humidity != nil {
		fmt.Fprintf(&b, "Humidity: %.0f%%\n", *m.Humidity)
	}
	if m.AQI != nil {
		fmt.Fprintf(&b, "AQI: %.0f (%s)\n", *m.AQI, domain.AQICategory(m.AQI))
	}
	if m.WindSpeed != nil {
		fmt.Fprintf(&b, "Wind: %.1f km/h\n", *m.WindSpeed)
	}
	if m.Congestion != nil {
		fmt.Fprintf(&b, "Traffic congestion: %.0f%%\n", *m.Congestion*100)
	}
	if m.Incidents != nil {
		fmt.Fprintf(&b, "Active traffic incidents: %d\n", *m.Incidents)
	}
	b.WriteString("\nReturn 3 to 5 short, actionable insights as a JSON array. Each element must be an object with ")
	b.WriteString(`"icon" (one emoji), "title", "suggestion", "color" (red, orange, yellow, green, blue or purple) and `)
	b.WriteString(`"category" (heat, cold, air_quality, humidity, wind, traffic or general). Respond with the JSON array only.`)
	return b.String()
}

// FallbackInsights applies the deterministic rule table to m. It always
// returns at least one insight.
func FallbackInsights(m domain.InsightMetrics) []domain.Insight {
	var out []domain.Insight

	if t := m.Temperature; t != nil {
		switch {
		case *t >= heatThreshold:
			out = append(out, domain.Insight{
				Icon: "🔥", Title: "Extreme heat", Color: "red", Category: domain.InsightHeat,
				Suggestion: fmt.Sprintf("It is %.0f°C. Stay hydrated and avoid outdoor activity in the afternoon.", *t),
			})
		case *t <= coldThreshold:
			out = append(out, domain.Insight{
				Icon: "🥶", Title: "Cold conditions", Color: "blue", Category: domain.InsightCold,
				Suggestion: fmt.Sprintf("It is %.0f°C. Dress in layers and watch for slippery surfaces.", *t),
			})
		}
	}

	if a := m.AQI; a != nil {
		switch {
		case *a > poorAirThreshold:
			out = append(out, domain.Insight{
				Icon: "😷", Title: "Poor air quality", Color: "purple", Category: domain.InsightAirQuality,
				Suggestion: fmt.Sprintf("AQI is %.0f. Limit outdoor exertion and wear a mask outside.", *a),
			})
		case *a > sensitiveAirAQI:
			out = append(out, domain.Insight{
				Icon: "🌫️", Title: "Unhealthy for sensitive groups", Color: "orange", Category: domain.InsightAirQuality,
				Suggestion: fmt.Sprintf("AQI is %.0f. People with asthma or heart conditions should reduce time outdoors.", *a),
			})
		}
	}

	if h := m.Humidity; h != nil {
		switch {
		case *h >= humidThreshold:
			out = append(out, domain.Insight{
				Icon: "💧", Title: "High humidity", Color: "blue", Category: domain.InsightHumidity,
				Suggestion: "It will feel warmer than it is. Wear breathable clothing.",
			})
		case *h <= dryThreshold:
			out = append(out, domain.Insight{
				Icon: "🌵", Title: "Dry air", Color: "yellow", Category: domain.InsightHumidity,
				Suggestion: "Drink water regularly and protect your skin.",
			})
		}
	}

	if w := m.WindSpeed; w != nil && *w >= windThreshold {
		out = append(out, domain.Insight{
			Icon: "💨", Title: "Strong winds", Color: "yellow", Category: domain.InsightWind,
			Suggestion: fmt.Sprintf("Winds around %.0f km/h. Secure loose objects and take care on two-wheelers.", *w),
		})
	}

	if c := m.Congestion; c != nil && *c >= congestionThreshold {
		out = append(out, domain.Insight{
			Icon: "🚦", Title: "Heavy traffic", Color: "orange", Category: domain.InsightTraffic,
			Suggestion: "Expect delays nearby. Leave earlier or consider public transport.",
		})
	}

	if len(out) == 0 {
		out = append(out, domain.Insight{
			Icon: "✅", Title: "Conditions look good", Color: "green", Category: domain.InsightGeneral,
			Suggestion: "Nothing unusual right now. A good time to head out.",
		})
	}
	return out
}
