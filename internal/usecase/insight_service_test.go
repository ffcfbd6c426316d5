package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

func categories(insights []domain.Insight) map[string]bool {
	out := map[string]bool{}
	for _, in := range insights {
		out[in.Category] = true
	}
	return out
}

func TestGenerateInsights(t *testing.T) {
	ctx := context.Background()

	t.Run("uses llm answer when available", func(t *testing.T) {
		gen := &MockInsightGenerator{insights: []domain.Insight{{Title: "From model"}}}
		svc := NewInsightService(gen)

		res, err := svc.Generate(ctx, domain.InsightRequest{Prompt: "anything"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Source != domain.InsightSourceLLM {
			t.Errorf("Source = %q, want llm", res.Source)
		}
		if gen.lastPrompt != "anything" {
			t.Errorf("prompt = %q, want caller prompt", gen.lastPrompt)
		}
	})

	t.Run("free-text prompt without key falls back to heat and air quality", func(t *testing.T) {
		gen := &MockInsightGenerator{err: domain.ErrMissingAPIKey}
		svc := NewInsightService(gen)

		res, err := svc.Generate(ctx, domain.InsightRequest{Prompt: "Location: Delhi. Temperature: 35°C, Humidity: 40%, AQI: 160"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Source != domain.InsightSourceFallback {
			t.Errorf("Source = %q, want fallback", res.Source)
		}
		got := categories(res.Insights)
		if !got[domain.InsightHeat] || !got[domain.InsightAirQuality] {
			t.Errorf("categories = %v, want heat and air_quality", got)
		}
		if got[domain.InsightHumidity] {
			t.Error("humidity 40 should not trigger a humidity insight")
		}
	})

	t.Run("typed metrics take precedence over prompt phrases", func(t *testing.T) {
		svc := NewInsightService(&MockInsightGenerator{err: domain.ErrUnparsableInsight})

		res, err := svc.Generate(ctx, domain.InsightRequest{
			Prompt:  "Temperature: 40",
			Metrics: &domain.InsightMetrics{Temperature: floatPtr(2)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := categories(res.Insights)
		if !got[domain.InsightCold] || got[domain.InsightHeat] {
			t.Errorf("categories = %v, want cold only", got)
		}
	})

	t.Run("metrics only builds a prompt", func(t *testing.T) {
		gen := &MockInsightGenerator{insights: []domain.Insight{{Title: "x"}}}
		svc := NewInsightService(gen)

		_, err := svc.Generate(ctx, domain.InsightRequest{Metrics: &domain.InsightMetrics{
			Location: "Mumbai", Temperature: floatPtr(31.4), AQI: floatPtr(162),
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Mumbai", "Temperature: 31.4", "AQI: 162", "JSON array"} {
			if !strings.Contains(gen.lastPrompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, gen.lastPrompt)
			}
		}
	})

	t.Run("upstream failure and empty answer fall back", func(t *testing.T) {
		for _, gen := range []*MockInsightGenerator{
			{err: &domain.UpstreamError{Provider: "gemini", StatusCode: 500}},
			{insights: nil},
		} {
			res, err := NewInsightService(gen).Generate(ctx, domain.InsightRequest{Prompt: "hello"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Source != domain.InsightSourceFallback || len(res.Insights) != 1 {
				t.Errorf("result = %+v, want one general fallback insight", res)
			}
		}
	})

	t.Run("nil generator falls back", func(t *testing.T) {
		res, err := NewInsightService(nil).Generate(ctx, domain.InsightRequest{Prompt: "AQI: 120"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Insights[0].Title != "Unhealthy for sensitive groups" {
			t.Errorf("title = %q", res.Insights[0].Title)
		}
	})

	t.Run("empty request is invalid", func(t *testing.T) {
		_, err := NewInsightService(nil).Generate(ctx, domain.InsightRequest{Prompt: "   "})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})
}

func TestExtractMetrics(t *testing.T) {
	m := ExtractMetrics("temperature: -3.5 and aqi:42, HUMIDITY: 91 wind speed: 44")

	if m.Temperature == nil || *m.Temperature != -3.5 {
		t.Errorf("Temperature = %v", m.Temperature)
	}
	if m.AQI == nil || *m.AQI != 42 {
		t.Errorf("AQI = %v", m.AQI)
	}
	if m.Humidity == nil || *m.Humidity != 91 {
		t.Errorf("Humidity = %v", m.Humidity)
	}
	if m.WindSpeed == nil || *m.WindSpeed != 44 {
		t.Errorf("WindSpeed = %v", m.WindSpeed)
	}

	empty := ExtractMetrics("nothing to see")
	if empty.Temperature != nil || empty.AQI != nil || empty.Humidity != nil || empty.WindSpeed != nil {
		t.Errorf("expected no metrics, got %+v", empty)
	}
}

func TestFallbackInsights(t *testing.T) {
	tests := []struct {
		name     string
		metrics  domain.InsightMetrics
		expected []string
	}{
		{"heat boundary", domain.InsightMetrics{Temperature: floatPtr(35)}, []string{domain.InsightHeat}},
		{"just below heat", domain.InsightMetrics{Temperature: floatPtr(34.9)}, []string{domain.InsightGeneral}},
		{"cold", domain.InsightMetrics{Temperature: floatPtr(5)}, []string{domain.InsightCold}},
		{"poor air", domain.InsightMetrics{AQI: floatPtr(151)}, []string{domain.InsightAirQuality}},
		{"aqi 150 is sensitive", domain.InsightMetrics{AQI: floatPtr(150)}, []string{domain.InsightAirQuality}},
		{"aqi 100 is fine", domain.InsightMetrics{AQI: floatPtr(100)}, []string{domain.InsightGeneral}},
		{"humid", domain.InsightMetrics{Humidity: floatPtr(80)}, []string{domain.InsightHumidity}},
		{"dry", domain.InsightMetrics{Humidity: floatPtr(25)}, []string{domain.InsightHumidity}},
		{"windy", domain.InsightMetrics{WindSpeed: floatPtr(40)}, []string{domain.InsightWind}},
		{"congested", domain.InsightMetrics{Congestion: floatPtr(0.5)}, []string{domain.InsightTraffic}},
		{"nothing known", domain.InsightMetrics{}, []string{domain.InsightGeneral}},
		{
			"combined",
			domain.InsightMetrics{Temperature: floatPtr(38), AQI: floatPtr(170), Humidity: floatPtr(85), WindSpeed: floatPtr(45), Congestion: floatPtr(0.7)},
			[]string{domain.InsightHeat, domain.InsightAirQuality, domain.InsightHumidity, domain.InsightWind, domain.InsightTraffic},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackInsights(tt.metrics)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d insights %v, want %v", len(got), got, tt.expected)
			}
			for i, cat := range tt.expected {
				if got[i].Category != cat {
					t.Errorf("insight %d category = %q, want %q", i, got[i].Category, cat)
				}
				if got[i].Title == "" || got[i].Suggestion == "" || got[i].Icon == "" || got[i].Color == "" {
					t.Errorf("insight %d is incomplete: %+v", i, got[i])
				}
			}
		})
	}
}
