package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv clears provider credentials so commands run unconfigured
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TOMTOM_API_KEY", "NEXT_PUBLIC_TOMTOM_API_KEY", "URBANPULSE_TOMTOM_API_KEY",
		"GEMINI_API_KEY", "NEXT_PUBLIC_GEMINI_API_KEY", "URBANPULSE_GEMINI_API_KEY",
		"FIREBASE_PROJECT_ID", "URBANPULSE_FIREBASE_PROJECT_ID",
		"URBANPULSE_AUTH_REQUIRED", "URBANPULSE_SERVER_ENVIRONMENT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("URBANPULSE_SERVER_ENVIRONMENT", "test")
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetArgs(nil)
	})
	require.NoError(t, RootCmd.Execute())
	return out.String()
}

func TestSearchShortQuery(t *testing.T) {
	isolateEnv(t)

	out := execute(t, "search", "a", "--no-storage")

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestDashboardDegradesWithoutProviders(t *testing.T) {
	isolateEnv(t)
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()
	t.Setenv("URBANPULSE_OPENMETEO_FORECAST_URL", failing.URL)
	t.Setenv("URBANPULSE_OPENMETEO_AIR_QUALITY_URL", failing.URL)

	out := execute(t, "dashboard", "--lat", "19.076", "--lon", "72.8777", "--no-storage")

	var view struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"location"`
		AirQuality struct {
			Category string `json:"category"`
		} `json:"airQuality"`
		Insights      []map[string]any `json:"insights"`
		InsightSource string           `json:"insightSource"`
		Degraded      []string         `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))

	assert.InDelta(t, 19.076, view.Location.Lat, 1e-9)
	assert.InDelta(t, 72.8777, view.Location.Lon, 1e-9)
	assert.Equal(t, "Unknown", view.AirQuality.Category)
	assert.Equal(t, "fallback", view.InsightSource)
	assert.NotEmpty(t, view.Insights)
	assert.ElementsMatch(t, []string{"weather", "airQuality", "traffic", "incidents"}, view.Degraded)
}

func TestRootVersion(t *testing.T) {
	isolateEnv(t)

	out := execute(t, "--version")
	assert.Contains(t, out, appVersion)
}
