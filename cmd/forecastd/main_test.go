package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pribilofwx/forecastd/internal/forecast"
	"github.com/pribilofwx/forecastd/internal/forecast/marine"
	"github.com/pribilofwx/forecastd/internal/forecast/nws"
	"github.com/pribilofwx/forecastd/internal/health"
	"github.com/pribilofwx/forecastd/internal/provider/resilience"
	"github.com/pribilofwx/forecastd/internal/storage"
)

const testBulletin = `FZAK52 PAFC 311145
CWFALU

COASTAL WATERS FORECAST
NATIONAL WEATHER SERVICE ANCHORAGE AK
345 AM AKDT SUN AUG 31 2025

PKZ766-010000-
PRIBILOF ISLANDS NEARSHORE WATERS-
345 AM AKDT SUN AUG 31 2025

.TODAY...SE WIND 15 KT. SEAS 4 FT. RAIN.
.TONIGHT...S WIND 20 KT. SEAS 6 FT.
$$
`

// newUpstreamServers starts fake NWS API and bulletin servers for a full
// collection cycle.
func newUpstreamServers(t *testing.T) (nwsURL, marineURL string) {
	t.Helper()

	mux := http.NewServeMux()
	apiSrv := httptest.NewServer(mux)
	t.Cleanup(apiSrv.Close)

	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"properties": map[string]any{
				"forecast": apiSrv.URL + "/forecast",
			},
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"properties": map[string]any{
				"periods": []map[string]any{
					{
						"name":             "Today",
						"isDaytime":        true,
						"temperature":      48,
						"temperatureUnit":  "F",
						"shortForecast":    "Rain",
						"detailedForecast": "Rain. High near 48.",
					},
					{
						"name":             "Tonight",
						"isDaytime":        false,
						"temperature":      42,
						"temperatureUnit":  "F",
						"shortForecast":    "Showers",
						"detailedForecast": "Showers likely. Low around 42.",
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(body)
	})

	marineSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testBulletin)
	}))
	t.Cleanup(marineSrv.Close)

	return apiSrv.URL, marineSrv.URL
}

func TestFullCollectionCycle(t *testing.T) {
	nwsURL, marineURL := newUpstreamServers(t)
	dir := t.TempDir()
	logger := zerolog.Nop()

	locations, err := forecast.LookupLocations([]string{"99660", "99591", "PKZ766"})
	require.NoError(t, err)

	pointClient := nws.NewClient(nws.ClientConfig{
		BaseURL: nwsURL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:      nws.ProviderName,
			UserAgent: nws.DefaultUserAgent,
			Timeout:   5 * time.Second,
			Logger:    logger,
		}),
		Logger: logger,
	})
	marineClient := marine.NewClient(marine.ClientConfig{
		ProductURL: marineURL + "/fzak52.txt",
		Logger:     logger,
	})

	service, err := forecast.NewService(forecast.ServiceConfig{
		Locations: locations,
		Points:    pointClient,
		Marine:    marineClient,
		Logger:    logger,
	})
	require.NoError(t, err)

	writer := storage.NewWriter(storage.WriterConfig{Dir: dir, Logger: logger})
	reporter := health.NewReporter(health.ReporterConfig{Dir: dir, Logger: logger})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result := service.Collect(ctx)
	require.NoError(t, writer.Write(result))
	snap := reporter.Record(result)

	assert.Equal(t, 3, snap.SuccessCount)
	assert.Equal(t, 0, snap.FailureCount)

	wantFiles := []string{
		storage.CombinedJSONName,
		storage.CombinedTextName,
		"st._paul_island_99660.json",
		"st._paul_island_99660.txt",
		"st._george_island_99591.json",
		"st._george_island_99591.txt",
		"pribilof_islands_nearshore_waters_PKZ766.json",
		"pribilof_islands_nearshore_waters_PKZ766.txt",
		"pribilof_island_waters.json",
		"pribilof_island_waters.txt",
		health.HealthFileName,
		health.ReportFileName,
	}
	for _, name := range wantFiles {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected output file %s", name)
	}

	// Combined document round-trips and carries every location.
	raw, err := os.ReadFile(filepath.Join(dir, storage.CombinedJSONName))
	require.NoError(t, err)
	var decoded forecast.CollectionResult
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Forecasts, 3)
	assert.Equal(t, 3, decoded.SuccessCount())

	// Marine forecast parsed from the bulletin, not the API.
	marineFC := decoded.Forecasts[2]
	assert.Equal(t, forecast.SourceTextProduct, marineFC.Source)
	require.Len(t, marineFC.Periods, 2)
	assert.Equal(t, "TODAY", marineFC.Periods[0].Name)
	assert.Nil(t, marineFC.Periods[0].Temperature)

	// Point forecasts came through the two-step API flow.
	pointFC := decoded.Forecasts[0]
	assert.Equal(t, forecast.SourceAPI, pointFC.Source)
	require.Len(t, pointFC.Periods, 2)
	require.NotNil(t, pointFC.Periods[0].Temperature)
	assert.Equal(t, 48, *pointFC.Periods[0].Temperature)

	// Report reflects a fully healthy fleet.
	report, err := os.ReadFile(filepath.Join(dir, health.ReportFileName))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(report), "Online: 3"))
}
