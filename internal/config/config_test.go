package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pribilofwx/forecastd/internal/config"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	// Run from a temp dir so a developer .env file cannot leak in.
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Len(t, cfg.Locations, 3)
	assert.Equal(t, "99660", cfg.Locations[0].Code)
	assert.Equal(t, "PKZ766", cfg.Locations[2].Code)
	assert.Equal(t, time.Hour, cfg.UpdateInterval)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, time.UTC, cfg.Timezone)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "8080", cfg.OpsPort)
	assert.Equal(t, "https://api.weather.gov", cfg.NWSBaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOCATION_CODES", "99591, PKZ766")
	t.Setenv("UPDATE_INTERVAL", "600")
	t.Setenv("DATA_DIR", "/var/lib/forecasts")
	t.Setenv("FETCH_TIMEOUT", "10s")
	t.Setenv("TZ_NAME", "America/Anchorage")
	t.Setenv("NWS_BASE_URL", "http://127.0.0.1:9999")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Len(t, cfg.Locations, 2)
	assert.Equal(t, "99591", cfg.Locations[0].Code)
	assert.Equal(t, 10*time.Minute, cfg.UpdateInterval)
	assert.Equal(t, "/var/lib/forecasts", cfg.DataDir)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "America/Anchorage", cfg.Timezone.String())
	assert.Equal(t, "http://127.0.0.1:9999", cfg.NWSBaseURL)
}

func TestLoad_UnknownLocationCode(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOCATION_CODES", "99660,12345")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCATION_CODES")
}

func TestLoad_BadInterval(t *testing.T) {
	chdir(t, t.TempDir())

	for _, bad := range []string{"abc", "0", "-60"} {
		t.Setenv("UPDATE_INTERVAL", bad)
		_, err := config.Load()
		assert.Error(t, err, "interval %q", bad)
	}
}

func TestLoad_BadTimeout(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_BadTimezone(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TZ_NAME", "Nowhere/Invalid")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TZ_NAME")
}
