// Package config loads collector configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pribilofwx/forecastd/internal/forecast"
	"github.com/pribilofwx/forecastd/internal/forecast/marine"
	"github.com/pribilofwx/forecastd/internal/forecast/nws"
)

// Config holds the collector's runtime configuration.
type Config struct {
	// Locations selected from the built-in registry.
	Locations []forecast.Location

	// UpdateInterval between collection cycle starts.
	UpdateInterval time.Duration

	// DataDir is where forecast and status files are written.
	DataDir string

	// Timezone used for rendered report timestamps.
	Timezone *time.Location

	// FetchTimeout bounds a single location fetch.
	FetchTimeout time.Duration

	// OpsPort is the ops HTTP listen port.
	OpsPort string

	// Upstream endpoints, overridable for testing.
	NWSBaseURL       string
	MarineProductURL string
}

// Load reads configuration from the environment with defaults. A .env
// file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:          getenvDefault("DATA_DIR", "/data"),
		OpsPort:          getenvDefault("OPS_PORT", "8080"),
		NWSBaseURL:       getenvDefault("NWS_BASE_URL", nws.DefaultBaseURL),
		MarineProductURL: getenvDefault("MARINE_PRODUCT_URL", marine.DefaultProductURL),
	}

	codes := strings.Split(getenvDefault("LOCATION_CODES", "99660,99591,PKZ766"), ",")
	for i, c := range codes {
		codes[i] = strings.TrimSpace(c)
	}
	locations, err := forecast.LookupLocations(codes)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCATION_CODES: %w", err)
	}
	cfg.Locations = locations

	intervalStr := getenvDefault("UPDATE_INTERVAL", "3600")
	seconds, err := strconv.Atoi(intervalStr)
	if err != nil || seconds <= 0 {
		return nil, fmt.Errorf("invalid UPDATE_INTERVAL %q: want positive seconds", intervalStr)
	}
	cfg.UpdateInterval = time.Duration(seconds) * time.Second

	timeoutStr := getenvDefault("FETCH_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT %q: %w", timeoutStr, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT %q: want positive duration", timeoutStr)
	}
	cfg.FetchTimeout = timeout

	tzName := getenvDefault("TZ_NAME", "UTC")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_NAME %q: %w", tzName, err)
	}
	cfg.Timezone = tz

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
