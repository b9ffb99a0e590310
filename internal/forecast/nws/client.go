// Package nws implements the structured forecast fetcher against the
// National Weather Service JSON API (api.weather.gov).
package nws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pribilofwx/forecastd/internal/forecast"
	"github.com/pribilofwx/forecastd/internal/provider/resilience"
)

const (
	// ProviderName identifies this fetcher in logs and normalized records.
	ProviderName = "nws"

	// DefaultBaseURL is the NWS API base URL.
	DefaultBaseURL = "https://api.weather.gov"

	// DefaultUserAgent identifies this collector to the NWS API, which
	// requires a User-Agent on every request.
	DefaultUserAgent = "forecastd/1.0 (weather forecast collector)"

	// maxPeriods caps how many forecast periods are kept per location.
	maxPeriods = 7
)

// NWS API shape errors.
var (
	ErrMissingForecastURL = errors.New("points response missing forecast URL")
	ErrNoPeriods          = errors.New("forecast response has no periods")
)

// ClientConfig holds configuration for the NWS client.
type ClientConfig struct {
	// BaseURL overrides the API base URL (tests).
	BaseURL string

	// HTTPClient is the resilient client to use. If nil, a default one
	// is created.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches structured forecasts from the NWS API.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new NWS API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:      ProviderName,
			UserAgent: DefaultUserAgent,
			Logger:    cfg.Logger,
		})
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the fetcher name.
func (c *Client) Name() string {
	return ProviderName
}

// Fetch resolves the location's coordinates to its gridpoint forecast URL
// and retrieves the forecast periods, already time-ordered upstream.
func (c *Client) Fetch(ctx context.Context, loc forecast.Location) ([]forecast.ForecastPeriod, error) {
	pointsURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, loc.Lat, loc.Lon)

	var points pointsResponse
	if err := c.getJSON(ctx, pointsURL, &points); err != nil {
		return nil, fmt.Errorf("resolving gridpoint: %w", err)
	}
	if points.Properties.Forecast == "" {
		return nil, ErrMissingForecastURL
	}

	var fc forecastResponse
	if err := c.getJSON(ctx, points.Properties.Forecast, &fc); err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	if len(fc.Properties.Periods) == 0 {
		return nil, ErrNoPeriods
	}

	periods := fc.Properties.Periods
	if len(periods) > maxPeriods {
		periods = periods[:maxPeriods]
	}

	c.logger.Debug().
		Str("location", loc.Code).
		Int("periods", len(periods)).
		Msg("fetched structured forecast")

	return toPeriods(periods), nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// toPeriods converts NWS wire periods to the domain model.
func toPeriods(in []wirePeriod) []forecast.ForecastPeriod {
	out := make([]forecast.ForecastPeriod, 0, len(in))
	for _, p := range in {
		isDay := p.IsDaytime
		temp := p.Temperature
		out = append(out, forecast.ForecastPeriod{
			Name:             p.Name,
			DetailedText:     p.DetailedForecast,
			IsDaytime:        &isDay,
			Temperature:      &temp,
			TemperatureUnit:  p.TemperatureUnit,
			ShortDescription: p.ShortForecast,
		})
	}
	return out
}

// NWS API response structures.

type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []wirePeriod `json:"periods"`
	} `json:"properties"`
}

type wirePeriod struct {
	Name             string `json:"name"`
	IsDaytime        bool   `json:"isDaytime"`
	Temperature      int    `json:"temperature"`
	TemperatureUnit  string `json:"temperatureUnit"`
	ShortForecast    string `json:"shortForecast"`
	DetailedForecast string `json:"detailedForecast"`
}
