// Package marine fetches the NOAA coastal waters text product and parses
// a zone's section into discrete forecast periods. The upstream bulletin
// is a single free-text document covering several marine zones with no
// machine-readable structure.
package marine

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pribilofwx/forecastd/internal/forecast"
	"github.com/pribilofwx/forecastd/internal/provider/resilience"
)

const (
	// ProviderName identifies this fetcher in logs and normalized records.
	ProviderName = "marine"

	// DefaultProductURL is the Bering Sea coastal waters forecast product
	// covering the Pribilof Islands zones.
	DefaultProductURL = "https://tgftp.nws.noaa.gov/data/raw/fz/fzak52.pafc.cwf.alu.txt"

	// maxBulletinBytes bounds how much of the product is read; the full
	// document is a few tens of kilobytes.
	maxBulletinBytes = 1 << 20
)

// ClientConfig holds configuration for the marine bulletin client.
type ClientConfig struct {
	// ProductURL overrides the bulletin URL (tests).
	ProductURL string

	// HTTPClient is the resilient client to use. If nil, a default one
	// is created.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client retrieves and parses the coastal waters bulletin.
type Client struct {
	productURL string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new marine bulletin client.
func NewClient(cfg ClientConfig) *Client {
	productURL := cfg.ProductURL
	if productURL == "" {
		productURL = DefaultProductURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:   ProviderName,
			Logger: cfg.Logger,
		})
	}

	return &Client{
		productURL: productURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the fetcher name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchAndParse retrieves the full bulletin and extracts the forecast
// periods for the given zone code.
func (c *Client) FetchAndParse(ctx context.Context, zone string) ([]forecast.ForecastPeriod, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.productURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching bulletin: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBulletinBytes))
	if err != nil {
		return nil, fmt.Errorf("reading bulletin: %w", err)
	}

	periods, err := ParseZone(string(raw), zone)
	if err != nil {
		return nil, fmt.Errorf("parsing zone %s: %w", zone, err)
	}

	c.logger.Debug().
		Str("zone", zone).
		Int("periods", len(periods)).
		Msg("parsed marine bulletin section")

	return periods, nil
}
