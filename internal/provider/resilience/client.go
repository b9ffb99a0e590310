// Package resilience wraps outbound HTTP calls to upstream NOAA/NWS
// endpoints with retry, exponential backoff, and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned without attempting a request while the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies the upstream for breaker naming and logs.
	Name string

	// UserAgent is sent on every request. The NWS API rejects requests
	// without one.
	UserAgent string

	// Timeout bounds each individual HTTP attempt. Default: 15 seconds.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the first try.
	// Default: 2.
	MaxRetries uint64

	// InitialInterval is the first retry delay. Default: 250ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry delay. Default: 5 seconds.
	MaxInterval time.Duration

	// Logger receives breaker state transitions.
	Logger zerolog.Logger
}

// Client is an HTTP client that retries transient upstream failures and
// stops calling an upstream that keeps failing.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	userAgent  string
	cfg        ClientConfig
}

// NewClient creates a resilient client for one upstream.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 250 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	log := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 4 && counts.TotalFailures*2 >= counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("upstream", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		userAgent:  cfg.UserAgent,
		cfg:        cfg,
	}
}

// retryableStatus reports whether a response status is worth retrying.
// Rate limiting and server errors are transient; everything else is not.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// upstreamError marks a response status that counts against the breaker.
type upstreamError struct {
	statusCode int
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream status %d", e.statusCode)
}

// Do executes the request, retrying transient failures with exponential
// backoff. The caller owns the response body. Retries respect the request
// context; an open breaker fails fast with ErrCircuitOpen.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var final *http.Response

	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			attempt := cloneRequest(ctx, req, c.userAgent)

			r, doErr := c.httpClient.Do(attempt)
			if doErr != nil {
				return nil, doErr
			}
			if retryableStatus(r.StatusCode) {
				r.Body.Close()
				return nil, &upstreamError{statusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			return err
		}

		final = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%s: %w", c.cfg.Name, err)
	}
	return final, nil
}

func cloneRequest(ctx context.Context, req *http.Request, userAgent string) *http.Request {
	attempt := req.Clone(ctx)
	if userAgent != "" && attempt.Header.Get("User-Agent") == "" {
		attempt.Header.Set("User-Agent", userAgent)
	}
	return attempt
}

// State returns the current breaker state, exposed for ops diagnostics.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
