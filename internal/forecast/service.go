package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PointFetcher retrieves structured forecast periods for a point location.
type PointFetcher interface {
	Fetch(ctx context.Context, loc Location) ([]ForecastPeriod, error)
	Name() string
}

// ZoneFetcher retrieves and parses the text bulletin for a marine zone.
type ZoneFetcher interface {
	FetchAndParse(ctx context.Context, zone string) ([]ForecastPeriod, error)
	Name() string
}

// ServiceConfig holds configuration for the collection service.
type ServiceConfig struct {
	// Locations to collect, in output order.
	Locations []Location

	// Points fetches structured forecasts for KindPoint locations.
	Points PointFetcher

	// Marine fetches bulletin forecasts for KindMarineZone locations.
	Marine ZoneFetcher

	// Logger for service operations.
	Logger zerolog.Logger

	// Concurrency is the number of locations fetched in parallel.
	// Default: 3.
	Concurrency int

	// FetchTimeout bounds each location's fetch. Default: 30 seconds.
	FetchTimeout time.Duration
}

// Service runs one collection cycle: fetch every configured location,
// normalize the outcomes, and assemble a CollectionResult.
type Service struct {
	locations    []Location
	points       PointFetcher
	marine       ZoneFetcher
	logger       zerolog.Logger
	concurrency  int
	fetchTimeout time.Duration
}

// NewService creates a collection service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if len(cfg.Locations) == 0 {
		return nil, ErrNoLocations
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	if concurrency > len(cfg.Locations) {
		concurrency = len(cfg.Locations)
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 30 * time.Second
	}

	return &Service{
		locations:    cfg.Locations,
		points:       cfg.Points,
		marine:       cfg.Marine,
		logger:       cfg.Logger,
		concurrency:  concurrency,
		fetchTimeout: fetchTimeout,
	}, nil
}

// Locations returns the configured locations in output order.
func (s *Service) Locations() []Location {
	out := make([]Location, len(s.locations))
	copy(out, s.locations)
	return out
}

// Collect runs one cycle. The result always holds exactly one forecast per
// configured location, in registry order: locations are fetched
// concurrently but results are placed by index, so concurrency never
// reorders output. A failed location yields an error record, never a gap.
func (s *Service) Collect(ctx context.Context) CollectionResult {
	result := CollectionResult{
		CycleID:        "cyc_" + uuid.New().String()[:8],
		CycleTimestamp: time.Now().UTC(),
		Forecasts:      make([]LocationForecast, len(s.locations)),
	}

	logger := s.logger.With().Str("cycle_id", result.CycleID).Logger()
	logger.Info().
		Int("locations", len(s.locations)).
		Int("concurrency", s.concurrency).
		Msg("starting collection cycle")

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result.Forecasts[i] = s.collectOne(ctx, logger, s.locations[i])
			}
		}()
	}

	for i := range s.locations {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	logger.Info().
		Int("ok", result.SuccessCount()).
		Int("failed", result.FailureCount()).
		Msg("collection cycle finished")

	return result
}

// collectOne fetches and normalizes a single location. Fetch and parse
// failures, including panics, are converted into an error record so one
// location can never abort the cycle for the others.
func (s *Service) collectOne(ctx context.Context, logger zerolog.Logger, loc Location) (lf LocationForecast) {
	source := SourceAPI
	if loc.Kind == KindMarineZone {
		source = SourceTextProduct
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("location", loc.Code).
				Interface("panic", r).
				Msg("recovered panic while collecting location")
			lf = s.normalize(loc, source, nil, fmt.Errorf("panic: %v", r))
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	var (
		periods []ForecastPeriod
		err     error
	)
	switch loc.Kind {
	case KindMarineZone:
		periods, err = s.marine.FetchAndParse(fetchCtx, loc.Zone)
	default:
		periods, err = s.points.Fetch(fetchCtx, loc)
	}

	if err != nil {
		logger.Warn().
			Str("location", loc.Code).
			Str("source", string(source)).
			Err(err).
			Msg("fetch failed")
	}

	return s.normalize(loc, source, periods, err)
}

// normalize maps a fetch outcome into exactly one LocationForecast. On
// failure the record carries the reason and empty periods rather than
// being dropped from the combined output.
func (s *Service) normalize(loc Location, source Source, periods []ForecastPeriod, err error) LocationForecast {
	lf := LocationForecast{
		Location:    loc,
		CollectedAt: time.Now().UTC(),
		Source:      source,
	}
	if err != nil {
		lf.FetchError = err.Error()
		return lf
	}
	lf.Periods = periods
	return lf
}
