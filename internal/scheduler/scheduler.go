// Package scheduler runs the collection cycle on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// CycleFunc is one full collection cycle. The context carries the cycle
// deadline; implementations should return rather than block past it.
type CycleFunc func(ctx context.Context) error

// Config holds configuration for the scheduler.
type Config struct {
	// Interval between cycle starts. Default: 1 hour.
	Interval time.Duration

	// CycleTimeout bounds a single cycle. Default: 10 minutes.
	CycleTimeout time.Duration

	// Timezone for the underlying scheduler. Default: UTC.
	Timezone *time.Location

	// Logger for scheduler events.
	Logger zerolog.Logger
}

// Scheduler drives a CycleFunc on a fixed interval. The first cycle runs
// immediately on Start; cycles never overlap.
type Scheduler struct {
	sch     *gocron.Scheduler
	run     CycleFunc
	timeout time.Duration
	logger  zerolog.Logger

	interval time.Duration
}

// New creates a scheduler for the given cycle function.
func New(cfg Config, run CycleFunc) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = 10 * time.Minute
	}
	tz := cfg.Timezone
	if tz == nil {
		tz = time.UTC
	}

	return &Scheduler{
		sch:      gocron.NewScheduler(tz),
		run:      run,
		timeout:  cfg.CycleTimeout,
		logger:   cfg.Logger,
		interval: cfg.Interval,
	}
}

// Start schedules the cycle and begins running. The first cycle fires
// immediately. Returns an error only if the job cannot be scheduled.
func (s *Scheduler) Start() error {
	_, err := s.sch.Every(s.interval).
		SingletonMode().
		StartImmediately().
		Do(s.cycle)
	if err != nil {
		return err
	}

	s.sch.StartAsync()
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("scheduler started")
	return nil
}

// Stop halts the scheduler. A cycle already in flight is allowed to
// finish; no further cycles are started.
func (s *Scheduler) Stop() {
	s.sch.Stop()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) cycle() {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().
				Interface("panic", rec).
				Msg("collection cycle panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.run(ctx); err != nil {
		s.logger.Error().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("collection cycle failed")
		return
	}
	s.logger.Info().
		Dur("elapsed", time.Since(start)).
		Msg("collection cycle complete")
}
