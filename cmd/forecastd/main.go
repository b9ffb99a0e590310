// Package main provides the entrypoint for the forecast collector daemon.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pribilofwx/forecastd/internal/api"
	"github.com/pribilofwx/forecastd/internal/config"
	"github.com/pribilofwx/forecastd/internal/forecast"
	"github.com/pribilofwx/forecastd/internal/forecast/marine"
	"github.com/pribilofwx/forecastd/internal/forecast/nws"
	"github.com/pribilofwx/forecastd/internal/health"
	"github.com/pribilofwx/forecastd/internal/provider/resilience"
	"github.com/pribilofwx/forecastd/internal/scheduler"
	"github.com/pribilofwx/forecastd/internal/storage"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "forecastd"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting forecast collector")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	codes := make([]string, len(cfg.Locations))
	for i, loc := range cfg.Locations {
		codes[i] = loc.Code
	}
	log.Info().
		Strs("locations", codes).
		Dur("interval", cfg.UpdateInterval).
		Str("data_dir", cfg.DataDir).
		Msg("configuration loaded")

	// Upstream clients behind retry and circuit breaking
	nwsHTTP := resilience.NewClient(resilience.ClientConfig{
		Name:      nws.ProviderName,
		UserAgent: nws.DefaultUserAgent,
		Timeout:   cfg.FetchTimeout,
		Logger:    log,
	})
	marineHTTP := resilience.NewClient(resilience.ClientConfig{
		Name:      marine.ProviderName,
		UserAgent: nws.DefaultUserAgent,
		Timeout:   cfg.FetchTimeout,
		Logger:    log,
	})

	pointClient := nws.NewClient(nws.ClientConfig{
		BaseURL:    cfg.NWSBaseURL,
		HTTPClient: nwsHTTP,
		Logger:     log,
	})
	marineClient := marine.NewClient(marine.ClientConfig{
		ProductURL: cfg.MarineProductURL,
		HTTPClient: marineHTTP,
		Logger:     log,
	})

	service, err := forecast.NewService(forecast.ServiceConfig{
		Locations:    cfg.Locations,
		Points:       pointClient,
		Marine:       marineClient,
		Logger:       log,
		FetchTimeout: cfg.FetchTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize forecast service")
	}

	writer := storage.NewWriter(storage.WriterConfig{
		Dir:      cfg.DataDir,
		Timezone: cfg.Timezone,
		Logger:   log,
	})

	reporter := health.NewReporter(health.ReporterConfig{
		Dir:      cfg.DataDir,
		Timezone: cfg.Timezone,
		Logger:   log,
	})

	// One collection cycle: fetch all locations, persist, record health.
	// A failed persist still records health so the report shows the
	// outcome of the cycle that could not be written.
	cycle := func(ctx context.Context) error {
		result := service.Collect(ctx)
		writeErr := writer.Write(result)
		snap := reporter.Record(result)
		log.Info().
			Str("cycle_id", result.CycleID).
			Int("ok", snap.SuccessCount).
			Int("failed", snap.FailureCount).
			Msg("cycle recorded")
		return writeErr
	}

	sched := scheduler.New(scheduler.Config{
		Interval: cfg.UpdateInterval,
		Timezone: cfg.Timezone,
		Logger:   log,
	}, cycle)

	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	// Ops HTTP surface
	router := api.NewRouter(api.RouterConfig{
		Version:   Version,
		BuildTime: BuildTime,
		DataDir:   cfg.DataDir,
		Logger:    log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.OpsPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("ops server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ops server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
	}

	log.Info().Msg("collector stopped")
}
