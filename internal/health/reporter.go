// Package health tracks collection outcomes across cycles and maintains
// the collector's status files: a machine-readable health file with
// cumulative per-location statistics, and a human-readable report.
package health

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pribilofwx/forecastd/internal/forecast"
	"github.com/pribilofwx/forecastd/internal/storage"
)

// Status file names within the data directory.
const (
	HealthFileName = "forecast_health.json"
	ReportFileName = "forecast_report.txt"
)

// staleAfter is how long without a successful fetch before a location is
// reported stale rather than online.
const staleAfter = 2 * time.Hour

// Snapshot summarizes the most recent cycle. Overwritten every cycle,
// never appended.
type Snapshot struct {
	LastRun      time.Time         `json:"last_run"`
	SuccessCount int               `json:"last_success_count"`
	FailureCount int               `json:"last_failure_count"`
	PerLocation  map[string]string `json:"per_location_status"`
}

// Outage is one completed upstream outage for a location.
type Outage struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// locationStats accumulates fetch outcomes for one location across the
// collector's lifetime. Persisted in the health file so restarts keep
// outage history.
type locationStats struct {
	DisplayName        string     `json:"display_name"`
	FirstSeen          time.Time  `json:"first_seen"`
	TotalAttempts      int        `json:"total_attempts"`
	SuccessfulAttempts int        `json:"successful_attempts"`
	FailedAttempts     int        `json:"failed_attempts"`
	LastAttempt        time.Time  `json:"last_attempt"`
	LastSuccess        *time.Time `json:"last_success,omitempty"`
	LastFailure        *time.Time `json:"last_failure,omitempty"`
	LastError          string     `json:"last_error,omitempty"`
	CurrentOutageStart *time.Time `json:"current_outage_start,omitempty"`
	OutageHistory      []Outage   `json:"outage_history,omitempty"`
}

// healthData is the persisted shape of the health file.
type healthData struct {
	Locations   map[string]*locationStats `json:"locations"`
	LastUpdated time.Time                 `json:"last_updated"`
	LastCycle   *Snapshot                 `json:"last_cycle,omitempty"`
}

// ReporterConfig holds configuration for the health reporter.
type ReporterConfig struct {
	// Dir is the directory holding the health and report files.
	Dir string

	// Timezone used for rendered report timestamps. Default: UTC.
	Timezone *time.Location

	// Logger for reporter operations.
	Logger zerolog.Logger

	// now overrides the clock in tests.
	now func() time.Time
}

// Reporter records cycle outcomes and maintains the status files.
type Reporter struct {
	dir    string
	tz     *time.Location
	logger zerolog.Logger
	now    func() time.Time

	mu   sync.Mutex
	data healthData
}

// NewReporter creates a reporter, loading prior statistics from the
// health file if one exists. A missing or corrupt file starts fresh.
func NewReporter(cfg ReporterConfig) *Reporter {
	tz := cfg.Timezone
	if tz == nil {
		tz = time.UTC
	}
	now := cfg.now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	r := &Reporter{
		dir:    cfg.Dir,
		tz:     tz,
		logger: cfg.Logger,
		now:    now,
		data:   healthData{Locations: make(map[string]*locationStats)},
	}

	raw, err := os.ReadFile(filepath.Join(cfg.Dir, HealthFileName))
	if err == nil {
		var loaded healthData
		if jsonErr := json.Unmarshal(raw, &loaded); jsonErr == nil && loaded.Locations != nil {
			r.data = loaded
		} else {
			cfg.Logger.Warn().Err(jsonErr).Msg("discarding unreadable health file")
		}
	}

	return r
}

// Record folds one cycle's result into the cumulative statistics, builds
// the snapshot, and rewrites the health and report files. File write
// failures are logged, not propagated: health reporting is advisory and
// must never fail a cycle.
func (r *Reporter) Record(result forecast.CollectionResult) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	snap := Snapshot{
		LastRun:     result.CycleTimestamp,
		PerLocation: make(map[string]string, len(result.Forecasts)),
	}

	for _, lf := range result.Forecasts {
		if lf.OK() {
			snap.SuccessCount++
			snap.PerLocation[lf.Location.Code] = "ok"
		} else {
			snap.FailureCount++
			snap.PerLocation[lf.Location.Code] = "error: " + lf.FetchError
		}
		r.recordAttempt(lf, now)
	}

	r.data.LastUpdated = now
	r.data.LastCycle = &snap

	r.flush(snap)
	return snap
}

// recordAttempt updates one location's cumulative stats with this cycle's
// outcome, opening or closing an outage window as needed.
func (r *Reporter) recordAttempt(lf forecast.LocationForecast, now time.Time) {
	code := lf.Location.Code
	stats, ok := r.data.Locations[code]
	if !ok {
		stats = &locationStats{FirstSeen: now}
		r.data.Locations[code] = stats
	}
	stats.DisplayName = lf.Location.DisplayName
	stats.TotalAttempts++
	stats.LastAttempt = now

	if lf.OK() {
		stats.SuccessfulAttempts++
		ts := now
		stats.LastSuccess = &ts

		if stats.CurrentOutageStart != nil {
			stats.OutageHistory = append(stats.OutageHistory, Outage{
				Start:           *stats.CurrentOutageStart,
				End:             now,
				DurationMinutes: int(now.Sub(*stats.CurrentOutageStart).Minutes()),
			})
			stats.CurrentOutageStart = nil
		}
		return
	}

	stats.FailedAttempts++
	ts := now
	stats.LastFailure = &ts
	stats.LastError = lf.FetchError
	if stats.CurrentOutageStart == nil {
		start := now
		stats.CurrentOutageStart = &start
	}
}

func (r *Reporter) flush(snap Snapshot) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.logger.Error().Err(err).Msg("creating health directory failed")
		return
	}

	if raw, err := json.MarshalIndent(r.data, "", "  "); err == nil {
		if err := storage.WriteFileAtomic(r.dir, HealthFileName, append(raw, '\n')); err != nil {
			r.logger.Error().Err(err).Msg("writing health file failed")
		}
	}

	report := r.renderReport(snap)
	if err := storage.WriteFileAtomic(r.dir, ReportFileName, []byte(report)); err != nil {
		r.logger.Error().Err(err).Msg("writing report file failed")
	}
}

// locationStatus classifies a location's current condition from its
// cumulative stats.
func (r *Reporter) locationStatus(stats *locationStats, now time.Time) (status, message string) {
	if stats.CurrentOutageStart != nil {
		minutes := int(now.Sub(*stats.CurrentOutageStart).Minutes())
		return "OFFLINE", fmt.Sprintf("upstream failing for %d minutes", minutes)
	}
	if stats.LastSuccess == nil {
		return "UNKNOWN", "no successful fetches yet"
	}
	if since := now.Sub(*stats.LastSuccess); since > staleAfter {
		return "STALE", fmt.Sprintf("no fresh data for %d hours", int(since.Hours()))
	}
	return "ONLINE", "operating normally"
}

func uptimePercent(stats *locationStats) float64 {
	if stats.TotalAttempts == 0 {
		return 0
	}
	return float64(stats.SuccessfulAttempts) / float64(stats.TotalAttempts) * 100
}
