// Package storage persists normalized collection results to the output
// directory: one combined JSON+text pair aggregating all locations, one
// JSON+text pair per location, and a marine aggregate when marine zones
// are present. Every file is replaced atomically so external readers
// never observe a partial write.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pribilofwx/forecastd/internal/forecast"
)

// Output file names within the data directory.
const (
	CombinedJSONName = "latest_forecast.json"
	CombinedTextName = "latest_forecast.txt"

	// marineAggregateBase names the combined marine-zone output pair.
	marineAggregateBase = "pribilof_island_waters"
)

// WriteError describes a failure writing one specific output file. Other
// files in the same cycle are still attempted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// WriterConfig holds configuration for the persistence writer.
type WriterConfig struct {
	// Dir is the output directory. Created if missing.
	Dir string

	// Timezone used for rendered timestamps. Default: UTC.
	Timezone *time.Location

	// Logger for writer operations.
	Logger zerolog.Logger
}

// Writer persists collection results to disk.
type Writer struct {
	dir    string
	tz     *time.Location
	logger zerolog.Logger
}

// NewWriter creates a persistence writer for the given directory.
func NewWriter(cfg WriterConfig) *Writer {
	tz := cfg.Timezone
	if tz == nil {
		tz = time.UTC
	}
	return &Writer{
		dir:    cfg.Dir,
		tz:     tz,
		logger: cfg.Logger,
	}
}

// Write persists one cycle's outputs. Failures are collected per file and
// joined into the returned error; a failed file never blocks the rest.
func (w *Writer) Write(result forecast.CollectionResult) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var errs []error
	write := func(name string, data []byte) {
		if err := w.writeFileAtomic(name, data); err != nil {
			we := &WriteError{Path: filepath.Join(w.dir, name), Err: err}
			w.logger.Error().Err(we).Msg("output file write failed")
			errs = append(errs, we)
			return
		}
		w.logger.Debug().Str("file", name).Msg("wrote output file")
	}

	// Combined outputs first: these must exist after every cycle.
	if data, err := marshalJSON(result); err != nil {
		errs = append(errs, &WriteError{Path: CombinedJSONName, Err: err})
	} else {
		write(CombinedJSONName, data)
	}
	write(CombinedTextName, []byte(renderCombined(result, w.tz)))

	// Per-location pairs.
	for _, lf := range result.Forecasts {
		base := lf.Location.Slug()
		if data, err := marshalJSON(lf); err != nil {
			errs = append(errs, &WriteError{Path: base + ".json", Err: err})
		} else {
			write(base+".json", data)
		}
		write(base+".txt", []byte(renderLocationDoc(lf, result.CycleTimestamp, w.tz)))
	}

	// Marine aggregate, when any marine zone reported data.
	marine := marineForecasts(result)
	if len(marine) > 0 {
		if data, err := marshalJSON(marine); err != nil {
			errs = append(errs, &WriteError{Path: marineAggregateBase + ".json", Err: err})
		} else {
			write(marineAggregateBase+".json", data)
		}
		write(marineAggregateBase+".txt", []byte(renderMarineAggregate(marine, result.CycleTimestamp, w.tz)))
	}

	return errors.Join(errs...)
}

func (w *Writer) writeFileAtomic(name string, data []byte) error {
	return WriteFileAtomic(w.dir, name, data)
}

// WriteFileAtomic writes data to a temporary file in dir and renames it
// into place, so concurrent readers see either the old file or the new
// one, never a truncated one.
func WriteFileAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// marineForecasts returns the marine-zone forecasts that carried data.
func marineForecasts(result forecast.CollectionResult) []forecast.LocationForecast {
	var out []forecast.LocationForecast
	for _, lf := range result.Forecasts {
		if lf.Location.Kind == forecast.KindMarineZone && lf.OK() {
			out = append(out, lf)
		}
	}
	return out
}
