// Package forecast defines the domain model for collected weather forecasts
// and the service that runs a collection cycle across all configured locations.
package forecast

import (
	"errors"
	"strings"
	"time"
)

// Forecast errors.
var (
	ErrNoLocations = errors.New("no locations configured")
)

// LocationKind distinguishes point locations (lat/lon, served by the NWS
// JSON API) from marine zones (served by the coastal waters text product).
type LocationKind string

const (
	KindPoint      LocationKind = "POINT"
	KindMarineZone LocationKind = "MARINE_ZONE"
)

// Source identifies which upstream pipeline produced a forecast.
type Source string

const (
	SourceAPI         Source = "api"
	SourceTextProduct Source = "text_product"
)

// Location is one monitored place. Locations are defined at startup from
// the built-in registry and never mutated afterwards.
type Location struct {
	// Code is the postal code (point locations) or NOAA zone id (marine).
	Code string `json:"code"`

	// DisplayName is the human-readable name, e.g. "St. Paul Island".
	DisplayName string `json:"display_name"`

	Kind LocationKind `json:"kind"`

	// Lat/Lon are set for point locations only.
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`

	// Zone is set for marine zone locations only.
	Zone string `json:"zone,omitempty"`
}

// Slug returns the filesystem-safe base name used for this location's
// per-location output files: lower-cased display name with whitespace
// replaced by underscores, followed by the location code.
func (l Location) Slug() string {
	name := strings.ToLower(l.DisplayName)
	name = strings.Join(strings.Fields(name), "_")
	return name + "_" + l.Code
}

// ForecastPeriod is one named interval of a forecast ("Tonight", "MON").
// Structured-source periods carry all fields; marine periods carry only
// Name and DetailedText. The asymmetry is deliberate: numeric fields are
// never synthesized for text-product forecasts.
type ForecastPeriod struct {
	Name         string `json:"name"`
	DetailedText string `json:"detailed_text"`

	// IsDaytime is nil when the source does not report it (marine).
	IsDaytime *bool `json:"is_daytime,omitempty"`

	// Temperature in the upstream unit, nil when not reported.
	Temperature     *int   `json:"temperature,omitempty"`
	TemperatureUnit string `json:"temperature_unit,omitempty"`

	ShortDescription string `json:"short_description,omitempty"`
}

// LocationForecast is the normalized per-location record produced each
// cycle. Created fresh by the service, never mutated, superseded wholesale
// on the next cycle.
type LocationForecast struct {
	Location    Location         `json:"location"`
	CollectedAt time.Time        `json:"collected_at"`
	Source      Source           `json:"source"`
	Periods     []ForecastPeriod `json:"periods"`

	// FetchError is set when the fetch failed; Periods is empty then.
	FetchError string `json:"fetch_error,omitempty"`
}

// OK reports whether the fetch for this location succeeded.
func (f LocationForecast) OK() bool {
	return f.FetchError == ""
}

// CollectionResult is one cycle's output: exactly one LocationForecast per
// configured location, in registry order, regardless of fetch outcomes.
type CollectionResult struct {
	CycleID        string             `json:"cycle_id"`
	CycleTimestamp time.Time          `json:"cycle_timestamp"`
	Forecasts      []LocationForecast `json:"forecasts"`
}

// SuccessCount returns the number of forecasts without a fetch error.
func (r CollectionResult) SuccessCount() int {
	n := 0
	for _, f := range r.Forecasts {
		if f.OK() {
			n++
		}
	}
	return n
}

// FailureCount returns the number of forecasts with a fetch error.
func (r CollectionResult) FailureCount() int {
	return len(r.Forecasts) - r.SuccessCount()
}
