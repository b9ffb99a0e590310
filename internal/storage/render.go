package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/pribilofwx/forecastd/internal/forecast"
)

const banner = "================================================================================"

const timestampLayout = "2006-01-02 15:04:05 MST"

// renderCombined produces the human-readable document aggregating every
// location's forecast, in registry order.
func renderCombined(result forecast.CollectionResult, tz *time.Location) string {
	var b strings.Builder

	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "WEATHER FORECAST REPORT - %s\n", result.CycleTimestamp.In(tz).Format(timestampLayout))
	b.WriteString(banner + "\n")

	for _, lf := range result.Forecasts {
		b.WriteString("\n")
		renderLocation(&b, lf, tz)
	}

	b.WriteString("\n" + banner + "\n")
	return b.String()
}

// renderLocationDoc produces a standalone document for one location.
func renderLocationDoc(lf forecast.LocationForecast, cycleTime time.Time, tz *time.Location) string {
	var b strings.Builder

	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "WEATHER FORECAST REPORT - %s\n", cycleTime.In(tz).Format(timestampLayout))
	b.WriteString(banner + "\n\n")

	renderLocation(&b, lf, tz)

	b.WriteString("\n" + banner + "\n")
	return b.String()
}

func renderLocation(b *strings.Builder, lf forecast.LocationForecast, tz *time.Location) {
	loc := lf.Location

	b.WriteString(banner + "\n")
	fmt.Fprintf(b, "LOCATION: %s (%s)\n", loc.DisplayName, loc.Code)
	switch loc.Kind {
	case forecast.KindMarineZone:
		fmt.Fprintf(b, "Marine Zone: %s\n", loc.Zone)
	default:
		fmt.Fprintf(b, "Coordinates: %.4f, %.4f\n", loc.Lat, loc.Lon)
	}
	fmt.Fprintf(b, "Collected: %s\n", lf.CollectedAt.In(tz).Format(timestampLayout))
	b.WriteString(banner + "\n")

	if !lf.OK() {
		fmt.Fprintf(b, "\nNo forecast data available (error: %s)\n", lf.FetchError)
		return
	}

	for _, p := range lf.Periods {
		fmt.Fprintf(b, "\n%s:\n", p.Name)
		if p.Temperature != nil {
			unit := p.TemperatureUnit
			if unit == "" {
				unit = "F"
			}
			fmt.Fprintf(b, "  Temperature: %d°%s\n", *p.Temperature, unit)
		}
		if p.ShortDescription != "" {
			fmt.Fprintf(b, "  Conditions: %s\n", p.ShortDescription)
		}
		fmt.Fprintf(b, "  %s\n", p.DetailedText)
	}
}

// renderMarineAggregate produces the combined marine-zones document.
func renderMarineAggregate(marine []forecast.LocationForecast, cycleTime time.Time, tz *time.Location) string {
	var b strings.Builder

	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "PRIBILOF ISLANDS MARINE FORECAST - %s\n", cycleTime.In(tz).Format(timestampLayout))
	b.WriteString(banner + "\n")

	for _, lf := range marine {
		fmt.Fprintf(&b, "\nZone %s: %s\n", lf.Location.Zone, lf.Location.DisplayName)
		b.WriteString(strings.Repeat("-", len(banner)) + "\n")
		for _, p := range lf.Periods {
			fmt.Fprintf(&b, "\n%s:\n  %s\n", p.Name, p.DetailedText)
		}
	}

	b.WriteString("\n" + banner + "\n")
	return b.String()
}
