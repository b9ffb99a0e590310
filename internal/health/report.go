package health

import (
	"fmt"
	"sort"
	"strings"
)

const reportBanner = "======================================================================"

const reportTimeLayout = "2006-01-02 15:04:05 MST"

// renderReport produces the human-readable status report. Caller holds
// the reporter lock.
func (r *Reporter) renderReport(snap Snapshot) string {
	now := r.now()
	var b strings.Builder

	b.WriteString(reportBanner + "\n")
	b.WriteString("WEATHER FORECAST COLLECTOR HEALTH REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n", now.In(r.tz).Format(reportTimeLayout))
	b.WriteString(reportBanner + "\n")

	fmt.Fprintf(&b, "\nLAST CYCLE\n")
	fmt.Fprintf(&b, "  Run: %s\n", snap.LastRun.In(r.tz).Format(reportTimeLayout))
	fmt.Fprintf(&b, "  Locations OK: %d\n", snap.SuccessCount)
	fmt.Fprintf(&b, "  Locations Failed: %d\n", snap.FailureCount)
	for _, code := range sortedKeys(snap.PerLocation) {
		fmt.Fprintf(&b, "  %s: %s\n", code, snap.PerLocation[code])
	}

	if len(r.data.Locations) == 0 {
		b.WriteString("\nNo forecast data collected yet.\n")
		return b.String()
	}

	online := 0
	for _, stats := range r.data.Locations {
		if stats.CurrentOutageStart == nil {
			online++
		}
	}

	fmt.Fprintf(&b, "\nOVERALL STATUS\n")
	fmt.Fprintf(&b, "  Total Locations: %d\n", len(r.data.Locations))
	fmt.Fprintf(&b, "  Online: %d\n", online)
	fmt.Fprintf(&b, "  Offline: %d\n", len(r.data.Locations)-online)

	fmt.Fprintf(&b, "\nLOCATION DETAILS\n")
	b.WriteString(strings.Repeat("-", len(reportBanner)) + "\n")

	var alerts []string

	codes := make([]string, 0, len(r.data.Locations))
	for code := range r.data.Locations {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		stats := r.data.Locations[code]
		status, message := r.locationStatus(stats, now)

		fmt.Fprintf(&b, "\nLocation: %s (%s)\n", code, stats.DisplayName)
		fmt.Fprintf(&b, "  Status: %s - %s\n", status, message)
		fmt.Fprintf(&b, "  Uptime: %.1f%%\n", uptimePercent(stats))
		fmt.Fprintf(&b, "  Attempts: %d (%d ok, %d failed)\n",
			stats.TotalAttempts, stats.SuccessfulAttempts, stats.FailedAttempts)

		if stats.LastSuccess != nil {
			fmt.Fprintf(&b, "  Last Success: %d minutes ago\n", int(now.Sub(*stats.LastSuccess).Minutes()))
		}
		if stats.CurrentOutageStart != nil && stats.LastError != "" {
			fmt.Fprintf(&b, "  Last Error: %s\n", stats.LastError)
		}
		if n := len(stats.OutageHistory); n > 0 {
			b.WriteString("  Recent Outages:\n")
			start := n - 3
			if start < 0 {
				start = 0
			}
			for _, o := range stats.OutageHistory[start:] {
				fmt.Fprintf(&b, "    - %d minutes (ended %s)\n",
					o.DurationMinutes, o.End.In(r.tz).Format(reportTimeLayout))
			}
		}

		if status != "ONLINE" && status != "UNKNOWN" {
			alerts = append(alerts, fmt.Sprintf("[%s] %s: %s", status, code, message))
		}
	}

	b.WriteString("\n" + reportBanner + "\n")

	if len(alerts) > 0 {
		b.WriteString("\nACTIVE ALERTS:\n")
		for _, a := range alerts {
			fmt.Fprintf(&b, "  %s\n", a)
		}
	}

	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
