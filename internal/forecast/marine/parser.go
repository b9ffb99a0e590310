package marine

import (
	"errors"
	"regexp"
	"strings"

	"github.com/pribilofwx/forecastd/internal/forecast"
)

// Parse errors. Both are distinct from an empty success: callers need to
// tell "zone missing from the product" apart from "zero periods reported".
var (
	ErrZoneNotFound = errors.New("zone not found in bulletin")
	ErrNoPeriods    = errors.New("zone section has no forecast periods")
)

// The coastal waters product concatenates per-zone sections. A section
// opens with a UGC header line ("PKZ766-311945-") and closes at the next
// zone header, a "$$" terminator, or end of document.
var zoneHeaderRe = regexp.MustCompile(`^([A-Z]{3}\d{3})(?:[-> ]|$)`)

// Period headers open a new forecast period. NOAA products write them as
// ".TONIGHT...SE WIND 15 KT."; some older feeds use "TONIGHT: ...". Both
// forms are anchored at line start so tokens inside body text never match.
var (
	dottedHeaderRe = regexp.MustCompile(`^\.([A-Z][A-Z0-9 ]*?)\.\.\.(.*)$`)
	colonHeaderRe  = regexp.MustCompile(`^([A-Z][A-Z0-9 ]+?):\s*(.*)$`)
)

// dayPartTokens are the words a period header may open with. A header
// whose first word is not in this set is treated as body text.
var dayPartTokens = map[string]bool{
	"TODAY": true, "TONIGHT": true, "OVERNIGHT": true,
	"THIS": true, "REST": true, "LATE": true,
	"SUN": true, "MON": true, "TUE": true, "WED": true,
	"THU": true, "FRI": true, "SAT": true,
	"SUNDAY": true, "MONDAY": true, "TUESDAY": true, "WEDNESDAY": true,
	"THURSDAY": true, "FRIDAY": true, "SATURDAY": true,
}

type parseState int

const (
	seekingZone parseState = iota
	inZone
	done
)

// ParseZone locates the section for the given zone code in a multi-zone
// bulletin and splits it into named forecast periods. Zone matching is an
// exact token at line start, so a requested code never matches inside
// another zone's combined header or inside body text.
func ParseZone(bulletin, zone string) ([]forecast.ForecastPeriod, error) {
	var (
		state   parseState
		periods []forecast.ForecastPeriod
		current *forecast.ForecastPeriod
		body    []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.DetailedText = strings.Join(body, " ")
		periods = append(periods, *current)
		current = nil
		body = nil
	}

	lines := strings.Split(bulletin, "\n")
	for _, raw := range lines {
		if state == done {
			break
		}
		line := strings.TrimRight(raw, "\r")

		switch state {
		case seekingZone:
			if m := zoneHeaderRe.FindStringSubmatch(line); m != nil && m[1] == zone {
				state = inZone
			}

		case inZone:
			if m := zoneHeaderRe.FindStringSubmatch(line); m != nil && m[1] != zone {
				state = done
				continue
			}
			if strings.TrimSpace(line) == "$$" {
				state = done
				continue
			}

			if name, rest, ok := matchPeriodHeader(line); ok {
				flush()
				current = &forecast.ForecastPeriod{Name: name}
				if rest != "" {
					body = append(body, rest)
				}
				continue
			}

			if current != nil {
				if text := strings.TrimSpace(line); text != "" {
					body = append(body, text)
				}
			}
		}
	}
	flush()

	if state == seekingZone {
		return nil, ErrZoneNotFound
	}
	if len(periods) == 0 {
		return nil, ErrNoPeriods
	}
	return periods, nil
}

// matchPeriodHeader reports whether the line opens a new forecast period,
// returning the period name and any text following the header marker.
func matchPeriodHeader(line string) (name, rest string, ok bool) {
	if m := dottedHeaderRe.FindStringSubmatch(line); m != nil {
		name, rest = m[1], m[2]
	} else if m := colonHeaderRe.FindStringSubmatch(line); m != nil {
		name, rest = m[1], m[2]
	} else {
		return "", "", false
	}

	name = strings.TrimSpace(name)
	first, _, _ := strings.Cut(name, " ")
	if !dayPartTokens[first] {
		return "", "", false
	}
	return name, strings.TrimSpace(rest), true
}
