package forecast

import "fmt"

// The built-in registry covers the Pribilof Islands deployment: the two
// inhabited islands as point locations plus the nearshore marine zone.
// Coordinates match the NWS grid lookups for each island.
var registry = []Location{
	{
		Code:        "99660",
		DisplayName: "St. Paul Island",
		Kind:        KindPoint,
		Lat:         57.1253,
		Lon:         -170.2806,
	},
	{
		Code:        "99591",
		DisplayName: "St. George Island",
		Kind:        KindPoint,
		Lat:         56.5983,
		Lon:         -169.5464,
	},
	{
		Code:        "PKZ766",
		DisplayName: "Pribilof Islands Nearshore Waters",
		Kind:        KindMarineZone,
		Zone:        "PKZ766",
	},
}

// AllLocations returns a copy of the full built-in registry in its
// canonical order.
func AllLocations() []Location {
	out := make([]Location, len(registry))
	copy(out, registry)
	return out
}

// LookupLocations resolves a list of codes against the registry, preserving
// registry order rather than argument order so that output ordering is
// stable regardless of how the codes were configured.
func LookupLocations(codes []string) ([]Location, error) {
	if len(codes) == 0 {
		return nil, ErrNoLocations
	}

	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}

	var out []Location
	for _, loc := range registry {
		if want[loc.Code] {
			out = append(out, loc)
			delete(want, loc.Code)
		}
	}

	for code := range want {
		return nil, fmt.Errorf("unknown location code %q", code)
	}

	return out, nil
}
