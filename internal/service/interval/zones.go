package interval

import (
	"strings"
	"time"

	// Embedded zone database so zone resolution does not depend on the host.
	_ "time/tzdata"
)

var territoryZones = map[string]string{
	"PGE":   "America/Los_Angeles",
	"SCE":   "America/Los_Angeles",
	"SDGE":  "America/Los_Angeles",
	"SMUD":  "America/Los_Angeles",
	"CONED": "America/New_York",
	"NYSEG": "America/New_York",
	"NGRID": "America/New_York",
	"COMED": "America/Chicago",
	"XCEL":  "America/Denver",
}

// ResolveZone returns the calendar zone of a territory. When the territory is unknown the
// fallback zone (or UTC) is returned with resolved=false.
func ResolveZone(territory, fallback string) (loc *time.Location, name string, resolved bool) {
	if zone, ok := territoryZones[strings.ToUpper(strings.TrimSpace(territory))]; ok {
		if l, err := time.LoadLocation(zone); err == nil {
			return l, zone, true
		}
	}
	if fallback != "" {
		if l, err := time.LoadLocation(fallback); err == nil {
			return l, fallback, false
		}
	}
	return time.UTC, "UTC", false
}
