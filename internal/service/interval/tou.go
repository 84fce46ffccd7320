package interval

import (
	"strings"
	"time"
)

// TOUStructure is the calendar rule set of a time-of-use rate
type TOUStructure struct {
	Code          string
	Name          string
	PeakStartHour int  // inclusive, local hour
	PeakEndHour   int  // exclusive, local hour
	WeekdaysOnly  bool // weekends are entirely off-peak
}

// IsPeak reports whether a local timestamp falls in the on-peak window
func (s TOUStructure) IsPeak(t time.Time) bool {
	if s.WeekdaysOnly {
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return false
		}
	}
	hour := t.Hour()
	return hour >= s.PeakStartHour && hour < s.PeakEndHour
}

var touStructures = map[string]TOUStructure{
	"B19":    {Code: "B-19", Name: "PG&E B-19 Medium General Demand TOU", PeakStartHour: 16, PeakEndHour: 21},
	"B10":    {Code: "B-10", Name: "PG&E B-10 Medium General Demand TOU", PeakStartHour: 16, PeakEndHour: 21},
	"B6":     {Code: "B-6", Name: "PG&E B-6 Small General TOU", PeakStartHour: 16, PeakEndHour: 21},
	"E19":    {Code: "E-19", Name: "PG&E E-19 Legacy Medium General Demand TOU", PeakStartHour: 12, PeakEndHour: 18, WeekdaysOnly: true},
	"A6":     {Code: "A-6", Name: "PG&E A-6 Legacy Small General TOU", PeakStartHour: 12, PeakEndHour: 18, WeekdaysOnly: true},
	"ETOUC":  {Code: "E-TOU-C", Name: "PG&E E-TOU-C Residential TOU", PeakStartHour: 16, PeakEndHour: 21},
	"TOUGS2": {Code: "TOU-GS-2", Name: "SCE TOU-GS-2 General Service Demand", PeakStartHour: 16, PeakEndHour: 21},
	"TOUGS3": {Code: "TOU-GS-3", Name: "SCE TOU-GS-3 General Service Demand", PeakStartHour: 16, PeakEndHour: 21},
	"TOU8":   {Code: "TOU-8", Name: "SCE TOU-8 Large Power", PeakStartHour: 16, PeakEndHour: 21},
	"ALTOU":  {Code: "AL-TOU", Name: "SDG&E AL-TOU General Service", PeakStartHour: 16, PeakEndHour: 21},
}

// LookupTOU resolves a rate code such as "B-19", "b19" or "E TOU C"
func LookupTOU(rateCode string) (TOUStructure, bool) {
	s, ok := touStructures[rateKey(rateCode)]
	return s, ok
}

func rateKey(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		switch r {
		case '-', '_', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	key := b.String()
	// Bills frequently prefix the schedule with the rate family.
	key = strings.TrimPrefix(key, "SCHEDULE")
	key = strings.TrimPrefix(key, "RATE")
	return key
}
