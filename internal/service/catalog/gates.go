package catalog

import (
	"fmt"
	"strings"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

// Missing-input labels surfaced to the customer
const (
	MissingSegment      = "customer segment"
	MissingNAICS        = "NAICS code"
	MissingPeakKw       = "peak demand (kW)"
	MissingMonthlyKwh   = "monthly energy usage (kWh)"
	MissingAnnualKwh    = "annual energy usage (kWh)"
	MissingIntervalData = "interval data (15-minute meter readings)"
	MissingAMI          = "AMI smart meter confirmation"
)

// evaluation accumulates gate outcomes for one catalog entry
type evaluation struct {
	because []string
	missing []string
	flags   []domain.MatchFlag
}

func (e *evaluation) pass(format string, args ...interface{}) {
	e.because = append(e.because, fmt.Sprintf(format, args...))
}

func (e *evaluation) fail(flag domain.MatchFlag, format string, args ...interface{}) {
	e.flags = append(e.flags, flag)
	e.because = append(e.because, fmt.Sprintf(format, args...))
}

func (e *evaluation) lack(input string, format string, args ...interface{}) {
	e.missing = append(e.missing, input)
	e.because = append(e.because, fmt.Sprintf(format, args...))
}

func (e *evaluation) anyFlag(pred func(domain.MatchFlag) bool) bool {
	for _, f := range e.flags {
		if pred(f) {
			return true
		}
	}
	return false
}

// measured is a numeric input together with where it came from
type measured struct {
	value  float64
	source string
}

func segmentGate(ev *evaluation, entry domain.ProgramCatalogEntry, in MatchInput) {
	if len(entry.Segments) == 0 {
		return
	}
	segment := in.Profile.CustomerSegment
	if segment == "" {
		ev.lack(MissingSegment, "program is limited to segments %s; customer segment not provided", strings.Join(entry.Segments, ", "))
		return
	}
	for _, s := range entry.Segments {
		if strings.EqualFold(s, segment) {
			ev.pass("customer segment %s is eligible", segment)
			return
		}
	}
	ev.fail(domain.FlagSegmentMismatch, "customer segment %s is not among %s", segment, strings.Join(entry.Segments, ", "))
}

func naicsGate(ev *evaluation, entry domain.ProgramCatalogEntry, in MatchInput) {
	if len(entry.NAICSInclude) == 0 && len(entry.NAICSExclude) == 0 {
		return
	}
	naics := in.Profile.NAICS
	if naics == "" {
		ev.lack(MissingNAICS, "program restricts NAICS codes; NAICS code not provided")
		return
	}
	if prefix, ok := matchPrefix(naics, entry.NAICSExclude); ok {
		ev.fail(domain.FlagNAICSExcluded, "NAICS %s is excluded by prefix %s", naics, prefix)
		return
	}
	if len(entry.NAICSInclude) == 0 {
		ev.pass("NAICS %s is not excluded", naics)
		return
	}
	if prefix, ok := matchPrefix(naics, entry.NAICSInclude); ok {
		ev.pass("NAICS %s matches included prefix %s", naics, prefix)
		return
	}
	ev.fail(domain.FlagNAICSNotIncluded, "NAICS %s matches none of the included prefixes %s", naics, strings.Join(entry.NAICSInclude, ", "))
}

func matchPrefix(code string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p != "" && strings.HasPrefix(code, p) {
			return p, true
		}
	}
	return "", false
}

func peakGate(ev *evaluation, entry domain.ProgramCatalogEntry, in MatchInput) {
	min := entry.Eligibility.MinPeakKw
	if min == nil {
		return
	}
	peak, ok := in.peakKw()
	if !ok {
		ev.lack(MissingPeakKw, "program requires peak demand of at least %s kW; peak demand unknown", num(*min))
		return
	}
	if peak.value < *min {
		ev.fail(domain.FlagBelowMinPeakKw, "%s peak %s kW is below the %s kW minimum", peak.source, num(peak.value), num(*min))
		return
	}
	ev.pass("%s peak %s kW meets the %s kW minimum", peak.source, num(peak.value), num(*min))
}

func monthlyGate(ev *evaluation, entry domain.ProgramCatalogEntry, in MatchInput) {
	min := entry.Eligibility.MinMonthlyKwh
	if min == nil {
		return
	}
	monthly, ok := in.monthlyKwh()
	if !ok {
		ev.lack(MissingMonthlyKwh, "program requires at least %s kWh per month; monthly usage unknown", num(*min))
		return
	}
	if monthly.value < *min {
		ev.fail(domain.FlagBelowMinMonthlyKwh, "%s monthly usage %s kWh is below the %s kWh minimum", monthly.source, num(monthly.value), num(*min))
		return
	}
	ev.pass("%s monthly usage %s kWh meets the %s kWh minimum", monthly.source, num(monthly.value), num(*min))
}

func annualGate(ev *evaluation, entry domain.ProgramCatalogEntry, in MatchInput) {
	min := entry.Eligibility.MinAnnualKwh
	if min == nil {
		return
	}
	annual, ok := in.annualKwh()
	if !ok {
		ev.lack(MissingAnnualKwh, "program requires at least %s kWh per year; annual usage unknown", num(*min))
		return
	}
	if annual.value < *min {
		ev.fail(domain.FlagBelowMinAnnualKwh, "%s %s kWh is below the %s kWh annual minimum", annual.source, num(annual.value), num(*min))
		return
	}
	ev.pass("%s %s kWh meets the %s kWh annual minimum", annual.source, num(annual.value), num(*min))
}

func intervalGate(ev *evaluation, entry domain.ProgramCatalogEntry, in MatchInput) {
	if !entry.Eligibility.RequiresIntervalData {
		return
	}
	has := in.hasIntervalData()
	switch {
	case has == nil:
		ev.lack(MissingIntervalData, "program requires interval data; availability unknown")
	case !*has:
		ev.flags = append(ev.flags, domain.FlagIntervalDataRequired)
		ev.lack(MissingIntervalData, "program requires interval data; none is available")
	default:
		ev.pass("interval data is available")
	}
}

func amiGate(ev *evaluation, entry domain.ProgramCatalogEntry, in MatchInput) {
	if !entry.Eligibility.RequiresAMI {
		return
	}
	has := in.Profile.Meter.HasAMI
	switch {
	case has == nil:
		ev.lack(MissingAMI, "program requires an AMI meter; meter type unknown")
	case !*has:
		ev.flags = append(ev.flags, domain.FlagAMIRequired)
		ev.lack(MissingAMI, "program requires an AMI meter; site meter is not AMI")
	default:
		ev.pass("site has an AMI meter")
	}
}

// gates run in this order for every entry in the territory
var gates = []func(*evaluation, domain.ProgramCatalogEntry, MatchInput){
	segmentGate,
	naicsGate,
	peakGate,
	monthlyGate,
	annualGate,
	intervalGate,
	amiGate,
}

func num(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
