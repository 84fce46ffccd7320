package domain

import (
	"strings"
	"unicode"
)

// ServiceType identifies the commodity being metered
type ServiceType string

const (
	ServiceTypeElectric ServiceType = "electric"
	ServiceTypeGas      ServiceType = "gas"
	ServiceTypeDual     ServiceType = "dual"
)

// ScheduleType is a coarse classification of when a site operates
type ScheduleType string

const (
	Schedule24x7          ScheduleType = "24_7"
	ScheduleBusinessHours ScheduleType = "business_hours"
	ScheduleMixed         ScheduleType = "mixed"
	ScheduleUnknown       ScheduleType = "unknown"
)

// ParseScheduleType maps free-form schedule labels onto a ScheduleType
func ParseScheduleType(s string) ScheduleType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "24_7", "24/7", "24x7", "continuous":
		return Schedule24x7
	case "business_hours", "business-hours", "business", "office":
		return ScheduleBusinessHours
	case "mixed":
		return ScheduleMixed
	default:
		return ScheduleUnknown
	}
}

// CustomerProfile is the immutable input of one analysis call
type CustomerProfile struct {
	OrgID           string         `json:"org_id"`
	Site            Site           `json:"site"`
	ServiceType     ServiceType    `json:"service_type,omitempty"`
	Territory       string         `json:"territory"`
	CustomerSegment string         `json:"customer_segment,omitempty"`
	NAICS           string         `json:"naics,omitempty"`
	CurrentRate     string         `json:"current_rate,omitempty"`
	Billing         BillingSummary `json:"billing"`
	RawBillText     string         `json:"raw_bill_text,omitempty"`
	IntervalRef     string         `json:"interval_ref,omitempty"`
	Meter           MeterInfo      `json:"meter"`
	Constraints     Constraints    `json:"constraints"`
}

// Site identifies the physical location being analyzed
type Site struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether a weather lookup is possible for the site
func (s Site) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// BillingSummary holds bill-derived evidence, ordered oldest first
type BillingSummary struct {
	Months     []MonthlyBill `json:"months,omitempty"`
	MonthlyKwh *float64      `json:"monthly_kwh,omitempty"` // single scalar when no series exists
	PeakKw     *float64      `json:"peak_kw,omitempty"`     // heuristic/bill demand
	AnnualKwh  *float64      `json:"annual_kwh,omitempty"`
}

// MonthlyBill is a single billing period
type MonthlyBill struct {
	Period string   `json:"period"` // YYYY-MM
	Kwh    *float64 `json:"kwh,omitempty"`
	PeakKw *float64 `json:"peak_kw,omitempty"`
}

// MonthlyKwhSeries returns the kWh values of bills that carry one, in order
func (b BillingSummary) MonthlyKwhSeries() []float64 {
	series := make([]float64, 0, len(b.Months))
	for _, m := range b.Months {
		if m.Kwh != nil {
			series = append(series, *m.Kwh)
		}
	}
	return series
}

// MaxBilledPeakKw returns the highest billed demand, if any bill carries one
func (b BillingSummary) MaxBilledPeakKw() *float64 {
	var peak *float64
	for _, m := range b.Months {
		if m.PeakKw == nil {
			continue
		}
		if peak == nil || *m.PeakKw > *peak {
			v := *m.PeakKw
			peak = &v
		}
	}
	return peak
}

// MeterInfo describes metering capabilities
type MeterInfo struct {
	HasAMI          *bool `json:"has_ami,omitempty"`
	IntervalMinutes int   `json:"interval_minutes,omitempty"`
}

// Constraints captures operational inputs supplied by the customer or an upstream scorer
type Constraints struct {
	ScheduleType    ScheduleType `json:"schedule_type,omitempty"`
	LoadShiftScore  *float64     `json:"load_shift_score,omitempty"`
	HasIntervalData *bool        `json:"has_interval_data,omitempty"`
}

// Normalized returns a copy with identifiers canonicalized. The receiver is not modified.
func (p CustomerProfile) Normalized() CustomerProfile {
	out := p
	out.Territory = strings.ToUpper(strings.TrimSpace(p.Territory))
	out.CustomerSegment = strings.ToLower(strings.TrimSpace(p.CustomerSegment))
	out.NAICS = digitsOnly(p.NAICS)
	out.CurrentRate = strings.TrimSpace(p.CurrentRate)
	if out.Constraints.ScheduleType == "" {
		out.Constraints.ScheduleType = ScheduleUnknown
	} else {
		out.Constraints.ScheduleType = ParseScheduleType(string(out.Constraints.ScheduleType))
	}
	if len(p.Billing.Months) > 0 {
		out.Billing.Months = append([]MonthlyBill(nil), p.Billing.Months...)
	}
	return out
}

// Validate checks the profile at the ingestion boundary. Only structurally unusable
// values are rejected; absent evidence is handled downstream as missing input.
func (p CustomerProfile) Validate() error {
	if ls := p.Constraints.LoadShiftScore; ls != nil && (*ls < 0 || *ls > 1) {
		return &ValidationError{Field: "constraints.load_shift_score", Message: "must be within [0,1]"}
	}
	for _, v := range []struct {
		field string
		val   *float64
	}{
		{"billing.monthly_kwh", p.Billing.MonthlyKwh},
		{"billing.peak_kw", p.Billing.PeakKw},
		{"billing.annual_kwh", p.Billing.AnnualKwh},
	} {
		if v.val != nil && *v.val < 0 {
			return &ValidationError{Field: v.field, Message: "must not be negative"}
		}
	}
	if s := p.Site; (s.Latitude == nil) != (s.Longitude == nil) {
		return &ValidationError{Field: "site", Message: "latitude and longitude must be supplied together"}
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
