package domain

import "time"

// RawIntervalPoint is an unvalidated power sample as received from a meter feed
type RawIntervalPoint struct {
	Timestamp string   `json:"ts"`
	KW        *float64 `json:"kw"`
}

// IntervalPoint is a validated sample expressed in the site's local zone
type IntervalPoint struct {
	At       time.Time     `json:"at"`
	KW       float64       `json:"kw"`
	Duration time.Duration `json:"duration"`
}

// EnergyKwh is power times the sample's duration
func (p IntervalPoint) EnergyKwh() float64 {
	return p.KW * p.Duration.Hours()
}

// MonthlyAggregate summarizes one local-calendar month of interval data
type MonthlyAggregate struct {
	Month         string  `json:"month"` // YYYY-MM
	EnergyKwh     float64 `json:"energy_kwh"`
	PeakKw        float64 `json:"peak_kw"`
	Samples       int     `json:"samples"`
	CoverageRatio float64 `json:"coverage_ratio"`
	FullyObserved bool    `json:"fully_observed"`
}

// TOUSplit is the on/off-peak breakdown of the proven month
type TOUSplit struct {
	RateCode     string  `json:"rate_code"`
	OnPeakKwh    float64 `json:"on_peak_kwh"`
	OffPeakKwh   float64 `json:"off_peak_kwh"`
	OnPeakShare  float64 `json:"on_peak_share"`
	OffPeakShare float64 `json:"off_peak_share"`
}

// MetricSourceProven tags values computed directly from validated interval evidence
const MetricSourceProven = "proven"

// ProvenMetrics is the output of the interval pipeline
type ProvenMetrics struct {
	Source           string             `json:"source"`
	Zone             string             `json:"zone"`
	IntervalMinutes  float64            `json:"interval_minutes,omitempty"`
	ValidSamples     int                `json:"valid_samples"`
	InvalidSamples   int                `json:"invalid_samples"`
	Months           []MonthlyAggregate `json:"months"`
	ProvenMonth      *MonthlyAggregate  `json:"proven_month,omitempty"`
	ProvenPeakKw     *float64           `json:"proven_peak_kw,omitempty"`
	ProvenMonthlyKwh *float64           `json:"proven_monthly_kwh,omitempty"`
	TOU              *TOUSplit          `json:"tou,omitempty"`
	Warnings         []string           `json:"warnings"`
}

// HasData reports whether any valid sample survived normalization
func (m *ProvenMetrics) HasData() bool {
	return m != nil && m.ValidSamples > 0
}

// FullyObservedMonthlyKwh returns energies of fully observed months, oldest first
func (m *ProvenMetrics) FullyObservedMonthlyKwh() []float64 {
	if m == nil {
		return nil
	}
	var out []float64
	for _, agg := range m.Months {
		if agg.FullyObserved {
			out = append(out, agg.EnergyKwh)
		}
	}
	return out
}
