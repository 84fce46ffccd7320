package annualize

import (
	"fmt"
	"math"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

const (
	monthsPerYear    = 12
	summedConfidence = 0.90
	averagedBase     = 0.55
	averagedPerMonth = 0.03
	averagedCeiling  = 0.99
	scalarConfidence = 0.45
)

// Estimate projects annual energy from monthly history, oldest first. When the series is
// empty the single monthly scalar is used. It returns nil when there is nothing to project.
func Estimate(monthly []float64, monthlyScalar *float64) *domain.AnnualEstimate {
	values := finite(monthly)

	switch n := len(values); {
	case n >= monthsPerYear:
		recent := values[n-monthsPerYear:]
		total := sum(recent)
		return &domain.AnnualEstimate{
			Kwh:        round2(total),
			MonthsUsed: monthsPerYear,
			Confidence: summedConfidence,
			Because: []string{
				fmt.Sprintf("summed the most recent 12 monthly values: %s kWh", formatKwh(total)),
			},
		}

	case n > 0:
		mean := sum(values) / float64(n)
		total := mean * monthsPerYear
		return &domain.AnnualEstimate{
			Kwh:        round2(total),
			MonthsUsed: n,
			Confidence: averagedConfidence(n),
			Because: []string{
				fmt.Sprintf("annualized the mean of %d monthly values (%s kWh x 12): %s kWh", n, formatKwh(mean), formatKwh(total)),
			},
		}
	}

	if monthlyScalar != nil && !math.IsNaN(*monthlyScalar) && !math.IsInf(*monthlyScalar, 0) {
		total := *monthlyScalar * monthsPerYear
		return &domain.AnnualEstimate{
			Kwh:        round2(total),
			MonthsUsed: 0,
			Confidence: scalarConfidence,
			Because: []string{
				fmt.Sprintf("annualized a single monthly value (%s kWh x 12): %s kWh", formatKwh(*monthlyScalar), formatKwh(total)),
			},
		}
	}
	return nil
}

// FromBilling estimates from a billing summary's series, falling back to its scalar
func FromBilling(b domain.BillingSummary) *domain.AnnualEstimate {
	est := Estimate(b.MonthlyKwhSeries(), b.MonthlyKwh)
	if est != nil {
		est.Source = domain.EstimateSourceBilling
	}
	return est
}

// FromProven estimates from the fully observed months of interval evidence
func FromProven(m *domain.ProvenMetrics) *domain.AnnualEstimate {
	months := m.FullyObservedMonthlyKwh()
	if len(months) == 0 {
		return nil
	}
	est := Estimate(months, nil)
	est.Source = domain.EstimateSourceProven
	est.Because = append(est.Because, "monthly values come from fully observed interval months")
	return est
}

func averagedConfidence(n int) float64 {
	c := averagedBase + averagedPerMonth*float64(n)
	return math.Min(averagedCeiling, math.Round(c*100)/100)
}

func finite(in []float64) []float64 {
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatKwh(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
