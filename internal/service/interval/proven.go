package interval

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

// FullObservationRatio is the share of a month's hours that must be covered by samples
// for the month to count as fully observed.
const FullObservationRatio = 0.95

// ComputeProven aggregates a normalized series into monthly buckets, picks the most
// recent fully observed month and, when rateCode maps to a known TOU structure, splits
// that month's energy into on/off-peak shares. It never fails: absent data yields an
// empty result carrying the accumulated warnings.
func (s *Service) ComputeProven(n Normalized, rateCode string) *domain.ProvenMetrics {
	loc := n.Location
	if loc == nil {
		loc = time.UTC
	}
	metrics := &domain.ProvenMetrics{
		Source:          domain.MetricSourceProven,
		Zone:            loc.String(),
		IntervalMinutes: n.IntervalMinutes,
		ValidSamples:    len(n.Points),
		InvalidSamples:  n.Invalid,
		Months:          []domain.MonthlyAggregate{},
		Warnings:        append([]string{}, n.Warnings...),
	}
	if len(n.Points) == 0 {
		return metrics
	}

	type bucket struct {
		agg     domain.MonthlyAggregate
		covered time.Duration
		start   time.Time
		points  []domain.IntervalPoint
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, p := range n.Points {
		local := p.At.In(loc)
		key := local.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				agg:   domain.MonthlyAggregate{Month: key, PeakKw: math.Inf(-1)},
				start: time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc),
			}
			buckets[key] = b
			order = append(order, key)
		}
		b.agg.EnergyKwh += p.EnergyKwh()
		if p.KW > b.agg.PeakKw {
			b.agg.PeakKw = p.KW
		}
		b.agg.Samples++
		b.covered += p.Duration
		b.points = append(b.points, p)
	}

	var proven *bucket
	for _, key := range order {
		b := buckets[key]
		monthHours := b.start.AddDate(0, 1, 0).Sub(b.start).Hours()
		b.agg.CoverageRatio = round(math.Min(1, b.covered.Hours()/monthHours), 4)
		b.agg.FullyObserved = b.agg.CoverageRatio >= FullObservationRatio
		b.agg.EnergyKwh = round(b.agg.EnergyKwh, 3)
		b.agg.PeakKw = round(b.agg.PeakKw, 3)
		metrics.Months = append(metrics.Months, b.agg)
		if b.agg.FullyObserved {
			proven = b
		}
	}

	if proven == nil {
		metrics.Warnings = append(metrics.Warnings, "no fully observed month; proven monthly values unavailable")
		return metrics
	}

	month := proven.agg
	peak := month.PeakKw
	energy := month.EnergyKwh
	metrics.ProvenMonth = &month
	metrics.ProvenPeakKw = &peak
	metrics.ProvenMonthlyKwh = &energy

	if rateCode != "" {
		if structure, ok := LookupTOU(rateCode); ok {
			metrics.TOU = splitTOU(structure, proven.points, loc)
		} else {
			metrics.Warnings = append(metrics.Warnings, fmt.Sprintf("rate %q has no known time-of-use structure", rateCode))
		}
	}

	s.log.Debug("Proven metrics computed",
		zap.String("proven_month", month.Month),
		zap.Int("months", len(metrics.Months)),
	)
	return metrics
}

// ComputeProvenMetrics is Normalize followed by ComputeProven
func (s *Service) ComputeProvenMetrics(raw []domain.RawIntervalPoint, loc *time.Location, rateCode string, fallbackMinutes int) (*domain.ProvenMetrics, Normalized) {
	n := s.Normalize(raw, loc, fallbackMinutes)
	return s.ComputeProven(n, rateCode), n
}

func splitTOU(structure TOUStructure, points []domain.IntervalPoint, loc *time.Location) *domain.TOUSplit {
	split := &domain.TOUSplit{RateCode: structure.Code}
	for _, p := range points {
		if structure.IsPeak(p.At.In(loc)) {
			split.OnPeakKwh += p.EnergyKwh()
		} else {
			split.OffPeakKwh += p.EnergyKwh()
		}
	}
	if total := split.OnPeakKwh + split.OffPeakKwh; total > 0 {
		split.OnPeakShare = round(split.OnPeakKwh/total, 4)
		split.OffPeakShare = round(1-split.OnPeakShare, 4)
	}
	split.OnPeakKwh = round(split.OnPeakKwh, 3)
	split.OffPeakKwh = round(split.OffPeakKwh, 3)
	return split
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
