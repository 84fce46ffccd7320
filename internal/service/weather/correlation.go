package weather

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

const (
	// MinPairedDays is the minimum number of days with both load and temperature
	MinPairedDays = 7
	// SensitivityThreshold is the absolute coefficient above which load is labelled weather-driven
	SensitivityThreshold = 0.5
)

// Correlator relates daily energy to daily mean temperature
type Correlator struct {
	log *zap.Logger
}

// NewCorrelator creates a new weather correlator
func NewCorrelator(log *zap.Logger) *Correlator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Correlator{log: log}
}

// Correlate computes the Pearson coefficient between daily energy and daily mean
// temperature. It returns false when fewer than MinPairedDays days overlap.
func (c *Correlator) Correlate(points []domain.IntervalPoint, temps []domain.WeatherPoint, loc *time.Location) (*domain.WeatherCorrelation, bool) {
	if loc == nil {
		loc = time.UTC
	}
	energy := make(map[string]float64)
	var days []string
	for _, p := range points {
		key := p.At.In(loc).Format("2006-01-02")
		if _, ok := energy[key]; !ok {
			days = append(days, key)
		}
		energy[key] += p.EnergyKwh()
	}

	tempSum := make(map[string]float64)
	tempCount := make(map[string]int)
	for _, w := range temps {
		if math.IsNaN(w.TempC) || math.IsInf(w.TempC, 0) {
			continue
		}
		key := w.At.In(loc).Format("2006-01-02")
		tempSum[key] += w.TempC
		tempCount[key]++
	}

	var xs, ys []float64
	for _, day := range days {
		if n := tempCount[day]; n > 0 {
			xs = append(xs, tempSum[day]/float64(n))
			ys = append(ys, energy[day])
		}
	}
	if len(xs) < MinPairedDays {
		c.log.Debug("Not enough paired days for weather correlation", zap.Int("days", len(xs)))
		return nil, false
	}

	coef := math.Round(pearson(xs, ys)*10000) / 10000
	res := &domain.WeatherCorrelation{Days: len(xs), Coefficient: coef}
	switch {
	case coef >= SensitivityThreshold:
		res.Sensitivity = domain.SensitivityCooling
		res.Because = []string{fmt.Sprintf("daily energy rises with temperature (r=%.2f over %d days)", coef, len(xs))}
	case coef <= -SensitivityThreshold:
		res.Sensitivity = domain.SensitivityHeating
		res.Because = []string{fmt.Sprintf("daily energy rises as temperature falls (r=%.2f over %d days)", coef, len(xs))}
	default:
		res.Sensitivity = domain.SensitivityInsensitive
		res.Because = []string{fmt.Sprintf("daily energy shows no strong temperature dependence (r=%.2f over %d days)", coef, len(xs))}
	}
	return res, true
}

// pearson returns 0 when either series has no variance
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
