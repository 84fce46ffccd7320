package opfit

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

// Flags raised by the scorer
const (
	FlagSpikyPeaks       = "spiky_peaks"
	FlagNoIntervalData   = "no_interval_data"
	FlagLoadShiftUnknown = "load_shift_unknown"
	FlagLowRepeatability = "low_repeatability"
)

// Config holds the scoring constants
type Config struct {
	RepeatDayRatio      float64 // day max must reach this share of the overall peak
	NearMaxRatio        float64 // sample must reach this share of its day max
	SpikyRepeatability  float64
	SpikyNearMaxPerDay  float64
	SpikyPenalty        float64
	BaseScore           float64
	ShiftWeight         float64
	RepeatabilityWeight float64
}

// DefaultConfig returns the production scoring constants
func DefaultConfig() *Config {
	return &Config{
		RepeatDayRatio:      0.85,
		NearMaxRatio:        0.90,
		SpikyRepeatability:  0.45,
		SpikyNearMaxPerDay:  1.2,
		SpikyPenalty:        0.15,
		BaseScore:           0.15,
		ShiftWeight:         0.45,
		RepeatabilityWeight: 0.25,
	}
}

var scheduleAdjustment = map[domain.ScheduleType]float64{
	domain.ScheduleBusinessHours: 0.10,
	domain.ScheduleMixed:         0.05,
	domain.Schedule24x7:          -0.05,
	domain.ScheduleUnknown:       0,
}

var genericChecklist = []string{
	"Identify curtailable loads and name an event contact",
	"Confirm event notification lead time with the program administrator",
}

// Input is everything the scorer looks at
type Input struct {
	Points         []domain.IntervalPoint // validated samples in the site's zone
	Location       *time.Location
	LoadShiftScore *float64
	Schedule       domain.ScheduleType
}

// Scorer computes demand-response operational fit
type Scorer struct {
	log    *zap.Logger
	config *Config
}

// NewScorer creates a new operational-fit scorer
func NewScorer(log *zap.Logger, config *Config) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &Scorer{log: log, config: config}
}

// Score never fails and always returns a non-empty next-steps checklist
func (s *Scorer) Score(in Input) domain.OperationalFitResult {
	schedule := in.Schedule
	if schedule == "" {
		schedule = domain.ScheduleUnknown
	}
	res := domain.OperationalFitResult{
		Schedule:  schedule,
		WhyNow:    []string{},
		WhyNotNow: []string{},
		Flags:     []string{},
	}
	var steps []string

	var repeatability float64
	if days := dailyStats(in.Points, in.Location, s.config.NearMaxRatio); len(days) > 0 {
		rep, nearMax := s.repeatability(days)
		repeatability = rep
		res.Repeatability = &rep
		res.AvgNearMaxSamplesPerDay = &nearMax
		res.DaysObserved = len(days)
		res.Spiky = rep <= s.config.SpikyRepeatability && nearMax <= s.config.SpikyNearMaxPerDay

		switch {
		case res.Spiky:
			res.Flags = append(res.Flags, FlagSpikyPeaks)
			res.WhyNotNow = append(res.WhyNotNow, fmt.Sprintf("peaks look like isolated start-up transients (%.0f%% of days near peak, %.1f near-max samples per day)", rep*100, nearMax))
			steps = append(steps, "Review equipment start-up sequencing to stagger large motor loads")
		case rep >= 0.6:
			res.WhyNow = append(res.WhyNow, fmt.Sprintf("daily peaks recur on %.0f%% of %d observed days", rep*100, len(days)))
		default:
			res.Flags = append(res.Flags, FlagLowRepeatability)
			res.WhyNotNow = append(res.WhyNotNow, fmt.Sprintf("daily peaks reach the overall peak on only %.0f%% of days", rep*100))
			steps = append(steps, "Log which processes drive the highest-demand days")
		}
	} else {
		res.Flags = append(res.Flags, FlagNoIntervalData)
		res.WhyNotNow = append(res.WhyNotNow, "no interval data to confirm peak repeatability")
		steps = append(steps, "Request at least one month of 15-minute interval data from the utility")
	}

	var shift float64
	if in.LoadShiftScore != nil {
		shift = clamp01(*in.LoadShiftScore)
		if shift >= 0.6 {
			res.WhyNow = append(res.WhyNow, fmt.Sprintf("load-shift feasibility is high (%.2f)", shift))
		} else if shift < 0.3 {
			res.WhyNotNow = append(res.WhyNotNow, fmt.Sprintf("load-shift feasibility is low (%.2f)", shift))
		}
	} else {
		res.Flags = append(res.Flags, FlagLoadShiftUnknown)
		res.WhyNotNow = append(res.WhyNotNow, "load-shift feasibility has not been assessed")
		steps = append(steps, "Walk the site with facilities staff to list loads that can move by 2-4 hours")
	}

	switch schedule {
	case domain.ScheduleBusinessHours:
		res.WhyNow = append(res.WhyNow, "business-hours operation leaves evening event windows flexible")
	case domain.Schedule24x7:
		res.WhyNotNow = append(res.WhyNotNow, "continuous operation narrows curtailment options")
	}

	penalty := 0.0
	if res.Spiky {
		penalty = s.config.SpikyPenalty
	}
	score := s.config.BaseScore +
		s.config.ShiftWeight*shift +
		s.config.RepeatabilityWeight*repeatability +
		scheduleAdjustment[schedule] -
		penalty
	res.Score = round4(clamp01(score))

	if len(steps) == 0 {
		steps = append(steps, genericChecklist...)
	}
	res.NextSteps = steps

	s.log.Debug("Operational fit scored",
		zap.Float64("score", res.Score),
		zap.Int("days", res.DaysObserved),
		zap.Bool("spiky", res.Spiky),
	)
	return res
}

type dayStat struct {
	max     float64
	nearMax int
}

func (s *Scorer) repeatability(days []dayStat) (float64, float64) {
	peak := math.Inf(-1)
	for _, d := range days {
		peak = math.Max(peak, d.max)
	}
	var repeating, nearMax int
	for _, d := range days {
		if d.max >= s.config.RepeatDayRatio*peak {
			repeating++
		}
		nearMax += d.nearMax
	}
	n := float64(len(days))
	return round4(float64(repeating) / n), round4(float64(nearMax) / n)
}

// dailyStats groups samples by local calendar day, in chronological order
func dailyStats(points []domain.IntervalPoint, loc *time.Location, nearMaxRatio float64) []dayStat {
	if len(points) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	var order []string
	byDay := make(map[string][]float64)
	for _, p := range points {
		key := p.At.In(loc).Format("2006-01-02")
		if _, ok := byDay[key]; !ok {
			order = append(order, key)
		}
		byDay[key] = append(byDay[key], p.KW)
	}

	out := make([]dayStat, 0, len(order))
	for _, key := range order {
		values := byDay[key]
		max := math.Inf(-1)
		for _, v := range values {
			max = math.Max(max, v)
		}
		near := 0
		for _, v := range values {
			if v >= nearMaxRatio*max {
				near++
			}
		}
		out = append(out, dayStat{max: max, nearMax: near})
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
