package interval

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

const defaultIntervalMinutes = 15

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Normalized is the validated, zone-local, time-ordered interval series
type Normalized struct {
	Points          []domain.IntervalPoint
	Location        *time.Location
	IntervalMinutes float64
	Invalid         int
	Warnings        []string
}

// Service turns raw samples into proven metrics
type Service struct {
	log *zap.Logger
}

// NewService creates a new interval service
func NewService(log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log}
}

// Normalize validates every sample, converts it to the given zone and infers sample
// durations. Invalid samples are excluded and counted, never dropped silently.
// fallbackMinutes is used when the spacing cannot be inferred (fewer than two samples).
func (s *Service) Normalize(raw []domain.RawIntervalPoint, loc *time.Location, fallbackMinutes int) Normalized {
	if loc == nil {
		loc = time.UTC
	}
	out := Normalized{Location: loc}
	if len(raw) == 0 {
		out.Warnings = append(out.Warnings, "no interval samples supplied")
		return out
	}

	var badValue, badTime, duplicate int
	points := make([]domain.IntervalPoint, 0, len(raw))
	for _, r := range raw {
		if r.KW == nil || math.IsNaN(*r.KW) || math.IsInf(*r.KW, 0) {
			badValue++
			continue
		}
		at, ok := parseTimestamp(r.Timestamp, loc)
		if !ok {
			badTime++
			continue
		}
		points = append(points, domain.IntervalPoint{At: at.In(loc), KW: *r.KW})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].At.Before(points[j].At) })

	deduped := points[:0]
	for i, p := range points {
		if i > 0 && p.At.Equal(deduped[len(deduped)-1].At) {
			duplicate++
			continue
		}
		deduped = append(deduped, p)
	}
	points = deduped

	if badValue > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("excluded %d samples with missing or non-finite power", badValue))
	}
	if badTime > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("excluded %d samples with unparseable timestamps", badTime))
	}
	if duplicate > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("excluded %d samples with duplicate timestamps", duplicate))
	}
	out.Invalid = badValue + badTime + duplicate

	if len(points) == 0 {
		out.Warnings = append(out.Warnings, "no valid interval samples after validation")
		return out
	}

	step, inferred := dominantSpacing(points)
	if !inferred {
		if fallbackMinutes <= 0 {
			fallbackMinutes = defaultIntervalMinutes
		}
		step = time.Duration(fallbackMinutes) * time.Minute
		out.Warnings = append(out.Warnings, fmt.Sprintf("sample spacing could not be inferred; assuming %d-minute intervals", fallbackMinutes))
	}
	for i := range points {
		d := step
		if i+1 < len(points) {
			if gap := points[i+1].At.Sub(points[i].At); gap < d {
				d = gap
			}
		}
		points[i].Duration = d
	}

	out.Points = points
	out.IntervalMinutes = step.Minutes()

	s.log.Debug("Interval series normalized",
		zap.Int("valid", len(points)),
		zap.Int("invalid", out.Invalid),
		zap.Float64("interval_minutes", out.IntervalMinutes),
	)
	return out
}

func parseTimestamp(ts string, loc *time.Location) (time.Time, bool) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, ts, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dominantSpacing returns the most frequent positive gap between consecutive samples.
// Ties resolve to the shorter gap.
func dominantSpacing(points []domain.IntervalPoint) (time.Duration, bool) {
	if len(points) < 2 {
		return 0, false
	}
	counts := make(map[time.Duration]int)
	for i := 1; i < len(points); i++ {
		if gap := points[i].At.Sub(points[i-1].At); gap > 0 {
			counts[gap]++
		}
	}
	var best time.Duration
	bestCount := 0
	for gap, n := range counts {
		if n > bestCount || (n == bestCount && gap < best) {
			best, bestCount = gap, n
		}
	}
	return best, bestCount > 0
}
