package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

type stepStatus int

const (
	stepCompleted stepStatus = iota
	stepSkipped
	stepFailed
)

// stepOutcome is what every sub-step reports back to the orchestrator
type stepOutcome struct {
	status  stepStatus
	missing []domain.MissingInfoItem
	warning *domain.AnalysisWarning
}

func completed(missing ...domain.MissingInfoItem) stepOutcome {
	return stepOutcome{status: stepCompleted, missing: missing}
}

func skipped(missing ...domain.MissingInfoItem) stepOutcome {
	return stepOutcome{status: stepSkipped, missing: missing}
}

// expectedAbsence lists errors that mean "no data" rather than a failure
var expectedAbsence = []error{
	domain.ErrNoIntervalData,
	domain.ErrNoBillText,
}

// guard runs a fragile collaborator call inside its own span. Errors and panics are
// converted into a warning outcome; they never propagate.
func (s *Service) guard(ctx context.Context, subsystem, operation, contextKey string, fn func(context.Context) error) (out stepOutcome) {
	ctx, span := s.tracer.Start(ctx, subsystem+"."+operation)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			out = s.failure(subsystem, operation, contextKey, "panicked", fmt.Sprintf("%T", r))
			span.SetStatus(codes.Error, out.warning.Code)
		}
	}()

	if err := fn(ctx); err != nil {
		for _, absent := range expectedAbsence {
			if errors.Is(err, absent) {
				return skipped()
			}
		}
		out = s.failure(subsystem, operation, contextKey, "failed", fmt.Sprintf("%T", err))
		span.SetStatus(codes.Error, out.warning.Code)
		return out
	}
	return completed()
}

func (s *Service) failure(subsystem, operation, contextKey, verb, class string) stepOutcome {
	w := &domain.AnalysisWarning{
		Code:       fmt.Sprintf("%s_%s_%s", subsystem, operation, verb),
		Subsystem:  subsystem,
		Operation:  operation,
		ErrorClass: class,
		ContextKey: contextKey,
	}
	s.log.Warn("Analysis step contained",
		zap.String("code", w.Code),
		zap.String("error_class", w.ErrorClass),
	)
	return stepOutcome{status: stepFailed, warning: w}
}

// collector merges outcomes in pipeline order
type collector struct {
	missing  []domain.MissingInfoItem
	seen     map[string]bool
	warnings []domain.AnalysisWarning
}

func newCollector() *collector {
	return &collector{
		missing:  []domain.MissingInfoItem{},
		seen:     make(map[string]bool),
		warnings: []domain.AnalysisWarning{},
	}
}

func (c *collector) add(o stepOutcome) stepOutcome {
	for _, item := range o.missing {
		c.addMissing(item)
	}
	if o.warning != nil {
		c.warnings = append(c.warnings, *o.warning)
	}
	return o
}

// addMissing keeps the first item seen for an id
func (c *collector) addMissing(item domain.MissingInfoItem) {
	if item.ID == "" || c.seen[item.ID] {
		return
	}
	c.seen[item.ID] = true
	c.missing = append(c.missing, item)
}

func (c *collector) warn(w domain.AnalysisWarning) {
	c.warnings = append(c.warnings, w)
}

// missingID derives a stable checklist id from a free-text missing input
func missingID(label string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
