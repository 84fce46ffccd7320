package recommendation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/ports"
)

// MaxRecommendations is the hard upper bound on recommendations per analysis
const MaxRecommendations = 10

var statusConfidence = map[domain.MatchStatus]float64{
	domain.MatchStatusEligible:       0.80,
	domain.MatchStatusLikelyEligible: 0.60,
	domain.MatchStatusUnknown:        0.35,
	domain.MatchStatusUnlikely:       0.20,
}

// ConfidenceFor maps a match status onto a recommendation confidence
func ConfidenceFor(status domain.MatchStatus) float64 {
	if c, ok := statusConfidence[status]; ok {
		return c
	}
	return statusConfidence[domain.MatchStatusUnlikely]
}

// Config controls recommendation volume and narrative length
type Config struct {
	MaxRecommendations int
	NarrativeLineCap   int
}

// DefaultConfig returns the default synthesizer configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRecommendations: MaxRecommendations,
		NarrativeLineCap:   3,
	}
}

// Synthesizer turns ranked matches into recommendations
type Synthesizer struct {
	log    *zap.Logger
	config *Config
	ids    ports.IDFactory
}

// NewSynthesizer creates a synthesizer. Identifiers come exclusively from ids.
func NewSynthesizer(log *zap.Logger, config *Config, ids ports.IDFactory) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRecommendations <= 0 || config.MaxRecommendations > MaxRecommendations {
		config.MaxRecommendations = MaxRecommendations
	}
	if config.NarrativeLineCap <= 0 {
		config.NarrativeLineCap = DefaultConfig().NarrativeLineCap
	}
	return &Synthesizer{log: log, config: config, ids: ids}
}

// Synthesize builds one recommendation per top-ranked match that is not unlikely.
// matches are expected in rank order.
func (s *Synthesizer) Synthesize(matches []domain.ProgramMatchResult) []domain.UtilityRecommendation {
	out := make([]domain.UtilityRecommendation, 0, s.config.MaxRecommendations)
	for _, m := range matches {
		if len(out) == s.config.MaxRecommendations {
			break
		}
		if m.Status == domain.MatchStatusUnlikely {
			continue
		}
		out = append(out, s.build(m))
	}

	s.log.Debug("Recommendations synthesized",
		zap.Int("matches", len(matches)),
		zap.Int("recommendations", len(out)),
	)
	return out
}

func (s *Synthesizer) build(m domain.ProgramMatchResult) domain.UtilityRecommendation {
	kind := domain.KindForCategory(m.Category)

	because := append([]string(nil), m.Because...)
	if len(because) == 0 {
		because = []string{fmt.Sprintf("matched program %s", m.ProgramID)}
	}
	missing := append([]string{}, m.MissingInputs...)

	label := m.ProgramName
	if label == "" {
		label = m.ProgramID
	}
	tags := []string{string(m.Category), string(m.Status)}
	params := map[string]string{
		"program_id":   m.ProgramID,
		"category":     string(m.Category),
		"match_status": string(m.Status),
	}
	if m.Administrator != "" {
		params["administrator"] = m.Administrator
	}
	if m.CatalogVersion != "" {
		params["catalog_version"] = m.CatalogVersion
	}

	measure := domain.SuggestedMeasure{
		Kind:       string(kind),
		Label:      label,
		Tags:       tags,
		Parameters: params,
	}
	if m.Category == domain.CategoryDemandResponse && m.DRFitNarrative != nil {
		measure.Narrative = &domain.FitNarrative{
			WhyNow:    capLines(m.DRFitNarrative.WhyNow, s.config.NarrativeLineCap),
			WhyNotNow: capLines(m.DRFitNarrative.WhyNotNow, s.config.NarrativeLineCap),
			NextSteps: capLines(m.DRFitNarrative.NextSteps, s.config.NarrativeLineCap),
		}
		if m.DRFitScore != nil {
			params["dr_fit_score"] = fmt.Sprintf("%.2f", *m.DRFitScore)
		}
	}

	return domain.UtilityRecommendation{
		ID:                    s.ids.NewID("recommendation", m.ProgramID+"@"+m.CatalogVersion),
		Kind:                  kind,
		ProgramID:             m.ProgramID,
		MatchStatus:           m.Status,
		Score:                 m.Score,
		Confidence:            ConfidenceFor(m.Status),
		Because:               because,
		RequiredInputsMissing: missing,
		Measure:               measure,
	}
}

func capLines(lines []string, max int) []string {
	if len(lines) > max {
		lines = lines[:max]
	}
	return append([]string{}, lines...)
}
