package catalog

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

// MatchInput is the evidence the gates are evaluated against. Profile is expected to be
// normalized; every other field is optional.
type MatchInput struct {
	Profile        domain.CustomerProfile
	Proven         *domain.ProvenMetrics
	AnnualEstimate *domain.AnnualEstimate
	OperationalFit *domain.OperationalFitResult
}

func (in MatchInput) peakKw() (measured, bool) {
	if in.Proven != nil && in.Proven.ProvenPeakKw != nil {
		return measured{*in.Proven.ProvenPeakKw, "proven"}, true
	}
	if in.Profile.Billing.PeakKw != nil {
		return measured{*in.Profile.Billing.PeakKw, "derived"}, true
	}
	if p := in.Profile.Billing.MaxBilledPeakKw(); p != nil {
		return measured{*p, "derived"}, true
	}
	return measured{}, false
}

func (in MatchInput) monthlyKwh() (measured, bool) {
	if in.Proven != nil && in.Proven.ProvenMonthlyKwh != nil {
		return measured{*in.Proven.ProvenMonthlyKwh, "proven"}, true
	}
	if series := in.Profile.Billing.MonthlyKwhSeries(); len(series) > 0 {
		var total float64
		for _, v := range series {
			total += v
		}
		return measured{total / float64(len(series)), "derived"}, true
	}
	if in.Profile.Billing.MonthlyKwh != nil {
		return measured{*in.Profile.Billing.MonthlyKwh, "derived"}, true
	}
	return measured{}, false
}

func (in MatchInput) annualKwh() (measured, bool) {
	est := in.AnnualEstimate
	if est != nil && est.Source == domain.EstimateSourceProven {
		return measured{est.Kwh, fmt.Sprintf("proven annual estimate (%d fully observed months, confidence %.2f)", est.MonthsUsed, est.Confidence)}, true
	}
	if in.Profile.Billing.AnnualKwh != nil {
		return measured{*in.Profile.Billing.AnnualKwh, "reported annual usage"}, true
	}
	if est != nil {
		basis := fmt.Sprintf("%d months", est.MonthsUsed)
		if est.MonthsUsed == 0 {
			basis = "single monthly value x 12"
		}
		return measured{est.Kwh, fmt.Sprintf("annual estimate (%s, confidence %.2f)", basis, est.Confidence)}, true
	}
	return measured{}, false
}

func (in MatchInput) hasIntervalData() *bool {
	if in.Proven.HasData() {
		has := true
		return &has
	}
	return in.Profile.Constraints.HasIntervalData
}

// Matcher gates a profile against a territory catalog
type Matcher struct {
	log *zap.Logger
}

// NewMatcher creates a new catalog matcher
func NewMatcher(log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{log: log}
}

// Match evaluates every catalog entry and returns results sorted by score, descending.
// Ties keep catalog order.
func (m *Matcher) Match(catalog *domain.Catalog, in MatchInput) []domain.ProgramMatchResult {
	if catalog == nil {
		return []domain.ProgramMatchResult{}
	}
	results := make([]domain.ProgramMatchResult, 0, len(catalog.Entries))
	for _, entry := range catalog.Entries {
		results = append(results, m.evaluate(catalog, entry, in))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	m.log.Debug("Catalog matched",
		zap.String("territory", in.Profile.Territory),
		zap.String("catalog_version", catalog.Version),
		zap.Int("entries", len(results)),
	)
	return results
}

func (m *Matcher) evaluate(catalog *domain.Catalog, entry domain.ProgramCatalogEntry, in MatchInput) domain.ProgramMatchResult {
	version := entry.Version
	if version == "" {
		version = catalog.Version
	}
	res := domain.ProgramMatchResult{
		ProgramID:      entry.ID,
		ProgramName:    entry.Name,
		Category:       entry.Category,
		Administrator:  entry.Administrator,
		MissingInputs:  []string{},
		NextSteps:      append([]string(nil), entry.NextSteps...),
		Benefits:       append([]string(nil), entry.Benefits...),
		CatalogVersion: version,
	}

	territory := in.Profile.Territory
	if !entry.ServesTerritory(territory) {
		res.Flags = []domain.MatchFlag{domain.FlagTerritoryMismatch}
		res.Because = []string{fmt.Sprintf("program is not offered in territory %s", displayTerritory(territory))}
		res.Status = domain.ResolveMatchStatus(res.Flags, res.MissingInputs, 0)
		return res
	}

	ev := &evaluation{}
	ev.pass("program is offered in territory %s", territory)
	for _, gate := range gates {
		gate(ev, entry, in)
	}

	score := 0.25
	if entry.IsDemandResponse() {
		score += 0.10
		if ls := in.Profile.Constraints.LoadShiftScore; ls != nil {
			score += 0.25 * clamp01(*ls)
		}
		if fit := in.OperationalFit; fit != nil {
			score = clamp01(score * (0.85 + 0.30*fit.Score))
			fitScore := fit.Score
			narrative := fit.Narrative()
			res.DRFitScore = &fitScore
			res.DRFitNarrative = &narrative
		}
	}
	if ev.anyFlag(domain.MatchFlag.IsThreshold) {
		score *= 0.20
	}
	if ev.anyFlag(domain.MatchFlag.IsClassification) {
		score *= 0.15
	}
	if len(ev.missing) > 0 {
		score *= 0.55
	}

	score = clamp01(score)
	res.Because = ev.because
	res.MissingInputs = domain.DedupeFold(ev.missing)
	res.Flags = ev.flags
	res.Status = domain.ResolveMatchStatus(res.Flags, res.MissingInputs, score)
	res.Score = math.Round(score*10000) / 10000
	return res
}

func displayTerritory(t string) string {
	if t == "" {
		return "(unspecified)"
	}
	return t
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
