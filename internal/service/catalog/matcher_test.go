package catalog

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/service/annualize"
)

func f(v float64) *float64 { return &v }
func b(v bool) *bool       { return &v }

func pgeCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	c, err := NewRegistry(zap.NewNop(), "").CatalogFor(context.Background(), "PGE")
	if err != nil {
		t.Fatalf("failed to load PGE catalog: %v", err)
	}
	return c
}

func healthcareProfile() domain.CustomerProfile {
	return domain.CustomerProfile{
		Territory:       "PGE",
		CustomerSegment: "healthcare",
		NAICS:           "622110",
		Billing: domain.BillingSummary{
			AnnualKwh: f(2500000),
			PeakKw:    f(600),
		},
	}.Normalized()
}

func find(t *testing.T, results []domain.ProgramMatchResult, id string) domain.ProgramMatchResult {
	t.Helper()
	for _, r := range results {
		if r.ProgramID == id {
			return r
		}
	}
	t.Fatalf("program %s not in results", id)
	return domain.ProgramMatchResult{}
}

func mentions(items []string, word string) bool {
	for _, item := range items {
		if strings.Contains(strings.ToLower(item), strings.ToLower(word)) {
			return true
		}
	}
	return false
}

func TestMatch_HealthcareProfile(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())

	results := matcher.Match(pgeCatalog(t), MatchInput{Profile: healthcareProfile()})
	got := find(t, results, "pge-healthcare-efficiency")

	if got.Status == domain.MatchStatusUnlikely {
		t.Errorf("expected healthcare program not to be unlikely, flags %v", got.Flags)
	}
	if mentions(got.MissingInputs, "NAICS") {
		t.Errorf("expected no NAICS missing input, got %v", got.MissingInputs)
	}
	if !mentions(got.Because, "matches included prefix 622") {
		t.Errorf("expected NAICS explanation, got %v", got.Because)
	}
}

func TestMatch_HealthcareProfileWithoutNAICS(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	profile := healthcareProfile()
	profile.NAICS = ""

	results := matcher.Match(pgeCatalog(t), MatchInput{Profile: profile})
	got := find(t, results, "pge-healthcare-efficiency")

	if got.Status != domain.MatchStatusUnknown {
		t.Errorf("expected unknown, got %s", got.Status)
	}
	if !mentions(got.MissingInputs, "NAICS") {
		t.Errorf("expected a NAICS missing input, got %v", got.MissingInputs)
	}
	// 0.25 * 0.55
	if got.Score != 0.1375 {
		t.Errorf("expected score 0.1375, got %f", got.Score)
	}
}

func TestMatch_BelowMinimumPeak(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	profile := healthcareProfile()
	profile.Billing.PeakKw = f(150)

	results := matcher.Match(pgeCatalog(t), MatchInput{Profile: profile})
	got := find(t, results, "pge-adr")

	if got.Status != domain.MatchStatusUnlikely {
		t.Errorf("expected unlikely, got %s", got.Status)
	}
	if !got.HasFlag(domain.FlagBelowMinPeakKw) {
		t.Errorf("expected below_minPeakKw flag, got %v", got.Flags)
	}
	if !mentions(got.Because, "derived peak 150 kW is below the 200 kW minimum") {
		t.Errorf("expected the derived peak to be named, got %v", got.Because)
	}
}

func drCatalog() *domain.Catalog {
	return &domain.Catalog{
		Territory: "PGE",
		Version:   "t1",
		Entries: []domain.ProgramCatalogEntry{
			{
				ID:          "dr-50",
				Name:        "Test DR",
				Category:    domain.CategoryDemandResponse,
				Territories: []string{"PGE"},
				Eligibility: domain.EligibilityThresholds{MinPeakKw: f(50)},
			},
		},
	}
}

func TestMatch_ProvenPeakMakesEligible(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	profile := domain.CustomerProfile{
		Territory:   "PGE",
		Constraints: domain.Constraints{LoadShiftScore: f(1.0)},
	}.Normalized()

	withoutProof := matcher.Match(drCatalog(), MatchInput{Profile: profile})[0]
	if withoutProof.Status != domain.MatchStatusUnknown {
		t.Fatalf("expected unknown without any peak, got %s", withoutProof.Status)
	}

	in := MatchInput{
		Profile:        profile,
		Proven:         &domain.ProvenMetrics{ValidSamples: 2880, ProvenPeakKw: f(55)},
		OperationalFit: &domain.OperationalFitResult{Score: 0.5, NextSteps: []string{"step"}},
	}
	got := matcher.Match(drCatalog(), in)[0]

	if got.Status != domain.MatchStatusEligible {
		t.Errorf("expected eligible, got %s (score %f, missing %v)", got.Status, got.Score, got.MissingInputs)
	}
	// (0.25 + 0.10 + 0.25) * (0.85 + 0.30*0.5)
	if got.Score != 0.6 {
		t.Errorf("expected score 0.6, got %f", got.Score)
	}
	if !mentions(got.Because, "proven peak 55 kW meets the 50 kW minimum") {
		t.Errorf("expected proven peak explanation, got %v", got.Because)
	}
	if got.DRFitScore == nil || *got.DRFitScore != 0.5 || got.DRFitNarrative == nil {
		t.Error("expected the operational fit to be attached")
	}
}

func TestMatch_ProvenPreferredOverDerived(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	profile := domain.CustomerProfile{
		Territory: "PGE",
		Billing:   domain.BillingSummary{PeakKw: f(40)},
	}.Normalized()

	got := matcher.Match(drCatalog(), MatchInput{
		Profile: profile,
		Proven:  &domain.ProvenMetrics{ValidSamples: 10, ProvenPeakKw: f(55)},
	})[0]

	if got.HasFlag(domain.FlagBelowMinPeakKw) {
		t.Error("derived peak must not be used when a proven peak exists")
	}
}

func TestMatch_ScalarAnnualEstimatePassesGate(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	catalog := &domain.Catalog{
		Territory: "PGE",
		Version:   "t1",
		Entries: []domain.ProgramCatalogEntry{{
			ID:          "annual-80k",
			Category:    domain.CategoryIncentive,
			Territories: []string{"PGE"},
			Eligibility: domain.EligibilityThresholds{MinAnnualKwh: f(80000)},
		}},
	}
	profile := domain.CustomerProfile{
		Territory: "PGE",
		Billing:   domain.BillingSummary{MonthlyKwh: f(7200)},
	}.Normalized()
	estimate := annualize.FromBilling(profile.Billing)

	if estimate.Kwh != 86400 || estimate.Confidence != 0.45 {
		t.Fatalf("unexpected estimate %+v", estimate)
	}

	got := matcher.Match(catalog, MatchInput{Profile: profile, AnnualEstimate: estimate})[0]

	if got.HasFlag(domain.FlagBelowMinAnnualKwh) || len(got.MissingInputs) > 0 {
		t.Errorf("expected the gate to pass, flags %v missing %v", got.Flags, got.MissingInputs)
	}
	if !mentions(got.Because, "annual estimate") || !mentions(got.Because, "86400") {
		t.Errorf("expected explanation naming the estimate, got %v", got.Because)
	}
}

func TestMatch_ProvenAnnualEstimateOutranksReported(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	catalog := &domain.Catalog{
		Territory: "PGE",
		Version:   "t1",
		Entries: []domain.ProgramCatalogEntry{{
			ID:          "annual-500k",
			Category:    domain.CategoryIncentive,
			Territories: []string{"PGE"},
			Eligibility: domain.EligibilityThresholds{MinAnnualKwh: f(500000)},
		}},
	}
	profile := domain.CustomerProfile{
		Territory: "PGE",
		Billing:   domain.BillingSummary{AnnualKwh: f(12000)},
	}.Normalized()
	estimate := &domain.AnnualEstimate{Kwh: 1752000, MonthsUsed: 12, Confidence: 0.9, Source: domain.EstimateSourceProven}

	got := matcher.Match(catalog, MatchInput{Profile: profile, AnnualEstimate: estimate})[0]

	if got.HasFlag(domain.FlagBelowMinAnnualKwh) {
		t.Errorf("reported usage must not override the proven estimate, because %v", got.Because)
	}
	if !mentions(got.Because, "proven annual estimate (12 fully observed months") {
		t.Errorf("expected explanation naming the proven estimate, got %v", got.Because)
	}

	// a billing estimate still yields to reported annual usage
	estimate.Source = domain.EstimateSourceBilling
	got = matcher.Match(catalog, MatchInput{Profile: profile, AnnualEstimate: estimate})[0]
	if !got.HasFlag(domain.FlagBelowMinAnnualKwh) || !mentions(got.Because, "reported annual usage") {
		t.Errorf("expected reported usage to gate, flags %v because %v", got.Flags, got.Because)
	}
}

func TestMatch_StatusResolvedBeforeRounding(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	catalog := &domain.Catalog{
		Territory: "PGE",
		Version:   "t1",
		Entries: []domain.ProgramCatalogEntry{{
			ID:          "dr-open",
			Category:    domain.CategoryDemandResponse,
			Territories: []string{"PGE"},
		}},
	}
	// 0.35 + 0.25*0.79984 = 0.54996, which rounds to the eligible threshold
	profile := domain.CustomerProfile{
		Territory:   "PGE",
		Constraints: domain.Constraints{LoadShiftScore: f(0.79984)},
	}.Normalized()

	got := matcher.Match(catalog, MatchInput{Profile: profile})[0]

	if got.Score != 0.55 {
		t.Errorf("expected reported score 0.55, got %f", got.Score)
	}
	if got.Status != domain.MatchStatusLikelyEligible {
		t.Errorf("expected likely_eligible below the threshold, got %s", got.Status)
	}
}

func TestMatch_TerritoryMismatchShortCircuits(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	catalog := &domain.Catalog{
		Territory: "PGE",
		Version:   "t1",
		Entries: []domain.ProgramCatalogEntry{{
			ID:          "sce-only",
			Category:    domain.CategoryDemandResponse,
			Territories: []string{"SCE"},
			Segments:    []string{"agriculture"},
			Eligibility: domain.EligibilityThresholds{MinPeakKw: f(500), RequiresAMI: true},
		}},
	}

	got := matcher.Match(catalog, MatchInput{Profile: healthcareProfile()})[0]

	if got.Status != domain.MatchStatusUnlikely || got.Score != 0 {
		t.Errorf("expected unlikely with score 0, got %s %f", got.Status, got.Score)
	}
	if !reflect.DeepEqual(got.Flags, []domain.MatchFlag{domain.FlagTerritoryMismatch}) {
		t.Errorf("expected only the territory flag, got %v", got.Flags)
	}
	if len(got.Because) != 1 || len(got.MissingInputs) != 0 {
		t.Errorf("expected the remaining gates to be skipped, got %v / %v", got.Because, got.MissingInputs)
	}
}

func TestMatch_CapabilityGates(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	catalog := &domain.Catalog{
		Territory: "PGE",
		Version:   "t1",
		Entries: []domain.ProgramCatalogEntry{{
			ID:          "needs-meter",
			Category:    domain.CategoryRateOption,
			Territories: []string{"PGE"},
			Eligibility: domain.EligibilityThresholds{RequiresIntervalData: true, RequiresAMI: true},
		}},
	}

	tests := []struct {
		name        string
		interval    *bool
		ami         *bool
		proven      *domain.ProvenMetrics
		wantStatus  domain.MatchStatus
		wantFlags   int
		wantMissing int
	}{
		{"unknown capabilities", nil, nil, nil, domain.MatchStatusUnknown, 0, 2},
		{"capabilities absent", b(false), b(false), nil, domain.MatchStatusUnknown, 2, 2},
		{"capabilities present", b(true), b(true), nil, domain.MatchStatusLikelyEligible, 0, 0},
		{"proven data implies interval data", b(false), b(true), &domain.ProvenMetrics{ValidSamples: 96}, domain.MatchStatusLikelyEligible, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := domain.CustomerProfile{
				Territory:   "PGE",
				Meter:       domain.MeterInfo{HasAMI: tt.ami},
				Constraints: domain.Constraints{HasIntervalData: tt.interval},
			}.Normalized()

			got := matcher.Match(catalog, MatchInput{Profile: profile, Proven: tt.proven})[0]

			if got.Status != tt.wantStatus {
				t.Errorf("expected %s, got %s", tt.wantStatus, got.Status)
			}
			if len(got.Flags) != tt.wantFlags {
				t.Errorf("expected %d flags, got %v", tt.wantFlags, got.Flags)
			}
			if len(got.MissingInputs) != tt.wantMissing {
				t.Errorf("expected %d missing inputs, got %v", tt.wantMissing, got.MissingInputs)
			}
		})
	}
}

func TestMatch_SortedAndBounded(t *testing.T) {
	matcher := NewMatcher(zap.NewNop())
	profile := healthcareProfile()
	profile.Constraints.LoadShiftScore = f(0.9)
	profile.Constraints.HasIntervalData = b(true)
	profile.Meter.HasAMI = b(true)

	results := matcher.Match(pgeCatalog(t), MatchInput{
		Profile:        profile,
		OperationalFit: &domain.OperationalFitResult{Score: 1},
	})

	for i, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("%s score out of range: %f", r.ProgramID, r.Score)
		}
		if len(r.Because) == 0 {
			t.Errorf("%s has no explanation", r.ProgramID)
		}
		if r.MissingInputs == nil {
			t.Errorf("%s missing inputs must not be nil", r.ProgramID)
		}
		if i > 0 && results[i-1].Score < r.Score {
			t.Errorf("results not sorted at %d", i)
		}
	}
	again := matcher.Match(pgeCatalog(t), MatchInput{
		Profile:        profile,
		OperationalFit: &domain.OperationalFitResult{Score: 1},
	})
	if !reflect.DeepEqual(results, again) {
		t.Error("matching must be deterministic")
	}
}

func TestMatch_MissingInputsDedupedCaseInsensitively(t *testing.T) {
	ev := &evaluation{}
	ev.lack("NAICS code", "a")
	ev.lack("naics CODE", "b")

	got := domain.DedupeFold(ev.missing)

	if len(got) != 1 || got[0] != "NAICS code" {
		t.Errorf("expected first spelling to win, got %v", got)
	}
}
