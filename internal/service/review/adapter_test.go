package review

import (
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/mocks"
)

func recommendation(id string, kind domain.RecommendationKind) domain.UtilityRecommendation {
	return domain.UtilityRecommendation{
		ID:                    id,
		Kind:                  kind,
		ProgramID:             "pge-" + id,
		MatchStatus:           domain.MatchStatusLikelyEligible,
		Score:                 0.4,
		Confidence:            0.6,
		Because:               []string{"program is offered in territory PGE"},
		RequiredInputsMissing: []string{},
		Measure: domain.SuggestedMeasure{
			Kind:       string(kind),
			Parameters: map[string]string{"catalog_version": "2025.2"},
		},
	}
}

func TestBuild_PendingAndNeverAutoApplied(t *testing.T) {
	adapter := NewAdapter(zap.NewNop(), &mocks.MockIDFactory{})
	recs := []domain.UtilityRecommendation{
		recommendation("r1", domain.KindIncentiveApplication),
		recommendation("r2", domain.KindFinancingApplication),
	}

	items := adapter.Build(recs, nil, "2025-10-01T00:00:00Z")

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for i, item := range items {
		if item.Status != domain.ReviewStatusPending {
			t.Errorf("item %d: expected pending status, got %s", i, item.Status)
		}
		if item.AutoApply {
			t.Errorf("item %d: must never auto-apply", i)
		}
		if item.RecommendationID != recs[i].ID {
			t.Errorf("item %d: expected recommendation id %s, got %s", i, recs[i].ID, item.RecommendationID)
		}
		if len(item.Evidence) != 2 {
			t.Errorf("item %d: expected program and status evidence, got %v", i, item.Evidence)
		}
		if item.CreatedAt != "2025-10-01T00:00:00Z" {
			t.Errorf("item %d: expected injected timestamp, got %s", i, item.CreatedAt)
		}
	}
	if items[0].ID != "review:r1" {
		t.Errorf("expected id from factory, got %s", items[0].ID)
	}
}

func TestBuild_EvidenceFromInsights(t *testing.T) {
	adapter := NewAdapter(zap.NewNop(), &mocks.MockIDFactory{})
	peak, kwh := 55.0, 20000.0
	insights := &domain.InsightsBundle{
		ProvenMetrics: &domain.ProvenMetrics{
			ProvenMonth:      &domain.MonthlyAggregate{Month: "2025-08", PeakKw: peak, EnergyKwh: kwh},
			ProvenPeakKw:     &peak,
			ProvenMonthlyKwh: &kwh,
		},
		AnnualEstimate: &domain.AnnualEstimate{Kwh: 240000, MonthsUsed: 12, Confidence: 0.9},
		BillFacts:      &domain.BillFacts{BillingPeriod: "08/01/2025 - 08/31/2025", Fields: []string{"rate_code"}},
		OperationalFit: &domain.OperationalFitResult{Score: 0.7, Schedule: domain.ScheduleBusinessHours},
	}

	items := adapter.Build([]domain.UtilityRecommendation{
		recommendation("dr", domain.KindDemandResponseEnrollment),
		recommendation("inc", domain.KindIncentiveApplication),
	}, insights, "")

	kinds := func(item domain.ReviewItem) map[string]bool {
		out := map[string]bool{}
		for _, e := range item.Evidence {
			out[e.Kind] = true
		}
		return out
	}
	dr := kinds(items[0])
	for _, k := range []string{EvidenceProvenMetrics, EvidenceAnnualEstimate, EvidenceBillText, EvidenceOperationalFit} {
		if !dr[k] {
			t.Errorf("expected %s evidence on the demand-response item", k)
		}
	}
	if kinds(items[1])[EvidenceOperationalFit] {
		t.Error("operational fit evidence belongs only to demand-response items")
	}
}
