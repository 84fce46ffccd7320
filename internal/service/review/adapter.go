package review

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/ports"
)

// Evidence kinds attached to review items
const (
	EvidenceProgram        = "program"
	EvidenceMatchStatus    = "match_status"
	EvidenceProvenMetrics  = "proven_metrics"
	EvidenceAnnualEstimate = "annual_estimate"
	EvidenceBillText       = "bill_text"
	EvidenceOperationalFit = "operational_fit"
)

// Adapter converts recommendations into human-review items
type Adapter struct {
	log *zap.Logger
	ids ports.IDFactory
}

// NewAdapter creates a new review-queue adapter
func NewAdapter(log *zap.Logger, ids ports.IDFactory) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{log: log, ids: ids}
}

// Build creates one pending item per recommendation. Items are never marked for
// automatic application. insights may be nil.
func (a *Adapter) Build(recs []domain.UtilityRecommendation, insights *domain.InsightsBundle, createdAt string) []domain.ReviewItem {
	items := make([]domain.ReviewItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, domain.ReviewItem{
			ID:                    a.ids.NewID("review", rec.ID),
			RecommendationID:      rec.ID,
			Kind:                  rec.Kind,
			Status:                domain.ReviewStatusPending,
			AutoApply:             false,
			Score:                 rec.Score,
			Confidence:            rec.Confidence,
			Because:               append([]string(nil), rec.Because...),
			RequiredInputsMissing: append([]string{}, rec.RequiredInputsMissing...),
			Evidence:              evidenceFor(rec, insights),
			Measure:               rec.Measure,
			CreatedAt:             createdAt,
		})
	}
	a.log.Debug("Review items built", zap.Int("items", len(items)))
	return items
}

func evidenceFor(rec domain.UtilityRecommendation, insights *domain.InsightsBundle) []domain.EvidenceRef {
	refs := []domain.EvidenceRef{
		{Kind: EvidenceProgram, Ref: rec.ProgramID, Value: rec.Measure.Parameters["catalog_version"]},
		{Kind: EvidenceMatchStatus, Ref: rec.ProgramID, Value: string(rec.MatchStatus)},
	}
	if insights == nil {
		return refs
	}
	if pm := insights.ProvenMetrics; pm != nil && pm.ProvenMonth != nil {
		refs = append(refs, domain.EvidenceRef{
			Kind:  EvidenceProvenMetrics,
			Ref:   pm.ProvenMonth.Month,
			Value: fmt.Sprintf("peak %.1f kW, %.0f kWh", pm.ProvenMonth.PeakKw, pm.ProvenMonth.EnergyKwh),
		})
	}
	if est := insights.AnnualEstimate; est != nil {
		refs = append(refs, domain.EvidenceRef{
			Kind:  EvidenceAnnualEstimate,
			Ref:   fmt.Sprintf("%d months", est.MonthsUsed),
			Value: fmt.Sprintf("%.0f kWh at confidence %.2f", est.Kwh, est.Confidence),
		})
	}
	if facts := insights.BillFacts; facts != nil && len(facts.Fields) > 0 {
		refs = append(refs, domain.EvidenceRef{
			Kind:  EvidenceBillText,
			Ref:   facts.BillingPeriod,
			Value: fmt.Sprintf("%d fields extracted", len(facts.Fields)),
		})
	}
	if fit := insights.OperationalFit; fit != nil && rec.Kind == domain.KindDemandResponseEnrollment {
		refs = append(refs, domain.EvidenceRef{
			Kind:  EvidenceOperationalFit,
			Ref:   string(fit.Schedule),
			Value: fmt.Sprintf("%.2f", fit.Score),
		})
	}
	return refs
}
