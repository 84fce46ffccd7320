package domain

// RecommendationKind names what the customer is asked to do
type RecommendationKind string

const (
	KindDemandResponseEnrollment RecommendationKind = "demand_response_enrollment"
	KindIncentiveApplication     RecommendationKind = "incentive_application"
	KindFinancingApplication     RecommendationKind = "financing_application"
	KindRateChange               RecommendationKind = "rate_change"
	KindProgramEnrollment        RecommendationKind = "program_enrollment"
)

// KindForCategory maps a catalog category onto a recommendation kind
func KindForCategory(c ProgramCategory) RecommendationKind {
	switch c {
	case CategoryDemandResponse:
		return KindDemandResponseEnrollment
	case CategoryIncentive:
		return KindIncentiveApplication
	case CategoryFinancing:
		return KindFinancingApplication
	case CategoryRateOption:
		return KindRateChange
	default:
		return KindProgramEnrollment
	}
}

// SuggestedMeasure is the payload a recommendation is bound to
type SuggestedMeasure struct {
	Kind       string            `json:"kind"`
	Label      string            `json:"label"`
	Tags       []string          `json:"tags"`
	Parameters map[string]string `json:"parameters"`
	Narrative  *FitNarrative     `json:"narrative,omitempty"`
}

// UtilityRecommendation is an actionable, confidence-scored suggestion
type UtilityRecommendation struct {
	ID                    string             `json:"id"`
	Kind                  RecommendationKind `json:"kind"`
	ProgramID             string             `json:"program_id"`
	MatchStatus           MatchStatus        `json:"match_status"`
	Score                 float64            `json:"score"`
	Confidence            float64            `json:"confidence"`
	Because               []string           `json:"because"`
	RequiredInputsMissing []string           `json:"requiredInputsMissing"`
	Measure               SuggestedMeasure   `json:"measure"`
}

// ReviewStatus is the lifecycle state of a review-queue item
type ReviewStatus string

const ReviewStatusPending ReviewStatus = "pending_review"

// EvidenceRef points at the evidence backing a review item
type EvidenceRef struct {
	Kind  string `json:"kind"`
	Ref   string `json:"ref"`
	Value string `json:"value,omitempty"`
}

// ReviewItem is a human-confirmable artifact; it is never applied automatically
type ReviewItem struct {
	ID                    string             `json:"id"`
	RecommendationID      string             `json:"recommendation_id"`
	Kind                  RecommendationKind `json:"kind"`
	Status                ReviewStatus       `json:"status"`
	AutoApply             bool               `json:"auto_apply"`
	Score                 float64            `json:"score"`
	Confidence            float64            `json:"confidence"`
	Because               []string           `json:"because"`
	RequiredInputsMissing []string           `json:"requiredInputsMissing"`
	Evidence              []EvidenceRef      `json:"evidence"`
	Measure               SuggestedMeasure   `json:"measure"`
	CreatedAt             string             `json:"created_at,omitempty"`
}
