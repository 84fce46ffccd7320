package domain

import "strings"

// MatchStatus is the eligibility verdict for one catalog entry
type MatchStatus string

const (
	MatchStatusEligible       MatchStatus = "eligible"
	MatchStatusLikelyEligible MatchStatus = "likely_eligible"
	MatchStatusUnlikely       MatchStatus = "unlikely"
	MatchStatusUnknown        MatchStatus = "unknown"
)

// MatchFlag is a structured gate outcome
type MatchFlag string

const (
	FlagTerritoryMismatch    MatchFlag = "territory_mismatch"
	FlagSegmentMismatch      MatchFlag = "segment_mismatch"
	FlagNAICSExcluded        MatchFlag = "naics_excluded"
	FlagNAICSNotIncluded     MatchFlag = "naics_not_included"
	FlagBelowMinPeakKw       MatchFlag = "below_minPeakKw"
	FlagBelowMinMonthlyKwh   MatchFlag = "below_minMonthlyKwh"
	FlagBelowMinAnnualKwh    MatchFlag = "below_minAnnualKwh"
	FlagIntervalDataRequired MatchFlag = "interval_data_required"
	FlagAMIRequired          MatchFlag = "ami_required"
)

var hardFailFlags = map[MatchFlag]bool{
	FlagTerritoryMismatch:  true,
	FlagSegmentMismatch:    true,
	FlagNAICSExcluded:      true,
	FlagNAICSNotIncluded:   true,
	FlagBelowMinPeakKw:     true,
	FlagBelowMinMonthlyKwh: true,
	FlagBelowMinAnnualKwh:  true,
}

// IsHardFail reports whether the flag forces an unlikely verdict
func (f MatchFlag) IsHardFail() bool {
	return hardFailFlags[f]
}

// IsThreshold reports whether the flag is a below-minimum numeric rejection
func (f MatchFlag) IsThreshold() bool {
	return f == FlagBelowMinPeakKw || f == FlagBelowMinMonthlyKwh || f == FlagBelowMinAnnualKwh
}

// IsClassification reports whether the flag is a segment or NAICS rejection
func (f MatchFlag) IsClassification() bool {
	return f == FlagSegmentMismatch || f == FlagNAICSExcluded || f == FlagNAICSNotIncluded
}

// ResolveMatchStatus derives the verdict from gate outcomes; nothing else may set it
func ResolveMatchStatus(flags []MatchFlag, missing []string, score float64) MatchStatus {
	for _, f := range flags {
		if f.IsHardFail() {
			return MatchStatusUnlikely
		}
	}
	if len(missing) > 0 {
		return MatchStatusUnknown
	}
	if score >= EligibleScoreThreshold {
		return MatchStatusEligible
	}
	return MatchStatusLikelyEligible
}

// EligibleScoreThreshold separates eligible from likely_eligible
const EligibleScoreThreshold = 0.55

// ProgramMatchResult is the scored, explained outcome of gating one catalog entry
type ProgramMatchResult struct {
	ProgramID      string          `json:"program_id"`
	ProgramName    string          `json:"program_name"`
	Category       ProgramCategory `json:"category"`
	Administrator  string          `json:"administrator,omitempty"`
	Status         MatchStatus     `json:"status"`
	Score          float64         `json:"score"`
	Because        []string        `json:"because"`
	MissingInputs  []string        `json:"missing_inputs"`
	Flags          []MatchFlag     `json:"flags,omitempty"`
	DRFitScore     *float64        `json:"dr_fit_score,omitempty"`
	DRFitNarrative *FitNarrative   `json:"dr_fit_narrative,omitempty"`
	NextSteps      []string        `json:"next_steps,omitempty"`
	Benefits       []string        `json:"benefits,omitempty"`
	CatalogVersion string          `json:"catalog_version,omitempty"`
}

// HasFlag reports whether the flag was raised
func (r ProgramMatchResult) HasFlag(flag MatchFlag) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// DedupeFold removes case-insensitive duplicates, keeping the first spelling and order
func DedupeFold(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
