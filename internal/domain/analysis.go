package domain

// AnalysisRequest is everything one analysis call needs
type AnalysisRequest struct {
	Profile  CustomerProfile    `json:"profile"`
	Interval []RawIntervalPoint `json:"interval,omitempty"`
	// Now is the caller-supplied generation timestamp; the core never reads a clock.
	Now string `json:"now,omitempty"`
}

// AnalysisResult is the deterministic output bundle of one analysis
type AnalysisResult struct {
	Matches         []ProgramMatchResult    `json:"matches"`
	Recommendations []UtilityRecommendation `json:"recommendations"`
	ReviewItems     []ReviewItem            `json:"review_items"`
	Insights        InsightsBundle          `json:"insights"`
}
