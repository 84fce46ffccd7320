package domain

import "time"

// AnnualEstimate is a tiered projection of annual energy. The tier is implied by
// MonthsUsed: 12 means summed, 1-11 means annualized mean, 0 means annualized scalar.
type AnnualEstimate struct {
	Kwh        float64        `json:"kwh"`
	MonthsUsed int            `json:"months_used"`
	Confidence float64        `json:"confidence"`
	Source     EstimateSource `json:"source"`
	Because    []string       `json:"because"`
}

// EstimateSource names the evidence an annual estimate was projected from
type EstimateSource string

const (
	EstimateSourceProven  EstimateSource = "proven"
	EstimateSourceBilling EstimateSource = "billing"
)

// FitNarrative is the human-readable part of an operational-fit result
type FitNarrative struct {
	WhyNow    []string `json:"why_now"`
	WhyNotNow []string `json:"why_not_now"`
	NextSteps []string `json:"next_steps"`
}

// OperationalFitResult scores demand-response suitability
type OperationalFitResult struct {
	Score                   float64      `json:"score"`
	Repeatability           *float64     `json:"repeatability,omitempty"`
	AvgNearMaxSamplesPerDay *float64     `json:"avg_near_max_samples_per_day,omitempty"`
	DaysObserved            int          `json:"days_observed"`
	Spiky                   bool         `json:"spiky"`
	Schedule                ScheduleType `json:"schedule"`
	WhyNow                  []string     `json:"why_now"`
	WhyNotNow               []string     `json:"why_not_now"`
	Flags                   []string     `json:"flags"`
	NextSteps               []string     `json:"next_steps"`
}

// Narrative extracts the narrative lists
func (r OperationalFitResult) Narrative() FitNarrative {
	return FitNarrative{WhyNow: r.WhyNow, WhyNotNow: r.WhyNotNow, NextSteps: r.NextSteps}
}

// WeatherPoint is a single temperature observation
type WeatherPoint struct {
	At    time.Time `json:"at"`
	TempC float64   `json:"temp_c"`
}

// WeatherSensitivity labels how load responds to temperature
type WeatherSensitivity string

const (
	SensitivityCooling     WeatherSensitivity = "cooling_driven"
	SensitivityHeating     WeatherSensitivity = "heating_driven"
	SensitivityInsensitive WeatherSensitivity = "weather_insensitive"
)

// WeatherCorrelation relates daily energy to daily mean temperature
type WeatherCorrelation struct {
	Days        int                `json:"days"`
	Coefficient float64            `json:"coefficient"`
	Sensitivity WeatherSensitivity `json:"sensitivity"`
	Because     []string           `json:"because"`
}

// BillFacts are the values recovered from raw bill text
type BillFacts struct {
	RateCode      string   `json:"rate_code,omitempty"`
	BillingPeriod string   `json:"billing_period,omitempty"`
	TotalKwh      *float64 `json:"total_kwh,omitempty"`
	MaxDemandKw   *float64 `json:"max_demand_kw,omitempty"`
	AmountDue     string   `json:"amount_due,omitempty"`
	Fields        []string `json:"fields"`
}

// MissingInfoItem is one entry of the aggregated missing-information checklist
type MissingInfoItem struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Source string `json:"source"`
}

// AnalysisWarning records a contained sub-analysis failure. It never carries raw error
// text, stack traces or personal data.
type AnalysisWarning struct {
	Code       string `json:"code"`
	Subsystem  string `json:"subsystem"`
	Operation  string `json:"operation"`
	ErrorClass string `json:"error_class,omitempty"`
	ContextKey string `json:"context_key,omitempty"`
}

// InsightsBundle aggregates every derived metric of one analysis
type InsightsBundle struct {
	GeneratedAt        string                `json:"generated_at,omitempty"`
	Territory          string                `json:"territory"`
	Zone               string                `json:"zone"`
	CatalogVersion     string                `json:"catalog_version,omitempty"`
	ProvenMetrics      *ProvenMetrics        `json:"proven_metrics,omitempty"`
	AnnualEstimate     *AnnualEstimate       `json:"annual_estimate,omitempty"`
	OperationalFit     *OperationalFitResult `json:"operational_fit,omitempty"`
	WeatherCorrelation *WeatherCorrelation   `json:"weather_correlation,omitempty"`
	BillFacts          *BillFacts            `json:"bill_facts,omitempty"`
	FilledFromBill     []string              `json:"filled_from_bill,omitempty"`
	MissingInformation []MissingInfoItem     `json:"missing_information"`
	Warnings           []AnalysisWarning     `json:"warnings"`
}
