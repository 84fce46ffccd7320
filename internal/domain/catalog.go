package domain

import "strings"

// ProgramCategory classifies catalog entries
type ProgramCategory string

const (
	CategoryDemandResponse ProgramCategory = "demand_response"
	CategoryIncentive      ProgramCategory = "incentive"
	CategoryFinancing      ProgramCategory = "financing"
	CategoryRateOption     ProgramCategory = "rate_option"
)

// Catalog is the versioned, read-only program list for one territory
type Catalog struct {
	Territory   string                `json:"territory" yaml:"territory"`
	Version     string                `json:"version" yaml:"version"`
	LastUpdated string                `json:"last_updated" yaml:"lastUpdated"`
	Entries     []ProgramCatalogEntry `json:"entries" yaml:"entries"`
}

// ProgramCatalogEntry describes one enrollment program or rate option
type ProgramCatalogEntry struct {
	ID            string                `json:"id" yaml:"id"`
	Name          string                `json:"name" yaml:"name"`
	Category      ProgramCategory       `json:"category" yaml:"category"`
	Administrator string                `json:"administrator" yaml:"administrator"`
	Territories   []string              `json:"territories" yaml:"territories"`
	Segments      []string              `json:"segments,omitempty" yaml:"segments,omitempty"`
	NAICSInclude  []string              `json:"naics_include,omitempty" yaml:"naicsInclude,omitempty"`
	NAICSExclude  []string              `json:"naics_exclude,omitempty" yaml:"naicsExclude,omitempty"`
	Eligibility   EligibilityThresholds `json:"eligibility" yaml:"eligibility"`
	Benefits      []string              `json:"benefits,omitempty" yaml:"benefits,omitempty"`
	NextSteps     []string              `json:"next_steps,omitempty" yaml:"nextSteps,omitempty"`
	Version       string                `json:"version,omitempty" yaml:"version,omitempty"`
	LastUpdated   string                `json:"last_updated,omitempty" yaml:"lastUpdated,omitempty"`
}

// EligibilityThresholds are the numeric and capability gates of an entry
type EligibilityThresholds struct {
	MinPeakKw            *float64 `json:"min_peak_kw,omitempty" yaml:"minPeakKw,omitempty"`
	MinMonthlyKwh        *float64 `json:"min_monthly_kwh,omitempty" yaml:"minMonthlyKwh,omitempty"`
	MinAnnualKwh         *float64 `json:"min_annual_kwh,omitempty" yaml:"minAnnualKwh,omitempty"`
	RequiresIntervalData bool     `json:"requires_interval_data,omitempty" yaml:"requiresIntervalData,omitempty"`
	RequiresAMI          bool     `json:"requires_ami,omitempty" yaml:"requiresAmi,omitempty"`
}

// ServesTerritory reports whether the entry is offered in the territory
func (e ProgramCatalogEntry) ServesTerritory(territory string) bool {
	for _, t := range e.Territories {
		if strings.EqualFold(t, territory) {
			return true
		}
	}
	return false
}

// IsDemandResponse reports whether the demand-response scoring terms apply
func (e ProgramCatalogEntry) IsDemandResponse() bool {
	return e.Category == CategoryDemandResponse
}
