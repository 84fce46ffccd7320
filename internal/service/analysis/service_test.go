package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/mocks"
	"github.com/seu-repo/utility-advisor/internal/service/catalog"
)

func f(v float64) *float64 { return &v }
func boolPtr(v bool) *bool { return &v }

func newTestService(deps Dependencies) *Service {
	if deps.Catalogs == nil {
		deps.Catalogs = catalog.NewRegistry(zap.NewNop(), "")
	}
	if deps.IDs == nil {
		deps.IDs = &mocks.MockIDFactory{}
	}
	return NewService(zap.NewNop(), nil, deps)
}

func healthcareRequest() domain.AnalysisRequest {
	return domain.AnalysisRequest{
		Profile: domain.CustomerProfile{
			OrgID:           "org-1",
			Site:            domain.Site{ID: "site-1"},
			Territory:       "PGE",
			CustomerSegment: "healthcare",
			NAICS:           "622110",
			Billing: domain.BillingSummary{
				AnnualKwh: f(2500000),
				PeakKw:    f(600),
			},
		},
		Now: "2025-10-01T00:00:00Z",
	}
}

// julyInterval returns one fully observed month of hourly samples in Pacific time
func julyInterval() []domain.RawIntervalPoint {
	la, _ := time.LoadLocation("America/Los_Angeles")
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, la)
	var raw []domain.RawIntervalPoint
	for t := start; t.Before(start.AddDate(0, 1, 0)); t = t.Add(time.Hour) {
		load := 200.0
		if t.Hour() >= 13 && t.Hour() < 17 {
			load = 450
		}
		raw = append(raw, domain.RawIntervalPoint{Timestamp: t.Format(time.RFC3339), KW: f(load)})
	}
	return raw
}

func findMatch(results []domain.ProgramMatchResult, id string) *domain.ProgramMatchResult {
	for i := range results {
		if results[i].ProgramID == id {
			return &results[i]
		}
	}
	return nil
}

func TestAnalyze_HealthcareProfile(t *testing.T) {
	service := newTestService(Dependencies{})

	result, err := service.Analyze(context.Background(), healthcareRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := findMatch(result.Matches, "pge-healthcare-efficiency")
	if m == nil {
		t.Fatal("expected the healthcare program to be evaluated")
	}
	if m.Status == domain.MatchStatusUnlikely {
		t.Errorf("expected healthcare program not to be unlikely, got flags %v", m.Flags)
	}
	for _, item := range result.Insights.MissingInformation {
		if item.ID == "naics" {
			t.Error("NAICS was supplied and must not be reported missing")
		}
	}
	if result.Insights.CatalogVersion == "" || result.Insights.Zone != "America/Los_Angeles" {
		t.Errorf("unexpected insights header: %+v", result.Insights)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if len(result.ReviewItems) != len(result.Recommendations) {
		t.Errorf("expected one review item per recommendation")
	}
	for _, item := range result.ReviewItems {
		if item.AutoApply || item.Status != domain.ReviewStatusPending {
			t.Errorf("review item %s must be pending and never auto-applied", item.ID)
		}
	}
	if len(result.Insights.OperationalFit.NextSteps) == 0 {
		t.Error("operational fit checklist must never be empty")
	}
}

func TestAnalyze_MissingNAICSIsReportedOnce(t *testing.T) {
	service := newTestService(Dependencies{})
	req := healthcareRequest()
	req.Profile.NAICS = ""

	result, err := service.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := findMatch(result.Matches, "pge-healthcare-efficiency")
	if m.Status != domain.MatchStatusUnknown {
		t.Errorf("expected unknown, got %s", m.Status)
	}

	seen := map[string]int{}
	for _, item := range result.Insights.MissingInformation {
		seen[item.ID]++
	}
	if seen["naics"] != 1 {
		t.Errorf("expected exactly one NAICS checklist item, got %d", seen["naics"])
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("checklist item %s appears %d times", id, n)
		}
	}
}

func TestAnalyze_FirstMissingItemWins(t *testing.T) {
	service := newTestService(Dependencies{})

	result, _ := service.Analyze(context.Background(), healthcareRequest())

	for _, item := range result.Insights.MissingInformation {
		if item.ID == "interval_data" && item.Source != "interval" {
			t.Errorf("expected the interval subsystem's item to win, got source %s", item.Source)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	req := healthcareRequest()
	req.Interval = julyInterval()
	req.Profile.Constraints.LoadShiftScore = f(0.7)
	req.Profile.Constraints.ScheduleType = domain.ScheduleBusinessHours

	first, err := NewService(zap.NewNop(), nil, Dependencies{Catalogs: catalog.NewRegistry(zap.NewNop(), "")}).Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewService(zap.NewNop(), nil, Dependencies{Catalogs: catalog.NewRegistry(zap.NewNop(), "")}).Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("identical requests must produce byte-identical output")
	}
}

func TestAnalyze_WeatherFailureBecomesWarning(t *testing.T) {
	weather := &mocks.MockWeatherProvider{
		TemperaturesFunc: func(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.WeatherPoint, error) {
			return nil, &url.Error{Op: "Get", URL: "https://api.open-meteo.com", Err: errors.New("connection refused")}
		},
	}
	service := newTestService(Dependencies{Weather: weather})
	req := healthcareRequest()
	req.Interval = julyInterval()
	req.Profile.Site.Latitude = f(37.77)
	req.Profile.Site.Longitude = f(-122.42)

	result, err := service.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("weather failures must not abort the analysis: %v", err)
	}

	if weather.Calls != 1 {
		t.Errorf("expected one weather call, got %d", weather.Calls)
	}
	if len(result.Insights.Warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", result.Insights.Warnings)
	}
	w := result.Insights.Warnings[0]
	if w.Code != "weather_fetch_temperatures_failed" || w.Subsystem != "weather" || w.ErrorClass != "*url.Error" || w.ContextKey != "site.coordinates" {
		t.Errorf("unexpected warning %+v", w)
	}
	if result.Insights.WeatherCorrelation != nil {
		t.Error("expected no correlation after a failed fetch")
	}
	if len(result.Matches) == 0 || result.Insights.ProvenMetrics.ProvenMonth == nil {
		t.Error("the rest of the pipeline must still run")
	}
}

func TestAnalyze_WeatherPanicIsContained(t *testing.T) {
	weather := &mocks.MockWeatherProvider{
		TemperaturesFunc: func(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.WeatherPoint, error) {
			panic("provider exploded")
		},
	}
	service := newTestService(Dependencies{Weather: weather})
	req := healthcareRequest()
	req.Interval = julyInterval()
	req.Profile.Site.Latitude = f(37.77)
	req.Profile.Site.Longitude = f(-122.42)

	result, err := service.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Insights.Warnings) != 1 || result.Insights.Warnings[0].Code != "weather_fetch_temperatures_panicked" {
		t.Errorf("expected a panic warning, got %+v", result.Insights.Warnings)
	}
	if result.Insights.Warnings[0].ErrorClass != "string" {
		t.Errorf("expected the panic value type, got %s", result.Insights.Warnings[0].ErrorClass)
	}
}

func TestAnalyze_WeatherCorrelationWhenProviderSucceeds(t *testing.T) {
	weather := &mocks.MockWeatherProvider{
		TemperaturesFunc: func(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.WeatherPoint, error) {
			var out []domain.WeatherPoint
			for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
				out = append(out, domain.WeatherPoint{At: d.Add(12 * time.Hour), TempC: 20 + float64(d.Day()%5)})
			}
			return out, nil
		},
	}
	service := newTestService(Dependencies{Weather: weather})
	req := healthcareRequest()
	req.Interval = julyInterval()
	req.Profile.Site.Latitude = f(37.77)
	req.Profile.Site.Longitude = f(-122.42)

	result, _ := service.Analyze(context.Background(), req)

	if result.Insights.WeatherCorrelation == nil {
		t.Fatal("expected a weather correlation")
	}
	if result.Insights.WeatherCorrelation.Days != 31 {
		t.Errorf("expected 31 paired days, got %d", result.Insights.WeatherCorrelation.Days)
	}
	if len(result.Insights.Warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", result.Insights.Warnings)
	}
}

func TestAnalyze_TelemetryLoader(t *testing.T) {
	t.Run("loads interval by reference", func(t *testing.T) {
		var gotRef string
		loader := &mocks.MockTelemetryLoader{
			LoadIntervalFunc: func(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error) {
				gotRef = ref
				return julyInterval(), nil
			},
		}
		req := healthcareRequest()
		req.Profile.IntervalRef = "meter-42"

		result, _ := newTestService(Dependencies{Telemetry: loader}).Analyze(context.Background(), req)

		if gotRef != "meter-42" {
			t.Errorf("expected loader to receive the reference, got %q", gotRef)
		}
		if !result.Insights.ProvenMetrics.HasData() {
			t.Error("expected proven metrics from loaded telemetry")
		}
	})

	t.Run("no data is not a failure", func(t *testing.T) {
		loader := &mocks.MockTelemetryLoader{
			LoadIntervalFunc: func(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error) {
				return nil, domain.ErrNoIntervalData
			},
		}
		req := healthcareRequest()
		req.Profile.IntervalRef = "meter-42"

		result, _ := newTestService(Dependencies{Telemetry: loader}).Analyze(context.Background(), req)

		if len(result.Insights.Warnings) != 0 {
			t.Errorf("expected no warnings, got %+v", result.Insights.Warnings)
		}
	})

	t.Run("loader error becomes warning", func(t *testing.T) {
		loader := &mocks.MockTelemetryLoader{
			LoadIntervalFunc: func(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error) {
				return nil, errors.New("database unavailable")
			},
		}
		req := healthcareRequest()
		req.Profile.IntervalRef = "meter-42"

		result, err := newTestService(Dependencies{Telemetry: loader}).Analyze(context.Background(), req)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Insights.Warnings) != 1 || result.Insights.Warnings[0].Subsystem != "telemetry" {
			t.Errorf("expected a telemetry warning, got %+v", result.Insights.Warnings)
		}
	})
}

// yearInterval returns twelve fully observed months of flat 200 kW hourly samples
func yearInterval() []domain.RawIntervalPoint {
	la, _ := time.LoadLocation("America/Los_Angeles")
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, la)
	end := start.AddDate(1, 0, 0)
	var raw []domain.RawIntervalPoint
	for t := start; t.Before(end); t = t.Add(time.Hour) {
		raw = append(raw, domain.RawIntervalPoint{Timestamp: t.Format(time.RFC3339), KW: f(200)})
	}
	return raw
}

func TestAnalyze_ProvenAnnualEstimateOutranksBilling(t *testing.T) {
	req := healthcareRequest()
	req.Profile.Billing = domain.BillingSummary{MonthlyKwh: f(1000)}
	req.Interval = yearInterval()

	result, err := newTestService(Dependencies{}).Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	est := result.Insights.AnnualEstimate
	if est == nil || est.Source != domain.EstimateSourceProven {
		t.Fatalf("expected a proven estimate, got %+v", est)
	}
	if est.MonthsUsed != 12 || est.Confidence != 0.90 || est.Kwh < 1700000 {
		t.Errorf("expected a summed year of interval energy, got %+v", est)
	}

	m := findMatch(result.Matches, "pge-healthcare-efficiency")
	if m == nil {
		t.Fatal("expected the healthcare program to be evaluated")
	}
	if m.HasFlag(domain.FlagBelowMinAnnualKwh) {
		t.Errorf("proven annual energy must satisfy the annual minimum, because %v", m.Because)
	}
	found := false
	for _, line := range m.Because {
		if strings.Contains(line, "proven annual estimate") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the annual gate to name the proven estimate, got %v", m.Because)
	}
}

func TestAnalyze_BillingEstimateWithoutInterval(t *testing.T) {
	req := healthcareRequest()
	req.Profile.Billing = domain.BillingSummary{MonthlyKwh: f(1000)}

	result, err := newTestService(Dependencies{}).Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	est := result.Insights.AnnualEstimate
	if est == nil || est.Source != domain.EstimateSourceBilling || est.Kwh != 12000 {
		t.Errorf("expected the billed scalar to be annualized, got %+v", est)
	}
}

func TestAnalyze_OperationalFitReweightNeedsObservedDays(t *testing.T) {
	t.Run("no interval data", func(t *testing.T) {
		req := healthcareRequest()
		req.Profile.Meter.HasAMI = boolPtr(true)

		result, err := newTestService(Dependencies{}).Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		bip := findMatch(result.Matches, "pge-bip")
		if bip == nil {
			t.Fatal("expected pge-bip to be evaluated")
		}
		if bip.DRFitScore != nil || bip.DRFitNarrative != nil {
			t.Errorf("a fit without observed days must not be attached, got %v", bip.DRFitScore)
		}
		// 0.25 base + 0.10 demand response, no reweight
		if bip.Score != 0.35 {
			t.Errorf("expected score 0.35, got %f", bip.Score)
		}
		if result.Insights.OperationalFit == nil || len(result.Insights.OperationalFit.NextSteps) == 0 {
			t.Error("the fit summary is still reported in insights")
		}
	})

	t.Run("observed days", func(t *testing.T) {
		req := healthcareRequest()
		req.Profile.Meter.HasAMI = boolPtr(true)
		req.Interval = julyInterval()

		result, err := newTestService(Dependencies{}).Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		bip := findMatch(result.Matches, "pge-bip")
		if bip == nil || bip.DRFitScore == nil {
			t.Fatal("expected the operational fit to be attached to pge-bip")
		}
		if result.Insights.OperationalFit.DaysObserved == 0 {
			t.Error("expected observed days")
		}
	})
}

func TestAnalyze_BillTextFillsGaps(t *testing.T) {
	req := healthcareRequest()
	req.Profile.Billing = domain.BillingSummary{}
	req.Profile.RawBillText = "Rate Schedule: B-19\nTotal Usage: 7,200 kWh\nMax Demand: 250 kW"

	result, err := newTestService(Dependencies{}).Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Insights.BillFacts == nil || result.Insights.BillFacts.RateCode != "B-19" {
		t.Fatalf("expected bill facts, got %+v", result.Insights.BillFacts)
	}
	if len(result.Insights.FilledFromBill) != 3 {
		t.Errorf("expected 3 filled fields, got %v", result.Insights.FilledFromBill)
	}
	est := result.Insights.AnnualEstimate
	if est == nil || est.Kwh != 86400 || est.Confidence != 0.45 {
		t.Errorf("expected scalar annualization from the bill, got %+v", est)
	}
	adr := findMatch(result.Matches, "pge-adr")
	if adr.HasFlag(domain.FlagBelowMinPeakKw) {
		t.Error("bill demand of 250 kW must satisfy the 200 kW minimum")
	}
}

func TestAnalyze_UnknownTerritoryDegrades(t *testing.T) {
	req := healthcareRequest()
	req.Profile.Territory = "ATLANTIS"

	result, err := newTestService(Dependencies{}).Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Matches) != 0 || len(result.Recommendations) != 0 {
		t.Error("expected no matches without a catalog")
	}
	codes := map[string]bool{}
	for _, w := range result.Insights.Warnings {
		codes[w.Code] = true
	}
	if !codes["catalog_load_failed"] || !codes["interval_zone_unresolved"] {
		t.Errorf("expected catalog and zone warnings, got %+v", result.Insights.Warnings)
	}
}

func TestAnalyze_InvalidProfileIsRejected(t *testing.T) {
	req := healthcareRequest()
	req.Profile.Constraints.LoadShiftScore = f(1.5)

	_, err := newTestService(Dependencies{}).Analyze(context.Background(), req)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestSortRecommendations_TotalOrder(t *testing.T) {
	recs := []domain.UtilityRecommendation{
		{ProgramID: "d", Kind: domain.KindRateChange, Score: 0.25, Confidence: 0.60},
		{ProgramID: "c", Kind: domain.KindIncentiveApplication, Score: 0.25, Confidence: 0.60},
		{ProgramID: "b", Kind: domain.KindFinancingApplication, Score: 0.25, Confidence: 0.80},
		{ProgramID: "a", Kind: domain.KindDemandResponseEnrollment, Score: 0.60, Confidence: 0.35},
	}

	sortRecommendations(recs)

	want := []string{"a", "b", "c", "d"}
	for i, id := range want {
		if recs[i].ProgramID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, recs[i].ProgramID)
		}
	}
}

func TestMissingID(t *testing.T) {
	if got := missingID("Interval data (15-minute readings)"); got != "interval_data_15_minute_readings" {
		t.Errorf("unexpected id %q", got)
	}
	if checklistID(catalog.MissingNAICS) != "naics" {
		t.Error("catalog inputs must map onto shared checklist ids")
	}
}
