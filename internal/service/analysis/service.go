package analysis

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/ports"
	"github.com/seu-repo/utility-advisor/internal/service/annualize"
	"github.com/seu-repo/utility-advisor/internal/service/billtext"
	"github.com/seu-repo/utility-advisor/internal/service/catalog"
	"github.com/seu-repo/utility-advisor/internal/service/interval"
	"github.com/seu-repo/utility-advisor/internal/service/opfit"
	"github.com/seu-repo/utility-advisor/internal/service/recommendation"
	"github.com/seu-repo/utility-advisor/internal/service/review"
	"github.com/seu-repo/utility-advisor/internal/service/weather"
)

// Config holds orchestrator settings
type Config struct {
	DefaultZone             string
	FallbackIntervalMinutes int
	MaxRecommendations      int
	NarrativeLineCap        int
}

// DefaultConfig returns the default orchestrator configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultZone:             "UTC",
		FallbackIntervalMinutes: 15,
		MaxRecommendations:      recommendation.MaxRecommendations,
		NarrativeLineCap:        3,
	}
}

// Dependencies are the collaborators of the orchestrator. Only Catalogs is required.
// When IDs is nil each request gets a deterministic factory keyed by the request.
type Dependencies struct {
	Catalogs  ports.CatalogRepository
	Telemetry ports.TelemetryLoader
	Weather   ports.WeatherProvider
	IDs       ports.IDFactory
}

// Service runs the full evaluation pipeline for one request
type Service struct {
	log        *zap.Logger
	config     *Config
	deps       Dependencies
	tracer     trace.Tracer
	interval   *interval.Service
	fit        *opfit.Scorer
	matcher    *catalog.Matcher
	bills      *billtext.Extractor
	correlator *weather.Correlator
}

var _ ports.AnalysisService = (*Service)(nil)

// NewService creates a new analysis orchestrator
func NewService(log *zap.Logger, config *Config, deps Dependencies) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &Service{
		log:        log,
		config:     config,
		deps:       deps,
		tracer:     otel.Tracer("utility-advisor/analysis"),
		interval:   interval.NewService(log),
		fit:        opfit.NewScorer(log, nil),
		matcher:    catalog.NewMatcher(log),
		bills:      billtext.NewExtractor(log),
		correlator: weather.NewCorrelator(log),
	}
}

// Analyze evaluates one profile. Only a structurally invalid profile returns an error;
// missing evidence and collaborator failures degrade the result instead.
func (s *Service) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	profile := req.Profile.Normalized()

	ctx, span := s.tracer.Start(ctx, "analysis.Analyze",
		trace.WithAttributes(attribute.String("territory", profile.Territory)),
	)
	defer span.End()

	col := newCollector()
	insights := domain.InsightsBundle{
		GeneratedAt: req.Now,
		Territory:   profile.Territory,
	}

	// Bill text may fill profile gaps, so it runs before anything reads the profile.
	if profile.RawBillText != "" {
		var facts *domain.BillFacts
		col.add(s.guard(ctx, "billtext", "extract", "raw_bill_text", func(context.Context) error {
			var err error
			facts, err = s.bills.Extract(profile.RawBillText)
			return err
		}))
		if facts != nil {
			insights.BillFacts = facts
			insights.FilledFromBill = billtext.FillProfile(&profile, facts)
		}
	}

	loc, zone, resolved := interval.ResolveZone(profile.Territory, s.config.DefaultZone)
	insights.Zone = zone
	if !resolved && profile.Territory != "" {
		col.warn(domain.AnalysisWarning{
			Code:       "interval_zone_unresolved",
			Subsystem:  "interval",
			Operation:  "resolve_zone",
			ContextKey: "territory",
		})
	}

	norm, proven := s.provenStep(ctx, col, req, profile, loc)
	insights.ProvenMetrics = proven

	estimate := s.annualStep(ctx, col, profile, proven)
	insights.AnnualEstimate = estimate

	fit := s.fitStep(ctx, col, profile, norm, loc)
	insights.OperationalFit = &fit

	insights.WeatherCorrelation = s.weatherStep(ctx, col, profile, norm, loc)

	in := catalog.MatchInput{
		Profile:        profile,
		Proven:         proven,
		AnnualEstimate: estimate,
	}
	// only a fit backed by observed days reweights demand-response matches
	if fit.DaysObserved > 0 {
		in.OperationalFit = &fit
	}
	matches, version := s.matchStep(ctx, col, in)
	insights.CatalogVersion = version

	ids := s.deps.IDs
	if ids == nil {
		ids = recommendation.NewDeterministicIDFactory(requestKey(profile, req.Now))
	}
	synth := recommendation.NewSynthesizer(s.log, &recommendation.Config{
		MaxRecommendations: s.config.MaxRecommendations,
		NarrativeLineCap:   s.config.NarrativeLineCap,
	}, ids)
	recs := synth.Synthesize(matches)
	sortRecommendations(recs)

	insights.MissingInformation = col.missing
	insights.Warnings = col.warnings

	items := review.NewAdapter(s.log, ids).Build(recs, &insights, req.Now)

	s.log.Info("Analysis completed",
		zap.String("territory", profile.Territory),
		zap.Int("matches", len(matches)),
		zap.Int("recommendations", len(recs)),
		zap.Int("warnings", len(col.warnings)),
	)
	return &domain.AnalysisResult{
		Matches:         matches,
		Recommendations: recs,
		ReviewItems:     items,
		Insights:        insights,
	}, nil
}

func (s *Service) provenStep(ctx context.Context, col *collector, req domain.AnalysisRequest, profile domain.CustomerProfile, loc *time.Location) (interval.Normalized, *domain.ProvenMetrics) {
	raw := req.Interval
	if len(raw) == 0 && profile.IntervalRef != "" && s.deps.Telemetry != nil {
		col.add(s.guard(ctx, "telemetry", "load_interval", "interval_ref", func(ctx context.Context) error {
			var err error
			raw, err = s.deps.Telemetry.LoadInterval(ctx, profile.IntervalRef)
			return err
		}))
	}

	_, span := s.tracer.Start(ctx, "interval.compute_proven")
	defer span.End()

	fallback := profile.Meter.IntervalMinutes
	if fallback <= 0 {
		fallback = s.config.FallbackIntervalMinutes
	}
	proven, norm := s.interval.ComputeProvenMetrics(raw, loc, profile.CurrentRate, fallback)
	if !proven.HasData() {
		col.add(skipped(domain.MissingInfoItem{
			ID:     "interval_data",
			Label:  "15-minute interval data covering at least one full month",
			Source: "interval",
		}))
	}
	return norm, proven
}

func (s *Service) annualStep(ctx context.Context, col *collector, profile domain.CustomerProfile, proven *domain.ProvenMetrics) *domain.AnnualEstimate {
	_, span := s.tracer.Start(ctx, "annualize.estimate")
	defer span.End()

	// interval evidence outranks billed history
	estimate := annualize.FromProven(proven)
	if estimate == nil {
		estimate = annualize.FromBilling(profile.Billing)
	}
	if estimate == nil && profile.Billing.AnnualKwh == nil {
		col.add(skipped(domain.MissingInfoItem{
			ID:     "annual_kwh",
			Label:  "twelve months of billed energy usage",
			Source: "annualize",
		}))
	}
	return estimate
}

func (s *Service) fitStep(ctx context.Context, col *collector, profile domain.CustomerProfile, norm interval.Normalized, loc *time.Location) domain.OperationalFitResult {
	_, span := s.tracer.Start(ctx, "opfit.score")
	defer span.End()

	res := s.fit.Score(opfit.Input{
		Points:         norm.Points,
		Location:       loc,
		LoadShiftScore: profile.Constraints.LoadShiftScore,
		Schedule:       profile.Constraints.ScheduleType,
	})

	var missing []domain.MissingInfoItem
	if profile.Constraints.LoadShiftScore == nil {
		missing = append(missing, domain.MissingInfoItem{ID: "load_shift_score", Label: "load-shift feasibility assessment", Source: "opfit"})
	}
	if res.Schedule == domain.ScheduleUnknown {
		missing = append(missing, domain.MissingInfoItem{ID: "operating_schedule", Label: "operating schedule (24/7, business hours or mixed)", Source: "opfit"})
	}
	col.add(completed(missing...))
	return res
}

func (s *Service) weatherStep(ctx context.Context, col *collector, profile domain.CustomerProfile, norm interval.Normalized, loc *time.Location) *domain.WeatherCorrelation {
	if s.deps.Weather == nil || !profile.Site.HasCoordinates() || len(norm.Points) == 0 {
		return nil
	}
	first := norm.Points[0].At.In(loc)
	last := norm.Points[len(norm.Points)-1].At.In(loc)
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	var temps []domain.WeatherPoint
	outcome := col.add(s.guard(ctx, "weather", "fetch_temperatures", "site.coordinates", func(ctx context.Context) error {
		var err error
		temps, err = s.deps.Weather.Temperatures(ctx, *profile.Site.Latitude, *profile.Site.Longitude, start, end)
		return err
	}))
	if outcome.status != stepCompleted {
		return nil
	}

	var res *domain.WeatherCorrelation
	col.add(s.guard(ctx, "weather", "correlate", "interval", func(context.Context) error {
		res, _ = s.correlator.Correlate(norm.Points, temps, loc)
		return nil
	}))
	return res
}

func (s *Service) matchStep(ctx context.Context, col *collector, in catalog.MatchInput) ([]domain.ProgramMatchResult, string) {
	if in.Profile.Territory == "" {
		col.add(skipped(domain.MissingInfoItem{ID: "territory", Label: "utility territory", Source: "catalog"}))
		return []domain.ProgramMatchResult{}, ""
	}

	var cat *domain.Catalog
	outcome := col.add(s.guard(ctx, "catalog", "load", "territory", func(ctx context.Context) error {
		var err error
		cat, err = s.deps.Catalogs.CatalogFor(ctx, in.Profile.Territory)
		return err
	}))
	if outcome.status != stepCompleted || cat == nil {
		return []domain.ProgramMatchResult{}, ""
	}

	_, span := s.tracer.Start(ctx, "catalog.match")
	defer span.End()

	matches := s.matcher.Match(cat, in)
	for _, m := range matches {
		for _, input := range m.MissingInputs {
			col.addMissing(domain.MissingInfoItem{ID: checklistID(input), Label: input, Source: "catalog"})
		}
	}
	return matches, cat.Version
}

var catalogChecklistIDs = map[string]string{
	catalog.MissingSegment:      "customer_segment",
	catalog.MissingNAICS:        "naics",
	catalog.MissingPeakKw:       "peak_kw",
	catalog.MissingMonthlyKwh:   "monthly_kwh",
	catalog.MissingAnnualKwh:    "annual_kwh",
	catalog.MissingIntervalData: "interval_data",
	catalog.MissingAMI:          "ami_meter",
}

func checklistID(input string) string {
	if id, ok := catalogChecklistIDs[input]; ok {
		return id
	}
	return missingID(input)
}

// sortRecommendations imposes score desc, confidence desc, kind asc, program id asc
func sortRecommendations(recs []domain.UtilityRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ProgramID < b.ProgramID
	})
}

func requestKey(p domain.CustomerProfile, now string) string {
	return strings.Join([]string{p.OrgID, p.Site.ID, p.Territory, p.NAICS, now}, "|")
}
