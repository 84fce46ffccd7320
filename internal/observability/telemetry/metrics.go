package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisor_analyses_total",
		Help: "Analyses processed, by outcome",
	}, []string{"outcome"})

	AnalysisWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisor_analysis_warnings_total",
		Help: "Contained subsystem failures, by subsystem",
	}, []string{"subsystem"})

	ProgramMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisor_program_matches_total",
		Help: "Program match verdicts, by status",
	}, []string{"status"})

	RecommendationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "advisor_recommendations_total",
		Help: "Recommendations emitted",
	})

	AnalysisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "advisor_analysis_latency_seconds",
		Help:    "End-to-end analysis latency",
		Buckets: prometheus.DefBuckets,
	})

	ReviewPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "advisor_review_publish_failures_total",
		Help: "Review batches that failed to publish",
	})
)

// ObserveAnalysis records one analysis call. result may be nil when err is set.
func ObserveAnalysis(result *domain.AnalysisResult, err error, elapsed time.Duration) {
	AnalysisLatency.Observe(elapsed.Seconds())
	if err != nil {
		AnalysesTotal.WithLabelValues("rejected").Inc()
		return
	}
	outcome := "ok"
	if len(result.Insights.Warnings) > 0 {
		outcome = "degraded"
	}
	AnalysesTotal.WithLabelValues(outcome).Inc()

	for _, w := range result.Insights.Warnings {
		AnalysisWarningsTotal.WithLabelValues(w.Subsystem).Inc()
	}
	for _, m := range result.Matches {
		ProgramMatchesTotal.WithLabelValues(string(m.Status)).Inc()
	}
	RecommendationsTotal.Add(float64(len(result.Recommendations)))
}
