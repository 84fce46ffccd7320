package ports

import (
	"context"
	"time"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

// AnalysisService runs one end-to-end evaluation of a customer profile
type AnalysisService interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
}

// WeatherProvider returns temperature observations for a location. Implementations may
// fail; callers must treat failures as non-fatal.
type WeatherProvider interface {
	Temperatures(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.WeatherPoint, error)
}

// TelemetryLoader resolves an interval-data reference into raw samples. A nil slice
// with a nil error, or domain.ErrNoIntervalData, means the reference holds no data.
type TelemetryLoader interface {
	LoadInterval(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error)
}

// IDFactory produces recommendation and review identifiers. Given identical
// arguments a deterministic implementation must return identical ids.
type IDFactory interface {
	NewID(kind, seed string) string
}

// ReviewPublisher hands review-queue items to a human review workflow
type ReviewPublisher interface {
	PublishReviewItems(ctx context.Context, items []domain.ReviewItem) error
}
