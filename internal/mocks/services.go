package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

// MockWeatherProvider is a mock implementation of WeatherProvider interface
type MockWeatherProvider struct {
	TemperaturesFunc func(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.WeatherPoint, error)
	Calls            int
}

func (m *MockWeatherProvider) Temperatures(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.WeatherPoint, error) {
	m.Calls++
	if m.TemperaturesFunc != nil {
		return m.TemperaturesFunc(ctx, lat, lon, start, end)
	}
	return []domain.WeatherPoint{}, nil
}

// MockTelemetryLoader is a mock implementation of TelemetryLoader interface
type MockTelemetryLoader struct {
	LoadIntervalFunc func(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error)
}

func (m *MockTelemetryLoader) LoadInterval(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error) {
	if m.LoadIntervalFunc != nil {
		return m.LoadIntervalFunc(ctx, ref)
	}
	return nil, nil
}

// MockIDFactory returns "<kind>:<seed>" unless NewIDFunc is set
type MockIDFactory struct {
	NewIDFunc func(kind, seed string) string
}

func (m *MockIDFactory) NewID(kind, seed string) string {
	if m.NewIDFunc != nil {
		return m.NewIDFunc(kind, seed)
	}
	return fmt.Sprintf("%s:%s", kind, seed)
}

// MockReviewPublisher is a mock implementation of ReviewPublisher interface
type MockReviewPublisher struct {
	Published              []domain.ReviewItem
	PublishReviewItemsFunc func(ctx context.Context, items []domain.ReviewItem) error
}

func (m *MockReviewPublisher) PublishReviewItems(ctx context.Context, items []domain.ReviewItem) error {
	if m.PublishReviewItemsFunc != nil {
		return m.PublishReviewItemsFunc(ctx, items)
	}
	m.Published = append(m.Published, items...)
	return nil
}

// MockAnalysisService is a mock implementation of AnalysisService interface
type MockAnalysisService struct {
	AnalyzeFunc func(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
}

func (m *MockAnalysisService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, req)
	}
	return &domain.AnalysisResult{}, nil
}
