package mocks

import (
	"context"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	Catalogs        map[string]*domain.Catalog
	CatalogForFunc  func(ctx context.Context, territory string) (*domain.Catalog, error)
	TerritoriesFunc func() []string
}

func (m *MockCatalogRepository) CatalogFor(ctx context.Context, territory string) (*domain.Catalog, error) {
	if m.CatalogForFunc != nil {
		return m.CatalogForFunc(ctx, territory)
	}
	if c, ok := m.Catalogs[territory]; ok {
		return c, nil
	}
	return nil, domain.ErrCatalogNotFound
}

func (m *MockCatalogRepository) Territories() []string {
	if m.TerritoriesFunc != nil {
		return m.TerritoriesFunc()
	}
	out := make([]string, 0, len(m.Catalogs))
	for t := range m.Catalogs {
		out = append(out, t)
	}
	return out
}

// MockIntervalRepository is a mock implementation of IntervalRepository
type MockIntervalRepository struct {
	LoadIntervalFunc func(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error)
	SaveReadingsFunc func(ctx context.Context, ref string, points []domain.RawIntervalPoint) error
}

func (m *MockIntervalRepository) LoadInterval(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error) {
	if m.LoadIntervalFunc != nil {
		return m.LoadIntervalFunc(ctx, ref)
	}
	return nil, nil
}

func (m *MockIntervalRepository) SaveReadings(ctx context.Context, ref string, points []domain.RawIntervalPoint) error {
	if m.SaveReadingsFunc != nil {
		return m.SaveReadingsFunc(ctx, ref, points)
	}
	return nil
}
