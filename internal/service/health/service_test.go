package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/mocks"
)

func catalogs() *mocks.MockCatalogRepository {
	return &mocks.MockCatalogRepository{
		Catalogs: map[string]*domain.Catalog{"PGE": {Territory: "PGE", Version: "1"}},
	}
}

func TestReady_AllHealthy(t *testing.T) {
	s := NewService(&Config{Version: "test", Catalogs: catalogs(), Cache: mocks.NewMockCache()}, zap.NewNop())

	resp := s.Ready(context.Background())

	if !resp.Ready || resp.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %+v", resp)
	}
	if len(resp.Checks) != 2 {
		t.Errorf("expected catalog and cache checks, got %d", len(resp.Checks))
	}
}

func TestReady_CacheFailureDegrades(t *testing.T) {
	cache := mocks.NewMockCache()
	cache.PingFunc = func() error { return errors.New("connection refused") }
	s := NewService(&Config{Catalogs: catalogs(), Cache: cache}, zap.NewNop())

	resp := s.Ready(context.Background())

	if !resp.Ready {
		t.Error("cache failure must not make the service unready")
	}
	if resp.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", resp.Status)
	}
}

func TestReady_CatalogFailureIsUnready(t *testing.T) {
	repo := catalogs()
	repo.CatalogForFunc = func(ctx context.Context, territory string) (*domain.Catalog, error) {
		return nil, domain.ErrCatalogNotFound
	}
	s := NewService(&Config{Catalogs: repo}, zap.NewNop())

	resp := s.Ready(context.Background())

	if resp.Ready || resp.Checks["catalog"].Status != StatusUnhealthy {
		t.Errorf("expected unready on catalog failure, got %+v", resp)
	}
}

func TestFiberHandler_ReadyStatusCode(t *testing.T) {
	s := NewService(&Config{}, zap.NewNop())
	s.RegisterChecker("broker", PingChecker("broker", true, func(context.Context) error { return errors.New("down") }, zap.NewNop()))

	app := fiber.New()
	NewFiberHandler(s).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/readyz", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/healthz", nil))
	var body HealthResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != fiber.StatusOK || body.Status != StatusHealthy {
		t.Errorf("liveness must stay healthy, got %d %+v", resp.StatusCode, body)
	}
}
