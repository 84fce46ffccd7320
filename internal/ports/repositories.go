package ports

import (
	"context"
	"errors"
	"time"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

// CatalogRepository serves read-only program catalogs keyed by territory
type CatalogRepository interface {
	CatalogFor(ctx context.Context, territory string) (*domain.Catalog, error)
	Territories() []string
}

// IntervalRepository stores interval readings for a metering reference
type IntervalRepository interface {
	TelemetryLoader
	SaveReadings(ctx context.Context, ref string, points []domain.RawIntervalPoint) error
}

// ErrCacheMiss is returned by Cache.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// Cache is a string key/value store with expiry
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
