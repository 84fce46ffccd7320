package health

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/ports"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Service handles health checks
type Service struct {
	startTime time.Time
	version   string
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// Config holds health service configuration. Nil dependencies are not checked.
type Config struct {
	Version  string
	DB       *sql.DB
	Cache    ports.Cache
	Catalogs ports.CatalogRepository
}

// NewService creates a new health service
func NewService(config *Config, log *zap.Logger) *Service {
	s := &Service{
		startTime: time.Now(),
		version:   config.Version,
		checkers:  make(map[string]Checker),
		log:       log,
	}

	if config.Catalogs != nil {
		s.RegisterChecker("catalog", CatalogChecker(config.Catalogs))
	}
	if config.DB != nil {
		s.RegisterChecker("database", PingChecker("database", true, config.DB.PingContext, log))
	}
	if config.Cache != nil {
		// analyses run without the cache, so a failure only degrades
		s.RegisterChecker("cache", PingChecker("cache", false, func(context.Context) error { return config.Cache.Ping() }, log))
	}

	return s
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready performs a comprehensive readiness check
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	// Run all checks concurrently
	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	overallStatus := StatusHealthy
	allReady := true

	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			allReady = false
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &ReadyResponse{
		Ready:     allReady,
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// PingChecker wraps a ping function. Non-critical failures report degraded.
func PingChecker(name string, critical bool, ping func(context.Context) error, log *zap.Logger) Checker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		result := CheckResult{Name: name, Timestamp: start}

		err := ping(ctx)
		result.Duration = time.Since(start)

		switch {
		case err == nil:
			result.Status = StatusHealthy
			result.Message = "connection ok"
		case critical:
			result.Status = StatusUnhealthy
			result.Message = fmt.Sprintf("ping failed: %v", err)
			log.Warn("Health check failed", zap.String("name", name), zap.Error(err))
		default:
			result.Status = StatusDegraded
			result.Message = fmt.Sprintf("ping failed: %v", err)
			log.Warn("Health check degraded", zap.String("name", name), zap.Error(err))
		}
		return result
	}
}

// CatalogChecker verifies every known territory catalog parses
func CatalogChecker(catalogs ports.CatalogRepository) Checker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		result := CheckResult{Name: "catalog", Timestamp: start}

		territories := catalogs.Territories()
		if len(territories) == 0 {
			result.Status = StatusUnhealthy
			result.Message = "no catalogs available"
			result.Duration = time.Since(start)
			return result
		}
		for _, t := range territories {
			if _, err := catalogs.CatalogFor(ctx, t); err != nil {
				result.Status = StatusUnhealthy
				result.Message = fmt.Sprintf("catalog %s: %v", t, err)
				result.Duration = time.Since(start)
				return result
			}
		}

		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("%d territories loaded", len(territories))
		result.Duration = time.Since(start)
		return result
	}
}
