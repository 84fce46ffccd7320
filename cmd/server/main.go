package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/utility-advisor/internal/adapter/cache"
	"github.com/seu-repo/utility-advisor/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/utility-advisor/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/utility-advisor/internal/adapter/queue"
	"github.com/seu-repo/utility-advisor/internal/adapter/storage/postgres"
	"github.com/seu-repo/utility-advisor/internal/adapter/weather"
	"github.com/seu-repo/utility-advisor/internal/observability/telemetry"
	"github.com/seu-repo/utility-advisor/internal/ports"
	"github.com/seu-repo/utility-advisor/internal/service/analysis"
	"github.com/seu-repo/utility-advisor/internal/service/catalog"
	"github.com/seu-repo/utility-advisor/internal/service/health"
	"github.com/seu-repo/utility-advisor/internal/service/recommendation"
	"github.com/seu-repo/utility-advisor/pkg/config"
	applogger "github.com/seu-repo/utility-advisor/pkg/logger"
)

func main() {
	// 1. Configuration and logger
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := applogger.New(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting utility advisor",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 2. Tracing
	if cfg.OpenTelemetry.Enabled {
		tp, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version, cfg.OpenTelemetry.Jaeger.Endpoint, cfg.OpenTelemetry.Jaeger.SamplerParam)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 3. Cache: Redis when configured, in-process otherwise
	var weatherCache ports.Cache
	if cfg.Redis.URL != "" {
		weatherCache, err = cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.Prefix, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	} else {
		weatherCache = cache.NewLocalCache(time.Minute, cfg.Redis.LocalMaxEntries, logger)
	}
	defer weatherCache.Close()

	// 4. Interval storage
	var db *gorm.DB
	var intervals ports.IntervalRepository
	if cfg.Database.URL != "" {
		db, err = postgres.NewConnection(cfg.Database.URL, postgres.PoolConfig{
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer postgres.Close(db)

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		intervals = postgres.NewIntervalRepository(db, logger)
	}

	// 5. Message queue for review items and meter feeds
	var publisher ports.ReviewPublisher
	var mq queue.MessageQueue
	if cfg.Queue.URL != "" {
		mq, err = queue.New(cfg.Queue.Driver, cfg.Queue.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to message queue", zap.Error(err))
		}
		defer mq.Close()
		publisher = queue.NewReviewPublisher(mq, cfg.Queue.Subject, logger)

		if intervals != nil {
			if err := queue.NewIntervalConsumer(intervals, logger).Start(mq, ""); err != nil {
				logger.Fatal("Failed to start interval consumer", zap.Error(err))
			}
		}
	}

	// 6. Core services
	catalogs := catalog.NewRegistry(logger, cfg.Catalog.Dir)

	deps := analysis.Dependencies{Catalogs: catalogs}
	if intervals != nil {
		deps.Telemetry = intervals
	}
	if cfg.Weather.Enabled {
		deps.Weather = weather.NewOpenMeteoClient(weather.OpenMeteoConfig{
			BaseURL:  cfg.Weather.BaseURL,
			Timeout:  cfg.Weather.Timeout,
			CacheTTL: cfg.Weather.CacheTTL,
		}, weatherCache, logger)
	}
	if !cfg.Analysis.DeterministicIDs {
		deps.IDs = recommendation.RandomIDFactory{}
	}

	analysisService := analysis.NewService(logger, &analysis.Config{
		DefaultZone:             cfg.Analysis.DefaultZone,
		FallbackIntervalMinutes: cfg.Analysis.FallbackIntervalMinutes,
		MaxRecommendations:      cfg.Analysis.MaxRecommendations,
		NarrativeLineCap:        cfg.Analysis.NarrativeLineCap,
	}, deps)

	healthConfig := &health.Config{Version: cfg.App.Version, Catalogs: catalogs, Cache: weatherCache}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			healthConfig.DB = sqlDB
		}
	}
	healthService := health.NewService(healthConfig, logger)

	// 7. HTTP server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.CORS))

	health.NewFiberHandler(healthService).RegisterRoutes(app)

	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	v1 := app.Group("/api/v1")
	if cfg.CircuitBreaker.Enabled {
		v1.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, logger))
	}

	analysisHandler := handlers.NewAnalysisHandler(analysisService, publisher, logger)
	v1.Post("/analyses", analysisHandler.Create)

	catalogHandler := handlers.NewCatalogHandler(catalogs, logger)
	v1.Get("/catalogs", catalogHandler.List)
	v1.Get("/catalogs/:territory", catalogHandler.Get)

	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
