package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "utility-advisor")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.body_limit", 8*1024*1024)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.sampling.initial", 100)
	v.SetDefault("logging.sampling.thereafter", 100)

	v.SetDefault("analysis.max_recommendations", 10)
	v.SetDefault("analysis.narrative_line_cap", 3)
	v.SetDefault("analysis.default_zone", "UTC")
	v.SetDefault("analysis.fallback_interval_minutes", 15)
	v.SetDefault("analysis.deterministic_ids", false)

	v.SetDefault("weather.enabled", true)
	v.SetDefault("weather.base_url", "https://archive-api.open-meteo.com/v1")
	v.SetDefault("weather.timeout", 10*time.Second)
	v.SetDefault("weather.cache_ttl", 24*time.Hour)

	v.SetDefault("redis.prefix", "advisor")
	v.SetDefault("redis.local_max_entries", 1024)

	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("queue.driver", "nats")
	v.SetDefault("queue.subject", "advisor.review.items")

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("opentelemetry.service_name", "utility-advisor")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)
}

// Load reads config.yaml from the usual locations, then applies APP_* overrides
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads an explicit config file when path is not empty
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath("/app/configs")
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("queue.url", "NATS_URL", "APP_QUEUE_URL")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL", "APP_LOGGING_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.Analysis.MaxRecommendations <= 0 {
		errs = append(errs, errors.New("analysis.max_recommendations must be positive"))
	}
	if c.Analysis.NarrativeLineCap <= 0 {
		errs = append(errs, errors.New("analysis.narrative_line_cap must be positive"))
	}
	if _, err := time.LoadLocation(c.Analysis.DefaultZone); err != nil {
		errs = append(errs, fmt.Errorf("analysis.default_zone: %w", err))
	}
	if c.Weather.Enabled && c.Weather.BaseURL == "" {
		errs = append(errs, errors.New("weather.base_url is required when weather is enabled"))
	}
	switch strings.ToLower(c.Queue.Driver) {
	case "nats", "rabbitmq", "amqp":
	default:
		errs = append(errs, fmt.Errorf("queue.driver %q is not nats or rabbitmq", c.Queue.Driver))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not json or console", c.Logging.Format))
	}
	if c.CircuitBreaker.FailureThreshold <= 0 || c.CircuitBreaker.FailureThreshold > 1 {
		errs = append(errs, errors.New("circuit_breaker.failure_threshold must be in (0, 1]"))
	}
	return errors.Join(errs...)
}
