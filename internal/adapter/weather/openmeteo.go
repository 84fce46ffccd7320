package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/ports"
)

// OpenMeteoConfig configures the Open-Meteo archive client
type OpenMeteoConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// DefaultOpenMeteoConfig returns the public archive endpoint
func DefaultOpenMeteoConfig() OpenMeteoConfig {
	return OpenMeteoConfig{
		BaseURL:  "https://archive-api.open-meteo.com/v1",
		Timeout:  10 * time.Second,
		CacheTTL: 24 * time.Hour,
	}
}

// OpenMeteoClient fetches hourly 2m temperatures
type OpenMeteoClient struct {
	config     OpenMeteoConfig
	httpClient *http.Client
	cache      ports.Cache
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

type archiveResponse struct {
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature2m []*float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// NewOpenMeteoClient creates a weather client. cache may be nil.
func NewOpenMeteoClient(config OpenMeteoConfig, cache ports.Cache, log *zap.Logger) *OpenMeteoClient {
	if log == nil {
		log = zap.NewNop()
	}
	c := &OpenMeteoClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		cache:      cache,
		log:        log,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Temperatures returns hourly observations between start and end, inclusive by day
func (c *OpenMeteoClient) Temperatures(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.WeatherPoint, error) {
	startDay := start.UTC().Format("2006-01-02")
	endDay := end.UTC().Format("2006-01-02")
	key := cacheKey(lat, lon, startDay, endDay)

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key); err == nil {
			var points []domain.WeatherPoint
			if err := json.Unmarshal([]byte(cached), &points); err == nil {
				return points, nil
			}
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, lat, lon, startDay, endDay)
	})
	if err != nil {
		return nil, fmt.Errorf("open-meteo: %w", err)
	}
	points := result.([]domain.WeatherPoint)

	if c.cache != nil {
		if data, err := json.Marshal(points); err == nil {
			if err := c.cache.Set(ctx, key, string(data), c.config.CacheTTL); err != nil {
				c.log.Warn("Failed to cache temperatures", zap.Error(err))
			}
		}
	}
	return points, nil
}

func (c *OpenMeteoClient) fetch(ctx context.Context, lat, lon float64, startDay, endDay string) ([]domain.WeatherPoint, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("start_date", startDay)
	q.Set("end_date", endDay)
	q.Set("hourly", "temperature_2m")
	q.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/archive?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Open-Meteo returned non-OK status", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	points := make([]domain.WeatherPoint, 0, len(body.Hourly.Time))
	for i, raw := range body.Hourly.Time {
		if i >= len(body.Hourly.Temperature2m) || body.Hourly.Temperature2m[i] == nil {
			continue
		}
		at, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			continue
		}
		points = append(points, domain.WeatherPoint{At: at, TempC: *body.Hourly.Temperature2m[i]})
	}
	return points, nil
}

// cacheKey rounds coordinates to roughly 1 km so nearby sites share entries
func cacheKey(lat, lon float64, startDay, endDay string) string {
	r := func(v float64) float64 { return math.Round(v*100) / 100 }
	return fmt.Sprintf("weather:%.2f:%.2f:%s:%s", r(lat), r(lon), startDay, endDay)
}
