package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/ports"
)

// DefaultIntervalSubject carries meter feeds to be stored for later analyses
const DefaultIntervalSubject = "advisor.interval.readings"

// IntervalBatch is one meter feed message
type IntervalBatch struct {
	Ref      string                    `json:"ref"`
	Interval []domain.RawIntervalPoint `json:"interval"`
}

// IntervalConsumer stores incoming meter feeds in an IntervalRepository
type IntervalConsumer struct {
	repo    ports.IntervalRepository
	timeout time.Duration
	log     *zap.Logger
}

func NewIntervalConsumer(repo ports.IntervalRepository, log *zap.Logger) *IntervalConsumer {
	return &IntervalConsumer{repo: repo, timeout: 30 * time.Second, log: log}
}

// Start subscribes the consumer on subject
func (c *IntervalConsumer) Start(mq MessageQueue, subject string) error {
	if subject == "" {
		subject = DefaultIntervalSubject
	}
	c.log.Info("Starting interval consumer", zap.String("subject", subject))
	return mq.Subscribe(subject, c.Handle)
}

// Handle decodes and stores one batch
func (c *IntervalConsumer) Handle(data []byte) error {
	var batch IntervalBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return err
	}
	if batch.Ref == "" {
		return errors.New("interval batch without ref")
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.repo.SaveReadings(ctx, batch.Ref, batch.Interval); err != nil {
		return err
	}
	c.log.Info("Stored interval batch", zap.String("ref", batch.Ref), zap.Int("points", len(batch.Interval)))
	return nil
}
