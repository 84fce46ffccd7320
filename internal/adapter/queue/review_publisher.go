package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/ports"
)

// DefaultReviewSubject is where review items go when no subject is configured
const DefaultReviewSubject = "advisor.review.items"

// ReviewEnvelope is the message body published for each review item
type ReviewEnvelope struct {
	Type string            `json:"type"`
	Item domain.ReviewItem `json:"item"`
}

// ReviewPublisher sends review items to a broker, one message per item
type ReviewPublisher struct {
	mq      MessageQueue
	subject string
	log     *zap.Logger
}

func NewReviewPublisher(mq MessageQueue, subject string, log *zap.Logger) ports.ReviewPublisher {
	if subject == "" {
		subject = DefaultReviewSubject
	}
	return &ReviewPublisher{mq: mq, subject: subject, log: log}
}

// PublishReviewItems attempts every item and joins the failures
func (p *ReviewPublisher) PublishReviewItems(ctx context.Context, items []domain.ReviewItem) error {
	var errs []error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := json.Marshal(ReviewEnvelope{Type: "review_item.created", Item: item})
		if err != nil {
			errs = append(errs, fmt.Errorf("encode review item %s: %w", item.ID, err))
			continue
		}
		if err := p.mq.Publish(p.subject, body); err != nil {
			p.log.Error("Failed to publish review item", zap.String("id", item.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("publish review item %s: %w", item.ID, err))
		}
	}
	if len(errs) == 0 {
		p.log.Debug("Published review items", zap.Int("count", len(items)), zap.String("subject", p.subject))
	}
	return errors.Join(errs...)
}
