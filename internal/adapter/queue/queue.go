package queue

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// New connects to the broker named by driver ("nats" or "rabbitmq")
func New(driver, url string, log *zap.Logger) (MessageQueue, error) {
	switch strings.ToLower(driver) {
	case "nats":
		return NewNATSQueue(url, log)
	case "rabbitmq", "amqp":
		return NewRabbitMQQueue(url, log)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", driver)
	}
}
