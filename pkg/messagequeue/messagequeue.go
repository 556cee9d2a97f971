package messagequeue

import (
	"context"

	"go.uber.org/zap"
)

// Publisher publishes JSON events to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	Close()
}

// FallbackPublisher is a no-op Publisher used when RabbitMQ is not configured or
// unreachable at startup. Events are logged instead of published.
type FallbackPublisher struct {
	Logger *zap.Logger
}

func (p *FallbackPublisher) Publish(_ context.Context, exchange, routingKey string, body interface{}) error {
	if p.Logger != nil {
		p.Logger.Debug("[MQ-FALLBACK] Would publish event",
			zap.String("exchange", exchange), zap.String("routingKey", routingKey), zap.Any("body", body))
	}
	return nil
}

func (p *FallbackPublisher) Close() {}
