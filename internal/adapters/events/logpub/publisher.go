// Package logpub provides an event publisher that writes to the structured
// log instead of a broker, for deployments without Kafka configured.
package logpub

import (
	"context"

	portsevents "github.com/ingmontoya/tavira-ledger/internal/core/ports/events"
	"github.com/ingmontoya/tavira-ledger/internal/middleware"
)

type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

var _ portsevents.Publisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	middleware.GetLoggerFromCtx(ctx).InfoContext(ctx, "Ledger event", "topic", topic, "event", event)
	return nil
}
