package events

import "context"

// Publisher is the outbound boundary for ledger domain events. In a
// single-process deployment the consumer runs synchronously in the same unit
// of work; distributed deployments publish to a broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}
