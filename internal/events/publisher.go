package events

import (
	"context"
)

// Publisher delivers ledger events to the broker.
type Publisher interface {
	PublishTransaction(ctx context.Context, event *TransactionEvent) error
	Close() error
}

var (
	_ Publisher      = (*Client)(nil)
	_ DeliverySource = (*Client)(nil)
)

// NoopPublisher drops every event. Used when AMQP is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransaction(context.Context, *TransactionEvent) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
