package port

import (
	"context"
	"time"
)

// QueuePublisher sends messages to a named queue. Publish is a single
// best-effort attempt; retry policy belongs to the caller. ReceiveOne and
// Purge exist for test and consumer collaborators, not for the worker loop.
type QueuePublisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
	ReceiveOne(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
	Purge(ctx context.Context, queue string) error
}

// BrokerConnection adds the connection lifecycle to QueuePublisher. The
// supervisor acquires the connection on start and releases it on every stop
// path.
type BrokerConnection interface {
	QueuePublisher

	Connect(ctx context.Context) error
	Close() error
}
