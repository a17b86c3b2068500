package domain

import "context"

// EventSink ships decoded events to an external store.
type EventSink interface {
	// Name identifies the sink in logs and metrics, e.g. "redis".
	Name() string

	// WriteEvents delivers a batch of events. Implementations must be idempotent on Event.ID.
	WriteEvents(ctx context.Context, events []Event) error

	// Close releases the sink. It is called once, after the last batch.
	Close() error
}

// SpoolRepository is the on-disk fallback for events a sink could not deliver.
type SpoolRepository interface {
	// Write appends an event to the spool.
	Write(ctx context.Context, event Event) error

	// Replay reads spooled events in write order and hands each one to handler.
	// Replay stops at the first handler error.
	Replay(ctx context.Context, handler func(event Event) error) error

	// Truncate removes every spooled event.
	Truncate(ctx context.Context) error
}

// SpoolReplayer delivers spooled events to their sink.
type SpoolReplayer interface {
	// ReplaySpool delivers every spooled event and empties the spool on success.
	ReplaySpool(ctx context.Context) (int, error)
}
