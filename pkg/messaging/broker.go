package messaging

import (
	"context"
	"encoding/json"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, topic string, payload json.RawMessage) error
	// Subscribe returns a stream of raw payloads that is closed when ctx is done.
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
	Close() error
}

// Publisher is the publishing half of a Broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload json.RawMessage) error
}
