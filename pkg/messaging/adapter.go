package messaging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Handler processes one message. Returned errors are logged and the stream
// keeps going.
type Handler func(ctx context.Context, payload []byte) error

// Consume subscribes to topic and feeds every message to handler on a
// background goroutine until ctx is cancelled.
func Consume(ctx context.Context, broker Broker, topic string, handler Handler, logger zerolog.Logger) error {
	msgs, err := broker.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range msgs {
			if err := handler(ctx, msg); err != nil {
				logger.Warn().Err(err).Str("topic", topic).Msg("message handler failed")
			}
		}
		logger.Debug().Str("topic", topic).Msg("subscription closed")
	}()

	return nil
}
