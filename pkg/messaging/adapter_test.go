package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanBroker struct {
	ch chan []byte
}

func (b *chanBroker) Publish(ctx context.Context, topic string, payload json.RawMessage) error {
	b.ch <- payload
	return nil
}

func (b *chanBroker) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	return b.ch, nil
}

func (b *chanBroker) Close() error {
	close(b.ch)
	return nil
}

func TestConsumeDeliversEveryMessage(t *testing.T) {
	broker := &chanBroker{ch: make(chan []byte, 4)}
	got := make(chan string, 4)

	err := Consume(context.Background(), broker, "booking.changed", func(ctx context.Context, payload []byte) error {
		got <- string(payload)
		if string(payload) == `"bad"` {
			return errors.New("cannot handle")
		}
		return nil
	}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, broker.Publish(context.Background(), "booking.changed", json.RawMessage(`"bad"`)))
	require.NoError(t, broker.Publish(context.Background(), "booking.changed", json.RawMessage(`"good"`)))

	for _, want := range []string{`"bad"`, `"good"`} {
		select {
		case msg := <-got:
			assert.Equal(t, want, msg)
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
	require.NoError(t, broker.Close())
}
