package bus

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nats-io/nats.go"
)

// Bus wraps a NATS JetStream connection for publishing and consuming events.
type Bus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New creates a Bus connected to the provided NATS endpoint.
func New(url string, opts ...nats.Option) (*Bus, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &Bus{conn: nc, js: js}, nil
}

// Close shuts down the underlying NATS connection.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// Publish sends v to the given subject and returns once the stream has
// acknowledged it. Raw []byte payloads pass through unchanged; anything
// else is encoded as JSON.
func (b *Bus) Publish(ctx context.Context, subj string, v any) error {
	if b == nil {
		return errors.New("nil bus")
	}

	data, ok := v.([]byte)
	if !ok {
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		data = encoded
	}

	_, err := b.js.Publish(subj, data, nats.Context(ctx))
	return err
}

// PullSource is a durable pull consumer that yields one message per call.
// Messages are acknowledged on delivery: the contract toward the caller is
// at-least-once with no redelivery after a failed handling.
type PullSource struct {
	sub *nats.Subscription
}

// PullSource creates a durable pull subscription on the given subject.
func (b *Bus) PullSource(subj, durable string) (*PullSource, error) {
	if b == nil {
		return nil, errors.New("nil bus")
	}

	sub, err := b.js.PullSubscribe(subj, durable)
	if err != nil {
		return nil, err
	}

	return &PullSource{sub: sub}, nil
}

// Next blocks until a message is available or ctx is done. Poll timeouts
// are retried so callers only see real messages or a terminal
// subscription error.
func (s *PullSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgs, err := s.sub.Fetch(1, nats.Context(ctx))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			return nil, err
		}
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		_ = msg.Ack()
		return msg.Data, nil
	}
}

// Close tears down the pull subscription.
func (s *PullSource) Close() error {
	if s == nil || s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}
