package inventory

import (
	"context"
	"errors"
)

// EventTransport is the slice of the message bus the emitter needs.
// *bus.Bus satisfies it.
type EventTransport interface {
	Publish(ctx context.Context, subj string, v any) error
}

// EventEmitter publishes host lifecycle events to the output stream. Emit
// returns only after the transport confirms the send, so events are
// delivered relative to the caller's subsequent logic.
type EventEmitter struct {
	transport EventTransport
	topic     string
}

// NewEventEmitter constructs an emitter bound to one output topic.
func NewEventEmitter(transport EventTransport, topic string) (*EventEmitter, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	return &EventEmitter{transport: transport, topic: topic}, nil
}

// Emit publishes the event and blocks until the transport confirms it.
// Raw []byte events pass through unchanged; anything else is encoded as
// JSON by the transport.
func (e *EventEmitter) Emit(ctx context.Context, event any) error {
	return e.transport.Publish(ctx, e.topic, event)
}

// EmitterFactory builds the emitter for one unit of work.
type EmitterFactory func() (*EventEmitter, error)

// LazyEmitter defers emitter construction until the first Emit of a unit of
// work. Each request or background operation owns its own instance, so no
// locking is needed; a LazyEmitter must not be shared across goroutines.
type LazyEmitter struct {
	factory EmitterFactory
	emitter *EventEmitter
}

// NewLazyEmitter wraps a factory.
func NewLazyEmitter(factory EmitterFactory) *LazyEmitter {
	return &LazyEmitter{factory: factory}
}

// Emit constructs the underlying emitter on first use, then delegates.
func (l *LazyEmitter) Emit(ctx context.Context, event any) error {
	if l.factory == nil {
		return errors.New("no emitter factory configured")
	}
	if l.emitter == nil {
		emitter, err := l.factory()
		if err != nil {
			return err
		}
		l.emitter = emitter
	}
	return l.emitter.Emit(ctx, event)
}
