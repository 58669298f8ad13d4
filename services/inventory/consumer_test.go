package inventory

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostinv/services/inventory/validation"
)

// scriptedSource replays a fixed message sequence and then blocks until the
// consumer's context is cancelled.
type scriptedSource struct {
	messages [][]byte
	done     chan struct{}
	once     sync.Once
}

func newScriptedSource(messages ...[]byte) *scriptedSource {
	return &scriptedSource{messages: messages, done: make(chan struct{})}
}

func (s *scriptedSource) Next(ctx context.Context) ([]byte, error) {
	if len(s.messages) == 0 {
		s.once.Do(func() { close(s.done) })
		<-ctx.Done()
		return nil, ctx.Err()
	}
	msg := s.messages[0]
	s.messages = s.messages[1:]
	return msg, nil
}

func encodeMessage(t *testing.T, msg ProfileMessage) []byte {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return data
}

// A poisoned stream must not stop the loop: valid messages on either side
// of malformed JSON and an unknown host id all get processed.
func TestConsumerSurvivesBadMessages(t *testing.T) {
	host1 := Host{ID: uuid.New()}
	host2 := Host{ID: uuid.New()}
	store := newFakeStore(host1, host2)
	updater := newUpdater(t, store)

	source := newScriptedSource(
		encodeMessage(t, ProfileMessage{ID: host1.ID.String(), SystemProfile: map[string]any{"arch": "x86_64"}}),
		[]byte("{not json"),
		encodeMessage(t, ProfileMessage{ID: uuid.NewString(), SystemProfile: map[string]any{"arch": "aarch64"}}),
		encodeMessage(t, ProfileMessage{ID: host2.ID.String(), SystemProfile: map[string]any{"arch": "s390x"}}),
	)

	consumer, err := NewConsumer(source, updater, nil, log.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		consumer.Run(ctx)
	}()

	select {
	case <-source.done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain the scripted messages")
	}
	cancel()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop on cancellation")
	}

	require.Len(t, store.commits, 2)
	assert.Equal(t, map[string]any{"arch": "x86_64"}, store.commits[0])
	assert.Equal(t, map[string]any{"arch": "s390x"}, store.commits[1])
}

func TestConsumerStopsOnCancel(t *testing.T) {
	source := newScriptedSource()
	updater := newUpdater(t, newFakeStore())

	consumer, err := NewConsumer(source, updater, nil, log.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		consumer.Run(ctx)
	}()

	cancel()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop on cancellation")
	}
}

func TestConsumerValidationFailureContinues(t *testing.T) {
	host := Host{ID: uuid.New()}
	store := newFakeStore(host)
	updater := newUpdater(t, store)

	source := newScriptedSource(
		encodeMessage(t, ProfileMessage{ID: host.ID.String(), SystemProfile: map[string]any{"number_of_cpus": "four"}}),
		encodeMessage(t, ProfileMessage{ID: host.ID.String(), SystemProfile: map[string]any{"number_of_cpus": float64(4)}}),
	)

	consumer, err := NewConsumer(source, updater, nil, log.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		consumer.Run(ctx)
	}()

	select {
	case <-source.done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain the scripted messages")
	}
	cancel()
	<-finished

	require.Len(t, store.commits, 1)
	assert.Equal(t, map[string]any{"number_of_cpus": float64(4)}, store.commits[0])
}

func TestConsumerRequiresCollaborators(t *testing.T) {
	updater := newUpdater(t, newFakeStore())

	_, err := NewConsumer(nil, updater, nil, nil)
	assert.Error(t, err)

	_, err = NewConsumer(newScriptedSource(), nil, nil, nil)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	validationErr := &ValidationError{Fields: []validation.FieldError{{Field: "arch", Message: "must be a string"}}}
	assert.Equal(t, dispositionDrop, classify(validationErr))
	assert.Equal(t, dispositionDrop, classify(context.DeadlineExceeded))
}
