package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"hostinv/pkg/metrics"
)

// Source yields raw messages from the input stream. Next blocks until a
// message is available or ctx is done.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// MessageHandler processes one decoded profile message.
type MessageHandler interface {
	Handle(ctx context.Context, msg ProfileMessage) error
}

// disposition classifies a handler failure at the loop boundary. Every
// class currently maps to drop-and-log; retry and fatal exist so the
// boundary can differentiate without restructuring the loop.
type disposition int

const (
	dispositionDrop disposition = iota
	dispositionRetry
	dispositionFatal
)

func classify(err error) disposition {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		// Schema rejections are permanent; retrying cannot help.
		return dispositionDrop
	default:
		// Lookup and commit failures could become retryable once a
		// redelivery path exists.
		return dispositionDrop
	}
}

// Consumer is the perpetual ingestion loop. One message is fully processed
// before the next is pulled; a failure of any single message is logged,
// counted and never stops the loop.
type Consumer struct {
	source  Source
	handler MessageHandler
	metrics *metrics.Ingestion
	logger  *log.Logger
}

// NewConsumer constructs a Consumer.
func NewConsumer(source Source, handler MessageHandler, m *metrics.Ingestion, logger *log.Logger) (*Consumer, error) {
	if source == nil {
		return nil, errors.New("source is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Consumer{source: source, handler: handler, metrics: m, logger: logger}, nil
}

// Run consumes the stream until ctx is cancelled. It is meant to be started
// once, on a single dedicated goroutine, at process initialization.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Printf("INFO starting system profile consumer")

	for {
		data, err := c.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Printf("INFO system profile consumer stopping")
				return
			}
			c.logger.Printf("ERROR polling input stream: %v", err)
			sleep(ctx, time.Second)
			continue
		}

		start := time.Now()
		var msg ProfileMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Printf("ERROR dropping undecodable message: %v", err)
			c.metrics.IncFailed()
			continue
		}
		c.metrics.ObserveDeserialization(time.Since(start))

		if err := c.handler.Handle(ctx, msg); err != nil {
			switch classify(err) {
			case dispositionRetry, dispositionFatal, dispositionDrop:
				// No retry or dead-letter path exists yet; a failed
				// message is dropped regardless of class.
				c.logger.Printf("ERROR handling message id=%s request_id=%s: %v", msg.ID, msg.RequestID, err)
				c.metrics.IncFailed()
			}
			continue
		}

		c.metrics.IncProcessed()
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
