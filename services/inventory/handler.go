package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"hostinv/pkg/metrics"
)

// ProfileMessage is one decoded message from the system profile stream. It
// lives only for the duration of one handler invocation.
type ProfileMessage struct {
	ID            string         `json:"id"`
	RequestID     string         `json:"request_id"`
	SystemProfile map[string]any `json:"system_profile"`
}

// ProfileUpdater applies one system profile message to its target host:
// load, validate, commit. Messages naming a missing or empty host id are
// dropped here without side effect; schema and commit failures surface to
// the caller.
type ProfileUpdater struct {
	store   HostStore
	schema  ProfileValidator
	metrics *metrics.Ingestion
	logger  *log.Logger
}

// NewProfileUpdater constructs a ProfileUpdater.
func NewProfileUpdater(store HostStore, schema ProfileValidator, m *metrics.Ingestion, logger *log.Logger) (*ProfileUpdater, error) {
	if store == nil {
		return nil, errors.New("host store is required")
	}
	if schema == nil {
		return nil, errors.New("profile schema is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ProfileUpdater{store: store, schema: schema, metrics: m, logger: logger}, nil
}

// Handle processes one decoded message. A nil return means the message was
// either committed or deliberately dropped; an error means the caller
// should count a failure. Exactly one commit happens per successful call.
func (u *ProfileUpdater) Handle(ctx context.Context, msg ProfileMessage) error {
	start := time.Now()
	defer func() { u.metrics.ObserveCommit(time.Since(start)) }()

	if msg.ID == "" {
		u.logger.Printf("ERROR message with null host id, something went wrong request_id=%s", msg.RequestID)
		return nil
	}

	id, err := uuid.Parse(msg.ID)
	if err != nil {
		u.logger.Printf("ERROR host with id [%s] not found request_id=%s", msg.ID, msg.RequestID)
		return nil
	}

	host, err := u.store.GetByID(ctx, id)
	if errors.Is(err, ErrHostNotFound) {
		u.logger.Printf("ERROR host with id [%s] not found request_id=%s", msg.ID, msg.RequestID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up host %s: %w", msg.ID, err)
	}

	u.logger.Printf("INFO processing system profile for host id=%s request_id=%s", msg.ID, msg.RequestID)

	result := u.schema.Validate(msg.SystemProfile)
	if !result.Valid {
		return &ValidationError{Fields: result.Errors}
	}

	if err := u.store.UpdateSystemProfile(ctx, host.ID, result.Document); err != nil {
		return fmt.Errorf("commit system profile for host %s: %w", msg.ID, err)
	}

	return nil
}
