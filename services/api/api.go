// Package api is the thin HTTP boundary of the inventory service. It is
// request/response glue only; all invariants live in services/inventory.
package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hostinv/services/inventory"
)

// API wires the host store, the system profile reader, the host schema and
// the event emitter factory into HTTP handlers.
type API struct {
	hosts    inventory.HostStore
	profiles inventory.SystemProfileGetter
	schema   inventory.HostValidator
	emitters inventory.EmitterFactory
	logger   *log.Logger
}

// New initialises the API layer.
func New(hosts inventory.HostStore, profiles inventory.SystemProfileGetter, schema inventory.HostValidator, emitters inventory.EmitterFactory, logger *log.Logger) (*API, error) {
	if hosts == nil {
		return nil, errors.New("host store is required")
	}
	if profiles == nil {
		return nil, errors.New("system profile reader is required")
	}
	if schema == nil {
		return nil, errors.New("host schema is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &API{hosts: hosts, profiles: profiles, schema: schema, emitters: emitters, logger: logger}, nil
}

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes() (http.Handler, error) {
	if a == nil {
		return nil, errors.New("nil api")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/hosts", a.handleCreateHost)
		r.Get("/hosts/{id}", a.handleGetHost)
		r.Patch("/hosts/{id}", a.handlePatchHost)
		r.Get("/hosts/{id}/system_profile", a.handleGetSystemProfile)
		r.Get("/hosts/{id}/tags", a.handleGetTags)
	})

	return r, nil
}

// newEmitter opens the unit-of-work emitter for one request. Construction
// of the underlying emitter is deferred until the first event, so requests
// that are rejected before mutating anything never touch the bus.
func (a *API) newEmitter() *inventory.LazyEmitter {
	if a.emitters == nil {
		return nil
	}
	return inventory.NewLazyEmitter(a.emitters)
}

// emit publishes a lifecycle event through the request's emitter. Event
// delivery failures are logged, not surfaced to the client; the mutation
// has already committed by the time an event goes out.
func (a *API) emit(r *http.Request, emitter *inventory.LazyEmitter, event map[string]any) {
	if emitter == nil {
		return
	}
	event["request_id"] = middleware.GetReqID(r.Context())
	if err := emitter.Emit(r.Context(), event); err != nil {
		a.logger.Printf("ERROR emitting lifecycle event: %v", err)
	}
}
