package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hostinv/services/inventory"
)

func (a *API) handleCreateHost(w http.ResponseWriter, r *http.Request) {
	emitter := a.newEmitter()

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	host, err := inventory.DeserializeHost(payload, a.schema)
	if err != nil {
		var validationErr *inventory.ValidationError
		switch {
		case errors.As(err, &validationErr):
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"detail": validationErr.Fields,
			})
		default:
			// MissingIdentityError, InputFormatError and friends are
			// all payload problems.
			respondError(w, http.StatusBadRequest, err)
		}
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	created, err := a.hosts.Create(ctx, *host)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	a.emit(r, emitter, map[string]any{"type": "created", "id": created.ID.String()})

	respondJSON(w, http.StatusCreated, map[string]any{"host": inventory.SerializeHost(created)})
}

func (a *API) handleGetHost(w http.ResponseWriter, r *http.Request) {
	host, ok := a.fetchHost(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"host": inventory.SerializeHost(host)})
}

// handleGetSystemProfile reads only the system profile column, the
// query-side mirror of the ingestion pipeline's narrow write.
func (a *API) handleGetSystemProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseHostID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	profile, err := a.profiles.GetSystemProfile(ctx, id)
	if errors.Is(err, inventory.ErrHostNotFound) {
		respondError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, inventory.SerializeHostSystemProfile(inventory.Host{
		ID:                 id,
		SystemProfileFacts: profile,
	}))
}

func (a *API) handleGetTags(w http.ResponseWriter, r *http.Request) {
	host, ok := a.fetchHost(w, r)
	if !ok {
		return
	}
	tags := host.Tags
	if tags == nil {
		tags = map[string]map[string][]string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":   host.ID.String(),
		"tags": tags,
	})
}

// handlePatchHost updates the free-text attributes of a host. An explicit
// empty string and an absent field are different things: "" clears
// display_name to null but is stored verbatim for ansible_host.
func (a *API) handlePatchHost(w http.ResponseWriter, r *http.Request) {
	emitter := a.newEmitter()

	id, err := parseHostID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	updates := map[string]any{}
	for field, raw := range payload {
		switch field {
		case "display_name":
			value, ok := raw.(string)
			if !ok && raw != nil {
				respondError(w, http.StatusBadRequest, errors.New("display_name must be a string"))
				return
			}
			if !ok || value == "" {
				updates[field] = nil
			} else {
				updates[field] = value
			}
		case "ansible_host":
			value, ok := raw.(string)
			if !ok && raw != nil {
				respondError(w, http.StatusBadRequest, errors.New("ansible_host must be a string"))
				return
			}
			if !ok {
				updates[field] = nil
			} else {
				updates[field] = value
			}
		default:
			respondError(w, http.StatusBadRequest, errors.New("unknown field: "+field))
			return
		}
	}
	if len(updates) == 0 {
		respondError(w, http.StatusBadRequest, errors.New("no updatable fields supplied"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	host, err := a.hosts.UpdateFields(ctx, id, updates)
	if errors.Is(err, inventory.ErrHostNotFound) {
		respondError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	a.emit(r, emitter, map[string]any{"type": "updated", "id": host.ID.String()})

	respondJSON(w, http.StatusOK, map[string]any{"host": inventory.SerializeHost(host)})
}

func (a *API) fetchHost(w http.ResponseWriter, r *http.Request) (inventory.Host, bool) {
	id, err := parseHostID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return inventory.Host{}, false
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	host, err := a.hosts.GetByID(ctx, id)
	if errors.Is(err, inventory.ErrHostNotFound) {
		respondError(w, http.StatusNotFound, err)
		return inventory.Host{}, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return inventory.Host{}, false
	}

	return host, true
}

func parseHostID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("valid host id is required")
	}
	return id, nil
}
