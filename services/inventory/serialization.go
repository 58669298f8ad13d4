package inventory

import (
	"time"

	"hostinv/services/inventory/validation"
)

// HostValidator validates a raw host document against the host schema.
type HostValidator interface {
	Validate(doc map[string]any) *validation.Result
}

// ProfileValidator validates a raw system profile document.
type ProfileValidator interface {
	Validate(doc map[string]any) *validation.Result
}

// DeserializeHost assembles a Host from an inbound API payload. The payload
// is schema-validated first; the host is then built from the normalized
// document. Created/updated timestamps are assigned by the persistence
// layer, not here.
func DeserializeHost(doc map[string]any, schema HostValidator) (*Host, error) {
	result := schema.Validate(doc)
	if !result.Valid {
		return nil, &ValidationError{Fields: result.Errors}
	}
	doc = result.Document

	canonicalFacts := DeserializeCanonicalFacts(doc)
	if len(canonicalFacts) == 0 {
		return nil, &MissingIdentityError{}
	}

	facts, err := DeserializeFacts(doc["facts"])
	if err != nil {
		return nil, err
	}

	tags, err := deserializeTags(doc["tags"])
	if err != nil {
		return nil, err
	}

	return &Host{
		Account:            optionalString(doc, "account", false),
		DisplayName:        optionalString(doc, "display_name", false),
		AnsibleHost:        optionalString(doc, "ansible_host", true),
		CanonicalFacts:     canonicalFacts,
		Facts:              facts,
		Tags:               tags,
		SystemProfileFacts: profileOrEmpty(doc["system_profile"]),
	}, nil
}

// SerializeHost renders the external representation of a host: canonical
// facts with a stable key set flattened at the top level, the facts list,
// the free-text attributes, and identity/audit fields. Tags and the system
// profile have their own projections and are not part of this shape.
func SerializeHost(h Host) map[string]any {
	out := SerializeCanonicalFacts(h.CanonicalFacts)
	out["account"] = derefOrNil(h.Account)
	out["display_name"] = derefOrNil(h.DisplayName)
	out["ansible_host"] = derefOrNil(h.AnsibleHost)
	out["facts"] = SerializeFacts(h.Facts)
	out["id"] = h.ID.String()
	out["created"] = serializeTimestamp(h.CreatedAt)
	out["updated"] = serializeTimestamp(h.UpdatedAt)
	return out
}

// SerializeHostSystemProfile is the reduced projection used when only
// telemetry is requested.
func SerializeHostSystemProfile(h Host) map[string]any {
	profile := h.SystemProfileFacts
	if profile == nil {
		profile = map[string]any{}
	}
	return map[string]any{
		"id":             h.ID.String(),
		"system_profile": profile,
	}
}

func deserializeTags(value any) (map[string]map[string][]string, error) {
	if value == nil {
		return map[string]map[string][]string{}, nil
	}

	items, ok := value.([]any)
	if !ok {
		return nil, &InputFormatError{Reason: "tags must be a list of tag records"}
	}

	records := make([]TagRecord, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			return nil, &InputFormatError{Reason: "tags item must be an object"}
		}
		key, ok := item["key"].(string)
		if !ok || key == "" {
			return nil, &InputFormatError{Reason: "tag key is required"}
		}
		record := TagRecord{Key: key}
		if ns, ok := item["namespace"].(string); ok {
			record.Namespace = &ns
		}
		if val, ok := item["value"].(string); ok {
			record.Value = &val
		}
		records = append(records, record)
	}

	return NestedFromTags(TagsFromRecords(records)), nil
}

// optionalString reads a free-text attribute. Absent and null both mean
// "no value". An empty string is only preserved when keepEmpty is set;
// ansible_host is the single field where "" is a valid, distinct value.
func optionalString(doc map[string]any, key string, keepEmpty bool) *string {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil
	}
	value, ok := raw.(string)
	if !ok {
		return nil
	}
	if value == "" && !keepEmpty {
		return nil
	}
	return &value
}

func profileOrEmpty(raw any) map[string]any {
	if profile, ok := raw.(map[string]any); ok && profile != nil {
		return profile
	}
	return map[string]any{}
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func serializeTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
