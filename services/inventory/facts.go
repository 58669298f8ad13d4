package inventory

import "sort"

// FactSet is the wire form of one namespace of facts.
type FactSet struct {
	Namespace string         `json:"namespace"`
	Facts     map[string]any `json:"facts"`
}

// DeserializeFacts converts the list-of-namespace-documents wire format
// into a namespace-keyed mapping. A nil value yields an empty mapping.
// Every item must carry both the "namespace" and "facts" keys. A namespace
// appearing multiple times is merged key by key, later values winning on
// collision. Null or empty facts are stored as an empty mapping, never nil.
func DeserializeFacts(value any) (map[string]map[string]any, error) {
	out := map[string]map[string]any{}
	if value == nil {
		return out, nil
	}

	items, ok := value.([]any)
	if !ok {
		return nil, &InputFormatError{Reason: "facts must be a list of namespace documents"}
	}

	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			return nil, &InputFormatError{Reason: "facts item must be an object"}
		}

		nsRaw, ok := item["namespace"]
		if !ok {
			return nil, &InputFormatError{Reason: "invalid facts attribute, namespace is required"}
		}
		factsRaw, ok := item["facts"]
		if !ok {
			return nil, &InputFormatError{Reason: "invalid facts attribute, facts are required"}
		}

		ns, ok := nsRaw.(string)
		if !ok {
			return nil, &InputFormatError{Reason: "namespace must be a string"}
		}

		var facts map[string]any
		switch f := factsRaw.(type) {
		case nil:
		case map[string]any:
			facts = f
		default:
			return nil, &InputFormatError{Reason: "facts must be an object"}
		}

		if out[ns] == nil {
			out[ns] = map[string]any{}
		}
		for k, v := range facts {
			out[ns][k] = v
		}
	}

	return out, nil
}

// SerializeFacts converts a namespace-keyed mapping into the wire list, one
// entry per namespace, ordered by namespace. A namespace with nil facts
// serializes as an empty object.
func SerializeFacts(facts map[string]map[string]any) []FactSet {
	namespaces := make([]string, 0, len(facts))
	for ns := range facts {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	out := make([]FactSet, 0, len(namespaces))
	for _, ns := range namespaces {
		f := facts[ns]
		if f == nil {
			f = map[string]any{}
		}
		out = append(out, FactSet{Namespace: ns, Facts: f})
	}
	return out
}

// CanonicalFactFields is the fixed enumeration of host identity fields.
// External clients depend on these exact names.
var CanonicalFactFields = []string{
	"insights_id",
	"rhel_machine_id",
	"subscription_manager_id",
	"satellite_id",
	"bios_uuid",
	"ip_addresses",
	"fqdn",
	"mac_addresses",
	"external_id",
}

// DeserializeCanonicalFacts extracts the recognized identity fields from a
// raw payload. Values are copied exactly as supplied; null values, empty
// strings and empty sequences count as absent and are dropped. Unknown
// payload fields are ignored.
func DeserializeCanonicalFacts(doc map[string]any) map[string]any {
	out := map[string]any{}
	for _, field := range CanonicalFactFields {
		value, ok := doc[field]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if v == "" {
				continue
			}
		case []any:
			if len(v) == 0 {
				continue
			}
		case []string:
			if len(v) == 0 {
				continue
			}
		}
		out[field] = value
	}
	return out
}

// SerializeCanonicalFacts presents a host's canonical facts with a stable
// key set: all recognized fields appear, absent ones as null.
func SerializeCanonicalFacts(facts map[string]any) map[string]any {
	out := make(map[string]any, len(CanonicalFactFields))
	for _, field := range CanonicalFactFields {
		if value, ok := facts[field]; ok {
			out[field] = value
		} else {
			out[field] = nil
		}
	}
	return out
}
