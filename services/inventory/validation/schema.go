// Package validation checks raw host and system profile documents before
// they are allowed anywhere near persisted state. Validation outcomes are
// modelled as a result value carrying per-field errors rather than opaque
// exceptions, so callers can match on fields programmatically.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of validating one document. On success Document
// holds the normalized payload; on failure Errors lists every offending
// field in document order.
type Result struct {
	Valid    bool           `json:"valid"`
	Document map[string]any `json:"-"`
	Errors   []FieldError   `json:"errors,omitempty"`
}

func invalid(errs []FieldError) *Result {
	return &Result{Valid: false, Errors: errs}
}

// HostSchema validates inbound host payloads.
type HostSchema struct {
	checks *validator.Validate
}

// NewHostSchema builds a HostSchema backed by a fresh validator instance.
func NewHostSchema() *HostSchema {
	return &HostSchema{checks: validator.New()}
}

// canonicalStringFields are the identity fields that must be plain strings
// when present. fqdn is handled separately because it carries a length
// constraint and rejects explicit nulls.
var canonicalStringFields = []string{
	"insights_id",
	"rhel_machine_id",
	"subscription_manager_id",
	"satellite_id",
	"bios_uuid",
	"external_id",
}

var canonicalListFields = []string{"ip_addresses", "mac_addresses"}

// Validate checks a raw host document. The returned Document is the
// normalized payload the assembler consumes; it is only set when Valid.
func (s *HostSchema) Validate(doc map[string]any) *Result {
	if doc == nil {
		doc = map[string]any{}
	}

	var errs []FieldError

	account, ok := doc["account"].(string)
	if !ok || account == "" {
		errs = append(errs, FieldError{Field: "account", Message: "account is required"})
	} else if err := s.checks.Var(account, "max=10"); err != nil {
		errs = append(errs, FieldError{Field: "account", Message: "account must be at most 10 characters"})
	}

	if raw, present := doc["fqdn"]; present {
		fqdn, ok := raw.(string)
		if !ok || fqdn == "" {
			errs = append(errs, FieldError{Field: "fqdn", Message: "fqdn must be a non-empty string"})
		} else if err := s.checks.Var(fqdn, "max=255"); err != nil {
			errs = append(errs, FieldError{Field: "fqdn", Message: "fqdn must be at most 255 characters"})
		}
	}

	errs = append(errs, s.checkOptionalString(doc, "display_name", 200)...)
	errs = append(errs, s.checkOptionalString(doc, "ansible_host", 255)...)

	for _, field := range canonicalStringFields {
		if raw, present := doc[field]; present && raw != nil {
			if _, ok := raw.(string); !ok {
				errs = append(errs, FieldError{Field: field, Message: "must be a string"})
			}
		}
	}

	for _, field := range canonicalListFields {
		errs = append(errs, checkStringList(doc, field)...)
	}

	if raw, present := doc["facts"]; present && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			errs = append(errs, FieldError{Field: "facts", Message: "facts must be a list of namespace documents"})
		} else {
			for i, item := range items {
				if _, ok := item.(map[string]any); !ok {
					errs = append(errs, FieldError{Field: fmt.Sprintf("facts[%d]", i), Message: "must be an object"})
				}
			}
		}
	}

	if raw, present := doc["tags"]; present && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			errs = append(errs, FieldError{Field: "tags", Message: "tags must be a list of tag records"})
		} else {
			for i, item := range items {
				record, ok := item.(map[string]any)
				if !ok {
					errs = append(errs, FieldError{Field: fmt.Sprintf("tags[%d]", i), Message: "must be an object"})
					continue
				}
				if key, ok := record["key"].(string); !ok || key == "" {
					errs = append(errs, FieldError{Field: fmt.Sprintf("tags[%d].key", i), Message: "key is required"})
				}
			}
		}
	}

	if raw, present := doc["system_profile"]; present && raw != nil {
		if _, ok := raw.(map[string]any); !ok {
			errs = append(errs, FieldError{Field: "system_profile", Message: "system_profile must be an object"})
		}
	}

	if len(errs) > 0 {
		return invalid(errs)
	}
	return &Result{Valid: true, Document: doc}
}

func (s *HostSchema) checkOptionalString(doc map[string]any, field string, maxLen int) []FieldError {
	raw, present := doc[field]
	if !present || raw == nil {
		return nil
	}
	value, ok := raw.(string)
	if !ok {
		return []FieldError{{Field: field, Message: "must be a string"}}
	}
	if err := s.checks.Var(value, fmt.Sprintf("max=%d", maxLen)); err != nil {
		return []FieldError{{Field: field, Message: fmt.Sprintf("must be at most %d characters", maxLen)}}
	}
	return nil
}

func checkStringList(doc map[string]any, field string) []FieldError {
	raw, present := doc[field]
	if !present || raw == nil {
		return nil
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		return nil
	default:
		return []FieldError{{Field: field, Message: "must be a list of strings"}}
	}

	for i, item := range items {
		if _, ok := item.(string); !ok {
			return []FieldError{{Field: fmt.Sprintf("%s[%d]", field, i), Message: "must be a string"}}
		}
	}
	return nil
}

// SystemProfileSchema validates telemetry documents arriving through the
// ingestion stream. The profile is an open schema: unknown attributes pass
// through unchanged, known attributes are type-checked.
type SystemProfileSchema struct {
	checks *validator.Validate
}

// NewSystemProfileSchema builds a SystemProfileSchema.
func NewSystemProfileSchema() *SystemProfileSchema {
	return &SystemProfileSchema{checks: validator.New()}
}

var profileCountFields = []string{
	"number_of_cpus",
	"number_of_sockets",
	"cores_per_socket",
	"system_memory_bytes",
}

var profileStringFields = []string{
	"arch",
	"bios_vendor",
	"bios_version",
	"cloud_provider",
	"infrastructure_type",
	"infrastructure_vendor",
	"os_kernel_version",
	"os_release",
}

// Validate checks one raw system profile document. A nil document validates
// to an empty profile.
func (s *SystemProfileSchema) Validate(doc map[string]any) *Result {
	if doc == nil {
		doc = map[string]any{}
	}

	var errs []FieldError

	for _, field := range profileCountFields {
		raw, present := doc[field]
		if !present || raw == nil {
			continue
		}
		n, ok := asInteger(raw)
		if !ok {
			errs = append(errs, FieldError{Field: field, Message: "must be an integer"})
			continue
		}
		if err := s.checks.Var(n, "min=0"); err != nil {
			errs = append(errs, FieldError{Field: field, Message: "must not be negative"})
		}
	}

	for _, field := range profileStringFields {
		raw, present := doc[field]
		if !present || raw == nil {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			errs = append(errs, FieldError{Field: field, Message: "must be a string"})
			continue
		}
		if err := s.checks.Var(value, "max=100"); err != nil {
			errs = append(errs, FieldError{Field: field, Message: "must be at most 100 characters"})
		}
	}

	if len(errs) > 0 {
		return invalid(errs)
	}
	return &Result{Valid: true, Document: doc}
}

// asInteger accepts the numeric shapes a JSON decode can produce for an
// integral telemetry value.
func asInteger(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}
