package inventory

import (
	"fmt"
	"strings"

	"hostinv/services/inventory/validation"
)

// ParseError reports a tag wire string from which no key segment could be
// isolated or whose percent-encoding is malformed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid tag string %q: %s", e.Input, e.Reason)
}

// InputFormatError reports a payload section that does not match its wire
// shape, such as a facts item without the namespace and facts keys.
type InputFormatError struct {
	Reason string
}

func (e *InputFormatError) Error() string {
	return "invalid payload format: " + e.Reason
}

// MissingIdentityError rejects a host payload that carries no usable
// canonical fact.
type MissingIdentityError struct{}

func (e *MissingIdentityError) Error() string {
	return "at least one canonical fact is required"
}

// ValidationError carries the per-field detail of a schema rejection.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, fe := range e.Fields {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
