package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(errs []FieldError) []string {
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Field)
	}
	return names
}

func TestHostSchemaValid(t *testing.T) {
	schema := NewHostSchema()

	doc := map[string]any{
		"account":      "0000001",
		"display_name": "web-01",
		"fqdn":         "web-01.example.com",
		"ip_addresses": []any{"10.10.0.1"},
		"facts": []any{
			map[string]any{"namespace": "ns", "facts": map[string]any{}},
		},
		"tags": []any{
			map[string]any{"namespace": "NS", "key": "env", "value": "prod"},
		},
		"system_profile": map[string]any{"arch": "x86_64"},
	}

	result := schema.Validate(doc)

	require.True(t, result.Valid, "unexpected errors: %v", result.Errors)
	assert.Equal(t, doc, result.Document)
}

func TestHostSchemaAccount(t *testing.T) {
	schema := NewHostSchema()

	tests := []struct {
		name    string
		account any
		valid   bool
	}{
		{name: "minimum length", account: "1", valid: true},
		{name: "maximum length", account: "0123456789", valid: true},
		{name: "too long", account: "01234567890", valid: false},
		{name: "empty", account: "", valid: false},
		{name: "missing", account: nil, valid: false},
		{name: "not a string", account: float64(42), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := map[string]any{}
			if tt.account != nil {
				doc["account"] = tt.account
			}
			result := schema.Validate(doc)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.Contains(t, fieldNames(result.Errors), "account")
			}
		})
	}
}

func TestHostSchemaFqdn(t *testing.T) {
	schema := NewHostSchema()

	tests := []struct {
		name  string
		fqdn  any
		valid bool
	}{
		{name: "normal hostname", fqdn: "host.example.com", valid: true},
		{name: "longest allowed", fqdn: strings.Repeat("a", 255), valid: true},
		{name: "too long", fqdn: strings.Repeat("a", 256), valid: false},
		{name: "empty string", fqdn: "", valid: false},
		{name: "explicit null", fqdn: nil, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate(map[string]any{"account": "1", "fqdn": tt.fqdn})
			assert.Equal(t, tt.valid, result.Valid)
		})
	}
}

func TestHostSchemaFreeTextLimits(t *testing.T) {
	schema := NewHostSchema()

	t.Run("display_name over 200", func(t *testing.T) {
		result := schema.Validate(map[string]any{"account": "1", "display_name": strings.Repeat("d", 201)})
		require.False(t, result.Valid)
		assert.Contains(t, fieldNames(result.Errors), "display_name")
	})

	t.Run("ansible_host over 255", func(t *testing.T) {
		result := schema.Validate(map[string]any{"account": "1", "ansible_host": strings.Repeat("a", 256)})
		require.False(t, result.Valid)
		assert.Contains(t, fieldNames(result.Errors), "ansible_host")
	})

	t.Run("empty strings allowed", func(t *testing.T) {
		result := schema.Validate(map[string]any{"account": "1", "display_name": "", "ansible_host": ""})
		assert.True(t, result.Valid)
	})
}

func TestHostSchemaStructuredFields(t *testing.T) {
	schema := NewHostSchema()

	tests := []struct {
		name      string
		doc       map[string]any
		badFields []string
	}{
		{
			name:      "canonical field wrong type",
			doc:       map[string]any{"account": "1", "insights_id": float64(7)},
			badFields: []string{"insights_id"},
		},
		{
			name:      "address list wrong type",
			doc:       map[string]any{"account": "1", "ip_addresses": "10.0.0.1"},
			badFields: []string{"ip_addresses"},
		},
		{
			name:      "address list with non-string item",
			doc:       map[string]any{"account": "1", "mac_addresses": []any{"aa:bb", float64(1)}},
			badFields: []string{"mac_addresses[1]"},
		},
		{
			name:      "facts not a list",
			doc:       map[string]any{"account": "1", "facts": map[string]any{}},
			badFields: []string{"facts"},
		},
		{
			name:      "facts item not an object",
			doc:       map[string]any{"account": "1", "facts": []any{"nope"}},
			badFields: []string{"facts[0]"},
		},
		{
			name:      "tags not a list",
			doc:       map[string]any{"account": "1", "tags": "env=prod"},
			badFields: []string{"tags"},
		},
		{
			name:      "tag record missing key",
			doc:       map[string]any{"account": "1", "tags": []any{map[string]any{"namespace": "NS"}}},
			badFields: []string{"tags[0].key"},
		},
		{
			name:      "system profile not an object",
			doc:       map[string]any{"account": "1", "system_profile": []any{}},
			badFields: []string{"system_profile"},
		},
		{
			name:      "multiple failures reported together",
			doc:       map[string]any{"insights_id": float64(7), "facts": "nope"},
			badFields: []string{"account", "insights_id", "facts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate(tt.doc)
			require.False(t, result.Valid)
			got := fieldNames(result.Errors)
			for _, field := range tt.badFields {
				assert.Contains(t, got, field)
			}
		})
	}
}

func TestSystemProfileSchema(t *testing.T) {
	schema := NewSystemProfileSchema()

	tests := []struct {
		name  string
		doc   map[string]any
		valid bool
	}{
		{
			name:  "nil document",
			doc:   nil,
			valid: true,
		},
		{
			name:  "typical profile",
			doc:   map[string]any{"number_of_cpus": float64(4), "arch": "x86_64", "os_release": "9.4"},
			valid: true,
		},
		{
			name:  "unknown attributes pass through",
			doc:   map[string]any{"some_future_field": []any{"anything"}},
			valid: true,
		},
		{
			name:  "count not an integer",
			doc:   map[string]any{"number_of_cpus": "four"},
			valid: false,
		},
		{
			name:  "count with fraction",
			doc:   map[string]any{"cores_per_socket": 1.5},
			valid: false,
		},
		{
			name:  "negative count",
			doc:   map[string]any{"system_memory_bytes": float64(-1)},
			valid: false,
		},
		{
			name:  "string field wrong type",
			doc:   map[string]any{"bios_vendor": float64(1)},
			valid: false,
		},
		{
			name:  "string field too long",
			doc:   map[string]any{"cloud_provider": strings.Repeat("c", 101)},
			valid: false,
		},
		{
			name:  "null attributes skipped",
			doc:   map[string]any{"arch": nil, "number_of_sockets": nil},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate(tt.doc)
			assert.Equal(t, tt.valid, result.Valid, "errors: %v", result.Errors)
		})
	}
}
