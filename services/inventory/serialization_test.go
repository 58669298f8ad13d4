package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostinv/services/inventory/validation"
)

// rejectAllValidator fails every document with a fixed field error.
type rejectAllValidator struct{}

func (rejectAllValidator) Validate(doc map[string]any) *validation.Result {
	return &validation.Result{
		Valid:  false,
		Errors: []validation.FieldError{{Field: "account", Message: "account is required"}},
	}
}

func TestDeserializeHost(t *testing.T) {
	doc := map[string]any{
		"account":      "0000001",
		"display_name": "web-01",
		"ansible_host": "web-01.internal",
		"insights_id":  "5f20ff74-a14b-4bd6-8c6f-5ef839a4dba9",
		"fqdn":         "web-01.example.com",
		"facts": []any{
			map[string]any{"namespace": "ns", "facts": map[string]any{"cpu": "x86_64"}},
		},
		"tags": []any{
			map[string]any{"namespace": "NS", "key": "env", "value": "prod"},
			map[string]any{"key": "bare"},
		},
		"system_profile": map[string]any{"number_of_cpus": float64(4)},
	}

	host, err := DeserializeHost(doc, validation.NewHostSchema())
	require.NoError(t, err)

	require.NotNil(t, host.Account)
	assert.Equal(t, "0000001", *host.Account)
	require.NotNil(t, host.DisplayName)
	assert.Equal(t, "web-01", *host.DisplayName)
	require.NotNil(t, host.AnsibleHost)
	assert.Equal(t, "web-01.internal", *host.AnsibleHost)

	assert.Equal(t, map[string]any{
		"insights_id": "5f20ff74-a14b-4bd6-8c6f-5ef839a4dba9",
		"fqdn":        "web-01.example.com",
	}, host.CanonicalFacts)

	assert.Equal(t, map[string]map[string]any{"ns": {"cpu": "x86_64"}}, host.Facts)
	assert.Equal(t, map[string]map[string][]string{
		"NS": {"env": {"prod"}},
		"":   {"bare": {}},
	}, host.Tags)
	assert.Equal(t, map[string]any{"number_of_cpus": float64(4)}, host.SystemProfileFacts)
}

func TestDeserializeHostSingleCanonicalFact(t *testing.T) {
	for _, field := range []string{"insights_id", "bios_uuid", "external_id"} {
		t.Run(field, func(t *testing.T) {
			doc := map[string]any{"account": "1", field: "some-identity"}
			host, err := DeserializeHost(doc, validation.NewHostSchema())
			require.NoError(t, err)
			assert.Equal(t, map[string]any{field: "some-identity"}, host.CanonicalFacts)
		})
	}
}

func TestDeserializeHostMissingIdentity(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{
			name: "account only",
			doc:  map[string]any{"account": "1"},
		},
		{
			name: "display name is not identity",
			doc:  map[string]any{"account": "1", "display_name": "x"},
		},
		{
			name: "empty canonical values count as absent",
			doc:  map[string]any{"account": "1", "insights_id": "", "ip_addresses": []any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeserializeHost(tt.doc, validation.NewHostSchema())
			require.Error(t, err)
			var missing *MissingIdentityError
			assert.ErrorAs(t, err, &missing)
		})
	}
}

func TestDeserializeHostEmptyStringSemantics(t *testing.T) {
	doc := map[string]any{
		"account":      "1",
		"insights_id":  "5f20ff74-a14b-4bd6-8c6f-5ef839a4dba9",
		"display_name": "",
		"ansible_host": "",
	}

	host, err := DeserializeHost(doc, validation.NewHostSchema())
	require.NoError(t, err)

	assert.Nil(t, host.DisplayName, "empty display_name must collapse to nil")
	require.NotNil(t, host.AnsibleHost, "empty ansible_host must be preserved")
	assert.Equal(t, "", *host.AnsibleHost)
}

func TestDeserializeHostValidationFailure(t *testing.T) {
	_, err := DeserializeHost(map[string]any{}, rejectAllValidator{})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Fields, 1)
	assert.Equal(t, "account", validationErr.Fields[0].Field)
}

func TestDeserializeHostBadFacts(t *testing.T) {
	doc := map[string]any{
		"account":     "1",
		"insights_id": "5f20ff74-a14b-4bd6-8c6f-5ef839a4dba9",
		"facts": []any{
			map[string]any{"namespace": "ns"},
		},
	}

	// The schema only checks facts items are objects; the assembler
	// enforces the namespace/facts key contract.
	_, err := DeserializeHost(doc, validation.NewHostSchema())
	require.Error(t, err)
	var formatErr *InputFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestSerializeHost(t *testing.T) {
	id := uuid.MustParse("352ba0a2-a27b-4a4b-8e93-9a7c04b07d38")
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	updated := created.Add(time.Hour)

	host := Host{
		ID:          id,
		Account:     strptr("0000001"),
		DisplayName: strptr("web-01"),
		AnsibleHost: strptr(""),
		CanonicalFacts: map[string]any{
			"insights_id": "5f20ff74-a14b-4bd6-8c6f-5ef839a4dba9",
			"fqdn":        "web-01.example.com",
		},
		Facts:              map[string]map[string]any{"ns": {"cpu": "x86_64"}},
		Tags:               map[string]map[string][]string{"NS": {"env": {"prod"}}},
		SystemProfileFacts: map[string]any{"number_of_cpus": float64(4)},
		CreatedAt:          created,
		UpdatedAt:          updated,
	}

	got := SerializeHost(host)

	assert.Equal(t, "5f20ff74-a14b-4bd6-8c6f-5ef839a4dba9", got["insights_id"])
	assert.Equal(t, "web-01.example.com", got["fqdn"])
	assert.Nil(t, got["bios_uuid"])
	assert.Nil(t, got["mac_addresses"])

	assert.Equal(t, "0000001", got["account"])
	assert.Equal(t, "web-01", got["display_name"])
	assert.Equal(t, "", got["ansible_host"])

	assert.Equal(t, []FactSet{{Namespace: "ns", Facts: map[string]any{"cpu": "x86_64"}}}, got["facts"])

	assert.Equal(t, id.String(), got["id"])
	assert.Equal(t, "2026-03-14T09:26:53Z", got["created"])
	assert.Equal(t, "2026-03-14T10:26:53Z", got["updated"])

	_, hasTags := got["tags"]
	assert.False(t, hasTags, "tags have their own projection")
	_, hasProfile := got["system_profile"]
	assert.False(t, hasProfile, "system profile has its own projection")
}

func TestSerializeHostNilAttributes(t *testing.T) {
	host := Host{
		ID:             uuid.New(),
		CanonicalFacts: map[string]any{"fqdn": "host.example.com"},
	}

	got := SerializeHost(host)

	assert.Nil(t, got["account"])
	assert.Nil(t, got["display_name"])
	assert.Nil(t, got["ansible_host"])
	facts, ok := got["facts"].([]FactSet)
	require.True(t, ok)
	assert.Empty(t, facts)
}

func TestSerializeHostSystemProfile(t *testing.T) {
	id := uuid.New()

	t.Run("populated profile", func(t *testing.T) {
		host := Host{ID: id, SystemProfileFacts: map[string]any{"arch": "x86_64"}}
		got := SerializeHostSystemProfile(host)
		assert.Equal(t, map[string]any{
			"id":             id.String(),
			"system_profile": map[string]any{"arch": "x86_64"},
		}, got)
	})

	t.Run("nil profile defaults to empty object", func(t *testing.T) {
		got := SerializeHostSystemProfile(Host{ID: id})
		assert.Equal(t, map[string]any{}, got["system_profile"])
	})
}
