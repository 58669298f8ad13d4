package inventory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Host is the aggregate root of the inventory. Canonical facts identify the
// host across reports and are never empty; facts and tags are grouped by
// caller-chosen namespaces; the system profile is the open telemetry
// document replaced wholesale on each successful ingestion.
type Host struct {
	ID                 uuid.UUID
	Account            *string
	DisplayName        *string
	AnsibleHost        *string
	CanonicalFacts     map[string]any
	Facts              map[string]map[string]any
	Tags               map[string]map[string][]string
	SystemProfileFacts map[string]any
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type hostModel struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Account        *string           `gorm:"type:text;index"`
	DisplayName    *string           `gorm:"type:text"`
	AnsibleHost    *string           `gorm:"type:text"`
	CanonicalFacts datatypes.JSONMap `gorm:"type:jsonb;not null"`
	Facts          datatypes.JSONMap `gorm:"type:jsonb"`
	Tags           datatypes.JSONMap `gorm:"type:jsonb"`
	SystemProfile  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (hostModel) TableName() string { return "hosts" }

func (m hostModel) toHost() Host {
	return Host{
		ID:                 m.ID,
		Account:            m.Account,
		DisplayName:        m.DisplayName,
		AnsibleHost:        m.AnsibleHost,
		CanonicalFacts:     mapFromJSONMap(m.CanonicalFacts),
		Facts:              factsFromJSONMap(m.Facts),
		Tags:               tagsFromJSONMap(m.Tags),
		SystemProfileFacts: mapFromJSONMap(m.SystemProfile),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func modelFromHost(h Host) hostModel {
	return hostModel{
		ID:             h.ID,
		Account:        h.Account,
		DisplayName:    h.DisplayName,
		AnsibleHost:    h.AnsibleHost,
		CanonicalFacts: toJSONMap(h.CanonicalFacts),
		Facts:          factsToJSONMap(h.Facts),
		Tags:           tagsToJSONMap(h.Tags),
		SystemProfile:  toJSONMap(h.SystemProfileFacts),
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
	}
}

func mapFromJSONMap(src datatypes.JSONMap) map[string]any {
	out := map[string]any{}
	for k, v := range src {
		out[k] = v
	}
	return out
}

func toJSONMap(src map[string]any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range src {
		out[k] = v
	}
	return out
}

func factsToJSONMap(src map[string]map[string]any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for ns, facts := range src {
		if facts == nil {
			facts = map[string]any{}
		}
		out[ns] = facts
	}
	return out
}

func factsFromJSONMap(src datatypes.JSONMap) map[string]map[string]any {
	out := map[string]map[string]any{}
	for ns, raw := range src {
		facts, _ := raw.(map[string]any)
		if facts == nil {
			facts = map[string]any{}
		}
		out[ns] = facts
	}
	return out
}

func tagsToJSONMap(src map[string]map[string][]string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for ns, keys := range src {
		nested := map[string]any{}
		for key, values := range keys {
			if values == nil {
				values = []string{}
			}
			nested[key] = values
		}
		out[ns] = nested
	}
	return out
}

// tagsFromJSONMap rebuilds the nested tag structure from a decoded JSONB
// column, where value lists come back as []any.
func tagsFromJSONMap(src datatypes.JSONMap) map[string]map[string][]string {
	out := map[string]map[string][]string{}
	for ns, raw := range src {
		keys, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out[ns] = map[string][]string{}
		for key, rawValues := range keys {
			values := []string{}
			switch vs := rawValues.(type) {
			case []any:
				for _, v := range vs {
					if s, ok := v.(string); ok {
						values = append(values, s)
					}
				}
			case []string:
				values = append(values, vs...)
			}
			out[ns][key] = values
		}
	}
	return out
}
