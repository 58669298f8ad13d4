package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"hostinv/pkg/db"
)

// ErrHostNotFound signals a lookup for a host id that does not exist.
var ErrHostNotFound = errors.New("host not found")

// HostStore is the persistence boundary for hosts. Commit failures surface
// as errors; callers decide whether to drop, retry or propagate.
type HostStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Host, error)
	Create(ctx context.Context, h Host) (Host, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (Host, error)
	UpdateSystemProfile(ctx context.Context, id uuid.UUID, profile map[string]any) error
}

// SystemProfileGetter loads just the system profile projection of a host.
type SystemProfileGetter interface {
	GetSystemProfile(ctx context.Context, id uuid.UUID) (map[string]any, error)
}

// GormHostStore persists hosts through a GORM session.
type GormHostStore struct {
	orm *gorm.DB
}

// NewHostStore constructs a GormHostStore.
func NewHostStore(orm *gorm.DB) (*GormHostStore, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	return &GormHostStore{orm: orm}, nil
}

// GetByID loads one host or reports ErrHostNotFound.
func (s *GormHostStore) GetByID(ctx context.Context, id uuid.UUID) (Host, error) {
	var model hostModel
	err := s.orm.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Host{}, ErrHostNotFound
	}
	if err != nil {
		return Host{}, err
	}
	return model.toHost(), nil
}

// Create persists a new host, assigning its identity and audit timestamps.
func (s *GormHostStore) Create(ctx context.Context, h Host) (Host, error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now

	model := modelFromHost(h)
	if err := s.orm.WithContext(ctx).Create(&model).Error; err != nil {
		return Host{}, err
	}
	return model.toHost(), nil
}

// UpdateFields applies a partial update to the given columns and returns
// the resulting host. The modified timestamp advances on every mutation.
func (s *GormHostStore) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (Host, error) {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	res := s.orm.WithContext(ctx).Model(&hostModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return Host{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Host{}, ErrHostNotFound
	}

	return s.GetByID(ctx, id)
}

// UpdateSystemProfile replaces the host's system profile column. The write
// is deliberately narrowed to the one column so it cannot clobber
// concurrent API-driven edits to other host fields.
func (s *GormHostStore) UpdateSystemProfile(ctx context.Context, id uuid.UUID, profile map[string]any) error {
	res := s.orm.WithContext(ctx).Model(&hostModel{}).Where("id = ?", id).Updates(map[string]any{
		"system_profile": toJSONMap(profile),
		"updated_at":     time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrHostNotFound
	}
	return nil
}

// SystemProfileReader serves the system profile projection through a
// single-column read, the query-side mirror of UpdateSystemProfile's
// narrow write.
type SystemProfileReader struct {
	pool *pgxpool.Pool
}

// NewSystemProfileReader constructs a SystemProfileReader.
func NewSystemProfileReader(pool *pgxpool.Pool) (*SystemProfileReader, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SystemProfileReader{pool: pool}, nil
}

// GetSystemProfile loads one host's system profile column, never the rest
// of the row. A host without a stored profile yields an empty mapping.
func (r *SystemProfileReader) GetSystemProfile(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	var row struct {
		SystemProfile map[string]any `db:"system_profile"`
	}
	err := db.Get(ctx, r.pool, &row, `SELECT system_profile FROM hosts WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrHostNotFound
	}
	if err != nil {
		return nil, err
	}
	if row.SystemProfile == nil {
		return map[string]any{}, nil
	}
	return row.SystemProfile, nil
}
