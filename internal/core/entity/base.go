package entity

import (
	"time"

	"retailcore/internal/core/id"
)

// BaseEntity contains fields shared by every tenant-owned row.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// TenantID scopes the row; every query filters on it explicitly.
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity(tenantID id.ID) BaseEntity {
	return BaseEntity{
		ID:       id.New(),
		TenantID: tenantID,
		Version:  1,
	}
}

// BaseDocument extends BaseEntity with audit fields and a soft-delete tombstone.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy id.ID     `db:"created_by" json:"createdBy"`

	// DeletedAt is set when a draft is deleted. Headers are never physically removed.
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// NewBaseDocument creates a new BaseDocument with generated ID and timestamps.
func NewBaseDocument(tenantID, createdBy id.ID) BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(tenantID),
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  createdBy,
	}
}

// Touch updates the UpdatedAt timestamp.
// Version is bumped by the repository when the row is written.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// MarkDeleted sets the tombstone.
func (b *BaseDocument) MarkDeleted() {
	now := time.Now().UTC()
	b.DeletedAt = &now
	b.UpdatedAt = now
}

// IsDeleted reports whether the tombstone is set.
func (b *BaseDocument) IsDeleted() bool {
	return b.DeletedAt != nil
}
