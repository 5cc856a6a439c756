package models

import (
	"time"

	"github.com/google/uuid"
)

// PackEntitlement grants one user access to one pack. Presence of the row is
// the grant; there is no status column. Rows are created on request
// (provisional trust) or approval and hard-deleted on rejection.
type PackEntitlement struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	PackID    uuid.UUID `gorm:"column:pack_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides GORM's pluralization.
func (PackEntitlement) TableName() string { return "pack_entitlements" }
