package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/pkg/enums"
)

// SubscriptionEntitlement is the single live subscription row per user.
// Unlike pack entitlements it is never deleted; rejection flips the status.
// EndsAt nil means indefinite.
type SubscriptionEntitlement struct {
	UserID    uuid.UUID               `gorm:"column:user_id;type:uuid;primaryKey"`
	Status    enums.EntitlementStatus `gorm:"column:status;type:entitlement_status;not null;default:'pending'"`
	Tier      enums.SubscriptionTier  `gorm:"column:tier;type:subscription_tier;not null"`
	StartsAt  time.Time               `gorm:"column:starts_at;not null"`
	EndsAt    *time.Time              `gorm:"column:ends_at"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (SubscriptionEntitlement) TableName() string { return "subscription_entitlements" }

// ActiveAt reports whether the entitlement grants access at the given time.
// Pending rows grant provisional access until an admin decides.
func (e SubscriptionEntitlement) ActiveAt(now time.Time) bool {
	if !e.Status.GrantsAccess() {
		return false
	}
	if e.EndsAt != nil && !now.Before(*e.EndsAt) {
		return false
	}
	return true
}
