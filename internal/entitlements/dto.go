package entitlements

import (
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/pkg/enums"
)

// PackAccess is one owned pack in the entitlement snapshot.
type PackAccess struct {
	PackID    uuid.UUID `json:"pack_id" gorm:"column:pack_id"`
	Slug      string    `json:"slug" gorm:"column:slug"`
	Title     string    `json:"title" gorm:"column:title"`
	GrantedAt time.Time `json:"granted_at" gorm:"column:granted_at"`
}

// SubscriptionAccess is the subscription half of the snapshot.
type SubscriptionAccess struct {
	Tier     enums.SubscriptionTier  `json:"tier"`
	Status   enums.EntitlementStatus `json:"status"`
	StartsAt time.Time               `json:"starts_at"`
	EndsAt   *time.Time              `json:"ends_at,omitempty"`
	Active   bool                    `json:"active"`
}

// Snapshot is everything a user currently has access to.
type Snapshot struct {
	Packs        []PackAccess        `json:"packs"`
	Subscription *SubscriptionAccess `json:"subscription,omitempty"`
}
