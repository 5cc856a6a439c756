package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/pkg/enums"
)

// SubscriptionChangeRequest records a subscriber asking to cancel or
// downgrade. The live entitlement is only mutated when an admin resolves
// the request.
type SubscriptionChangeRequest struct {
	ID         uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Kind       enums.ChangeRequestKind `gorm:"column:kind;type:change_request_kind;not null"`
	TargetTier *enums.SubscriptionTier `gorm:"column:target_tier;type:subscription_tier"`
	Status     enums.PurchaseStatus    `gorm:"column:status;type:purchase_status;not null;default:'pending';index"`
	ResolvedAt *time.Time              `gorm:"column:resolved_at"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
