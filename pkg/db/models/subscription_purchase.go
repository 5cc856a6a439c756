package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/pkg/enums"
)

// SubscriptionPurchase is one subscription request pending manual review.
// Structurally it mirrors PackPurchase with a tier instead of a pack target.
type SubscriptionPurchase struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index:idx_sub_purchases_user_tier,priority:1"`
	Tier        enums.SubscriptionTier `gorm:"column:tier;type:subscription_tier;not null;index:idx_sub_purchases_user_tier,priority:2"`
	Status      enums.PurchaseStatus   `gorm:"column:status;type:purchase_status;not null;default:'pending';index"`
	AmountCents int64                  `gorm:"column:amount_cents;not null"`
	PaymentRef  *string                `gorm:"column:payment_ref"`
	Note        *string                `gorm:"column:note"`
	ApprovedAt  *time.Time             `gorm:"column:approved_at"`
	RejectedAt  *time.Time             `gorm:"column:rejected_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
