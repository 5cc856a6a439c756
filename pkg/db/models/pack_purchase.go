package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/pkg/enums"
)

// PackPurchase is one purchase attempt for a pack, reviewed manually by an
// admin. AmountCents is captured at creation time and never updated, even if
// the pack is repriced later. ApprovedAt and RejectedAt are mutually
// exclusive; setting one clears the other.
type PackPurchase struct {
	ID          uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index:idx_pack_purchases_user_pack,priority:1"`
	PackID      uuid.UUID            `gorm:"column:pack_id;type:uuid;not null;index:idx_pack_purchases_user_pack,priority:2"`
	Status      enums.PurchaseStatus `gorm:"column:status;type:purchase_status;not null;default:'pending';index"`
	AmountCents int64                `gorm:"column:amount_cents;not null"`
	PaymentRef  *string              `gorm:"column:payment_ref"`
	Note        *string              `gorm:"column:note"`
	ApprovedAt  *time.Time           `gorm:"column:approved_at"`
	RejectedAt  *time.Time           `gorm:"column:rejected_at"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
