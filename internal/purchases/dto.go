package purchases

import (
	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/internal/approval"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
)

// RequestInput captures a buyer asking to purchase a pack.
type RequestInput struct {
	UserID     uuid.UUID
	PackID     uuid.UUID
	PaymentRef *string
	Note       *string
	ActorRole  string
}

// RequestResult carries the purchase row plus whether it already existed.
type RequestResult struct {
	Purchase *models.PackPurchase
	// Existing is true when a pending purchase was already on file and no
	// new row was created.
	Existing bool
}

// DecideInput captures an admin ruling on a pending purchase.
type DecideInput struct {
	PurchaseID uuid.UUID
	Action     approval.Action
	Note       *string
	ActorID    uuid.UUID
	ActorRole  string
}

// PurchaseFilters narrows admin purchase listings.
type PurchaseFilters struct {
	Status *enums.PurchaseStatus
	UserID *uuid.UUID
	PackID *uuid.UUID
}

// PurchaseList is one page of purchases plus the cursor for the next page.
type PurchaseList struct {
	Items      []models.PackPurchase
	NextCursor string
}

// PurchaseRequestedEvent is emitted when a buyer files a purchase.
type PurchaseRequestedEvent struct {
	PurchaseID  uuid.UUID `json:"purchase_id"`
	UserID      uuid.UUID `json:"user_id"`
	PackID      uuid.UUID `json:"pack_id"`
	AmountCents int64     `json:"amount_cents"`
	Provisional bool      `json:"provisional"`
}

// PurchaseDecisionEvent is emitted when an admin approves or rejects.
type PurchaseDecisionEvent struct {
	PurchaseID uuid.UUID            `json:"purchase_id"`
	UserID     uuid.UUID            `json:"user_id"`
	PackID     uuid.UUID            `json:"pack_id"`
	Status     enums.PurchaseStatus `json:"status"`
}

// EntitlementRevokedEvent is emitted when a rejection removes a provisional grant.
type EntitlementRevokedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	PackID     uuid.UUID `json:"pack_id"`
	PurchaseID uuid.UUID `json:"purchase_id"`
}
