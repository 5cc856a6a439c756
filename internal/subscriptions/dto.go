package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/internal/approval"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
)

// RequestInput captures a user asking for a subscription tier.
type RequestInput struct {
	UserID     uuid.UUID
	Tier       enums.SubscriptionTier
	PaymentRef *string
	Note       *string
	ActorRole  string
}

// RequestResult carries the purchase row plus whether it already existed.
type RequestResult struct {
	Purchase *models.SubscriptionPurchase
	Existing bool
}

// DecideInput captures an admin ruling on a pending subscription purchase.
type DecideInput struct {
	PurchaseID uuid.UUID
	Action     approval.Action
	Note       *string
	ActorID    uuid.UUID
	ActorRole  string
}

// CancelInput captures a user withdrawing their own pending request.
type CancelInput struct {
	PurchaseID uuid.UUID
	UserID     uuid.UUID
	ActorRole  string
}

// ChangeInput captures a subscriber filing a cancel or downgrade request.
type ChangeInput struct {
	UserID     uuid.UUID
	Kind       enums.ChangeRequestKind
	TargetTier *enums.SubscriptionTier
	ActorRole  string
}

// ChangeResult carries the change request plus whether it already existed.
type ChangeResult struct {
	Request  *models.SubscriptionChangeRequest
	Existing bool
}

// ResolveChangeInput captures an admin resolving a change request.
type ResolveChangeInput struct {
	RequestID uuid.UUID
	Action    approval.Action
	ActorID   uuid.UUID
	ActorRole string
}

// PurchaseFilters narrows admin subscription purchase listings.
type PurchaseFilters struct {
	Status *enums.PurchaseStatus
	Tier   *enums.SubscriptionTier
	UserID *uuid.UUID
}

// PurchaseList is one page of subscription purchases.
type PurchaseList struct {
	Items      []models.SubscriptionPurchase
	NextCursor string
}

// ChangeRequestFilters narrows admin change request listings.
type ChangeRequestFilters struct {
	Status *enums.PurchaseStatus
	Kind   *enums.ChangeRequestKind
	UserID *uuid.UUID
}

// ChangeRequestList is one page of change requests.
type ChangeRequestList struct {
	Items      []models.SubscriptionChangeRequest
	NextCursor string
}

// SubscriptionRequestedEvent is emitted when a user files a subscription request.
type SubscriptionRequestedEvent struct {
	PurchaseID  uuid.UUID              `json:"purchase_id"`
	UserID      uuid.UUID              `json:"user_id"`
	Tier        enums.SubscriptionTier `json:"tier"`
	AmountCents int64                  `json:"amount_cents"`
	Provisional bool                   `json:"provisional"`
}

// SubscriptionDecisionEvent is emitted when a purchase reaches a terminal status.
type SubscriptionDecisionEvent struct {
	PurchaseID uuid.UUID              `json:"purchase_id"`
	UserID     uuid.UUID              `json:"user_id"`
	Tier       enums.SubscriptionTier `json:"tier"`
	Status     enums.PurchaseStatus   `json:"status"`
}

// EntitlementRevokedEvent is emitted when a rejection removes provisional access.
type EntitlementRevokedEvent struct {
	UserID     uuid.UUID              `json:"user_id"`
	Tier       enums.SubscriptionTier `json:"tier"`
	PurchaseID uuid.UUID              `json:"purchase_id"`
}

// ChangeRequestFiledEvent is emitted when a subscriber files a change request.
type ChangeRequestFiledEvent struct {
	RequestID  uuid.UUID               `json:"request_id"`
	UserID     uuid.UUID               `json:"user_id"`
	Kind       enums.ChangeRequestKind `json:"kind"`
	TargetTier *enums.SubscriptionTier `json:"target_tier,omitempty"`
}

// ChangeRequestResolvedEvent is emitted when an admin resolves a change request.
type ChangeRequestResolvedEvent struct {
	RequestID uuid.UUID               `json:"request_id"`
	UserID    uuid.UUID               `json:"user_id"`
	Kind      enums.ChangeRequestKind `json:"kind"`
	Status    enums.PurchaseStatus    `json:"status"`
}

// TierChangedEvent is emitted when a resolution changes the live tier.
type TierChangedEvent struct {
	UserID   uuid.UUID              `json:"user_id"`
	FromTier enums.SubscriptionTier `json:"from_tier"`
	ToTier   enums.SubscriptionTier `json:"to_tier"`
}

// SubscriptionCancelledEvent is emitted when access is scheduled to end.
type SubscriptionCancelledEvent struct {
	UserID uuid.UUID `json:"user_id"`
	EndsAt time.Time `json:"ends_at"`
}
