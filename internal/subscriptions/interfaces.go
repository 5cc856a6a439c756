package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

// Repository defines persistence operations for subscription purchases,
// the per-user entitlement row, and change requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePurchase(ctx context.Context, purchase *models.SubscriptionPurchase) (*models.SubscriptionPurchase, error)
	FindPurchase(ctx context.Context, id uuid.UUID) (*models.SubscriptionPurchase, error)
	FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.SubscriptionPurchase, error)
	UpdatePurchase(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListPurchases(ctx context.Context, params pagination.Params, filters PurchaseFilters) (*PurchaseList, error)
	ListUserPurchases(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PurchaseList, error)

	FindEntitlement(ctx context.Context, userID uuid.UUID) (*models.SubscriptionEntitlement, error)
	UpsertEntitlement(ctx context.Context, entitlement *models.SubscriptionEntitlement) error
	UpdateEntitlement(ctx context.Context, userID uuid.UUID, updates map[string]any) error
	ExpireLapsedEntitlements(ctx context.Context, now time.Time) (int64, error)

	CreateChangeRequest(ctx context.Context, request *models.SubscriptionChangeRequest) (*models.SubscriptionChangeRequest, error)
	FindChangeRequest(ctx context.Context, id uuid.UUID) (*models.SubscriptionChangeRequest, error)
	FindPendingChangeRequest(ctx context.Context, userID uuid.UUID, kind enums.ChangeRequestKind) (*models.SubscriptionChangeRequest, error)
	UpdateChangeRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListChangeRequests(ctx context.Context, params pagination.Params, filters ChangeRequestFilters) (*ChangeRequestList, error)
}
