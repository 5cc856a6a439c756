package purchases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

// Repository defines persistence operations for pack purchases and the
// entitlement rows they control.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePurchase(ctx context.Context, purchase *models.PackPurchase) (*models.PackPurchase, error)
	FindPurchase(ctx context.Context, id uuid.UUID) (*models.PackPurchase, error)
	FindPendingByUserAndPack(ctx context.Context, userID, packID uuid.UUID) (*models.PackPurchase, error)
	UpdatePurchase(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountApprovedByUserAndPack(ctx context.Context, userID, packID uuid.UUID) (int64, error)
	ListPurchases(ctx context.Context, params pagination.Params, filters PurchaseFilters) (*PurchaseList, error)
	ListUserPurchases(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PurchaseList, error)

	FindPack(ctx context.Context, packID uuid.UUID) (*models.Pack, error)

	CreateEntitlement(ctx context.Context, entitlement *models.PackEntitlement) error
	DeleteEntitlement(ctx context.Context, userID, packID uuid.UUID) error
	EntitlementExists(ctx context.Context, userID, packID uuid.UUID) (bool, error)
}
