package entitlements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
)

// Repository defines the read-side queries behind entitlement checks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListPackAccess(ctx context.Context, userID uuid.UUID) ([]PackAccess, error)
	HasPackEntitlement(ctx context.Context, userID, packID uuid.UUID) (bool, error)
	FindSubscriptionEntitlement(ctx context.Context, userID uuid.UUID) (*models.SubscriptionEntitlement, error)
	FindPrompt(ctx context.Context, id uuid.UUID) (*models.Prompt, error)
}
