package optimizer

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

// Repository defines persistence operations for optimizer run audit records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateRun(ctx context.Context, run *models.OptimizationRun) (*models.OptimizationRun, error)
	ListUserRuns(ctx context.Context, userID uuid.UUID, params pagination.Params) (*RunList, error)
}
