package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

// Repository defines persistence operations for packs and prompts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePack(ctx context.Context, pack *models.Pack) (*models.Pack, error)
	FindPack(ctx context.Context, id uuid.UUID) (*models.Pack, error)
	FindPackBySlug(ctx context.Context, slug string) (*models.Pack, error)
	UpdatePack(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListPacks(ctx context.Context, params pagination.Params, filters PackFilters) (*PackList, error)

	CreatePrompt(ctx context.Context, prompt *models.Prompt) (*models.Prompt, error)
	FindPrompt(ctx context.Context, id uuid.UUID) (*models.Prompt, error)
	ListPackPrompts(ctx context.Context, packID uuid.UUID) ([]models.Prompt, error)
}
