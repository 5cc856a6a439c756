package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePack(ctx context.Context, pack *models.Pack) (*models.Pack, error) {
	if err := r.db.WithContext(ctx).Create(pack).Error; err != nil {
		return nil, err
	}
	return pack, nil
}

func (r *repository) FindPack(ctx context.Context, id uuid.UUID) (*models.Pack, error) {
	var pack models.Pack
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&pack).Error
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

func (r *repository) FindPackBySlug(ctx context.Context, slug string) (*models.Pack, error) {
	var pack models.Pack
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&pack).Error
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

func (r *repository) UpdatePack(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Pack{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListPacks(ctx context.Context, params pagination.Params, filters PackFilters) (*PackList, error) {
	query := r.db.WithContext(ctx).Model(&models.Pack{})
	if filters.Published != nil {
		query = query.Where("published = ?", *filters.Published)
	}
	if filters.Tag != nil {
		query = query.Where("? = ANY(tags)", *filters.Tag)
	}

	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Pack
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &PackList{Items: rows, NextCursor: nextCursor}, nil
}

func (r *repository) CreatePrompt(ctx context.Context, prompt *models.Prompt) (*models.Prompt, error) {
	if err := r.db.WithContext(ctx).Create(prompt).Error; err != nil {
		return nil, err
	}
	return prompt, nil
}

func (r *repository) FindPrompt(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	var prompt models.Prompt
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&prompt).Error
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (r *repository) ListPackPrompts(ctx context.Context, packID uuid.UUID) ([]models.Prompt, error) {
	var rows []models.Prompt
	err := r.db.WithContext(ctx).
		Where("pack_id = ?", packID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
