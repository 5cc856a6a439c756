package entitlements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an entitlements repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListPackAccess(ctx context.Context, userID uuid.UUID) ([]PackAccess, error) {
	var rows []PackAccess
	err := r.db.WithContext(ctx).
		Model(&models.PackEntitlement{}).
		Select("pack_entitlements.pack_id, packs.slug, packs.title, pack_entitlements.created_at AS granted_at").
		Joins("JOIN packs ON packs.id = pack_entitlements.pack_id").
		Where("pack_entitlements.user_id = ?", userID).
		Order("pack_entitlements.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) HasPackEntitlement(ctx context.Context, userID, packID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PackEntitlement{}).
		Where("user_id = ? AND pack_id = ?", userID, packID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindSubscriptionEntitlement(ctx context.Context, userID uuid.UUID) (*models.SubscriptionEntitlement, error) {
	var entitlement models.SubscriptionEntitlement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&entitlement).Error
	if err != nil {
		return nil, err
	}
	return &entitlement, nil
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
