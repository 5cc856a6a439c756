package purchases

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pack purchase repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePurchase(ctx context.Context, purchase *models.PackPurchase) (*models.PackPurchase, error) {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

func (r *repository) FindPurchase(ctx context.Context, id uuid.UUID) (*models.PackPurchase, error) {
	var purchase models.PackPurchase
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindPendingByUserAndPack(ctx context.Context, userID, packID uuid.UUID) (*models.PackPurchase, error) {
	var purchase models.PackPurchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND pack_id = ? AND status = ?", userID, packID, "pending").
		Order("created_at DESC").
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) UpdatePurchase(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PackPurchase{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CountApprovedByUserAndPack(ctx context.Context, userID, packID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PackPurchase{}).
		Where("user_id = ? AND pack_id = ? AND status = ?", userID, packID, "approved").
		Count(&count).Error
	return count, err
}

func (r *repository) ListPurchases(ctx context.Context, params pagination.Params, filters PurchaseFilters) (*PurchaseList, error) {
	query := r.db.WithContext(ctx).Model(&models.PackPurchase{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.PackID != nil {
		query = query.Where("pack_id = ?", *filters.PackID)
	}
	return r.listPage(query, params)
}

func (r *repository) ListUserPurchases(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PurchaseList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PackPurchase{}).
		Where("user_id = ?", userID)
	return r.listPage(query, params)
}

func (r *repository) listPage(query *gorm.DB, params pagination.Params) (*PurchaseList, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.PackPurchase
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

	return &PurchaseList{Items: rows, NextCursor: nextCursor}, nil
}

func (r *repository) FindPack(ctx context.Context, packID uuid.UUID) (*models.Pack, error) {
	var pack models.Pack
	err := r.db.WithContext(ctx).
		Where("id = ?", packID).
		First(&pack).Error
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

func (r *repository) CreateEntitlement(ctx context.Context, entitlement *models.PackEntitlement) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entitlement).Error
}

func (r *repository) DeleteEntitlement(ctx context.Context, userID, packID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND pack_id = ?", userID, packID).
		Delete(&models.PackEntitlement{}).Error
}

func (r *repository) EntitlementExists(ctx context.Context, userID, packID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PackEntitlement{}).
		Where("user_id = ? AND pack_id = ?", userID, packID).
		Count(&count).Error
	return count > 0, err
}
