package subscriptions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a subscriptions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePurchase(ctx context.Context, purchase *models.SubscriptionPurchase) (*models.SubscriptionPurchase, error) {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

func (r *repository) FindPurchase(ctx context.Context, id uuid.UUID) (*models.SubscriptionPurchase, error) {
	var purchase models.SubscriptionPurchase
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.SubscriptionPurchase, error) {
	var purchase models.SubscriptionPurchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, "pending").
		Order("created_at DESC").
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) UpdatePurchase(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SubscriptionPurchase{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListPurchases(ctx context.Context, params pagination.Params, filters PurchaseFilters) (*PurchaseList, error) {
	query := r.db.WithContext(ctx).Model(&models.SubscriptionPurchase{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Tier != nil {
		query = query.Where("tier = ?", *filters.Tier)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	return r.listPurchasePage(query, params)
}

func (r *repository) ListUserPurchases(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PurchaseList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SubscriptionPurchase{}).
		Where("user_id = ?", userID)
	return r.listPurchasePage(query, params)
}

func (r *repository) listPurchasePage(query *gorm.DB, params pagination.Params) (*PurchaseList, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.SubscriptionPurchase
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

func (r *repository) FindEntitlement(ctx context.Context, userID uuid.UUID) (*models.SubscriptionEntitlement, error) {
	var entitlement models.SubscriptionEntitlement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&entitlement).Error
	if err != nil {
		return nil, err
	}
	return &entitlement, nil
}

func (r *repository) UpsertEntitlement(ctx context.Context, entitlement *models.SubscriptionEntitlement) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "tier", "starts_at", "ends_at", "updated_at",
			}),
		}).
		Create(entitlement).Error
}

func (r *repository) UpdateEntitlement(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SubscriptionEntitlement{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

// ExpireLapsedEntitlements flips approved entitlements whose ends_at has
// passed to rejected. Access checks already gate on ends_at; this keeps the
// stored status honest for listings and snapshots.
func (r *repository) ExpireLapsedEntitlements(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SubscriptionEntitlement{}).
		Where("status = ? AND ends_at IS NOT NULL AND ends_at <= ?", enums.EntitlementStatusApproved, now).
		Update("status", enums.EntitlementStatusRejected)
	return result.RowsAffected, result.Error
}

func (r *repository) CreateChangeRequest(ctx context.Context, request *models.SubscriptionChangeRequest) (*models.SubscriptionChangeRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) FindChangeRequest(ctx context.Context, id uuid.UUID) (*models.SubscriptionChangeRequest, error) {
	var request models.SubscriptionChangeRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindPendingChangeRequest(ctx context.Context, userID uuid.UUID, kind enums.ChangeRequestKind) (*models.SubscriptionChangeRequest, error) {
	var request models.SubscriptionChangeRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND status = ?", userID, kind, "pending").
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) UpdateChangeRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SubscriptionChangeRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListChangeRequests(ctx context.Context, params pagination.Params, filters ChangeRequestFilters) (*ChangeRequestList, error) {
	query := r.db.WithContext(ctx).Model(&models.SubscriptionChangeRequest{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.SubscriptionChangeRequest
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

	return &ChangeRequestList{Items: rows, NextCursor: nextCursor}, nil
}
