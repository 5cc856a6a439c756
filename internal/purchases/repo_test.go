package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/internal/approval"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

func setupPurchasesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	packs := `
CREATE TABLE IF NOT EXISTS packs (
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price_cents INTEGER NOT NULL,
  tags TEXT,
  published INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	purchases := `
CREATE TABLE IF NOT EXISTS pack_purchases (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  pack_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  amount_cents INTEGER NOT NULL,
  payment_ref TEXT,
  note TEXT,
  approved_at DATETIME,
  rejected_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	entitlements := `
CREATE TABLE IF NOT EXISTS pack_entitlements (
  user_id TEXT NOT NULL,
  pack_id TEXT NOT NULL,
  created_at DATETIME,
  PRIMARY KEY (user_id, pack_id)
);`

	for _, stmt := range []string{packs, purchases, entitlements} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func seedPurchase(t *testing.T, db *gorm.DB, userID, packID uuid.UUID, status enums.PurchaseStatus, createdAt time.Time) *models.PackPurchase {
	t.Helper()
	purchase := &models.PackPurchase{
		ID:          uuid.New(),
		UserID:      userID,
		PackID:      packID,
		Status:      status,
		AmountCents: 1900,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(purchase).Error)
	return purchase
}

func TestFindPendingByUserAndPack(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	packID := uuid.New()
	seedPurchase(t, db, userID, packID, enums.PurchaseStatusRejected, time.Now().Add(-time.Hour))
	pending := seedPurchase(t, db, userID, packID, enums.PurchaseStatusPending, time.Now())

	found, err := repo.FindPendingByUserAndPack(ctx, userID, packID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, found.ID)

	_, err = repo.FindPendingByUserAndPack(ctx, uuid.New(), packID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCountApprovedByUserAndPack(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	packID := uuid.New()
	seedPurchase(t, db, userID, packID, enums.PurchaseStatusApproved, time.Now())
	seedPurchase(t, db, userID, packID, enums.PurchaseStatusRejected, time.Now())

	count, err := repo.CountApprovedByUserAndPack(ctx, userID, packID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListPurchasesFiltersAndPaginates(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	packID := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedPurchase(t, db, uuid.New(), packID, enums.PurchaseStatusPending, base.Add(time.Duration(i)*time.Minute))
	}
	seedPurchase(t, db, uuid.New(), packID, enums.PurchaseStatusApproved, base.Add(10*time.Minute))

	status := enums.PurchaseStatusPending
	page, err := repo.ListPurchases(ctx, pagination.Params{Limit: 2}, PurchaseFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	rest, err := repo.ListPurchases(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor}, PurchaseFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)
}

func TestEntitlementLifecycle(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	packID := uuid.New()

	exists, err := repo.EntitlementExists(ctx, userID, packID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.CreateEntitlement(ctx, &models.PackEntitlement{UserID: userID, PackID: packID}))
	// second grant is a no-op, not an error
	require.NoError(t, repo.CreateEntitlement(ctx, &models.PackEntitlement{UserID: userID, PackID: packID}))

	exists, err = repo.EntitlementExists(ctx, userID, packID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.DeleteEntitlement(ctx, userID, packID))

	exists, err = repo.EntitlementExists(ctx, userID, packID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdatePurchaseStatus(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	purchase := seedPurchase(t, db, uuid.New(), uuid.New(), enums.PurchaseStatusPending, time.Now())
	now := time.Now()
	err := repo.UpdatePurchase(ctx, purchase.ID, map[string]any{
		"status":      enums.PurchaseStatusApproved,
		"approved_at": now,
	})
	require.NoError(t, err)

	reloaded, err := repo.FindPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseStatusApproved, reloaded.Status)
	require.NotNil(t, reloaded.ApprovedAt)
}

type gormTxRunner struct{ db *gorm.DB }

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func TestDecideRollsBackStatusWhenEntitlementWriteFails(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	purchase := seedPurchase(t, db, uuid.New(), uuid.New(), enums.PurchaseStatusPending, time.Now())

	// make the entitlement insert fail mid-transaction
	require.NoError(t, db.Exec(`DROP TABLE pack_entitlements`).Error)

	svc, err := NewService(repo, gormTxRunner{db}, &stubOutboxPublisher{}, nil)
	require.NoError(t, err)

	_, err = svc.Decide(ctx, DecideInput{
		PurchaseID: purchase.ID,
		Action:     approval.ActionApprove,
		ActorID:    uuid.New(),
	})
	require.Error(t, err)

	reloaded, err := repo.FindPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseStatusPending, reloaded.Status)
}

func TestFindPendingByUserAndPackPrefersMostRecent(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	packID := uuid.New()
	seedPurchase(t, db, userID, packID, enums.PurchaseStatusPending, time.Now().Add(-2*time.Hour))
	newest := seedPurchase(t, db, userID, packID, enums.PurchaseStatusPending, time.Now())

	found, err := repo.FindPendingByUserAndPack(ctx, userID, packID)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, found.ID)
}
