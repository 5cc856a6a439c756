package entitlements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
)

type stubEntitlementsRepo struct {
	packAccess    []PackAccess
	ownedPacks    map[uuid.UUID]bool
	subscriptions map[uuid.UUID]*models.SubscriptionEntitlement
	prompts       map[uuid.UUID]*models.Prompt
}

func newStubEntitlementsRepo() *stubEntitlementsRepo {
	return &stubEntitlementsRepo{
		ownedPacks:    make(map[uuid.UUID]bool),
		subscriptions: make(map[uuid.UUID]*models.SubscriptionEntitlement),
		prompts:       make(map[uuid.UUID]*models.Prompt),
	}
}

func (s *stubEntitlementsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubEntitlementsRepo) ListPackAccess(ctx context.Context, userID uuid.UUID) ([]PackAccess, error) {
	return s.packAccess, nil
}

func (s *stubEntitlementsRepo) HasPackEntitlement(ctx context.Context, userID, packID uuid.UUID) (bool, error) {
	return s.ownedPacks[packID], nil
}

func (s *stubEntitlementsRepo) FindSubscriptionEntitlement(ctx context.Context, userID uuid.UUID) (*models.SubscriptionEntitlement, error) {
	entitlement, ok := s.subscriptions[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return entitlement, nil
}

func (s *stubEntitlementsRepo) FindPrompt(ctx context.Context, id uuid.UUID) (*models.Prompt, error) {
	prompt, ok := s.prompts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return prompt, nil
}

func newEntitlementsService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func seedPrompt(repo *stubEntitlementsRepo, packID *uuid.UUID, free bool) *models.Prompt {
	prompt := &models.Prompt{
		ID:     uuid.New(),
		PackID: packID,
		Title:  "Prompt",
		Body:   "body",
		Free:   free,
	}
	repo.prompts[prompt.ID] = prompt
	return prompt
}

func TestReadPromptFreeIsOpen(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)
	prompt := seedPrompt(repo, nil, true)

	got, err := svc.ReadPrompt(context.Background(), uuid.New(), prompt.ID)
	if err != nil {
		t.Fatalf("expected access, got %v", err)
	}
	if got.Body != "body" {
		t.Fatalf("unexpected body %q", got.Body)
	}
}

func TestReadPromptPackOwnershipGrantsAccess(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)

	packID := uuid.New()
	prompt := seedPrompt(repo, &packID, false)
	repo.ownedPacks[packID] = true

	if _, err := svc.ReadPrompt(context.Background(), uuid.New(), prompt.ID); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
}

func TestReadPromptUnlimitedSubscriptionCoversPacks(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)

	userID := uuid.New()
	packID := uuid.New()
	prompt := seedPrompt(repo, &packID, false)
	repo.subscriptions[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierUnlimited,
		StartsAt: time.Now().Add(-time.Hour),
	}

	if _, err := svc.ReadPrompt(context.Background(), userID, prompt.ID); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
}

func TestReadPromptBasicSubscriptionDoesNotCoverPacks(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)

	userID := uuid.New()
	packID := uuid.New()
	prompt := seedPrompt(repo, &packID, false)
	repo.subscriptions[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now().Add(-time.Hour),
	}

	_, err := svc.ReadPrompt(context.Background(), userID, prompt.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestReadPromptBasicSubscriptionCoversStandalone(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)

	userID := uuid.New()
	prompt := seedPrompt(repo, nil, false)
	repo.subscriptions[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now().Add(-time.Hour),
	}

	if _, err := svc.ReadPrompt(context.Background(), userID, prompt.ID); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
}

func TestReadPromptPendingSubscriptionGrantsProvisionalAccess(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)

	userID := uuid.New()
	prompt := seedPrompt(repo, nil, false)
	repo.subscriptions[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusPending,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now(),
	}

	if _, err := svc.ReadPrompt(context.Background(), userID, prompt.ID); err != nil {
		t.Fatalf("pending subscription must grant access, got %v", err)
	}
}

func TestReadPromptExpiredSubscriptionDenied(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)

	userID := uuid.New()
	prompt := seedPrompt(repo, nil, false)
	ends := time.Now().Add(-time.Minute)
	repo.subscriptions[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierUnlimited,
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   &ends,
	}

	_, err := svc.ReadPrompt(context.Background(), userID, prompt.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestReadPromptUnknownPromptNotFound(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)

	_, err := svc.ReadPrompt(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSnapshotAggregatesPacksAndSubscription(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)

	userID := uuid.New()
	repo.packAccess = []PackAccess{{PackID: uuid.New(), Slug: "prompt-starters", Title: "Prompt Starters", GrantedAt: time.Now()}}
	repo.subscriptions[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now().Add(-time.Hour),
	}

	snapshot, err := svc.Snapshot(context.Background(), userID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snapshot.Packs) != 1 {
		t.Fatalf("expected one pack, got %d", len(snapshot.Packs))
	}
	if snapshot.Subscription == nil || !snapshot.Subscription.Active {
		t.Fatalf("expected active subscription, got %+v", snapshot.Subscription)
	}
}

func TestSnapshotWithoutSubscription(t *testing.T) {
	repo := newStubEntitlementsRepo()
	svc := newEntitlementsService(t, repo)

	snapshot, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snapshot.Subscription != nil {
		t.Fatal("expected no subscription in snapshot")
	}
	if snapshot.Packs == nil {
		t.Fatal("packs must be an empty slice, not nil")
	}
}
