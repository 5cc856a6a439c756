package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/internal/approval"
	"github.com/promptdeck/promptdeck-backend/pkg/config"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/outbox"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

type stubSubscriptionsRepo struct {
	purchases    map[uuid.UUID]*models.SubscriptionPurchase
	entitlements map[uuid.UUID]*models.SubscriptionEntitlement
	requests     map[uuid.UUID]*models.SubscriptionChangeRequest
}

func newStubSubscriptionsRepo() *stubSubscriptionsRepo {
	return &stubSubscriptionsRepo{
		purchases:    make(map[uuid.UUID]*models.SubscriptionPurchase),
		entitlements: make(map[uuid.UUID]*models.SubscriptionEntitlement),
		requests:     make(map[uuid.UUID]*models.SubscriptionChangeRequest),
	}
}

func (s *stubSubscriptionsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubSubscriptionsRepo) CreatePurchase(ctx context.Context, purchase *models.SubscriptionPurchase) (*models.SubscriptionPurchase, error) {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	s.purchases[purchase.ID] = purchase
	return purchase, nil
}

func (s *stubSubscriptionsRepo) FindPurchase(ctx context.Context, id uuid.UUID) (*models.SubscriptionPurchase, error) {
	purchase, ok := s.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return purchase, nil
}

func (s *stubSubscriptionsRepo) FindPendingByUser(ctx context.Context, userID uuid.UUID) (*models.SubscriptionPurchase, error) {
	for _, purchase := range s.purchases {
		if purchase.UserID == userID && purchase.Status == enums.PurchaseStatusPending {
			return purchase, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSubscriptionsRepo) UpdatePurchase(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	purchase, ok := s.purchases[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"].(enums.PurchaseStatus); ok {
		purchase.Status = v
	}
	return nil
}

func (s *stubSubscriptionsRepo) ListPurchases(ctx context.Context, params pagination.Params, filters PurchaseFilters) (*PurchaseList, error) {
	items := make([]models.SubscriptionPurchase, 0, len(s.purchases))
	for _, purchase := range s.purchases {
		if filters.Status != nil && purchase.Status != *filters.Status {
			continue
		}
		items = append(items, *purchase)
	}
	return &PurchaseList{Items: items}, nil
}

func (s *stubSubscriptionsRepo) ListUserPurchases(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PurchaseList, error) {
	items := make([]models.SubscriptionPurchase, 0)
	for _, purchase := range s.purchases {
		if purchase.UserID == userID {
			items = append(items, *purchase)
		}
	}
	return &PurchaseList{Items: items}, nil
}

func (s *stubSubscriptionsRepo) FindEntitlement(ctx context.Context, userID uuid.UUID) (*models.SubscriptionEntitlement, error) {
	entitlement, ok := s.entitlements[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return entitlement, nil
}

func (s *stubSubscriptionsRepo) UpsertEntitlement(ctx context.Context, entitlement *models.SubscriptionEntitlement) error {
	s.entitlements[entitlement.UserID] = entitlement
	return nil
}

func (s *stubSubscriptionsRepo) UpdateEntitlement(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	entitlement, ok := s.entitlements[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"].(enums.EntitlementStatus); ok {
		entitlement.Status = v
	}
	if v, ok := updates["tier"].(enums.SubscriptionTier); ok {
		entitlement.Tier = v
	}
	if v, ok := updates["ends_at"].(time.Time); ok {
		entitlement.EndsAt = &v
	}
	return nil
}

func (s *stubSubscriptionsRepo) ExpireLapsedEntitlements(ctx context.Context, now time.Time) (int64, error) {
	var flipped int64
	for _, entitlement := range s.entitlements {
		if entitlement.Status != enums.EntitlementStatusApproved {
			continue
		}
		if entitlement.EndsAt == nil || entitlement.EndsAt.After(now) {
			continue
		}
		entitlement.Status = enums.EntitlementStatusRejected
		flipped++
	}
	return flipped, nil
}

func (s *stubSubscriptionsRepo) CreateChangeRequest(ctx context.Context, request *models.SubscriptionChangeRequest) (*models.SubscriptionChangeRequest, error) {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	s.requests[request.ID] = request
	return request, nil
}

func (s *stubSubscriptionsRepo) FindChangeRequest(ctx context.Context, id uuid.UUID) (*models.SubscriptionChangeRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (s *stubSubscriptionsRepo) FindPendingChangeRequest(ctx context.Context, userID uuid.UUID, kind enums.ChangeRequestKind) (*models.SubscriptionChangeRequest, error) {
	for _, request := range s.requests {
		if request.UserID == userID && request.Kind == kind && request.Status == enums.PurchaseStatusPending {
			return request, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSubscriptionsRepo) UpdateChangeRequest(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	request, ok := s.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"].(enums.PurchaseStatus); ok {
		request.Status = v
	}
	return nil
}

func (s *stubSubscriptionsRepo) ListChangeRequests(ctx context.Context, params pagination.Params, filters ChangeRequestFilters) (*ChangeRequestList, error) {
	items := make([]models.SubscriptionChangeRequest, 0, len(s.requests))
	for _, request := range s.requests {
		if filters.Status != nil && request.Status != *filters.Status {
			continue
		}
		items = append(items, *request)
	}
	return &ChangeRequestList{Items: items}, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutboxPublisher) eventTypes() []enums.OutboxEventType {
	types := make([]enums.OutboxEventType, 0, len(s.events))
	for _, event := range s.events {
		types = append(types, event.EventType)
	}
	return types
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testPricing() config.PricingConfig {
	return config.PricingConfig{BasicTierCents: 900, UnlimitedTierCents: 2900}
}

func newTestService(t *testing.T, repo Repository, events *stubOutboxPublisher) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, events, testPricing(), nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestRequestGrantsProvisionalEntitlement(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	result, err := svc.Request(context.Background(), RequestInput{
		UserID:    userID,
		Tier:      enums.SubscriptionTierBasic,
		ActorRole: "user",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if result.Existing {
		t.Fatal("expected newly created purchase")
	}
	if result.Purchase.AmountCents != 900 {
		t.Fatalf("expected basic tier price captured, got %d", result.Purchase.AmountCents)
	}

	entitlement := repo.entitlements[userID]
	if entitlement == nil || entitlement.Status != enums.EntitlementStatusPending {
		t.Fatalf("expected pending entitlement, got %+v", entitlement)
	}
	if !entitlement.ActiveAt(time.Now()) {
		t.Fatal("expected provisional entitlement to grant access")
	}
	if len(events.events) != 1 || events.events[0].EventType != enums.EventSubscriptionRequested {
		t.Fatalf("unexpected events %v", events.eventTypes())
	}
	data := events.events[0].Data.(SubscriptionRequestedEvent)
	if !data.Provisional {
		t.Fatal("expected provisional flag on request event")
	}
}

func TestRequestIsIdempotentWhilePending(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	first, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	second, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	if !second.Existing {
		t.Fatal("expected existing pending purchase to be returned")
	}
	if second.Purchase.ID != first.Purchase.ID {
		t.Fatal("expected the same purchase row")
	}
	if len(repo.purchases) != 1 {
		t.Fatalf("expected one purchase row, got %d", len(repo.purchases))
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %v", events.eventTypes())
	}
}

func TestRequestDifferentTierWhilePendingConflicts(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	if _, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic}); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	_, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierUnlimited})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRequestUpgradeKeepsApprovedEntitlement(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	repo.entitlements[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now().Add(-time.Hour),
	}

	result, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierUnlimited})
	if err != nil {
		t.Fatalf("upgrade request failed: %v", err)
	}
	if result.Existing {
		t.Fatal("expected a new purchase row")
	}
	entitlement := repo.entitlements[userID]
	if entitlement.Status != enums.EntitlementStatusApproved || entitlement.Tier != enums.SubscriptionTierBasic {
		t.Fatalf("approved entitlement must not change before decision, got %+v", entitlement)
	}
	data := events.events[0].Data.(SubscriptionRequestedEvent)
	if data.Provisional {
		t.Fatal("upgrade over live access must not be flagged provisional")
	}
}

func TestRequestSameTierAsLiveAccessConflicts(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	userID := uuid.New()
	repo.entitlements[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierUnlimited,
		StartsAt: time.Now().Add(-time.Hour),
	}

	_, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDecideApproveConfirmsEntitlement(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	result, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	purchase, err := svc.Decide(context.Background(), DecideInput{
		PurchaseID: result.Purchase.ID,
		Action:     approval.ActionApprove,
		ActorID:    uuid.New(),
		ActorRole:  "admin",
	})
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if purchase.Status != enums.PurchaseStatusApproved {
		t.Fatalf("unexpected status %s", purchase.Status)
	}

	entitlement := repo.entitlements[userID]
	if entitlement.Status != enums.EntitlementStatusApproved {
		t.Fatalf("expected entitlement confirmed, got %s", entitlement.Status)
	}
	want := []enums.OutboxEventType{enums.EventSubscriptionRequested, enums.EventSubscriptionApproved}
	got := events.eventTypes()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestDecideRejectRevokesProvisionalEntitlement(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	result, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if _, err := svc.Decide(context.Background(), DecideInput{
		PurchaseID: result.Purchase.ID,
		Action:     approval.ActionReject,
		ActorID:    uuid.New(),
		ActorRole:  "admin",
	}); err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	entitlement := repo.entitlements[userID]
	if entitlement.Status != enums.EntitlementStatusRejected {
		t.Fatalf("expected entitlement rejected, got %s", entitlement.Status)
	}
	if entitlement.ActiveAt(time.Now()) {
		t.Fatal("rejected entitlement must not grant access")
	}
	got := events.eventTypes()
	want := []enums.OutboxEventType{
		enums.EventSubscriptionRequested,
		enums.EventEntitlementRevoked,
		enums.EventSubscriptionRejected,
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected events %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected events %v", got)
		}
	}
}

func TestDecideRejectKeepsEntitlementApprovedElsewhere(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	repo.entitlements[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now().Add(-time.Hour),
	}
	result, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierUnlimited})
	if err != nil {
		t.Fatalf("upgrade request failed: %v", err)
	}

	if _, err := svc.Decide(context.Background(), DecideInput{
		PurchaseID: result.Purchase.ID,
		Action:     approval.ActionReject,
		ActorID:    uuid.New(),
		ActorRole:  "admin",
	}); err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	entitlement := repo.entitlements[userID]
	if entitlement.Status != enums.EntitlementStatusApproved || entitlement.Tier != enums.SubscriptionTierBasic {
		t.Fatalf("live entitlement must survive a rejected upgrade, got %+v", entitlement)
	}
	for _, eventType := range events.eventTypes() {
		if eventType == enums.EventEntitlementRevoked {
			t.Fatal("no revocation event expected when access was not provisional")
		}
	}
}

func TestDecideRepeatedDecisionIsNoop(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	result, _ := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})
	admin := uuid.New()
	input := DecideInput{PurchaseID: result.Purchase.ID, Action: approval.ActionApprove, ActorID: admin, ActorRole: "admin"}

	if _, err := svc.Decide(context.Background(), input); err != nil {
		t.Fatalf("first decide failed: %v", err)
	}
	eventsBefore := len(events.events)

	purchase, err := svc.Decide(context.Background(), input)
	if err != nil {
		t.Fatalf("repeated decide must succeed: %v", err)
	}
	if purchase.Status != enums.PurchaseStatusApproved {
		t.Fatalf("unexpected status %s", purchase.Status)
	}
	if len(events.events) != eventsBefore {
		t.Fatalf("repeated decision must not emit events, got %v", events.eventTypes())
	}
}

func TestDecideCrossDecisionConflicts(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	userID := uuid.New()
	result, _ := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})
	admin := uuid.New()

	if _, err := svc.Decide(context.Background(), DecideInput{
		PurchaseID: result.Purchase.ID, Action: approval.ActionApprove, ActorID: admin,
	}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	_, err := svc.Decide(context.Background(), DecideInput{
		PurchaseID: result.Purchase.ID, Action: approval.ActionReject, ActorID: admin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCancelWithdrawsPendingRequest(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	result, _ := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})

	purchase, err := svc.Cancel(context.Background(), CancelInput{
		PurchaseID: result.Purchase.ID,
		UserID:     userID,
		ActorRole:  "user",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if purchase.Status != enums.PurchaseStatusCancelled {
		t.Fatalf("unexpected status %s", purchase.Status)
	}
	entitlement := repo.entitlements[userID]
	if entitlement.Status != enums.EntitlementStatusRejected {
		t.Fatalf("provisional access must end on withdrawal, got %s", entitlement.Status)
	}
	got := events.eventTypes()
	if got[len(got)-1] != enums.EventSubscriptionCancelled {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestCancelRequiresOwnership(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	userID := uuid.New()
	result, _ := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})

	_, err := svc.Cancel(context.Background(), CancelInput{
		PurchaseID: result.Purchase.ID,
		UserID:     uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func approvedEntitlement(userID uuid.UUID, tier enums.SubscriptionTier) *models.SubscriptionEntitlement {
	return &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     tier,
		StartsAt: time.Now().Add(-time.Hour),
	}
}

func TestFileChangeRequiresActiveSubscription(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	userID := uuid.New()
	repo.entitlements[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusPending,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now(),
	}

	_, err := svc.FileChange(context.Background(), ChangeInput{
		UserID: userID,
		Kind:   enums.ChangeRequestKindCancel,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for non-approved subscription, got %v", err)
	}
}

func TestFileChangeDowngradeValidatesTargetTier(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	userID := uuid.New()
	repo.entitlements[userID] = approvedEntitlement(userID, enums.SubscriptionTierBasic)

	target := enums.SubscriptionTierUnlimited
	_, err := svc.FileChange(context.Background(), ChangeInput{
		UserID:     userID,
		Kind:       enums.ChangeRequestKindDowngrade,
		TargetTier: &target,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFileChangeDeduplicatesPendingKind(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	repo.entitlements[userID] = approvedEntitlement(userID, enums.SubscriptionTierUnlimited)

	first, err := svc.FileChange(context.Background(), ChangeInput{UserID: userID, Kind: enums.ChangeRequestKindCancel})
	if err != nil {
		t.Fatalf("first filing failed: %v", err)
	}
	second, err := svc.FileChange(context.Background(), ChangeInput{UserID: userID, Kind: enums.ChangeRequestKindCancel})
	if err != nil {
		t.Fatalf("second filing failed: %v", err)
	}
	if !second.Existing || second.Request.ID != first.Request.ID {
		t.Fatal("expected the pending request to be returned")
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %v", events.eventTypes())
	}
}

func TestResolveChangeApproveCancelEndsAccess(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	repo.entitlements[userID] = approvedEntitlement(userID, enums.SubscriptionTierBasic)
	filed, _ := svc.FileChange(context.Background(), ChangeInput{UserID: userID, Kind: enums.ChangeRequestKindCancel})

	request, err := svc.ResolveChange(context.Background(), ResolveChangeInput{
		RequestID: filed.Request.ID,
		Action:    approval.ActionApprove,
		ActorID:   uuid.New(),
		ActorRole: "admin",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if request.Status != enums.PurchaseStatusApproved || request.ResolvedAt == nil {
		t.Fatalf("unexpected request state %+v", request)
	}

	entitlement := repo.entitlements[userID]
	if entitlement.EndsAt == nil {
		t.Fatal("expected ends_at stamped on approval")
	}
	if entitlement.ActiveAt(entitlement.EndsAt.Add(time.Minute)) {
		t.Fatal("access must lapse after ends_at")
	}
	got := events.eventTypes()
	want := []enums.OutboxEventType{
		enums.EventChangeRequestFiled,
		enums.EventSubscriptionCancelled,
		enums.EventChangeRequestResolved,
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected events %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected events %v", got)
		}
	}
}

func TestResolveChangeApproveDowngradeLowersTier(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	repo.entitlements[userID] = approvedEntitlement(userID, enums.SubscriptionTierUnlimited)
	target := enums.SubscriptionTierBasic
	filed, _ := svc.FileChange(context.Background(), ChangeInput{
		UserID:     userID,
		Kind:       enums.ChangeRequestKindDowngrade,
		TargetTier: &target,
	})

	if _, err := svc.ResolveChange(context.Background(), ResolveChangeInput{
		RequestID: filed.Request.ID,
		Action:    approval.ActionApprove,
		ActorID:   uuid.New(),
	}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	entitlement := repo.entitlements[userID]
	if entitlement.Tier != enums.SubscriptionTierBasic {
		t.Fatalf("expected tier lowered, got %s", entitlement.Tier)
	}
	sawTierChange := false
	for _, eventType := range events.eventTypes() {
		if eventType == enums.EventSubscriptionTierChanged {
			sawTierChange = true
		}
	}
	if !sawTierChange {
		t.Fatalf("expected tier change event, got %v", events.eventTypes())
	}
}

func TestResolveChangeRejectLeavesEntitlementAlone(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	repo.entitlements[userID] = approvedEntitlement(userID, enums.SubscriptionTierUnlimited)
	filed, _ := svc.FileChange(context.Background(), ChangeInput{UserID: userID, Kind: enums.ChangeRequestKindCancel})

	request, err := svc.ResolveChange(context.Background(), ResolveChangeInput{
		RequestID: filed.Request.ID,
		Action:    approval.ActionReject,
		ActorID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if request.Status != enums.PurchaseStatusRejected {
		t.Fatalf("unexpected status %s", request.Status)
	}

	entitlement := repo.entitlements[userID]
	if entitlement.EndsAt != nil || entitlement.Tier != enums.SubscriptionTierUnlimited {
		t.Fatalf("rejected change must not touch the entitlement, got %+v", entitlement)
	}
	got := events.eventTypes()
	if got[len(got)-1] != enums.EventChangeRequestResolved {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestRequestReusedPendingRegrantsEntitlement(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	pending := &models.SubscriptionPurchase{
		ID:     uuid.New(),
		UserID: userID,
		Tier:   enums.SubscriptionTierBasic,
		Status: enums.PurchaseStatusPending,
	}
	repo.purchases[pending.ID] = pending

	result, err := svc.Request(context.Background(), RequestInput{UserID: userID, Tier: enums.SubscriptionTierBasic})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !result.Existing {
		t.Fatal("expected existing pending purchase to be returned")
	}
	entitlement := repo.entitlements[userID]
	if entitlement == nil || entitlement.Status != enums.EntitlementStatusPending {
		t.Fatalf("expected provisional entitlement re-granted on reuse, got %+v", entitlement)
	}
	if entitlement.Tier != enums.SubscriptionTierBasic {
		t.Fatalf("unexpected tier %s", entitlement.Tier)
	}
}

func TestDecideReplayedApproveRestoresEntitlement(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	purchase := &models.SubscriptionPurchase{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Tier:   enums.SubscriptionTierUnlimited,
		Status: enums.PurchaseStatusApproved,
	}
	repo.purchases[purchase.ID] = purchase

	_, err := svc.Decide(context.Background(), DecideInput{
		PurchaseID: purchase.ID,
		Action:     approval.ActionApprove,
		ActorID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	entitlement := repo.entitlements[purchase.UserID]
	if entitlement == nil || entitlement.Status != enums.EntitlementStatusApproved {
		t.Fatalf("replayed approve must restore the missing entitlement, got %+v", entitlement)
	}
	if entitlement.Tier != enums.SubscriptionTierUnlimited {
		t.Fatalf("unexpected tier %s", entitlement.Tier)
	}
	if len(events.events) != 0 {
		t.Fatalf("noop replay must not emit decision events, got %v", events.eventTypes())
	}
}

func TestDecideReplayedApproveLeavesEndedEntitlementAlone(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	purchase := &models.SubscriptionPurchase{
		ID:     uuid.New(),
		UserID: userID,
		Tier:   enums.SubscriptionTierBasic,
		Status: enums.PurchaseStatusApproved,
	}
	repo.purchases[purchase.ID] = purchase
	ended := time.Now().Add(-time.Hour)
	repo.entitlements[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now().Add(-48 * time.Hour),
		EndsAt:   &ended,
	}

	_, err := svc.Decide(context.Background(), DecideInput{
		PurchaseID: purchase.ID,
		Action:     approval.ActionApprove,
		ActorID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	entitlement := repo.entitlements[userID]
	if entitlement.EndsAt == nil || !entitlement.EndsAt.Equal(ended) {
		t.Fatal("replayed approve must not reopen a closed access window")
	}
}

func TestDecideReplayedRejectFlipsStillPendingEntitlement(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	purchase := &models.SubscriptionPurchase{
		ID:     uuid.New(),
		UserID: userID,
		Tier:   enums.SubscriptionTierBasic,
		Status: enums.PurchaseStatusRejected,
	}
	repo.purchases[purchase.ID] = purchase
	repo.entitlements[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusPending,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now().Add(-time.Hour),
	}

	_, err := svc.Decide(context.Background(), DecideInput{
		PurchaseID: purchase.ID,
		Action:     approval.ActionReject,
		ActorID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.entitlements[userID].Status != enums.EntitlementStatusRejected {
		t.Fatalf("replayed reject must flip the still-pending entitlement, got %s", repo.entitlements[userID].Status)
	}
}

func TestDecideReplayedRejectKeepsApprovedEntitlement(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	purchase := &models.SubscriptionPurchase{
		ID:     uuid.New(),
		UserID: userID,
		Tier:   enums.SubscriptionTierUnlimited,
		Status: enums.PurchaseStatusRejected,
	}
	repo.purchases[purchase.ID] = purchase
	repo.entitlements[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now().Add(-time.Hour),
	}

	_, err := svc.Decide(context.Background(), DecideInput{
		PurchaseID: purchase.ID,
		Action:     approval.ActionReject,
		ActorID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.entitlements[userID].Status != enums.EntitlementStatusApproved {
		t.Fatal("entitlement approved through another purchase must survive the replay")
	}
}

func TestCancelReplayRevokesLingeringProvisionalAccess(t *testing.T) {
	repo := newStubSubscriptionsRepo()
	events := &stubOutboxPublisher{}
	svc := newTestService(t, repo, events)

	userID := uuid.New()
	purchase := &models.SubscriptionPurchase{
		ID:     uuid.New(),
		UserID: userID,
		Tier:   enums.SubscriptionTierBasic,
		Status: enums.PurchaseStatusCancelled,
	}
	repo.purchases[purchase.ID] = purchase
	repo.entitlements[userID] = &models.SubscriptionEntitlement{
		UserID:   userID,
		Status:   enums.EntitlementStatusPending,
		Tier:     enums.SubscriptionTierBasic,
		StartsAt: time.Now().Add(-time.Hour),
	}

	_, err := svc.Cancel(context.Background(), CancelInput{
		PurchaseID: purchase.ID,
		UserID:     userID,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.entitlements[userID].Status != enums.EntitlementStatusRejected {
		t.Fatalf("replayed cancel must revoke the provisional entitlement, got %s", repo.entitlements[userID].Status)
	}
}
