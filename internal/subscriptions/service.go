package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/internal/approval"
	"github.com/promptdeck/promptdeck-backend/pkg/config"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/metrics"
	"github.com/promptdeck/promptdeck-backend/pkg/outbox"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

const (
	metricKindSubscription  = "subscription"
	metricKindChangeRequest = "change_request"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines subscription purchase and change request operations.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*RequestResult, error)
	Decide(ctx context.Context, input DecideInput) (*models.SubscriptionPurchase, error)
	Cancel(ctx context.Context, input CancelInput) (*models.SubscriptionPurchase, error)
	FileChange(ctx context.Context, input ChangeInput) (*ChangeResult, error)
	ResolveChange(ctx context.Context, input ResolveChangeInput) (*models.SubscriptionChangeRequest, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*models.SubscriptionPurchase, error)
	GetEntitlement(ctx context.Context, userID uuid.UUID) (*models.SubscriptionEntitlement, error)
	ListAdmin(ctx context.Context, params pagination.Params, filters PurchaseFilters) (*PurchaseList, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PurchaseList, error)
	ListChangeRequests(ctx context.Context, params pagination.Params, filters ChangeRequestFilters) (*ChangeRequestList, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	pricing   config.PricingConfig
	decisions *metrics.DecisionMetrics
}

// NewService builds a subscription service. The metrics handle may be nil.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, pricing config.PricingConfig, decisions *metrics.DecisionMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outboxSvc,
		pricing:   pricing,
		decisions: decisions,
	}, nil
}

func (s *service) amountForTier(tier enums.SubscriptionTier) int64 {
	if tier == enums.SubscriptionTierUnlimited {
		return s.pricing.UnlimitedTierCents
	}
	return s.pricing.BasicTierCents
}

// Request files a subscription purchase. When the user has no usable
// entitlement, a pending one is written in the same transaction so access
// starts before review. An approved entitlement from an earlier purchase is
// left untouched until the admin decides.
func (s *service) Request(ctx context.Context, input RequestInput) (*RequestResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription tier must be basic or unlimited")
	}

	var result RequestResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now()

		pending, err := repo.FindPendingByUser(ctx, input.UserID)
		if err == nil {
			if pending.Tier != input.Tier {
				return pkgerrors.New(pkgerrors.CodeConflict, "another subscription request is already pending").
					WithDetails(map[string]string{"pending_tier": pending.Tier.String()})
			}
			// Reusing the pending purchase still re-grants provisional
			// access when the entitlement row went missing since.
			if _, entErr := repo.FindEntitlement(ctx, input.UserID); entErr == gorm.ErrRecordNotFound {
				row := &models.SubscriptionEntitlement{
					UserID:   input.UserID,
					Status:   enums.EntitlementStatusPending,
					Tier:     pending.Tier,
					StartsAt: now,
				}
				if err := repo.UpsertEntitlement(ctx, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant provisional entitlement")
				}
			} else if entErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, entErr, "load entitlement")
			}
			result.Purchase = pending
			result.Existing = true
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending subscription")
		}

		entitlement, err := repo.FindEntitlement(ctx, input.UserID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
		}
		hasLiveApproved := err == nil &&
			entitlement.Status == enums.EntitlementStatusApproved &&
			entitlement.ActiveAt(now)
		if hasLiveApproved && entitlement.Tier.Rank() >= input.Tier.Rank() {
			return pkgerrors.New(pkgerrors.CodeConflict, "subscription already covers this tier")
		}

		purchase := &models.SubscriptionPurchase{
			UserID:      input.UserID,
			Tier:        input.Tier,
			Status:      enums.PurchaseStatusPending,
			AmountCents: s.amountForTier(input.Tier),
			PaymentRef:  input.PaymentRef,
			Note:        input.Note,
		}
		if _, err := repo.CreatePurchase(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription purchase")
		}

		provisional := false
		if !hasLiveApproved {
			provisional = true
			row := &models.SubscriptionEntitlement{
				UserID:   input.UserID,
				Status:   enums.EntitlementStatusPending,
				Tier:     input.Tier,
				StartsAt: now,
			}
			if err := repo.UpsertEntitlement(ctx, row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant provisional entitlement")
			}
		}

		result.Purchase = purchase
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionRequested,
			AggregateType: enums.AggregateSubscriptionPurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: input.ActorRole},
			Data: SubscriptionRequestedEvent{
				PurchaseID:  purchase.ID,
				UserID:      purchase.UserID,
				Tier:        purchase.Tier,
				AmountCents: purchase.AmountCents,
				Provisional: provisional,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Decide applies an admin approve or reject. Rejection flips the entitlement
// to rejected only while it is still pending; an entitlement approved through
// another purchase keeps granting access.
func (s *service) Decide(ctx context.Context, input DecideInput) (*models.SubscriptionPurchase, error) {
	if input.PurchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Action != approval.ActionApprove && input.Action != approval.ActionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}

	var purchase *models.SubscriptionPurchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindPurchase(ctx, input.PurchaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
		}
		purchase = found

		res, err := approval.Decide(purchase.Status, input.Action)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
				s.decisions.IncConflict(metricKindSubscription)
			}
			return err
		}
		if res.Noop {
			// Replays still re-assert the entitlement side of the landed
			// decision so drifted rows converge back to it.
			switch purchase.Status {
			case enums.PurchaseStatusApproved:
				return s.ensureApprovedEntitlement(ctx, repo, purchase, time.Now())
			case enums.PurchaseStatusRejected:
				actor := &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole}
				return s.revokeIfStillProvisional(ctx, tx, repo, purchase, actor)
			}
			return nil
		}

		now := time.Now()
		actor := &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole}

		if err := applyPurchaseDecision(ctx, repo, purchase, res.Next, input.Note, now); err != nil {
			return err
		}

		switch res.Next {
		case enums.PurchaseStatusApproved:
			row := &models.SubscriptionEntitlement{
				UserID:   purchase.UserID,
				Status:   enums.EntitlementStatusApproved,
				Tier:     purchase.Tier,
				StartsAt: now,
			}
			if err := repo.UpsertEntitlement(ctx, row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm entitlement")
			}
		case enums.PurchaseStatusRejected:
			if err := s.revokeIfStillProvisional(ctx, tx, repo, purchase, actor); err != nil {
				return err
			}
		}

		s.decisions.IncDecision(metricKindSubscription, res.Next.String())
		eventType := enums.EventSubscriptionApproved
		if res.Next == enums.PurchaseStatusRejected {
			eventType = enums.EventSubscriptionRejected
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateSubscriptionPurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Actor:         actor,
			Data: SubscriptionDecisionEvent{
				PurchaseID: purchase.ID,
				UserID:     purchase.UserID,
				Tier:       purchase.Tier,
				Status:     purchase.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// Cancel lets the requesting user withdraw a purchase that is still pending.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.SubscriptionPurchase, error) {
	if input.PurchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var purchase *models.SubscriptionPurchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindPurchase(ctx, input.PurchaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
		}
		purchase = found
		if purchase.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "purchase does not belong to user")
		}

		res, err := approval.Decide(purchase.Status, approval.ActionCancel)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
				s.decisions.IncConflict(metricKindSubscription)
			}
			return err
		}
		if res.Noop {
			// A replayed cancel re-asserts the revocation in case the
			// provisional row survived the first pass.
			actor := &outbox.ActorRef{UserID: input.UserID, Role: input.ActorRole}
			return s.revokeIfStillProvisional(ctx, tx, repo, purchase, actor)
		}

		now := time.Now()
		actor := &outbox.ActorRef{UserID: input.UserID, Role: input.ActorRole}

		if err := applyPurchaseDecision(ctx, repo, purchase, res.Next, nil, now); err != nil {
			return err
		}
		if err := s.revokeIfStillProvisional(ctx, tx, repo, purchase, actor); err != nil {
			return err
		}

		s.decisions.IncDecision(metricKindSubscription, res.Next.String())
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionCancelled,
			AggregateType: enums.AggregateSubscriptionPurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Actor:         actor,
			Data: SubscriptionDecisionEvent{
				PurchaseID: purchase.ID,
				UserID:     purchase.UserID,
				Tier:       purchase.Tier,
				Status:     purchase.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func applyPurchaseDecision(ctx context.Context, repo Repository, purchase *models.SubscriptionPurchase, next enums.PurchaseStatus, note *string, now time.Time) error {
	updates := map[string]any{"status": next}
	if note != nil {
		updates["note"] = *note
	}
	switch next {
	case enums.PurchaseStatusApproved:
		updates["approved_at"] = now
		updates["rejected_at"] = nil
	case enums.PurchaseStatusRejected:
		updates["rejected_at"] = now
		updates["approved_at"] = nil
	}

	if err := repo.UpdatePurchase(ctx, purchase.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase status")
	}

	purchase.Status = next
	if note != nil {
		purchase.Note = note
	}
	switch next {
	case enums.PurchaseStatusApproved:
		purchase.ApprovedAt = &now
		purchase.RejectedAt = nil
	case enums.PurchaseStatusRejected:
		purchase.RejectedAt = &now
		purchase.ApprovedAt = nil
	}
	return nil
}

// ensureApprovedEntitlement backfills the entitlement row for an approved
// purchase. Existing rows are left alone; a later cancellation window must
// not be reopened by replaying the approval.
func (s *service) ensureApprovedEntitlement(ctx context.Context, repo Repository, purchase *models.SubscriptionPurchase, now time.Time) error {
	_, err := repo.FindEntitlement(ctx, purchase.UserID)
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
	}
	row := &models.SubscriptionEntitlement{
		UserID:   purchase.UserID,
		Status:   enums.EntitlementStatusApproved,
		Tier:     purchase.Tier,
		StartsAt: now,
	}
	if err := repo.UpsertEntitlement(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-assert entitlement")
	}
	return nil
}

// revokeIfStillProvisional removes the provisional access written at request
// time. An entitlement that has moved past pending belongs to some other
// approved purchase and must not be touched.
func (s *service) revokeIfStillProvisional(ctx context.Context, tx *gorm.DB, repo Repository, purchase *models.SubscriptionPurchase, actor *outbox.ActorRef) error {
	entitlement, err := repo.FindEntitlement(ctx, purchase.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
	}
	if entitlement.Status != enums.EntitlementStatusPending {
		return nil
	}

	updates := map[string]any{"status": enums.EntitlementStatusRejected}
	if err := repo.UpdateEntitlement(ctx, purchase.UserID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke provisional entitlement")
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventEntitlementRevoked,
		AggregateType: enums.AggregateSubscriptionPurchase,
		AggregateID:   purchase.ID,
		Version:       1,
		Actor:         actor,
		Data: EntitlementRevokedEvent{
			UserID:     purchase.UserID,
			Tier:       entitlement.Tier,
			PurchaseID: purchase.ID,
		},
	})
}

// FileChange records a cancel or downgrade request against the live
// subscription. A pending request of the same kind is returned as-is.
func (s *service) FileChange(ctx context.Context, input ChangeInput) (*ChangeResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change kind must be cancel or downgrade")
	}
	if input.Kind == enums.ChangeRequestKindDowngrade && input.TargetTier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target tier required for downgrade")
	}

	var result ChangeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now()

		entitlement, err := repo.FindEntitlement(ctx, input.UserID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no active subscription")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
		}
		if entitlement.Status != enums.EntitlementStatusApproved || !entitlement.ActiveAt(now) {
			return pkgerrors.New(pkgerrors.CodeConflict, "subscription is not active")
		}
		if input.Kind == enums.ChangeRequestKindDowngrade && input.TargetTier.Rank() >= entitlement.Tier.Rank() {
			return pkgerrors.New(pkgerrors.CodeValidation, "target tier must be below current tier")
		}

		existing, err := repo.FindPendingChangeRequest(ctx, input.UserID, input.Kind)
		if err == nil {
			result.Request = existing
			result.Existing = true
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending change request")
		}

		request := &models.SubscriptionChangeRequest{
			UserID:     input.UserID,
			Kind:       input.Kind,
			TargetTier: input.TargetTier,
			Status:     enums.PurchaseStatusPending,
		}
		if _, err := repo.CreateChangeRequest(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create change request")
		}

		result.Request = request
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChangeRequestFiled,
			AggregateType: enums.AggregateChangeRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: input.ActorRole},
			Data: ChangeRequestFiledEvent{
				RequestID:  request.ID,
				UserID:     request.UserID,
				Kind:       request.Kind,
				TargetTier: request.TargetTier,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ResolveChange applies an admin decision to a filed change request.
// Approval mutates the live entitlement: cancel schedules the end of access,
// downgrade lowers the tier.
func (s *service) ResolveChange(ctx context.Context, input ResolveChangeInput) (*models.SubscriptionChangeRequest, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change request id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Action != approval.ActionApprove && input.Action != approval.ActionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}

	var request *models.SubscriptionChangeRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindChangeRequest(ctx, input.RequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "change request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load change request")
		}
		request = found

		res, err := approval.Decide(request.Status, input.Action)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
				s.decisions.IncConflict(metricKindChangeRequest)
			}
			return err
		}
		if res.Noop {
			return nil
		}

		now := time.Now()
		actor := &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole}

		updates := map[string]any{
			"status":      res.Next,
			"resolved_at": now,
		}
		if err := repo.UpdateChangeRequest(ctx, request.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update change request")
		}
		request.Status = res.Next
		request.ResolvedAt = &now

		if res.Next == enums.PurchaseStatusApproved {
			if err := s.applyChange(ctx, tx, repo, request, actor, now); err != nil {
				return err
			}
		}

		s.decisions.IncDecision(metricKindChangeRequest, res.Next.String())
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChangeRequestResolved,
			AggregateType: enums.AggregateChangeRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         actor,
			Data: ChangeRequestResolvedEvent{
				RequestID: request.ID,
				UserID:    request.UserID,
				Kind:      request.Kind,
				Status:    request.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) applyChange(ctx context.Context, tx *gorm.DB, repo Repository, request *models.SubscriptionChangeRequest, actor *outbox.ActorRef, now time.Time) error {
	entitlement, err := repo.FindEntitlement(ctx, request.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeConflict, "no entitlement to change")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
	}

	switch request.Kind {
	case enums.ChangeRequestKindCancel:
		if err := repo.UpdateEntitlement(ctx, request.UserID, map[string]any{"ends_at": now}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end subscription")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionCancelled,
			AggregateType: enums.AggregateChangeRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         actor,
			Data: SubscriptionCancelledEvent{
				UserID: request.UserID,
				EndsAt: now,
			},
		})

	case enums.ChangeRequestKindDowngrade:
		if request.TargetTier == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "target tier required for downgrade")
		}
		fromTier := entitlement.Tier
		if err := repo.UpdateEntitlement(ctx, request.UserID, map[string]any{"tier": *request.TargetTier}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "downgrade tier")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionTierChanged,
			AggregateType: enums.AggregateChangeRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         actor,
			Data: TierChangedEvent{
				UserID:   request.UserID,
				FromTier: fromTier,
				ToTier:   *request.TargetTier,
			},
		})
	}

	return nil
}

func (s *service) GetPurchase(ctx context.Context, id uuid.UUID) (*models.SubscriptionPurchase, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	purchase, err := s.repo.FindPurchase(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	return purchase, nil
}

func (s *service) GetEntitlement(ctx context.Context, userID uuid.UUID) (*models.SubscriptionEntitlement, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	entitlement, err := s.repo.FindEntitlement(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription on file")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entitlement")
	}
	return entitlement, nil
}

func (s *service) ListAdmin(ctx context.Context, params pagination.Params, filters PurchaseFilters) (*PurchaseList, error) {
	list, err := s.repo.ListPurchases(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscription purchases")
	}
	return list, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PurchaseList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListUserPurchases(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscription purchases")
	}
	return list, nil
}

func (s *service) ListChangeRequests(ctx context.Context, params pagination.Params, filters ChangeRequestFilters) (*ChangeRequestList, error) {
	list, err := s.repo.ListChangeRequests(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list change requests")
	}
	return list, nil
}
