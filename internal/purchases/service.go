package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/internal/approval"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/metrics"
	"github.com/promptdeck/promptdeck-backend/pkg/outbox"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

const metricKindPack = "pack"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines pack purchase operations.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*RequestResult, error)
	Decide(ctx context.Context, input DecideInput) (*models.PackPurchase, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*models.PackPurchase, error)
	ListAdmin(ctx context.Context, params pagination.Params, filters PurchaseFilters) (*PurchaseList, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PurchaseList, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	decisions *metrics.DecisionMetrics
}

// NewService builds a pack purchase service with the required dependencies.
// The metrics handle may be nil when no registry is wired (tests, tooling).
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, decisions *metrics.DecisionMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
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
		decisions: decisions,
	}, nil
}

// Request files a purchase and grants the pack immediately. The entitlement
// row created here is provisional: rejection later removes it unless another
// approved purchase holds it up.
func (s *service) Request(ctx context.Context, input RequestInput) (*RequestResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PackID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack id required")
	}

	var result RequestResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		pack, err := repo.FindPack(ctx, input.PackID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack")
		}
		if !pack.Published {
			return pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
		}

		pending, err := repo.FindPendingByUserAndPack(ctx, input.UserID, input.PackID)
		if err == nil {
			// The reused pending purchase must still carry provisional
			// access, even if the entitlement row went missing since.
			entitlement := &models.PackEntitlement{UserID: input.UserID, PackID: input.PackID}
			if err := repo.CreateEntitlement(ctx, entitlement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant provisional entitlement")
			}
			result.Purchase = pending
			result.Existing = true
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending purchase")
		}

		approved, err := repo.CountApprovedByUserAndPack(ctx, input.UserID, input.PackID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check approved purchases")
		}
		if approved > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "pack already purchased")
		}

		purchase := &models.PackPurchase{
			UserID:      input.UserID,
			PackID:      input.PackID,
			Status:      enums.PurchaseStatusPending,
			AmountCents: pack.PriceCents,
			PaymentRef:  input.PaymentRef,
			Note:        input.Note,
		}
		if _, err := repo.CreatePurchase(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}

		entitlement := &models.PackEntitlement{
			UserID: input.UserID,
			PackID: input.PackID,
		}
		if err := repo.CreateEntitlement(ctx, entitlement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant provisional entitlement")
		}

		result.Purchase = purchase
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseRequested,
			AggregateType: enums.AggregatePackPurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: input.ActorRole},
			Data: PurchaseRequestedEvent{
				PurchaseID:  purchase.ID,
				UserID:      purchase.UserID,
				PackID:      purchase.PackID,
				AmountCents: purchase.AmountCents,
				Provisional: true,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Decide applies an admin ruling. Repeating the decision that already landed
// succeeds without side effects; crossing decisions conflict.
func (s *service) Decide(ctx context.Context, input DecideInput) (*models.PackPurchase, error) {
	if input.PurchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Action == approval.ActionCancel {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack purchases cannot be cancelled")
	}

	var purchase *models.PackPurchase
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
				s.decisions.IncConflict(metricKindPack)
			}
			return err
		}
		if res.Noop {
			// Replays still re-assert the entitlement side of the landed
			// decision so drifted rows converge back to it.
			switch purchase.Status {
			case enums.PurchaseStatusApproved:
				entitlement := &models.PackEntitlement{UserID: purchase.UserID, PackID: purchase.PackID}
				if err := repo.CreateEntitlement(ctx, entitlement); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-assert entitlement")
				}
			case enums.PurchaseStatusRejected:
				stillOwned, err := repo.CountApprovedByUserAndPack(ctx, purchase.UserID, purchase.PackID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check surviving purchases")
				}
				if stillOwned == 0 {
					if err := repo.DeleteEntitlement(ctx, purchase.UserID, purchase.PackID); err != nil {
						return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-assert revocation")
					}
				}
			}
			return nil
		}

		now := time.Now()
		updates := map[string]any{"status": res.Next}
		if input.Note != nil {
			updates["note"] = *input.Note
		}

		var eventType enums.OutboxEventType
		switch res.Next {
		case enums.PurchaseStatusApproved:
			updates["approved_at"] = now
			updates["rejected_at"] = nil
			eventType = enums.EventPurchaseApproved
		case enums.PurchaseStatusRejected:
			updates["rejected_at"] = now
			updates["approved_at"] = nil
			eventType = enums.EventPurchaseRejected
		}

		if err := repo.UpdatePurchase(ctx, purchase.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase status")
		}

		purchase.Status = res.Next
		if input.Note != nil {
			purchase.Note = input.Note
		}
		switch res.Next {
		case enums.PurchaseStatusApproved:
			purchase.ApprovedAt = &now
			purchase.RejectedAt = nil
		case enums.PurchaseStatusRejected:
			purchase.RejectedAt = &now
			purchase.ApprovedAt = nil
		}

		actor := &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole}

		if res.Next == enums.PurchaseStatusApproved {
			entitlement := &models.PackEntitlement{UserID: purchase.UserID, PackID: purchase.PackID}
			if err := repo.CreateEntitlement(ctx, entitlement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm entitlement")
			}
		}

		if res.Next == enums.PurchaseStatusRejected {
			stillOwned, err := repo.CountApprovedByUserAndPack(ctx, purchase.UserID, purchase.PackID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check surviving purchases")
			}
			if stillOwned == 0 {
				if err := repo.DeleteEntitlement(ctx, purchase.UserID, purchase.PackID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke provisional entitlement")
				}
				revoked := outbox.DomainEvent{
					EventType:     enums.EventEntitlementRevoked,
					AggregateType: enums.AggregatePackPurchase,
					AggregateID:   purchase.ID,
					Version:       1,
					Actor:         actor,
					Data: EntitlementRevokedEvent{
						UserID:     purchase.UserID,
						PackID:     purchase.PackID,
						PurchaseID: purchase.ID,
					},
				}
				if err := s.outbox.Emit(ctx, tx, revoked); err != nil {
					return err
				}
			}
		}

		s.decisions.IncDecision(metricKindPack, res.Next.String())
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePackPurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Actor:         actor,
			Data: PurchaseDecisionEvent{
				PurchaseID: purchase.ID,
				UserID:     purchase.UserID,
				PackID:     purchase.PackID,
				Status:     purchase.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *service) GetPurchase(ctx context.Context, id uuid.UUID) (*models.PackPurchase, error) {
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

func (s *service) ListAdmin(ctx context.Context, params pagination.Params, filters PurchaseFilters) (*PurchaseList, error) {
	list, err := s.repo.ListPurchases(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return list, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PurchaseList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListUserPurchases(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return list, nil
}
