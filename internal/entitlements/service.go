package entitlements

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
)

// Service answers "what does this user have access to" questions.
type Service interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
	ReadPrompt(ctx context.Context, userID, promptID uuid.UUID) (*models.Prompt, error)
}

type service struct {
	repo Repository
}

// NewService builds an entitlements service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("entitlements repository required")
	}
	return &service{repo: repo}, nil
}

// Snapshot aggregates pack access and the subscription state for one user.
func (s *service) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	packs, err := s.repo.ListPackAccess(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pack access")
	}
	if packs == nil {
		packs = []PackAccess{}
	}

	snapshot := &Snapshot{Packs: packs}

	entitlement, err := s.repo.FindSubscriptionEntitlement(ctx, userID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription entitlement")
	}
	if err == nil {
		snapshot.Subscription = &SubscriptionAccess{
			Tier:     entitlement.Tier,
			Status:   entitlement.Status,
			StartsAt: entitlement.StartsAt,
			EndsAt:   entitlement.EndsAt,
			Active:   entitlement.ActiveAt(time.Now()),
		}
	}

	return snapshot, nil
}

// ReadPrompt returns the full prompt body when the user may see it: the
// prompt is free, the user owns its pack, or an active subscription covers
// the whole catalog.
func (s *service) ReadPrompt(ctx context.Context, userID, promptID uuid.UUID) (*models.Prompt, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if promptID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prompt id required")
	}

	prompt, err := s.repo.FindPrompt(ctx, promptID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "prompt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prompt")
	}
	if prompt.Free {
		return prompt, nil
	}

	if prompt.PackID != nil {
		owned, err := s.repo.HasPackEntitlement(ctx, userID, *prompt.PackID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pack entitlement")
		}
		if owned {
			return prompt, nil
		}
	}

	entitlement, err := s.repo.FindSubscriptionEntitlement(ctx, userID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription entitlement")
	}
	if err == nil && entitlement.ActiveAt(time.Now()) {
		if entitlement.Tier == enums.SubscriptionTierUnlimited || prompt.PackID == nil {
			return prompt, nil
		}
		// basic tier covers free-standing prompts only; packs are bought
		// individually
	}

	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "prompt requires purchase")
}
