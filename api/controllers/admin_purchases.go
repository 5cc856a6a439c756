package controllers

import (
	"net/http"

	"github.com/promptdeck/promptdeck-backend/api/middleware"
	"github.com/promptdeck/promptdeck-backend/api/responses"
	"github.com/promptdeck/promptdeck-backend/api/validators"
	"github.com/promptdeck/promptdeck-backend/internal/approval"
	purchasesvc "github.com/promptdeck/promptdeck-backend/internal/purchases"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

type decisionRequest struct {
	Action string  `json:"action" validate:"required"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// AdminListPackPurchases serves the review queue with optional filters.
func AdminListPackPurchases(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The review queue defaults to pending rows.
		var filters purchasesvc.PurchaseFilters
		if raw := validators.ParseQueryString(r, "status"); raw != nil {
			status, err := enums.ParsePurchaseStatus(*raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		} else {
			pending := enums.PurchaseStatusPending
			filters.Status = &pending
		}
		if filters.UserID, err = validators.ParseQueryUUID(r, "user_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.PackID, err = validators.ParseQueryUUID(r, "pack_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAdmin(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listPayload{Items: list.Items, NextCursor: list.NextCursor})
	}
}

// AdminGetPackPurchase serves one purchase regardless of owner.
func AdminGetPackPurchase(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		purchaseID, err := validators.ParsePathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.GetPurchase(r.Context(), purchaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}

// AdminPackPurchaseDecision records an approve or reject ruling. Replays of
// the same ruling are no-ops; conflicting rulings are rejected.
func AdminPackPurchaseDecision(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchaseID, err := validators.ParsePathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := approval.ParseAction(payload.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
			return
		}

		purchase, err := svc.Decide(r.Context(), purchasesvc.DecideInput{
			PurchaseID: purchaseID,
			Action:     action,
			Note:       payload.Note,
			ActorID:    actorID,
			ActorRole:  middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}
