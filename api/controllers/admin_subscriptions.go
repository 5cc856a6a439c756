package controllers

import (
	"net/http"

	"github.com/promptdeck/promptdeck-backend/api/middleware"
	"github.com/promptdeck/promptdeck-backend/api/responses"
	"github.com/promptdeck/promptdeck-backend/api/validators"
	"github.com/promptdeck/promptdeck-backend/internal/approval"
	subscriptionsvc "github.com/promptdeck/promptdeck-backend/internal/subscriptions"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

// AdminListSubscriptionPurchases serves the subscription review queue.
func AdminListSubscriptionPurchases(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The review queue defaults to pending rows.
		var filters subscriptionsvc.PurchaseFilters
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
		if raw := validators.ParseQueryString(r, "tier"); raw != nil {
			tier, err := enums.ParseSubscriptionTier(*raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
				return
			}
			filters.Tier = &tier
		}
		if filters.UserID, err = validators.ParseQueryUUID(r, "user_id"); err != nil {
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

// AdminGetSubscriptionPurchase serves one subscription purchase.
func AdminGetSubscriptionPurchase(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
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

// AdminSubscriptionDecision records an approve or reject ruling on a
// pending subscription purchase.
func AdminSubscriptionDecision(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
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

		purchase, err := svc.Decide(r.Context(), subscriptionsvc.DecideInput{
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

// AdminListChangeRequests serves pending cancel and downgrade requests.
func AdminListChangeRequests(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters subscriptionsvc.ChangeRequestFilters
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
		if raw := validators.ParseQueryString(r, "kind"); raw != nil {
			kind, err := enums.ParseChangeRequestKind(*raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			filters.Kind = &kind
		}
		if filters.UserID, err = validators.ParseQueryUUID(r, "user_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListChangeRequests(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listPayload{Items: list.Items, NextCursor: list.NextCursor})
	}
}

// AdminResolveChangeRequest applies or rejects a filed change request.
func AdminResolveChangeRequest(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		actorID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := validators.ParsePathUUID(r, "requestId")
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

		request, err := svc.ResolveChange(r.Context(), subscriptionsvc.ResolveChangeInput{
			RequestID: requestID,
			Action:    action,
			ActorID:   actorID,
			ActorRole: middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}
