package controllers

import (
	"net/http"

	"github.com/promptdeck/promptdeck-backend/api/middleware"
	"github.com/promptdeck/promptdeck-backend/api/responses"
	"github.com/promptdeck/promptdeck-backend/api/validators"
	subscriptionsvc "github.com/promptdeck/promptdeck-backend/internal/subscriptions"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

type subscriptionRequest struct {
	Tier       string  `json:"tier" validate:"required"`
	PaymentRef *string `json:"payment_ref,omitempty" validate:"omitempty,max=255"`
	Note       *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// SubscriptionRequest files a manual subscription request. Access starts
// provisionally unless the user already holds a live subscription.
func SubscriptionRequest(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload subscriptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := enums.ParseSubscriptionTier(payload.Tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
			return
		}

		result, err := svc.Request(r.Context(), subscriptionsvc.RequestInput{
			UserID:     userID,
			Tier:       tier,
			PaymentRef: payload.PaymentRef,
			Note:       payload.Note,
			ActorRole:  middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Existing {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result.Purchase)
	}
}

// SubscriptionFetch returns the caller's subscription entitlement row.
func SubscriptionFetch(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entitlement, err := svc.GetEntitlement(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, entitlement)
	}
}

// SubscriptionCancel withdraws the caller's own pending subscription request.
func SubscriptionCancel(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchaseID, err := validators.ParsePathUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.Cancel(r.Context(), subscriptionsvc.CancelInput{
			PurchaseID: purchaseID,
			UserID:     userID,
			ActorRole:  middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}

type subscriptionChangeRequest struct {
	Kind       string  `json:"kind" validate:"required"`
	TargetTier *string `json:"target_tier,omitempty"`
}

// SubscriptionChange files a cancel or downgrade request against the
// caller's active subscription.
func SubscriptionChange(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload subscriptionChangeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseChangeRequestKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid change kind"))
			return
		}

		input := subscriptionsvc.ChangeInput{
			UserID:    userID,
			Kind:      kind,
			ActorRole: middleware.RoleFromContext(r.Context()),
		}
		if payload.TargetTier != nil {
			tier, err := enums.ParseSubscriptionTier(*payload.TargetTier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target tier"))
				return
			}
			input.TargetTier = &tier
		}

		result, err := svc.FileChange(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Existing {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result.Request)
	}
}

// MySubscriptionPurchases lists the caller's subscription purchase history.
func MySubscriptionPurchases(svc subscriptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listPayload{Items: list.Items, NextCursor: list.NextCursor})
	}
}
