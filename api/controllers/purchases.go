package controllers

import (
	"net/http"

	"github.com/promptdeck/promptdeck-backend/api/middleware"
	"github.com/promptdeck/promptdeck-backend/api/responses"
	"github.com/promptdeck/promptdeck-backend/api/validators"
	purchasesvc "github.com/promptdeck/promptdeck-backend/internal/purchases"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

type packPurchaseRequest struct {
	PaymentRef *string `json:"payment_ref,omitempty" validate:"omitempty,max=255"`
	Note       *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// PackPurchaseRequest files a manual purchase request for a pack. The
// entitlement is granted immediately and an admin confirms or revokes later.
func PackPurchaseRequest(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		packID, err := validators.ParsePathUUID(r, "packId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload packPurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Request(r.Context(), purchasesvc.RequestInput{
			UserID:     userID,
			PackID:     packID,
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

// MyPackPurchases lists the caller's own pack purchases, newest first.
func MyPackPurchases(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
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

// GetMyPackPurchase serves one purchase belonging to the caller. Rows owned
// by other users read as not found.
func GetMyPackPurchase(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
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

		purchase, err := svc.GetPurchase(r.Context(), purchaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if purchase.UserID != userID && middleware.RoleFromContext(r.Context()) != string(enums.UserRoleAdmin) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found"))
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}
