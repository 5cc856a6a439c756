package controllers

import (
	"net/http"

	"github.com/promptdeck/promptdeck-backend/api/responses"
	"github.com/promptdeck/promptdeck-backend/api/validators"
	optimizersvc "github.com/promptdeck/promptdeck-backend/internal/optimizer"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

type optimizeRequest struct {
	Text     string `json:"text" validate:"required"`
	Platform string `json:"platform,omitempty"`
}

type optimizeResponse struct {
	Output string `json:"output"`
	Model  string `json:"model"`
	RunID  string `json:"run_id"`
}

// Optimize rewrites the submitted prompt text through the LLM and records
// the run for the caller's history.
func Optimize(svc optimizersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "optimizer service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload optimizeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Optimize(r.Context(), optimizersvc.OptimizeInput{
			UserID:   userID,
			Text:     payload.Text,
			Platform: payload.Platform,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, optimizeResponse{
			Output: result.Output,
			Model:  result.Model,
			RunID:  result.Run.ID.String(),
		})
	}
}

// OptimizeHistory lists the caller's past optimization runs.
func OptimizeHistory(svc optimizersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "optimizer service unavailable"))
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

		list, err := svc.History(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listPayload{Items: list.Items, NextCursor: list.NextCursor})
	}
}
