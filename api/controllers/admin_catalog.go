package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/api/responses"
	"github.com/promptdeck/promptdeck-backend/api/validators"
	catalogsvc "github.com/promptdeck/promptdeck-backend/internal/catalog"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

type createPackRequest struct {
	Slug        string   `json:"slug" validate:"required,max=120"`
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=4000"`
	PriceCents  int64    `json:"price_cents" validate:"min=0"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
	Published   bool     `json:"published,omitempty"`
}

// AdminCreatePack creates a catalog pack.
func AdminCreatePack(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createPackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pack, err := svc.CreatePack(r.Context(), catalogsvc.CreatePackInput{
			Slug:        payload.Slug,
			Title:       payload.Title,
			Description: payload.Description,
			PriceCents:  payload.PriceCents,
			Tags:        payload.Tags,
			Published:   payload.Published,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, pack)
	}
}

type updatePackRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=4000"`
	PriceCents  *int64    `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	Tags        *[]string `json:"tags,omitempty"`
	Published   *bool     `json:"published,omitempty"`
}

// AdminUpdatePack applies a partial update to a pack.
func AdminUpdatePack(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		packID, err := validators.ParsePathUUID(r, "packId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pack, err := svc.UpdatePack(r.Context(), packID, catalogsvc.UpdatePackInput{
			Title:       payload.Title,
			Description: payload.Description,
			PriceCents:  payload.PriceCents,
			Tags:        payload.Tags,
			Published:   payload.Published,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pack)
	}
}

// AdminListPacks lists packs including drafts.
func AdminListPacks(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters catalogsvc.PackFilters
		if filters.Published, err = validators.ParseQueryBool(r, "published"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.Tag = validators.ParseQueryString(r, "tag")

		list, err := svc.ListPacksAdmin(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listPayload{Items: list.Items, NextCursor: list.NextCursor})
	}
}

// AdminGetPack serves one pack regardless of published state.
func AdminGetPack(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		packID, err := validators.ParsePathUUID(r, "packId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pack, err := svc.GetPack(r.Context(), packID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pack)
	}
}

type createPromptRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Body     string `json:"body" validate:"required"`
	Platform string `json:"platform,omitempty" validate:"omitempty,max=50"`
	Kind     string `json:"kind,omitempty" validate:"omitempty,max=50"`
	Free     bool   `json:"free,omitempty"`
}

// AdminCreatePackPrompt adds a prompt to an existing pack.
func AdminCreatePackPrompt(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		packID, err := validators.ParsePathUUID(r, "packId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prompt, err := createPrompt(r, svc, &packID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, prompt)
	}
}

// AdminCreatePrompt adds a free-standing prompt outside any pack.
func AdminCreatePrompt(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		prompt, err := createPrompt(r, svc, nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, prompt)
	}
}

func createPrompt(r *http.Request, svc catalogsvc.Service, packID *uuid.UUID) (any, error) {
	var payload createPromptRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return nil, err
	}

	return svc.CreatePrompt(r.Context(), catalogsvc.CreatePromptInput{
		PackID:   packID,
		Title:    payload.Title,
		Body:     payload.Body,
		Platform: payload.Platform,
		Kind:     payload.Kind,
		Free:     payload.Free,
	})
}
