package controllers

import (
	"net/http"

	"github.com/promptdeck/promptdeck-backend/api/responses"
	"github.com/promptdeck/promptdeck-backend/api/validators"
	catalogsvc "github.com/promptdeck/promptdeck-backend/internal/catalog"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

// PublicListPacks serves the published catalog to unauthenticated browsers.
func PublicListPacks(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		tag := validators.ParseQueryString(r, "tag")

		list, err := svc.ListPublishedPacks(r.Context(), params, tag)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listPayload{Items: list.Items, NextCursor: list.NextCursor})
	}
}

// PublicGetPack serves a single published pack. Unpublished packs read as
// not found so drafts never leak.
func PublicGetPack(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		pack, err := svc.GetPublishedPack(r.Context(), packID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pack)
	}
}

// PublicListPackPrompts lists the prompts in a published pack. Paid prompt
// bodies are withheld; only free prompts ship their text here.
func PublicListPackPrompts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		prompts, err := svc.ListPublishedPackPrompts(r.Context(), packID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listPayload{Items: prompts})
	}
}
