package controllers

import (
	"net/http"

	"github.com/promptdeck/promptdeck-backend/api/responses"
	"github.com/promptdeck/promptdeck-backend/api/validators"
	entitlementsvc "github.com/promptdeck/promptdeck-backend/internal/entitlements"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

// ReadPrompt serves a prompt body to callers whose entitlements cover it.
func ReadPrompt(svc entitlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlements service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promptID, err := validators.ParsePathUUID(r, "promptId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prompt, err := svc.ReadPrompt(r.Context(), userID, promptID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, prompt)
	}
}
