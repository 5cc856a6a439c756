package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/api/middleware"
	"github.com/promptdeck/promptdeck-backend/api/validators"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

// authedUserID resolves the caller's uuid from the auth middleware context.
func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	params := pagination.Params{Limit: limit}
	if cursor := validators.ParseQueryString(r, "cursor"); cursor != nil {
		params.Cursor = *cursor
	}
	return params, nil
}

type listPayload struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
