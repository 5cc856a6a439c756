package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/promptdeck/promptdeck-backend/api/responses"
	pkgAuth "github.com/promptdeck/promptdeck-backend/pkg/auth"
	"github.com/promptdeck/promptdeck-backend/pkg/config"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

// UserDirectory mirrors externally-authenticated subjects into the local
// users table. Satisfied by *users.Repository.
type UserDirectory interface {
	EnsureMirrored(ctx context.Context, user *models.User) (*models.User, error)
}

// Auth validates a bearer token and seeds the request context with the claims.
// Tokens are minted by the external identity service; this layer only verifies
// the shared-secret signature and the registered claims. When a directory is
// provided the subject is provisioned locally on first sight and deactivated
// accounts are rejected.
func Auth(cfg config.JWTConfig, logg *logger.Logger, directory UserDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if directory != nil {
				user, err := directory.EnsureMirrored(r.Context(), &models.User{
					ID:          claims.UserID,
					Email:       claims.Email,
					DisplayName: displayNameFromEmail(claims.Email),
					Role:        claims.Role,
					IsActive:    true,
				})
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving user"))
					return
				}
				if !user.IsActive {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account deactivated"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
