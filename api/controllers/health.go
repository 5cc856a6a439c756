package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/promptdeck/promptdeck-backend/api/responses"
	"github.com/promptdeck/promptdeck-backend/pkg/config"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

const readyCheckTimeout = 3 * time.Second

const envHeader = "X-PromptDeck-Env"

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores. Nil pingers are skipped so partial
// wiring (tests, tooling) still gets a meaningful readiness answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		var err error
		if db != nil {
			err = multierr.Append(err, db.Ping(ctx))
		}
		if cache != nil {
			err = multierr.Append(err, cache.Ping(ctx))
		}

		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
