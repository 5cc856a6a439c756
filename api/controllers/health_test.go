package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptdeck/promptdeck-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

func healthConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "dev"}}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(healthConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-PromptDeck-Env") != "dev" {
		t.Fatalf("expected env header")
	}
}

func TestHealthReady(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler := HealthReady(healthConfig(), testLogger(), &stubPinger{}, &stubPinger{})
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("database down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler := HealthReady(healthConfig(), testLogger(), &stubPinger{err: errors.New("connection refused")}, &stubPinger{})
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("nil pingers are skipped", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler := HealthReady(healthConfig(), testLogger(), nil, nil)
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
