package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/api/middleware"
	optimizersvc "github.com/promptdeck/promptdeck-backend/internal/optimizer"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

type stubOptimizerService struct {
	result *optimizersvc.OptimizeResult
	err    error
	input  optimizersvc.OptimizeInput

	history *optimizersvc.RunList
}

func (s *stubOptimizerService) Optimize(_ context.Context, input optimizersvc.OptimizeInput) (*optimizersvc.OptimizeResult, error) {
	s.input = input
	return s.result, s.err
}

func (s *stubOptimizerService) History(context.Context, uuid.UUID, pagination.Params) (*optimizersvc.RunList, error) {
	return s.history, s.err
}

func TestOptimize(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()

	t.Run("returns rewritten prompt", func(t *testing.T) {
		stub := &stubOptimizerService{result: &optimizersvc.OptimizeResult{
			Output: "improved text",
			Model:  "demo-model",
			Run:    &models.OptimizationRun{ID: uuid.New(), UserID: userID},
		}}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", strings.NewReader(`{"text":"make this better","platform":"chatgpt"}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

		rec := httptest.NewRecorder()
		Optimize(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.input.Platform != "chatgpt" {
			t.Fatalf("platform not forwarded, got %q", stub.input.Platform)
		}
	})

	t.Run("missing text fails validation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", strings.NewReader(`{"platform":"chatgpt"}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

		rec := httptest.NewRecorder()
		Optimize(&stubOptimizerService{}, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rate limit surfaces 429", func(t *testing.T) {
		stub := &stubOptimizerService{err: pkgerrors.New(pkgerrors.CodeRateLimit, "optimization limit reached")}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", strings.NewReader(`{"text":"spam"}`))
		req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

		rec := httptest.NewRecorder()
		Optimize(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	})
}

func TestOptimizeHistory(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()

	stub := &stubOptimizerService{history: &optimizersvc.RunList{
		Items: []models.OptimizationRun{{ID: uuid.New(), UserID: userID}},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/optimize/history", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	rec := httptest.NewRecorder()
	OptimizeHistory(stub, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
