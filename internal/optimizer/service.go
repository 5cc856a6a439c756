package optimizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/pkg/config"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	"github.com/promptdeck/promptdeck-backend/pkg/enums"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/llm"
	"github.com/promptdeck/promptdeck-backend/pkg/metrics"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

const rateLimitScope = "optimizer"

const systemPrompt = "You are a prompt engineer. Rewrite the user's text into a single, well-structured prompt for the target platform. Keep the user's intent, add missing context requirements, and return only the rewritten prompt."

type completer interface {
	Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error)
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service rewrites user text into structured prompts through the LLM API
// and keeps an audit trail of every run.
type Service interface {
	Optimize(ctx context.Context, input OptimizeInput) (*OptimizeResult, error)
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*RunList, error)
}

type service struct {
	repo    Repository
	llm     completer
	limiter rateLimiter
	cfg     config.OptimizerConfig
	runs    *metrics.OptimizerMetrics
}

// NewService builds an optimizer service. The limiter may be nil, in which
// case no rate limiting is applied; the metrics handle may be nil too.
func NewService(repo Repository, llmClient completer, limiter rateLimiter, cfg config.OptimizerConfig, runs *metrics.OptimizerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("optimizer repository required")
	}
	if llmClient == nil {
		return nil, fmt.Errorf("llm client required")
	}
	return &service{
		repo:    repo,
		llm:     llmClient,
		limiter: limiter,
		cfg:     cfg,
		runs:    runs,
	}, nil
}

// Optimize runs one rewrite. Failed upstream calls are persisted too when
// the config says so, so the audit trail shows what users actually tried.
func (s *service) Optimize(ctx context.Context, input OptimizeInput) (*OptimizeResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "text required")
	}
	if s.cfg.MaxInputChars > 0 && len(text) > s.cfg.MaxInputChars {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "text too long").
			WithDetails(map[string]int{"max_chars": s.cfg.MaxInputChars})
	}
	platform := strings.TrimSpace(input.Platform)
	if platform == "" {
		platform = "generic"
	}

	if s.limiter != nil && s.cfg.RateLimitPerUser > 0 {
		scope := rateLimitScope + ":" + input.UserID.String()
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, scope, int64(s.cfg.RateLimitPerUser), s.cfg.RateLimitWindow)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
		}
		if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "optimizer rate limit reached").
				WithDetails(map[string]string{"window": s.cfg.RateLimitWindow.String()})
		}
	}

	callCtx := ctx
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt + " Target platform: " + platform + "."},
		{Role: "user", Content: text},
	}

	started := time.Now()
	completion, err := s.llm.Complete(callCtx, messages)
	elapsed := time.Since(started)

	if err != nil {
		s.runs.ObserveRun(enums.OptimizationStatusFailed.String(), elapsed)
		if s.cfg.PersistFailedRuns {
			run := &models.OptimizationRun{
				UserID:     input.UserID,
				Platform:   platform,
				InputText:  text,
				Status:     enums.OptimizationStatusFailed,
				DurationMS: elapsed.Milliseconds(),
			}
			if _, persistErr := s.repo.CreateRun(ctx, run); persistErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, persistErr, "persist failed run")
			}
		}
		return nil, err
	}

	run := &models.OptimizationRun{
		UserID:     input.UserID,
		Platform:   platform,
		InputText:  text,
		OutputText: completion.Content,
		Model:      completion.Model,
		Status:     enums.OptimizationStatusSucceeded,
		DurationMS: elapsed.Milliseconds(),
	}
	if _, err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist run")
	}
	s.runs.ObserveRun(enums.OptimizationStatusSucceeded.String(), elapsed)

	return &OptimizeResult{
		Output: completion.Content,
		Model:  completion.Model,
		Run:    run,
	}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*RunList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if params.Limit <= 0 && s.cfg.HistoryPageLimit > 0 {
		params.Limit = s.cfg.HistoryPageLimit
	}
	list, err := s.repo.ListUserRuns(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list optimization runs")
	}
	return list, nil
}
