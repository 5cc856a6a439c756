package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/promptdeck/promptdeck-backend/pkg/logger"
)

type entitlementExpiryRepo interface {
	ExpireLapsedEntitlements(ctx context.Context, now time.Time) (int64, error)
}

// EntitlementExpiryJobParams configure the subscription expiry sweep.
type EntitlementExpiryJobParams struct {
	Logger     *logger.Logger
	Repository entitlementExpiryRepo
}

// NewEntitlementExpiryJob builds a job that retires subscription
// entitlements whose ends_at has passed. Cancelled subscriptions get their
// ends_at stamped at cancellation approval; this sweep flips the stored
// status once that moment arrives.
func NewEntitlementExpiryJob(params EntitlementExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	return &entitlementExpiryJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type entitlementExpiryJob struct {
	logg *logger.Logger
	repo entitlementExpiryRepo
	now  func() time.Time
}

func (j *entitlementExpiryJob) Name() string { return "entitlement-expiry" }

func (j *entitlementExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.repo.ExpireLapsedEntitlements(ctx, now)
	if err != nil {
		return fmt.Errorf("entitlement expiry: %w", err)
	}
	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":   now.Format(time.RFC3339),
		"expired": expired,
	})
	j.logg.Info(reportCtx, "entitlement expiry sweep complete")
	return nil
}
