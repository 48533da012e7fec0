package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/cartengine/pkg/logger"
	"github.com/angelmondragon/cartengine/pkg/metrics"
	"github.com/angelmondragon/cartengine/pkg/models"
	"go.uber.org/multierr"
)

const cartExpirationJobName = "cart-expiration"

// CartExpirationJobParams configure the cart expiration sweep.
type CartExpirationJobParams struct {
	Logger  *logger.Logger
	Carts   expiredCartLister
	Expirer cartExpirer
	Metrics *metrics.CronJobMetrics
	Clock   func() time.Time
}

type expiredCartLister interface {
	ListExpired(ctx context.Context, now time.Time) ([]*models.Cart, error)
}

// cartExpirer re-checks a cart under its user lock before expiring it.
type cartExpirer interface {
	Expire(ctx context.Context, userID string, now time.Time) (bool, error)
}

// NewCartExpirationJob builds the job that moves overdue carts to expired.
func NewCartExpirationJob(params CartExpirationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart lister required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("cart expirer required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &cartExpirationJob{
		logg:    params.Logger,
		carts:   params.Carts,
		expirer: params.Expirer,
		metrics: params.Metrics,
		now:     clock,
	}, nil
}

type cartExpirationJob struct {
	logg    *logger.Logger
	carts   expiredCartLister
	expirer cartExpirer
	metrics *metrics.CronJobMetrics
	now     func() time.Time
}

func (j *cartExpirationJob) Name() string { return cartExpirationJobName }

func (j *cartExpirationJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	candidates, err := j.carts.ListExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("list expired carts: %w", err)
	}

	var errs error
	expired := 0
	for _, cart := range candidates {
		if cart == nil {
			continue
		}
		cartCtx := j.logg.WithUserID(ctx, cart.UserID)
		ok, err := j.expirer.Expire(cartCtx, cart.UserID, now)
		if err != nil {
			j.logg.Error(cartCtx, "cart expiration failed", err)
			errs = multierr.Append(errs, fmt.Errorf("expire cart %s: %w", cart.UserID, err))
			continue
		}
		if ok {
			expired++
		}
	}

	if j.metrics != nil {
		j.metrics.AddProcessed(cartExpirationJobName, expired)
	}
	summaryCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(candidates),
		"expired":    expired,
	})
	j.logg.Info(summaryCtx, "cart expiration sweep finished")
	return errs
}
