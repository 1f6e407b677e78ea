package scheduler

import (
	"context"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/subscription"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	JobExpirySweep  = "subscription_expiry_sweep"
	JobSessionPurge = "session_purge"
	JobLimiterPrune = "rate_limiter_prune"
)

// Sweeper persists due subscription transitions across tenants
type Sweeper interface {
	Sweep(ctx context.Context, batchSize int) (subscription.SweepResult, error)
}

// SessionPurger deletes expired sessions
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// Pruner drops idle per-client state
type Pruner interface {
	Prune() int
}

// ExpirySweepJob pages through due subscriptions every interval
func ExpirySweepJob(sweeper Sweeper, interval time.Duration, batchSize int) Job {
	return Job{
		Name:       JobExpirySweep,
		Interval:   interval,
		Timeout:    interval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			res, err := sweeper.Sweep(ctx, batchSize)
			if res.Scanned > 0 || err != nil {
				logger.L(ctx).Info("Expiry sweep finished",
					zap.Int("scanned", res.Scanned),
					zap.Int("activated", res.Activated),
					zap.Int("expired", res.Expired),
					zap.Int("renewed", res.Renewed),
					zap.Int("renewal_failed", res.RenewalFailed),
					zap.Int("errors", res.Errors),
				)
			}
			return err
		},
	}
}

// SessionPurgeJob deletes expired sessions every interval
func SessionPurgeJob(purger SessionPurger, interval time.Duration) Job {
	return Job{
		Name:     JobSessionPurge,
		Interval: interval,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			_, err := purger.PurgeExpiredSessions(ctx)
			return err
		},
	}
}

// LimiterPruneJob evicts idle rate limiter buckets every interval
func LimiterPruneJob(p Pruner, interval time.Duration) Job {
	return Job{
		Name:     JobLimiterPrune,
		Interval: interval,
		Timeout:  interval,
		Run: func(ctx context.Context) error {
			if n := p.Prune(); n > 0 {
				logger.L(ctx).Debug("Rate limiter pruned", zap.Int("clients", n))
			}
			return nil
		},
	}
}
