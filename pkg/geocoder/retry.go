package geocoder

import (
	"context"
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/geo"
	"github.com/lintang-b-s/Segmentx/pkg/util"
	"go.uber.org/zap"
)

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 32 * time.Second}
}

// Backoff. wait after the k-th failed attempt: BaseDelay * 2^k, capped at MaxDelay.
func (p RetryPolicy) Backoff(k int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < k; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Retrying. retries transient failures of next with exponential backoff. Invalid coordinates and
// unresolvable answers are returned on the first attempt.
type Retrying struct {
	next   Resolver
	policy RetryPolicy
	log    *zap.Logger
	obs    Observer
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next Resolver, policy RetryPolicy, log *zap.Logger, obs Observer) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if obs == nil {
		obs = NopObserver()
	}
	return &Retrying{next: next, policy: policy, log: log, obs: obs, sleep: sleepCtx}
}

func (r *Retrying) ResolveRoad(ctx context.Context, c geo.Coordinate) (RoadLabel, error) {
	if err := checkCoordinate(c); err != nil {
		return RoadLabel{}, err
	}

	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		label, err := r.next.ResolveRoad(ctx, c)
		if err == nil {
			return label, nil
		}
		if !IsTransient(err) {
			return RoadLabel{}, err
		}
		lastErr = err
		if attempt == r.policy.MaxAttempts {
			break
		}

		wait := r.policy.Backoff(attempt)
		r.log.Debug("transient geocoding failure, retrying",
			zap.Stringer("coord", c), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		r.obs.ObserveRetry()
		if err := r.sleep(ctx, wait); err != nil {
			return RoadLabel{}, util.WrapErrorf(err, util.ErrGeocodeTransient, "geocoding %v cancelled after %d attempts", c, attempt)
		}
	}
	return RoadLabel{}, util.WrapErrorf(lastErr, util.ErrGeocodeTransient, "geocoding %v failed after %d attempts", c, r.policy.MaxAttempts)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
