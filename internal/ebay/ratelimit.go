package ebay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyLimitReached is returned when the daily API call limit has been exhausted.
var ErrDailyLimitReached = errors.New("daily API limit reached")

const quotaWindow = 24 * time.Hour

// Quota is a point-in-time view of the daily call budget.
type Quota struct {
	Used      int64
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RateLimiter paces Browse API calls with a token bucket and tracks a
// rolling 24-hour call budget. A maxDaily of zero disables the budget.
type RateLimiter struct {
	limiter  *rate.Limiter
	maxDaily int64
	nowFunc  func() time.Time

	mu      sync.Mutex
	used    int64
	resetAt time.Time
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowFunc overrides the time function for testing.
func WithRateLimiterNowFunc(f func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.nowFunc = f
	}
}

// NewRateLimiter creates a rate limiter with the given per-second rate,
// burst size and daily limit.
func NewRateLimiter(
	perSecond float64,
	burst int,
	maxDaily int64,
	opts ...RateLimiterOption,
) *RateLimiter {
	r := &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetAt = r.nowFunc().Add(quotaWindow)
	return r
}

// Wait blocks until the token bucket allows a call or ctx is done. The call
// is charged against the daily budget before waiting, so concurrent callers
// cannot overshoot it.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.reserveDaily(); err != nil {
		return err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		r.refundDaily()
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// Quota returns the current usage of the daily budget.
func (r *RateLimiter) Quota() Quota {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollLocked()

	q := Quota{Used: r.used, Limit: r.maxDaily, ResetAt: r.resetAt}
	if r.maxDaily > 0 {
		q.Remaining = max(r.maxDaily-r.used, 0)
	}
	return q
}

// DailyCount returns the current daily call count.
func (r *RateLimiter) DailyCount() int64 {
	return r.Quota().Used
}

// Sync raises the daily count to used when an external source has seen
// more calls, and adopts resetAt when it lies in the future. The local count
// never moves backwards.
func (r *RateLimiter) Sync(used int64, resetAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollLocked()

	if used > r.used {
		r.used = used
	}
	if resetAt.After(r.nowFunc()) {
		r.resetAt = resetAt
	}
}

func (r *RateLimiter) reserveDaily() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollLocked()

	if r.maxDaily > 0 && r.used >= r.maxDaily {
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, r.used, r.maxDaily)
	}
	r.used++
	return nil
}

func (r *RateLimiter) refundDaily() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used > 0 {
		r.used--
	}
}

func (r *RateLimiter) rollLocked() {
	now := r.nowFunc()
	if now.After(r.resetAt) {
		r.used = 0
		r.resetAt = now.Add(quotaWindow)
	}
}
