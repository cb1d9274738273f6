package crawl

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
	"golang.org/x/time/rate"
)

const (
	// defaultBudget is the GraphQL point budget of an authenticated client.
	defaultBudget = 5000

	// defaultPace is the proactive throttle rate in requests per second.
	defaultPace = 1.2

	// defaultReserve is the remaining budget below which the governor sleeps
	// until the reported reset instead of issuing more requests.
	defaultReserve = 50

	// defaultCostWeight is the effective budget cost attributed to one target
	// entity when sizing worker fan-out. It folds the per-page cost, the
	// planner's own metadata calls and retry headroom into a single tunable.
	defaultCostWeight = 21.0

	defaultMaxAttempts    = 8
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 60 * time.Second
	backoffFactor         = 2.0
)

// Governor owns the shared request budget. It is the only component that
// reads or writes the budget; every API call passes through Wait first and
// reports the response quota back through Update. The remote values are
// authoritative, nothing is derived from wall clock.
type Governor struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetAt   time.Time

	pace       *rate.Limiter
	reserve    int
	costWeight float64

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type GovernorOption func(*Governor)

// WithPace overrides the proactive pacing rate (requests per second).
func WithPace(rps float64) GovernorOption {
	return func(g *Governor) {
		g.pace = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithReserve overrides the remaining-budget floor.
func WithReserve(n int) GovernorOption {
	return func(g *Governor) {
		g.reserve = n
	}
}

// WithCostWeight overrides the per-entity cost weight used by FanOut.
func WithCostWeight(w float64) GovernorOption {
	return func(g *Governor) {
		g.costWeight = w
	}
}

// WithBackoff overrides the retry backoff bounds.
func WithBackoff(initial, max time.Duration, attempts int) GovernorOption {
	return func(g *Governor) {
		g.initialBackoff = initial
		g.maxBackoff = max
		g.maxAttempts = attempts
	}
}

func NewGovernor(options ...GovernorOption) *Governor {
	g := &Governor{
		remaining:      defaultBudget,
		limit:          defaultBudget,
		pace:           rate.NewLimiter(rate.Limit(defaultPace), 1),
		reserve:        defaultReserve,
		costWeight:     defaultCostWeight,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}

	for _, opt := range options {
		opt(g)
	}

	return g
}

// Wait blocks until the next request is admissible: the pacing limiter has a
// slot and the remaining budget is above the reserve. When the budget is
// spent it sleeps until the reported reset time; this is not an error.
func (x *Governor) Wait(ctx context.Context) error {
	if err := x.pace.Wait(ctx); err != nil {
		return goerr.Wrap(err, "pacing wait cancelled")
	}

	x.mu.Lock()
	remaining := x.remaining
	resetAt := x.resetAt
	x.mu.Unlock()

	if remaining > x.reserve || !time.Now().Before(resetAt) {
		return nil
	}

	wait := time.Until(resetAt)
	logging.From(ctx).Info("request budget low, sleeping until reset",
		slog.Int("remaining", remaining),
		slog.Time("reset_at", resetAt),
		slog.Duration("wait", wait),
	)

	select {
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "cancelled while waiting for budget reset")
	case <-time.After(wait):
	}

	// The window rolled over; assume a fresh budget until the next response
	// reports the real value.
	x.mu.Lock()
	x.remaining = x.limit
	x.mu.Unlock()

	return nil
}

// Update refreshes the budget from a response's self-reported quota.
func (x *Governor) Update(q *model.RateQuota) {
	if q == nil {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.remaining = q.Remaining
	if q.Limit > 0 {
		x.limit = q.Limit
	}
	if !q.ResetAt.IsZero() {
		x.resetAt = q.ResetAt
	}
}

// Snapshot returns the current budget view.
func (x *Governor) Snapshot() model.RateQuota {
	x.mu.Lock()
	defer x.mu.Unlock()

	return model.RateQuota{
		Remaining: x.remaining,
		Limit:     x.limit,
		ResetAt:   x.resetAt,
	}
}

// FanOut derives the number of parallel fetch workers for a run:
// ceil(target * costWeight / remaining), at least 1. It is computed once at
// planning time and never re-derived mid-run.
func (x *Governor) FanOut(target int) int {
	x.mu.Lock()
	remaining := x.remaining
	x.mu.Unlock()

	if remaining < 1 {
		remaining = 1
	}

	effective := float64(target) * x.costWeight
	n := int(math.Ceil(effective / float64(remaining)))
	if n < 1 {
		n = 1
	}
	return n
}

// Retry runs fn with the governor's recovery policy: quota exhaustion sleeps
// until the reported reset, throttling and transient failures back off
// exponentially with jitter, anything else fails immediately. Attempts are
// bounded.
func (x *Governor) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := x.initialBackoff

	var lastErr error
	for attempt := 1; attempt <= x.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logging.From(ctx).Info("request succeeded after retry",
					slog.Int("attempt", attempt),
				)
			}
			return nil
		}
		lastErr = err

		switch {
		case errors.Is(err, types.ErrQuotaExhausted):
			if err := x.sleepUntilReset(ctx); err != nil {
				return err
			}

		case errors.Is(err, types.ErrThrottled), errors.Is(err, types.ErrTransient):
			if attempt >= x.maxAttempts {
				break
			}

			// Uniform jitter so parallel workers do not retry in lockstep.
			delay := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
			logging.From(ctx).Debug("retrying after backoff",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", delay),
				slog.Any("error", err),
			)

			select {
			case <-ctx.Done():
				return goerr.Wrap(ctx.Err(), "cancelled during retry backoff")
			case <-time.After(delay):
			}

			backoff = time.Duration(float64(backoff) * backoffFactor)
			if backoff > x.maxBackoff {
				backoff = x.maxBackoff
			}

		default:
			return err
		}
	}

	return goerr.Wrap(lastErr, "retry attempts exhausted",
		goerr.V("attempts", x.maxAttempts),
	)
}

func (x *Governor) sleepUntilReset(ctx context.Context) error {
	x.mu.Lock()
	resetAt := x.resetAt
	x.mu.Unlock()

	wait := time.Until(resetAt)
	if wait <= 0 {
		return nil
	}

	logging.From(ctx).Info("quota exhausted, sleeping until reset",
		slog.Time("reset_at", resetAt),
		slog.Duration("wait", wait),
	)

	select {
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "cancelled while waiting for quota reset")
	case <-time.After(wait):
	}

	x.mu.Lock()
	x.remaining = x.limit
	x.mu.Unlock()

	return nil
}
