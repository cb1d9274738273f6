package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starwatch/pkg/crawl"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
)

func TestGovernorFanOut(t *testing.T) {
	gov := crawl.NewGovernor()
	gov.Update(&model.RateQuota{Remaining: 5000, Limit: 5000})

	// ceil(100000 * 21 / 5000) = 420
	gt.V(t, gov.FanOut(100000)).Equal(420)
	gt.V(t, gov.FanOut(1)).Equal(1)
	gt.V(t, gov.FanOut(0)).Equal(1)

	gov.Update(&model.RateQuota{Remaining: 0, Limit: 5000})
	gt.True(t, gov.FanOut(100) >= 1)

	gov = crawl.NewGovernor(crawl.WithCostWeight(10))
	gov.Update(&model.RateQuota{Remaining: 100, Limit: 5000})
	gt.V(t, gov.FanOut(95)).Equal(10)  // ceil(950/100)
	gt.V(t, gov.FanOut(101)).Equal(11) // ceil(1010/100)
}

func TestGovernorUpdateIsAuthoritative(t *testing.T) {
	gov := crawl.NewGovernor()

	reset := time.Now().Add(time.Hour)
	gov.Update(&model.RateQuota{Remaining: 123, Limit: 5000, ResetAt: reset})

	snap := gov.Snapshot()
	gt.V(t, snap.Remaining).Equal(123)
	gt.V(t, snap.Limit).Equal(5000)
	gt.V(t, snap.ResetAt).Equal(reset)

	// A nil quota leaves the budget untouched.
	gov.Update(nil)
	gt.V(t, gov.Snapshot().Remaining).Equal(123)
}

func TestGovernorWaitSleepsUntilReset(t *testing.T) {
	gov := crawl.NewGovernor(crawl.WithPace(1e6))
	gov.Update(&model.RateQuota{
		Remaining: 0,
		Limit:     5000,
		ResetAt:   time.Now().Add(120 * time.Millisecond),
	})

	start := time.Now()
	gt.NoError(t, gov.Wait(context.Background()))
	gt.True(t, time.Since(start) >= 100*time.Millisecond)

	// After the window rolls over the budget is assumed fresh.
	gt.V(t, gov.Snapshot().Remaining).Equal(5000)
}

func TestGovernorWaitPassesWhenResetElapsed(t *testing.T) {
	gov := crawl.NewGovernor(crawl.WithPace(1e6))
	gov.Update(&model.RateQuota{
		Remaining: 0,
		Limit:     5000,
		ResetAt:   time.Now().Add(-time.Second),
	})

	start := time.Now()
	gt.NoError(t, gov.Wait(context.Background()))
	gt.True(t, time.Since(start) < 50*time.Millisecond)
}

func TestGovernorRetryRecoversTransient(t *testing.T) {
	gov := crawl.NewGovernor(crawl.WithBackoff(time.Millisecond, 4*time.Millisecond, 5))

	calls := 0
	err := gov.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return types.ErrTransient
		}
		return nil
	})
	gt.NoError(t, err)
	gt.V(t, calls).Equal(3)
}

func TestGovernorRetryBoundsAttempts(t *testing.T) {
	gov := crawl.NewGovernor(crawl.WithBackoff(time.Millisecond, 2*time.Millisecond, 3))

	calls := 0
	err := gov.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return types.ErrThrottled
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrThrottled))
	gt.V(t, calls).Equal(3)
}

func TestGovernorRetryFailsFastOnUnknownError(t *testing.T) {
	gov := crawl.NewGovernor(crawl.WithBackoff(time.Millisecond, 2*time.Millisecond, 5))

	calls := 0
	err := gov.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("schema drift")
	})
	gt.Error(t, err)
	gt.V(t, calls).Equal(1)
}

func TestGovernorRetryWaitsOutQuotaExhaustion(t *testing.T) {
	gov := crawl.NewGovernor(crawl.WithBackoff(time.Millisecond, 2*time.Millisecond, 5))
	gov.Update(&model.RateQuota{
		Remaining: 0,
		Limit:     5000,
		ResetAt:   time.Now().Add(60 * time.Millisecond),
	})

	calls := 0
	start := time.Now()
	err := gov.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return types.ErrQuotaExhausted
		}
		return nil
	})
	gt.NoError(t, err)
	gt.V(t, calls).Equal(2)
	gt.True(t, time.Since(start) >= 50*time.Millisecond)
}
