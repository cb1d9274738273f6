package crawl

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
)

const (
	// DefaultThreshold is the bucket estimate above which the planner splits.
	// It sits under the API's hard 1000 result pagination cap so an accepted
	// bucket is always fully paginatable.
	DefaultThreshold = 900

	// DefaultOvershoot stops planning once accepted estimates reach this
	// multiple of the run target. Heuristic, tunable.
	DefaultOvershoot = 1.4
)

// Planner partitions a creation-date range into buckets whose estimated
// result counts stay under the pagination cap. Splitting is driven by cheap
// count queries, never page fetches. The worklist is explicit so depth is
// bounded and traversal order is deterministic: most recent sub-range first.
type Planner struct {
	client    interfaces.SearchClient
	gov       *Governor
	threshold int
	overshoot float64
}

type PlannerOption func(*Planner)

// WithThreshold overrides the split threshold.
func WithThreshold(n int) PlannerOption {
	return func(p *Planner) {
		p.threshold = n
	}
}

// WithOvershoot overrides the planning stop factor.
func WithOvershoot(f float64) PlannerOption {
	return func(p *Planner) {
		p.overshoot = f
	}
}

func NewPlanner(client interfaces.SearchClient, gov *Governor, options ...PlannerOption) *Planner {
	p := &Planner{
		client:    client,
		gov:       gov,
		threshold: DefaultThreshold,
		overshoot: DefaultOvershoot,
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Plan returns accepted buckets covering a prefix of rng in most-recent-first
// order. Planning stops early once the accumulated estimates reach
// overshoot * target; the remaining older range is left for a future run.
// Single-day buckets are always accepted, even above the threshold: the
// walker then samples at most the cap from that window.
func (x *Planner) Plan(ctx context.Context, rng model.DateRange, target int) ([]*model.Bucket, error) {
	if rng.End.Before(rng.Start) {
		return nil, goerr.Wrap(types.ErrValidationFailed, "planner range start is after end",
			goerr.V("start", rng.Start), goerr.V("end", rng.End))
	}

	logger := logging.From(ctx)
	stop := int(x.overshoot * float64(target))

	var accepted []*model.Bucket
	accum := 0

	// LIFO worklist; the most recent child is pushed last so it pops first.
	stack := []*model.Bucket{model.NewBucket(rng)}

	for len(stack) > 0 {
		bucket := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		count, err := x.count(ctx, bucket.Query())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to estimate bucket",
				goerr.V("range", bucket.Query()))
		}
		bucket.ApproxCount = count

		if count <= x.threshold || bucket.Range.SingleDay() {
			bucket.Status = model.BucketAccepted
			accepted = append(accepted, bucket)
			accum += count

			if count > x.threshold {
				logger.Warn("accepting irreducible single-day bucket over threshold",
					slog.String("range", bucket.Query()),
					slog.Int("approx_count", count),
				)
			} else {
				logger.Debug("accepted bucket",
					slog.String("range", bucket.Query()),
					slog.Int("approx_count", count),
				)
			}

			if accum >= stop {
				logger.Info("planning stopped at overshoot threshold",
					slog.Int("accumulated", accum),
					slog.Int("target", target),
					slog.Int("unplanned", len(stack)),
				)
				break
			}
			continue
		}

		logger.Debug("splitting bucket",
			slog.String("range", bucket.Query()),
			slog.Int("approx_count", count),
		)
		bucket.Status = model.BucketSplit
		older, newer := bucket.Range.Split()
		stack = append(stack, model.NewBucket(older), model.NewBucket(newer))
	}

	logger.Info("bucket plan ready",
		slog.Int("buckets", len(accepted)),
		slog.Int("estimated_total", accum),
	)

	return accepted, nil
}

func (x *Planner) count(ctx context.Context, query string) (int, error) {
	var count int
	err := x.gov.Retry(ctx, func(ctx context.Context) error {
		if err := x.gov.Wait(ctx); err != nil {
			return err
		}

		n, quota, err := x.client.Count(ctx, query)
		if err != nil {
			return err
		}
		x.gov.Update(quota)
		count = n
		return nil
	})
	return count, err
}
