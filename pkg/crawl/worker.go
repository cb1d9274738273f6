package crawl

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
)

// Counter is the only state shared between workers besides the governor: a
// running total used to stop issuing page requests once the global target is
// met. Workers check it at page boundaries only.
type Counter struct {
	target int64
	n      atomic.Int64
}

func NewCounter(target int) *Counter {
	return &Counter{target: int64(target)}
}

func (x *Counter) Add(delta int) {
	x.n.Add(int64(delta))
}

func (x *Counter) Reached() bool {
	return x.n.Load() >= x.target
}

func (x *Counter) Total() int {
	return int(x.n.Load())
}

// Partition splits buckets into at most n contiguous, disjoint slices of
// near-equal length. Workers own their slice statically; there is no shared
// bucket queue.
func Partition(buckets []*model.Bucket, n int) [][]*model.Bucket {
	if n < 1 {
		n = 1
	}
	if n > len(buckets) {
		n = len(buckets)
	}
	if n == 0 {
		return nil
	}

	base := len(buckets) / n
	remainder := len(buckets) % n

	parts := make([][]*model.Bucket, 0, n)
	idx := 0
	for i := 0; i < n; i++ {
		take := base
		if i < remainder {
			take++
		}
		if take == 0 {
			continue
		}
		parts = append(parts, buckets[idx:idx+take])
		idx += take
	}

	return parts
}

// Result is one worker's completion report. Workers never touch storage;
// buffered entities are merged and flushed after the barrier.
type Result struct {
	Repositories []*model.Repository
	Completed    int
	Failed       []*model.Bucket
}

// Worker drives the page walker sequentially over its pre-assigned buckets,
// buffering entities locally. A bucket that exhausts its retry budget fails
// in isolation; siblings and other workers continue.
type Worker struct {
	id      int
	client  interfaces.SearchClient
	gov     *Governor
	counter *Counter
	buckets []*model.Bucket
}

func NewWorker(id int, client interfaces.SearchClient, gov *Governor, counter *Counter, buckets []*model.Bucket) *Worker {
	return &Worker{
		id:      id,
		client:  client,
		gov:     gov,
		counter: counter,
		buckets: buckets,
	}
}

func (x *Worker) Run(ctx context.Context) *Result {
	logger := logging.From(ctx).With(slog.Int("worker", x.id))
	result := &Result{}

	for _, bucket := range x.buckets {
		if x.counter.Reached() {
			logger.Debug("global target reached, stopping worker")
			break
		}
		if ctx.Err() != nil {
			break
		}

		if bucket.ApproxCount == 0 {
			result.Completed++
			continue
		}

		walker := NewWalker(x.client, x.gov, bucket.Query())
		failed := false

		for !walker.Done() {
			if x.counter.Reached() {
				break
			}

			repos, err := walker.Next(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					result.Failed = append(result.Failed, bucket)
					return result
				}

				logger.Warn("bucket failed, continuing with remaining buckets",
					slog.String("range", bucket.Query()),
					slog.Any("error", err),
				)
				failed = true
				break
			}

			result.Repositories = append(result.Repositories, repos...)
			x.counter.Add(len(repos))
		}

		if failed {
			result.Failed = append(result.Failed, bucket)
			continue
		}
		result.Completed++
	}

	logger.Debug("worker finished",
		slog.Int("collected", len(result.Repositories)),
		slog.Int("buckets_completed", result.Completed),
		slog.Int("buckets_failed", len(result.Failed)),
	)

	return result
}
