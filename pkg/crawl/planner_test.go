package crawl_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starwatch/pkg/crawl"
	"github.com/secmon-lab/starwatch/pkg/domain/mock"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func parseRange(t *testing.T, query string) model.DateRange {
	t.Helper()
	trimmed := strings.TrimPrefix(query, "created:")
	parts := strings.SplitN(trimmed, "..", 2)
	gt.A(t, parts).Length(2)
	return model.DateRange{Start: date(parts[0]), End: date(parts[1])}
}

func testGovernor() *crawl.Governor {
	return crawl.NewGovernor(
		crawl.WithPace(1e6),
		crawl.WithBackoff(time.Millisecond, 4*time.Millisecond, 3),
	)
}

// countClient estimates perDay matches for every day in the queried range.
func countClient(t *testing.T, perDay int) *mock.SearchClientMock {
	return &mock.SearchClientMock{
		CountFunc: func(ctx context.Context, query string) (int, *model.RateQuota, error) {
			rng := parseRange(t, query)
			return rng.Days() * perDay, nil, nil
		},
	}
}

func TestPlannerCoverage(t *testing.T) {
	client := countClient(t, 100)
	planner := crawl.NewPlanner(client, testGovernor())

	rng := model.DateRange{Start: date("2024-01-01"), End: date("2024-01-31")}
	buckets, err := planner.Plan(context.Background(), rng, 100000)
	gt.NoError(t, err)
	gt.True(t, len(buckets) > 1)

	// Accepted buckets must tile the full range: no gaps, no overlaps.
	covered := make(map[civil.Date]int)
	for _, b := range buckets {
		gt.V(t, b.Status).Equal(model.BucketAccepted)
		gt.True(t, b.ApproxCount <= crawl.DefaultThreshold)
		for d := b.Range.Start; !d.After(b.Range.End); d = d.AddDays(1) {
			covered[d]++
		}
	}
	for d := rng.Start; !d.After(rng.End); d = d.AddDays(1) {
		gt.V(t, covered[d]).Equal(1)
	}
	gt.V(t, len(covered)).Equal(rng.Days())

	// Most-recent-first traversal: the first accepted bucket holds the range
	// end, and ends only descend from there.
	gt.V(t, buckets[0].Range.End).Equal(rng.End)
	for i := 1; i < len(buckets); i++ {
		gt.True(t, buckets[i].Range.End.Before(buckets[i-1].Range.Start))
	}
}

func TestPlannerSplitsAboveThreshold(t *testing.T) {
	// Every day estimates 1000 matches, so any multi-day bucket is over the
	// threshold and must be split before acceptance.
	client := countClient(t, 1000)
	planner := crawl.NewPlanner(client, testGovernor())

	rng := model.DateRange{Start: date("2024-03-01"), End: date("2024-03-04")}
	buckets, err := planner.Plan(context.Background(), rng, 100000)
	gt.NoError(t, err)

	gt.A(t, buckets).Length(4)
	for _, b := range buckets {
		// Irreducible single-day buckets are accepted even over the cap.
		gt.True(t, b.Range.SingleDay())
		gt.V(t, b.ApproxCount).Equal(1000)
	}
}

func TestPlannerThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	rng := model.DateRange{Start: date("2024-05-01"), End: date("2024-05-02")}

	counts := map[int]int{} // days -> estimate
	client := &mock.SearchClientMock{
		CountFunc: func(ctx context.Context, query string) (int, *model.RateQuota, error) {
			return counts[parseRange(t, query).Days()], nil, nil
		},
	}

	// Exactly at the threshold: accepted without splitting.
	counts = map[int]int{2: crawl.DefaultThreshold}
	buckets, err := crawl.NewPlanner(client, testGovernor()).Plan(ctx, rng, 100000)
	gt.NoError(t, err)
	gt.A(t, buckets).Length(1)
	gt.V(t, buckets[0].Range).Equal(rng)

	// One above: must split before any acceptance.
	counts = map[int]int{2: crawl.DefaultThreshold + 1, 1: 500}
	buckets, err = crawl.NewPlanner(client, testGovernor()).Plan(ctx, rng, 100000)
	gt.NoError(t, err)
	gt.A(t, buckets).Length(2)
	for _, b := range buckets {
		gt.True(t, b.Range.SingleDay())
	}
}

func TestPlannerOvershootStop(t *testing.T) {
	// 10 matches per day with threshold 50 yields 5-day buckets of estimate
	// 50 each. Target 100 at overshoot 1.4 stops planning at 150.
	client := countClient(t, 10)
	planner := crawl.NewPlanner(client, testGovernor(),
		crawl.WithThreshold(50),
		crawl.WithOvershoot(1.4),
	)

	rng := model.DateRange{Start: date("2024-01-01"), End: date("2024-02-09")} // 40 days
	buckets, err := planner.Plan(context.Background(), rng, 100)
	gt.NoError(t, err)

	gt.A(t, buckets).Length(3)
	total := 0
	for _, b := range buckets {
		total += b.ApproxCount
	}
	gt.V(t, total).Equal(150)

	// The planned prefix is the most recent part of the range.
	gt.V(t, buckets[0].Range.End).Equal(rng.End)
}

func TestPlannerZeroWidthRange(t *testing.T) {
	client := countClient(t, 0)
	planner := crawl.NewPlanner(client, testGovernor())

	day := date("2024-06-15")
	buckets, err := planner.Plan(context.Background(), model.DateRange{Start: day, End: day}, 10)
	gt.NoError(t, err)

	gt.A(t, buckets).Length(1)
	gt.V(t, buckets[0].ApproxCount).Equal(0)
	gt.V(t, buckets[0].Status).Equal(model.BucketAccepted)
}

func TestPlannerInvalidRange(t *testing.T) {
	client := countClient(t, 1)
	planner := crawl.NewPlanner(client, testGovernor())

	_, err := planner.Plan(context.Background(), model.DateRange{
		Start: date("2024-06-15"),
		End:   date("2024-06-01"),
	}, 10)
	gt.Error(t, err)
}

func TestPlannerPropagatesEstimateFailure(t *testing.T) {
	client := &mock.SearchClientMock{
		CountFunc: func(ctx context.Context, query string) (int, *model.RateQuota, error) {
			return 0, nil, fmt.Errorf("boom")
		},
	}
	planner := crawl.NewPlanner(client, testGovernor())

	_, err := planner.Plan(context.Background(), model.DateRange{
		Start: date("2024-06-01"),
		End:   date("2024-06-15"),
	}, 10)
	gt.Error(t, err)
}
