package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/crawl"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
)

// resultCap is the API's hard pagination ceiling per search query.
const resultCap = 1000

// flushBatchSize bounds one storage round trip.
const flushBatchSize = 500

// CrawlStars discovers repositories by creation date buckets and persists a
// star snapshot plus daily history facts. The returned report describes
// partial coverage when buckets failed or planning stopped early; a shortfall
// is not an error.
func (x *UseCase) CrawlStars(ctx context.Context, input *model.CrawlStarsInput) (*model.CrawlReport, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	crawlID := types.NewCrawlID()
	ctx = logging.With(ctx, logging.From(ctx).With(slog.Any("crawl_id", crawlID)))
	logger := logging.From(ctx)

	gov := crawl.NewGovernor(x.govOpts...)
	client := x.clients.SearchClient()

	if quota, err := client.RateLimit(ctx); err != nil {
		logger.Warn("failed to get initial rate limit, using defaults", slog.Any("error", err))
	} else {
		gov.Update(quota)
	}

	report := &model.CrawlReport{
		CrawlID: crawlID,
		Target:  input.Target,
	}

	simple := input.Simple
	if simple {
		ok, err := x.simpleFeasible(ctx, gov, input)
		if err != nil {
			return nil, err
		}
		simple = ok
	}

	var collected []*model.Repository
	if simple {
		repos, err := x.crawlSimple(ctx, gov, input)
		if err != nil {
			return nil, err
		}
		collected = repos
		report.Workers = 1
	} else {
		repos, err := x.crawlBucketed(ctx, gov, input, report)
		if err != nil {
			return nil, err
		}
		collected = repos
	}

	collected = crawl.Truncate(collected, input.Target)
	report.Collected = len(collected)

	if err := x.flush(ctx, collected, report); err != nil {
		return nil, err
	}

	if x.clients.BigQuery() != nil {
		if err := x.insertObservations(ctx, crawlID, collected); err != nil {
			return nil, err
		}
	}

	logger.Info("crawl finished",
		slog.Int("target", report.Target),
		slog.Int("collected", report.Collected),
		slog.Int("upserted", report.Upserted),
		slog.Int("records_appended", report.RecordsAppended),
		slog.Int("buckets", report.Buckets),
		slog.Int("buckets_failed", report.BucketsFailed),
		slog.Int("workers", report.Workers),
		slog.Int("shortfall", report.Shortfall()),
	)

	return report, nil
}

// simpleFeasible reports whether a single star-sorted query can satisfy the
// run. The API stops paginating at the result cap, so when more repositories
// than the cap match and the target wants them, the crawl switches to the
// bucketed path instead of silently coming up short.
func (x *UseCase) simpleFeasible(ctx context.Context, gov *crawl.Governor, input *model.CrawlStarsInput) (bool, error) {
	query := input.SimpleQuery()

	var count int
	err := gov.Retry(ctx, func(ctx context.Context) error {
		if err := gov.Wait(ctx); err != nil {
			return err
		}

		n, quota, err := x.clients.SearchClient().Count(ctx, query)
		if err != nil {
			return err
		}
		gov.Update(quota)
		count = n
		return nil
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to estimate simple query", goerr.V("query", query))
	}

	effective := input.Target
	if count < effective {
		effective = count
	}
	if effective > resultCap {
		logging.From(ctx).Info("simple search cannot reach the target past the result cap, switching to bucketed crawl",
			slog.Int("approx_count", count),
			slog.Int("target", input.Target),
			slog.Int("cap", resultCap),
		)
		return false, nil
	}

	return true, nil
}

// crawlSimple walks a single star-sorted query without bucketing.
func (x *UseCase) crawlSimple(ctx context.Context, gov *crawl.Governor, input *model.CrawlStarsInput) ([]*model.Repository, error) {
	logger := logging.From(ctx)
	query := input.SimpleQuery()

	logger.Info("running simple crawl", slog.String("query", query))

	var collected []*model.Repository
	walker := crawl.NewWalker(x.clients.SearchClient(), gov, query)
	for !walker.Done() && len(collected) < input.Target {
		repos, err := walker.Next(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "simple crawl failed", goerr.V("query", query))
		}
		collected = append(collected, repos...)
	}

	return collected, nil
}

func (x *UseCase) crawlBucketed(ctx context.Context, gov *crawl.Governor, input *model.CrawlStarsInput, report *model.CrawlReport) ([]*model.Repository, error) {
	client := x.clients.SearchClient()

	planner := crawl.NewPlanner(client, gov, crawl.WithThreshold(input.Threshold))
	buckets, err := planner.Plan(ctx, input.Range, input.Target)
	if err != nil {
		return nil, goerr.Wrap(err, "bucket planning failed")
	}
	report.Buckets = len(buckets)

	parts := crawl.Partition(buckets, gov.FanOut(input.Target))
	report.Workers = len(parts)
	logging.From(ctx).Info("starting fetch workers",
		slog.Int("buckets", len(buckets)),
		slog.Int("workers", len(parts)),
	)

	counter := crawl.NewCounter(input.Target)
	results := make([]*crawl.Result, len(parts))

	var wg sync.WaitGroup
	for i, part := range parts {
		wg.Add(1)
		go func(id int, assigned []*model.Bucket) {
			defer wg.Done()
			results[id] = crawl.NewWorker(id, client, gov, counter, assigned).Run(ctx)
		}(i, part)
	}
	wg.Wait()

	for _, r := range results {
		report.BucketsCompleted += r.Completed
		report.BucketsFailed += len(r.Failed)
	}

	return crawl.Merge(results), nil
}

// flush persists the merged crawl result in bounded batches. Each batch
// upserts snapshots and appends history facts; a batch hitting a storage
// constraint is skipped without aborting the rest of the run.
func (x *UseCase) flush(ctx context.Context, repos []*model.Repository, report *model.CrawlReport) error {
	repo := x.clients.StarRepository()
	logger := logging.From(ctx)
	observedDate := civil.DateOf(logging.CtxTime(ctx).UTC())

	for start := 0; start < len(repos); start += flushBatchSize {
		end := start + flushBatchSize
		if end > len(repos) {
			end = len(repos)
		}
		batch := repos[start:end]

		if err := repo.UpsertRepositories(ctx, batch); err != nil {
			if errors.Is(err, types.ErrStorageConflict) {
				logger.Warn("skipping batch on storage conflict",
					slog.Int("offset", start),
					slog.Int("size", len(batch)),
					slog.Any("error", err),
				)
				continue
			}
			return goerr.Wrap(err, "failed to upsert repositories", goerr.V("offset", start))
		}
		report.Upserted += len(batch)

		records := make([]*model.StarRecord, 0, len(batch))
		for _, r := range batch {
			records = append(records, &model.StarRecord{
				RepoID: r.ID,
				Stars:  r.Stars,
				Date:   observedDate,
			})
		}
		if err := repo.AppendStarRecords(ctx, records); err != nil {
			if errors.Is(err, types.ErrStorageConflict) {
				logger.Warn("skipping history batch on storage conflict",
					slog.Int("offset", start),
					slog.Any("error", err),
				)
				continue
			}
			return goerr.Wrap(err, "failed to append star records", goerr.V("offset", start))
		}
		report.RecordsAppended += len(records)
	}

	return nil
}
