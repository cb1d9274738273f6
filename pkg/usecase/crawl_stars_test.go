package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starwatch/pkg/crawl"
	"github.com/secmon-lab/starwatch/pkg/domain/mock"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/infra"
	"github.com/secmon-lab/starwatch/pkg/repository/memory"
	"github.com/secmon-lab/starwatch/pkg/usecase"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// newUseCase builds a usecase with pacing effectively disabled so tests do
// not sleep between governed requests.
func newUseCase(options ...infra.Option) *usecase.UseCase {
	return usecase.New(infra.New(options...),
		usecase.WithGovernorOptions(crawl.WithPace(1e6)),
	)
}

// fakeSearch serves a fixed population of repositories spread evenly over the
// creation date range, honoring bucket queries and cursor pagination.
type fakeSearch struct {
	perDay   int
	stars    func(day civil.Date, i int) int
	pageSize int
}

func (x *fakeSearch) client() *mock.SearchClientMock {
	if x.pageSize == 0 {
		x.pageSize = 100
	}
	if x.stars == nil {
		x.stars = func(day civil.Date, i int) int { return 100 - i }
	}

	return &mock.SearchClientMock{
		RateLimitFunc: func(ctx context.Context) (*model.RateQuota, error) {
			return &model.RateQuota{Remaining: 5000, Limit: 5000, ResetAt: time.Now().Add(time.Hour)}, nil
		},
		CountFunc: func(ctx context.Context, query string) (int, *model.RateQuota, error) {
			rng, err := parseQueryRange(query)
			if err != nil {
				return 0, nil, err
			}
			return rng.Days() * x.perDay, nil, nil
		},
		SearchFunc: func(ctx context.Context, query, cursor string) (*model.SearchPage, error) {
			rng, err := parseQueryRange(query)
			if err != nil {
				return nil, err
			}

			var all []*model.Repository
			for d := rng.Start; !d.After(rng.End); d = d.AddDays(1) {
				for i := 0; i < x.perDay; i++ {
					all = append(all, &model.Repository{
						ID:    types.RepoID(fmt.Sprintf("%s/%d", d, i)),
						Owner: "owner",
						Name:  fmt.Sprintf("repo-%s-%d", d, i),
						Stars: x.stars(d, i),
						URL:   "https://github.com/owner/repo",
					})
				}
			}

			offset := 0
			if cursor != "" {
				if _, err := fmt.Sscanf(cursor, "offset:%d", &offset); err != nil {
					return nil, fmt.Errorf("bad cursor: %s", cursor)
				}
			}

			end := offset + x.pageSize
			if end > len(all) {
				end = len(all)
			}

			return &model.SearchPage{
				Repositories: all[offset:end],
				TotalCount:   len(all),
				EndCursor:    fmt.Sprintf("offset:%d", end),
				HasNextPage:  end < len(all),
			}, nil
		},
	}
}

func parseQueryRange(query string) (model.DateRange, error) {
	trimmed := strings.TrimPrefix(query, "created:")
	if simple, ok := strings.CutPrefix(trimmed, ">="); ok {
		start, err := civil.ParseDate(strings.Fields(simple)[0])
		if err != nil {
			return model.DateRange{}, err
		}
		return model.DateRange{Start: start, End: start.AddDays(2)}, nil
	}

	parts := strings.SplitN(trimmed, "..", 2)
	if len(parts) != 2 {
		return model.DateRange{}, fmt.Errorf("bad query: %s", query)
	}
	start, err := civil.ParseDate(parts[0])
	if err != nil {
		return model.DateRange{}, err
	}
	end, err := civil.ParseDate(parts[1])
	if err != nil {
		return model.DateRange{}, err
	}
	return model.DateRange{Start: start, End: end}, nil
}

func TestCrawlStars(t *testing.T) {
	memRepo := memory.New()
	search := (&fakeSearch{perDay: 4}).client()
	uc := newUseCase(
		infra.WithSearchClient(search),
		infra.WithStarRepository(memRepo),
	)

	ctx := context.Background()
	report, err := uc.CrawlStars(ctx, &model.CrawlStarsInput{
		Target: 10,
		Range: model.DateRange{
			Start: date("2024-01-01"),
			End:   date("2024-01-10"),
		},
		Threshold: 900,
	})
	gt.NoError(t, err)

	gt.V(t, report.Collected).Equal(10)
	gt.V(t, report.Upserted).Equal(10)
	gt.V(t, report.Shortfall()).Equal(0)
	gt.True(t, report.Buckets >= 1)
	gt.True(t, report.Workers >= 1)

	repos, err := memRepo.ListRepositories(ctx)
	gt.NoError(t, err)
	gt.A(t, repos).Length(10)

	// Every snapshot got its daily history fact.
	records, err := memRepo.ListStarRecords(ctx, repos[0].ID)
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.V(t, records[0].Stars).Equal(repos[0].Stars)
}

func TestCrawlStarsHistoryAcrossDays(t *testing.T) {
	memRepo := memory.New()
	uc := newUseCase(
		infra.WithSearchClient((&fakeSearch{
			perDay: 2,
			stars:  func(day civil.Date, i int) int { return 5 },
		}).client()),
		infra.WithStarRepository(memRepo),
	)

	rng := model.DateRange{Start: date("2024-01-01"), End: date("2024-01-01")}
	input := &model.CrawlStarsInput{Target: 2, Range: rng, Threshold: 900}

	day1 := logging.CtxWithTime(context.Background(), func() time.Time {
		return time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	})
	_, err := uc.CrawlStars(day1, input)
	gt.NoError(t, err)

	// Same counts on the next day: history stays at one row per repo.
	day2 := logging.CtxWithTime(context.Background(), func() time.Time {
		return time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)
	})
	_, err = uc.CrawlStars(day2, input)
	gt.NoError(t, err)

	repos, err := memRepo.ListRepositories(context.Background())
	gt.NoError(t, err)
	gt.A(t, repos).Length(2)

	records, err := memRepo.ListStarRecords(context.Background(), repos[0].ID)
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.V(t, records[0].Date).Equal(date("2024-04-01"))

	// Changed counts on day three append a second fact.
	uc2 := newUseCase(
		infra.WithSearchClient((&fakeSearch{
			perDay: 2,
			stars:  func(day civil.Date, i int) int { return 7 },
		}).client()),
		infra.WithStarRepository(memRepo),
	)
	day3 := logging.CtxWithTime(context.Background(), func() time.Time {
		return time.Date(2024, 4, 3, 12, 0, 0, 0, time.UTC)
	})
	_, err = uc2.CrawlStars(day3, input)
	gt.NoError(t, err)

	records, err = memRepo.ListStarRecords(context.Background(), repos[0].ID)
	gt.NoError(t, err)
	gt.A(t, records).Length(2)
	gt.V(t, records[1].Stars).Equal(7)
	gt.V(t, records[1].Date).Equal(date("2024-04-03"))
}

func TestCrawlStarsSimpleMode(t *testing.T) {
	memRepo := memory.New()
	search := (&fakeSearch{perDay: 3}).client()
	uc := newUseCase(
		infra.WithSearchClient(search),
		infra.WithStarRepository(memRepo),
	)

	report, err := uc.CrawlStars(context.Background(), &model.CrawlStarsInput{
		Target:    5,
		Range:     model.DateRange{Start: date("2024-01-01"), End: date("2024-01-10")},
		Threshold: 900,
		Simple:    true,
	})
	gt.NoError(t, err)

	gt.V(t, report.Collected).Equal(5)
	gt.V(t, report.Workers).Equal(1)
	gt.V(t, report.Buckets).Equal(0)

	// Simple mode issues a single count for the feasibility estimate, never
	// per-bucket counts.
	gt.A(t, search.CountCalls()).Length(1)

	repos, err := memRepo.ListRepositories(context.Background())
	gt.NoError(t, err)
	gt.A(t, repos).Length(5)
}

func TestCrawlStarsSimpleModeFallsBackToBuckets(t *testing.T) {
	memRepo := memory.New()
	search := (&fakeSearch{perDay: 400}).client()
	uc := newUseCase(
		infra.WithSearchClient(search),
		infra.WithStarRepository(memRepo),
	)

	// The simple query matches 1200 repositories but pagination stops at
	// 1000, so a target past the cap forces the bucketed path.
	report, err := uc.CrawlStars(context.Background(), &model.CrawlStarsInput{
		Target:    1001,
		Range:     model.DateRange{Start: date("2024-01-01"), End: date("2024-01-10")},
		Threshold: 900,
		Simple:    true,
	})
	gt.NoError(t, err)

	gt.V(t, report.Collected).Equal(1001)
	gt.True(t, report.Buckets > 0)
	gt.True(t, len(search.CountCalls()) > 1)
}

func TestCrawlStarsValidation(t *testing.T) {
	uc := newUseCase()

	_, err := uc.CrawlStars(context.Background(), &model.CrawlStarsInput{
		Target:    0,
		Range:     model.DateRange{Start: date("2024-01-01"), End: date("2024-01-02")},
		Threshold: 900,
	})
	gt.Error(t, err)
}

func TestCrawlStarsInsertsObservations(t *testing.T) {
	mockBQ := &mock.BigQueryMock{}
	mockBQ.GetMetadataFunc = func(ctx context.Context) (*bigquery.TableMetadata, error) {
		return nil, nil
	}
	mockBQ.CreateTableFunc = func(ctx context.Context, md *bigquery.TableMetadata) error {
		return nil
	}

	var inserted []any
	mockBQ.InsertFunc = func(ctx context.Context, schema bigquery.Schema, rows []any) error {
		inserted = rows
		return nil
	}

	uc := newUseCase(
		infra.WithSearchClient((&fakeSearch{perDay: 2}).client()),
		infra.WithStarRepository(memory.New()),
		infra.WithBigQuery(mockBQ),
	)

	_, err := uc.CrawlStars(context.Background(), &model.CrawlStarsInput{
		Target:    4,
		Range:     model.DateRange{Start: date("2024-01-01"), End: date("2024-01-02")},
		Threshold: 900,
	})
	gt.NoError(t, err)

	gt.A(t, inserted).Length(4)
	obs, ok := inserted[0].(*model.StarObservation)
	gt.True(t, ok)
	gt.True(t, obs.CrawlID != "")
	gt.V(t, obs.Owner).Equal("owner")
}
