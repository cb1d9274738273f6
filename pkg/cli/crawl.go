package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/gots/slice"
	"github.com/secmon-lab/starwatch/pkg/cli/config"
	"github.com/secmon-lab/starwatch/pkg/crawl"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/usecase"
	"github.com/secmon-lab/starwatch/pkg/utils/errutil"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func crawlCommand() *cli.Command {
	var (
		github     config.GitHub
		postgres   config.Postgres
		bigQuery   config.BigQuery
		sentryCfg  config.Sentry
		target     int64
		since      string
		recentDays int64
		threshold  int64
		simple     bool
	)

	return &cli.Command{
		Name:    "crawl",
		Aliases: []string{"c"},
		Usage:   "Crawl repositories by creation date and record star counts",
		Flags: slice.Flatten([]cli.Flag{
			&cli.Int64Flag{
				Name:        "target",
				Aliases:     []string{"t"},
				Usage:       "Number of repositories to collect",
				Sources:     cli.EnvVars("STARWATCH_TARGET"),
				Destination: &target,
				Value:       100000,
			},
			&cli.StringFlag{
				Name:        "since",
				Usage:       "Start of the creation date range (YYYY-MM-DD)",
				Sources:     cli.EnvVars("STARWATCH_SINCE"),
				Destination: &since,
			},
			&cli.Int64Flag{
				Name:        "recent-days",
				Usage:       "Crawl repositories created in the last N days",
				Sources:     cli.EnvVars("STARWATCH_RECENT_DAYS"),
				Destination: &recentDays,
			},
			&cli.Int64Flag{
				Name:        "bucket-threshold",
				Usage:       "Estimated count above which a date bucket is split",
				Sources:     cli.EnvVars("STARWATCH_BUCKET_THRESHOLD"),
				Destination: &threshold,
				Value:       crawl.DefaultThreshold,
			},
			&cli.BoolFlag{
				Name:        "simple",
				Usage:       "Single star-sorted query without date bucketing",
				Destination: &simple,
			},
		}, github.Flags(), postgres.Flags(), bigQuery.Flags(), sentryCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := sentryCfg.Configure(ctx); err != nil {
				return err
			}

			rng, err := ResolveRange(since, int(recentDays), time.Now())
			if err != nil {
				return err
			}

			input := &model.CrawlStarsInput{
				Target:    int(target),
				Range:     rng,
				Threshold: int(threshold),
				Simple:    simple,
			}

			logging.From(ctx).Info("starting crawl",
				slog.Int("target", input.Target),
				slog.String("range", input.Range.Query()),
				slog.Int("threshold", input.Threshold),
				slog.Bool("simple", input.Simple),
				slog.Any("github", github),
				slog.Any("database", postgres),
				slog.Any("bigquery", bigQuery),
				slog.Any("sentry", &sentryCfg),
			)

			clients, closer, err := buildClients(ctx, &github, &postgres, &bigQuery)
			if err != nil {
				return err
			}
			defer closer()

			report, err := usecase.New(clients).CrawlStars(ctx, input)
			if err != nil {
				errutil.HandleError(ctx, "crawl failed", err)
				return err
			}

			if report.Shortfall() > 0 {
				logging.From(ctx).Warn("crawl ended with shortfall",
					slog.Int("collected", report.Collected),
					slog.Int("shortfall", report.Shortfall()),
				)
			}
			return nil
		},
	}
}
