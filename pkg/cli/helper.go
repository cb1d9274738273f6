package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/cli/config"
	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/infra"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
	"github.com/secmon-lab/starwatch/pkg/utils/safe"
)

// newStarRepository returns the configured store and its closer. Without a
// DSN the snapshots stay in process memory, which is only useful for dry
// runs.
func newStarRepository(ctx context.Context, pg *config.Postgres) (interfaces.StarRepository, func(), error) {
	if !pg.Enabled() {
		logging.From(ctx).Warn("database is not configured, results will not be persisted")
		return nil, func() {}, nil
	}

	repo, err := pg.NewRepository()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to connect to database")
	}
	return repo, func() { safe.Close(repo) }, nil
}

func buildClients(ctx context.Context, github *config.GitHub, pg *config.Postgres, bigQuery *config.BigQuery) (*infra.Clients, func(), error) {
	repo, closer, err := newStarRepository(ctx, pg)
	if err != nil {
		return nil, nil, err
	}

	options := []infra.Option{
		infra.WithSearchClient(github.New(ctx)),
	}
	if repo != nil {
		options = append(options, infra.WithStarRepository(repo))
	}

	if bigQuery != nil {
		bqClient, err := bigQuery.NewClient(ctx)
		if err != nil {
			closer()
			return nil, nil, goerr.Wrap(err, "failed to create BigQuery client")
		}
		if bqClient != nil {
			options = append(options, infra.WithBigQuery(bqClient))
		}
	}

	return infra.New(options...), closer, nil
}
