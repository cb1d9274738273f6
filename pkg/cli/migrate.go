package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/cli/config"
	"github.com/secmon-lab/starwatch/pkg/infra"
	"github.com/secmon-lab/starwatch/pkg/usecase"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
	"github.com/secmon-lab/starwatch/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	var postgres config.Postgres

	return &cli.Command{
		Name:  "migrate",
		Usage: "Create database tables if they do not exist",
		Flags: postgres.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if !postgres.Enabled() {
				return goerr.New("database DSN is required for migrate")
			}

			repo, err := postgres.NewRepository()
			if err != nil {
				return goerr.Wrap(err, "failed to connect to database")
			}
			defer safe.Close(repo)

			uc := usecase.New(infra.New(infra.WithStarRepository(repo)))
			if err := uc.Migrate(ctx); err != nil {
				return err
			}

			logging.From(ctx).Info("database migrated")
			return nil
		},
	}
}
