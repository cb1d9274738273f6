package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gots/slice"
	"github.com/secmon-lab/starwatch/pkg/cli/config"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/usecase"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func repoCommand() *cli.Command {
	var (
		github   config.GitHub
		postgres config.Postgres
	)

	return &cli.Command{
		Name:      "repo",
		Aliases:   []string{"r"},
		Usage:     "Fetch and record a single repository",
		ArgsUsage: "<owner>/<name>",
		Flags:     slice.Flatten(github.Flags(), postgres.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			arg := c.Args().First()
			owner, name, ok := strings.Cut(arg, "/")
			if !ok || owner == "" || name == "" {
				return goerr.Wrap(types.ErrInvalidOption,
					"repository must be specified as owner/name", goerr.V("arg", arg))
			}

			clients, closer, err := buildClients(ctx, &github, &postgres, nil)
			if err != nil {
				return err
			}
			defer closer()

			repo, err := usecase.New(clients).FetchRepo(ctx, owner, name)
			if err != nil {
				return err
			}

			logging.From(ctx).Info("recorded repository",
				slog.String("id", repo.ID.String()),
				slog.String("owner", repo.Owner),
				slog.String("name", repo.Name),
				slog.Int("stars", repo.Stars),
			)
			return nil
		},
	}
}
