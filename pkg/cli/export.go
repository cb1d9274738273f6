package cli

import (
	"context"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gots/slice"
	"github.com/secmon-lab/starwatch/pkg/cli/config"
	"github.com/secmon-lab/starwatch/pkg/infra"
	"github.com/secmon-lab/starwatch/pkg/usecase"
	"github.com/secmon-lab/starwatch/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func exportCommand() *cli.Command {
	var (
		postgres config.Postgres
		output   string
	)

	return &cli.Command{
		Name:    "export",
		Aliases: []string{"e"},
		Usage:   "Export repository snapshots as CSV",
		Flags: slice.Flatten([]cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Output path [-|<file>]",
				Destination: &output,
				Value:       "-",
			},
		}, postgres.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			if !postgres.Enabled() {
				return goerr.New("database DSN is required for export")
			}

			repo, err := postgres.NewRepository()
			if err != nil {
				return goerr.Wrap(err, "failed to connect to database")
			}
			defer safe.Close(repo)

			var w io.Writer = os.Stdout
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return goerr.Wrap(err, "failed to create output file", goerr.V("path", output))
				}
				defer safe.Close(f)
				w = f
			}

			uc := usecase.New(infra.New(infra.WithStarRepository(repo)))
			return uc.ExportCSV(ctx, w)
		},
	}
}
