package config

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/infra/ghsearch"
	"github.com/urfave/cli/v3"
)

type GitHub struct {
	token types.GitHubToken `masq:"secret"`
}

func (x *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub personal access token",
			Category:    "GitHub",
			Destination: (*string)(&x.token),
			Sources:     cli.EnvVars("STARWATCH_GITHUB_TOKEN", "GITHUB_TOKEN"),
			Required:    true,
		},
	}
}

func (x GitHub) New(ctx context.Context) *ghsearch.Client {
	return ghsearch.New(ctx, x.token)
}

func (x GitHub) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("token.len", len(x.token)),
	)
}
