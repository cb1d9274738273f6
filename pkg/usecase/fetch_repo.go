package usecase

import (
	"context"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
)

// FetchRepo fetches a single repository and records it the same way a crawl
// would: snapshot upsert plus a daily history fact.
func (x *UseCase) FetchRepo(ctx context.Context, owner, name string) (*model.Repository, error) {
	repo, err := x.clients.SearchClient().GetRepository(ctx, owner, name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch repository",
			goerr.V("owner", owner), goerr.V("name", name))
	}

	store := x.clients.StarRepository()
	if err := store.UpsertRepositories(ctx, []*model.Repository{repo}); err != nil {
		return nil, goerr.Wrap(err, "failed to upsert repository", goerr.V("id", repo.ID))
	}

	record := &model.StarRecord{
		RepoID: repo.ID,
		Stars:  repo.Stars,
		Date:   civil.DateOf(logging.CtxTime(ctx).UTC()),
	}
	if err := store.AppendStarRecords(ctx, []*model.StarRecord{record}); err != nil {
		return nil, goerr.Wrap(err, "failed to append star record", goerr.V("id", repo.ID))
	}

	logging.From(ctx).Info("fetched repository",
		slog.String("owner", repo.Owner),
		slog.String("name", repo.Name),
		slog.Int("stars", repo.Stars),
	)

	return repo, nil
}
