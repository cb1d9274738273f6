package crawl

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
)

// Walker paginates one accepted bucket's query. It is a single-use cursor:
// each Next call fetches one page through the governor's admission check and
// advances the continuation cursor, so callers can checkpoint and cancel
// between pages. A failed page is retried in place, never from the bucket's
// beginning.
type Walker struct {
	client interfaces.SearchClient
	gov    *Governor
	query  string

	cursor string
	done   bool
}

func NewWalker(client interfaces.SearchClient, gov *Governor, query string) *Walker {
	return &Walker{
		client: client,
		gov:    gov,
		query:  query,
	}
}

// Done reports whether the sequence is exhausted.
func (x *Walker) Done() bool {
	return x.done
}

// Next fetches the next page. It returns an empty slice once the API reports
// no further pages; check Done to stop.
func (x *Walker) Next(ctx context.Context) ([]*model.Repository, error) {
	if x.done {
		return nil, nil
	}

	var page *model.SearchPage
	err := x.gov.Retry(ctx, func(ctx context.Context) error {
		if err := x.gov.Wait(ctx); err != nil {
			return err
		}

		p, err := x.client.Search(ctx, x.query, x.cursor)
		if err != nil {
			return err
		}
		x.gov.Update(p.Quota)
		page = p
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch search page",
			goerr.V("query", x.query),
			goerr.V("cursor", x.cursor),
		)
	}

	if page.HasNextPage && page.EndCursor != "" {
		x.cursor = page.EndCursor
	} else {
		x.done = true
	}
	if len(page.Repositories) == 0 {
		x.done = true
	}

	return page.Repositories, nil
}
