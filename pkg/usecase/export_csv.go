package usecase

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
)

var exportColumns = []string{
	"repo_id", "owner", "name", "full_name", "stars", "html_url", "updated_at", "first_seen",
}

// ExportCSV writes all repository snapshots to w, ordered by stars
// descending.
func (x *UseCase) ExportCSV(ctx context.Context, w io.Writer) error {
	repos, err := x.clients.StarRepository().ListRepositories(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list repositories for export")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return goerr.Wrap(err, "failed to write csv header")
	}

	for _, r := range repos {
		row := []string{
			r.ID.String(),
			r.Owner,
			r.Name,
			r.Owner + "/" + r.Name,
			strconv.Itoa(r.Stars),
			r.URL,
			r.UpdatedAt.UTC().Format(time.RFC3339),
			r.FirstSeen.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return goerr.Wrap(err, "failed to write csv row", goerr.V("id", r.ID))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush csv writer")
	}

	logging.From(ctx).Info("exported repositories", slog.Int("rows", len(repos)))
	return nil
}
