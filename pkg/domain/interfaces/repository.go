package interfaces

import (
	"context"

	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
)

// StarRepository is the persistent store: a keyed snapshot table mutated by
// upsert, and an append-only star history fact table.
type StarRepository interface {
	// Migrate creates the tables if they do not exist.
	Migrate(ctx context.Context) error

	// UpsertRepositories inserts or updates snapshot rows by repository ID.
	// Rows whose observed values are unchanged are left untouched, including
	// their updated_at column.
	UpsertRepositories(ctx context.Context, repos []*model.Repository) error

	// AppendStarRecords inserts daily star facts. A record is skipped when a
	// row for the same (repo, date) already exists, or when the most recent
	// recorded count for the repo equals the new count.
	AppendStarRecords(ctx context.Context, records []*model.StarRecord) error

	// GetRepository returns a snapshot row, or repository.ErrNotFound.
	GetRepository(ctx context.Context, id types.RepoID) (*model.Repository, error)

	// ListRepositories returns all snapshot rows ordered by stars descending.
	ListRepositories(ctx context.Context) ([]*model.Repository, error)

	// ListStarRecords returns the history of one repository ordered by date.
	ListStarRecords(ctx context.Context, id types.RepoID) ([]*model.StarRecord, error)
}
