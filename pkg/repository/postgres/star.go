package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/repository"
	"github.com/secmon-lab/starwatch/pkg/utils/safe"
)

const schema = `
CREATE TABLE IF NOT EXISTS repositories (
	repo_id    TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	name       TEXT NOT NULL,
	stars      INTEGER NOT NULL,
	html_url   TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_repositories_stars ON repositories (stars DESC);

CREATE TABLE IF NOT EXISTS repo_star_history (
	repo_id     TEXT NOT NULL REFERENCES repositories (repo_id) ON DELETE CASCADE,
	stars       INTEGER NOT NULL,
	captured_at DATE NOT NULL,
	PRIMARY KEY (repo_id, captured_at)
);
`

func (x *Client) Migrate(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, schema); err != nil {
		return goerr.Wrap(err, "failed to create schema")
	}
	return nil
}

const upsertRepoQuery = `
INSERT INTO repositories (repo_id, owner, name, stars, html_url, updated_at, first_seen)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (repo_id) DO UPDATE
SET owner      = EXCLUDED.owner,
    name       = EXCLUDED.name,
    stars      = EXCLUDED.stars,
    html_url   = EXCLUDED.html_url,
    updated_at = now()
WHERE repositories.owner    IS DISTINCT FROM EXCLUDED.owner
   OR repositories.name     IS DISTINCT FROM EXCLUDED.name
   OR repositories.stars    IS DISTINCT FROM EXCLUDED.stars
   OR repositories.html_url IS DISTINCT FROM EXCLUDED.html_url
`

func (x *Client) UpsertRepositories(ctx context.Context, repos []*model.Repository) error {
	if len(repos) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer safe.Rollback(tx)

	stmt, err := tx.PrepareContext(ctx, upsertRepoQuery)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare upsert")
	}
	defer safe.Close(stmt)

	for _, repo := range repos {
		if repo.ID == "" {
			return goerr.Wrap(repository.ErrInvalidInput, "repository ID is empty")
		}
		if _, err := stmt.ExecContext(ctx, string(repo.ID), repo.Owner, repo.Name, repo.Stars, repo.URL); err != nil {
			return wrapDBError(err, "failed to upsert repository")
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit upsert")
	}

	return nil
}

// appendRecordQuery inserts a daily fact unless the latest recorded count for
// the repository is already the same, or a row for the date exists.
const appendRecordQuery = `
INSERT INTO repo_star_history (repo_id, stars, captured_at)
SELECT $1, $2, $3::date
WHERE NOT EXISTS (
	SELECT 1 FROM repo_star_history h
	WHERE h.repo_id = $1
	  AND h.captured_at = (SELECT max(captured_at) FROM repo_star_history WHERE repo_id = $1)
	  AND h.stars = $2
)
ON CONFLICT (repo_id, captured_at) DO NOTHING
`

func (x *Client) AppendStarRecords(ctx context.Context, records []*model.StarRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer safe.Rollback(tx)

	stmt, err := tx.PrepareContext(ctx, appendRecordQuery)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare history insert")
	}
	defer safe.Close(stmt)

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, string(rec.RepoID), rec.Stars, rec.Date.String()); err != nil {
			return wrapDBError(err, "failed to append star record")
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit history insert")
	}

	return nil
}

func (x *Client) GetRepository(ctx context.Context, id types.RepoID) (*model.Repository, error) {
	row := x.db.QueryRowContext(ctx,
		`SELECT repo_id, owner, name, stars, html_url, updated_at, first_seen
		 FROM repositories WHERE repo_id = $1`, string(id))

	repo, err := scanRepository(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(repository.ErrNotFound, "repository not found",
				goerr.V("repoID", id),
			)
		}
		return nil, err
	}

	return repo, nil
}

func (x *Client) ListRepositories(ctx context.Context) ([]*model.Repository, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT repo_id, owner, name, stars, html_url, updated_at, first_seen
		 FROM repositories ORDER BY stars DESC, repo_id ASC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list repositories")
	}
	defer safe.Close(rows)

	var repos []*model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate repositories")
	}

	return repos, nil
}

func (x *Client) ListStarRecords(ctx context.Context, id types.RepoID) ([]*model.StarRecord, error) {
	if _, err := x.GetRepository(ctx, id); err != nil {
		return nil, err
	}

	rows, err := x.db.QueryContext(ctx,
		`SELECT repo_id, stars, captured_at
		 FROM repo_star_history WHERE repo_id = $1 ORDER BY captured_at ASC`, string(id))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list star records")
	}
	defer safe.Close(rows)

	var records []*model.StarRecord
	for rows.Next() {
		var (
			repoID   string
			stars    int
			captured time.Time
		)
		if err := rows.Scan(&repoID, &stars, &captured); err != nil {
			return nil, goerr.Wrap(err, "failed to scan star record")
		}
		records = append(records, &model.StarRecord{
			RepoID: types.RepoID(repoID),
			Stars:  stars,
			Date:   civil.DateOf(captured),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate star records")
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepository(row rowScanner) (*model.Repository, error) {
	var (
		repo      model.Repository
		id        string
		updatedAt time.Time
		firstSeen time.Time
	)
	if err := row.Scan(&id, &repo.Owner, &repo.Name, &repo.Stars, &repo.URL, &updatedAt, &firstSeen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, goerr.Wrap(err, "failed to scan repository")
	}
	repo.ID = types.RepoID(id)
	repo.UpdatedAt = updatedAt
	repo.FirstSeen = firstSeen

	return &repo, nil
}
