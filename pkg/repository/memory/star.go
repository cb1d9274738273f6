package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/repository"
)

type repoData struct {
	repo    *model.Repository
	history map[civil.Date]*model.StarRecord
}

type starRepository struct {
	mu    sync.RWMutex
	repos map[types.RepoID]*repoData
}

func (r *starRepository) Migrate(ctx context.Context) error {
	return nil
}

func (r *starRepository) UpsertRepositories(ctx context.Context, repos []*model.Repository) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, repo := range repos {
		if repo.ID == "" {
			return goerr.Wrap(repository.ErrInvalidInput, "repository ID is empty")
		}

		data, exists := r.repos[repo.ID]
		if !exists {
			inserted := copyRepository(repo)
			inserted.FirstSeen = time.Now()
			inserted.UpdatedAt = inserted.FirstSeen
			r.repos[repo.ID] = &repoData{
				repo:    inserted,
				history: make(map[civil.Date]*model.StarRecord),
			}
			continue
		}

		// Unchanged rows keep their UpdatedAt, same as the SQL upsert.
		if !changed(data.repo, repo) {
			continue
		}
		prev := data.repo
		data.repo = copyRepository(repo)
		data.repo.FirstSeen = prev.FirstSeen
		data.repo.UpdatedAt = time.Now()
	}

	return nil
}

func (r *starRepository) AppendStarRecords(ctx context.Context, records []*model.StarRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		data, exists := r.repos[rec.RepoID]
		if !exists {
			return goerr.Wrap(repository.ErrNotFound, "repository not found for star record",
				goerr.V("repoID", rec.RepoID),
			)
		}

		if _, exists := data.history[rec.Date]; exists {
			continue
		}
		if latest := latestRecord(data.history); latest != nil && latest.Stars == rec.Stars {
			continue
		}

		data.history[rec.Date] = &model.StarRecord{
			RepoID: rec.RepoID,
			Stars:  rec.Stars,
			Date:   rec.Date,
		}
	}

	return nil
}

func (r *starRepository) GetRepository(ctx context.Context, id types.RepoID) (*model.Repository, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, exists := r.repos[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "repository not found",
			goerr.V("repoID", id),
		)
	}

	return copyRepository(data.repo), nil
}

func (r *starRepository) ListRepositories(ctx context.Context) ([]*model.Repository, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	repos := make([]*model.Repository, 0, len(r.repos))
	for _, data := range r.repos {
		repos = append(repos, copyRepository(data.repo))
	}

	sort.Slice(repos, func(i, j int) bool {
		if repos[i].Stars != repos[j].Stars {
			return repos[i].Stars > repos[j].Stars
		}
		return repos[i].ID < repos[j].ID
	})

	return repos, nil
}

func (r *starRepository) ListStarRecords(ctx context.Context, id types.RepoID) ([]*model.StarRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, exists := r.repos[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "repository not found",
			goerr.V("repoID", id),
		)
	}

	records := make([]*model.StarRecord, 0, len(data.history))
	for _, rec := range data.history {
		records = append(records, &model.StarRecord{
			RepoID: rec.RepoID,
			Stars:  rec.Stars,
			Date:   rec.Date,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return records, nil
}

func changed(old, observed *model.Repository) bool {
	return old.Owner != observed.Owner ||
		old.Name != observed.Name ||
		old.Stars != observed.Stars ||
		old.URL != observed.URL
}

func latestRecord(history map[civil.Date]*model.StarRecord) *model.StarRecord {
	var latest *model.StarRecord
	for _, rec := range history {
		if latest == nil || rec.Date.After(latest.Date) {
			latest = rec
		}
	}
	return latest
}

func copyRepository(repo *model.Repository) *model.Repository {
	copied := *repo
	return &copied
}
