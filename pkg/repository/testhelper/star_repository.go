package testhelper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/repository"
)

// TestAll runs all test cases for StarRepository.
// This is the main entry point for testing any StarRepository implementation.
func TestAll(t *testing.T, repo interfaces.StarRepository) {
	t.Run("SnapshotUpsert", func(t *testing.T) {
		TestSnapshotUpsert(t, repo)
	})
	t.Run("UpsertIdempotence", func(t *testing.T) {
		TestUpsertIdempotence(t, repo)
	})
	t.Run("StarHistory", func(t *testing.T) {
		TestStarHistory(t, repo)
	})
	t.Run("HistoryDuplicateDay", func(t *testing.T) {
		TestHistoryDuplicateDay(t, repo)
	})
	t.Run("ListOrder", func(t *testing.T) {
		TestListOrder(t, repo)
	})
}

func newTestRepo(stars int) *model.Repository {
	short := uuid.NewString()[:8]
	return &model.Repository{
		ID:    types.RepoID("R_" + uuid.NewString()),
		Owner: fmt.Sprintf("owner-%s", short),
		Name:  fmt.Sprintf("repo-%s", short),
		Stars: stars,
		URL:   fmt.Sprintf("https://github.com/owner-%s/repo-%s", short, short),
	}
}

// TestSnapshotUpsert tests insert-if-absent and update-if-present by ID.
func TestSnapshotUpsert(t *testing.T, repo interfaces.StarRepository) {
	ctx := context.Background()

	entity := newTestRepo(5)
	gt.NoError(t, repo.UpsertRepositories(ctx, []*model.Repository{entity}))

	got, err := repo.GetRepository(ctx, entity.ID)
	gt.NoError(t, err)
	gt.V(t, got.Owner).Equal(entity.Owner)
	gt.V(t, got.Name).Equal(entity.Name)
	gt.V(t, got.Stars).Equal(5)
	gt.V(t, got.URL).Equal(entity.URL)

	entity.Stars = 7
	gt.NoError(t, repo.UpsertRepositories(ctx, []*model.Repository{entity}))

	got, err = repo.GetRepository(ctx, entity.ID)
	gt.NoError(t, err)
	gt.V(t, got.Stars).Equal(7)

	_, err = repo.GetRepository(ctx, types.RepoID("R_missing"))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, repository.ErrNotFound))
}

// TestUpsertIdempotence tests that re-upserting unchanged rows does not move
// updated_at.
func TestUpsertIdempotence(t *testing.T, repo interfaces.StarRepository) {
	ctx := context.Background()

	entity := newTestRepo(10)
	gt.NoError(t, repo.UpsertRepositories(ctx, []*model.Repository{entity}))

	before, err := repo.GetRepository(ctx, entity.ID)
	gt.NoError(t, err)

	gt.NoError(t, repo.UpsertRepositories(ctx, []*model.Repository{entity}))

	after, err := repo.GetRepository(ctx, entity.ID)
	gt.NoError(t, err)
	gt.V(t, after.Stars).Equal(before.Stars)
	gt.V(t, after.UpdatedAt).Equal(before.UpdatedAt)
	gt.V(t, after.FirstSeen).Equal(before.FirstSeen)
}

// TestStarHistory tests the append-only daily facts: one row per day, new row
// only when the count changed.
func TestStarHistory(t *testing.T, repo interfaces.StarRepository) {
	ctx := context.Background()

	entity := newTestRepo(5)
	gt.NoError(t, repo.UpsertRepositories(ctx, []*model.Repository{entity}))

	day1 := civil.Date{Year: 2025, Month: 3, Day: 1}
	day2 := day1.AddDays(1)
	day3 := day1.AddDays(2)

	gt.NoError(t, repo.AppendStarRecords(ctx, []*model.StarRecord{
		{RepoID: entity.ID, Stars: 5, Date: day1},
	}))
	gt.NoError(t, repo.AppendStarRecords(ctx, []*model.StarRecord{
		{RepoID: entity.ID, Stars: 7, Date: day2},
	}))
	// Unchanged count on the next day must not add a row.
	gt.NoError(t, repo.AppendStarRecords(ctx, []*model.StarRecord{
		{RepoID: entity.ID, Stars: 7, Date: day3},
	}))

	records, err := repo.ListStarRecords(ctx, entity.ID)
	gt.NoError(t, err)
	gt.A(t, records).Length(2)
	gt.V(t, records[0].Stars).Equal(5)
	gt.V(t, records[0].Date).Equal(day1)
	gt.V(t, records[1].Stars).Equal(7)
	gt.V(t, records[1].Date).Equal(day2)
}

// TestHistoryDuplicateDay tests that a (repo, date) fact is written at most
// once even when observed twice.
func TestHistoryDuplicateDay(t *testing.T, repo interfaces.StarRepository) {
	ctx := context.Background()

	entity := newTestRepo(42)
	gt.NoError(t, repo.UpsertRepositories(ctx, []*model.Repository{entity}))

	day := civil.Date{Year: 2025, Month: 4, Day: 1}
	rec := &model.StarRecord{RepoID: entity.ID, Stars: 42, Date: day}

	gt.NoError(t, repo.AppendStarRecords(ctx, []*model.StarRecord{rec}))
	gt.NoError(t, repo.AppendStarRecords(ctx, []*model.StarRecord{rec}))

	records, err := repo.ListStarRecords(ctx, entity.ID)
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
}

// TestListOrder tests that the snapshot listing is ordered by stars desc.
func TestListOrder(t *testing.T, repo interfaces.StarRepository) {
	ctx := context.Background()

	low := newTestRepo(1)
	high := newTestRepo(1000000)
	gt.NoError(t, repo.UpsertRepositories(ctx, []*model.Repository{low, high}))

	repos, err := repo.ListRepositories(ctx)
	gt.NoError(t, err)

	var lowIdx, highIdx int
	for i, r := range repos {
		switch r.ID {
		case low.ID:
			lowIdx = i
		case high.ID:
			highIdx = i
		}
	}
	gt.True(t, highIdx < lowIdx)
}
