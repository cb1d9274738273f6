package crawl

import (
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
)

// Merge concatenates worker buffers in worker order and deduplicates by
// repository ID. Buckets can share boundary values, so the same repository
// may be observed more than once; the last observation wins while the first
// occurrence keeps its position.
func Merge(results []*Result) []*model.Repository {
	var total int
	for _, r := range results {
		total += len(r.Repositories)
	}

	merged := make([]*model.Repository, 0, total)
	index := make(map[types.RepoID]int, total)

	for _, r := range results {
		for _, repo := range r.Repositories {
			if i, seen := index[repo.ID]; seen {
				merged[i] = repo
				continue
			}
			index[repo.ID] = len(merged)
			merged = append(merged, repo)
		}
	}

	return merged
}

// Truncate bounds the merged sequence to the run target.
func Truncate(repos []*model.Repository, target int) []*model.Repository {
	if target > 0 && len(repos) > target {
		return repos[:target]
	}
	return repos
}
