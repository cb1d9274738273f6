package memory

import (
	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
)

// New creates a new in-memory repository
func New() interfaces.StarRepository {
	return &starRepository{
		repos: make(map[types.RepoID]*repoData),
	}
}
