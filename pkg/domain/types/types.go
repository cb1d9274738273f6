package types

import (
	"log/slog"

	"github.com/google/uuid"
)

type (
	// RepoID is the stable GraphQL node ID of a repository.
	RepoID string

	// CrawlID identifies one crawl run across logs, storage and exports.
	CrawlID string

	GitHubToken string

	GoogleProjectID string
	BQDatasetID     string
	BQTableID       string
)

func NewCrawlID() CrawlID {
	return CrawlID(uuid.NewString())
}

func (x RepoID) String() string {
	return string(x)
}

func (x CrawlID) String() string {
	return string(x)
}

func (x GitHubToken) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x GitHubToken) String() string {
	return "***********"
}

func (x GoogleProjectID) String() string {
	return string(x)
}

func (x BQDatasetID) String() string {
	return string(x)
}

func (x BQTableID) String() string {
	return string(x)
}
