package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
)

// Repository is the snapshot of a GitHub repository as last observed by a
// crawl. ID is the stable GraphQL node ID; every other field is a
// "last observed" projection.
type Repository struct {
	ID    types.RepoID
	Owner string
	Name  string
	Stars int
	URL   string

	FirstSeen time.Time
	UpdatedAt time.Time
}

// StarRecord is one immutable daily fact: the star count of a repository
// observed on a given date. Append-only; at most one row per (RepoID, Date).
type StarRecord struct {
	RepoID types.RepoID
	Stars  int
	Date   civil.Date
}

// StarObservation is the flattened record shape appended to BigQuery when the
// analytics sink is configured.
type StarObservation struct {
	CrawlID   types.CrawlID `json:"crawl_id"`
	Timestamp int64         `json:"timestamp"`
	RepoID    types.RepoID  `json:"repo_id"`
	Owner     string        `json:"owner"`
	Name      string        `json:"name"`
	Stars     int           `json:"stars"`
	URL       string        `json:"url"`
	Date      string        `json:"date"`
}
