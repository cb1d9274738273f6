package interfaces

//go:generate moq -out ../mock/infra.go -pkg mock . SearchClient BigQuery

import (
	"context"

	"cloud.google.com/go/bigquery"

	"github.com/secmon-lab/starwatch/pkg/domain/model"
)

// SearchClient talks to the GitHub search API. Every call returns the
// quota metadata reported by the endpoint so the rate governor can stay
// in sync with the remote budget.
type SearchClient interface {
	// Count returns the approximate number of repositories matching the
	// query. This is the cheap metadata call used by the bucket planner.
	Count(ctx context.Context, query string) (int, *model.RateQuota, error)

	// Search fetches one page of repositories. An empty cursor requests the
	// first page.
	Search(ctx context.Context, query, cursor string) (*model.SearchPage, error)

	// GetRepository fetches a single repository by owner and name.
	GetRepository(ctx context.Context, owner, name string) (*model.Repository, error)

	// RateLimit returns the current quota without consuming search budget.
	RateLimit(ctx context.Context) (*model.RateQuota, error)
}

type BigQuery interface {
	Insert(ctx context.Context, schema bigquery.Schema, rows []any) error

	GetMetadata(ctx context.Context) (*bigquery.TableMetadata, error)
	UpdateTable(ctx context.Context, md bigquery.TableMetadataToUpdate, eTag string) error
	CreateTable(ctx context.Context, md *bigquery.TableMetadata) error
}
