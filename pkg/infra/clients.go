package infra

import (
	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/repository/memory"
)

type Clients struct {
	searchClient interfaces.SearchClient
	starRepo     interfaces.StarRepository
	bqClient     interfaces.BigQuery
}

type Option func(*Clients)

func New(options ...Option) *Clients {
	client := &Clients{
		starRepo: memory.New(),
	}

	for _, opt := range options {
		opt(client)
	}

	return client
}

func (x *Clients) SearchClient() interfaces.SearchClient {
	return x.searchClient
}
func (x *Clients) StarRepository() interfaces.StarRepository {
	return x.starRepo
}
func (x *Clients) BigQuery() interfaces.BigQuery {
	return x.bqClient
}
func WithSearchClient(client interfaces.SearchClient) Option {
	return func(x *Clients) {
		x.searchClient = client
	}
}

func WithStarRepository(repo interfaces.StarRepository) Option {
	return func(x *Clients) {
		x.starRepo = repo
	}
}

func WithBigQuery(client interfaces.BigQuery) Option {
	return func(x *Clients) {
		x.bqClient = client
	}
}
