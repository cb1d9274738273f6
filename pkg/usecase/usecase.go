package usecase

import (
	"github.com/secmon-lab/starwatch/pkg/crawl"
	"github.com/secmon-lab/starwatch/pkg/infra"
)

type UseCase struct {
	clients *infra.Clients
	govOpts []crawl.GovernorOption
}

type Option func(*UseCase)

// WithGovernorOptions tunes the rate governor used by crawls.
func WithGovernorOptions(options ...crawl.GovernorOption) Option {
	return func(x *UseCase) {
		x.govOpts = options
	}
}

func New(clients *infra.Clients, options ...Option) *UseCase {
	uc := &UseCase{
		clients: clients,
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}
