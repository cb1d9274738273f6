package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// Migrate creates the storage tables if they do not exist.
func (x *UseCase) Migrate(ctx context.Context) error {
	if err := x.clients.StarRepository().Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to migrate storage")
	}
	return nil
}
