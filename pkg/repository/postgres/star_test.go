package postgres_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starwatch/pkg/repository/postgres"
	"github.com/secmon-lab/starwatch/pkg/repository/testhelper"
	"github.com/secmon-lab/starwatch/pkg/utils/testutil"
)

func TestPostgresStarRepository(t *testing.T) {
	dsn := testutil.GetEnvOrSkip(t, "TEST_DATABASE_URL")

	repo, err := postgres.New(dsn)
	gt.NoError(t, err)
	defer repo.Close()

	gt.NoError(t, repo.Migrate(context.Background()))

	testhelper.TestAll(t, repo)
}
