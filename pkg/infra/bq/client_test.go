package bq_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/bqs"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/infra/bq"
	"github.com/secmon-lab/starwatch/pkg/utils/testutil"
)

func TestClient(t *testing.T) {
	projectID := testutil.GetEnvOrSkip(t, "TEST_BIGQUERY_PROJECT_ID")
	datasetID := testutil.GetEnvOrSkip(t, "TEST_BIGQUERY_DATASET_ID")

	ctx := context.Background()

	tblName := types.BQTableID(time.Now().Format("insert_test_20060102_150405"))
	client, err := bq.New(ctx, types.GoogleProjectID(projectID), types.BQDatasetID(datasetID), tblName)
	gt.NoError(t, err)

	var schema bigquery.Schema

	t.Run("Create table at first", func(t *testing.T) {
		var obs model.StarObservation
		schema = gt.R1(bqs.Infer(obs)).NoError(t)

		gt.NoError(t, client.CreateTable(ctx, &bigquery.TableMetadata{
			Name:   tblName.String(),
			Schema: schema,
		}))
	})

	t.Run("Insert observations", func(t *testing.T) {
		crawlID := types.NewCrawlID()
		now := time.Now()

		rows := []any{
			&model.StarObservation{
				CrawlID:   crawlID,
				Timestamp: now.UnixMicro(),
				RepoID:    "R_test1",
				Owner:     "octocat",
				Name:      "Hello-World",
				Stars:     2500,
				URL:       "https://github.com/octocat/Hello-World",
				Date:      "2024-04-01",
			},
			&model.StarObservation{
				CrawlID:   crawlID,
				Timestamp: now.UnixMicro(),
				RepoID:    "R_test2",
				Owner:     "octocat",
				Name:      "Spoon-Knife",
				Stars:     12000,
				URL:       "https://github.com/octocat/Spoon-Knife",
				Date:      "2024-04-01",
			},
		}
		gt.NoError(t, client.Insert(ctx, schema, rows))
	})

	t.Run("Metadata of missing table is nil", func(t *testing.T) {
		missing, err := bq.New(ctx, types.GoogleProjectID(projectID), types.BQDatasetID(datasetID), "no_such_table_999999")
		gt.NoError(t, err)

		md, err := missing.GetMetadata(ctx)
		gt.NoError(t, err)
		gt.True(t, md == nil)
	})
}
