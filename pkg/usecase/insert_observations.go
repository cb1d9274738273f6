package usecase

import (
	"context"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/m-mizutani/bqs"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/utils/logging"
)

// insertObservations appends the crawl's flattened observations to the
// analytics sink. The table is created on first use and its schema merged
// when the record shape grows.
func (x *UseCase) insertObservations(ctx context.Context, crawlID types.CrawlID, repos []*model.Repository) error {
	if len(repos) == 0 {
		return nil
	}

	now := logging.CtxTime(ctx).UTC()
	date := civil.DateOf(now).String()

	rows := make([]any, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, &model.StarObservation{
			CrawlID:   crawlID,
			Timestamp: now.UnixMicro(),
			RepoID:    r.ID,
			Owner:     r.Owner,
			Name:      r.Name,
			Stars:     r.Stars,
			URL:       r.URL,
			Date:      date,
		})
	}

	schema, err := createOrUpdateObservationTable(ctx, x.clients.BigQuery())
	if err != nil {
		return err
	}

	if err := x.clients.BigQuery().Insert(ctx, schema, rows); err != nil {
		return goerr.Wrap(err, "failed to insert observations to BigQuery")
	}

	logging.From(ctx).Info("inserted observations to BigQuery", slog.Int("rows", len(rows)))
	return nil
}

func createOrUpdateObservationTable(ctx context.Context, bq interfaces.BigQuery) (bigquery.Schema, error) {
	var obs model.StarObservation
	schema, err := bqs.Infer(obs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer observation schema")
	}

	metaData, err := bq.GetMetadata(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get BigQuery table metadata")
	}
	if metaData == nil {
		if err := bq.CreateTable(ctx, &bigquery.TableMetadata{
			Schema: schema,
		}); err != nil {
			return nil, goerr.Wrap(err, "failed to create BigQuery table")
		}
		return schema, nil
	}

	if bqs.Equal(metaData.Schema, schema) {
		return schema, nil
	}

	mergedSchema, err := bqs.Merge(metaData.Schema, schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to merge BigQuery schema")
	}
	if err := bq.UpdateTable(ctx, bigquery.TableMetadataToUpdate{
		Schema: mergedSchema,
	}, metaData.ETag); err != nil {
		return nil, goerr.Wrap(err, "failed to update BigQuery table")
	}

	return mergedSchema, nil
}
