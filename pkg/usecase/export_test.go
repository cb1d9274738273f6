package usecase_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/infra"
	"github.com/secmon-lab/starwatch/pkg/repository/memory"
	"github.com/secmon-lab/starwatch/pkg/usecase"
)

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	memRepo := memory.New()

	gt.NoError(t, memRepo.UpsertRepositories(ctx, []*model.Repository{
		{ID: "R_1", Owner: "github", Name: "linguist", Stars: 11000, URL: "https://github.com/github/linguist"},
		{ID: "R_2", Owner: "github", Name: "hubot", Stars: 16000, URL: "https://github.com/github/hubot"},
	}))

	uc := usecase.New(infra.New(infra.WithStarRepository(memRepo)))

	var buf bytes.Buffer
	gt.NoError(t, uc.ExportCSV(ctx, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	gt.NoError(t, err)
	gt.A(t, rows).Length(3)

	gt.V(t, rows[0][0]).Equal("repo_id")
	gt.V(t, rows[0][3]).Equal("full_name")

	// Ordered by stars descending.
	gt.V(t, rows[1][2]).Equal("hubot")
	gt.V(t, rows[1][3]).Equal("github/hubot")
	gt.V(t, rows[1][4]).Equal("16000")
	gt.V(t, rows[2][2]).Equal("linguist")
}

func TestExportCSVEmpty(t *testing.T) {
	uc := usecase.New(infra.New(infra.WithStarRepository(memory.New())))

	var buf bytes.Buffer
	gt.NoError(t, uc.ExportCSV(context.Background(), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	gt.NoError(t, err)
	gt.A(t, rows).Length(1)
}
