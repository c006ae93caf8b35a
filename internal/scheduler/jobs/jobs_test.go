package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/internal/pipeline"
	"github.com/faviy/demandcast/internal/rollup"
	"github.com/faviy/demandcast/internal/scheduler"
	"github.com/faviy/demandcast/pkg/logger"
)

const salesCSV = `Date,Product_ID,Product_Name,Category,Units_Sold,Restocked_Units,Spoilage_Units,Temperature,Festival_Flag,Festival_Name
2024-01-01,P1,Milk,Dairy,100,120,5,20.1,0,
2024-01-02,P1,Milk,Dairy,90,100,2,21.7,1,Pongal
`

func writeSales(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o644))
	return path
}

type fakeRunner struct {
	rows   []contracts.SaleRow
	result *pipeline.Result
	err    error
}

func (r *fakeRunner) Run(ctx context.Context, rows []contracts.SaleRow) (*pipeline.Result, error) {
	r.rows = rows
	return r.result, r.err
}

func TestPipelineJob_Run(t *testing.T) {
	runner := &fakeRunner{result: &pipeline.Result{RunID: "r1", Succeeded: 1, Failed: 1}}
	job := NewPipelineJob(runner, writeSales(t), "0 0 2 * * *", logger.Nop())

	assert.Equal(t, "forecast_pipeline", job.Name())
	assert.Equal(t, "0 0 2 * * *", job.Schedule())
	assert.Nil(t, job.LastResult())

	// per-product failures do not fail the job
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, runner.rows, 2)
	require.NotNil(t, job.LastResult())
	assert.Equal(t, "r1", job.LastResult().RunID)
}

func TestPipelineJob_Errors(t *testing.T) {
	job := NewPipelineJob(&fakeRunner{}, filepath.Join(t.TempDir(), "missing.csv"), "@daily", nil)
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrMissingArtifact)

	runner := &fakeRunner{result: &pipeline.Result{RunID: "r2"}, err: context.Canceled}
	job = NewPipelineJob(runner, writeSales(t), "@daily", nil)
	err = job.Run(context.Background())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "r2", job.LastResult().RunID)
}

func TestRollupJob_Run(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tables")
	job := NewRollupJob(writeSales(t), out, "@daily", logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	data, err := os.ReadFile(filepath.Join(out, rollup.StockLevelsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-01-01,P1,Milk,Dairy,15\n")
}

func TestJobs_UnderScheduler(t *testing.T) {
	s := scheduler.New(logger.Nop())
	job := NewRollupJob(writeSales(t), t.TempDir(), "@daily", nil)
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(job.Name())
	require.NoError(t, err)
	assert.True(t, result.Success)
}
