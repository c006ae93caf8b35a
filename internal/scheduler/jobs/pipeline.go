package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/faviy/demandcast/internal/artifact"
	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/internal/pipeline"
	"github.com/faviy/demandcast/pkg/logger"
)

// Runner is the part of pipeline.Runner the job drives
type Runner interface {
	Run(ctx context.Context, rows []contracts.SaleRow) (*pipeline.Result, error)
}

// PipelineJob re-reads the sales dataset and runs the full forecast pipeline
type PipelineJob struct {
	runner    Runner
	inputFile string
	schedule  string
	logger    *logger.Logger

	mu         sync.Mutex
	lastResult *pipeline.Result
}

// NewPipelineJob creates a new pipeline job
func NewPipelineJob(runner Runner, inputFile, schedule string, log *logger.Logger) *PipelineJob {
	if log == nil {
		log = logger.Nop()
	}
	return &PipelineJob{
		runner:    runner,
		inputFile: inputFile,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return "forecast_pipeline"
}

// Schedule returns the cron schedule
func (j *PipelineJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline.
// Per-product failures do not fail the job; only unreadable input and run-level errors do.
func (j *PipelineJob) Run(ctx context.Context) error {
	j.logger.WithField("input", j.inputFile).Info("Starting scheduled forecast pipeline")

	// Step 1: 입력 읽기
	rows, err := artifact.ReadSalesFile(j.inputFile)
	if err != nil {
		return fmt.Errorf("read sales: %w", err)
	}

	// Step 2: 파이프라인 실행
	result, err := j.runner.Run(ctx, rows)
	if result != nil {
		j.mu.Lock()
		j.lastResult = result
		j.mu.Unlock()
	}
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("Scheduled forecast pipeline finished")

	return nil
}

// LastResult returns the result of the latest run, nil before the first one
func (j *PipelineJob) LastResult() *pipeline.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastResult
}
