package jobs

import (
	"context"
	"fmt"

	"github.com/faviy/demandcast/internal/artifact"
	"github.com/faviy/demandcast/internal/rollup"
	"github.com/faviy/demandcast/pkg/logger"
)

// RollupJob rewrites the auxiliary stock, spoilage, seasonal and weather tables
type RollupJob struct {
	inputFile string
	outputDir string
	schedule  string
	logger    *logger.Logger
}

// NewRollupJob creates a new rollup job
func NewRollupJob(inputFile, outputDir, schedule string, log *logger.Logger) *RollupJob {
	if log == nil {
		log = logger.Nop()
	}
	return &RollupJob{inputFile: inputFile, outputDir: outputDir, schedule: schedule, logger: log}
}

// Name returns the job name
func (j *RollupJob) Name() string {
	return "dataset_rollups"
}

// Schedule returns the cron schedule
func (j *RollupJob) Schedule() string {
	return j.schedule
}

// Run executes the rollups
func (j *RollupJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows, err := artifact.ReadSalesFile(j.inputFile)
	if err != nil {
		return fmt.Errorf("read sales: %w", err)
	}

	paths, err := rollup.WriteDir(j.outputDir, rows)
	if err != nil {
		return err
	}

	j.logger.WithField("tables", len(paths)).Info("Rollups written")
	return nil
}
