package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faviy/demandcast/internal/scheduler"
	"github.com/faviy/demandcast/internal/scheduler/jobs"
)

// rollupSchedule runs the rollups half an hour after the default pipeline slot
const rollupSchedule = "0 30 2 * * *"

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/demandcast scheduler start
  go run ./cmd/demandcast scheduler list
  go run ./cmd/demandcast scheduler run forecast_pipeline`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- forecast_pipeline: PIPELINE_SCHEDULE (기본 매일 02:00, 전체 파이프라인)
- dataset_rollups: 매일 02:30 (집계 테이블)

실패한 작업은 재시도하지 않습니다. 스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	sched, err := initScheduler(d)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n✅ Scheduler started successfully")
	printJobs(cmd, sched)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	fmt.Fprintln(out, "Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	sched, err := initScheduler(d)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(cmd, sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	sched, err := initScheduler(d)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Ctrl+C 시 실행 중인 작업 취소
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running job: %s\n", args[0])

	result, err := sched.RunJobSync(args[0])
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
	}

	fmt.Fprintf(out, "✅ Job %s completed in %.2fs\n", result.JobName, result.Duration.Seconds())
	return nil
}

func printJobs(cmd *cobra.Command, sched *scheduler.Scheduler) {
	out := cmd.OutOrStdout()
	stats := sched.Stats()

	fmt.Fprintln(out, "\nRegistered jobs:")
	for _, name := range sched.Jobs() {
		st := stats[name]
		next := "-"
		if st.NextRun != nil {
			next = st.NextRun.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "  - %-20s %-16s next: %s\n", name, st.Schedule, next)
	}
}

func initScheduler(d *deps) (*scheduler.Scheduler, error) {
	sched := scheduler.New(d.log)

	pipelineJob := jobs.NewPipelineJob(d.runner, d.cfg.Paths.InputFile, d.cfg.Pipeline.Schedule, d.log)
	if err := sched.AddJob(pipelineJob); err != nil {
		return nil, err
	}

	rollupJob := jobs.NewRollupJob(d.cfg.Paths.InputFile, d.cfg.Paths.ReportDir, rollupSchedule, d.log)
	if err := sched.AddJob(rollupJob); err != nil {
		return nil, err
	}

	return sched, nil
}
