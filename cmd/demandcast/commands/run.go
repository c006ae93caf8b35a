package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/faviy/demandcast/internal/artifact"
	"github.com/faviy/demandcast/internal/contracts"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 파이프라인 실행",
	Long: `Runs the full pipeline over the sales CSV.

Steps:
  1. preprocess  cleaned series per product + festival calendar
  2. forecast    decomposition fit, horizon days ahead (fan-out over workers)
  3. store       forecast table per product
  4. evaluate    MAE / RMSE / MAPE against raw actuals → accuracy summary

A product that fails any step is reported and skipped; the command fails only
when the input cannot be read or the run itself is interrupted.

Example:
  go run ./cmd/demandcast run
  go run ./cmd/demandcast run --horizon 60 --holdout 30 --fallback constant --xlsx`,
	RunE: runPipeline,
}

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "정제 시계열과 축제 달력만 생성",
	Long: `Writes <product>_cleaned.csv for every product and festival_dates.csv,
without fitting any model.

Example:
  go run ./cmd/demandcast preprocess --input data/sales.csv`,
	RunE: runPreprocess,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "저장된 예측 재평가",
	Long: `Re-scores the stored forecasts against the raw actuals of the input and
rewrites the accuracy summary. No model is fitted.

Example:
  go run ./cmd/demandcast evaluate --holdout 30`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(evaluateCmd)

	runCmd.Flags().IntVar(&runFlags.horizon, "horizon", 0, "forecast horizon in days (default FORECAST_HORIZON)")
	runCmd.Flags().IntVar(&runFlags.workers, "workers", 0, "concurrent product workers (default WORKERS)")
	runCmd.Flags().IntVar(&runFlags.holdout, "holdout", 0, "trailing days held out for scoring (default HOLDOUT_DAYS)")
	runCmd.Flags().StringVar(&runFlags.fallback, "fallback", "", "short-history policy: skip|constant (default FALLBACK_POLICY)")
	runCmd.Flags().BoolVar(&runFlags.xlsx, "xlsx", false, "also write the accuracy summary as .xlsx")

	evaluateCmd.Flags().IntVar(&runFlags.holdout, "holdout", 0, "trailing days scored (default HOLDOUT_DAYS)")
	evaluateCmd.Flags().BoolVar(&runFlags.xlsx, "xlsx", false, "also write the accuracy summary as .xlsx")
}

// signalContext is canceled on Ctrl+C / SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	out := cmd.OutOrStdout()
	printHeader(out, "Demand forecast pipeline",
		[2]string{"Input", d.cfg.Paths.InputFile},
		[2]string{"Store", d.cfg.StoreBackend},
		[2]string{"Horizon", strconv.Itoa(d.cfg.Pipeline.Horizon)},
		[2]string{"Workers", strconv.Itoa(d.cfg.Pipeline.Workers)},
	)

	rows, err := artifact.ReadSalesFile(d.cfg.Paths.InputFile)
	if err != nil {
		return fmt.Errorf("read sales: %w", err)
	}

	result, err := d.runner.Run(ctx, rows)
	if result != nil {
		printRunResult(out, result)
	}
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}
	return nil
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	rows, err := artifact.ReadSalesFile(d.cfg.Paths.InputFile)
	if err != nil {
		return fmt.Errorf("read sales: %w", err)
	}

	all, cal, err := d.runner.Preprocess(ctx, rows)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printHeader(out, "Preprocess", [2]string{"Input", d.cfg.Paths.InputFile}, [2]string{"Output", d.cfg.Paths.OutputDir})
	for _, ps := range all {
		fmt.Fprintf(out, "  %-28s %5d days  %s → %s\n", ps.DisplayName, ps.Raw.Len(),
			contracts.DateKey(ps.Raw.First()), contracts.DateKey(ps.Raw.Last()))
	}
	fmt.Fprintln(out, singleLine)
	fmt.Fprintf(out, "  ✅ %d products, %d festival dates → %s\n", len(all), cal.Len(), d.sink.HolidaysPath())
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	rows, err := artifact.ReadSalesFile(d.cfg.Paths.InputFile)
	if err != nil {
		return fmt.Errorf("read sales: %w", err)
	}

	summary, err := d.runner.Rescore(ctx, rows)
	if err != nil {
		return fmt.Errorf("rescore: %w", err)
	}

	out := cmd.OutOrStdout()
	printHeader(out, "Re-evaluate stored forecasts", [2]string{"Summary", d.sink.SummaryPath()})
	printSummary(out, summary)
	fmt.Fprintln(out, doubleLine)
	fmt.Fprintf(out, "  %d scored, %d failed\n", len(summary.Records), len(summary.Failures))
	return nil
}
