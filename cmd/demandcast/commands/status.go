package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faviy/demandcast/internal/artifact"
	"github.com/faviy/demandcast/internal/contracts"
)

var (
	statusSort string
	statusDesc bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "최근 실행 결과 요약",
	Long: `Prints the accuracy summary of the latest run and the products with a stored forecast.

Example:
  go run ./cmd/demandcast status
  go run ./cmd/demandcast status --sort RMSE --desc`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusSort, "sort", contracts.MetricMAPE, "sort metric: MAE|RMSE|MAPE|product")
	statusCmd.Flags().BoolVar(&statusDesc, "desc", false, "sort descending")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	d, err := initDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	out := cmd.OutOrStdout()

	products, err := d.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list forecasts: %w", err)
	}

	printHeader(out, "demandcast status",
		[2]string{"Store", d.cfg.StoreBackend},
		[2]string{"Forecasts", fmt.Sprintf("%d products", len(products))},
		[2]string{"Summary", d.sink.SummaryPath()},
	)

	f, err := artifact.Open(d.sink.SummaryPath())
	if err != nil {
		if errors.Is(err, contracts.ErrMissingArtifact) {
			fmt.Fprintln(out, "  ⚠️  No accuracy summary yet; run `demandcast run` first")
			return nil
		}
		return err
	}
	defer f.Close()

	summary, err := artifact.ReadAccuracy(f)
	if err != nil {
		return fmt.Errorf("read accuracy summary: %w", err)
	}
	summary.SortBy(statusSort, statusDesc)

	printSummary(out, summary)
	fmt.Fprintln(out, doubleLine)
	return nil
}
