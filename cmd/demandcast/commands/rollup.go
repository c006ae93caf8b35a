package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faviy/demandcast/internal/artifact"
	"github.com/faviy/demandcast/internal/rollup"
	"github.com/faviy/demandcast/pkg/logger"
)

var rollupOutput string

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "재고/폐기/계절/기온 집계 테이블 생성",
	Long: `Writes the auxiliary dataset rollups, independent of forecasting:

  stock_levels.csv       ending stock per row (restocked - sold - spoilage)
  spoilage_summary.csv   total and mean spoilage per product
  seasonal_demand.csv    units sold per month x category
  weather_demand.csv     units sold per rounded temperature

Example:
  go run ./cmd/demandcast rollup
  go run ./cmd/demandcast rollup --out results/tables`,
	RunE: runRollup,
}

func init() {
	rootCmd.AddCommand(rollupCmd)

	rollupCmd.Flags().StringVar(&rollupOutput, "out", "", "output directory (default REPORT_DIR)")
}

func runRollup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	dir := cfg.Paths.ReportDir
	if rollupOutput != "" {
		dir = rollupOutput
	}

	rows, err := artifact.ReadSalesFile(cfg.Paths.InputFile)
	if err != nil {
		return fmt.Errorf("read sales: %w", err)
	}

	paths, err := rollup.WriteDir(dir, rows)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{"rows": len(rows), "tables": len(paths)}).Info("Rollups written")

	out := cmd.OutOrStdout()
	printHeader(out, "Dataset rollups", [2]string{"Input", cfg.Paths.InputFile}, [2]string{"Output", dir})
	for _, p := range paths {
		fmt.Fprintf(out, "  ✅ %s\n", p)
	}
	return nil
}
