package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	inputFile string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "demandcast",
	Short: "demandcast - 제품별 일간 수요 예측 파이프라인",
	Long: `demandcast Unified CLI

Per-product daily demand forecasting over a retail sales history.
raw sales → cleaned series → decomposition forecast → accuracy summary.

Usage:
  go run ./cmd/demandcast [command]

Examples:
  go run ./cmd/demandcast run
  go run ./cmd/demandcast run --horizon 60 --workers 8
  go run ./cmd/demandcast preprocess --input data/sales.csv
  go run ./cmd/demandcast status --sort RMSE
  go run ./cmd/demandcast api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&inputFile, "input", "", "sales CSV (default INPUT_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
