package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/faviy/demandcast/internal/artifact"
	"github.com/faviy/demandcast/internal/contracts"
)

// Sheet names of the workbook export
const (
	AccuracySheet = "accuracy"
	FailuresSheet = "failures"
)

// Summarize builds the accuracy summary, ordered by ascending MAPE with ties broken by product.
// Products missing from records (upstream failures) are carried in Failures, never dropped silently.
// ⭐ SSOT: 정확도 요약 테이블
func Summarize(records []contracts.AccuracyRecord, failures []contracts.ProductFailure) contracts.AccuracySummary {
	summary := contracts.AccuracySummary{
		Records:  append([]contracts.AccuracyRecord(nil), records...),
		Failures: append([]contracts.ProductFailure(nil), failures...),
	}
	summary.SortBy(contracts.MetricMAPE, false)
	return summary
}

// WriteCSV writes the summary table in its current order
func WriteCSV(w io.Writer, summary contracts.AccuracySummary) error {
	return artifact.WriteAccuracy(w, summary)
}

// WriteXLSX exports the summary plus a failures sheet to an Excel workbook
func WriteXLSX(path string, summary contracts.AccuracySummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), AccuracySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{"product", "MAE", "RMSE", "MAPE", "n", "skipped_zeros"}
	if err := f.SetSheetRow(AccuracySheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range summary.Records {
		row := []interface{}{contracts.DisplayName(r.Product), round2(r.MAE), round2(r.RMSE), round2(r.MAPE), r.N, r.SkippedZeros}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(AccuracySheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(FailuresSheet); err != nil {
		return fmt.Errorf("create failures sheet: %w", err)
	}
	failHeader := []interface{}{"product", "stage", "reason", "error"}
	if err := f.SetSheetRow(FailuresSheet, "A1", &failHeader); err != nil {
		return fmt.Errorf("write failures header: %w", err)
	}
	for i, fail := range summary.Failures {
		row := []interface{}{contracts.DisplayName(fail.Product), fail.Stage, fail.Reason, fail.Err}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(FailuresSheet, cell, &row); err != nil {
			return fmt.Errorf("write failure row %d: %w", i+2, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
