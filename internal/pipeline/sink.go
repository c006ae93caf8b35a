package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faviy/demandcast/internal/artifact"
	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/internal/report"
	"github.com/faviy/demandcast/internal/store"
)

// Sink receives the artifacts of a run besides the forecasts themselves
type Sink interface {
	WriteSeries(ctx context.Context, series contracts.ProductSeries) error
	WriteHolidays(ctx context.Context, cal contracts.HolidayCalendar) error
	WriteSummary(ctx context.Context, summary contracts.AccuracySummary) error
}

// FileSink writes cleaned series and the festival calendar under a data dir
// and the accuracy summary (CSV, optionally XLSX) under a report dir
type FileSink struct {
	DataDir   string
	ReportDir string
	XLSX      bool
}

// NewFileSink creates a file sink
func NewFileSink(dataDir, reportDir string, xlsx bool) *FileSink {
	return &FileSink{DataDir: dataDir, ReportDir: reportDir, XLSX: xlsx}
}

// CleanedPath returns the cleaned-series path of product
func (s *FileSink) CleanedPath(product string) string {
	return filepath.Join(s.DataDir, artifact.CleanedFileName(product))
}

// HolidaysPath returns the festival calendar path
func (s *FileSink) HolidaysPath() string {
	return filepath.Join(s.DataDir, artifact.HolidaysFile)
}

// SummaryPath returns the accuracy summary CSV path
func (s *FileSink) SummaryPath() string {
	return filepath.Join(s.ReportDir, artifact.AccuracyFile)
}

// WriteSeries writes the smoothed series of one product
func (s *FileSink) WriteSeries(ctx context.Context, series contracts.ProductSeries) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return store.WriteFileAtomic(s.CleanedPath(series.Product), func(w io.Writer) error {
		return artifact.WriteCleaned(w, series.Smoothed)
	})
}

// WriteHolidays writes the festival calendar
func (s *FileSink) WriteHolidays(ctx context.Context, cal contracts.HolidayCalendar) error {
	return store.WriteFileAtomic(s.HolidaysPath(), func(w io.Writer) error {
		return artifact.WriteHolidays(w, cal)
	})
}

// WriteSummary writes the accuracy summary
func (s *FileSink) WriteSummary(ctx context.Context, summary contracts.AccuracySummary) error {
	err := store.WriteFileAtomic(s.SummaryPath(), func(w io.Writer) error {
		return report.WriteCSV(w, summary)
	})
	if err != nil {
		return err
	}
	if s.XLSX {
		path := strings.TrimSuffix(s.SummaryPath(), filepath.Ext(s.SummaryPath())) + ".xlsx"
		if err := report.WriteXLSX(path, summary); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
	}
	return nil
}

// ListCleaned returns the products with a cleaned series under dir
func ListCleaned(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", contracts.ErrMissingArtifact, dir)
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), artifact.CleanedSuffix) {
			out = append(out, strings.TrimSuffix(e.Name(), artifact.CleanedSuffix))
		}
	}
	return out, nil
}

// DiscardSink drops every artifact
type DiscardSink struct{}

func (DiscardSink) WriteSeries(context.Context, contracts.ProductSeries) error     { return nil }
func (DiscardSink) WriteHolidays(context.Context, contracts.HolidayCalendar) error { return nil }
func (DiscardSink) WriteSummary(context.Context, contracts.AccuracySummary) error  { return nil }
