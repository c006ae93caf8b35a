package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/faviy/demandcast/internal/contracts"
)

// File name suffixes of per-product artifacts
const (
	CleanedSuffix  = "_cleaned.csv"
	ForecastSuffix = "_forecast.csv"

	HolidaysFile = "festival_dates.csv"
	AccuracyFile = "accuracy_summary.csv"
)

// CleanedFileName returns the cleaned-series file name of product
func CleanedFileName(product string) string {
	return product + CleanedSuffix
}

// ForecastFileName returns the forecast file name of product
func ForecastFileName(product string) string {
	return product + ForecastSuffix
}

// =============================================================================
// Writers (rows always ascending by date)
// =============================================================================

// WriteCleaned writes the smoothed series table
func WriteCleaned(w io.Writer, series contracts.DailySeries) error {
	if err := series.Validate(); err != nil {
		return err
	}
	records := make([][]string, 0, series.Len())
	for _, p := range series.Points {
		records = append(records, []string{contracts.DateKey(p.Date), formatFloat(p.Value)})
	}
	return writeAll(w, CleanedV1, records)
}

// WriteForecast writes the forecast table
func WriteForecast(w io.Writer, forecast contracts.ForecastSeries) error {
	if err := forecast.Validate(); err != nil {
		return err
	}
	records := make([][]string, 0, forecast.Len())
	for _, p := range forecast.Points {
		records = append(records, []string{
			contracts.DateKey(p.Date),
			formatFloat(p.Predicted),
			formatFloat(p.LowerBound),
			formatFloat(p.UpperBound),
		})
	}
	return writeAll(w, ForecastV1, records)
}

// WriteHolidays writes the festival calendar
func WriteHolidays(w io.Writer, cal contracts.HolidayCalendar) error {
	holidays := cal.Holidays()
	records := make([][]string, 0, len(holidays))
	for _, h := range holidays {
		records = append(records, []string{contracts.DateKey(h.Date), h.Name})
	}
	return writeAll(w, HolidaysV1, records)
}

// WriteAccuracy writes the accuracy summary in its current order, with display names and 2 decimals
func WriteAccuracy(w io.Writer, summary contracts.AccuracySummary) error {
	records := make([][]string, 0, len(summary.Records))
	for _, r := range summary.Records {
		records = append(records, []string{
			contracts.DisplayName(r.Product),
			strconv.FormatFloat(r.MAE, 'f', 2, 64),
			strconv.FormatFloat(r.RMSE, 'f', 2, 64),
			strconv.FormatFloat(r.MAPE, 'f', 2, 64),
		})
	}
	return writeAll(w, AccuracyV1, records)
}

func writeAll(w io.Writer, schema Schema, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.Header()); err != nil {
		return fmt.Errorf("write %s header: %w", schema, err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", schema, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// =============================================================================
// Readers
// =============================================================================

// ReadCleaned reads a smoothed series table
func ReadCleaned(r io.Reader, product string) (contracts.DailySeries, error) {
	series := contracts.DailySeries{Product: product}
	err := readAll(r, CleanedV1, func(line int, record []string) error {
		date, err := parseTableDate(record[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return fmt.Errorf("invalid smoothed_units_sold %q", record[1])
		}
		series.Points = append(series.Points, contracts.Point{Date: date, Value: v})
		return nil
	})
	if err != nil {
		return contracts.DailySeries{}, err
	}
	return series, series.Validate()
}

// ReadForecast reads a forecast table.
// Method, FittedThrough and Horizon are not part of the table and stay zero.
func ReadForecast(r io.Reader, product string) (contracts.ForecastSeries, error) {
	forecast := contracts.ForecastSeries{Product: product}
	err := readAll(r, ForecastV1, func(line int, record []string) error {
		date, err := parseTableDate(record[0])
		if err != nil {
			return err
		}
		var vals [3]float64
		for i := range vals {
			if vals[i], err = strconv.ParseFloat(record[i+1], 64); err != nil {
				return fmt.Errorf("invalid %s %q", ForecastV1.Required[i+1], record[i+1])
			}
		}
		forecast.Points = append(forecast.Points, contracts.ForecastPoint{
			Date:       date,
			Predicted:  vals[0],
			LowerBound: vals[1],
			UpperBound: vals[2],
		})
		return nil
	})
	if err != nil {
		return contracts.ForecastSeries{}, err
	}
	return forecast, forecast.Validate()
}

// ReadHolidays reads a festival calendar
func ReadHolidays(r io.Reader) (contracts.HolidayCalendar, error) {
	var holidays []contracts.Holiday
	err := readAll(r, HolidaysV1, func(line int, record []string) error {
		date, err := parseTableDate(record[0])
		if err != nil {
			return err
		}
		holidays = append(holidays, contracts.Holiday{Date: date, Name: record[1]})
		return nil
	})
	if err != nil {
		return contracts.HolidayCalendar{}, err
	}
	return contracts.NewHolidayCalendar(holidays), nil
}

// ReadAccuracy reads an accuracy summary; product display names are normalized back to keys
func ReadAccuracy(r io.Reader) (contracts.AccuracySummary, error) {
	var summary contracts.AccuracySummary
	err := readAll(r, AccuracyV1, func(line int, record []string) error {
		rec := contracts.AccuracyRecord{Product: contracts.ProductKey(record[0])}
		targets := []*float64{&rec.MAE, &rec.RMSE, &rec.MAPE}
		for i, dst := range targets {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q", AccuracyV1.Required[i+1], record[i+1])
			}
			*dst = v
		}
		summary.Records = append(summary.Records, rec)
		return nil
	})
	if err != nil {
		return contracts.AccuracySummary{}, err
	}
	summary.SortedBy = contracts.MetricMAPE
	return summary, nil
}

func readAll(r io.Reader, schema Schema, fn func(line int, record []string) error) error {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s: empty file", contracts.ErrSchema, schema)
		}
		return err
	}
	if _, err := schema.Bind(header); err != nil {
		return err
	}
	cr.FieldsPerRecord = len(header)

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s line %d: %v", contracts.ErrSchema, schema, line, err)
		}
		if err := fn(line, record); err != nil {
			return fmt.Errorf("%w: %s line %d: %v", contracts.ErrSchema, schema, line, err)
		}
	}
}

func parseTableDate(s string) (time.Time, error) {
	t, err := time.Parse(contracts.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
