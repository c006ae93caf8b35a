package rollup

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/internal/store"
)

// Output file names
const (
	StockLevelsFile     = "stock_levels.csv"
	SpoilageSummaryFile = "spoilage_summary.csv"
	SeasonalDemandFile  = "seasonal_demand.csv"
	WeatherDemandFile   = "weather_demand.csv"
)

func f64(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func write(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write rollup: %w", err)
	}
	return nil
}

// WriteStockLevels writes Date,Product_ID,Product_Name,Category,Ending_Stock
func WriteStockLevels(w io.Writer, rows []StockLevel) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{contracts.DateKey(r.Date), r.ProductID, r.ProductName, r.Category, f64(r.EndingStock)}
	}
	return write(w, []string{"Date", "Product_ID", "Product_Name", "Category", "Ending_Stock"}, records)
}

// WriteSpoilageSummary writes Product_ID,Product_Name,Category,Total_Spoilage_Units,Avg_Daily_Spoilage
func WriteSpoilageSummary(w io.Writer, rows []SpoilageRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.ProductID, r.ProductName, r.Category, f64(r.TotalSpoilage), f64(r.AvgDailySpoilage)}
	}
	return write(w, []string{"Product_ID", "Product_Name", "Category", "Total_Spoilage_Units", "Avg_Daily_Spoilage"}, records)
}

// WriteSeasonalDemand writes Month,Category,Total_Units_Sold,Avg_Units_Sold
func WriteSeasonalDemand(w io.Writer, rows []SeasonalRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{strconv.Itoa(r.Month), r.Category, f64(r.TotalSold), f64(r.AvgSold)}
	}
	return write(w, []string{"Month", "Category", "Total_Units_Sold", "Avg_Units_Sold"}, records)
}

// WriteWeatherDemand writes Temperature,Total_Units_Sold,Avg_Units_Sold,Observations
func WriteWeatherDemand(w io.Writer, rows []WeatherRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{f64(r.Temperature), f64(r.TotalSold), f64(r.AvgSold), strconv.Itoa(r.Observations)}
	}
	return write(w, []string{"Temperature", "Total_Units_Sold", "Avg_Units_Sold", "Observations"}, records)
}

// WriteDir computes every rollup over rows and writes the four tables into dir
func WriteDir(dir string, rows []contracts.SaleRow) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create rollup dir: %w", err)
	}

	tables := []struct {
		name  string
		write func(io.Writer) error
	}{
		{StockLevelsFile, func(w io.Writer) error { return WriteStockLevels(w, StockLevels(rows)) }},
		{SpoilageSummaryFile, func(w io.Writer) error { return WriteSpoilageSummary(w, SpoilageSummary(rows)) }},
		{SeasonalDemandFile, func(w io.Writer) error { return WriteSeasonalDemand(w, SeasonalDemand(rows)) }},
		{WeatherDemandFile, func(w io.Writer) error { return WriteWeatherDemand(w, WeatherDemand(rows)) }},
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := store.WriteFileAtomic(path, t.write); err != nil {
			return paths, fmt.Errorf("write %s: %w", t.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
