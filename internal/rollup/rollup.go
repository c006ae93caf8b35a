package rollup

import (
	"math"
	"sort"
	"time"

	"github.com/faviy/demandcast/internal/contracts"
)

// Auxiliary groupby rollups over the raw dataset, independent of forecasting

// StockLevel is the ending stock of one raw row
type StockLevel struct {
	Date        time.Time
	ProductID   string
	ProductName string
	Category    string
	EndingStock float64
}

// SpoilageRow is the spoilage total and daily mean of one product
type SpoilageRow struct {
	ProductID        string
	ProductName      string
	Category         string
	TotalSpoilage    float64
	AvgDailySpoilage float64
}

// SeasonalRow is the demand of one category in one calendar month (all years pooled)
type SeasonalRow struct {
	Month     int
	Category  string
	TotalSold float64
	AvgSold   float64
}

// WeatherRow is the demand observed at one rounded temperature
type WeatherRow struct {
	Temperature  float64
	TotalSold    float64
	AvgSold      float64
	Observations int
}

// StockLevels computes ending stock = restocked - sold - spoilage per row, in input order
func StockLevels(rows []contracts.SaleRow) []StockLevel {
	out := make([]StockLevel, 0, len(rows))
	for _, r := range rows {
		out = append(out, StockLevel{
			Date:        r.Date,
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			Category:    r.Category,
			EndingStock: r.RestockedUnits - r.UnitsSold - r.SpoilageUnits,
		})
	}
	return out
}

type aggregate struct {
	sum   float64
	count int
}

func (a *aggregate) add(v float64) {
	a.sum += v
	a.count++
}

func (a aggregate) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// SpoilageSummary groups by (product id, name, category), sorted by the same keys
func SpoilageSummary(rows []contracts.SaleRow) []SpoilageRow {
	type key struct{ id, name, category string }
	groups := make(map[key]*aggregate)
	for _, r := range rows {
		k := key{r.ProductID, r.ProductName, r.Category}
		if groups[k] == nil {
			groups[k] = &aggregate{}
		}
		groups[k].add(r.SpoilageUnits)
	}

	out := make([]SpoilageRow, 0, len(groups))
	for k, a := range groups {
		out = append(out, SpoilageRow{
			ProductID:        k.id,
			ProductName:      k.name,
			Category:         k.category,
			TotalSpoilage:    a.sum,
			AvgDailySpoilage: a.mean(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.Category < b.Category
	})
	return out
}

// SeasonalDemand groups units sold by (month, category), sorted by month then category
func SeasonalDemand(rows []contracts.SaleRow) []SeasonalRow {
	type key struct {
		month    int
		category string
	}
	groups := make(map[key]*aggregate)
	for _, r := range rows {
		k := key{int(r.Date.Month()), r.Category}
		if groups[k] == nil {
			groups[k] = &aggregate{}
		}
		groups[k].add(r.UnitsSold)
	}

	out := make([]SeasonalRow, 0, len(groups))
	for k, a := range groups {
		out = append(out, SeasonalRow{Month: k.month, Category: k.category, TotalSold: a.sum, AvgSold: a.mean()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// WeatherDemand groups units sold by temperature rounded to the nearest degree.
// Halves round to even, so 20.5 and 21.5 both land on their even neighbour.
func WeatherDemand(rows []contracts.SaleRow) []WeatherRow {
	groups := make(map[float64]*aggregate)
	for _, r := range rows {
		t := math.RoundToEven(r.Temperature)
		if groups[t] == nil {
			groups[t] = &aggregate{}
		}
		groups[t].add(r.UnitsSold)
	}

	out := make([]WeatherRow, 0, len(groups))
	for t, a := range groups {
		out = append(out, WeatherRow{Temperature: t, TotalSold: a.sum, AvgSold: a.mean(), Observations: a.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Temperature < out[j].Temperature })
	return out
}
