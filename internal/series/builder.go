package series

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/faviy/demandcast/internal/contracts"
)

// DefaultWindow is the trailing rolling-mean window in observed days
const DefaultWindow = 7

// Builder aggregates raw sales rows into per-product daily series
type Builder struct {
	window int
	logger zerolog.Logger
}

// NewBuilder creates a series builder; window <= 0 falls back to DefaultWindow
func NewBuilder(window int, logger zerolog.Logger) *Builder {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Builder{
		window: window,
		logger: logger.With().Str("component", "series.builder").Logger(),
	}
}

// Window returns the smoothing window
func (b *Builder) Window() int {
	return b.window
}

// Build produces the series of one product.
// A product with no matching rows yields empty series, not an error.
// ⭐ SSOT: 원시 판매 → 일별 시계열 변환
func (b *Builder) Build(rows []contracts.SaleRow, product string) contracts.ProductSeries {
	key := contracts.ProductKey(product)

	daily := make(map[time.Time]float64)
	for _, row := range rows {
		if row.ProductKey() != key {
			continue
		}
		daily[contracts.Day(row.Date)] += row.UnitsSold
	}

	return b.fromDaily(key, daily)
}

// BuildAll produces one series per distinct product, sorted by product key
func (b *Builder) BuildAll(rows []contracts.SaleRow) []contracts.ProductSeries {
	// Step 1: (product, day) 그룹별 합계
	byProduct := make(map[string]map[time.Time]float64)
	for _, row := range rows {
		key := row.ProductKey()
		if key == "" {
			continue
		}
		daily, ok := byProduct[key]
		if !ok {
			daily = make(map[time.Time]float64)
			byProduct[key] = daily
		}
		daily[contracts.Day(row.Date)] += row.UnitsSold
	}

	keys := make([]string, 0, len(byProduct))
	for key := range byProduct {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Step 2: 정렬 + 스무딩
	out := make([]contracts.ProductSeries, 0, len(keys))
	for _, key := range keys {
		out = append(out, b.fromDaily(key, byProduct[key]))
	}

	b.logger.Debug().
		Int("rows", len(rows)).
		Int("products", len(out)).
		Msg("Built product series")

	return out
}

func (b *Builder) fromDaily(key string, daily map[time.Time]float64) contracts.ProductSeries {
	dates := make([]time.Time, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	raw := contracts.DailySeries{Product: key, Points: make([]contracts.Point, len(dates))}
	for i, d := range dates {
		raw.Points[i] = contracts.Point{Date: d, Value: daily[d]}
	}

	smoothedValues := RollingMean(raw.Values(), b.window)
	smoothed := contracts.DailySeries{Product: key, Points: make([]contracts.Point, len(dates))}
	for i, d := range dates {
		smoothed.Points[i] = contracts.Point{Date: d, Value: smoothedValues[i]}
	}

	return contracts.ProductSeries{
		Product:     key,
		DisplayName: contracts.DisplayName(key),
		Raw:         raw,
		Smoothed:    smoothed,
	}
}

// RollingMean computes the trailing mean over up to window values ending at each index.
// Index i only ever reads values[max(0, i-window+1) .. i].
func RollingMean(values []float64, window int) []float64 {
	if window <= 0 {
		window = 1
	}

	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := window
		if i+1 < window {
			n = i + 1
		}
		out[i] = sum / float64(n)
	}
	return out
}

// BuildHolidayCalendar derives the festival calendar from rows with the festival flag set.
// Blank names are replaced with Festival_<n>, numbered in date order.
func BuildHolidayCalendar(rows []contracts.SaleRow) contracts.HolidayCalendar {
	byDate := make(map[time.Time]string)
	for _, row := range rows {
		if !row.FestivalFlag {
			continue
		}
		day := contracts.Day(row.Date)
		if name, seen := byDate[day]; seen && name != "" {
			continue
		}
		byDate[day] = row.FestivalName
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	holidays := make([]contracts.Holiday, 0, len(dates))
	unnamed := 0
	for _, d := range dates {
		name := byDate[d]
		if name == "" {
			unnamed++
			name = fmt.Sprintf("Festival_%d", unnamed)
		}
		holidays = append(holidays, contracts.Holiday{Date: d, Name: name})
	}

	return contracts.NewHolidayCalendar(holidays)
}
