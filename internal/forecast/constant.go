package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/faviy/demandcast/internal/contracts"
)

// ConstantForecast is the degenerate fallback for series too short to decompose.
// The level is the series mean; the band is the residual stddev widened with
// the mean's standard error accumulated over the horizon, σ²(1 + (1+h)/n).
func ConstantForecast(series contracts.DailySeries, cfg Config) (contracts.ForecastSeries, error) {
	if series.IsEmpty() {
		return contracts.ForecastSeries{}, fmt.Errorf("%s: %w", series.Product, contracts.ErrEmptySeries)
	}
	if cfg.Horizon <= 0 {
		return contracts.ForecastSeries{}, fmt.Errorf("horizon must be positive, got %d", cfg.Horizon)
	}
	if cfg.IntervalWidth <= 0 || cfg.IntervalWidth >= 1 {
		return contracts.ForecastSeries{}, fmt.Errorf("interval width must be in (0, 1), got %v", cfg.IntervalWidth)
	}
	if err := series.Validate(); err != nil {
		return contracts.ForecastSeries{}, err
	}

	values := series.Values()
	n := float64(len(values))
	level := stat.Mean(values, nil)

	sigma := 0.0
	if len(values) > 1 {
		sigma = stat.StdDev(values, nil)
	}
	z := distuv.UnitNormal.Quantile(0.5 + cfg.IntervalWidth/2)

	first, last := contracts.Day(series.First()), contracts.Day(series.Last())
	end := last.AddDate(0, 0, cfg.Horizon)

	out := contracts.ForecastSeries{
		Product:       series.Product,
		Method:        contracts.MethodConstant,
		FittedThrough: last,
		Horizon:       cfg.Horizon,
	}
	for d := first; !d.After(end); d = d.AddDate(0, 0, 1) {
		h := math.Max(0, float64(contracts.DaysBetween(last, d)))
		half := z * sigma * math.Sqrt(1+(1+h)/n)
		out.Points = append(out.Points, point(d, level, level-half, level+half, cfg.FloorAtZero))
	}
	return out, nil
}

// ConstantModel adapts ConstantForecast to the Forecaster interface
type ConstantModel struct {
	Config Config
}

// Forecast ignores holidays; the constant level has no calendar effects
func (c ConstantModel) Forecast(series contracts.DailySeries, _ contracts.HolidayCalendar, horizon int) (contracts.ForecastSeries, error) {
	cfg := c.Config
	cfg.Horizon = horizon
	return ConstantForecast(series, cfg)
}
