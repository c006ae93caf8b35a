package evaluate

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/faviy/demandcast/internal/contracts"
)

// =============================================================================
// Accuracy Evaluator
// =============================================================================

// Evaluator scores forecasts against raw actuals
// ⭐ SSOT: 예측 vs 실제 정확도 계산
type Evaluator struct {
	logger zerolog.Logger
}

// NewEvaluator creates a new evaluator
func NewEvaluator(logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		logger: logger.With().Str("component", "evaluate.evaluator").Logger(),
	}
}

// Evaluate inner-joins forecast and actual on date and computes MAE, RMSE and MAPE.
// Rows with actual == 0 are excluded from MAPE only and counted in SkippedZeros.
func (e *Evaluator) Evaluate(forecast contracts.ForecastSeries, actual contracts.DailySeries) (contracts.AccuracyRecord, error) {
	if forecast.Product != "" && actual.Product != "" && forecast.Product != actual.Product {
		return contracts.AccuracyRecord{}, fmt.Errorf("product mismatch: forecast %q, actual %q", forecast.Product, actual.Product)
	}

	product := forecast.Product
	if product == "" {
		product = actual.Product
	}
	rec := contracts.AccuracyRecord{Product: product}

	// 날짜 기준 inner join
	predicted := make(map[string]float64, forecast.Len())
	for _, p := range forecast.Points {
		predicted[contracts.DateKey(p.Date)] = p.Predicted
	}

	var absSum, sqSum, apeSum float64
	mapeRows := 0
	for _, a := range actual.Points {
		yhat, ok := predicted[contracts.DateKey(a.Date)]
		if !ok {
			continue
		}
		diff := a.Value - yhat
		absSum += math.Abs(diff)
		sqSum += diff * diff
		rec.N++

		// 실제값 0 → MAPE 제외
		if a.Value == 0 {
			rec.SkippedZeros++
			continue
		}
		apeSum += math.Abs(diff) / math.Abs(a.Value)
		mapeRows++
	}

	if rec.N == 0 {
		return contracts.AccuracyRecord{}, fmt.Errorf("%s: %w", product, contracts.ErrNoOverlap)
	}
	if mapeRows == 0 {
		return contracts.AccuracyRecord{}, fmt.Errorf("%s: %d overlapping actuals are zero: %w", product, rec.N, contracts.ErrUndefinedMAPE)
	}

	rec.MAE = absSum / float64(rec.N)
	rec.RMSE = math.Sqrt(sqSum / float64(rec.N))
	rec.MAPE = apeSum / float64(mapeRows) * 100

	if rec.SkippedZeros > 0 {
		e.logger.Debug().
			Str("product", product).
			Int("skipped_zeros", rec.SkippedZeros).
			Msg("Zero actuals excluded from MAPE")
	}

	return rec, nil
}

// Restrict returns the observations of series with from <= date <= to
func Restrict(series contracts.DailySeries, from, to time.Time) contracts.DailySeries {
	return series.Between(contracts.Day(from), contracts.Day(to))
}

// HoldoutWindow splits series into training and the last days observations.
// days <= 0 returns the whole series for both.
func HoldoutWindow(series contracts.DailySeries, days int) (training, holdout contracts.DailySeries) {
	if days <= 0 || series.IsEmpty() {
		return series, series
	}
	cutoff := contracts.Day(series.Last()).AddDate(0, 0, -days+1)
	return series.Before(cutoff), Restrict(series, cutoff, series.Last())
}
