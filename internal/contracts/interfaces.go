package contracts

import "context"

// SeriesBuilder turns raw rows into per-product daily series
// ⭐ SSOT: 시계열 생성 인터페이스
type SeriesBuilder interface {
	BuildAll(rows []SaleRow) []ProductSeries
}

// Forecaster fits a series and forecasts horizon days past its last observation
// ⭐ SSOT: 예측 모델 인터페이스
type Forecaster interface {
	Forecast(series DailySeries, holidays HolidayCalendar, horizon int) (ForecastSeries, error)
}

// ForecastStore persists one forecast per product with replace-on-save semantics
// ⭐ SSOT: 예측 저장소 인터페이스
type ForecastStore interface {
	Save(ctx context.Context, product string, forecast ForecastSeries) error
	Load(ctx context.Context, product string) (ForecastSeries, error)
	List(ctx context.Context) ([]string, error)
}

// AccuracyEvaluator scores a forecast against actuals
// ⭐ SSOT: 정확도 평가 인터페이스
type AccuracyEvaluator interface {
	Evaluate(forecast ForecastSeries, actual DailySeries) (AccuracyRecord, error)
}
