package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/faviy/demandcast/internal/contracts"
)

// =============================================================================
// Decomposition Model
// =============================================================================

// Model fits value(t) = trend(t) + weekly(t) + yearly(t) + holiday(t) + noise
// ⭐ SSOT: 수요 분해 예측 모델
type Model struct {
	cfg    Config
	logger zerolog.Logger
}

// NewModel creates a decomposition model
func NewModel(cfg Config, logger zerolog.Logger) *Model {
	return &Model{
		cfg:    cfg,
		logger: logger.With().Str("component", "forecast.model").Logger(),
	}
}

// Config returns the model configuration
func (m *Model) Config() Config {
	return m.cfg
}

// Components is the additive breakdown of one prediction in demand units
type Components struct {
	Trend   float64 `json:"trend"`
	Weekly  float64 `json:"weekly"`
	Yearly  float64 `json:"yearly"`
	Holiday float64 `json:"holiday"`
}

// Total returns the sum of all components
func (c Components) Total() float64 {
	return c.Trend + c.Weekly + c.Yearly + c.Holiday
}

// Fitted is an immutable fitted model of one product series
type Fitted struct {
	product string
	cfg     Config
	layout  layout
	last    time.Time
	n       int

	beta   []float64 // coefficients in scaled units
	yScale float64

	// 불확실성 추정
	sigma   float64 // residual stddev, demand units
	tMean   float64
	tSxx    float64
	rho     float64 // changepoints per day
	deltaSq float64 // mean squared slope change, (units/day)²
	z       float64
}

// Fit estimates the decomposition on series
func (m *Model) Fit(series contracts.DailySeries, holidays contracts.HolidayCalendar) (*Fitted, error) {
	if err := m.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("model config: %w", err)
	}
	if series.IsEmpty() {
		return nil, fmt.Errorf("%s: %w", series.Product, contracts.ErrEmptySeries)
	}
	if series.Len() < MinObservations {
		return nil, fmt.Errorf("%s has %d observations, need %d: %w",
			series.Product, series.Len(), MinObservations, contracts.ErrInsufficientHistory)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	for _, p := range series.Points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("%w: %s has non-finite value at %s", contracts.ErrSchema, series.Product, contracts.DateKey(p.Date))
		}
	}

	first, last := contracts.Day(series.First()), contracts.Day(series.Last())
	spanDays := float64(contracts.DaysBetween(first, last))
	n := series.Len()

	// Step 1: 설계 행렬 구성
	l := layout{
		first:       first,
		spanDays:    spanDays,
		weeklyOrder: m.cfg.WeeklyOrder,
		window:      m.cfg.HolidayWindow,
	}
	if spanDays >= 2*YearlyPeriod {
		l.yearlyOrder = m.cfg.YearlyOrder
	}

	t := make([]float64, n)
	for i, p := range series.Points {
		t[i] = l.scaledTime(p.Date)
	}
	l.changepoints = placeChangepoints(t, m.cfg.ChangepointCount, m.cfg.ChangepointRange)
	l.holidays = selectHolidays(series.Dates(), holidays, m.cfg.HolidayWindow, m.cfg.MinHolidayOccurrences)

	yScale := 0.0
	for _, p := range series.Points {
		yScale = math.Max(yScale, math.Abs(p.Value))
	}
	if yScale == 0 {
		yScale = 1
	}

	cols := l.width()
	penalties := m.penalties(l)
	rows := n
	for _, lambda := range penalties {
		if lambda > 0 {
			rows++
		}
	}

	a := mat.NewDense(rows, cols, nil)
	b := mat.NewVecDense(rows, nil)
	buf := make([]float64, cols)
	for i, p := range series.Points {
		l.row(p.Date, buf)
		a.SetRow(i, buf)
		b.SetVec(i, p.Value/yScale)
	}

	// Step 2: 릿지 패널티 행 추가 (절편, 기울기 제외)
	r := n
	for col, lambda := range penalties {
		if lambda == 0 {
			continue
		}
		a.Set(r, col, math.Sqrt(lambda))
		r++
	}

	// Step 3: QR 최소제곱
	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve %s: %w", series.Product, err)
		}
		m.logger.Warn().
			Str("product", series.Product).
			Float64("condition", float64(cond)).
			Msg("Ill-conditioned design matrix")
	}

	f := &Fitted{
		product: series.Product,
		cfg:     m.cfg,
		layout:  l,
		last:    last,
		n:       n,
		beta:    make([]float64, cols),
		yScale:  yScale,
		z:       distuv.UnitNormal.Quantile(0.5 + m.cfg.IntervalWidth/2),
	}
	for j := 0; j < cols; j++ {
		f.beta[j] = beta.AtVec(j)
	}

	f.estimateUncertainty(series, t)

	m.logger.Debug().
		Str("product", series.Product).
		Int("observations", n).
		Int("columns", cols).
		Int("changepoints", len(l.changepoints)).
		Int("holidays", len(l.holidays)).
		Bool("yearly", l.yearlyOrder > 0).
		Float64("sigma", f.sigma).
		Msg("Model fitted")

	return f, nil
}

// penalties returns the ridge weight of every design column; zero means unpenalized
func (m *Model) penalties(l layout) []float64 {
	out := make([]float64, l.width())
	for j := range l.changepoints {
		out[l.hingeOffset()+j] = m.cfg.ChangepointPenalty
	}
	for j := 0; j < 2*(l.weeklyOrder+l.yearlyOrder); j++ {
		out[l.weeklyOffset()+j] = m.cfg.SeasonalityPenalty
	}
	for j := range l.holidays {
		out[l.holidayOffset()+j] = m.cfg.HolidayPenalty
	}
	return out
}

func (f *Fitted) estimateUncertainty(series contracts.DailySeries, t []float64) {
	residuals := make([]float64, series.Len())
	for i, p := range series.Points {
		residuals[i] = p.Value - f.Predict(p.Date)
	}
	f.sigma = stat.StdDev(residuals, nil)

	f.tMean = stat.Mean(t, nil)
	for _, x := range t {
		f.tSxx += (x - f.tMean) * (x - f.tMean)
	}

	cps := f.layout.changepoints
	if len(cps) == 0 {
		return
	}
	// 기울기 변화량: scaled → units/day
	var sum float64
	for j := range cps {
		delta := f.beta[f.layout.hingeOffset()+j] * f.yScale / f.layout.spanDays
		sum += delta * delta
	}
	f.deltaSq = sum / float64(len(cps))
	f.rho = float64(len(cps)) / f.layout.spanDays
}

// Product returns the fitted product key
func (f *Fitted) Product() string {
	return f.product
}

// LastObserved returns the last historical date of the fit
func (f *Fitted) LastObserved() time.Time {
	return f.last
}

// Sigma returns the in-sample residual standard deviation
func (f *Fitted) Sigma() float64 {
	return f.sigma
}

// HolidayNames returns the holidays that received a fitted effect
func (f *Fitted) HolidayNames() []string {
	out := make([]string, len(f.layout.holidays))
	for i, h := range f.layout.holidays {
		out[i] = h.name
	}
	return out
}

// YearlyEnabled reports whether the history was long enough for a yearly component
func (f *Fitted) YearlyEnabled() bool {
	return f.layout.yearlyOrder > 0
}

// Components returns the additive breakdown at date
func (f *Fitted) Components(date time.Time) Components {
	l := f.layout
	x := make([]float64, l.width())
	l.row(date, x)

	sum := func(from, to int) float64 {
		var s float64
		for j := from; j < to; j++ {
			s += f.beta[j] * x[j]
		}
		return s * f.yScale
	}

	return Components{
		Trend:   sum(0, l.weeklyOffset()),
		Weekly:  sum(l.weeklyOffset(), l.yearlyOffset()),
		Yearly:  sum(l.yearlyOffset(), l.holidayOffset()),
		Holiday: sum(l.holidayOffset(), l.width()),
	}
}

// Predict returns the unfloored point prediction at date
func (f *Fitted) Predict(date time.Time) float64 {
	return f.Components(date).Total()
}

// stddev returns the predictive standard deviation at date
func (f *Fitted) stddev(date time.Time) float64 {
	x := f.layout.scaledTime(date)
	v := f.sigma * f.sigma * (1 + 1/float64(f.n) + (x-f.tMean)*(x-f.tMean)/f.tSxx)

	// 추세 불확실성: 관측 마지막 이후 h일 동안 누적
	if h := float64(contracts.DaysBetween(f.last, date)); h > 0 {
		v += f.rho * f.deltaSq * h * h * h / 3
	}
	return math.Sqrt(v)
}

// Interval returns the unfloored uncertainty band at date
func (f *Fitted) Interval(date time.Time) (lower, upper float64) {
	yhat := f.Predict(date)
	half := f.z * f.stddev(date)
	return yhat - half, yhat + half
}

// Forecast produces one row per calendar day from the first observation through last+horizon
func (f *Fitted) Forecast(horizon int) contracts.ForecastSeries {
	end := f.last.AddDate(0, 0, horizon)

	out := contracts.ForecastSeries{
		Product:       f.product,
		Method:        contracts.MethodDecomposition,
		FittedThrough: f.last,
		Horizon:       horizon,
	}
	for d := f.layout.first; !d.After(end); d = d.AddDate(0, 0, 1) {
		yhat := f.Predict(d)
		half := f.z * f.stddev(d)
		out.Points = append(out.Points, point(d, yhat, yhat-half, yhat+half, f.cfg.FloorAtZero))
	}
	return out
}

// Forecast fits series and forecasts horizon days past its last observation
func (m *Model) Forecast(series contracts.DailySeries, holidays contracts.HolidayCalendar, horizon int) (contracts.ForecastSeries, error) {
	if horizon <= 0 {
		return contracts.ForecastSeries{}, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	fitted, err := m.Fit(series, holidays)
	if err != nil {
		return contracts.ForecastSeries{}, err
	}
	return fitted.Forecast(horizon), nil
}

func point(date time.Time, yhat, lower, upper float64, floor bool) contracts.ForecastPoint {
	if floor {
		yhat = math.Max(0, yhat)
		lower = math.Max(0, lower)
		upper = math.Max(0, upper)
	}
	return contracts.ForecastPoint{Date: date, Predicted: yhat, LowerBound: lower, UpperBound: upper}
}
