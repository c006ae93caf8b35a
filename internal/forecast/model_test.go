package forecast

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faviy/demandcast/internal/contracts"
)

// 2023-01-02 is a Monday
var start = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return start.AddDate(0, 0, n)
}

func isWeekend(n int) bool {
	return n%7 == 5 || n%7 == 6
}

func makeSeries(n int, value func(i int) float64) contracts.DailySeries {
	s := contracts.DailySeries{Product: "milk", Points: make([]contracts.Point, n)}
	for i := 0; i < n; i++ {
		s.Points[i] = contracts.Point{Date: day(i), Value: value(i)}
	}
	return s
}

func weeklyPattern(holidays map[int]bool) func(i int) float64 {
	return func(i int) float64 {
		v := 100.0
		if isWeekend(i) {
			v = 60
		}
		if holidays[i] {
			v += 50
		}
		return v
	}
}

func noisy(seed int64, level float64) func(i int) float64 {
	rng := rand.New(rand.NewSource(seed))
	return func(i int) float64 {
		return level + 10*math.Sin(2*math.Pi*float64(i)/7) + rng.NormFloat64()*5
	}
}

func newModel() *Model {
	return NewModel(DefaultConfig(), zerolog.Nop())
}

func TestForecast_WeeklyPatternWithHoliday(t *testing.T) {
	const (
		total       = 400
		horizon     = 30
		pastHoliday = 30
		nextHoliday = 385
	)
	holidayDays := map[int]bool{pastHoliday: true, nextHoliday: true}
	actual := makeSeries(total, weeklyPattern(holidayDays))
	training := actual.Before(day(total - horizon))
	require.Equal(t, total-horizon, training.Len())

	cal := contracts.NewHolidayCalendar([]contracts.Holiday{
		{Date: day(pastHoliday), Name: "Festival"},
		{Date: day(nextHoliday), Name: "Festival"},
	})

	fc, err := newModel().Forecast(training, cal, horizon)
	require.NoError(t, err)
	require.NoError(t, fc.Validate())

	future := fc.Future()
	require.Len(t, future, horizon)
	pred := make(map[int]float64, len(future))
	for _, p := range future {
		pred[contracts.DaysBetween(start, p.Date)] = p.Predicted
	}

	// (a) holiday beats the surrounding week
	for d := nextHoliday - 3; d <= nextHoliday+3; d++ {
		if d == nextHoliday {
			continue
		}
		assert.Greater(t, pred[nextHoliday], pred[d], "holiday vs day %d", d)
	}

	// (b) weekends below weekdays
	var weekend, weekday []float64
	for d, v := range pred {
		switch {
		case holidayDays[d]:
		case isWeekend(d):
			weekend = append(weekend, v)
		default:
			weekday = append(weekday, v)
		}
	}
	require.NotEmpty(t, weekend)
	require.NotEmpty(t, weekday)
	for _, we := range weekend {
		for _, wd := range weekday {
			assert.Less(t, we, wd)
		}
	}

	// (c) accurate against the held-out month
	var ape float64
	for _, p := range future {
		a := actual.Index()[contracts.DateKey(p.Date)]
		ape += math.Abs(a-p.Predicted) / a
	}
	mape := ape / float64(len(future)) * 100
	assert.Less(t, mape, 20.0)
	assert.Less(t, mape, 1.0, "noise-free pattern should be recovered almost exactly")
}

func TestForecast_HorizonLength(t *testing.T) {
	series := makeSeries(60, noisy(1, 100))

	for _, h := range []int{1, 7, 30, 45} {
		fc, err := newModel().Forecast(series, contracts.HolidayCalendar{}, h)
		require.NoError(t, err)

		assert.Len(t, fc.Future(), h)
		assert.Equal(t, 60+h, fc.Len(), "rows cover history plus horizon")
		assert.Equal(t, series.First(), fc.Points[0].Date)
		assert.Equal(t, series.Last().AddDate(0, 0, h), fc.Points[fc.Len()-1].Date)
		assert.Equal(t, series.Last(), fc.FittedThrough)
		assert.Equal(t, contracts.MethodDecomposition, fc.Method)
	}

	_, err := newModel().Forecast(series, contracts.HolidayCalendar{}, 0)
	assert.Error(t, err)
}

func TestForecast_CoversGaps(t *testing.T) {
	series := makeSeries(40, noisy(2, 80))
	// drop a few observed days; the forecast still has a row for every calendar day
	series.Points = append(series.Points[:10], series.Points[15:]...)

	fc, err := newModel().Forecast(series, contracts.HolidayCalendar{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 40+5, fc.Len())
	require.NoError(t, fc.Validate())
}

func TestForecast_BoundsOrdered(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 4, 5} {
		series := makeSeries(120, noisy(seed, 20))
		fc, err := newModel().Forecast(series, contracts.HolidayCalendar{}, 30)
		require.NoError(t, err)

		for _, p := range fc.Points {
			assert.LessOrEqual(t, p.LowerBound, p.Predicted)
			assert.LessOrEqual(t, p.Predicted, p.UpperBound)
		}
	}
}

func TestForecast_IntervalWidens(t *testing.T) {
	series := makeSeries(200, noisy(7, 500))
	fc, err := newModel().Forecast(series, contracts.HolidayCalendar{}, 60)
	require.NoError(t, err)

	future := fc.Future()
	prev := 0.0
	for i, p := range future {
		width := p.UpperBound - p.LowerBound
		assert.Greater(t, width, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, width, prev, "width shrank at horizon day %d", i+1)
		}
		prev = width
	}
	assert.Greater(t, prev, future[0].UpperBound-future[0].LowerBound)
}

func TestForecast_LinearTrend(t *testing.T) {
	series := makeSeries(90, func(i int) float64 { return 10 + 2*float64(i) })
	fitted, err := newModel().Fit(series, contracts.HolidayCalendar{})
	require.NoError(t, err)

	for _, d := range []int{0, 45, 89, 100, 119} {
		want := 10 + 2*float64(d)
		assert.InDelta(t, want, fitted.Predict(day(d)), want*1e-3, "day %d", d)
	}
}

func TestForecast_FloorAtZero(t *testing.T) {
	series := makeSeries(60, func(i int) float64 { return 100 - 1.6*float64(i) })

	fc, err := newModel().Forecast(series, contracts.HolidayCalendar{}, 60)
	require.NoError(t, err)
	require.NoError(t, fc.Validate())
	for _, p := range fc.Points {
		assert.GreaterOrEqual(t, p.LowerBound, 0.0)
		assert.GreaterOrEqual(t, p.Predicted, 0.0)
	}
	assert.Equal(t, 0.0, fc.Points[fc.Len()-1].Predicted)

	cfg := DefaultConfig()
	cfg.FloorAtZero = false
	raw, err := NewModel(cfg, zerolog.Nop()).Forecast(series, contracts.HolidayCalendar{}, 60)
	require.NoError(t, err)
	assert.Less(t, raw.Points[raw.Len()-1].Predicted, 0.0)
}

func TestFit_InsufficientHistory(t *testing.T) {
	_, err := newModel().Fit(makeSeries(MinObservations-1, noisy(1, 10)), contracts.HolidayCalendar{})
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)

	_, err = newModel().Fit(contracts.DailySeries{Product: "milk"}, contracts.HolidayCalendar{})
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)

	_, err = newModel().Fit(makeSeries(MinObservations, noisy(1, 10)), contracts.HolidayCalendar{})
	assert.NoError(t, err)
}

func TestFit_RejectsMalformedSeries(t *testing.T) {
	series := makeSeries(30, noisy(1, 10))
	series.Points[5].Date = series.Points[4].Date
	_, err := newModel().Fit(series, contracts.HolidayCalendar{})
	assert.ErrorIs(t, err, contracts.ErrSchema)

	series = makeSeries(30, noisy(1, 10))
	series.Points[3].Value = math.NaN()
	_, err = newModel().Fit(series, contracts.HolidayCalendar{})
	assert.ErrorIs(t, err, contracts.ErrSchema)
}

func TestFit_Deterministic(t *testing.T) {
	series := makeSeries(150, noisy(9, 40))
	cal := contracts.NewHolidayCalendar([]contracts.Holiday{
		{Date: day(20), Name: "Holi"},
		{Date: day(90), Name: "Diwali"},
	})

	a, err := newModel().Forecast(series, cal, 30)
	require.NoError(t, err)
	b, err := newModel().Forecast(series, cal, 30)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFit_YearlyNeedsTwoYears(t *testing.T) {
	short, err := newModel().Fit(makeSeries(400, noisy(1, 50)), contracts.HolidayCalendar{})
	require.NoError(t, err)
	assert.False(t, short.YearlyEnabled())

	long, err := newModel().Fit(makeSeries(800, func(i int) float64 {
		return 50 + 20*math.Sin(2*math.Pi*float64(i)/YearlyPeriod)
	}), contracts.HolidayCalendar{})
	require.NoError(t, err)
	assert.True(t, long.YearlyEnabled())
	assert.NotZero(t, long.Components(day(100)).Yearly)
}

func TestFit_HolidaySelection(t *testing.T) {
	series := makeSeries(60, noisy(3, 30))
	cal := contracts.NewHolidayCalendar([]contracts.Holiday{
		{Date: day(10), Name: "Holi"},
		{Date: day(70), Name: "Diwali"}, // only in the future, no effect can be fit
	})

	fitted, err := newModel().Fit(series, cal)
	require.NoError(t, err)
	assert.Equal(t, []string{"Holi"}, fitted.HolidayNames())
	assert.Zero(t, fitted.Components(day(70)).Holiday)

	cfg := DefaultConfig()
	cfg.MinHolidayOccurrences = 2
	fitted, err = NewModel(cfg, zerolog.Nop()).Fit(series, cal)
	require.NoError(t, err)
	assert.Empty(t, fitted.HolidayNames())
}

func TestFitted_ComponentsSumToPrediction(t *testing.T) {
	series := makeSeries(100, noisy(4, 70))
	cal := contracts.NewHolidayCalendar([]contracts.Holiday{{Date: day(50), Name: "Holi"}})

	fitted, err := newModel().Fit(series, cal)
	require.NoError(t, err)

	for _, d := range []int{0, 50, 99, 110} {
		c := fitted.Components(day(d))
		assert.InDelta(t, fitted.Predict(day(d)), c.Total(), 1e-9)
	}
	assert.NotZero(t, fitted.Components(day(50)).Holiday)
	assert.Zero(t, fitted.Components(day(51)).Holiday)

	lo, hi := fitted.Interval(day(110))
	assert.Less(t, lo, hi)
	assert.Greater(t, fitted.Sigma(), 0.0)
}

func TestConstantForecast(t *testing.T) {
	series := makeSeries(5, func(i int) float64 { return float64(10 + 2*i) })
	cfg := DefaultConfig()
	cfg.Horizon = 10

	fc, err := ConstantForecast(series, cfg)
	require.NoError(t, err)
	require.NoError(t, fc.Validate())

	assert.Equal(t, contracts.MethodConstant, fc.Method)
	assert.Len(t, fc.Future(), 10)
	assert.Equal(t, 15, fc.Len())
	for _, p := range fc.Points {
		assert.InDelta(t, 14.0, p.Predicted, 1e-9)
	}

	future := fc.Future()
	first := future[0].UpperBound - future[0].LowerBound
	last := future[len(future)-1].UpperBound - future[len(future)-1].LowerBound
	assert.Greater(t, last, first)

	single, err := ConstantForecast(makeSeries(1, func(int) float64 { return 3 }), cfg)
	require.NoError(t, err)
	assert.Equal(t, 3.0, single.Points[0].UpperBound)

	_, err = ConstantForecast(contracts.DailySeries{Product: "milk"}, cfg)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"zero horizon", func(c *Config) { c.Horizon = 0 }, true},
		{"weekly order too high", func(c *Config) { c.WeeklyOrder = 4 }, true},
		{"negative changepoints", func(c *Config) { c.ChangepointCount = -1 }, true},
		{"changepoint range", func(c *Config) { c.ChangepointRange = 0 }, true},
		{"zero penalty", func(c *Config) { c.HolidayPenalty = 0 }, true},
		{"interval width", func(c *Config) { c.IntervalWidth = 1 }, true},
		{"holiday window", func(c *Config) { c.HolidayWindow = -1 }, true},
		{"no changepoints", func(c *Config) { c.ChangepointCount = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlaceChangepoints(t *testing.T) {
	tv := make([]float64, 10)
	for i := range tv {
		tv[i] = float64(i) / 9
	}

	cps := placeChangepoints(tv, 25, 0.8)
	require.Len(t, cps, 7)
	assert.InDelta(t, tv[1], cps[0], 1e-12)
	assert.InDelta(t, tv[7], cps[6], 1e-12)

	assert.Empty(t, placeChangepoints(tv, 0, 0.8))
	assert.Len(t, placeChangepoints(tv, 3, 0.8), 3)
}

func TestConstantModel_ImplementsForecaster(t *testing.T) {
	var f contracts.Forecaster = ConstantModel{Config: DefaultConfig()}
	fc, err := f.Forecast(makeSeries(3, func(int) float64 { return 4 }), contracts.HolidayCalendar{}, 7)
	require.NoError(t, err)
	assert.Len(t, fc.Future(), 7)

	var _ contracts.Forecaster = newModel()
}
