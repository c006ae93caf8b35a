package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/internal/evaluate"
	"github.com/faviy/demandcast/internal/forecast"
	"github.com/faviy/demandcast/internal/report"
	"github.com/faviy/demandcast/internal/store"
)

// Weekday mean 100, weekend mean 60, one named festival with a +50 lift that recurs
// inside the forecast month. The series is fed unsmoothed so the weekly shape survives.
func TestEndToEnd_WeeklyPatternAndHoliday(t *testing.T) {
	const (
		total   = 400
		horizon = 30
	)
	holidays := map[int]bool{30: true, 385: true}

	actual := contracts.DailySeries{Product: "milk"}
	for d := 0; d < total; d++ {
		v := 100.0
		if d%7 == 5 || d%7 == 6 { // start is a Monday
			v = 60
		}
		if holidays[d] {
			v += 50
		}
		actual.Points = append(actual.Points, contracts.Point{Date: start.AddDate(0, 0, d), Value: v})
	}
	cal := contracts.NewHolidayCalendar([]contracts.Holiday{
		{Date: start.AddDate(0, 0, 30), Name: "Diwali"},
		{Date: start.AddDate(0, 0, 385), Name: "Diwali"},
	})

	training, holdout := evaluate.HoldoutWindow(actual, horizon)
	require.Equal(t, total-horizon, training.Len())
	require.Equal(t, horizon, holdout.Len())

	model := forecast.NewModel(forecast.DefaultConfig(), zerolog.Nop())
	fc, err := model.Forecast(training, cal, horizon)
	require.NoError(t, err)
	require.NoError(t, fc.Validate())
	require.Len(t, fc.Future(), horizon)

	ms := store.NewMemoryStore()
	require.NoError(t, ms.Save(context.Background(), "milk", fc))
	loaded, err := ms.Load(context.Background(), "milk")
	require.NoError(t, err)

	at := func(d int) float64 {
		p, ok := loaded.At(start.AddDate(0, 0, d))
		require.True(t, ok, "day %d", d)
		return p.Predicted
	}

	// (a) holiday above the surrounding week
	for d := 382; d <= 388; d++ {
		if d != 385 {
			assert.Greater(t, at(385), at(d))
		}
	}

	// (b) weekend below weekday: day 376 is Saturday, 374 Thursday
	assert.Less(t, at(376), at(374))
	assert.Less(t, at(377), at(373))

	// (c) accuracy against the last 30 actual days
	rec, err := evaluate.NewEvaluator(zerolog.Nop()).Evaluate(loaded, holdout)
	require.NoError(t, err)
	assert.Equal(t, horizon, rec.N)
	assert.Less(t, rec.MAPE, 20.0)

	summary := report.Summarize([]contracts.AccuracyRecord{rec}, nil)
	require.Len(t, summary.Records, 1)
}
