package contracts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestProductKey(t *testing.T) {
	tests := []struct {
		display string
		want    string
	}{
		{"Milk", "milk"},
		{"Paneer (Cottage Cheese)", "paneer_cottage_cheese"},
		{"Milk/Toned", "milk_toned"},
		{"  Ghee  ", "ghee"},
		{"Curd - Plain", "curd_plain"},
		{"already_a_key", "already_a_key"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			assert.Equal(t, tt.want, ProductKey(tt.display))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Paneer Cottage Cheese", DisplayName("paneer_cottage_cheese"))
	assert.Equal(t, "Milk", DisplayName("milk"))
	assert.Equal(t, "", DisplayName(""))

	// key -> display -> key is stable
	for _, key := range []string{"milk_toned", "butter", "flavored_yogurt"} {
		assert.Equal(t, key, ProductKey(DisplayName(key)))
	}
}

func TestDay(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2024, 3, 8, 23, 30, 0, 0, ist)

	d := Day(local)
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, "2024-03-08", DateKey(d))
	assert.Equal(t, 0, d.Hour())

	assert.Equal(t, 31, DaysBetween(date("2024-01-01"), date("2024-02-01")))
}

func TestDailySeries_Validate(t *testing.T) {
	tests := []struct {
		name    string
		dates   []string
		wantErr bool
	}{
		{"empty", nil, false},
		{"single", []string{"2024-01-01"}, false},
		{"increasing with gap", []string{"2024-01-01", "2024-01-02", "2024-01-05"}, false},
		{"duplicate", []string{"2024-01-01", "2024-01-01"}, true},
		{"decreasing", []string{"2024-01-02", "2024-01-01"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DailySeries{Product: "milk"}
			for _, d := range tt.dates {
				s.Points = append(s.Points, Point{Date: date(d), Value: 1})
			}

			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSchema)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDailySeries_Accessors(t *testing.T) {
	s := DailySeries{Product: "milk", Points: []Point{
		{Date: date("2024-01-01"), Value: 10},
		{Date: date("2024-01-02"), Value: 20},
		{Date: date("2024-01-04"), Value: 40},
	}}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, date("2024-01-01"), s.First())
	assert.Equal(t, date("2024-01-04"), s.Last())
	assert.Equal(t, []float64{10, 20, 40}, s.Values())
	assert.Len(t, s.Dates(), 3)
	assert.Equal(t, 20.0, s.Index()["2024-01-02"])

	assert.Equal(t, 2, s.Before(date("2024-01-04")).Len())
	assert.Equal(t, []float64{20, 40}, s.Between(date("2024-01-02"), date("2024-01-10")).Values())

	var empty DailySeries
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.First().IsZero())
	assert.True(t, empty.Last().IsZero())
}

func TestHolidayCalendar(t *testing.T) {
	cal := NewHolidayCalendar([]Holiday{
		{Date: date("2024-11-01"), Name: "Diwali"},
		{Date: date("2024-03-25"), Name: "Holi"},
		{Date: date("2024-11-01"), Name: "Duplicate"},
	})

	assert.Equal(t, 2, cal.Len())
	assert.True(t, cal.Contains(date("2024-03-25")))
	assert.False(t, cal.Contains(date("2024-03-26")))

	name, ok := cal.Name(date("2024-11-01"))
	require.True(t, ok)
	assert.Equal(t, "Diwali", name)

	holidays := cal.Holidays()
	require.Len(t, holidays, 2)
	assert.Equal(t, "Holi", holidays[0].Name)

	// returned slice is a copy
	holidays[0].Name = "changed"
	assert.Equal(t, "Holi", cal.Holidays()[0].Name)

	var zero HolidayCalendar
	assert.False(t, zero.Contains(date("2024-01-01")))
	assert.Equal(t, 0, zero.Len())
}

func TestForecastSeries_Validate(t *testing.T) {
	ok := ForecastSeries{Product: "milk", Points: []ForecastPoint{
		{Date: date("2024-01-01"), Predicted: 10, LowerBound: 8, UpperBound: 12},
		{Date: date("2024-01-02"), Predicted: 0, LowerBound: 0, UpperBound: 0},
	}}
	assert.NoError(t, ok.Validate())

	inverted := ForecastSeries{Product: "milk", Points: []ForecastPoint{
		{Date: date("2024-01-01"), Predicted: 10, LowerBound: 11, UpperBound: 12},
	}}
	assert.ErrorIs(t, inverted.Validate(), ErrSchema)

	unordered := ForecastSeries{Product: "milk", Points: []ForecastPoint{
		{Date: date("2024-01-02"), Predicted: 1, LowerBound: 0, UpperBound: 2},
		{Date: date("2024-01-01"), Predicted: 1, LowerBound: 0, UpperBound: 2},
	}}
	assert.ErrorIs(t, unordered.Validate(), ErrSchema)
}

func TestForecastSeries_Future(t *testing.T) {
	f := ForecastSeries{
		Product:       "milk",
		FittedThrough: date("2024-01-02"),
		Points: []ForecastPoint{
			{Date: date("2024-01-01")},
			{Date: date("2024-01-02")},
			{Date: date("2024-01-03")},
			{Date: date("2024-01-04")},
		},
	}

	future := f.Future()
	require.Len(t, future, 2)
	assert.Equal(t, date("2024-01-03"), future[0].Date)

	p, found := f.At(date("2024-01-04"))
	assert.True(t, found)
	assert.Equal(t, date("2024-01-04"), p.Date)

	_, found = f.At(date("2025-01-01"))
	assert.False(t, found)
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInsufficientHistory, ReasonInsufficientHistory},
		{ErrEmptySeries, ReasonInsufficientHistory},
		{fmt.Errorf("fit milk: %w", ErrInsufficientHistory), ReasonInsufficientHistory},
		{fmt.Errorf("evaluate: %w", ErrNoOverlap), ReasonNoOverlap},
		{ErrUndefinedMAPE, ReasonUndefinedMAPE},
		{ErrMissingArtifact, ReasonMissingArtifact},
		{ErrNotFound, ReasonMissingArtifact},
		{fmt.Errorf("header: %w", ErrSchema), ReasonSchema},
		{context.Canceled, ReasonCanceled},
		{errors.New("boom"), ReasonInternal},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.err))
		})
	}

	assert.True(t, errors.Is(ErrEmptySeries, ErrInsufficientHistory))
}

func TestAccuracySummary_SortBy(t *testing.T) {
	s := AccuracySummary{Records: []AccuracyRecord{
		{Product: "curd", MAE: 3, MAPE: 12.5},
		{Product: "milk", MAE: 1, MAPE: 3.1},
		{Product: "ghee", MAE: 2, MAPE: 8.0},
		{Product: "butter", MAE: 2, MAPE: 8.0},
	}}

	s.SortBy(MetricMAPE, false)
	assert.Equal(t, []string{"milk", "butter", "ghee", "curd"}, products(s))
	assert.Equal(t, MetricMAPE, s.SortedBy)

	s.SortBy(MetricMAE, true)
	assert.Equal(t, []string{"curd", "butter", "ghee", "milk"}, products(s))

	s.SortBy(MetricProduct, false)
	assert.Equal(t, []string{"butter", "curd", "ghee", "milk"}, products(s))

	s.SortBy("bogus", false)
	assert.Equal(t, MetricMAPE, s.SortedBy)

	r, ok := s.Record("ghee")
	assert.True(t, ok)
	assert.Equal(t, 8.0, r.MAPE)
}

func TestNewProductFailure(t *testing.T) {
	f := NewProductFailure("milk", "forecast", fmt.Errorf("fit: %w", ErrInsufficientHistory))
	assert.Equal(t, "milk", f.Product)
	assert.Equal(t, ReasonInsufficientHistory, f.Reason)
	assert.Contains(t, f.Err, "insufficient history")
}

func products(s AccuracySummary) []string {
	out := make([]string, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Product
	}
	return out
}
