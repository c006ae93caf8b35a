package contracts

import (
	"fmt"
	"time"
)

// DateLayout is the canonical on-disk date format
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day at UTC midnight.
// The calendar date is taken in t's own location so local timestamps keep their day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats the calendar day of t
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of whole days from a to b
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Point is one (date, value) observation
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DailySeries is the ordered daily series of one product.
// Dates are strictly increasing; gaps are allowed.
type DailySeries struct {
	Product string  `json:"product"`
	Points  []Point `json:"points"`
}

// Len returns the number of observations
func (s DailySeries) Len() int {
	return len(s.Points)
}

// IsEmpty reports whether the series has no observations
func (s DailySeries) IsEmpty() bool {
	return len(s.Points) == 0
}

// First returns the first observed date
func (s DailySeries) First() time.Time {
	if s.IsEmpty() {
		return time.Time{}
	}
	return s.Points[0].Date
}

// Last returns the last observed date
func (s DailySeries) Last() time.Time {
	if s.IsEmpty() {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// Values returns a copy of the observed values in date order
func (s DailySeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Dates returns the observed dates in order
func (s DailySeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

// Index maps date keys to values
func (s DailySeries) Index() map[string]float64 {
	idx := make(map[string]float64, len(s.Points))
	for _, p := range s.Points {
		idx[DateKey(p.Date)] = p.Value
	}
	return idx
}

// Before returns the prefix of the series dated strictly before cutoff
func (s DailySeries) Before(cutoff time.Time) DailySeries {
	out := DailySeries{Product: s.Product}
	for _, p := range s.Points {
		if p.Date.Before(cutoff) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// Between returns the observations with from <= date <= to
func (s DailySeries) Between(from, to time.Time) DailySeries {
	out := DailySeries{Product: s.Product}
	for _, p := range s.Points {
		if !p.Date.Before(from) && !p.Date.After(to) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// Validate checks that dates are strictly increasing with no duplicates
func (s DailySeries) Validate() error {
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i].Date.After(s.Points[i-1].Date) {
			return fmt.Errorf("%w: series %s not strictly increasing at %s",
				ErrSchema, s.Product, DateKey(s.Points[i].Date))
		}
	}
	return nil
}

// ProductSeries bundles the raw daily sums and the smoothed training series of one product
type ProductSeries struct {
	Product     string      `json:"product"`
	DisplayName string      `json:"display_name"`
	Raw         DailySeries `json:"raw"`
	Smoothed    DailySeries `json:"smoothed"`
}
