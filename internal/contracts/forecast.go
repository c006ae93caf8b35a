package contracts

import (
	"fmt"
	"time"
)

// Forecast methods
const (
	MethodDecomposition = "decomposition"
	MethodConstant      = "constant"
)

// ForecastPoint is one forecast row
type ForecastPoint struct {
	Date       time.Time `json:"date"`
	Predicted  float64   `json:"predicted"`
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
}

// ForecastSeries covers the historical fit range plus the future horizon of one product.
// A re-run replaces it wholesale.
type ForecastSeries struct {
	Product       string          `json:"product"`
	Method        string          `json:"method"`
	FittedThrough time.Time       `json:"fitted_through"` // last historical date used for fitting
	Horizon       int             `json:"horizon"`
	Points        []ForecastPoint `json:"points"`
}

// Len returns the number of rows
func (f ForecastSeries) Len() int {
	return len(f.Points)
}

// Future returns the rows dated after FittedThrough
func (f ForecastSeries) Future() []ForecastPoint {
	var out []ForecastPoint
	for _, p := range f.Points {
		if p.Date.After(f.FittedThrough) {
			out = append(out, p)
		}
	}
	return out
}

// At returns the row for date, if present
func (f ForecastSeries) At(date time.Time) (ForecastPoint, bool) {
	key := DateKey(date)
	for _, p := range f.Points {
		if DateKey(p.Date) == key {
			return p, true
		}
	}
	return ForecastPoint{}, false
}

// Validate checks row ordering and lower <= predicted <= upper on every row
func (f ForecastSeries) Validate() error {
	for i, p := range f.Points {
		if i > 0 && !p.Date.After(f.Points[i-1].Date) {
			return fmt.Errorf("%w: forecast %s not strictly increasing at %s", ErrSchema, f.Product, DateKey(p.Date))
		}
		if !(p.LowerBound <= p.Predicted && p.Predicted <= p.UpperBound) {
			return fmt.Errorf("%w: forecast %s bounds out of order at %s (%.4f <= %.4f <= %.4f)",
				ErrSchema, f.Product, DateKey(p.Date), p.LowerBound, p.Predicted, p.UpperBound)
		}
	}
	return nil
}
