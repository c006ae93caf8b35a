package forecast

import (
	"fmt"
)

// Seasonal periods in days
const (
	WeeklyPeriod = 7.0
	YearlyPeriod = 365.25
)

// MinObservations is the shortest history a decomposition fit accepts (2 × weekly period)
const MinObservations = 2 * int(WeeklyPeriod)

// Config holds decomposition model parameters
type Config struct {
	Horizon int // future days past the last observation

	WeeklyOrder int // Fourier pairs for the weekly cycle
	YearlyOrder int // Fourier pairs for the yearly cycle, used only with ≥ 2 years of history

	ChangepointCount int     // candidate trend changepoints
	ChangepointRange float64 // fraction of history where changepoints may sit

	// Ridge penalties in scaled units; larger values shrink the matching coefficients harder
	ChangepointPenalty float64
	SeasonalityPenalty float64
	HolidayPenalty     float64

	HolidayWindow         int // ± days around each holiday covered by its indicator
	MinHolidayOccurrences int // in-history occurrences required before a holiday effect is fit

	IntervalWidth float64 // central coverage of the uncertainty band, e.g. 0.80
	FloorAtZero   bool    // demand cannot be negative
}

// DefaultConfig returns the reference model configuration
func DefaultConfig() Config {
	return Config{
		Horizon:               30,
		WeeklyOrder:           3,
		YearlyOrder:           10,
		ChangepointCount:      25,
		ChangepointRange:      0.8,
		ChangepointPenalty:    10,
		SeasonalityPenalty:    0.01,
		HolidayPenalty:        0.01,
		HolidayWindow:         0,
		MinHolidayOccurrences: 1,
		IntervalWidth:         0.80,
		FloorAtZero:           true,
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if c.WeeklyOrder < 0 || c.YearlyOrder < 0 {
		return fmt.Errorf("fourier orders must not be negative")
	}
	// 주간 주기: 7개 관측점 → 최대 3쌍
	if c.WeeklyOrder > 3 {
		return fmt.Errorf("weekly order must be at most 3, got %d", c.WeeklyOrder)
	}
	if c.ChangepointCount < 0 {
		return fmt.Errorf("changepoint count must not be negative, got %d", c.ChangepointCount)
	}
	if c.ChangepointRange <= 0 || c.ChangepointRange > 1 {
		return fmt.Errorf("changepoint range must be in (0, 1], got %v", c.ChangepointRange)
	}
	if c.ChangepointPenalty <= 0 || c.SeasonalityPenalty <= 0 || c.HolidayPenalty <= 0 {
		return fmt.Errorf("penalties must be positive")
	}
	if c.HolidayWindow < 0 {
		return fmt.Errorf("holiday window must not be negative, got %d", c.HolidayWindow)
	}
	if c.MinHolidayOccurrences < 1 {
		return fmt.Errorf("min holiday occurrences must be at least 1, got %d", c.MinHolidayOccurrences)
	}
	if c.IntervalWidth <= 0 || c.IntervalWidth >= 1 {
		return fmt.Errorf("interval width must be in (0, 1), got %v", c.IntervalWidth)
	}
	return nil
}
