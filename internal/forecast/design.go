package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/faviy/demandcast/internal/contracts"
)

// holidayTerm is one fitted holiday indicator: every calendar date carrying the name
type holidayTerm struct {
	name  string
	dates []time.Time
}

// layout fixes the design-matrix column order for one fit.
// [intercept, t, hinge×C, weekly sin/cos×W, yearly sin/cos×Y, holiday×H]
type layout struct {
	first    time.Time
	spanDays float64

	changepoints []float64 // in scaled time
	weeklyOrder  int
	yearlyOrder  int
	holidays     []holidayTerm
	window       int
}

func (l layout) width() int {
	return 2 + len(l.changepoints) + 2*l.weeklyOrder + 2*l.yearlyOrder + len(l.holidays)
}

func (l layout) hingeOffset() int   { return 2 }
func (l layout) weeklyOffset() int  { return l.hingeOffset() + len(l.changepoints) }
func (l layout) yearlyOffset() int  { return l.weeklyOffset() + 2*l.weeklyOrder }
func (l layout) holidayOffset() int { return l.yearlyOffset() + 2*l.yearlyOrder }

// scaledTime maps a date onto t where the first observation is 0 and the last is 1
func (l layout) scaledTime(date time.Time) float64 {
	return float64(contracts.DaysBetween(l.first, date)) / l.spanDays
}

// row fills dst with the feature vector of date
func (l layout) row(date time.Time, dst []float64) {
	t := l.scaledTime(date)

	dst[0] = 1
	dst[1] = t

	off := l.hingeOffset()
	for j, s := range l.changepoints {
		dst[off+j] = math.Max(0, t-s)
	}

	// 푸리에 항은 절대 일수 기준 (epoch 이후 일수)
	dayNumber := float64(contracts.Day(date).Unix()) / 86400
	fourier(dayNumber, WeeklyPeriod, l.weeklyOrder, dst[l.weeklyOffset():])
	fourier(dayNumber, YearlyPeriod, l.yearlyOrder, dst[l.yearlyOffset():])

	off = l.holidayOffset()
	for j, h := range l.holidays {
		dst[off+j] = 0
		if coveredBy(date, h.dates, l.window) {
			dst[off+j] = 1
		}
	}
}

// fourier writes sin/cos pairs for orders 1..order into dst
func fourier(dayNumber, period float64, order int, dst []float64) {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * dayNumber / period
		dst[2*(k-1)] = math.Sin(x)
		dst[2*(k-1)+1] = math.Cos(x)
	}
}

func coveredBy(date time.Time, holidays []time.Time, window int) bool {
	for _, h := range holidays {
		d := contracts.DaysBetween(h, date)
		if d >= -window && d <= window {
			return true
		}
	}
	return false
}

// placeChangepoints spreads count candidates over evenly spaced observation indices
// within the first cpRange of history. Index 0 is never used.
func placeChangepoints(t []float64, count int, cpRange float64) []float64 {
	histSize := int(math.Floor(float64(len(t)) * cpRange))
	if count > histSize-1 {
		count = histSize - 1
	}
	if count <= 0 {
		return nil
	}

	out := make([]float64, 0, count)
	last := -1
	for j := 1; j <= count; j++ {
		idx := int(math.Round(float64(j) * float64(histSize-1) / float64(count)))
		if idx <= last || idx <= 0 {
			continue
		}
		out = append(out, t[idx])
		last = idx
	}
	return out
}

// selectHolidays keeps the holiday names with enough in-history occurrences, sorted by name
func selectHolidays(dates []time.Time, cal contracts.HolidayCalendar, window, minOccurrences int) []holidayTerm {
	byName := make(map[string][]time.Time)
	for _, h := range cal.Holidays() {
		byName[h.Name] = append(byName[h.Name], h.Date)
	}

	observed := make(map[string]bool, len(dates))
	for _, d := range dates {
		observed[contracts.DateKey(d)] = true
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var terms []holidayTerm
	for _, name := range names {
		occurrences := 0
		for _, h := range byName[name] {
			if occursIn(h, observed, window) {
				occurrences++
			}
		}
		if occurrences >= minOccurrences {
			terms = append(terms, holidayTerm{name: name, dates: byName[name]})
		}
	}
	return terms
}

// occursIn reports whether any observed date falls inside the holiday window
func occursIn(h time.Time, observed map[string]bool, window int) bool {
	for off := -window; off <= window; off++ {
		if observed[contracts.DateKey(h.AddDate(0, 0, off))] {
			return true
		}
	}
	return false
}
