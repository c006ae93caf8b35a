package contracts

import (
	"sort"
	"time"
)

// Holiday is one festival day
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// HolidayCalendar is the read-only set of festival days shared by all products
type HolidayCalendar struct {
	byDate map[string]Holiday
	sorted []Holiday
}

// NewHolidayCalendar de-duplicates holidays by date; the first name seen for a date wins
func NewHolidayCalendar(holidays []Holiday) HolidayCalendar {
	cal := HolidayCalendar{byDate: make(map[string]Holiday, len(holidays))}
	for _, h := range holidays {
		h.Date = Day(h.Date)
		key := DateKey(h.Date)
		if _, exists := cal.byDate[key]; exists {
			continue
		}
		cal.byDate[key] = h
		cal.sorted = append(cal.sorted, h)
	}
	sort.Slice(cal.sorted, func(i, j int) bool {
		return cal.sorted[i].Date.Before(cal.sorted[j].Date)
	})
	return cal
}

// Len returns the number of distinct festival days
func (c HolidayCalendar) Len() int {
	return len(c.sorted)
}

// Contains reports whether date is a festival day
func (c HolidayCalendar) Contains(date time.Time) bool {
	_, ok := c.byDate[DateKey(date)]
	return ok
}

// Name returns the festival name on date, if any
func (c HolidayCalendar) Name(date time.Time) (string, bool) {
	h, ok := c.byDate[DateKey(date)]
	return h.Name, ok
}

// Holidays returns a date-sorted copy of the calendar
func (c HolidayCalendar) Holidays() []Holiday {
	out := make([]Holiday, len(c.sorted))
	copy(out, c.sorted)
	return out
}
