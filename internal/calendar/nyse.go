package calendar

import (
	"time"

	"github.com/rickgao/eod-data/internal/model"
)

// NYSE answers trading-day membership questions for the New York Stock
// Exchange. Holiday sets are computed per year and cached.
type NYSE struct {
	holidays map[int]map[time.Time]bool
}

// NewNYSE returns a calendar with an empty holiday cache.
func NewNYSE() *NYSE {
	return &NYSE{holidays: make(map[int]map[time.Time]bool)}
}

// IsTradingDay reports whether the exchange is open on the given date.
func (c *NYSE) IsTradingDay(d time.Time) bool {
	d = model.Day(d)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.yearHolidays(d.Year())[d]
}

// TradingDays returns every trading day in [start, end], ascending.
func (c *NYSE) TradingDays(start, end time.Time) []time.Time {
	start, end = model.Day(start), model.Day(end)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

func (c *NYSE) yearHolidays(year int) map[time.Time]bool {
	if h, ok := c.holidays[year]; ok {
		return h
	}
	h := holidaysForYear(year)
	c.holidays[year] = h
	return h
}

// holidaysForYear computes the exchange holiday set for one year.
// Fixed-date holidays shift Sunday->Monday; July 4th, Juneteenth, and
// Christmas also shift Saturday->Friday. New Year's Day on a Saturday is
// not observed (the exchange does not close the prior December 31st).
func holidaysForYear(year int) map[time.Time]bool {
	h := make(map[time.Time]bool)
	add := func(d time.Time) { h[d] = true }

	// New Year's Day.
	ny := model.Date(year, time.January, 1)
	if ny.Weekday() == time.Sunday {
		add(ny.AddDate(0, 0, 1))
	} else if ny.Weekday() != time.Saturday {
		add(ny)
	}

	// Martin Luther King Jr. Day: third Monday of January.
	add(nthWeekday(year, time.January, time.Monday, 3))

	// Washington's Birthday: third Monday of February.
	add(nthWeekday(year, time.February, time.Monday, 3))

	// Good Friday: two days before Easter Sunday.
	add(easter(year).AddDate(0, 0, -2))

	// Memorial Day: last Monday of May.
	add(lastWeekday(year, time.May, time.Monday))

	// Juneteenth, observed since 2022.
	if year >= 2022 {
		add(observed(model.Date(year, time.June, 19)))
	}

	// Independence Day.
	add(observed(model.Date(year, time.July, 4)))

	// Labor Day: first Monday of September.
	add(nthWeekday(year, time.September, time.Monday, 1))

	// Thanksgiving: fourth Thursday of November.
	add(nthWeekday(year, time.November, time.Thursday, 4))

	// Christmas Day.
	add(observed(model.Date(year, time.December, 25)))

	// Unscheduled full-day closures inside the covered history.
	for _, d := range specialClosures {
		if d.Year() == year {
			add(d)
		}
	}

	return h
}

// specialClosures lists ad-hoc full-day closures within the flatfile era.
var specialClosures = []time.Time{
	model.Date(2012, time.October, 29), // Hurricane Sandy
	model.Date(2012, time.October, 30),
	model.Date(2018, time.December, 5), // National day of mourning (G.H.W. Bush)
	model.Date(2025, time.January, 9),  // National day of mourning (Carter)
}

// observed shifts a fixed-date holiday off the weekend: Saturday to the
// preceding Friday, Sunday to the following Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// nthWeekday returns the nth occurrence of a weekday in a month.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := model.Date(year, month, 1)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

// lastWeekday returns the last occurrence of a weekday in a month.
func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := model.Date(year, month+1, 1).AddDate(0, 0, -1) // last day of month
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// easter computes Easter Sunday for a year using the anonymous Gregorian
// algorithm.
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	hh := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - hh - k) % 7
	m := (a + 11*hh + 22*l) / 451
	month := (hh + l - 7*m + 114) / 31
	day := (hh+l-7*m+114)%31 + 1
	return model.Date(year, time.Month(month), day)
}
