package schedule

import (
	"time"

	"github.com/sells-group/location-evaluator/internal/model"
)

// Occurrence is one dated trip produced by expanding a rule over a year.
// The outbound leg departs in time to arrive at the scheduled arrival time;
// the return leg, when the rule has a departure time, leaves at that time.
type Occurrence struct {
	Date            time.Time // midnight UTC on the trip date
	ArrivalMinute   int
	DepartureMinute int // -1 when the rule has no departure time
	Direction       model.TripDirection
}

// Weekday reports the calendar weekday of the occurrence.
func (o Occurrence) Weekday() time.Weekday { return o.Date.Weekday() }

// Frequency summarizes how often a rule fires over a given year.
type Frequency struct {
	AnnualCount       int
	WeeklyEquivalent  float64
	MonthlyEquivalent float64
}

// Expand lists every outbound occurrence of the rule in the given calendar
// year, sorted by date. Expansion is deterministic and calendar accurate: a
// weekday present 53 times in the year yields 53 occurrences, and a monthly
// ordinal with no matching date in some month (a fifth Monday in a short
// month) contributes nothing for that month.
func (r Rule) Expand(year int) []Occurrence {
	var dates []time.Time
	if r.Weekly {
		dates = r.weeklyDates(year)
	} else {
		dates = r.monthlyDates(year)
	}
	occs := make([]Occurrence, len(dates))
	for i, d := range dates {
		occs[i] = Occurrence{
			Date:            d,
			ArrivalMinute:   r.ArrivalMinute,
			DepartureMinute: r.DepartureMinute,
			Direction:       model.DirectionOutbound,
		}
	}
	return occs
}

// Frequency reports the rule's occurrence counts for the year. The weekly
// equivalent scales the annual count by 7/365 (or 7/366), so a monthly rule
// contributes roughly 0.23 trips per week rather than a rounded zero.
func (r Rule) Frequency(year int) Frequency {
	n := len(r.Expand(year))
	days := float64(daysInYear(year))
	return Frequency{
		AnnualCount:       n,
		WeeklyEquivalent:  float64(n) * 7 / days,
		MonthlyEquivalent: float64(n) / 12,
	}
}

func (r Rule) weeklyDates(year int) []time.Time {
	wanted := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, d := range r.Weekdays {
		wanted[d] = true
	}
	var dates []time.Time
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d.Year() == year {
		if wanted[d.Weekday()] {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return dates
}

func (r Rule) monthlyDates(year int) []time.Time {
	var dates []time.Time
	for m := time.January; m <= time.December; m++ {
		if d, ok := nthWeekday(year, m, r.Weekday, r.Ordinal); ok {
			dates = append(dates, d)
		}
	}
	return dates
}

// nthWeekday resolves an ordinal weekday within a month. It reports false
// when the month has no such date.
func nthWeekday(year int, month time.Month, wd time.Weekday, ord Ordinal) (time.Time, bool) {
	if ord == Last {
		d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		for d.Weekday() != wd {
			d = d.AddDate(0, 0, -1)
		}
		return d, true
	}
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	d = d.AddDate(0, 0, 7*(int(ord)-1))
	if d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

func daysInYear(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}
