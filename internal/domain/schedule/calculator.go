// internal/domain/schedule/calculator.go
package schedule

import (
	"time"
)

// notifyHour is the local hour every occurrence is normalized to.
const notifyHour = 9

// Calculator computes the next occurrence of a schedule. It is pure: the same
// (descriptor, reference) pair always yields the same result, so a crashed
// tick can safely recompute.
type Calculator struct {
	loc *time.Location
}

// NewCalculator returns a Calculator that normalizes every candidate to 09:00
// in loc. A nil loc falls back to time.Local.
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	return &Calculator{loc: loc}
}

// Next returns the next occurrence of d strictly after ref, or false when the
// descriptor never fires (IRREGULAR, COMPLETED). The result is always at
// 09:00 in the calculator's location.
func (c *Calculator) Next(d Descriptor, ref time.Time) (time.Time, bool) {
	ref = ref.In(c.loc)

	switch d.Kind {
	case KindWeekly:
		return c.nextWeekly(d.Weekday, ref), true
	case KindMonthly:
		return c.nextMonthly(d.DayOfMonth, ref), true
	case KindBiweeklyByWeekday:
		return c.nextBiweeklyWeekday(d.Weekday, ref), true
	case KindBiweeklyWeeksOfMonth:
		return c.nextBiweeklyWeeks(d.Weekday, d.Weeks, ref), true
	}
	return time.Time{}, false
}

// at09 returns 09:00 on the calendar day of t.
func (c *Calculator) at09(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), notifyHour, 0, 0, 0, c.loc)
}

// nextWeekly finds the smallest day at 09:00 with the wanted weekday strictly
// after ref. A reference already on that weekday at or past 09:00 rolls over
// to the following week, never to the same day.
func (c *Calculator) nextWeekly(day time.Weekday, ref time.Time) time.Time {
	for i := 0; i <= 7; i++ {
		cand := c.at09(ref.AddDate(0, 0, i))
		if cand.Weekday() == day && cand.After(ref) {
			return cand
		}
	}
	// Unreachable: a 8-day window always contains the weekday.
	return c.at09(ref.AddDate(0, 0, 7))
}

// nextMonthly returns 09:00 on the wanted day of month, rolling forward one
// calendar month while the candidate is not in the future. Months shorter
// than the wanted day clamp to their last day (so "monthly-31" fires on
// Feb 28/29), keeping the schedule firing once every month.
func (c *Calculator) nextMonthly(day int, ref time.Time) time.Time {
	year, month := ref.Year(), ref.Month()
	for i := 0; i < 13; i++ {
		cand := time.Date(year, month, clampDay(year, month, day, c.loc), notifyHour, 0, 0, 0, c.loc)
		if cand.After(ref) {
			return cand
		}
		year, month = nextMonth(year, month)
	}
	return time.Date(year, month, clampDay(year, month, day, c.loc), notifyHour, 0, 0, 0, c.loc)
}

// nextBiweeklyWeekday fires 14 days after the reference (the record's own
// last scheduled occurrence), then snaps forward to the wanted weekday. The
// snap only moves the result when stored state drifted off-weekday; a clean
// 14-day offset already lands on the same weekday.
func (c *Calculator) nextBiweeklyWeekday(day time.Weekday, ref time.Time) time.Time {
	cand := c.at09(ref.AddDate(0, 0, 14))
	for cand.Weekday() != day {
		cand = cand.AddDate(0, 0, 1)
	}
	return cand
}

// nextBiweeklyWeeks picks the earliest future Nth-weekday-of-month candidate
// across the configured week ordinals, rolling month by month. An ordinal
// that does not exist in a month (a 5th Friday, say) is dropped for that
// month, not substituted.
func (c *Calculator) nextBiweeklyWeeks(day time.Weekday, weeks [2]int, ref time.Time) time.Time {
	year, month := ref.Year(), ref.Month()
	for i := 0; i < 13; i++ {
		var best time.Time
		for _, n := range weeks {
			cand, ok := c.nthWeekdayOfMonth(year, month, day, n)
			if !ok || !cand.After(ref) {
				continue
			}
			if best.IsZero() || cand.Before(best) {
				best = cand
			}
		}
		if !best.IsZero() {
			return best
		}
		year, month = nextMonth(year, month)
	}
	return time.Time{}
}

// nthWeekdayOfMonth returns 09:00 on the nth occurrence of day in the given
// month, or false when that month has no nth occurrence.
func (c *Calculator) nthWeekdayOfMonth(year int, month time.Month, day time.Weekday, n int) (time.Time, bool) {
	first := time.Date(year, month, 1, notifyHour, 0, 0, 0, c.loc)
	offset := (int(day) - int(first.Weekday()) + 7) % 7
	cand := first.AddDate(0, 0, offset+(n-1)*7)
	if cand.Month() != month {
		return time.Time{}, false
	}
	return cand, true
}

// clampDay bounds day to the number of days in the given month.
func clampDay(year int, month time.Month, day int, loc *time.Location) int {
	// First of the next month minus one day is the last day of this month.
	last := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1).Day()
	if day > last {
		return last
	}
	return day
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
