// Package calendar holds the wall-clock date arithmetic behind the week view:
// which seven days a week window covers, and how an event is moved onto a
// different day.
//
// Nothing here converts between zones. Every computation happens in the
// location of the time it is given.
package calendar

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

// DaysPerWeek is the size of a week window.
const DaysPerWeek = 7

// Week describes a week window layout. The zero value starts on Sunday.
type Week struct {
	Start time.Weekday
}

// ParseWeekStart maps the config value ("sunday", "monday") to a weekday.
// Anything else yields Sunday.
func ParseWeekStart(s string) time.Weekday {
	if s == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// WeekDays returns the Sunday-to-Saturday window containing anchor.
func WeekDays(anchor time.Time) []time.Time {
	return Week{Start: time.Sunday}.Days(anchor)
}

// Days returns the seven consecutive days, each at the start of the day
// in anchor's location, from the most recent w.Start at or before anchor.
func (w Week) Days(anchor time.Time) []time.Time {
	first := w.First(anchor)
	y, m, d := first.Date()

	// Occurrences are generated at noon, which exists on every date, and
	// then moved to the start of their day.
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   DaysPerWeek,
		Dtstart: time.Date(y, m, d, 12, 0, 0, 0, first.Location()),
	})
	if err != nil {
		appLog.Error("week rule construction failed; stepping days directly", err, "first", first.Format(time.RFC3339))
		return addDays(first)
	}

	days := r.All()
	if len(days) != DaysPerWeek {
		return addDays(first)
	}
	for i, d := range days {
		days[i] = StartOfDay(d.In(first.Location()))
	}
	return days
}

// First returns the start of the first day of the window containing anchor.
func (w Week) First(anchor time.Time) time.Time {
	y, m, d := anchor.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, anchor.Location())
	offset := (int(noon.Weekday()) - int(w.Start) + DaysPerWeek) % DaysPerWeek
	return StartOfDay(noon.AddDate(0, 0, -offset))
}

func addDays(first time.Time) []time.Time {
	y, m, d := first.Date()
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = model.DayStart(y, m, d+i, first.Location())
	}
	return days
}

// NextWeek shifts anchor forward by seven calendar days.
func NextWeek(anchor time.Time) time.Time {
	return shiftDays(anchor, DaysPerWeek)
}

// PrevWeek shifts anchor back by seven calendar days.
func PrevWeek(anchor time.Time) time.Time {
	return shiftDays(anchor, -DaysPerWeek)
}

// shiftDays keeps anchor's wall clock on the date n days away. When that
// clock time falls in a DST gap, the start of the target day is used.
func shiftDays(anchor time.Time, n int) time.Time {
	y, m, d := anchor.Date()
	loc := anchor.Location()
	day := model.DayStart(y, m, d+n, loc)

	t := time.Date(y, m, d+n, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), loc)
	if !sameDate(t, day) {
		return day
	}
	return t
}

// StartOfDay returns the first instant of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return model.DayStart(y, m, d, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SameDay reports whether t falls on day's calendar date, as seen from
// day's location.
func SameDay(t, day time.Time) bool {
	return sameDate(t.In(day.Location()), day)
}

// Label is the header title for the window anchored at t, e.g. "June 2024".
func Label(t time.Time) string {
	return t.Format("January 2006")
}
