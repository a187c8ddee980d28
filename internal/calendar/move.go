package calendar

import (
	"time"

	"weekcal/internal/model"
)

// Move relocates e onto targetDay, keeping its time of day and duration.
//
// The new start takes targetDay's date and e.Start's hour and minute (read
// in targetDay's location), with seconds dropped. The new end is the new
// start plus the old duration, so 09:00 stays 09:00 across DST changes.
// A time of day skipped by a DST gap on targetDay's date moves to the
// start of that date.
//
// Move does not persist anything; pass the result to the store.
func Move(e model.Event, targetDay time.Time) model.Event {
	loc := targetDay.Location()
	duration := e.End.Sub(e.Start)
	orig := e.Start.In(loc)

	y, m, d := targetDay.Date()
	start := time.Date(y, m, d, orig.Hour(), orig.Minute(), 0, 0, loc)
	if day := model.DayStart(y, m, d, loc); !sameDate(start, day) {
		// The time of day falls in a DST gap that pushed it off the date.
		start = day
	}

	moved := e
	moved.Start = start
	moved.End = start.Add(duration)
	return moved
}
