package model

import (
	"errors"
	"strings"
	"time"
)

// Event is a titled, time-bounded record on the calendar.
//
// ID is assigned by the store at creation and never changes afterwards.
// Start and End are absolute instants; day membership is decided by the
// wall-clock date of Start in the caller's location.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time

	// Color is a display-only tag.
	Color string
}

// Draft is the payload for creating an event: every Event field but ID.
type Draft struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Color       string
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// WithID turns the draft into an Event carrying id.
func (d Draft) WithID(id string) Event {
	return Event{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Start:       d.Start,
		End:         d.End,
		Color:       d.Color,
	}
}

// FormLayout is the layout of an HTML datetime-local input value.
const FormLayout = "2006-01-02T15:04"

// DayLayout is the layout used for calendar days in query strings and bodies.
const DayLayout = "2006-01-02"

var ErrEmptyTimestamp = errors.New("empty timestamp")

// ParseTimestamp accepts RFC 3339 (with or without fractional seconds) and
// the zone-less datetime-local forms, which are read as wall-clock time in
// loc. A nil loc means time.Local.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyTimestamp
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}

	var lastErr error
	for _, layout := range []string{FormLayout, "2006-01-02T15:04:05", "2006-01-02T15:04:05.000"} {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseDay parses a YYYY-MM-DD value as the start of that day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return DayStart(t.Year(), t.Month(), t.Day(), loc), nil
}

// DayStart returns the first instant of the given date in loc. That is
// local midnight, or the end of the DST gap on days whose midnight is
// skipped. The result always reports the requested Y/M/D from Date().
// Out-of-range values are normalized as time.Date does.
func DayStart(year int, month time.Month, day int, loc *time.Location) time.Time {
	// Noon exists on every date and carries the normalized Y/M/D.
	y, m, d := time.Date(year, month, day, 12, 0, 0, 0, loc).Date()

	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for {
		ty, tm, td := t.Date()
		if ty == y && tm == m && td == d {
			return t
		}
		t = t.Add(15 * time.Minute)
	}
}
