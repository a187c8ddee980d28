package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

var (
	ErrEmptyBody = errors.New("ics: empty body")
	ErrInvalid   = errors.New("ics: invalid calendar")
)

// Parsed is one VEVENT converted to a store draft. UID is kept for logging.
type Parsed struct {
	UID   string
	Draft model.Draft
}

// ParseOptions controls how VEVENTs become drafts.
type ParseOptions struct {
	// Location is where times are normalized to. Nil means time.Local.
	Location *time.Location

	// DefaultDuration is used when DTEND is missing or not after DTSTART.
	// Zero means one hour.
	DefaultDuration time.Duration
}

// Parse reads an ICS payload into drafts.
//
//   - VEVENTs without DTSTART are skipped and logged.
//   - RRULE/EXDATE are ignored; only the first instance is imported.
//   - All-day events (VALUE=DATE) start at local midnight and last one day.
func Parse(body []byte, opts ParseOptions) ([]Parsed, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = time.Hour
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	out := make([]Parsed, 0)
	for _, ve := range cal.Events() {
		p, perr := parseVEvent(ve, opts)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Warn("ics vevent skipped", "err", perr, "uid", p.UID)
			continue
		}
		out = append(out, p)
	}

	appLog.Info("ics parse completed", "event_count", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent, opts ParseOptions) (Parsed, error) {
	var out Parsed
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		return out, errors.New("missing DTSTART")
	}

	// VALUE=DATE or no 'T' in the value -> all-day
	allDay := !strings.Contains(dtStart.Value, "T")
	if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}

	var start, end time.Time
	if allDay {
		d, err := time.Parse("20060102", strings.TrimSpace(dtStart.Value))
		if err != nil {
			return out, err
		}
		start = model.DayStart(d.Year(), d.Month(), d.Day(), opts.Location)
		end = model.DayStart(d.Year(), d.Month(), d.Day()+1, opts.Location)
	} else {
		s, err := ve.GetStartAt()
		if err != nil {
			return out, err
		}
		start = s.In(opts.Location)

		if e, err := ve.GetEndAt(); err == nil {
			end = e.In(opts.Location)
		}
		if !end.After(start) {
			end = start.Add(opts.DefaultDuration)
		}
	}

	out.Draft = model.Draft{
		Title:       propValue(ve, ical.ComponentPropertySummary),
		Description: propValue(ve, ical.ComponentPropertyDescription),
		Start:       start,
		End:         end,
		Color:       propValue(ve, propertyColor),
	}
	if strings.TrimSpace(out.Draft.Title) == "" {
		out.Draft.Title = "(untitled)"
	}
	return out, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}
