// Package ics converts between the event store and iCalendar (RFC 5545)
// payloads for export, import and on-disk snapshots.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"weekcal/internal/model"
)

const productID = "-//weekcal//weekcal//EN"

// COLOR is defined by RFC 7986.
const propertyColor = ical.ComponentProperty("COLOR")

// Export renders events as a VCALENDAR. stamp is used for DTSTAMP.
func Export(name string, events []model.Event, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetName(name)
	}

	for _, e := range events {
		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(e.Start)
		ve.SetEndAt(e.End)
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Color != "" {
			ve.SetProperty(propertyColor, e.Color)
		}
	}

	return cal.Serialize()
}
