// Package ics renders calendar events as iCalendar documents so owners
// can subscribe from their regular calendar clients.
package ics

import (
	"fmt"

	ical "github.com/arran4/golang-ical"

	"github.com/nkamath/calshare/internal/model"
)

// Feed serializes events into a VCALENDAR. With masked set, every event
// is reduced to a "Busy" block with no title or description, which is
// what public share-link visitors are allowed to see.
func Feed(cal model.Calendar, events []model.Event, masked bool) string {
	doc := ical.NewCalendar()
	doc.SetMethod(ical.MethodPublish)
	doc.SetProductId("-//calshare//calendar feed//EN")
	doc.SetXWRTimezone(cal.Timezone)

	for _, evt := range events {
		ve := doc.AddEvent(fmt.Sprintf("%s@calshare", evt.ID))
		ve.SetDtStampTime(evt.CreatedAt)
		ve.SetStartAt(evt.StartUTC)
		ve.SetEndAt(evt.EndUTC)
		if masked {
			ve.SetSummary("Busy")
			continue
		}
		ve.SetSummary(evt.Title)
		if evt.Description != "" {
			ve.SetDescription(evt.Description)
		}
	}
	return doc.Serialize()
}
