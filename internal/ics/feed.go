// Package ics renders webinar sessions as an iCalendar feed so attendees can
// subscribe from their own calendar apps.
package ics

import (
	"fmt"

	ical "github.com/arran4/golang-ical"

	"github.com/slotwise/slotwise/internal/scheduling"
)

// SessionFeed serializes the sessions of one webinar into a VCALENDAR
// document. Times are emitted as UTC instants; calendar apps localize them.
func SessionFeed(productID, productName string, sessions []scheduling.Session) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//slotwise//webinar feed//EN")

	for i, s := range sessions {
		ev := cal.AddEvent(fmt.Sprintf("%s-%d@slotwise", productID, i+1))
		ev.SetSummary(fmt.Sprintf("%s (session %d of %d)", productName, i+1, len(sessions)))
		ev.SetStartAt(s.Start)
		ev.SetEndAt(s.End)
		ev.SetDtStampTime(s.Start)
	}

	return cal.Serialize()
}
