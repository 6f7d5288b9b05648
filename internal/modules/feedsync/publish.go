package feedsync

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"lodgedesk/internal/domain"
)

// BuildRoomCalendar renders the published feed for a room: one all-day event
// per blocking booking. Summaries are redacted to room and bed only; guest
// names never leave the system through this surface.
func BuildRoomCalendar(room domain.Room, bookings []domain.Booking) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//lodgedesk//room calendar//EN")

	for _, b := range bookings {
		if !b.Blocks() {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("booking-%d@lodgedesk", b.ID))
		ev.SetAllDayStartAt(b.CheckIn)
		ev.SetAllDayEndAt(b.CheckOut)
		ev.SetSummary(redactedSummary(room, b))
		ev.SetDtStampTime(time.Now().UTC())
	}

	return cal.Serialize()
}

func redactedSummary(room domain.Room, b domain.Booking) string {
	if room.IsDorm() && b.UnitID != nil && *b.UnitID != "" {
		return fmt.Sprintf("Booked: %s bed %s", room.ID, *b.UnitID)
	}
	return fmt.Sprintf("Booked: %s", room.ID)
}
