package feedsync

import (
	"bytes"
	"errors"
	"fmt"

	ical "github.com/arran4/golang-ical"

	"lodgedesk/internal/modules/allocation"
)

// ParseFeed turns an iCal payload into stay events. A single corrupt VEVENT
// (missing UID, unparseable or inverted dates) becomes a warning and is
// skipped; only an unreadable calendar fails the parse.
func ParseFeed(body []byte) ([]Event, []string, error) {
	if len(body) == 0 {
		return nil, nil, errors.New("empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}

	events := make([]Event, 0)
	warnings := make([]string, 0)

	for _, ve := range cal.Events() {
		uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
		if uidProp == nil || uidProp.Value == "" {
			warnings = append(warnings, "event without UID skipped")
			continue
		}
		uid := uidProp.Value

		start, err := ve.GetStartAt()
		if err != nil {
			// OTA feeds are usually all-day; retry with date-only semantics.
			start, err = ve.GetAllDayStartAt()
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("event %s: bad DTSTART: %v", uid, err))
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil {
			end, err = ve.GetAllDayEndAt()
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("event %s: bad DTEND: %v", uid, err))
			continue
		}

		checkIn := allocation.StartOfDay(start)
		checkOut := allocation.StartOfDay(end)
		if !checkIn.Before(checkOut) {
			warnings = append(warnings, fmt.Sprintf("event %s: empty or inverted night range", uid))
			continue
		}

		events = append(events, Event{UID: uid, CheckIn: checkIn, CheckOut: checkOut})
	}

	return events, warnings, nil
}
