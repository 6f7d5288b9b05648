package allocation

import "time"

// DefaultCutoffHour is the night-audit boundary: events before 06:00 local
// belong to the previous business day.
const DefaultCutoffHour = 6

// StartOfDay truncates t to UTC midnight of its calendar date.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// OccupiedNights returns one entry per calendar night in [checkIn, checkOut).
// A zero-night range yields an empty slice; rejecting it is the caller's job.
func OccupiedNights(checkIn, checkOut time.Time) []time.Time {
	in := StartOfDay(checkIn)
	out := StartOfDay(checkOut)

	nights := make([]time.Time, 0)
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// IsOccupiedOn reports whether the stay [checkIn, checkOut) covers the given
// business date.
func IsOccupiedOn(businessDate, checkIn, checkOut time.Time) bool {
	d := StartOfDay(businessDate)
	return !d.Before(StartOfDay(checkIn)) && d.Before(StartOfDay(checkOut))
}

// BusinessDate maps a wall-clock instant to the hotel business day: before
// cutoffHour the instant still belongs to the prior day, so a 2 AM check-out
// counts against the night that just ended.
func BusinessDate(now time.Time, cutoffHour int) time.Time {
	d := StartOfDay(now)
	if now.Hour() < cutoffHour {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
