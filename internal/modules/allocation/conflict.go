package allocation

import (
	"sort"
	"time"

	"lodgedesk/internal/domain"
)

// Candidate is a proposed (room, unit, night-range) assignment. ExcludeID
// skips the candidate's own record on re-validation of an update.
type Candidate struct {
	RoomID    string
	UnitID    string
	CheckIn   time.Time
	CheckOut  time.Time
	ExcludeID int64
}

// overlaps tests two half-open night ranges. Back-to-back stays
// ([10,12) then [12,14)) do not overlap.
func overlaps(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && b1.Before(a2)
}

// HasConflict checks a candidate against an existing-booking snapshot.
// nil means the assignment is free. For dorms the check is per-unit; a
// candidate without a unit must go through AllocateUnit instead.
//
// Only pending/confirmed/checked_in bookings of the same resolved room
// block; cancelled and checked-out stays never do.
func HasConflict(room domain.Room, cand Candidate, existing []domain.Booking) *Conflict {
	in := StartOfDay(cand.CheckIn)
	out := StartOfDay(cand.CheckOut)

	var blocking []int64
	nightSet := make(map[time.Time]struct{})

	for _, b := range existing {
		if b.ID == cand.ExcludeID && cand.ExcludeID != 0 {
			continue
		}
		if !b.Blocks() {
			continue
		}
		if b.ResolvedRoomID == nil || *b.ResolvedRoomID != room.ID {
			continue
		}
		if room.IsDorm() && cand.UnitID != "" && unitOf(b) != cand.UnitID {
			continue
		}
		bIn, bOut := StartOfDay(b.CheckIn), StartOfDay(b.CheckOut)
		if !overlaps(in, out, bIn, bOut) {
			continue
		}

		blocking = append(blocking, b.ID)
		for _, n := range OccupiedNights(maxTime(in, bIn), minTime(out, bOut)) {
			nightSet[n] = struct{}{}
		}
	}

	if len(blocking) == 0 {
		return nil
	}

	nights := make([]time.Time, 0, len(nightSet))
	for n := range nightSet {
		nights = append(nights, n)
	}
	sort.Slice(nights, func(i, j int) bool { return nights[i].Before(nights[j]) })

	return &Conflict{
		RoomID:      room.ID,
		UnitID:      cand.UnitID,
		BlockingIDs: blocking,
		Nights:      nights,
	}
}

// unitOf treats a private-room booking as occupying the implicit unit "1".
func unitOf(b domain.Booking) string {
	if b.UnitID == nil || *b.UnitID == "" {
		return "1"
	}
	return *b.UnitID
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
