package allocation

import (
	"strconv"

	"lodgedesk/internal/domain"
)

// AllocateUnit picks a bed for a dorm candidate with no explicit unit:
// indices 1..CapacityBeds ascending, first conflict-free wins. Filling low
// bed numbers first matches front-desk habit and keeps the choice
// deterministic. ErrNoCapacity when every unit is blocked somewhere in the
// requested night range.
//
// Private rooms always allocate their single implicit unit "1".
func AllocateUnit(room domain.Room, cand Candidate, existing []domain.Booking) (string, error) {
	beds := room.CapacityBeds
	if !room.IsDorm() {
		beds = 1
	}
	for i := 1; i <= beds; i++ {
		cand.UnitID = strconv.Itoa(i)
		if HasConflict(room, cand, existing) == nil {
			return cand.UnitID, nil
		}
	}
	return "", ErrNoCapacity
}

// ValidUnit reports whether a unit id is an integer inside 1..CapacityBeds.
func ValidUnit(room domain.Room, unitID string) bool {
	n, err := strconv.Atoi(unitID)
	if err != nil {
		return false
	}
	beds := room.CapacityBeds
	if !room.IsDorm() {
		beds = 1
	}
	return n >= 1 && n <= beds
}

// IsOrphaned flags a booking that cannot be placed into any rendered unit
// slot under the current catalog: never resolved, resolved to a room the
// catalog no longer has, or carrying a unit index outside the room's beds.
// Diagnostic only; remediation is a staff decision.
func IsOrphaned(b domain.Booking, rooms map[string]domain.Room) bool {
	if b.ResolvedRoomID == nil || *b.ResolvedRoomID == "" {
		return true
	}
	room, ok := rooms[*b.ResolvedRoomID]
	if !ok {
		return true
	}
	if b.UnitID != nil && *b.UnitID != "" && !ValidUnit(room, *b.UnitID) {
		return true
	}
	return false
}
