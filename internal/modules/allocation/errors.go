package allocation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDateRange        = errors.New("check_in must be before check_out")
	ErrNoCapacity              = errors.New("no free unit for the requested nights")
	ErrCapacityRaceLost        = errors.New("allocation lost a capacity race after retries")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrNotFound                = errors.New("booking not found")
	ErrUnitOutOfRange          = errors.New("unit index outside room capacity")

	// ErrConflict is the errors.Is target for *ConflictError.
	ErrConflict = errors.New("booking conflict")
)

// Conflict describes why a candidate cannot take a unit: which bookings
// block it and on which nights. Enough detail for an operator to resolve
// by hand.
type Conflict struct {
	RoomID      string      `json:"room_id"`
	UnitID      string      `json:"unit_id,omitempty"`
	BlockingIDs []int64     `json:"blocking_booking_ids"`
	Nights      []time.Time `json:"nights"`
}

type ConflictError struct {
	Conflict Conflict
}

func (e *ConflictError) Error() string {
	nights := make([]string, 0, len(e.Conflict.Nights))
	for _, n := range e.Conflict.Nights {
		nights = append(nights, n.Format("2006-01-02"))
	}
	return fmt.Sprintf("room %s unit %q occupied on %s by booking(s) %v",
		e.Conflict.RoomID, e.Conflict.UnitID, strings.Join(nights, ","), e.Conflict.BlockingIDs)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
