package domain

import "time"

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingCheckedIn  BookingStatus = "checked_in"
	BookingCheckedOut BookingStatus = "checked_out"
	BookingCancelled  BookingStatus = "cancelled"
)

type BookingSource string

const (
	SourceManual       BookingSource = "manual"
	SourceExternalFeed BookingSource = "external_feed"
)

// Booking is one guest stay. CheckIn/CheckOut are date-only (UTC midnight)
// and the stay occupies the half-open night range [CheckIn, CheckOut).
//
// RoomIDRaw keeps whatever the source sent; ResolvedRoomID is the canonical
// catalog id, nil while unresolved. UnitID is the bed index within a dorm
// ("1".."N"); private rooms carry no unit.
type Booking struct {
	ID              int64         `json:"id"`
	RoomIDRaw       string        `json:"room_id_raw" validate:"required"`
	ResolvedRoomID  *string       `json:"resolved_room_id,omitempty"`
	Location        string        `json:"location"`
	UnitID          *string       `json:"unit_id,omitempty"`
	CheckIn         time.Time     `json:"check_in" validate:"required"`
	CheckOut        time.Time     `json:"check_out" validate:"required"`
	Status          BookingStatus `json:"status"`
	Source          BookingSource `json:"source"`
	ExternalEventID *string       `json:"external_event_id,omitempty"`
	GuestName       string        `json:"guest_name,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`

	// Version guards conditional writes; bumped on every update.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Blocks reports whether the booking occupies its unit: cancelled and
// checked-out stays never block a candidate.
func (b *Booking) Blocks() bool {
	switch b.Status {
	case BookingPending, BookingConfirmed, BookingCheckedIn:
		return true
	default:
		return false
	}
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingCancelled
}
