package allocation

import "time"

const dateLayout = "2006-01-02"

// ParseDate parses the wire date format used by check_in/check_out fields.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

type createBookingBody struct {
	RoomID    string `json:"room_id" binding:"required"`
	Location  string `json:"location"`
	CheckIn   string `json:"check_in" binding:"required"`
	CheckOut  string `json:"check_out" binding:"required"`
	UnitID    string `json:"unit_id"`
	GuestName string `json:"guest_name"`
	Notes     string `json:"notes"`
}

type allocateBody struct {
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
}

type statusBody struct {
	Status string `json:"status" binding:"required"`
}

type reassignBody struct {
	UnitID string `json:"unit_id" binding:"required"`
}
