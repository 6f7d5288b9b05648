package domain

import "time"

type RoomKind string

const (
	RoomPrivate RoomKind = "private"
	RoomDorm    RoomKind = "dorm"
)

// Room is one bookable sleeping unit: a whole private room, or a dormitory
// whose beds are addressed by unit index 1..CapacityBeds.
type Room struct {
	ID              string   `json:"id" validate:"required"`
	Location        string   `json:"location" validate:"required"`
	Name            string   `json:"name,omitempty"`
	Kind            RoomKind `json:"kind" validate:"required"`
	CapacityBeds    int      `json:"capacity_beds" validate:"required,gt=0"`
	MaxGuests       int      `json:"max_guests" validate:"required,gt=0"`
	ExternalFeedURL *string  `json:"external_feed_url,omitempty"`
	IsActive        bool     `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Room) IsDorm() bool {
	return r.Kind == RoomDorm
}

// HasFeed reports whether the room subscribes to an external calendar.
func (r *Room) HasFeed() bool {
	return r.ExternalFeedURL != nil && *r.ExternalFeedURL != ""
}

// RoomAlias maps a historical or free-text room token to a canonical room id,
// scoped per location. Aliases are additive data: a new legacy spelling is a
// new row, not a new code path.
type RoomAlias struct {
	Location string `json:"location"`
	Alias    string `json:"alias"`
	RoomID   string `json:"room_id"`
}
