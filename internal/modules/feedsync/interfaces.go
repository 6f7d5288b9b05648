package feedsync

import (
	"context"
	"time"

	"lodgedesk/internal/domain"
)

// Event is one normalized external calendar entry: a stay claim on the
// room the feed belongs to.
type Event struct {
	UID      string
	CheckIn  time.Time
	CheckOut time.Time
}

type RoomSource interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListFeedRooms(ctx context.Context) ([]domain.Room, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	Update(ctx context.Context, b *domain.Booking) error
	ListActiveByRoom(ctx context.Context, roomID string) ([]domain.Booking, error)
	ListExternalByRoom(ctx context.Context, roomID string) ([]domain.Booking, error)
}

// FeedFetcher retrieves and parses a feed URL. Per-event parse problems come
// back as warnings; a dead feed is an error.
type FeedFetcher interface {
	FetchEvents(ctx context.Context, url string) ([]Event, []string, error)
}
