package allocation

import (
	"context"

	"lodgedesk/internal/domain"
	"lodgedesk/internal/modules/catalog"
)

// BookingRepository is the write side of the booking store as the allocation
// service consumes it.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListActiveByRoom(ctx context.Context, roomID string) ([]domain.Booking, error)
	ListNotCancelled(ctx context.Context, roomID string) ([]domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
}

// Catalog supplies frozen room/alias views for resolution and capacity data.
type Catalog interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}
