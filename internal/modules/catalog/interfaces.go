package catalog

import (
	"context"

	"lodgedesk/internal/domain"
)

// RoomRepository is the read side of the room configuration store.
type RoomRepository interface {
	ListRooms(ctx context.Context) ([]domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListAliases(ctx context.Context) ([]domain.RoomAlias, error)
}
