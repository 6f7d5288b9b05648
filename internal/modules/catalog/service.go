package catalog

import (
	"context"

	"lodgedesk/internal/domain"
)

type Service struct {
	rooms RoomRepository
}

func NewService(rooms RoomRepository) *Service {
	return &Service{rooms: rooms}
}

// Snapshot reads the catalog and alias table once; everything downstream
// resolves against that frozen view.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := s.rooms.ListAliases(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(rooms, aliases), nil
}

func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.rooms.ListRooms(ctx)
}

func (s *Service) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *Service) Resolve(ctx context.Context, rawType, rawLocation string) (string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return snap.Resolve(rawType, rawLocation)
}
