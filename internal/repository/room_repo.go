package repository

import (
	"context"
	"errors"
	"time"

	"lodgedesk/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

type roomModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	Location        string    `gorm:"column:location;index"`
	Name            string    `gorm:"column:name"`
	Kind            string    `gorm:"column:kind"`
	CapacityBeds    int       `gorm:"column:capacity_beds"`
	MaxGuests       int       `gorm:"column:max_guests"`
	ExternalFeedURL *string   `gorm:"column:external_feed_url"`
	IsActive        bool      `gorm:"column:is_active"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (roomModel) TableName() string { return "rooms" }

type roomAliasModel struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	Location string `gorm:"column:location;uniqueIndex:idx_alias_per_location"`
	Alias    string `gorm:"column:alias;uniqueIndex:idx_alias_per_location"`
	RoomID   string `gorm:"column:room_id"`
}

func (roomAliasModel) TableName() string { return "room_aliases" }

func toDomainRoom(m roomModel) domain.Room {
	return domain.Room{
		ID:              m.ID,
		Location:        m.Location,
		Name:            m.Name,
		Kind:            domain.RoomKind(m.Kind),
		CapacityBeds:    m.CapacityBeds,
		MaxGuests:       m.MaxGuests,
		ExternalFeedURL: m.ExternalFeedURL,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toRoomModel(r domain.Room) roomModel {
	return roomModel{
		ID:              r.ID,
		Location:        r.Location,
		Name:            r.Name,
		Kind:            string(r.Kind),
		CapacityBeds:    r.CapacityBeds,
		MaxGuests:       r.MaxGuests,
		ExternalFeedURL: r.ExternalFeedURL,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *RoomRepository) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var rows []roomModel
	tx := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Room, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainRoom(m))
	}
	return out, nil
}

func (r *RoomRepository) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	var m roomModel
	tx := r.db.WithContext(ctx).Where("id = ?", id).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	room := toDomainRoom(m)
	return &room, nil
}

// ListFeedRooms returns active rooms with an external calendar subscription.
func (r *RoomRepository) ListFeedRooms(ctx context.Context) ([]domain.Room, error) {
	var rows []roomModel
	tx := r.db.WithContext(ctx).
		Where("is_active = ? AND external_feed_url IS NOT NULL AND external_feed_url <> ''", true).
		Order("id").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Room, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainRoom(m))
	}
	return out, nil
}

func (r *RoomRepository) ListAliases(ctx context.Context) ([]domain.RoomAlias, error) {
	var rows []roomAliasModel
	tx := r.db.WithContext(ctx).Order("location, alias").Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.RoomAlias, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.RoomAlias{Location: m.Location, Alias: m.Alias, RoomID: m.RoomID})
	}
	return out, nil
}

// UpsertRoom and UpsertAlias are used by cmd/seed; the engine itself never
// writes catalog data.
func (r *RoomRepository) UpsertRoom(ctx context.Context, room domain.Room) error {
	m := toRoomModel(room)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&m).Error
}

func (r *RoomRepository) UpsertAlias(ctx context.Context, a domain.RoomAlias) error {
	m := roomAliasModel{Location: a.Location, Alias: a.Alias, RoomID: a.RoomID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location"}, {Name: "alias"}},
			DoUpdates: clause.AssignmentColumns([]string{"room_id"}),
		}).
		Create(&m).Error
}
