package repository

import (
	"context"
	"errors"
	"time"

	"lodgedesk/internal/domain"

	"gorm.io/gorm"
)

// ErrStaleVersion means a guarded update found a newer row version: somebody
// else committed between snapshot and write. Callers re-run against a fresh
// snapshot.
var ErrStaleVersion = errors.New("booking version is stale")

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID              int64      `gorm:"column:id;primaryKey"`
	RoomIDRaw       string     `gorm:"column:room_id_raw"`
	ResolvedRoomID  *string    `gorm:"column:resolved_room_id;index"`
	Location        string     `gorm:"column:location"`
	UnitID          *string    `gorm:"column:unit_id"`
	CheckIn         time.Time  `gorm:"column:check_in"`
	CheckOut        time.Time  `gorm:"column:check_out"`
	Status          string     `gorm:"column:status;index"`
	Source          string     `gorm:"column:source"`
	ExternalEventID *string    `gorm:"column:external_event_id;index"`
	GuestName       string     `gorm:"column:guest_name"`
	Notes           *string    `gorm:"column:notes"`
	CancelledAt     *time.Time `gorm:"column:cancelled_at"`
	Version         int64      `gorm:"column:version"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var notes string
	if m.Notes != nil {
		notes = *m.Notes
	}
	return &domain.Booking{
		ID:              m.ID,
		RoomIDRaw:       m.RoomIDRaw,
		ResolvedRoomID:  m.ResolvedRoomID,
		Location:        m.Location,
		UnitID:          m.UnitID,
		CheckIn:         m.CheckIn,
		CheckOut:        m.CheckOut,
		Status:          domain.BookingStatus(m.Status),
		Source:          domain.BookingSource(m.Source),
		ExternalEventID: m.ExternalEventID,
		GuestName:       m.GuestName,
		Notes:           notes,
		CancelledAt:     m.CancelledAt,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var notes *string
	if b.Notes != "" {
		v := b.Notes
		notes = &v
	}
	return bookingModel{
		ID:              b.ID,
		RoomIDRaw:       b.RoomIDRaw,
		ResolvedRoomID:  b.ResolvedRoomID,
		Location:        b.Location,
		UnitID:          b.UnitID,
		CheckIn:         b.CheckIn,
		CheckOut:        b.CheckOut,
		Status:          string(b.Status),
		Source:          string(b.Source),
		ExternalEventID: b.ExternalEventID,
		GuestName:       b.GuestName,
		Notes:           notes,
		CancelledAt:     b.CancelledAt,
		Version:         b.Version,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	b.Version = 1
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

// ListActiveByRoom returns every booking that can block a candidate for the
// room: status pending/confirmed/checked_in, any source.
func (r *BookingRepository) ListActiveByRoom(ctx context.Context, roomID string) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := r.db.WithContext(ctx).
		Where("resolved_room_id = ? AND status IN ?", roomID, blockingStatuses()).
		Order("check_in").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(rows), nil
}

// ListExternalByRoom returns feed-sourced bookings for a room, cancelled ones
// included: the reconciler needs them to keep re-syncs idempotent.
func (r *BookingRepository) ListExternalByRoom(ctx context.Context, roomID string) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := r.db.WithContext(ctx).
		Where("resolved_room_id = ? AND source = ?", roomID, string(domain.SourceExternalFeed)).
		Order("check_in").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(rows), nil
}

// ListNotCancelled returns every non-cancelled booking, optionally filtered by
// resolved room. Unresolved bookings (resolved_room_id IS NULL) are always
// included when no filter is set; the orphan scan depends on that.
func (r *BookingRepository) ListNotCancelled(ctx context.Context, roomID string) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Where("status <> ?", string(domain.BookingCancelled))
	if roomID != "" {
		q = q.Where("resolved_room_id = ?", roomID)
	}
	var rows []bookingModel
	if tx := q.Order("id").Find(&rows); tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(rows), nil
}

// Update writes the booking back guarded by its snapshot version. The row
// version is bumped; ErrStaleVersion when another writer got there first.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]interface{}{
			"resolved_room_id": m.ResolvedRoomID,
			"unit_id":          m.UnitID,
			"check_in":         m.CheckIn,
			"check_out":        m.CheckOut,
			"status":           m.Status,
			"cancelled_at":     m.CancelledAt,
			"notes":            m.Notes,
			"version":          b.Version + 1,
			"updated_at":       time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrStaleVersion
	}
	b.Version++
	return nil
}

func toDomainBookings(rows []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out
}

func blockingStatuses() []string {
	return []string{
		string(domain.BookingPending),
		string(domain.BookingConfirmed),
		string(domain.BookingCheckedIn),
	}
}
