package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"lodgedesk/internal/domain"
	"lodgedesk/internal/modules/catalog"
	"lodgedesk/internal/repository"
)

const defaultMaxRetries = 3

type CreateBookingRequest struct {
	RoomIDRaw string
	Location  string
	CheckIn   time.Time
	CheckOut  time.Time
	UnitID    string // optional manual override; empty lets the allocator pick
	GuestName string
	Notes     string
	Source    domain.BookingSource
}

type Service struct {
	bookings   BookingRepository
	catalog    Catalog
	maxRetries int
}

func NewService(bookings BookingRepository, cat Catalog, maxRetries int) *Service {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Service{bookings: bookings, catalog: cat, maxRetries: maxRetries}
}

// CheckAvailability answers whether (room, unit?, nights) is free against the
// current booking snapshot. A nil Conflict with nil error means available.
// For a dorm with no unit given, availability means some unit is free.
func (s *Service) CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time, unitID string) (*Conflict, error) {
	if !StartOfDay(checkIn).Before(StartOfDay(checkOut)) {
		return nil, ErrInvalidDateRange
	}

	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	room, ok := snap.Room(roomID)
	if !ok {
		return nil, catalog.ErrRoomNotFound
	}
	if unitID != "" && !ValidUnit(room, unitID) {
		return nil, ErrUnitOutOfRange
	}

	existing, err := s.bookings.ListActiveByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	cand := Candidate{RoomID: room.ID, UnitID: unitID, CheckIn: checkIn, CheckOut: checkOut}
	if room.IsDorm() && unitID == "" {
		if _, err := AllocateUnit(room, cand, existing); err != nil {
			if errors.Is(err, ErrNoCapacity) {
				return fullDormConflict(room, checkIn, checkOut, existing), nil
			}
			return nil, err
		}
		return nil, nil
	}
	if !room.IsDorm() {
		cand.UnitID = "" // private rooms conflict on any overlap
	}
	return HasConflict(room, cand, existing), nil
}

// Allocate runs the bed allocator without writing anything.
func (s *Service) Allocate(ctx context.Context, roomID string, checkIn, checkOut time.Time) (string, error) {
	if !StartOfDay(checkIn).Before(StartOfDay(checkOut)) {
		return "", ErrInvalidDateRange
	}
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	room, ok := snap.Room(roomID)
	if !ok {
		return "", catalog.ErrRoomNotFound
	}
	existing, err := s.bookings.ListActiveByRoom(ctx, room.ID)
	if err != nil {
		return "", err
	}
	return AllocateUnit(room, Candidate{RoomID: room.ID, CheckIn: checkIn, CheckOut: checkOut}, existing)
}

// CreateBooking resolves, validates and writes a new stay. The write is
// conditional: the store's exclusion constraint rejects a claim that raced
// past the snapshot, and the whole allocation re-runs against a fresh
// snapshot, bounded by maxRetries, before ErrCapacityRaceLost surfaces.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if !StartOfDay(req.CheckIn).Before(StartOfDay(req.CheckOut)) {
		return nil, ErrInvalidDateRange
	}
	if req.Source == "" {
		req.Source = domain.SourceManual
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		b, err := s.tryCreate(ctx, req)
		if err == nil {
			return b, nil
		}
		if !isCapacityRace(err) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, ErrCapacityRaceLost
	}
	return nil, ErrCapacityRaceLost
}

func (s *Service) tryCreate(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	roomID, err := snap.Resolve(req.RoomIDRaw, req.Location)
	if err != nil {
		return nil, err
	}
	room, ok := snap.Room(roomID)
	if !ok {
		return nil, catalog.ErrRoomNotFound
	}

	existing, err := s.bookings.ListActiveByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	cand := Candidate{RoomID: room.ID, CheckIn: req.CheckIn, CheckOut: req.CheckOut}
	unitID := req.UnitID
	if unitID != "" {
		// Manual override: the checker alone governs acceptance.
		if !ValidUnit(room, unitID) {
			return nil, ErrUnitOutOfRange
		}
		cand.UnitID = unitID
		if !room.IsDorm() {
			cand.UnitID = ""
		}
		if c := HasConflict(room, cand, existing); c != nil {
			return nil, &ConflictError{Conflict: *c}
		}
	} else if room.IsDorm() {
		unitID, err = AllocateUnit(room, cand, existing)
		if err != nil {
			return nil, err
		}
	} else {
		if c := HasConflict(room, cand, existing); c != nil {
			return nil, &ConflictError{Conflict: *c}
		}
		unitID = "1"
	}

	resolved := room.ID
	b := &domain.Booking{
		RoomIDRaw:      req.RoomIDRaw,
		ResolvedRoomID: &resolved,
		Location:       room.Location,
		UnitID:         &unitID,
		CheckIn:        StartOfDay(req.CheckIn),
		CheckOut:       StartOfDay(req.CheckOut),
		Status:         domain.BookingPending,
		Source:         req.Source,
		GuestName:      req.GuestName,
		Notes:          req.Notes,
	}
	if req.Source == domain.SourceExternalFeed {
		b.Status = domain.BookingConfirmed
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// isCapacityRace recognizes a conditional write rejected by the store:
// PostgreSQL exclusion/unique violation on the no-double-bed constraint, or a
// stale-version guard.
func isCapacityRace(err error) bool {
	if errors.Is(err, repository.ErrStaleVersion) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	return false
}

// UpdateStatus applies a staff lifecycle transition. Cancellation stamps
// CancelledAt; terminal states reject further transitions.
func (s *Service) UpdateStatus(ctx context.Context, bookingID int64, newStatus domain.BookingStatus) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	if !transitionAllowed(b.Status, newStatus) {
		return nil, ErrInvalidStatusTransition
	}

	b.Status = newStatus
	if newStatus == domain.BookingCancelled {
		now := time.Now().UTC()
		b.CancelledAt = &now
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func transitionAllowed(from, to domain.BookingStatus) bool {
	switch from {
	case domain.BookingPending:
		return to == domain.BookingConfirmed || to == domain.BookingCancelled
	case domain.BookingConfirmed:
		return to == domain.BookingCheckedIn || to == domain.BookingCancelled
	case domain.BookingCheckedIn:
		return to == domain.BookingCheckedOut
	default:
		return false
	}
}

// ReassignUnit moves a booking to an explicit unit, checker-governed, with
// the same conditional-write retry as creation.
func (s *Service) ReassignUnit(ctx context.Context, bookingID int64, unitID string) (*domain.Booking, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, ErrNotFound
		}
		if b.ResolvedRoomID == nil {
			return nil, catalog.ErrRoomNotResolved
		}

		snap, err := s.catalog.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		room, ok := snap.Room(*b.ResolvedRoomID)
		if !ok {
			return nil, catalog.ErrRoomNotFound
		}
		if !ValidUnit(room, unitID) {
			return nil, ErrUnitOutOfRange
		}

		existing, err := s.bookings.ListActiveByRoom(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		cand := Candidate{
			RoomID:    room.ID,
			UnitID:    unitID,
			CheckIn:   b.CheckIn,
			CheckOut:  b.CheckOut,
			ExcludeID: b.ID,
		}
		if c := HasConflict(room, cand, existing); c != nil {
			return nil, &ConflictError{Conflict: *c}
		}

		b.UnitID = &unitID
		if err := s.bookings.Update(ctx, b); err != nil {
			if isCapacityRace(err) {
				continue
			}
			return nil, err
		}
		return b, nil
	}
	return nil, ErrCapacityRaceLost
}

// ListOrphaned surfaces bookings that fit no room/unit slot under current
// catalog data. Read-only; remediation stays with staff.
func (s *Service) ListOrphaned(ctx context.Context, roomID string) ([]domain.Booking, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make(map[string]domain.Room)
	for _, r := range snap.Rooms() {
		rooms[r.ID] = r
	}

	bookings, err := s.bookings.ListNotCancelled(ctx, roomID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0)
	for _, b := range bookings {
		if IsOrphaned(b, rooms) {
			out = append(out, b)
		}
	}
	return out, nil
}

// fullDormConflict reports a dorm with no free unit as a conflict citing
// every blocking booking over the requested range.
func fullDormConflict(room domain.Room, checkIn, checkOut time.Time, existing []domain.Booking) *Conflict {
	c := HasConflict(room, Candidate{RoomID: room.ID, CheckIn: checkIn, CheckOut: checkOut}, existing)
	if c == nil {
		// Units are individually blocked but the unfiltered check passed;
		// should not happen, report an empty conflict rather than available.
		return &Conflict{RoomID: room.ID}
	}
	c.UnitID = ""
	return c
}
