package feedsync

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"lodgedesk/internal/domain"
	"lodgedesk/internal/modules/allocation"
	"lodgedesk/internal/modules/catalog"
)

// Report is the operator-facing outcome of one room sync. Rendering and
// delivery happen elsewhere.
type Report struct {
	RoomID     string   `json:"room_id"`
	RawCount   int      `json:"raw_count"`
	Processed  int      `json:"processed"`
	Imported   int      `json:"imported"`
	Updated    int      `json:"updated"`
	Cancelled  int      `json:"cancelled"`
	Duplicates int      `json:"duplicates"`
	Warnings   []string `json:"warnings"`
	Errors     []string `json:"errors"`
	DurationMs int64    `json:"duration_ms"`
}

type Service struct {
	rooms    RoomSource
	bookings BookingRepository
	fetcher  FeedFetcher
	group    singleflight.Group
}

func NewService(rooms RoomSource, bookings BookingRepository, fetcher FeedFetcher) *Service {
	return &Service{rooms: rooms, bookings: bookings, fetcher: fetcher}
}

// SyncRoom reconciles a room against its external feed. Concurrent calls for
// the same room join the in-flight run and share its report; different rooms
// sync independently.
func (s *Service) SyncRoom(ctx context.Context, roomID string) (*Report, error) {
	v, err, _ := s.group.Do(roomID, func() (interface{}, error) {
		// The flight outlives any single caller: a joiner hanging up must
		// not cancel the run for everyone else. The fetch timeout remains
		// the only abort path.
		return s.syncRoom(context.WithoutCancel(ctx), roomID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Report), nil
}

// SyncAll runs every feed-subscribed room. Outcomes are isolated: one room's
// failure lands in its own report and the rest still sync.
func (s *Service) SyncAll(ctx context.Context) ([]*Report, error) {
	rooms, err := s.rooms.ListFeedRooms(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, 0, len(rooms))
	for _, room := range rooms {
		r, err := s.SyncRoom(ctx, room.ID)
		if err != nil {
			r = &Report{RoomID: room.ID, Errors: []string{err.Error()}}
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (s *Service) syncRoom(ctx context.Context, roomID string) (*Report, error) {
	started := time.Now()
	report := &Report{RoomID: roomID, Warnings: []string{}, Errors: []string{}}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, catalog.ErrRoomNotFound
	}
	if !room.HasFeed() {
		return nil, ErrNoFeed
	}

	events, warnings, err := s.fetcher.FetchEvents(ctx, *room.ExternalFeedURL)
	report.Warnings = append(report.Warnings, warnings...)
	if err != nil {
		// Upstream failure is this room's outcome, not a process failure.
		report.Errors = append(report.Errors, err.Error())
		report.DurationMs = time.Since(started).Milliseconds()
		return report, nil
	}
	report.RawCount = len(events)

	external, err := s.bookings.ListExternalByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	active, err := s.bookings.ListActiveByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	byUID := make(map[string]*domain.Booking, len(external))
	for i := range external {
		if external[i].ExternalEventID != nil {
			byUID[*external[i].ExternalEventID] = &external[i]
		}
	}

	fetchedUIDs := make(map[string]struct{}, len(events))
	seenRanges := make(map[string]struct{}, len(events))

	for _, ev := range events {
		fetchedUIDs[ev.UID] = struct{}{}
		report.Processed++

		// Same (room, nights) tuple twice in one batch: keep the first.
		rangeKey := fmt.Sprintf("%s|%s|%s", room.ID, ev.CheckIn.Format("2006-01-02"), ev.CheckOut.Format("2006-01-02"))
		if _, dup := seenRanges[rangeKey]; dup {
			if _, known := byUID[ev.UID]; !known {
				report.Duplicates++
				continue
			}
		}
		seenRanges[rangeKey] = struct{}{}

		existing, known := byUID[ev.UID]
		if known {
			s.applyUpdate(ctx, *room, existing, ev, active, report)
			continue
		}
		if created := s.importEvent(ctx, *room, ev, active, report); created != nil {
			active = append(active, *created)
		}
	}

	s.cancelMissing(ctx, external, fetchedUIDs, report)

	report.DurationMs = time.Since(started).Milliseconds()
	log.Printf("feed_sync room=%s raw=%d imported=%d updated=%d cancelled=%d duplicates=%d warnings=%d errors=%d duration_ms=%d",
		room.ID, report.RawCount, report.Imported, report.Updated, report.Cancelled,
		report.Duplicates, len(report.Warnings), len(report.Errors), report.DurationMs)
	return report, nil
}

// importEvent creates a confirmed feed booking for a previously unseen UID.
// A clash with a manually entered booking is a warning, never an overwrite:
// the manual booking wins and the event is retried next sync.
func (s *Service) importEvent(ctx context.Context, room domain.Room, ev Event, active []domain.Booking, report *Report) *domain.Booking {
	cand := allocation.Candidate{RoomID: room.ID, CheckIn: ev.CheckIn, CheckOut: ev.CheckOut}

	unitID, err := allocation.AllocateUnit(room, cand, active)
	if err != nil {
		cand.UnitID = ""
		conflict := allocation.HasConflict(room, cand, active)
		if conflict != nil && blockedByManual(conflict, active) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("event %s skipped: manual booking wins (blocking %v)", ev.UID, conflict.BlockingIDs))
		} else {
			report.Warnings = append(report.Warnings, fmt.Sprintf("event %s skipped: no capacity for %s..%s",
				ev.UID, ev.CheckIn.Format("2006-01-02"), ev.CheckOut.Format("2006-01-02")))
		}
		return nil
	}

	uid := ev.UID
	resolved := room.ID
	b := &domain.Booking{
		RoomIDRaw:       room.ID,
		ResolvedRoomID:  &resolved,
		Location:        room.Location,
		UnitID:          &unitID,
		CheckIn:         ev.CheckIn,
		CheckOut:        ev.CheckOut,
		Status:          domain.BookingConfirmed,
		Source:          domain.SourceExternalFeed,
		ExternalEventID: &uid,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("event %s: create failed: %v", ev.UID, err))
		return nil
	}
	report.Imported++
	return b
}

// applyUpdate refreshes an already-imported booking when the OTA moved the
// stay. Identical dates are the idempotent re-sync path: nothing to do.
// A booking this path cancelled earlier stays cancelled.
func (s *Service) applyUpdate(ctx context.Context, room domain.Room, b *domain.Booking, ev Event, active []domain.Booking, report *Report) {
	if b.IsCancelled() {
		return
	}
	if b.CheckIn.Equal(ev.CheckIn) && b.CheckOut.Equal(ev.CheckOut) {
		return
	}

	unitID := ""
	if b.UnitID != nil {
		unitID = *b.UnitID
	}
	cand := allocation.Candidate{
		RoomID:    room.ID,
		UnitID:    unitID,
		CheckIn:   ev.CheckIn,
		CheckOut:  ev.CheckOut,
		ExcludeID: b.ID,
	}
	if !room.IsDorm() {
		cand.UnitID = ""
	}
	if conflict := allocation.HasConflict(room, cand, active); conflict != nil {
		// Current bed is taken on the new nights; try any other bed.
		cand.UnitID = ""
		newUnit, err := allocation.AllocateUnit(room, cand, active)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("event %s: date change conflicts (blocking %v), kept previous nights", ev.UID, conflict.BlockingIDs))
			return
		}
		b.UnitID = &newUnit
	}

	b.CheckIn = ev.CheckIn
	b.CheckOut = ev.CheckOut
	if err := s.bookings.Update(ctx, b); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("event %s: update failed: %v", ev.UID, err))
		return
	}
	report.Updated++
}

// cancelMissing transitions previously imported bookings whose UID vanished
// from the feed: the OTA removed the reservation.
func (s *Service) cancelMissing(ctx context.Context, external []domain.Booking, fetched map[string]struct{}, report *Report) {
	for i := range external {
		b := &external[i]
		if !b.Blocks() || b.ExternalEventID == nil {
			continue
		}
		if _, still := fetched[*b.ExternalEventID]; still {
			continue
		}

		now := time.Now().UTC()
		b.Status = domain.BookingCancelled
		b.CancelledAt = &now
		if err := s.bookings.Update(ctx, b); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("event %s: cancel failed: %v", *b.ExternalEventID, err))
			continue
		}
		report.Cancelled++
	}
}

func blockedByManual(conflict *allocation.Conflict, active []domain.Booking) bool {
	manual := make(map[int64]bool)
	for _, b := range active {
		if b.Source == domain.SourceManual {
			manual[b.ID] = true
		}
	}
	for _, id := range conflict.BlockingIDs {
		if manual[id] {
			return true
		}
	}
	return false
}
