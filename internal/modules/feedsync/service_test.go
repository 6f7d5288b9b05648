package feedsync

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lodgedesk/internal/domain"
)

type MockRoomSource struct {
	mock.Mock
}

func (m *MockRoomSource) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomSource) ListFeedRooms(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	if args.Error(0) == nil && b != nil {
		b.ID = 500
	}
	return args.Error(0)
}

func (m *MockBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) ListActiveByRoom(ctx context.Context, roomID string) ([]domain.Booking, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListExternalByRoom(ctx context.Context, roomID string) ([]domain.Booking, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchEvents(ctx context.Context, url string) ([]Event, []string, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, toStrings(args.Get(1)), args.Error(2)
	}
	return args.Get(0).([]Event), toStrings(args.Get(1)), args.Error(2)
}

func toStrings(v interface{}) []string {
	if v == nil {
		return nil
	}
	return v.([]string)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

var feedURL = "https://ota.example.com/room.ics"

func feedRoom() *domain.Room {
	return &domain.Room{
		ID:              "pueblo_dorm_mixed_8",
		Location:        "pueblo",
		Kind:            domain.RoomDorm,
		CapacityBeds:    8,
		MaxGuests:       8,
		ExternalFeedURL: &feedURL,
		IsActive:        true,
	}
}

func externalBooking(id int64, roomID, uid, unit string, in, out time.Time) domain.Booking {
	return domain.Booking{
		ID:              id,
		RoomIDRaw:       roomID,
		ResolvedRoomID:  &roomID,
		UnitID:          strPtr(unit),
		CheckIn:         in,
		CheckOut:        out,
		Status:          domain.BookingConfirmed,
		Source:          domain.SourceExternalFeed,
		ExternalEventID: strPtr(uid),
		Version:         1,
	}
}

func TestSyncRoom_ImportsNewEvent(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	room := feedRoom()
	rooms.On("GetRoom", mock.Anything, room.ID).Return(room, nil)
	fetcher.On("FetchEvents", mock.Anything, feedURL).Return([]Event{
		{UID: "abc", CheckIn: date(2026, 1, 5), CheckOut: date(2026, 1, 7)},
	}, []string{}, nil)
	bookings.On("ListExternalByRoom", mock.Anything, room.ID).Return([]domain.Booking{}, nil)
	bookings.On("ListActiveByRoom", mock.Anything, room.ID).Return([]domain.Booking{}, nil)
	bookings.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.ExternalEventID != nil && *b.ExternalEventID == "abc" &&
			b.Status == domain.BookingConfirmed && b.Source == domain.SourceExternalFeed
	})).Return(nil)

	service := NewService(rooms, bookings, fetcher)
	report, err := service.SyncRoom(context.Background(), room.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.RawCount)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Imported)
	assert.Empty(t, report.Errors)
	bookings.AssertExpectations(t)
}

func TestSyncRoom_RerunIsIdempotent(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	room := feedRoom()
	imported := externalBooking(500, room.ID, "abc", "1", date(2026, 1, 5), date(2026, 1, 7))

	rooms.On("GetRoom", mock.Anything, room.ID).Return(room, nil)
	fetcher.On("FetchEvents", mock.Anything, feedURL).Return([]Event{
		{UID: "abc", CheckIn: date(2026, 1, 5), CheckOut: date(2026, 1, 7)},
	}, []string{}, nil)
	bookings.On("ListExternalByRoom", mock.Anything, room.ID).Return([]domain.Booking{imported}, nil)
	bookings.On("ListActiveByRoom", mock.Anything, room.ID).Return([]domain.Booking{imported}, nil)

	service := NewService(rooms, bookings, fetcher)
	report, err := service.SyncRoom(context.Background(), room.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 0, report.Cancelled)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSyncRoom_CancelsWhenEventDisappears(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	room := feedRoom()
	imported := externalBooking(500, room.ID, "abc", "1", date(2026, 1, 5), date(2026, 1, 7))

	rooms.On("GetRoom", mock.Anything, room.ID).Return(room, nil)
	fetcher.On("FetchEvents", mock.Anything, feedURL).Return([]Event{}, []string{}, nil)
	bookings.On("ListExternalByRoom", mock.Anything, room.ID).Return([]domain.Booking{imported}, nil)
	bookings.On("ListActiveByRoom", mock.Anything, room.ID).Return([]domain.Booking{imported}, nil)
	bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.ID == 500 && b.Status == domain.BookingCancelled && b.CancelledAt != nil
	})).Return(nil)

	service := NewService(rooms, bookings, fetcher)
	report, err := service.SyncRoom(context.Background(), room.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Cancelled)
	bookings.AssertExpectations(t)
}

func TestSyncRoom_CollapsesDuplicateRanges(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	room := feedRoom()
	rooms.On("GetRoom", mock.Anything, room.ID).Return(room, nil)
	fetcher.On("FetchEvents", mock.Anything, feedURL).Return([]Event{
		{UID: "abc", CheckIn: date(2026, 1, 5), CheckOut: date(2026, 1, 7)},
		{UID: "def", CheckIn: date(2026, 1, 5), CheckOut: date(2026, 1, 7)},
	}, []string{}, nil)
	bookings.On("ListExternalByRoom", mock.Anything, room.ID).Return([]domain.Booking{}, nil)
	bookings.On("ListActiveByRoom", mock.Anything, room.ID).Return([]domain.Booking{}, nil)
	bookings.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	service := NewService(rooms, bookings, fetcher)
	report, err := service.SyncRoom(context.Background(), room.ID)

	assert.NoError(t, err)
	assert.Equal(t, 2, report.RawCount)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Duplicates)
	bookings.AssertNumberOfCalls(t, "Create", 1)
}

func TestSyncRoom_ManualBookingWins(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	// A private room fully occupied by a staff-entered booking.
	privURL := "https://ota.example.com/private.ics"
	room := &domain.Room{
		ID: "hideout_private_4", Location: "hideout",
		Kind: domain.RoomPrivate, CapacityBeds: 1, MaxGuests: 2,
		ExternalFeedURL: &privURL, IsActive: true,
	}
	manual := domain.Booking{
		ID:             7,
		ResolvedRoomID: strPtr(room.ID),
		CheckIn:        date(2026, 1, 5),
		CheckOut:       date(2026, 1, 8),
		Status:         domain.BookingConfirmed,
		Source:         domain.SourceManual,
	}

	rooms.On("GetRoom", mock.Anything, room.ID).Return(room, nil)
	fetcher.On("FetchEvents", mock.Anything, privURL).Return([]Event{
		{UID: "abc", CheckIn: date(2026, 1, 6), CheckOut: date(2026, 1, 7)},
	}, []string{}, nil)
	bookings.On("ListExternalByRoom", mock.Anything, room.ID).Return([]domain.Booking{}, nil)
	bookings.On("ListActiveByRoom", mock.Anything, room.ID).Return([]domain.Booking{manual}, nil)

	service := NewService(rooms, bookings, fetcher)
	report, err := service.SyncRoom(context.Background(), room.ID)

	assert.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "manual booking wins")
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSyncRoom_UpdatesMovedStay(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	room := feedRoom()
	imported := externalBooking(500, room.ID, "abc", "1", date(2026, 1, 5), date(2026, 1, 7))

	rooms.On("GetRoom", mock.Anything, room.ID).Return(room, nil)
	fetcher.On("FetchEvents", mock.Anything, feedURL).Return([]Event{
		{UID: "abc", CheckIn: date(2026, 1, 6), CheckOut: date(2026, 1, 9)},
	}, []string{}, nil)
	bookings.On("ListExternalByRoom", mock.Anything, room.ID).Return([]domain.Booking{imported}, nil)
	bookings.On("ListActiveByRoom", mock.Anything, room.ID).Return([]domain.Booking{imported}, nil)
	bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.ID == 500 && b.CheckIn.Equal(date(2026, 1, 6)) && b.CheckOut.Equal(date(2026, 1, 9))
	})).Return(nil)

	service := NewService(rooms, bookings, fetcher)
	report, err := service.SyncRoom(context.Background(), room.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	bookings.AssertExpectations(t)
}

func TestSyncRoom_FetchFailureIsReportedNotFatal(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	room := feedRoom()
	rooms.On("GetRoom", mock.Anything, room.ID).Return(room, nil)
	fetcher.On("FetchEvents", mock.Anything, feedURL).Return(nil, nil, ErrFeedFetch)

	service := NewService(rooms, bookings, fetcher)
	report, err := service.SyncRoom(context.Background(), room.ID)

	assert.NoError(t, err)
	assert.Len(t, report.Errors, 1)
	assert.Equal(t, 0, report.Imported)
	bookings.AssertNotCalled(t, "ListExternalByRoom", mock.Anything, mock.Anything)
}

func TestSyncRoom_ConcurrentCallsShareOneFlight(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	room := feedRoom()
	entered := make(chan struct{})
	release := make(chan struct{})
	var fetches int32

	rooms.On("GetRoom", mock.Anything, room.ID).Return(room, nil)
	fetcher.On("FetchEvents", mock.Anything, feedURL).Run(func(mock.Arguments) {
		if atomic.AddInt32(&fetches, 1) == 1 {
			close(entered)
		}
		<-release
	}).Return([]Event{
		{UID: "abc", CheckIn: date(2026, 1, 5), CheckOut: date(2026, 1, 7)},
	}, []string{}, nil)
	bookings.On("ListExternalByRoom", mock.Anything, room.ID).Return([]domain.Booking{}, nil)
	bookings.On("ListActiveByRoom", mock.Anything, room.ID).Return([]domain.Booking{}, nil)
	bookings.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := NewService(rooms, bookings, fetcher)

	var r1, r2 *Report
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r1, _ = service.SyncRoom(context.Background(), room.ID)
	}()
	<-entered
	go func() {
		defer wg.Done()
		r2, _ = service.SyncRoom(context.Background(), room.ID)
	}()
	// Give the second caller time to join the in-flight run, then let it finish.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Same(t, r1, r2)
	assert.Equal(t, 1, r1.Imported)
	fetcher.AssertNumberOfCalls(t, "FetchEvents", 1)
	bookings.AssertNumberOfCalls(t, "Create", 1)
}

func TestSyncRoom_SurvivesCallerDisconnect(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	notCancelled := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })

	room := feedRoom()
	rooms.On("GetRoom", notCancelled, room.ID).Return(room, nil)
	fetcher.On("FetchEvents", notCancelled, feedURL).Return([]Event{}, []string{}, nil)
	bookings.On("ListExternalByRoom", notCancelled, room.ID).Return([]domain.Booking{}, nil)
	bookings.On("ListActiveByRoom", notCancelled, room.ID).Return([]domain.Booking{}, nil)

	// The caller hung up before the sync even started.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service := NewService(rooms, bookings, fetcher)
	report, err := service.SyncRoom(ctx, room.ID)

	assert.NoError(t, err)
	assert.Empty(t, report.Errors)
	rooms.AssertExpectations(t)
}

func TestSyncAll_IsolatesRoomFailures(t *testing.T) {
	rooms := new(MockRoomSource)
	bookings := new(MockBookingRepository)
	fetcher := new(MockFetcher)

	okURL := "https://ota.example.com/a.ics"
	badURL := "https://ota.example.com/b.ics"
	roomA := domain.Room{ID: "pueblo_dorm_mixed_8", Location: "pueblo", Kind: domain.RoomDorm, CapacityBeds: 8, ExternalFeedURL: &okURL, IsActive: true}
	roomB := domain.Room{ID: "hideout_dorm_6", Location: "hideout", Kind: domain.RoomDorm, CapacityBeds: 6, ExternalFeedURL: &badURL, IsActive: true}

	rooms.On("ListFeedRooms", mock.Anything).Return([]domain.Room{roomA, roomB}, nil)
	rooms.On("GetRoom", mock.Anything, roomA.ID).Return(&roomA, nil)
	rooms.On("GetRoom", mock.Anything, roomB.ID).Return(&roomB, nil)
	fetcher.On("FetchEvents", mock.Anything, okURL).Return([]Event{}, []string{}, nil)
	fetcher.On("FetchEvents", mock.Anything, badURL).Return(nil, nil, ErrFeedFetch)
	bookings.On("ListExternalByRoom", mock.Anything, roomA.ID).Return([]domain.Booking{}, nil)
	bookings.On("ListActiveByRoom", mock.Anything, roomA.ID).Return([]domain.Booking{}, nil)

	service := NewService(rooms, bookings, fetcher)
	reports, err := service.SyncAll(context.Background())

	assert.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.Empty(t, reports[0].Errors)
	assert.Len(t, reports[1].Errors, 1)
}
