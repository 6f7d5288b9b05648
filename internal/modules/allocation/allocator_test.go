package allocation

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"lodgedesk/internal/domain"
)

func TestAllocateUnit_LowestFreeBedFirst(t *testing.T) {
	existing := []domain.Booking{
		activeBooking(1, dormRoom.ID, "1", date(2026, 1, 1), date(2026, 1, 5)),
		activeBooking(2, dormRoom.ID, "2", date(2026, 1, 1), date(2026, 1, 5)),
	}
	cand := Candidate{RoomID: dormRoom.ID, CheckIn: date(2026, 1, 1), CheckOut: date(2026, 1, 5)}

	unit, err := AllocateUnit(dormRoom, cand, existing)
	assert.NoError(t, err)
	assert.Equal(t, "3", unit)
}

func TestAllocateUnit_FullDorm(t *testing.T) {
	// Seven bookings occupy units 1-7 for Jan 1-5; the eighth request takes
	// bed 8, the ninth finds no capacity.
	existing := make([]domain.Booking, 0, 7)
	for i := 1; i <= 7; i++ {
		existing = append(existing, activeBooking(int64(i), dormRoom.ID, strconv.Itoa(i), date(2026, 1, 1), date(2026, 1, 5)))
	}
	cand := Candidate{RoomID: dormRoom.ID, CheckIn: date(2026, 1, 1), CheckOut: date(2026, 1, 5)}

	unit, err := AllocateUnit(dormRoom, cand, existing)
	assert.NoError(t, err)
	assert.Equal(t, "8", unit)

	existing = append(existing, activeBooking(8, dormRoom.ID, "8", date(2026, 1, 1), date(2026, 1, 5)))
	_, err = AllocateUnit(dormRoom, cand, existing)
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestAllocateUnit_ReusesBedFreedMidRange(t *testing.T) {
	// Bed 1 is taken Jan 1-3 only; a Jan 3-5 candidate gets it back.
	existing := []domain.Booking{
		activeBooking(1, dormRoom.ID, "1", date(2026, 1, 1), date(2026, 1, 3)),
	}
	cand := Candidate{RoomID: dormRoom.ID, CheckIn: date(2026, 1, 3), CheckOut: date(2026, 1, 5)}

	unit, err := AllocateUnit(dormRoom, cand, existing)
	assert.NoError(t, err)
	assert.Equal(t, "1", unit)
}

func TestAllocateUnit_PrivateRoom(t *testing.T) {
	cand := Candidate{RoomID: privateRoom.ID, CheckIn: date(2026, 1, 1), CheckOut: date(2026, 1, 3)}

	unit, err := AllocateUnit(privateRoom, cand, nil)
	assert.NoError(t, err)
	assert.Equal(t, "1", unit)

	existing := []domain.Booking{
		activeBooking(1, privateRoom.ID, "", date(2026, 1, 2), date(2026, 1, 4)),
	}
	_, err = AllocateUnit(privateRoom, cand, existing)
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestValidUnit(t *testing.T) {
	assert.True(t, ValidUnit(dormRoom, "1"))
	assert.True(t, ValidUnit(dormRoom, "8"))
	assert.False(t, ValidUnit(dormRoom, "9"))
	assert.False(t, ValidUnit(dormRoom, "0"))
	assert.False(t, ValidUnit(dormRoom, "bed-3"))
	assert.True(t, ValidUnit(privateRoom, "1"))
	assert.False(t, ValidUnit(privateRoom, "2"))
}

func TestIsOrphaned(t *testing.T) {
	rooms := map[string]domain.Room{dormRoom.ID: dormRoom}

	ok := activeBooking(1, dormRoom.ID, "3", date(2026, 1, 1), date(2026, 1, 3))
	assert.False(t, IsOrphaned(ok, rooms))

	unresolved := ok
	unresolved.ResolvedRoomID = nil
	assert.True(t, IsOrphaned(unresolved, rooms))

	deletedRoom := activeBooking(2, "old_dorm_gone", "1", date(2026, 1, 1), date(2026, 1, 3))
	assert.True(t, IsOrphaned(deletedRoom, rooms))

	badUnit := activeBooking(3, dormRoom.ID, "12", date(2026, 1, 1), date(2026, 1, 3))
	assert.True(t, IsOrphaned(badUnit, rooms))
}
