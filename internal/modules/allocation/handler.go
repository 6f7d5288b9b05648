package allocation

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lodgedesk/internal/domain"
	"lodgedesk/internal/modules/catalog"
	"lodgedesk/internal/pkg/response"
)

type Handler struct {
	service    *Service
	cutoffHour int
	loc        *time.Location
}

func NewHandler(service *Service, nightCutoffHour int, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, cutoffHour: nightCutoffHour, loc: loc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rooms/:id/availability", h.CheckAvailability)
	rg.POST("/rooms/:id/allocate", h.Allocate)
	rg.POST("/bookings", h.CreateBooking)
	rg.POST("/bookings/:id/status", h.UpdateStatus)
	rg.POST("/bookings/:id/unit", h.ReassignUnit)
	rg.GET("/orphans", h.ListOrphaned)
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	var checkIn, checkOut time.Time
	if c.Query("check_in") == "" && c.Query("check_out") == "" {
		// No range given: check tonight, in business-day terms (a 2 AM
		// request still asks about the night that is underway). The cutoff
		// reads the property's clock, not the server's.
		checkIn = BusinessDate(time.Now().In(h.loc), h.cutoffHour)
		checkOut = checkIn.AddDate(0, 0, 1)
	} else {
		var err1, err2 error
		checkIn, err1 = ParseDate(c.Query("check_in"))
		checkOut, err2 = ParseDate(c.Query("check_out"))
		if err1 != nil || err2 != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in and check_out must be YYYY-MM-DD")
			return
		}
	}

	conflict, err := h.service.CheckAvailability(c.Request.Context(), c.Param("id"), checkIn, checkOut, c.Query("unit"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if conflict != nil {
		response.Success(c, http.StatusOK, gin.H{"available": false, "conflict": conflict})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"available": true})
}

func (h *Handler) Allocate(c *gin.Context) {
	var body allocateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	checkIn, err1 := ParseDate(body.CheckIn)
	checkOut, err2 := ParseDate(body.CheckOut)
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in and check_out must be YYYY-MM-DD")
		return
	}

	unitID, err := h.service.Allocate(c.Request.Context(), c.Param("id"), checkIn, checkOut)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unit_id": unitID})
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var body createBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	checkIn, err1 := ParseDate(body.CheckIn)
	checkOut, err2 := ParseDate(body.CheckOut)
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in and check_out must be YYYY-MM-DD")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), CreateBookingRequest{
		RoomIDRaw: body.RoomID,
		Location:  body.Location,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		UnitID:    body.UnitID,
		GuestName: body.GuestName,
		Notes:     body.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid booking id")
		return
	}
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), id, domain.BookingStatus(body.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ReassignUnit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid booking id")
		return
	}
	var body reassignBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	b, err := h.service.ReassignUnit(c.Request.Context(), id, body.UnitID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListOrphaned(c *gin.Context) {
	bookings, err := h.service.ListOrphaned(c.Request.Context(), c.Query("room_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var conflictErr *ConflictError
	switch {
	case errors.As(err, &conflictErr):
		response.ErrorWithDetails(c, http.StatusConflict, "BOOKING_CONFLICT", "unit occupied for the requested nights", conflictErr.Conflict)
	case errors.Is(err, ErrNoCapacity):
		response.Error(c, http.StatusConflict, "NO_CAPACITY", "no free unit for the requested nights")
	case errors.Is(err, ErrCapacityRaceLost):
		response.Error(c, http.StatusConflict, "CAPACITY_RACE_LOST", "allocation kept losing to concurrent writes, try again")
	case errors.Is(err, ErrInvalidDateRange):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in must be before check_out")
	case errors.Is(err, ErrUnitOutOfRange):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "unit index outside room capacity")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "status transition not allowed")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "booking not found")
	case errors.Is(err, catalog.ErrRoomNotFound):
		response.Error(c, http.StatusNotFound, "ROOM_NOT_FOUND", "room not in catalog")
	case errors.Is(err, catalog.ErrRoomNotResolved):
		response.Error(c, http.StatusUnprocessableEntity, "ROOM_NOT_RESOLVED", "room token did not resolve to a canonical room")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "operation failed")
	}
}
