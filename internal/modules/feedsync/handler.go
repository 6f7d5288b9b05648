package feedsync

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lodgedesk/internal/modules/catalog"
	"lodgedesk/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/rooms/:id/sync", h.SyncRoom)
	rg.POST("/sync", h.SyncAll)
	rg.GET("/rooms/:id/calendar.ics", h.RoomCalendar)
}

func (h *Handler) SyncRoom(c *gin.Context) {
	report, err := h.service.SyncRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrRoomNotFound):
			response.Error(c, http.StatusNotFound, "ROOM_NOT_FOUND", "room not in catalog")
		case errors.Is(err, ErrNoFeed):
			response.Error(c, http.StatusBadRequest, "NO_FEED", "room has no external feed subscription")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "sync failed")
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": report})
}

func (h *Handler) SyncAll(c *gin.Context) {
	reports, err := h.service.SyncAll(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "batch sync failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) RoomCalendar(c *gin.Context) {
	ctx := c.Request.Context()
	room, err := h.service.rooms.GetRoom(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load room")
		return
	}
	if room == nil {
		response.Error(c, http.StatusNotFound, "ROOM_NOT_FOUND", "room not in catalog")
		return
	}

	bookings, err := h.service.bookings.ListActiveByRoom(ctx, room.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load bookings")
		return
	}

	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.String(http.StatusOK, BuildRoomCalendar(*room, bookings))
}
