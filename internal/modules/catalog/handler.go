package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lodgedesk/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rooms", h.ListRooms)
	// Not nested under /rooms/:id; the token may be anything but canonical.
	rg.GET("/resolve", h.ResolveRoom)
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list rooms")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) ResolveRoom(c *gin.Context) {
	rawType := c.Query("type")
	rawLocation := c.Query("location")
	if rawType == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "type query parameter is required")
		return
	}

	id, err := h.service.Resolve(c.Request.Context(), rawType, rawLocation)
	if err != nil {
		if errors.Is(err, ErrRoomNotResolved) {
			response.Error(c, http.StatusNotFound, "ROOM_NOT_RESOLVED", "no canonical room for the given token")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to resolve room")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room_id": id})
}
