package roomhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meetingrelay/internal/services/history"
	"meetingrelay/internal/services/meeting"
)

// RoomReader is the read-only slice of the meeting service used for reporting.
type RoomReader interface {
	ListRooms() []meeting.RoomSummary
	Room(roomID string) (meeting.RoomSummary, bool)
	ConnectionCount() int
}

type Handler struct {
	rooms   RoomReader
	history history.IHistoryService // nil when Postgres is disabled
}

func New(rooms RoomReader, hist history.IHistoryService) *Handler {
	return &Handler{rooms: rooms, history: hist}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.health)
	r.GET("/api/rooms", h.list)
	r.GET("/api/rooms/:id", h.info)
	r.GET("/api/room-sessions", h.sessions)
}

// @Summary		List live rooms
// @Description	Returns every live room with its owner and member count, oldest first.
// @Tags			Rooms
// @Success		200	{array}	meeting.RoomSummary
// @Router			/api/rooms [get]
func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.rooms.ListRooms())
}

// @Summary		Get room details
// @Description	Returns a single live room.
// @Tags			Rooms
// @Param			id	path		string	true	"Room ID"	default(fashion-1)
// @Success		200	{object}	meeting.RoomSummary
// @Failure		404	{object}	ErrorResponse
// @Router			/api/rooms/{id} [get]
func (h *Handler) info(c *gin.Context) {
	room, ok := h.rooms.Room(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: meeting.ErrUnknownRoom.Error()})
		return
	}
	c.JSON(http.StatusOK, room)
}

// @Summary		List room sessions
// @Description	Pages through recorded room sessions, newest first.
// @Tags			Rooms
// @Param			room_id	query		string	false	"Room ID filter"
// @Param			limit	query		int		false	"Max results (0-100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		history.SessionDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Failure		503		{object}	ErrorResponse
// @Router			/api/room-sessions [get]
func (h *Handler) sessions(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "history_disabled"})
		return
	}
	var q ListSessionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.history.ListSessions(c.Request.Context(), q.RoomID, q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Health check
// @Tags			Health
// @Success		200	{object}	HealthResponse
// @Router			/healthz [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Connections: h.rooms.ConnectionCount(),
		Rooms:       len(h.rooms.ListRooms()),
	})
}
