package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pigeon/internal/service"
)

// Connectivity is what the status endpoint needs from the realtime client.
type Connectivity interface {
	IsConnected() bool
}

type StatusHandler struct {
	sync          *service.SyncService
	notifications *service.NotificationService
	cursors       service.CursorStore
	rooms         service.RoomStore
	realtime      Connectivity
}

func NewStatusHandler(sync *service.SyncService, notifications *service.NotificationService,
	cursors service.CursorStore, rooms service.RoomStore, realtime Connectivity) *StatusHandler {
	return &StatusHandler{
		sync:          sync,
		notifications: notifications,
		cursors:       cursors,
		rooms:         rooms,
		realtime:      realtime,
	}
}

// GetStatus reports scheduler state, connectivity, and sync cursors.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scheduler":       h.sync.State(),
		"connected":       h.realtime.IsConnected(),
		"last_event_id":   h.cursors.LastEventID(),
		"last_message_id": h.cursors.LastMessageID(),
	})
}

// GetPending returns a room's pending-notification snapshot.
func (h *StatusHandler) GetPending(c *gin.Context) {
	roomID, _ := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if roomID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
		return
	}
	window, total := h.notifications.Pending(roomID)
	if window == nil {
		window = []service.NotificationItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": window, "total": total})
}

// ClearPending empties a room's pending queue and dismisses its notification.
func (h *StatusHandler) ClearPending(c *gin.Context) {
	roomID, _ := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if roomID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
		return
	}
	h.notifications.Clear(roomID)
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// GetRoom returns the locally cached room record, unread count included.
func (h *StatusHandler) GetRoom(c *gin.Context) {
	roomID, _ := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if roomID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
		return
	}
	room, err := h.rooms.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, room)
}
