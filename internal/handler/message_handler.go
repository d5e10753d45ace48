package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pigeon/internal/service"
)

type MessageHandler struct {
	messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type postMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// PostMessage composes and sends a text message to a room.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	roomID, _ := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if roomID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	m := h.messages.Compose(roomID, req.Content)
	sent, err := h.messages.Send(c.Request.Context(), m)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sent)
}

type markReadRequest struct {
	LastReadID int64 `json:"last_read_id" binding:"required"`
}

// MarkRead reports the read watermark for a room and resets its unread count.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	roomID, _ := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if roomID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
		return
	}
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "last_read_id is required"})
		return
	}
	if err := h.messages.MarkRead(c.Request.Context(), roomID, req.LastReadID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}
