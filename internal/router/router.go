package router

import (
	"github.com/gin-gonic/gin"

	"pigeon/config"
	"pigeon/internal/handler"
)

// Setup builds the local debug/status server. It binds loopback-facing
// inspection endpoints only; the chat API itself is remote.
func Setup(cfg *config.Config, status *handler.StatusHandler, messages *handler.MessageHandler) *gin.Engine {
	if cfg.Debug.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/status", status.GetStatus)
	rooms := r.Group("/rooms")
	{
		rooms.GET("/:room_id", status.GetRoom)
		rooms.GET("/:room_id/pending", status.GetPending)
		rooms.POST("/:room_id/clear", status.ClearPending)
		rooms.POST("/:room_id/messages", messages.PostMessage)
		rooms.POST("/:room_id/read", messages.MarkRead)
	}
	return r
}
