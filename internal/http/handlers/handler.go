// Package handlers is the HTTP surface: guest auth, leaderboard, the room
// browser and the websocket upgrade.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kwaczek/hry-portal/internal/discovery"
	"github.com/kwaczek/hry-portal/internal/repository"
	"github.com/kwaczek/hry-portal/internal/service"
	"github.com/kwaczek/hry-portal/internal/ws"
)

type Handler struct {
	Auth      *service.AuthService
	Hub       *ws.Hub
	Directory discovery.Directory
	// Ratings is nil when the server runs without a database; the
	// leaderboard then answers with an empty list.
	Ratings       *repository.RatingRepository
	AllowedOrigin string
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.Health)
	r.GET("/ws", h.HandleWS)

	api := r.Group("/api")
	{
		api.POST("/auth/guest", h.GuestAuth)
		api.GET("/leaderboard", h.GetLeaderboard)
		api.GET("/rooms", h.ListRooms)
	}
}
