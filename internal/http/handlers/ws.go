package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kwaczek/hry-portal/internal/logger"
	"github.com/kwaczek/hry-portal/internal/ws"
)

// HandleWS authenticates the token from the query string and upgrades the
// connection. Everything after the upgrade is the hub's business.
func (h *Handler) HandleWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}

	identity, err := h.Auth.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if h.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.AllowedOrigin
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "player", identity.UserID, "error", err)
		return
	}

	client := ws.NewClient(identity, conn, h.Hub)
	h.Hub.Register(client)
	go client.Run()
}
