package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kwaczek/hry-portal/internal/domain"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GuestAuth mints a guest identity. No account needed: the token is the
// player's whole existence.
func (h *Handler) GuestAuth(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	// an empty body is fine, the service picks a default name
	_ = c.ShouldBindJSON(&req)

	token, identity, err := h.Auth.IssueGuestToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       identity.UserID,
			"username": identity.Username,
			"guest":    identity.IsGuest,
		},
	})
}

// GetLeaderboard lists the top rated players with enough games behind them.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	if h.Ratings == nil {
		c.JSON(http.StatusOK, gin.H{"leaderboard": []domain.LeaderboardEntry{}})
		return
	}

	gameType := c.DefaultQuery("game", "prsi")
	top, err := h.Ratings.Top(c.Request.Context(), gameType, domain.EloMinGamesForLeaderboard, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}

// ListRooms shows public rooms that can still be joined.
func (h *Handler) ListRooms(c *gin.Context) {
	all, err := h.Directory.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}

	open := all[:0]
	for _, r := range all {
		if r.Phase == "waiting" && r.Players < r.MaxPlayers {
			open = append(open, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": open})
}
