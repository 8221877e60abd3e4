package rest

import (
	"net/http"

	"github.com/craftlink/server/account"
	mw "github.com/craftlink/server/middleware"
	"github.com/craftlink/server/social/reputation"
	"github.com/gin-gonic/gin"
)

// ReputationHandler exposes reputation scores and the leaderboard.
type ReputationHandler struct {
	rep      *reputation.Service
	accounts *account.Service
}

// NewReputationHandler creates a new ReputationHandler.
func NewReputationHandler(rep *reputation.Service, accounts *account.Service) *ReputationHandler {
	return &ReputationHandler{rep: rep, accounts: accounts}
}

// Leaderboard handles GET /api/reputation/leaderboard.
func (h *ReputationHandler) Leaderboard(c *gin.Context) {
	_, limit := pagination(c)
	entries, err := h.rep.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// Me handles GET /api/reputation/me. The cached points are recomputed on
// demand so the caller always sees a fresh score for their own account.
func (h *ReputationHandler) Me(c *gin.Context) {
	userID := mw.GetUserID(c)
	points, err := h.rep.Recompute(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"points":  points,
		"level":   reputation.Level(points),
	})
}

// Of handles GET /api/reputation/:user_id.
func (h *ReputationHandler) Of(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	u, err := h.accounts.Get(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": u.ID,
		"points":  u.ReputationPoints,
		"level":   u.ReputationLevel,
	})
}
