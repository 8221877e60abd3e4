package rest

import (
	"net/http"

	mw "github.com/craftlink/server/middleware"
	"github.com/craftlink/server/social/profile"
	"github.com/gin-gonic/gin"
)

// ProfileHandler exposes profile viewing, likes and portfolios.
type ProfileHandler struct {
	profiles *profile.Service
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *profile.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// View handles GET /api/users/:user_id.
func (h *ProfileHandler) View(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	u, err := h.profiles.View(c.Request.Context(), mw.GetUserID(c), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// ToggleLike handles POST /api/users/:user_id/like.
func (h *ProfileHandler) ToggleLike(c *gin.Context) {
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	liked, err := h.profiles.ToggleLike(c.Request.Context(), mw.GetUserID(c), targetID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// Portfolio handles GET /api/users/:user_id/portfolio.
func (h *ProfileHandler) Portfolio(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	items, err := h.profiles.Portfolio(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// AddPortfolioItem handles POST /api/portfolio.
func (h *ProfileHandler) AddPortfolioItem(c *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required,max=128"`
		ImagePath string `json:"image_path" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.profiles.AddPortfolioItem(c.Request.Context(), mw.GetUserID(c), req.Title, req.ImagePath)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// DeletePortfolioItem handles DELETE /api/portfolio/:id.
func (h *ProfileHandler) DeletePortfolioItem(c *gin.Context) {
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.profiles.DeletePortfolioItem(c.Request.Context(), mw.GetUserID(c), itemID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
