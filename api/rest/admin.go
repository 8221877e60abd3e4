package rest

import (
	"net/http"

	"github.com/craftlink/server/model"
	"github.com/craftlink/server/scheduler"
	"github.com/craftlink/server/social/reputation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db     *gorm.DB
	rep    *reputation.Service
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, rep *reputation.Service, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, rep: rep, sched: sched, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var users, friendships, pending int64
	h.db.Model(&model.User{}).Count(&users)
	h.db.Model(&model.Friendship{}).Count(&friendships)
	h.db.Model(&model.FriendRequest{}).Where("status = ?", model.RequestPending).Count(&pending)
	c.JSON(http.StatusOK, gin.H{
		"users":            users,
		"friendship_rows":  friendships,
		"pending_requests": pending,
		"scheduler_tasks":  h.sched.ListTickers(),
	})
}

// RecomputeReputation runs a full reputation sweep immediately.
// POST /api/admin/reputation/recompute
func (h *AdminHandler) RecomputeReputation(c *gin.Context) {
	if err := h.rep.RecomputeAll(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	h.logger.Info("admin triggered reputation sweep")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SetAccountActive activates or deactivates an account.
// POST /api/admin/accounts/:id/active
func (h *AdminHandler) SetAccountActive(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	_ = c.ShouldBindJSON(&req)

	result := h.db.Model(&model.User{}).Where("id = ?", userID).Update("is_active", req.Active)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	h.logger.Info("admin changed account state",
		zap.Int64("user_id", userID), zap.Bool("active", req.Active))
	c.JSON(http.StatusOK, gin.H{"ok": true, "active": req.Active})
}

// ListSchedulerTasks returns names of all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
