package rest

import (
	"net/http"

	mw "github.com/craftlink/server/middleware"
	"github.com/craftlink/server/notify"
	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the stored notification feed.
type NotificationHandler struct {
	notify *notify.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(n *notify.Service) *NotificationHandler {
	return &NotificationHandler{notify: n}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	items, err := h.notify.List(c.Request.Context(), mw.GetUserID(c), offset, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// UnreadCount handles GET /api/notifications/unread.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.notify.UnreadCount(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// MarkAllRead handles POST /api/notifications/read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notify.MarkAllRead(c.Request.Context(), mw.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}
