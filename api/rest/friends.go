package rest

import (
	"net/http"
	"strconv"

	mw "github.com/craftlink/server/middleware"
	"github.com/craftlink/server/social/block"
	"github.com/craftlink/server/social/friendship"
	"github.com/craftlink/server/social/relation"
	"github.com/gin-gonic/gin"
)

// FriendHandler exposes the relationship lifecycle over REST.
type FriendHandler struct {
	friends   *friendship.Service
	blocks    *block.Service
	relations *relation.Service
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(friends *friendship.Service, blocks *block.Service, relations *relation.Service) *FriendHandler {
	return &FriendHandler{friends: friends, blocks: blocks, relations: relations}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// List handles GET /api/friends.
func (h *FriendHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	friends, err := h.friends.Friends(c.Request.Context(), mw.GetUserID(c), offset, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// Send handles POST /api/friends/requests.
func (h *FriendHandler) Send(c *gin.Context) {
	var req struct {
		ReceiverID int64 `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.friends.Send(c.Request.Context(), mw.GetUserID(c), req.ReceiverID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request_id": id})
}

// Incoming handles GET /api/friends/requests.
func (h *FriendHandler) Incoming(c *gin.Context) {
	reqs, err := h.friends.IncomingRequests(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// UnreadCount handles GET /api/friends/requests/unread.
func (h *FriendHandler) UnreadCount(c *gin.Context) {
	n, err := h.friends.UnreadRequestCount(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// MarkRead handles POST /api/friends/requests/read.
func (h *FriendHandler) MarkRead(c *gin.Context) {
	if err := h.friends.MarkRequestsRead(c.Request.Context(), mw.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}

// Accept handles POST /api/friends/requests/:id/accept.
func (h *FriendHandler) Accept(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.friends.Accept(c.Request.Context(), mw.GetUserID(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "accepted"})
}

// Reject handles POST /api/friends/requests/:id/reject.
func (h *FriendHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.friends.Reject(c.Request.Context(), mw.GetUserID(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rejected"})
}

// Cancel handles DELETE /api/friends/requests/:user_id.
// The path id is the receiver of the request being withdrawn.
func (h *FriendHandler) Cancel(c *gin.Context) {
	receiverID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := h.friends.Cancel(c.Request.Context(), mw.GetUserID(c), receiverID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
}

// Remove handles DELETE /api/friends/:user_id.
func (h *FriendHandler) Remove(c *gin.Context) {
	friendID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := h.friends.RemoveFriend(c.Request.Context(), mw.GetUserID(c), friendID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}

// Block handles POST /api/blocks/:user_id.
func (h *FriendHandler) Block(c *gin.Context) {
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := h.blocks.Block(c.Request.Context(), mw.GetUserID(c), targetID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "blocked"})
}

// Unblock handles DELETE /api/blocks/:user_id.
func (h *FriendHandler) Unblock(c *gin.Context) {
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := h.blocks.Unblock(c.Request.Context(), mw.GetUserID(c), targetID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unblocked"})
}

// BlockedList handles GET /api/blocks.
func (h *FriendHandler) BlockedList(c *gin.Context) {
	users, err := h.blocks.Blocked(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": users})
}

// Relation handles GET /api/users/:user_id/relation.
func (h *FriendHandler) Relation(c *gin.Context) {
	otherID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	rel, err := h.relations.Between(c.Request.Context(), mw.GetUserID(c), otherID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

// Search handles GET /api/users/search?q=.
func (h *FriendHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	offset, limit := pagination(c)
	results, err := h.relations.Search(c.Request.Context(), mw.GetUserID(c), q, offset, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Discover handles GET /api/users/discover.
func (h *FriendHandler) Discover(c *gin.Context) {
	offset, limit := pagination(c)
	users, err := h.relations.Discover(c.Request.Context(), mw.GetUserID(c), offset, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
