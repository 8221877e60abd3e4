package rest

import (
	"errors"
	"net/http"

	"github.com/craftlink/server/account"
	"github.com/craftlink/server/social/block"
	"github.com/craftlink/server/social/friendship"
	"github.com/craftlink/server/social/profile"
	"github.com/craftlink/server/social/reputation"
	"github.com/craftlink/server/social/store"
	"github.com/gin-gonic/gin"
)

// statusOf maps a domain error to its HTTP status. Unknown errors are
// treated as internal so nothing leaks to the client.
func statusOf(err error) int {
	switch {
	case errors.Is(err, friendship.ErrSelfRequest),
		errors.Is(err, block.ErrSelfBlock),
		errors.Is(err, profile.ErrSelfLike):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, friendship.ErrBlocked),
		errors.Is(err, friendship.ErrNotAuthorized),
		errors.Is(err, profile.ErrBlocked),
		errors.Is(err, profile.ErrNotAuthorized),
		errors.Is(err, account.ErrInactive):
		return http.StatusForbidden
	case errors.Is(err, friendship.ErrUserNotFound),
		errors.Is(err, friendship.ErrNoPendingRequest),
		errors.Is(err, friendship.ErrNotFriends),
		errors.Is(err, block.ErrUserNotFound),
		errors.Is(err, block.ErrNotBlocked),
		errors.Is(err, profile.ErrUserNotFound),
		errors.Is(err, profile.ErrItemNotFound),
		errors.Is(err, reputation.ErrNotFound),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, friendship.ErrAlreadyFriends),
		errors.Is(err, friendship.ErrRequestSent),
		errors.Is(err, friendship.ErrRequestReceived),
		errors.Is(err, friendship.ErrFriendLimit),
		errors.Is(err, account.ErrEmailTaken),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, friendship.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, store.ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the JSON error response for err.
func fail(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
