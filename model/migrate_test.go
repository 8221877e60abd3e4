package model_test

import (
	"testing"
	"time"

	"github.com/craftlink/server/model"
	"github.com/craftlink/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// User
	u := &model.User{Name: "test_user", Email: "test@example.com", PasswordHash: "hash", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	assert.Greater(t, u.ID, int64(0))

	var found model.User
	require.NoError(t, db.First(&found, u.ID).Error)
	assert.Equal(t, "test_user", found.Name)

	// FriendRequest
	fr := &model.FriendRequest{SenderID: u.ID, ReceiverID: u.ID + 1, Status: model.RequestPending}
	require.NoError(t, db.Create(fr).Error)
	assert.Greater(t, fr.ID, int64(0))

	// Friendship
	f := &model.Friendship{UserID: u.ID, FriendID: u.ID + 1, Status: "accepted"}
	require.NoError(t, db.Create(f).Error)

	// BlockedUser
	b := &model.BlockedUser{UserID: u.ID, BlockedUserID: u.ID + 2}
	require.NoError(t, db.Create(b).Error)

	// Like
	l := &model.Like{UserID: u.ID, FriendID: u.ID + 1}
	require.NoError(t, db.Create(l).Error)

	// PortfolioItem
	p := &model.PortfolioItem{UserID: u.ID, Title: "First piece"}
	require.NoError(t, db.Create(p).Error)

	// Notification
	n := &model.Notification{RecipientID: u.ID, ActorID: u.ID + 1, Kind: "friend_request"}
	require.NoError(t, db.Create(n).Error)

	// AuditLog
	al := &model.AuditLog{
		TraceID: "trace-001", Action: "friend.send",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(al).Error)
}

func TestUniquePairConstraints(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, db.Create(&model.Friendship{UserID: 1, FriendID: 2}).Error)
	assert.Error(t, db.Create(&model.Friendship{UserID: 1, FriendID: 2}).Error)
	// The reverse direction is a distinct row.
	assert.NoError(t, db.Create(&model.Friendship{UserID: 2, FriendID: 1}).Error)

	require.NoError(t, db.Create(&model.BlockedUser{UserID: 1, BlockedUserID: 2}).Error)
	assert.Error(t, db.Create(&model.BlockedUser{UserID: 1, BlockedUserID: 2}).Error)

	require.NoError(t, db.Create(&model.Like{UserID: 1, FriendID: 2}).Error)
	assert.Error(t, db.Create(&model.Like{UserID: 1, FriendID: 2}).Error)
}
