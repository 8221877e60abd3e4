package store_test

import (
	"context"
	"testing"

	"github.com/craftlink/server/model"
	"github.com/craftlink/server/social/store"
	"github.com/craftlink/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingRequestLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")

	id, err := s.InsertPendingRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotZero(t, id)

	// Duplicate sender/receiver pair must hit the unique index.
	_, err = s.InsertPendingRequest(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, store.ErrConflict)

	req, err := s.PendingRequestBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, id, req.ID)
	assert.Equal(t, alice.ID, req.SenderID)

	require.NoError(t, s.UpdateRequestStatus(ctx, id, model.RequestAccepted))

	_, err = s.PendingRequestBetween(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPendingPairUniqueAcrossDirections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")

	id, err := s.InsertPendingRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// The reverse direction hits the same pending-pair slot.
	_, err = s.InsertPendingRequest(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, store.ErrConflict)

	// A terminal row releases the slot but is itself retained.
	require.NoError(t, s.UpdateRequestStatus(ctx, id, model.RequestRejected))
	var kept model.FriendRequest
	require.NoError(t, db.First(&kept, id).Error)
	assert.Equal(t, model.RequestRejected, kept.Status)
	assert.Nil(t, kept.PendingPair)

	id2, err := s.InsertPendingRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestWithLockedRequestNotPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")

	id, err := s.InsertPendingRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, s.UpdateRequestStatus(ctx, id, model.RequestRejected))

	err = s.WithLockedRequest(ctx, id, func(tx *store.Store, req *model.FriendRequest) error {
		t.Fatal("callback must not run for a settled request")
		return nil
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithLockedRequestRollsBackOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")

	id, err := s.InsertPendingRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	boom := assert.AnError
	err = s.WithLockedRequest(ctx, id, func(tx *store.Store, req *model.FriendRequest) error {
		require.NoError(t, tx.UpdateRequestStatus(ctx, req.ID, model.RequestAccepted))
		require.NoError(t, tx.InsertSymmetricFriendship(ctx, req.SenderID, req.ReceiverID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Everything inside the transaction must have been undone.
	req, err := s.PendingRequestBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	exists, err := s.FriendshipExists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSymmetricFriendship(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")

	require.NoError(t, s.InsertSymmetricFriendship(ctx, alice.ID, bob.ID))

	for _, id := range []int64{alice.ID, bob.ID} {
		n, err := s.CountAcceptedFriendships(ctx, id)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	}

	exists, err := s.FriendshipExists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteSymmetricFriendship(ctx, bob.ID, alice.ID))
	exists, err = s.FriendshipExists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, s.DeleteSymmetricFriendship(ctx, alice.ID, bob.ID), store.ErrNotFound)
}

func TestBlockUpsertAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")

	require.NoError(t, s.UpsertBlock(ctx, alice.ID, bob.ID))
	// Blocking again refreshes rather than fails.
	require.NoError(t, s.UpsertBlock(ctx, alice.ID, bob.ID))

	blocked, err := s.ListBlocked(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, bob.ID, blocked[0].ID)

	require.NoError(t, s.DeleteBlock(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, s.DeleteBlock(ctx, alice.ID, bob.ID), store.ErrNotFound)
}

func TestFindRelationshipSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")
	carol := testutil.SeedUser(t, db, "carol")

	rel, err := s.FindRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, rel.Friendship)
	assert.Nil(t, rel.PendingRequest)
	assert.Nil(t, rel.BlockOut)
	assert.Nil(t, rel.BlockIn)

	_, err = s.InsertPendingRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, s.UpsertBlock(ctx, carol.ID, alice.ID))

	rel, err = s.FindRelationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, rel.PendingRequest)
	assert.Equal(t, alice.ID, rel.PendingRequest.SenderID)

	rel, err = s.FindRelationship(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	require.NotNil(t, rel.BlockIn)
	assert.Equal(t, carol.ID, rel.BlockIn.UserID)
	assert.Nil(t, rel.BlockOut)
}

func TestIncomingRequestsAndUnread(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")
	carol := testutil.SeedUser(t, db, "carol")

	_, err := s.InsertPendingRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = s.InsertPendingRequest(ctx, carol.ID, alice.ID)
	require.NoError(t, err)

	rows, err := s.ListIncomingRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotEmpty(t, rows[0].SenderName)

	n, err := s.CountUnreadRequests(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, s.MarkRequestsRead(ctx, alice.ID))
	n, err = s.CountUnreadRequests(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDiscoverableUsersExcludesRelated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice")
	friend := testutil.SeedUser(t, db, "friend")
	pendingOut := testutil.SeedUser(t, db, "pending-out")
	pendingIn := testutil.SeedUser(t, db, "pending-in")
	blocked := testutil.SeedUser(t, db, "blocked")
	blocker := testutil.SeedUser(t, db, "blocker")
	stranger := testutil.SeedUser(t, db, "stranger")

	require.NoError(t, s.InsertSymmetricFriendship(ctx, alice.ID, friend.ID))
	_, err := s.InsertPendingRequest(ctx, alice.ID, pendingOut.ID)
	require.NoError(t, err)
	_, err = s.InsertPendingRequest(ctx, pendingIn.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, s.UpsertBlock(ctx, alice.ID, blocked.ID))
	require.NoError(t, s.UpsertBlock(ctx, blocker.ID, alice.ID))

	users, err := s.DiscoverableUsers(ctx, alice.ID, 0, 50)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, stranger.ID, users[0].ID)
}
