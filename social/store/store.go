package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/craftlink/server/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage-level failure kinds. Domain services map these onto their own
// precondition errors; anything not listed here passes through untouched.
var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
	ErrBusy     = errors.New("store: busy")
)

// Store owns all reads and writes of relationship rows (friendships,
// friend requests, blocks). Methods are safe for concurrent use; a Store
// returned by WithTx or WithLockedRequest is bound to that transaction.
type Store struct {
	db *gorm.DB
}

// New creates a Store over the given database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a transaction, with a Store bound to it.
// Any error from fn rolls the whole transaction back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	}))
}

// WithLockedRequest loads the pending request with an exclusive row lock and
// runs fn inside the same transaction. Two concurrent accept/reject/cancel
// calls on the same request serialize on the lock; the loser observes the
// request no longer pending and gets ErrNotFound. Returns ErrNotFound when
// no pending request with that id exists.
func (s *Store) WithLockedRequest(ctx context.Context, requestID int64, fn func(tx *Store, req *model.FriendRequest) error) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if supportsRowLock(tx) {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var req model.FriendRequest
		if err := q.Where("id = ? AND status = ?", requestID, model.RequestPending).
			First(&req).Error; err != nil {
			return err
		}
		return fn(&Store{db: tx}, &req)
	}))
}

// supportsRowLock reports whether the dialect honors SELECT ... FOR UPDATE.
// SQLite does not, but it serializes writing transactions at the database
// level, which gives the same exclusion for the accept flow.
func supportsRowLock(db *gorm.DB) bool {
	return db.Dialector.Name() == "mysql"
}

// ---- Friend requests ----

// InsertPendingRequest creates a pending request and returns its id.
// A concurrent duplicate in either direction collides on the pending-pair
// index and surfaces as ErrConflict.
func (s *Store) InsertPendingRequest(ctx context.Context, senderID, receiverID int64) (int64, error) {
	key := pendingPairKey(senderID, receiverID)
	req := &model.FriendRequest{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Status:      model.RequestPending,
		PendingPair: &key,
	}
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return 0, mapErr(err)
	}
	return req.ID, nil
}

// pendingPairKey normalizes a pair of user ids into a direction-independent
// key for the pending-request unique index.
func pendingPairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// PendingRequestBetween returns the pending request between a and b in either
// direction, or ErrNotFound.
func (s *Store) PendingRequestBetween(ctx context.Context, a, b int64) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := s.db.WithContext(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
			a, b, b, a, model.RequestPending).
		First(&req).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &req, nil
}

// UpdateRequestStatus moves a request to a terminal status, marks it read
// and releases its slot in the pending-pair index.
func (s *Store) UpdateRequestStatus(ctx context.Context, requestID int64, status string) error {
	res := s.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("id = ?", requestID).
		Updates(map[string]interface{}{"status": status, "is_read": true, "pending_pair": nil})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePendingRequest hard-deletes the pending request from sender to
// receiver (cancel semantics). ErrNotFound when nothing was pending.
func (s *Store) DeletePendingRequest(ctx context.Context, senderID, receiverID int64) error {
	res := s.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, model.RequestPending).
		Delete(&model.FriendRequest{})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePendingRequestsBetween removes pending requests in both directions
// (block cascade). Deleting nothing is not an error.
func (s *Store) DeletePendingRequestsBetween(ctx context.Context, a, b int64) error {
	return mapErr(s.db.WithContext(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
			a, b, b, a, model.RequestPending).
		Delete(&model.FriendRequest{}).Error)
}

// IncomingRequest is one pending request joined with its sender.
type IncomingRequest struct {
	ID           int64     `json:"id"`
	SenderID     int64     `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListIncomingRequests returns the receiver's pending requests, newest first.
func (s *Store) ListIncomingRequests(ctx context.Context, receiverID int64) ([]IncomingRequest, error) {
	var rows []IncomingRequest
	err := s.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Select("friend_requests.id, friend_requests.sender_id, users.name AS sender_name, users.avatar AS sender_avatar, friend_requests.is_read, friend_requests.created_at").
		Joins("JOIN users ON users.id = friend_requests.sender_id").
		Where("friend_requests.receiver_id = ? AND friend_requests.status = ?", receiverID, model.RequestPending).
		Order("friend_requests.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}

// CountUnreadRequests counts pending unread requests for the receiver.
func (s *Store) CountUnreadRequests(ctx context.Context, receiverID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("receiver_id = ? AND status = ? AND is_read = ?", receiverID, model.RequestPending, false).
		Count(&n).Error
	return n, mapErr(err)
}

// MarkRequestsRead flags all of the receiver's pending requests as read.
func (s *Store) MarkRequestsRead(ctx context.Context, receiverID int64) error {
	return mapErr(s.db.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("receiver_id = ? AND status = ? AND is_read = ?", receiverID, model.RequestPending, false).
		Update("is_read", true).Error)
}

// ---- Friendships ----

// CountAcceptedFriendships returns the user's accepted friend count.
func (s *Store) CountAcceptedFriendships(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ? AND status = ?", userID, "accepted").
		Count(&n).Error
	return n, mapErr(err)
}

// FriendshipExists reports whether an accepted friendship row exists between
// a and b in either direction.
func (s *Store) FriendshipExists(ctx context.Context, a, b int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Count(&n).Error
	return n > 0, mapErr(err)
}

// InsertSymmetricFriendship creates both rows of the pair as one unit.
// When called outside an enclosing transaction it opens its own, so a
// one-sided row can never be observed.
func (s *Store) InsertSymmetricFriendship(ctx context.Context, a, b int64) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := []model.Friendship{
			{UserID: a, FriendID: b, Status: "accepted"},
			{UserID: b, FriendID: a, Status: "accepted"},
		}
		return tx.Create(&rows).Error
	}))
}

// DeleteSymmetricFriendship removes both rows of the pair.
// ErrNotFound when no friendship existed.
func (s *Store) DeleteSymmetricFriendship(ctx context.Context, a, b int64) error {
	res := s.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Delete(&model.Friendship{})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFriends returns the user's accepted friends, most recently active first.
func (s *Store) ListFriends(ctx context.Context, userID int64, offset, limit int) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("id IN (?)", s.db.Model(&model.Friendship{}).
			Select("friend_id").
			Where("user_id = ? AND status = ?", userID, "accepted")).
		Order("last_active_at DESC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return users, nil
}

// ---- Blocks ----

// UpsertBlock inserts the directional block row, refreshing the timestamp when
// it already exists. Blocking twice is not an error.
func (s *Store) UpsertBlock(ctx context.Context, userID, blockedUserID int64) error {
	row := &model.BlockedUser{UserID: userID, BlockedUserID: blockedUserID}
	return mapErr(s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "blocked_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"created_at"}),
		}).
		Create(row).Error)
}

// DeleteBlock removes the block from userID to blockedUserID.
// ErrNotFound when no such row exists.
func (s *Store) DeleteBlock(ctx context.Context, userID, blockedUserID int64) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND blocked_user_id = ?", userID, blockedUserID).
		Delete(&model.BlockedUser{})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBlocked returns the users blocked by userID, by name.
func (s *Store) ListBlocked(ctx context.Context, userID int64) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("id IN (?)", s.db.Model(&model.BlockedUser{}).
			Select("blocked_user_id").
			Where("user_id = ?", userID)).
		Order("name ASC").
		Find(&users).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return users, nil
}

// ---- Combined reads ----

// Relationship is one consistent snapshot of every relationship fact
// between two accounts. Nil fields mean the fact does not exist.
type Relationship struct {
	Friendship     *model.Friendship
	PendingRequest *model.FriendRequest
	BlockOut       *model.BlockedUser // a blocks b
	BlockIn        *model.BlockedUser // b blocks a
}

// FindRelationship reads all four relationship facts between a and b in a
// single transaction.
func (s *Store) FindRelationship(ctx context.Context, a, b int64) (*Relationship, error) {
	rel := &Relationship{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f model.Friendship
		err := tx.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
			First(&f).Error
		switch {
		case err == nil:
			rel.Friendship = &f
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var req model.FriendRequest
		err = tx.Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
			a, b, b, a, model.RequestPending).
			First(&req).Error
		switch {
		case err == nil:
			rel.PendingRequest = &req
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var out model.BlockedUser
		err = tx.Where("user_id = ? AND blocked_user_id = ?", a, b).First(&out).Error
		switch {
		case err == nil:
			rel.BlockOut = &out
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var in model.BlockedUser
		err = tx.Where("user_id = ? AND blocked_user_id = ?", b, a).First(&in).Error
		switch {
		case err == nil:
			rel.BlockIn = &in
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return rel, nil
}

// SearchUsers finds active users whose name contains query, excluding the
// viewer and anyone who blocks the viewer.
func (s *Store) SearchUsers(ctx context.Context, viewerID int64, query string, offset, limit int) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("id != ? AND is_active = ?", viewerID, true).
		Where("name LIKE ?", "%"+query+"%").
		Where("id NOT IN (?)", s.db.Model(&model.BlockedUser{}).
			Select("user_id").Where("blocked_user_id = ?", viewerID)).
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return users, nil
}

// DiscoverableUsers returns active users with no relationship fact toward
// viewerID: not self, not friends, no pending request either way, no block
// either way.
func (s *Store) DiscoverableUsers(ctx context.Context, viewerID int64, offset, limit int) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("id != ? AND is_active = ?", viewerID, true).
		Where("id NOT IN (?)", s.db.Model(&model.FriendRequest{}).
			Select("receiver_id").Where("sender_id = ? AND status = ?", viewerID, model.RequestPending)).
		Where("id NOT IN (?)", s.db.Model(&model.FriendRequest{}).
			Select("sender_id").Where("receiver_id = ? AND status = ?", viewerID, model.RequestPending)).
		Where("id NOT IN (?)", s.db.Model(&model.Friendship{}).
			Select("friend_id").Where("user_id = ? AND status = ?", viewerID, "accepted")).
		Where("id NOT IN (?)", s.db.Model(&model.BlockedUser{}).
			Select("blocked_user_id").Where("user_id = ?", viewerID)).
		Where("id NOT IN (?)", s.db.Model(&model.BlockedUser{}).
			Select("user_id").Where("blocked_user_id = ?", viewerID)).
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return users, nil
}

// mapErr normalizes gorm and driver errors into the store's failure kinds.
// Errors that are not storage failures pass through unchanged so domain
// sentinels survive a transaction boundary.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrBusy) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate"):
		return ErrConflict
	case strings.Contains(msg, "database is locked") || strings.Contains(msg, "lock wait timeout") || strings.Contains(msg, "deadlock"):
		return ErrBusy
	}
	return err
}
