package model

import "time"

// Request status values. A cancelled request is hard-deleted, not marked.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// FriendRequest is one friend request from sender to receiver.
// At most one pending row may exist per unordered pair; the lifecycle
// service enforces this, storage keeps terminal rows for audit.
type FriendRequest struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   int64  `gorm:"index:idx_request_sender;not null" json:"sender_id"`
	ReceiverID int64  `gorm:"index:idx_request_receiver;not null" json:"receiver_id"`
	Status     string `gorm:"size:16;not null;default:'pending';index:idx_request_sender;index:idx_request_receiver" json:"status"`
	// PendingPair is "min:max" of the two ids while the request is pending
	// and NULL once it turns terminal, so the unique index guards live
	// requests in either direction without blocking re-sends after reject.
	// MySQL has no partial unique indexes; nullable sentinel works on both.
	PendingPair *string   `gorm:"size:42;uniqueIndex:idx_request_pending_pair" json:"-"`
	IsRead      bool      `gorm:"default:false" json:"is_read"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
