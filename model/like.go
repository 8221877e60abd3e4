package model

import "time"

// Like records that UserID likes FriendID's profile. Unique per pair;
// toggling deletes or recreates the row.
type Like struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:idx_like_pair;not null" json:"user_id"`
	FriendID  int64     `gorm:"uniqueIndex:idx_like_pair;index;not null" json:"friend_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
