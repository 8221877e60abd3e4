package model

import "time"

// Friendship is one direction of an accepted friendship. Rows always exist
// in symmetric pairs: (A,B) and (B,A) are created and destroyed together.
type Friendship struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex:idx_friend_pair;not null" json:"user_id"`
	FriendID  int64     `gorm:"uniqueIndex:idx_friend_pair;not null" json:"friend_id"`
	Status    string    `gorm:"size:16;not null;default:'accepted'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
