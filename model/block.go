package model

import "time"

// BlockedUser is a directional block: UserID blocks BlockedUserID.
// (A blocks B) and (B blocks A) are independent rows.
type BlockedUser struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"uniqueIndex:idx_block_pair;not null" json:"user_id"`
	BlockedUserID int64     `gorm:"uniqueIndex:idx_block_pair;not null" json:"blocked_user_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
