package model

import "time"

// Notification is a stored notification intent. Phrasing and delivery are
// the presentation layer's concern; the core only records recipient, actor
// and kind.
type Notification struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID int64     `gorm:"index:idx_notification_recipient;not null" json:"recipient_id"`
	ActorID     int64     `gorm:"not null" json:"actor_id"`
	Kind        string    `gorm:"size:32;not null" json:"kind"`
	IsRead      bool      `gorm:"default:false;index:idx_notification_recipient" json:"is_read"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
