package model

import "time"

// PortfolioItem is one gallery entry owned by a user. The per-user count
// feeds the reputation engine.
type PortfolioItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:128" json:"title"`
	ImagePath string    `gorm:"size:255" json:"image_path"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
