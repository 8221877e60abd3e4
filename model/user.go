package model

import "time"

// User represents a member account.
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"size:64;not null" json:"name"`
	Email        string `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash string `gorm:"size:64;not null" json:"-"`
	Avatar       string `gorm:"size:255" json:"avatar"`
	Country      string `gorm:"size:64" json:"country"`
	Language     string `gorm:"size:32" json:"language"`
	Occupation   string `gorm:"size:64" json:"occupation"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	// LikesReceived is a denormalized counter maintained by the like toggle.
	LikesReceived int64 `gorm:"default:0" json:"likes_received"`
	// ReputationPoints and ReputationLevel are caches written by the
	// reputation engine; they are always re-derivable from the signals.
	ReputationPoints int `gorm:"default:0" json:"reputation_points"`
	ReputationLevel  int `gorm:"default:0" json:"reputation_level"`

	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastActiveAt *time.Time `json:"last_active_at"`
}
