package model

import "time"

type Video struct {
	ID          string    `gorm:"primaryKey;size:36" json:"_id"`
	VideoFile   string    `gorm:"size:512;not null" json:"videoFile"`
	Thumbnail   string    `gorm:"size:512;not null" json:"thumbnail"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Duration    float64   `gorm:"not null" json:"duration"`
	Views       int64     `gorm:"not null;default:0" json:"views"`
	IsPublished bool      `gorm:"not null;default:true" json:"isPublished"`
	OwnerID     string    `gorm:"size:36;index" json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WatchEntry materialises User.WatchHistory for relational stores; rows
// are ordered by ID.
type WatchEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_watch_user_video;index"`
	VideoID   string    `gorm:"size:36;not null;uniqueIndex:idx_watch_user_video"`
	CreatedAt time.Time
}

// WatchEvent is published when a user starts watching a video.
type WatchEvent struct {
	UserID    string    `json:"userId"`
	VideoID   string    `json:"videoId"`
	WatchedAt time.Time `json:"watchedAt"`
}
