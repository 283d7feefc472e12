package model

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"_id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	FullName     string    `gorm:"size:128;not null;index" json:"fullName"`
	Avatar       string    `gorm:"size:512;not null" json:"avatar"`
	CoverImage   string    `gorm:"size:512" json:"coverImage"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	RefreshToken string    `gorm:"size:1024" json:"-"`
	WatchHistory []string  `gorm:"-" json:"watchHistory"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public returns a copy without credential fields.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Password = ""
	out.RefreshToken = ""
	if u.WatchHistory != nil {
		out.WatchHistory = append([]string(nil), u.WatchHistory...)
	}
	return &out
}
