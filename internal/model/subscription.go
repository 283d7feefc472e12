package model

import "time"

// Subscription is a directed edge: Subscriber follows Channel.
type Subscription struct {
	ID           string    `gorm:"primaryKey;size:36" json:"_id"`
	SubscriberID string    `gorm:"size:36;not null;uniqueIndex:idx_subscriber_channel" json:"subscriber"`
	ChannelID    string    `gorm:"size:36;not null;uniqueIndex:idx_subscriber_channel;index" json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
