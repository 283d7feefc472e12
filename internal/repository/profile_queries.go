package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"vidhub/internal/model"
)

// ProfileQueries answers the channel-profile and watch-history reads with
// SQL joins over the gorm schema.
type ProfileQueries struct {
	db *gorm.DB
}

func NewProfileQueries(db *gorm.DB) *ProfileQueries {
	return &ProfileQueries{db: db}
}

func (q *ProfileQueries) ChannelProfile(ctx context.Context, viewerID, username string) (*model.ChannelProfile, error) {
	users := NewUserRepository(q.db)
	channel, err := users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, nil
	}

	subs := q.db.WithContext(ctx).Model(&model.Subscription{})

	var subscribers int64
	if err := subs.Session(&gorm.Session{}).Where("channel_id = ?", channel.ID).Count(&subscribers).Error; err != nil {
		return nil, fmt.Errorf("count subscribers failed: %w", err)
	}
	var subscribedTo int64
	if err := subs.Session(&gorm.Session{}).Where("subscriber_id = ?", channel.ID).Count(&subscribedTo).Error; err != nil {
		return nil, fmt.Errorf("count subscriptions failed: %w", err)
	}
	var viewerEdges int64
	if viewerID != "" {
		if err := subs.Session(&gorm.Session{}).
			Where("subscriber_id = ? AND channel_id = ?", viewerID, channel.ID).
			Count(&viewerEdges).Error; err != nil {
			return nil, fmt.Errorf("check subscription failed: %w", err)
		}
	}

	return &model.ChannelProfile{
		ID:                channel.ID,
		FullName:          channel.FullName,
		Username:          channel.Username,
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      viewerEdges > 0,
		Avatar:            channel.Avatar,
		CoverImage:        channel.CoverImage,
		Email:             channel.Email,
	}, nil
}

type watchHistoryRow struct {
	ID            string
	VideoFile     string
	Thumbnail     string
	Title         string
	Description   string
	Duration      float64
	Views         int64
	IsPublished   bool
	OwnerUsername *string
	OwnerFullName *string
	OwnerAvatar   *string
}

func (q *ProfileQueries) WatchHistory(ctx context.Context, userID string) ([]model.WatchHistoryItem, error) {
	var rows []watchHistoryRow
	err := q.db.WithContext(ctx).
		Table("watch_entries AS w").
		Select(`v.id AS id, v.video_file AS video_file, v.thumbnail AS thumbnail, v.title AS title,
			v.description AS description, v.duration AS duration, v.views AS views,
			v.is_published AS is_published, u.username AS owner_username,
			u.full_name AS owner_full_name, u.avatar AS owner_avatar`).
		Joins("JOIN videos AS v ON v.id = w.video_id").
		Joins("LEFT JOIN users AS u ON u.id = v.owner_id").
		Where("w.user_id = ?", userID).
		Order("w.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query watch history failed: %w", err)
	}

	items := make([]model.WatchHistoryItem, 0, len(rows))
	for _, row := range rows {
		item := model.WatchHistoryItem{
			ID:          row.ID,
			VideoFile:   row.VideoFile,
			Thumbnail:   row.Thumbnail,
			Title:       row.Title,
			Description: row.Description,
			Duration:    row.Duration,
			Views:       row.Views,
			IsPublished: row.IsPublished,
		}
		if row.OwnerUsername != nil {
			item.Owner = &model.OwnerSummary{
				Username: *row.OwnerUsername,
				FullName: deref(row.OwnerFullName),
				Avatar:   deref(row.OwnerAvatar),
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AutoMigrate creates the relational schema.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Subscription{}, &model.Video{}, &model.WatchEntry{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}
