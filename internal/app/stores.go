package app

import (
	"context"

	"vidhub/internal/model"
)

// UserStore persists users. Lookups return (nil, nil) when nothing matches;
// writes return repository.ErrNotFound / repository.ErrDuplicate.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	// SwapRefreshToken replaces expected with next atomically and reports
	// whether the stored value still equalled expected.
	SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, id string) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}

type SubscriptionStore interface {
	Subscribe(ctx context.Context, subscriberID, channelID string) error
	Unsubscribe(ctx context.Context, subscriberID, channelID string) error
}

type VideoStore interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id string) (*model.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// ProfileQueries are the read-side joins over users, subscriptions and
// videos. ChannelProfile returns (nil, nil) for an unknown username.
type ProfileQueries interface {
	ChannelProfile(ctx context.Context, viewerID, username string) (*model.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]model.WatchHistoryItem, error)
}

// Store bundles one backend's implementations.
type Store struct {
	Users         UserStore
	Subscriptions SubscriptionStore
	Videos        VideoStore
	Profiles      ProfileQueries
}

// MediaUploader hosts binary assets and returns a durable URL.
type MediaUploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type WatchEventPublisher interface {
	Publish(ctx context.Context, event model.WatchEvent) error
}

// WatchHistoryCache stores rendered histories tagged with a version. A write
// made under an outdated version is never served.
type WatchHistoryCache interface {
	HistoryVersion(ctx context.Context, userID string) (string, error)
	GetHistory(ctx context.Context, userID, version string) ([]model.WatchHistoryItem, bool, error)
	SetHistory(ctx context.Context, userID, version string, items []model.WatchHistoryItem) error
	// DeleteHistory advances the user's version and clears the dirty marker.
	DeleteHistory(ctx context.Context, userID string) error
	// InvalidateAll advances the version of every history, for changes to
	// embedded owner details.
	InvalidateAll(ctx context.Context) error
	MarkDirty(ctx context.Context, userID string) error
	IsDirty(ctx context.Context, userID string) (bool, error)
}

// Upload is a file received from a client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (u *Upload) empty() bool {
	return u == nil || len(u.Data) == 0
}
