package app

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"vidhub/internal/model"
)

// ProfileService serves the channel-profile and watch-history read models.
// The cache is optional.
type ProfileService struct {
	profiles ProfileQueries
	cache    WatchHistoryCache
	log      *logrus.Entry
}

func NewProfileService(profiles ProfileQueries, cache WatchHistoryCache) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		cache:    cache,
		log:      logrus.WithField("component", "profile_service"),
	}
}

func (s *ProfileService) GetChannelProfile(ctx context.Context, viewerID, username string) (*model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, Validation("username is missing")
	}

	profile, err := s.profiles.ChannelProfile(ctx, viewerID, username)
	if err != nil {
		return nil, Internal("fetch channel profile failed", err)
	}
	if profile == nil {
		return nil, NotFound("channel does not exist")
	}
	return profile, nil
}

// GetWatchHistory reads through the cache unless a watch event for the user
// is still being applied. The version is read before the store so that a
// result computed from stale rows is filed under an outdated version.
func (s *ProfileService) GetWatchHistory(ctx context.Context, userID string) ([]model.WatchHistoryItem, error) {
	entry := s.log.WithField("user_id", userID)

	cacheable := false
	var version string
	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, userID)
		if err != nil {
			entry.WithError(err).Warn("check watch history dirty marker failed")
			dirty = true
		}
		if !dirty {
			version, err = s.cache.HistoryVersion(ctx, userID)
			if err != nil {
				entry.WithError(err).Warn("read watch history version failed")
			} else {
				cacheable = true
				items, ok, err := s.cache.GetHistory(ctx, userID, version)
				if err != nil {
					entry.WithError(err).Warn("read cached watch history failed")
				} else if ok {
					return items, nil
				}
			}
		}
	}

	items, err := s.profiles.WatchHistory(ctx, userID)
	if err != nil {
		return nil, Internal("fetch watch history failed", err)
	}
	if items == nil {
		items = []model.WatchHistoryItem{}
	}

	if cacheable {
		if err := s.cache.SetHistory(ctx, userID, version, items); err != nil {
			entry.WithError(err).Warn("cache watch history failed")
		}
	}
	return items, nil
}
