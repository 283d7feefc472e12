package app

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vidhub/internal/model"
)

type VideoService struct {
	videos    VideoStore
	uploader  MediaUploader
	publisher WatchEventPublisher
	cache     WatchHistoryCache
	log       *logrus.Entry
}

type PublishVideoInput struct {
	Title       string
	Description string
	Duration    float64
	VideoFile   *Upload
	Thumbnail   *Upload
}

func NewVideoService(videos VideoStore, uploader MediaUploader, publisher WatchEventPublisher, cache WatchHistoryCache) *VideoService {
	return &VideoService{
		videos:    videos,
		uploader:  uploader,
		publisher: publisher,
		cache:     cache,
		log:       logrus.WithField("component", "video_service"),
	}
}

func (s *VideoService) Publish(ctx context.Context, ownerID string, input PublishVideoInput) (*model.Video, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, Validation("title and description are required")
	}
	if input.Duration < 0 {
		return nil, Validation("duration must not be negative")
	}
	if input.VideoFile.empty() || input.Thumbnail.empty() {
		return nil, Validation("video file and thumbnail are required")
	}

	var videoURL, thumbnailURL string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := s.uploader.Upload(gctx, input.VideoFile.Name, input.VideoFile.ContentType, input.VideoFile.Data)
		videoURL = url
		return err
	})
	g.Go(func() error {
		url, err := s.uploader.Upload(gctx, input.Thumbnail.Name, input.Thumbnail.ContentType, input.Thumbnail.Data)
		thumbnailURL = url
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.WithError(err).WithField("owner_id", ownerID).Warn("video upload failed")
		return nil, Validation("error while uploading video")
	}

	video := &model.Video{
		VideoFile:   videoURL,
		Thumbnail:   thumbnailURL,
		Title:       title,
		Description: description,
		Duration:    input.Duration,
		IsPublished: true,
		OwnerID:     ownerID,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return nil, Internal("publish video failed", err)
	}
	s.log.WithFields(logrus.Fields{"video_id": video.ID, "owner_id": ownerID}).Info("video published")
	return video, nil
}

func (s *VideoService) Get(ctx context.Context, videoID string) (*model.Video, error) {
	video, err := s.videos.GetByID(ctx, strings.TrimSpace(videoID))
	if err != nil {
		return nil, Internal("fetch video failed", err)
	}
	if video == nil {
		return nil, NotFound("video does not exist")
	}
	return video, nil
}

// RecordWatch queues a watch event; history and view count are updated by
// the watch-event worker.
func (s *VideoService) RecordWatch(ctx context.Context, userID, videoID string) error {
	video, err := s.Get(ctx, videoID)
	if err != nil {
		return err
	}

	entry := s.log.WithFields(logrus.Fields{"user_id": userID, "video_id": video.ID})
	if s.cache != nil {
		if err := s.cache.MarkDirty(ctx, userID); err != nil {
			entry.WithError(err).Warn("mark watch history dirty failed")
		}
	}

	event := model.WatchEvent{UserID: userID, VideoID: video.ID, WatchedAt: time.Now().UTC()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return Internal("record watch failed", err)
	}
	return nil
}
