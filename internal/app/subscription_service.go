package app

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"vidhub/internal/repository"
)

type SubscriptionService struct {
	users         UserStore
	subscriptions SubscriptionStore
	log           *logrus.Entry
}

func NewSubscriptionService(users UserStore, subscriptions SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{
		users:         users,
		subscriptions: subscriptions,
		log:           logrus.WithField("component", "subscription_service"),
	}
}

// Subscribe makes subscriberID follow the channel; repeating it is a no-op.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, channelUsername string) error {
	channelID, err := s.resolveChannel(ctx, subscriberID, channelUsername)
	if err != nil {
		return err
	}
	if err := s.subscriptions.Subscribe(ctx, subscriberID, channelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("channel does not exist")
		}
		return Internal("subscribe failed", err)
	}
	s.log.WithFields(logrus.Fields{"subscriber_id": subscriberID, "channel_id": channelID}).Info("subscribed")
	return nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, channelUsername string) error {
	channelID, err := s.resolveChannel(ctx, subscriberID, channelUsername)
	if err != nil {
		return err
	}
	if err := s.subscriptions.Unsubscribe(ctx, subscriberID, channelID); err != nil {
		return Internal("unsubscribe failed", err)
	}
	return nil
}

func (s *SubscriptionService) resolveChannel(ctx context.Context, subscriberID, username string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return "", Validation("username is missing")
	}
	channel, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", Internal("fetch channel failed", err)
	}
	if channel == nil {
		return "", NotFound("channel does not exist")
	}
	if channel.ID == subscriberID {
		return "", Validation("cannot subscribe to your own channel")
	}
	return channel.ID, nil
}
