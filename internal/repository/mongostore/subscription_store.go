package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vidhub/internal/repository"
)

type SubscriptionStore struct {
	collection *mongo.Collection
}

func NewSubscriptionStore(db *mongo.Database) *SubscriptionStore {
	return &SubscriptionStore{collection: db.Collection(subscriptionsCollection)}
}

// Subscribe upserts the (subscriber, channel) edge.
func (s *SubscriptionStore) Subscribe(ctx context.Context, subscriberID, channelID string) error {
	subscriber, ok := objectID(subscriberID)
	if !ok {
		return repository.ErrNotFound
	}
	channel, ok := objectID(channelID)
	if !ok {
		return repository.ErrNotFound
	}

	now := time.Now()
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"subscriber": subscriber, "channel": channel},
		bson.M{
			"$setOnInsert": bson.M{"createdAt": now},
			"$set":         bson.M{"updatedAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Two concurrent upserts can both miss and race on the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("upsert subscription failed: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) Unsubscribe(ctx context.Context, subscriberID, channelID string) error {
	subscriber, ok := objectID(subscriberID)
	if !ok {
		return nil
	}
	channel, ok := objectID(channelID)
	if !ok {
		return nil
	}
	if _, err := s.collection.DeleteOne(ctx, bson.M{"subscriber": subscriber, "channel": channel}); err != nil {
		return fmt.Errorf("delete subscription failed: %w", err)
	}
	return nil
}
