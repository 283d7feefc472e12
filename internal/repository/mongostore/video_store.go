package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vidhub/internal/model"
	"vidhub/internal/repository"
)

type VideoStore struct {
	collection *mongo.Collection
}

func NewVideoStore(db *mongo.Database) *VideoStore {
	return &VideoStore{collection: db.Collection(videosCollection)}
}

func (s *VideoStore) Create(ctx context.Context, video *model.Video) error {
	owner, ok := objectID(video.OwnerID)
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	doc := videoDocument{
		ID:          primitive.NewObjectID(),
		VideoFile:   video.VideoFile,
		Thumbnail:   video.Thumbnail,
		Title:       video.Title,
		Description: video.Description,
		Duration:    video.Duration,
		Views:       video.Views,
		IsPublished: video.IsPublished,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert video failed: %w", err)
	}
	video.ID = doc.ID.Hex()
	video.CreatedAt = now
	video.UpdatedAt = now
	return nil
}

func (s *VideoStore) GetByID(ctx context.Context, id string) (*model.Video, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	var doc videoDocument
	if err := s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find video failed: %w", err)
	}
	return doc.toModel(), nil
}

func (s *VideoStore) IncrementViews(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return repository.ErrNotFound
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return fmt.Errorf("increment video views failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
