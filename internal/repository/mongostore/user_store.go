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

type UserStore struct {
	collection *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{collection: db.Collection(usersCollection)}
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Avatar:       user.Avatar,
		CoverImage:   user.CoverImage,
		Password:     user.Password,
		WatchHistory: []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user failed: %w", err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.WatchHistory = []string{}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *UserStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDocument
	if err := s.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user failed: %w", err)
	}
	return doc.toModel(), nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.set(ctx, id, bson.M{"password": passwordHash})
}

func (s *UserStore) UpdateAccount(ctx context.Context, id, fullName, email string) error {
	return s.set(ctx, id, bson.M{"fullName": fullName, "email": email})
}

func (s *UserStore) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	return s.set(ctx, id, bson.M{"avatar": avatarURL})
}

func (s *UserStore) UpdateCoverImage(ctx context.Context, id, coverImageURL string) error {
	return s.set(ctx, id, bson.M{"coverImage": coverImageURL})
}

// SetRefreshToken touches only the token field; no other document
// invariants are re-checked.
func (s *UserStore) SetRefreshToken(ctx context.Context, id, token string) error {
	oid, ok := objectID(id)
	if !ok {
		return repository.ErrNotFound
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"refreshToken": token}})
	if err != nil {
		return fmt.Errorf("set refresh token failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *UserStore) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	oid, ok := objectID(id)
	if !ok || expected == "" {
		return false, nil
	}
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "refreshToken": expected},
		bson.M{"$set": bson.M{"refreshToken": next}},
	)
	if err != nil {
		return false, fmt.Errorf("swap refresh token failed: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (s *UserStore) ClearRefreshToken(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return repository.ErrNotFound
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$unset": bson.M{"refreshToken": 1}})
	if err != nil {
		return fmt.Errorf("clear refresh token failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AppendWatchHistory moves videoID to the end of watchHistory in a single
// pipeline update.
func (s *UserStore) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	uid, ok := objectID(userID)
	if !ok {
		return repository.ErrNotFound
	}
	vid, ok := objectID(videoID)
	if !ok {
		return repository.ErrNotFound
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"watchHistory": bson.M{"$concatArrays": bson.A{
				bson.M{"$filter": bson.M{
					"input": bson.M{"$ifNull": bson.A{"$watchHistory", bson.A{}}},
					"cond":  bson.M{"$ne": bson.A{"$$this", vid}},
				}},
				bson.A{vid},
			}},
			"updatedAt": "$$NOW",
		}}},
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return fmt.Errorf("append watch history failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *UserStore) set(ctx context.Context, id string, fields bson.M) error {
	oid, ok := objectID(id)
	if !ok {
		return repository.ErrNotFound
	}
	fields["updatedAt"] = time.Now()
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("update user failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
