package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vidhub/internal/model"
)

// ProfileQueries runs the channel-profile and watch-history aggregation
// pipelines against the users collection.
type ProfileQueries struct {
	users *mongo.Collection
}

func NewProfileQueries(db *mongo.Database) *ProfileQueries {
	return &ProfileQueries{users: db.Collection(usersCollection)}
}

type channelProfileDocument struct {
	ID                primitive.ObjectID `bson:"_id"`
	FullName          string             `bson:"fullName"`
	Username          string             `bson:"username"`
	SubscribersCount  int64              `bson:"subscribersCount"`
	SubscribedToCount int64              `bson:"subscribedToCount"`
	IsSubscribed      bool               `bson:"isSubscribed"`
	Avatar            string             `bson:"avatar"`
	CoverImage        string             `bson:"coverImage"`
	Email             string             `bson:"email"`
}

func channelProfilePipeline(viewer primitive.ObjectID, username string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         subscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         subscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribersCount":  bson.M{"$size": "$subscribers"},
			"subscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"fullName":          1,
			"username":          1,
			"subscribersCount":  1,
			"subscribedToCount": 1,
			"isSubscribed":      1,
			"avatar":            1,
			"coverImage":        1,
			"email":             1,
		}}},
	}
}

func (q *ProfileQueries) ChannelProfile(ctx context.Context, viewerID, username string) (*model.ChannelProfile, error) {
	viewer, _ := objectID(viewerID)

	cursor, err := q.users.Aggregate(ctx, channelProfilePipeline(viewer, username))
	if err != nil {
		return nil, fmt.Errorf("aggregate channel profile failed: %w", err)
	}
	var docs []channelProfileDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode channel profile failed: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	doc := docs[0]
	return &model.ChannelProfile{
		ID:                doc.ID.Hex(),
		FullName:          doc.FullName,
		Username:          doc.Username,
		SubscribersCount:  doc.SubscribersCount,
		SubscribedToCount: doc.SubscribedToCount,
		IsSubscribed:      doc.IsSubscribed,
		Avatar:            doc.Avatar,
		CoverImage:        doc.CoverImage,
		Email:             doc.Email,
	}, nil
}

type ownerDocument struct {
	Username string `bson:"username"`
	FullName string `bson:"fullName"`
	Avatar   string `bson:"avatar"`
}

type watchedVideoDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	VideoFile   string             `bson:"videoFile"`
	Thumbnail   string             `bson:"thumbnail"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Views       int64              `bson:"views"`
	IsPublished bool               `bson:"isPublished"`
	Owner       *ownerDocument     `bson:"owner,omitempty"`
}

type watchHistoryDocument struct {
	WatchHistory []primitive.ObjectID  `bson:"watchHistory"`
	Videos       []watchedVideoDocument `bson:"videos"`
}

func watchHistoryPipeline(user primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": user}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         videosCollection,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "videos",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         usersCollection,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{"fullName": 1, "username": 1, "avatar": 1}},
					},
				}},
				bson.M{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
			},
		}}},
		{{Key: "$project", Value: bson.M{"watchHistory": 1, "videos": 1}}},
	}
}

// WatchHistory returns the user's history in watchHistory order; $lookup
// does not preserve the order of the local array, so it is restored here.
func (q *ProfileQueries) WatchHistory(ctx context.Context, userID string) ([]model.WatchHistoryItem, error) {
	user, ok := objectID(userID)
	if !ok {
		return []model.WatchHistoryItem{}, nil
	}

	cursor, err := q.users.Aggregate(ctx, watchHistoryPipeline(user))
	if err != nil {
		return nil, fmt.Errorf("aggregate watch history failed: %w", err)
	}
	var docs []watchHistoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode watch history failed: %w", err)
	}
	if len(docs) == 0 {
		return []model.WatchHistoryItem{}, nil
	}

	doc := docs[0]
	byID := make(map[primitive.ObjectID]watchedVideoDocument, len(doc.Videos))
	for _, v := range doc.Videos {
		byID[v.ID] = v
	}

	items := make([]model.WatchHistoryItem, 0, len(doc.WatchHistory))
	for _, id := range doc.WatchHistory {
		v, ok := byID[id]
		if !ok {
			continue
		}
		item := model.WatchHistoryItem{
			ID:          v.ID.Hex(),
			VideoFile:   v.VideoFile,
			Thumbnail:   v.Thumbnail,
			Title:       v.Title,
			Description: v.Description,
			Duration:    v.Duration,
			Views:       v.Views,
			IsPublished: v.IsPublished,
		}
		if v.Owner != nil {
			item.Owner = &model.OwnerSummary{
				Username: v.Owner.Username,
				FullName: v.Owner.FullName,
				Avatar:   v.Owner.Avatar,
			}
		}
		items = append(items, item)
	}
	return items, nil
}
