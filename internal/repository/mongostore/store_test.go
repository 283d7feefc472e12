package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"vidhub/internal/model"
	mongoClient "vidhub/internal/platform/mongo"
	"vidhub/internal/repository"
)

func newTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongoClient.New(ctx, uri)
	if err != nil {
		t.Skipf("mongodb unavailable: %v", err)
	}

	db := client.Database(fmt.Sprintf("vidhub_test_%d", time.Now().UnixNano()))
	require.NoError(t, EnsureIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func createUser(t *testing.T, store *UserStore, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: "User " + username,
		Avatar:   "http://media/" + username + ".png",
		Password: "hash",
	}
	require.NoError(t, store.Create(context.Background(), user))
	return user
}

func TestUserStore_CreateAndDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(db)

	alice := createUser(t, users, "alice")
	assert.Len(t, alice.ID, 24)

	err := users.Create(ctx, &model.User{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := users.FindByUsernameOrEmail(ctx, "", "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, alice.ID, found.ID)

	missing, err := users.GetByID(ctx, "not-an-object-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserStore_SwapRefreshToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(db)
	alice := createUser(t, users, "alice")

	require.NoError(t, users.SetRefreshToken(ctx, alice.ID, "r1"))

	ok, err := users.SwapRefreshToken(ctx, alice.ID, "r1", "r2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = users.SwapRefreshToken(ctx, alice.ID, "r1", "r3")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, users.ClearRefreshToken(ctx, alice.ID))
	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RefreshToken)
}

func TestProfileQueries_ChannelProfileAndWatchHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(db)
	subs := NewSubscriptionStore(db)
	videos := NewVideoStore(db)
	profiles := NewProfileQueries(db)

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")

	require.NoError(t, subs.Subscribe(ctx, alice.ID, bob.ID))
	require.NoError(t, subs.Subscribe(ctx, alice.ID, bob.ID))

	profile, err := profiles.ChannelProfile(ctx, alice.ID, "bob")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, int64(1), profile.SubscribersCount)
	assert.Equal(t, int64(0), profile.SubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	missing, err := profiles.ChannelProfile(ctx, alice.ID, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	v1 := &model.Video{Title: "one", VideoFile: "f1", Thumbnail: "t1", IsPublished: true, OwnerID: bob.ID}
	v2 := &model.Video{Title: "two", VideoFile: "f2", Thumbnail: "t2", IsPublished: true, OwnerID: bob.ID}
	require.NoError(t, videos.Create(ctx, v1))
	require.NoError(t, videos.Create(ctx, v2))

	require.NoError(t, users.AppendWatchHistory(ctx, alice.ID, v2.ID))
	require.NoError(t, users.AppendWatchHistory(ctx, alice.ID, v1.ID))
	require.NoError(t, users.AppendWatchHistory(ctx, alice.ID, v2.ID))

	history, err := profiles.WatchHistory(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, v1.ID, history[0].ID)
	assert.Equal(t, v2.ID, history[1].ID)
	require.NotNil(t, history[0].Owner)
	assert.Equal(t, "bob", history[0].Owner.Username)
	assert.Equal(t, "User bob", history[0].Owner.FullName)

	require.NoError(t, videos.IncrementViews(ctx, v1.ID))
	got, err := videos.GetByID(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
}
