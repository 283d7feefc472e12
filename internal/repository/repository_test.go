package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/model"
	"vidhub/internal/repository"
	"vidhub/internal/repository/repotest"
)

func seedUser(t *testing.T, users *repository.UserRepository, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: "User " + username,
		Avatar:   "http://media/" + username + ".png",
		Password: "hash",
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db := repotest.NewSQLite(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	alice := seedUser(t, users, "alice")
	assert.NotEmpty(t, alice.ID)

	err := users.Create(ctx, &model.User{Username: "alice", Email: "x@example.com", FullName: "x", Avatar: "a", Password: "p"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = users.Create(ctx, &model.User{Username: "other", Email: "alice@example.com", FullName: "x", Avatar: "a", Password: "p"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := users.FindByUsernameOrEmail(ctx, "nobody", "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)

	missing, err := users.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_UpdatesMissingUser(t *testing.T) {
	db := repotest.NewSQLite(t)
	users := repository.NewUserRepository(db)

	err := users.UpdateAvatar(context.Background(), "missing", "http://media/a.png")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdateAccountEmailTaken(t *testing.T) {
	db := repotest.NewSQLite(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	alice := seedUser(t, users, "alice")
	seedUser(t, users, "bob")

	err := users.UpdateAccount(ctx, alice.ID, "Alice", "bob@example.com")
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, users.UpdateAccount(ctx, alice.ID, "Alice", "alice@example.com"))
}

func TestUserRepository_SwapRefreshToken(t *testing.T) {
	db := repotest.NewSQLite(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()
	alice := seedUser(t, users, "alice")

	require.NoError(t, users.SetRefreshToken(ctx, alice.ID, "r1"))

	ok, err := users.SwapRefreshToken(ctx, alice.ID, "r1", "r2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = users.SwapRefreshToken(ctx, alice.ID, "r1", "r3")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = users.SwapRefreshToken(ctx, alice.ID, "", "r4")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "r2", got.RefreshToken)

	require.NoError(t, users.ClearRefreshToken(ctx, alice.ID))
	got, err = users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RefreshToken)
}

func TestSubscriptionRepository_Idempotent(t *testing.T) {
	db := repotest.NewSQLite(t)
	users := repository.NewUserRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	profiles := repository.NewProfileQueries(db)
	ctx := context.Background()

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	require.NoError(t, subs.Subscribe(ctx, alice.ID, bob.ID))
	require.NoError(t, subs.Subscribe(ctx, alice.ID, bob.ID))

	profile, err := profiles.ChannelProfile(ctx, alice.ID, "bob")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, int64(1), profile.SubscribersCount)
	assert.Equal(t, int64(0), profile.SubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	reverse, err := profiles.ChannelProfile(ctx, bob.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), reverse.SubscribersCount)
	assert.Equal(t, int64(1), reverse.SubscribedToCount)
	assert.False(t, reverse.IsSubscribed)

	require.NoError(t, subs.Unsubscribe(ctx, alice.ID, bob.ID))
	profile, err = profiles.ChannelProfile(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), profile.SubscribersCount)
	assert.False(t, profile.IsSubscribed)

	missing, err := profiles.ChannelProfile(ctx, alice.ID, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProfileQueries_WatchHistoryOrder(t *testing.T) {
	db := repotest.NewSQLite(t)
	users := repository.NewUserRepository(db)
	videos := repository.NewVideoRepository(db)
	profiles := repository.NewProfileQueries(db)
	ctx := context.Background()

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	v1 := &model.Video{Title: "one", VideoFile: "f1", Thumbnail: "t1", Description: "d", IsPublished: true, OwnerID: bob.ID}
	v2 := &model.Video{Title: "two", VideoFile: "f2", Thumbnail: "t2", Description: "d", IsPublished: true, OwnerID: bob.ID}
	orphan := &model.Video{Title: "orphan", VideoFile: "f3", Thumbnail: "t3", Description: "d", IsPublished: true}
	require.NoError(t, videos.Create(ctx, v1))
	require.NoError(t, videos.Create(ctx, v2))
	require.NoError(t, videos.Create(ctx, orphan))

	require.NoError(t, users.AppendWatchHistory(ctx, alice.ID, v2.ID))
	require.NoError(t, users.AppendWatchHistory(ctx, alice.ID, v1.ID))
	require.NoError(t, users.AppendWatchHistory(ctx, alice.ID, orphan.ID))
	require.NoError(t, users.AppendWatchHistory(ctx, alice.ID, v2.ID))

	history, err := profiles.WatchHistory(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{v1.ID, orphan.ID, v2.ID}, []string{history[0].ID, history[1].ID, history[2].ID})

	require.NotNil(t, history[0].Owner)
	assert.Equal(t, model.OwnerSummary{Username: "bob", FullName: "User bob", Avatar: "http://media/bob.png"}, *history[0].Owner)
	assert.Nil(t, history[1].Owner)

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{v1.ID, orphan.ID, v2.ID}, got.WatchHistory)

	empty, err := profiles.WatchHistory(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestVideoRepository_IncrementViews(t *testing.T) {
	db := repotest.NewSQLite(t)
	videos := repository.NewVideoRepository(db)
	ctx := context.Background()

	v := &model.Video{Title: "one", VideoFile: "f1", Thumbnail: "t1", Description: "d", IsPublished: true}
	require.NoError(t, videos.Create(ctx, v))
	require.NoError(t, videos.IncrementViews(ctx, v.ID))
	require.NoError(t, videos.IncrementViews(ctx, v.ID))

	got, err := videos.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	assert.ErrorIs(t, videos.IncrementViews(ctx, "missing"), repository.ErrNotFound)

	missing, err := videos.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
