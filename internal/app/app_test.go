package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vidhub/internal/app"
	"vidhub/internal/app/apptest"
	"vidhub/internal/model"
	"vidhub/internal/repository/repotest"
)

const (
	accessSecret  = "test-access-secret"
	refreshSecret = "test-refresh-secret"
)

type fixture struct {
	store         app.Store
	uploader      *apptest.Uploader
	publisher     *apptest.Publisher
	cache         *apptest.HistoryCache
	tokens        *app.TokenService
	auth          *app.AuthService
	profiles      *app.ProfileService
	subscriptions *app.SubscriptionService
	videos        *app.VideoService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore(t)
	f := &fixture{
		store:     store,
		uploader:  &apptest.Uploader{FailOn: map[string]bool{}},
		publisher: &apptest.Publisher{},
		cache:     apptest.NewHistoryCache(),
	}
	f.tokens = app.NewTokenService(store.Users, app.TokenConfig{
		AccessSecret:  accessSecret,
		AccessTTL:     15 * time.Minute,
		RefreshSecret: refreshSecret,
		RefreshTTL:    24 * time.Hour,
	})
	f.auth = app.NewAuthService(store.Users, f.uploader, f.tokens, f.cache)
	f.profiles = app.NewProfileService(store.Profiles, f.cache)
	f.subscriptions = app.NewSubscriptionService(store.Users, store.Subscriptions)
	f.videos = app.NewVideoService(store.Videos, f.uploader, f.publisher, f.cache)
	return f
}

func image(name string) *app.Upload {
	return &app.Upload{Name: name, ContentType: "image/png", Data: []byte("png:" + name)}
}

func (f *fixture) register(t *testing.T, username, password string) *model.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), app.RegisterInput{
		Username: username,
		Email:    username + "@x.com",
		Password: password,
		FullName: "Full " + username,
		Avatar:   image(username + "-avatar.png"),
	})
	require.NoError(t, err)
	return user
}

func requireKind(t *testing.T, err error, kind app.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, app.KindOf(err), "unexpected error: %v", err)
}
