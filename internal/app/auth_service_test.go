package app_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/app"
)

func TestRegister_NeverExposesCredentials(t *testing.T) {
	f := newFixture(t)
	user, err := f.auth.Register(context.Background(), app.RegisterInput{
		Username:   "  Alice ",
		Email:      "A@X.com",
		Password:   "secret-1",
		FullName:   "Alice A",
		Avatar:     image("avatar.png"),
		CoverImage: image("cover.png"),
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Empty(t, user.Password)
	assert.Empty(t, user.RefreshToken)
	assert.Contains(t, user.Avatar, "avatar.png")
	assert.Contains(t, user.CoverImage, "cover.png")

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "refreshToken")
	assert.NotContains(t, string(raw), "secret-1")
}

func TestRegister_Conflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "secret-1")

	_, err := f.auth.Register(ctx, app.RegisterInput{
		Username: "bob", Email: "alice@x.com", Password: "p", FullName: "Bob", Avatar: image("b.png"),
	})
	requireKind(t, err, app.KindConflict)
	assert.Equal(t, 409, err.(*app.Error).StatusCode())

	_, err = f.auth.Register(ctx, app.RegisterInput{
		Username: "ALICE", Email: "other@x.com", Password: "p", FullName: "Alice 2", Avatar: image("c.png"),
	})
	requireKind(t, err, app.KindConflict)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input app.RegisterInput
	}{
		{name: "blank username", input: app.RegisterInput{Username: "  ", Email: "a@x.com", Password: "p", FullName: "A", Avatar: image("a.png")}},
		{name: "blank full name", input: app.RegisterInput{Username: "a", Email: "a@x.com", Password: "p", FullName: " ", Avatar: image("a.png")}},
		{name: "blank password", input: app.RegisterInput{Username: "a", Email: "a@x.com", Password: "  ", FullName: "A", Avatar: image("a.png")}},
		{name: "missing avatar", input: app.RegisterInput{Username: "a", Email: "a@x.com", Password: "p", FullName: "A"}},
		{name: "empty avatar", input: app.RegisterInput{Username: "a", Email: "a@x.com", Password: "p", FullName: "A", Avatar: &app.Upload{Name: "a.png"}}},
		{name: "password too long", input: app.RegisterInput{Username: "a", Email: "a@x.com", Password: strings.Repeat("p", 73), FullName: "A", Avatar: image("a.png")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tt.input)
			requireKind(t, err, app.KindValidation)
		})
	}
}

func TestRegister_UploadFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.uploader.FailOn["broken-avatar.png"] = true
	f.uploader.FailOn["broken-cover.png"] = true

	_, err := f.auth.Register(ctx, app.RegisterInput{
		Username: "a", Email: "a@x.com", Password: "p", FullName: "A", Avatar: image("broken-avatar.png"),
	})
	requireKind(t, err, app.KindValidation)
	assert.Equal(t, "avatar file is required", err.(*app.Error).Message)

	user, err := f.auth.Register(ctx, app.RegisterInput{
		Username: "a", Email: "a@x.com", Password: "p", FullName: "A",
		Avatar: image("ok.png"), CoverImage: image("broken-cover.png"),
	})
	require.NoError(t, err)
	assert.Empty(t, user.CoverImage)
}

func TestVerifyPassword_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "alice", "correct horse")

	stored, err := f.store.Users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", stored.Password)

	assert.True(t, f.auth.VerifyPassword(stored, "correct horse"))
	assert.False(t, f.auth.VerifyPassword(stored, "correct horse "))
	assert.False(t, f.auth.VerifyPassword(stored, ""))
	assert.False(t, f.auth.VerifyPassword(nil, "correct horse"))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "secret-1")

	_, err := f.auth.Login(ctx, app.LoginInput{Password: "secret-1"})
	requireKind(t, err, app.KindValidation)

	_, err = f.auth.Login(ctx, app.LoginInput{Username: "nobody", Password: "secret-1"})
	requireKind(t, err, app.KindNotFound)

	_, err = f.auth.Login(ctx, app.LoginInput{Username: "alice", Password: "wrong"})
	requireKind(t, err, app.KindUnauthorized)

	result, err := f.auth.Login(ctx, app.LoginInput{Email: "ALICE@x.com", Password: "secret-1"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, result.User.ID)
	assert.Empty(t, result.User.Password)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	stored, err := f.store.Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, result.RefreshToken, stored.RefreshToken)
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "secret-1")

	result, err := f.auth.Login(ctx, app.LoginInput{Username: "alice", Password: "secret-1"})
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, result.User.ID))

	_, err = f.tokens.Refresh(ctx, result.RefreshToken)
	requireKind(t, err, app.KindUnauthorized)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "old-pass")

	err := f.auth.ChangePassword(ctx, alice.ID, app.ChangePasswordInput{OldPassword: "old-pass", NewPassword: "new-pass", ConfirmPassword: "other"})
	requireKind(t, err, app.KindValidation)

	err = f.auth.ChangePassword(ctx, alice.ID, app.ChangePasswordInput{OldPassword: "wrong", NewPassword: "new-pass", ConfirmPassword: "new-pass"})
	requireKind(t, err, app.KindUnauthorized)

	require.NoError(t, f.auth.ChangePassword(ctx, alice.ID, app.ChangePasswordInput{
		OldPassword: "old-pass", NewPassword: "new-pass", ConfirmPassword: "new-pass",
	}))

	_, err = f.auth.Login(ctx, app.LoginInput{Username: "alice", Password: "old-pass"})
	requireKind(t, err, app.KindUnauthorized)
	_, err = f.auth.Login(ctx, app.LoginInput{Username: "alice", Password: "new-pass"})
	require.NoError(t, err)
}

func TestUpdateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "p")
	f.register(t, "bob", "p")

	_, err := f.auth.UpdateAccount(ctx, alice.ID, "", "alice@x.com")
	requireKind(t, err, app.KindValidation)

	_, err = f.auth.UpdateAccount(ctx, alice.ID, "Alice", "bob@x.com")
	requireKind(t, err, app.KindConflict)

	updated, err := f.auth.UpdateAccount(ctx, alice.ID, "Alice Liddell", "Alice.L@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.FullName)
	assert.Equal(t, "alice.l@x.com", updated.Email)
	assert.Empty(t, updated.Password)
}

func TestUpdateAvatarAndCover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "p")

	_, err := f.auth.UpdateAvatar(ctx, alice.ID, nil)
	requireKind(t, err, app.KindValidation)

	f.uploader.FailOn["bad.png"] = true
	_, err = f.auth.UpdateCoverImage(ctx, alice.ID, image("bad.png"))
	requireKind(t, err, app.KindValidation)

	updated, err := f.auth.UpdateAvatar(ctx, alice.ID, image("new-avatar.png"))
	require.NoError(t, err)
	assert.Contains(t, updated.Avatar, "new-avatar.png")

	updated, err = f.auth.UpdateCoverImage(ctx, alice.ID, image("new-cover.png"))
	require.NoError(t, err)
	assert.Contains(t, updated.CoverImage, "new-cover.png")

	current, err := f.auth.CurrentUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Avatar, current.Avatar)

	_, err = f.auth.CurrentUser(ctx, "missing")
	requireKind(t, err, app.KindNotFound)
}
