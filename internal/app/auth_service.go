package app

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"vidhub/internal/model"
	"vidhub/internal/repository"
)

const msgUserExists = "user with email or username already exists"

// AuthService owns user credentials and profile fields.
type AuthService struct {
	users     UserStore
	uploader  MediaUploader
	tokens    *TokenService
	histories WatchHistoryCache
	log       *logrus.Entry
}

type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	FullName   string
	Avatar     *Upload
	CoverImage *Upload
}

// LoginInput identifies the user by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// NewAuthService wires the credential operations. histories may be nil; when
// set, changes to a user's name or avatar invalidate cached watch histories,
// which embed owner details.
func NewAuthService(users UserStore, uploader MediaUploader, tokens *TokenService, histories WatchHistoryCache) *AuthService {
	return &AuthService{
		users:     users,
		uploader:  uploader,
		tokens:    tokens,
		histories: histories,
		log:       logrus.WithField("component", "auth_service"),
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)
	password := input.Password

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(password) == "" {
		return nil, Validation("all fields are required")
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, Internal("register failed", err)
	}
	if existing != nil {
		return nil, Conflict(msgUserExists)
	}

	if input.Avatar.empty() {
		return nil, Validation("avatar file is required")
	}

	var avatarURL, coverURL string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := s.uploader.Upload(gctx, input.Avatar.Name, input.Avatar.ContentType, input.Avatar.Data)
		if err != nil {
			return err
		}
		avatarURL = url
		return nil
	})
	if !input.CoverImage.empty() {
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, input.CoverImage.Name, input.CoverImage.ContentType, input.CoverImage.Data)
			if err != nil {
				// the cover image is optional
				s.log.WithError(err).WithField("username", username).Warn("cover image upload failed")
				return nil
			}
			coverURL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.WithError(err).WithField("username", username).Warn("avatar upload failed")
		return nil, Validation("avatar file is required")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		Password:   hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Conflict(msgUserExists)
		}
		return nil, Internal("something went wrong while registering the user", err)
	}

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil || created == nil {
		return nil, Internal("something went wrong while registering the user", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": created.ID, "username": created.Username}).Info("user registered")
	return created.Public(), nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" && email == "" {
		return nil, Validation("username or email is required")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, Internal("login failed", err)
	}
	if user == nil {
		return nil, NotFound("user does not exist")
	}
	if !s.VerifyPassword(user, input.Password) {
		return nil, Unauthorized("invalid user credentials")
	}

	pair, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", user.ID).Info("user logged in")
	return &LoginResult{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout forgets the stored refresh token.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("user does not exist")
		}
		return Internal("logout failed", err)
	}
	return nil
}

func (s *AuthService) VerifyPassword(user *model.User, plaintext string) bool {
	if user == nil || user.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plaintext)) == nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	if strings.TrimSpace(input.NewPassword) == "" {
		return Validation("new password is required")
	}
	if input.NewPassword != input.ConfirmPassword {
		return Validation("new password and confirm password must match")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Internal("change password failed", err)
	}
	if user == nil {
		return NotFound("user does not exist")
	}
	if !s.VerifyPassword(user, input.OldPassword) {
		return Unauthorized("invalid old password")
	}

	hash, err := hashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return Internal("change password failed", err)
	}
	s.log.WithField("user_id", userID).Info("password changed")
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, Internal("fetch current user failed", err)
	}
	if user == nil {
		return nil, NotFound("user does not exist")
	}
	return user.Public(), nil
}

func (s *AuthService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, Validation("all fields are required")
	}

	if err := s.users.UpdateAccount(ctx, userID, fullName, email); err != nil {
		return nil, s.updateFailed(err)
	}
	s.ownerChanged(ctx, userID)
	return s.CurrentUser(ctx, userID)
}

func (s *AuthService) UpdateAvatar(ctx context.Context, userID string, file *Upload) (*model.User, error) {
	if file.empty() {
		return nil, Validation("avatar file is missing")
	}
	url, err := s.uploader.Upload(ctx, file.Name, file.ContentType, file.Data)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("avatar upload failed")
		return nil, Validation("error while uploading avatar")
	}
	if err := s.users.UpdateAvatar(ctx, userID, url); err != nil {
		return nil, s.updateFailed(err)
	}
	s.ownerChanged(ctx, userID)
	return s.CurrentUser(ctx, userID)
}

func (s *AuthService) UpdateCoverImage(ctx context.Context, userID string, file *Upload) (*model.User, error) {
	if file.empty() {
		return nil, Validation("cover image file is missing")
	}
	url, err := s.uploader.Upload(ctx, file.Name, file.ContentType, file.Data)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cover image upload failed")
		return nil, Validation("error while uploading cover image")
	}
	if err := s.users.UpdateCoverImage(ctx, userID, url); err != nil {
		return nil, s.updateFailed(err)
	}
	return s.CurrentUser(ctx, userID)
}

func (s *AuthService) ownerChanged(ctx context.Context, userID string) {
	if s.histories == nil {
		return
	}
	if err := s.histories.InvalidateAll(ctx); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("invalidate watch histories failed")
	}
}

func (s *AuthService) updateFailed(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return Conflict(msgUserExists)
	case errors.Is(err, repository.ErrNotFound):
		return NotFound("user does not exist")
	default:
		return Internal("update user failed", err)
	}
}

func hashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", Validation("password must be at most 72 bytes")
	}
	if err != nil {
		return "", Internal("hash password failed", err)
	}
	return string(hash), nil
}
