package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"vidhub/internal/model"
	"vidhub/internal/pkg/jwtutil"
	"vidhub/internal/repository"
)

const msgTokenGeneration = "something went wrong while generating access and refresh tokens"

type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService mints access/refresh pairs and keeps exactly one live
// refresh token per user.
type TokenService struct {
	users UserStore
	cfg   TokenConfig
	log   *logrus.Entry
}

func NewTokenService(users UserStore, cfg TokenConfig) *TokenService {
	return &TokenService{
		users: users,
		cfg:   cfg,
		log:   logrus.WithField("component", "token_service"),
	}
}

// Issue mints a pair for userID and stores the refresh token on the user.
func (s *TokenService) Issue(ctx context.Context, userID string) (*TokenPair, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.generationFailed(userID, err)
	}
	if user == nil {
		return nil, s.generationFailed(userID, repository.ErrNotFound)
	}

	pair, err := s.mint(user)
	if err != nil {
		return nil, s.generationFailed(userID, err)
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, s.generationFailed(userID, err)
	}
	return pair, nil
}

// Refresh exchanges the presented refresh token for a new pair. The stored
// token is swapped only if it still equals presented, so a token can be
// redeemed once.
func (s *TokenService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, Unauthorized("unauthorized request")
	}

	claims, err := jwtutil.Parse(presented, s.cfg.RefreshSecret)
	if err != nil {
		return nil, Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, Internal("refresh token lookup failed", err)
	}
	if user == nil {
		return nil, Unauthorized("invalid refresh token")
	}
	if user.RefreshToken != presented {
		return nil, Unauthorized("refresh token is expired or used")
	}

	pair, err := s.mint(user)
	if err != nil {
		return nil, s.generationFailed(user.ID, err)
	}
	swapped, err := s.users.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, s.generationFailed(user.ID, err)
	}
	if !swapped {
		s.log.WithField("user_id", user.ID).Warn("refresh token rotated concurrently")
		return nil, Unauthorized("refresh token is expired or used")
	}
	return pair, nil
}

// VerifyAccess resolves an access token to the public view of its user.
func (s *TokenService) VerifyAccess(ctx context.Context, presented string) (*model.User, error) {
	if presented == "" {
		return nil, Unauthorized("unauthorized request")
	}

	claims, err := jwtutil.Parse(presented, s.cfg.AccessSecret)
	if err != nil {
		return nil, Unauthorized("invalid access token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", claims.UserID).Warn("access token user lookup failed")
		return nil, Unauthorized("invalid access token")
	}
	if user == nil {
		return nil, Unauthorized("invalid access token")
	}
	return user.Public(), nil
}

func (s *TokenService) mint(user *model.User) (*TokenPair, error) {
	access, err := jwtutil.Sign(jwtutil.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	}, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := jwtutil.Sign(jwtutil.Claims{UserID: user.ID}, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) generationFailed(userID string, cause error) error {
	s.log.WithError(cause).WithField("user_id", userID).Error("issue token pair failed")
	return Internal(msgTokenGeneration, cause)
}
