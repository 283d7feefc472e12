package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidhub/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	return r.first(ctx, "username = ? OR email = ?", username, email)
}

func (r *UserRepository) first(ctx context.Context, query string, args ...any) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user failed: %w", err)
	}

	var videoIDs []string
	if err := r.db.WithContext(ctx).Model(&model.WatchEntry{}).
		Where("user_id = ?", user.ID).
		Order("id ASC").
		Pluck("video_id", &videoIDs).Error; err != nil {
		return nil, fmt.Errorf("query watch history ids failed: %w", err)
	}
	user.WatchHistory = videoIDs
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateColumns(ctx, id, map[string]any{"password": passwordHash})
}

func (r *UserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) error {
	return r.updateColumns(ctx, id, map[string]any{"full_name": fullName, "email": email})
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	return r.updateColumns(ctx, id, map[string]any{"avatar": avatarURL})
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id, coverImageURL string) error {
	return r.updateColumns(ctx, id, map[string]any{"cover_image": coverImageURL})
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.updateColumns(ctx, id, map[string]any{"refresh_token": token})
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.updateColumns(ctx, id, map[string]any{"refresh_token": ""})
}

func (r *UserRepository) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Update("refresh_token", next)
	if result.Error != nil {
		return false, fmt.Errorf("swap refresh token failed: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// AppendWatchHistory moves videoID to the end of the user's history.
func (r *UserRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Where("user_id = ? AND video_id = ?", userID, videoID).Delete(&model.WatchEntry{}).Error; err != nil {
			return err
		}
		return tx.Create(&model.WatchEntry{UserID: userID, VideoID: videoID}).Error
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("append watch history failed: %w", err)
	}
	return nil
}

func (r *UserRepository) updateColumns(ctx context.Context, id string, columns map[string]any) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user failed: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports zero affected rows when the values did not change.
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("count user failed: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
