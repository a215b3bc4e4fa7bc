// internal/auth/repository.go
package auth

import (
	"context"
	"errors"
	"time"

	"shopino/internal/users"

	"gorm.io/gorm"
)

type Repository interface {
	CreateUser(ctx context.Context, user *users.User) error
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
	GetUserByID(ctx context.Context, id string) (*users.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetRefreshTokenHash(ctx context.Context, userID string, hash string) error
	ClearRefreshTokenHash(ctx context.Context, userID string) error
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) CreateUser(ctx context.Context, user *users.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}
	return nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	var user users.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	var user users.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&users.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) SetRefreshTokenHash(ctx context.Context, userID string, hash string) error {
	return r.updateUser(ctx, userID, map[string]interface{}{"refresh_token_hash": hash})
}

func (r *repository) ClearRefreshTokenHash(ctx context.Context, userID string) error {
	return r.updateUser(ctx, userID, map[string]interface{}{"refresh_token_hash": ""})
}

// IncrementTokenVersion bumps the version atomically in SQL; the
// version column only ever increases.
func (r *repository) IncrementTokenVersion(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"token_version":      gorm.Expr("token_version + 1"),
			"refresh_token_hash": "",
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.updateUser(ctx, userID, map[string]interface{}{"last_login_at": at})
}

func (r *repository) updateUser(ctx context.Context, userID string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Updates(fields)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
