package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"habitloop/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkTelegram attaches a Telegram chat to an existing account so the
// reminder bot can reach it. Re-linking overwrites the previous chat.
func (r *UserRepository) LinkTelegram(ctx context.Context, userID uint, telegramID int64, name string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	if err := db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"telegram_id": telegramID,
	}
	if user.Name == "" && name != "" {
		updates["name"] = name
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("link telegram: %w", err)
	}
	return &user, nil
}

// ListLinked returns every user with a Telegram chat attached.
func (r *UserRepository) ListLinked(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_id <> 0").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// EnsureByID creates a bare account row when the identity layer references
// an id the database has not seen yet.
func (r *UserRepository) EnsureByID(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.First(&user, userID).Error
	switch {
	case err == nil:
		return &user, nil
	case err == gorm.ErrRecordNotFound:
		user = model.User{ID: userID}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}
