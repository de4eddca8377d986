package repository

import (
	"context"
	"errors"
	"fmt"

	"ajnadfm/model"

	"gorm.io/gorm"
)

// FavoriteRepository defines the interface for favorite row operations.
// It runs on the GORM connection.
type FavoriteRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error)
	Find(ctx context.Context, userID int64, nasheedID string) (*model.Favorite, error)
	Create(ctx context.Context, fav *model.Favorite) error
	Delete(ctx context.Context, id string) error
}

type gormFavoriteRepository struct {
	db *gorm.DB
}

// NewGormFavoriteRepository creates a new gormFavoriteRepository.
func NewGormFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &gormFavoriteRepository{db: db}
}

// ListByUser returns all favorite rows of the user.
func (r *gormFavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	var rows []model.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites for user %d: %w", userID, err)
	}
	return rows, nil
}

// Find returns the favorite row for (userID, nasheedID), or nil.
func (r *gormFavoriteRepository) Find(ctx context.Context, userID int64, nasheedID string) (*model.Favorite, error) {
	var fav model.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND nasheed_id = ?", userID, nasheedID).
		First(&fav).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find favorite: %w", err)
	}
	return &fav, nil
}

// Create inserts a favorite row.
func (r *gormFavoriteRepository) Create(ctx context.Context, fav *model.Favorite) error {
	if err := r.db.WithContext(ctx).Create(fav).Error; err != nil {
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	return nil
}

// Delete removes a favorite row by id.
func (r *gormFavoriteRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&model.Favorite{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete favorite %s: %w", id, err)
	}
	return nil
}
