package repository

import (
	"context"
	"errors"
	"fmt"

	"musicapp/model"

	"gorm.io/gorm"
)

// FavoriteRepository stores the user/song favorite relation.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, songID string) error
	Remove(ctx context.Context, userID, songID string) (bool, error)
	Exists(ctx context.Context, userID, songID string) (bool, error)
	ListSongs(ctx context.Context, userID string) ([]*model.Song, error)
	SongIDs(ctx context.Context, userID string) ([]string, error)
	Count(ctx context.Context, userID string) (int64, error)
	// RemoveSong retracts a song from every user's favorites.
	RemoveSong(ctx context.Context, songID string) (int64, error)
	// CountDangling counts favorites whose song no longer exists.
	CountDangling(ctx context.Context) (int64, error)
	// RemoveDangling deletes favorites whose song no longer exists.
	RemoveDangling(ctx context.Context) (int64, error)
}

type gormFavoriteRepository struct {
	db *gorm.DB
}

// NewGormFavoriteRepository creates a favorite repository backed by gorm.
func NewGormFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &gormFavoriteRepository{db: db}
}

// Add appends the song to the user's favorites. A pair that already exists
// yields ErrDuplicate.
func (r *gormFavoriteRepository) Add(ctx context.Context, userID, songID string) error {
	fav := &model.Favorite{UserID: userID, SongID: songID}
	if err := r.db.WithContext(ctx).Create(fav).Error; err != nil {
		if err = translate(err); errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("failed to add favorite %s for user %s: %w", songID, userID, err)
	}
	return nil
}

func (r *gormFavoriteRepository) Remove(ctx context.Context, userID, songID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND song_id = ?", userID, songID).
		Delete(&model.Favorite{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove favorite %s for user %s: %w", songID, userID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormFavoriteRepository) Exists(ctx context.Context, userID, songID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND song_id = ?", userID, songID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite %s for user %s: %w", songID, userID, err)
	}
	return count > 0, nil
}

// ListSongs resolves the user's favorites to songs in insertion order.
func (r *gormFavoriteRepository) ListSongs(ctx context.Context, userID string) ([]*model.Song, error) {
	songs := make([]*model.Song, 0)
	err := r.db.WithContext(ctx).Model(&model.Song{}).
		Joins("JOIN favorites ON favorites.song_id = songs.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.id ASC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite songs for user %s: %w", userID, err)
	}
	return songs, nil
}

func (r *gormFavoriteRepository) SongIDs(ctx context.Context, userID string) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("song_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite ids for user %s: %w", userID, err)
	}
	return ids, nil
}

func (r *gormFavoriteRepository) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Favorite{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count favorites for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *gormFavoriteRepository) RemoveSong(ctx context.Context, songID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("song_id = ?", songID).Delete(&model.Favorite{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to retract song %s from favorites: %w", songID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormFavoriteRepository) CountDangling(ctx context.Context) (int64, error) {
	var count int64
	tx := r.db.WithContext(ctx)
	err := tx.Model(&model.Favorite{}).
		Where("song_id NOT IN (?)", tx.Model(&model.Song{}).Select("id")).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count dangling favorites: %w", err)
	}
	return count, nil
}

func (r *gormFavoriteRepository) RemoveDangling(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx)
	res := tx.Where("song_id NOT IN (?)", tx.Model(&model.Song{}).Select("id")).
		Delete(&model.Favorite{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to remove dangling favorites: %w", res.Error)
	}
	return res.RowsAffected, nil
}
