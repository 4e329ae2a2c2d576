package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"musicapp/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	Create(ctx context.Context, song *model.Song) error
	GetByID(ctx context.Context, id string) (*model.Song, error)
	Save(ctx context.Context, song *model.Song) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*model.Song, error)
	ListWithUploader(ctx context.Context) ([]*model.Song, error)
	Search(ctx context.Context, query string) ([]*model.Song, error)
	FilePaths(ctx context.Context) ([]string, error)
}

type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository creates a song repository backed by gorm.
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

func (r *gormSongRepository) Create(ctx context.Context, song *model.Song) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(song).Error; err != nil {
		return fmt.Errorf("failed to create song %q: %w", song.Title, err)
	}
	return nil
}

// GetByID returns nil, nil when the song does not exist.
func (r *gormSongRepository) GetByID(ctx context.Context, id string) (*model.Song, error) {
	var song model.Song
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&song).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get song %s: %w", id, err)
	}
	return &song, nil
}

// Save writes the mutable columns of an existing song in one statement and
// reports whether the song still existed. It never inserts, so a song
// deleted concurrently stays deleted.
func (r *gormSongRepository) Save(ctx context.Context, song *model.Song) (bool, error) {
	res := r.db.WithContext(ctx).Model(song).
		Select("title", "artist", "cover_path", "genre", "duration", "updated_at").
		Updates(song)
	if res.Error != nil {
		return false, fmt.Errorf("failed to save song %s: %w", song.ID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the song record and reports whether it existed.
func (r *gormSongRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Song{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete song %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// List returns all songs, newest first.
func (r *gormSongRepository) List(ctx context.Context) ([]*model.Song, error) {
	songs := make([]*model.Song, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songs, nil
}

// ListWithUploader is List with the uploader's name and email attached.
func (r *gormSongRepository) ListWithUploader(ctx context.Context) ([]*model.Song, error) {
	songs := make([]*model.Song, 0)
	err := r.db.WithContext(ctx).
		Preload("Uploader", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "role")
		}).
		Order("created_at DESC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list songs with uploader: %w", err)
	}
	return songs, nil
}

// Search matches query as a literal, case-insensitive substring of the title
// or the artist. Results are newest first.
func (r *gormSongRepository) Search(ctx context.Context, query string) ([]*model.Song, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	songs := make([]*model.Song, 0)
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(artist) LIKE ? ESCAPE '!'", pattern, pattern).
		Order("created_at DESC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search songs for %q: %w", query, err)
	}
	return songs, nil
}

// FilePaths returns every audio and cover path referenced by a song.
func (r *gormSongRepository) FilePaths(ctx context.Context) ([]string, error) {
	var rows []struct {
		AudioPath string
		CoverPath string
	}
	if err := r.db.WithContext(ctx).Model(&model.Song{}).Select("audio_path", "cover_path").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load song file paths: %w", err)
	}
	paths := make([]string, 0, len(rows)*2)
	for _, row := range rows {
		paths = append(paths, row.AudioPath, row.CoverPath)
	}
	return paths, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
