// Package favorites maintains each user's ordered set of favorite songs.
package favorites

import (
	"context"
	"errors"

	"musicapp/core/apperr"
	"musicapp/model"
	"musicapp/repository"
)

var (
	ErrSongNotFound     = apperr.NotFound("Song not found")
	ErrAlreadyFavorited = apperr.Conflict("Song already in favorites")
	ErrNotFavorited     = apperr.Conflict("Song not in favorites")
)

type Service struct {
	songs     repository.SongRepository
	favorites repository.FavoriteRepository
}

func NewService(songs repository.SongRepository, favorites repository.FavoriteRepository) *Service {
	return &Service{songs: songs, favorites: favorites}
}

// Add appends songID to the user's favorites and returns the updated id list.
func (s *Service) Add(ctx context.Context, user *model.User, songID string) ([]string, error) {
	song, err := s.songs.GetByID(ctx, songID)
	if err != nil {
		return nil, apperr.Internal("Error adding to favorites", err)
	}
	if song == nil {
		return nil, ErrSongNotFound
	}

	if err := s.favorites.Add(ctx, user.ID, songID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyFavorited
		}
		return nil, apperr.Internal("Error adding to favorites", err)
	}
	return s.ids(ctx, user, "Error adding to favorites")
}

// Remove drops songID from the user's favorites and returns the updated id
// list.
func (s *Service) Remove(ctx context.Context, user *model.User, songID string) ([]string, error) {
	removed, err := s.favorites.Remove(ctx, user.ID, songID)
	if err != nil {
		return nil, apperr.Internal("Error removing from favorites", err)
	}
	if !removed {
		return nil, ErrNotFavorited
	}
	return s.ids(ctx, user, "Error removing from favorites")
}

// List resolves the user's favorites to songs in the order they were added.
func (s *Service) List(ctx context.Context, user *model.User) ([]*model.Song, error) {
	songs, err := s.favorites.ListSongs(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal("Error fetching favorites", err)
	}
	return songs, nil
}

func (s *Service) Check(ctx context.Context, user *model.User, songID string) (bool, error) {
	ok, err := s.favorites.Exists(ctx, user.ID, songID)
	if err != nil {
		return false, apperr.Internal("Error checking favorite status", err)
	}
	return ok, nil
}

func (s *Service) ids(ctx context.Context, user *model.User, message string) ([]string, error) {
	ids, err := s.favorites.SongIDs(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal(message, err)
	}
	return ids, nil
}
