// Package catalog owns the song lifecycle: creating, updating and deleting
// songs together with the files they reference, and the public read paths.
//
// Every file staged by a lifecycle operation belongs to a storage.Lease until
// the song record that references it is persisted. If persisting fails the
// lease is rolled back and no staged file survives.
package catalog

import (
	"context"
	"strings"

	"musicapp/cache"
	"musicapp/core/apperr"
	"musicapp/logger"
	"musicapp/model"
	"musicapp/repository"
	"musicapp/storage"
)

var (
	ErrSongNotFound  = apperr.NotFound("Song not found")
	ErrTitleArtist   = apperr.Validation("Title and artist are required")
	ErrAudioRequired = apperr.Validation("Audio file is required")
	ErrQueryRequired = apperr.Validation("Search query is required")
)

// Service implements the song lifecycle and the public song queries.
type Service struct {
	songs     repository.SongRepository
	favorites repository.FavoriteRepository
	stage     *storage.Stage
	cache     cache.SongCache

	audio storage.Bucket
	image storage.Bucket
}

// Option configures a Service.
type Option func(*Service)

// WithUploadLimit lowers the size cap of both buckets to limit bytes.
func WithUploadLimit(limit int64) Option {
	return func(s *Service) {
		s.audio = s.audio.WithLimit(limit)
		s.image = s.image.WithLimit(limit)
	}
}

func NewService(songs repository.SongRepository, favorites repository.FavoriteRepository, stage *storage.Stage, songCache cache.SongCache, opts ...Option) *Service {
	if songCache == nil {
		songCache = cache.NoopCache{}
	}
	s := &Service{
		songs:     songs,
		favorites: favorites,
		stage:     stage,
		cache:     songCache,
		audio:     storage.AudioBucket,
		image:     storage.ImageBucket,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries a new song. Cover is optional.
type CreateInput struct {
	Title  string
	Artist string
	Genre  string
	Audio  *storage.Upload
	Cover  *storage.Upload
}

// UpdateInput carries a partial update. Nil fields keep their value. An
// empty Title or Artist is ignored; an empty Genre clears the genre.
type UpdateInput struct {
	Title  *string
	Artist *string
	Genre  *string
	Cover  *storage.Upload
}

// Create stages the uploads and persists a song referencing them.
func (s *Service) Create(ctx context.Context, actor *model.User, in CreateInput) (*model.Song, error) {
	title := strings.TrimSpace(in.Title)
	artist := strings.TrimSpace(in.Artist)
	if title == "" || artist == "" {
		return nil, ErrTitleArtist
	}
	if in.Audio == nil {
		return nil, ErrAudioRequired
	}

	lease := s.stage.Begin()
	defer lease.Rollback(ctx)

	audio, err := lease.Stage(ctx, s.audio, *in.Audio)
	if err != nil {
		return nil, stagingError("Error uploading song", err)
	}

	coverPath := storage.DefaultCoverPath
	if in.Cover != nil {
		cover, err := lease.Stage(ctx, s.image, *in.Cover)
		if err != nil {
			return nil, stagingError("Error uploading song", err)
		}
		coverPath = cover.Path
	}

	song := &model.Song{
		Title:     title,
		Artist:    artist,
		Genre:     strings.TrimSpace(in.Genre),
		AudioPath: audio.Path,
		CoverPath: coverPath,
	}
	if actor != nil {
		id := actor.ID
		song.UploadedBy = &id
	}

	if err := s.songs.Create(ctx, song); err != nil {
		logger.Error("Failed to persist song, discarding staged files",
			logger.String("title", title),
			logger.Int("stagedFiles", len(lease.Staged())),
			logger.ErrorField(err))
		return nil, apperr.Internal("Error uploading song", err)
	}
	lease.Commit(ctx)
	s.cache.Invalidate(ctx)

	logger.Info("Song uploaded",
		logger.String("songId", song.ID),
		logger.String("audio", song.AudioPath),
		logger.String("cover", song.CoverPath))
	return song, nil
}

// Update applies a partial update. A new cover replaces the old one, which
// is discarded only after the record points at the replacement.
func (s *Service) Update(ctx context.Context, actor *model.User, id string, in UpdateInput) (*model.Song, error) {
	song, err := s.songs.GetByID(ctx, id)
	if err != nil {
		logger.Error("Failed to load song for update", logger.String("songId", id), logger.ErrorField(err))
		return nil, apperr.Internal("Error updating song", err)
	}
	if song == nil {
		return nil, ErrSongNotFound
	}

	lease := s.stage.Begin()
	defer lease.Rollback(ctx)

	if in.Cover != nil {
		cover, err := lease.Stage(ctx, s.image, *in.Cover)
		if err != nil {
			return nil, stagingError("Error updating song", err)
		}
		lease.Retire(song.CoverPath)
		song.CoverPath = cover.Path
	}

	if in.Title != nil {
		if v := strings.TrimSpace(*in.Title); v != "" {
			song.Title = v
		}
	}
	if in.Artist != nil {
		if v := strings.TrimSpace(*in.Artist); v != "" {
			song.Artist = v
		}
	}
	if in.Genre != nil {
		song.Genre = strings.TrimSpace(*in.Genre)
	}

	saved, err := s.songs.Save(ctx, song)
	if err != nil {
		logger.Error("Failed to save song", logger.String("songId", id), logger.ErrorField(err))
		return nil, apperr.Internal("Error updating song", err)
	}
	if !saved {
		// Deleted while we were staging; the rollback drops the new cover.
		logger.Warn("Song vanished during update", logger.String("songId", id))
		return nil, ErrSongNotFound
	}
	lease.Commit(ctx)
	s.cache.Invalidate(ctx)

	logger.Info("Song updated", logger.String("songId", id), logger.String("by", actorID(actor)))
	return song, nil
}

// Delete removes a song's files, retracts it from every user's favorites
// and finally deletes the record. A failure part way leaves the record in
// place so the delete can be retried.
func (s *Service) Delete(ctx context.Context, actor *model.User, id string) error {
	song, err := s.songs.GetByID(ctx, id)
	if err != nil {
		logger.Error("Failed to load song for delete", logger.String("songId", id), logger.ErrorField(err))
		return apperr.Internal("Error deleting song", err)
	}
	if song == nil {
		return ErrSongNotFound
	}

	if err := s.stage.Discard(ctx, song.AudioPath); err != nil {
		logger.Error("Failed to discard audio", logger.String("songId", id), logger.ErrorField(err))
		return apperr.Internal("Error deleting song", err)
	}
	if err := s.stage.Discard(ctx, song.CoverPath); err != nil {
		logger.Error("Failed to discard cover", logger.String("songId", id), logger.ErrorField(err))
		return apperr.Internal("Error deleting song", err)
	}

	retracted, err := s.favorites.RemoveSong(ctx, id)
	if err != nil {
		logger.Error("Failed to retract song from favorites", logger.String("songId", id), logger.ErrorField(err))
		return apperr.Internal("Error deleting song", err)
	}

	deleted, err := s.songs.Delete(ctx, id)
	if err != nil {
		logger.Error("Failed to delete song record", logger.String("songId", id), logger.ErrorField(err))
		return apperr.Internal("Error deleting song", err)
	}
	s.cache.Invalidate(ctx)
	if !deleted {
		// Lost a race with a concurrent delete.
		return ErrSongNotFound
	}

	logger.Info("Song deleted",
		logger.String("songId", id),
		logger.Int64("favoritesRetracted", retracted),
		logger.String("by", actorID(actor)))
	return nil
}

// ListAll returns every song, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*model.Song, error) {
	key := cache.AllSongsKey()
	songs, gen, ok := s.cache.GetList(ctx, key)
	if ok {
		return songs, nil
	}
	songs, err := s.songs.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Error fetching songs", err)
	}
	s.cache.SetList(ctx, key, gen, songs)
	return songs, nil
}

// Search returns songs whose title or artist contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) ([]*model.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}
	key := cache.SearchKey(query)
	songs, gen, ok := s.cache.GetList(ctx, key)
	if ok {
		return songs, nil
	}
	songs, err := s.songs.Search(ctx, query)
	if err != nil {
		return nil, apperr.Internal("Error searching songs", err)
	}
	s.cache.SetList(ctx, key, gen, songs)
	return songs, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Song, error) {
	song, err := s.songs.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Error fetching song", err)
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	return song, nil
}

// AdminList is ListAll with uploader details attached. It bypasses the cache.
func (s *Service) AdminList(ctx context.Context) ([]*model.Song, error) {
	songs, err := s.songs.ListWithUploader(ctx)
	if err != nil {
		return nil, apperr.Internal("Error fetching songs", err)
	}
	return songs, nil
}

// stagingError passes upload rejections through and wraps everything else.
func stagingError(message string, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidType, apperr.KindTooLarge, apperr.KindValidation:
		return err
	}
	logger.Error("Failed to stage upload", logger.ErrorField(err))
	return apperr.Internal(message, err)
}

func actorID(actor *model.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
