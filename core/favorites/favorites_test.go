package favorites

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"musicapp/core/apperr"
	"musicapp/db"
	"musicapp/model"
	"musicapp/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func setup(t *testing.T) (*Service, repository.SongRepository) {
	t.Helper()
	gdb, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "favorites.db"), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateModels(gdb))
	t.Cleanup(func() { db.CloseGormDB(gdb) })

	songs := repository.NewGormSongRepository(gdb)
	return NewService(songs, repository.NewGormFavoriteRepository(gdb)), songs
}

func addSong(t *testing.T, songs repository.SongRepository, title string, at time.Time) *model.Song {
	t.Helper()
	song := &model.Song{Title: title, Artist: "A", AudioPath: "/uploads/audio/" + title + ".mp3", CoverPath: "/uploads/images/default-cover.jpg", CreatedAt: at}
	require.NoError(t, songs.Create(context.Background(), song))
	return song
}

func TestFavorites(t *testing.T) {
	svc, songs := setup(t)
	ctx := context.Background()
	user := &model.User{ID: "user-1"}
	other := &model.User{ID: "user-2"}

	now := time.Now()
	older := addSong(t, songs, "Older", now)
	newer := addSong(t, songs, "Newer", now.Add(time.Minute))

	ids, err := svc.Add(ctx, user, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID}, ids)

	ids, err = svc.Add(ctx, user, older.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, older.ID}, ids)

	_, err = svc.Add(ctx, user, older.ID)
	assert.ErrorIs(t, err, ErrAlreadyFavorited)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.Add(ctx, user, "missing")
	assert.ErrorIs(t, err, ErrSongNotFound)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Newer", list[0].Title, "insertion order")
	assert.Equal(t, "Older", list[1].Title)

	ok, err := svc.Check(ctx, user, older.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Check(ctx, other, older.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err = svc.Remove(ctx, user, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{older.ID}, ids)

	_, err = svc.Remove(ctx, user, newer.ID)
	assert.ErrorIs(t, err, ErrNotFavorited)
	_, err = svc.Remove(ctx, other, older.ID)
	assert.ErrorIs(t, err, ErrNotFavorited)
}
