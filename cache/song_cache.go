package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"musicapp/logger"
	"musicapp/model"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

const (
	keyPrefix = "songs:"
	// Lives outside keyPrefix so Invalidate's scan never deletes it.
	generationKey = "songs-generation"
)

// Generation identifies a cache epoch. Invalidate starts a new one and a
// listing stored under an older generation is never served, so a read that
// raced a write cannot repopulate the cache with what it saw before.
type Generation uint64

// SongCache holds rendered song listings. It is a read-through cache only:
// a miss or a failure always falls back to the database.
type SongCache interface {
	// GetList returns the listing cached under key. On a miss it also
	// returns the generation to pass to SetList once the listing is loaded.
	GetList(ctx context.Context, key string) ([]*model.Song, Generation, bool)
	SetList(ctx context.Context, key string, gen Generation, songs []*model.Song)
	// Invalidate drops every cached listing.
	Invalidate(ctx context.Context)
}

// AllSongsKey is the key of the full catalog listing.
func AllSongsKey() string {
	return keyPrefix + "all"
}

// SearchKey is the key of a search listing. Queries are case-insensitive so
// the key is too.
func SearchKey(query string) string {
	return keyPrefix + "search:" + strings.ToLower(query)
}

// RedisSongCache stores listings as JSON strings with a TTL, each under a
// key suffixed with the generation it was loaded in.
type RedisSongCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSongCache(client *redis.Client, ttl time.Duration) *RedisSongCache {
	return &RedisSongCache{client: client, ttl: ttl}
}

func entryKey(key string, gen Generation) string {
	return key + "@" + strconv.FormatUint(uint64(gen), 10)
}

func (c *RedisSongCache) generation(ctx context.Context) (Generation, error) {
	gen, err := c.client.Get(ctx, generationKey).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	return Generation(gen), err
}

func (c *RedisSongCache) GetList(ctx context.Context, key string) ([]*model.Song, Generation, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		logger.Warn("Song cache read failed", logger.String("key", generationKey), logger.ErrorField(err))
		return nil, 0, false
	}

	data, err := c.client.Get(ctx, entryKey(key, gen)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Song cache read failed", logger.String("key", key), logger.ErrorField(err))
		}
		return nil, gen, false
	}

	var songs []*model.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		logger.Warn("Song cache entry is corrupt", logger.String("key", key), logger.ErrorField(err))
		return nil, gen, false
	}
	return songs, gen, true
}

func (c *RedisSongCache) SetList(ctx context.Context, key string, gen Generation, songs []*model.Song) {
	current, err := c.generation(ctx)
	if err != nil {
		logger.Warn("Song cache read failed", logger.String("key", generationKey), logger.ErrorField(err))
		return
	}
	if current != gen {
		logger.Debug("Dropping song listing from an old generation",
			logger.String("key", key),
			logger.Any("generation", gen),
			logger.Any("current", current))
		return
	}

	data, err := json.Marshal(songs)
	if err != nil {
		logger.Warn("Failed to encode song listing", logger.String("key", key), logger.ErrorField(err))
		return
	}
	if err := c.client.Set(ctx, entryKey(key, gen), data, c.ttl).Err(); err != nil {
		logger.Warn("Song cache write failed", logger.String("key", key), logger.ErrorField(err))
	}
}

// Invalidate starts a new generation, then deletes the listings of older
// ones so they do not linger until their TTL.
func (c *RedisSongCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		logger.Warn("Song cache invalidation failed", logger.ErrorField(err))
		return
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			logger.Warn("Song cache scan failed", logger.ErrorField(err))
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				logger.Warn("Song cache cleanup failed", logger.Int("keys", len(keys)), logger.ErrorField(err))
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) GetList(context.Context, string) ([]*model.Song, Generation, bool) {
	return nil, 0, false
}
func (NoopCache) SetList(context.Context, string, Generation, []*model.Song) {}
func (NoopCache) Invalidate(context.Context)                                 {}
