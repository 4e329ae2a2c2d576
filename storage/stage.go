package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"musicapp/core/apperr"
	"musicapp/logger"
)

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/uploads"

// DefaultCoverPath is the shared placeholder cover. It is never staged and
// never discarded.
const DefaultCoverPath = PublicPrefix + "/images/default-cover.jpg"

// Bucket describes one category of uploaded file.
type Bucket struct {
	Name         string
	Dir          string
	Prefix       string
	MaxSize      int64
	AllowedTypes []string
	typeError    string
	sizeLabel    string
}

var (
	AudioBucket = Bucket{
		Name:         "audio",
		Dir:          "audio",
		Prefix:       "audio",
		MaxSize:      10 << 20,
		AllowedTypes: []string{"audio/mpeg", "audio/mp3", "audio/wav", "audio/ogg"},
		typeError:    "Invalid audio file type. Only MP3, WAV, and OGG files are allowed.",
		sizeLabel:    "10 MB",
	}
	ImageBucket = Bucket{
		Name:         "image",
		Dir:          "images",
		Prefix:       "image",
		MaxSize:      5 << 20,
		AllowedTypes: []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"},
		typeError:    "Invalid image file type. Only JPEG, PNG, GIF, and WebP images are allowed.",
		sizeLabel:    "5 MB",
	}
)

// Buckets lists every bucket the stage manages.
var Buckets = []Bucket{AudioBucket, ImageBucket}

// Accepts reports whether contentType is allowed in b.
func (b Bucket) Accepts(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, allowed := range b.AllowedTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}

// WithLimit returns a copy of b with a lower size cap. Limits above the
// bucket's own cap are ignored.
func (b Bucket) WithLimit(limit int64) Bucket {
	if limit > 0 && limit < b.MaxSize {
		b.MaxSize = limit
		b.sizeLabel = fmt.Sprintf("%d bytes", limit)
	}
	return b
}

// Upload is a file received from a client, not yet stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredFile is a file persisted by the stage.
type StoredFile struct {
	Bucket string
	Name   string
	Key    string
	Path   string
	Size   int64
}

// Stage validates uploads and stores them under generated unique names.
type Stage struct {
	backend Backend
	names   *namer
}

func NewStage(backend Backend) *Stage {
	return &Stage{backend: backend, names: &namer{}}
}

func (s *Stage) Backend() Backend {
	return s.backend
}

// Begin opens a lease that tracks the files staged and retired by one
// operation.
func (s *Stage) Begin() *Lease {
	return &Lease{stage: s}
}

// Store validates up against bucket and writes it to the backend. Nothing is
// left behind when it fails.
func (s *Stage) Store(ctx context.Context, bucket Bucket, up Upload) (*StoredFile, error) {
	if !bucket.Accepts(up.ContentType) {
		return nil, apperr.New(apperr.KindInvalidType, bucket.typeError)
	}
	if up.Size > bucket.MaxSize {
		return nil, tooLarge(bucket)
	}
	if up.Body == nil {
		return nil, apperr.Validation("No file uploaded")
	}

	name := s.names.next(bucket.Prefix, extension(up.Filename, up.ContentType))
	key := bucket.Dir + "/" + name

	size := int64(-1)
	if up.Size > 0 {
		size = up.Size
	}
	body := &io.LimitedReader{R: up.Body, N: bucket.MaxSize + 1}
	n, err := s.backend.Put(ctx, key, body, size, up.ContentType)
	if err != nil {
		return nil, apperr.Internal("Error storing file", err)
	}
	if n > bucket.MaxSize {
		if rmErr := s.backend.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			logger.Warn("Failed to remove oversized upload", logger.String("key", key), logger.ErrorField(rmErr))
		}
		return nil, tooLarge(bucket)
	}

	logger.Debug("Stored upload",
		logger.String("bucket", bucket.Name),
		logger.String("key", key),
		logger.Int64("size", n))

	return &StoredFile{
		Bucket: bucket.Name,
		Name:   name,
		Key:    key,
		Path:   PathForKey(key),
		Size:   n,
	}, nil
}

// Discard removes the file behind a public path. Missing files and the
// default cover are ignored.
func (s *Stage) Discard(ctx context.Context, publicPath string) error {
	if publicPath == "" || IsDefaultCover(publicPath) {
		return nil
	}
	key, err := KeyForPath(publicPath)
	if err != nil {
		// The stage never stores a file under such a path, so there is
		// nothing to remove. Touching it could escape the upload tree.
		logger.Warn("Skipping discard of path outside the upload tree", logger.String("path", publicPath))
		return nil
	}
	if err := s.backend.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to discard %s: %w", publicPath, err)
	}
	return nil
}

// Exists reports whether the file behind a public path is stored.
func (s *Stage) Exists(ctx context.Context, publicPath string) (bool, error) {
	key, err := KeyForPath(publicPath)
	if err != nil {
		return false, nil
	}
	return s.backend.Exists(ctx, key)
}

func tooLarge(b Bucket) error {
	return apperr.New(apperr.KindTooLarge, fmt.Sprintf("File too large. Maximum size for %s is %s.", b.Name, b.sizeLabel))
}

// PathForKey turns a backend key into its public path.
func PathForKey(key string) string {
	return PublicPrefix + "/" + key
}

var errInvalidPath = errors.New("invalid upload path")

// KeyForPath turns a public path into a backend key. Only paths of the form
// /uploads/<bucket dir>/<name> are accepted.
func KeyForPath(publicPath string) (string, error) {
	rest, ok := strings.CutPrefix(publicPath, PublicPrefix+"/")
	if !ok {
		return "", fmt.Errorf("%w: %q", errInvalidPath, publicPath)
	}
	dir, name, ok := strings.Cut(rest, "/")
	if !ok || name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") || path.Clean(name) != name {
		return "", fmt.Errorf("%w: %q", errInvalidPath, publicPath)
	}
	for _, b := range Buckets {
		if b.Dir == dir {
			return dir + "/" + name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", errInvalidPath, publicPath)
}

func IsDefaultCover(publicPath string) bool {
	return publicPath == DefaultCoverPath
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

var typeExtensions = map[string]string{
	"audio/mpeg": ".mp3",
	"audio/mp3":  ".mp3",
	"audio/wav":  ".wav",
	"audio/ogg":  ".ogg",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// extension keeps the client's extension when it is sane, otherwise derives
// one from the content type.
func extension(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if extPattern.MatchString(ext) {
		return ext
	}
	return typeExtensions[strings.ToLower(contentType)]
}

// ContentTypeFor guesses the content type of a stored key from its extension.
func ContentTypeFor(key string) string {
	ext := strings.ToLower(path.Ext(key))
	for ct, e := range typeExtensions {
		if e == ext && !strings.Contains(ct, "/mp3") && ct != "image/jpg" {
			return ct
		}
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// namer issues <prefix>-<millis>-<random><ext> names. Millis strictly
// increase within a process so two names never share a timestamp.
type namer struct {
	mu   sync.Mutex
	last int64
}

func (n *namer) next(prefix, ext string) string {
	n.mu.Lock()
	ms := time.Now().UnixMilli()
	if ms <= n.last {
		ms = n.last + 1
	}
	n.last = ms
	n.mu.Unlock()

	return fmt.Sprintf("%s-%d-%d%s", prefix, ms, rand.Int64N(1_000_000_000), ext)
}
