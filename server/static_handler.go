package server

import (
	"errors"
	"io"
	"net/http"
	"path"

	"musicapp/logger"
	"musicapp/storage"
)

// StaticHandler serves stored uploads from the active storage backend.
type StaticHandler struct {
	backend storage.Backend
}

func NewStaticHandler(backend storage.Backend) *StaticHandler {
	return &StaticHandler{backend: backend}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, err := storage.KeyForPath(r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	object, info, err := h.backend.Open(r.Context(), key)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			logger.Error("Error opening stored file", logger.String("key", key), logger.ErrorField(err))
		}
		http.NotFound(w, r)
		return
	}
	defer object.Close()

	contentType := info.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentTypeFor(key)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	// Seekable objects get Range support, which audio players rely on.
	if rs, ok := object.(io.ReadSeeker); ok {
		http.ServeContent(w, r, path.Base(key), info.LastModified, rs)
		return
	}
	if _, err := io.Copy(w, object); err != nil {
		logger.Error("Error serving stored file", logger.String("key", key), logger.ErrorField(err))
	}
}
