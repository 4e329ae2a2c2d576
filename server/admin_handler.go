package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"musicapp/core/apperr"
	"musicapp/core/catalog"
	"musicapp/logger"
	"musicapp/storage"

	"github.com/gorilla/mux"
)

const (
	// Multipart parts above this size spill to temp files.
	multipartMemory       = 8 << 20
	defaultMaxUploadBytes = 16 << 20
)

// parseMultipart parses a bounded multipart body. The caller must call the
// returned cleanup function.
func (h *APIHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (func(), error) {
	limit := h.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.New(apperr.KindTooLarge, "Request body too large")
		}
		return nil, apperr.Validation("Invalid multipart form")
	}
	return func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("Failed to remove multipart temp files", logger.ErrorField(err))
		}
	}, nil
}

// formUpload returns the file part named field, or nil when absent.
func formUpload(r *http.Request, field string) (*storage.Upload, io.Closer, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, apperr.Validation("Invalid " + field + " upload")
	}
	return uploadFrom(file, header), file, nil
}

func uploadFrom(file multipart.File, header *multipart.FileHeader) *storage.Upload {
	return &storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}

// formValue returns a pointer to the named text field, or nil when the
// field was not sent at all.
func formValue(r *http.Request, field string) *string {
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		if c != nil {
			c.Close()
		}
	}
}

// AdminListSongsHandler lists songs with their uploader.
func (h *APIHandler) AdminListSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.AdminList(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"count": len(songs), "songs": songs})
}

// UploadSongHandler creates a song from a multipart form with an "audio"
// file and an optional "coverImage" file.
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	cleanup, err := h.parseMultipart(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	audio, audioFile, err := formUpload(r, "audio")
	if err != nil {
		writeError(w, r, err)
		return
	}
	cover, coverFile, err := formUpload(r, "coverImage")
	if err != nil {
		closeAll(audioFile)
		writeError(w, r, err)
		return
	}
	defer closeAll(audioFile, coverFile)

	song, err := h.catalog.Create(r.Context(), user, catalog.CreateInput{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
		Genre:  r.FormValue("genre"),
		Audio:  audio,
		Cover:  cover,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, envelope{"message": "Song uploaded successfully", "song": song})
}

// UpdateSongHandler applies a partial update from a multipart form.
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	cleanup, err := h.parseMultipart(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	cover, coverFile, err := formUpload(r, "coverImage")
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeAll(coverFile)

	song, err := h.catalog.Update(r.Context(), user, mux.Vars(r)["id"], catalog.UpdateInput{
		Title:  formValue(r, "title"),
		Artist: formValue(r, "artist"),
		Genre:  formValue(r, "genre"),
		Cover:  cover,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Song updated successfully", "song": song})
}

func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Delete(r.Context(), user, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Song deleted successfully"})
}
