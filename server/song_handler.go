package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"count": len(songs), "songs": songs})
}

func (h *APIHandler) SearchSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"count": len(songs), "songs": songs})
}

func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	song, err := h.catalog.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"song": song})
}
