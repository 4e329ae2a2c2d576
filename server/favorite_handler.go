package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *APIHandler) ListFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	songs, err := h.favorites.List(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"count": len(songs), "songs": songs})
}

func (h *APIHandler) CheckFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	isFavorite, err := h.favorites.Check(r.Context(), user, mux.Vars(r)["songId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"isFavorite": isFavorite})
}

func (h *APIHandler) AddFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	ids, err := h.favorites.Add(r.Context(), user, mux.Vars(r)["songId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Song added to favorites", "favorites": ids})
}

func (h *APIHandler) RemoveFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}
	ids, err := h.favorites.Remove(r.Context(), user, mux.Vars(r)["songId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Song removed from favorites", "favorites": ids})
}
