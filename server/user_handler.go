package server

import (
	"net/http"
)

// ProfileHandler returns the acting user's profile.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := actingUser(w, r)
	if !ok {
		return
	}

	profile, err := h.accounts.Profile(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"user": profile})
}
