package server

import (
	"net/http"

	"musicapp/core/account"
)

// RegisterHandler creates a user account.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{
		"message": "User registered successfully",
		"token":   session.Token,
		"user":    session.User,
	})
}

// LoginHandler exchanges credentials for a session token.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req account.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Login successful",
		"token":   session.Token,
		"user":    session.User,
	})
}
