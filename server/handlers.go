package server

import (
	"net/http"

	"musicapp/config"
	"musicapp/core/account"
	"musicapp/core/apperr"
	"musicapp/core/catalog"
	"musicapp/core/favorites"
	"musicapp/model"
)

// APIHandler serves the JSON API.
type APIHandler struct {
	accounts  *account.Service
	catalog   *catalog.Service
	favorites *favorites.Service
	cfg       *config.Config
}

func NewAPIHandler(accounts *account.Service, catalog *catalog.Service, favorites *favorites.Service, cfg *config.Config) *APIHandler {
	return &APIHandler{
		accounts:  accounts,
		catalog:   catalog,
		favorites: favorites,
		cfg:       cfg,
	}
}

// actingUser returns the user placed in the context by authenticate.
func actingUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("No token provided. Access denied."))
	}
	return user, ok
}
