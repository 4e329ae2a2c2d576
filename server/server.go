package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"musicapp/cache"
	"musicapp/config"
	"musicapp/core/account"
	"musicapp/core/auth"
	"musicapp/core/catalog"
	"musicapp/core/favorites"
	"musicapp/db"
	"musicapp/logger"
	"musicapp/model"
	"musicapp/repository"
	"musicapp/storage"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// App holds the services behind the API and the resources they own.
type App struct {
	Accounts  *account.Service
	Catalog   *catalog.Service
	Favorites *favorites.Service
	Backend   storage.Backend

	db    *gorm.DB
	redis *redis.Client
}

// Bootstrap connects the database, the storage backend and, when enabled,
// the Redis cache, and builds the services on top of them.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	gdb, err := db.Connect(cfg)
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		db.CloseGormDB(gdb)
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	app := &App{Backend: backend, db: gdb}

	var songCache cache.SongCache = cache.NoopCache{}
	if cfg.CacheEnabled {
		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			logger.Warn("Song cache disabled, Redis unavailable", logger.ErrorField(err))
		} else {
			logger.Info("Song cache enabled",
				logger.String("redis", cfg.RedisHost+":"+cfg.RedisPort),
				logger.Duration("ttl", cfg.CacheTTL))
			app.redis = client
			songCache = cache.NewRedisSongCache(client, cfg.CacheTTL)
		}
	}

	users := repository.NewGormUserRepository(gdb)
	songs := repository.NewGormSongRepository(gdb)
	favs := repository.NewGormFavoriteRepository(gdb)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)

	app.Accounts = account.NewService(users, favs, tokens, auth.NewPasswordHasher(cfg.BcryptCost))
	app.Catalog = catalog.NewService(songs, favs, storage.NewStage(backend), songCache)
	app.Favorites = favorites.NewService(songs, favs)
	return app, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("Failed to close Redis", logger.ErrorField(err))
		}
	}
	if err := db.CloseGormDB(a.db); err != nil {
		logger.Warn("Failed to close database", logger.ErrorField(err))
	}
}

// NewRouter builds the HTTP routes. Protected routes run behind
// authenticate, admin routes additionally behind requireRole.
func NewRouter(app *App, cfg *config.Config) *mux.Router {
	h := NewAPIHandler(app.Accounts, app.Catalog, app.Favorites, cfg)

	router := mux.NewRouter()
	router.Use(recovery, requestLogging, cors(cfg.CORSAllowedOrigin))

	// Preflight requests never reach a handler, but the route must exist for
	// the middleware chain to run.
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.LoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/songs", h.ListSongsHandler).Methods(http.MethodGet)
	api.HandleFunc("/songs/search", h.SearchSongsHandler).Methods(http.MethodGet)
	api.HandleFunc("/songs/{id}", h.GetSongHandler).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.authenticate, requireRole(model.RoleAdmin))
	admin.HandleFunc("/songs", h.AdminListSongsHandler).Methods(http.MethodGet)
	admin.HandleFunc("/songs/upload", h.UploadSongHandler).Methods(http.MethodPost)
	admin.HandleFunc("/songs/{id}", h.UpdateSongHandler).Methods(http.MethodPut)
	admin.HandleFunc("/songs/{id}", h.DeleteSongHandler).Methods(http.MethodDelete)

	user := api.NewRoute().Subrouter()
	user.Use(h.authenticate)
	user.HandleFunc("/profile", h.ProfileHandler).Methods(http.MethodGet)
	user.HandleFunc("/favorites", h.ListFavoritesHandler).Methods(http.MethodGet)
	user.HandleFunc("/favorites/check/{songId}", h.CheckFavoriteHandler).Methods(http.MethodGet)
	user.HandleFunc("/favorites/{songId}", h.AddFavoriteHandler).Methods(http.MethodPost)
	user.HandleFunc("/favorites/{songId}", h.RemoveFavoriteHandler).Methods(http.MethodDelete)

	router.Handle(storage.PublicPrefix+"/{dir}/{name}", NewStaticHandler(app.Backend)).Methods(http.MethodGet, http.MethodHead)

	// Client shell
	router.PathPrefix("/admin/").Handler(http.StripPrefix("/admin/", http.FileServer(http.Dir(cfg.AdminDir)))).Methods(http.MethodGet, http.MethodHead)
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.WebDir))).Methods(http.MethodGet, http.MethodHead)

	return router
}

// Start runs the HTTP server until SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	app, err := Bootstrap(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      NewRouter(app, cfg),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logger.String("addr", server.Addr),
			logger.String("storage", cfg.StorageDriver),
			logger.String("db", cfg.DBDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-stop:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
