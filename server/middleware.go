package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"musicapp/core/apperr"
	"musicapp/core/auth"
	"musicapp/logger"
	"musicapp/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey int

const (
	userKey contextKey = iota
	requestIDKey
)

// UserFromContext returns the authenticated user of a request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// requestLogging tags each request with an id and logs its outcome.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		fields := []logger.Field{
			logger.String("requestId", id),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Int("bytes", rec.bytes),
			logger.Duration("duration", time.Since(start)),
		}
		switch {
		case rec.status >= 500:
			logger.Error("HTTP request", fields...)
		case rec.status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	})
}

// recovery turns a handler panic into a 500 response.
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Handler panicked",
					logger.Any("panic", rec),
					logger.String("path", r.URL.Path),
					logger.String("stack", string(debug.Stack())))
				writeJSON(w, http.StatusInternalServerError, envelope{
					"success": false,
					"message": "Internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func cors(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range, X-Request-ID")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>"
// header. It returns "" when there is none.
func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// authenticate resolves the acting user and stores it in the request context.
func (h *APIHandler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.accounts.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// requireRole must run after authenticate.
func requireRole(role string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, r, apperr.Unauthorized("No token provided. Access denied."))
				return
			}
			if err := auth.RequireRole(user, role); err != nil {
				logger.Warn("Role check failed",
					logger.String("userId", user.ID),
					logger.String("required", role),
					logger.String("path", r.URL.Path))
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
