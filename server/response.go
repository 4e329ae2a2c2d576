package server

import (
	"errors"
	"io"
	"net/http"

	"musicapp/core/apperr"
	"musicapp/logger"

	"github.com/goccy/go-json"
)

const maxJSONBodyBytes = 1 << 20

// envelope is the body of every API response.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", logger.ErrorField(err))
	}
}

func writeSuccess(w http.ResponseWriter, status int, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	writeJSON(w, status, body)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict, apperr.KindInvalidType, apperr.KindTooLarge:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a status and a {success:false} body. Internal
// errors also carry the underlying cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	body := envelope{
		"success": false,
		"message": apperr.MessageOf(err),
	}
	if kind == apperr.KindInternal {
		body["error"] = apperr.Cause(err)
		logger.Error("Request failed",
			logger.String("requestId", requestIDFrom(r.Context())),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
	}
	writeJSON(w, statusFor(kind), body)
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.New(apperr.KindTooLarge, "Request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Validation("Invalid request body")
	}
	return nil
}
