package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"stickygoals/internal/apperr"
	"stickygoals/internal/middleware"
)

type okResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError converts err at the route boundary. Errors without a kind are
// logged and reported as a generic internal error.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, statusFor(kind), map[string]string{"error": apperr.Message(err)})
}

// decodeBody reads a JSON body into v. An empty body leaves v zeroed so the
// service can report which fields are missing.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Invalid("invalid body")
	}
	return nil
}

func userID(r *http.Request) (string, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return "", apperr.Unauthorized("missing user")
	}
	return id, nil
}
