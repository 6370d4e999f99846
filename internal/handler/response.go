package handler

// RESPONSE HELPERS:
// Every JSON response goes through writeJSON and every failure through
// writeError, so all endpoints share one error shape:
//
//	{"error": "title is required", "fields": {"title": "title is required"}}
//
// "fields" is only present for validation failures.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/auth"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/service"
)

// maxBodyBytes caps JSON request bodies. A story is at most 10,000
// characters, so 1 MiB leaves plenty of room.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeJSON sets headers and status before the body; headers changed after
// the first Write are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps the apperror taxonomy to HTTP. Anything unrecognised is a
// persistence failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError translates a service error into a JSON error response. Internal
// error text never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := ErrorResponse{Error: appErr.Message}
	if len(appErr.Fields) > 0 {
		resp.Fields = appErr.Fields
	}
	writeJSON(w, statusFor(err), resp)
}

// decodeJSON reads a size-limited JSON body into dst. On failure it writes a
// 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

// currentUser maps the session identity on the request to a stored user.
func currentUser(r *http.Request, guard *service.Guard) (*model.User, error) {
	id, _ := auth.IdentityFromContext(r.Context())
	return guard.ResolvePrincipal(r.Context(), id)
}
