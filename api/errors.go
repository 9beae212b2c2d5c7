package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/0glabs/storage-ops/history"
	"github.com/0glabs/storage-ops/storage"
)

var (
	// ErrBadRequest is returned when the provided HTTP request
	// is malformed.
	ErrBadRequest = errors.New("invalid request parameters")
	// ErrNotFound is returned for unknown routes.
	ErrNotFound = errors.New("not found")
)

// HumanReadableError is the JSON body of every error response.
type HumanReadableError struct {
	Msg string `json:"msg"`
}

func HttpCodeForError(err error) int {
	var conflict *storage.IndexConflictError
	var mismatch *storage.CapacityMismatchError
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, history.ErrUnavailableIndex):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &mismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// A simple error handler that renders any error as human-readable JSON to
// the HTTP response stream `w`.
func HumanReadableJsonErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("x-content-type-options", "nosniff")
	w.WriteHeader(HttpCodeForError(err))

	_ = json.NewEncoder(w).Encode(HumanReadableError{Msg: err.Error()})
}
