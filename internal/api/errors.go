package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/chunkgrid/internal/chunkmodel"
	"github.com/dgallion1/chunkgrid/internal/chunktree"
)

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps grid errors to HTTP status codes.
func statusFor(err error) int {
	var merr *chunkmodel.MaterializationError
	switch {
	case errors.Is(err, chunktree.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, chunktree.ErrInvalidSize):
		return http.StatusBadRequest
	case errors.As(err, &merr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chunkmodel.ErrNotBuilt):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func gridError(w http.ResponseWriter, err error) {
	jsonError(w, err.Error(), statusFor(err))
}
