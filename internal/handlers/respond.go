package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nkamath/calshare/internal/model"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeDomainError maps domain failures onto HTTP statuses. Unknown
// errors become an opaque 500 so driver details never reach clients.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case model.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrSlotConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: model.ErrSlotConflict.Error()})
	case errors.Is(err, model.ErrInvalidState):
		writeJSON(w, http.StatusConflict, errorResponse{Error: model.ErrInvalidState.Error()})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, model.ErrInvalidTime), errors.Is(err, model.ErrInvalidConfig):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case model.IsTransaction(err):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "temporarily unavailable, retry"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
