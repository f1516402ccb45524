package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kredexa/lending-engine/internal/application/usecase"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps use-case errors onto HTTP statuses. Unclassified
// errors are reported as server faults without leaking internals.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, port.ErrNotFound), errors.Is(err, model.ErrNoActiveFees):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, port.ErrDuplicateRun):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, valueobject.ErrInvalidStatusTransition), errors.Is(err, model.ErrInvalidFeePolicy):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
