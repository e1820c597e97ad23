// internal/app/features/pieces/respond.go
package pieces

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps domain errors to status codes:
// validation 400, not found 404, anything else 500 (logged).
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		h.Log.Error("pieces: internal error", zap.String("path", r.URL.Path), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
