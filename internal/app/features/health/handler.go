package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/kilntrack/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pinger reports whether the piece store backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Store   Pinger
	Backend string
	Staged  func() int
	Log     *zap.Logger
}

// NewHandler constructs a health Handler. staged may be nil.
func NewHandler(store Pinger, backend string, staged func() int, logger *zap.Logger) *Handler {
	return &Handler{
		Store:   store,
		Backend: backend,
		Staged:  staged,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status        string `json:"status"`
	Store         string `json:"store"`
	Backend       string `json:"backend"`
	StagedActions *int   `json:"staged_actions,omitempty"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "store":"connected", "backend":"memory", "staged_actions":0 }
//
// On store failure: 503 and
//
//	{ "status":"error", "store":"disconnected", "message":"Store unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:  "ok",
		Store:   "connected",
		Backend: h.Backend,
	}

	if err := h.Store.Ping(ctx); err != nil {
		h.Log.Error("health-check: store ping failed", zap.String("backend", h.Backend), zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Store = "disconnected"
		resp.Message = "Store unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Staged != nil {
		n := h.Staged()
		resp.StagedActions = &n
	}

	_ = json.NewEncoder(w).Encode(resp)
}
