// internal/app/features/pieces/handler.go
package pieces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	piecestore "github.com/dalemusser/kilntrack/internal/app/store/pieces"
	"github.com/dalemusser/kilntrack/internal/app/system/lifecycle"
	"github.com/dalemusser/kilntrack/internal/app/system/ratelimit"
	"github.com/dalemusser/kilntrack/internal/app/system/timeouts"
	"github.com/dalemusser/kilntrack/internal/app/system/urgency"
	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the piece endpoints and the staged-action endpoints.
type Handler struct {
	Store     piecestore.Store
	Lifecycle *lifecycle.Controller
	Limiter   *ratelimit.Limiter
	Log       *zap.Logger

	now func() time.Time
}

// NewHandler constructs a pieces Handler. limiter may be nil to disable rate
// limiting.
func NewHandler(store piecestore.Store, lc *lifecycle.Controller, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{
		Store:     store,
		Lifecycle: lc,
		Limiter:   limiter,
		Log:       logger,
		now:       time.Now,
	}
}

// ServeList handles GET /pieces[?userEmail=].
//
// Only pending pieces are listed. Once a piece is fired it leaves this list
// and appears in GET /pieces/fired instead.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Store.List(ctx, strings.TrimSpace(r.URL.Query().Get("userEmail")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ServeFired handles GET /pieces/fired[?userEmail=].
func (h *Handler) ServeFired(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Store.ListFired(ctx, strings.TrimSpace(r.URL.Query().Get("userEmail")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ServeCreate handles POST /pieces. The piece is created immediately.
//
// 201 with the created piece, or 400 and {"error": "..."}.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Lifecycle.Submit(ctx, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ServeStageSubmission handles POST /pieces/submissions. The submission is
// validated and staged; nothing is stored until it is approved.
func (h *Handler) ServeStageSubmission(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	a, err := h.Lifecycle.StageSubmission(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, a)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (models.PieceInput, bool) {
	var req pieceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return models.PieceInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		h.writeError(w, r, err)
		return models.PieceInput{}, false
	}
	return in, true
}

// ServeGet handles GET /pieces/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pieceID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Store.Get(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ServeStageFire handles POST /pieces/{id}/fire. 202 with the staged action.
func (h *Handler) ServeStageFire(w http.ResponseWriter, r *http.Request) {
	id, ok := pieceID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Lifecycle.StageFire(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, a)
}

func pieceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "id: must be a positive integer")
		return 0, false
	}
	return id, true
}

// ServeQueue handles GET /pieces/queue[?firingType=&priority=&sort=].
// Pending pieces are decorated with their urgency, computed at request time.
func (h *Handler) ServeQueue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sortKey := strings.TrimSpace(q.Get("sort"))
	if sortKey == "" {
		sortKey = urgency.SortByDate
	}
	if !urgency.IsValidSort(sortKey) {
		h.writeError(w, r, &errs.ValidationError{Field: "sort", Message: "must be date, urgency or created"})
		return
	}
	firingType := filterValue(q.Get("firingType"))
	priority := filterValue(q.Get("priority"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Store.List(ctx, "")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filtered := make([]models.Piece, 0, len(list))
	for _, p := range list {
		if firingType != "" && text.Fold(p.FiringType) != firingType {
			continue
		}
		if priority != "" && text.Fold(p.Priority) != priority {
			continue
		}
		filtered = append(filtered, p)
	}

	entries := urgency.Decorate(filtered, h.now())
	urgency.SortQueue(entries, sortKey)
	writeJSON(w, http.StatusOK, entries)
}

// filterValue folds a queue filter for case- and accent-insensitive matching.
// "Tous" (all) disables the filter.
func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, allFilter) {
		return ""
	}
	return text.Fold(v)
}

// ServeStats handles GET /pieces/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pending, err := h.Store.List(ctx, "")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	fired, err := h.Store.ListFired(ctx, "")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	counts := urgency.Tally(urgency.Decorate(pending, h.now()))
	writeJSON(w, http.StatusOK, statsResponse{
		Pending: len(pending),
		Fired:   len(fired),
		Urgent:  counts.Urgent,
		Soon:    counts.Soon,
		OK:      counts.OK,
	})
}

// ServeAction handles GET /actions/{token}.
func (h *Handler) ServeAction(w http.ResponseWriter, r *http.Request) {
	a, err := h.Lifecycle.Pending(chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ServeApprove handles POST /actions/{token}/approve. 200 with the resulting
// piece.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Lifecycle.Approve(ctx, chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ServeCancel handles POST /actions/{token}/cancel. 204 on success.
func (h *Handler) ServeCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.Lifecycle.Cancel(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rateLimited reports the client's remaining budget in X-RateLimit-Remaining
// and answers 429 once it is spent. A disabled limiter sets no headers.
func (h *Handler) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil || h.Limiter.Limit() <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ip := ratelimit.ClientIP(r)
		allowed := h.Limiter.Allow(ip)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.Limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(h.Limiter.Remaining(ip)))
		if !allowed {
			h.Log.Warn("submission rate limited", zap.String("ip", ip))
			writeMessage(w, http.StatusTooManyRequests, "too many submissions, please wait before trying again")
			return
		}
		next.ServeHTTP(w, r)
	})
}
