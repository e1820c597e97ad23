// internal/app/features/pieces/routes.go
package pieces

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the piece endpoints (mounted under /pieces).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.With(h.rateLimited).Post("/", h.ServeCreate)
	r.With(h.rateLimited).Post("/submissions", h.ServeStageSubmission)
	r.Get("/fired", h.ServeFired)
	r.Get("/queue", h.ServeQueue)
	r.Get("/stats", h.ServeStats)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/fire", h.ServeStageFire)
	return r
}

// ActionRoutes returns a subrouter for the confirmation gate (mounted under
// /actions).
func ActionRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{token}", h.ServeAction)
	r.Post("/{token}/approve", h.ServeApprove)
	r.Post("/{token}/cancel", h.ServeCancel)
	return r
}
