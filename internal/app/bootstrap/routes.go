// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	healthfeature "github.com/dalemusser/kilntrack/internal/app/features/health"
	piecesfeature "github.com/dalemusser/kilntrack/internal/app/features/pieces"
	"github.com/dalemusser/kilntrack/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. The router serves:
//   - /health   store reachability and staged-action count
//   - /pieces   piece listing, queue, stats and staging of submissions and firings
//   - /actions  approval and cancellation of staged actions
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	s := deps.services
	if s == nil || s.lifecycle == nil {
		return nil, fmt.Errorf("build handler: Startup has not run")
	}

	r := chi.NewRouter()

	// Client IP and user agent for audit events.
	r.Use(auditlog.Middleware)

	healthHandler := healthfeature.NewHandler(deps.Pieces, deps.Backend, s.lifecycle.StagedCount, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	piecesHandler := piecesfeature.NewHandler(deps.Pieces, s.lifecycle, s.limiter, logger)
	r.Mount("/pieces", piecesfeature.Routes(piecesHandler))
	r.Mount("/actions", piecesfeature.ActionRoutes(piecesHandler))

	return r, nil
}
