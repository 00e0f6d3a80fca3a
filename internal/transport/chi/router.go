package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/metrics"
)

// RouterOptions configures the cross-cutting middleware.
type RouterOptions struct {
	APIKeys           []string
	RequestsPerMinute int
}

// NewRouter mounts the API routes behind the standard middleware chain.
func NewRouter(s *Server, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(CorrelationID)
	r.Use(WideEvent(logger))
	r.Use(APIKeyAuth(opts.APIKeys))
	r.Use(RateLimit(opts.RequestsPerMinute))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/recommendations", s.PostRecommendations)
		r.Get("/recommendations", s.GetRecommendations)
		r.Get("/options", s.GetOptions)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	return r
}
