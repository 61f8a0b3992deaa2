package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/metrics"
)

// RouterConfig carries the identity settings for the owner middleware.
type RouterConfig struct {
	JWTSecret  string
	CookieName string
}

// NewRouter mounts every route of s behind the standard middleware stack.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Use(OwnerMiddleware(cfg.JWTSecret, cfg.CookieName))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/candidates", func(r chi.Router) {
			r.Post("/", s.RegisterCandidate)
			r.Get("/{id}", s.GetCandidate)
			r.Put("/{id}", s.UpdateCandidate)
			r.Delete("/{id}", s.DeleteCandidate)
			r.Get("/{id}/vectors", s.GetCandidateVectors)
			r.Get("/{id}/summary", s.GetCandidateSummary)
		})
		r.Get("/candidate/relevant-projects", s.RelevantProjects)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.CreateProject)
			r.Get("/mine", s.ListMyProjects)
			r.Get("/{id}", s.GetProject)
			r.Put("/{id}", s.UpdateProject)
			r.Delete("/{id}", s.DeleteProject)
			r.Post("/{id}/ranked-candidates", s.RankCandidatesForProject)
		})
		r.Post("/ranked-candidates", s.RankCandidates)
	})
	return r
}
