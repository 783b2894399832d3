// Package api exposes sectioning over HTTP: a synchronous endpoint, an
// async job queue and the published document store.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/docsection/internal/config"
	"github.com/dgallion1/docsection/internal/pipeline"
	"github.com/dgallion1/docsection/internal/sectionize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docsection.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
	defaults     sectionize.Options
}

// NewServer creates and configures the HTTP server. cfg must already have
// passed Validate.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	defaults, err := cfg.SectionizeOptions()
	if err != nil {
		defaults = sectionize.DefaultOptions()
	}
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
		defaults:     defaults,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey))

		r.Post("/api/sectionize", s.handleSectionize)

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/result", s.handleJobResult)

		r.Get("/api/documents", s.handleListDocuments)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"publishing": s.orchestrator.PathstoreClient() != nil,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
