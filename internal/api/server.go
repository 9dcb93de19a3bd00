// Package api exposes the workflow store and engine over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/floworkhq/flowork/pkg/flowork"
	"github.com/floworkhq/flowork/pkg/flowork/storage"
)

// Server routes workflow CRUD and execution requests.
type Server struct {
	store     storage.Store
	templates *storage.Catalog
	cache     *flowork.GraphCache
	logger    *slog.Logger
}

// NewServer assembles the API server. templates may be nil, in which
// case the template routes serve an empty catalog.
func NewServer(store storage.Store, templates *storage.Catalog, cache *flowork.GraphCache, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if templates == nil {
		templates, _ = storage.NewCatalog("")
	}
	return &Server{
		store:     store,
		templates: templates,
		cache:     cache,
		logger:    logger,
	}
}

// Handler builds the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/workflows", func(r chi.Router) {
			r.Get("/", s.handleListWorkflows)
			r.Post("/", s.handleCreateWorkflow)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetWorkflow)
				r.Put("/", s.handleUpdateWorkflow)
				r.Delete("/", s.handleDeleteWorkflow)
				r.Post("/execute", s.handleExecuteWorkflow)
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Get("/{id}", s.handleGetTemplate)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// storeError maps storage misses to 404 and everything else to 500.
func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrTemplateNotFound) {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	s.logger.Error(op+" failed", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal error")
}
