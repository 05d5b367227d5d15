// Package server exposes the todo, tag, and category services over a
// JSON REST API.
package server

import (
	"fmt"
	"net"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"taskboard/internal/query"
	"taskboard/internal/relation"
	"taskboard/internal/store"
)

// Server routes HTTP requests to the injected store and services.
type Server struct {
	store    store.Store
	query    *query.Service
	relation *relation.Service
	logger   *log.Logger
	router   chi.Router
}

// New builds a Server with its full middleware chain and route table.
func New(st store.Store, logger *log.Logger) *Server {
	s := &Server{
		store:    st,
		query:    query.NewService(st),
		relation: relation.NewService(st),
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/todos", func(r chi.Router) {
			r.Get("/", s.handleListTodos)
			r.Post("/", s.handleCreateTodo)
			r.Get("/search", s.handleSearchTodos)
			r.Get("/filter", s.handleFilterTodos)
			r.Get("/by-priority", s.handleTodosByPriority)
			r.Get("/by-tag/{tagId}", s.handleTodosByTag)
			r.Put("/reorder", s.handleReorderTodos)

			r.Get("/{id}", s.handleGetTodo)
			r.Patch("/{id}", s.handleUpdateTodo)
			r.Delete("/{id}", s.handleDeleteTodo)
			r.Patch("/{id}/priority", s.handleUpdateTodoPriority)
			r.Post("/{id}/tags", s.handleAddTodoTags)
			r.Delete("/{id}/tags", s.handleRemoveTodoTags)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.handleListTags)
			r.Post("/", s.handleCreateTag)
			r.Patch("/{id}", s.handleUpdateTag)
			r.Delete("/{id}", s.handleDeleteTag)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
		})
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the primary port, falling back to fallbackPort when the
// primary is already in use.
func (s *Server) Listen(port, fallbackPort int) (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err == nil {
		return ln, nil
	}

	s.logger.Warn("primary port unavailable, trying fallback",
		"port", port, "fallback", fallbackPort, "err", err)

	ln, fallbackErr := net.Listen("tcp", fmt.Sprintf(":%d", fallbackPort))
	if fallbackErr != nil {
		return nil, fmt.Errorf("binding port %d and fallback %d: %w", port, fallbackPort, fallbackErr)
	}
	return ln, nil
}
