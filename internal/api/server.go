package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todo-api/internal/metrics"
	"github.com/Kerhoff/todo-api/internal/repository"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server provides the HTTP API.
type Server struct {
	todos   repository.TodoRepository
	db      Pinger
	metrics *metrics.Metrics
	logger  *logrus.Logger
	mux     *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(todos repository.TodoRepository, db Pinger, m *metrics.Metrics, logger *logrus.Logger) *Server {
	s := &Server{
		todos:   todos,
		db:      db,
		metrics: m,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.instrument(s.recoverPanics(s.mux)))
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Todos
	s.mux.HandleFunc("GET /api/todos", s.handleListTodos)
	s.mux.HandleFunc("POST /api/todos", s.handleCreateTodo)
	s.mux.HandleFunc("GET /api/todos/{id}", s.handleGetTodo)
	s.mux.HandleFunc("PUT /api/todos/{id}", s.handleUpdateTodo)
	s.mux.HandleFunc("DELETE /api/todos/{id}", s.handleDeleteTodo)

	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// Everything else, including known paths with an unsupported method.
	s.mux.HandleFunc("/", s.handleNotFound)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, http.StatusNotFound, "Not found")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.requestLogger(r).WithError(err).Error("health check failed")
		s.respondJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "database unavailable"})
		return
	}
	s.respondJSON(w, http.StatusOK, envelope{Success: true, Message: "ok"})
}
