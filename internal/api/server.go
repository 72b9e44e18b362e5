package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baxromumarov/policy-summarizer/internal/core"
)

const maxRequestBytes = 1 << 20

// Service is the part of core.SummarizerService the HTTP layer needs.
type Service interface {
	Summarize(ctx context.Context, input string) (*core.Summary, error)
	Locate(ctx context.Context, input string) (string, error)
}

type Server struct {
	router         *chi.Mux
	service        Service
	requestTimeout time.Duration
	logger         *slog.Logger
}

func NewServer(service Service, requestTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:         chi.NewRouter(),
		service:        service,
		requestTimeout: requestTimeout,
		logger:         logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stats", s.handleStats)

	s.router.Group(func(r chi.Router) {
		r.Use(limitBody(maxRequestBytes))
		r.Use(withTimeout(s.requestTimeout))
		r.Post("/summarize", s.handleSummarize)
		r.Post("/locate", s.handleLocate)
	})
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
