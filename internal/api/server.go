package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/waddle/internal/analysis"
	"github.com/MikeSquared-Agency/waddle/internal/processor"
)

// Version is reported by the status endpoint. Set at build time.
var Version = "dev"

// Analyzer runs and loads analyses.
type Analyzer interface {
	Analyze(ctx context.Context, req processor.Request) (*analysis.Analysis, error)
	Get(ctx context.Context, id uuid.UUID) (*analysis.Analysis, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Server struct {
	router    *chi.Mux
	maxUpload int64
	analyzer  Analyzer
	logger    *slog.Logger
	http      *http.Server
}

func NewServer(port int, apiToken string, maxUpload int64, analyzer Analyzer, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		maxUpload: maxUpload,
		analyzer:  analyzer,
		logger:    logger,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/waddle/status", s.status)

	router.Group(func(r chi.Router) {
		r.Use(s.bearerAuth(apiToken))
		r.Post("/api/v1/partners", s.listPartners)
		r.Post("/api/v1/analyses", s.createAnalysis)
		r.Get("/api/v1/analyses/{id}", s.getAnalysis)
		r.Delete("/api/v1/analyses/{id}", s.deleteAnalysis)
	})

	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"agent":   "waddle",
		"status":  "ready",
		"version": Version,
	})
}

// writeJSON sends v with status. The header is already out when encoding
// fails, so the failure can only be logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", "status", status, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
