package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ppiankov/mathblocks/internal/blocks"
	"github.com/ppiankov/mathblocks/internal/model"
	"github.com/ppiankov/mathblocks/internal/pipeline"
	"github.com/ppiankov/mathblocks/internal/validate"
)

// Server exposes analysis and block application over HTTP
type Server struct {
	cfg      model.ServerConfig
	pipeline *pipeline.Pipeline
	registry *validate.Registry
	applier  *blocks.Applier
	logger   *slog.Logger
	router   *chi.Mux
}

// AnalyzeRequest is the body of POST /v1/analyze
type AnalyzeRequest struct {
	HTML string `json:"html"`
}

// AnalyzeResponse lists ranked suggestions and the default selection
type AnalyzeResponse struct {
	Suggestions []model.Suggestion `json:"suggestions"`
	Selected    []string           `json:"selected"`
}

// ApplyRequest is the body of POST /v1/apply. The html is analyzed again
// and the selected ids refer to that analysis.
type ApplyRequest struct {
	HTML     string   `json:"html"`
	Selected []string `json:"selected"`
}

// ApplyResponse carries the built blocks
type ApplyResponse struct {
	Blocks []model.Block `json:"blocks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a server around p. A nil logger uses slog.Default().
func New(cfg model.ServerConfig, p *pipeline.Pipeline, registry *validate.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = validate.DefaultRegistry()
	}

	s := &Server{
		cfg:      cfg,
		pipeline: p,
		registry: registry,
		applier:  blocks.NewApplier(registry),
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/block-types", s.handleBlockTypes)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/apply", s.handleApply)
	})

	s.router = r
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("stopping server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed", time.Since(start).Round(time.Microsecond))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBlockTypes(w http.ResponseWriter, _ *http.Request) {
	type blockType struct {
		Type     model.BlockType `json:"type"`
		Required []string        `json:"required"`
		Defaults map[string]any  `json:"defaults,omitempty"`
	}

	types := s.registry.Types()
	out := make([]blockType, 0, len(types))
	for _, t := range types {
		schema, _ := s.registry.Lookup(t)
		out = append(out, blockType{Type: t, Required: schema.Required, Defaults: schema.Defaults})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decode(w, r, &req) {
		return
	}

	report := s.pipeline.Analyze(r.Context(), &pipeline.Source{Name: "request", HTML: req.HTML})

	s.writeJSON(w, http.StatusOK, AnalyzeResponse{
		Suggestions: report.Suggestions,
		Selected:    report.Summary.Selected,
	})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !s.decode(w, r, &req) {
		return
	}

	report := s.pipeline.Analyze(r.Context(), &pipeline.Source{Name: "request", HTML: req.HTML})

	built, err := s.applier.Apply(report.Suggestions, req.Selected)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("applied suggestions", "blocks", len(built))
	s.writeJSON(w, http.StatusOK, ApplyResponse{Blocks: built})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
