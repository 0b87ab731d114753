// Package server implements the netplot HTTP API.
//
// The server wraps a pipeline.Runner and a snapshot store behind a JSON API:
//
//	POST   /api/v1/synthesize            run the pipeline on an inline declaration
//	GET    /api/v1/snapshots             list stored snapshots
//	POST   /api/v1/snapshots             synthesize and store a named snapshot
//	GET    /api/v1/snapshots/{id}        fetch one snapshot
//	DELETE /api/v1/snapshots/{id}        delete a snapshot
//	GET    /api/v1/snapshots/{id}/render render a stored snapshot
//	GET    /healthz                      liveness probe with build info
//	GET    /metrics                      Prometheus metrics
//
// Request bodies never name server-side files: declarations and overrides
// travel inline, so a request cannot read paths on the host.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	neterrors "github.com/kleypas/netplot/pkg/errors"
	"github.com/kleypas/netplot/pkg/observe"
	"github.com/kleypas/netplot/pkg/pipeline"
	"github.com/kleypas/netplot/pkg/store"
)

// Config bundles the server's dependencies. Nil fields are replaced with
// working defaults: an uncached runner, an in-memory store, the package
// default logger, and a fresh metrics registry.
type Config struct {
	Runner  *pipeline.Runner
	Store   store.Store
	Logger  *log.Logger
	Metrics *Metrics
}

// Server is the netplot HTTP API. It implements http.Handler.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	logger  *log.Logger
	metrics *Metrics
	router  chi.Router
}

var _ http.Handler = (*Server)(nil)

// New creates a Server and mounts its routes.
//
// The metrics registry is served on /metrics but its hooks are not installed
// process-wide; call Metrics.Install to receive pipeline and cache events.
func New(cfg Config) *Server {
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}

	s := &Server{
		runner:  cfg.Runner,
		store:   cfg.Store,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP dispatches to the mounted routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/synthesize", s.handleSynthesize)
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Post("/", s.handleCreateSnapshot)
			r.Get("/{id}", s.handleGetSnapshot)
			r.Delete("/{id}", s.handleDeleteSnapshot)
			r.Get("/{id}/render", s.handleRenderSnapshot)
		})
	})

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	return r
}

// instrument logs each request and feeds the server observe hooks. It wraps
// Recoverer so panics are reported with a 500 status like any other response.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observe.Server().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// The route pattern is only known after routing has happened.
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		duration := time.Since(start)
		observe.Server().OnResponse(r.Context(), r.Method, route, ww.Status(), duration)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration,
		)
	})
}

// =============================================================================
// Responses
// =============================================================================

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code neterrors.Code, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg, Code: string(code)})
}

// respondPipelineError maps a pipeline error onto an HTTP status by its code.
func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	status := statusForCode(neterrors.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("pipeline failed", "error", err)
	}
	s.respondError(w, status, neterrors.GetCode(err), neterrors.UserMessage(err))
}

func statusForCode(code neterrors.Code) int {
	switch code {
	case neterrors.ErrCodeInvalidInput,
		neterrors.ErrCodeInvalidDeclaration,
		neterrors.ErrCodeInvalidName,
		neterrors.ErrCodeInvalidFormat,
		neterrors.ErrCodeInvalidOverride,
		neterrors.ErrCodeInvalidPath,
		neterrors.ErrCodeTopologyCycle,
		neterrors.ErrCodeDuplicateID:
		return http.StatusBadRequest
	case neterrors.ErrCodeNotFound,
		neterrors.ErrCodeFileNotFound,
		neterrors.ErrCodeSnapshotNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
