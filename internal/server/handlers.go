package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kleypas/netplot/pkg/buildinfo"
	"github.com/kleypas/netplot/pkg/cache"
	"github.com/kleypas/netplot/pkg/diagram"
	neterrors "github.com/kleypas/netplot/pkg/errors"
	"github.com/kleypas/netplot/pkg/observe"
	"github.com/kleypas/netplot/pkg/pipeline"
	"github.com/kleypas/netplot/pkg/store"
	"github.com/kleypas/netplot/pkg/synth"
)

// contentTypes maps export formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

// SynthesizeResponse is the body returned by POST /api/v1/synthesize.
// Artifact bytes are base64-encoded by the JSON encoder.
type SynthesizeResponse struct {
	DeclHash  string             `json:"decl_hash"`
	Diagram   diagram.Diagram    `json:"diagram"`
	Synthesis synth.Stats        `json:"synthesis"`
	Artifacts map[string][]byte  `json:"artifacts,omitempty"`
	Cache     pipeline.CacheInfo `json:"cache"`
}

// SnapshotRequest is the body of POST /api/v1/snapshots: a snapshot name
// plus the pipeline options to synthesize it with.
type SnapshotRequest struct {
	Name string `json:"name"`
	pipeline.Options
}

// SnapshotSummary describes a stored snapshot without its diagram body.
type SnapshotSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func summarize(snap *store.Snapshot) SnapshotSummary {
	return SnapshotSummary{
		ID:        snap.ID,
		Name:      snap.Name,
		CreatedAt: snap.CreatedAt,
		Nodes:     len(snap.Diagram.Nodes),
		Edges:     len(snap.Diagram.Edges),
	}
}

// sanitize strips the fields that would make the pipeline read server-side
// files and pins the logger to the server's own.
func (s *Server) sanitize(opts *pipeline.Options) {
	opts.Source = ""
	opts.OverridesPath = ""
	opts.Logger = s.logger
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		s.respondError(w, http.StatusBadRequest, neterrors.ErrCodeInvalidInput, "invalid request body: "+err.Error())
		return
	}
	if opts.Declaration == "" {
		s.respondError(w, http.StatusBadRequest, neterrors.ErrCodeInvalidInput, "declaration is required")
		return
	}
	s.sanitize(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.respondError(w, http.StatusBadRequest, neterrors.ErrCodeInvalidInput, err.Error())
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, SynthesizeResponse{
		DeclHash:  res.DeclHash,
		Diagram:   res.Diagram,
		Synthesis: res.Synthesis,
		Artifacts: res.Artifacts,
		Cache:     res.CacheInfo,
	})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.List(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	summaries := make([]SnapshotSummary, 0, len(snaps))
	for _, snap := range snaps {
		summaries = append(summaries, summarize(snap))
	}
	s.respondJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, neterrors.ErrCodeInvalidInput, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		s.respondError(w, http.StatusBadRequest, neterrors.ErrCodeInvalidInput, "name is required")
		return
	}
	if req.Declaration == "" {
		s.respondError(w, http.StatusBadRequest, neterrors.ErrCodeInvalidInput, "declaration is required")
		return
	}
	opts := req.Options
	s.sanitize(&opts)

	decl, err := pipeline.Load(opts)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	res, err := s.runner.Synthesize(r.Context(), decl, opts)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}

	snap := store.New(req.Name, []byte(opts.Declaration), res.Diagram)
	if err := s.store.Put(r.Context(), snap); err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.logger.Info("snapshot created", "id", snap.ID, "name", snap.Name, "nodes", len(snap.Diagram.Nodes))
	s.respondJSON(w, http.StatusCreated, summarize(snap))
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}

	// Cached renders for the deleted snapshot must not outlive it.
	for format := range pipeline.ValidFormats {
		_ = s.runner.Cache.Delete(r.Context(), s.runner.Keyer.HTTPKey("render", id+"."+format))
	}

	s.logger.Info("snapshot deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenderSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.respondError(w, http.StatusBadRequest, neterrors.ErrCodeInvalidFormat, err.Error())
		return
	}

	ctx := r.Context()
	key := s.runner.Keyer.HTTPKey("render", id+"."+format)
	if data, ok, err := s.runner.Cache.Get(ctx, key); err == nil && ok {
		observe.Cache().OnCacheHit(ctx, "http")
		s.respondArtifact(w, format, data)
		return
	}
	observe.Cache().OnCacheMiss(ctx, "http")

	snap, err := s.store.Get(ctx, id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	opts := pipeline.Options{Formats: []string{format}, Logger: s.logger}
	artifacts, err := s.runner.Export(ctx, &snap.Diagram, opts)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}

	data := artifacts[format]
	if err := cache.RetryWithBackoff(ctx, func() error {
		return s.runner.Cache.Set(ctx, key, data, pipeline.TTLArtifact)
	}); err == nil {
		observe.Cache().OnCacheSet(ctx, "http", len(data))
	}
	s.respondArtifact(w, format, data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
	})
}

func (s *Server) respondArtifact(w http.ResponseWriter, format string, data []byte) {
	ct := contentTypes[format]
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write artifact", "error", err)
	}
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, neterrors.ErrCodeSnapshotNotFound, "snapshot not found")
		return
	}
	s.logger.Error("snapshot store", "error", err)
	s.respondError(w, http.StatusInternalServerError, neterrors.ErrCodeStore, "snapshot store unavailable")
}
