// Package preview serves the built site over HTTP during authoring: static
// artifacts from the output directory, live reload events, the search
// endpoint and health/metrics probes.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuild/internal/build"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuild/internal/livereload"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// Server exposes the preview endpoints on a single port.
type Server struct {
	cfg *config.Config
	co  *build.Coordinator
	hub *livereload.Hub

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler

	srv *http.Server
}

func NewServer(cfg *config.Config, co *build.Coordinator, hub *livereload.Hub) *Server {
	return &Server{cfg: cfg, co: co, hub: hub}
}

// Handler builds the route table. Split out from Start so tests can drive
// it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/search", s.handleSearch)
	if s.hub != nil {
		mux.Handle("/livereload", s.hub)
	}
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics)
	}
	mux.HandleFunc("/", s.handleSite)
	return mux
}

// Start binds the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Serve.Addr)
	if err != nil {
		return ferrors.ConfigError("bind preview address").
			WithContext("addr", s.cfg.Serve.Addr).
			WithCause(err).
			Build()
	}
	s.srv = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: /livereload holds its response open.
		IdleTimeout: 120 * time.Second,
	}
	slog.Info("preview server listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err, ok := <-errCh:
		if !ok || err == nil {
			return nil
		}
		return ferrors.NewError(ferrors.CategoryInternal, "preview server failed").
			WithCause(err).
			Build()
	}
}

func (s *Server) shutdown() error {
	if s.hub != nil {
		s.hub.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("preview server shutdown", logfields.Error(err))
		return err
	}
	return nil
}

// handleSite serves artifacts from the output directory. Before the first
// snapshot exists it answers with a pending page that reloads itself.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if s.co.Snapshot() == nil {
		s.renderPendingPage(w)
		return
	}
	setCacheControl(w, r.URL.Path)
	http.FileServer(http.Dir(s.cfg.OutputDir)).ServeHTTP(w, r)
}

func (s *Server) renderPendingPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	script := ""
	if s.hub != nil {
		script = `<script>new EventSource("/livereload").addEventListener("reload",function(){location.reload()});</script>`
	}
	_, _ = fmt.Fprintf(w, `<!doctype html><html><head><meta charset="utf-8"><title>Building</title></head><body><h1>Site is being built</h1><p>This page reloads automatically once the first build completes.</p>%s</body></html>`, script)
}

type healthResponse struct {
	State   string    `json:"state"`
	CycleID string    `json:"cycle_id,omitempty"`
	BuiltAt time.Time `json:"built_at,omitempty"`
	Pages   int       `json:"pages"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{State: s.co.State().String()}
	status := http.StatusServiceUnavailable
	if snap := s.co.Snapshot(); snap != nil {
		status = http.StatusOK
		resp.CycleID = snap.CycleID
		resp.BuiltAt = snap.BuiltAt
		resp.Pages = len(snap.Graph.Pages)
	}
	writeJSON(w, status, resp)
}

type searchHit struct {
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

type searchResponse struct {
	Query string      `json:"query"`
	Hits  []searchHit `json:"hits"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter q"})
		return
	}

	snap := s.co.Snapshot()
	if snap == nil || snap.Index == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "index not ready"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := snap.Index.Query(q, limit)
	if err != nil {
		slog.Warn("search query failed", logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}

	resp := searchResponse{Query: q, Hits: make([]searchHit, 0, len(results))}
	for _, res := range results {
		resp.Hits = append(resp.Hits, searchHit{Title: res.Title, URL: res.URL, Score: res.Score})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// setCacheControl picks cache headers by artifact type. Fingerprinted asset
// names make long immutable caching safe; HTML is never cached so edits
// show up on reload.
func setCacheControl(w http.ResponseWriter, path string) {
	switch {
	case strings.HasSuffix(path, ".html"), path == "/", !strings.Contains(path, "."):
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")
	case strings.HasSuffix(path, ".css"), strings.HasSuffix(path, ".js"):
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	default:
		w.Header().Set("Cache-Control", "public, max-age=604800")
	}
}
