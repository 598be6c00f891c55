// Package preview serves a live-rendering view of the guideline site:
// pages are rendered per request from the docs tree, a filesystem watcher
// refreshes the tree, and connected browsers reload over SSE.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/guidesite/internal/check"
	"git.home.luguber.info/inful/guidesite/internal/config"
	"git.home.luguber.info/inful/guidesite/internal/content"
	siteerrors "git.home.luguber.info/inful/guidesite/internal/errors"
	"git.home.luguber.info/inful/guidesite/internal/logfields"
	"git.home.luguber.info/inful/guidesite/internal/metrics"
	"git.home.luguber.info/inful/guidesite/internal/site"
)

// Server renders and serves the docs tree over HTTP.
type Server struct {
	desc     *config.Descriptor
	root     string
	renderer *site.Renderer
	hub      *LiveReloadHub
	recorder metrics.Recorder
	registry *prom.Registry

	mu       sync.RWMutex
	tree     *content.Tree
	treeHash string
}

// NewServer creates a preview server for the project rooted at root.
// A nil registry disables the /metrics endpoint.
func NewServer(desc *config.Descriptor, root string, registry *prom.Registry) (*Server, error) {
	renderer, err := site.NewRenderer(desc)
	if err != nil {
		return nil, err
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if registry != nil {
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	return &Server{
		desc:     desc,
		root:     root,
		renderer: renderer,
		hub:      NewLiveReloadHub(),
		recorder: recorder,
		registry: registry,
	}, nil
}

func (s *Server) docsRoot() string { return filepath.Join(s.root, s.desc.DocsDir) }

// refresh re-discovers the docs tree and returns the new tree hash.
func (s *Server) refresh() (string, error) {
	tree, err := content.Discover(s.docsRoot())
	if err != nil {
		return "", err
	}
	hash, err := content.ComputeTreeHash(tree.All())
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.tree = tree
	s.treeHash = hash
	s.mu.Unlock()
	return hash, nil
}

func (s *Server) currentTree() *content.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.refresh(); err != nil {
		return siteerrors.WrapError(err, siteerrors.CategoryPreview, "initial content discovery")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/__livereload", s.hub.ServeHTTP)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	mux.HandleFunc("/", s.handlePage)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.desc.Preview.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	watcher, err := setupFileWatcher(s.docsRoot())
	if err != nil {
		return siteerrors.WrapError(err, siteerrors.CategoryPreview, "watch docs directory")
	}
	defer func() { _ = watcher.Close() }()

	rebuildReq, trigger := setupRebuildDebouncer()
	s.startRebuildWorker(ctx, rebuildReq)

	stopRecheck, err := s.startPeriodicRecheck(ctx)
	if err != nil {
		return err
	}
	defer stopRecheck()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening",
			slog.Int("port", s.desc.Preview.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d%s", s.desc.Preview.Port, s.desc.BasePath)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(httpServer)
		case err := <-errCh:
			return err
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleFileEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// shutdown stops the HTTP server and the live reload hub. The rebuild
// request channel is deliberately left open: a debounce timer may still be
// pending, and its send must stay safe; the worker exits on context
// cancellation instead.
func (s *Server) shutdown(httpServer *http.Server) error {
	slog.Info("Shutting down preview server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.hub.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}

// startRebuildWorker refreshes the tree and notifies browsers when the
// debouncer fires. Overlapping triggers coalesce into one pending refresh.
func (s *Server) startRebuildWorker(ctx context.Context, rebuildReq chan struct{}) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				slog.Info("Change detected; refreshing content tree")
				s.recorder.IncRebuild("fsevent")
				hash, err := s.refresh()
				if err != nil {
					slog.Warn("refresh failed", logfields.Error(err))
					continue
				}
				s.hub.Broadcast(hash)
			}
		}
	}()
}

// handlePage resolves the request path to a document and renders it.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	defer func() { s.recorder.IncPreviewRequest(statusClass(sw.status)) }()

	route, ok := s.routeFor(r.URL.Path)
	if !ok {
		http.NotFound(sw, r)
		return
	}

	tree := s.currentTree()
	if doc := tree.ByRelPath(strings.TrimPrefix(route, "/")); doc != nil && doc.IsAsset {
		http.ServeFile(sw, r, doc.Path)
		return
	}
	if doc := tree.Resolve("README.md", route); doc != nil {
		if doc.IsAsset {
			http.ServeFile(sw, r, doc.Path)
			return
		}
		page, err := s.renderer.RenderDocument(tree, doc, site.RenderOptions{LiveReload: true})
		if err != nil {
			slog.Error("render failed", logfields.Doc(doc.RelPath), logfields.Error(err))
			http.Error(sw, "render error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		sw.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = sw.Write(page)
		return
	}

	// Project-level assets (logos, stylesheets) live outside the docs tree.
	assetRoot := filepath.Join(s.root, s.desc.AssetsDir)
	assetPath := filepath.Join(assetRoot, filepath.FromSlash(strings.TrimPrefix(route, "/")))
	if strings.HasPrefix(assetPath, assetRoot+string(filepath.Separator)) {
		http.ServeFile(sw, r, assetPath)
		return
	}
	http.NotFound(sw, r)
}

// routeFor strips the configured base path from a request path.
func (s *Server) routeFor(p string) (string, bool) {
	base := strings.TrimSuffix(s.desc.BasePath, "/")
	if base != "" {
		// Match on the path-segment boundary so "/guidesfoo" is not
		// mistaken for a route under base path "/guides/".
		switch {
		case p == base:
			p = ""
		case strings.HasPrefix(p, base+"/"):
			p = strings.TrimPrefix(p, base)
		default:
			return "", false
		}
	}
	if p == "" {
		p = "/"
	}
	return p, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	hash := s.treeHash
	docs := 0
	if s.tree != nil {
		docs = len(s.tree.Documents())
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","docs":%d,"tree_hash":%q}`, docs, hash)
}

// startPeriodicRecheck schedules a recurring structural check when
// configured. The returned stop function is safe to call always.
func (s *Server) startPeriodicRecheck(ctx context.Context) (func(), error) {
	interval := s.desc.Preview.RecheckInterval
	if interval == "" {
		return func() {}, nil
	}
	d, err := time.ParseDuration(interval)
	if err != nil {
		return nil, fmt.Errorf("parse recheck interval: %w", err)
	}

	sched, err := newRecheckScheduler(d, func() { s.runStructuralCheck(ctx) })
	if err != nil {
		return nil, err
	}
	sched.Start()
	return func() {
		if err := sched.Shutdown(); err != nil {
			slog.Warn("scheduler shutdown error", logfields.Error(err))
		}
	}, nil
}

func (s *Server) runStructuralCheck(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	tree := s.currentTree()
	if tree == nil {
		return
	}

	start := time.Now()
	result, err := check.NewChecker(s.desc.Checks).Run(s.desc, tree)
	if err != nil {
		slog.Warn("periodic check failed", logfields.Error(err))
		return
	}
	s.recorder.ObserveCheckDuration(time.Since(start))
	s.recorder.AddCheckIssues("error", result.ErrorCount())
	s.recorder.AddCheckIssues("warning", result.WarningCount())
	if result.HasErrors() {
		slog.Warn("Periodic structural check found errors",
			slog.Int("errors", result.ErrorCount()),
			slog.Int("warnings", result.WarningCount()))
	}
}

// statusWriter captures the response status for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
