package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/guidesite/internal/config"
)

func fixtureServer(t *testing.T, basePath string) *Server {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"docs/README.md":                      "# Guidelines\n",
		"docs/code-style/README.md":           "# Code style\n\nRules live here.\n",
		"docs/architecture/README.md":         "# Architecture\n",
		"docs/architecture/images/layers.png": "\x89PNG fake",
		"public/logo.svg":                     "<svg/>",
	}
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}

	desc := &config.Descriptor{
		Locale:    "en-US",
		Title:     "Guidelines",
		BasePath:  basePath,
		DocsDir:   "docs",
		AssetsDir: "public",
		Output:    config.OutputConfig{Directory: "dist"},
		Nav: []config.NavEntry{
			{Text: "Architecture", Link: "/architecture/README.md"},
		},
		Preview: &config.PreviewConfig{Port: 0},
	}

	srv, err := NewServer(desc, root, nil)
	require.NoError(t, err)
	_, err = srv.refresh()
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.handlePage(rec, req)
	return rec
}

func TestHandlePage_RendersDirectoryRoute(t *testing.T) {
	srv := fixtureServer(t, "/")

	rec := get(t, srv, "/code-style/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Code style")
	require.Contains(t, body, "__livereload")
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestHandlePage_RootRoute(t *testing.T) {
	srv := fixtureServer(t, "/")

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Guidelines")
}

func TestHandlePage_ServesDocsAsset(t *testing.T) {
	srv := fixtureServer(t, "/")

	rec := get(t, srv, "/architecture/images/layers.png")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "\x89PNG fake", rec.Body.String())
}

func TestHandlePage_ServesProjectAsset(t *testing.T) {
	srv := fixtureServer(t, "/")

	rec := get(t, srv, "/logo.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<svg/>", rec.Body.String())
}

func TestHandlePage_UnknownRoute_NotFound(t *testing.T) {
	srv := fixtureServer(t, "/")

	rec := get(t, srv, "/missing/page.html")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePage_BasePathRequired(t *testing.T) {
	srv := fixtureServer(t, "/guides/")

	require.Equal(t, http.StatusOK, get(t, srv, "/guides/code-style/").Code)
	require.Equal(t, http.StatusNotFound, get(t, srv, "/code-style/").Code)
}

func TestHandlePage_BasePathSegmentBoundary(t *testing.T) {
	srv := fixtureServer(t, "/guides/")

	// A prefix match alone is not enough: "/guidesfoo" lies outside the
	// base path and must not resolve as route "foo".
	require.Equal(t, http.StatusNotFound, get(t, srv, "/guidesfoo").Code)
	require.Equal(t, http.StatusOK, get(t, srv, "/guides").Code)
}

func TestRefresh_ChangesTreeHash(t *testing.T) {
	srv := fixtureServer(t, "/")

	first := srv.treeHash
	require.NotEmpty(t, first)

	p := filepath.Join(srv.root, "docs", "code-style", "naming.md")
	require.NoError(t, os.WriteFile(p, []byte("# Naming\n"), 0o644))

	second, err := srv.refresh()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	rec := get(t, srv, "/code-style/naming.html")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleHealth_ReportsDocCount(t *testing.T) {
	srv := fixtureServer(t, "/")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"docs":3`)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStatusClass(t *testing.T) {
	require.Equal(t, "2xx", statusClass(200))
	require.Equal(t, "3xx", statusClass(304))
	require.Equal(t, "4xx", statusClass(404))
	require.Equal(t, "5xx", statusClass(500))
}

func TestShouldIgnoreEvent(t *testing.T) {
	require.True(t, shouldIgnoreEvent("/docs/.hidden.md"))
	require.True(t, shouldIgnoreEvent("/docs/README.md~"))
	require.True(t, shouldIgnoreEvent("/docs/.README.md.swp"))
	require.True(t, shouldIgnoreEvent("/docs/#README.md#"))
	require.False(t, shouldIgnoreEvent("/docs/README.md"))
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	rebuildReq, trigger := setupRebuildDebouncer()
	for i := 0; i < 5; i++ {
		trigger()
	}

	select {
	case <-rebuildReq:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}

	select {
	case <-rebuildReq:
		t.Fatal("burst produced more than one rebuild request")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestShutdown_PendingDebounceTimer_NoPanic(t *testing.T) {
	srv := fixtureServer(t, "/")

	rebuildReq, trigger := setupRebuildDebouncer()
	ctx, cancel := context.WithCancel(context.Background())
	srv.startRebuildWorker(ctx, rebuildReq)

	// A file event lands just before shutdown; its debounce timer is still
	// pending when the server stops.
	trigger()
	cancel()
	require.NoError(t, srv.shutdown(&http.Server{}))

	// Let the timer fire; its send must not panic.
	time.Sleep(2 * debounceWindow)
}

func TestLiveReloadHub_BroadcastDedupes(t *testing.T) {
	hub := NewLiveReloadHub()
	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	hub.mu.Lock()
	client.id = hub.nextID
	hub.nextID++
	hub.clients[client.id] = client
	hub.mu.Unlock()

	hub.Broadcast("abc")
	hub.Broadcast("abc") // duplicate hash is suppressed
	hub.Broadcast("def")

	require.Equal(t, "abc", <-client.ch)
	require.Equal(t, "def", <-client.ch)
	require.Empty(t, client.ch)

	hub.Shutdown()
	hub.Broadcast("ghi")
	require.Empty(t, client.ch)
}
