package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuild/internal/build"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/livereload"
)

func newTestServer(t *testing.T, files map[string]string, buildFirst bool) (*Server, *httptest.Server) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	cfg := config.Default(root, filepath.Join(t.TempDir(), "out"))
	cfg.PrettyURLs = true

	co, err := build.NewCoordinator(cfg, build.Options{})
	require.NoError(t, err)
	if buildFirst {
		_, err = co.Build(context.Background())
		require.NoError(t, err)
	}

	srv := NewServer(cfg, co, livereload.NewHub())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServesBuiltPages(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"index.md": "# Home\n\nWelcome aboard.\n",
		"guide.md": "# Guide\n",
	}, true)

	resp := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache, must-revalidate", resp.Header.Get("Cache-Control"))

	resp = get(t, ts.URL+"/guide/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPendingPageBeforeFirstSnapshot(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"index.md": "# Home\n"}, false)

	resp := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"index.md": "# Home\n"}, true)

	resp := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		State   string `json:"state"`
		CycleID string `json:"cycle_id"`
		Pages   int    `json:"pages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "idle", body.State)
	assert.NotEmpty(t, body.CycleID)
	assert.Equal(t, 1, body.Pages)
}

func TestHealthUnavailableBeforeFirstBuild(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"index.md": "# Home\n"}, false)
	resp := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"index.md": "# Home\n\nnothing to see\n",
		"fruit.md": "# Fruit\n\npersimmon season\n",
	}, true)

	resp := get(t, ts.URL+"/search?q=persimmon")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Query string `json:"query"`
		Hits  []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"hits"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "persimmon", body.Query)
	require.Len(t, body.Hits, 1)
	assert.Equal(t, "/fruit/", body.Hits[0].URL)
	assert.Equal(t, "Fruit", body.Hits[0].Title)
}

func TestSearchRequiresQuery(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{"index.md": "# Home\n"}, true)
	resp := get(t, ts.URL+"/search")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAssetCacheHeaders(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"index.md":     "# Home\n\n![logo](img/logo.png)\n",
		"img/logo.png": "pngbytes",
	}, true)

	resp := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Fingerprinted asset paths get long-lived caching.
	recorder := httptest.NewRecorder()
	setCacheControl(recorder, "/img/logo.abc123def456.png")
	assert.Equal(t, "public, max-age=604800", recorder.Header().Get("Cache-Control"))
}
