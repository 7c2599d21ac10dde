package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuild/internal/buildcache"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/livereload"
)

type fixture struct {
	root string
	cfg  *config.Config
	co   *Coordinator
	rec  *livereload.Recorder
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)

	cfg := config.Default(root, filepath.Join(t.TempDir(), "out"))
	cfg.PrettyURLs = true

	store, err := buildcache.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := &livereload.Recorder{}
	co, err := NewCoordinator(cfg, Options{Store: store, Notifier: rec})
	require.NoError(t, err)
	return &fixture{root: root, cfg: cfg, co: co, rec: rec}
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func (f *fixture) build(t *testing.T) *Report {
	t.Helper()
	report, err := f.co.Build(context.Background())
	require.NoError(t, err)
	return report
}

func (f *fixture) artifact(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) mtime(t *testing.T, rel string) time.Time {
	t.Helper()
	fi, err := os.Stat(filepath.Join(f.cfg.OutputDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return fi.ModTime()
}

func TestFullBuildWritesEverything(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md":       "# Home\n\nSee [the guide](guide.md).\n",
		"guide.md":       "# Guide\n\n![logo](img/logo.png)\n",
		"img/logo.png":   "pngbytes",
		"notes/index.md": "# Notes\n",
	})

	report := f.build(t)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.True(t, report.Full)
	assert.Equal(t, 3, report.DocsBuilt)

	assert.Contains(t, f.artifact(t, "index.html"), "the guide")
	assert.Contains(t, f.artifact(t, "guide/index.html"), "logo")
	f.artifact(t, "notes/index.html")

	snap := f.co.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, report.CycleID, snap.CycleID)
	assert.Len(t, snap.Graph.Pages, 3)

	require.Len(t, f.rec.All(), 1)
	assert.Equal(t, report.CycleID, f.rec.All()[0].CycleID)
}

func TestSecondBuildWritesNothing(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md": "# Home\n",
		"page.md":  "# Page\n",
	})
	f.build(t)

	before := f.mtime(t, "index.html")
	report := f.build(t)

	assert.False(t, report.Full)
	assert.Equal(t, 0, report.ArtifactsWritten)
	assert.Empty(t, report.ChangedURLs)
	assert.Equal(t, before, f.mtime(t, "index.html"))
	assert.Len(t, f.rec.All(), 1, "idempotent cycle must not notify")
}

func TestChangedDocumentRendersOnlyItselfAndDependents(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md":  "# Home\n\n[target](target.md)\n",
		"target.md": "---\ntitle: Target\n---\nOriginal body.\n",
		"other.md":  "---\ntitle: Other\n---\nUnrelated.\n",
	})
	f.build(t)
	otherBefore := f.mtime(t, "other/index.html")

	// Change only the body: the title is front-matter pinned, so the nav
	// is unchanged and the incremental path applies.
	writeFiles(t, f.root, map[string]string{
		"target.md": "---\ntitle: Target\n---\nUpdated body.\n",
	})
	report := f.build(t)

	assert.False(t, report.Full)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, []string{"/target/"}, report.ChangedURLs)
	assert.Contains(t, f.artifact(t, "target/index.html"), "Updated body")
	assert.Equal(t, otherBefore, f.mtime(t, "other/index.html"))
}

func TestAssetChangeInvalidatesReferencingDocs(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md":     "---\ntitle: Home\n---\n![logo](img/logo.png)\n",
		"plain.md":     "---\ntitle: Plain\n---\nNo images here.\n",
		"img/logo.png": "v1",
	})
	f.build(t)
	plainBefore := f.mtime(t, "plain/index.html")

	writeFiles(t, f.root, map[string]string{"img/logo.png": "v2"})
	report := f.build(t)

	assert.False(t, report.Full)
	assert.Contains(t, report.ChangedURLs, "/")
	assert.NotContains(t, report.ChangedURLs, "/plain/")
	assert.Equal(t, plainBefore, f.mtime(t, "plain/index.html"))

	// The new asset fingerprint lands in the rewritten page.
	assert.NotContains(t, f.artifact(t, "index.html"), assetInfix(t, "v1"))
}

// assetInfix mirrors the fingerprint infix used in asset output names.
func assetInfix(t *testing.T, content string) string {
	t.Helper()
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:12]
}

func TestDeletedAssetInvalidatesExactlyItsReferencingDocs(t *testing.T) {
	f := newFixture(t, map[string]string{
		"one.md":         "---\ntitle: One\n---\n![shared](img/shared.png)\n",
		"two.md":         "---\ntitle: Two\n---\n![shared](img/shared.png)\n",
		"three.md":       "---\ntitle: Three\n---\nNo images.\n",
		"img/shared.png": "bytes",
	})
	f.build(t)
	threeBefore := f.mtime(t, "three/index.html")

	require.NoError(t, os.Remove(filepath.Join(f.root, "img", "shared.png")))
	report := f.build(t)

	assert.False(t, report.Full)
	assert.Equal(t, 2, report.DocsBuilt)
	assert.Equal(t, threeBefore, f.mtime(t, "three/index.html"))
	// The pages now carry broken-image diagnostics instead of the asset.
	assert.Equal(t, OutcomeWarning, report.Outcome)
}

func TestAnchorRemovalRerendersLinkingPage(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md": "---\ntitle: Home\n---\n[see](other.md#section)\n",
		"other.md": "---\ntitle: Other\n---\n## Section\n\nBody.\n",
	})
	f.build(t)
	assert.Contains(t, f.artifact(t, "index.html"), "#section")

	// Removing the heading breaks the inbound link; that edge now exists
	// only in the previous graph, but the linking page must still degrade.
	writeFiles(t, f.root, map[string]string{
		"other.md": "---\ntitle: Other\n---\n## Renamed\n\nBody.\n",
	})
	report := f.build(t)

	assert.False(t, report.Full)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.Equal(t, 2, report.DocsBuilt)
	assert.Contains(t, report.ChangedURLs, "/")
	assert.NotContains(t, f.artifact(t, "index.html"), "#section")
}

func TestStaleAssetOutputsRemoved(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md":     "---\ntitle: Home\n---\n![logo](img/logo.png)\n",
		"img/logo.png": "v1",
	})
	f.build(t)
	v1Path := filepath.Join(f.cfg.OutputDir, "img", "logo."+assetInfix(t, "v1")+".png")
	_, err := os.Stat(v1Path)
	require.NoError(t, err)

	// New content means a new fingerprinted name; the old one must go.
	writeFiles(t, f.root, map[string]string{"img/logo.png": "v2"})
	f.build(t)
	_, err = os.Stat(v1Path)
	assert.True(t, os.IsNotExist(err))
	v2Path := filepath.Join(f.cfg.OutputDir, "img", "logo."+assetInfix(t, "v2")+".png")
	_, err = os.Stat(v2Path)
	require.NoError(t, err)

	// Deleting the source removes the output entirely.
	require.NoError(t, os.Remove(filepath.Join(f.root, "img", "logo.png")))
	f.build(t)
	_, err = os.Stat(v2Path)
	assert.True(t, os.IsNotExist(err))
}

func TestNavChangeRerendersAllPages(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md": "---\ntitle: Home\n---\nBody.\n",
		"a.md":     "---\ntitle: Alpha\n---\nBody A.\n",
		"b.md":     "---\ntitle: Beta\n---\nBody B.\n",
	})
	f.build(t)

	writeFiles(t, f.root, map[string]string{
		"a.md": "---\ntitle: Renamed Alpha\n---\nBody A.\n",
	})
	report := f.build(t)

	assert.True(t, report.Full, "a nav title change re-renders everything")
	assert.Contains(t, f.artifact(t, "b/index.html"), "Renamed Alpha")
}

func TestRemovedDocumentArtifactDeleted(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md": "# Home\n",
		"gone.md":  "# Gone\n",
	})
	f.build(t)
	f.artifact(t, "gone/index.html")

	require.NoError(t, os.Remove(filepath.Join(f.root, "gone.md")))
	f.build(t)

	_, err := os.Stat(filepath.Join(f.cfg.OutputDir, "gone", "index.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderDiagnosticsDoNotFailCycle(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md":  "# Home\n\n[missing](nowhere.md)\n",
		"second.md": "# Second\n",
	})

	report := f.build(t)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.NotEmpty(t, report.Diagnostics)
	f.artifact(t, "index.html")
	f.artifact(t, "second/index.html")
}

func TestSupersededCycle(t *testing.T) {
	f := newFixture(t, map[string]string{"index.md": "# Home\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := f.co.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeSuperseded, report.Outcome)
	assert.Nil(t, f.co.Snapshot(), "a superseded cycle publishes nothing")

	report = f.build(t)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.NotNil(t, f.co.Snapshot())
}

func TestSnapshotSwapIsAtomic(t *testing.T) {
	f := newFixture(t, map[string]string{"index.md": "---\ntitle: Home\n---\nv1\n"})
	f.build(t)
	first := f.co.Snapshot()

	writeFiles(t, f.root, map[string]string{"index.md": "---\ntitle: Home\n---\nv2\n"})
	f.build(t)
	second := f.co.Snapshot()

	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.CycleID, second.CycleID)
	// The old snapshot stays internally consistent after the swap.
	p, ok := first.Graph.PageBySource("index.md")
	require.True(t, ok)
	assert.Equal(t, "Home", p.Title)
}

func TestSearchIndexFollowsSnapshot(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md": "# Home\n\nkumquat orchard\n",
	})
	f.build(t)

	snap := f.co.Snapshot()
	require.NotNil(t, snap.Index)
	hits, err := snap.Index.Query("kumquat", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/", hits[0].URL)
}

func TestStateReturnsToIdle(t *testing.T) {
	f := newFixture(t, map[string]string{"index.md": "# Home\n"})
	assert.Equal(t, StateIdle, f.co.State())
	f.build(t)
	assert.Equal(t, StateIdle, f.co.State())
}
