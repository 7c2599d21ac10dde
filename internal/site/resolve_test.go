package site

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/diag"
	"git.home.luguber.info/inful/sitebuild/internal/markup"
)

func renderPage(t *testing.T, g *Graph, sourcePath string) string {
	t.Helper()
	p, ok := g.PageBySource(sourcePath)
	require.True(t, ok)
	var buf bytes.Buffer
	require.NoError(t, markup.NewParser(nil).Render(&buf, p.Parse))
	return buf.String()
}

func TestRelativeLinkWithFragmentResolves(t *testing.T) {
	g, collector := mustGraph(t, map[string]string{
		"guide/a.md":     "[see other](other.md#section)\n",
		"guide/other.md": "# Other\n\n## Section\n",
	}, nil)

	html := renderPage(t, g, "guide/a.md")
	assert.Contains(t, html, `href="../other/#section"`)
	assert.Empty(t, collector.ByKind(diag.KindBrokenLink))

	a, _ := g.PageBySource("guide/a.md")
	assert.Equal(t, []string{"guide/other.md"}, a.DocDeps)
}

func TestRootRelativeLinkResolves(t *testing.T) {
	g, _ := mustGraph(t, map[string]string{
		"deep/nested/page.md": "[home](/index.md)\n",
		"index.md":            "# Home\n",
	}, nil)

	html := renderPage(t, g, "deep/nested/page.md")
	assert.Contains(t, html, `href="../../../"`)
}

func TestLinkPolicyControlsAmbiguousResolution(t *testing.T) {
	files := map[string]string{
		"guide/a.md":     "[target](setup.md)\n",
		"guide/setup.md": "# Near\n",
		"setup.md":       "# Far\n",
	}

	g, _ := mustGraph(t, files, nil)
	a, _ := g.PageBySource("guide/a.md")
	assert.Equal(t, []string{"guide/setup.md"}, a.DocDeps)

	g, _ = mustGraph(t, files, func(cfg *config.Config) {
		cfg.LinkPolicy = config.LinkPolicyRootFirst
	})
	a, _ = g.PageBySource("guide/a.md")
	assert.Equal(t, []string{"setup.md"}, a.DocDeps)
}

func TestSuffixMatchPicksDeepestCandidate(t *testing.T) {
	g, collector := mustGraph(t, map[string]string{
		"a.md":                "[ref](special.md)\n",
		"x/special.md":        "# Shallow\n",
		"x/deeper/special.md": "# Deep\n",
	}, nil)

	a, _ := g.PageBySource("a.md")
	assert.Equal(t, []string{"x/deeper/special.md"}, a.DocDeps)
	assert.Empty(t, collector.ByKind(diag.KindBrokenLink))
}

func TestDirectoryLinkResolvesToIndex(t *testing.T) {
	g, _ := mustGraph(t, map[string]string{
		"a.md":           "[guide](guide)\n",
		"guide/index.md": "# Guide\n",
	}, nil)

	a, _ := g.PageBySource("a.md")
	assert.Equal(t, []string{"guide/index.md"}, a.DocDeps)
}

func TestBrokenLinkDegradesWithoutFailing(t *testing.T) {
	g, collector := mustGraph(t, map[string]string{
		"a.md": "before [missing](nowhere.md) after\n",
	}, nil)

	html := renderPage(t, g, "a.md")
	assert.NotContains(t, html, "<a ")
	assert.Contains(t, html, "missing")
	assert.Contains(t, html, "before")

	broken := collector.ByKind(diag.KindBrokenLink)
	require.Len(t, broken, 1)
	assert.Equal(t, "a.md", broken[0].Doc)
	assert.Equal(t, 1, broken[0].Line)
	assert.Contains(t, broken[0].Message, "nowhere.md")
}

func TestBrokenLinkReplacementText(t *testing.T) {
	g, _ := mustGraph(t, map[string]string{
		"a.md": "[missing](nowhere.md)\n",
	}, func(cfg *config.Config) {
		cfg.BrokenLinkText = "[dead link]"
	})

	html := renderPage(t, g, "a.md")
	assert.Contains(t, html, "[dead link]")
	assert.NotContains(t, html, "<a ")
}

func TestMissingAnchorIsBroken(t *testing.T) {
	g, collector := mustGraph(t, map[string]string{
		"a.md": "[ref](b.md#nope)\n",
		"b.md": "# B\n",
	}, nil)

	broken := collector.ByKind(diag.KindBrokenLink)
	require.Len(t, broken, 1)
	assert.Contains(t, broken[0].Message, "anchor")

	html := renderPage(t, g, "a.md")
	assert.NotContains(t, html, "<a ")
}

func TestSamePageFragmentValidated(t *testing.T) {
	g, collector := mustGraph(t, map[string]string{
		"a.md": "# Top\n\n[good](#top) [bad](#absent)\n",
	}, nil)

	broken := collector.ByKind(diag.KindBrokenLink)
	require.Len(t, broken, 1)
	assert.Contains(t, broken[0].Message, "anchor")

	html := renderPage(t, g, "a.md")
	assert.Contains(t, html, `href="#top"`)
}

func TestImageRewrittenToFingerprintedURL(t *testing.T) {
	g, collector := mustGraph(t, map[string]string{
		"guide/a.md":            "![diagram](images/arch.png)\n",
		"guide/images/arch.png": "pngbytes",
	}, nil)

	asset, ok := g.Set.Asset("guide/images/arch.png")
	require.True(t, ok)
	wantURL, ok := g.AssetURL("guide/images/arch.png")
	require.True(t, ok)
	assert.Contains(t, wantURL, asset.Fingerprint[:12])

	html := renderPage(t, g, "guide/a.md")
	assert.Contains(t, html, `src="../images/arch.`+asset.Fingerprint[:12]+`.png"`)

	a, _ := g.PageBySource("guide/a.md")
	assert.Equal(t, []string{"guide/images/arch.png"}, a.AssetDeps)
	assert.Empty(t, collector.ByKind(diag.KindBrokenLink))
}

func TestMissingImageReported(t *testing.T) {
	_, collector := mustGraph(t, map[string]string{
		"a.md": "![gone](missing.png)\n",
	}, nil)

	broken := collector.ByKind(diag.KindBrokenLink)
	require.Len(t, broken, 1)
	assert.Contains(t, broken[0].Message, "image")
}

func TestBrokenImageAndLinkReportTheirOwnLines(t *testing.T) {
	_, collector := mustGraph(t, map[string]string{
		"a.md": "[doc](shot.png)\n\n![pic](shot.png)\n",
	}, nil)

	broken := collector.ByKind(diag.KindBrokenLink)
	require.Len(t, broken, 2)
	for _, d := range broken {
		if strings.Contains(d.Message, "image") {
			assert.Equal(t, 3, d.Line)
		} else {
			assert.Equal(t, 1, d.Line)
		}
	}
}

func TestExternalLinksUntouched(t *testing.T) {
	g, collector := mustGraph(t, map[string]string{
		"a.md": "[ext](https://example.com/x) [mail](mailto:a@b.c)\n",
	}, nil)

	html := renderPage(t, g, "a.md")
	assert.Contains(t, html, `href="https://example.com/x"`)
	assert.Empty(t, collector.ByKind(diag.KindBrokenLink))
}

func TestLinkToAssetFile(t *testing.T) {
	g, _ := mustGraph(t, map[string]string{
		"a.md":             "[download](files/manual.pdf)\n",
		"files/manual.pdf": "%PDF-fake",
	}, nil)

	a, _ := g.PageBySource("a.md")
	assert.Equal(t, []string{"files/manual.pdf"}, a.AssetDeps)
}
