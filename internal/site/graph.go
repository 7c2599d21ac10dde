// Package site turns a collected document set into a connected site graph:
// pages with stable URLs, a navigation tree, and resolved cross-document
// links. The graph is built fresh each cycle and never mutated afterwards,
// so readers can hold it without locking.
package site

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/diag"
	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/markup"
	"git.home.luguber.info/inful/sitebuild/internal/source"
)

// Page is one renderable document inside the graph.
type Page struct {
	Doc   *source.Document
	Parse *markup.Result

	Title      string
	URL        string // root-relative, directory style when pretty URLs are on
	OutputPath string // artifact path relative to the output root

	// Git-derived metadata, zero when unavailable.
	LastMod   time.Time
	GitCommit string

	Prev *Page
	Next *Page

	// DocDeps and AssetDeps are the source paths this page's output depends
	// on besides its own document. They feed incremental invalidation.
	DocDeps   []string
	AssetDeps []string

	node *NavNode
}

// NavNode returns the page's navigation node, nil for hidden pages.
func (p *Page) NavNode() *NavNode { return p.node }

// Ancestors returns the page's nav ancestry from the root down, excluding
// the page's own node.
func (p *Page) Ancestors() []*NavNode {
	if p.node == nil {
		return nil
	}
	var chain []*NavNode
	for n := p.node.Parent; n != nil; n = n.Parent {
		chain = append([]*NavNode{n}, chain...)
	}
	return chain
}

// Graph is the resolved site: every page, the nav tree, and the asset URL
// mapping.
type Graph struct {
	Pages []*Page
	Nav   *NavNode

	Set *source.Set

	bySource map[string]*Page
	byURL    map[string]*Page
	assetURL map[string]string
}

// PageBySource looks a page up by its document's source-relative path.
func (g *Graph) PageBySource(sourcePath string) (*Page, bool) {
	p, ok := g.bySource[sourcePath]
	return p, ok
}

// PageByURL looks a page up by its root-relative URL.
func (g *Graph) PageByURL(url string) (*Page, bool) {
	p, ok := g.byURL[url]
	return p, ok
}

// AssetURL returns the fingerprinted root-relative URL for an asset source
// path.
func (g *Graph) AssetURL(sourcePath string) (string, bool) {
	u, ok := g.assetURL[sourcePath]
	return u, ok
}

// Build assembles the graph from a collected set and its parse results.
// parsed must contain an entry per document in the set. Navigation parent
// conflicts are fatal; broken links are reported through the diagnostic
// reporter and degrade the affected link only.
func Build(set *source.Set, parsed map[string]*markup.Result, cfg *config.Config, reporter diag.Reporter) (*Graph, error) {
	if reporter == nil {
		reporter = diag.Discard{}
	}

	g := &Graph{
		Set:      set,
		bySource: map[string]*Page{},
		byURL:    map[string]*Page{},
		assetURL: map[string]string{},
	}

	for _, doc := range set.Documents {
		res := parsed[doc.SourcePath]
		if res == nil {
			return nil, ferrors.InternalError("document has no parse result").
				WithContext("doc", doc.SourcePath).
				Build()
		}

		page := &Page{
			Doc:        doc,
			Parse:      res,
			Title:      pageTitle(doc, res),
			OutputPath: outputPath(doc.SourcePath, doc.IsIndex(), cfg.PrettyURLs),
		}
		page.URL = pageURL(page.OutputPath, cfg.PrettyURLs)

		if other, exists := g.byURL[page.URL]; exists {
			return nil, ferrors.ValidationError("two documents map to the same output location").
				WithContext("doc", doc.SourcePath).
				WithContext("other", other.Doc.SourcePath).
				WithContext("url", page.URL).
				Build()
		}

		g.Pages = append(g.Pages, page)
		g.bySource[doc.SourcePath] = page
		g.byURL[page.URL] = page
	}

	for _, asset := range set.Assets {
		g.assetURL[asset.SourcePath] = "/" + assetOutputPath(asset.SourcePath, asset.Fingerprint)
	}

	nav, err := buildNav(g, reporter)
	if err != nil {
		return nil, err
	}
	g.Nav = nav
	linkSequence(nav)

	resolveLinks(g, cfg, reporter)

	slog.Debug("site graph built",
		logfields.Count(len(g.Pages)),
		slog.Int("assets", len(set.Assets)))
	return g, nil
}

// pageTitle picks the display title: explicit front matter wins, then the
// first top-level heading, then the file name.
func pageTitle(doc *source.Document, res *markup.Result) string {
	if doc.Meta.Title != "" {
		return doc.Meta.Title
	}
	for _, h := range res.Outline {
		if h.Level == 1 {
			return h.Title
		}
	}
	if doc.IsIndex() {
		if dir := doc.Dir(); dir != "" {
			return titleFromName(dir)
		}
	}
	return titleFromName(doc.SourcePath)
}
