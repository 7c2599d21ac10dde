package site

import (
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/diag"
)

// resolveLinks classifies every local link and image in the graph, rewrites
// resolvable destinations to output URLs, and degrades broken ones in place.
// Broken links are never fatal; the page still renders.
func resolveLinks(g *Graph, cfg *config.Config, reporter diag.Reporter) {
	r := &resolver{
		g:          g,
		policy:     cfg.LinkPolicy,
		brokenText: cfg.BrokenLinkText,
		reporter:   reporter,
	}
	for _, page := range g.Pages {
		r.resolvePage(page)
	}
}

type resolver struct {
	g          *Graph
	policy     config.LinkPolicy
	brokenText string
	reporter   diag.Reporter
}

func (r *resolver) resolvePage(page *Page) {
	// Collect first, then mutate: unwrapping a node during the walk would
	// invalidate the walker's position.
	var links []*ast.Link
	var images []*ast.Image
	_ = ast.Walk(page.Parse.AST, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			links = append(links, v)
		case *ast.Image:
			images = append(images, v)
		}
		return ast.WalkContinue, nil
	})

	lines := lineIndex(page)
	docDeps := map[string]struct{}{}
	assetDeps := map[string]struct{}{}

	for _, img := range images {
		dest := string(img.Destination)
		if !isLocalDestination(dest) {
			continue
		}
		if url, src, ok := r.lookupAsset(page, dest); ok {
			img.Destination = []byte(relativeURL(url, page.URL))
			assetDeps[src] = struct{}{}
			continue
		}
		r.reportBroken(page, dest, lines[refKey{dest: dest, image: true}], "image target not found")
	}

	for _, link := range links {
		dest := string(link.Destination)
		if !isLocalDestination(dest) {
			continue
		}
		target, frag := splitFragment(dest)

		if target == "" {
			// Fragment-only link into the same page.
			if _, ok := page.Parse.Anchors[frag]; !ok {
				r.reportBroken(page, dest, lines[refKey{dest: dest}], "no such anchor in this page")
				r.degrade(link)
			}
			continue
		}

		if tp, ok := r.lookupDoc(page, target); ok {
			if frag != "" {
				if _, has := tp.Parse.Anchors[frag]; !has {
					r.reportBroken(page, dest, lines[refKey{dest: dest}], "anchor not found in target")
					r.degrade(link)
					continue
				}
			}
			url := relativeURL(tp.URL, page.URL)
			if frag != "" {
				url += "#" + frag
			}
			link.Destination = []byte(url)
			docDeps[tp.Doc.SourcePath] = struct{}{}
			continue
		}

		if url, src, ok := r.lookupAsset(page, target); ok {
			link.Destination = []byte(relativeURL(url, page.URL))
			assetDeps[src] = struct{}{}
			continue
		}

		r.reportBroken(page, dest, lines[refKey{dest: dest}], "link target not found")
		r.degrade(link)
	}

	page.DocDeps = sortedKeys(docDeps)
	page.AssetDeps = sortedKeys(assetDeps)
}

// lookupDoc tries the configured resolution order: the page's own directory
// and the content root first in policy order, then the closest unique
// suffix match across the whole set.
func (r *resolver) lookupDoc(page *Page, dest string) (*Page, bool) {
	relative := path.Clean(path.Join(page.Doc.Dir(), dest))
	rooted := path.Clean(strings.TrimPrefix(dest, "/"))

	order := []string{relative, rooted}
	if r.policy == config.LinkPolicyRootFirst || strings.HasPrefix(dest, "/") {
		order = []string{rooted, relative}
	}

	for _, candidate := range order {
		if p, ok := r.docAt(candidate); ok {
			return p, true
		}
	}
	return r.suffixMatch(dest)
}

// docAt resolves one candidate path, accepting the bare path, the path with
// a markdown extension, or the candidate as a directory with an index page.
func (r *resolver) docAt(candidate string) (*Page, bool) {
	if candidate == "." || candidate == "" || strings.HasPrefix(candidate, "..") {
		return nil, false
	}
	tries := []string{
		candidate,
		candidate + ".md",
		candidate + "/index.md",
		candidate + "/README.md",
	}
	for _, t := range tries {
		if p, ok := r.g.PageBySource(t); ok {
			return p, true
		}
	}
	return nil, false
}

// suffixMatch finds documents whose source path ends with the destination.
// The deepest candidate wins; remaining ties break lexicographically so the
// result never depends on map order.
func (r *resolver) suffixMatch(dest string) (*Page, bool) {
	dest = strings.TrimPrefix(dest, "/")
	if dest == "" {
		return nil, false
	}
	withExt := dest
	if path.Ext(withExt) == "" {
		withExt += ".md"
	}

	var candidates []*Page
	for _, p := range r.g.Pages {
		sp := p.Doc.SourcePath
		if sp == withExt || strings.HasSuffix(sp, "/"+withExt) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		di := strings.Count(candidates[i].Doc.SourcePath, "/")
		dj := strings.Count(candidates[j].Doc.SourcePath, "/")
		if di != dj {
			return di > dj
		}
		return candidates[i].Doc.SourcePath < candidates[j].Doc.SourcePath
	})
	return candidates[0], true
}

func (r *resolver) lookupAsset(page *Page, dest string) (url, src string, ok bool) {
	target, _ := splitFragment(dest)
	relative := path.Clean(path.Join(page.Doc.Dir(), target))
	rooted := path.Clean(strings.TrimPrefix(target, "/"))

	for _, candidate := range []string{relative, rooted} {
		if _, exists := r.g.Set.Asset(candidate); exists {
			if u, has := r.g.AssetURL(candidate); has {
				return u, candidate, true
			}
		}
	}
	return "", "", false
}

func (r *resolver) reportBroken(page *Page, dest string, line int, reason string) {
	r.reporter.Report(diag.Diagnostic{
		Kind:    diag.KindBrokenLink,
		Doc:     page.Doc.SourcePath,
		Line:    line,
		Message: reason + ": " + dest,
	})
}

// degrade strips a broken link down to text. With a configured replacement
// the whole link becomes that text; otherwise the link's own text survives
// without the anchor.
func (r *resolver) degrade(link *ast.Link) {
	parent := link.Parent()
	if parent == nil {
		return
	}
	if r.brokenText != "" {
		parent.ReplaceChild(parent, link, ast.NewString([]byte(r.brokenText)))
		return
	}
	for c := link.FirstChild(); c != nil; {
		next := c.NextSibling()
		parent.InsertBefore(parent, link, c)
		c = next
	}
	parent.RemoveChild(parent, link)
}

// refKey distinguishes a link from an image with the same destination, so
// diagnostics point at the right line when both appear in one document.
type refKey struct {
	dest  string
	image bool
}

func lineIndex(page *Page) map[refKey]int {
	idx := make(map[refKey]int, len(page.Parse.Links))
	for _, l := range page.Parse.Links {
		key := refKey{dest: l.Destination, image: l.IsImage}
		if _, seen := idx[key]; !seen {
			idx[key] = l.Line
		}
	}
	return idx
}

func splitFragment(dest string) (string, string) {
	if i := strings.Index(dest, "#"); i >= 0 {
		return dest[:i], dest[i+1:]
	}
	return dest, ""
}

func isLocalDestination(dest string) bool {
	if dest == "" {
		return false
	}
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "//") {
		return false
	}
	if strings.HasPrefix(dest, "mailto:") || strings.HasPrefix(dest, "data:") || strings.HasPrefix(dest, "tel:") {
		return false
	}
	return true
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
