package site

import (
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuild/internal/diag"
	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
)

// NavNode is one entry of the navigation tree. Section nodes carry the
// directory's index page when one exists, otherwise only a derived title.
type NavNode struct {
	Title    string
	Page     *Page
	Parent   *NavNode
	Children []*NavNode

	sortName string
}

// IsSection reports whether the node groups children rather than standing
// for a single leaf page.
func (n *NavNode) IsSection() bool { return len(n.Children) > 0 }

// buildNav assembles the tree from directory structure and front matter.
// Explicit parent overrides are applied after the structural pass; an
// override that names a missing document or forms a cycle is fatal because
// the whole navigation would be wrong on every page.
func buildNav(g *Graph, reporter diag.Reporter) (*NavNode, error) {
	root := &NavNode{}
	dirs := map[string]*NavNode{"": root}

	var ensureDir func(dir string) *NavNode
	ensureDir = func(dir string) *NavNode {
		if n, ok := dirs[dir]; ok {
			return n
		}
		parent := ensureDir(parentDir(dir))
		n := &NavNode{
			Title:    titleFromName(path.Base(dir)),
			Parent:   parent,
			sortName: strings.ToLower(path.Base(dir)),
		}
		parent.Children = append(parent.Children, n)
		dirs[dir] = n
		return n
	}

	for _, page := range g.Pages {
		if page.Doc.Meta.Hidden {
			continue
		}
		if page.Doc.IsIndex() {
			n := ensureDir(page.Doc.Dir())
			n.Page = page
			if page.Doc.Dir() != "" {
				n.Title = page.Title
			}
			page.node = n
			continue
		}
		parent := ensureDir(page.Doc.Dir())
		leaf := &NavNode{
			Title:    page.Title,
			Page:     page,
			Parent:   parent,
			sortName: strings.ToLower(path.Base(page.Doc.SourcePath)),
		}
		parent.Children = append(parent.Children, leaf)
		page.node = leaf
	}

	if err := applyParentOverrides(g, reporter); err != nil {
		return nil, err
	}

	sortTree(root)
	return root, nil
}

func applyParentOverrides(g *Graph, reporter diag.Reporter) error {
	for _, page := range g.Pages {
		override := page.Doc.Meta.Parent
		if override == "" || page.node == nil {
			continue
		}
		if override == page.Doc.SourcePath {
			return navConflict(reporter, page.Doc.SourcePath, override, "document names itself as parent")
		}

		target, ok := g.PageBySource(override)
		if !ok {
			return navConflict(reporter, page.Doc.SourcePath, override, "parent document does not exist")
		}
		if target.node == nil {
			return navConflict(reporter, page.Doc.SourcePath, override, "parent document is hidden")
		}

		detach(page.node)
		page.node.Parent = target.node
		target.node.Children = append(target.node.Children, page.node)

		if hasCycle(page.node) {
			return navConflict(reporter, page.Doc.SourcePath, override, "parent assignment forms a cycle")
		}
	}
	return nil
}

// navConflict records the conflict as a diagnostic before building the
// fatal error, so injected reporters see it alongside the non-fatal records.
func navConflict(reporter diag.Reporter, doc, parent, reason string) error {
	reporter.Report(diag.Diagnostic{
		Kind:    diag.KindNavConflict,
		Doc:     doc,
		Message: "navigation parent conflict: " + reason + ": " + parent,
	})
	return ferrors.ConfigError("navigation parent conflict: "+reason).
		WithContext("doc", doc).
		WithContext("parent", parent).
		Build()
}

func detach(n *NavNode) {
	if n.Parent == nil {
		return
	}
	siblings := n.Parent.Children
	for i, c := range siblings {
		if c == n {
			n.Parent.Children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

func hasCycle(n *NavNode) bool {
	seen := map[*NavNode]struct{}{}
	for cur := n; cur != nil; cur = cur.Parent {
		if _, dup := seen[cur]; dup {
			return true
		}
		seen[cur] = struct{}{}
	}
	return false
}

// sortTree orders every level by weight, breaking ties by name, so the nav
// is stable across rebuilds regardless of discovery order.
func sortTree(n *NavNode) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		wi, wj := nodeWeight(n.Children[i]), nodeWeight(n.Children[j])
		if wi != wj {
			return wi < wj
		}
		return n.Children[i].sortName < n.Children[j].sortName
	})
	for _, c := range n.Children {
		sortTree(c)
	}
}

func nodeWeight(n *NavNode) int {
	if n.Page != nil {
		return n.Page.Doc.Meta.Weight
	}
	return 0
}

// linkSequence threads Prev and Next through the tree in depth-first order,
// the same order a reader paging through the nav would take.
func linkSequence(root *NavNode) {
	var ordered []*Page
	var walk func(n *NavNode)
	walk = func(n *NavNode) {
		if n.Page != nil {
			ordered = append(ordered, n.Page)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)

	for i, p := range ordered {
		if i > 0 {
			p.Prev = ordered[i-1]
		}
		if i < len(ordered)-1 {
			p.Next = ordered[i+1]
		}
	}
}

func parentDir(dir string) string {
	p := path.Dir(dir)
	if p == "." {
		return ""
	}
	return p
}
