package build

import (
	"sort"

	"git.home.luguber.info/inful/sitebuild/internal/site"
)

// DepGraph holds the reverse dependency edges of one snapshot: which
// documents must re-render when a given document or asset changes.
type DepGraph struct {
	// dependents maps a document source path to the documents whose output
	// embeds something from it (link targets, anchors).
	dependents map[string][]string
	// assetDependents maps an asset source path to the documents that
	// reference it.
	assetDependents map[string][]string
}

// NewDepGraph derives the reverse edges from the pages' resolved deps.
func NewDepGraph(g *site.Graph) *DepGraph {
	d := &DepGraph{
		dependents:      map[string][]string{},
		assetDependents: map[string][]string{},
	}
	for _, page := range g.Pages {
		src := page.Doc.SourcePath
		for _, dep := range page.DocDeps {
			if dep != src {
				d.dependents[dep] = append(d.dependents[dep], src)
			}
		}
		for _, dep := range page.AssetDeps {
			d.assetDependents[dep] = append(d.assetDependents[dep], src)
		}
	}
	return d
}

// Invalidated computes the set of documents whose output may differ after
// the given documents and assets changed: the changed documents themselves
// plus the transitive closure of their dependents.
func (d *DepGraph) Invalidated(changedDocs, changedAssets []string) []string {
	seen := map[string]struct{}{}
	var queue []string

	for _, doc := range changedDocs {
		if _, dup := seen[doc]; !dup {
			seen[doc] = struct{}{}
			queue = append(queue, doc)
		}
	}
	for _, asset := range changedAssets {
		for _, doc := range d.assetDependents[asset] {
			if _, dup := seen[doc]; !dup {
				seen[doc] = struct{}{}
				queue = append(queue, doc)
			}
		}
	}

	for len(queue) > 0 {
		doc := queue[0]
		queue = queue[1:]
		for _, dep := range d.dependents[doc] {
			if _, dup := seen[dep]; !dup {
				seen[dep] = struct{}{}
				queue = append(queue, dep)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for doc := range seen {
		out = append(out, doc)
	}
	sort.Strings(out)
	return out
}
