package markup

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// extractFacts walks a parsed tree once and collects the outline, anchor set,
// link references and asset references. Order follows document order, so the
// output is deterministic for identical input.
func extractFacts(root ast.Node, source []byte) *Result {
	res := &Result{
		Anchors: map[string]struct{}{},
	}

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if id, ok := n.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				res.Anchors[string(b)] = struct{}{}
			}
		}

		switch v := n.(type) {
		case *ast.Heading:
			var id string
			if raw, ok := v.AttributeString("id"); ok {
				if b, ok := raw.([]byte); ok {
					id = string(b)
				}
			}
			res.Outline = append(res.Outline, Heading{
				Level: v.Level,
				Title: nodeText(v, source),
				ID:    id,
			})
		case *ast.Link:
			res.Links = append(res.Links, LinkRef{
				Destination: string(v.Destination),
				Line:        nodeLine(v, source),
			})
		case *ast.AutoLink:
			res.Links = append(res.Links, LinkRef{
				Destination: string(v.URL(source)),
				Line:        nodeLine(v, source),
			})
		case *ast.Image:
			dest := string(v.Destination)
			res.Links = append(res.Links, LinkRef{
				Destination: dest,
				Line:        nodeLine(v, source),
				IsImage:     true,
			})
			if isLocalAsset(dest) {
				res.Assets = append(res.Assets, dest)
			}
		}
		return ast.WalkContinue, nil
	})

	return res
}

// PlainText returns the document's readable text with all markup stripped,
// suitable for indexing.
func PlainText(res *Result) string {
	return nodeText(res.AST, res.Source)
}

// nodeText concatenates the plain text content of a node's subtree.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// nodeLine resolves a 1-based source line for an inline node by locating its
// first text segment, falling back to the nearest block ancestor.
func nodeLine(n ast.Node, source []byte) int {
	if off, ok := firstSegmentStart(n); ok {
		return lineAt(source, off)
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
			return lineAt(source, p.Lines().At(0).Start)
		}
	}
	return 0
}

func firstSegmentStart(n ast.Node) (int, bool) {
	start := -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			start = t.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return start, start >= 0
}

// isLocalAsset reports whether an image destination points at a file the
// build must copy, as opposed to an external URL or an in-page fragment.
func isLocalAsset(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "//") {
		return false
	}
	if strings.HasPrefix(dest, "mailto:") || strings.HasPrefix(dest, "data:") {
		return false
	}
	return true
}
