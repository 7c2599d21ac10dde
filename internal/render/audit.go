package render

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitebuild/internal/diag"
)

// AuditArtifact inspects a rendered page for structural problems the
// templates or markup pipeline may have produced: empty link or image
// targets and duplicate element ids. Findings are advisory and reported
// through the diagnostic reporter; the artifact still ships.
func AuditArtifact(a *Artifact, doc string, reporter diag.Reporter) {
	root, err := html.Parse(bytes.NewReader(a.Data))
	if err != nil {
		reporter.Report(diag.Diagnostic{
			Kind:    diag.KindAudit,
			Doc:     doc,
			Message: "output is not parseable html: " + err.Error(),
		})
		return
	}

	ids := map[string]struct{}{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				switch {
				case attr.Key == "href" && strings.TrimSpace(attr.Val) == "":
					reporter.Report(diag.Diagnostic{
						Kind:    diag.KindAudit,
						Doc:     doc,
						Message: "empty href in <" + n.Data + ">",
					})
				case attr.Key == "src" && strings.TrimSpace(attr.Val) == "":
					reporter.Report(diag.Diagnostic{
						Kind:    diag.KindAudit,
						Doc:     doc,
						Message: "empty src in <" + n.Data + ">",
					})
				case attr.Key == "id" && attr.Val != "":
					if _, dup := ids[attr.Val]; dup {
						reporter.Report(diag.Diagnostic{
							Kind:    diag.KindAudit,
							Doc:     doc,
							Message: "duplicate element id: " + attr.Val,
						})
					}
					ids[attr.Val] = struct{}{}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}
