package markup

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Admonition is a callout block introduced by a `!!!` marker line:
//
//	!!! note "Optional custom title"
//	    indented body content
//
// The body is regular block content indented by four spaces.
type Admonition struct {
	ast.BaseBlock

	// AdmonitionType is the keyword after the marker, e.g. "note", "warning".
	AdmonitionType []byte

	// Title is the custom title, or nil to use the capitalized type.
	Title []byte
}

// KindAdmonition is the node kind of Admonition.
var KindAdmonition = ast.NewNodeKind("Admonition")

func (n *Admonition) Kind() ast.NodeKind { return KindAdmonition }

func (n *Admonition) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Type":  string(n.AdmonitionType),
		"Title": string(n.Title),
	}, nil)
}

var admonitionOpenRe = regexp.MustCompile(`^!!!\s+([A-Za-z][A-Za-z0-9_-]*)(?:\s+"([^"]*)")?\s*$`)

const admonitionIndent = 4

type admonitionParser struct{}

func (p *admonitionParser) Trigger() []byte {
	return []byte{'!'}
}

func (p *admonitionParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos > 3 {
		return nil, parser.NoChildren
	}
	rest := line[pos:]
	if !bytes.HasPrefix(rest, []byte("!!!")) {
		return nil, parser.NoChildren
	}

	m := admonitionOpenRe.FindSubmatch(bytes.TrimRight(rest, "\r\n"))
	if m == nil {
		// Malformed marker line; let it fall through as a paragraph.
		return nil, parser.NoChildren
	}

	node := &Admonition{AdmonitionType: m[1]}
	if len(m[2]) > 0 {
		node.Title = m[2]
	}
	reader.Advance(segment.Len() - 1)
	return node, parser.HasChildren
}

func (p *admonitionParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, _ := reader.PeekLine()
	if util.IsBlank(line) {
		return parser.Continue | parser.HasChildren
	}
	pos, padding := util.IndentPosition(line, reader.LineOffset(), admonitionIndent)
	if pos < 0 {
		return parser.Close
	}
	reader.AdvanceAndSetPadding(pos, padding)
	return parser.Continue | parser.HasChildren
}

func (p *admonitionParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *admonitionParser) CanInterruptParagraph() bool { return true }

func (p *admonitionParser) CanAcceptIndentedLine() bool { return false }

type admonitionHTMLRenderer struct{}

func (r *admonitionHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAdmonition, r.render)
}

func (r *admonitionHTMLRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Admonition)
	if entering {
		_, _ = w.WriteString(`<div class="admonition `)
		_, _ = w.Write(util.EscapeHTML(n.AdmonitionType))
		_, _ = w.WriteString("\">\n")
		_, _ = w.WriteString(`<p class="admonition-title">`)
		if n.Title != nil {
			_, _ = w.Write(util.EscapeHTML(n.Title))
		} else {
			_, _ = w.Write(util.EscapeHTML(capitalize(n.AdmonitionType)))
		}
		_, _ = w.WriteString("</p>\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

func capitalize(b []byte) []byte {
	if len(b) == 0 {
		return b
	}
	out := make([]byte, len(b))
	copy(out, b)
	if out[0] >= 'a' && out[0] <= 'z' {
		out[0] -= 'a' - 'A'
	}
	return out
}

type admonitionExtension struct{}

// AdmonitionExtension enables `!!!` callout blocks.
var AdmonitionExtension goldmark.Extender = &admonitionExtension{}

func (e *admonitionExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&admonitionParser{}, 799),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&admonitionHTMLRenderer{}, 500),
	))
}
