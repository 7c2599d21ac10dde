package markup

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Figure wraps an image that stands alone in a paragraph, adding a caption
// from the image title (preferred) or its alt text.
type Figure struct {
	ast.BaseBlock

	Caption []byte
}

// KindFigure is the node kind of Figure.
var KindFigure = ast.NewNodeKind("Figure")

func (n *Figure) Kind() ast.NodeKind { return KindFigure }

func (n *Figure) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Caption": string(n.Caption)}, nil)
}

type figureTransformer struct{}

func (t *figureTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var candidates []*ast.Paragraph
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		para, ok := child.(*ast.Paragraph)
		if !ok || para.ChildCount() != 1 {
			continue
		}
		if _, ok := para.FirstChild().(*ast.Image); ok {
			candidates = append(candidates, para)
		}
	}

	for _, para := range candidates {
		img := para.FirstChild().(*ast.Image)

		caption := img.Title
		if len(caption) == 0 {
			caption = []byte(nodeText(img, source))
		}

		fig := &Figure{Caption: caption}
		para.RemoveChild(para, img)
		fig.AppendChild(fig, img)
		doc.ReplaceChild(doc, para, fig)
	}
}

type figureHTMLRenderer struct{}

func (r *figureHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindFigure, r.render)
}

func (r *figureHTMLRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Figure)
	if entering {
		_, _ = w.WriteString("<figure>\n")
	} else {
		if len(n.Caption) > 0 {
			_, _ = w.WriteString("<figcaption>")
			_, _ = w.Write(util.EscapeHTML(n.Caption))
			_, _ = w.WriteString("</figcaption>\n")
		}
		_, _ = w.WriteString("</figure>\n")
	}
	return ast.WalkContinue, nil
}

type figureExtension struct{}

// FigureExtension promotes standalone images to figures with captions.
var FigureExtension goldmark.Extender = &figureExtension{}

func (e *figureExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&figureTransformer{}, 900),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&figureHTMLRenderer{}, 500),
	))
}
