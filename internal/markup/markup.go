// Package markup parses document bodies into node trees and extracts the
// structural facts (heading outline, link references, asset references) the
// site resolver needs. Parsing is a fixed, deterministic pipeline: block
// handlers first, then inline handlers, each in a constant priority order, so
// identical input always yields an identical tree.
package markup

import (
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuild/internal/markup/slug"
)

// Extension names accepted in configuration. The evaluation order is fixed
// regardless of the order they are enabled in.
const (
	ExtTable         = "table"
	ExtStrikethrough = "strikethrough"
	ExtTaskList      = "tasklist"
	ExtAdmonition    = "admonition"
	ExtEmoji         = "emoji"
	ExtFigure        = "figure"
)

var orderedExtensions = []struct {
	name string
	ext  goldmark.Extender
}{
	{ExtTable, extension.Table},
	{ExtStrikethrough, extension.Strikethrough},
	{ExtTaskList, extension.TaskList},
	{ExtAdmonition, AdmonitionExtension},
	{ExtEmoji, EmojiExtension},
	{ExtFigure, FigureExtension},
}

// Parser converts raw document bodies into Results. It is safe for
// concurrent use; each Parse call uses its own parse context.
type Parser struct {
	md goldmark.Markdown
}

// NewParser builds a parser with the named extensions enabled. An empty list
// enables all of them.
func NewParser(extensions []string) *Parser {
	enabled := map[string]bool{}
	for _, name := range extensions {
		enabled[name] = true
	}

	var exts []goldmark.Extender
	for _, e := range orderedExtensions {
		if len(extensions) == 0 || enabled[e.name] {
			exts = append(exts, e.ext)
		}
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Parser{md: md}
}

// Heading is one entry of a document's outline.
type Heading struct {
	Level int
	Title string
	ID    string
}

// LinkRef is an outbound reference found in a document. It stays unresolved
// until the site resolver classifies it.
type LinkRef struct {
	Destination string
	Line        int // 1-based, 0 when unknown
	IsImage     bool
}

// Degradation records a malformed construct that fell back to literal text.
type Degradation struct {
	Message string
	Line    int
}

// Result is the parse product for one document.
type Result struct {
	// AST is the parsed tree. It is owned exclusively by the document that
	// produced it; the resolver may rewrite link destinations in place.
	AST ast.Node

	// Source is the byte slice the tree's segments refer to.
	Source []byte

	Outline      []Heading
	Anchors      map[string]struct{}
	Links        []LinkRef
	Assets       []string
	Degradations []Degradation
}

// Parse converts one document body. It never fails the whole document:
// malformed constructs degrade to literal text and are reported in
// Result.Degradations.
func (p *Parser) Parse(source []byte) *Result {
	head, tailFence := splitTrailingFence(source)

	pc := parser.NewContext(parser.WithIDs(slug.NewIDs()))
	root := p.md.Parser().Parse(text.NewReader(head), parser.WithContext(pc))

	res := extractFacts(root, head)
	res.AST = root
	res.Source = head

	if tailFence != nil {
		para := ast.NewParagraph()
		para.AppendChild(para, ast.NewString(append([]byte(nil), tailFence...)))
		root.AppendChild(root, para)
		res.Degradations = append(res.Degradations, Degradation{
			Message: "unterminated code fence rendered as literal text",
			Line:    lineAt(source, len(head)),
		})
	}

	return res
}

// Render writes the final HTML for a parsed document.
func (p *Parser) Render(w io.Writer, res *Result) error {
	if err := p.md.Renderer().Render(w, res.Source, res.AST); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryMarkup, "render node tree").Build()
	}
	return nil
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	line := 1
	for _, c := range source[:offset] {
		if c == '\n' {
			line++
		}
	}
	return line
}
