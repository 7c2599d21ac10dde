// Package render produces output artifacts from a site graph: HTML pages
// through the theme templates and verbatim asset copies. Every artifact is
// written atomically, and a failing page never takes down the rest of the
// build.
package render

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"html/template"
	"io/fs"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuild/internal/markup"
	"git.home.luguber.info/inful/sitebuild/internal/site"
)

//go:embed themes
var themesFS embed.FS

// Artifact is one output file, addressed relative to the output root.
type Artifact struct {
	Path        string
	Data        []byte
	Fingerprint string
}

func newArtifact(path string, data []byte) *Artifact {
	sum := sha256.Sum256(data)
	return &Artifact{Path: path, Data: data, Fingerprint: hex.EncodeToString(sum[:])}
}

// Engine renders pages with one theme. It is safe for concurrent use; each
// render works on a clone of the parsed template set.
type Engine struct {
	cfg    *config.Config
	parser *markup.Parser
	tmpl   *template.Template

	// LiveReload injects the reload listener into every page. Only the
	// preview server turns this on.
	LiveReload bool
}

// NewEngine loads the configured theme from the embedded template set.
// An unknown theme name is a configuration error.
func NewEngine(cfg *config.Config, parser *markup.Parser) (*Engine, error) {
	if _, err := fs.Stat(themesFS, "themes/"+cfg.Theme); err != nil {
		return nil, ferrors.ConfigError("unknown theme").
			WithContext("theme", cfg.Theme).
			Build()
	}
	sub, err := fs.Sub(themesFS, "themes/"+cfg.Theme)
	if err != nil {
		return nil, ferrors.InternalError("open theme").WithCause(err).Build()
	}

	tmpl, err := template.New("base.tmpl").
		Funcs(template.FuncMap{"rel": func(string) string { return "" }}).
		ParseFS(sub, "*.tmpl")
	if err != nil {
		return nil, ferrors.ConfigError("theme templates failed to parse").
			WithContext("theme", cfg.Theme).
			WithCause(err).
			Build()
	}

	return &Engine{cfg: cfg, parser: parser, tmpl: tmpl}, nil
}

type siteData struct {
	Title   string
	BaseURL string
}

type pageData struct {
	Site       siteData
	Page       *site.Page
	Nav        *site.NavNode
	Content    template.HTML
	LiveReload bool
}

// RenderPage produces the HTML artifact for one page. Errors are classified
// as render errors so the coordinator can isolate them per document.
func (e *Engine) RenderPage(g *site.Graph, p *site.Page) (*Artifact, error) {
	var body bytes.Buffer
	if err := e.parser.Render(&body, p.Parse); err != nil {
		return nil, ferrors.RenderError("render document body").
			WithContext("doc", p.Doc.SourcePath).
			WithCause(err).
			Build()
	}

	tmpl, err := e.tmpl.Clone()
	if err != nil {
		return nil, ferrors.InternalError("clone theme templates").WithCause(err).Build()
	}
	tmpl = tmpl.Funcs(template.FuncMap{
		"rel": func(target string) string { return site.RelativeURL(target, p.URL) },
	})

	var out bytes.Buffer
	err = tmpl.ExecuteTemplate(&out, "base.tmpl", pageData{
		Site:       siteData{Title: e.cfg.Title, BaseURL: e.cfg.BaseURL},
		Page:       p,
		Nav:        g.Nav,
		Content:    template.HTML(body.String()),
		LiveReload: e.LiveReload,
	})
	if err != nil {
		return nil, ferrors.RenderError("execute theme template").
			WithContext("doc", p.Doc.SourcePath).
			WithContext("artifact", p.OutputPath).
			WithCause(err).
			Build()
	}

	return newArtifact(p.OutputPath, out.Bytes()), nil
}
