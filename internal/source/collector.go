package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitebuild/internal/diag"
	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuild/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// Collector scans a content root for documents and assets.
type Collector struct {
	root     string
	reporter diag.Reporter
}

// NewCollector creates a collector for the given content root. A nil
// reporter discards diagnostics.
func NewCollector(root string, reporter diag.Reporter) *Collector {
	if reporter == nil {
		reporter = diag.Discard{}
	}
	return &Collector{root: root, reporter: reporter}
}

// Collect walks the content root and returns the set of documents and
// assets. Unreadable or malformed files are reported as diagnostics and
// skipped; only a missing root or a failed walk is fatal. Walk order is
// lexical, so repeated scans of the same tree yield identical sets.
func (c *Collector) Collect(ctx context.Context) (*Set, error) {
	info, err := os.Stat(c.root)
	if err != nil {
		return nil, ferrors.FileSystemError("content root not accessible").
			WithContext("root", c.root).
			Fatal().
			Build()
	}
	if !info.IsDir() {
		return nil, ferrors.ConfigError("content root is not a directory").
			WithContext("root", c.root).
			Build()
	}

	set := newSet()

	err = filepath.WalkDir(c.root, func(p string, entry fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			// A vanished or unreadable subtree degrades the scan, it does
			// not abort it.
			c.reporter.Report(diag.Diagnostic{
				Kind:    diag.KindCollection,
				Doc:     c.relPath(p),
				Message: walkErr.Error(),
			})
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") && p != c.root {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		rel := c.relPath(p)
		switch {
		case isMarkdownFile(name):
			c.collectDocument(set, p, rel)
		case isAssetFile(name):
			c.collectAsset(set, p, rel, entry)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk content root").
			WithContext("root", c.root).
			Build()
	}

	slog.Debug("content collected",
		logfields.Path(c.root),
		slog.Int("documents", len(set.Documents)),
		slog.Int("assets", len(set.Assets)))
	return set, nil
}

func (c *Collector) collectDocument(set *Set, absPath, rel string) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		c.reporter.Report(diag.Diagnostic{
			Kind:    diag.KindCollection,
			Doc:     rel,
			Message: "read failed: " + err.Error(),
		})
		return
	}

	doc := &Document{
		SourcePath: rel,
		AbsPath:    absPath,
		Raw:        raw,
		Body:       raw,
	}

	fm, body, had, err := frontmatter.Split(raw)
	if err != nil {
		// Unterminated front matter: treat the whole file as body so the
		// document still renders.
		c.reporter.Report(diag.Diagnostic{
			Kind:    diag.KindCollection,
			Doc:     rel,
			Message: err.Error(),
		})
	} else if had {
		fields, perr := frontmatter.Parse(fm)
		if perr != nil {
			c.reporter.Report(diag.Diagnostic{
				Kind:    diag.KindCollection,
				Doc:     rel,
				Message: "front matter not valid yaml: " + perr.Error(),
			})
			// Keep the body without metadata.
			doc.Body = body
		} else {
			doc.Body = body
			doc.FrontMatter = fields
			doc.HadFrontMatter = true
			doc.Meta = metaFromFields(fields)
		}
	} else {
		doc.Body = body
	}

	var fmText string
	if doc.HadFrontMatter {
		fmText = string(fm)
	}
	doc.Fingerprint = mdfp.CalculateFingerprintFromParts(fmText, string(doc.Body))

	set.addDocument(doc)
}

func (c *Collector) collectAsset(set *Set, absPath, rel string, entry fs.DirEntry) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		c.reporter.Report(diag.Diagnostic{
			Kind:    diag.KindCollection,
			Doc:     rel,
			Message: "read failed: " + err.Error(),
		})
		return
	}

	sum := sha256.Sum256(data)
	asset := &Asset{
		SourcePath:  rel,
		AbsPath:     absPath,
		Fingerprint: hex.EncodeToString(sum[:]),
	}
	if info, ierr := entry.Info(); ierr == nil {
		asset.Size = info.Size()
	}
	set.addAsset(asset)
}

func (c *Collector) relPath(p string) string {
	rel, err := filepath.Rel(c.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func metaFromFields(fields map[string]any) Meta {
	return Meta{
		Title:  frontmatter.String(fields, "title", ""),
		Weight: frontmatter.Int(fields, "weight", 0),
		Parent: frontmatter.String(fields, "parent", ""),
		Hidden: frontmatter.Bool(fields, "hidden", false),
	}
}

func isMarkdownFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}

var assetExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {},
	".webp": {}, ".bmp": {}, ".ico": {},
	".pdf": {},
	".mp4": {}, ".webm": {},
	".css": {}, ".js": {},
	".csv": {}, ".json": {}, ".txt": {},
}

func isAssetFile(name string) bool {
	_, ok := assetExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
