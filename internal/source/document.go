// Package source collects documents and assets from the content root. The
// collector is the only place that touches the content tree on disk; every
// later stage works from the immutable Set it produces.
package source

import (
	"path"
	"strings"
)

// Meta holds the navigation-relevant front matter fields of a document.
type Meta struct {
	Title  string // empty when front matter has no title
	Weight int    // 0 when unset; discovery order breaks ties
	Parent string // explicit nav parent override, source-relative path
	Hidden bool   // excluded from navigation but still rendered
}

// Document is one markdown source file. Raw holds the file exactly as read;
// Body is Raw with the front matter block removed.
type Document struct {
	// SourcePath is slash-separated and relative to the content root. It is
	// the identity of the document across build cycles.
	SourcePath string
	AbsPath    string

	Raw            []byte
	Body           []byte
	FrontMatter    map[string]any
	HadFrontMatter bool
	Meta           Meta

	// Fingerprint changes whenever the content or front matter changes.
	Fingerprint string

	// DiscoveryIndex is the position in collection order, used as the
	// stable tie-break when weights are equal.
	DiscoveryIndex int
}

// IsIndex reports whether the document is the index page of its directory.
func (d *Document) IsIndex() bool {
	base := strings.TrimSuffix(path.Base(d.SourcePath), path.Ext(d.SourcePath))
	return strings.EqualFold(base, "index") || strings.EqualFold(base, "readme")
}

// Dir returns the document's directory relative to the content root, ""
// for the root itself.
func (d *Document) Dir() string {
	dir := path.Dir(d.SourcePath)
	if dir == "." {
		return ""
	}
	return dir
}

// Asset is a non-markdown file that is copied into the output verbatim.
type Asset struct {
	SourcePath  string
	AbsPath     string
	Fingerprint string
	Size        int64
}

// Set is the complete collection result for one scan. It is never mutated
// after Collect returns.
type Set struct {
	Documents []*Document
	Assets    []*Asset

	byPath      map[string]*Document
	assetByPath map[string]*Asset
}

func newSet() *Set {
	return &Set{
		byPath:      map[string]*Document{},
		assetByPath: map[string]*Asset{},
	}
}

func (s *Set) addDocument(d *Document) {
	d.DiscoveryIndex = len(s.Documents)
	s.Documents = append(s.Documents, d)
	s.byPath[d.SourcePath] = d
}

func (s *Set) addAsset(a *Asset) {
	s.Assets = append(s.Assets, a)
	s.assetByPath[a.SourcePath] = a
}

// Document looks a document up by its source-relative path.
func (s *Set) Document(sourcePath string) (*Document, bool) {
	d, ok := s.byPath[sourcePath]
	return d, ok
}

// Asset looks an asset up by its source-relative path.
func (s *Set) Asset(sourcePath string) (*Asset, bool) {
	a, ok := s.assetByPath[sourcePath]
	return a, ok
}
