// Package search maintains a full-text index over the rendered site. The
// index lives in memory and is rebuilt together with the site graph, so it
// can be swapped atomically alongside the snapshot it describes.
package search

import (
	"log/slog"

	"github.com/blevesearch/bleve/v2"

	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/markup"
	"git.home.luguber.info/inful/sitebuild/internal/site"
)

// entry is the indexed shape of one page.
type entry struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Result is one query hit.
type Result struct {
	Path  string
	Title string
	URL   string
	Score float64
}

// Index wraps one immutable in-memory index generation.
type Index struct {
	idx bleve.Index
}

// BuildIndex indexes every page of the graph. Hidden pages are included;
// they are reachable by URL even though the nav omits them.
func BuildIndex(g *site.Graph) (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, ferrors.InternalError("create search index").WithCause(err).Build()
	}

	batch := idx.NewBatch()
	for _, page := range g.Pages {
		e := entry{
			Title: page.Title,
			Body:  markup.PlainText(page.Parse),
			URL:   page.URL,
		}
		if err := batch.Index(page.Doc.SourcePath, e); err != nil {
			_ = idx.Close()
			return nil, ferrors.InternalError("index page").
				WithContext("doc", page.Doc.SourcePath).
				WithCause(err).
				Build()
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, ferrors.InternalError("commit search batch").WithCause(err).Build()
	}

	slog.Debug("search index built", logfields.Count(len(g.Pages)))
	return &Index{idx: idx}, nil
}

// Query runs a match query and returns up to limit hits, best first.
func (i *Index) Query(q string, limit int) ([]Result, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(q))
	req.Size = limit
	req.Fields = []string{"title", "url"}

	res, err := i.idx.Search(req)
	if err != nil {
		return nil, ferrors.InternalError("search query failed").WithCause(err).Build()
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := Result{Path: hit.ID, Score: hit.Score}
		if title, ok := hit.Fields["title"].(string); ok {
			r.Title = title
		}
		if url, ok := hit.Fields["url"].(string); ok {
			r.URL = url
		}
		results = append(results, r)
	}
	return results, nil
}

// Close releases the index. Safe on nil.
func (i *Index) Close() error {
	if i == nil || i.idx == nil {
		return nil
	}
	return i.idx.Close()
}
