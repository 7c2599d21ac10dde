// Package build orchestrates build cycles: collect, parse, resolve, render.
// Each cycle produces an immutable Snapshot that is swapped in atomically;
// readers (the preview server, the search endpoint) always see a complete,
// consistent site or none at all.
package build

import (
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/sitebuild/internal/diag"
	"git.home.luguber.info/inful/sitebuild/internal/search"
	"git.home.luguber.info/inful/sitebuild/internal/site"
	"git.home.luguber.info/inful/sitebuild/internal/source"
)

// Snapshot is the complete result of one successful build cycle. It is
// never mutated after publication.
type Snapshot struct {
	CycleID string
	BuiltAt time.Time

	Set   *source.Set
	Graph *site.Graph
	Index *search.Index

	// navSignature captures everything that feeds the navigation tree. Two
	// snapshots with equal signatures render identical navs.
	navSignature string

	Diagnostics []diag.Diagnostic
}

// Holder publishes snapshots with atomic swap semantics.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// Current returns the latest snapshot, nil before the first successful
// cycle.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// publish swaps in a new snapshot and returns the one it replaced.
func (h *Holder) publish(s *Snapshot) *Snapshot {
	return h.current.Swap(s)
}
