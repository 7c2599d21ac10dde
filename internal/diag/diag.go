// Package diag carries structured diagnostics from the build pipeline to an
// injected reporter. The engine never writes diagnostics to a terminal or log
// file itself; the process entry point decides where they go.
package diag

import (
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// Kind classifies a diagnostic record.
type Kind string

const (
	KindCollection  Kind = "collection" // unreadable source, document skipped
	KindMarkup      Kind = "markup"     // malformed construct degraded to literal text
	KindBrokenLink  Kind = "broken_link"
	KindNavConflict Kind = "nav_conflict"
	KindRender      Kind = "render" // per-document render failure
	KindAudit       Kind = "audit"  // rendered-output audit finding
)

// Diagnostic is one structured record about a document or asset.
type Diagnostic struct {
	Doc     string // source path relative to the content root; may be empty
	Kind    Kind
	Message string
	Line    int // 1-based, 0 when unknown
}

// Reporter receives diagnostics as they are produced. Implementations must be
// safe for concurrent use; parse and render stages run on a worker pool.
type Reporter interface {
	Report(d Diagnostic)
}

// Collector is a Reporter that accumulates diagnostics in memory.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// All returns a copy of the accumulated diagnostics.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// Reset drops accumulated diagnostics, for reuse across build cycles.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = nil
}

// ByKind returns accumulated diagnostics of one kind.
func (c *Collector) ByKind(kind Kind) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Diagnostic
	for _, d := range c.diags {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// SlogReporter forwards diagnostics to a slog.Logger at warn level.
type SlogReporter struct {
	Logger *slog.Logger
}

func (r SlogReporter) Report(d Diagnostic) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn(d.Message,
		logfields.Doc(d.Doc),
		slog.String("kind", string(d.Kind)),
		slog.Int("line", d.Line))
}

// Multi fans a diagnostic out to several reporters.
type Multi []Reporter

func (m Multi) Report(d Diagnostic) {
	for _, r := range m {
		r.Report(d)
	}
}

// Discard drops all diagnostics.
type Discard struct{}

func (Discard) Report(Diagnostic) {}
