package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuild/internal/buildcache"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/diag"
	"git.home.luguber.info/inful/sitebuild/internal/gitmeta"
	"git.home.luguber.info/inful/sitebuild/internal/livereload"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/markup"
	"git.home.luguber.info/inful/sitebuild/internal/metrics"
	"git.home.luguber.info/inful/sitebuild/internal/render"
	"git.home.luguber.info/inful/sitebuild/internal/search"
	"git.home.luguber.info/inful/sitebuild/internal/site"
	"git.home.luguber.info/inful/sitebuild/internal/source"
)

// Options carries the optional collaborators of a Coordinator. Zero values
// select no-op implementations.
type Options struct {
	Store      *buildcache.Store
	Recorder   metrics.Recorder
	Notifier   livereload.Notifier
	Git        *gitmeta.Provider
	LiveReload bool
}

// Coordinator runs build cycles and publishes snapshots. Build calls are
// serialized; a call arriving while a cycle runs cancels the running cycle,
// which finishes with OutcomeSuperseded.
type Coordinator struct {
	cfg      *config.Config
	parser   *markup.Parser
	engine   *render.Engine
	store    *buildcache.Store
	recorder metrics.Recorder
	notifier livereload.Notifier
	git      *gitmeta.Provider

	holder Holder
	state  stateMachine

	cancelMu      sync.Mutex
	cancelCurrent context.CancelFunc
	runMu         sync.Mutex
}

// NewCoordinator wires a coordinator from configuration.
func NewCoordinator(cfg *config.Config, opts Options) (*Coordinator, error) {
	parser := markup.NewParser(cfg.Extensions)
	engine, err := render.NewEngine(cfg, parser)
	if err != nil {
		return nil, err
	}
	engine.LiveReload = opts.LiveReload

	c := &Coordinator{
		cfg:      cfg,
		parser:   parser,
		engine:   engine,
		store:    opts.Store,
		recorder: opts.Recorder,
		notifier: opts.Notifier,
		git:      opts.Git,
	}
	if c.recorder == nil {
		c.recorder = metrics.NoopRecorder{}
	}
	if c.notifier == nil {
		c.notifier = livereload.Discard{}
	}
	return c, nil
}

// Snapshot returns the current published snapshot, nil before the first
// successful cycle.
func (c *Coordinator) Snapshot() *Snapshot {
	return c.holder.Current()
}

// State reports the coordinator's lifecycle phase.
func (c *Coordinator) State() State {
	return c.state.get()
}

// Build runs one cycle to completion. It cancels any cycle already in
// flight; the superseded cycle reports OutcomeSuperseded and leaves the
// previous snapshot in place.
func (c *Coordinator) Build(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.cancelMu.Lock()
	if c.cancelCurrent != nil {
		c.cancelCurrent()
	}
	c.cancelCurrent = cancel
	c.cancelMu.Unlock()

	c.runMu.Lock()
	defer c.runMu.Unlock()
	defer c.state.set(StateIdle)

	return c.runCycle(ctx)
}

func (c *Coordinator) runCycle(ctx context.Context) (*Report, error) {
	report := &Report{
		CycleID: uuid.NewString(),
		Started: time.Now(),
	}
	log := slog.With(logfields.CycleID(report.CycleID))
	log.Info("build cycle started")

	var diags diag.Collector
	reporter := diag.Multi{&diags, diag.SlogReporter{Logger: log}}

	finish := func(outcome Outcome, err error) (*Report, error) {
		report.Outcome = outcome
		report.Finished = time.Now()
		report.Diagnostics = diags.All()
		c.recorder.ObserveCycleDuration(report.Duration())
		c.recorder.IncCycleOutcome(string(outcome))
		c.recorder.AddBrokenLinks(len(diags.ByKind(diag.KindBrokenLink)))
		c.journal(report)
		log.Info("build cycle finished",
			logfields.Outcome(string(outcome)),
			logfields.Duration(report.Duration()),
			logfields.Count(report.ArtifactsWritten))
		return report, err
	}
	superseded := func() (*Report, error) {
		return finish(OutcomeSuperseded, ctx.Err())
	}

	// Collect.
	c.state.set(StateScanning)
	stageStart := time.Now()
	set, err := source.NewCollector(c.cfg.ContentDir, reporter).Collect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return superseded()
		}
		c.recorder.IncStageResult("collect", metrics.ResultFatal)
		return finish(OutcomeFailed, err)
	}
	c.recorder.ObserveStageDuration("collect", time.Since(stageStart))
	c.recorder.IncStageResult("collect", metrics.ResultSuccess)
	c.recorder.SetDocumentsTotal(len(set.Documents))

	if ctx.Err() != nil {
		return superseded()
	}

	// Parse.
	c.state.set(StateBuilding)
	stageStart = time.Now()
	parsed := c.parseAll(ctx, set, reporter)
	if ctx.Err() != nil {
		return superseded()
	}
	c.recorder.ObserveStageDuration("parse", time.Since(stageStart))

	// Resolve. The graph pass always runs over the full set; incremental
	// builds save render and write work, never resolution correctness.
	stageStart = time.Now()
	graph, err := site.Build(set, parsed, c.cfg, reporter)
	if err != nil {
		c.recorder.IncStageResult("resolve", metrics.ResultFatal)
		return finish(OutcomeFailed, err)
	}
	c.annotateGitMetadata(graph)
	c.recorder.ObserveStageDuration("resolve", time.Since(stageStart))
	c.recorder.IncStageResult("resolve", metrics.ResultSuccess)

	if ctx.Err() != nil {
		return superseded()
	}

	// Decide the render set.
	prev := c.holder.Current()
	navSig := navSignature(graph)
	toRender, removed := c.renderSet(prev, set, graph, navSig, report, log)

	// Render and write.
	stageStart = time.Now()
	written := c.renderAndWrite(ctx, graph, toRender, reporter, report)
	if ctx.Err() != nil {
		return superseded()
	}
	c.copyAssets(set, graph, reporter, report)
	c.removeArtifacts(ctx, prev, removed)
	c.removeStaleAssets(prev, set)
	c.recorder.ObserveStageDuration("render", time.Since(stageStart))
	c.recorder.AddArtifactsWritten(report.ArtifactsWritten)

	// Index.
	idx, err := search.BuildIndex(graph)
	if err != nil {
		log.Warn("search index unavailable this cycle", logfields.Error(err))
	}

	snap := &Snapshot{
		CycleID:      report.CycleID,
		BuiltAt:      time.Now(),
		Set:          set,
		Graph:        graph,
		Index:        idx,
		navSignature: navSig,
		Diagnostics:  diags.All(),
	}
	old := c.holder.publish(snap)
	if old != nil && old.Index != nil && old.Index != idx {
		_ = old.Index.Close()
	}

	report.ChangedURLs = written
	if len(written) > 0 {
		c.notifier.Notify(livereload.Notification{
			CycleID: report.CycleID,
			Changed: written,
		})
	}
	c.persistConfigHash(ctx)

	outcome := OutcomeSuccess
	if len(diags.All()) > 0 {
		outcome = OutcomeWarning
	}
	report.DocsBuilt = len(toRender)
	return finish(outcome, nil)
}

// parseAll parses every document with a bounded worker pool. Results land
// in a map keyed by source path, so output is independent of completion
// order.
func (c *Coordinator) parseAll(ctx context.Context, set *source.Set, reporter diag.Reporter) map[string]*markup.Result {
	parsed := make(map[string]*markup.Result, len(set.Documents))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))

	for _, doc := range set.Documents {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(doc *source.Document) {
			defer wg.Done()
			defer func() { <-sem }()
			res := c.parser.Parse(doc.Body)
			for _, d := range res.Degradations {
				reporter.Report(diag.Diagnostic{
					Kind:    diag.KindMarkup,
					Doc:     doc.SourcePath,
					Line:    d.Line,
					Message: d.Message,
				})
			}
			mu.Lock()
			parsed[doc.SourcePath] = res
			mu.Unlock()
		}(doc)
	}
	wg.Wait()
	return parsed
}

// renderSet picks the pages to render this cycle. A nav-affecting change
// re-renders everything because the nav is embedded in every page; a
// content-only change re-renders the changed documents plus their
// dependents.
func (c *Coordinator) renderSet(prev *Snapshot, set *source.Set, graph *site.Graph, navSig string, report *Report, log *slog.Logger) ([]*site.Page, []string) {
	if prev == nil || navSig != prev.navSignature {
		report.Full = true
		return graph.Pages, removedDocs(prev, set)
	}

	var changedDocs, changedAssets, removedAssets []string
	for _, doc := range set.Documents {
		if old, ok := prev.Set.Document(doc.SourcePath); !ok || old.Fingerprint != doc.Fingerprint {
			changedDocs = append(changedDocs, doc.SourcePath)
		}
	}
	for _, asset := range set.Assets {
		if old, ok := prev.Set.Asset(asset.SourcePath); !ok || old.Fingerprint != asset.Fingerprint {
			changedAssets = append(changedAssets, asset.SourcePath)
		}
	}
	for _, asset := range prev.Set.Assets {
		if _, ok := set.Asset(asset.SourcePath); !ok {
			removedAssets = append(removedAssets, asset.SourcePath)
		}
	}

	invalid := map[string]struct{}{}
	for _, src := range NewDepGraph(graph).Invalidated(changedDocs, changedAssets) {
		invalid[src] = struct{}{}
	}
	// The change itself can drop edges: a removed anchor breaks inbound
	// links, a deleted asset orphans its references. Dependents along
	// those edges exist only in the previous graph, so both graphs are
	// consulted.
	for _, src := range NewDepGraph(prev.Graph).Invalidated(changedDocs, append(changedAssets, removedAssets...)) {
		invalid[src] = struct{}{}
	}

	pages := make([]*site.Page, 0, len(invalid))
	for _, page := range graph.Pages {
		if _, ok := invalid[page.Doc.SourcePath]; ok {
			pages = append(pages, page)
		}
	}
	log.Debug("incremental render set",
		slog.Int("changed_docs", len(changedDocs)),
		slog.Int("changed_assets", len(changedAssets)+len(removedAssets)),
		slog.Int("invalidated", len(pages)))
	return pages, removedDocs(prev, set)
}

func removedDocs(prev *Snapshot, set *source.Set) []string {
	if prev == nil {
		return nil
	}
	var removed []string
	for _, doc := range prev.Set.Documents {
		if _, ok := set.Document(doc.SourcePath); !ok {
			removed = append(removed, doc.SourcePath)
		}
	}
	return removed
}

// renderAndWrite renders the selected pages concurrently. A page that fails
// to render is reported and skipped; the rest of the cycle proceeds.
// Returns the sorted deduplicated URLs whose artifacts were (re)written.
func (c *Coordinator) renderAndWrite(ctx context.Context, graph *site.Graph, pages []*site.Page, reporter diag.Reporter, report *Report) []string {
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))

	changed := map[string]struct{}{}
	var entries []buildcache.ArtifactEntry
	wrote := 0

	for _, page := range pages {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(page *site.Page) {
			defer wg.Done()
			defer func() { <-sem }()

			artifact, err := c.engine.RenderPage(graph, page)
			if err != nil {
				reporter.Report(diag.Diagnostic{
					Kind:    diag.KindRender,
					Doc:     page.Doc.SourcePath,
					Message: err.Error(),
				})
				c.recorder.IncStageResult("render", metrics.ResultWarning)
				return
			}
			render.AuditArtifact(artifact, page.Doc.SourcePath, reporter)

			if c.artifactCurrent(ctx, artifact) {
				return
			}
			if err := render.WriteArtifact(c.cfg.OutputDir, artifact); err != nil {
				reporter.Report(diag.Diagnostic{
					Kind:    diag.KindRender,
					Doc:     page.Doc.SourcePath,
					Message: err.Error(),
				})
				return
			}

			mu.Lock()
			wrote++
			changed[page.URL] = struct{}{}
			entries = append(entries, buildcache.ArtifactEntry{
				Path:        artifact.Path,
				Fingerprint: artifact.Fingerprint,
				Doc:         page.Doc.SourcePath,
			})
			mu.Unlock()
		}(page)
	}
	wg.Wait()

	report.ArtifactsWritten += wrote
	if c.store != nil {
		if err := c.store.PutArtifacts(ctx, entries); err != nil {
			slog.Warn("artifact cache update failed", logfields.Error(err))
		}
	}

	urls := make([]string, 0, len(changed))
	for u := range changed {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// artifactCurrent reports whether the on-disk artifact already has exactly
// these bytes, making the write a no-op.
func (c *Coordinator) artifactCurrent(ctx context.Context, a *render.Artifact) bool {
	if c.store == nil {
		return false
	}
	fp, found, err := c.store.ArtifactFingerprint(ctx, a.Path)
	if err != nil || !found || fp != a.Fingerprint {
		return false
	}
	_, statErr := os.Stat(filepath.Join(c.cfg.OutputDir, filepath.FromSlash(a.Path)))
	return statErr == nil
}

func (c *Coordinator) copyAssets(set *source.Set, graph *site.Graph, reporter diag.Reporter, report *Report) {
	for _, asset := range set.Assets {
		url, ok := graph.AssetURL(asset.SourcePath)
		if !ok {
			continue
		}
		outPath := strings.TrimPrefix(url, "/")
		copied, err := render.CopyAsset(c.cfg.OutputDir, asset, outPath)
		if err != nil {
			reporter.Report(diag.Diagnostic{
				Kind:    diag.KindRender,
				Doc:     asset.SourcePath,
				Message: err.Error(),
			})
			continue
		}
		if copied {
			report.AssetsCopied++
			report.ArtifactsWritten++
		}
	}
}

// removeArtifacts deletes outputs of documents that no longer exist.
func (c *Coordinator) removeArtifacts(ctx context.Context, prev *Snapshot, removed []string) {
	if prev == nil || len(removed) == 0 {
		return
	}
	var paths []string
	for _, src := range removed {
		page, ok := prev.Graph.PageBySource(src)
		if !ok {
			continue
		}
		dest := filepath.Join(c.cfg.OutputDir, filepath.FromSlash(page.OutputPath))
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			slog.Warn("stale artifact removal failed",
				logfields.Artifact(page.OutputPath),
				logfields.Error(err))
			continue
		}
		paths = append(paths, page.OutputPath)
	}
	if c.store != nil {
		if err := c.store.DeleteArtifacts(ctx, paths); err != nil {
			slog.Warn("artifact cache prune failed", logfields.Error(err))
		}
	}
}

// removeStaleAssets deletes asset outputs whose fingerprinted name is no
// longer produced, either because the asset was removed or because new
// content gave it a new name. Without this the output tree accumulates
// every fingerprint an asset ever had.
func (c *Coordinator) removeStaleAssets(prev *Snapshot, set *source.Set) {
	if prev == nil {
		return
	}
	for _, asset := range prev.Set.Assets {
		if cur, ok := set.Asset(asset.SourcePath); ok && cur.Fingerprint == asset.Fingerprint {
			continue
		}
		url, ok := prev.Graph.AssetURL(asset.SourcePath)
		if !ok {
			continue
		}
		outPath := strings.TrimPrefix(url, "/")
		dest := filepath.Join(c.cfg.OutputDir, filepath.FromSlash(outPath))
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			slog.Warn("stale asset removal failed",
				logfields.Artifact(outPath),
				logfields.Error(err))
		}
	}
}

func (c *Coordinator) annotateGitMetadata(graph *site.Graph) {
	if !c.cfg.GitMetadata || !c.git.Enabled() {
		return
	}
	for _, page := range graph.Pages {
		if meta, ok := c.git.Lookup(page.Doc.SourcePath); ok {
			page.LastMod = meta.LastMod
			page.GitCommit = meta.Commit
		}
	}
}

func (c *Coordinator) journal(report *Report) {
	if c.store == nil {
		return
	}
	err := c.store.RecordCycle(context.Background(), buildcache.CycleRecord{
		ID:               report.CycleID,
		Started:          report.Started,
		Finished:         report.Finished,
		Outcome:          string(report.Outcome),
		Full:             report.Full,
		DocsBuilt:        report.DocsBuilt,
		ArtifactsWritten: report.ArtifactsWritten,
	})
	if err != nil {
		slog.Warn("cycle journal write failed", logfields.Error(err))
	}
}

func (c *Coordinator) persistConfigHash(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.SetConfigHash(ctx, c.cfg.Snapshot()); err != nil {
		slog.Warn("config hash persist failed", logfields.Error(err))
	}
}

// navSignature folds every nav-affecting property of the graph into one
// hash. Source paths cover membership, the rest covers titles, ordering
// and structure.
func navSignature(g *site.Graph) string {
	h := sha256.New()
	for _, p := range g.Pages {
		fmt.Fprintf(h, "%s|%s|%d|%s|%t|%t\n",
			p.Doc.SourcePath, p.Title, p.Doc.Meta.Weight,
			p.Doc.Meta.Parent, p.Doc.Meta.Hidden, p.Doc.IsIndex())
	}
	return hex.EncodeToString(h.Sum(nil))
}
