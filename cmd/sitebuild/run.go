package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitebuild/internal/build"
	"git.home.luguber.info/inful/sitebuild/internal/buildcache"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/diag"
	"git.home.luguber.info/inful/sitebuild/internal/gitmeta"
	"git.home.luguber.info/inful/sitebuild/internal/livereload"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/markup"
	"git.home.luguber.info/inful/sitebuild/internal/metrics"
	"git.home.luguber.info/inful/sitebuild/internal/preview"
	"git.home.luguber.info/inful/sitebuild/internal/site"
	"git.home.luguber.info/inful/sitebuild/internal/source"
	"git.home.luguber.info/inful/sitebuild/internal/watch"
)

// runBuild executes exactly one build cycle.
func runBuild(cfg *config.Config) error {
	co, cleanup, err := newCoordinator(cfg, nil, false)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := co.Build(context.Background())
	if err != nil {
		return err
	}
	slog.Info("build complete",
		logfields.Outcome(string(report.Outcome)),
		logfields.Count(report.ArtifactsWritten),
		logfields.Duration(report.Duration()))
	return nil
}

// runServe builds continuously and serves the preview until interrupted.
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := livereload.NewHub()
	notifier := buildNotifier(cfg, hub)

	var recorder metrics.Recorder
	var prom *metrics.PrometheusRecorder
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	co, cleanup, err := newCoordinatorWith(cfg, notifier, recorder, true)
	if err != nil {
		return err
	}
	defer cleanup()

	server := preview.NewServer(cfg, co, hub)
	if prom != nil {
		server.Metrics = prom.Handler()
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- watch.NewRunner(cfg, co, recorder).Run(ctx)
	}()
	go func() {
		errCh <- server.Start(ctx)
	}()

	err = <-errCh
	stop()
	<-errCh
	if err == context.Canceled {
		return nil
	}
	return err
}

// runCheck collects, parses and resolves the content without writing any
// artifact, and returns the number of findings.
func runCheck(cfg *config.Config) (int, error) {
	var diags diag.Collector
	reporter := diag.Multi{&diags, diag.SlogReporter{}}

	set, err := source.NewCollector(cfg.ContentDir, reporter).Collect(context.Background())
	if err != nil {
		return 0, err
	}

	parser := markup.NewParser(cfg.Extensions)
	parsed := make(map[string]*markup.Result, len(set.Documents))
	for _, doc := range set.Documents {
		res := parser.Parse(doc.Body)
		for _, d := range res.Degradations {
			reporter.Report(diag.Diagnostic{
				Kind:    diag.KindMarkup,
				Doc:     doc.SourcePath,
				Line:    d.Line,
				Message: d.Message,
			})
		}
		parsed[doc.SourcePath] = res
	}

	if _, err := site.Build(set, parsed, cfg, reporter); err != nil {
		return len(diags.All()), err
	}
	return len(diags.All()), nil
}

func newCoordinator(cfg *config.Config, notifier livereload.Notifier, liveReload bool) (*build.Coordinator, func(), error) {
	return newCoordinatorWith(cfg, notifier, nil, liveReload)
}

func newCoordinatorWith(cfg *config.Config, notifier livereload.Notifier, recorder metrics.Recorder, liveReload bool) (*build.Coordinator, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var store *buildcache.Store
	if cfg.Cache.Path != "" {
		s, err := buildcache.Open(cfg.Cache.Path)
		if err != nil {
			slog.Warn("build cache unavailable, continuing without it", logfields.Error(err))
		} else {
			store = s
			cleanups = append(cleanups, func() { _ = s.Close() })
		}
	}

	var git *gitmeta.Provider
	if cfg.GitMetadata {
		g, err := gitmeta.Open(cfg.ContentDir)
		if err != nil {
			slog.Warn("git metadata unavailable", logfields.Error(err))
		} else {
			git = g
		}
	}

	co, err := build.NewCoordinator(cfg, build.Options{
		Store:      store,
		Recorder:   recorder,
		Notifier:   notifier,
		Git:        git,
		LiveReload: liveReload,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return co, cleanup, nil
}

// buildNotifier fans reload notifications out to the SSE hub and, when
// configured, a NATS subject for external tooling.
func buildNotifier(cfg *config.Config, hub *livereload.Hub) livereload.Notifier {
	notifiers := livereload.Multi{hub}
	if cfg.LiveReload.NATSURL != "" {
		pub, err := livereload.NewNATSPublisher(cfg.LiveReload.NATSURL, cfg.LiveReload.Subject)
		if err != nil {
			slog.Warn("NATS publisher unavailable", logfields.Error(err))
		} else {
			notifiers = append(notifiers, pub)
		}
	}
	return notifiers
}
