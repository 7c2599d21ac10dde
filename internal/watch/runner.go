package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuild/internal/build"
	"git.home.luguber.info/inful/sitebuild/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
	"git.home.luguber.info/inful/sitebuild/internal/metrics"
)

// Runner wires the watcher, the debouncer and the build coordinator into a
// continuous rebuild loop. Each batch triggers one cycle; a batch arriving
// while a cycle runs cancels it, and the fresh cycle picks up all changes
// because every cycle re-collects the content root.
type Runner struct {
	cfg      *config.Config
	co       *build.Coordinator
	recorder metrics.Recorder
}

func NewRunner(cfg *config.Config, co *build.Coordinator, recorder metrics.Recorder) *Runner {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Runner{cfg: cfg, co: co, recorder: recorder}
}

// Run blocks until ctx is done. The initial cycle runs before the watcher
// starts so the first snapshot is available immediately.
func (r *Runner) Run(ctx context.Context) error {
	if _, err := r.co.Build(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("initial build failed", logfields.Error(err))
	}

	watcher, err := NewWatcher(r.cfg.ContentDir)
	if err != nil {
		return err
	}
	defer watcher.Close()

	debouncer, err := NewDebouncer(r.cfg.Watch.QuietWindow, r.cfg.Watch.MaxDelay)
	if err != nil {
		return err
	}

	changes := make(chan string, 256)
	batches := make(chan *build.ChangeSet, 1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = watcher.Run(ctx, changes)
	}()
	go func() {
		defer wg.Done()
		_ = debouncer.Run(ctx, changes, batches)
	}()
	defer wg.Wait()

	scheduler, err := r.startResync(ctx, batches)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	var builds sync.WaitGroup
	defer builds.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch := <-batches:
			r.recorder.SetPendingChanges(batch.Len())
			slog.Info("rebuild triggered", logfields.Count(batch.Len()))

			// Build in its own goroutine so the next batch can supersede
			// the cycle instead of queueing behind it.
			builds.Add(1)
			go func() {
				defer builds.Done()
				report, err := r.co.Build(ctx)
				r.recorder.SetPendingChanges(0)
				if err != nil && report.Outcome != build.OutcomeSuperseded {
					slog.Error("rebuild failed",
						logfields.CycleID(report.CycleID),
						logfields.Error(err))
				}
			}()
		}
	}
}

// startResync schedules a periodic unconditional cycle that catches changes
// the watcher may have missed (network mounts, watch descriptor limits).
func (r *Runner) startResync(ctx context.Context, batches chan<- *build.ChangeSet) (gocron.Scheduler, error) {
	interval := r.cfg.Watch.FullResyncEvery
	if interval <= 0 {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.NewError(ferrors.CategoryWatch, "create resync scheduler").
			WithCause(err).
			Build()
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			cs := build.NewChangeSet()
			cs.Add("resync")
			select {
			case batches <- cs:
			default: // a rebuild is already pending
			}
		}),
		gocron.WithName("full-resync"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, ferrors.NewError(ferrors.CategoryWatch, "schedule resync job").
			WithCause(err).
			Build()
	}
	scheduler.Start()
	slog.Info("periodic resync scheduled", logfields.Duration(interval))
	return scheduler, nil
}
