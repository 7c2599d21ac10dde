package watch

import (
	"context"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuild/internal/build"
	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
)

// Debouncer coalesces bursts of change paths into change batches:
//   - quiet window: a batch is emitted once no change arrived for QuietWindow
//   - max delay: a batch cannot be postponed past MaxDelay after its first change
type Debouncer struct {
	quietWindow time.Duration
	maxDelay    time.Duration

	mu      sync.Mutex
	pending *build.ChangeSet
}

func NewDebouncer(quietWindow, maxDelay time.Duration) (*Debouncer, error) {
	if quietWindow <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if maxDelay <= 0 {
		return nil, ferrors.ValidationError("max delay must be > 0").Build()
	}
	return &Debouncer{
		quietWindow: quietWindow,
		maxDelay:    maxDelay,
		pending:     build.NewChangeSet(),
	}, nil
}

// Run consumes change paths and emits coalesced batches until ctx is done
// or the changes channel closes. Safe to run as a single goroutine.
func (d *Debouncer) Run(ctx context.Context, changes <-chan string, batches chan<- *build.ChangeSet) error {
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()

	var (
		quietC <-chan time.Time
		maxC   <-chan time.Time
	)

	emit := func() bool {
		d.mu.Lock()
		batch := d.pending
		if batch.Len() == 0 {
			d.mu.Unlock()
			return true
		}
		d.pending = build.NewChangeSet()
		d.mu.Unlock()

		select {
		case batches <- batch:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case path, ok := <-changes:
			if !ok {
				return nil
			}
			d.mu.Lock()
			first := d.pending.Len() == 0
			d.pending.Add(path)
			d.mu.Unlock()

			resetTimer(quietTimer, d.quietWindow)
			quietC = quietTimer.C
			if first {
				resetTimer(maxTimer, d.maxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			if emit() {
				quietC = nil
				maxC = nil
			}

		case <-maxC:
			if emit() {
				quietC = nil
				maxC = nil
			}
		}
	}
}

// Pending reports the number of coalesced paths not yet emitted.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending.Len()
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
