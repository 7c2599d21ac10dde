// Package watch turns filesystem activity under the content root into
// rebuild cycles: a recursive watcher feeds a debouncer, the debouncer
// emits coalesced change batches, and the runner turns each batch into one
// build cycle. A batch arriving mid-cycle supersedes the running cycle.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuild/internal/logfields"
)

// Watcher observes the content root recursively and forwards the
// content-root-relative paths of changed files.
type Watcher struct {
	root string
	fsw  *fsnotify.Watcher
}

func NewWatcher(root string) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, ferrors.FileSystemError("resolve content root").
			WithContext("path", root).
			WithCause(err).
			Build()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.NewError(ferrors.CategoryWatch, "create filesystem watcher").
			WithCause(err).
			Build()
	}
	w := &Watcher{root: abs, fsw: fsw}
	if err := w.addDirsRecursive(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run forwards change paths until ctx is done. Newly created directories
// are added to the watch set on the fly.
func (w *Watcher) Run(ctx context.Context, changes chan<- string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev, changes)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event, changes chan<- string) {
	if shouldIgnore(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.addDirsRecursive(ev.Name); err != nil {
				slog.Warn("watch extend failed", logfields.Path(ev.Name), logfields.Error(err))
			}
			return
		}
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	slog.Debug("file change detected",
		logfields.Path(filepath.ToSlash(rel)),
		slog.String("op", ev.Op.String()))

	select {
	case changes <- filepath.ToSlash(rel):
	case <-ctx.Done():
	}
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore filters hidden files and editor temp/swap artifacts.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") {
		return true
	}
	return false
}
