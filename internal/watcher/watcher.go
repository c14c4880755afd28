// Package watcher re-runs synchronization when the media tree changes.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/vidindex/internal/catalog"
	"github.com/mantonx/vidindex/internal/indexer"
	"github.com/mantonx/vidindex/internal/logger"
	"github.com/mantonx/vidindex/internal/scanner"
)

// Runner performs one synchronization.
type Runner interface {
	Run(ctx context.Context) (*indexer.Report, error)
}

// Watcher turns file system events below a media root into debounced
// synchronization runs. Content changes (writes, chmod) are ignored; only
// entries appearing or disappearing trigger a run.
type Watcher struct {
	root     string
	filter   *scanner.PathFilter
	runner   Runner
	debounce time.Duration
	fsw      *fsnotify.Watcher
	log      hclog.Logger

	// OnReport, when set, receives the report of every completed run.
	OnReport func(*indexer.Report)
}

// New creates a watcher for root. Directories pruned by filter are not
// watched.
func New(root string, filter *scanner.PathFilter, runner Runner, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		filter:   filter,
		runner:   runner,
		debounce: debounce,
		fsw:      fsw,
		log:      logger.Named("watcher"),
	}

	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled or a sync fails fatally.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	w.log.Info("Watching media root", "root", w.root, "debounce", w.debounce)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handle(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("File watcher error", "error", err)

		case <-pending:
			pending = nil
			if err := w.sync(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) sync(ctx context.Context) error {
	report, err := w.runner.Run(ctx)
	switch {
	case err == nil:
		if w.OnReport != nil {
			w.OnReport(report)
		}
		return nil
	case errors.Is(err, indexer.ErrSyncInProgress):
		w.log.Info("Sync already running, skipping change batch")
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	default:
		var writeErr *catalog.CatalogWriteError
		if errors.As(err, &writeErr) || errors.Is(err, scanner.ErrRootNotFound) {
			return err
		}
		w.log.Error("Sync failed", "error", err)
		return nil
	}
}

// handle updates watches for the event and reports whether it should
// trigger a sync.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)

	if w.filter.SkipDir(name) || w.filter.IsJunk(name) {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if err := w.addRecursive(ev.Name); err != nil {
			w.log.Warn("Could not watch new directory", "path", ev.Name, "error", err)
		}
	}

	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// addRecursive watches dir and every non-pruned directory below it. A path
// that is not a directory is ignored.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.root {
				return fmt.Errorf("%w: %v", scanner.ErrRootNotFound, err)
			}
			if path == dir {
				return nil
			}
			w.log.Warn("Could not access directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.filter.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to add watch for %s: %w", path, err)
		}
		return nil
	})
}
