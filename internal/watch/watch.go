// Package watch reruns a function when watched files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned when adding paths to a closed watcher.
var ErrClosed = errors.New("watcher already closed")

// Watcher collects filesystem events for a set of files and directories
// and coalesces bursts of them into single reruns.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	ignore   map[string]bool
	debounce time.Duration
	log      *zap.Logger
	closed   bool
}

// New creates a Watcher. A zero debounce uses DefaultDebounce.
func New(log *zap.Logger, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		ignore:   make(map[string]bool),
		debounce: debounce,
		log:      log,
	}, nil
}

// AddFile watches a single file. Its directory is watched so that editors
// which replace the file by rename are noticed.
func (w *Watcher) AddFile(path string) error {
	if w.closed {
		return ErrClosed
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	w.files[abs] = true
	return nil
}

// AddDir watches every entry of a directory (non-recursively).
func (w *Watcher) AddDir(path string) error {
	if w.closed {
		return ErrClosed
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fsw.Add(abs); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	w.dirs[abs] = true
	return nil
}

// Ignore drops events for path, or for entries of path when it is a
// directory. Use it for outputs of the rerun itself.
func (w *Watcher) Ignore(path string) {
	if path == "" {
		return
	}
	if abs, err := filepath.Abs(path); err == nil {
		w.ignore[abs] = true
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	if w.ignore[name] || w.ignore[filepath.Dir(name)] {
		return false
	}
	return w.files[name] || w.dirs[filepath.Dir(name)]
}

// Run calls fn once, then again after every settled burst of changes,
// until ctx is done. Errors from fn are logged and do not stop watching.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	w.invoke(ctx, fn)

	var (
		timer *time.Timer
		fire  <-chan time.Time
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
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("change detected", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			w.invoke(ctx, fn)
		}
	}
}

func (w *Watcher) invoke(ctx context.Context, fn func(context.Context) error) {
	start := time.Now()
	if err := fn(ctx); err != nil {
		w.log.Error("run failed", zap.Error(err))
		return
	}
	w.log.Info("run finished", zap.Duration("elapsed", time.Since(start)))
}
