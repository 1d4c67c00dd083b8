// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a split when one of its source files changes.
//
// The watcher registers the parent directory of every watched file, because
// editors commonly replace a file by renaming a temporary copy over it, and
// filters events down to the watched set. Events inside the debounce window
// are coalesced into a single callback.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reqsplit/reqsplit/pkg/fspath"
	"github.com/reqsplit/reqsplit/pkg/types"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// ErrNoFiles is returned by New when there is nothing to watch.
var ErrNoFiles = errors.New("watch: no files to watch")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Files are the files whose changes trigger OnChange.
		Files []types.FilesystemPath

		// Debounce is the quiet period after the last event before OnChange
		// fires.
		Debounce time.Duration

		// OnChange is called with the changed files once the debounce window
		// closes. It returns the file set to watch from then on; a nil slice
		// keeps the current set.
		OnChange func(ctx context.Context, changed []types.FilesystemPath) ([]types.FilesystemPath, error)

		// Stderr receives watcher diagnostics. nil means os.Stderr.
		Stderr io.Writer
	}

	// Watcher monitors a set of files. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		stderr   io.Writer
		debounce time.Duration
		started  atomic.Bool

		mu    sync.Mutex
		files map[types.FilesystemPath]bool
		dirs  map[types.FilesystemPath]bool
	}
)

// New creates a Watcher for cfg.Files.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Files) == 0 {
		return nil, ErrNoFiles
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		stderr:   cfg.Stderr,
		debounce: cfg.Debounce,
		files:    make(map[types.FilesystemPath]bool),
		dirs:     make(map[types.FilesystemPath]bool),
	}
	if w.stderr == nil {
		w.stderr = os.Stderr
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	if err := w.setFiles(cfg.Files); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			fmt.Fprintf(w.stderr, "watch: close after init failure: %v\n", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Files returns the watched files in sorted order.
func (w *Watcher) Files() []types.FilesystemPath {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(maps.Keys(w.files))
}

// Run blocks until ctx is canceled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks. A
// callback in flight completes before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[types.FilesystemPath]struct{})
		timer   *time.Timer
		running atomic.Bool
		stopped atomic.Bool
		// callMu is held for the duration of a callback so Run can wait for
		// it before returning.
		callMu sync.Mutex
	)

	// fire runs at most one callback at a time. A busy callback reschedules
	// itself so pending changes are not dropped.
	fire := func() {
		if ctx.Err() != nil || stopped.Load() {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		callMu.Lock()
		defer callMu.Unlock()
		if stopped.Load() {
			return
		}

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange == nil {
			return
		}
		files, err := w.cfg.OnChange(ctx, changed)
		if err != nil {
			fmt.Fprintf(w.stderr, "watch: callback error: %v\n", err)
		}
		if files != nil {
			if err := w.setFiles(files); err != nil {
				fmt.Fprintf(w.stderr, "watch: %v\n", err)
			}
		}
	}

	defer func() {
		stopped.Store(true)
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		callMu.Lock()
		callMu.Unlock() //nolint:staticcheck // waits for an in-flight callback
		if closeErr := w.fsw.Close(); closeErr != nil {
			fmt.Fprintf(w.stderr, "watch: close fsnotify: %v\n", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}
			path, ok := w.watched(evt.Name)
			if !ok {
				continue
			}

			mu.Lock()
			pending[path] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: fsnotify error: %v\n", err)
		}
	}
}

// setFiles replaces the watched set and registers any new parent directory.
// Directories are never removed, so a file that comes back is noticed.
func (w *Watcher) setFiles(files []types.FilesystemPath) error {
	next := make(map[types.FilesystemPath]bool, len(files))
	for _, f := range files {
		abs, err := fspath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		next[abs] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for f := range next {
		dir := fspath.Dir(f)
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(string(dir)); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files = next
	return nil
}

// watched maps an event path to a watched file.
func (w *Watcher) watched(name string) (types.FilesystemPath, bool) {
	abs, err := fspath.Abs(types.FilesystemPath(name))
	if err != nil {
		return "", false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return abs, w.files[abs]
}
