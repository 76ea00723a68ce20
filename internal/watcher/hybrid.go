package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HybridWatcher implements the Watcher interface using fsnotify as the
// primary mechanism with polling as a fallback.
type HybridWatcher struct {
	fsWatcher      *fsnotify.Watcher
	pollWatcher    *PollingWatcher
	useFsnotify    bool
	debouncer      *Debouncer
	events         chan []FileEvent
	errors         chan error
	stopCh         chan struct{}
	roots          []string
	opts           Options
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a watcher with the given options. It attempts to
// use fsnotify and falls back to polling if the platform refuses.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		h.fsWatcher = fsw
		h.useFsnotify = true
	} else {
		slog.Debug("fsnotify unavailable, using polling fallback",
			slog.String("error", err.Error()))
		h.pollWatcher = NewPollingWatcher(opts.PollInterval)
	}

	return h, nil
}

// Start watches the given metadata roots until the context is cancelled or
// Stop is called. It blocks for the lifetime of the watcher.
func (h *HybridWatcher) Start(ctx context.Context, roots []string) error {
	if len(roots) == 0 {
		return fmt.Errorf("no roots to watch")
	}

	abs := make([]string, 0, len(roots))
	for _, root := range roots {
		a, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolve root %s: %w", root, err)
		}
		abs = append(abs, a)
	}

	h.mu.Lock()
	h.roots = abs
	h.mu.Unlock()

	go h.forwardDebouncedEvents(ctx)

	if h.useFsnotify {
		return h.startFsnotify(ctx)
	}
	return h.startPolling(ctx)
}

// startFsnotify runs the fsnotify event loop.
func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	for _, root := range h.roots {
		h.addRecursive(root)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

// startPolling runs the polling fallback, forwarding its events through the
// debouncer.
func (h *HybridWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case event, ok := <-h.pollWatcher.Events():
				if !ok {
					return
				}
				h.debouncer.Add(event)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	return h.pollWatcher.Start(ctx, h.roots)
}

// handleFsnotifyEvent converts an fsnotify event, filters out paths that
// cannot affect metadata, and feeds the debouncer.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	// Stat only answers for paths that still exist; deletes fall through
	// with isDir=false, which matches how the debouncer treats them.
	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	if !InterestingPath(event.Name, isDir) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		// Watch directories created after startup, e.g. a catalog dir
		// appearing with the first installed repository.
		if isDir {
			h.addRecursive(event.Name)
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod and unknown ops do not change metadata contents.
		return
	}

	h.debouncer.Add(FileEvent{
		Path:      event.Name,
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// forwardDebouncedEvents moves debounced batches to the output channel.
func (h *HybridWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case events, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			if len(events) == 0 {
				continue
			}
			h.emitEvents(events)
		}
	}
}

// addRecursive adds root and every directory below it to the fsnotify
// watcher. Roots that do not exist yet are skipped; fsnotify cannot watch a
// missing directory, so such roots are only covered once recreated under an
// already watched parent or via a fresh Start.
func (h *HybridWatcher) addRecursive(root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return h.fsWatcher.Add(path)
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("could not watch root",
			slog.String("root", root),
			slog.String("error", err.Error()))
	}
}

// emitEvents sends a batch to the output channel without blocking.
func (h *HybridWatcher) emitEvents(events []FileEvent) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	select {
	case h.events <- events:
	default:
		count := h.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count),
		)
	}
}

// DroppedBatches returns the number of batches dropped due to a full buffer.
func (h *HybridWatcher) DroppedBatches() uint64 {
	return h.droppedBatches.Load()
}

// emitError sends an error to the error channel without blocking.
func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources. Safe to call multiple
// times.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}

	h.stopped = true
	close(h.stopCh)

	h.debouncer.Stop()

	if h.useFsnotify && h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.events)
	close(h.errors)
	return nil
}

// Events returns the channel of batched file events.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.events
}

// Errors returns the channel of errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// IsHealthy reports whether the watcher is still running.
func (h *HybridWatcher) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.stopped
}

// WatcherType returns "fsnotify" or "polling" depending on the mechanism in
// use.
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// Roots returns the watched metadata roots.
func (h *HybridWatcher) Roots() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.roots...)
}
