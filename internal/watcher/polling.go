package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher detects changes by periodically rescanning the metadata
// roots. Used as a fallback when fsnotify is unavailable. Roots that do not
// exist yet are retried every tick, so a catalog directory created after
// Start (first repository install) is picked up without a restart.
type PollingWatcher struct {
	interval  time.Duration
	roots     []string
	fileState map[string]fileSnapshot
	events    chan FileEvent
	errors    chan error
	stopCh    chan struct{}
	mu        sync.RWMutex
	stopped   bool
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPollingWatcher creates a polling watcher with the given scan interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval:  interval,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan FileEvent, 100),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start polls the given roots until the context is cancelled or Stop is
// called.
func (p *PollingWatcher) Start(ctx context.Context, roots []string) error {
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

	// Baseline snapshot so the first tick only reports real changes.
	p.mu.Lock()
	p.roots = abs
	p.fileState = p.snapshotTree()
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChanges()
		}
	}
}

// Stop stops the polling watcher. Safe to call multiple times.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// snapshotTree walks every root and records the state of each path worth
// tracking. Unreadable or missing roots contribute nothing.
func (p *PollingWatcher) snapshotTree() map[string]fileSnapshot {
	current := make(map[string]fileSnapshot, len(p.fileState))
	for _, root := range p.roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !InterestingPath(path, d.IsDir()) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			current[path] = fileSnapshot{
				modTime: info.ModTime(),
				size:    info.Size(),
				isDir:   d.IsDir(),
			}
			return nil
		})
	}
	return current
}

// detectChanges compares the current tree state with the previous scan and
// emits create, modify, and delete events.
func (p *PollingWatcher) detectChanges() {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.snapshotTree()

	for path, snap := range current {
		prev, seen := p.fileState[path]
		switch {
		case !seen:
			p.emitEvent(FileEvent{
				Path:      path,
				Operation: OpCreate,
				IsDir:     snap.isDir,
				Timestamp: time.Now(),
			})
		case prev.modTime != snap.modTime || prev.size != snap.size:
			p.emitEvent(FileEvent{
				Path:      path,
				Operation: OpModify,
				IsDir:     snap.isDir,
				Timestamp: time.Now(),
			})
		}
	}

	for path, snap := range p.fileState {
		if _, exists := current[path]; !exists {
			p.emitEvent(FileEvent{
				Path:      path,
				Operation: OpDelete,
				IsDir:     snap.isDir,
				Timestamp: time.Now(),
			})
		}
	}

	p.fileState = current
}

// emitEvent sends an event without blocking. Must be called with lock held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}

	select {
	case p.events <- event:
	default:
		slog.Warn("polling watcher buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()),
		)
	}
}
