package pool

import (
	"context"
	"errors"
	"log/slog"

	"github.com/swcatalog/swindex/internal/watcher"
)

// startMonitor begins watching the given metadata roots for changes. It is
// a no-op when monitoring already runs.
func (p *Pool) startMonitor(roots []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.monitor != nil || len(roots) == 0 {
		return nil
	}

	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.monitor = w
	p.monitorCancel = cancel
	p.monitorDone = done

	go func() {
		if err := w.Start(ctx, roots); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("metadata watcher stopped", slog.Any("error", err))
		}
	}()
	go p.consumeMonitorEvents(ctx, w, done)

	slog.Debug("monitoring metadata locations", slog.Int("roots", len(roots)))
	return nil
}

// consumeMonitorEvents reacts to debounced change batches: cached query
// results are dropped immediately and a background refresh brings the
// sections up to date. A refresh that finds the lock busy is skipped, the
// holder is already doing the work.
func (p *Pool) consumeMonitorEvents(ctx context.Context, w *watcher.HybridWatcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-w.Events():
			if !ok {
				return
			}
			slog.Debug("metadata changed on disk", slog.Int("events", len(batch)))
			p.invalidateResults()
			go p.refreshInBackground()
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			slog.Warn("metadata watcher error", slog.Any("error", err))
		}
	}
}

// refreshInBackground reloads the pool after a change notification.
func (p *Pool) refreshInBackground() {
	err := p.Load(context.Background())
	switch {
	case err == nil:
	case errors.Is(err, ErrLoadBusy):
		slog.Debug("refresh already running, skipping")
	case errors.Is(err, ErrIncomplete):
		slog.Warn("background refresh incomplete", slog.Any("error", err))
	default:
		slog.Warn("background refresh failed", slog.Any("error", err))
	}
}

// Stop halts change monitoring. The cache and its contents stay usable;
// a later Load starts monitoring again when FlagMonitor is set.
func (p *Pool) Stop() {
	p.mu.Lock()
	w := p.monitor
	cancel := p.monitorCancel
	done := p.monitorDone
	p.monitor = nil
	p.monitorCancel = nil
	p.monitorDone = nil
	p.mu.Unlock()

	if w == nil {
		return
	}
	cancel()
	if err := w.Stop(); err != nil {
		slog.Warn("stopping metadata watcher", slog.Any("error", err))
	}
	<-done
}
