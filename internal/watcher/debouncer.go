package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid file events so one repository update does not
// trigger a cache rebuild per touched file. Events for the same path
// within the debounce window are merged according to these rules:
//   - CREATE + MODIFY = CREATE (file is still new)
//   - CREATE + DELETE = nothing (file never really existed)
//   - MODIFY + DELETE = DELETE (file is gone)
//   - DELETE + CREATE = MODIFY (file was replaced)
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]*pendingChange
	timer   *time.Timer
	output  chan []FileEvent
	stopped bool
}

type pendingChange struct {
	event FileEvent
	// firstOp anchors the coalescing rules to the first observed
	// operation for the path.
	firstOp Operation
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*pendingChange),
		output:  make(chan []FileEvent, 8),
	}
}

// Add records an event, merging it with a pending event for the same path.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[event.Path]; ok {
		merged := coalesce(existing.firstOp, existing.event, event)
		if merged == nil {
			delete(d.pending, event.Path)
		} else {
			existing.event = *merged
		}
	} else {
		d.pending[event.Path] = &pendingChange{event: event, firstOp: event.Operation}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// coalesce merges a new event into the pending one for the same path.
// A nil result means the two cancelled each other out.
func coalesce(firstOp Operation, current, next FileEvent) *FileEvent {
	switch firstOp {
	case OpCreate:
		switch next.Operation {
		case OpModify:
			return &current
		case OpDelete:
			return nil
		}
	case OpDelete:
		if next.Operation == OpCreate {
			next.Operation = OpModify
			return &next
		}
	}
	return &next
}

// flush emits all pending events as one batch.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	events := make([]FileEvent, 0, len(d.pending))
	for _, pc := range d.pending {
		events = append(events, pc.event)
	}
	d.pending = make(map[string]*pendingChange)

	select {
	case d.output <- events:
	default:
		slog.Warn("debouncer output full, dropping batch",
			slog.Int("batch_size", len(events)))
	}
}

// Output returns the channel of debounced event batches.
func (d *Debouncer) Output() <-chan []FileEvent {
	return d.output
}

// Stop stops the debouncer and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
