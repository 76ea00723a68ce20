package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed change below a watched metadata root.
type FileEvent struct {
	// Path is the absolute path of the changed file or directory.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// IsDir indicates if the event is for a directory.
	IsDir bool

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Watcher delivers debounced change batches from a set of metadata roots.
type Watcher interface {
	// Start begins watching the given roots recursively. Roots that do
	// not exist yet are picked up once they appear. Start blocks until
	// Stop is called or the context is cancelled.
	Start(ctx context.Context, roots []string) error

	// Stop stops the watcher and releases resources.
	// Safe to call multiple times.
	Stop() error

	// Events returns the channel of debounced event batches.
	// The channel is closed when the watcher stops.
	Events() <-chan []FileEvent

	// Errors returns a channel of watcher errors.
	// Non-fatal errors are sent here; the watcher continues running.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events.
	// Default: 500ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 5s
	PollInterval time.Duration

	// EventBufferSize is the size of the batch channel buffer.
	// Default: 64
	EventBufferSize int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 64,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}

// InterestingPath reports whether a change at the given path can affect
// component metadata. Directories always qualify, they may gain metadata
// files later.
func InterestingPath(path string, isDir bool) bool {
	if isDir {
		return true
	}
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	return strings.HasSuffix(name, ".xml") ||
		strings.HasSuffix(name, ".yml") ||
		strings.HasSuffix(name, ".yaml")
}
