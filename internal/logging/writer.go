package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// RotatingWriter is an io.Writer with size-based rotation. Rotated files
// carry numbered suffixes, swindex.log.1 being the newest; files beyond
// maxFiles are dropped.
type RotatingWriter struct {
	path     string
	maxSize  int64
	maxFiles int

	mu      sync.Mutex
	file    *os.File
	written int64
}

// NewRotatingWriter opens (or creates) the log file at path, creating the
// parent directory as needed. maxSizeMB is the size in megabytes a file may
// grow to before rotation; maxFiles the number of rotated files kept.
func NewRotatingWriter(path string, maxSizeMB, maxFiles int) (*RotatingWriter, error) {
	w := &RotatingWriter{
		path:     path,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxFiles: maxFiles,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements io.Writer, rotating first when the record would push
// the file past the size limit. A failed rotation is reported on stderr
// and writing continues into the oversized file.
func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err = w.file.Write(p)
	w.written += int64(n)
	return
}

// Sync flushes the current file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

// Close closes the underlying file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

func (w *RotatingWriter) openFile() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.written = info.Size()
	return nil
}

// rotate shifts swindex.log -> .1 -> .2 -> ... and reopens a fresh file.
func (w *RotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		w.file = nil
	}

	base := filepath.Base(w.path)
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(w.path), base+".*"))
	if err != nil {
		return fmt.Errorf("list rotated files: %w", err)
	}

	type rotated struct {
		path string
		num  int
	}
	var files []rotated
	for _, m := range matches {
		num, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(m), base+"."))
		if err != nil {
			continue
		}
		files = append(files, rotated{path: m, num: num})
	}

	// Shift highest-numbered first so nothing is overwritten.
	sort.Slice(files, func(i, j int) bool { return files[i].num > files[j].num })
	for _, f := range files {
		if f.num >= w.maxFiles {
			_ = os.Remove(f.path)
			continue
		}
		_ = os.Rename(f.path, fmt.Sprintf("%s.%d", w.path, f.num+1))
	}

	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return fmt.Errorf("rotate log file: %w", err)
		}
	}

	w.written = 0
	return w.openFile()
}
