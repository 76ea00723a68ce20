package cache

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/metadata"
	"github.com/swcatalog/swindex/internal/silo"
)

// SectionExt is the file extension of compiled section files.
const SectionExt = ".swidx"

// maskSectionKey is the reserved key of the masking overlay section.
const maskSectionKey = "masking"

// CacheScope identifies which cache root holds a section file.
type CacheScope int

const (
	// CacheScopeUnknown means no cache file was found.
	CacheScopeUnknown CacheScope = iota
	// CacheScopeSystem is the read-only system-wide cache root.
	CacheScopeSystem
	// CacheScopeWritable is the per-user writable cache root.
	CacheScopeWritable
)

// String returns the string form of the cache scope.
func (s CacheScope) String() string {
	switch s {
	case CacheScopeSystem:
		return "system"
	case CacheScopeWritable:
		return "writable"
	default:
		return "unknown"
	}
}

// section is one attached shard of indexed component data.
type section struct {
	key      string
	scope    component.Scope
	style    metadata.FormatStyle
	isOSData bool
	isMask   bool
	// volatile section files are deleted when the section is dropped.
	volatile bool

	silo        *silo.Silo
	backingPath string
	refineData  any
}

// close releases the section's silo handle.
func (s *section) close() error {
	if s.silo == nil {
		return nil
	}
	err := s.silo.Close()
	s.silo = nil
	return err
}

// scopeSubdir maps a component scope to its cache subdirectory.
func scopeSubdir(scope component.Scope) string {
	if scope == component.ScopeUser {
		return "user"
	}
	return "os"
}

// sectionFileName derives the file name of a section from its key, salted
// with the locale so caches of different locales never collide.
func sectionFileName(locale, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s-%s%s", locale, hex.EncodeToString(sum[:])[:16], SectionExt)
}

// sectionPath composes the backing path of a section below one cache root.
func sectionPath(root, locale string, scope component.Scope, key string) string {
	return filepath.Join(root, scopeSubdir(scope), sectionFileName(locale, key))
}

// removeBackingFile deletes a section file tolerating a concurrent
// deletion by another process: the file is renamed to a randomized
// sibling first, then unlinked. A file that is already gone is fine; an
// unlink failure after the rename is logged and otherwise ignored.
func removeBackingFile(path string) {
	if path == "" {
		return
	}

	var suffix [6]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		// No randomness available; unlink directly.
		_ = os.Remove(path)
		return
	}
	tmp := filepath.Join(filepath.Dir(path),
		fmt.Sprintf(".%s.del-%s", filepath.Base(path), hex.EncodeToString(suffix[:])))

	if err := os.Rename(path, tmp); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("stale section file rename failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return
	}
	if err := os.Remove(tmp); err != nil {
		slog.Warn("stale section file unlink failed",
			slog.String("path", tmp),
			slog.String("error", err.Error()))
	}
}

// isDirWritable probes whether files can be created below dir, creating
// the directory if needed.
func isDirWritable(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return true
}
