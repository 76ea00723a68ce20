package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/metadata"
	"github.com/swcatalog/swindex/internal/silo"
)

// pruneAge is how long an untouched section file survives before Prune
// removes it.
const pruneAge = 90 * 24 * time.Hour

// newestSectionFileLocked locates the freshest existing backing file for
// a (scope, key) pair across both cache roots.
func (c *Cache) newestSectionFileLocked(scope component.Scope, key string) (string, time.Time, CacheScope) {
	var (
		best      string
		bestTime  time.Time
		bestScope = CacheScopeUnknown
	)
	candidates := []struct {
		root   string
		cscope CacheScope
	}{
		{c.systemRoot, CacheScopeSystem},
		{c.userRoot, CacheScopeWritable},
	}
	for _, cand := range candidates {
		if cand.root == "" {
			continue
		}
		p := sectionPath(cand.root, c.locale, scope, key)
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		if mt := fi.ModTime(); best == "" || mt.After(bestTime) {
			best, bestTime, bestScope = p, mt, cand.cscope
		}
	}
	return best, bestTime, bestScope
}

// CTime returns the modification time of the newest cached section file
// for the given scope and key, and which cache root holds it. A zero
// time and CacheScopeUnknown mean no file exists.
func (c *Cache) CTime(scope component.Scope, key string) (time.Time, CacheScope) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, mtime, cscope := c.newestSectionFileLocked(scope, key)
	return mtime, cscope
}

// LoadSectionForKey attaches the cached section for the given key, if a
// usable one exists. It reports true when the section is outdated: the
// backing file is missing, older than sourceTime, or not readable as a
// current-format section. The caller is expected to rebuild outdated
// sections via SetContentsForSection; a zero sourceTime skips the source
// comparison.
func (c *Cache) LoadSectionForKey(scope component.Scope, style metadata.FormatStyle, isOSData bool, key string, sourceTime time.Time, refineUserData any) (bool, error) {
	if key == "" || key == maskSectionKey {
		return true, fmt.Errorf("%w: invalid section key %q", ErrBadValue, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path, mtime, _ := c.newestSectionFileLocked(scope, key)
	if path == "" {
		return true, nil
	}
	if !sourceTime.IsZero() && sourceTime.After(mtime) {
		return true, nil
	}

	s, err := silo.Open(path)
	if err != nil {
		if errors.Is(err, silo.ErrFormatMismatch) {
			slog.Debug("cached section not usable, needs rebuild",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return true, nil
		}
		return true, fmt.Errorf("%w: load section %s: %v", ErrFailed, key, err)
	}

	sec := &section{
		key:         key,
		scope:       scope,
		style:       style,
		isOSData:    isOSData,
		silo:        s,
		backingPath: path,
		refineData:  refineUserData,
	}
	c.addOrReplaceSectionLocked(sec)
	return false, nil
}

// LoadSectionForPath attaches a section stored at an arbitrary file
// path, as written by SetContentsForPath. It reports true when no usable
// section exists at that path.
func (c *Cache) LoadSectionForPath(path string, refineUserData any) (bool, error) {
	if path == "" {
		return true, fmt.Errorf("%w: empty section path", ErrBadValue)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := silo.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, silo.ErrFormatMismatch) {
			return true, nil
		}
		return true, fmt.Errorf("%w: load section %s: %v", ErrFailed, path, err)
	}

	sec := &section{
		key:         path,
		scope:       component.ScopeUnknown,
		style:       metadata.StyleCatalog,
		silo:        s,
		backingPath: path,
		refineData:  refineUserData,
	}
	c.addOrReplaceSectionLocked(sec)
	return false, nil
}

// Prune deletes section files that have not been touched for three
// months. It only acts on the default cache locations; custom locations
// set via SetLocations are left alone.
func (c *Cache) Prune() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.defaultRoots {
		return
	}

	attached := make(map[string]bool, len(c.sections))
	for _, sec := range c.sections {
		attached[sec.backingPath] = true
	}

	cutoff := time.Now().Add(-pruneAge)
	removed := 0
	for _, root := range []string{c.systemRoot, c.userRoot} {
		if root == "" {
			continue
		}
		for _, sub := range []string{"os", "user", "volatile"} {
			dir := filepath.Join(root, sub)
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				if !entry.Type().IsRegular() {
					continue
				}
				name := entry.Name()
				if !strings.HasSuffix(name, SectionExt) && !strings.HasPrefix(name, ".") {
					continue
				}
				path := filepath.Join(dir, name)
				if attached[path] {
					continue
				}
				fi, err := entry.Info()
				if err != nil || fi.ModTime().After(cutoff) {
					continue
				}
				if err := os.Remove(path); err != nil {
					if !errors.Is(err, fs.ErrNotExist) {
						slog.Warn("failed to prune stale section file",
							slog.String("path", path),
							slog.String("error", err.Error()))
					}
					continue
				}
				removed++
			}
		}
	}
	if removed > 0 {
		slog.Debug("pruned stale section files", slog.Int("count", removed))
	}
}
