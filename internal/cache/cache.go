// Package cache implements the indexed component cache: an ordered
// collection of on-disk sections backing structured queries and scored
// full-text search, with cross-section deduplication, a runtime masking
// overlay and addon auto-resolution.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/tokenizer"
)

// DefaultSystemRoot is the system-wide cache location.
const DefaultSystemRoot = "/var/cache/swindex"

// ErrFailed is returned for generic cache failures.
var ErrFailed = errors.New("cache operation failed")

// ErrNotWritable is returned when no configured cache location accepts
// writes.
var ErrNotWritable = errors.New("cache location is not writable")

// ErrBadValue is returned when a query or mutation argument is unusable.
var ErrBadValue = errors.New("bad value")

// Refiner post-processes components as they pass the serialization
// boundary. It runs with serializing=true on every section build and with
// serializing=false on every component materialized from a section, except
// components read back from the masking section.
type Refiner interface {
	Refine(cpt *component.Component, serializing bool, userData any)
}

// RefinerFunc adapts a function to the Refiner interface.
type RefinerFunc func(cpt *component.Component, serializing bool, userData any)

// Refine calls f.
func (f RefinerFunc) Refine(cpt *component.Component, serializing bool, userData any) {
	f(cpt, serializing, userData)
}

// Cache is the component cache façade. All methods are safe for
// concurrent use; reads run in parallel, mutations are exclusive.
type Cache struct {
	mu sync.RWMutex

	locale     string
	systemRoot string
	userRoot   string
	// defaultRoots is cleared once locations are overridden; pruning is
	// restricted to the default layout.
	defaultRoots bool

	preferOSMetainfo bool
	resolveAddons    bool
	refiner          Refiner
	stemmer          *tokenizer.Stemmer

	sections []*section
	masked   map[string]bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithLocale sets the locale the cache indexes and resolves texts for.
func WithLocale(locale string) Option {
	return func(c *Cache) {
		c.locale = locale
	}
}

// WithLocations overrides the system and user cache roots.
func WithLocations(systemRoot, userRoot string) Option {
	return func(c *Cache) {
		c.systemRoot = systemRoot
		c.userRoot = userRoot
		c.defaultRoots = false
	}
}

// WithPreferOSMetainfo makes OS metainfo data win over catalog data for
// the same component ID instead of being suppressed as a duplicate.
func WithPreferOSMetainfo(prefer bool) Option {
	return func(c *Cache) {
		c.preferOSMetainfo = prefer
	}
}

// WithResolveAddons controls automatic addon resolution on query results.
func WithResolveAddons(resolve bool) Option {
	return func(c *Cache) {
		c.resolveAddons = resolve
	}
}

// WithRefiner sets the component refine hook.
func WithRefiner(r Refiner) Option {
	return func(c *Cache) {
		c.refiner = r
	}
}

// WithStemmer injects the stemmer used for token index construction.
func WithStemmer(st *tokenizer.Stemmer) Option {
	return func(c *Cache) {
		c.stemmer = st
	}
}

// New creates a cache with the default locations, locale "C" and addon
// resolution enabled.
func New(opts ...Option) *Cache {
	c := &Cache{
		locale:        "C",
		systemRoot:    DefaultSystemRoot,
		userRoot:      DefaultUserRoot(),
		defaultRoots:  true,
		resolveAddons: true,
		masked:        make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.stemmer == nil {
		c.stemmer = tokenizer.NewStemmer(tokenizer.StemmerConfig{Locale: c.locale})
	}
	return c
}

// DefaultUserRoot returns the per-user cache root.
func DefaultUserRoot() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "swindex")
}

// Locale returns the active locale.
func (c *Cache) Locale() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locale
}

// SetLocale switches the active locale and reloads the stemmer. Sections
// built for the previous locale stay attached; callers normally clear and
// reload after a locale switch.
func (c *Cache) SetLocale(locale string) {
	if locale == "" {
		locale = "C"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locale = locale
	c.stemmer.Reload(locale)
}

// SetLocations overrides the system and user cache roots.
func (c *Cache) SetLocations(systemRoot, userRoot string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systemRoot = systemRoot
	c.userRoot = userRoot
	c.defaultRoots = false
}

// Locations returns the system and user cache roots.
func (c *Cache) Locations() (systemRoot, userRoot string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.systemRoot, c.userRoot
}

// PreferOSMetainfo reports whether OS metainfo data wins over catalog data.
func (c *Cache) PreferOSMetainfo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preferOSMetainfo
}

// SetPreferOSMetainfo toggles the OS metainfo preference.
func (c *Cache) SetPreferOSMetainfo(prefer bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preferOSMetainfo = prefer
}

// SetResolveAddons toggles automatic addon resolution.
func (c *Cache) SetResolveAddons(resolve bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolveAddons = resolve
}

// SetRefiner installs the component refine hook.
func (c *Cache) SetRefiner(r Refiner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refiner = r
}

// ComponentCount returns the number of records indexed across all regular
// sections. Masking overrides are not counted.
func (c *Cache) ComponentCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, sec := range c.sections {
		if sec.isMask {
			continue
		}
		n, err := sec.silo.Count()
		if err != nil {
			slog.Warn("section count failed",
				slog.String("key", sec.key),
				slog.String("error", err.Error()))
			continue
		}
		total += n
	}
	return total
}

// SectionCount returns the number of attached sections, including the
// masking section if present.
func (c *Cache) SectionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sections)
}

// Clear detaches all sections and masking state but keeps configuration.
// Volatile section files are deleted; regular section files stay on disk
// for the next load.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearLocked()
}

func (c *Cache) clearLocked() error {
	var firstErr error
	for _, sec := range c.sections {
		if err := sec.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if sec.volatile {
			removeBackingFile(sec.backingPath)
		}
	}
	c.sections = nil
	c.masked = make(map[string]bool)
	if firstErr != nil {
		return fmt.Errorf("%w: %v", ErrFailed, firstErr)
	}
	return nil
}

// Close releases all sections and deletes volatile files.
func (c *Cache) Close() error {
	return c.Clear()
}
