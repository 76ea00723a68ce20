// Package pool assembles the system-wide software catalog.
//
// A Pool discovers metadata in the standard OS locations (catalog files
// shipped by software repositories, metainfo files installed with
// applications), feeds it through an indexed cache and answers queries
// against the merged view. Loading is incremental: a directory whose cached
// section is at least as new as every metadata file in it is served from the
// cache without reparsing.
package pool

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/swcatalog/swindex/internal/cache"
	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/metadata"
	"github.com/swcatalog/swindex/internal/tokenizer"
	"github.com/swcatalog/swindex/internal/watcher"
)

// Flags select which metadata locations a Pool loads and how it behaves.
type Flags uint

const (
	// FlagLoadOSCatalog loads catalog metadata shipped by software
	// repositories under the OS data prefixes.
	FlagLoadOSCatalog Flags = 1 << iota
	// FlagLoadOSMetainfo loads metainfo files installed with applications.
	FlagLoadOSMetainfo
	// FlagIgnoreCacheAge reparses all metadata even when the cached form
	// is current.
	FlagIgnoreCacheAge
	// FlagResolveAddons attaches addons to the components they extend.
	FlagResolveAddons
	// FlagPreferOSMetainfo lets metainfo data shadow catalog data carrying
	// the same component ID.
	FlagPreferOSMetainfo
	// FlagMonitor watches the metadata locations after the first Load and
	// refreshes the pool in the background when they change.
	FlagMonitor
)

// FlagsDefault is the flag set a regular software catalog consumer wants.
const FlagsDefault = FlagLoadOSCatalog | FlagLoadOSMetainfo | FlagResolveAddons

// Sentinel errors reported by pool operations. Returned errors wrap these
// with detail; match with errors.Is.
var (
	// ErrFailed reports a pool operation that could not be carried out.
	ErrFailed = errors.New("pool operation failed")

	// ErrTargetNotWritable reports that no cache root accepts writes.
	ErrTargetNotWritable = errors.New("cache location is not writable")

	// ErrIncomplete reports a refresh that could not load every metadata
	// source; the message names what was skipped.
	ErrIncomplete = errors.New("metadata was only partially loaded")

	// ErrLoadBusy reports a refresh already running in another process.
	ErrLoadBusy = errors.New("cache refresh is already in progress")
)

// searchCacheSize bounds the ranked-search result cache.
const searchCacheSize = 256

// location is one directory the pool ingests as a cache section.
type location struct {
	dir   string
	style metadata.FormatStyle
	scope component.Scope
	isOS  bool
}

// Pool owns the cache, the shared stemmer and the refresh workflow. Queries
// are safe for concurrent use; refreshes serialize against other processes
// through a file lock in the writable cache root.
type Pool struct {
	mu sync.RWMutex

	cache   *cache.Cache
	stemmer *tokenizer.Stemmer

	flags    Flags
	locale   string
	prefixes []string
	extra    []location

	sysRoot string
	usrRoot string

	// results caches ranked search slices; generation salts the keys so
	// every mutation invalidates previous entries wholesale.
	results    *lru.Cache[string, []*component.Component]
	generation atomic.Uint64

	monitor       *watcher.HybridWatcher
	monitorCancel func()
	monitorDone   chan struct{}
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithLocale sets the locale queries and tokenization operate in.
// Defaults to the untranslated C locale.
func WithLocale(locale string) Option {
	return func(p *Pool) {
		p.locale = locale
	}
}

// WithFlags replaces the default flag set.
func WithFlags(flags Flags) Option {
	return func(p *Pool) {
		p.flags = flags
	}
}

// WithCacheLocations overrides the system and user cache roots.
func WithCacheLocations(systemRoot, userRoot string) Option {
	return func(p *Pool) {
		p.sysRoot = systemRoot
		p.usrRoot = userRoot
	}
}

// WithDataPrefixes replaces the OS data prefixes metadata is discovered
// under. Defaults to /usr/share and /usr/local/share.
func WithDataPrefixes(prefixes ...string) Option {
	return func(p *Pool) {
		p.prefixes = prefixes
	}
}

// New creates a pool. The underlying cache starts empty; call Load to fill
// it from the configured metadata locations.
func New(opts ...Option) (*Pool, error) {
	p := &Pool{
		flags:    FlagsDefault,
		locale:   "C",
		prefixes: []string{"/usr/share", "/usr/local/share"},
	}
	for _, opt := range opts {
		opt(p)
	}

	results, err := lru.New[string, []*component.Component](searchCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	p.results = results

	p.stemmer = tokenizer.NewStemmer(tokenizer.StemmerConfig{Locale: p.locale})

	copts := []cache.Option{
		cache.WithLocale(p.locale),
		cache.WithStemmer(p.stemmer),
		cache.WithPreferOSMetainfo(p.flags&FlagPreferOSMetainfo != 0),
		cache.WithResolveAddons(p.flags&FlagResolveAddons != 0),
	}
	if p.sysRoot != "" || p.usrRoot != "" {
		copts = append(copts, cache.WithLocations(p.sysRoot, p.usrRoot))
	}
	p.cache = cache.New(copts...)

	return p, nil
}

// Flags returns the active flag set.
func (p *Pool) Flags() Flags {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.flags
}

// SetFlags replaces the flag set. Load flags take effect on the next Load;
// behavior flags apply to subsequent queries.
func (p *Pool) SetFlags(flags Flags) {
	p.mu.Lock()
	p.flags = flags
	p.mu.Unlock()
	p.cache.SetPreferOSMetainfo(flags&FlagPreferOSMetainfo != 0)
	p.cache.SetResolveAddons(flags&FlagResolveAddons != 0)
	p.invalidateResults()
}

// Locale returns the active locale.
func (p *Pool) Locale() string {
	return p.cache.Locale()
}

// SetLocale switches the locale for queries and tokenization. Metadata
// already in the cache was indexed for the previous locale; call Load to
// rebuild it.
func (p *Pool) SetLocale(locale string) {
	p.mu.Lock()
	p.locale = locale
	p.mu.Unlock()
	p.cache.SetLocale(locale)
	p.invalidateResults()
}

// AddExtraDataLocation registers an additional directory to load metadata
// from. Catalog style reads catalog XML and YAML files placed directly in
// the directory; metainfo style reads *.metainfo.xml and *.appdata.xml
// files.
func (p *Pool) AddExtraDataLocation(dir string, style metadata.FormatStyle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extra = append(p.extra, location{
		dir:   filepath.Clean(dir),
		style: style,
		scope: component.ScopeSystem,
	})
}

// ResetExtraDataLocations drops all registered extra data locations.
func (p *Pool) ResetExtraDataLocations() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extra = nil
}

// Components returns every component visible in the pool.
func (p *Pool) Components() ([]*component.Component, error) {
	return p.cache.All()
}

// ComponentsByID returns the components with the given ID, one per origin
// that carries it. The match is case-insensitive and includes components
// providing the ID as an alias.
func (p *Pool) ComponentsByID(id string) ([]*component.Component, error) {
	return p.cache.ByID(id)
}

// ComponentsByExtends returns the addons extending the given component ID.
func (p *Pool) ComponentsByExtends(id string) ([]*component.Component, error) {
	return p.cache.ByExtends(id)
}

// ComponentsByKind returns all components of one kind.
func (p *Pool) ComponentsByKind(kind component.Kind) ([]*component.Component, error) {
	return p.cache.ByKind(kind)
}

// ComponentsByProvidedItem returns the components providing the given
// system interface item.
func (p *Pool) ComponentsByProvidedItem(kind component.ProvidedKind, item string) ([]*component.Component, error) {
	return p.cache.ByProvidedItem(kind, item)
}

// ComponentsByCategories returns the components listed in all of the given
// desktop categories.
func (p *Pool) ComponentsByCategories(categories []string) ([]*component.Component, error) {
	return p.cache.ByCategories(categories)
}

// ComponentsByLaunchable returns the components launched through the given
// entry.
func (p *Pool) ComponentsByLaunchable(kind component.LaunchableKind, entry string) ([]*component.Component, error) {
	return p.cache.ByLaunchable(kind, entry)
}

// ComponentsByBundleID returns the components shipped under the given
// bundle identifier, optionally matching it as a prefix.
func (p *Pool) ComponentsByBundleID(kind component.BundleKind, bundleID string, matchPrefix bool) ([]*component.Component, error) {
	return p.cache.ByBundleID(kind, bundleID, matchPrefix)
}

// MaskByDataID hides every component matching the data ID from queries.
func (p *Pool) MaskByDataID(dataID string) {
	p.cache.MaskByDataID(dataID)
	p.invalidateResults()
}

// AddMaskingComponents overlays the given components on the pool, shadowing
// same-identity components from other sections.
func (p *Pool) AddMaskingComponents(cpts []*component.Component) error {
	err := p.cache.AddMaskingComponents(cpts)
	p.invalidateResults()
	return err
}

// ComponentCount returns the number of components currently visible.
func (p *Pool) ComponentCount() int {
	return p.cache.ComponentCount()
}

// SectionCount returns the number of attached cache sections.
func (p *Pool) SectionCount() int {
	return p.cache.SectionCount()
}

// CacheLocations returns the system and user cache roots in use.
func (p *Pool) CacheLocations() (systemRoot, userRoot string) {
	return p.cache.Locations()
}

// Clear drops every cached section and masking entry. Configuration and
// extra data locations stay.
func (p *Pool) Clear() error {
	err := p.cache.Clear()
	p.invalidateResults()
	return err
}

// Prune deletes cache files that have not been refreshed for so long that
// no installed metadata can still reference them.
func (p *Pool) Prune() {
	p.cache.Prune()
}

// Close stops change monitoring and releases the cache.
func (p *Pool) Close() error {
	p.Stop()
	return p.cache.Close()
}

// invalidateResults starts a fresh result-cache key space. Called on every
// mutation that can change what queries return.
func (p *Pool) invalidateResults() {
	p.generation.Add(1)
	p.results.Purge()
}
