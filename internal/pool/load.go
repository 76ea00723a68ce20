package pool

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swcatalog/swindex/internal/cache"
	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/metadata"
)

const (
	catalogSubdirXML  = "swcatalog/xml"
	catalogSubdirYAML = "swcatalog/yaml"
	metainfoSubdir    = "metainfo"
)

// metainfoOrigin marks components read from installed metainfo files
// rather than a repository catalog.
const metainfoOrigin = "metainfo"

// loadParallelism bounds how many metadata directories parse at once.
const loadParallelism = 4

// sectionBatch is one reparsed directory waiting for the serial store
// phase.
type sectionBatch struct {
	loc  location
	key  string
	cpts []*component.Component
}

// Load refreshes the pool from every configured metadata location.
//
// Directories whose cached section is at least as new as their newest
// metadata file are served from the cache; the rest are reparsed and
// persisted. Unreadable files are skipped and collected: Load then returns
// an error wrapping ErrIncomplete that names them, while the metadata that
// did load stays queryable. A cache with no writable root aborts with
// ErrTargetNotWritable, and a refresh already running elsewhere returns
// ErrLoadBusy.
func (p *Pool) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sysRoot, usrRoot := p.cache.Locations()
	lockRoot, ok := writableRoot(sysRoot, usrRoot)
	if !ok {
		return fmt.Errorf("%w: tried %s and %s", ErrTargetNotWritable, sysRoot, usrRoot)
	}

	lock := newRefreshLock(lockRoot)
	acquired, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailed, err)
	}
	if !acquired {
		return fmt.Errorf("%w: lock held at %s", ErrLoadBusy, lock.Path())
	}
	defer lock.Unlock()

	locs := p.locations()
	flags := p.Flags()

	var (
		mu       sync.Mutex
		batches  []sectionBatch
		problems []string
	)
	addProblem := func(msg string) {
		mu.Lock()
		problems = append(problems, msg)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, loadParallelism)
	for _, loc := range locs {
		loc := loc
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			files, newest, err := listMetadataFiles(loc)
			if err != nil {
				addProblem(fmt.Sprintf("%s: %v", loc.dir, err))
				return nil
			}
			if len(files) == 0 {
				return nil
			}

			key := loc.dir
			if flags&FlagIgnoreCacheAge == 0 {
				outdated, err := p.cache.LoadSectionForKey(loc.scope, loc.style, loc.isOS, key, newest, nil)
				if err != nil {
					slog.Warn("cached section unusable, reparsing",
						slog.String("key", key),
						slog.Any("error", err))
				} else if !outdated {
					return nil
				}
			}

			cpts, fileProblems, err := parseLocation(gctx, loc, files)
			if err != nil {
				return err
			}
			for _, msg := range fileProblems {
				addProblem(msg)
			}
			if len(cpts) == 0 {
				return nil
			}

			mu.Lock()
			batches = append(batches, sectionBatch{loc: loc, key: key, cpts: cpts})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Parallel workers finish in arbitrary order; store deterministically.
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].key < batches[j].key
	})

	if flags&FlagResolveAddons != 0 {
		linkAddons(batches)
	}

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := p.cache.SetContentsForSection(b.loc.scope, b.loc.style, b.loc.isOS, b.cpts, b.key, nil)
		if err != nil {
			if errors.Is(err, cache.ErrNotWritable) {
				return fmt.Errorf("%w: %v", ErrTargetNotWritable, err)
			}
			addProblem(fmt.Sprintf("section %s: %v", b.key, err))
		}
	}

	p.invalidateResults()

	if flags&FlagMonitor != 0 {
		roots := make([]string, 0, len(locs))
		for _, loc := range locs {
			roots = append(roots, loc.dir)
		}
		if err := p.startMonitor(roots); err != nil {
			slog.Warn("change monitoring unavailable", slog.Any("error", err))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(problems, "; "))
	}
	return nil
}

// locations resolves every directory this pool ingests, per the active
// flags, OS data prefixes and extra locations.
func (p *Pool) locations() []location {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var locs []location
	if p.flags&FlagLoadOSCatalog != 0 {
		for _, prefix := range p.prefixes {
			locs = append(locs,
				location{
					dir:   filepath.Join(prefix, catalogSubdirXML),
					style: metadata.StyleCatalog,
					scope: component.ScopeSystem,
					isOS:  true,
				},
				location{
					dir:   filepath.Join(prefix, catalogSubdirYAML),
					style: metadata.StyleCatalog,
					scope: component.ScopeSystem,
					isOS:  true,
				},
			)
		}
	}
	if p.flags&FlagLoadOSMetainfo != 0 {
		for _, prefix := range p.prefixes {
			locs = append(locs, location{
				dir:   filepath.Join(prefix, metainfoSubdir),
				style: metadata.StyleMetainfo,
				scope: component.ScopeSystem,
				isOS:  true,
			})
		}
	}
	locs = append(locs, p.extra...)
	return locs
}

// listMetadataFiles returns the metadata files of one location together
// with the newest modification time among them. A missing directory is not
// an error, it simply holds no metadata yet.
func listMetadataFiles(loc location) ([]string, time.Time, error) {
	entries, err := os.ReadDir(loc.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, err
	}

	var (
		files  []string
		newest time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if loc.style == metadata.StyleMetainfo {
			if !strings.HasSuffix(name, ".metainfo.xml") && !strings.HasSuffix(name, ".appdata.xml") {
				continue
			}
		} else if !isCatalogFile(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mt := info.ModTime(); mt.After(newest) {
			newest = mt
		}
		files = append(files, filepath.Join(loc.dir, entry.Name()))
	}
	return files, newest, nil
}

// isCatalogFile reports whether a lower-cased file name looks like catalog
// metadata, compressed or not.
func isCatalogFile(name string) bool {
	switch filepath.Ext(strings.TrimSuffix(name, ".gz")) {
	case ".xml", ".yml", ".yaml":
		return true
	}
	return false
}

// parseLocation ingests every metadata file of one directory. A file that
// cannot be read or parsed is skipped and reported while the rest of the
// directory still loads. Merge directives apply only after all files are
// read, so a directive sees the complete batch regardless of file order.
func parseLocation(ctx context.Context, loc location, files []string) ([]*component.Component, []string, error) {
	var (
		cpts     []*component.Component
		merges   []*component.Component
		problems []string
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		res, err := parseMetadataFile(path)
		if err != nil {
			slog.Warn("skipping unreadable metadata",
				slog.String("path", path),
				slog.Any("error", err))
			problems = append(problems, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		for _, cpt := range res.Components {
			cpt.Scope = loc.scope
			if loc.style == metadata.StyleMetainfo && cpt.Origin == "" {
				cpt.Origin = metainfoOrigin
			}
			if cpt.IsMergeComponent() {
				merges = append(merges, cpt)
				continue
			}
			cpts = append(cpts, cpt)
		}
	}
	return applyMerges(cpts, merges), problems, nil
}

// parseMetadataFile reads one metadata file, transparently decompressing
// gzip, and parses it with the codec its suffix names.
func parseMetadataFile(path string) (*metadata.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	if ext := filepath.Ext(name); ext == ".yml" || ext == ".yaml" {
		return metadata.ParseComponentsYAML(r)
	}
	return metadata.ParseComponentsXML(r)
}

// applyMerges folds merge directives into the regular components of one
// batch. Remove directives delete every component carrying the directive's
// ID, replace directives overwrite the fields they define, append
// directives extend list fields. Directives naming an ID absent from the
// batch have nothing to do and are dropped either way; directives never
// appear in the result.
func applyMerges(cpts, merges []*component.Component) []*component.Component {
	if len(merges) == 0 {
		return cpts
	}

	byID := make(map[string][]*component.Component, len(cpts))
	for _, cpt := range cpts {
		byID[cpt.ID] = append(byID[cpt.ID], cpt)
	}

	removed := make(map[string]bool)
	for _, m := range merges {
		switch m.MergeKind {
		case component.MergeKindRemoveComponent:
			removed[m.ID] = true
		case component.MergeKindReplace, component.MergeKindAppend:
			for _, target := range byID[m.ID] {
				mergeInto(target, m)
			}
		}
	}
	if len(removed) == 0 {
		return cpts
	}

	kept := cpts[:0]
	for _, cpt := range cpts {
		if !removed[cpt.ID] {
			kept = append(kept, cpt)
		}
	}
	return kept
}

// mergeInto applies one replace or append directive to a target component.
func mergeInto(target, m *component.Component) {
	switch m.MergeKind {
	case component.MergeKindAppend:
		target.Categories = appendMissing(target.Categories, m.Categories)
		for locale, words := range m.KeywordTables() {
			if len(target.KeywordTables()[locale]) == 0 {
				target.SetKeywords(locale, words)
			}
		}
		for _, prov := range m.Provided {
			for _, item := range prov.Items {
				target.AddProvidedItem(prov.Kind, item)
			}
		}
	case component.MergeKindReplace:
		for locale, v := range m.Names() {
			target.SetName(locale, v)
		}
		for locale, v := range m.Summaries() {
			target.SetSummary(locale, v)
		}
		for locale, v := range m.Descriptions() {
			target.SetDescription(locale, v)
		}
		if len(m.PkgNames) > 0 {
			target.PkgNames = append([]string(nil), m.PkgNames...)
		}
		if len(m.Bundles) > 0 {
			target.Bundles = append([]component.Bundle(nil), m.Bundles...)
		}
		target.Categories = appendMissing(target.Categories, m.Categories)
		for _, prov := range m.Provided {
			for _, item := range prov.Items {
				target.AddProvidedItem(prov.Kind, item)
			}
		}
	}
}

// appendMissing appends the values not already present, preserving order.
func appendMissing(dst, add []string) []string {
	for _, v := range add {
		found := false
		for _, have := range dst {
			if have == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// linkAddons attaches addons in the freshly parsed batches to the
// components they extend, across batch boundaries. Linking before the
// sections persist lets the extended components index the addon names as
// search tokens.
func linkAddons(batches []sectionBatch) {
	targets := make(map[string][]*component.Component)
	for _, b := range batches {
		for _, cpt := range b.cpts {
			targets[cpt.ID] = append(targets[cpt.ID], cpt)
		}
	}
	for _, b := range batches {
		for _, cpt := range b.cpts {
			if cpt.Kind != component.KindAddon {
				continue
			}
			for _, extended := range cpt.Extends {
				for _, target := range targets[extended] {
					target.AddAddon(cpt)
				}
			}
		}
	}
}
