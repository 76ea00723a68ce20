package cache

import (
	"fmt"
	"log/slog"

	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/metadata"
	"github.com/swcatalog/swindex/internal/silo"
)

// scratch is the per-query dedup context: one surviving component per
// data-ID, in first-seen order, plus the component IDs already seen from
// OS data sections.
type scratch struct {
	byID   map[string]int
	cpts   []*component.Component
	osSeen map[string]bool
}

func newScratch() *scratch {
	return &scratch{
		byID:   make(map[string]int),
		osSeen: make(map[string]bool),
	}
}

// put records a component, replacing an earlier result with the same
// identity. Sections are visited in priority order, so the later arrival
// wins.
func (s *scratch) put(cpt *component.Component) {
	did := cpt.DataID()
	if i, ok := s.byID[did]; ok {
		s.cpts[i] = cpt
		return
	}
	s.byID[did] = len(s.cpts)
	s.cpts = append(s.cpts, cpt)
}

// skipRowLocked applies the cross-section suppression rules to one
// candidate row: the OS metainfo duplicate rule and the masking overlay.
func (c *Cache) skipRowLocked(sc *scratch, sec *section, row silo.Row) bool {
	if !c.preferOSMetainfo && sec.isOSData && sec.style == metadata.StyleMetainfo && sc.osSeen[row.CID] {
		return true
	}
	if _, present := c.masked[row.DataID]; present && !sec.isMask {
		return true
	}
	return false
}

// materializeRowLocked turns a stored row back into a component. The
// refine hook runs unless the row came from the masking section.
func (c *Cache) materializeRowLocked(sec *section, row silo.Row, refine bool) (*component.Component, error) {
	cpt, err := metadata.ParseData(row.Payload)
	if err != nil {
		return nil, err
	}
	cpt.Scope = sec.scope
	cpt.Origin = row.Origin
	cpt.Branch = row.Branch
	cpt.SetDataID(row.DataID)
	cpt.SetActiveLocale(c.locale)
	if refine && c.refiner != nil {
		c.refiner.Refine(cpt, false, sec.refineData)
	}
	return cpt, nil
}

// collectRowLocked runs the per-row pipeline: suppression checks,
// materialization, addon resolution and dedup insertion.
func (c *Cache) collectRowLocked(sc *scratch, sec *section, row silo.Row, score uint, scored bool) {
	if c.skipRowLocked(sc, sec, row) {
		return
	}
	cpt, err := c.materializeRowLocked(sec, row, !sec.isMask)
	if err != nil {
		slog.Warn("skipping unreadable component record",
			slog.String("id", row.CID),
			slog.String("section", sec.key),
			slog.String("error", err.Error()))
		return
	}
	if scored {
		cpt.SetSortScore(score)
	}
	if sec.isOSData {
		sc.osSeen[row.CID] = true
	}
	if c.resolveAddons && cpt.Kind != component.KindAddon {
		c.attachAddonsLocked(cpt)
	}
	sc.put(cpt)
}

// attachAddonsLocked finds components extending cpt and attaches them.
// Addons are materialized without another resolution round, so extension
// chains stay one level deep.
func (c *Cache) attachAddonsLocked(cpt *component.Component) {
	for _, sec := range c.sections {
		rows, err := sec.silo.MatchExtends(cpt.ID)
		if err != nil {
			slog.Warn("addon lookup failed",
				slog.String("id", cpt.ID),
				slog.String("section", sec.key),
				slog.String("error", err.Error()))
			continue
		}
		for _, row := range rows {
			if _, present := c.masked[row.DataID]; present && !sec.isMask {
				continue
			}
			addon, err := c.materializeRowLocked(sec, row, !sec.isMask)
			if err != nil {
				slog.Warn("skipping unreadable addon record",
					slog.String("id", row.CID),
					slog.String("error", err.Error()))
				continue
			}
			cpt.AddAddon(addon)
		}
	}
}

// sectionQuery produces the matching rows of one section.
type sectionQuery func(s *silo.Silo) ([]silo.Row, error)

// queryLocked executes one structured query across all sections in store
// order and returns the deduplicated results.
func (c *Cache) queryLocked(fn sectionQuery) ([]*component.Component, error) {
	sc := newScratch()
	for _, sec := range c.sections {
		rows, err := fn(sec.silo)
		if err != nil {
			return nil, fmt.Errorf("%w: query section %s: %v", ErrFailed, sec.key, err)
		}
		for _, row := range rows {
			c.collectRowLocked(sc, sec, row, 0, false)
		}
	}
	return sc.cpts, nil
}

// All returns every component in the cache.
func (c *Cache) All() ([]*component.Component, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queryLocked(func(s *silo.Silo) ([]silo.Row, error) {
		return s.All()
	})
}

// ByID returns the components with the given ID. The ID is compared
// case-insensitively; when a section has no direct hit, components
// providing the ID are matched instead.
func (c *Cache) ByID(id string) ([]*component.Component, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty component id", ErrBadValue)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queryLocked(func(s *silo.Silo) ([]silo.Row, error) {
		rows, err := s.MatchID(id)
		if err != nil || len(rows) > 0 {
			return rows, err
		}
		return s.MatchProvidedID(id)
	})
}

// ByExtends returns the components declaring they extend the given
// component ID.
func (c *Cache) ByExtends(id string) ([]*component.Component, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty component id", ErrBadValue)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queryLocked(func(s *silo.Silo) ([]silo.Row, error) {
		return s.MatchExtends(id)
	})
}

// ByKind returns the components of the given kind.
func (c *Cache) ByKind(kind component.Kind) ([]*component.Component, error) {
	if kind == component.KindUnknown {
		return nil, fmt.Errorf("%w: unknown component kind", ErrBadValue)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queryLocked(func(s *silo.Silo) ([]silo.Row, error) {
		return s.MatchKind(kind.String())
	})
}

// ByProvidedItem returns the components providing the given item.
func (c *Cache) ByProvidedItem(kind component.ProvidedKind, item string) ([]*component.Component, error) {
	if item == "" {
		return nil, fmt.Errorf("%w: empty provided item", ErrBadValue)
	}
	el, ok := component.ElementFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported provided kind", ErrBadValue)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queryLocked(func(s *silo.Silo) ([]silo.Row, error) {
		return s.MatchProvided(el.Element, el.Type, item)
	})
}

// ByCategories returns the components tagged with every one of the given
// categories.
func (c *Cache) ByCategories(categories []string) ([]*component.Component, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories given", ErrBadValue)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queryLocked(func(s *silo.Silo) ([]silo.Row, error) {
		return s.MatchCategories(categories)
	})
}

// ByLaunchable returns the components launchable via the given entry.
func (c *Cache) ByLaunchable(kind component.LaunchableKind, entry string) ([]*component.Component, error) {
	if entry == "" {
		return nil, fmt.Errorf("%w: empty launchable entry", ErrBadValue)
	}
	if kind == component.LaunchableKindUnknown {
		return nil, fmt.Errorf("%w: unknown launchable kind", ErrBadValue)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queryLocked(func(s *silo.Silo) ([]silo.Row, error) {
		return s.MatchLaunchable(kind.String(), entry)
	})
}

// ByBundleID returns the components shipping a bundle with the given ID,
// optionally matching the ID as a prefix.
func (c *Cache) ByBundleID(kind component.BundleKind, bundleID string, matchPrefix bool) ([]*component.Component, error) {
	if bundleID == "" {
		return nil, fmt.Errorf("%w: empty bundle id", ErrBadValue)
	}
	if kind == component.BundleKindUnknown {
		return nil, fmt.Errorf("%w: unknown bundle kind", ErrBadValue)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queryLocked(func(s *silo.Silo) ([]silo.Row, error) {
		return s.MatchBundleID(kind.String(), bundleID, matchPrefix)
	})
}
