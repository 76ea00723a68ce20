package cache

import (
	"sort"
	"strings"
)

// sortSectionsLocked restores the section order every query iterates in.
// Masking sections sort last; otherwise catalog data precedes metainfo
// data, system scope precedes user scope, and the case-folded key breaks
// remaining ties. Later sections shadow earlier ones during
// deduplication, so this order doubles as the override priority.
func (c *Cache) sortSectionsLocked() {
	sort.SliceStable(c.sections, func(i, j int) bool {
		a, b := c.sections[i], c.sections[j]
		if a.isMask != b.isMask {
			return !a.isMask
		}
		if a.style != b.style {
			return a.style < b.style
		}
		if a.scope != b.scope {
			return a.scope < b.scope
		}
		return strings.ToLower(a.key) < strings.ToLower(b.key)
	})
}

// findSectionLocked returns the attached section with the given key.
func (c *Cache) findSectionLocked(key string) *section {
	for _, sec := range c.sections {
		if sec.key == key {
			return sec
		}
	}
	return nil
}

// maskSectionLocked returns the masking section if one is attached.
func (c *Cache) maskSectionLocked() *section {
	for _, sec := range c.sections {
		if sec.isMask {
			return sec
		}
	}
	return nil
}

// addOrReplaceSectionLocked attaches a section, replacing any section
// with the same key. The replaced section's silo is closed and its
// backing file deleted, unless the new section reuses the same file.
func (c *Cache) addOrReplaceSectionLocked(sec *section) {
	for i, old := range c.sections {
		if old.key != sec.key {
			continue
		}
		_ = old.close()
		if old.backingPath != sec.backingPath {
			removeBackingFile(old.backingPath)
		}
		c.sections[i] = sec
		c.sortSectionsLocked()
		return
	}
	c.sections = append(c.sections, sec)
	c.sortSectionsLocked()
}
