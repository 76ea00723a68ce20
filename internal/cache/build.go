package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/swcatalog/swindex/internal/component"
	"github.com/swcatalog/swindex/internal/metadata"
	"github.com/swcatalog/swindex/internal/silo"
	"github.com/swcatalog/swindex/internal/tokenizer"
)

// maxTokensPerField caps the embedded search tokens for the summary,
// origin and pkgname fields. The manifold field is uncapped.
const maxTokensPerField = 32

// SetContentsForSection builds and persists a section for a well-known
// key from the given component list and attaches it, replacing any
// previous section with that key. Malformed components are skipped, not
// fatal.
func (c *Cache) SetContentsForSection(scope component.Scope, style metadata.FormatStyle, isOSData bool, cpts []*component.Component, key string, refineUserData any) error {
	if key == "" || key == maskSectionKey {
		return fmt.Errorf("%w: invalid section key %q", ErrBadValue, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	root, err := c.writeRootLocked()
	if err != nil {
		return err
	}
	path := sectionPath(root, c.locale, scope, key)

	sec := &section{
		key:         key,
		scope:       scope,
		style:       style,
		isOSData:    isOSData,
		backingPath: path,
		refineData:  refineUserData,
	}
	if err := c.buildSectionLocked(sec, cpts); err != nil {
		return err
	}
	c.addOrReplaceSectionLocked(sec)
	return nil
}

// SetContentsForPath builds and persists a section at an arbitrary file
// path and attaches it under that path as key.
func (c *Cache) SetContentsForPath(cpts []*component.Component, path string, refineUserData any) error {
	if path == "" {
		return fmt.Errorf("%w: empty section path", ErrBadValue)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !isDirWritable(filepath.Dir(path)) {
		return fmt.Errorf("%w: %s", ErrNotWritable, filepath.Dir(path))
	}

	sec := &section{
		key:         path,
		scope:       component.ScopeUnknown,
		style:       metadata.StyleCatalog,
		backingPath: path,
		refineData:  refineUserData,
	}
	if err := c.buildSectionLocked(sec, cpts); err != nil {
		return err
	}
	c.addOrReplaceSectionLocked(sec)
	return nil
}

// MaskByDataID marks a component identity as hidden. Every subsequent
// query excludes it until a masking rebuild un-hides it.
func (c *Cache) MaskByDataID(dataID string) {
	if dataID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masked[dataID] = true
}

// AddMaskingComponents pushes override components into the masking
// overlay. Previously pushed components that have not been hidden in the
// meantime are carried over, then the masking section is rebuilt as a
// fresh volatile file.
func (c *Cache) AddMaskingComponents(cpts []*component.Component) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := make([]*component.Component, 0, len(cpts))
	index := make(map[string]int)

	if old := c.maskSectionLocked(); old != nil {
		rows, err := old.silo.All()
		if err != nil {
			return fmt.Errorf("%w: read masking section: %v", ErrFailed, err)
		}
		for _, row := range rows {
			if c.masked[row.DataID] {
				// Hidden since the last rebuild. The table entry stays, so
				// the identity remains suppressed until it is pushed again.
				continue
			}
			cpt, err := c.materializeRowLocked(old, row, false)
			if err != nil {
				slog.Warn("dropping unreadable masking component",
					slog.String("id", row.CID),
					slog.String("error", err.Error()))
				continue
			}
			index[cpt.DataID()] = len(merged)
			merged = append(merged, cpt)
		}
	}

	for _, cpt := range cpts {
		if cpt == nil || !cpt.Valid() {
			continue
		}
		if i, ok := index[cpt.DataID()]; ok {
			merged[i] = cpt
			continue
		}
		index[cpt.DataID()] = len(merged)
		merged = append(merged, cpt)
	}

	for _, cpt := range merged {
		c.masked[cpt.DataID()] = false
	}

	path, err := c.volatileSectionPathLocked()
	if err != nil {
		return err
	}
	sec := &section{
		key:         maskSectionKey,
		scope:       component.ScopeUser,
		style:       metadata.StyleMetainfo,
		isMask:      true,
		volatile:    true,
		backingPath: path,
	}
	if err := c.buildSectionLocked(sec, merged); err != nil {
		return err
	}
	c.addOrReplaceSectionLocked(sec)
	return nil
}

// writeRootLocked picks the cache root new sections are persisted to:
// the system root when writable, the user root otherwise.
func (c *Cache) writeRootLocked() (string, error) {
	if isDirWritable(c.systemRoot) {
		return c.systemRoot, nil
	}
	if isDirWritable(c.userRoot) {
		return c.userRoot, nil
	}
	return "", fmt.Errorf("%w: neither %s nor %s", ErrNotWritable, c.systemRoot, c.userRoot)
}

// volatileSectionPathLocked generates a fresh file path for a volatile
// section below the writable cache root.
func (c *Cache) volatileSectionPathLocked() (string, error) {
	dir := filepath.Join(c.userRoot, "volatile")
	if !isDirWritable(dir) {
		return "", fmt.Errorf("%w: %s", ErrNotWritable, dir)
	}
	var suffix [6]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailed, err)
	}
	name := fmt.Sprintf("%s-%s%s", maskSectionKey, hex.EncodeToString(suffix[:]), SectionExt)
	return filepath.Join(dir, name), nil
}

// buildSectionLocked compiles the component list into the section's
// backing file and opens it. Components that fail to serialize are
// skipped and counted.
func (c *Cache) buildSectionLocked(sec *section, cpts []*component.Component) error {
	builder := silo.NewBuilder()
	skipped := 0

	for _, cpt := range cpts {
		if cpt == nil || !cpt.Valid() {
			skipped++
			continue
		}
		cpt.SetActiveLocale(c.locale)
		if c.refiner != nil {
			c.refiner.Refine(cpt, true, sec.refineData)
		}
		doc, err := c.buildDocumentLocked(cpt)
		if err != nil {
			slog.Warn("skipping unserializable component",
				slog.String("id", cpt.ID),
				slog.String("section", sec.key),
				slog.String("error", err.Error()))
			skipped++
			continue
		}
		builder.Add(doc)
	}
	builder.SetMeta("locale", c.locale)
	builder.SetMeta("created", time.Now().UTC().Format(time.RFC3339))

	if err := builder.Compile(context.Background(), sec.backingPath); err != nil {
		return fmt.Errorf("%w: compile section %s: %v", ErrFailed, sec.key, err)
	}
	handle, err := silo.Open(sec.backingPath)
	if err != nil {
		return fmt.Errorf("%w: reopen section %s: %v", ErrFailed, sec.key, err)
	}
	sec.silo = handle

	if skipped > 0 {
		slog.Warn("section built with skipped components",
			slog.String("section", sec.key),
			slog.Int("stored", builder.Len()),
			slog.Int("skipped", skipped))
	} else {
		slog.Debug("section built",
			slog.String("section", sec.key),
			slog.Int("stored", builder.Len()))
	}
	return nil
}

// buildDocumentLocked converts one component into its stored form:
// serialized payload, query columns and embedded search tokens.
func (c *Cache) buildDocumentLocked(cpt *component.Component) (silo.Document, error) {
	payload, err := metadata.Serialize(cpt)
	if err != nil {
		return silo.Document{}, err
	}

	doc := silo.Document{
		CID:       cpt.ID,
		Kind:      cpt.Kind.String(),
		MergeKind: cpt.MergeKind.String(),
		Origin:    cpt.Origin,
		Branch:    cpt.Branch,
		DataID:    cpt.DataID(),
		Payload:   payload,
	}

	for _, group := range cpt.Provided {
		el, ok := component.ElementFor(group.Kind)
		if !ok {
			continue
		}
		for _, item := range group.Items {
			doc.Provided = append(doc.Provided, silo.ProvidedRow{
				Element: el.Element,
				Type:    el.Type,
				Item:    item,
			})
		}
	}
	doc.Categories = cpt.Categories
	for _, l := range cpt.Launchables {
		for _, entry := range l.Entries {
			doc.Launchables = append(doc.Launchables, silo.LaunchableRow{
				Kind:  l.Kind.String(),
				Entry: entry,
			})
		}
	}
	doc.Extends = cpt.Extends
	for _, b := range cpt.Bundles {
		doc.Bundles = append(doc.Bundles, silo.BundleRow{Kind: b.Kind.String(), ID: b.ID})
	}
	doc.Tokens = c.buildTokenRowsLocked(cpt)
	return doc, nil
}

// buildTokenRowsLocked derives the embedded search tokens of one
// component. The stemmed token index feeds the summary, origin and
// pkgname fields (capped) and the uncapped keyword manifold covering
// keywords and description; name, id and mediatype tokens are stored as
// folded literals so they match the same way the in-memory index matches
// them.
func (c *Cache) buildTokenRowsLocked(cpt *component.Component) []silo.TokenRow {
	var rows []silo.TokenRow

	index := cpt.TokenCache(c.stemmer)
	tokens := make([]string, 0, len(index))
	for tok := range index {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	emit := func(field component.TokenMatch, selector component.TokenMatch, limit int) {
		n := 0
		for _, tok := range tokens {
			if index[tok]&selector == 0 {
				continue
			}
			rows = append(rows, silo.TokenRow{Field: int(field), Token: tok})
			n++
			if limit > 0 && n >= limit {
				return
			}
		}
	}
	emit(component.TokenMatchSummary, component.TokenMatchSummary, maxTokensPerField)
	emit(component.TokenMatchOrigin, component.TokenMatchOrigin, maxTokensPerField)
	emit(component.TokenMatchPkgName, component.TokenMatchPkgName, maxTokensPerField)
	emit(component.TokenMatchKeyword, component.TokenMatchKeyword|component.TokenMatchDescription, 0)

	seenNames := make(map[string]bool)
	addName := func(value string) {
		for _, tok := range tokenizer.Fold(value) {
			if !tokenizer.TokenValid(tok) || seenNames[tok] {
				continue
			}
			seenNames[tok] = true
			rows = append(rows, silo.TokenRow{Field: int(component.TokenMatchName), Token: tok})
		}
	}
	addName(cpt.Name())
	if untranslated := cpt.Names()["C"]; untranslated != cpt.Name() {
		addName(untranslated)
	}

	if id := tokenizer.FoldCase(cpt.ID); tokenizer.TokenValid(id) {
		rows = append(rows, silo.TokenRow{Field: int(component.TokenMatchID), Token: id})
	}
	if prov := cpt.ProvidedForKind(component.ProvidedKindMediatype); prov != nil {
		for _, item := range prov.Items {
			if tok := tokenizer.FoldCase(item); tokenizer.TokenValid(tok) {
				rows = append(rows, silo.TokenRow{Field: int(component.TokenMatchMediatype), Token: tok})
			}
		}
	}
	return rows
}
