// Package component models software-component metadata records: identity,
// classification, provided system interfaces, localized texts and the
// per-component token index backing full-text search.
package component

import (
	"strings"
	"sync"
)

// Component is one software-component metadata record.
//
// Localized fields (name, summary, description, keywords) are stored as
// tables keyed by locale tag and read through the accessors, which apply the
// fallback chain active locale, language part, untranslated "C".
type Component struct {
	// ID is the component ID, e.g. "org.example.PhotoEdit". Required.
	ID string
	// Kind classifies the component.
	Kind Kind
	// Scope records whether the metadata is system-wide or per-user.
	Scope Scope
	// Origin names the repository or catalog the data came from.
	Origin string
	// Branch is the origin branch, usually empty outside bundle systems.
	Branch string
	// MergeKind is set on merge components that modify other components.
	MergeKind MergeKind

	// PkgNames lists distribution packages shipping this component.
	PkgNames []string
	// Bundles lists installable bundles for this component.
	Bundles []Bundle
	// Extends lists component IDs this addon augments.
	Extends []string
	// Provided lists public interfaces grouped by kind.
	Provided []Provided
	// Categories lists desktop category names.
	Categories []string
	// Launchables lists launch entries grouped by kind.
	Launchables []Launchable

	names        map[string]string
	summaries    map[string]string
	descriptions map[string]string
	keywords     map[string][]string
	custom       map[string]string

	activeLocale string
	dataID       string
	sortScore    uint

	addons []*Component

	tokensOnce sync.Once
	tokens     map[string]TokenMatch
}

// New creates an empty component with the untranslated locale active.
func New() *Component {
	return &Component{
		names:        make(map[string]string),
		summaries:    make(map[string]string),
		descriptions: make(map[string]string),
		keywords:     make(map[string][]string),
		activeLocale: "C",
	}
}

// Valid reports whether the component carries the minimum required data.
func (c *Component) Valid() bool {
	return strings.TrimSpace(c.ID) != ""
}

// IsMergeComponent reports whether this record modifies another component
// instead of describing one itself.
func (c *Component) IsMergeComponent() bool {
	return c.MergeKind != MergeKindNone
}

// ActiveLocale returns the locale the localized accessors read through.
func (c *Component) ActiveLocale() string {
	if c.activeLocale == "" {
		return "C"
	}
	return c.activeLocale
}

// SetActiveLocale switches the locale used by the localized accessors.
func (c *Component) SetActiveLocale(locale string) {
	if locale == "" {
		locale = "C"
	}
	c.activeLocale = locale
}

// DataID returns the session-unique identity of this component. If no
// explicit identity was assigned, it is assembled from scope, bundle kind,
// origin, ID and branch.
func (c *Component) DataID() string {
	if c.dataID != "" {
		return c.dataID
	}
	return BuildDataID(c.Scope, c.bundleKind(), c.Origin, c.ID, c.Branch)
}

// SetDataID assigns an explicit identity, overriding the derived one.
// An empty value returns to deriving the identity from the parts.
func (c *Component) SetDataID(dataID string) {
	c.dataID = dataID
}

// bundleKind is the effective bundle kind: the kind of the first listed
// bundle, or unknown when the component has none.
func (c *Component) bundleKind() BundleKind {
	if len(c.Bundles) == 0 {
		return BundleKindUnknown
	}
	return c.Bundles[0].Kind
}

// SortScore returns the relevance score assigned by the last search.
func (c *Component) SortScore() uint {
	return c.sortScore
}

// SetSortScore assigns the relevance score used for result ordering.
func (c *Component) SetSortScore(score uint) {
	c.sortScore = score
}

// Name returns the localized display name.
func (c *Component) Name() string {
	return localizedValue(c.names, c.ActiveLocale())
}

// SetName sets the display name for a locale; an empty locale means "C".
func (c *Component) SetName(locale, value string) {
	if c.names == nil {
		c.names = make(map[string]string)
	}
	c.names[localeOrC(locale)] = value
}

// Names returns the full name table, keyed by locale tag.
func (c *Component) Names() map[string]string {
	return c.names
}

// Summary returns the localized one-line summary.
func (c *Component) Summary() string {
	return localizedValue(c.summaries, c.ActiveLocale())
}

// SetSummary sets the summary for a locale; an empty locale means "C".
func (c *Component) SetSummary(locale, value string) {
	if c.summaries == nil {
		c.summaries = make(map[string]string)
	}
	c.summaries[localeOrC(locale)] = value
}

// Summaries returns the full summary table, keyed by locale tag.
func (c *Component) Summaries() map[string]string {
	return c.summaries
}

// Description returns the localized long description.
func (c *Component) Description() string {
	return localizedValue(c.descriptions, c.ActiveLocale())
}

// SetDescription sets the description for a locale; an empty locale means "C".
func (c *Component) SetDescription(locale, value string) {
	if c.descriptions == nil {
		c.descriptions = make(map[string]string)
	}
	c.descriptions[localeOrC(locale)] = value
}

// Descriptions returns the full description table, keyed by locale tag.
func (c *Component) Descriptions() map[string]string {
	return c.descriptions
}

// Keywords returns the localized keyword list.
func (c *Component) Keywords() []string {
	if c.keywords == nil {
		return nil
	}
	locale := c.ActiveLocale()
	if kw, ok := c.keywords[locale]; ok {
		return kw
	}
	if lang := languagePart(locale); lang != locale {
		if kw, ok := c.keywords[lang]; ok {
			return kw
		}
	}
	return c.keywords["C"]
}

// SetKeywords sets the keywords for a locale; an empty locale means "C".
func (c *Component) SetKeywords(locale string, keywords []string) {
	if c.keywords == nil {
		c.keywords = make(map[string][]string)
	}
	c.keywords[localeOrC(locale)] = keywords
}

// KeywordTables returns the full keyword table, keyed by locale tag.
func (c *Component) KeywordTables() map[string][]string {
	return c.keywords
}

// CustomValue returns the free-form custom value stored under key, or "".
func (c *Component) CustomValue(key string) string {
	return c.custom[key]
}

// SetCustomValue stores a free-form key/value pair on the component.
// Refine hooks use this to attach computed data.
func (c *Component) SetCustomValue(key, value string) {
	if c.custom == nil {
		c.custom = make(map[string]string)
	}
	c.custom[key] = value
}

// Custom returns the full custom key/value table.
func (c *Component) Custom() map[string]string {
	return c.custom
}

// ProvidedForKind returns the provided-interface group of the given kind,
// or nil when the component provides nothing of that kind.
func (c *Component) ProvidedForKind(kind ProvidedKind) *Provided {
	for i := range c.Provided {
		if c.Provided[i].Kind == kind {
			return &c.Provided[i]
		}
	}
	return nil
}

// AddProvidedItem records one provided interface item of the given kind.
func (c *Component) AddProvidedItem(kind ProvidedKind, item string) {
	if item == "" {
		return
	}
	if prov := c.ProvidedForKind(kind); prov != nil {
		if !prov.HasItem(item) {
			prov.Items = append(prov.Items, item)
		}
		return
	}
	c.Provided = append(c.Provided, Provided{Kind: kind, Items: []string{item}})
}

// LaunchableForKind returns the launchable group of the given kind, or nil.
func (c *Component) LaunchableForKind(kind LaunchableKind) *Launchable {
	for i := range c.Launchables {
		if c.Launchables[i].Kind == kind {
			return &c.Launchables[i]
		}
	}
	return nil
}

// AddLaunchableEntry records one launch entry of the given kind.
func (c *Component) AddLaunchableEntry(kind LaunchableKind, entry string) {
	if entry == "" {
		return
	}
	if l := c.LaunchableForKind(kind); l != nil {
		l.Entries = append(l.Entries, entry)
		return
	}
	c.Launchables = append(c.Launchables, Launchable{Kind: kind, Entries: []string{entry}})
}

// Addons returns the addon components resolved for this component.
func (c *Component) Addons() []*Component {
	return c.addons
}

// AddAddon attaches a resolved addon. Duplicate identities are ignored.
func (c *Component) AddAddon(addon *Component) {
	for _, a := range c.addons {
		if a.DataID() == addon.DataID() {
			return
		}
	}
	c.addons = append(c.addons, addon)
}

// localeOrC normalizes an empty locale tag to the untranslated locale.
func localeOrC(locale string) string {
	if locale == "" {
		return "C"
	}
	return locale
}

// languagePart strips territory, codeset and modifier from a locale tag.
func languagePart(locale string) string {
	if i := strings.IndexAny(locale, "_.@-"); i > 0 {
		return locale[:i]
	}
	return locale
}

// localizedValue resolves a value from a locale table using the fallback
// chain exact locale, language part, untranslated "C".
func localizedValue(table map[string]string, locale string) string {
	if len(table) == 0 {
		return ""
	}
	if v, ok := table[locale]; ok {
		return v
	}
	if lang := languagePart(locale); lang != locale {
		if v, ok := table[lang]; ok {
			return v
		}
	}
	return table["C"]
}
