// Package metadata converts software-component records between their
// catalog representations (XML and DEP-11 style YAML) and the in-memory
// component model. Malformed records are a recoverable, per-component
// condition: they are skipped and counted, never fatal to a whole catalog.
package metadata

import "github.com/swcatalog/swindex/internal/component"

// FormatStyle distinguishes the two source data shapes.
type FormatStyle int

const (
	// StyleUnknown is an unset format style.
	StyleUnknown FormatStyle = iota
	// StyleCatalog is collection data describing many components from
	// one repository.
	StyleCatalog
	// StyleMetainfo is data describing a single component, shipped by the
	// component's own project and considered more authoritative.
	StyleMetainfo
)

// String returns the string form of the format style.
func (f FormatStyle) String() string {
	switch f {
	case StyleCatalog:
		return "catalog"
	case StyleMetainfo:
		return "metainfo"
	default:
		return "unknown"
	}
}

// ParseResult is the outcome of parsing one catalog document.
type ParseResult struct {
	// Origin is the repository origin declared by the document, if any.
	Origin string
	// Version is the format version declared by the document, if any.
	Version string
	// Components holds the successfully parsed records.
	Components []*component.Component
	// Skipped counts records dropped as malformed.
	Skipped int
}
