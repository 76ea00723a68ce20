// Package silo implements the indexed-document store backing one cache
// section: a single-file, read-optimized SQLite database holding serialized
// component records together with the side tables and token annotations the
// query engine needs. A silo is built once as a whole and then only ever
// read; replacing its contents means compiling a new file and renaming it
// into place.
package silo

import "errors"

// Format tags written into every silo file. A reader refuses files whose
// tags do not match, so schema changes never get misinterpreted as data
// corruption or vice versa.
const (
	// formatVersion is bumped whenever the schema changes incompatibly.
	formatVersion = 1
	// applicationID marks the file as a swindex section ("SWIX").
	applicationID = 0x53574958
)

// ErrFormatMismatch reports that a section file exists but cannot be used:
// it was written by an incompatible version, is not a section file at all,
// or failed its integrity check. Callers usually react by rebuilding.
var ErrFormatMismatch = errors.New("section format mismatch")

// Document is one component record prepared for storage: the serialized
// payload plus the typed index entries the query engine matches against.
type Document struct {
	// CID is the textual component ID.
	CID string
	// Kind is the component kind string.
	Kind string
	// MergeKind is the merge directive string, "none" for regular records.
	MergeKind string
	// Origin names the data origin.
	Origin string
	// Branch is the origin branch, usually empty.
	Branch string
	// DataID is the full component identity.
	DataID string
	// Payload is the serialized component record.
	Payload []byte

	Provided    []ProvidedRow
	Categories  []string
	Launchables []LaunchableRow
	Extends     []string
	Bundles     []BundleRow
	Tokens      []TokenRow
}

// ProvidedRow indexes one provided interface item. Compound kinds are
// addressed by element name plus type attribute, e.g. {"dbus", "system"}.
type ProvidedRow struct {
	Element string
	Type    string
	Item    string
}

// LaunchableRow indexes one launch entry.
type LaunchableRow struct {
	Kind  string
	Entry string
}

// BundleRow indexes one bundle reference.
type BundleRow struct {
	Kind string
	ID   string
}

// TokenRow is one search token annotation, tagged with the match-field
// weight of the field it came from.
type TokenRow struct {
	Field int
	Token string
}

// Row is one stored component record returned by a structured query.
type Row struct {
	// Ref is the stable in-silo reference of the record.
	Ref int64
	// CID is the textual component ID.
	CID string
	// Kind is the component kind string.
	Kind string
	// MergeKind is the merge directive string.
	MergeKind string
	// Origin names the data origin.
	Origin string
	// Branch is the origin branch.
	Branch string
	// DataID is the full component identity.
	DataID string
	// Payload is the serialized component record.
	Payload []byte
}

// TermHit is one token-table hit for a search term: which record matched
// and the match-field weight of the token that matched.
type TermHit struct {
	Ref   int64
	Field int
}
