package silo

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// readPragmas are applied to the read connection. The connection pool is
// capped at one connection, so per-connection pragmas hold for every query.
var readPragmas = []string{
	"PRAGMA query_only = ON",
	"PRAGMA case_sensitive_like = ON",
	"PRAGMA busy_timeout = 5000",
}

// Silo is a read handle on one compiled section file.
type Silo struct {
	db   *sql.DB
	path string
}

// Open opens and validates a section file. It returns ErrFormatMismatch
// (wrapped) when the file is not a usable section: wrong application tag,
// wrong format version, missing schema or failed integrity check.
func Open(path string) (*Silo, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat section file: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open section file: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Silo{db: db, path: path}
	if err := s.validate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// validate runs the format and integrity checks on a freshly opened file.
func (s *Silo) validate() error {
	for _, pragma := range readPragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("apply pragma: %w", err)
		}
	}

	// The first header read fails on files that are not SQLite databases.
	var appID int64
	if err := s.db.QueryRow("PRAGMA application_id").Scan(&appID); err != nil {
		return fmt.Errorf("%w: unreadable section file: %v", ErrFormatMismatch, err)
	}
	if appID != applicationID {
		return fmt.Errorf("%w: not a section file (application id %#x)", ErrFormatMismatch, appID)
	}

	var version int64
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read format version: %w", err)
	}
	if version != formatVersion {
		return fmt.Errorf("%w: format version %d, want %d", ErrFormatMismatch, version, formatVersion)
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'components'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: component table missing", ErrFormatMismatch)
	}
	if err != nil {
		return fmt.Errorf("probe schema: %w", err)
	}

	var integrity string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("%w: integrity check failed: %s", ErrFormatMismatch, integrity)
	}

	return nil
}

// Path returns the file path this silo was opened from.
func (s *Silo) Path() string {
	return s.path
}

// Close releases the underlying database handle.
func (s *Silo) Close() error {
	return s.db.Close()
}

// Meta returns a metadata value stored at build time, or "" when absent.
func (s *Silo) Meta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read meta %q: %w", key, err)
	}
	return value, nil
}

// Count returns the number of stored component records.
func (s *Silo) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM components").Scan(&n); err != nil {
		return 0, fmt.Errorf("count components: %w", err)
	}
	return n, nil
}

const rowColumns = "idx, cid, kind, merge_kind, origin, branch, data_id, payload"

// collectRows materializes a component-row query result.
func collectRows(rows *sql.Rows) ([]Row, error) {
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Ref, &r.CID, &r.Kind, &r.MergeKind, &r.Origin, &r.Branch, &r.DataID, &r.Payload); err != nil {
			return nil, fmt.Errorf("scan component row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate component rows: %w", err)
	}
	return out, nil
}

// queryRows runs one component-row query.
func (s *Silo) queryRows(query string, args ...any) ([]Row, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	return collectRows(rows)
}

// All returns every stored record in insertion order.
func (s *Silo) All() ([]Row, error) {
	return s.queryRows("SELECT " + rowColumns + " FROM components ORDER BY idx")
}

// MatchID returns records whose component ID equals the given ID,
// compared case-insensitively.
func (s *Silo) MatchID(id string) ([]Row, error) {
	return s.queryRows(
		"SELECT "+rowColumns+" FROM components WHERE cid = ? ORDER BY idx", id)
}

// MatchProvidedID returns records that list the given ID as a provided
// component ID. Used as a fallback when MatchID finds nothing.
func (s *Silo) MatchProvidedID(id string) ([]Row, error) {
	return s.queryRows(
		"SELECT "+rowColumns+` FROM components
		 WHERE idx IN (SELECT cpt FROM provided WHERE element = 'id' AND item = ?)
		 ORDER BY idx`, id)
}

// MatchKind returns records of the given component kind.
func (s *Silo) MatchKind(kind string) ([]Row, error) {
	return s.queryRows(
		"SELECT "+rowColumns+" FROM components WHERE kind = ? ORDER BY idx", kind)
}

// MatchExtends returns records that declare they extend the given
// component ID.
func (s *Silo) MatchExtends(id string) ([]Row, error) {
	return s.queryRows(
		"SELECT "+rowColumns+` FROM components
		 WHERE idx IN (SELECT cpt FROM extends WHERE target = ?)
		 ORDER BY idx`, id)
}

// MatchProvided returns records providing the given item, addressed by
// element name and optional type attribute.
func (s *Silo) MatchProvided(element, typ, item string) ([]Row, error) {
	if typ == "" {
		return s.queryRows(
			"SELECT "+rowColumns+` FROM components
			 WHERE idx IN (SELECT cpt FROM provided WHERE element = ? AND item = ?)
			 ORDER BY idx`, element, item)
	}
	return s.queryRows(
		"SELECT "+rowColumns+` FROM components
		 WHERE idx IN (SELECT cpt FROM provided WHERE element = ? AND type = ? AND item = ?)
		 ORDER BY idx`, element, typ, item)
}

// MatchCategories returns records tagged with every one of the given
// categories. At least one category is required.
func (s *Silo) MatchCategories(categories []string) ([]Row, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("category query without categories")
	}

	var b strings.Builder
	b.WriteString("SELECT " + rowColumns + " FROM components WHERE 1=1")
	args := make([]any, 0, len(categories))
	for _, cat := range categories {
		b.WriteString(" AND EXISTS (SELECT 1 FROM categories WHERE cpt = components.idx AND name = ?)")
		args = append(args, cat)
	}
	b.WriteString(" ORDER BY idx")

	return s.queryRows(b.String(), args...)
}

// MatchLaunchable returns records launchable via the given kind and entry.
func (s *Silo) MatchLaunchable(kind, entry string) ([]Row, error) {
	return s.queryRows(
		"SELECT "+rowColumns+` FROM components
		 WHERE idx IN (SELECT cpt FROM launchables WHERE kind = ? AND entry = ?)
		 ORDER BY idx`, kind, entry)
}

// MatchBundleID returns records shipping a bundle of the given kind whose
// ID equals the given ID, or starts with it when matchPrefix is set.
func (s *Silo) MatchBundleID(kind, id string, matchPrefix bool) ([]Row, error) {
	if matchPrefix {
		return s.queryRows(
			"SELECT "+rowColumns+` FROM components
			 WHERE idx IN (SELECT cpt FROM bundles WHERE kind = ? AND bundle_id LIKE ? ESCAPE '\')
			 ORDER BY idx`, kind, likePrefix(id))
	}
	return s.queryRows(
		"SELECT "+rowColumns+` FROM components
		 WHERE idx IN (SELECT cpt FROM bundles WHERE kind = ? AND bundle_id = ?)
		 ORDER BY idx`, kind, id)
}

// Refs returns the records with the given in-silo references. Unknown
// references are silently absent from the result.
func (s *Silo) Refs(refs []int64) ([]Row, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(refs)), ",")
	args := make([]any, len(refs))
	for i, ref := range refs {
		args[i] = ref
	}
	return s.queryRows(
		"SELECT "+rowColumns+" FROM components WHERE idx IN ("+placeholders+") ORDER BY idx", args...)
}

// SearchTerm returns token-table hits for one pre-stemmed search term.
// Matching is by prefix, so a stemmed term finds its inflected forms.
func (s *Silo) SearchTerm(term string) ([]TermHit, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT cpt, field FROM tokens WHERE token LIKE ? ESCAPE '\'`, likePrefix(term))
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []TermHit
	for rows.Next() {
		var h TermHit
		if err := rows.Scan(&h.Ref, &h.Field); err != nil {
			return nil, fmt.Errorf("scan token hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token hits: %w", err)
	}
	return hits, nil
}

// likePrefix builds a LIKE pattern matching strings starting with s.
func likePrefix(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return s + "%"
}
