package silo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

const schema = `
CREATE TABLE components (
	idx INTEGER PRIMARY KEY,
	cid TEXT NOT NULL COLLATE NOCASE,
	kind TEXT NOT NULL,
	merge_kind TEXT NOT NULL,
	origin TEXT NOT NULL,
	branch TEXT NOT NULL,
	data_id TEXT NOT NULL,
	payload BLOB NOT NULL
);
CREATE TABLE provided (
	cpt INTEGER NOT NULL REFERENCES components(idx),
	element TEXT NOT NULL,
	type TEXT NOT NULL,
	item TEXT NOT NULL COLLATE NOCASE
);
CREATE TABLE categories (
	cpt INTEGER NOT NULL REFERENCES components(idx),
	name TEXT NOT NULL
);
CREATE TABLE launchables (
	cpt INTEGER NOT NULL REFERENCES components(idx),
	kind TEXT NOT NULL,
	entry TEXT NOT NULL
);
CREATE TABLE extends (
	cpt INTEGER NOT NULL REFERENCES components(idx),
	target TEXT NOT NULL COLLATE NOCASE
);
CREATE TABLE bundles (
	cpt INTEGER NOT NULL REFERENCES components(idx),
	kind TEXT NOT NULL,
	bundle_id TEXT NOT NULL
);
CREATE TABLE tokens (
	cpt INTEGER NOT NULL REFERENCES components(idx),
	field INTEGER NOT NULL,
	token TEXT NOT NULL
);
CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX idx_components_cid ON components(cid);
CREATE INDEX idx_components_kind ON components(kind);
CREATE INDEX idx_provided_lookup ON provided(element, type, item, cpt);
CREATE INDEX idx_categories_lookup ON categories(name, cpt);
CREATE INDEX idx_launchables_lookup ON launchables(kind, entry, cpt);
CREATE INDEX idx_extends_lookup ON extends(target, cpt);
CREATE INDEX idx_bundles_lookup ON bundles(kind, bundle_id, cpt);
CREATE INDEX idx_tokens_lookup ON tokens(token, cpt, field);
`

// Builder accumulates component documents and compiles them into a
// section file. A builder is single-use: call Compile once.
type Builder struct {
	docs []Document
	meta map[string]string
}

// NewBuilder returns an empty section builder.
func NewBuilder() *Builder {
	return &Builder{meta: make(map[string]string)}
}

// Add appends one document to the pending section.
func (b *Builder) Add(doc Document) {
	b.docs = append(b.docs, doc)
}

// SetMeta records a metadata key readable via Silo.Meta after compile.
func (b *Builder) SetMeta(key, value string) {
	b.meta[key] = value
}

// Len reports the number of pending documents.
func (b *Builder) Len() int {
	return len(b.docs)
}

// Compile writes the accumulated documents to path. The section is built
// in a temporary sibling file and moved into place with a rename, so
// readers only ever see a complete file.
func (b *Builder) Compile(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create section directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".build-*")
	if err != nil {
		return fmt.Errorf("create build file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close build file: %w", err)
	}
	// SQLite wants to create the file itself.
	if err := os.Remove(tmpPath); err != nil {
		return fmt.Errorf("reset build file: %w", err)
	}

	if err := b.compileTo(ctx, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move section into place: %w", err)
	}
	return nil
}

// compileTo builds the full database at dbPath.
func (b *Builder) compileTo(ctx context.Context, dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("create section database: %w", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	// The build file is private until renamed, so durability pragmas are
	// relaxed for speed.
	pragmas := []string{
		"PRAGMA journal_mode = OFF",
		"PRAGMA synchronous = OFF",
		"PRAGMA temp_store = MEMORY",
		fmt.Sprintf("PRAGMA application_id = %d", applicationID),
		fmt.Sprintf("PRAGMA user_version = %d", formatVersion),
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("set build pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create section schema: %w", err)
	}

	if err := b.insertAll(ctx, db); err != nil {
		return err
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("finalize section file: %w", err)
	}
	return nil
}

// insertAll writes every pending document in one transaction.
func (b *Builder) insertAll(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin section transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cptStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO components (cid, kind, merge_kind, origin, branch, data_id, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare component insert: %w", err)
	}
	defer cptStmt.Close()

	providedStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO provided (cpt, element, type, item) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare provided insert: %w", err)
	}
	defer providedStmt.Close()

	categoryStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO categories (cpt, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare category insert: %w", err)
	}
	defer categoryStmt.Close()

	launchableStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO launchables (cpt, kind, entry) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare launchable insert: %w", err)
	}
	defer launchableStmt.Close()

	extendsStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO extends (cpt, target) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare extends insert: %w", err)
	}
	defer extendsStmt.Close()

	bundleStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bundles (cpt, kind, bundle_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare bundle insert: %w", err)
	}
	defer bundleStmt.Close()

	tokenStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tokens (cpt, field, token) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare token insert: %w", err)
	}
	defer tokenStmt.Close()

	metaStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare meta insert: %w", err)
	}
	defer metaStmt.Close()

	for _, doc := range b.docs {
		res, err := cptStmt.ExecContext(ctx,
			doc.CID, doc.Kind, doc.MergeKind, doc.Origin, doc.Branch, doc.DataID, doc.Payload)
		if err != nil {
			return fmt.Errorf("insert component %s: %w", doc.CID, err)
		}
		ref, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("resolve component ref for %s: %w", doc.CID, err)
		}

		for _, p := range doc.Provided {
			if _, err := providedStmt.ExecContext(ctx, ref, p.Element, p.Type, p.Item); err != nil {
				return fmt.Errorf("insert provided item for %s: %w", doc.CID, err)
			}
		}
		for _, cat := range doc.Categories {
			if _, err := categoryStmt.ExecContext(ctx, ref, cat); err != nil {
				return fmt.Errorf("insert category for %s: %w", doc.CID, err)
			}
		}
		for _, l := range doc.Launchables {
			if _, err := launchableStmt.ExecContext(ctx, ref, l.Kind, l.Entry); err != nil {
				return fmt.Errorf("insert launchable for %s: %w", doc.CID, err)
			}
		}
		for _, target := range doc.Extends {
			if _, err := extendsStmt.ExecContext(ctx, ref, target); err != nil {
				return fmt.Errorf("insert extends for %s: %w", doc.CID, err)
			}
		}
		for _, bundle := range doc.Bundles {
			if _, err := bundleStmt.ExecContext(ctx, ref, bundle.Kind, bundle.ID); err != nil {
				return fmt.Errorf("insert bundle for %s: %w", doc.CID, err)
			}
		}
		for _, t := range doc.Tokens {
			if _, err := tokenStmt.ExecContext(ctx, ref, t.Field, t.Token); err != nil {
				return fmt.Errorf("insert token for %s: %w", doc.CID, err)
			}
		}
	}

	for key, value := range b.meta {
		if _, err := metaStmt.ExecContext(ctx, key, value); err != nil {
			return fmt.Errorf("insert meta %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit section transaction: %w", err)
	}
	return nil
}
