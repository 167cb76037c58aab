// Package index is the embedded relational + full-text index derived
// from the note files on disk, per spec.md §4.4. It is rebuildable from
// the file tree at any time and is the sole path consulted by the
// search, similarity and graph engines.
package index

import (
	"database/sql"
	"fmt"
	"sync"

	// Registers the "sqlite3" database/sql driver (pure-Go, wazero-based),
	// the same driver the teacher repo uses for its own embedded store.
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	// Registers the vec0 virtual table module against the ncruces
	// driver; used by internal/similarity's hashed-projection prefilter.
	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
)

// Index owns the single embedded connection for one store. Per
// spec.md §5, the connection is owned by the Store and not shared
// across threads of execution without going through this type's
// mutex-guarded methods, following the teacher's SQLiteStore shape.
type Index struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (creating if absent) the SQLite file at path and ensures
// the schema is current.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer model, per spec.md §5

	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Close releases the underlying connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) migrate() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := idx.db.Exec(
		`INSERT INTO index_meta(key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		schemaVersion,
	); err != nil {
		return fmt.Errorf("write schema_version: %w", err)
	}
	return nil
}

// SchemaVersion returns the schema_version row of index_meta (I4).
func (idx *Index) SchemaVersion() (string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var v string
	err := idx.db.QueryRow(`SELECT value FROM index_meta WHERE key = 'schema_version'`).Scan(&v)
	if err != nil {
		return "", fmt.Errorf("read schema_version: %w", err)
	}
	return v, nil
}

// MetaGet reads an arbitrary index_meta key, e.g. the indexing
// watermark used by reindex_incremental/reindex_adaptive.
func (idx *Index) MetaGet(key string) (string, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var v string
	err := idx.db.QueryRow(`SELECT value FROM index_meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read meta %s: %w", key, err)
	}
	return v, true, nil
}

// MetaSet writes an index_meta key.
func (idx *Index) MetaSet(key, value string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, err := idx.db.Exec(
		`INSERT INTO index_meta(key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}
