package index

// schemaVersion is the implementation's current schema version,
// checked/written to index_meta on every open (spec.md I4).
const schemaVersion = "1"

// schemaDDL is the logical schema required by spec.md §4.4: notes,
// notes_fts (external-content FTS5, porter+unicode61), tags, edges,
// unresolved, index_meta. Following the teacher's schema-as-a-Go-const
// idiom rather than a migration framework.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS notes (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	type          TEXT NOT NULL,
	path          TEXT NOT NULL UNIQUE,
	created       TEXT NOT NULL,
	updated       TEXT NOT NULL,
	body          TEXT NOT NULL DEFAULT '',
	mtime         INTEGER NOT NULL DEFAULT 0,
	value         INTEGER NOT NULL DEFAULT 0,
	compacts_json TEXT NOT NULL DEFAULT '[]',
	author        TEXT NOT NULL DEFAULT '',
	verified      INTEGER,
	source        TEXT NOT NULL DEFAULT '',
	sources_json  TEXT NOT NULL DEFAULT '[]',
	generated_by  TEXT NOT NULL DEFAULT '',
	prompt_hash   TEXT NOT NULL DEFAULT '',
	custom_json   TEXT NOT NULL DEFAULT '{}'
);

CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
	title, body, tags,
	content='notes',
	content_rowid='rowid',
	tokenize='porter unicode61'
);

CREATE TABLE IF NOT EXISTS tags (
	note_id TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	tag     TEXT NOT NULL,
	PRIMARY KEY (note_id, tag)
);
CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);

CREATE TABLE IF NOT EXISTS edges (
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	link_type TEXT NOT NULL,
	inline    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (source_id, target_id, link_type)
);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(link_type);

CREATE TABLE IF NOT EXISTS unresolved (
	source_id  TEXT NOT NULL,
	target_ref TEXT NOT NULL,
	PRIMARY KEY (source_id, target_ref)
);

CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
