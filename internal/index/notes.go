package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/qerrors"
)

// row mirrors the notes table's columns for scanning.
type row struct {
	id           string
	title        string
	typ          string
	path         string
	created      string
	updated      string
	body         string
	mtime        int64
	value        int
	compactsJSON string
	author       string
	verified     sql.NullBool
	source       string
	sourcesJSON  string
	generatedBy  string
	promptHash   string
	customJSON   string
}

func toRow(n *note.Note, mtime int64) (*row, error) {
	compacts, err := json.Marshal(n.Compacts)
	if err != nil {
		return nil, fmt.Errorf("marshal compacts: %w", err)
	}
	sources, err := json.Marshal(n.Sources)
	if err != nil {
		return nil, fmt.Errorf("marshal sources: %w", err)
	}
	custom := n.Custom
	if custom == nil {
		custom = map[string]interface{}{}
	}
	customJSON, err := json.Marshal(custom)
	if err != nil {
		return nil, fmt.Errorf("marshal custom: %w", err)
	}

	r := &row{
		id:           n.ID,
		title:        n.Title,
		typ:          n.Type,
		path:         n.Path,
		created:      n.Created.Format(time.RFC3339),
		updated:      n.Updated.Format(time.RFC3339),
		body:         n.Body,
		mtime:        mtime,
		value:        n.Value,
		compactsJSON: string(compacts),
		author:       n.Author,
		source:       n.Source,
		sourcesJSON:  string(sources),
		generatedBy:  n.GeneratedBy,
		promptHash:   n.PromptHash,
		customJSON:   string(customJSON),
	}
	if n.Verified != nil {
		r.verified = sql.NullBool{Bool: *n.Verified, Valid: true}
	}
	return r, nil
}

func (r *row) toNote() (*note.Note, error) {
	created, err := time.Parse(time.RFC3339, r.created)
	if err != nil {
		return nil, fmt.Errorf("parse created: %w", err)
	}
	updated, err := time.Parse(time.RFC3339, r.updated)
	if err != nil {
		return nil, fmt.Errorf("parse updated: %w", err)
	}

	var compacts []string
	if err := json.Unmarshal([]byte(r.compactsJSON), &compacts); err != nil {
		return nil, fmt.Errorf("unmarshal compacts: %w", err)
	}
	var sources []note.NoteSource
	if err := json.Unmarshal([]byte(r.sourcesJSON), &sources); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}
	var custom map[string]interface{}
	if err := json.Unmarshal([]byte(r.customJSON), &custom); err != nil {
		return nil, fmt.Errorf("unmarshal custom: %w", err)
	}

	n := &note.Note{
		ID:          r.id,
		Title:       r.title,
		Type:        r.typ,
		Path:        r.path,
		Created:     created,
		Updated:     updated,
		Body:        r.body,
		Value:       r.value,
		Compacts:    compacts,
		Author:      r.author,
		Source:      r.source,
		Sources:     sources,
		GeneratedBy: r.generatedBy,
		PromptHash:  r.promptHash,
		Custom:      custom,
	}
	if r.verified.Valid {
		v := r.verified.Bool
		n.Verified = &v
	}
	return n, nil
}

// UpsertNote writes n's row, its tag relations and its notes_fts
// row in one transaction. Edge upsert is a separate call
// (UpsertEdges) so Store can compute the merged inline+declared set
// first.
func (idx *Index) UpsertNote(n *note.Note, mtime int64, tags []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	r, err := toRow(n, mtime)
	if err != nil {
		return err
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO notes (id, title, type, path, created, updated, body, mtime, value,
			compacts_json, author, verified, source, sources_json, generated_by, prompt_hash, custom_json)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, type=excluded.type, path=excluded.path,
			created=excluded.created, updated=excluded.updated, body=excluded.body,
			mtime=excluded.mtime, value=excluded.value, compacts_json=excluded.compacts_json,
			author=excluded.author, verified=excluded.verified, source=excluded.source,
			sources_json=excluded.sources_json, generated_by=excluded.generated_by,
			prompt_hash=excluded.prompt_hash, custom_json=excluded.custom_json
	`, r.id, r.title, r.typ, r.path, r.created, r.updated, r.body, r.mtime, r.value,
		r.compactsJSON, r.author, r.verified, r.source, r.sourcesJSON, r.generatedBy,
		r.promptHash, r.customJSON)
	if err != nil {
		return fmt.Errorf("upsert note: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM notes_fts WHERE rowid = (SELECT rowid FROM notes WHERE id = ?)`, r.id); err != nil {
		return fmt.Errorf("clear fts row: %w", err)
	}
	tagsJoined := ""
	for i, t := range tags {
		if i > 0 {
			tagsJoined += " "
		}
		tagsJoined += t
	}
	if _, err := tx.Exec(`
		INSERT INTO notes_fts (rowid, title, body, tags)
		SELECT rowid, ?, ?, ? FROM notes WHERE id = ?
	`, r.title, r.body, tagsJoined, r.id); err != nil {
		return fmt.Errorf("index fts row: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM tags WHERE note_id = ?`, r.id); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for _, t := range tags {
		if _, err := tx.Exec(`INSERT INTO tags (note_id, tag) VALUES (?, ?)`, r.id, t); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}

	return tx.Commit()
}

// GetNote fetches one note by id.
func (idx *Index) GetNote(id string) (*note.Note, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	r := row{}
	err := idx.db.QueryRow(`
		SELECT id, title, type, path, created, updated, body, mtime, value,
			compacts_json, author, verified, source, sources_json, generated_by, prompt_hash, custom_json
		FROM notes WHERE id = ?`, id).Scan(
		&r.id, &r.title, &r.typ, &r.path, &r.created, &r.updated, &r.body, &r.mtime, &r.value,
		&r.compactsJSON, &r.author, &r.verified, &r.source, &r.sourcesJSON, &r.generatedBy,
		&r.promptHash, &r.customJSON)
	if err == sql.ErrNoRows {
		return nil, &qerrors.NoteNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get note %s: %w", id, err)
	}

	n, err := r.toNote()
	if err != nil {
		return nil, err
	}
	n.Tags, err = idx.tagsForNote(id)
	if err != nil {
		return nil, err
	}
	n.Links, err = idx.edgesFrom(id)
	return n, err
}

func (idx *Index) tagsForNote(id string) ([]string, error) {
	rows, err := idx.db.Query(`SELECT tag FROM tags WHERE note_id = ? ORDER BY tag`, id)
	if err != nil {
		return nil, fmt.Errorf("list tags for %s: %w", id, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ListFilter narrows ListNotes.
type ListFilter struct {
	Type  string
	Tag   string
	Limit int
}

// ListNotes returns notes ordered by created descending, id ascending
// (spec.md §4.3), optionally filtered by type/tag and capped at Limit.
func (idx *Index) ListNotes(f ListFilter) ([]*note.Note, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	query := `SELECT DISTINCT n.id, n.title, n.type, n.path, n.created, n.updated, n.body, n.mtime, n.value,
		n.compacts_json, n.author, n.verified, n.source, n.sources_json, n.generated_by, n.prompt_hash, n.custom_json
		FROM notes n`
	var args []interface{}
	var where []string
	if f.Tag != "" {
		query += ` JOIN tags t ON t.note_id = n.id`
		where = append(where, `t.tag = ?`)
		args = append(args, f.Tag)
	}
	if f.Type != "" {
		where = append(where, `n.type = ?`)
		args = append(args, f.Type)
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += ` ORDER BY n.created DESC, n.id ASC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []*note.Note
	for rows.Next() {
		r := row{}
		if err := rows.Scan(&r.id, &r.title, &r.typ, &r.path, &r.created, &r.updated, &r.body, &r.mtime,
			&r.value, &r.compactsJSON, &r.author, &r.verified, &r.source, &r.sourcesJSON, &r.generatedBy,
			&r.promptHash, &r.customJSON); err != nil {
			return nil, err
		}
		n, err := r.toNote()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, n := range out {
		n.Tags, err = idx.tagsForNote(n.ID)
		if err != nil {
			return nil, err
		}
		n.Links, err = idx.edgesFrom(n.ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteNote removes a note's row, its tag relations, its outbound and
// inbound edges and any unresolved refs it owns. Cascading per
// spec.md §4.3.
func (idx *Index) DeleteNote(id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM notes_fts WHERE rowid = (SELECT rowid FROM notes WHERE id = ?)`, id); err != nil {
		return fmt.Errorf("delete fts row: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM tags WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("delete tags: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM edges WHERE source_id = ? OR target_id = ?`, id, id); err != nil {
		return fmt.Errorf("delete edges: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM unresolved WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("delete unresolved: %w", err)
	}
	return tx.Commit()
}

// TagFrequency is one (tag, count) pair.
type TagFrequency struct {
	Tag   string
	Count int
}

// GetTagFrequencies returns every tag's usage count, most frequent
// first, ties broken alphabetically.
func (idx *Index) GetTagFrequencies() ([]TagFrequency, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`
		SELECT tag, COUNT(*) c FROM tags GROUP BY tag ORDER BY c DESC, tag ASC`)
	if err != nil {
		return nil, fmt.Errorf("tag frequencies: %w", err)
	}
	defer rows.Close()

	var out []TagFrequency
	for rows.Next() {
		var f TagFrequency
		if err := rows.Scan(&f.Tag, &f.Count); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ExistsID reports whether id is already present in the index, used by
// Doctor's broken-link fix. (The store's live-id trie is seeded from
// AllIDs instead.)
func (idx *Index) ExistsID(id string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var exists int
	err := idx.db.QueryRow(`SELECT 1 FROM notes WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check id %s: %w", id, err)
	}
	return true, nil
}

// AllIDs returns every note id currently indexed, used to seed the
// store's live-id trie at open.
func (idx *Index) AllIDs() ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`SELECT id FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
