package index

import (
	"fmt"
	"time"
)

// SearchFilter narrows a SearchCandidates call. Since is a lower bound
// (inclusive) on a note's updated timestamp. Filters are applied before
// any ranking happens (P7).
type SearchFilter struct {
	Type  string
	Tag   string
	Since time.Time
	Limit int
}

// Candidate is one FTS-matched row; internal/search computes the final
// weighted relevance score and snippet from these fields, per
// spec.md §4.5.
type Candidate struct {
	ID      string
	Title   string
	Body    string
	Tags    []string
	Updated time.Time
}

// SearchCandidates runs the FTS5 MATCH query, applies type/tag/since
// filters, and returns every matching row with no ranking or
// truncation applied — ranking and limit enforcement are
// internal/search's responsibility.
func (idx *Index) SearchCandidates(query string, f SearchFilter) ([]Candidate, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	sqlQuery := `
		SELECT n.id, n.title, n.body, n.updated
		FROM notes_fts
		JOIN notes n ON n.rowid = notes_fts.rowid
		WHERE notes_fts MATCH ?`
	args := []interface{}{query}

	if f.Tag != "" {
		sqlQuery += ` AND EXISTS (SELECT 1 FROM tags t WHERE t.note_id = n.id AND t.tag = ?)`
		args = append(args, f.Tag)
	}
	if f.Type != "" {
		sqlQuery += ` AND n.type = ?`
		args = append(args, f.Type)
	}
	if !f.Since.IsZero() {
		sqlQuery += ` AND n.updated >= ?`
		args = append(args, f.Since.Format(time.RFC3339))
	}

	rows, err := idx.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		var updatedStr string
		if err := rows.Scan(&c.ID, &c.Title, &c.Body, &updatedStr); err != nil {
			return nil, err
		}
		c.Updated, err = time.Parse(time.RFC3339, updatedStr)
		if err != nil {
			return nil, fmt.Errorf("parse updated for %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagsByID := make(map[string][]string, len(out))
	for _, c := range out {
		tags, err := idx.tagsForNote(c.ID)
		if err != nil {
			return nil, err
		}
		tagsByID[c.ID] = tags
	}
	for i := range out {
		out[i].Tags = tagsByID[out[i].ID]
	}
	return out, nil
}
