package index

import (
	"fmt"

	"github.com/mwaldstein/qipu-go/internal/note"
)

// UpsertEdges replaces the full outbound edge set for sourceID with
// links, and records any target that does not currently exist as an
// unresolved reference (I1). Such a reference is cleared when the
// target note's own edges are upserted, or when the mentioning note's
// edges are upserted again after the target exists; UpsertNote alone
// does not touch unresolved references.
func (idx *Index) UpsertEdges(sourceID string, links []note.TypedLink) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM edges WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("clear edges: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM unresolved WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("clear unresolved: %w", err)
	}

	for _, l := range links {
		var exists int
		err := tx.QueryRow(`SELECT 1 FROM notes WHERE id = ?`, l.TargetID).Scan(&exists)
		targetExists := err == nil

		inline := 0
		if l.Inline {
			inline = 1
		}
		if _, err := tx.Exec(`
			INSERT INTO edges (source_id, target_id, link_type, inline) VALUES (?,?,?,?)
			ON CONFLICT(source_id, target_id, link_type) DO UPDATE SET inline=excluded.inline
		`, l.SourceID, l.TargetID, l.LinkType, inline); err != nil {
			return fmt.Errorf("insert edge: %w", err)
		}
		if !targetExists {
			if _, err := tx.Exec(`
				INSERT INTO unresolved (source_id, target_ref) VALUES (?, ?)
				ON CONFLICT DO NOTHING
			`, l.SourceID, l.TargetID); err != nil {
				return fmt.Errorf("insert unresolved: %w", err)
			}
		}
	}

	// Resolving this note may satisfy unresolved refs held by other
	// notes pointing at it.
	if _, err := tx.Exec(`
		DELETE FROM unresolved WHERE target_ref = (SELECT id FROM notes WHERE id = ?)
	`, sourceID); err != nil {
		return fmt.Errorf("resolve pending refs: %w", err)
	}

	return tx.Commit()
}

func (idx *Index) edgesFrom(id string) ([]note.TypedLink, error) {
	rows, err := idx.db.Query(`
		SELECT source_id, target_id, link_type, inline FROM edges
		WHERE source_id = ? ORDER BY link_type, target_id`, id)
	if err != nil {
		return nil, fmt.Errorf("outbound edges for %s: %w", id, err)
	}
	defer rows.Close()
	return scanLinks(rows)
}

// GetOutboundEdges returns id's declared+inline outbound edges, sorted
// by (link_type, target_id) per spec.md §4.4/§4.7.
func (idx *Index) GetOutboundEdges(id string) ([]note.TypedLink, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.edgesFrom(id)
}

// GetInboundEdges returns edges targeting id, sorted by
// (link_type, source_id).
func (idx *Index) GetInboundEdges(id string) ([]note.TypedLink, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`
		SELECT source_id, target_id, link_type, inline FROM edges
		WHERE target_id = ? ORDER BY link_type, source_id`, id)
	if err != nil {
		return nil, fmt.Errorf("inbound edges for %s: %w", id, err)
	}
	defer rows.Close()
	return scanLinks(rows)
}

// GetBacklinks is an alias for GetInboundEdges matching spec.md §4.4's
// naming.
func (idx *Index) GetBacklinks(id string) ([]note.TypedLink, error) {
	return idx.GetInboundEdges(id)
}

type scannable interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanLinks(rows scannable) ([]note.TypedLink, error) {
	var out []note.TypedLink
	for rows.Next() {
		var l note.TypedLink
		var inline int
		if err := rows.Scan(&l.SourceID, &l.TargetID, &l.LinkType, &inline); err != nil {
			return nil, err
		}
		l.Inline = inline != 0
		out = append(out, l)
	}
	return out, rows.Err()
}

// UnresolvedRef is a dangling reference recorded by UpsertEdges.
type UnresolvedRef struct {
	SourceID  string
	TargetRef string
}

// ListUnresolved returns every unresolved reference, used by Doctor's
// broken-link scan.
func (idx *Index) ListUnresolved() ([]UnresolvedRef, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`SELECT source_id, target_ref FROM unresolved ORDER BY source_id, target_ref`)
	if err != nil {
		return nil, fmt.Errorf("list unresolved: %w", err)
	}
	defer rows.Close()

	var out []UnresolvedRef
	for rows.Next() {
		var u UnresolvedRef
		if err := rows.Scan(&u.SourceID, &u.TargetRef); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
