package index

import (
	"fmt"
)

// Direction selects which edge direction Traverse follows.
type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// Traverse returns every id reachable from start within maxHops hops,
// in BFS discovery order (deduped), using a recursive CTE for bulk
// reachability, per spec.md §4.4 and the three-variant shape of the
// original implementation's db/traverse.rs. If maxNodes > 0, the
// result is truncated to that many ids (start included).
func (idx *Index) Traverse(start string, dir Direction, maxHops int, maxNodes int) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var edgeSelect string
	switch dir {
	case DirectionOut:
		edgeSelect = `SELECT target_id AS nxt FROM edges WHERE source_id = r.id`
	case DirectionIn:
		edgeSelect = `SELECT source_id AS nxt FROM edges WHERE target_id = r.id`
	case DirectionBoth:
		edgeSelect = `
			SELECT target_id AS nxt FROM edges WHERE source_id = r.id
			UNION
			SELECT source_id AS nxt FROM edges WHERE target_id = r.id`
	default:
		return nil, fmt.Errorf("unknown direction %q", dir)
	}

	query := fmt.Sprintf(`
		WITH RECURSIVE reachable(id, depth) AS (
			SELECT ?, 0
			UNION
			SELECT e.nxt, r.depth + 1
			FROM reachable r, (%s) e
			WHERE r.depth < ?
		)
		SELECT DISTINCT id FROM reachable ORDER BY depth, id
	`, edgeSelect)

	rows, err := idx.db.Query(query, start, maxHops)
	if err != nil {
		return nil, fmt.Errorf("traverse from %s: %w", start, err)
	}
	defer rows.Close()

	var ids []string
	seen := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if maxNodes > 0 && len(ids) >= maxNodes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
