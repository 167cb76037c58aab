package index

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeVector packs a float32 vector into the raw little-endian
// blob format sqlite-vec's vec0 module expects.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// EnsureVectorTable creates the vec0 virtual table used as a kNN
// prefilter ahead of similarity's exact cosine re-rank, sized to dim
// float32 lanes. A no-op if the table already exists with the same
// declared width.
func (idx *Index) EnsureVectorTable(dim int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS note_vectors USING vec0(embedding float[%d])`, dim)
	if _, err := idx.db.Exec(stmt); err != nil {
		return fmt.Errorf("create vector table: %w", err)
	}
	return nil
}

// UpsertVector stores (or replaces) noteID's projected embedding.
func (idx *Index) UpsertVector(noteID string, vec []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	blob := EncodeVector(vec)
	_, err := idx.db.Exec(`
		INSERT INTO note_vectors(rowid, embedding)
		VALUES ((SELECT rowid FROM notes WHERE id = ?), ?)
		ON CONFLICT(rowid) DO UPDATE SET embedding = excluded.embedding
	`, noteID, blob)
	if err != nil {
		return fmt.Errorf("upsert vector for %s: %w", noteID, err)
	}
	return nil
}

// VectorNeighbor is one kNN hit from QueryVectorNeighbors.
type VectorNeighbor struct {
	NoteID   string
	Distance float64
}

// QueryVectorNeighbors returns the k nearest indexed vectors to query,
// used as a candidate prefilter ahead of similarity's exact TF-IDF
// cosine re-rank (never the final score, per spec.md §4.6).
func (idx *Index) QueryVectorNeighbors(query []float32, k int) ([]VectorNeighbor, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	blob := EncodeVector(query)
	rows, err := idx.db.Query(`
		SELECT n.id, v.distance
		FROM note_vectors v
		JOIN notes n ON n.rowid = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("query vector neighbors: %w", err)
	}
	defer rows.Close()

	var out []VectorNeighbor
	for rows.Next() {
		var n VectorNeighbor
		if err := rows.Scan(&n.NoteID, &n.Distance); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
