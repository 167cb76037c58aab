package similarity

import (
	"hash/fnv"

	"github.com/mwaldstein/qipu-go/internal/qerrors"
)

const defaultVectorDim = 256

// hashProject applies the hashing trick to project a weighted term bag
// into a fixed-width float32 vector: each term is hashed to a bucket
// and a sign, following the standard feature-hashing construction.
// This is a lossy, cheap projection used only to narrow candidates
// before the exact TF-IDF cosine re-rank in FindSimilarFast — it is
// never the final similarity score.
func hashProject(bag map[string]float64, dim int) []float32 {
	v := make([]float64, dim)
	for term, weight := range bag {
		h := fnv.New32a()
		h.Write([]byte(term))
		sum := h.Sum32()
		bucket := int(sum) % dim
		if bucket < 0 {
			bucket += dim
		}
		sign := 1.0
		if sum&1 == 1 {
			sign = -1.0
		}
		v[bucket] += sign * weight
	}

	out := make([]float32, dim)
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// RebuildVectorIndex projects every note's weighted term bag into the
// vec0 table, so FindSimilarFast can prefilter large corpora with a
// kNN lookup instead of scoring every note exactly.
func (e *Engine) RebuildVectorIndex() error {
	notes, err := e.allNotes()
	if err != nil {
		return err
	}
	c := buildCorpus(notes)

	if err := e.idx.EnsureVectorTable(defaultVectorDim); err != nil {
		return err
	}
	for _, n := range notes {
		vec := hashProject(c.docs[n.ID], defaultVectorDim)
		if err := e.idx.UpsertVector(n.ID, vec); err != nil {
			return err
		}
	}
	return nil
}

// FindSimilarFast narrows the candidate set to the k nearest indexed
// vectors before computing the exact TF-IDF cosine score over just
// those candidates, for stores too large to brute-force every note.
// RebuildVectorIndex must have been called at least once since the
// last significant corpus change.
func (e *Engine) FindSimilarFast(id string, limit int, threshold float64, prefilterK int) ([]Scored, error) {
	notes, err := e.allNotes()
	if err != nil {
		return nil, err
	}
	c := buildCorpus(notes)

	target, ok := c.docs[id]
	if !ok {
		return nil, &qerrors.NoteNotFoundError{ID: id}
	}
	targetVec := c.vector(target)

	queryProjection := hashProject(target, defaultVectorDim)
	neighbors, err := e.idx.QueryVectorNeighbors(queryProjection, prefilterK)
	if err != nil {
		return nil, err
	}

	var out []Scored
	for _, nb := range neighbors {
		if nb.NoteID == id {
			continue
		}
		bag, ok := c.docs[nb.NoteID]
		if !ok {
			continue
		}
		score := cosine(targetVec, c.vector(bag))
		if score >= threshold {
			out = append(out, Scored{ID: nb.NoteID, Score: score})
		}
	}
	sortScored(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
