package similarity

import (
	"sort"

	"github.com/mwaldstein/qipu-go/internal/index"
	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/qerrors"
)

// Engine is the similarity query entry point, backed by internal/index.
type Engine struct {
	idx *index.Index
}

// New builds a similarity Engine over idx.
func New(idx *index.Index) *Engine {
	return &Engine{idx: idx}
}

// Scored is one (id, score) result.
type Scored struct {
	ID    string
	Score float64
}

func (e *Engine) allNotes() ([]*note.Note, error) {
	return e.idx.ListNotes(index.ListFilter{})
}

// CalculateSimilarity returns the TF-IDF cosine similarity between a
// and b, over the whole store's corpus for IDF weighting.
func (e *Engine) CalculateSimilarity(a, b string) (float64, error) {
	notes, err := e.allNotes()
	if err != nil {
		return 0, err
	}
	c := buildCorpus(notes)

	bagA, okA := c.docs[a]
	bagB, okB := c.docs[b]
	if !okA {
		return 0, &qerrors.NoteNotFoundError{ID: a}
	}
	if !okB {
		return 0, &qerrors.NoteNotFoundError{ID: b}
	}
	return cosine(c.vector(bagA), c.vector(bagB)), nil
}

// FindSimilar scores id against every other note in the store, keeps
// scores >= threshold, sorts descending (ties by id ascending) and
// truncates to limit.
func (e *Engine) FindSimilar(id string, limit int, threshold float64) ([]Scored, error) {
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

	var out []Scored
	for _, n := range notes {
		if n.ID == id {
			continue
		}
		score := cosine(targetVec, c.vector(c.docs[n.ID]))
		if score >= threshold {
			out = append(out, Scored{ID: n.ID, Score: score})
		}
	}
	sortScored(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DuplicatePair is one (a,b,score) result of FindAllDuplicates, with
// a<b so each unordered pair appears once.
type DuplicatePair struct {
	A     string
	B     string
	Score float64
}

// FindAllDuplicates returns every pair (a,b) with a<b and
// similarity >= threshold.
func (e *Engine) FindAllDuplicates(threshold float64) ([]DuplicatePair, error) {
	notes, err := e.allNotes()
	if err != nil {
		return nil, err
	}
	c := buildCorpus(notes)

	vecs := make(map[string]map[string]float64, len(notes))
	for _, n := range notes {
		vecs[n.ID] = c.vector(c.docs[n.ID])
	}

	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	var pairs []DuplicatePair
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if score := cosine(vecs[ids[i]], vecs[ids[j]]); score >= threshold {
				pairs = append(pairs, DuplicatePair{A: ids[i], B: ids[j], Score: score})
			}
		}
	}
	return pairs, nil
}

func sortScored(s []Scored) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].ID < s[j].ID
	})
}
