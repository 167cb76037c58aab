package similarity

import "github.com/mwaldstein/qipu-go/internal/qerrors"

// FindBySharedTags scores every other note by Jaccard similarity of
// tag sets against id, sorted descending then by id ascending,
// truncated to limit.
func (e *Engine) FindBySharedTags(id string, limit int) ([]Scored, error) {
	notes, err := e.allNotes()
	if err != nil {
		return nil, err
	}

	byID := map[string]map[string]bool{}
	for _, n := range notes {
		set := map[string]bool{}
		for _, t := range n.Tags {
			set[t] = true
		}
		byID[n.ID] = set
	}
	targetSet, ok := byID[id]
	if !ok {
		return nil, &qerrors.NoteNotFoundError{ID: id}
	}

	var out []Scored
	for _, n := range notes {
		if n.ID == id {
			continue
		}
		score := jaccard(targetSet, byID[n.ID])
		if score > 0 {
			out = append(out, Scored{ID: n.ID, Score: score})
		}
	}
	sortScored(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	union := map[string]bool{}
	inter := 0
	for t := range a {
		union[t] = true
		if b[t] {
			inter++
		}
	}
	for t := range b {
		union[t] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}
