// Package compaction implements the lossless knowledge-decay mechanism
// of spec.md §4.8: a digest note's `compacts` list subsumes a set of
// source notes. Canonicalization is a pointer-chasing walk over a
// lookup relation (not an owning relation) with a scratch visited set,
// per design note §9; validate is a single pass over all notes.
// Grounded on the original implementation's compaction/{mod,validation}.rs.
package compaction

import (
	"fmt"

	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/qerrors"
)

// SizeBasis selects which text compaction size metrics measure
// against: the frontmatter summary if present else the first
// paragraph (default), or the full body.
type SizeBasis string

const (
	SizeBasisSummary SizeBasis = "summary"
	SizeBasisBody    SizeBasis = "body"
)

// Context is built from a note set by reading every note's Compacts
// list. It answers canon/validate/expand queries without re-reading
// the store.
type Context struct {
	notes    map[string]*note.Note
	digestOf map[string]string   // source id -> a digest id that claims it (last writer wins on collision)
	sources  map[string][]string // digest id -> its declared Compacts list, in order
}

// Build constructs a Context from the current note set.
func Build(notes []*note.Note) *Context {
	c := &Context{
		notes:    map[string]*note.Note{},
		digestOf: map[string]string{},
		sources:  map[string][]string{},
	}
	for _, n := range notes {
		c.notes[n.ID] = n
		if len(n.Compacts) == 0 {
			continue
		}
		c.sources[n.ID] = append([]string(nil), n.Compacts...)
		for _, src := range n.Compacts {
			c.digestOf[src] = n.ID
		}
	}
	return c
}

// Canon returns id's canonical (post-compaction) representative: if id
// is compacted by digest D, canon(id) = canon(D); otherwise id itself.
// Fails with a *qerrors.CompactionInvariantError mentioning "cycle" if
// the walk revisits a node.
func (c *Context) Canon(id string) (string, error) {
	visited := map[string]bool{id: true}
	chain := []string{id}
	cur := id
	for {
		d, ok := c.digestOf[cur]
		if !ok {
			return cur, nil
		}
		if visited[d] {
			chain = append(chain, d)
			return "", &qerrors.CompactionInvariantError{Detail: fmt.Sprintf("cycle: %v", chain)}
		}
		visited[d] = true
		chain = append(chain, d)
		cur = d
	}
}
