package compaction

import (
	"fmt"
	"sort"

	"github.com/mwaldstein/qipu-go/internal/note"
)

// Validate checks the invariants of spec.md §3/§4.8 over notes: no
// self-compaction, every referenced source/digest id exists, no
// source listed in two digests' Compacts lists, and no cycles. It
// returns a sorted slice of human-readable error messages; an empty
// slice means the note set is valid.
func Validate(notes []*note.Note) []string {
	byID := make(map[string]*note.Note, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
	}

	var errs []string
	owners := map[string][]string{}
	for _, n := range notes {
		for _, src := range n.Compacts {
			if src == n.ID {
				errs = append(errs, fmt.Sprintf("note %s compacts itself", n.ID))
				continue
			}
			if _, ok := byID[src]; !ok {
				errs = append(errs, fmt.Sprintf("digest %s compacts nonexistent source %s", n.ID, src))
			}
			owners[src] = append(owners[src], n.ID)
		}
	}
	for src, ds := range owners {
		if len(ds) > 1 {
			sort.Strings(ds)
			errs = append(errs, fmt.Sprintf("source %s is compacted by multiple digests: %v", src, ds))
		}
	}

	ctx := Build(notes)
	seen := map[string]bool{}
	for _, n := range notes {
		if _, err := ctx.Canon(n.ID); err != nil {
			msg := err.Error()
			if !seen[msg] {
				seen[msg] = true
				errs = append(errs, msg)
			}
		}
	}

	sort.Strings(errs)
	return errs
}
