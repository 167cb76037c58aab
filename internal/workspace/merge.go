package workspace

import (
	"fmt"
	"sort"

	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/qerrors"
	"github.com/mwaldstein/qipu-go/internal/store"
)

// MergeStrategy selects how Merge resolves an id collision between
// the source and target stores, per spec.md §4.9.
type MergeStrategy string

const (
	StrategySkip       MergeStrategy = "skip"
	StrategyOverwrite  MergeStrategy = "overwrite"
	StrategyMergeLinks MergeStrategy = "merge-links"
	StrategyRename     MergeStrategy = "rename"
)

// MergeOptions controls Merge's behavior.
type MergeOptions struct {
	Strategy     MergeStrategy
	DryRun       bool
	DeleteSource bool
}

// MergeReport summarizes one merge: counts with DryRun, the same
// counts plus the rename map when actually applied.
type MergeReport struct {
	NotesAdded int
	Conflicts  int
	Strategy   MergeStrategy
	RenamedIDs map[string]string // original source id -> id written in target, rename strategy only
}

// Merge copies sourceName's notes into targetName, resolving id
// collisions per opts.Strategy. With DryRun, no store is mutated and
// the report carries only counts. With DeleteSource (and not DryRun),
// the source workspace is removed after a successful merge.
func (m *Manager) Merge(sourceName, targetName string, opts MergeOptions) (*MergeReport, error) {
	source, sourceIsPrimary, err := m.openWorkspace(sourceName)
	if err != nil {
		return nil, err
	}
	target, targetIsPrimary, err := m.openWorkspace(targetName)
	if err != nil {
		if !sourceIsPrimary {
			source.Close()
		}
		return nil, err
	}
	closeAll := func() {
		if !sourceIsPrimary {
			source.Close()
		}
		if !targetIsPrimary {
			target.Close()
		}
	}

	sourceNotes, err := source.ListNotes()
	if err != nil {
		closeAll()
		return nil, err
	}

	report := &MergeReport{Strategy: opts.Strategy, RenamedIDs: map[string]string{}}
	for _, n := range sourceNotes {
		if _, err := target.GetNote(n.ID); err == nil {
			report.Conflicts++
		} else {
			report.NotesAdded++
		}
	}

	if opts.DryRun {
		closeAll()
		return report, nil
	}

	finalID := map[string]string{}
	for _, n := range sourceNotes {
		existing, getErr := target.GetNote(n.ID)
		collision := getErr == nil

		switch opts.Strategy {
		case StrategySkip:
			finalID[n.ID] = n.ID
			if collision {
				continue
			}
			if err := target.SaveNote(cloneNote(n)); err != nil {
				closeAll()
				return nil, err
			}

		case StrategyOverwrite:
			finalID[n.ID] = n.ID
			if err := target.SaveNote(cloneNote(n)); err != nil {
				closeAll()
				return nil, err
			}

		case StrategyMergeLinks:
			finalID[n.ID] = n.ID
			if !collision {
				if err := target.SaveNote(cloneNote(n)); err != nil {
					closeAll()
					return nil, err
				}
				continue
			}
			merged := mergeLinksAndTags(existing, n)
			if err := target.SaveNote(merged); err != nil {
				closeAll()
				return nil, err
			}

		case StrategyRename:
			id := n.ID
			if collision {
				id = nextFreeID(target, n.ID)
				report.RenamedIDs[n.ID] = id
			}
			finalID[n.ID] = id
			clone := cloneNote(n)
			clone.ID = id
			if err := target.SaveNote(clone); err != nil {
				closeAll()
				return nil, err
			}

		default:
			closeAll()
			return nil, &qerrors.UsageError{Detail: "unknown merge strategy " + string(opts.Strategy)}
		}
	}

	if opts.Strategy == StrategyRename && len(report.RenamedIDs) > 0 {
		if err := rewriteBatchEdges(target, sourceNotes, finalID); err != nil {
			closeAll()
			return nil, err
		}
	}

	closeAll()

	if opts.DeleteSource && !sourceIsPrimary {
		if err := m.Delete(sourceName, true); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// nextFreeID returns id suffixed with the smallest positive integer k
// making <id>-<k> free in target, per spec.md §4.9's rename strategy.
func nextFreeID(target *store.Store, id string) string {
	for k := 1; ; k++ {
		candidate := fmt.Sprintf("%s-%d", id, k)
		if _, err := target.GetNote(candidate); err != nil {
			return candidate
		}
	}
}

// rewriteBatchEdges rewrites every copied note's outbound links that
// target another id renamed within this same merge batch, per
// spec.md §4.9: "all incoming edges from the same merge batch are
// rewritten to the new id."
func rewriteBatchEdges(target *store.Store, sourceNotes []*note.Note, finalID map[string]string) error {
	for _, n := range sourceNotes {
		id := finalID[n.ID]
		copied, err := target.GetNote(id)
		if err != nil {
			return err
		}
		changed := false
		for i, l := range copied.Links {
			if newTarget, ok := finalID[l.TargetID]; ok && newTarget != l.TargetID {
				copied.Links[i].TargetID = newTarget
				changed = true
			}
		}
		if changed {
			if err := target.SaveNote(copied); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeLinksAndTags keeps existing's body/frontmatter but unions its
// link and tag sets with incoming's, per the merge-links strategy.
func mergeLinksAndTags(existing, incoming *note.Note) *note.Note {
	merged := *existing
	merged.Tags = unionTags(existing.Tags, incoming.Tags)
	merged.Links = unionLinks(existing.Links, incoming.Links)
	return &merged
}

func unionTags(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range a {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range b {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func unionLinks(a, b []note.TypedLink) []note.TypedLink {
	type key struct{ source, target, typ string }
	seen := map[key]bool{}
	var out []note.TypedLink
	for _, l := range a {
		k := key{l.SourceID, l.TargetID, l.LinkType}
		if !seen[k] {
			seen[k] = true
			out = append(out, l)
		}
	}
	for _, l := range b {
		k := key{l.SourceID, l.TargetID, l.LinkType}
		if !seen[k] {
			seen[k] = true
			out = append(out, l)
		}
	}
	return out
}
