package doctor

import (
	"os"

	"github.com/mwaldstein/qipu-go/internal/config"
	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/qerrors"
	"github.com/mwaldstein/qipu-go/internal/store"
)

// Fix applies the fixable issues in issues: it recreates missing
// directories and config.toml, clamps out-of-range values to 100, and
// strips edges whose target doesn't exist, per spec.md §4.10. It
// returns the number of issues fixed. Non-fixable issues are ignored.
// Per P8, running Fix to completion and then Scan again must report
// zero fixable issues.
func Fix(s *store.Store, issues []Issue) (int, error) {
	fixed := 0
	for _, issue := range issues {
		if !issue.Fixable {
			continue
		}
		switch issue.Category {
		case CategoryMissingDirectory:
			if err := os.MkdirAll(issue.Path, 0o755); err != nil {
				return fixed, &qerrors.IOError{Detail: "recreate " + issue.Path, Err: err}
			}
			fixed++

		case CategoryMissingConfig:
			if err := config.DefaultConfig().Save(issue.Path); err != nil {
				return fixed, err
			}
			fixed++

		case CategoryInvalidValue:
			if err := clampValue(s, issue.NoteID); err != nil {
				return fixed, err
			}
			fixed++

		case CategoryBrokenLink:
			if err := stripBrokenLink(s, issue.NoteID); err != nil {
				return fixed, err
			}
			fixed++
		}
	}
	return fixed, nil
}

// clampValue sets id's out-of-range value to 100, per spec.md §4.10's
// literal fix rule (it does not distinguish above-100 from
// below-zero).
func clampValue(s *store.Store, id string) error {
	n, err := s.GetNote(id)
	if err != nil {
		return err
	}
	n.Value = 100
	return s.SaveNote(n)
}

// stripBrokenLink removes id's outbound links pointing at targets that
// don't exist as notes, leaving the rest of id's link set untouched.
// A broken link can originate from a declared frontmatter link or from
// `[[id]]`/`[text](id.md)` syntax in the body; SaveNote always
// re-derives inline links from the body (internal/store.writeAndIndex),
// so dropping a broken target from n.Links alone would be undone by
// the very save that's supposed to fix it — the body text must also be
// rewritten for any broken target that appears there.
func stripBrokenLink(s *store.Store, id string) error {
	n, err := s.GetNote(id)
	if err != nil {
		return err
	}
	kept := make([]note.TypedLink, 0, len(n.Links))
	for _, l := range n.Links {
		exists, err := s.Index().ExistsID(l.TargetID)
		if err != nil {
			return err
		}
		if exists {
			kept = append(kept, l)
			continue
		}
		if l.Inline {
			n.Body = note.StripInlineLink(n.Body, l.TargetID)
		}
	}
	n.Links = kept
	return s.SaveNote(n)
}
