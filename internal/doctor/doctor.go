// Package doctor scans a store for integrity problems and, where
// possible, repairs them, per spec.md §4.10. Unlike every other core
// component, Doctor collects issues rather than propagating the first
// one as an error (spec.md §7): a single Scan walks the layout, the
// index and the compaction invariants, accumulating an ordered list of
// Issue instead of failing fast.
package doctor

import (
	"fmt"
	"os"
	"sort"

	"github.com/mwaldstein/qipu-go/internal/compaction"
	"github.com/mwaldstein/qipu-go/internal/config"
	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/store"
)

// Severity ranks an Issue's impact.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Category names the kind of problem an Issue describes, per
// spec.md §4.10.
type Category string

const (
	CategoryMissingDirectory     Category = "missing-directory"
	CategoryMissingConfig        Category = "missing-config"
	CategoryBrokenLink           Category = "broken-link"
	CategoryInvalidValue         Category = "invalid-value"
	CategoryInvalidNoteType      Category = "invalid-note-type"
	CategoryInvalidLinkType      Category = "invalid-link-type"
	CategoryDeprecatedConfig     Category = "deprecated-config"
	CategoryCompactionInvariant  Category = "compaction-invariant"
)

// Issue is one problem found by Scan.
type Issue struct {
	Severity Severity
	Category Category
	Message  string
	NoteID   string // empty when not note-scoped
	Path     string // empty when not path-scoped
	Fixable  bool
}

// Scan walks s's layout, index and compaction invariants, returning
// issues grouped in this order: missing-directory/config, then
// deprecated-config, then invalid-value/invalid-note-type issues sorted
// by note id, then invalid-link-type issues (in ListNotes order), then
// broken-link issues (by source id), then compaction-invariant messages.
// It never mutates s.
func Scan(s *store.Store) ([]Issue, error) {
	var issues []Issue

	issues = append(issues, scanLayout(s.Layout())...)

	cfg, cfgErr := config.Load(s.Layout().ConfigPath)
	if cfgErr == nil && len(cfg.Graph) > 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Category: CategoryDeprecatedConfig,
			Message:  "config.toml [graph] is deprecated; migrate to [ontology.link_types]",
			Path:     s.Layout().ConfigPath,
			Fixable:  false,
		})
	}

	notes, err := s.ListNotes()
	if err != nil {
		return nil, err
	}
	ont := s.Ontology()

	noteIssues := scanNotes(notes, ont)
	sort.Slice(noteIssues, func(i, j int) bool {
		if noteIssues[i].NoteID != noteIssues[j].NoteID {
			return noteIssues[i].NoteID < noteIssues[j].NoteID
		}
		return noteIssues[i].Category < noteIssues[j].Category
	})
	issues = append(issues, noteIssues...)

	linkIssues, err := scanLinkTypes(s, notes, ont)
	if err != nil {
		return nil, err
	}
	issues = append(issues, linkIssues...)

	brokenLinks, err := scanBrokenLinks(s)
	if err != nil {
		return nil, err
	}
	issues = append(issues, brokenLinks...)

	for _, msg := range compaction.Validate(notes) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Category: CategoryCompactionInvariant,
			Message:  msg,
			Fixable:  false,
		})
	}

	return issues, nil
}

func scanLayout(layout store.Layout) []Issue {
	var issues []Issue
	dirs := []string{layout.Notes, layout.MOCs, layout.Attachments, layout.Workspaces}
	for _, d := range dirs {
		if _, err := os.Stat(d); os.IsNotExist(err) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: CategoryMissingDirectory,
				Message:  fmt.Sprintf("missing directory %s", d),
				Path:     d,
				Fixable:  true,
			})
		}
	}
	if _, err := os.Stat(layout.ConfigPath); os.IsNotExist(err) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Category: CategoryMissingConfig,
			Message:  fmt.Sprintf("missing %s", layout.ConfigPath),
			Path:     layout.ConfigPath,
			Fixable:  true,
		})
	}
	return issues
}

func scanNotes(notes []*note.Note, ont ontologyChecker) []Issue {
	var issues []Issue
	for _, n := range notes {
		if n.Value < 0 || n.Value > 100 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: CategoryInvalidValue,
				Message:  fmt.Sprintf("note %s has out-of-range value %d", n.ID, n.Value),
				NoteID:   n.ID,
				Fixable:  true,
			})
		}
		if !ont.IsValidNoteType(n.Type) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: CategoryInvalidNoteType,
				Message:  fmt.Sprintf("note %s has unregistered type %q", n.ID, n.Type),
				NoteID:   n.ID,
				Fixable:  false,
			})
		}
	}
	return issues
}

// ontologyChecker is the slice of *ontology.Ontology that scanNotes
// needs, kept narrow so tests can stub it without constructing a full
// config-backed Ontology.
type ontologyChecker interface {
	IsValidNoteType(string) bool
	IsValidLinkType(string) bool
}

func scanLinkTypes(s *store.Store, notes []*note.Note, ont ontologyChecker) ([]Issue, error) {
	var issues []Issue
	for _, n := range notes {
		edges, err := s.Index().GetOutboundEdges(n.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if !ont.IsValidLinkType(e.LinkType) {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Category: CategoryInvalidLinkType,
					Message:  fmt.Sprintf("edge %s -%s-> %s has unregistered link type", e.SourceID, e.LinkType, e.TargetID),
					NoteID:   n.ID,
					Fixable:  false,
				})
			}
		}
	}
	return issues, nil
}

func scanBrokenLinks(s *store.Store) ([]Issue, error) {
	refs, err := s.Index().ListUnresolved()
	if err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(refs))
	for _, r := range refs {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Category: CategoryBrokenLink,
			Message:  fmt.Sprintf("%s links to nonexistent %s", r.SourceID, r.TargetRef),
			NoteID:   r.SourceID,
			Fixable:  true,
		})
	}
	return issues, nil
}

// ExitCode maps a Scan result to spec.md §6.5: 3 if any Issue is
// SeverityError, 0 otherwise.
func ExitCode(issues []Issue) int {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return 3
		}
	}
	return 0
}
