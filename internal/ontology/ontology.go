// Package ontology holds the registered note types and link types for a
// store: which names are valid, which link types invert to which, and
// what each link type costs to traverse.
package ontology

import (
	"sort"

	"github.com/mwaldstein/qipu-go/internal/qerrors"
)

// Mode controls how the built-in note/link types combine with
// user-defined ones.
type Mode string

const (
	// ModeDefault allows only the built-in types.
	ModeDefault Mode = "default"
	// ModeExtended allows the built-ins plus user-defined types.
	ModeExtended Mode = "extended"
	// ModeReplacement allows only user-defined types.
	ModeReplacement Mode = "replacement"
)

// LinkType describes a registered edge type.
type LinkType struct {
	Name        string
	Description string
	Inverse     string // empty if no inverse is registered
	Cost        float64
}

// defaultNoteTypes are the built-in note types, per spec.md §3.
var defaultNoteTypes = []string{"fleeting", "literature", "permanent", "moc"}

// defaultLinkTypes are the built-in link types and their inverses/costs.
var defaultLinkTypes = []LinkType{
	{Name: "related", Description: "loosely related", Cost: 1.0},
	{Name: "derived-from", Description: "derived from source", Inverse: "source-of", Cost: 1.0},
	{Name: "source-of", Description: "source of derived note", Inverse: "derived-from", Cost: 1.0},
	{Name: "supports", Description: "supports the claim in", Inverse: "supported-by", Cost: 1.0},
	{Name: "supported-by", Description: "supported by", Inverse: "supports", Cost: 1.0},
	{Name: "contradicts", Description: "contradicts", Inverse: "contradicts", Cost: 1.0},
}

// Ontology is the active set of recognized note types and link types for a
// store, built from config.toml's [ontology] section (internal/config).
type Ontology struct {
	mode      Mode
	noteTypes map[string]bool
	linkTypes map[string]LinkType
	defaultNT string
}

// New builds an Ontology from a mode and a set of user-defined types.
// extraNoteTypes/extraLinkTypes are ignored entirely in ModeDefault,
// merged with builtins in ModeExtended, and used exclusively in
// ModeReplacement.
func New(mode Mode, defaultNoteType string, extraNoteTypes []string, extraLinkTypes []LinkType) *Ontology {
	o := &Ontology{
		mode:      mode,
		noteTypes: map[string]bool{},
		linkTypes: map[string]LinkType{},
		defaultNT: defaultNoteType,
	}
	if o.defaultNT == "" {
		o.defaultNT = "fleeting"
	}

	switch mode {
	case ModeReplacement:
		for _, nt := range extraNoteTypes {
			o.noteTypes[nt] = true
		}
		for _, lt := range extraLinkTypes {
			o.linkTypes[lt.Name] = lt
		}
	case ModeExtended:
		for _, nt := range defaultNoteTypes {
			o.noteTypes[nt] = true
		}
		for _, lt := range defaultLinkTypes {
			o.linkTypes[lt.Name] = lt
		}
		for _, nt := range extraNoteTypes {
			o.noteTypes[nt] = true
		}
		for _, lt := range extraLinkTypes {
			o.linkTypes[lt.Name] = lt
		}
	default: // ModeDefault
		for _, nt := range defaultNoteTypes {
			o.noteTypes[nt] = true
		}
		for _, lt := range defaultLinkTypes {
			o.linkTypes[lt.Name] = lt
		}
	}

	return o
}

// Mode returns the ontology's active mode.
func (o *Ontology) Mode() Mode { return o.mode }

// DefaultNoteType returns the note type assigned when none is given.
func (o *Ontology) DefaultNoteType() string { return o.defaultNT }

// IsValidNoteType reports whether t is registered.
func (o *Ontology) IsValidNoteType(t string) bool {
	return o.noteTypes[t]
}

// IsValidLinkType reports whether t is registered.
func (o *Ontology) IsValidLinkType(t string) bool {
	_, ok := o.linkTypes[t]
	return ok
}

// InverseOf returns the registered inverse of t, or "" if none.
func (o *Ontology) InverseOf(t string) string {
	return o.linkTypes[t].Inverse
}

// CostOf returns the traversal cost of t, defaulting to 1.0 for an
// unregistered type (legacy rows are read tolerantly per spec.md §9).
func (o *Ontology) CostOf(t string) float64 {
	if lt, ok := o.linkTypes[t]; ok {
		return lt.Cost
	}
	return 1.0
}

// NoteTypes returns the sorted set of registered note types.
func (o *Ontology) NoteTypes() []string {
	out := make([]string, 0, len(o.noteTypes))
	for nt := range o.noteTypes {
		out = append(out, nt)
	}
	sort.Strings(out)
	return out
}

// LinkTypes returns the registered link types, keyed by name.
func (o *Ontology) LinkTypes() map[string]LinkType {
	out := make(map[string]LinkType, len(o.linkTypes))
	for k, v := range o.linkTypes {
		out[k] = v
	}
	return out
}

// ValidateNoteType returns a *qerrors.UnsupportedError if t is not
// registered. Callers on the write path (Store.CreateNote/SaveNote)
// must call this; the read path never does (spec.md §9: unknown types
// are tolerated on read).
func (o *Ontology) ValidateNoteType(t string) error {
	if !o.IsValidNoteType(t) {
		return &qerrors.UnsupportedError{Context: "note type", Value: t, Supported: o.NoteTypes()}
	}
	return nil
}

// ValidateLinkType returns a *qerrors.UnsupportedError if t is not
// registered.
func (o *Ontology) ValidateLinkType(t string) error {
	if !o.IsValidLinkType(t) {
		names := make([]string, 0, len(o.linkTypes))
		for n := range o.linkTypes {
			names = append(names, n)
		}
		return &qerrors.UnsupportedError{Context: "link type", Value: t, Supported: names}
	}
	return nil
}
