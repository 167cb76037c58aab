package store

import (
	"sort"

	"github.com/mwaldstein/qipu-go/internal/config"
	"github.com/mwaldstein/qipu-go/internal/ontology"
)

// OntologyFromConfig builds the active Ontology described by cfg's
// [ontology] table, per spec.md §4.2/§6.1.
func OntologyFromConfig(cfg *config.Config) *ontology.Ontology {
	noteTypes := make([]string, 0, len(cfg.Ontology.NoteTypes))
	for nt := range cfg.Ontology.NoteTypes {
		noteTypes = append(noteTypes, nt)
	}
	sort.Strings(noteTypes)

	linkTypes := make([]ontology.LinkType, 0, len(cfg.Ontology.LinkTypes))
	for name, lt := range cfg.Ontology.LinkTypes {
		cost := lt.Cost
		if cost == 0 {
			cost = 1.0
		}
		linkTypes = append(linkTypes, ontology.LinkType{
			Name: name, Description: lt.Description, Inverse: lt.Inverse, Cost: cost,
		})
	}
	sort.Slice(linkTypes, func(i, j int) bool { return linkTypes[i].Name < linkTypes[j].Name })

	return ontology.New(ontology.Mode(cfg.Ontology.Mode), cfg.DefaultNoteType, noteTypes, linkTypes)
}

// OpenAt discovers an existing store under root (visible controls
// whether it looks for "qipu" instead of ".qipu"), loads its
// config.toml and opens the Store with the resulting Ontology.
func OpenAt(root string, visible bool) (*Store, error) {
	layout, err := Discover(root, visible)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(layout.ConfigPath)
	if err != nil {
		return nil, err
	}
	return Open(layout, OntologyFromConfig(cfg))
}

// OpenBare discovers and opens a store whose directory is dir itself
// (no nested ".qipu"/"qipu" level), the workspace counterpart to
// OpenAt.
func OpenBare(dir string) (*Store, error) {
	layout, err := DiscoverBare(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(layout.ConfigPath)
	if err != nil {
		return nil, err
	}
	return Open(layout, OntologyFromConfig(cfg))
}
