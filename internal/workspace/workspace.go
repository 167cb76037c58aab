// Package workspace implements forking a store into an isolated copy
// and merging it back, per spec.md §4.9. A workspace is a named
// secondary Store rooted at <primary>/.qipu/workspaces/<name>/, with
// its own workspace.toml. Grounded on the original implementation's
// store/workspace.rs for the manifest shape, composed with
// internal/store's Store facade for the actual note operations.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mwaldstein/qipu-go/internal/config"
	"github.com/mwaldstein/qipu-go/internal/index"
	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/qerrors"
	"github.com/mwaldstein/qipu-go/internal/store"
)

// PrimaryName is the pseudo-workspace name List always includes for
// the primary store itself.
const PrimaryName = "."

// Manager operates on the workspaces living under a primary store.
type Manager struct {
	primary *store.Store
	root    string // primary store's dir, i.e. layout.Dir
}

// New builds a workspace Manager over an already-open primary store.
func New(primary *store.Store) *Manager {
	return &Manager{primary: primary, root: primary.Layout().Dir}
}

// Info describes one workspace, primary included.
type Info struct {
	Name      string
	Temporary bool
	CreatedAt time.Time
	ParentID  string
}

// List returns every workspace under the primary, always including
// the "." pseudo-workspace first.
func (m *Manager) List() ([]Info, error) {
	out := []Info{{Name: PrimaryName}}

	entries, err := os.ReadDir(m.primary.Layout().Workspaces)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, &qerrors.IOError{Detail: "list workspaces", Err: err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		meta, err := config.LoadWorkspace(m.workspaceTOMLPath(name))
		if err != nil {
			return nil, err
		}
		out = append(out, Info{Name: name, Temporary: meta.Temporary, CreatedAt: meta.CreatedAt, ParentID: meta.ParentID})
	}
	return out, nil
}

func (m *Manager) workspaceDir(name string) string {
	return filepath.Join(m.primary.Layout().Workspaces, name)
}

func (m *Manager) workspaceTOMLPath(name string) string {
	return filepath.Join(m.workspaceDir(name), "workspace.toml")
}

// openWorkspace resolves name to an open Store: the primary itself
// (not owned by the caller) for "." / "", or a freshly opened
// secondary workspace store (owned by the caller; isPrimary reports
// which case it is, so callers know whether to Close it).
func (m *Manager) openWorkspace(name string) (s *store.Store, isPrimary bool, err error) {
	if name == PrimaryName || name == "" {
		return m.primary, true, nil
	}
	ws, err := store.OpenBare(m.workspaceDir(name))
	if err != nil {
		return nil, false, err
	}
	return ws, false, nil
}

// InitKind selects how a new workspace is seeded.
type InitKind string

const (
	InitEmpty       InitKind = "empty"
	InitCopyPrimary InitKind = "copy_primary"
	InitFromTag     InitKind = "from_tag"
	InitFromNote    InitKind = "from_note"
	InitFromQuery   InitKind = "from_query"
)

// NewWorkspaceOptions controls New's seeding behavior.
type NewWorkspaceOptions struct {
	Kind      InitKind
	Tag       string // for InitFromTag
	NoteID    string // for InitFromNote
	Query     string // for InitFromQuery, resolved by the caller into QueryIDs
	QueryIDs  []string
	Temporary bool
}

// New creates a new workspace under the primary as its own Store,
// seeded per opts.Kind, per spec.md §4.9.
func (m *Manager) New(name string, opts NewWorkspaceOptions) (*store.Store, error) {
	dir := m.workspaceDir(name)
	if _, err := os.Stat(dir); err == nil {
		return nil, &qerrors.AlreadyExistsError{Path: dir}
	}

	layout, err := store.InitBare(dir)
	if err != nil {
		return nil, err
	}

	meta := &config.WorkspaceMetadata{Name: name, CreatedAt: time.Now().UTC(), Temporary: opts.Temporary}
	if err := config.SaveWorkspace(m.workspaceTOMLPath(name), meta); err != nil {
		return nil, err
	}

	ws, err := store.Open(layout, m.primary.Ontology())
	if err != nil {
		return nil, err
	}

	if err := m.seed(ws, opts); err != nil {
		ws.Close()
		return nil, err
	}
	return ws, nil
}

func (m *Manager) seed(ws *store.Store, opts NewWorkspaceOptions) error {
	switch opts.Kind {
	case "", InitEmpty:
		return nil
	case InitCopyPrimary:
		notes, err := m.primary.ListNotes()
		if err != nil {
			return err
		}
		return copyNotesInto(ws, notes)
	case InitFromTag:
		notes, err := m.primary.Index().ListNotes(index.ListFilter{Tag: opts.Tag})
		if err != nil {
			return err
		}
		return copyNotesInto(ws, notes)
	case InitFromNote:
		n, err := m.primary.GetNote(opts.NoteID)
		if err != nil {
			return err
		}
		return copyNotesInto(ws, []*note.Note{n})
	case InitFromQuery:
		var notes []*note.Note
		for _, id := range opts.QueryIDs {
			n, err := m.primary.GetNote(id)
			if err != nil {
				return err
			}
			notes = append(notes, n)
		}
		return copyNotesInto(ws, notes)
	default:
		return &qerrors.UsageError{Detail: "unknown workspace init kind " + string(opts.Kind)}
	}
}

// copyNotesInto writes verbatim copies of notes (same id, title, type,
// tags, links, body, metadata) into ws.
func copyNotesInto(ws *store.Store, notes []*note.Note) error {
	for _, src := range notes {
		n := cloneNote(src)
		if err := ws.SaveNote(n); err != nil {
			return err
		}
	}
	return nil
}

func cloneNote(src *note.Note) *note.Note {
	n := *src
	n.Path = "" // let SaveNote recompute the path under the new store
	n.Tags = append([]string(nil), src.Tags...)
	n.Compacts = append([]string(nil), src.Compacts...)
	n.Sources = append([]note.NoteSource(nil), src.Sources...)
	n.Links = append([]note.TypedLink(nil), src.Links...)
	return &n
}

// Delete removes a workspace. It refuses to delete one holding notes
// not present (by id+content hash) in the primary, unless force.
func (m *Manager) Delete(name string, force bool) error {
	if name == PrimaryName {
		return &qerrors.UsageError{Detail: "cannot delete the primary store"}
	}

	dir := m.workspaceDir(name)
	if _, err := os.Stat(dir); err != nil {
		return &qerrors.StoreNotFoundError{Path: dir}
	}

	if !force {
		ws, err := store.OpenBare(dir)
		if err != nil {
			return err
		}
		orphans, err := m.orphanNotes(ws)
		ws.Close()
		if err != nil {
			return err
		}
		if len(orphans) > 0 {
			return &qerrors.UsageError{Detail: "workspace has notes not present in primary: " + joinIDs(orphans)}
		}
	}

	return os.RemoveAll(dir)
}

// orphanNotes returns ws's notes that are not present in the primary
// by id+content hash.
func (m *Manager) orphanNotes(ws *store.Store) ([]string, error) {
	wsNotes, err := ws.ListNotes()
	if err != nil {
		return nil, err
	}

	var orphans []string
	for _, n := range wsNotes {
		primaryNote, err := m.primary.GetNote(n.ID)
		if err != nil {
			orphans = append(orphans, n.ID)
			continue
		}
		if contentHash(primaryNote) != contentHash(n) {
			orphans = append(orphans, n.ID)
		}
	}
	return orphans, nil
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}
