package store

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mwaldstein/qipu-go/internal/index"
	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/ontology"
	"github.com/mwaldstein/qipu-go/internal/qerrors"
)

// Store is the dual file-system + indexed-database representation of
// one store root, per spec.md §4.3.
type Store struct {
	layout  Layout
	idx     *index.Index
	ont     *ontology.Ontology
	ids     *idAllocator
	liveIDs *liveIDSet
}

// Open opens an already-initialized store (see Init) and its index,
// seeding the live-id set from the index.
func Open(layout Layout, ont *ontology.Ontology) (*Store, error) {
	idx, err := index.Open(layout.IndexPath)
	if err != nil {
		return nil, err
	}
	ids, err := idx.AllIDs()
	if err != nil {
		idx.Close()
		return nil, err
	}
	live := newLiveIDSet(ids)
	return &Store{layout: layout, idx: idx, ont: ont, ids: newIDAllocator(live), liveIDs: live}, nil
}

// Close releases the store's index connection.
func (s *Store) Close() error {
	return s.idx.Close()
}

// Index exposes the underlying index for packages that read-only
// consume it (search, similarity, graph, compaction, doctor).
func (s *Store) Index() *index.Index { return s.idx }

// Ontology exposes the store's active ontology.
func (s *Store) Ontology() *ontology.Ontology { return s.ont }

// Layout exposes the store's on-disk paths.
func (s *Store) Layout() Layout { return s.layout }

func (s *Store) dirFor(noteType string) string {
	if noteType == "moc" {
		return s.layout.MOCs
	}
	return s.layout.Notes
}

// CreateNote allocates a new id, writes the file and updates the
// index, per spec.md §4.3.
func (s *Store) CreateNote(title, noteType string, tags []string, body string) (*note.Note, error) {
	if noteType == "" {
		noteType = s.ont.DefaultNoteType()
	}
	if err := s.ont.ValidateNoteType(noteType); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	id := s.ids.next()
	n := &note.Note{
		ID:      id,
		Title:   title,
		Type:    noteType,
		Created: now,
		Updated: now,
		Tags:    normalizeTags(tags),
		Body:    body,
	}
	n.Path = filepath.Join(s.dirFor(noteType), note.FileName(id, title))

	if err := s.writeAndIndex(n); err != nil {
		return nil, err
	}
	s.liveIDs.add(id)
	return n, nil
}

// GetNote fetches a note's metadata and body from the index.
func (s *Store) GetNote(id string) (*note.Note, error) {
	return s.idx.GetNote(id)
}

// SaveNote re-writes a note's file and index row. created is preserved;
// updated is refreshed to now. Ontology/value violations are rejected
// with InvalidValue/Unsupported and leave no partial change.
func (s *Store) SaveNote(n *note.Note) error {
	if err := s.ont.ValidateNoteType(n.Type); err != nil {
		return err
	}
	if n.Value < 0 || n.Value > 100 {
		return &qerrors.InvalidValueError{Context: "value", Value: n.Value}
	}
	for _, l := range n.Links {
		if !l.Inline {
			if err := s.ont.ValidateLinkType(l.LinkType); err != nil {
				return err
			}
		}
	}

	n.Updated = time.Now().UTC()
	if n.Path == "" {
		n.Path = filepath.Join(s.dirFor(n.Type), note.FileName(n.ID, n.Title))
	}
	return s.writeAndIndex(n)
}

// writeAndIndex is the logical transaction of spec.md §5: file write
// precedes index commit; on index failure the file write is reverted
// (best-effort rename-away); on file-write failure the index is never
// touched.
func (s *Store) writeAndIndex(n *note.Note) error {
	inline := note.ExtractInlineLinks(n.ID, n.Body)
	merged := note.MergeLinks(declaredOnly(n.Links), inline)

	data, err := note.Serialize(n)
	if err != nil {
		return &qerrors.IOError{Detail: "serialize note " + n.ID, Err: err}
	}

	existed := false
	var backup string
	if _, statErr := os.Stat(n.Path); statErr == nil {
		existed = true
		backup = n.Path + ".bak"
		if err := os.Rename(n.Path, backup); err != nil {
			return &qerrors.IOError{Detail: "back up " + n.Path, Err: err}
		}
	}

	if err := os.MkdirAll(filepath.Dir(n.Path), 0o755); err != nil {
		return &qerrors.IOError{Detail: "create note directory", Err: err}
	}
	if err := os.WriteFile(n.Path, data, 0o644); err != nil {
		if existed {
			os.Rename(backup, n.Path)
		}
		return &qerrors.IOError{Detail: "write " + n.Path, Err: err}
	}

	var mtime int64
	if fi, statErr := os.Stat(n.Path); statErr == nil {
		mtime = fi.ModTime().Unix()
	}

	if err := s.idx.UpsertNote(n, mtime, n.Tags); err != nil {
		// Revert the file write, best-effort.
		if existed {
			os.Rename(backup, n.Path)
		} else {
			os.Remove(n.Path)
		}
		return err
	}
	if err := s.idx.UpsertEdges(n.ID, merged); err != nil {
		if existed {
			os.Rename(backup, n.Path)
		} else {
			os.Remove(n.Path)
		}
		return err
	}

	n.Links = merged
	if existed {
		os.Remove(backup)
	}
	return nil
}

func declaredOnly(links []note.TypedLink) []note.TypedLink {
	var out []note.TypedLink
	for _, l := range links {
		if !l.Inline {
			out = append(out, l)
		}
	}
	return out
}

func normalizeTags(tags []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tags {
		lower := toLower(t)
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, lower)
	}
	sort.Strings(out)
	return out
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// ListNotes returns every note ordered by created descending, id
// ascending.
func (s *Store) ListNotes() ([]*note.Note, error) {
	return s.idx.ListNotes(index.ListFilter{})
}

// DeleteNote removes a note's file and cascades its index rows.
func (s *Store) DeleteNote(id string) error {
	n, err := s.idx.GetNote(id)
	if err != nil {
		return err
	}
	if n.Path != "" {
		if err := os.Remove(n.Path); err != nil && !os.IsNotExist(err) {
			return &qerrors.IOError{Detail: "remove " + n.Path, Err: err}
		}
	}
	if err := s.idx.DeleteNote(id); err != nil {
		return err
	}
	s.liveIDs.remove(id)
	return nil
}

// GetTagFrequencies returns every tag's usage count.
func (s *Store) GetTagFrequencies() ([]index.TagFrequency, error) {
	return s.idx.GetTagFrequencies()
}

// LoadNoteByIDOrPath parses the file at ref if one exists there;
// otherwise treats ref as an id and looks it up in the index.
func (s *Store) LoadNoteByIDOrPath(ref string) (*note.Note, error) {
	if _, err := os.Stat(ref); err == nil {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, &qerrors.IOError{Detail: "read " + ref, Err: err}
		}
		return note.Parse(data, ref)
	}
	return s.idx.GetNote(ref)
}
