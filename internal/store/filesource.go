package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mwaldstein/qipu-go/internal/index"
	"github.com/mwaldstein/qipu-go/internal/note"
)

// fileSource adapts a Store's on-disk layout to internal/index's
// FileSource interface, letting the indexer walk files without index
// importing store.
type fileSource struct {
	s *Store
}

func (fs *fileSource) listDir(dir string) ([]index.FileRecord, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []index.FileRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, index.FileRecord{
			Path:  filepath.Join(dir, e.Name()),
			MTime: info.ModTime().Unix(),
		})
	}
	return out, nil
}

func (fs *fileSource) ListNoteFiles() ([]index.FileRecord, error) {
	notes, err := fs.listDir(fs.s.layout.Notes)
	if err != nil {
		return nil, err
	}
	mocs, err := fs.listDir(fs.s.layout.MOCs)
	if err != nil {
		return nil, err
	}
	return append(notes, mocs...), nil
}

func (fs *fileSource) ListMOCFiles() ([]index.FileRecord, error) {
	return fs.listDir(fs.s.layout.MOCs)
}

func (fs *fileSource) ParseFile(path string) (*note.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	n, err := note.Parse(data, path)
	if err != nil {
		return nil, err
	}
	n.Path = path
	inline := note.ExtractInlineLinks(n.ID, n.Body)
	n.Links = note.MergeLinks(n.Links, inline)
	return n, nil
}

// RebuildFull re-derives the entire index from the file tree.
func (s *Store) RebuildFull() error {
	return s.idx.RebuildFull(&fileSource{s: s})
}

// ReindexIncremental re-derives files modified since sinceMtime.
func (s *Store) ReindexIncremental(sinceMtime int64) error {
	return s.idx.ReindexIncremental(&fileSource{s: s}, sinceMtime)
}

// ReindexQuick re-derives all MOCs plus the 100 most-recent notes.
func (s *Store) ReindexQuick() error {
	return s.idx.ReindexQuick(&fileSource{s: s})
}

// ReindexAdaptive chooses among full/incremental/quick automatically.
func (s *Store) ReindexAdaptive() error {
	return s.idx.ReindexAdaptive(&fileSource{s: s})
}
