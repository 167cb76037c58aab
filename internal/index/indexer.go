package index

import (
	"fmt"
	"sort"

	"github.com/mwaldstein/qipu-go/internal/note"
)

// FileRecord is one on-disk note file and its modification time, as
// supplied by internal/store (which owns the file tree).
type FileRecord struct {
	Path  string
	MTime int64
}

// FileSource lets the indexer walk the store's file tree without
// internal/index importing internal/store (store already imports
// index; this keeps the dependency one-directional).
type FileSource interface {
	ListNoteFiles() ([]FileRecord, error)
	ListMOCFiles() ([]FileRecord, error)
	ParseFile(path string) (*note.Note, error)
}

const watermarkKey = "index_watermark"

// RebuildFull clears and re-derives the entire index from every file
// in src, per spec.md §4.4's rebuild_full.
func (idx *Index) RebuildFull(src FileSource) error {
	files, err := src.ListNoteFiles()
	if err != nil {
		return fmt.Errorf("list note files: %w", err)
	}

	idx.mu.Lock()
	if _, err := idx.db.Exec(`DELETE FROM notes`); err != nil {
		idx.mu.Unlock()
		return fmt.Errorf("clear notes: %w", err)
	}
	if _, err := idx.db.Exec(`DELETE FROM notes_fts`); err != nil {
		idx.mu.Unlock()
		return fmt.Errorf("clear notes_fts: %w", err)
	}
	if _, err := idx.db.Exec(`DELETE FROM tags`); err != nil {
		idx.mu.Unlock()
		return fmt.Errorf("clear tags: %w", err)
	}
	if _, err := idx.db.Exec(`DELETE FROM edges`); err != nil {
		idx.mu.Unlock()
		return fmt.Errorf("clear edges: %w", err)
	}
	if _, err := idx.db.Exec(`DELETE FROM unresolved`); err != nil {
		idx.mu.Unlock()
		return fmt.Errorf("clear unresolved: %w", err)
	}
	idx.mu.Unlock()

	return idx.indexFiles(src, files)
}

func (idx *Index) indexFiles(src FileSource, files []FileRecord) error {
	var maxMtime int64
	for _, f := range files {
		n, err := src.ParseFile(f.Path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", f.Path, err)
		}
		if err := idx.UpsertNote(n, f.MTime, n.Tags); err != nil {
			return fmt.Errorf("index %s: %w", f.Path, err)
		}
		if err := idx.UpsertEdges(n.ID, n.Links); err != nil {
			return fmt.Errorf("index edges for %s: %w", n.ID, err)
		}
		if f.MTime > maxMtime {
			maxMtime = f.MTime
		}
	}
	return idx.MetaSet(watermarkKey, fmt.Sprint(maxMtime))
}

// ReindexIncremental re-derives only files modified since sinceMtime,
// per spec.md §4.4.
func (idx *Index) ReindexIncremental(src FileSource, sinceMtime int64) error {
	files, err := src.ListNoteFiles()
	if err != nil {
		return fmt.Errorf("list note files: %w", err)
	}
	var changed []FileRecord
	for _, f := range files {
		if f.MTime > sinceMtime {
			changed = append(changed, f)
		}
	}
	return idx.indexFiles(src, changed)
}

// ReindexQuick re-derives all MOCs plus the 100 most-recently-modified
// notes, per spec.md §4.4.
func (idx *Index) ReindexQuick(src FileSource) error {
	mocs, err := src.ListMOCFiles()
	if err != nil {
		return fmt.Errorf("list moc files: %w", err)
	}
	files, err := src.ListNoteFiles()
	if err != nil {
		return fmt.Errorf("list note files: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].MTime > files[j].MTime })
	if len(files) > 100 {
		files = files[:100]
	}

	seen := map[string]bool{}
	var combined []FileRecord
	for _, f := range mocs {
		if !seen[f.Path] {
			seen[f.Path] = true
			combined = append(combined, f)
		}
	}
	for _, f := range files {
		if !seen[f.Path] {
			seen[f.Path] = true
			combined = append(combined, f)
		}
	}
	return idx.indexFiles(src, combined)
}

// ReindexAdaptive chooses among full/incremental/quick based on how
// many file mtimes exceed the last watermark, per spec.md §4.4: a
// large fraction of changed files triggers a full rebuild, a small
// fraction an incremental one, and an absent watermark a quick
// bootstrap pass.
func (idx *Index) ReindexAdaptive(src FileSource) error {
	watermarkStr, ok, err := idx.MetaGet(watermarkKey)
	if err != nil {
		return err
	}
	if !ok {
		return idx.ReindexQuick(src)
	}
	var watermark int64
	if _, err := fmt.Sscan(watermarkStr, &watermark); err != nil {
		return idx.RebuildFull(src)
	}

	files, err := src.ListNoteFiles()
	if err != nil {
		return fmt.Errorf("list note files: %w", err)
	}
	if len(files) == 0 {
		return nil
	}
	changed := 0
	for _, f := range files {
		if f.MTime > watermark {
			changed++
		}
	}
	ratio := float64(changed) / float64(len(files))
	switch {
	case ratio > 0.3:
		return idx.RebuildFull(src)
	case changed > 0:
		return idx.ReindexIncremental(src, watermark)
	default:
		return nil
	}
}
