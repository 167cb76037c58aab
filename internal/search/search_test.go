package search

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldstein/qipu-go/internal/index"
	"github.com/mwaldstein/qipu-go/internal/note"
)

func openTestIndex(t *testing.T) *index.Index {
	t.Helper()
	dir := t.TempDir()
	idx, err := index.Open(filepath.Join(dir, "index.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func putNote(t *testing.T, idx *index.Index, id, title, body string, updated time.Time) {
	t.Helper()
	putNoteWithTags(t, idx, id, title, body, updated, nil)
}

func putNoteWithTags(t *testing.T, idx *index.Index, id, title, body string, updated time.Time, tags []string) {
	t.Helper()
	n := &note.Note{
		ID: id, Title: title, Type: "fleeting",
		Created: updated, Updated: updated, Body: body, Tags: tags,
	}
	require.NoError(t, idx.UpsertNote(n, updated.Unix(), tags))
	require.NoError(t, idx.UpsertEdges(id, nil))
}

func TestSearchEmptyQueryIsUsageError(t *testing.T) {
	idx := openTestIndex(t)
	e := New(idx, 30)
	_, err := e.Search("", Filter{})
	require.Error(t, err)
}

func TestSearchRanksRecentHigher(t *testing.T) {
	idx := openTestIndex(t)
	now := time.Now().UTC()
	putNote(t, idx, "qp-old1", "Programming Notes", "programming is fun", now.AddDate(0, 0, -100))
	putNote(t, idx, "qp-new1", "Programming Today", "programming is fun", now)

	e := New(idx, 30)
	results, err := e.Search("programming", Filter{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	pos := map[string]int{}
	for i, r := range results {
		pos[r.ID] = i
	}
	assert.Less(t, pos["qp-new1"], pos["qp-old1"])
}

// S7 — tag matches contribute to relevance across a multi-result
// search (regression: SearchCandidates used to cache *Candidate
// pointers across a growing append loop, so every result but the
// last-appended ones silently lost their Tags).
func TestSearchTagsContributeToScoreAcrossMultipleResults(t *testing.T) {
	idx := openTestIndex(t)
	now := time.Now().UTC()
	putNoteWithTags(t, idx, "qp-tag1", "Project Report", "status update for project", now, []string{"urgent"})
	putNoteWithTags(t, idx, "qp-tag2", "Project Summary", "status update for project", now, nil)

	e := New(idx, 30)
	results, err := e.Search("project urgent", Filter{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[string]Result{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.Greater(t, byID["qp-tag1"].Relevance, byID["qp-tag2"].Relevance)
	assert.Equal(t, "qp-tag1", results[0].ID)
}

func TestSearchFilterNarrowsResults(t *testing.T) {
	idx := openTestIndex(t)
	now := time.Now().UTC()
	putNote(t, idx, "qp-a1", "Alpha", "alpha content", now)
	putNote(t, idx, "qp-b1", "Beta", "alpha content too", now)

	e := New(idx, 30)
	all, err := e.Search("alpha", Filter{})
	require.NoError(t, err)

	narrowed, err := e.Search("alpha", Filter{Type: "fleeting"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(narrowed), len(all))
}
