package similarity

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

func putNote(t *testing.T, idx *index.Index, id, title, body string, tags []string) {
	t.Helper()
	now := time.Now().UTC()
	n := &note.Note{ID: id, Title: title, Type: "fleeting", Created: now, Updated: now, Body: body, Tags: tags}
	require.NoError(t, idx.UpsertNote(n, now.Unix(), tags))
	require.NoError(t, idx.UpsertEdges(id, nil))
}

func TestCalculateSimilarityIdenticalNotesScoreHigh(t *testing.T) {
	idx := openTestIndex(t)
	putNote(t, idx, "qp-a1", "Graph theory basics", "graph theory traversal algorithms", []string{"math"})
	putNote(t, idx, "qp-b1", "Graph theory basics", "graph theory traversal algorithms", []string{"math"})
	putNote(t, idx, "qp-c1", "Baking bread", "flour water yeast salt", []string{"cooking"})

	e := New(idx)
	sim, err := e.CalculateSimilarity("qp-a1", "qp-b1")
	require.NoError(t, err)
	assert.Greater(t, sim, 0.9)

	low, err := e.CalculateSimilarity("qp-a1", "qp-c1")
	require.NoError(t, err)
	assert.Less(t, low, sim)
}

func TestFindSimilarRespectsThresholdAndLimit(t *testing.T) {
	idx := openTestIndex(t)
	putNote(t, idx, "qp-a1", "Graph theory", "graph traversal algorithms", []string{"math"})
	putNote(t, idx, "qp-b1", "Graph theory again", "graph traversal algorithms", []string{"math"})
	putNote(t, idx, "qp-c1", "Completely unrelated", "flour water yeast", []string{"cooking"})

	e := New(idx)
	results, err := e.FindSimilar("qp-a1", 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "qp-b1", results[0].ID)
}

func TestFindBySharedTagsJaccard(t *testing.T) {
	idx := openTestIndex(t)
	putNote(t, idx, "qp-a1", "A", "", []string{"x", "y"})
	putNote(t, idx, "qp-b1", "B", "", []string{"x", "y", "z"})
	putNote(t, idx, "qp-c1", "C", "", []string{"q"})

	e := New(idx)
	results, err := e.FindBySharedTags("qp-a1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "qp-b1", results[0].ID)
}

func TestFindAllDuplicatesOrdersPairs(t *testing.T) {
	idx := openTestIndex(t)
	putNote(t, idx, "qp-a1", "Same", "identical content here", nil)
	putNote(t, idx, "qp-b1", "Same", "identical content here", nil)

	e := New(idx)
	pairs, err := e.FindAllDuplicates(0.9)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "qp-a1", pairs[0].A)
	assert.Equal(t, "qp-b1", pairs[0].B)
	assert.GreaterOrEqual(t, pairs[0].Score, 0.9)
}

func TestFindBy2HopNeighborhood(t *testing.T) {
	idx := openTestIndex(t)
	putNote(t, idx, "qp-a1", "A", "", nil)
	putNote(t, idx, "qp-b1", "B", "", nil)
	putNote(t, idx, "qp-c1", "C", "", nil)
	require.NoError(t, idx.UpsertEdges("qp-a1", []note.TypedLink{{SourceID: "qp-a1", TargetID: "qp-b1", LinkType: "related"}}))
	require.NoError(t, idx.UpsertEdges("qp-b1", []note.TypedLink{{SourceID: "qp-b1", TargetID: "qp-c1", LinkType: "related"}}))

	e := New(idx)
	results, err := e.FindBy2HopNeighborhood("qp-a1", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "qp-b1", results[0].ID)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, "qp-c1", results[1].ID)
	assert.Equal(t, 0.5, results[1].Score)
}
