package graph

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldstein/qipu-go/internal/index"
	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/ontology"
)

func openTestIndex(t *testing.T) *index.Index {
	t.Helper()
	dir := t.TempDir()
	idx, err := index.Open(filepath.Join(dir, "index.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func putNote(t *testing.T, idx *index.Index, id string, value int, links []note.TypedLink) {
	t.Helper()
	now := time.Now().UTC()
	n := &note.Note{ID: id, Title: id, Type: "fleeting", Created: now, Updated: now, Value: value}
	require.NoError(t, idx.UpsertNote(n, now.Unix(), nil))
	require.NoError(t, idx.UpsertEdges(id, links))
}

func testOntology() *ontology.Ontology {
	return ontology.New(ontology.ModeDefault, "fleeting", nil, nil)
}

// S2 — typed link + inversion.
func TestSemanticInversion(t *testing.T) {
	idx := openTestIndex(t)
	putNote(t, idx, "qp-a1", 50, []note.TypedLink{{SourceID: "qp-a1", TargetID: "qp-b2", LinkType: "supports"}})
	putNote(t, idx, "qp-b2", 50, nil)

	e := New(idx, testOntology())

	withInversion, err := e.BFSTraverse("qp-b2", DirectionIn, 1, 0, true)
	require.NoError(t, err)
	require.Len(t, withInversion.Edges, 1)
	assert.Equal(t, "supported-by", withInversion.Edges[0].Type)
	assert.True(t, withInversion.Edges[0].Virtual)
	assert.Equal(t, "qp-a1", withInversion.Edges[0].Via)

	withoutInversion, err := e.BFSTraverse("qp-b2", DirectionIn, 1, 0, false)
	require.NoError(t, err)
	require.Len(t, withoutInversion.Edges, 1)
	assert.Equal(t, "<-supports", withoutInversion.Edges[0].Type)
	assert.False(t, withoutInversion.Edges[0].Virtual)
}

// S4 — spanning tree ordering.
func TestBFSTreeEdgeOrdering(t *testing.T) {
	idx := openTestIndex(t)
	putNote(t, idx, "qp-root", 50, []note.TypedLink{
		{SourceID: "qp-root", TargetID: "qp-s1", LinkType: "supports"},
		{SourceID: "qp-root", TargetID: "qp-r1", LinkType: "related"},
		{SourceID: "qp-root", TargetID: "qp-d1", LinkType: "derived-from"},
	})
	putNote(t, idx, "qp-s1", 50, nil)
	putNote(t, idx, "qp-r1", 50, nil)
	putNote(t, idx, "qp-d1", 50, nil)

	e := New(idx, testOntology())
	tree, err := e.BFSTraverse("qp-root", DirectionOut, 1, 0, true)
	require.NoError(t, err)
	require.Len(t, tree.Edges, 3)

	var types []string
	for _, edge := range tree.Edges {
		types = append(types, edge.Type)
	}
	assert.Equal(t, []string{"derived-from", "related", "supports"}, types)
}

func TestBFSFindPathNotFound(t *testing.T) {
	idx := openTestIndex(t)
	putNote(t, idx, "qp-a1", 50, nil)
	putNote(t, idx, "qp-b2", 50, nil)

	e := New(idx, testOntology())
	result, err := e.BFSFindPath("qp-a1", "qp-b2", 3)
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestDijkstraPrefersHighValueNeighbor(t *testing.T) {
	idx := openTestIndex(t)
	putNote(t, idx, "qp-root", 50, []note.TypedLink{
		{SourceID: "qp-root", TargetID: "qp-low", LinkType: "related"},
		{SourceID: "qp-root", TargetID: "qp-high", LinkType: "related"},
	})
	putNote(t, idx, "qp-low", 0, nil)
	putNote(t, idx, "qp-high", 100, nil)

	e := New(idx, testOntology())
	tree, err := e.DijkstraTraverse("qp-root", DirectionOut, 2, false, true)
	require.NoError(t, err)

	depth := map[string]int{}
	for _, n := range tree.Nodes {
		depth[n.ID] = n.Depth
	}
	// both are 1 hop away; the node order in Nodes reflects pop order,
	// and the high-value neighbor (cheaper weight) pops first.
	require.Equal(t, "qp-high", tree.Nodes[1].ID)
	require.Equal(t, "qp-low", tree.Nodes[2].ID)
}
