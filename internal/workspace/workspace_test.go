package workspace

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/ontology"
	"github.com/mwaldstein/qipu-go/internal/store"
)

func openPrimary(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	layout, err := store.Init(dir, store.InitOptions{})
	require.NoError(t, err)
	ont := ontology.New(ontology.ModeDefault, "fleeting", nil, nil)
	s, err := store.Open(layout, ont)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func putNote(t *testing.T, s *store.Store, id, title string) *note.Note {
	t.Helper()
	now := time.Now().UTC()
	n := &note.Note{ID: id, Title: title, Type: "fleeting", Created: now, Updated: now}
	require.NoError(t, s.SaveNote(n))
	return n
}

func TestListAlwaysIncludesPrimary(t *testing.T) {
	primary := openPrimary(t)
	mgr := New(primary)

	list, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, PrimaryName, list[0].Name)
}

func TestNewEmptyWorkspace(t *testing.T) {
	primary := openPrimary(t)
	mgr := New(primary)

	ws, err := mgr.New("scratch", NewWorkspaceOptions{Kind: InitEmpty})
	require.NoError(t, err)
	defer ws.Close()

	notes, err := ws.ListNotes()
	require.NoError(t, err)
	assert.Empty(t, notes)

	list, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
}

// S6 — workspace rename.
func TestMergeRenameResolvesCollision(t *testing.T) {
	primary := openPrimary(t)
	mgr := New(primary)
	putNote(t, primary, "qp-x", "Primary Original")

	ws, err := mgr.New("ws", NewWorkspaceOptions{Kind: InitEmpty})
	require.NoError(t, err)
	putNote(t, ws, "qp-x", "Workspace Conflict")
	putNote(t, ws, "qp-u", "Workspace Unique")

	report, err := mgr.Merge("ws", PrimaryName, MergeOptions{Strategy: StrategyRename})
	require.NoError(t, err)
	require.Len(t, report.RenamedIDs, 1)

	renamedID := report.RenamedIDs["qp-x"]
	assert.Equal(t, "qp-x-1", renamedID)

	original, err := primary.GetNote("qp-x")
	require.NoError(t, err)
	assert.Equal(t, "Primary Original", original.Title)

	renamed, err := primary.GetNote(renamedID)
	require.NoError(t, err)
	assert.Equal(t, "Workspace Conflict", renamed.Title)

	unique, err := primary.GetNote("qp-u")
	require.NoError(t, err)
	assert.Equal(t, "Workspace Unique", unique.Title)

	ws.Close()
}

// P10 — workspace merge rename disjoint ids.
func TestMergeRenameProducesDisjointIDs(t *testing.T) {
	primary := openPrimary(t)
	mgr := New(primary)
	putNote(t, primary, "qp-x", "Primary Original")

	ws, err := mgr.New("ws", NewWorkspaceOptions{Kind: InitEmpty})
	require.NoError(t, err)
	putNote(t, ws, "qp-x", "Workspace Conflict")
	putNote(t, ws, "qp-u", "Workspace Unique")

	_, err = mgr.Merge("ws", PrimaryName, MergeOptions{Strategy: StrategyRename})
	require.NoError(t, err)

	merged, err := primary.ListNotes()
	require.NoError(t, err)
	assert.Len(t, merged, 3)

	seen := map[string]bool{}
	for _, n := range merged {
		assert.False(t, seen[n.ID], "duplicate id %s after rename merge", n.ID)
		seen[n.ID] = true
	}

	ws.Close()
}

// P9 — workspace merge skip identity.
func TestMergeSkipKeepsTargetNoteByteForByte(t *testing.T) {
	primary := openPrimary(t)
	mgr := New(primary)
	putNote(t, primary, "qp-x", "Original")

	origBefore, err := primary.GetNote("qp-x")
	require.NoError(t, err)
	bytesBefore, err := os.ReadFile(origBefore.Path)
	require.NoError(t, err)

	ws, err := mgr.New("ws", NewWorkspaceOptions{Kind: InitEmpty})
	require.NoError(t, err)
	putNote(t, ws, "qp-x", "Conflict")

	_, err = mgr.Merge("ws", PrimaryName, MergeOptions{Strategy: StrategySkip})
	require.NoError(t, err)

	origAfter, err := primary.GetNote("qp-x")
	require.NoError(t, err)
	assert.Equal(t, origBefore.Title, origAfter.Title)
	assert.Equal(t, origBefore.Created, origAfter.Created)
	bytesAfter, err := os.ReadFile(origAfter.Path)
	require.NoError(t, err)
	assert.Equal(t, bytesBefore, bytesAfter)

	ws.Close()
}

func TestMergeDryRunDoesNotMutate(t *testing.T) {
	primary := openPrimary(t)
	mgr := New(primary)

	ws, err := mgr.New("ws", NewWorkspaceOptions{Kind: InitEmpty})
	require.NoError(t, err)
	putNote(t, ws, "qp-new1", "New Note")

	report, err := mgr.Merge("ws", PrimaryName, MergeOptions{Strategy: StrategySkip, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.NotesAdded)

	primaryNotes, err := primary.ListNotes()
	require.NoError(t, err)
	assert.Empty(t, primaryNotes)

	ws.Close()
}
