package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldstein/qipu-go/internal/ontology"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	layout, err := Init(dir, InitOptions{})
	require.NoError(t, err)

	ont := ontology.New(ontology.ModeDefault, "fleeting", nil, nil)
	s, err := Open(layout, ont)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	layout, err := Init(dir, InitOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".qipu"), layout.Dir)
	assert.DirExists(t, layout.Notes)
	assert.DirExists(t, layout.MOCs)
	assert.DirExists(t, layout.Attachments)
	assert.DirExists(t, layout.Workspaces)
	assert.FileExists(t, layout.ConfigPath)
}

func TestInitAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir, InitOptions{})
	require.NoError(t, err)

	_, err = Init(dir, InitOptions{})
	require.Error(t, err)
}

func TestCreateAndGetNote(t *testing.T) {
	s := openTestStore(t)

	n, err := s.CreateNote("Show Test", "", []string{"Alpha"}, "hello world\n")
	require.NoError(t, err)
	assert.True(t, matchesIDPattern(n.ID))
	assert.Equal(t, []string{"alpha"}, n.Tags)
	assert.FileExists(t, n.Path)

	got, err := s.GetNote(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Show Test", got.Title)
	assert.Equal(t, n.ID, got.ID)
}

func TestSaveNoteRejectsBadValue(t *testing.T) {
	s := openTestStore(t)
	n, err := s.CreateNote("Value Test", "", nil, "")
	require.NoError(t, err)

	n.Value = 500
	err = s.SaveNote(n)
	require.Error(t, err)
}

func TestSaveNoteUpdatesBody(t *testing.T) {
	s := openTestStore(t)
	n, err := s.CreateNote("Editable", "", nil, "first\n")
	require.NoError(t, err)
	created := n.Created

	n.Body = "second\n"
	require.NoError(t, s.SaveNote(n))

	got, err := s.GetNote(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "second\n", got.Body)
	assert.Equal(t, created, got.Created)
}

func TestListNotesOrdering(t *testing.T) {
	s := openTestStore(t)
	a, err := s.CreateNote("First", "", nil, "")
	require.NoError(t, err)
	b, err := s.CreateNote("Second", "", nil, "")
	require.NoError(t, err)

	list, err := s.ListNotes()
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.Contains(t, ids, a.ID)
	assert.Contains(t, ids, b.ID)
	// created descending, ties broken by id ascending
	assert.True(t, list[0].Created.After(list[1].Created) ||
		(list[0].Created.Equal(list[1].Created) && list[0].ID < list[1].ID))
}

func TestDeleteNoteRemovesFileAndIndex(t *testing.T) {
	s := openTestStore(t)
	n, err := s.CreateNote("To Delete", "", nil, "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteNote(n.ID))
	assert.NoFileExists(t, n.Path)

	_, err = s.GetNote(n.ID)
	assert.Error(t, err)
}

func TestGetTagFrequencies(t *testing.T) {
	s := openTestStore(t)
	_, err := s.CreateNote("A", "", []string{"project"}, "")
	require.NoError(t, err)
	_, err = s.CreateNote("B", "", []string{"project", "extra"}, "")
	require.NoError(t, err)

	freqs, err := s.GetTagFrequencies()
	require.NoError(t, err)
	require.NotEmpty(t, freqs)
	assert.Equal(t, "project", freqs[0].Tag)
	assert.Equal(t, 2, freqs[0].Count)
}

func matchesIDPattern(id string) bool {
	if len(id) < 5 || id[:3] != "qp-" {
		return false
	}
	for _, r := range id[3:] {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
