package doctor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/ontology"
	"github.com/mwaldstein/qipu-go/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
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

func hasCategory(issues []Issue, cat Category) bool {
	for _, i := range issues {
		if i.Category == cat {
			return true
		}
	}
	return false
}

func TestScanCleanStoreIsEmpty(t *testing.T) {
	s := openTestStore(t)
	putNote(t, s, "qp-a1", "Clean Note")

	issues, err := Scan(s)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, 0, ExitCode(issues))
}

func TestScanFindsMissingDirectory(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, os.RemoveAll(s.Layout().Attachments))

	issues, err := Scan(s)
	require.NoError(t, err)
	require.True(t, hasCategory(issues, CategoryMissingDirectory))
}

func TestScanFindsOutOfRangeValue(t *testing.T) {
	s := openTestStore(t)
	n := putNote(t, s, "qp-v1", "Bad Value")
	n.Value = 500
	// SaveNote would reject this directly, so the corruption is
	// simulated at the index layer, the way a hand-edited file or a
	// schema migration from an older version might leave a row.
	require.NoError(t, s.Index().UpsertNote(n, time.Now().Unix(), n.Tags))

	issues, err := Scan(s)
	require.NoError(t, err)
	require.True(t, hasCategory(issues, CategoryInvalidValue))
	assert.Equal(t, 3, ExitCode(issues))
}

func TestScanFindsBrokenLink(t *testing.T) {
	s := openTestStore(t)
	n := putNote(t, s, "qp-b1", "Has Dangling Link")
	n.Links = []note.TypedLink{{SourceID: n.ID, TargetID: "qp-ghost", LinkType: "related"}}
	require.NoError(t, s.SaveNote(n))

	issues, err := Scan(s)
	require.NoError(t, err)
	require.True(t, hasCategory(issues, CategoryBrokenLink))
}

// S5 — compaction cycle is rejected.
func TestScanReportsCompactionCycle(t *testing.T) {
	s := openTestStore(t)
	n1 := putNote(t, s, "qp-n1", "N1")
	n2 := putNote(t, s, "qp-n2", "N2")
	n1.Compacts = []string{n2.ID}
	require.NoError(t, s.SaveNote(n1))
	n2.Compacts = []string{n1.ID}
	require.NoError(t, s.SaveNote(n2))

	issues, err := Scan(s)
	require.NoError(t, err)

	var found *Issue
	for i := range issues {
		if issues[i].Category == CategoryCompactionInvariant {
			found = &issues[i]
			break
		}
	}
	require.NotNil(t, found)
	assert.Contains(t, found.Message, "cycle")
	assert.Equal(t, 3, ExitCode(issues))
}

// P8 — doctor --fix is idempotent.
func TestFixIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, os.RemoveAll(s.Layout().MOCs))
	require.NoError(t, os.Remove(s.Layout().ConfigPath))

	n := putNote(t, s, "qp-f1", "Fixable")
	n.Links = []note.TypedLink{{SourceID: n.ID, TargetID: "qp-ghost", LinkType: "related"}}
	require.NoError(t, s.SaveNote(n))

	bad := putNote(t, s, "qp-f2", "Bad Value")
	bad.Value = 999
	require.NoError(t, s.Index().UpsertNote(bad, time.Now().Unix(), bad.Tags))

	issues, err := Scan(s)
	require.NoError(t, err)
	require.NotEmpty(t, issues)

	fixed, err := Fix(s, issues)
	require.NoError(t, err)
	assert.Equal(t, 4, fixed) // missing-config, missing-directory, broken-link, invalid-value

	after, err := Scan(s)
	require.NoError(t, err)
	for _, i := range after {
		assert.False(t, i.Fixable, "issue %v should have been fixed", i)
	}

	secondFixed, err := Fix(s, after)
	require.NoError(t, err)
	assert.Equal(t, 0, secondFixed)

	final := filepath.Join(s.Layout().MOCs)
	_, statErr := os.Stat(final)
	assert.NoError(t, statErr)
}

// P8 — doctor --fix is idempotent for a broken link that originated as
// `[[id]]` body text rather than a declared frontmatter link.
func TestFixIsIdempotentForInlineBrokenLink(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC()
	n := &note.Note{
		ID: "qp-i1", Title: "Inline Dangler", Type: "fleeting",
		Created: now, Updated: now, Body: "See also [[qp-ghost]] for background.\n",
	}
	require.NoError(t, s.SaveNote(n))

	issues, err := Scan(s)
	require.NoError(t, err)
	require.True(t, hasCategory(issues, CategoryBrokenLink))

	fixed, err := Fix(s, issues)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	after, err := Scan(s)
	require.NoError(t, err)
	assert.False(t, hasCategory(after, CategoryBrokenLink))

	reloaded, err := s.GetNote("qp-i1")
	require.NoError(t, err)
	assert.NotContains(t, reloaded.Body, "qp-ghost")

	secondFixed, err := Fix(s, after)
	require.NoError(t, err)
	assert.Equal(t, 0, secondFixed)
}
