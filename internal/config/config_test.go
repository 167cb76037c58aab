package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := DefaultConfig()
	cfg.Ontology.LinkTypes = map[string]LinkTypeConfig{
		"derived-from": {Description: "derived from", Inverse: "source-of", Cost: 1.0},
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, loaded.Version)
	assert.Equal(t, "fleeting", loaded.DefaultNoteType)
	assert.Equal(t, "default", loaded.Ontology.Mode)
	assert.Equal(t, 30.0, loaded.Search.TauDays)
	require.Contains(t, loaded.Ontology.LinkTypes, "derived-from")
	assert.Equal(t, "source-of", loaded.Ontology.LinkTypes["derived-from"].Inverse)
}

func TestLoadPreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := "version = 1\ndefault_note_type = \"fleeting\"\n\n[future_section]\nwhatever = \"kept\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Save(path))

	roundTripped, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, roundTripped.raw, "future_section")
}

func TestWorkspaceMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workspace.toml")

	meta := &WorkspaceMetadata{
		Name:      "scratch",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Temporary: true,
		ParentID:  "qp-root1",
	}
	require.NoError(t, SaveWorkspace(path, meta))

	loaded, err := LoadWorkspace(path)
	require.NoError(t, err)
	assert.Equal(t, meta.Name, loaded.Name)
	assert.True(t, loaded.Temporary)
	assert.Equal(t, meta.ParentID, loaded.ParentID)
}
