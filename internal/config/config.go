// Package config loads and saves the two TOML documents a store uses:
// config.toml at the store root and workspace.toml inside each
// secondary workspace.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// LinkTypeConfig is one [ontology.link_types.<name>] table.
type LinkTypeConfig struct {
	Description string  `toml:"description"`
	Inverse     string  `toml:"inverse"`
	Cost        float64 `toml:"cost"`
}

// OntologyConfig is the [ontology] table of config.toml.
type OntologyConfig struct {
	Mode      string                    `toml:"mode"`
	NoteTypes map[string]struct{}       `toml:"note_types"`
	LinkTypes map[string]LinkTypeConfig `toml:"link_types"`
}

// SearchConfig is the [search] table of config.toml.
type SearchConfig struct {
	TauDays float64 `toml:"tau_days"`
}

// Config is the decoded, typed view of config.toml, per spec.md §6.1.
// `Graph` is retained only because it is named as a deprecated,
// still-recognized key; new ontology data always lives under Ontology.
type Config struct {
	Version         int                    `toml:"version"`
	DefaultNoteType string                 `toml:"default_note_type"`
	Ontology        OntologyConfig         `toml:"ontology"`
	Search          SearchConfig           `toml:"search"`
	Graph           map[string]interface{} `toml:"graph"`

	// raw holds the full decoded document, including any keys this
	// struct does not model, so Save can round-trip them.
	raw map[string]interface{}
}

// DefaultConfig returns the configuration written by a fresh `init`.
func DefaultConfig() *Config {
	return &Config{
		Version:         1,
		DefaultNoteType: "fleeting",
		Ontology: OntologyConfig{
			Mode: "default",
		},
		Search: SearchConfig{TauDays: 30},
		raw:    map[string]interface{}{},
	}
}

// Load decodes config.toml from path, preserving unknown keys for a
// later Save.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]interface{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := &Config{raw: raw}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save re-encodes cfg to path, merging its typed fields over any
// preserved-but-unmodeled keys.
func (c *Config) Save(path string) error {
	merged := map[string]interface{}{}
	for k, v := range c.raw {
		merged[k] = v
	}
	merged["version"] = c.Version
	merged["default_note_type"] = c.DefaultNoteType
	merged["search"] = c.Search
	if len(c.Graph) > 0 {
		merged["graph"] = c.Graph
	}
	merged["ontology"] = c.Ontology

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(merged); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// WorkspaceMetadata is the [workspace] table of workspace.toml, per
// spec.md §3/§4.9.
type WorkspaceMetadata struct {
	Name      string    `toml:"name"`
	CreatedAt time.Time `toml:"created_at"`
	Temporary bool      `toml:"temporary"`
	ParentID  string    `toml:"parent_id,omitempty"`
}

type workspaceFile struct {
	Workspace WorkspaceMetadata `toml:"workspace"`
}

// LoadWorkspace decodes workspace.toml from path.
func LoadWorkspace(path string) (*WorkspaceMetadata, error) {
	var f workspaceFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("parse workspace manifest %s: %w", path, err)
	}
	return &f.Workspace, nil
}

// SaveWorkspace writes workspace.toml to path.
func SaveWorkspace(path string, meta *WorkspaceMetadata) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(workspaceFile{Workspace: *meta}); err != nil {
		return fmt.Errorf("encode workspace manifest: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
