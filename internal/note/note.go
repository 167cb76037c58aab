// Package note implements the note model: parsing a Markdown file with
// YAML frontmatter into a Note, serializing it back in a stable key
// order, and extracting the typed links declared in frontmatter or
// written inline in the body.
package note

import (
	"bytes"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// idPattern is the note id shape required by spec.md §3.
var idPattern = regexp.MustCompile(`^qp-[a-z0-9]+$`)

// ValidID reports whether id matches the required qp-[a-z0-9]+ shape.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// TypedLink is a directed edge (source_id, target_id, link_type). Inline
// reports whether the edge was discovered as a wiki-link in body text
// rather than declared in frontmatter.
type TypedLink struct {
	SourceID string
	TargetID string
	LinkType string
	Inline   bool
}

// NoteSource is one entry of a note's `sources` list.
type NoteSource struct {
	URL      string    `yaml:"url"`
	Title    string    `yaml:"title,omitempty"`
	Accessed time.Time `yaml:"accessed,omitempty"`
}

// Note is the in-memory representation of one atomic Markdown unit, per
// spec.md §3.
type Note struct {
	ID          string
	Title       string
	Type        string
	Created     time.Time
	Updated     time.Time
	Tags        []string
	Value       int
	Source      string
	Author      string
	GeneratedBy string
	PromptHash  string
	Verified    *bool
	Summary     string
	Compacts    []string
	Sources     []NoteSource
	Links       []TypedLink // declared links from Parse; after a store save or an index read, also the body's inline links (Inline=true); Serialize writes only the declared ones
	Custom      map[string]interface{}
	Body        string

	// Path is the file path this note was last parsed from or written
	// to; empty for a note that has never been persisted.
	Path string
}

// frontmatterLink is the on-disk shape of one declared link.
type frontmatterLink struct {
	Target string `yaml:"target"`
	Type   string `yaml:"type"`
}

// frontmatter mirrors the stable key order required by spec.md §6.2:
// id,title,type,created,updated,tags,value,source,author,generated_by,
// prompt_hash,verified,summary,compacts,sources,links,custom.
type frontmatter struct {
	ID          string                 `yaml:"id"`
	Title       string                 `yaml:"title"`
	Type        string                 `yaml:"type"`
	Created     time.Time              `yaml:"created"`
	Updated     time.Time              `yaml:"updated"`
	Tags        []string               `yaml:"tags,omitempty"`
	Value       int                    `yaml:"value"`
	Source      string                 `yaml:"source,omitempty"`
	Author      string                 `yaml:"author,omitempty"`
	GeneratedBy string                 `yaml:"generated_by,omitempty"`
	PromptHash  string                 `yaml:"prompt_hash,omitempty"`
	Verified    *bool                  `yaml:"verified,omitempty"`
	Summary     string                 `yaml:"summary,omitempty"`
	Compacts    []string               `yaml:"compacts,omitempty"`
	Sources     []NoteSource           `yaml:"sources,omitempty"`
	Links       []frontmatterLink      `yaml:"links,omitempty"`
	Custom      map[string]interface{} `yaml:"custom,omitempty"`
}

// InvalidFrontmatterError is returned when a file's frontmatter is
// malformed or fails a schema check.
type InvalidFrontmatterError struct {
	Path   string
	Reason string
}

func (e *InvalidFrontmatterError) Error() string {
	return fmt.Sprintf("invalid frontmatter in %s: %s", e.Path, e.Reason)
}

// InvalidIDError is returned when an id fails the qp-… pattern.
type InvalidIDError struct {
	ID string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid note id %q: must match qp-[a-z0-9]+", e.ID)
}

const fence = "---"

// Parse splits a Markdown file into frontmatter and body and decodes the
// frontmatter into a Note. path is used only for error messages.
func Parse(data []byte, path string) (*Note, error) {
	text := string(data)
	if !strings.HasPrefix(text, fence) {
		return nil, &InvalidFrontmatterError{Path: path, Reason: "missing frontmatter fence"}
	}
	rest := text[len(fence):]
	rest = strings.TrimPrefix(rest, "\n")
	end := strings.Index(rest, "\n"+fence)
	if end < 0 {
		return nil, &InvalidFrontmatterError{Path: path, Reason: "unterminated frontmatter fence"}
	}
	yamlPart := rest[:end]
	body := rest[end+len("\n"+fence):]
	body = strings.TrimPrefix(body, "\n")

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(yamlPart), &fm); err != nil {
		return nil, &InvalidFrontmatterError{Path: path, Reason: err.Error()}
	}
	if fm.ID == "" {
		return nil, &InvalidFrontmatterError{Path: path, Reason: "missing id"}
	}
	if !ValidID(fm.ID) {
		return nil, &InvalidIDError{ID: fm.ID}
	}
	if fm.Title == "" {
		return nil, &InvalidFrontmatterError{Path: path, Reason: "missing title"}
	}

	n := &Note{
		ID:          fm.ID,
		Title:       fm.Title,
		Type:        fm.Type,
		Created:     fm.Created,
		Updated:     fm.Updated,
		Tags:        fm.Tags,
		Value:       fm.Value,
		Source:      fm.Source,
		Author:      fm.Author,
		GeneratedBy: fm.GeneratedBy,
		PromptHash:  fm.PromptHash,
		Verified:    fm.Verified,
		Summary:     fm.Summary,
		Compacts:    fm.Compacts,
		Sources:     fm.Sources,
		Custom:      fm.Custom,
		Body:        body,
		Path:        path,
	}
	if n.Type == "" {
		n.Type = "fleeting"
	}
	for _, l := range fm.Links {
		n.Links = append(n.Links, TypedLink{SourceID: n.ID, TargetID: l.Target, LinkType: l.Type, Inline: false})
	}
	return n, nil
}

// Serialize renders a Note back to its on-disk Markdown form, emitting
// frontmatter keys in the stable order required by spec.md §6.2.
func Serialize(n *Note) ([]byte, error) {
	fm := frontmatter{
		ID:          n.ID,
		Title:       n.Title,
		Type:        n.Type,
		Created:     n.Created,
		Updated:     n.Updated,
		Tags:        n.Tags,
		Value:       n.Value,
		Source:      n.Source,
		Author:      n.Author,
		GeneratedBy: n.GeneratedBy,
		PromptHash:  n.PromptHash,
		Verified:    n.Verified,
		Summary:     n.Summary,
		Compacts:    n.Compacts,
		Sources:     n.Sources,
		Custom:      n.Custom,
	}
	for _, l := range n.Links {
		if l.Inline {
			continue
		}
		fm.Links = append(fm.Links, frontmatterLink{Target: l.TargetID, Type: l.LinkType})
	}

	yamlBytes, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("serialize frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(fence)
	buf.WriteString("\n")
	buf.Write(yamlBytes)
	buf.WriteString(fence)
	buf.WriteString("\n")
	buf.WriteString(n.Body)
	return buf.Bytes(), nil
}

// Slug derives a filesystem-friendly slug from a title: lowercased,
// non-alphanumeric runs collapsed to a single hyphen, trimmed.
func Slug(title string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(title) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		switch {
		case isAlnum:
			b.WriteRune(r)
			prevDash = false
		case !prevDash && b.Len() > 0:
			b.WriteByte('-')
			prevDash = true
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		s = "untitled"
	}
	return s
}

// FileName returns the canonical `<id>-<slug(title)>.md` file name.
func FileName(id, title string) string {
	return fmt.Sprintf("%s-%s.md", id, Slug(title))
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID generates a candidate id of the form qp-<base36>, with at least
// minSuffixLen characters in the suffix. Collision checking against
// existing ids is the caller's (internal/store's) responsibility.
func NewID(minSuffixLen int, rng *rand.Rand) string {
	if minSuffixLen < 4 {
		minSuffixLen = 4
	}
	b := make([]byte, minSuffixLen)
	for i := range b {
		b[i] = idAlphabet[rng.Intn(len(idAlphabet))]
	}
	return "qp-" + string(b)
}

// ProvenanceUpdate is a set of provenance-related fields updated
// together by ApplyProvenance, which applies the collapsing rule of
// spec.md §4.1.
type ProvenanceUpdate struct {
	Source      *string
	Author      *string
	GeneratedBy *string
	PromptHash  *string
	Verified    *bool
	FromClipper bool
}

// ApplyProvenance mutates n in place per the update, then applies the
// two collapsing rules:
//  1. when GeneratedBy is set and Verified was absent before this call,
//     Verified becomes false.
//  2. when FromClipper is set and no author is given (neither already
//     present nor in this update), Author becomes "Qipu Clipper".
func ApplyProvenance(n *Note, u ProvenanceUpdate) {
	verifiedWasAbsent := n.Verified == nil

	if u.Source != nil {
		n.Source = *u.Source
	}
	if u.Author != nil {
		n.Author = *u.Author
	}
	if u.GeneratedBy != nil {
		n.GeneratedBy = *u.GeneratedBy
	}
	if u.PromptHash != nil {
		n.PromptHash = *u.PromptHash
	}
	if u.Verified != nil {
		n.Verified = u.Verified
	}

	if u.GeneratedBy != nil && *u.GeneratedBy != "" && verifiedWasAbsent && u.Verified == nil {
		f := false
		n.Verified = &f
	}
	if u.FromClipper && n.Author == "" {
		n.Author = "Qipu Clipper"
	}
}
