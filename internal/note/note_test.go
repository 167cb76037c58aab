package note

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNote() *Note {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Note{
		ID:      "qp-abc1",
		Title:   "Show Test",
		Type:    "fleeting",
		Created: created,
		Updated: created,
		Tags:    []string{"alpha", "beta"},
		Value:   50,
		Body:    "Some body text.\n",
		Links: []TypedLink{
			{SourceID: "qp-abc1", TargetID: "qp-xyz9", LinkType: "related"},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	n := sampleNote()
	data, err := Serialize(n)
	require.NoError(t, err)

	got, err := Parse(data, "qp-abc1-show-test.md")
	require.NoError(t, err)

	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, n.Title, got.Title)
	assert.Equal(t, n.Type, got.Type)
	assert.Equal(t, n.Tags, got.Tags)
	assert.Equal(t, n.Value, got.Value)
	assert.Equal(t, n.Body, got.Body)
	require.Len(t, got.Links, 1)
	assert.Equal(t, n.Links[0], got.Links[0])

	// Re-serializing the parsed note must reproduce the same bytes
	// (P1: parse(serialize(N)) == N up to key ordering, which is fixed).
	data2, err := Serialize(got)
	require.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestParseMissingFence(t *testing.T) {
	_, err := Parse([]byte("no frontmatter here"), "bad.md")
	require.Error(t, err)
	var ferr *InvalidFrontmatterError
	assert.ErrorAs(t, err, &ferr)
}

func TestParseInvalidID(t *testing.T) {
	data := []byte("---\nid: not-an-id\ntitle: X\n---\nbody\n")
	_, err := Parse(data, "bad.md")
	require.Error(t, err)
	var idErr *InvalidIDError
	assert.ErrorAs(t, err, &idErr)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("qp-abc123"))
	assert.False(t, ValidID("qp-"))
	assert.False(t, ValidID("abc-123"))
	assert.False(t, ValidID("qp-ABC"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "show-test", Slug("Show Test"))
	assert.Equal(t, "hello-world", Slug("  Hello, World!! "))
	assert.Equal(t, "untitled", Slug("***"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "qp-abc1-show-test.md", FileName("qp-abc1", "Show Test"))
}

func TestExtractInlineLinks(t *testing.T) {
	body := "See [[qp-xyz9]] and also [another](qp-def2.md), plus [[qp-xyz9]] again."
	links := ExtractInlineLinks("qp-abc1", body)
	require.Len(t, links, 2)
	assert.Equal(t, "qp-xyz9", links[0].TargetID)
	assert.True(t, links[0].Inline)
	assert.Equal(t, "qp-def2", links[1].TargetID)
}

func TestExtractInlineLinksExcludesSelf(t *testing.T) {
	links := ExtractInlineLinks("qp-abc1", "[[qp-abc1]]")
	assert.Empty(t, links)
}

func TestMergeLinksDeclaredWins(t *testing.T) {
	declared := []TypedLink{{SourceID: "qp-a", TargetID: "qp-b", LinkType: "related", Inline: false}}
	inline := []TypedLink{{SourceID: "qp-a", TargetID: "qp-b", LinkType: "related", Inline: true}}
	merged := MergeLinks(declared, inline)
	require.Len(t, merged, 1)
	assert.False(t, merged[0].Inline)
}

func TestMergeLinksUnion(t *testing.T) {
	declared := []TypedLink{{SourceID: "qp-a", TargetID: "qp-b", LinkType: "related"}}
	inline := []TypedLink{{SourceID: "qp-a", TargetID: "qp-c", LinkType: "related", Inline: true}}
	merged := MergeLinks(declared, inline)
	assert.Len(t, merged, 2)
}

func TestApplyProvenanceGeneratedBySetsUnverified(t *testing.T) {
	n := &Note{}
	gen := "claude"
	ApplyProvenance(n, ProvenanceUpdate{GeneratedBy: &gen})
	require.NotNil(t, n.Verified)
	assert.False(t, *n.Verified)
}

func TestApplyProvenanceClipperSetsAuthor(t *testing.T) {
	n := &Note{}
	ApplyProvenance(n, ProvenanceUpdate{FromClipper: true})
	assert.Equal(t, "Qipu Clipper", n.Author)
}

func TestApplyProvenanceClipperDoesNotOverrideAuthor(t *testing.T) {
	n := &Note{Author: "Someone"}
	ApplyProvenance(n, ProvenanceUpdate{FromClipper: true})
	assert.Equal(t, "Someone", n.Author)
}
