package compaction

import (
	"strings"

	"github.com/mwaldstein/qipu-go/internal/note"
)

// SizeOf measures n's text size under basis: the frontmatter summary
// if present else the first paragraph of the body (SizeBasisSummary,
// the default), or the full body (SizeBasisBody).
func SizeOf(n *note.Note, basis SizeBasis) int {
	if basis == SizeBasisBody {
		return len(n.Body)
	}
	if n.Summary != "" {
		return len(n.Summary)
	}
	return len(firstParagraph(n.Body))
}

func firstParagraph(body string) string {
	if i := strings.Index(body, "\n\n"); i >= 0 {
		return body[:i]
	}
	return body
}
