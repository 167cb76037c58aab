package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/mwaldstein/qipu-go/internal/note"
)

// contentHash is a stable digest of a note's meaningfully-comparable
// content, used by Delete to detect whether a workspace note matches
// its primary counterpart by id+content hash, per spec.md §4.9.
func contentHash(n *note.Note) string {
	h := sha256.New()
	h.Write([]byte(n.ID))
	h.Write([]byte(n.Title))
	h.Write([]byte(n.Type))
	h.Write([]byte(n.Body))

	tags := append([]string(nil), n.Tags...)
	sort.Strings(tags)
	for _, t := range tags {
		h.Write([]byte(t))
	}
	return hex.EncodeToString(h.Sum(nil))
}
