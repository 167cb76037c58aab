// Package recordsfmt holds the quoting/path helpers required by the
// line-prefixed records output format (spec.md §6.4). The format itself
// is produced by an external formatter, out of core scope; this package
// only exports the stateless rule that formatter must follow.
package recordsfmt

import (
	"os"
	"path/filepath"
	"strings"
)

// EscapeQuotes backslash-escapes double quotes for embedding in a
// records-format quoted field.
func EscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// PathRelativeToCwd renders path relative to the process's current
// working directory, falling back to the absolute path when it isn't
// underneath cwd (or cwd can't be determined).
func PathRelativeToCwd(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	if rel == "" {
		return "."
	}
	return rel
}
