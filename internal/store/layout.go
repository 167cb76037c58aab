// Package store is the file-system half of a note store: on-disk
// layout, atomic note writes, ID allocation and the Store facade that
// keeps files and the derived index (internal/index) in lockstep, per
// spec.md §4.3.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwaldstein/qipu-go/internal/config"
	"github.com/mwaldstein/qipu-go/internal/qerrors"
)

// Layout is the set of paths making up one store rooted at Dir
// (the `.qipu` or `qipu` directory itself, not its parent project
// root).
type Layout struct {
	Root        string // project root (parent of the store dir)
	Dir         string // the store directory itself
	Notes       string
	MOCs        string
	Attachments string
	Workspaces  string
	ConfigPath  string
	IndexPath   string
}

func newLayout(root, dir string) Layout {
	return Layout{
		Root:        root,
		Dir:         dir,
		Notes:       filepath.Join(dir, "notes"),
		MOCs:        filepath.Join(dir, "mocs"),
		Attachments: filepath.Join(dir, "attachments"),
		Workspaces:  filepath.Join(dir, "workspaces"),
		ConfigPath:  filepath.Join(dir, "config.toml"),
		IndexPath:   filepath.Join(dir, "index.sqlite"),
	}
}

// InitOptions controls Init's behavior.
type InitOptions struct {
	Visible bool // use "qipu" instead of ".qipu"
	Force   bool // overwrite an existing store
	Stealth bool // add an entry to the project .gitignore
}

func storeDirName(visible bool) string {
	if visible {
		return "qipu"
	}
	return ".qipu"
}

// Init creates a store's directory layout under root and writes a
// default config.toml, per spec.md §4.3/§6.1.
func Init(root string, opts InitOptions) (Layout, error) {
	dir := filepath.Join(root, storeDirName(opts.Visible))
	layout := newLayout(root, dir)

	if _, err := os.Stat(dir); err == nil && !opts.Force {
		return Layout{}, &qerrors.AlreadyExistsError{Path: dir}
	}

	for _, sub := range []string{layout.Notes, layout.MOCs, layout.Attachments, layout.Workspaces} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return Layout{}, &qerrors.IOError{Detail: "create " + sub, Err: err}
		}
	}

	if _, err := os.Stat(layout.ConfigPath); os.IsNotExist(err) || opts.Force {
		if err := config.DefaultConfig().Save(layout.ConfigPath); err != nil {
			return Layout{}, &qerrors.IOError{Detail: "write config.toml", Err: err}
		}
	}

	if opts.Stealth {
		if err := addGitignoreEntry(root, storeDirName(opts.Visible)); err != nil {
			return Layout{}, err
		}
	}

	return layout, nil
}

// InitBare creates a store's directory layout with dir itself as the
// store directory (no nested ".qipu"/"qipu" level), used for
// workspaces living at <primary>/.qipu/workspaces/<name>/, which are
// already store roots in their own right per spec.md §4.9/§6.1.
func InitBare(dir string) (Layout, error) {
	layout := newLayout(filepath.Dir(dir), dir)

	for _, sub := range []string{layout.Notes, layout.MOCs, layout.Attachments, layout.Workspaces} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return Layout{}, &qerrors.IOError{Detail: "create " + sub, Err: err}
		}
	}
	if err := config.DefaultConfig().Save(layout.ConfigPath); err != nil {
		return Layout{}, &qerrors.IOError{Detail: "write config.toml", Err: err}
	}
	return layout, nil
}

// DiscoverBare resolves dir itself as a store layout, the workspace
// counterpart to InitBare.
func DiscoverBare(dir string) (Layout, error) {
	if _, err := os.Stat(dir); err != nil {
		return Layout{}, &qerrors.StoreNotFoundError{Path: dir}
	}
	return newLayout(filepath.Dir(dir), dir), nil
}

// Discover locates an existing store layout starting at root, without
// creating anything.
func Discover(root string, visible bool) (Layout, error) {
	dir := filepath.Join(root, storeDirName(visible))
	if _, err := os.Stat(dir); err != nil {
		return Layout{}, &qerrors.StoreNotFoundError{Path: dir}
	}
	return newLayout(root, dir), nil
}

func addGitignoreEntry(root, entry string) error {
	path := filepath.Join(root, ".gitignore")

	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return &qerrors.IOError{Detail: "open .gitignore", Err: err}
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == entry {
			f.Close()
			return nil
		}
	}
	f.Close()

	out, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &qerrors.IOError{Detail: "append .gitignore", Err: err}
	}
	defer out.Close()

	if _, err := fmt.Fprintf(out, "%s\n", entry); err != nil {
		return &qerrors.IOError{Detail: "write .gitignore", Err: err}
	}
	return nil
}
