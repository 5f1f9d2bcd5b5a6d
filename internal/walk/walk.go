// Package walk discovers header boundary files in a fragment tree.
package walk

import (
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/capibara/internal/ignore"
)

// DefaultMarker is the boundary file every header directory contains.
const DefaultMarker = "meta.yaml"

var (
	// ErrNotDirectory is returned when the scan root is a file.
	ErrNotDirectory = errors.New("not a directory")
	// ErrDuplicateRef is returned when two boundary directories map to the
	// same header ref, e.g. a root-level boundary and a child named like the
	// root.
	ErrDuplicateRef = errors.New("duplicate header ref")
)

// Boundary is one discovered header: the marker file path and the header ref
// (the marker's directory relative to the scan root, slash separated).
type Boundary struct {
	Path string
	Dir  string
	Ref  string
}

// Options tunes the walk. The zero value uses DefaultMarker and ignores nothing.
type Options struct {
	Marker  string
	Matcher *ignore.Matcher
}

type cursor struct {
	dir     string
	entries []os.DirEntry
	next    int
}

// Headers walks root depth-first in pre-order and returns every boundary file
// in visit order: a directory's own boundary comes before anything under it.
// Subdirectories are visited in lexical order and symlinked directories are
// not followed. Any unreadable directory fails the walk.
func Headers(root string, opts Options) ([]Boundary, error) {
	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s: %w", root, ErrNotDirectory)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", root, err)
	}

	var boundaries []Boundary
	owners := map[string]string{}
	visited := map[string]struct{}{root: {}}
	var stack []*cursor

	// enter pushes dir and records its boundary, if any.
	enter := func(dir string, entries []os.DirEntry) error {
		stack = append(stack, &cursor{dir: dir, entries: entries})
		for _, entry := range entries {
			if entry.IsDir() || entry.Name() != marker {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return errors.Errorf("relative path for %s: %w", path, err)
			}
			if opts.Matcher.ShouldIgnore(rel, false) {
				return nil
			}
			ref := Ref(root, dir)
			if other, dup := owners[ref]; dup {
				return errors.Errorf("%s and %s both map to %q: %w", other, dir, ref, ErrDuplicateRef)
			}
			owners[ref] = dir
			boundaries = append(boundaries, Boundary{Path: path, Dir: dir, Ref: ref})
			return nil
		}
		return nil
	}
	if err := enter(root, entries); err != nil {
		return nil, err
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		entry := top.entries[top.next]
		top.next++
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(top.dir, entry.Name())
		if _, seen := visited[path]; seen {
			continue
		}
		visited[path] = struct{}{}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, errors.Errorf("relative path for %s: %w", path, err)
		}
		if opts.Matcher.ShouldIgnore(rel, true) {
			continue
		}
		children, err := os.ReadDir(path)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", path, err)
		}
		if err := enter(path, children); err != nil {
			return nil, err
		}
	}

	return boundaries, nil
}

// Ref returns the header ref of dir under root. A boundary directly at the
// root is named after the root directory itself.
func Ref(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Base(dir)
	}
	return filepath.ToSlash(rel)
}
