// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// AcceptFunc selects archive entries by name, nil accepts everything.
type AcceptFunc func(name string) bool

// Walk calls walkFn for every file in the archive which name starts with
// prefix and is accepted. Files are visited in natural name order regardless
// of their order in the archive, so "10.css" comes after "9.css". Archives
// with absolute entry names or names containing ".." are rejected.
func Walk(archive, prefix string, accept AcceptFunc, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if accept != nil && !accept(name) {
			continue
		}
		files = append(files, f)
	}
	slices.SortStableFunc(files, func(a, b *zip.File) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})

	for _, f := range files {
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
