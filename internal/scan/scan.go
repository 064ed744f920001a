// Package scan discovers source, header and resource files in a module
// repository.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

var ErrRootNotFound = errors.New("directory not found")

// Scan returns all files under root matching any of the doublestar patterns.
// Paths are slash-separated, relative to root, deduplicated and sorted
// lexicographically, so identical trees produce identical listings regardless
// of the filesystem's native enumeration order. An empty result is valid.
func Scan(root string, patterns []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", root, ErrRootNotFound)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrRootNotFound)
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var files []string

	for _, pat := range patterns {
		matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pat, err)
		}
		for _, match := range matches {
			match = path.Clean(match)
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			files = append(files, match)
		}
	}

	slices.Sort(files)
	return files, nil
}
