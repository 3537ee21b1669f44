// Package fsutil finds network files on disk.
package fsutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFiles returns the files under roots whose names end with extension.
// A root may be a directory or a single file. Hidden directories are not
// entered. Files reached from several roots are returned once; the result
// keeps root order and is sorted within each root.
func FindFiles(extension string, roots ...string) ([]string, error) {
	if extension == "" {
		panic("fsutil: extension must not be empty")
	}

	var all []string
	seen := make(map[string]bool)
	for _, root := range roots {
		var files []string
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), extension) {
				files = append(files, filepath.Clean(path))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", root, err)
		}

		sort.Strings(files)
		for _, f := range files {
			if !seen[f] {
				seen[f] = true
				all = append(all, f)
			}
		}
	}
	return all, nil
}
