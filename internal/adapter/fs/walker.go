package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker expands the file arguments of a load: plain paths, directories and
// doublestar globs such as "reports/**/*.pdf".
type Walker struct {
	excludes []string
}

func NewWalker(excludes []string) *Walker {
	return &Walker{excludes: excludes}
}

// Expand returns the matching regular files, sorted and without duplicates.
// A literal path that does not exist is an error; a glob matching nothing is not.
func (w *Walker) Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if seen[path] || w.shouldExclude(path) {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, pattern := range patterns {
		info, err := os.Stat(pattern)
		switch {
		case err == nil && info.IsDir():
			matches, err := doublestar.FilepathGlob(filepath.Join(pattern, "**", "*"), doublestar.WithFilesOnly())
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				add(m)
			}
		case err == nil:
			add(pattern)
		case doublestar.ValidatePathPattern(pattern) && hasMeta(pattern):
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				add(m)
			}
		default:
			return nil, fmt.Errorf("no such file: %s", pattern)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasMeta(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	slashed := strings.TrimPrefix(filepath.ToSlash(path), "/")
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, slashed)
		if err == nil && matched {
			return true
		}
	}
	return false
}
