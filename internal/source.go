package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Source is a document to ingest. ID prefixes every fragment id taken
// from it.
type Source struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// NewSource derives the id from path relative to base, falling back to
// the cleaned path when path lies outside base.
func NewSource(base, path string) Source {
	id := filepath.Clean(path)
	if base != "" {
		if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
			id = rel
		}
	}
	return Source{ID: filepath.ToSlash(id), Path: path}
}

type Discovery struct {
	fs        billy.Filesystem
	base      string
	supported func(string) bool
	ignore    *IgnoreMatcher
}

func NewDiscovery(fs billy.Filesystem, base string, supported func(string) bool, ignore *IgnoreMatcher) *Discovery {
	return &Discovery{fs: fs, base: base, supported: supported, ignore: ignore}
}

// Discover expands directories into their supported, non-ignored files in
// lexical order. Explicit file paths are kept as given, even when they do
// not exist; extraction reports them later. Duplicate paths are dropped.
func (d *Discovery) Discover(roots []string) ([]Source, error) {
	var sources []Source
	seen := make(map[string]bool)

	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		sources = append(sources, NewSource(d.base, path))
	}

	for _, root := range roots {
		info, err := d.fs.Stat(root)
		if err != nil || !info.IsDir() {
			add(root)
			continue
		}

		var found []string
		err = util.Walk(d.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != root && (strings.HasPrefix(info.Name(), ".") || d.ignore.MatchDir(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.supported != nil && !d.supported(path) {
				return nil
			}
			if d.ignore.Match(path) {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}

		slices.Sort(found)
		for _, path := range found {
			add(path)
		}
	}

	return sources, nil
}
