package internal

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const IgnoreFilename = ".ragignore"

// IgnoreMatcher applies gitignore-style patterns to source paths relative
// to basePath.
type IgnoreMatcher struct {
	patterns []gitignore.Pattern
	basePath string
}

// NewIgnoreMatcher reads basePath/.ragignore from fs. A missing file
// yields a matcher that ignores nothing.
func NewIgnoreMatcher(fs billy.Filesystem, basePath string) (*IgnoreMatcher, error) {
	patterns, err := parseIgnoreFile(fs, filepath.Join(basePath, IgnoreFilename))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return &IgnoreMatcher{patterns: patterns, basePath: basePath}, nil
}

func newIgnoreMatcherFromPatterns(basePath string, lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{basePath: basePath}
	for _, line := range lines {
		if p, ok := parseIgnoreLine(line); ok {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

func (m *IgnoreMatcher) Match(path string) bool {
	return m.match(path, false)
}

func (m *IgnoreMatcher) MatchDir(path string) bool {
	return m.match(path, true)
}

func (m *IgnoreMatcher) match(path string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	relPath, err := filepath.Rel(m.basePath, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return false
	}
	pathParts := strings.Split(filepath.ToSlash(relPath), "/")

	// Last matching pattern wins so negations can re-include paths.
	for i := len(m.patterns) - 1; i >= 0; i-- {
		switch m.patterns[i].Match(pathParts, isDir) {
		case gitignore.Exclude:
			return true
		case gitignore.Include:
			return false
		}
	}
	return false
}

func parseIgnoreFile(fs billy.Filesystem, path string) ([]gitignore.Pattern, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		if p, ok := parseIgnoreLine(scanner.Text()); ok {
			patterns = append(patterns, p)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}

func parseIgnoreLine(line string) (gitignore.Pattern, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	return gitignore.ParsePattern(line, nil), true
}
