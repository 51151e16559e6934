package repo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FromPath opens the repository rooted at path.
//
// Returns ErrNotARepository if path does not contain a .git
// directory. Ignore rules are loaded from .snapignore and .gitignore
// at the repository root; a repository with neither file ignores
// nothing.
func FromPath(path string) (*Repo, error) {
	info, err := os.Stat(filepath.Join(path, GitDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", filepath.Join(path, GitDir), err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
	}

	patterns, err := loadPatterns(path)
	if err != nil {
		return nil, err
	}

	return &Repo{root: path, patterns: patterns}, nil
}

// IsIgnored reports whether rel, a path relative to the repository
// root, matches any ignore pattern.
//
// Bare patterns ("*.log") match at any depth; patterns with a
// leading slash anchor to the root; patterns with a trailing slash
// match a directory and everything inside it.
func (r *Repo) IsIgnored(rel string) (bool, error) {
	rel = filepath.ToSlash(rel)

	for _, pattern := range r.patterns {
		matched, err := matchPattern(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
		}
		if matched {
			return true, nil
		}
	}

	return false, nil
}

// matchPattern applies one ignore pattern to a slash-separated
// relative path.
func matchPattern(pattern, rel string) (bool, error) {
	pattern = filepath.ToSlash(pattern)

	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	// A trailing slash names a directory and all of its contents.
	if trimmed := strings.TrimSuffix(pattern, "/"); trimmed != pattern {
		pattern = trimmed + "/**"
		if matched, err := matchAt(trimmed, rel, anchored); err != nil || matched {
			return matched, err
		}
	}

	return matchAt(pattern, rel, anchored)
}

// matchAt matches pattern against rel, at any depth unless anchored.
func matchAt(pattern, rel string, anchored bool) (bool, error) {
	matched, err := doublestar.Match(pattern, rel)
	if err != nil || matched {
		return matched, err
	}

	if !anchored && !strings.HasPrefix(pattern, "**/") {
		return doublestar.Match("**/"+pattern, rel)
	}

	return false, nil
}

// loadPatterns reads ignore patterns from the repository root.
// Missing rule files are not an error.
func loadPatterns(root string) ([]string, error) {
	var patterns []string

	for _, name := range ignoreFiles {
		path := filepath.Join(root, name)

		f, err := os.Open(path) // nolint:gosec
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}

		scanErr := scanner.Err()
		_ = f.Close()
		if scanErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, scanErr)
		}
	}

	return patterns, nil
}
