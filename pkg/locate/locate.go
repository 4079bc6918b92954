// Package locate expands glob patterns into the list of diagram source files
// a batch run should convert.
//
// Patterns use doublestar syntax, so "diagrams/**/*.mmd" matches .mmd files at
// any depth below diagrams/. Results are absolute, deduplicated, sorted paths
// of regular files:
//
//	files, err := locate.Find("diagrams/**/*.{mmd,mermaid}", locate.Options{})
//
// Matching is case-insensitive by default and hidden entries (any path
// component starting with a dot below the pattern's base directory) are
// skipped unless [Options.IncludeHidden] is set.
package locate

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

// DefaultPattern selects Mermaid sources below the diagrams directory.
const DefaultPattern = "diagrams/**/*.mmd"

// Options controls how a pattern is matched.
type Options struct {
	// IncludeHidden includes dot-files and files inside dot-directories.
	IncludeHidden bool

	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool
}

// Find returns the absolute paths of all regular files matching pattern.
//
// An invalid pattern or an unreadable base directory is an error. A base
// directory that does not exist simply yields no matches.
func Find(pattern string, opts Options) ([]string, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.New(errors.ErrCodeInvalidPattern, "invalid glob pattern: %q", pattern)
	}

	base, rest := doublestar.SplitPattern(pattern)
	root, err := filepath.Abs(filepath.FromSlash(base))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPattern, err, "resolve base directory %q", base)
	}

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRead, err, "stat base directory %s", root)
	}
	if !info.IsDir() {
		return nil, nil
	}

	if !opts.CaseSensitive {
		rest = strings.ToLower(rest)
	}

	seen := make(map[string]struct{})
	var out []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == root {
				return walkErr
			}
			// Unreadable subdirectory: nothing below it can be considered.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}
		if !opts.IncludeHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() && !isFileSymlink(p, d) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !opts.CaseSensitive {
			rel = strings.ToLower(rel)
		}
		if ok, _ := doublestar.Match(rest, rel); !ok {
			return nil
		}
		if _, dup := seen[p]; dup {
			return nil
		}
		seen[p] = struct{}{}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRead, err, "read base directory %s", root)
	}

	slices.Sort(out)
	return out, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// isFileSymlink reports whether d is a symlink resolving to a regular file.
func isFileSymlink(p string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
