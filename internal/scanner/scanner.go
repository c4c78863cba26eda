// Package scanner walks file and directory targets on disk, filtering down
// to the SQL source files a search run should consider.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// sqlExtensions stands in for the teacher's pluggable per-language provider:
// grepsql has exactly one source language, so a fixed allowlist replaces
// provider.Aliases().
var sqlExtensions = []string{".sql", ".ddl", ".dml", ".psql"}

var skipDirNames = []string{".git", "vendor", "node_modules", "dist", "build"}

// Config holds scanner configuration options.
type Config struct {
	MaxBytes       int64
	FollowSymlinks bool
	IncludeGlobs   []string
	ExcludeGlobs   []string
	NoGitignore    bool
}

// Scanner walks file and directory targets, applying gitignore rules, the
// SQL extension allowlist, an include/exclude glob filter, and a size cap.
type Scanner struct {
	cfg    Config
	ignore *ignoreSet
}

// New builds a Scanner, loading the ambient .gitignore chain unless
// NoGitignore is set.
func New(cfg Config) *Scanner {
	s := &Scanner{cfg: cfg}
	if cfg.NoGitignore {
		return s
	}
	if cwd, err := os.Getwd(); err == nil {
		s.ignore = loadIgnoreSet(cwd)
	}
	return s
}

// ignoreSet wraps a compiled gitignore chain. A nil *ignoreSet (no
// .gitignore found, or filtering disabled) matches nothing, so callers never
// branch on whether gitignore filtering is active.
type ignoreSet struct {
	gi *ignore.GitIgnore
}

func (is *ignoreSet) matches(path string) bool {
	if is == nil {
		return false
	}
	rel, err := filepath.Rel(".", path)
	if err != nil {
		return false
	}
	return is.gi.MatchesPath(rel)
}

// gitignoreChain walks from dir up to the filesystem root collecting every
// .gitignore found, ordered root-most first so a file closer to dir takes
// precedence on conflicting rules.
func gitignoreChain(dir string) []string {
	var files []string
	for {
		candidate := filepath.Join(dir, ".gitignore")
		if _, err := os.Stat(candidate); err == nil {
			files = append(files, candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	slices.Reverse(files)
	return files
}

func loadIgnoreSet(cwd string) *ignoreSet {
	files := gitignoreChain(cwd)
	if len(files) == 0 {
		return nil
	}
	gi, err := ignore.CompileIgnoreFileAndLines(files[0], files[1:]...)
	if err != nil {
		return nil
	}
	return &ignoreSet{gi: gi}
}

// ScanTargets resolves every target (file or directory) into the list of
// regular files a search should run against, deduplicated across targets.
func (s *Scanner) ScanTargets(ctx context.Context, targets []string) ([]string, error) {
	if len(targets) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
		targets = []string{cwd}
	}

	seen := make(map[string]bool)
	var files []string
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		found, err := s.scanTarget(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("scanning target %s: %w", target, err)
		}
		for _, f := range found {
			if seen[f] {
				continue
			}
			seen[f] = true
			files = append(files, f)
		}
	}
	return files, nil
}

// scanTarget resolves one target: a symlink is followed or skipped, a
// regular file is filtered directly, a directory is walked recursively.
func (s *Scanner) scanTarget(ctx context.Context, target string) ([]string, error) {
	info, err := os.Lstat(target)
	if err != nil {
		return nil, fmt.Errorf("accessing target %s: %w", target, err)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		if !s.cfg.FollowSymlinks {
			return nil, nil
		}
		resolved, err := filepath.EvalSymlinks(target)
		if err != nil {
			return nil, fmt.Errorf("resolving symlink %s: %w", target, err)
		}
		return s.scanTarget(ctx, resolved)
	case info.Mode().IsRegular():
		if s.accept(target, info) {
			return []string{target}, nil
		}
		return nil, nil
	case info.IsDir():
		return s.scanDirectory(ctx, target)
	default:
		return nil, nil
	}
}

// scanDirectory walks dir, pruning skipped subdirectories and collecting
// every regular file that passes accept.
func (s *Scanner) scanDirectory(ctx context.Context, dir string) ([]string, error) {
	var files []string

	walkErr := fs.WalkDir(os.DirFS(dir), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		full := filepath.Join(dir, path)

		if d.IsDir() {
			if s.skipDir(path) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("getting file info for %s: %w", full, err)
		}
		if s.accept(full, info) {
			files = append(files, full)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking directory %s: %w", dir, walkErr)
	}
	return files, nil
}

// accept applies, in cheapest-first order, the gitignore filter, the size
// cap, the SQL extension allowlist, and the include/exclude glob filters.
func (s *Scanner) accept(path string, info os.FileInfo) bool {
	if s.ignore.matches(path) {
		return false
	}
	if s.cfg.MaxBytes > 0 && info.Size() > s.cfg.MaxBytes {
		return false
	}
	if !hasSQLExtension(path) {
		return false
	}

	base := filepath.Base(path)
	if len(s.cfg.IncludeGlobs) > 0 && !matchesAnyGlob(s.cfg.IncludeGlobs, base) {
		return false
	}
	return !matchesAnyGlob(s.cfg.ExcludeGlobs, base)
}

func hasSQLExtension(path string) bool {
	return slices.Contains(sqlExtensions, strings.ToLower(filepath.Ext(path)))
}

// matchesAnyGlob reports whether name matches any of patterns, using
// doublestar so `**`-style patterns (spec.md §6) work the same in include
// and exclude lists.
func matchesAnyGlob(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// skipDir reports whether a directory should be pruned from the walk:
// gitignored, a conventional non-source directory, or hidden.
func (s *Scanner) skipDir(path string) bool {
	if s.ignore.matches(path) {
		return true
	}
	name := filepath.Base(path)
	if slices.Contains(skipDirNames, name) {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "."
}
