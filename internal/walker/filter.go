package walker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	".git",
	".docrag",
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	".idea",
	".vscode",
}

// ShouldExcludeDir reports whether a directory name is on the default
// exclusion list. Matching is case-insensitive.
func ShouldExcludeDir(name string) bool {
	for _, excl := range DefaultExcludeDirs {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesInclude returns true if relPath matches any include pattern.
// An empty pattern list includes everything.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude returns true if relPath matches any exclude pattern.
func MatchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny tries each pattern against the full slash path and then the
// base name, so "*.md" behaves like "**/*.md".
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(normalized)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.Match(pattern, normalized); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// Filter decides which files under a root are ingested. It is shared by the
// one-shot walk and the watcher so both apply identical rules.
type Filter struct {
	root      string
	include   []string
	exclude   []string
	maxSize   int64
	gitignore []string
}

// NewFilter builds a Filter for config, loading .gitignore from the root.
func NewFilter(root string, config WalkerConfig) *Filter {
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Filter{
		root:      root,
		include:   config.Include,
		exclude:   config.Exclude,
		maxSize:   maxSize,
		gitignore: loadGitignore(filepath.Join(root, ".gitignore")),
	}
}

// Root returns the absolute directory the filter is anchored to.
func (f *Filter) Root() string { return f.root }

// Rel returns path relative to the root in slash form, or false when path
// lies outside the root.
func (f *Filter) Rel(path string) (string, bool) {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// SkipDir reports whether the directory at relPath should not be traversed.
func (f *Filter) SkipDir(relPath string) bool {
	if relPath == "." || relPath == "" {
		return false
	}
	parts := strings.Split(relPath, "/")
	for i, part := range parts {
		if ShouldExcludeDir(part) {
			return true
		}
		if matchesGitignore(strings.Join(parts[:i+1], "/"), f.gitignore, true) {
			return true
		}
	}
	return false
}

// AcceptPath applies the name based rules to a file path relative to the
// root. It does not touch the file system.
func (f *Filter) AcceptPath(relPath string) bool {
	if dir := filepath.ToSlash(filepath.Dir(relPath)); dir != "." && f.SkipDir(dir) {
		return false
	}
	if matchesGitignore(relPath, f.gitignore, false) {
		return false
	}
	if !MatchesInclude(relPath, f.include) {
		return false
	}
	return !MatchesExclude(relPath, f.exclude)
}

// Accept applies every rule to the regular file at path, including the size
// limit and binary check.
func (f *Filter) Accept(path string) (relPath string, info os.FileInfo, ok bool) {
	relPath, inside := f.Rel(path)
	if !inside || !f.AcceptPath(relPath) {
		return "", nil, false
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() > f.maxSize {
		return "", nil, false
	}
	if isBinary(path) {
		return "", nil, false
	}
	return relPath, info, true
}
