package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the maximum file size to ingest (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// FileInfo holds metadata about a document discovered during traversal.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Slash separated path relative to the root.
	Dir         string // Slash separated parent directory, "" for the root.
	Name        string // Base file name.
	Size        int64
	Format      string
	ContentHash string // SHA-256 hex digest of the file content.
}

// WalkerConfig controls the behaviour of Walk.
type WalkerConfig struct {
	RootDir     string
	Include     []string // Glob patterns; only matching files are included.
	Exclude     []string // Glob patterns; matching files are excluded.
	MaxFileSize int64    // Files larger than this are skipped (0 = default).
}

// Walk traverses the tree rooted at config.RootDir and returns every
// document that passes filtering, sorted by RelPath. It skips binary files,
// respects include/exclude patterns and honours the root .gitignore.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	if st, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	} else if !st.IsDir() {
		return nil, fmt.Errorf("walker: %s is not a directory", root)
	}

	filter := NewFilter(root, config)
	var files []FileInfo

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		if d.IsDir() {
			rel, _ := filter.Rel(p)
			if filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, ok := Stat(filter, p)
		if ok {
			files = append(files, fi)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// Stat returns the FileInfo for a single file when filter accepts it.
func Stat(filter *Filter, p string) (FileInfo, bool) {
	rel, info, ok := filter.Accept(p)
	if !ok {
		return FileInfo{}, false
	}

	hash, err := hashFile(p)
	if err != nil {
		return FileInfo{}, false
	}

	dir := path.Dir(rel)
	if dir == "." {
		dir = ""
	}
	return FileInfo{
		Path:        p,
		RelPath:     rel,
		Dir:         dir,
		Name:        path.Base(rel),
		Size:        info.Size(),
		Format:      DetectFormat(rel),
		ContentHash: hash,
	}, true
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// loadGitignore returns the non-empty, non-comment lines of a .gitignore.
// Negation patterns are not supported and are dropped.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore checks a slash relative path against gitignore patterns.
// Directory-only patterns (trailing /) match only when isDir is set.
func matchesGitignore(relPath string, patterns []string, isDir bool) bool {
	for _, pattern := range patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")
		if dirOnly && !isDir {
			continue
		}

		if strings.Contains(pattern, "/") {
			pattern = strings.TrimPrefix(pattern, "/")
			if matched, _ := doublestar.Match(pattern, relPath); matched {
				return true
			}
			continue
		}

		// A slash-free pattern matches the last path component.
		if matched, _ := filepath.Match(pattern, path.Base(relPath)); matched {
			return true
		}
	}
	return false
}
