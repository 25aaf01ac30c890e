package walker

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// testdataDir returns the absolute path to the testdata/sample_notes directory.
func testdataDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	root := filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "sample_notes")
	abs, err := filepath.Abs(root)
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		t.Fatalf("testdata dir does not exist: %s", abs)
	}
	return abs
}

var docIncludes = []string{"**/*.md", "**/*.txt", "**/*.rst"}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalk_SampleNotes(t *testing.T) {
	files, err := Walk(WalkerConfig{RootDir: testdataDir(t), Include: docIncludes})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	want := []string{
		"README.md",
		"guides/advanced/tuning.md",
		"guides/setup.md",
		"notes.txt",
		"reference/api.rst",
	}
	got := relPaths(files)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

func TestWalk_FileInfoFields(t *testing.T) {
	files, err := Walk(WalkerConfig{RootDir: testdataDir(t), Include: docIncludes})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	byPath := make(map[string]FileInfo)
	for _, f := range files {
		if f.Size <= 0 {
			t.Errorf("Size for %s is %d, expected > 0", f.RelPath, f.Size)
		}
		if len(f.ContentHash) != 64 {
			t.Errorf("ContentHash for %s has length %d, expected 64", f.RelPath, len(f.ContentHash))
		}
		if !filepath.IsAbs(f.Path) {
			t.Errorf("Path for %s is not absolute: %s", f.RelPath, f.Path)
		}
		byPath[f.RelPath] = f
	}

	tests := []struct {
		rel, dir, name, format string
	}{
		{"README.md", "", "README.md", FormatMarkdown},
		{"guides/advanced/tuning.md", "guides/advanced", "tuning.md", FormatMarkdown},
		{"notes.txt", "", "notes.txt", FormatText},
		{"reference/api.rst", "reference", "api.rst", FormatRST},
	}
	for _, tt := range tests {
		f, ok := byPath[tt.rel]
		if !ok {
			t.Errorf("missing %s", tt.rel)
			continue
		}
		if f.Dir != tt.dir || f.Name != tt.name || f.Format != tt.format {
			t.Errorf("%s: got dir=%q name=%q format=%q", tt.rel, f.Dir, f.Name, f.Format)
		}
	}
}

func TestWalk_ExcludeFilter(t *testing.T) {
	files, err := Walk(WalkerConfig{
		RootDir: testdataDir(t),
		Include: docIncludes,
		Exclude: []string{"guides/**"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	for _, f := range files {
		if strings.HasPrefix(f.RelPath, "guides/") {
			t.Errorf("exclude filter did not exclude: %s", f.RelPath)
		}
	}
	if len(files) != 3 {
		t.Errorf("expected 3 files, got %v", relPaths(files))
	}
}

func TestWalk_NoIncludeMeansEverything(t *testing.T) {
	files, err := Walk(WalkerConfig{RootDir: testdataDir(t)})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	found := false
	for _, f := range files {
		if f.RelPath == ".gitignore" {
			found = true
		}
	}
	if !found {
		t.Error("expected .gitignore to be walked without include patterns")
	}
}

func TestWalk_SkipsBinaryFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "text.txt"), "hello world")
	if err := os.WriteFile(filepath.Join(tmpDir, "image.txt"), []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}, 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := Walk(WalkerConfig{RootDir: tmpDir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if got := relPaths(files); len(got) != 1 || got[0] != "text.txt" {
		t.Errorf("expected only text.txt, got %v", got)
	}
}

func TestWalk_SkipsLargeFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "small.md"), "tiny")
	writeFile(t, filepath.Join(tmpDir, "large.md"), strings.Repeat("x", 2048))

	files, err := Walk(WalkerConfig{RootDir: tmpDir, MaxFileSize: 1024})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if got := relPaths(files); len(got) != 1 || got[0] != "small.md" {
		t.Errorf("expected only small.md, got %v", got)
	}
}

func TestWalk_DefaultExcludeDirs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "keep.md"), "keep")
	writeFile(t, filepath.Join(tmpDir, ".git", "HEAD.md"), "ref")
	writeFile(t, filepath.Join(tmpDir, "node_modules", "pkg", "README.md"), "dep")
	writeFile(t, filepath.Join(tmpDir, ".docrag", "index", "meta.txt"), "index")

	files, err := Walk(WalkerConfig{RootDir: tmpDir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if got := relPaths(files); len(got) != 1 || got[0] != "keep.md" {
		t.Errorf("expected only keep.md, got %v", got)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".gitignore"), "*.log\nsecret.txt\nbuild/\n/docs/private/*\n")
	writeFile(t, filepath.Join(tmpDir, "app.md"), "app")
	writeFile(t, filepath.Join(tmpDir, "debug.log"), "log data")
	writeFile(t, filepath.Join(tmpDir, "secret.txt"), "password")
	writeFile(t, filepath.Join(tmpDir, "build", "out.md"), "generated")
	writeFile(t, filepath.Join(tmpDir, "docs", "private", "plan.md"), "hidden")
	writeFile(t, filepath.Join(tmpDir, "docs", "public.md"), "shown")

	files, err := Walk(WalkerConfig{RootDir: tmpDir, Include: []string{"**/*.md", "**/*.txt", "**/*.log"}})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := strings.Join(relPaths(files), ",")
	if got != "app.md,docs/public.md" {
		t.Errorf("Walk() = %s", got)
	}
}

func TestWalk_ContentHashConsistency(t *testing.T) {
	dir := testdataDir(t)

	first, err := Walk(WalkerConfig{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	second, err := Walk(WalkerConfig{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("walks returned %d and %d files", len(first), len(second))
	}
	for i := range first {
		if first[i].ContentHash != second[i].ContentHash {
			t.Errorf("hash mismatch for %s", first[i].RelPath)
		}
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	if _, err := Walk(WalkerConfig{RootDir: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestFilter_AcceptPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "drafts/\n")
	f := NewFilter(root, WalkerConfig{Include: docIncludes, Exclude: []string{"archive/**"}})

	tests := []struct {
		rel  string
		want bool
	}{
		{"a.md", true},
		{"nested/deep/b.txt", true},
		{"image.png", false},
		{"archive/old.md", false},
		{"drafts/wip.md", false},
		{"drafts/sub/wip.md", false},
		{"node_modules/x/readme.md", false},
	}
	for _, tt := range tests {
		if got := f.AcceptPath(tt.rel); got != tt.want {
			t.Errorf("AcceptPath(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestFilter_Rel(t *testing.T) {
	root := t.TempDir()
	f := NewFilter(root, WalkerConfig{})

	if rel, ok := f.Rel(filepath.Join(root, "a", "b.md")); !ok || rel != "a/b.md" {
		t.Errorf("Rel() = %q, %v", rel, ok)
	}
	if _, ok := f.Rel(filepath.Join(filepath.Dir(root), "outside.md")); ok {
		t.Error("expected path outside root to be rejected")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]string{
		"a.md":       FormatMarkdown,
		"B.MARKDOWN": FormatMarkdown,
		"c.txt":      FormatText,
		"d.rst":      FormatRST,
		"LICENSE":    FormatText,
	}
	for name, want := range tests {
		if got := DetectFormat(name); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestMatchesIncludeExclude(t *testing.T) {
	if !MatchesInclude("any/file.go", nil) {
		t.Error("empty include should match everything")
	}
	if MatchesExclude("any/file.go", nil) {
		t.Error("empty exclude should match nothing")
	}
	if !MatchesInclude("deep/nested/doc.md", []string{"**/*.md"}) {
		t.Error("**/*.md should match nested markdown")
	}
	if !MatchesInclude("top.md", []string{"**/*.md"}) {
		t.Error("**/*.md should match top-level markdown")
	}
	if !MatchesExclude("a/b/c.tmp", []string{"*.tmp"}) {
		t.Error("*.tmp should match by base name")
	}
	if MatchesInclude("notes.txt", []string{"*.md"}) {
		t.Error("*.md should not match notes.txt")
	}
}
