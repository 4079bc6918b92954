package locate

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

// writeTree creates files (relative, slash separated) under a temp dir.
func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("graph TD\n  A --> B\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("path %q is not absolute", p)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFind(t *testing.T) {
	root := writeTree(t,
		"b.mmd",
		"a.mmd",
		"nested/deep/c.mmd",
		"UPPER.MMD",
		"notes.txt",
		".hidden.mmd",
		".git/d.mmd",
		"dir.mmd/e.mmd",
	)

	tests := []struct {
		name    string
		pattern string
		opts    Options
		want    []string
	}{
		{
			name:    "recursive default style",
			pattern: "**/*.mmd",
			want:    []string{"UPPER.MMD", "a.mmd", "b.mmd", "dir.mmd/e.mmd", "nested/deep/c.mmd"},
		},
		{
			name:    "top level only",
			pattern: "*.mmd",
			want:    []string{"UPPER.MMD", "a.mmd", "b.mmd"},
		},
		{
			name:    "case sensitive",
			pattern: "*.mmd",
			opts:    Options{CaseSensitive: true},
			want:    []string{"a.mmd", "b.mmd"},
		},
		{
			name:    "include hidden",
			pattern: "**/*.mmd",
			opts:    Options{IncludeHidden: true},
			want:    []string{".git/d.mmd", ".hidden.mmd", "UPPER.MMD", "a.mmd", "b.mmd", "dir.mmd/e.mmd", "nested/deep/c.mmd"},
		},
		{
			name:    "brace alternatives",
			pattern: "*.{txt,mmd}",
			opts:    Options{CaseSensitive: true},
			want:    []string{"a.mmd", "b.mmd", "notes.txt"},
		},
		{
			name:    "literal file",
			pattern: "a.mmd",
			want:    []string{"a.mmd"},
		},
		{
			name:    "no matches",
			pattern: "**/*.mermaid",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Find(filepath.ToSlash(root)+"/"+tt.pattern, tt.opts)
			if err != nil {
				t.Fatalf("Find() error: %v", err)
			}
			if rel := relAll(t, root, got); !equal(rel, tt.want) {
				t.Errorf("Find() = %v, want %v", rel, tt.want)
			}
		})
	}
}

func TestFind_MissingBaseDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	got, err := Find(filepath.ToSlash(missing)+"/**/*.mmd", Options{})
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Find() = %v, want no matches", got)
	}
}

func TestFind_InvalidPattern(t *testing.T) {
	dir := t.TempDir()
	_, err := Find(filepath.ToSlash(dir)+"/[a-", Options{})
	if err == nil {
		t.Fatal("Find() expected error for invalid pattern")
	}
	if !errors.Is(err, errors.ErrCodeInvalidPattern) {
		t.Errorf("Find() error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPattern)
	}
}

func TestFind_UnreadableBaseDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := writeTree(t, "locked/a.mmd")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	if _, err := Find(filepath.ToSlash(locked)+"/**/*.mmd", Options{}); err == nil {
		t.Fatal("Find() expected error for unreadable base directory")
	}
}

func TestFind_RelativePattern(t *testing.T) {
	root := writeTree(t, "diagrams/a.mmd", "diagrams/sub/b.mmd")
	t.Chdir(root)

	got, err := Find(DefaultPattern, Options{})
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	want := []string{"diagrams/a.mmd", "diagrams/sub/b.mmd"}
	if rel := relAll(t, root, got); !equal(rel, want) {
		t.Errorf("Find() = %v, want %v", rel, want)
	}
}
