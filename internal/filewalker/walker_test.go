package filewalker

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("<tmx/>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.tmx"))
	writeFile(t, filepath.Join(root, "sub", "b.tmx"))
	writeFile(t, filepath.Join(root, "sub", "deep", "c.TMX"))
	writeFile(t, filepath.Join(root, "ignored.xml"))
	writeFile(t, filepath.Join(root, "sub", "notes.txt"))

	paths, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("Discover() = %d files, want 3: %v", len(paths), paths)
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("Discover() returned relative path %q", p)
		}
	}
}

func TestDiscoverEmptyTree(t *testing.T) {
	paths, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("Discover() = %d files in empty tree, want 0", len(paths))
	}
}

func TestDiscoverRootMissing(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Discover() of a missing root succeeded")
	}
}

func TestDiscoverRootIsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "single.tmx")
	writeFile(t, file)
	if _, err := Discover(file); err == nil {
		t.Fatal("Discover() of a plain file succeeded")
	}
}
