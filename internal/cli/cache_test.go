package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveFiles(t *testing.T) {
	dir := t.TempDir()

	sub := filepath.Join(dir, "ab")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{filepath.Join(dir, "one"), filepath.Join(sub, "two")} {
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := removeFiles(dir)
	if err != nil {
		t.Fatalf("removeFiles() error: %v", err)
	}
	if n != 2 {
		t.Errorf("removed %d files, want 2", n)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir should be empty after clear, found %d entries", len(entries))
	}
}

func TestRemoveFilesMissingDir(t *testing.T) {
	n, err := removeFiles(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("removeFiles() error: %v", err)
	}
	if n != 0 {
		t.Errorf("removed %d files from a missing dir, want 0", n)
	}
}
