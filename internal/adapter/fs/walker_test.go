package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte("text"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func names(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestWalkIncludesAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"nppf_2024.txt",
		"local/dap_2020.txt",
		"local/notes.md",
		"drafts/wip_2026.txt",
	)

	w := NewWalker([]string{"**/*.txt"}, []string{"drafts/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	got := names(files)
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %v", got)
	}
	for _, name := range got {
		if name == "notes.md" {
			t.Error("non-matching extension included")
		}
		if name == "wip_2026.txt" {
			t.Error("excluded directory not skipped")
		}
	}
}

func TestWalkDefaultIncludes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "plan.txt", "plan.pdf")

	w := NewWalker(nil, nil)
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "plan.txt" {
		t.Errorf("expected only plan.txt, got %v", files)
	}
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "doc.txt")
	if err := os.WriteFile(path, []byte("=== PAGE 1 ===\npolicy"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	content, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if content != "=== PAGE 1 ===\npolicy" {
		t.Errorf("unexpected content: %q", content)
	}

	if _, err := ReadFile(filepath.Join(root, "missing.txt")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
