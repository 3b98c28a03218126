package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// writeFiles creates the named files under a temporary directory and returns
// their paths in the order given.
func writeFiles(t *testing.T, contents ...string) []string {
	t.Helper()

	dir := t.TempDir()
	paths := make([]string, len(contents))

	for i, c := range contents {
		paths[i] = filepath.Join(dir, "expr"+string(rune('a'+i))+".cs")
		if err := os.WriteFile(paths[i], []byte(c), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return paths
}

// readSources returns everything read from the sources stored for names.
func readSources(t *testing.T, names ...string) (string, bool) {
	t.Helper()

	src := sourceFilesFrom(WithSourceFiles(t.Context(), names))
	if src == nil {
		return "", false
	}

	t.Cleanup(func() { src.Close() })

	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("reading sources: %v", err)
	}

	return string(data), true
}

func TestWithSourceFiles_Empty(t *testing.T) {
	for _, names := range [][]string{nil, {}} {
		if _, ok := readSources(t, names...); ok {
			t.Errorf("WithSourceFiles(%v) stored a reader", names)
		}
	}
}

func TestWithSourceFiles(t *testing.T) {
	paths := writeFiles(t, "1 + ", "2")

	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"single", paths[:1], "1 + "},
		{"ordered", paths, "1 + 2"},
		{"duplicates", []string{paths[0], paths[0], paths[1], paths[0]}, "1 + 2"},
		{"missing_skipped", []string{"/nonexistent/a.cs", paths[1], "/nonexistent/b.cs"}, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := readSources(t, tt.names...)
			if !ok {
				t.Fatal("no reader stored")
			}

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithSourceFiles_AllMissing(t *testing.T) {
	if _, ok := readSources(t, "/nonexistent/a.cs", "/nonexistent/b.cs"); ok {
		t.Error("reader stored for nonexistent files")
	}
}

func TestWithSourceFiles_RelativeAndSymlink(t *testing.T) {
	path := writeFiles(t, "x * 2")[0]
	dir := filepath.Dir(path)

	link := filepath.Join(dir, "link.cs")
	if err := os.Symlink(path, link); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)

	got, ok := readSources(t, filepath.Base(path), path, link)
	if !ok || got != "x * 2" {
		t.Errorf("got %q, %v; want the file read once", got, ok)
	}
}

// pipeStdin replaces os.Stdin with a pipe carrying content.
func pipeStdin(t *testing.T, content string) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	old := os.Stdin
	os.Stdin = r

	t.Cleanup(func() {
		os.Stdin = old
		r.Close()
	})

	go func() {
		defer w.Close()

		_, _ = io.WriteString(w, content)
	}()
}

func TestWithSourceFiles_StdinLast(t *testing.T) {
	path := writeFiles(t, "a + ")[0]

	pipeStdin(t, "b")

	got, ok := readSources(t, "-", path, "-")
	if !ok || got != "a + b" {
		t.Errorf("got %q, want %q", got, "a + b")
	}
}

func TestSourceFiles_Stdin(t *testing.T) {
	pipeStdin(t, "")

	src := sourceFilesFrom(WithSourceFiles(t.Context(), []string{"-"}))
	if src == nil || src.IsZero() || !src.ReadsStdin() {
		t.Fatalf("stdin source = %v", src)
	}

	path := writeFiles(t, "1")[0]

	src = sourceFilesFrom(WithSourceFiles(t.Context(), []string{path}))
	if src.ReadsStdin() {
		t.Error("ReadsStdin() without -")
	}

	if err := src.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
