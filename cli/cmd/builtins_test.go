package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/aexpr/lang"
)

func evalBuiltin(t *testing.T, expr string, params ...*lang.Parameter) any {
	t.Helper()

	it := lang.New(builtins()...)
	if err := it.Err(); err != nil {
		t.Fatalf("register builtins: %v", err)
	}

	v, err := it.Eval(t.Context(), expr, params...)
	if err != nil {
		t.Fatalf("Eval(%q): %v", expr, err)
	}

	return v
}

func TestBuiltins_Path(t *testing.T) {
	sep := string(os.PathListSeparator)

	tests := []struct {
		expr string
		want any
	}{
		{`Path.Join("a", "b", "c")`, filepath.Join("a", "b", "c")},
		{`Path.Base("/x/y.txt")`, "y.txt"},
		{`Path.Ext("y.tar.gz")`, ".gz"},
		{`Path.Dir("/x/y")`, filepath.Dir("/x/y")},
		{`Path.Separator`, string(filepath.Separator)},
		{`Path.ListSeparator`, sep},
		{`Path.Split("a` + sep + `b").Length`, int32(2)},
		{`Path.Rel("/a", "/a/b/c")`, filepath.Join("b", "c")},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := evalBuiltin(t, tt.expr); got != tt.want {
				t.Errorf("%s = %#v, want %#v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestBuiltins_PathPrefix(t *testing.T) {
	sep := string(os.PathListSeparator)
	list := strings.Join([]string{"/usr/bin", "/bin"}, sep)

	got := evalBuiltin(t, `Path.Prefix(list, "/opt/bin")`, lang.Arg("list", list))

	s, ok := got.(string)
	if !ok || !strings.Contains(s, "/opt/bin") {
		t.Errorf("Path.Prefix = %#v", got)
	}
}

func TestBuiltins_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")

	if err := os.WriteFile(file, []byte("content"), 0o600); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(dir, "link")
	if err := os.Symlink(file, link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	params := []*lang.Parameter{
		lang.Arg("dir", dir),
		lang.Arg("file", file),
		lang.Arg("link", link),
		lang.Arg("missing", filepath.Join(dir, "missing")),
	}

	tests := []struct {
		expr string
		want any
	}{
		{"File.Exists(file)", true},
		{"File.Exists(missing)", false},
		{"File.IsDir(dir)", true},
		{"File.IsDir(file)", false},
		{"File.IsRegular(file)", true},
		{"File.IsSymlink(link)", true},
		{"File.IsSymlink(file)", false},
		{"File.ReadAllText(file)", "content"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := evalBuiltin(t, tt.expr, params...); got != tt.want {
				t.Errorf("%s = %#v, want %#v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestBuiltins_FileReadError(t *testing.T) {
	it := lang.New(builtins()...)

	_, err := it.Eval(t.Context(), `File.ReadAllText(p)`, lang.Arg("p", filepath.Join(t.TempDir(), "missing")))
	if err == nil {
		t.Error("reading a missing file succeeded")
	}
}

func TestBuiltins_Env(t *testing.T) {
	t.Setenv("AEXPR_TEST_VAR", "value")

	tests := []struct {
		expr string
		want any
	}{
		{`Env.Get("AEXPR_TEST_VAR")`, "value"},
		{`Env.Get("AEXPR_TEST_UNSET", "fallback")`, "fallback"},
		{`Env.Get("AEXPR_TEST_VAR", "fallback")`, "value"},
		{`Env.Has("AEXPR_TEST_VAR")`, true},
		{`Env.Has("AEXPR_TEST_UNSET")`, false},
		{`Env.Expand("x-$AEXPR_TEST_VAR")`, "x-value"},
		{`Env.Names.Contains("AEXPR_TEST_VAR")`, true},
		{`Env.Platform.Contains("/")`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := evalBuiltin(t, tt.expr); got != tt.want {
				t.Errorf("%s = %#v, want %#v", tt.expr, got, tt.want)
			}
		})
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	if got := evalBuiltin(t, "Env.Cwd"); got != wd {
		t.Errorf("Env.Cwd = %#v, want %q", got, wd)
	}
}
