package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ardnew/aexpr/pkg"
)

func TestAppName(t *testing.T) {
	tests := []struct {
		exe  string
		want string
	}{
		{"/usr/local/bin/aexpr", "aexpr"},
		{"/tmp/calc.exe", "calc"},
		{"/home/u/.hidden", "hidden"},
		{"/work/__debug_bin1234", pkg.Name},
		{"__debug_bin", pkg.Name},
		{"/bin/...", pkg.Name},
	}

	for _, tt := range tests {
		t.Run(tt.exe, func(t *testing.T) {
			if got := appName(tt.exe); got != tt.want {
				t.Errorf("appName(%q) = %q, want %q", tt.exe, got, tt.want)
			}
		})
	}
}

func TestUserDir(t *testing.T) {
	base := t.TempDir()

	got := userDir(func() (string, error) { return base, nil }, ".config", "app")
	if want := filepath.Join(base, "app"); got != want {
		t.Errorf("userDir = %q, want %q", got, want)
	}

	home := t.TempDir()
	t.Setenv("HOME", home)

	got = userDir(func() (string, error) { return "", errors.New("unset") }, ".cache", "app")
	if want := filepath.Join(home, ".cache", "app"); got != want {
		t.Errorf("userDir fallback = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	got := configPath(baseConfig + configExt)
	if filepath.Base(got) != "config.yaml" || filepath.Dir(got) != configDir() {
		t.Errorf("configPath = %q", got)
	}
}
