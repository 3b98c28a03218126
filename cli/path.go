package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/aexpr/pkg"
)

const (
	baseConfig = "config"
	configExt  = ".yaml"
)

var defaultDirMode os.FileMode = 0o700

var (
	debugBin  = regexp.MustCompile(`^__debug_bin\d*$`)
	leadedDot = regexp.MustCompile(`^\.+`)
)

// appName returns the name used for the per-user config and cache
// directories: the executable's base name without extension, with leading
// dots removed. A dlv build ("__debug_bin") maps to [pkg.Name].
func appName(exe string) string {
	id := leadedDot.ReplaceAllString(filepath.Base(exe), "")
	id = strings.TrimSuffix(id, filepath.Ext(id))

	if id == "" || debugBin.MatchString(id) {
		return pkg.Name
	}

	return id
}

var basePrefix = sync.OnceValue(func() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	return appName(exe)
})

// userDir returns filepath.Join(dir, name) where dir comes from userDirFunc,
// or else $HOME joined with fallback, or else the working directory.
func userDir(userDirFunc func() (string, error), fallback, name string) string {
	dir, err := userDirFunc()
	if err != nil {
		if dir, err = os.UserHomeDir(); err == nil {
			dir = filepath.Join(dir, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, name)
}

var configDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config", basePrefix())
})

// cacheDir holds the REPL history and profiler output.
var cacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache", basePrefix())
})

// configPath joins elem onto [configDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
