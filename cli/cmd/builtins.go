package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/aexpr/lang"
)

// Marker types of the static classes the command line adds to expressions.
type (
	pathType struct{}
	fileType struct{}
	envType  struct{}
)

// builtins returns the registrations of the Path, File, and Env classes.
func builtins() []lang.Option {
	return []lang.Option{
		lang.WithType("Path", reflect.TypeFor[pathType]()),
		lang.WithType("File", reflect.TypeFor[fileType]()),
		lang.WithType("Env", reflect.TypeFor[envType]()),
		lang.WithTypeInfo(pathInfo()),
		lang.WithTypeInfo(fileInfo()),
		lang.WithTypeInfo(envInfo()),
	}
}

func pathInfo() *lang.TypeInfo {
	return lang.Describe(reflect.TypeFor[pathType](),
		lang.StaticProperty("Separator", string(filepath.Separator)),
		lang.StaticProperty("ListSeparator", string(filepath.ListSeparator)),
		lang.StaticMethod("Join", filepath.Join),
		lang.StaticMethod("Abs", pathAbs),
		lang.StaticMethod("Rel", pathRel),
		lang.StaticMethod("Base", filepath.Base),
		lang.StaticMethod("Dir", filepath.Dir),
		lang.StaticMethod("Ext", filepath.Ext),
		lang.StaticMethod("Split", filepath.SplitList),
		lang.StaticMethod("Prefix", pathPrefix),
		lang.StaticMethod("PrefixIf", pathPrefixIf),
	)
}

func pathAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return abs
}

func pathRel(from, to string) string {
	rel, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return filepath.Join(from, to)
	}

	return rel
}

// pathPrefix returns the path list with items moved or added to its front,
// each appearing once.
func pathPrefix(list string, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
	).String()
}

// pathPrefixIf is pathPrefix keeping only the elements accepted by keep.
func pathPrefixIf(list string, keep func(string) bool, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
		mung.WithFilter(keep),
	).String()
}

func fileInfo() *lang.TypeInfo {
	return lang.Describe(reflect.TypeFor[fileType](),
		lang.StaticMethod("Exists", func(path string) bool {
			_, err := os.Stat(path)

			return err == nil
		}),
		lang.StaticMethod("IsDir", func(path string) bool {
			info, err := os.Stat(path)

			return err == nil && info.IsDir()
		}),
		lang.StaticMethod("IsRegular", func(path string) bool {
			info, err := os.Stat(path)

			return err == nil && info.Mode().IsRegular()
		}),
		lang.StaticMethod("IsSymlink", func(path string) bool {
			info, err := os.Lstat(path)

			return err == nil && info.Mode()&os.ModeSymlink != 0
		}),
		lang.StaticMethod("ReadAllText", func(path string) (string, error) {
			b, err := os.ReadFile(path)

			return string(b), err
		}),
	)
}

func envInfo() *lang.TypeInfo {
	return lang.Describe(reflect.TypeFor[envType](),
		lang.StaticProperty("Platform", runtime.GOOS+"/"+runtime.GOARCH),
		lang.StaticGetter("Cwd", func() string {
			wd, err := os.Getwd()
			if err != nil {
				return "."
			}

			return wd
		}),
		lang.StaticGetter("Hostname", func() string {
			name, _ := os.Hostname()

			return name
		}),
		lang.StaticGetter("Names", envNames),
		lang.StaticMethod("Get", os.Getenv),
		lang.StaticMethod("Get", func(name, fallback string) string {
			if v, ok := os.LookupEnv(name); ok {
				return v
			}

			return fallback
		}),
		lang.StaticMethod("Has", func(name string) bool {
			_, ok := os.LookupEnv(name)

			return ok
		}),
		lang.StaticMethod("Expand", os.ExpandEnv),
	)
}

func envNames() []string {
	env := os.Environ()
	names := make([]string, 0, len(env))

	for _, kv := range env {
		if name, _, ok := strings.Cut(kv, "="); ok && name != "" {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return slices.Compact(names)
}
