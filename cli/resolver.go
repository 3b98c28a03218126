package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/aexpr/cli/cmd"
	"github.com/ardnew/aexpr/log"
	"github.com/ardnew/aexpr/pkg"
)

// resolve returns a [kong.ConfigurationLoader] for YAML config files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config.yaml")
//
// The document is a mapping from flag names to values:
//   - Keys are flag names without dashes (log-level), optionally with
//     underscores in place of hyphens (log_level)
//   - Nested mappings join their keys with hyphens, so a "log" mapping with
//     a "level" key configures --log-level
//   - Sequences configure slice flags and mappings configure map flags
//
// Example config file:
//
//	log:
//	  level: debug
//	  pretty: false
//	number: decimal
//	var:
//	  region: us-east-1
//
// Command-line flags override config file values. A file that is not valid
// YAML is ignored with a warning.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var m map[string]any

		err := yaml.NewDecoder(r).DecodeContext(ctx, &m)
		if err != nil && !errors.Is(err, io.EOF) {
			log.WarnContext(ctx, "ignoring invalid configuration",
				slog.Any("error", err),
			)

			return config{}, nil
		}

		checkConfigVersion(ctx, m[cmd.ConfigVersionKey])

		return config(m), nil
	}
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if _, ok := unresolved[flag.Name]; ok {
		return nil, nil
	}

	v, ok := lookup(r, strings.Split(flag.Name, "-"))
	if !ok {
		// Not found - return nil to let Kong use defaults
		return nil, nil
	}

	return flagValue(v), nil
}

// unresolved are the flags a config file never sets.
var unresolved = map[string]struct{}{
	"help":                {},
	"version":             {},
	cmd.ConfigVersionKey: {},
}

// checkConfigVersion warns when the config was written by a release with a
// different major version, or by a newer one.
func checkConfigVersion(ctx context.Context, v any) bool {
	if v == nil {
		return true
	}

	written, err := semver.NewVersion(fmt.Sprint(v))
	if err != nil {
		log.WarnContext(ctx, "ignoring invalid configuration version",
			slog.Any(cmd.ConfigVersionKey, v),
			slog.Any("error", err),
		)

		return false
	}

	running, err := semver.NewVersion(pkg.Version)
	if err != nil {
		return true
	}

	if written.Major() != running.Major() || written.GreaterThan(running) {
		log.WarnContext(ctx, "configuration written by another version",
			slog.String(cmd.ConfigVersionKey, written.String()),
			slog.String("version", running.String()),
		)

		return false
	}

	return true
}

// lookup finds the value of the flag whose name has the hyphen-separated
// parts, trying the longest keys first and descending into nested mappings.
func lookup(m map[string]any, parts []string) (any, bool) {
	for i := len(parts); i > 0; i-- {
		v, ok := key(m, parts[:i])
		if !ok {
			continue
		}

		if i == len(parts) {
			return v, true
		}

		if sub, ok := v.(map[string]any); ok {
			if v, ok := lookup(sub, parts[i:]); ok {
				return v, true
			}
		}
	}

	return nil, false
}

func key(m map[string]any, parts []string) (any, bool) {
	if v, ok := m[strings.Join(parts, "-")]; ok {
		return v, true
	}

	v, ok := m[strings.Join(parts, "_")]

	return v, ok
}

// flagValue converts a decoded YAML value to the form Kong decodes: bools
// as is, sequences joined with commas, mappings as semicolon-separated
// KEY=VALUE pairs, and everything else as its string form.
func flagValue(v any) any {
	switch x := v.(type) {
	case bool:
		return x
	case nil:
		return ""
	case []any:
		items := make([]string, len(x))
		for i, e := range x {
			items[i] = fmt.Sprint(e)
		}

		return strings.Join(items, ",")
	case map[string]any:
		pairs := make([]string, 0, len(x))
		for _, k := range slices.Sorted(maps.Keys(x)) {
			pairs = append(pairs, k+"="+fmt.Sprint(x[k]))
		}

		return strings.Join(pairs, ";")
	default:
		return fmt.Sprint(x)
	}
}
