package cli

import (
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/alecthomas/kong"

	"github.com/ardnew/aexpr/log"
	"github.com/ardnew/aexpr/pkg"
)

type resolverCLI struct {
	LogLevel string            `default:"info"`
	Pretty   bool              `default:"true" negatable:""`
	Depth    int               `default:"8"`
	Ratio    float64           `default:"1"`
	Tags     []string          ``
	Var      map[string]string ``
	Name     string            ``
}

func parseWithConfig(t *testing.T, config string, args ...string) *resolverCLI {
	t.Helper()

	var cli resolverCLI

	res, err := resolve(t.Context())(strings.NewReader(config))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	parser, err := kong.New(&cli, kong.Resolvers(res))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}

	return &cli
}

func TestResolve_Flat(t *testing.T) {
	cli := parseWithConfig(t, `
log-level: debug
pretty: false
depth: 3
ratio: 0.5
tags: [a, b]
var:
  x: 1
  y: two
name: app
`)

	if cli.LogLevel != "debug" || cli.Pretty || cli.Depth != 3 || cli.Ratio != 0.5 || cli.Name != "app" {
		t.Errorf("cli = %+v", cli)
	}

	if strings.Join(cli.Tags, "|") != "a|b" {
		t.Errorf("tags = %q", cli.Tags)
	}

	if cli.Var["x"] != "1" || cli.Var["y"] != "two" {
		t.Errorf("var = %v", cli.Var)
	}
}

func TestResolve_NestedAndUnderscore(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"nested", "log:\n  level: warn\n"},
		{"underscore", "log_level: warn\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if cli := parseWithConfig(t, tt.config); cli.LogLevel != "warn" {
				t.Errorf("log-level = %q, want warn", cli.LogLevel)
			}
		})
	}
}

func TestResolve_FlagsOverride(t *testing.T) {
	cli := parseWithConfig(t, "log-level: debug\n", "--log-level=error")

	if cli.LogLevel != "error" {
		t.Errorf("log-level = %q, want error", cli.LogLevel)
	}
}

func TestResolve_EmptyAndInvalid(t *testing.T) {
	for _, config := range []string{"", "{unclosed: [", "- a\n- b\n"} {
		cli := parseWithConfig(t, config)
		if cli.LogLevel != "info" || cli.Depth != 8 {
			t.Errorf("config %q changed defaults: %+v", config, cli)
		}
	}
}

func TestLookup(t *testing.T) {
	m := map[string]any{
		"a":     map[string]any{"b-c": 1, "d": map[string]any{"e": 2}},
		"a-x":   3,
		"plain": 4,
	}

	tests := []struct {
		parts []string
		want  any
		ok    bool
	}{
		{[]string{"plain"}, 4, true},
		{[]string{"a", "x"}, 3, true},
		{[]string{"a", "b", "c"}, 1, true},
		{[]string{"a", "d", "e"}, 2, true},
		{[]string{"a", "missing"}, nil, false},
		{[]string{"missing"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.parts, "-"), func(t *testing.T) {
			got, ok := lookup(m, tt.parts)
			if ok != tt.ok || got != tt.want {
				t.Errorf("lookup = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCheckConfigVersion(t *testing.T) {
	defer log.SetDefault(log.Default())

	log.Config(log.WithOutput(nil))

	running := semver.MustParse(pkg.Version)

	tests := []struct {
		name    string
		version any
		want    bool
	}{
		{"absent", nil, true},
		{"same", pkg.Version, true},
		{"older_patch", "0.0.1", running.Major() == 0},
		{"newer_minor", running.IncMinor().String(), false},
		{"newer_major", running.IncMajor().String(), false},
		{"invalid", "not-a-version", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkConfigVersion(t.Context(), tt.version); got != tt.want {
				t.Errorf("checkConfigVersion(%v) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestResolve_SkipsVersionKeys(t *testing.T) {
	cli := parseWithConfig(t, "config-version: 0.1.0\nversion: true\nname: x\n")

	if cli.Name != "x" {
		t.Errorf("Name = %q, want %q", cli.Name, "x")
	}
}
