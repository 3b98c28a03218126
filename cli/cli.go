package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/aexpr/cli/cmd"
	"github.com/ardnew/aexpr/pkg"
)

// CLI is the top-level command-line interface for aexpr.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Source  []string         `help:"Read the expression from file(s), or '-' for stdin" name:"source" short:"s" type:"existingfile"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Init  cmd.Init  `cmd:"" help:"Write the current flags to the configuration file"`
	Check cmd.Check `cmd:"" help:"Parse an expression and report its type and identifiers"`
	Repl  cmd.Repl  `cmd:"" help:"Evaluate expressions interactively"`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate an expression"`
}

// Run parses args and runs the selected command. exit is called when kong
// terminates early, such as after printing help or a usage error.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	if err := mkdirAllRequired(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var cli CLI

	// Logger flags may appear anywhere on the command line; apply them before
	// kong reports anything.
	cli.Log.scan(args)

	parser, err := kong.New(&cli, cli.options(ctx, exit)...)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Source)

	cli.Log.start(ctx)

	// No-op unless built with the pprof tag and --pprof-mode is set.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

// vars returns the interpolation variables of the flag and command tags.
func (c *CLI) vars(config string) kong.Vars {
	return kong.Vars{
		"version":            pkg.Version,
		cmd.ConfigIdentifier: config,
		cmd.CacheIdentifier:  cacheDir(),
	}.
		CloneWith(c.Log.vars()).
		CloneWith(c.Pprof.vars())
}

// options configures the parser. The YAML configuration file resolves flag
// defaults first; a JSON file of the same name is consulted after it.
func (c *CLI) options(ctx context.Context, exit func(int)) []kong.Option {
	config := configPath(baseConfig + configExt)

	return []kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{c.Log.group(), c.Pprof.group()}),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			Tree:                true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(resolve(ctx), config),
		kong.Configuration(kong.JSON, strings.TrimSuffix(config, configExt)+".json"),
		c.vars(config),
	}
}
