package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/aexpr/lang"
	"github.com/ardnew/aexpr/log"
)

// Eval parses and evaluates an expression and prints its result.
type Eval struct {
	Options `embed:""`

	Expr   string `arg:""                                   help:"Expression to evaluate (default: the --source files, or stdin)" optional:""`
	Output string `default:"native" enum:"native,json,yaml" help:"Result format."                                                 placeholder:"${enum}" short:"o"`
	Cache  bool   `                                         help:"Cache parse results within the run."                                             negatable:""`

	out io.Writer
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	it := e.interpreter(lang.WithCache(e.Cache))

	params, err := e.parameters(ctx, it)
	if err != nil {
		return err
	}

	l, err := parseInput(ctx, it, e.Expr, params)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "eval"))
	}

	result, err := l.Invoke(ctx, params...)
	if err != nil {
		return lang.WrapError(err).With(
			slog.String("command", "eval"),
			slog.String("expression", l.ExpressionText()),
		)
	}

	log.DebugContext(ctx, "evaluated",
		slog.String("expression", l.ExpressionText()),
		slog.String("type", lang.TypeName(l.ReturnType())),
	)

	return writeValue(ctx, e.writer(), e.Output, result)
}

func (e *Eval) writer() io.Writer {
	if e.out != nil {
		return e.out
	}

	return os.Stdout
}

// parseInput parses expr, or when it is empty the --source files, or when
// there are none a piped stdin.
func parseInput(
	ctx context.Context,
	it *lang.Interpreter,
	expr string,
	params []*lang.Parameter,
) (*lang.Lambda, error) {
	if strings.TrimSpace(expr) != "" {
		return it.Parse(ctx, expr, params...)
	}

	if src := sourceFilesFrom(ctx); src != nil && !src.IsZero() {
		defer src.Close()

		return it.ParseReader(ctx, src, params...)
	}

	if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
		return it.ParseReader(ctx, os.Stdin, params...)
	}

	return nil, ErrNoExpression
}
