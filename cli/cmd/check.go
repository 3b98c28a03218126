package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/aexpr/lang"
)

// checkIndent is the indentation of the expression tree in check reports.
const checkIndent = 2

// Check parses an expression without evaluating it and reports its result
// type, the parameters, types, and identifiers it uses, and its tree.
type Check struct {
	Options `embed:""`

	Expr   string `arg:""                                   help:"Expression to check (default: the --source files, or stdin)" optional:""`
	Output string `default:"native" enum:"native,json,yaml" help:"Report format."                                             placeholder:"${enum}" short:"o"`

	out io.Writer
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	it := c.interpreter()

	params, err := c.parameters(ctx, it)
	if err != nil {
		return err
	}

	l, err := parseInput(ctx, it, c.Expr, params)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "check"))
	}

	w := c.out
	if w == nil {
		w = os.Stdout
	}

	switch c.Output {
	case outputJSON:
		err = l.FormatJSON(ctx, w, checkIndent)
	case outputYAML:
		err = l.FormatYAML(ctx, w, checkIndent)
	default:
		err = writeReport(ctx, w, l)
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err).With(
			slog.String("command", "check"),
			slog.String("format", c.Output),
		)
	}

	return nil
}

// writeReport writes the native check report of l.
func writeReport(ctx context.Context, w io.Writer, l *lang.Lambda) error {
	var params, types, idents []string

	for _, p := range l.UsedParameters() {
		params = append(params, p.Name+" "+lang.TypeName(p.Type))
	}

	for _, t := range l.UsedTypes() {
		types = append(types, t.Name)
	}

	for _, id := range l.UsedIdentifiers() {
		idents = append(idents, id.Name)
	}

	_, err := fmt.Fprintf(w,
		"returns:     %s\nparameters:  %s\ntypes:       %s\nidentifiers: %s\n",
		lang.TypeName(l.ReturnType()),
		strings.Join(params, ", "),
		strings.Join(types, ", "),
		strings.Join(idents, ", "),
	)
	if err != nil {
		return err
	}

	return l.Format(ctx, w, checkIndent)
}
