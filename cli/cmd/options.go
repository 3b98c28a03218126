package cmd

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/aexpr/lang"
	"github.com/ardnew/aexpr/log"
)

// Options are the interpreter settings and variable bindings shared by the
// commands that parse expressions.
type Options struct {
	Number          string            `default:"default" enum:"default,int,long,single,double,decimal" help:"Type of unsuffixed numeric literals."              placeholder:"${enum}"`
	Var             map[string]string `                                                                  help:"Bind variable NAME to the literal VALUE."          placeholder:"NAME=VALUE" short:"V"`
	Vars            []string          `                                                                  help:"Bind the variables of a YAML mapping file."        placeholder:"FILE"       type:"existingfile"`
	MaxDepth        int               `default:"0"                                                       help:"Maximum nesting depth of the parser (0 for default)."`
	CaseInsensitive bool              `                                                                  help:"Resolve names without regard to case."                                                          negatable:""`
	Assignment      bool              `default:"true"                                                    help:"Allow the assignment operator."                                                                 negatable:""`
	LateBinding     bool              `                                                                  help:"Resolve members of object values when evaluated."                                               negatable:""`
	Lambdas         bool              `default:"true"                                                    help:"Allow lambda expressions."                                                                      negatable:""`
	Reflection      bool              `                                                                  help:"Allow member access on reflection values."                                                      negatable:""`
}

// interpreter returns the interpreter described by o, with the command line
// builtins registered and logging through the package-level logger.
func (o *Options) interpreter(extra ...lang.Option) *lang.Interpreter {
	number, _ := lang.ParseNumberType(o.Number)

	opts := []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithDefaultNumberType(number),
		lang.WithMaxDepth(o.MaxDepth),
		lang.WithCaseInsensitive(o.CaseInsensitive),
		lang.WithAssignment(o.Assignment),
		lang.WithLateBinding(o.LateBinding),
		lang.WithLambdas(o.Lambdas),
		lang.WithReflection(o.Reflection),
	}

	opts = append(opts, builtins()...)

	return lang.New(append(opts, extra...)...)
}

// parameters returns the variables of the --vars files followed by those of
// --var, as parameters declared with the types of their values. A name bound
// more than once keeps its last value.
func (o *Options) parameters(ctx context.Context, it *lang.Interpreter) ([]*lang.Parameter, error) {
	vars := make(map[string]any)

	var order []string

	bind := func(name string, value any) {
		if _, ok := vars[name]; !ok {
			order = append(order, name)
		}

		vars[name] = value
	}

	for _, path := range o.Vars {
		m, err := loadVars(ctx, path)
		if err != nil {
			return nil, err
		}

		for _, name := range slices.Sorted(maps.Keys(m)) {
			bind(name, m[name])
		}
	}

	for _, name := range slices.Sorted(maps.Keys(o.Var)) {
		v, err := literal(ctx, it, o.Var[name])
		if err != nil {
			return nil, ErrBindVar.Wrap(err).With(slog.String("name", name))
		}

		bind(name, v)
	}

	params := make([]*lang.Parameter, len(order))
	for i, name := range order {
		params[i] = lang.Arg(name, vars[name])
	}

	log.TraceContext(ctx, "bound variables", slog.Any("names", order))

	return params, nil
}

// literal evaluates text as a parameterless expression. Text that does not
// parse, such as a bare word, is taken as a string.
func literal(ctx context.Context, it *lang.Interpreter, text string) (any, error) {
	l, err := it.Parse(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return text, nil
	}

	return l.Invoke(ctx)
}
