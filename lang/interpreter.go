package lang

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/klauspost/readahead"
)

// Interpreter parses expressions against a fixed environment of types,
// identifiers, and extension methods. It is immutable after construction
// and safe for concurrent use.
type Interpreter struct {
	env   *Environment
	set   settings
	regs  []registration
	cache *parseCache
	err   error
}

// New returns an interpreter configured by opts. Registration errors are
// reported by [Interpreter.Err] and by every subsequent parse.
func New(opts ...Option) *Interpreter {
	it := &Interpreter{set: defaultSettings()}

	for _, opt := range opts {
		opt(it)
	}

	it.build()

	return it
}

// With returns a new interpreter with the configuration of it and opts.
func (it *Interpreter) With(opts ...Option) *Interpreter {
	c := &Interpreter{set: it.set, regs: slices.Clone(it.regs)}

	for _, opt := range opts {
		opt(c)
	}

	c.build()

	return c
}

func (it *Interpreter) build() {
	if it.set.noDefaults {
		it.env = NewEnvironment(it.set.caseInsensitive)
	} else {
		it.env = Defaults().clone()
		it.env.refold(it.set.caseInsensitive)
	}

	for _, r := range it.regs {
		if err := r(it.env); err != nil && it.err == nil {
			it.err = err
		}
	}

	if it.set.caching {
		it.cache = newParseCache()
	}
}

// Err returns the first error raised by a registration option.
func (it *Interpreter) Err() error { return it.err }

// KnownTypes returns the names of the types expressions can reference.
func (it *Interpreter) KnownTypes() []string { return it.env.KnownTypes() }

// Identifiers returns the names of the registered identifiers.
func (it *Interpreter) Identifiers() []string { return it.env.Identifiers() }

// Parse parses text as an expression over params.
func (it *Interpreter) Parse(ctx context.Context, text string, params ...*Parameter) (*Lambda, error) {
	return it.ParseAs(ctx, text, nil, params...)
}

// MustParse is like [Interpreter.Parse] but panics on error.
func (it *Interpreter) MustParse(ctx context.Context, text string, params ...*Parameter) *Lambda {
	l, err := it.Parse(ctx, text, params...)
	if err != nil {
		panic(err)
	}

	return l
}

// ParseAs parses text as an expression of type to. The result is converted
// implicitly to that type; a lambda expression is bound to it when to is a
// func type.
func (it *Interpreter) ParseAs(
	ctx context.Context,
	text string,
	to reflect.Type,
	params ...*Parameter,
) (*Lambda, error) {
	if it.err != nil {
		return nil, it.err
	}

	if it.cache == nil {
		return it.compile(ctx, text, to, params)
	}

	l, err := it.cache.load(ctx, &it.set, text, to, params, func() (*Lambda, error) {
		return it.compile(ctx, text, to, params)
	})
	if err != nil {
		return nil, err
	}

	return l.withDefaults(params), nil
}

// ParseReader reads the expression text from r and parses it.
func (it *Interpreter) ParseReader(
	ctx context.Context,
	r io.Reader,
	params ...*Parameter,
) (*Lambda, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	it.set.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return it.Parse(ctx, string(data), params...)
}

// Eval parses and evaluates text with params.
func (it *Interpreter) Eval(ctx context.Context, text string, params ...*Parameter) (any, error) {
	l, err := it.Parse(ctx, text, params...)
	if err != nil {
		return nil, err
	}

	return l.Invoke(ctx, params...)
}

// ClearCache drops all cached parse results.
func (it *Interpreter) ClearCache() {
	if it.cache != nil {
		it.cache.clear()
	}
}

func (it *Interpreter) compile(
	ctx context.Context,
	text string,
	to reflect.Type,
	params []*Parameter,
) (*Lambda, error) {
	start := time.Now()

	declared := make([]*Parameter, len(params))
	defaults := make([]any, len(params))

	for i, p := range params {
		declared[i] = &Parameter{Name: p.Name, Type: p.declaredType()}
		defaults[i] = p.Value
	}

	scope, err := it.env.scope(declared)
	if err != nil {
		return nil, err
	}

	it.set.logger.TraceContext(ctx, "parse start",
		slog.String("expression", text),
		slog.Int("parameters", len(params)),
	)

	p := newParser(ctx, newLexer(text), scope, &it.set)

	root, err := p.parse(to)
	if err != nil {
		it.set.logger.TraceContext(ctx, "parse failed",
			slog.String("expression", text),
			slog.Any("error", err),
		)

		return nil, err
	}

	l := &Lambda{
		text:     text,
		root:     root,
		params:   declared,
		defaults: defaults,
		used:     scope.usedParameters(),
		assigned: assignedParameters(root),
		types:    slices.Clone(scope.usage.types),
		idents:   slices.Clone(scope.usage.idents),
		equal:    scope.equal,
		set:      &it.set,
	}

	it.set.logger.TraceContext(ctx, "parse complete",
		slog.String("type", TypeName(root.Type())),
		slog.Int("used_parameters", len(l.used)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return l, nil
}

// withDefaults returns a copy of l whose parse-time parameter values are
// taken from params.
func (l *Lambda) withDefaults(params []*Parameter) *Lambda {
	c := *l
	c.defaults = make([]any, len(params))

	for i, p := range params {
		c.defaults[i] = p.Value
	}

	return &c
}
