package lang

import (
	"context"
	"log/slog"
	"reflect"
	"slices"
)

// Lambda is a parsed expression ready for evaluation. It is immutable and
// safe for concurrent invocation.
type Lambda struct {
	text     string
	root     Node
	params   []*Parameter // declared, in declaration order
	defaults []any        // parse-time values of params
	used     []*Parameter
	assigned map[*Parameter]bool
	types    []*ReferenceType
	idents   []*Identifier
	equal    func(a, b string) bool
	set      *settings
}

// ExpressionText returns the source text of the expression.
func (l *Lambda) ExpressionText() string { return l.text }

// Expression returns the root of the bound expression tree.
func (l *Lambda) Expression() Node { return l.root }

// ReturnType returns the static type of the expression. Expressions without
// a value have the type of an empty struct.
func (l *Lambda) ReturnType() reflect.Type { return l.root.Type() }

// String returns the canonical form of the bound expression.
func (l *Lambda) String() string { return l.root.String() }

// DeclaredParameters returns the parameters the expression was parsed
// with, carrying their parse-time values.
func (l *Lambda) DeclaredParameters() []*Parameter {
	out := make([]*Parameter, len(l.params))
	for i, p := range l.params {
		out[i] = &Parameter{Name: p.Name, Type: p.Type, Value: l.defaults[i]}
	}

	return out
}

// UsedParameters returns the declared parameters referenced by the
// expression, in declaration order.
func (l *Lambda) UsedParameters() []*Parameter {
	out := make([]*Parameter, len(l.used))
	for i, p := range l.used {
		out[i] = &Parameter{Name: p.Name, Type: p.Type, Value: l.defaults[slices.Index(l.params, p)]}
	}

	return out
}

// UsedTypes returns the registered types referenced by the expression.
func (l *Lambda) UsedTypes() []*ReferenceType { return slices.Clone(l.types) }

// UsedIdentifiers returns the registered identifiers referenced by the
// expression.
func (l *Lambda) UsedIdentifiers() []*Identifier { return slices.Clone(l.idents) }

// Invoke evaluates the expression, binding params to the declared
// parameters by name. A declared parameter not passed takes its parse-time
// value; a used one without either is a MissingParameter error. Values the
// expression assigns to parameters are written back to params.
func (l *Lambda) Invoke(ctx context.Context, params ...*Parameter) (any, error) {
	fr := newFrame(nil, len(l.params))
	bound := make([]*Parameter, len(l.params))

	for i, d := range l.params {
		value, ok := l.defaults[i], false

		for _, p := range params {
			if l.equal(p.Name, d.Name) {
				value, ok, bound[i] = p.Value, true, p

				break
			}
		}

		if !ok && value == nil && slices.Contains(l.used, d) {
			return nil, missingParameter(d.Name)
		}

		v, err := argument(d, value)
		if err != nil {
			return nil, err
		}

		fr.slots[d] = v
	}

	res, err := l.run(ctx, fr)
	if err != nil {
		return nil, err
	}

	for i, d := range l.params {
		if p := bound[i]; p != nil && l.assigned[d] {
			p.Value = interfaceOf(fr.slots[d])
		}
	}

	return res, nil
}

// InvokeValues evaluates the expression with values bound positionally to
// the declared parameters.
func (l *Lambda) InvokeValues(ctx context.Context, values ...any) (any, error) {
	if len(values) != len(l.params) {
		return nil, evalError(ErrParamCount, "Incorrect number of parameters",
			slog.Int("expected", len(l.params)), slog.Int("actual", len(values)))
	}

	fr := newFrame(nil, len(l.params))

	for i, d := range l.params {
		v, err := argument(d, values[i])
		if err != nil {
			return nil, err
		}

		fr.slots[d] = v
	}

	return l.run(ctx, fr)
}

// Func returns the expression as a Go func of type F, whose parameters are
// bound positionally to the declared parameters. If F has a trailing error
// result it receives evaluation errors; otherwise they panic.
func Func[F any](l *Lambda) (F, error) {
	var zero F

	ft := reflect.TypeFor[F]()
	if ft.Kind() != reflect.Func || ft.NumIn() != len(l.params) {
		return zero, ErrInvalidType.Detail("Func type " + ft.String() +
			" does not match the declared parameters")
	}

	outs := ft.NumOut()
	withErr := outs > 0 && ft.Out(outs-1) == typeError

	if withErr {
		outs--
	}

	if outs > 1 {
		return zero, ErrInvalidType.Detail("Func type " + ft.String() + " has too many results")
	}

	fn := reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		v, err := l.InvokeValues(context.Background(), interfaces(args)...)

		var out []reflect.Value

		if outs == 1 {
			r := reflect.Zero(ft.Out(0))

			if err == nil && v != nil {
				if r, err = convertValue(reflect.ValueOf(v), ft.Out(0), false); err != nil {
					r = reflect.Zero(ft.Out(0))
				}
			}

			out = append(out, r)
		}

		if withErr {
			ev := reflect.Zero(typeError)
			if err != nil {
				ev = reflect.ValueOf(&err).Elem()
			}

			return append(out, ev)
		}

		if err != nil {
			panic(err)
		}

		return out
	})

	return fn.Interface().(F), nil
}

// run evaluates the root in fr, recovering the errors of lambda bodies
// raised through host code.
func (l *Lambda) run(ctx context.Context, fr *frame) (res any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			lp, ok := r.(*lambdaPanic)
			if !ok {
				panic(r)
			}

			res, err = nil, lp.err
		}
	}()

	ev := &evaluator{ctx: ctx}

	v, err := ev.eval(l.root, fr)
	if err != nil {
		l.set.logger.TraceContext(ctx, "evaluation failed",
			slog.String("expression", l.text),
			slog.Any("error", err),
		)

		return nil, err
	}

	return interfaceOf(v), nil
}

// argument converts a bound value to the declared parameter type.
func argument(p *Parameter, value any) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(p.Type), nil
	}

	v := reflect.ValueOf(value)
	if v.Type() == p.Type {
		return v, nil
	}

	c, err := convertValue(v, p.Type, false)
	if err != nil {
		return reflect.Value{}, evalError(ErrInvalidCast,
			"Invalid value for parameter '"+p.Name+"'",
			slog.String("name", p.Name),
			slog.String("type", TypeName(p.Type)),
		).Wrap(err)
	}

	return c, nil
}

// interfaceOf returns the Go value held by v; nil for null and for
// expressions without a value.
func interfaceOf(v reflect.Value) any {
	if !v.IsValid() || v.Type() == typeVoid || v.Type() == typeNull {
		return nil
	}

	if isNilValue(v) {
		return nil
	}

	if v.Kind() == reflect.Interface {
		return v.Elem().Interface()
	}

	return v.Interface()
}

func interfaces(vs []reflect.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = interfaceOf(v)
	}

	return out
}
