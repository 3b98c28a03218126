package lang

import (
	"reflect"

	"github.com/ardnew/aexpr/log"
)

// DefaultMaxDepth is the default nesting depth ceiling of the parser.
const DefaultMaxDepth = 256

// NumberType selects the type of unsuffixed numeric literals.
type NumberType int

// Default number types. NumberDefault types integer literals as the first
// of int, uint, long, and ulong that holds the value, and real literals as
// double.
const (
	NumberDefault NumberType = iota
	NumberInt
	NumberLong
	NumberSingle
	NumberDouble
	NumberDecimal
)

var numberTypeNames = [...]string{
	NumberDefault: "default",
	NumberInt:     "int",
	NumberLong:    "long",
	NumberSingle:  "single",
	NumberDouble:  "double",
	NumberDecimal: "decimal",
}

// String returns the lower-case name of the number type.
func (n NumberType) String() string {
	if n >= 0 && int(n) < len(numberTypeNames) {
		return numberTypeNames[n]
	}

	return "unknown"
}

// ParseNumberType returns the NumberType named s.
func ParseNumberType(s string) (NumberType, bool) {
	for i, name := range numberTypeNames {
		if name == s {
			return NumberType(i), true
		}
	}

	return NumberDefault, false
}

// settings are the parse and evaluation options of an [Interpreter].
type settings struct {
	logger          log.Logger
	maxDepth        int
	numberType      NumberType
	caseInsensitive bool
	assignment      bool
	lambdas         bool
	lateBinding     bool
	reflection      bool
	caching         bool
	noDefaults      bool
}

func defaultSettings() settings {
	return settings{
		maxDepth:   DefaultMaxDepth,
		assignment: true,
		lambdas:    true,
	}
}

// registration adds host declarations to an environment.
type registration func(*Environment) error

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithCaseInsensitive makes type, identifier, parameter, and member name
// lookups ignore case.
func WithCaseInsensitive(enable bool) Option {
	return func(in *Interpreter) { in.set.caseInsensitive = enable }
}

// WithAssignment enables the assignment operator. It is enabled by
// default.
func WithAssignment(enable bool) Option {
	return func(in *Interpreter) { in.set.assignment = enable }
}

// WithLateBinding resolves members and operators of object-typed values
// against their runtime types during evaluation.
func WithLateBinding(enable bool) Option {
	return func(in *Interpreter) { in.set.lateBinding = enable }
}

// WithDefaultNumberType sets the type of unsuffixed numeric literals.
func WithDefaultNumberType(n NumberType) Option {
	return func(in *Interpreter) { in.set.numberType = n }
}

// WithLambdas enables lambda expressions. They are enabled by default.
func WithLambdas(enable bool) Option {
	return func(in *Interpreter) { in.set.lambdas = enable }
}

// WithReflection allows member access on reflection values such as the
// result of typeof and GetType.
func WithReflection(enable bool) Option {
	return func(in *Interpreter) { in.set.reflection = enable }
}

// WithMaxDepth sets the parser's nesting depth ceiling.
func WithMaxDepth(depth int) Option {
	return func(in *Interpreter) {
		if depth > 0 {
			in.set.maxDepth = depth
		}
	}
}

// WithCache enables caching of parse results keyed by expression text and
// parameter signature.
func WithCache(enable bool) Option {
	return func(in *Interpreter) { in.set.caching = enable }
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(in *Interpreter) { in.set.logger = logger }
}

// WithoutDefaults starts from an empty environment instead of the built-in
// types, keywords, and extension methods.
func WithoutDefaults() Option {
	return func(in *Interpreter) { in.set.noDefaults = true }
}

// WithType registers a host type under name.
func WithType(name string, t reflect.Type) Option {
	return register(func(e *Environment) error { return e.AddType(name, t) })
}

// WithGenericType registers a generic type definition.
func WithGenericType(g *GenericType) Option {
	return register(func(e *Environment) error {
		e.AddGenericType(g)

		return nil
	})
}

// WithTypeInfo registers the member descriptor of a host type.
func WithTypeInfo(ti *TypeInfo) Option {
	return register(func(e *Environment) error { return e.AddTypeInfo(ti) })
}

// WithIdentifier binds name to an expression node.
func WithIdentifier(name string, expr Node) Option {
	return register(func(e *Environment) error {
		e.AddIdentifier(name, expr)

		return nil
	})
}

// WithVariable binds name to a constant value.
func WithVariable(name string, value any) Option {
	return register(func(e *Environment) error {
		e.AddIdentifier(name, newConstant(value, -1))

		return nil
	})
}

// WithFunction binds name to one or more Go functions, which are resolved as
// overloads.
func WithFunction(name string, fns ...any) Option {
	return register(func(e *Environment) error {
		g, err := Function(name, fns...)
		if err != nil {
			return err
		}

		e.AddIdentifier(name, g)

		return nil
	})
}

// WithExtensions registers extension methods.
func WithExtensions(ms ...*Method) Option {
	return register(func(e *Environment) error {
		e.AddExtension(ms...)

		return nil
	})
}

func register(r registration) Option {
	return func(it *Interpreter) { it.regs = append(it.regs, r) }
}

// Function builds a method group from Go functions.
func Function(name string, fns ...any) (*MethodGroup, error) {
	g := &MethodGroup{Name: name, pos: -1}

	for _, fn := range fns {
		m, err := funcMethod(name, fn)
		if err != nil {
			return nil, err
		}

		g.Methods = append(g.Methods, m)
		g.Values = append(g.Values, reflect.ValueOf(fn))
	}

	return g, nil
}

// Extension builds an extension method from a Go function whose first
// parameter is the receiver.
func Extension(name string, fn any) (*Method, error) {
	m, err := funcMethod(name, fn)
	if err != nil {
		return nil, err
	}

	if len(m.Params) == 0 {
		return nil, ErrInvalidType.Detail("extension method " + name + " has no receiver")
	}

	return m, nil
}

// GenericExtension builds an extension method whose signature sig mentions
// the placeholder types; call receives the inferred bindings, and the
// receiver as its first argument.
func GenericExtension(name string, sig reflect.Type, call CallFunc) *Method {
	return signatureMethod(name, sig, call)
}
