// Package lang parses and evaluates C#-style expressions against Go values.
//
// An [Interpreter] holds an immutable [Environment] of named types,
// identifiers, functions, and extension methods. Parsing binds every name,
// member, overload, and operator up front and produces a [Lambda], a typed
// expression tree that can be invoked any number of times, concurrently.
//
//	it := lang.New(lang.WithVariable("limit", int32(10)))
//
//	l, err := it.Parse(ctx, "x * 2 + limit",
//		lang.NewParameter("x", reflect.TypeFor[int32]()))
//	if err != nil {
//		return err
//	}
//
//	v, err := l.Invoke(ctx, lang.Arg("x", int32(3))) // int32(16)
//
// # Types
//
// C# names map onto Go types: bool, string, char ([Char]), the sized
// integers, float and double, decimal (github.com/shopspring/decimal),
// object (any), DateTime (time.Time), and TimeSpan (time.Duration). T? is a
// pointer to T. Slices stand in for arrays and List<T>, maps for
// Dictionary<K,V>, func types for delegates, and iter.Seq for
// IEnumerable<T>. Host types become visible through [WithType] and bring
// their exported fields and methods with them; [WithTypeInfo] adds members
// a Go type does not declare itself.
//
// # Syntax
//
// The grammar follows C# expressions: literals with suffixes, member access
// and null-conditional access, indexers, calls with params arrays, object
// creation with initializers, array creation, casts, is and as, the
// arithmetic, logical, bitwise and shift operators, ?: and ??, typeof and
// default, lambdas, and (with [WithAssignment]) assignment to parameters
// and members. Sequences support the LINQ
// operators as extension methods: Where(x => x > 1).Select(x => x * 2).
//
// # Binding
//
// Overloads are chosen by C# betterness: identity beats implicit
// conversion, normal form beats params expansion, and a tie is an
// ambiguity error. Parameters of type object, and any value of the dynamic
// type, defer binding to run time when [WithLateBinding] is set.
//
// Errors are [*Error] values that wrap one of the sentinel kinds such as
// [ErrUnknownIdentifier], so errors.Is works on every failure, and carry the
// source position where one applies.
package lang
