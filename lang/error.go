package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
//
// Every error returned by the engine is an [*Error] derived from one of these
// values, so callers can test the kind with [errors.Is].
var (
	// Parse-time errors.
	ErrSyntax               = NewError("syntax error")
	ErrUnknownIdentifier    = NewError("unknown identifier")
	ErrDuplicateParameter   = NewError("duplicate parameter")
	ErrNoApplicableMethod   = NewError("no applicable method")
	ErrAmbiguousInvocation  = NewError("ambiguous invocation")
	ErrTypeConversion       = NewError("type conversion error")
	ErrAssignmentDisabled   = NewError("assignment operator disabled")
	ErrNotWritable          = NewError("expression is not writable")
	ErrReflectionNotAllowed = NewError("reflection not allowed")
	ErrMaxDepthExceeded     = NewError("maximum nesting depth exceeded")
	ErrInvalidType          = NewError("invalid type registration")
	ErrReadInput            = NewError("failed to read input")

	// Evaluation-time errors.
	ErrNullReference    = NewError("null reference")
	ErrDivideByZero     = NewError("divide by zero")
	ErrOverflow         = NewError("arithmetic overflow")
	ErrInvalidCast      = NewError("invalid cast")
	ErrIndexOutOfRange  = NewError("index out of range")
	ErrMissingParameter = NewError("missing parameter")
	ErrParamCount       = NewError("parameter count mismatch")
	ErrInvalidOperation = NewError("invalid operation")
)

// noPos marks an error that is not tied to a source offset.
const noPos = -1

// Error represents an engine error with an optional source position and
// structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	kind   *Error      // sentinel this error derives from (nil for sentinels)
	msg    string      // sentinel message
	detail string      // human-readable description
	pos    int         // 0-based offset into the source text, or noPos
	err    error       // Wrapped error (for errors.Unwrap)
	attrs  []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg, pos: noPos}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err, pos: noPos}
}

// Error implements the error interface.
//
// An error carrying a detail and a position is formatted as
// "<detail> (at index <pos>)."; otherwise the first available of
// "<detail-or-msg>: <err>", "<detail-or-msg>", or "<err>" is used.
func (e *Error) Error() string {
	text := e.detail
	if text == "" {
		text = e.msg
	}

	if e.pos >= 0 {
		return text + " (at index " + strconv.Itoa(e.pos) + ")."
	}

	part := make([]string, 0, 2)

	if text != "" {
		part = append(part, text)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel this error derives from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || e.root() == t
}

// Position returns the 0-based source offset at which the error was detected,
// or -1 if the error is not tied to a position.
func (e *Error) Position() int { return e.pos }

// Message returns the human-readable description without the position suffix.
func (e *Error) Message() string {
	if e.detail != "" {
		return e.detail
	}

	return e.msg
}

// Attr returns the value of the named attribute, if present.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return slog.Value{}, false
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if msg := e.root().msg; msg != "" {
		attrs = append(attrs, slog.String("error", msg))
	}

	if e.detail != "" {
		attrs = append(attrs, slog.String("detail", e.detail))
	}

	if e.pos >= 0 {
		attrs = append(attrs, slog.Int("pos", e.pos))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.derive()
	c.err = err

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.derive()
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return c
}

// At returns a copy of the error positioned at the given source offset.
func (e *Error) At(pos int) *Error {
	c := e.derive()
	c.pos = pos

	return c
}

// Detail returns a copy of the error with a human-readable description.
func (e *Error) Detail(detail string) *Error {
	c := e.derive()
	c.detail = detail

	return c
}

func (e *Error) root() *Error {
	if e.kind != nil {
		return e.kind
	}

	return e
}

func (e *Error) derive() *Error {
	c := *e
	c.kind = e.root()

	return &c
}

// Error constructors used by the parser and resolver. Each carries the
// identifiers relevant to its kind as attributes.

func syntaxError(pos int, detail string) *Error {
	return ErrSyntax.Detail(detail).At(pos)
}

func unknownIdentifier(name string, pos int) *Error {
	return ErrUnknownIdentifier.
		Detail("Unknown identifier '"+name+"'").
		At(pos).
		With(slog.String("name", name))
}

func duplicateParameter(name string) *Error {
	return ErrDuplicateParameter.
		Detail("The parameter '" + name + "' was defined more than once").
		With(slog.String("name", name))
}

func noApplicableMethod(name, owner string, pos int) *Error {
	return ErrNoApplicableMethod.
		Detail("No applicable method '"+name+"' exists in type '"+owner+"'").
		At(pos).
		With(slog.String("name", name), slog.String("owner", owner))
}

func ambiguousInvocation(name, owner string, pos int) *Error {
	return ErrAmbiguousInvocation.
		Detail("Ambiguous invocation of method '"+name+"' in type '"+owner+"'").
		At(pos).
		With(slog.String("name", name), slog.String("owner", owner))
}

func conversionError(from, to string, pos int) *Error {
	return ErrTypeConversion.
		Detail("Expression of type '"+from+"' cannot be converted to type '"+to+"'").
		At(pos).
		With(slog.String("from", from), slog.String("to", to))
}

func incompatibleOperands(op, left, right string, pos int) *Error {
	return ErrTypeConversion.
		Detail("Operator '"+op+"' incompatible with operand types '"+left+"' and '"+right+"'").
		At(pos).
		With(
			slog.String("operator", op),
			slog.String("from", left),
			slog.String("to", right),
		)
}

func incompatibleOperand(op, operand string, pos int) *Error {
	return ErrTypeConversion.
		Detail("Operator '"+op+"' incompatible with operand type '"+operand+"'").
		At(pos).
		With(slog.String("operator", op), slog.String("from", operand))
}

func reflectionNotAllowed(pos int) *Error {
	return ErrReflectionNotAllowed.
		Detail("Reflection expression not allowed. To enable reflection use WithReflection(true)").
		At(pos)
}

// evalError builds an evaluation-time error, which has no source position.
func evalError(kind *Error, detail string, attrs ...slog.Attr) *Error {
	return kind.Detail(detail).With(attrs...)
}
