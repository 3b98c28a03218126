package lang

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Char is the engine representation of a character value.
type Char rune

// String returns the character as a one-rune string.
func (c Char) String() string { return string(rune(c)) }

// Dynamic tags a value whose members and operators are resolved against its
// runtime type at evaluation time.
type Dynamic any

// Placeholder types used in generic method signatures, e.g.
// func([]T, func(T) bool) []T. They have no values of their own.
type (
	T struct{ typeParam }
	U struct{ typeParam }
	V struct{ typeParam }
	W struct{ typeParam }
)

type typeParam struct{}

// void is the result type of members that return nothing.
type void struct{}

// null is the static type of the null literal.
type null struct{}

var (
	typeBool     = reflect.TypeFor[bool]()
	typeChar     = reflect.TypeFor[Char]()
	typeInt8     = reflect.TypeFor[int8]()
	typeUint8    = reflect.TypeFor[uint8]()
	typeInt16    = reflect.TypeFor[int16]()
	typeUint16   = reflect.TypeFor[uint16]()
	typeInt32    = reflect.TypeFor[int32]()
	typeUint32   = reflect.TypeFor[uint32]()
	typeInt64    = reflect.TypeFor[int64]()
	typeUint64   = reflect.TypeFor[uint64]()
	typeInt      = reflect.TypeFor[int]()
	typeUint     = reflect.TypeFor[uint]()
	typeFloat32  = reflect.TypeFor[float32]()
	typeFloat64  = reflect.TypeFor[float64]()
	typeDecimal  = reflect.TypeFor[decimal.Decimal]()
	typeString   = reflect.TypeFor[string]()
	typeObject   = reflect.TypeFor[any]()
	typeDynamic  = reflect.TypeFor[Dynamic]()
	typeTime     = reflect.TypeFor[time.Time]()
	typeDuration = reflect.TypeFor[time.Duration]()
	typeError    = reflect.TypeFor[error]()
	typeType     = reflect.TypeFor[reflect.Type]()
	typeValue    = reflect.TypeFor[reflect.Value]()
	typeVoid     = reflect.TypeFor[void]()
	typeNull     = reflect.TypeFor[null]()

	typeT = reflect.TypeFor[T]()
	typeU = reflect.TypeFor[U]()
	typeV = reflect.TypeFor[V]()
	typeW = reflect.TypeFor[W]()
)

// aliases maps keyword type names to their host types.
var aliases = []struct {
	name string
	typ  reflect.Type
}{
	{"bool", typeBool},
	{"char", typeChar},
	{"sbyte", typeInt8},
	{"byte", typeUint8},
	{"short", typeInt16},
	{"ushort", typeUint16},
	{"int", typeInt32},
	{"uint", typeUint32},
	{"long", typeInt64},
	{"ulong", typeUint64},
	{"nint", typeInt},
	{"nuint", typeUint},
	{"float", typeFloat32},
	{"double", typeFloat64},
	{"decimal", typeDecimal},
	{"string", typeString},
	{"object", typeObject},
	{"dynamic", typeDynamic},
}

var aliasNames = func() map[reflect.Type]string {
	m := make(map[reflect.Type]string, len(aliases)+2)
	for _, a := range aliases {
		m[a.typ] = a.name
	}

	m[typeTime] = "DateTime"
	m[typeDuration] = "TimeSpan"
	m[typeMath] = "Math"
	m[typeConvert] = "Convert"
	m[typeNull] = "null"
	m[typeVoid] = "void"
	m[typeT] = "T"
	m[typeU] = "U"
	m[typeV] = "V"
	m[typeW] = "W"

	return m
}()

// TypeName returns the display name of t used in messages and formatted
// output: keyword aliases for primitives, "T?" for nullable values, "T[]" for
// slices.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "null"
	}

	if name, ok := aliasNames[t]; ok {
		return name
	}

	switch t.Kind() {
	case reflect.Pointer:
		if !isNilable(t.Elem()) {
			return TypeName(t.Elem()) + "?"
		}
	case reflect.Slice:
		if t.Name() == "" {
			return TypeName(t.Elem()) + "[]"
		}
	case reflect.Array:
		if t.Name() == "" {
			return TypeName(t.Elem()) + "[" + strconv.Itoa(t.Len()) + "]"
		}
	case reflect.Map:
		if t.Name() == "" {
			return "Dictionary<" + TypeName(t.Key()) + ", " + TypeName(t.Elem()) + ">"
		}
	case reflect.Func:
		if t.Name() == "" {
			return funcTypeName(t)
		}
	}

	return t.String()
}

func funcTypeName(t reflect.Type) string {
	var sb strings.Builder

	args := make([]string, 0, t.NumIn()+1)
	for i := range t.NumIn() {
		args = append(args, TypeName(t.In(i)))
	}

	switch t.NumOut() {
	case 0:
		sb.WriteString("Action")
	default:
		sb.WriteString("Func")

		args = append(args, TypeName(t.Out(0)))
	}

	if len(args) > 0 {
		sb.WriteString("<" + strings.Join(args, ", ") + ">")
	}

	return sb.String()
}

// isNilable reports whether values of t can be nil.
func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}

	return false
}

// nullableOf returns the nullable form of t: t itself when it is already
// nilable, otherwise *t.
func nullableOf(t reflect.Type) reflect.Type {
	if t == typeNull || isNilable(t) {
		return t
	}

	return reflect.PointerTo(t)
}

// nullableElem returns the value type wrapped by a nullable pointer type.
func nullableElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Pointer && !isNilable(t.Elem()) {
		return t.Elem(), true
	}

	return nil, false
}

// valueType returns the non-nullable form of t.
func valueType(t reflect.Type) reflect.Type {
	if e, ok := nullableElem(t); ok {
		return e
	}

	return t
}

// isDynamicType reports whether member access on t is deferred to
// evaluation time.
func isDynamicType(t reflect.Type, lateBinding bool) bool {
	return t == typeDynamic || (lateBinding && t == typeObject)
}

// isTypeParam reports whether t is one of the generic placeholders.
func isTypeParam(t reflect.Type) bool {
	return t == typeT || t == typeU || t == typeV || t == typeW
}

// containsTypeParam reports whether t mentions a generic placeholder
// anywhere in its structure.
func containsTypeParam(t reflect.Type) bool {
	return walkTypeParams(t, map[reflect.Type]bool{})
}

func walkTypeParams(t reflect.Type, seen map[reflect.Type]bool) bool {
	if t == nil {
		return false
	}

	if isTypeParam(t) {
		return true
	}

	if seen[t] {
		return false
	}

	seen[t] = true

	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan:
		return walkTypeParams(t.Elem(), seen)
	case reflect.Map:
		return walkTypeParams(t.Key(), seen) || walkTypeParams(t.Elem(), seen)
	case reflect.Func:
		for i := range t.NumIn() {
			if walkTypeParams(t.In(i), seen) {
				return true
			}
		}

		for i := range t.NumOut() {
			if walkTypeParams(t.Out(i), seen) {
				return true
			}
		}
	}

	return false
}

// numeric classifies the built-in numeric types. Zero means non-numeric.
type numeric int

const (
	numNone numeric = iota
	numChar
	numSByte
	numByte
	numInt16
	numUint16
	numInt32
	numUint32
	numInt
	numUint
	numInt64
	numUint64
	numFloat32
	numFloat64
	numDecimal
)

var numericOf = map[reflect.Type]numeric{
	typeChar:    numChar,
	typeInt8:    numSByte,
	typeUint8:   numByte,
	typeInt16:   numInt16,
	typeUint16:  numUint16,
	typeInt32:   numInt32,
	typeUint32:  numUint32,
	typeInt:     numInt,
	typeUint:    numUint,
	typeInt64:   numInt64,
	typeUint64:  numUint64,
	typeFloat32: numFloat32,
	typeFloat64: numFloat64,
	typeDecimal: numDecimal,
}

func numericKind(t reflect.Type) numeric { return numericOf[t] }

func isIntegral(t reflect.Type) bool {
	n := numericKind(t)
	return n > numChar && n <= numUint64
}

func isSigned(t reflect.Type) bool {
	switch numericKind(t) {
	case numSByte, numInt16, numInt32, numInt, numInt64,
		numFloat32, numFloat64, numDecimal:
		return true
	}

	return false
}

func isUnsigned(t reflect.Type) bool {
	switch numericKind(t) {
	case numByte, numUint16, numUint32, numUint, numUint64, numChar:
		return true
	}

	return false
}

// isNumericKind reports whether t has an integer or floating kind, which
// includes named host types such as time.Duration.
func isNumericKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr, reflect.Float32, reflect.Float64:
		return true
	}

	return false
}

// enumElem returns the element type of t when t can be enumerated: slices,
// arrays, strings (of Char), and seq-shaped funcs func(func(E) bool).
func enumElem(t reflect.Type) (reflect.Type, bool) {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem(), true
	case reflect.String:
		return typeChar, true
	case reflect.Func:
		return seqElem(t)
	}

	return nil, false
}

// seqElem returns E when t has the shape func(yield func(E) bool).
func seqElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 {
		return nil, false
	}

	y := t.In(0)
	if y.Kind() != reflect.Func || y.NumIn() != 1 || y.NumOut() != 1 ||
		y.Out(0) != typeBool {
		return nil, false
	}

	return y.In(0), true
}

// seqOf returns the seq type func(func(e) bool).
func seqOf(e reflect.Type) reflect.Type {
	yield := reflect.FuncOf([]reflect.Type{e}, []reflect.Type{typeBool}, false)
	return reflect.FuncOf([]reflect.Type{yield}, nil, false)
}

// embeddedBases returns the anonymous struct fields of t (or of the struct t
// points to), in declaration order, which act as its base types.
func embeddedBases(t reflect.Type) []reflect.StructField {
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	if st.Kind() != reflect.Struct {
		return nil
	}

	var bases []reflect.StructField

	for i := range st.NumField() {
		if f := st.Field(i); f.Anonymous && f.IsExported() {
			bases = append(bases, f)
		}
	}

	return bases
}

// basePath finds the embedded-field index path from from to to, where both
// are struct types or pointers to struct types.
func basePath(from, to reflect.Type) ([]int, bool) {
	return findBase(from, to, 0)
}

func findBase(from, to reflect.Type, depth int) ([]int, bool) {
	const maxDepth = 8
	if depth > maxDepth {
		return nil, false
	}

	for _, f := range embeddedBases(from) {
		ft := f.Type
		if matchesBase(ft, to, from) {
			return []int{f.Index[0]}, true
		}

		if rest, ok := findBase(ft, to, depth+1); ok {
			return append([]int{f.Index[0]}, rest...), true
		}
	}

	return nil, false
}

// matchesBase reports whether embedded type ft satisfies target to given the
// pointer-ness of the derived type.
func matchesBase(ft, to, from reflect.Type) bool {
	if ft == to {
		return true
	}

	// *Derived embedding Base converts to *Base through the field address.
	if from.Kind() == reflect.Pointer && to.Kind() == reflect.Pointer &&
		ft == to.Elem() {
		return true
	}

	return false
}
