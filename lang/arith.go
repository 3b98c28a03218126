package lang

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// binaryOp applies op to operand values already converted to the operand
// types chosen by the resolver. typ is the result type of the node.
func binaryOp(op Op, l, r reflect.Value, typ reflect.Type) (reflect.Value, error) {
	switch op {
	case OpEq:
		return reflect.ValueOf(equalValues(l, r)), nil
	case OpNe:
		return reflect.ValueOf(!equalValues(l, r)), nil
	}

	if typ == typeString && op == OpAdd {
		return reflect.ValueOf(stringify(l) + stringify(r)), nil
	}

	l, r = unbox(l), unbox(r)

	// Lifted operators yield null (or false for comparisons) when either
	// operand is null.
	if !l.IsValid() || !r.IsValid() {
		return liftedNull(op, typ), nil
	}

	var lifted bool

	if _, ok := nullableElem(l.Type()); ok {
		if l.IsNil() {
			return liftedNull(op, typ), nil
		}

		l, lifted = l.Elem(), true
	}

	if _, ok := nullableElem(r.Type()); ok {
		if r.IsNil() {
			return liftedNull(op, typ), nil
		}

		r, lifted = r.Elem(), true
	}

	if op.relational() {
		return reflect.ValueOf(relate(op, l, r)), nil
	}

	rt := valueType(typ)

	v, err := arithmetic(op, l, r, rt)
	if err != nil {
		return reflect.Value{}, err
	}

	if lifted && rt != typ {
		ptr := reflect.New(rt)
		ptr.Elem().Set(v)

		return ptr, nil
	}

	return v, nil
}

func liftedNull(op Op, typ reflect.Type) reflect.Value {
	if op.relational() {
		return reflect.ValueOf(false)
	}

	return reflect.Zero(typ)
}

// arithmetic computes a non-comparison binary operator with a result of
// type rt.
func arithmetic(op Op, l, r reflect.Value, rt reflect.Type) (reflect.Value, error) {
	switch {
	case l.Type() == typeTime:
		t := l.Interface().(time.Time)

		if r.Type() == typeTime {
			return reflect.ValueOf(t.Sub(r.Interface().(time.Time))), nil
		}

		d := time.Duration(r.Int())
		if op == OpSub {
			d = -d
		}

		return reflect.ValueOf(t.Add(d)), nil
	case l.Type() == typeDecimal:
		return decimalOp(op, l.Interface().(decimal.Decimal), toDecimal(r))
	}

	out := reflect.New(rt).Elem()

	switch l.Kind() {
	case reflect.Bool:
		a, b := l.Bool(), r.Bool()

		switch op {
		case OpAnd:
			out.SetBool(a && b)
		case OpOr:
			out.SetBool(a || b)
		case OpXor:
			out.SetBool(a != b)
		default:
			return reflect.Value{}, unsupported(op, l.Type())
		}

		return out, nil
	case reflect.Float32, reflect.Float64:
		a, b := l.Float(), r.Float()

		var f float64

		switch op {
		case OpAdd:
			f = a + b
		case OpSub:
			f = a - b
		case OpMul:
			f = a * b
		case OpDiv:
			f = a / b
		case OpMod:
			f = math.Mod(a, b)
		default:
			return reflect.Value{}, unsupported(op, l.Type())
		}

		out.SetFloat(f)

		return out, nil
	}

	if isUintKind(l.Type()) {
		u, err := uintOp(op, l.Uint(), r, l.Type().Bits())
		if err != nil {
			return reflect.Value{}, err
		}

		if isUintKind(rt) {
			out.SetUint(u)
		} else {
			out.SetInt(int64(u))
		}

		return out, nil
	}

	if !isNumericKind(l.Type()) {
		return reflect.Value{}, unsupported(op, l.Type())
	}

	i, err := intOp(op, l.Int(), r, l.Type().Bits())
	if err != nil {
		return reflect.Value{}, err
	}

	out.SetInt(i)

	return out, nil
}

// intOp computes a signed integer operator at 64 bits; the caller's SetInt
// truncates to the operand width.
func intOp(op Op, a int64, rv reflect.Value, bits int) (int64, error) {
	if op == OpShl || op == OpShr {
		n := uint(rv.Int()) & shiftMask(bits)
		if op == OpShl {
			return a << n, nil
		}

		return a >> n, nil
	}

	b := rv.Int()

	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv, OpMod:
		if b == 0 {
			return 0, divideByZero()
		}

		if op == OpDiv {
			return a / b, nil
		}

		return a % b, nil
	case OpAnd:
		return a & b, nil
	case OpOr:
		return a | b, nil
	case OpXor:
		return a ^ b, nil
	}

	return 0, unsupported(op, rv.Type())
}

func uintOp(op Op, a uint64, rv reflect.Value, bits int) (uint64, error) {
	if op == OpShl || op == OpShr {
		n := uint(rv.Int()) & shiftMask(bits)
		if op == OpShl {
			return a << n, nil
		}

		return a >> n, nil
	}

	b := rv.Uint()

	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv, OpMod:
		if b == 0 {
			return 0, divideByZero()
		}

		if op == OpDiv {
			return a / b, nil
		}

		return a % b, nil
	case OpAnd:
		return a & b, nil
	case OpOr:
		return a | b, nil
	case OpXor:
		return a ^ b, nil
	}

	return 0, unsupported(op, rv.Type())
}

// shiftMask keeps the low five bits of a shift count for 32-bit operands
// and six for 64-bit operands.
func shiftMask(bits int) uint {
	if bits > 32 {
		return 63
	}

	return 31
}

// decimalPlaces is the scale of a decimal quotient.
const decimalPlaces = 28

func decimalOp(op Op, a, b decimal.Decimal) (reflect.Value, error) {
	switch op {
	case OpAdd:
		return reflect.ValueOf(a.Add(b)), nil
	case OpSub:
		return reflect.ValueOf(a.Sub(b)), nil
	case OpMul:
		return reflect.ValueOf(a.Mul(b)), nil
	case OpDiv, OpMod:
		if b.IsZero() {
			return reflect.Value{}, divideByZero()
		}

		if op == OpDiv {
			return reflect.ValueOf(a.DivRound(b, decimalPlaces)), nil
		}

		return reflect.ValueOf(a.Mod(b)), nil
	}

	return reflect.Value{}, unsupported(op, typeDecimal)
}

// relate evaluates a relational operator. Comparisons involving NaN are
// false.
func relate(op Op, l, r reflect.Value) bool {
	if isFloatKind(l.Type()) && isFloatKind(r.Type()) {
		a, b := l.Float(), r.Float()

		switch op {
		case OpLt:
			return a < b
		case OpGt:
			return a > b
		case OpLe:
			return a <= b
		case OpGe:
			return a >= b
		}

		return false
	}

	c, ok := compareValues(l, r)
	if !ok {
		return false
	}

	switch op {
	case OpLt:
		return c < 0
	case OpGt:
		return c > 0
	case OpLe:
		return c <= 0
	case OpGe:
		return c >= 0
	}

	return false
}

// compareValues orders two values of comparable kinds. Numeric values of
// different types compare by value.
func compareValues(l, r reflect.Value) (int, bool) {
	l, r = unbox(l), unbox(r)

	if !l.IsValid() || !r.IsValid() {
		switch {
		case !l.IsValid() && !r.IsValid():
			return 0, true
		case !l.IsValid():
			return -1, true
		}

		return 1, true
	}

	switch {
	case l.Type() == typeTime && r.Type() == typeTime:
		return l.Interface().(time.Time).Compare(r.Interface().(time.Time)), true
	case l.Type() == typeDecimal || r.Type() == typeDecimal:
		if isNumericType(l.Type()) && isNumericType(r.Type()) {
			return toDecimal(l).Cmp(toDecimal(r)), true
		}

		return 0, false
	case l.Kind() == reflect.String && r.Kind() == reflect.String:
		return strings.Compare(l.String(), r.String()), true
	case l.Kind() == reflect.Bool && r.Kind() == reflect.Bool:
		return cmp.Compare(b2i(l.Bool()), b2i(r.Bool())), true
	}

	if !isNumericKind(l.Type()) || !isNumericKind(r.Type()) {
		return 0, false
	}

	switch {
	case isFloatKind(l.Type()) || isFloatKind(r.Type()):
		return cmp.Compare(asFloat(l), asFloat(r)), true
	case isUintKind(l.Type()) && isUintKind(r.Type()):
		return cmp.Compare(l.Uint(), r.Uint()), true
	case !isUintKind(l.Type()) && !isUintKind(r.Type()):
		return cmp.Compare(l.Int(), r.Int()), true
	}

	return toDecimal(l).Cmp(toDecimal(r)), true
}

func b2i(b bool) int {
	if b {
		return 1
	}

	return 0
}

func asFloat(v reflect.Value) float64 {
	switch {
	case isFloatKind(v.Type()):
		return v.Float()
	case isUintKind(v.Type()):
		return float64(v.Uint())
	}

	return float64(v.Int())
}

// equalValues implements == for runtime values: null equals only null,
// nullable values compare by their contents, numbers by value, and
// reference kinds by identity.
func equalValues(l, r reflect.Value) bool {
	l, r = unbox(l), unbox(r)

	ln, rn := isNilValue(l), isNilValue(r)
	if ln || rn {
		return ln && rn
	}

	if _, ok := nullableElem(l.Type()); ok {
		l = l.Elem()
	}

	if _, ok := nullableElem(r.Type()); ok {
		r = r.Elem()
	}

	lt, rt := l.Type(), r.Type()

	switch {
	case lt == typeDecimal || rt == typeDecimal:
		if isNumericType(lt) && isNumericType(rt) {
			return toDecimal(l).Equal(toDecimal(r))
		}

		return false
	case lt == typeTime && rt == typeTime:
		return l.Interface().(time.Time).Equal(r.Interface().(time.Time))
	case lt != rt:
		if isNumericKind(lt) && isNumericKind(rt) {
			c, ok := compareValues(l, r)
			return ok && c == 0
		}

		return false
	case lt.Comparable():
		return l.Equal(r)
	}

	switch l.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return l.Pointer() == r.Pointer()
	}

	return false
}

// unaryOp applies a prefix operator.
func unaryOp(op Op, v reflect.Value, typ reflect.Type) (reflect.Value, error) {
	v = unbox(v)
	if !v.IsValid() {
		return reflect.Zero(typ), nil
	}

	var lifted bool

	if _, ok := nullableElem(v.Type()); ok {
		if v.IsNil() {
			return reflect.Zero(typ), nil
		}

		v, lifted = v.Elem(), true
	}

	rt := valueType(typ)
	out := reflect.New(rt).Elem()

	switch {
	case op == OpPlus:
		out.Set(v)
	case v.Type() == typeDecimal:
		if op != OpNeg {
			return reflect.Value{}, unsupported(op, typeDecimal)
		}

		out.Set(reflect.ValueOf(v.Interface().(decimal.Decimal).Neg()))
	case op == OpNot:
		out.SetBool(!v.Bool())
	case isFloatKind(v.Type()):
		if op != OpNeg {
			return reflect.Value{}, unsupported(op, v.Type())
		}

		out.SetFloat(-v.Float())
	case isUintKind(v.Type()):
		if op != OpComplement {
			return reflect.Value{}, unsupported(op, v.Type())
		}

		out.SetUint(^v.Uint())
	case isNumericKind(v.Type()):
		if op == OpNeg {
			out.SetInt(-v.Int())
		} else {
			out.SetInt(^v.Int())
		}
	default:
		return reflect.Value{}, unsupported(op, v.Type())
	}

	if lifted && rt != typ {
		ptr := reflect.New(rt)
		ptr.Elem().Set(out)

		return ptr, nil
	}

	return out, nil
}

// Stringify returns the string form of v used by ToString and string
// concatenation. Null is the empty string.
func Stringify(v any) string { return stringify(reflect.ValueOf(v)) }

// stringify converts a value to its string form for concatenation and
// ToString. Null is the empty string.
func stringify(v reflect.Value) string {
	v = unbox(v)
	if isNilValue(v) {
		return ""
	}

	if _, ok := nullableElem(v.Type()); ok {
		v = v.Elem()
	}

	switch v.Type() {
	case typeString:
		return v.String()
	case typeDecimal:
		return v.Interface().(decimal.Decimal).String()
	case typeTime:
		return v.Interface().(time.Time).Format(time.DateTime)
	}

	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case fmt.Stringer:
			return x.String()
		case error:
			return x.Error()
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.String:
		return v.String()
	}

	if v.CanInterface() {
		return fmt.Sprint(v.Interface())
	}

	return v.String()
}

func divideByZero() *Error {
	return evalError(ErrDivideByZero, "Attempted to divide by zero")
}

func unsupported(op Op, t reflect.Type) *Error {
	return evalError(ErrInvalidOperation,
		"Operator '"+op.String()+"' cannot be applied to a value of type '"+TypeName(t)+"'")
}
