package lang

import (
	"math"
	"reflect"

	"github.com/shopspring/decimal"
)

// implicitNumeric lists, for each numeric type, the numeric types it widens
// to without an explicit cast.
var implicitNumeric = map[numeric][]numeric{
	numSByte:   {numInt16, numInt32, numInt64, numInt, numFloat32, numFloat64, numDecimal},
	numByte:    {numInt16, numUint16, numInt32, numUint32, numInt64, numUint64, numInt, numUint, numFloat32, numFloat64, numDecimal},
	numInt16:   {numInt32, numInt64, numInt, numFloat32, numFloat64, numDecimal},
	numUint16:  {numInt32, numUint32, numInt64, numUint64, numInt, numUint, numFloat32, numFloat64, numDecimal},
	numInt32:   {numInt64, numInt, numFloat32, numFloat64, numDecimal},
	numUint32:  {numInt64, numUint64, numUint, numFloat32, numFloat64, numDecimal},
	numInt64:   {numFloat32, numFloat64, numDecimal},
	numUint64:  {numFloat32, numFloat64, numDecimal},
	numChar:    {numUint16, numInt32, numUint32, numInt64, numUint64, numInt, numUint, numFloat32, numFloat64, numDecimal},
	numFloat32: {numFloat64},
	numInt:     {numInt64, numFloat32, numFloat64, numDecimal},
	numUint:    {numUint64, numFloat32, numFloat64, numDecimal},
}

func widens(from, to numeric) bool {
	for _, n := range implicitNumeric[from] {
		if n == to {
			return true
		}
	}

	return false
}

// implicitType reports whether a value of type from converts to type to
// without an explicit cast.
func implicitType(from, to reflect.Type) bool {
	if from == to {
		return true
	}

	if from == typeNull {
		return isNilable(to)
	}

	if from == typeVoid || to == typeVoid || to == typeNull {
		return false
	}

	if from == typeDynamic {
		return true
	}

	if fn, tn := numericKind(from), numericKind(to); fn != numNone && tn != numNone {
		return widens(fn, tn)
	}

	fe, fok := nullableElem(from)
	if te, tok := nullableElem(to); tok {
		if fok {
			return implicitType(fe, te)
		}

		return implicitType(from, te)
	}

	if to.Kind() == reflect.Interface {
		return from.Implements(to)
	}

	if from.AssignableTo(to) {
		return true
	}

	if _, ok := basePath(from, to); ok {
		return true
	}

	if te, ok := seqElem(to); ok {
		if fe, ok := enumElem(from); ok && fe == te && from.Kind() != reflect.String {
			return true
		}
	}

	return false
}

// explicitType reports whether a cast from from to to is allowed.
func explicitType(from, to reflect.Type) bool {
	if implicitType(from, to) {
		return true
	}

	if from == typeNull || to == typeVoid {
		return false
	}

	fv, tv := valueType(from), valueType(to)

	if isNumericType(fv) && isNumericType(tv) {
		return true
	}

	if fv.Kind() == reflect.Interface || tv.Kind() == reflect.Interface {
		return true
	}

	if fv.ConvertibleTo(tv) && !(tv.Kind() == reflect.String && isNumericKind(fv)) {
		return true
	}

	return false
}

// isNumericType reports whether t is a numeric type, including named host
// types with a numeric kind.
func isNumericType(t reflect.Type) bool {
	return numericKind(t) != numNone || isNumericKind(t)
}

// needsConversion reports whether a value of from must be transformed to be
// stored in a location of type to.
func needsConversion(from, to reflect.Type) bool {
	return !from.AssignableTo(to)
}

// promote converts n to type to if an implicit conversion exists. With exact
// set, the result always has static type to; otherwise an expression that
// is already assignable to to is returned unchanged.
func (p *parser) promote(n Node, to reflect.Type, exact bool) (Node, bool) {
	from := n.Type()
	if from == to {
		return n, true
	}

	if c, ok := n.(*Constant); ok {
		if from == typeNull {
			if !isNilable(to) {
				return nil, false
			}

			return &Constant{Value: reflect.Zero(to), pos: c.pos, text: c.text}, true
		}

		if c.literal {
			if v, ok := fitLiteral(c.Value, to); ok {
				return &Constant{Value: v, pos: c.pos, text: c.text}, true
			}
		}
	}

	if !implicitType(from, to) {
		return nil, false
	}

	if !exact && !needsConversion(from, to) {
		return n, true
	}

	return p.convert(n, to, false), true
}

// convert wraps n in a conversion node, folding constants.
func (p *parser) convert(n Node, to reflect.Type, explicit bool) Node {
	if c, ok := n.(*Constant); ok && c.Type() != typeNull {
		if v, err := convertValue(c.Value, to, explicit); err == nil {
			return &Constant{Value: v, pos: c.pos, text: c.text}
		}
	}

	return &Convert{Operand: n, To: to, Explicit: explicit, pos: n.Pos()}
}

// fitLiteral converts an integer literal constant to integral type to (or
// its nullable form) when the value lies in range.
func fitLiteral(v reflect.Value, to reflect.Type) (reflect.Value, bool) {
	if !isIntegral(v.Type()) {
		return reflect.Value{}, false
	}

	target := to
	if e, ok := nullableElem(to); ok {
		target = e
	}

	if !isIntegral(target) {
		return reflect.Value{}, false
	}

	r, err := convertInteger(v, target, true)
	if err != nil {
		return reflect.Value{}, false
	}

	if target != to {
		ptr := reflect.New(target)
		ptr.Elem().Set(r)

		return ptr, true
	}

	return r, true
}

// convertValue converts a runtime value to type to. Narrowing numeric
// conversions are range checked when checked is set.
func convertValue(v reflect.Value, to reflect.Type, checked bool) (reflect.Value, error) {
	from := v.Type()
	if from == to {
		return v, nil
	}

	if from == typeNull {
		if isNilable(to) {
			return reflect.Zero(to), nil
		}

		return reflect.Value{}, castError(from, to)
	}

	if from.Kind() == reflect.Interface {
		if v.IsNil() {
			if isNilable(to) {
				return reflect.Zero(to), nil
			}

			return reflect.Value{}, evalError(ErrNullReference,
				"Cannot convert null to '"+TypeName(to)+"'")
		}

		v = v.Elem()
		if from = v.Type(); from == to {
			return v, nil
		}
	}

	if to.Kind() == reflect.Interface {
		if !from.Implements(to) {
			return reflect.Value{}, castError(from, to)
		}

		r := reflect.New(to).Elem()
		r.Set(v)

		return r, nil
	}

	if path, ok := basePath(from, to); ok {
		return upcast(v, path, to), nil
	}

	if te, ok := nullableElem(to); ok {
		if _, ok := nullableElem(from); ok {
			if v.IsNil() {
				return reflect.Zero(to), nil
			}

			v = v.Elem()
		}

		inner, err := convertValue(v, te, checked)
		if err != nil {
			return reflect.Value{}, err
		}

		ptr := reflect.New(te)
		ptr.Elem().Set(inner)

		return ptr, nil
	}

	if _, ok := nullableElem(from); ok {
		if v.IsNil() {
			return reflect.Value{}, evalError(ErrInvalidCast,
				"Nullable object must have a value")
		}

		return convertValue(v.Elem(), to, checked)
	}

	if isNumericType(from) && isNumericType(to) {
		return convertNumeric(v, to, checked)
	}

	if te, ok := seqElem(to); ok {
		if fe, ok := enumElem(from); ok && fe == te {
			if from.ConvertibleTo(to) {
				return v.Convert(to), nil
			}

			return makeSeq(v, to), nil
		}
	}

	if from.AssignableTo(to) {
		r := reflect.New(to).Elem()
		r.Set(v)

		return r, nil
	}

	if from.ConvertibleTo(to) && !(to.Kind() == reflect.String && isNumericKind(from)) {
		return v.Convert(to), nil
	}

	return reflect.Value{}, castError(from, to)
}

func castError(from, to reflect.Type) *Error {
	return evalError(ErrInvalidCast,
		"Unable to cast object of type '"+TypeName(from)+"' to type '"+TypeName(to)+"'")
}

// upcast follows the embedded-field path from a derived value to its base.
func upcast(v reflect.Value, path []int, to reflect.Type) reflect.Value {
	cur := v

	for _, i := range path {
		if cur.Kind() == reflect.Pointer {
			if cur.IsNil() {
				return reflect.Zero(to)
			}

			cur = cur.Elem()
		}

		cur = cur.Field(i)
	}

	if cur.Type() == to {
		return cur
	}

	if to.Kind() == reflect.Pointer && cur.CanAddr() {
		return cur.Addr()
	}

	ptr := reflect.New(cur.Type())
	ptr.Elem().Set(cur)

	return ptr
}

// makeSeq adapts an enumerable value to a seq-shaped func type.
func makeSeq(src reflect.Value, seq reflect.Type) reflect.Value {
	return reflect.MakeFunc(seq, func(args []reflect.Value) []reflect.Value {
		yield := args[0]

		each(src, func(e reflect.Value) bool {
			return yield.Call([]reflect.Value{e})[0].Bool()
		})

		return nil
	})
}

// each calls fn for every element of an enumerable value until fn returns
// false. Strings enumerate their characters; maps their values.
func each(v reflect.Value, fn func(reflect.Value) bool) {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			if !fn(v.Index(i)) {
				return
			}
		}
	case reflect.String:
		for _, r := range v.String() {
			if !fn(reflect.ValueOf(Char(r))) {
				return
			}
		}
	case reflect.Map:
		it := v.MapRange()
		for it.Next() {
			if !fn(it.Value()) {
				return
			}
		}
	case reflect.Func:
		if v.IsNil() {
			return
		}

		e, _ := seqElem(v.Type())
		yt := reflect.FuncOf([]reflect.Type{e}, []reflect.Type{typeBool}, false)
		yield := reflect.MakeFunc(yt, func(args []reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.ValueOf(fn(args[0]))}
		})
		v.Call([]reflect.Value{yield})
	case reflect.Interface, reflect.Pointer:
		if !v.IsNil() {
			each(v.Elem(), fn)
		}
	}
}

// convertNumeric converts between numeric types, including decimal and named
// numeric kinds.
func convertNumeric(v reflect.Value, to reflect.Type, checked bool) (reflect.Value, error) {
	from := v.Type()

	if to == typeDecimal {
		return reflect.ValueOf(toDecimal(v)), nil
	}

	if from == typeDecimal {
		return fromDecimal(v.Interface().(decimal.Decimal), to)
	}

	switch to.Kind() {
	case reflect.Float32, reflect.Float64:
		r := reflect.New(to).Elem()

		switch {
		case isFloatKind(from):
			r.SetFloat(v.Float())
		case isUintKind(from):
			r.SetFloat(float64(v.Uint()))
		default:
			r.SetFloat(float64(v.Int()))
		}

		return r, nil
	}

	if isFloatKind(from) {
		return floatToInteger(v.Float(), to)
	}

	return convertInteger(v, to, checked)
}

// convertInteger converts between integer kinds. Out-of-range values wrap
// unless checked is set.
func convertInteger(v reflect.Value, to reflect.Type, checked bool) (reflect.Value, error) {
	r := reflect.New(to).Elem()

	if isUintKind(v.Type()) {
		u := v.Uint()

		if checked && !uintFits(u, to) {
			return reflect.Value{}, overflowError(to)
		}

		if isUintKind(to) {
			r.SetUint(u)
		} else {
			r.SetInt(int64(u))
		}

		return r, nil
	}

	i := v.Int()

	if checked && !intFits(i, to) {
		return reflect.Value{}, overflowError(to)
	}

	if isUintKind(to) {
		r.SetUint(uint64(i))
	} else {
		r.SetInt(i)
	}

	return r, nil
}

func floatToInteger(f float64, to reflect.Type) (reflect.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return reflect.Value{}, overflowError(to)
	}

	t := math.Trunc(f)
	r := reflect.New(to).Elem()

	if isUintKind(to) {
		if t < 0 || t >= math.Ldexp(1, to.Bits()) {
			return reflect.Value{}, overflowError(to)
		}

		r.SetUint(uint64(t))

		return r, nil
	}

	limit := math.Ldexp(1, to.Bits()-1)
	if t < -limit || t >= limit {
		return reflect.Value{}, overflowError(to)
	}

	r.SetInt(int64(t))

	return r, nil
}

func toDecimal(v reflect.Value) decimal.Decimal {
	switch {
	case v.Type() == typeDecimal:
		return v.Interface().(decimal.Decimal)
	case v.Kind() == reflect.Float32:
		return decimal.NewFromFloat32(float32(v.Float()))
	case isFloatKind(v.Type()):
		return decimal.NewFromFloat(v.Float())
	case isUintKind(v.Type()):
		return decimal.NewFromUint64(v.Uint())
	}

	return decimal.NewFromInt(v.Int())
}

func fromDecimal(d decimal.Decimal, to reflect.Type) (reflect.Value, error) {
	r := reflect.New(to).Elem()

	switch {
	case to == typeDecimal:
		r.Set(reflect.ValueOf(d))

		return r, nil
	case isFloatKind(to):
		r.SetFloat(d.InexactFloat64())

		return r, nil
	case isUintKind(to):
		b := d.Truncate(0).BigInt()
		if b.Sign() < 0 || !b.IsUint64() || !uintFits(b.Uint64(), to) {
			return reflect.Value{}, overflowError(to)
		}

		r.SetUint(b.Uint64())

		return r, nil
	}

	b := d.Truncate(0).BigInt()
	if !b.IsInt64() || !intFits(b.Int64(), to) {
		return reflect.Value{}, overflowError(to)
	}

	r.SetInt(b.Int64())

	return r, nil
}

func intFits(i int64, to reflect.Type) bool {
	bits := to.Bits()

	if isUintKind(to) {
		if i < 0 {
			return false
		}

		return bits == 64 || uint64(i) <= 1<<bits-1
	}

	if bits == 64 {
		return true
	}

	return i >= -1<<(bits-1) && i <= 1<<(bits-1)-1
}

func uintFits(u uint64, to reflect.Type) bool {
	bits := to.Bits()

	if isUintKind(to) {
		return bits == 64 || u <= 1<<bits-1
	}

	return u <= 1<<(bits-1)-1
}

func overflowError(to reflect.Type) *Error {
	return evalError(ErrOverflow,
		"Value was either too large or too small for type '"+TypeName(to)+"'")
}

func isFloatKind(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

func isUintKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return true
	}

	return false
}
