package lang

import (
	"log/slog"
	"reflect"
)

// Operator signature tables. Each entry is a Method whose parameters are
// the operand types it accepts; resolution uses the same applicability and
// betterness rules as method calls.
var (
	arithmeticTypes = []reflect.Type{
		typeInt32, typeUint32, typeInt, typeUint, typeInt64, typeUint64,
		typeFloat32, typeFloat64, typeDecimal,
	}
	relationalTypes = append(slicesOf(arithmeticTypes),
		typeString, typeChar, typeTime, typeDuration)
	equalityTypes = append(slicesOf(relationalTypes), typeBool)
	integralTypes = []reflect.Type{typeInt32, typeUint32, typeInt, typeUint, typeInt64, typeUint64}

	arithmeticSigs = binarySigs(arithmeticTypes, true, false)
	relationalSigs = binarySigs(relationalTypes, true, true)
	equalitySigs   = binarySigs(equalityTypes, true, true)
	bitwiseSigs    = binarySigs(append([]reflect.Type{typeBool}, integralTypes...), true, false)
	logicalSigs    = binarySigs([]reflect.Type{typeBool}, false, false)

	addSigs = append(slicesOf(arithmeticSigs),
		opSig(typeTime, typeTime, typeDuration),
		opSig(typeDuration, typeDuration, typeDuration),
		opSig(nullableOf(typeTime), nullableOf(typeTime), nullableOf(typeDuration)),
		opSig(nullableOf(typeDuration), nullableOf(typeDuration), nullableOf(typeDuration)),
	)
	subtractSigs = append(slicesOf(arithmeticSigs),
		opSig(typeTime, typeTime, typeDuration),
		opSig(typeDuration, typeTime, typeTime),
		opSig(typeDuration, typeDuration, typeDuration),
		opSig(nullableOf(typeTime), nullableOf(typeTime), nullableOf(typeDuration)),
		opSig(nullableOf(typeDuration), nullableOf(typeTime), nullableOf(typeTime)),
		opSig(nullableOf(typeDuration), nullableOf(typeDuration), nullableOf(typeDuration)),
	)
	shiftSigs = func() []*Method {
		var out []*Method
		for _, t := range []reflect.Type{typeInt32, typeUint32, typeInt, typeUint, typeInt64, typeUint64} {
			out = append(out, opSig(t, t, typeInt32), opSig(nullableOf(t), nullableOf(t), nullableOf(typeInt32)))
		}

		return out
	}()

	negateSigs     = unarySigs(typeInt32, typeInt, typeInt64, typeFloat32, typeFloat64, typeDecimal, typeDuration)
	plusSigs       = unarySigs(arithmeticTypes...)
	notSigs        = unarySigs(typeBool)
	complementSigs = unarySigs(integralTypes...)
)

func slicesOf[E any](s []E) []E { return append([]E(nil), s...) }

// opSig builds a signature with result type r over the given operand
// types.
func opSig(r reflect.Type, operands ...reflect.Type) *Method {
	params := make([]Param, len(operands))
	for i, t := range operands {
		params[i] = Param{Type: t}
	}

	return &Method{Name: "op", Params: params, Result: r, Static: true}
}

// binarySigs builds one (T, T) signature per type, with its nullable form
// when lifted is set. Comparison signatures produce bool.
func binarySigs(types []reflect.Type, lifted, comparison bool) []*Method {
	var out []*Method

	for _, t := range types {
		r := t
		if comparison {
			r = typeBool
		}

		out = append(out, opSig(r, t, t))

		if lifted {
			n := nullableOf(t)
			if !comparison {
				r = n
			}

			out = append(out, opSig(r, n, n))
		}
	}

	return out
}

func unarySigs(types ...reflect.Type) []*Method {
	var out []*Method

	for _, t := range types {
		out = append(out, opSig(t, t), opSig(nullableOf(t), nullableOf(t)))
	}

	return out
}

func binarySignatures(op Op) []*Method {
	switch op {
	case OpAdd:
		return addSigs
	case OpSub:
		return subtractSigs
	case OpMul, OpDiv, OpMod:
		return arithmeticSigs
	case OpAnd, OpOr, OpXor:
		return bitwiseSigs
	case OpShl, OpShr:
		return shiftSigs
	case OpAndAlso, OpOrElse:
		return logicalSigs
	case OpEq, OpNe:
		return equalitySigs
	}

	return relationalSigs
}

func unarySignatures(op Op) []*Method {
	switch op {
	case OpNeg:
		return negateSigs
	case OpPlus:
		return plusSigs
	case OpNot:
		return notSigs
	}

	return complementSigs
}

// binary resolves a binary operator: string concatenation, the built-in
// signature tables, user-defined operator methods on either operand type,
// and finally native operations on identical primitive operand types.
func (p *parser) binary(op Op, left, right Node, pos int) (Node, error) {
	left, err := p.value(left)
	if err != nil {
		return nil, err
	}

	if right, err = p.value(right); err != nil {
		return nil, err
	}

	lt, rt := left.Type(), right.Type()

	// Conditional operators convert both operands to bool up front so that
	// evaluation can short-circuit, dynamic operands included.
	if op == OpAndAlso || op == OpOrElse {
		l, lok := p.promote(left, typeBool, true)
		r, rok := p.promote(right, typeBool, true)

		if lok && rok {
			return &Binary{Op: op, Left: l, Right: r, typ: typeBool, pos: pos}, nil
		}
	}

	if isDynamicType(lt, p.set.lateBinding) || isDynamicType(rt, p.set.lateBinding) {
		d := p.dynamic(DynamicBinary, "", []Node{left, right}, pos)
		d.Op = op

		return d, nil
	}

	if (op == OpEq || op == OpNe) && isNull(left) && isNull(right) {
		return &Binary{Op: op, Left: left, Right: right, typ: typeBool, pos: pos}, nil
	}

	if op == OpAdd && (lt == typeString || rt == typeString) {
		return &Binary{Op: op, Left: left, Right: right, typ: typeString, pos: pos}, nil
	}

	cands, _ := p.resolve(binarySignatures(op), []Node{left, right})

	switch len(cands) {
	case 1:
		c := cands[0]

		return &Binary{Op: op, Left: c.args[0], Right: c.args[1], typ: c.result, pos: pos}, nil
	case 0:
	default:
		return nil, incompatibleOperands(op.String(), TypeName(lt), TypeName(rt), pos)
	}

	if n, ok, err := p.userOperator(op, []Node{left, right}, pos); err != nil || ok {
		return n, err
	}

	if op == OpEq || op == OpNe {
		if n, ok := p.equality(op, left, right, pos); ok {
			return n, nil
		}
	}

	if lt == rt && nativeOperand(lt, op) {
		typ := lt
		if op.relational() {
			typ = typeBool
		}

		return &Binary{Op: op, Left: left, Right: right, typ: typ, pos: pos}, nil
	}

	return nil, incompatibleOperands(op.String(), TypeName(lt), TypeName(rt), pos)
}

// equality handles comparisons outside the signature tables: null against
// any nilable type, values of one comparable type, and operands where one
// side converts to the other.
func (p *parser) equality(op Op, left, right Node, pos int) (Node, bool) {
	lt, rt := left.Type(), right.Type()

	switch {
	case isNull(left) && isNull(right):
		return &Binary{Op: op, Left: left, Right: right, typ: typeBool, pos: pos}, true
	case isNull(left):
		if l, ok := p.promote(left, rt, true); ok {
			return &Binary{Op: op, Left: l, Right: right, typ: typeBool, pos: pos}, true
		}

		return nil, false
	case isNull(right):
		if r, ok := p.promote(right, lt, true); ok {
			return &Binary{Op: op, Left: left, Right: r, typ: typeBool, pos: pos}, true
		}

		return nil, false
	case lt == rt:
		if lt.Comparable() || isNilable(lt) {
			return &Binary{Op: op, Left: left, Right: right, typ: typeBool, pos: pos}, true
		}

		return nil, false
	}

	if r, ok := p.promote(right, lt, true); ok {
		return &Binary{Op: op, Left: left, Right: r, typ: typeBool, pos: pos}, true
	}

	if l, ok := p.promote(left, rt, true); ok {
		return &Binary{Op: op, Left: l, Right: right, typ: typeBool, pos: pos}, true
	}

	return nil, false
}

// nativeOperand reports whether values of t support op directly.
func nativeOperand(t reflect.Type, op Op) bool {
	switch {
	case op == OpAndAlso || op == OpOrElse:
		return t.Kind() == reflect.Bool
	case op == OpEq || op == OpNe:
		return t.Comparable()
	case op.relational():
		return isNumericKind(t) || t.Kind() == reflect.String
	case op == OpAnd || op == OpOr || op == OpXor:
		return t.Kind() == reflect.Bool || (isNumericKind(t) && !isFloatKind(t))
	case op == OpShl || op == OpShr:
		return isNumericKind(t) && !isFloatKind(t)
	case op == OpAdd:
		return isNumericKind(t) || t.Kind() == reflect.String
	}

	return isNumericKind(t)
}

// userOperator resolves an operator method declared on an operand type.
func (p *parser) userOperator(op Op, operands []Node, pos int) (Node, bool, error) {
	name := op.methodName()

	var (
		found *candidate
		owner reflect.Type
	)

	seen := map[reflect.Type]bool{}

	for _, n := range operands {
		t := n.Type()
		if seen[t] || t == typeNull {
			continue
		}

		seen[t] = true

		methods := p.findMethods(t, name, true)
		if len(methods) == 0 {
			continue
		}

		cands, err := p.resolve(methods, operands)

		switch {
		case err != nil && len(cands) == 0:
			return nil, false, err
		case len(cands) > 1:
			return nil, false, ambiguousInvocation(name, TypeName(t), pos)
		case len(cands) == 1:
			if found != nil && found.method != cands[0].method {
				return nil, false, ambiguousInvocation(name, TypeName(t), pos)
			}

			found, owner = cands[0], t
		}
	}

	if found == nil {
		return nil, false, nil
	}

	p.trace("operator resolved",
		slog.String("operator", op.String()),
		slog.String("owner", TypeName(owner)),
	)

	return newCall(nil, found, pos), true, nil
}

// unary resolves a prefix operator.
func (p *parser) unary(op Op, operand Node, pos int) (Node, error) {
	operand, err := p.value(operand)
	if err != nil {
		return nil, err
	}

	t := operand.Type()

	if isDynamicType(t, p.set.lateBinding) {
		d := p.dynamic(DynamicUnary, "", []Node{operand}, pos)
		d.Op = op

		return d, nil
	}

	// Negating an unsigned int widens to long.
	if op == OpNeg && (t == typeUint32 || t == nullableOf(typeUint32)) {
		to := typeInt64
		if t != typeUint32 {
			to = nullableOf(typeInt64)
		}

		operand, _ = p.promote(operand, to, true)
		t = to
	}

	cands, _ := p.resolve(unarySignatures(op), []Node{operand})

	switch len(cands) {
	case 1:
		return &Unary{Op: op, Operand: cands[0].args[0], pos: pos}, nil
	case 0:
	default:
		return nil, incompatibleOperand(op.String(), TypeName(t), pos)
	}

	if n, ok, err := p.userOperator(op, []Node{operand}, pos); err != nil || ok {
		return n, err
	}

	switch {
	case op == OpNot && t.Kind() == reflect.Bool,
		op == OpComplement && isNumericKind(t) && !isFloatKind(t),
		(op == OpNeg || op == OpPlus) && isNumericKind(t):
		return &Unary{Op: op, Operand: operand, pos: pos}, nil
	}

	return nil, incompatibleOperand(op.String(), TypeName(t), pos)
}
