package lang

import (
	"log/slog"
	"reflect"

	"github.com/expr-lang/expr/vm/runtime"
)

// DynamicKind identifies the operation deferred by a [DynamicOp].
type DynamicKind int

// Dynamic operations.
const (
	DynamicGetMember DynamicKind = iota
	DynamicInvokeMember
	DynamicGetIndex
	DynamicInvoke
	DynamicBinary
	DynamicUnary
)

var dynamicKindNames = [...]string{
	DynamicGetMember:    "GetMember",
	DynamicInvokeMember: "InvokeMember",
	DynamicGetIndex:     "GetIndex",
	DynamicInvoke:       "Invoke",
	DynamicBinary:       "Binary",
	DynamicUnary:        "Unary",
}

func (k DynamicKind) String() string { return dynamicKindNames[k] }

// DynamicOp is an operation on a dynamic value, bound against the runtime
// types of its operands on each evaluation. Operands[0] is the receiver for
// member, index, and invoke operations.
type DynamicOp struct {
	Kind     DynamicKind
	Name     string
	Op       Op
	Operands []Node
	env      *Environment
	set      *settings
	pos      int
}

func (n *DynamicOp) Type() reflect.Type { return typeDynamic }
func (n *DynamicOp) Pos() int           { return n.pos }

func (n *DynamicOp) String() string {
	ops := n.Operands

	switch n.Kind {
	case DynamicGetMember:
		return ops[0].String() + "." + n.Name
	case DynamicInvokeMember:
		return ops[0].String() + "." + n.Name + "(" + joinNodes(ops[1:]) + ")"
	case DynamicGetIndex:
		return ops[0].String() + "[" + joinNodes(ops[1:]) + "]"
	case DynamicInvoke:
		return ops[0].String() + "(" + joinNodes(ops[1:]) + ")"
	case DynamicBinary:
		return "(" + ops[0].String() + " " + n.Op.String() + " " + ops[1].String() + ")"
	}

	return n.Op.String() + ops[0].String()
}

func (p *parser) dynamic(kind DynamicKind, name string, operands []Node, pos int) *DynamicOp {
	p.trace("dynamic binding deferred",
		slog.String("kind", kind.String()),
		slog.String("name", name),
	)

	return &DynamicOp{
		Kind:     kind,
		Name:     name,
		Operands: operands,
		env:      p.env,
		set:      p.set,
		pos:      pos,
	}
}

// dynamic evaluates the operands, binds the operation against their
// runtime types, and evaluates the bound node.
func (e *evaluator) dynamic(n *DynamicOp, fr *frame) (reflect.Value, error) {
	args, err := e.runtimeOperands(n, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	if n.Kind == DynamicGetMember {
		if v, ok := fetchKey(args[0], n.Name); ok {
			return boxDynamic(v), nil
		}
	}

	bound, err := e.bind(n, args)
	if err != nil {
		return reflect.Value{}, err
	}

	v, err := e.eval(bound, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	return boxDynamic(v), nil
}

// runtimeOperands evaluates the operands of n to constants typed by their
// runtime values. Lambda placeholders are kept for binding.
func (e *evaluator) runtimeOperands(n *DynamicOp, fr *frame) ([]Node, error) {
	args := make([]Node, len(n.Operands))

	for i, o := range n.Operands {
		switch o := o.(type) {
		case *lambdaPlaceholder:
			c := *o
			c.env = o.env.snapshot()
			args[i] = &c

			continue
		case *MethodGroup:
			if o.Type() == typeVoid {
				args[i] = o

				continue
			}
		}

		v, err := e.eval(o, fr)
		if err != nil {
			return nil, err
		}

		if v = unbox(v); !v.IsValid() {
			args[i] = nullConstant(o.Pos())

			continue
		}

		args[i] = &Constant{Value: v, pos: o.Pos(), text: o.String()}
	}

	if k := n.Kind; k != DynamicBinary && k != DynamicUnary {
		if isNull(args[0]) {
			return nil, nullReference(n.String())
		}
	}

	return args, nil
}

// bind resolves n against runtime operand constants.
func (e *evaluator) bind(n *DynamicOp, args []Node) (Node, error) {
	p := newParser(e.ctx, newLexer(""), n.env.snapshot(), n.set)

	var (
		bound Node
		err   error
	)

	switch n.Kind {
	case DynamicGetMember:
		bound, err = p.member(args[0], n.Name, n.pos)
	case DynamicInvokeMember:
		bound, err = p.callMember(args[0], n.Name, args[1:], n.pos)
	case DynamicGetIndex:
		bound, err = p.index(args[0], args[1:], n.pos)
	case DynamicInvoke:
		bound, err = p.invoke(args[0], args[1:], n.pos)
	case DynamicBinary:
		bound, err = p.binary(n.Op, args[0], args[1], n.pos)
	default:
		bound, err = p.unary(n.Op, args[0], n.pos)
	}

	if err != nil {
		return nil, err
	}

	p.trace("dynamic binding resolved",
		slog.String("kind", n.Kind.String()),
		slog.String("node", bound.String()),
		slog.String("type", TypeName(bound.Type())),
	)

	return bound, nil
}

// storeDynamic assigns through a dynamic member or index target.
func (e *evaluator) storeDynamic(n *DynamicOp, v reflect.Value, fr *frame) error {
	args, err := e.runtimeOperands(n, fr)
	if err != nil {
		return err
	}

	recv := args[0].(*Constant).Value

	if n.Kind == DynamicGetMember && isStringMap(recv.Type()) {
		val, err := assignable(unbox(v), recv.Type().Elem())
		if err != nil {
			return err
		}

		recv.SetMapIndex(reflect.ValueOf(n.Name).Convert(recv.Type().Key()), val)

		return nil
	}

	target, err := e.bind(n, args)
	if err != nil {
		return err
	}

	if !writable(target) {
		return ErrNotWritable.Detail("Expression '" + n.String() + "' is not writable")
	}

	if v = unbox(v); !v.IsValid() {
		v = reflect.Zero(target.Type())
	}

	c, err := convertValue(v, target.Type(), false)
	if err != nil {
		return err
	}

	return e.store(target, c, fr)
}

// fetchKey reads a member of a string-keyed map as the entry of that key.
func fetchKey(recv Node, name string) (reflect.Value, bool) {
	c, ok := recv.(*Constant)
	if !ok || !isStringMap(c.Type()) {
		return reflect.Value{}, false
	}

	return reflect.ValueOf(runtime.Fetch(c.Value.Interface(), name)), true
}

func isStringMap(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String
}

// boxDynamic stores v in a Dynamic interface.
func boxDynamic(v reflect.Value) reflect.Value {
	r := reflect.New(typeDynamic).Elem()

	if v = unbox(v); !isNilValue(v) && v.Type() != typeVoid {
		r.Set(v)
	}

	return r
}
