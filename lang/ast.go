package lang

import (
	"reflect"
	"strconv"
	"strings"
)

// Node is an immutable typed expression tree node. Nodes are shared between
// concurrent evaluations and must not be modified after parsing.
type Node interface {
	// Type returns the static type of the value the node produces.
	Type() reflect.Type
	// Pos returns the source offset of the node's first token.
	Pos() int
	// String formats the node as an expression.
	String() string
}

// Op identifies a unary or binary operator.
type Op int

// Operators.
const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpAndAlso
	OpOrElse
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpNeg
	OpPlus
	OpNot
	OpComplement
)

var opInfo = [...]struct{ sym, method string }{
	OpAdd:        {"+", "op_Addition"},
	OpSub:        {"-", "op_Subtraction"},
	OpMul:        {"*", "op_Multiply"},
	OpDiv:        {"/", "op_Division"},
	OpMod:        {"%", "op_Modulus"},
	OpAnd:        {"&", "op_BitwiseAnd"},
	OpOr:         {"|", "op_BitwiseOr"},
	OpXor:        {"^", "op_ExclusiveOr"},
	OpShl:        {"<<", "op_LeftShift"},
	OpShr:        {">>", "op_RightShift"},
	OpAndAlso:    {"&&", "op_LogicalAnd"},
	OpOrElse:     {"||", "op_LogicalOr"},
	OpEq:         {"==", "op_Equality"},
	OpNe:         {"!=", "op_Inequality"},
	OpLt:         {"<", "op_LessThan"},
	OpGt:         {">", "op_GreaterThan"},
	OpLe:         {"<=", "op_LessThanOrEqual"},
	OpGe:         {">=", "op_GreaterThanOrEqual"},
	OpNeg:        {"-", "op_UnaryNegation"},
	OpPlus:       {"+", "op_UnaryPlus"},
	OpNot:        {"!", "op_LogicalNot"},
	OpComplement: {"~", "op_OnesComplement"},
}

func (o Op) String() string { return opInfo[o].sym }

// methodName returns the name of the user-defined operator method.
func (o Op) methodName() string { return opInfo[o].method }

func (o Op) relational() bool { return o >= OpEq && o <= OpGe }

// Constant is a literal or a folded constant value.
type Constant struct {
	Value   reflect.Value
	text    string
	pos     int
	literal bool // an unsuffixed integer literal subject to range conversion
}

func newConstant(v any, pos int) *Constant {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		rv = reflect.Zero(typeNull)
	}

	return &Constant{Value: rv, pos: pos}
}

func nullConstant(pos int) *Constant {
	return &Constant{Value: reflect.Zero(typeNull), pos: pos, text: "null"}
}

func (n *Constant) Type() reflect.Type { return n.Value.Type() }
func (n *Constant) Pos() int           { return n.pos }

func (n *Constant) String() string {
	if n.text != "" {
		return n.text
	}

	return formatValue(n.Value)
}

// isNull reports whether n is the null literal.
func isNull(n Node) bool {
	c, ok := n.(*Constant)
	return ok && c.Value.Type() == typeNull
}

// formatValue renders a value in literal syntax.
func formatValue(v reflect.Value) string {
	if !v.IsValid() || v.Type() == typeNull {
		return "null"
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		if v.IsNil() {
			return "null"
		}
	}

	switch v.Type() {
	case typeString:
		return strconv.Quote(v.String())
	case typeChar:
		return strconv.QuoteRune(rune(v.Int()))
	case typeDecimal:
		return stringify(v) + "m"
	case typeFloat32:
		return stringify(v) + "f"
	case typeFloat64:
		s := stringify(v)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}

		return s
	case typeUint32, typeUint:
		return stringify(v) + "u"
	case typeInt64:
		return stringify(v) + "L"
	case typeUint64:
		return stringify(v) + "UL"
	}

	if v.Kind() == reflect.Pointer {
		return formatValue(v.Elem())
	}

	return stringify(v)
}

// ParamRef references a declared parameter or lambda parameter.
type ParamRef struct {
	Param *Parameter
	pos   int
}

func (n *ParamRef) Type() reflect.Type { return n.Param.Type }
func (n *ParamRef) Pos() int           { return n.pos }
func (n *ParamRef) String() string     { return n.Param.Name }

// MemberAccess reads a field or property. Instance is nil for static
// members.
type MemberAccess struct {
	Instance Node
	Property *Property
	pos      int
}

func (n *MemberAccess) Type() reflect.Type { return n.Property.Type }
func (n *MemberAccess) Pos() int           { return n.pos }

func (n *MemberAccess) String() string {
	if n.Instance == nil {
		return TypeName(n.Property.Owner) + "." + n.Property.Name
	}

	return n.Instance.String() + "." + n.Property.Name
}

// Call invokes a method. Instance is nil for static and extension methods;
// an extension receiver is the first argument.
type Call struct {
	Instance Node
	Method   *Method
	Bindings Bindings
	Result   reflect.Type
	Args     []Node
	pos      int
}

func (n *Call) Type() reflect.Type { return n.Result }
func (n *Call) Pos() int           { return n.pos }

func (n *Call) String() string {
	var prefix string

	switch {
	case n.Instance != nil:
		prefix = n.Instance.String() + "."
	case n.Method.Owner != nil && n.Method.Name != ".ctor":
		prefix = TypeName(n.Method.Owner) + "."
	}

	return prefix + n.Method.Name + "(" + joinNodes(n.Args) + ")"
}

// Invoke calls a func-typed value.
type Invoke struct {
	Func Node
	Args []Node
	pos  int
}

func (n *Invoke) Type() reflect.Type { return funcResult(n.Func.Type()) }
func (n *Invoke) Pos() int           { return n.pos }
func (n *Invoke) String() string     { return n.Func.String() + "(" + joinNodes(n.Args) + ")" }

// MemberInit assigns a member of a newly constructed object.
type MemberInit struct {
	Property *Property
	Value    Node
}

// NewExpr constructs a value: through a registered constructor, or as a zero
// value (a fresh allocation for pointer types, an empty slice or map), then
// applies member or collection initializers.
type NewExpr struct {
	Ctor     *Method
	Bindings Bindings
	typ      reflect.Type
	Args     []Node
	Inits    []MemberInit
	Elems    []Node    // slice collection initializer
	Pairs    [][2]Node // map collection initializer
	pos      int
}

func (n *NewExpr) Type() reflect.Type { return n.typ }
func (n *NewExpr) Pos() int           { return n.pos }

func (n *NewExpr) String() string {
	var sb strings.Builder

	sb.WriteString("new " + TypeName(n.typ) + "(" + joinNodes(n.Args) + ")")

	var items []string

	for _, in := range n.Inits {
		items = append(items, in.Property.Name+" = "+in.Value.String())
	}

	for _, e := range n.Elems {
		items = append(items, e.String())
	}

	for _, kv := range n.Pairs {
		items = append(items, "{"+kv[0].String()+", "+kv[1].String()+"}")
	}

	if len(items) > 0 {
		sb.WriteString(" { " + strings.Join(items, ", ") + " }")
	}

	return sb.String()
}

// NewArray creates a slice, either of length Len with zero elements or from
// the listed Items.
type NewArray struct {
	Elem  reflect.Type
	Len   Node
	Items []Node
	pos   int
}

func (n *NewArray) Type() reflect.Type { return reflect.SliceOf(n.Elem) }
func (n *NewArray) Pos() int           { return n.pos }

func (n *NewArray) String() string {
	if n.Len != nil {
		return "new " + TypeName(n.Elem) + "[" + n.Len.String() + "]"
	}

	return "new " + TypeName(n.Elem) + "[] { " + joinNodes(n.Items) + " }"
}

// Conditional is the ternary operator.
type Conditional struct {
	Test, Then, Else Node
	typ              reflect.Type
	pos              int
}

func (n *Conditional) Type() reflect.Type { return n.typ }
func (n *Conditional) Pos() int           { return n.pos }

func (n *Conditional) String() string {
	return "(" + n.Test.String() + " ? " + n.Then.String() + " : " + n.Else.String() + ")"
}

// Binary applies an operator to two operands.
type Binary struct {
	Left, Right Node
	typ         reflect.Type
	Op          Op
	pos         int
}

func (n *Binary) Type() reflect.Type { return n.typ }
func (n *Binary) Pos() int           { return n.pos }

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

// Unary applies a prefix operator.
type Unary struct {
	Operand Node
	Op      Op
	pos     int
}

func (n *Unary) Type() reflect.Type {
	if n.Op == OpNot {
		if _, ok := nullableElem(n.Operand.Type()); !ok {
			return typeBool
		}
	}

	return n.Operand.Type()
}

func (n *Unary) Pos() int       { return n.pos }
func (n *Unary) String() string { return n.Op.String() + n.Operand.String() }

// Index reads an element through a registered indexer.
type Index struct {
	Instance Node
	Indexer  *Indexer
	Args     []Node
	pos      int
}

func (n *Index) Type() reflect.Type { return n.Indexer.Get.Result }
func (n *Index) Pos() int           { return n.pos }
func (n *Index) String() string     { return n.Instance.String() + "[" + joinNodes(n.Args) + "]" }

// Element reads an element of a slice, array, string, or map.
type Element struct {
	Instance Node
	Key      Node
	pos      int
}

func (n *Element) Type() reflect.Type {
	t := n.Instance.Type()
	if t.Kind() == reflect.String {
		return typeChar
	}

	return t.Elem()
}

func (n *Element) Pos() int       { return n.pos }
func (n *Element) String() string { return n.Instance.String() + "[" + n.Key.String() + "]" }

// LambdaExpr is an anonymous function whose body was parsed against a known
// func type.
type LambdaExpr struct {
	Body    Node
	typ     reflect.Type
	natural reflect.Type // body type before conversion to the result type
	Params  []*Parameter
	pos     int
}

func (n *LambdaExpr) Type() reflect.Type { return n.typ }
func (n *LambdaExpr) Pos() int           { return n.pos }

// naturalType is the func type with the body's own result type, which ranks
// overloads that differ only in the delegate result.
func (n *LambdaExpr) naturalType() reflect.Type {
	if n.natural == nil || n.typ.NumOut() != 1 || n.natural == n.typ.Out(0) {
		return n.typ
	}

	in := make([]reflect.Type, n.typ.NumIn())
	for i := range in {
		in[i] = n.typ.In(i)
	}

	return reflect.FuncOf(in, []reflect.Type{n.natural}, false)
}

func (n *LambdaExpr) String() string {
	names := make([]string, len(n.Params))
	for i, p := range n.Params {
		names[i] = p.Name
	}

	if len(names) == 1 {
		return names[0] + " => " + n.Body.String()
	}

	return "(" + strings.Join(names, ", ") + ") => " + n.Body.String()
}

// Convert converts its operand to type To. Explicit conversions are range
// checked.
type Convert struct {
	Operand  Node
	To       reflect.Type
	Explicit bool
	pos      int
}

func (n *Convert) Type() reflect.Type { return n.To }
func (n *Convert) Pos() int           { return n.pos }

func (n *Convert) String() string {
	if n.Explicit {
		return "((" + TypeName(n.To) + ")" + n.Operand.String() + ")"
	}

	return n.Operand.String()
}

// TypeTest implements "x is T" and "x as T".
type TypeTest struct {
	Operand Node
	Target  reflect.Type
	As      bool
	pos     int
}

func (n *TypeTest) Type() reflect.Type {
	if n.As {
		return n.Target
	}

	return typeBool
}

func (n *TypeTest) Pos() int { return n.pos }

func (n *TypeTest) String() string {
	op := " is "
	if n.As {
		op = " as "
	}

	return "(" + n.Operand.String() + op + TypeName(n.Target) + ")"
}

// Coalesce implements "a ?? b". With Unwrap set, a nullable left operand is
// unwrapped to its value type.
type Coalesce struct {
	Left, Right Node
	typ         reflect.Type
	Unwrap      bool
	pos         int
}

func (n *Coalesce) Type() reflect.Type { return n.typ }
func (n *Coalesce) Pos() int           { return n.pos }

func (n *Coalesce) String() string {
	return "(" + n.Left.String() + " ?? " + n.Right.String() + ")"
}

// Assign stores Value into a writable Target.
type Assign struct {
	Target, Value Node
	pos           int
}

func (n *Assign) Type() reflect.Type { return n.Target.Type() }
func (n *Assign) Pos() int           { return n.pos }

func (n *Assign) String() string {
	return "(" + n.Target.String() + " = " + n.Value.String() + ")"
}

// Let evaluates Value once, binds it to Var, and evaluates Body. The parser
// uses it to lower null-conditional access so the target is evaluated once.
type Let struct {
	Var   *Parameter
	Value Node
	Body  Node
	text  string
	pos   int
}

func (n *Let) Type() reflect.Type { return n.Body.Type() }
func (n *Let) Pos() int           { return n.pos }

func (n *Let) String() string {
	if n.text != "" {
		return n.text
	}

	return "(let " + n.Var.Name + " = " + n.Value.String() + " in " + n.Body.String() + ")"
}

// MethodGroup is an identifier bound to one or more function overloads.
type MethodGroup struct {
	Name    string
	Methods []*Method
	Values  []reflect.Value // the function values, parallel to Methods
	pos     int
}

// Type returns the func type of a single-function group, else void.
func (n *MethodGroup) Type() reflect.Type {
	if len(n.Values) == 1 {
		return n.Values[0].Type()
	}

	return typeVoid
}

func (n *MethodGroup) Pos() int       { return n.pos }
func (n *MethodGroup) String() string { return n.Name }

func (n *MethodGroup) at(pos int) *MethodGroup {
	c := *n
	c.pos = pos

	return &c
}

// lambdaPlaceholder is a lambda whose body awaits a target func type. It
// only appears as a call argument during resolution.
type lambdaPlaceholder struct {
	env    *Environment
	params []lambdaParam
	text   string // full source text
	start  int    // body window
	end    int
	pos    int
}

type lambdaParam struct {
	typ  reflect.Type // nil when untyped
	name string
}

func (n *lambdaPlaceholder) Type() reflect.Type { return nil }
func (n *lambdaPlaceholder) Pos() int           { return n.pos }

func (n *lambdaPlaceholder) String() string {
	names := make([]string, len(n.params))
	for i, p := range n.params {
		names[i] = p.name
	}

	return "(" + strings.Join(names, ", ") + ") => " + strings.TrimSpace(n.text[n.start:n.end])
}

// typeRef is a type name in expression position, valid only as the target
// of static member access.
type typeRef struct {
	typ reflect.Type
	pos int
}

func (n *typeRef) Type() reflect.Type { return n.typ }
func (n *typeRef) Pos() int           { return n.pos }
func (n *typeRef) String() string     { return TypeName(n.typ) }

func joinNodes(ns []Node) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = n.String()
	}

	return strings.Join(parts, ", ")
}
