package lang

import (
	"context"
	"log/slog"
	"reflect"
	"unicode/utf8"
)

// frame holds the values of the parameters in scope during evaluation. A
// lambda invocation pushes a frame over the one captured when the lambda
// value was created.
type frame struct {
	parent *frame
	slots  map[*Parameter]reflect.Value
}

func newFrame(parent *frame, n int) *frame {
	return &frame{parent: parent, slots: make(map[*Parameter]reflect.Value, n)}
}

// lookup finds the frame holding p.
func (f *frame) lookup(p *Parameter) (*frame, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if _, ok := fr.slots[p]; ok {
			return fr, true
		}
	}

	return nil, false
}

// lambdaPanic carries an evaluation error out of a lambda body through the
// host code that called it.
type lambdaPanic struct{ err error }

func (p *lambdaPanic) Error() string { return p.err.Error() }
func (p *lambdaPanic) Unwrap() error { return p.err }

// evaluator walks a bound tree.
type evaluator struct {
	ctx context.Context
}

func (e *evaluator) eval(n Node, fr *frame) (reflect.Value, error) {
	switch n := n.(type) {
	case *Constant:
		return n.Value, nil
	case *ParamRef:
		owner, ok := fr.lookup(n.Param)
		if !ok {
			return reflect.Value{}, missingParameter(n.Param.Name)
		}

		return owner.slots[n.Param], nil
	case *MemberAccess:
		return e.member(n, fr)
	case *Call:
		return e.call(n, fr)
	case *Invoke:
		return e.invoke(n, fr)
	case *NewExpr:
		return e.construct(n, fr)
	case *NewArray:
		return e.newArray(n, fr)
	case *Conditional:
		test, err := e.eval(n.Test, fr)
		if err != nil {
			return reflect.Value{}, err
		}

		if test.Bool() {
			return e.eval(n.Then, fr)
		}

		return e.eval(n.Else, fr)
	case *Binary:
		return e.binary(n, fr)
	case *Unary:
		v, err := e.eval(n.Operand, fr)
		if err != nil {
			return reflect.Value{}, err
		}

		return unaryOp(n.Op, v, n.Type())
	case *Index:
		return e.index(n, fr)
	case *Element:
		return e.element(n, fr)
	case *LambdaExpr:
		return e.lambda(n, fr), nil
	case *Convert:
		v, err := e.eval(n.Operand, fr)
		if err != nil {
			return reflect.Value{}, err
		}

		return convertValue(v, n.To, n.Explicit)
	case *TypeTest:
		return e.typeTest(n, fr)
	case *Coalesce:
		return e.coalesce(n, fr)
	case *Assign:
		v, err := e.eval(n.Value, fr)
		if err != nil {
			return reflect.Value{}, err
		}

		if err := e.store(n.Target, v, fr); err != nil {
			return reflect.Value{}, err
		}

		return v, nil
	case *Let:
		v, err := e.eval(n.Value, fr)
		if err != nil {
			return reflect.Value{}, err
		}

		inner := newFrame(fr, 1)
		inner.slots[n.Var] = v

		return e.eval(n.Body, inner)
	case *MethodGroup:
		if len(n.Values) == 1 {
			return n.Values[0], nil
		}
	case *DynamicOp:
		return e.dynamic(n, fr)
	}

	return reflect.Value{}, ErrInvalidOperation.
		Detail("Expression '"+n.String()+"' cannot be evaluated").
		With(slog.String("node", reflect.TypeOf(n).String()))
}

func (e *evaluator) evalAll(ns []Node, fr *frame) ([]reflect.Value, error) {
	out := make([]reflect.Value, len(ns))

	for i, n := range ns {
		v, err := e.eval(n, fr)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

// receiver evaluates the instance of a member access, rejecting null
// unless the member accepts it.
func (e *evaluator) receiver(n Node, owner reflect.Type, allowNil bool, name string, fr *frame) (reflect.Value, error) {
	v, err := e.eval(n, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	if isNilValue(v) {
		if allowNil {
			return v, nil
		}

		return reflect.Value{}, nullReference(name)
	}

	return adaptReceiver(v, owner), nil
}

// adaptReceiver converts v to the owner type of the member it is used
// with: unboxing interfaces, dereferencing pointers, or walking to an
// embedded base.
func adaptReceiver(v reflect.Value, owner reflect.Type) reflect.Value {
	if owner == nil || v.Type() == owner {
		return v
	}

	if v.Kind() == reflect.Interface && owner.Kind() != reflect.Interface {
		v = v.Elem()
		if v.Type() == owner {
			return v
		}
	}

	if v.Kind() == reflect.Pointer && v.Type().Elem() == owner {
		return v.Elem()
	}

	if path, ok := basePath(v.Type(), owner); ok {
		return upcast(v, path, owner)
	}

	if c, err := convertValue(v, owner, false); err == nil {
		return c
	}

	return v
}

func (e *evaluator) member(n *MemberAccess, fr *frame) (reflect.Value, error) {
	prop := n.Property

	if n.Instance == nil {
		return prop.get(reflect.Value{})
	}

	owner := prop.Owner
	if prop.field != nil {
		owner = nil
	}

	recv, err := e.receiver(n.Instance, owner, prop.allowNil, prop.Name, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	if prop.field != nil {
		f, err := fieldOf(recv, prop.field, prop.Name)
		if err != nil {
			return reflect.Value{}, err
		}

		return f, nil
	}

	return prop.get(recv)
}

// fieldOf follows a field index path through embedded pointers.
func fieldOf(v reflect.Value, path []int, name string) (reflect.Value, error) {
	for _, i := range path {
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return reflect.Value{}, nullReference(name)
			}

			v = v.Elem()
		}

		v = v.Field(i)
	}

	return v, nil
}

func (e *evaluator) call(n *Call, fr *frame) (reflect.Value, error) {
	if err := e.ctx.Err(); err != nil {
		return reflect.Value{}, err
	}

	m := n.Method

	var (
		recv reflect.Value
		err  error
	)

	if n.Instance != nil {
		if recv, err = e.receiver(n.Instance, m.Owner, m.allowNil, m.Name, fr); err != nil {
			return reflect.Value{}, err
		}
	}

	args, err := e.evalAll(n.Args, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	v, err := protect(func() (reflect.Value, error) { return m.call(n.Bindings, recv, args) })
	if err != nil {
		return reflect.Value{}, err
	}

	return resultOf(v, n.Result)
}

func (e *evaluator) invoke(n *Invoke, fr *frame) (reflect.Value, error) {
	if err := e.ctx.Err(); err != nil {
		return reflect.Value{}, err
	}

	fv, err := e.eval(n.Func, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	if fv.Kind() == reflect.Interface {
		fv = fv.Elem()
	}

	if !fv.IsValid() || fv.IsNil() {
		return reflect.Value{}, nullReference(n.Func.String())
	}

	args, err := e.evalAll(n.Args, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	for i, a := range args {
		if want := fv.Type().In(i); a.Type() != want && !fv.Type().IsVariadic() {
			if args[i], err = convertValue(a, want, false); err != nil {
				return reflect.Value{}, err
			}
		}
	}

	v, err := protect(func() (reflect.Value, error) { return callFunc(fv, args) })
	if err != nil {
		return reflect.Value{}, err
	}

	return resultOf(v, n.Type())
}

// protect runs a host call, turning an error raised by a lambda body back
// into an error result. Any other panic continues unwinding.
func protect(fn func() (reflect.Value, error)) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			lp, ok := r.(*lambdaPanic)
			if !ok {
				panic(r)
			}

			v, err = reflect.Value{}, lp.err
		}
	}()

	return fn()
}

// resultOf gives a host result the static type of the node producing it.
func resultOf(v reflect.Value, want reflect.Type) (reflect.Value, error) {
	if want == typeVoid {
		return reflect.ValueOf(void{}), nil
	}

	if !v.IsValid() {
		return reflect.Zero(want), nil
	}

	if v.Type() == want {
		return v, nil
	}

	return convertValue(v, want, false)
}

// object is the value of "new object()". Each construction has a distinct
// identity.
type object struct{ id *byte }

func (object) String() string { return "System.Object" }

func (e *evaluator) construct(n *NewExpr, fr *frame) (reflect.Value, error) {
	t := n.typ

	var v reflect.Value

	if n.Ctor != nil {
		args, err := e.evalAll(n.Args, fr)
		if err != nil {
			return reflect.Value{}, err
		}

		if v, err = protect(func() (reflect.Value, error) {
			return n.Ctor.call(n.Bindings, reflect.Value{}, args)
		}); err != nil {
			return reflect.Value{}, err
		}

		if v, err = resultOf(v, t); err != nil {
			return reflect.Value{}, err
		}
	} else {
		switch k := t.Kind(); {
		case t == typeObject:
			v = reflect.New(t).Elem()
			v.Set(reflect.ValueOf(object{id: new(byte)}))
		case k == reflect.Pointer:
			v = reflect.New(t.Elem())
		case k == reflect.Slice:
			v = reflect.MakeSlice(t, 0, len(n.Elems))
		case k == reflect.Map:
			v = reflect.MakeMapWithSize(t, len(n.Pairs))
		default:
			v = reflect.New(t).Elem()
		}
	}

	if len(n.Inits) > 0 {
		target := v
		if target.Kind() != reflect.Pointer && !target.CanAddr() {
			c := reflect.New(t).Elem()
			c.Set(v)
			target = c
		}

		for _, in := range n.Inits {
			val, err := e.eval(in.Value, fr)
			if err != nil {
				return reflect.Value{}, err
			}

			if err := setProperty(in.Property, target, val); err != nil {
				return reflect.Value{}, err
			}
		}

		v = target
	}

	for _, item := range n.Elems {
		val, err := e.eval(item, fr)
		if err != nil {
			return reflect.Value{}, err
		}

		c, err := assignable(val, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}

		v = reflect.Append(v, c)
	}

	for _, kv := range n.Pairs {
		kv0, err := e.eval(kv[0], fr)
		if err != nil {
			return reflect.Value{}, err
		}

		kv1, err := e.eval(kv[1], fr)
		if err != nil {
			return reflect.Value{}, err
		}

		if k, err := assignable(kv0, t.Key()); err != nil {
			return reflect.Value{}, err
		} else if val, err := assignable(kv1, t.Elem()); err != nil {
			return reflect.Value{}, err
		} else {
			v.SetMapIndex(k, val)
		}
	}

	return v, nil
}

// assignable converts v for storage in a location of type t.
func assignable(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !v.IsValid() || v.Type() == typeNull {
		return reflect.Zero(t), nil
	}

	if v.Type().AssignableTo(t) {
		return v, nil
	}

	return convertValue(v, t, false)
}

func (e *evaluator) newArray(n *NewArray, fr *frame) (reflect.Value, error) {
	st := reflect.SliceOf(n.Elem)

	if n.Len != nil {
		lv, err := e.eval(n.Len, fr)
		if err != nil {
			return reflect.Value{}, err
		}

		size := lv.Int()
		if size < 0 {
			return reflect.Value{}, evalError(ErrOverflow, "Arithmetic operation resulted in an overflow",
				slog.Int64("length", size))
		}

		return reflect.MakeSlice(st, int(size), int(size)), nil
	}

	s := reflect.MakeSlice(st, len(n.Items), len(n.Items))

	for i, item := range n.Items {
		v, err := e.eval(item, fr)
		if err != nil {
			return reflect.Value{}, err
		}

		c, err := assignable(v, n.Elem)
		if err != nil {
			return reflect.Value{}, err
		}

		s.Index(i).Set(c)
	}

	return s, nil
}

func (e *evaluator) binary(n *Binary, fr *frame) (reflect.Value, error) {
	l, err := e.eval(n.Left, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	switch n.Op {
	case OpAndAlso:
		if !l.Bool() {
			return reflect.ValueOf(false), nil
		}

		return e.eval(n.Right, fr)
	case OpOrElse:
		if l.Bool() {
			return reflect.ValueOf(true), nil
		}

		return e.eval(n.Right, fr)
	}

	r, err := e.eval(n.Right, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	return binaryOp(n.Op, l, r, n.typ)
}

func (e *evaluator) index(n *Index, fr *frame) (reflect.Value, error) {
	get := n.Indexer.Get

	recv, err := e.receiver(n.Instance, get.Owner, false, "this[]", fr)
	if err != nil {
		return reflect.Value{}, err
	}

	args, err := e.evalAll(n.Args, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	v, err := protect(func() (reflect.Value, error) { return get.call(nil, recv, args) })
	if err != nil {
		return reflect.Value{}, err
	}

	return resultOf(v, get.Result)
}

func (e *evaluator) element(n *Element, fr *frame) (reflect.Value, error) {
	c, err := e.eval(n.Instance, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	k, err := e.eval(n.Key, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	return elementOf(c, k)
}

// elementOf reads c[k]. Strings index by character; a missing map key
// yields the zero element.
func elementOf(c, k reflect.Value) (reflect.Value, error) {
	switch c.Kind() {
	case reflect.String:
		s := c.String()
		i := int(k.Int())

		if i >= 0 {
			for _, r := range s {
				if i == 0 {
					return reflect.ValueOf(Char(r)), nil
				}

				i--
			}
		}

		return reflect.Value{}, indexOutOfRange(int(k.Int()), utf8.RuneCountInString(s))
	case reflect.Slice, reflect.Array:
		if c.Kind() == reflect.Slice && c.IsNil() {
			return reflect.Value{}, nullReference("this[]")
		}

		i := int(k.Int())
		if i < 0 || i >= c.Len() {
			return reflect.Value{}, indexOutOfRange(i, c.Len())
		}

		return c.Index(i), nil
	case reflect.Map:
		if c.IsNil() {
			return reflect.Value{}, nullReference("this[]")
		}

		if v := c.MapIndex(k); v.IsValid() {
			return v, nil
		}

		return reflect.Zero(c.Type().Elem()), nil
	}

	return reflect.Value{}, evalError(ErrInvalidOperation,
		"Cannot apply indexing to a value of type '"+TypeName(c.Type())+"'")
}

// lambda creates the Go func value of a lambda capturing the current frame.
func (e *evaluator) lambda(n *LambdaExpr, fr *frame) reflect.Value {
	ft := n.typ

	return reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		inner := newFrame(fr, len(n.Params))
		for i, p := range n.Params {
			inner.slots[p] = args[i]
		}

		v, err := e.eval(n.Body, inner)
		if err != nil {
			panic(&lambdaPanic{err: err})
		}

		if ft.NumOut() == 0 {
			return nil
		}

		out, err := assignable(v, ft.Out(0))
		if err != nil {
			panic(&lambdaPanic{err: err})
		}

		return []reflect.Value{out}
	})
}

func (e *evaluator) typeTest(n *TypeTest, fr *frame) (reflect.Value, error) {
	v, err := e.eval(n.Operand, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	v = unbox(v)
	ok := !isNilValue(v) && isInstance(v.Type(), n.Target)

	if !n.As {
		return reflect.ValueOf(ok), nil
	}

	if !ok {
		return reflect.Zero(n.Target), nil
	}

	return convertValue(v, n.Target, false)
}

// isInstance reports whether a value of runtime type t is an instance of
// target.
func isInstance(t, target reflect.Type) bool {
	if t == target {
		return true
	}

	if target.Kind() == reflect.Interface {
		return t.Implements(target)
	}

	if e, ok := nullableElem(target); ok && !isNilable(t) {
		return t == e
	}

	if e, ok := nullableElem(t); ok {
		return e == target
	}

	_, ok := basePath(t, target)

	return ok
}

func (e *evaluator) coalesce(n *Coalesce, fr *frame) (reflect.Value, error) {
	l, err := e.eval(n.Left, fr)
	if err != nil {
		return reflect.Value{}, err
	}

	if isNilValue(l) {
		return e.eval(n.Right, fr)
	}

	if n.Unwrap {
		return l.Elem(), nil
	}

	return assignable(l, n.typ)
}

// store writes v into the location denoted by target.
func (e *evaluator) store(target Node, v reflect.Value, fr *frame) error {
	switch t := target.(type) {
	case *ParamRef:
		owner, ok := fr.lookup(t.Param)
		if !ok {
			return missingParameter(t.Param.Name)
		}

		c, err := assignable(v, t.Param.Type)
		if err != nil {
			return err
		}

		owner.slots[t.Param] = c

		return nil
	case *MemberAccess:
		return e.storeMember(t, v, fr)
	case *Element:
		return e.storeElement(t, v, fr)
	case *Index:
		recv, err := e.receiver(t.Instance, t.Indexer.Get.Owner, false, "this[]", fr)
		if err != nil {
			return err
		}

		args, err := e.evalAll(t.Args, fr)
		if err != nil {
			return err
		}

		return t.Indexer.set(recv, args, v)
	case *DynamicOp:
		return e.storeDynamic(t, v, fr)
	}

	return ErrNotWritable.Detail("Expression '" + target.String() + "' is not writable")
}

func (e *evaluator) storeMember(t *MemberAccess, v reflect.Value, fr *frame) error {
	prop := t.Property

	recv, err := e.eval(t.Instance, fr)
	if err != nil {
		return err
	}

	if isNilValue(recv) {
		return nullReference(prop.Name)
	}

	recv = unbox(recv)

	// A struct held by value is copied, updated, and stored back.
	if recv.Kind() != reflect.Pointer && !recv.CanAddr() {
		c := reflect.New(recv.Type()).Elem()
		c.Set(recv)

		if err := setProperty(prop, c, v); err != nil {
			return err
		}

		if writable(t.Instance) {
			return e.store(t.Instance, c, fr)
		}

		return ErrNotWritable.Detail("Cannot modify the value of '" + t.Instance.String() + "'")
	}

	return setProperty(prop, recv, v)
}

// setProperty assigns prop of recv, which is a pointer or an addressable
// value.
func setProperty(prop *Property, recv, v reflect.Value) error {
	if prop.field == nil {
		if prop.set == nil {
			return ErrNotWritable.Detail("Property or field '" + prop.Name + "' is read only")
		}

		return prop.set(adaptReceiver(recv, prop.Owner), v)
	}

	f, err := fieldOf(recv, prop.field, prop.Name)
	if err != nil {
		return err
	}

	if !f.CanSet() {
		return ErrNotWritable.Detail("Property or field '" + prop.Name + "' is read only")
	}

	c, err := assignable(v, f.Type())
	if err != nil {
		return err
	}

	f.Set(c)

	return nil
}

func (e *evaluator) storeElement(t *Element, v reflect.Value, fr *frame) error {
	c, err := e.eval(t.Instance, fr)
	if err != nil {
		return err
	}

	k, err := e.eval(t.Key, fr)
	if err != nil {
		return err
	}

	switch c.Kind() {
	case reflect.Map:
		if c.IsNil() {
			return nullReference("this[]")
		}

		val, err := assignable(v, c.Type().Elem())
		if err != nil {
			return err
		}

		c.SetMapIndex(k, val)

		return nil
	case reflect.Slice, reflect.Array:
		i := int(k.Int())
		if i < 0 || i >= c.Len() {
			return indexOutOfRange(i, c.Len())
		}

		val, err := assignable(v, c.Type().Elem())
		if err != nil {
			return err
		}

		if c.Kind() == reflect.Array && !c.CanAddr() {
			a := reflect.New(c.Type()).Elem()
			a.Set(c)
			a.Index(i).Set(val)

			return e.store(t.Instance, a, fr)
		}

		c.Index(i).Set(val)

		return nil
	}

	return ErrNotWritable.Detail("Expression '" + t.String() + "' is not writable")
}

// unbox returns the value held by an interface, or the invalid Value for
// a nil interface.
func unbox(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

// isNilValue reports whether v is null.
func isNilValue(v reflect.Value) bool {
	if !v.IsValid() || v.Type() == typeNull {
		return true
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	}

	return false
}

func nullReference(member string) *Error {
	return evalError(ErrNullReference,
		"Object reference not set to an instance of an object",
		slog.String("member", member))
}

func indexOutOfRange(i, n int) *Error {
	return evalError(ErrIndexOutOfRange,
		"Index was outside the bounds of the array",
		slog.Int("index", i), slog.Int("length", n))
}

func missingParameter(name string) *Error {
	return evalError(ErrMissingParameter,
		"No value provided for parameter '"+name+"'",
		slog.String("name", name))
}
