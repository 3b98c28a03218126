package lang

import (
	"log/slog"
	"reflect"
	"strings"
)

// Param describes one formal parameter of a member signature.
type Param struct {
	Name    string
	Type    reflect.Type
	Default reflect.Value // used when the argument is omitted, if valid

	// Variadic marks a trailing slice parameter that accepts either a slice
	// or any number of individual elements.
	Variadic bool
}

// HasDefault reports whether the parameter may be omitted.
func (p Param) HasDefault() bool { return p.Default.IsValid() }

// Bindings maps generic placeholder types to the closed types inferred for a
// particular call.
type Bindings map[reflect.Type]reflect.Type

// Of returns the type bound to placeholder p, or p itself when unbound.
func (b Bindings) Of(p reflect.Type) reflect.Type {
	if t, ok := b[p]; ok {
		return t
	}

	return p
}

// CallFunc implements a member. recv is the invalid Value for static
// members; args match the member's parameters after promotion and
// params-array packing.
type CallFunc func(b Bindings, recv reflect.Value, args []reflect.Value) (reflect.Value, error)

// Method is a callable member: an instance or static method, a constructor,
// an operator, or an extension method.
type Method struct {
	Name   string
	Owner  reflect.Type
	Params []Param
	Result reflect.Type // typeVoid when nothing is returned
	Static bool
	call   CallFunc

	allowNil bool // the receiver may be nil
}

// Generic reports whether the signature mentions a placeholder type.
func (m *Method) Generic() bool {
	for _, p := range m.Params {
		if containsTypeParam(p.Type) {
			return true
		}
	}

	return containsTypeParam(m.Result)
}

func (m *Method) variadic() bool {
	return len(m.Params) > 0 && m.Params[len(m.Params)-1].Variadic
}

func (m *Method) String() string {
	var sb strings.Builder

	sb.WriteString(m.Name)
	sb.WriteByte('(')

	for i, p := range m.Params {
		if i > 0 {
			sb.WriteString(", ")
		}

		if p.Variadic {
			sb.WriteString("params ")
		}

		sb.WriteString(TypeName(p.Type))

		if p.Name != "" {
			sb.WriteString(" " + p.Name)
		}
	}

	sb.WriteByte(')')

	return sb.String()
}

// Property is a readable and optionally writable member: a struct field, a
// registered property, or a static constant.
type Property struct {
	Name   string
	Owner  reflect.Type
	Type   reflect.Type
	Static bool
	field  []int // struct field index path, when the property is a field
	get    func(recv reflect.Value) (reflect.Value, error)
	set    func(recv, v reflect.Value) error

	allowNil bool // the receiver may be nil
}

// Writable reports whether the property can be assigned.
func (p *Property) Writable() bool { return p.field != nil || p.set != nil }

// Indexer is an element accessor recv[args...].
type Indexer struct {
	Get *Method
	set func(recv reflect.Value, args []reflect.Value, v reflect.Value) error
}

// TypeInfo describes the members of a host type beyond those discovered
// through reflection: constructors, static methods and properties,
// operators, extra instance members, and indexers.
type TypeInfo struct {
	Type     reflect.Type
	ctors    []*Method
	methods  []*Method
	props    []*Property
	indexers []*Indexer
	err      error
}

// Member configures a [TypeInfo].
type Member func(*TypeInfo)

// Describe builds the descriptor of t from the given members.
func Describe(t reflect.Type, members ...Member) *TypeInfo {
	ti := &TypeInfo{Type: t}
	for _, m := range members {
		m(ti)
	}

	return ti
}

// Err returns the first error encountered while building the descriptor.
func (ti *TypeInfo) Err() error { return ti.err }

func (ti *TypeInfo) fail(err error) {
	if ti.err == nil {
		ti.err = err
	}
}

// merge returns a descriptor holding the members of both.
func (ti *TypeInfo) merge(o *TypeInfo) *TypeInfo {
	if ti == nil {
		return o
	}

	return &TypeInfo{
		Type:     ti.Type,
		ctors:    append(append([]*Method(nil), ti.ctors...), o.ctors...),
		methods:  append(append([]*Method(nil), ti.methods...), o.methods...),
		props:    append(append([]*Property(nil), ti.props...), o.props...),
		indexers: append(append([]*Indexer(nil), ti.indexers...), o.indexers...),
		err:      ti.err,
	}
}

// Constructor registers fn, whose result must be the described type (or a
// pointer to it), as a constructor.
func Constructor(fn any) Member {
	return func(ti *TypeInfo) {
		m, err := funcMethod(".ctor", fn)
		if err != nil {
			ti.fail(err)

			return
		}

		if m.Result != ti.Type {
			ti.fail(ErrInvalidType.Detail(
				"constructor of " + TypeName(ti.Type) + " returns " + TypeName(m.Result),
			))

			return
		}

		m.Owner, m.Static = ti.Type, true
		ti.ctors = append(ti.ctors, m)
	}
}

// StaticMethod registers fn as a static method. Operator overloads use the
// names op_Addition, op_Subtraction, op_Multiply, op_Division, op_Modulus,
// op_Equality, op_Inequality, op_LessThan, op_GreaterThan,
// op_LessThanOrEqual, op_GreaterThanOrEqual, op_UnaryNegation,
// op_UnaryPlus, op_LogicalNot, op_OnesComplement, op_BitwiseAnd,
// op_BitwiseOr, op_ExclusiveOr.
func StaticMethod(name string, fn any) Member {
	return func(ti *TypeInfo) {
		m, err := funcMethod(name, fn)
		if err != nil {
			ti.fail(err)

			return
		}

		m.Owner, m.Static = ti.Type, true
		ti.methods = append(ti.methods, m)
	}
}

// InstanceMethod registers fn, whose first parameter is the receiver, as an
// instance method.
func InstanceMethod(name string, fn any) Member {
	return func(ti *TypeInfo) {
		m, err := funcMethod(name, fn)
		if err != nil {
			ti.fail(err)

			return
		}

		if len(m.Params) == 0 {
			ti.fail(ErrInvalidType.Detail("instance method " + name + " has no receiver"))

			return
		}

		ti.methods = append(ti.methods, receiverMethod(m, ti.Type))
	}
}

// GenericMethod registers a static (or, with instance true, receiver-first)
// method whose signature sig mentions placeholder types. call receives the
// inferred bindings.
func GenericMethod(name string, sig reflect.Type, instance bool, call CallFunc) Member {
	return func(ti *TypeInfo) {
		m := signatureMethod(name, sig, call)
		m.Owner, m.Static = ti.Type, true

		if instance {
			m = receiverMethod(m, ti.Type)
		}

		ti.methods = append(ti.methods, m)
	}
}

// StaticProperty registers a static read-only value.
func StaticProperty(name string, value any) Member {
	return func(ti *TypeInfo) {
		v := reflect.ValueOf(value)
		if !v.IsValid() {
			v = reflect.Zero(typeObject)
		}

		ti.props = append(ti.props, &Property{
			Name:   name,
			Owner:  ti.Type,
			Type:   v.Type(),
			Static: true,
			get:    func(reflect.Value) (reflect.Value, error) { return v, nil },
		})
	}
}

// StaticGetter registers a static property computed on each read.
func StaticGetter(name string, fn any) Member {
	return func(ti *TypeInfo) {
		m, err := funcMethod(name, fn)
		if err != nil || len(m.Params) != 0 {
			ti.fail(ErrInvalidType.Detail("static getter " + name + " must take no arguments"))

			return
		}

		ti.props = append(ti.props, &Property{
			Name:   name,
			Owner:  ti.Type,
			Type:   m.Result,
			Static: true,
			get: func(reflect.Value) (reflect.Value, error) {
				return m.call(nil, reflect.Value{}, nil)
			},
		})
	}
}

// Getter registers an instance property read through fn(recv).
func Getter(name string, fn any) Member {
	return func(ti *TypeInfo) {
		m, err := funcMethod(name, fn)
		if err != nil || len(m.Params) != 1 {
			ti.fail(ErrInvalidType.Detail("getter " + name + " must take only the receiver"))

			return
		}

		ti.props = append(ti.props, &Property{
			Name:  name,
			Owner: ti.Type,
			Type:  m.Result,
			get: func(recv reflect.Value) (reflect.Value, error) {
				return m.call(nil, reflect.Value{}, []reflect.Value{recv})
			},
		})
	}
}

// IndexerOf registers get(recv, index...) as an indexer, with an optional
// set(recv, index..., value).
func IndexerOf(get any, set any) Member {
	return func(ti *TypeInfo) {
		m, err := funcMethod("get_Item", get)
		if err != nil || len(m.Params) < 2 {
			ti.fail(ErrInvalidType.Detail("indexer must take the receiver and an index"))

			return
		}

		ix := &Indexer{Get: receiverMethod(m, ti.Type)}

		if set != nil {
			sv := reflect.ValueOf(set)
			ix.set = func(recv reflect.Value, args []reflect.Value, v reflect.Value) error {
				in := append(append([]reflect.Value{recv}, args...), v)
				_, err := splitResult(sv.Call(in))

				return err
			}
		}

		ti.indexers = append(ti.indexers, ix)
	}
}

// receiverMethod turns a function whose first parameter is the receiver into
// an instance method of owner.
func receiverMethod(m *Method, owner reflect.Type) *Method {
	call := m.call

	return &Method{
		Name:   m.Name,
		Owner:  owner,
		Params: m.Params[1:],
		Result: m.Result,
		call: func(b Bindings, recv reflect.Value, args []reflect.Value) (reflect.Value, error) {
			return call(b, reflect.Value{}, append([]reflect.Value{recv}, args...))
		},
	}
}

// funcMethod wraps a Go function value. A trailing error result is returned
// as the call error; the first other result, if any, is the member result.
func funcMethod(name string, fn any) (*Method, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, ErrInvalidType.Detail(name + " is not a function").
			With(slog.String("type", reflect.TypeOf(fn).String()))
	}

	ft := fv.Type()

	m := &Method{
		Name:   name,
		Params: funcParams(ft),
		Result: funcResult(ft),
		Static: true,
	}

	m.call = func(_ Bindings, _ reflect.Value, args []reflect.Value) (reflect.Value, error) {
		return callFunc(fv, args)
	}

	return m, nil
}

// signatureMethod builds a method from a signature type and implementation.
func signatureMethod(name string, sig reflect.Type, call CallFunc) *Method {
	return &Method{
		Name:   name,
		Params: funcParams(sig),
		Result: funcResult(sig),
		Static: true,
		call:   call,
	}
}

func funcParams(ft reflect.Type) []Param {
	params := make([]Param, ft.NumIn())
	for i := range params {
		params[i] = Param{Type: ft.In(i)}
	}

	if ft.IsVariadic() {
		params[len(params)-1].Variadic = true
	}

	return params
}

func funcResult(ft reflect.Type) reflect.Type {
	for i := range ft.NumOut() {
		if out := ft.Out(i); out != typeError {
			return out
		}
	}

	return typeVoid
}

// callFunc calls fv with args already packed to its formal parameters.
func callFunc(fv reflect.Value, args []reflect.Value) (reflect.Value, error) {
	if fv.Type().IsVariadic() {
		return splitResult(fv.CallSlice(args))
	}

	return splitResult(fv.Call(args))
}

// splitResult separates the value result from a trailing error result.
func splitResult(out []reflect.Value) (reflect.Value, error) {
	var (
		res reflect.Value
		err error
	)

	for _, o := range out {
		if o.Type() == typeError {
			if !o.IsNil() {
				err, _ = o.Interface().(error)
			}

			continue
		}

		if !res.IsValid() {
			res = o
		}
	}

	if !res.IsValid() {
		res = reflect.ValueOf(void{})
	}

	return res, err
}

// reflectMethod wraps the exported method goName of t discovered through
// reflection. Calls dispatch by name so that interface receivers work.
func reflectMethod(t reflect.Type, rm reflect.Method) *Method {
	ft := rm.Type
	skip := 1

	if t.Kind() == reflect.Interface {
		skip = 0
	}

	params := make([]Param, 0, ft.NumIn()-skip)
	for i := skip; i < ft.NumIn(); i++ {
		params = append(params, Param{Type: ft.In(i)})
	}

	if ft.IsVariadic() {
		params[len(params)-1].Variadic = true
	}

	name := rm.Name

	return &Method{
		Name:   name,
		Owner:  t,
		Params: params,
		Result: funcResult(ft),
		call: func(_ Bindings, recv reflect.Value, args []reflect.Value) (reflect.Value, error) {
			return callFunc(recv.MethodByName(name), args)
		},
	}
}

// fieldProperty wraps an exported struct field (possibly promoted).
func fieldProperty(owner reflect.Type, f reflect.StructField) *Property {
	return &Property{
		Name:  f.Name,
		Owner: owner,
		Type:  f.Type,
		field: f.Index,
	}
}
