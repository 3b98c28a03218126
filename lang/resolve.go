package lang

import (
	"log/slog"
	"reflect"
	"slices"
)

// candidate is an applicable method together with its bound arguments.
type candidate struct {
	method   *Method
	args     []Node         // promoted arguments, packed to the formal parameters
	ptypes   []reflect.Type // formal type accepting each original argument
	types    []reflect.Type // static type of each original argument
	bindings Bindings
	result   reflect.Type
	expanded bool // params array filled from individual arguments
}

// resolve returns the best applicable candidates among methods for args.
// The error, if any, was produced while binding a lambda argument of a
// candidate that was otherwise applicable, and explains why none applied.
func (p *parser) resolve(methods []*Method, args []Node) ([]*candidate, error) {
	var (
		cands []*candidate
		first error
	)

	for _, m := range methods {
		for _, expanded := range []bool{false, true} {
			if expanded && !m.variadic() {
				continue
			}

			c, err := p.tryForm(m, args, expanded)
			if err != nil && first == nil {
				first = err
			}

			if c != nil {
				cands = append(cands, c)
			}
		}
	}

	if len(cands) <= 1 {
		return cands, first
	}

	var best []*candidate

	for _, c := range cands {
		wins := true

		for _, o := range cands {
			if o != c && !c.betterThan(o) {
				wins = false

				break
			}
		}

		if wins {
			best = append(best, c)
		}
	}

	if len(best) == 0 {
		return cands, nil
	}

	return best, nil
}

// pick resolves methods against args and requires a unique best candidate.
func (p *parser) pick(methods []*Method, args []Node, name string, owner reflect.Type, pos int) (*candidate, error) {
	cands, lerr := p.resolve(methods, args)

	switch len(cands) {
	case 0:
		if lerr != nil {
			return nil, lerr
		}

		return nil, noApplicableMethod(name, TypeName(owner), pos)
	case 1:
		p.trace("member resolved",
			slog.String("method", cands[0].method.String()),
			slog.String("owner", TypeName(owner)),
		)

		return cands[0], nil
	}

	return nil, ambiguousInvocation(name, TypeName(owner), pos)
}

// tryForm binds args to m in normal or expanded form. A nil candidate
// means m is not applicable.
func (p *parser) tryForm(m *Method, args []Node, expanded bool) (*candidate, error) {
	params := m.Params
	fixed := len(params)

	if expanded {
		fixed--

		if len(args) < fixed {
			return nil, nil
		}
	} else {
		if len(args) > len(params) {
			return nil, nil
		}

		for _, q := range params[len(args):] {
			if !q.HasDefault() {
				return nil, nil
			}
		}
	}

	formal := make([]reflect.Type, len(args))

	for i := range args {
		if i < fixed {
			formal[i] = params[i].Type
		} else {
			formal[i] = params[fixed].Type.Elem()
		}
	}

	generic := m.Generic()

	var b Bindings
	if generic {
		b = Bindings{}
	}

	lambdas := make([]*LambdaExpr, len(args))

	// Phase one: infer from every argument that has a type of its own.
	for i, a := range args {
		if _, ok := a.(*lambdaPlaceholder); ok {
			continue
		}

		if isVoidGroup(a) {
			return nil, nil
		}

		if generic && !b.unify(formal[i], a.Type()) {
			return nil, nil
		}
	}

	// Phase two: bind lambdas whose inputs are known, inferring their
	// results, until no further lambda can be bound.
	for {
		progress, pending := false, false

		for i, a := range args {
			ph, ok := a.(*lambdaPlaceholder)
			if !ok || lambdas[i] != nil {
				continue
			}

			lam, ready, err := p.bindLambda(ph, formal[i], b)
			if err != nil {
				return nil, err
			}

			if !ready {
				pending = true

				continue
			}

			if lam == nil {
				return nil, nil
			}

			lambdas[i], progress = lam, true
		}

		if !pending {
			break
		}

		if !progress {
			return nil, nil
		}
	}

	c := &candidate{method: m, bindings: b, expanded: expanded}
	c.ptypes = make([]reflect.Type, len(args))
	c.types = make([]reflect.Type, len(args))

	for i, a := range args {
		t, ok := b.substitute(formal[i])
		if !ok {
			return nil, nil
		}

		c.ptypes[i] = t

		if lam := lambdas[i]; lam != nil {
			if lam.Type() != t {
				ph, _ := a.(*lambdaPlaceholder)

				var err error
				if lam, err = p.lambdaFor(ph, t); err != nil {
					return nil, err
				}
			}

			c.types[i] = lam.naturalType()
			lambdas[i] = lam

			continue
		}

		c.types[i] = a.Type()
	}

	if c.result, _ = b.substitute(m.Result); c.result == nil {
		return nil, nil
	}

	bound := make([]Node, 0, len(params))

	for i := 0; i < fixed && i < len(args); i++ {
		if lambdas[i] != nil {
			bound = append(bound, lambdas[i])

			continue
		}

		n, ok := p.promote(args[i], c.ptypes[i], true)
		if !ok {
			return nil, nil
		}

		bound = append(bound, n)
	}

	if expanded {
		elem, ok := b.substitute(params[fixed].Type.Elem())
		if !ok {
			return nil, nil
		}

		items := make([]Node, 0, len(args)-fixed)

		for i := fixed; i < len(args); i++ {
			if lambdas[i] != nil {
				items = append(items, lambdas[i])

				continue
			}

			n, ok := p.promote(args[i], c.ptypes[i], true)
			if !ok {
				return nil, nil
			}

			items = append(items, n)
		}

		pos := -1
		if len(args) > fixed {
			pos = args[fixed].Pos()
		}

		bound = append(bound, &NewArray{Elem: elem, Items: items, pos: pos})
	} else {
		for _, q := range params[len(args):] {
			t, ok := b.substitute(q.Type)
			if !ok {
				return nil, nil
			}

			d, err := convertValue(q.Default, t, false)
			if err != nil {
				return nil, nil //nolint:nilerr // default not representable; not applicable
			}

			bound = append(bound, &Constant{Value: d, pos: -1})
		}
	}

	c.args = bound

	return c, nil
}

// bindLambda resolves ph against the formal type pattern once the bindings
// close its inputs. ready is false while inputs remain open; a nil lambda
// with ready set means pattern is not a suitable func type.
func (p *parser) bindLambda(ph *lambdaPlaceholder, pattern reflect.Type, b Bindings) (*LambdaExpr, bool, error) {
	if pattern.Kind() != reflect.Func || pattern.NumIn() != len(ph.params) || pattern.NumOut() > 1 {
		return nil, true, nil
	}

	in := make([]reflect.Type, pattern.NumIn())

	for i := range in {
		pt := pattern.In(i)

		// An explicitly typed lambda parameter binds an open input.
		if lp := ph.params[i]; lp.typ != nil && containsTypeParam(pt) {
			if !b.unify(pt, lp.typ) {
				return nil, true, nil
			}
		}

		t, ok := b.substitute(pt)
		if !ok {
			return nil, false, nil
		}

		in[i] = t
	}

	var out reflect.Type

	switch {
	case pattern.NumOut() == 0:
		out = typeVoid
	default:
		if t, ok := b.substitute(pattern.Out(0)); ok {
			out = t
		}
	}

	lam, err := p.resolveLambda(ph, in, out)
	if err != nil {
		return nil, true, err
	}

	if out == nil && !b.unify(pattern.Out(0), lam.Body.Type()) {
		return nil, true, nil
	}

	return lam, true, nil
}

func isVoidGroup(n Node) bool {
	g, ok := n.(*MethodGroup)

	return ok && g.Type() == typeVoid
}

// betterThan reports whether c is at least as good as o for every
// argument and strictly better for one, with ties going to the normal form
// over the expanded form and then to fewer formal parameters.
func (c *candidate) betterThan(o *candidate) bool {
	better := false

	for i, t := range c.types {
		switch compareConversions(t, c.ptypes[i], o.ptypes[i]) {
		case -1:
			return false
		case 1:
			better = true
		}
	}

	if better {
		return true
	}

	if !c.expanded && o.expanded {
		return true
	}

	if c.expanded == o.expanded {
		return len(c.method.Params) < len(o.method.Params)
	}

	return false
}

// compareConversions ranks the conversions of an argument of type s to
// parameter types t1 and t2: 1 when t1 is better, -1 when t2 is better.
func compareConversions(s, t1, t2 reflect.Type) int {
	if t1 == t2 {
		return 0
	}

	if s == t1 {
		return 1
	}

	if s == t2 {
		return -1
	}

	c12, c21 := implicitType(t1, t2), implicitType(t2, t1)

	if c12 && !c21 {
		return 1
	}

	if c21 && !c12 {
		return -1
	}

	if s != nil {
		a1, a2 := s.AssignableTo(t1), s.AssignableTo(t2)

		if a1 && !a2 {
			return 1
		}

		if a2 && !a1 {
			return -1
		}
	}

	if isSignedIntegral(t1) && isUnsignedIntegral(t2) {
		return 1
	}

	if isSignedIntegral(t2) && isUnsignedIntegral(t1) {
		return -1
	}

	return 0
}

func isSignedIntegral(t reflect.Type) bool   { return isIntegral(t) && isSigned(t) }
func isUnsignedIntegral(t reflect.Type) bool { return isIntegral(t) && isUnsigned(t) }

// constructors returns the registered constructors of t.
func (p *parser) constructors(t reflect.Type) []*Method {
	if ti := p.env.info(t); ti != nil {
		return ti.ctors
	}

	return nil
}

// member resolves "n.name" without an argument list.
func (p *parser) member(n Node, name string, pos int) (Node, error) {
	if tr, ok := n.(*typeRef); ok {
		if prop := p.findProperty(tr.typ, name, true); prop != nil {
			return &MemberAccess{Property: prop, pos: tr.pos}, nil
		}

		if len(p.findMethods(tr.typ, name, true)) > 0 {
			return nil, syntaxError(pos, "Method '"+name+"' requires an invocation")
		}

		return nil, unknownMember(name, tr.typ, pos)
	}

	n, err := p.value(n)
	if err != nil {
		return nil, err
	}

	t := n.Type()

	if err := p.checkReflection(t, pos); err != nil {
		return nil, err
	}

	if prop := p.findProperty(t, name, false); prop != nil {
		return &MemberAccess{Instance: n, Property: prop, pos: n.Pos()}, nil
	}

	if isDynamicType(t, p.set.lateBinding) {
		return p.dynamic(DynamicGetMember, name, []Node{n}, n.Pos()), nil
	}

	if len(p.findMethods(t, name, false)) > 0 {
		return nil, syntaxError(pos, "Method '"+name+"' requires an invocation")
	}

	return nil, unknownMember(name, t, pos)
}

// callMember resolves "n.name(args)".
func (p *parser) callMember(n Node, name string, args []Node, pos int) (Node, error) {
	if tr, ok := n.(*typeRef); ok {
		if methods := p.findMethods(tr.typ, name, true); len(methods) > 0 {
			c, err := p.pick(methods, args, name, tr.typ, pos)
			if err != nil {
				return nil, err
			}

			return newCall(nil, c, tr.pos), nil
		}

		if prop := p.findProperty(tr.typ, name, true); prop != nil && prop.Type.Kind() == reflect.Func {
			return p.invoke(&MemberAccess{Property: prop, pos: tr.pos}, args, pos)
		}

		return nil, noApplicableMethod(name, TypeName(tr.typ), pos)
	}

	n, err := p.value(n)
	if err != nil {
		return nil, err
	}

	t := n.Type()

	if err := p.checkReflection(t, pos); err != nil {
		return nil, err
	}

	if name == "GetType" && !p.set.reflection {
		return nil, reflectionNotAllowed(pos)
	}

	var lerr error

	if methods := p.findMethods(t, name, false); len(methods) > 0 {
		cands, err := p.resolve(methods, args)

		switch len(cands) {
		case 1:
			return newCall(n, cands[0], n.Pos()), nil
		case 0:
			lerr = err
		default:
			return nil, ambiguousInvocation(name, TypeName(t), pos)
		}
	}

	if prop := p.findProperty(t, name, false); prop != nil && prop.Type.Kind() == reflect.Func {
		return p.invoke(&MemberAccess{Instance: n, Property: prop, pos: n.Pos()}, args, pos)
	}

	if isDynamicType(t, p.set.lateBinding) {
		return p.dynamic(DynamicInvokeMember, name, append([]Node{n}, args...), n.Pos()), nil
	}

	if ext := p.env.extensionMethods(name); len(ext) > 0 {
		cands, err := p.resolve(ext, append([]Node{n}, args...))

		switch len(cands) {
		case 1:
			return newCall(nil, cands[0], n.Pos()), nil
		case 0:
			if lerr == nil {
				lerr = err
			}
		default:
			return nil, ambiguousInvocation(name, TypeName(t), pos)
		}
	}

	if lerr != nil {
		return nil, lerr
	}

	return nil, noApplicableMethod(name, TypeName(t), pos)
}

func newCall(instance Node, c *candidate, pos int) *Call {
	return &Call{
		Instance: instance,
		Method:   c.method,
		Bindings: c.bindings,
		Result:   c.result,
		Args:     c.args,
		pos:      pos,
	}
}

// invoke resolves "n(args)".
func (p *parser) invoke(n Node, args []Node, pos int) (Node, error) {
	switch f := n.(type) {
	case *MethodGroup:
		owner := typeVoid
		if len(f.Values) == 1 {
			owner = f.Values[0].Type()
		}

		c, err := p.pick(f.Methods, args, f.Name, owner, pos)
		if err != nil {
			return nil, err
		}

		return newCall(nil, c, f.pos), nil
	case *typeRef:
		return nil, syntaxError(f.pos, "'"+TypeName(f.typ)+"' is a type, which is not valid in the given context")
	}

	n, err := p.value(n)
	if err != nil {
		return nil, err
	}

	t := n.Type()

	if isDynamicType(t, p.set.lateBinding) {
		return p.dynamic(DynamicInvoke, "", append([]Node{n}, args...), n.Pos()), nil
	}

	if t.Kind() != reflect.Func {
		return nil, syntaxError(pos, "Expression of type '"+TypeName(t)+"' is not invocable")
	}

	sig := &Method{Name: "Invoke", Owner: t, Params: funcParams(t), Result: funcResult(t)}

	c, err := p.pick([]*Method{sig}, args, "Invoke", t, pos)
	if err != nil {
		return nil, err
	}

	return &Invoke{Func: n, Args: c.args, pos: n.Pos()}, nil
}

// index resolves "n[args]".
func (p *parser) index(n Node, args []Node, pos int) (Node, error) {
	n, err := p.value(n)
	if err != nil {
		return nil, err
	}

	t := n.Type()

	if isDynamicType(t, p.set.lateBinding) {
		return p.dynamic(DynamicGetIndex, "", append([]Node{n}, args...), n.Pos()), nil
	}

	if ixs := p.indexers(t); len(ixs) > 0 {
		gets := make([]*Method, len(ixs))
		for i, ix := range ixs {
			gets[i] = ix.Get
		}

		c, err := p.pick(gets, args, "this[]", t, pos)
		if err != nil {
			return nil, err
		}

		ix := ixs[slices.Index(gets, c.method)]

		return &Index{Instance: n, Indexer: ix, Args: c.args, pos: n.Pos()}, nil
	}

	kt := typeInt

	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
	case reflect.Map:
		kt = t.Key()
	default:
		return nil, syntaxError(pos, "Cannot apply indexing with [] to an expression of type '"+TypeName(t)+"'")
	}

	if len(args) != 1 {
		return nil, syntaxError(pos, "Wrong number of indexes; expected 1")
	}

	key, err := p.coerce(args[0], kt)
	if err != nil {
		return nil, err
	}

	return &Element{Instance: n, Key: key, pos: n.Pos()}, nil
}

func (p *parser) indexers(t reflect.Type) []*Indexer {
	var out []*Indexer

	p.eachInfo(t, func(ti *TypeInfo) {
		out = append(out, ti.indexers...)
	})

	return out
}

// eachInfo visits the registered descriptor of t and of its embedded bases.
func (p *parser) eachInfo(t reflect.Type, fn func(*TypeInfo)) {
	seen := map[reflect.Type]bool{}

	var walk func(reflect.Type, int)

	walk = func(t reflect.Type, depth int) {
		if depth > 8 || seen[t] {
			return
		}

		seen[t] = true

		if ti := p.env.info(t); ti != nil {
			fn(ti)
		}

		if t.Kind() == reflect.Pointer {
			if ti := p.env.info(t.Elem()); ti != nil && !seen[t.Elem()] {
				seen[t.Elem()] = true
				fn(ti)
			}
		}

		for _, f := range embeddedBases(t) {
			walk(f.Type, depth+1)
		}
	}

	walk(t, 0)
}

// findProperty returns the property name of t: a registered property, an
// exported struct field, or a built-in member of t's kind.
func (p *parser) findProperty(t reflect.Type, name string, static bool) *Property {
	var found *Property

	p.eachInfo(t, func(ti *TypeInfo) {
		for _, prop := range ti.props {
			if found == nil && prop.Static == static && p.env.equal(prop.Name, name) {
				found = prop
			}
		}
	})

	if found != nil || static {
		return found
	}

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	if st.Kind() == reflect.Struct {
		f, ok := st.FieldByNameFunc(func(s string) bool { return p.env.equal(s, name) })
		if ok && f.IsExported() {
			return fieldProperty(t, f)
		}
	}

	return p.kindProperty(t, name)
}

// findMethods returns the methods name of t from registered descriptors,
// reflection, and the built-in members common to all values.
func (p *parser) findMethods(t reflect.Type, name string, static bool) []*Method {
	var out []*Method

	p.eachInfo(t, func(ti *TypeInfo) {
		for _, m := range ti.methods {
			if m.Static == static && p.env.equal(m.Name, name) {
				out = append(out, m)
			}
		}
	})

	if static {
		return out
	}

	for i := range t.NumMethod() {
		if rm := t.Method(i); p.env.equal(rm.Name, name) {
			out = append(out, reflectMethod(t, rm))
		}
	}

	if len(out) == 0 {
		out = p.kindMethods(t, name)
	}

	return out
}

// checkReflection rejects member access on reflection values unless
// reflection is enabled.
func (p *parser) checkReflection(t reflect.Type, pos int) error {
	if p.set.reflection {
		return nil
	}

	if t == typeType || t == typeValue || (t.Kind() == reflect.Interface && t.Implements(typeType)) {
		return reflectionNotAllowed(pos)
	}

	return nil
}
