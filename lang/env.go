package lang

import (
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Parameter is a declared input of an expression. On invocation Value
// carries the argument; after evaluation it holds the parameter's final
// value, which differs from the argument only when the expression assigned
// to it.
type Parameter struct {
	Value any
	Type  reflect.Type
	Name  string
}

// NewParameter declares a parameter of the given type.
func NewParameter(name string, typ reflect.Type) *Parameter {
	return &Parameter{Name: name, Type: typ}
}

// Arg declares a parameter whose type is the dynamic type of value
// (object when value is nil) and whose value on invocation is value.
func Arg(name string, value any) *Parameter {
	t := reflect.TypeOf(value)
	if t == nil {
		t = typeObject
	}

	return &Parameter{Name: name, Type: t, Value: value}
}

// declaredType returns the type of p, falling back to the dynamic type of
// its value like [Arg].
func (p *Parameter) declaredType() reflect.Type {
	if p.Type != nil {
		return p.Type
	}

	if t := reflect.TypeOf(p.Value); t != nil {
		return t
	}

	return typeObject
}

// ReferenceType binds a name to a host type.
type ReferenceType struct {
	Name string
	Type reflect.Type
}

// GenericType is a generic type definition instantiated by name with type
// arguments, e.g. List<int>. Arity < 0 accepts one or more arguments.
type GenericType struct {
	Make  func(args []reflect.Type) (reflect.Type, error)
	Name  string
	Arity int
}

// Identifier binds a name to an expression: a constant value or a group of
// function overloads.
type Identifier struct {
	Expr Node
	Name string
}

// Environment resolves names during a parse: known types, generic type
// definitions, identifiers, declared parameters, and extension methods. It
// records which of them the expression uses.
//
// The maps of a base environment are read-only once an [Interpreter] is
// built; each parse works on a scope that adds parameters and usage
// tracking, so concurrent parses never write shared state.
type Environment struct {
	types      map[string]*ReferenceType
	generics   map[string]*GenericType
	idents     map[string]*Identifier
	infos      map[reflect.Type]*TypeInfo
	extensions map[string][]*Method
	parent     *Environment
	usage      *usage
	params     []*Parameter
	used       []*Parameter // parameters of this scope, in use order
	fold       bool
}

// usage collects the types and identifiers referenced by an expression and
// all of its lambda bodies.
type usage struct {
	typeSet  map[string]bool
	types    []*ReferenceType
	identSet map[string]bool
	idents   []*Identifier
}

// NewEnvironment returns an empty environment.
func NewEnvironment(caseInsensitive bool) *Environment {
	return &Environment{
		types:      make(map[string]*ReferenceType),
		generics:   make(map[string]*GenericType),
		idents:     make(map[string]*Identifier),
		infos:      make(map[reflect.Type]*TypeInfo),
		extensions: make(map[string][]*Method),
		fold:       caseInsensitive,
	}
}

// key normalizes a name for lookup.
func (e *Environment) key(name string) string {
	if e.fold {
		return cases.Fold().String(name)
	}

	return name
}

func (e *Environment) equal(a, b string) bool {
	if e.fold {
		return strings.EqualFold(a, b)
	}

	return a == b
}

// clone deep-copies the registration maps and the declared parameters.
func (e *Environment) clone() *Environment {
	c := &Environment{
		types:      maps.Clone(e.types),
		generics:   maps.Clone(e.generics),
		idents:     maps.Clone(e.idents),
		infos:      maps.Clone(e.infos),
		extensions: make(map[string][]*Method, len(e.extensions)),
		params:     slices.Clone(e.params),
		fold:       e.fold,
	}

	for k, v := range e.extensions {
		c.extensions[k] = slices.Clone(v)
	}

	return c
}

// refold rebuilds the lookup keys after changing case sensitivity.
func (e *Environment) refold(caseInsensitive bool) {
	if e.fold == caseInsensitive {
		return
	}

	e.fold = caseInsensitive

	types, generics, idents := e.types, e.generics, e.idents
	exts := e.extensions

	e.types = make(map[string]*ReferenceType, len(types))
	for _, rt := range types {
		e.types[e.key(rt.Name)] = rt
	}

	e.generics = make(map[string]*GenericType, len(generics))
	for _, g := range generics {
		e.generics[e.key(g.Name)] = g
	}

	e.idents = make(map[string]*Identifier, len(idents))
	for _, id := range idents {
		e.idents[e.key(id.Name)] = id
	}

	e.extensions = make(map[string][]*Method, len(exts))
	for _, ms := range exts {
		for _, m := range ms {
			k := e.key(m.Name)
			e.extensions[k] = append(e.extensions[k], m)
		}
	}
}

// scope returns a parse scope over e with the given declared parameters.
func (e *Environment) scope(params []*Parameter) (*Environment, error) {
	s := *e
	s.parent = nil
	s.params = nil
	s.used = nil
	s.usage = &usage{typeSet: map[string]bool{}, identSet: map[string]bool{}}

	if err := s.declare(params...); err != nil {
		return nil, err
	}

	return &s, nil
}

// child returns a nested scope for a lambda body. Parameters not declared
// by the lambda fall through to the enclosing scope, and usage of types and
// identifiers accumulates in the shared record.
func (e *Environment) child(params []*Parameter) (*Environment, error) {
	c := *e
	c.parent = e
	c.params = nil
	c.used = nil

	if err := c.declare(params...); err != nil {
		return nil, err
	}

	return &c, nil
}

// snapshot returns an independent scope for binding at evaluation time.
func (e *Environment) snapshot() *Environment {
	c := *e
	c.used = nil
	c.usage = &usage{typeSet: map[string]bool{}, identSet: map[string]bool{}}

	if e.parent != nil {
		c.parent = e.parent.snapshot()
	}

	return &c
}

func (e *Environment) declare(params ...*Parameter) error {
	for _, p := range params {
		for _, q := range e.params {
			if e.equal(p.Name, q.Name) {
				return duplicateParameter(p.Name)
			}
		}

		e.params = append(e.params, p)
	}

	return nil
}

// AddType registers a named host type. Instantiated generic types must be
// registered as definitions with [Environment.AddGenericType].
func (e *Environment) AddType(name string, t reflect.Type) error {
	if t == nil {
		return ErrInvalidType.Detail("type " + name + " is nil")
	}

	if strings.ContainsRune(t.Name(), '[') {
		return ErrInvalidType.
			Detail("generic types must be registered as generic definitions").
			With(slog.String("name", name), slog.String("type", t.String()))
	}

	e.types[e.key(name)] = &ReferenceType{Name: name, Type: t}

	return nil
}

// AddGenericType registers a generic type definition.
func (e *Environment) AddGenericType(g *GenericType) {
	e.generics[e.key(g.Name)] = g
}

// AddTypeInfo registers (or extends) the member descriptor of a type.
func (e *Environment) AddTypeInfo(ti *TypeInfo) error {
	if err := ti.Err(); err != nil {
		return err
	}

	e.infos[ti.Type] = e.infos[ti.Type].merge(ti)

	return nil
}

// AddIdentifier binds name to an expression node.
func (e *Environment) AddIdentifier(name string, expr Node) {
	if g, ok := expr.(*MethodGroup); ok {
		if prev, ok := e.idents[e.key(name)]; ok {
			if pg, ok := prev.Expr.(*MethodGroup); ok {
				expr = &MethodGroup{
					Name:    g.Name,
					Methods: append(slices.Clone(pg.Methods), g.Methods...),
					Values:  append(slices.Clone(pg.Values), g.Values...),
				}
			}
		}
	}

	e.idents[e.key(name)] = &Identifier{Name: name, Expr: expr}
}

// AddExtension registers extension methods; the first parameter of each is
// the receiver.
func (e *Environment) AddExtension(ms ...*Method) {
	for _, m := range ms {
		k := e.key(m.Name)
		e.extensions[k] = append(e.extensions[k], m)
	}
}

func (e *Environment) resolveType(name string) (*ReferenceType, bool) {
	rt, ok := e.types[e.key(name)]
	if ok {
		e.usage.noteType(rt)
	}

	return rt, ok
}

func (e *Environment) resolveGenericType(name string) (*GenericType, bool) {
	g, ok := e.generics[e.key(name)]

	return g, ok
}

func (e *Environment) resolveIdentifier(name string) (*Identifier, bool) {
	id, ok := e.idents[e.key(name)]
	if ok {
		e.usage.noteIdent(id)
	}

	return id, ok
}

// resolveParameter finds a declared parameter, marking it used in the scope
// that declares it.
func (e *Environment) resolveParameter(name string) (*Parameter, bool) {
	for _, p := range e.params {
		if e.equal(p.Name, name) {
			if !slices.Contains(e.used, p) {
				e.used = append(e.used, p)
			}

			return p, true
		}
	}

	if e.parent != nil {
		return e.parent.resolveParameter(name)
	}

	return nil, false
}

func (e *Environment) extensionMethods(name string) []*Method {
	return e.extensions[e.key(name)]
}

func (e *Environment) info(t reflect.Type) *TypeInfo { return e.infos[t] }

// usedParameters returns the used declared parameters in declaration order.
func (e *Environment) usedParameters() []*Parameter {
	var out []*Parameter

	for _, p := range e.params {
		if slices.Contains(e.used, p) {
			out = append(out, p)
		}
	}

	return out
}

// KnownTypes returns the names of all registered types and generic
// definitions, sorted.
func (e *Environment) KnownTypes() []string {
	names := make([]string, 0, len(e.types)+len(e.generics))
	for _, rt := range e.types {
		names = append(names, rt.Name)
	}

	for _, g := range e.generics {
		if !slices.Contains(names, g.Name) {
			names = append(names, g.Name)
		}
	}

	slices.Sort(names)

	return names
}

// Identifiers returns the names of all registered identifiers, sorted.
func (e *Environment) Identifiers() []string {
	names := make([]string, 0, len(e.idents))
	for _, id := range e.idents {
		names = append(names, id.Name)
	}

	slices.Sort(names)

	return names
}

func (u *usage) noteType(rt *ReferenceType) {
	if u == nil || u.typeSet[rt.Name] {
		return
	}

	u.typeSet[rt.Name] = true
	u.types = append(u.types, rt)
}

func (u *usage) noteIdent(id *Identifier) {
	if u == nil || u.identSet[id.Name] {
		return
	}

	u.identSet[id.Name] = true
	u.idents = append(u.idents, id)
}
