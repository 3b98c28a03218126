package lang

import (
	"context"
	"reflect"
	"slices"
)

// LookupType returns the host type registered under name.
func (it *Interpreter) LookupType(name string) (reflect.Type, bool) {
	rt, ok := it.env.types[it.env.key(name)]
	if !ok {
		return nil, false
	}

	return rt.Type, true
}

// Members returns the sorted names of the properties and methods an
// expression can access on a value of type t, or on the type itself when
// static is set. Extension methods are listed for instance access.
func (it *Interpreter) Members(t reflect.Type, static bool) []string {
	if t == nil {
		return nil
	}

	p := it.lookupParser()
	seen := map[string]bool{}

	var names []string

	add := func(name string) {
		if k := it.env.key(name); !seen[k] {
			seen[k] = true
			names = append(names, name)
		}
	}

	p.eachInfo(t, func(ti *TypeInfo) {
		for _, prop := range ti.props {
			if prop.Static == static {
				add(prop.Name)
			}
		}

		for _, m := range ti.methods {
			if m.Static == static {
				add(m.Name)
			}
		}
	})

	if static {
		slices.Sort(names)

		return names
	}

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	if st.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(st) {
			if f.IsExported() && !f.Anonymous {
				add(f.Name)
			}
		}
	}

	for i := range t.NumMethod() {
		add(t.Method(i).Name)
	}

	for _, name := range []string{"Length", "Count", "HasValue", "Value"} {
		if p.kindProperty(t, name) != nil {
			add(name)
		}
	}

	for _, name := range []string{"ContainsKey", "GetValueOrDefault", "ToString", "Equals"} {
		if len(p.kindMethods(t, name)) > 0 {
			add(name)
		}
	}

	if it.set.reflection {
		add("GetType")
	}

	for _, group := range it.env.extensions {
		for _, m := range group {
			if extensionApplies(m, t) {
				add(m.Name)

				break
			}
		}
	}

	slices.Sort(names)

	return names
}

// Signatures returns the overloads of method name on t (static or instance),
// or of the function identifier name when t is nil.
func (it *Interpreter) Signatures(t reflect.Type, name string, static bool) []*Method {
	if t == nil {
		id, ok := it.env.idents[it.env.key(name)]
		if !ok {
			return nil
		}

		if g, ok := id.Expr.(*MethodGroup); ok {
			return slices.Clone(g.Methods)
		}

		return nil
	}

	out := it.lookupParser().findMethods(t, name, static)

	if !static {
		for _, m := range it.env.extensionMethods(name) {
			if extensionApplies(m, t) {
				out = append(out, m)
			}
		}
	}

	return out
}

// lookupParser returns a parser over the base environment for member
// lookups that never read source text.
func (it *Interpreter) lookupParser() *parser {
	return newParser(context.Background(), newLexer(""), it.env, &it.set)
}

// extensionApplies reports whether t can be the receiver of extension m.
func extensionApplies(m *Method, t reflect.Type) bool {
	if len(m.Params) == 0 {
		return false
	}

	recv := m.Params[0].Type

	if e, ok := seqElem(recv); ok {
		te, ok := enumElem(t)

		return ok && (containsTypeParam(e) || te == e)
	}

	if containsTypeParam(recv) {
		return true
	}

	return t.AssignableTo(recv)
}
