package lang

import (
	"maps"
	"reflect"
)

// unify matches pattern against the closed type actual, recording bindings
// for the placeholders it reaches. A placeholder already bound to a
// different type keeps its binding when actual promotes to it, and is
// widened when the binding promotes to actual.
func (b Bindings) unify(pattern, actual reflect.Type) bool {
	if actual == nil || actual == typeNull || actual == typeVoid {
		return true
	}

	if isTypeParam(pattern) {
		prev, ok := b[pattern]

		switch {
		case !ok:
			b[pattern] = actual
		case prev == actual, implicitType(actual, prev):
		case implicitType(prev, actual):
			b[pattern] = actual
		default:
			return false
		}

		return true
	}

	if !containsTypeParam(pattern) {
		return true
	}

	if b.unifyShape(pattern, actual) {
		return true
	}

	// Walk the embedded base chain: a *Derived argument can bind a pattern
	// written against one of its bases.
	for _, f := range embeddedBases(actual) {
		ft := f.Type
		if actual.Kind() == reflect.Pointer && ft.Kind() != reflect.Pointer {
			ft = reflect.PointerTo(ft)
		}

		if b.unifyShape(pattern, ft) {
			return true
		}
	}

	return false
}

func (b Bindings) unifyShape(pattern, actual reflect.Type) bool {
	switch pattern.Kind() {
	case reflect.Slice:
		if actual.Kind() == reflect.Slice || actual.Kind() == reflect.Array {
			return b.unify(pattern.Elem(), actual.Elem())
		}
	case reflect.Array:
		if actual.Kind() == reflect.Array && actual.Len() == pattern.Len() {
			return b.unify(pattern.Elem(), actual.Elem())
		}
	case reflect.Pointer:
		if actual.Kind() == reflect.Pointer {
			return b.unify(pattern.Elem(), actual.Elem())
		}

		if !isNilable(actual) {
			return b.unify(pattern.Elem(), actual)
		}
	case reflect.Map:
		if actual.Kind() == reflect.Map {
			return b.unify(pattern.Key(), actual.Key()) &&
				b.unify(pattern.Elem(), actual.Elem())
		}
	case reflect.Chan:
		if actual.Kind() == reflect.Chan {
			return b.unify(pattern.Elem(), actual.Elem())
		}
	case reflect.Func:
		if pe, ok := seqElem(pattern); ok {
			if ae, ok := enumElem(actual); ok {
				return b.unify(pe, ae)
			}

			return false
		}

		if actual.Kind() != reflect.Func ||
			actual.NumIn() != pattern.NumIn() || actual.NumOut() != pattern.NumOut() {
			return false
		}

		for i := range pattern.NumIn() {
			if !b.unify(pattern.In(i), actual.In(i)) {
				return false
			}
		}

		for i := range pattern.NumOut() {
			if !b.unify(pattern.Out(i), actual.Out(i)) {
				return false
			}
		}

		return true
	}

	return false
}

// substitute replaces the placeholders of pattern with their bindings. It
// reports false when a placeholder is unbound or a substituted map key is
// not comparable.
func (b Bindings) substitute(pattern reflect.Type) (reflect.Type, bool) {
	if pattern == nil || !containsTypeParam(pattern) {
		return pattern, true
	}

	if isTypeParam(pattern) {
		t, ok := b[pattern]

		return t, ok
	}

	switch pattern.Kind() {
	case reflect.Pointer:
		e, ok := b.substitute(pattern.Elem())
		if !ok {
			return nil, false
		}

		return reflect.PointerTo(e), true
	case reflect.Slice:
		e, ok := b.substitute(pattern.Elem())
		if !ok {
			return nil, false
		}

		return reflect.SliceOf(e), true
	case reflect.Array:
		e, ok := b.substitute(pattern.Elem())
		if !ok {
			return nil, false
		}

		return reflect.ArrayOf(pattern.Len(), e), true
	case reflect.Chan:
		e, ok := b.substitute(pattern.Elem())
		if !ok {
			return nil, false
		}

		return reflect.ChanOf(pattern.ChanDir(), e), true
	case reflect.Map:
		k, ok := b.substitute(pattern.Key())
		if !ok || !k.Comparable() {
			return nil, false
		}

		e, ok := b.substitute(pattern.Elem())
		if !ok {
			return nil, false
		}

		return reflect.MapOf(k, e), true
	case reflect.Func:
		in := make([]reflect.Type, pattern.NumIn())
		for i := range in {
			t, ok := b.substitute(pattern.In(i))
			if !ok {
				return nil, false
			}

			in[i] = t
		}

		out := make([]reflect.Type, pattern.NumOut())
		for i := range out {
			t, ok := b.substitute(pattern.Out(i))
			if !ok {
				return nil, false
			}

			out[i] = t
		}

		return reflect.FuncOf(in, out, pattern.IsVariadic()), true
	}

	return nil, false
}

func (b Bindings) clone() Bindings {
	if b == nil {
		return Bindings{}
	}

	return maps.Clone(b)
}
