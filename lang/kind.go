package lang

import (
	"reflect"
	"unicode/utf8"
)

// kindProperty returns the built-in property name of values of t's kind:
// Length of strings and arrays, Count of collections, and HasValue and Value
// of nullables.
func (p *parser) kindProperty(t reflect.Type, name string) *Property {
	getter := func(pt reflect.Type, allowNil bool, get func(reflect.Value) (reflect.Value, error)) *Property {
		return &Property{Name: name, Owner: t, Type: pt, get: get, allowNil: allowNil}
	}

	if elem, ok := nullableElem(t); ok {
		switch {
		case p.env.equal(name, "HasValue"):
			return getter(typeBool, true, func(v reflect.Value) (reflect.Value, error) {
				return reflect.ValueOf(!isNilValue(v)), nil
			})
		case p.env.equal(name, "Value"):
			return getter(elem, true, func(v reflect.Value) (reflect.Value, error) {
				if isNilValue(v) {
					return reflect.Value{}, evalError(ErrInvalidOperation,
						"Nullable object must have a value")
				}

				return v.Elem(), nil
			})
		}

		return nil
	}

	switch t.Kind() {
	case reflect.String:
		if p.env.equal(name, "Length") {
			return getter(typeInt32, false, func(v reflect.Value) (reflect.Value, error) {
				return reflect.ValueOf(int32(utf8.RuneCountInString(v.String()))), nil
			})
		}
	case reflect.Slice, reflect.Array:
		if p.env.equal(name, "Length") || p.env.equal(name, "Count") {
			return getter(typeInt32, false, func(v reflect.Value) (reflect.Value, error) {
				return reflect.ValueOf(int32(v.Len())), nil
			})
		}
	case reflect.Map:
		if p.env.equal(name, "Count") {
			return getter(typeInt32, false, func(v reflect.Value) (reflect.Value, error) {
				return reflect.ValueOf(int32(v.Len())), nil
			})
		}
	}

	return nil
}

// kindMethods returns the built-in methods name of values of t: the
// members common to every value, plus ContainsKey of maps and
// GetValueOrDefault of nullables.
func (p *parser) kindMethods(t reflect.Type, name string) []*Method {
	method := func(params []Param, result reflect.Type, allowNil bool, call CallFunc) []*Method {
		return []*Method{{
			Name:     name,
			Owner:    t,
			Params:   params,
			Result:   result,
			call:     call,
			allowNil: allowNil,
		}}
	}

	_, nullable := nullableElem(t)

	switch {
	case p.env.equal(name, "ToString"):
		return method(nil, typeString, nullable,
			func(_ Bindings, recv reflect.Value, _ []reflect.Value) (reflect.Value, error) {
				return reflect.ValueOf(stringify(recv)), nil
			})
	case p.env.equal(name, "Equals"):
		return method([]Param{{Name: "obj", Type: typeObject}}, typeBool, nullable,
			func(_ Bindings, recv reflect.Value, args []reflect.Value) (reflect.Value, error) {
				return reflect.ValueOf(equalValues(recv, args[0])), nil
			})
	case p.env.equal(name, "GetType"):
		return method(nil, typeType, false,
			func(_ Bindings, recv reflect.Value, _ []reflect.Value) (reflect.Value, error) {
				return reflect.ValueOf(unbox(recv).Type()), nil
			})
	}

	if elem, ok := nullableElem(t); ok && p.env.equal(name, "GetValueOrDefault") {
		return append(
			method(nil, elem, true,
				func(_ Bindings, recv reflect.Value, _ []reflect.Value) (reflect.Value, error) {
					if isNilValue(recv) {
						return reflect.Zero(elem), nil
					}

					return recv.Elem(), nil
				}),
			method([]Param{{Name: "defaultValue", Type: elem}}, elem, true,
				func(_ Bindings, recv reflect.Value, args []reflect.Value) (reflect.Value, error) {
					if isNilValue(recv) {
						return args[0], nil
					}

					return recv.Elem(), nil
				})...,
		)
	}

	if t.Kind() == reflect.Map && p.env.equal(name, "ContainsKey") {
		return method([]Param{{Name: "key", Type: t.Key()}}, typeBool, false,
			func(_ Bindings, recv reflect.Value, args []reflect.Value) (reflect.Value, error) {
				return reflect.ValueOf(recv.MapIndex(args[0]).IsValid()), nil
			})
	}

	return nil
}
