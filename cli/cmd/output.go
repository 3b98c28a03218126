package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/aexpr/lang"
)

// Output formats of evaluation results and check reports.
const (
	outputNative = "native"
	outputJSON   = "json"
	outputYAML   = "yaml"
)

// writeValue writes v to w in format. Sequences are collected into slices
// first so that JSON and YAML see their elements.
func writeValue(ctx context.Context, w io.Writer, format string, v any) error {
	v = materialize(v)

	var err error

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	case outputYAML:
		var b []byte

		b, err = yaml.MarshalContext(ctx, v)
		if err == nil {
			_, err = w.Write(b)
		}
	default:
		_, err = fmt.Fprintln(w, native(v))
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// native renders v as ToString would, except that null is "null" and
// slices list their elements.
func native(v any) string {
	rv := reflect.ValueOf(v)

	switch {
	case v == nil:
		return "null"
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8,
		rv.Kind() == reflect.Array:
		s := "["

		for i := range rv.Len() {
			if i > 0 {
				s += ", "
			}

			s += native(rv.Index(i).Interface())
		}

		return s + "]"
	case rv.Kind() == reflect.Pointer && rv.IsNil():
		return "null"
	default:
		return lang.Stringify(v)
	}
}

// materialize replaces sequence values, funcs of the form
// func(yield func(E) bool), with slices of their elements, recursively
// through slices and maps.
func materialize(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Func:
		t := rv.Type()
		if rv.IsNil() || t.NumIn() != 1 || t.NumOut() != 0 {
			return v
		}

		yt := t.In(0)
		if yt.Kind() != reflect.Func || yt.NumIn() != 1 || yt.NumOut() != 1 || yt.Out(0).Kind() != reflect.Bool {
			return v
		}

		var out []any

		yield := reflect.MakeFunc(yt, func(args []reflect.Value) []reflect.Value {
			out = append(out, materialize(args[0].Interface()))

			return []reflect.Value{reflect.ValueOf(true)}
		})
		rv.Call([]reflect.Value{yield})

		return out
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Interface && rv.Type().Elem().Kind() != reflect.Func {
			return v
		}

		out := make([]any, rv.Len())
		for i := range out {
			out[i] = materialize(rv.Index(i).Interface())
		}

		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}

		out := make(map[string]any, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = materialize(iter.Value().Interface())
		}

		return out
	default:
		return v
	}
}
