package cmd

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestNative(t *testing.T) {
	var nilPtr *int32

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"nil_pointer", nilPtr, "null"},
		{"int", int32(5), "5"},
		{"string", "s", "s"},
		{"bool", true, "true"},
		{"slice", []int32{1, 2}, "[1, 2]"},
		{"nested", []any{[]string{"a"}, nil}, "[[a], null]"},
		{"empty", []string{}, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := native(tt.in); got != tt.want {
				t.Errorf("native(%#v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaterialize(t *testing.T) {
	seq := func(yield func(int32) bool) {
		for i := int32(1); i <= 3; i++ {
			if !yield(i) {
				return
			}
		}
	}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"scalar", int32(1), int32(1)},
		{"sequence", seq, []any{int32(1), int32(2), int32(3)}},
		{"slice_of_sequences", []any{seq}, []any{[]any{int32(1), int32(2), int32(3)}}},
		{"map", map[string]any{"s": seq}, map[string]any{"s": []any{int32(1), int32(2), int32(3)}}},
		{"typed_slice", []int32{1}, []int32{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := materialize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("materialize = %#v, want %#v", got, tt.want)
			}
		})
	}

	fn := func(int32) int32 { return 0 }
	if got := materialize(fn); reflect.ValueOf(got).Pointer() != reflect.ValueOf(fn).Pointer() {
		t.Error("materialize changed a non-sequence func")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriteValue(t *testing.T) {
	var buf bytes.Buffer

	if err := writeValue(t.Context(), &buf, outputJSON, map[string]any{"a": int32(1)}); err != nil {
		t.Fatalf("writeValue: %v", err)
	}

	if got, want := buf.String(), "{\n  \"a\": 1\n}\n"; got != want {
		t.Errorf("json = %q, want %q", got, want)
	}

	if err := writeValue(t.Context(), failWriter{}, outputNative, 1); !errors.Is(err, ErrWriteOutput) {
		t.Errorf("err = %v, want %v", err, ErrWriteOutput)
	}
}
