package lang

import (
	"errors"
	"reflect"
	"testing"
)

func dyn(name string, value any) *Parameter {
	p := NewParameter(name, reflect.TypeFor[Dynamic]())
	p.Value = value

	return p
}

func obj(name string, value any) *Parameter {
	p := NewParameter(name, typeObject)
	p.Value = value

	return p
}

func TestDynamic_Operations(t *testing.T) {
	tests := []struct {
		text  string
		value any
		want  any
	}{
		{"d * 3", int32(2), int32(6)},
		{"d + 0.5", int32(2), 2.5},
		{`d + "!"`, "hi", "hi!"},
		{"-d", int64(4), int64(-4)},
		{"d.ToUpper()", "abc", "ABC"},
		{"d.Length", "abc", int32(3)},
		{"d[1]", []int32{1, 2, 3}, int32(2)},
		{"d.Count", []int32{1, 2, 3}, int32(3)},
		{`d["k"]`, map[string]int32{"k": 7}, int32(7)},
		{"d.k", map[string]int32{"k": 7}, int32(7)},
		{"d.Qty * 2", order{Qty: 3}, int32(6)},
		{"d.Where(x => x > 2).Count()", []int32{1, 5, 9}, int32(2)},
		{"d == null", nil, true},
	}

	it := New()

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := evalText(t, it, tt.text, dyn("d", tt.value))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDynamic_RebindsPerValue(t *testing.T) {
	l := New().MustParse(t.Context(), "d + d", dyn("d", nil))

	tests := []struct {
		value any
		want  any
	}{
		{int32(2), int32(4)},
		{"ab", "abab"},
		{1.5, 3.0},
	}

	for _, tt := range tests {
		got, err := l.Invoke(t.Context(), dyn("d", tt.value))
		if err != nil {
			t.Fatalf("Invoke(%#v): %v", tt.value, err)
		}

		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Invoke(%#v) = %#v, want %#v", tt.value, got, tt.want)
		}
	}
}

func TestDynamic_Errors(t *testing.T) {
	tests := []struct {
		text  string
		value any
		want  *Error
	}{
		{"d.X", nil, ErrNullReference},
		{"d.Missing", order{}, ErrUnknownIdentifier},
		{"d.Frob()", "s", ErrNoApplicableMethod},
		{`d - "x"`, int32(1), ErrTypeConversion},
	}

	it := New()

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			l, err := it.Parse(t.Context(), tt.text, dyn("d", nil))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			if _, err := l.Invoke(t.Context(), dyn("d", tt.value)); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDynamic_MapAssignment(t *testing.T) {
	m := map[string]any{"n": int32(1)}

	if got := evalText(t, New(), "d.n = 5", dyn("d", m)); got != int32(5) {
		t.Errorf("got %#v, want 5", got)
	}

	if m["n"] != int32(5) {
		t.Errorf("map entry = %#v, want 5", m["n"])
	}
}

func TestObject_RequiresLateBinding(t *testing.T) {
	v := NewParameter("v", reflect.TypeFor[any]())

	if _, err := New().Parse(t.Context(), "v.Qty", v); !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("got %v, want ErrUnknownIdentifier", err)
	}

	if _, err := New(WithLateBinding(true)).Parse(t.Context(), "v.Qty", v); err != nil {
		t.Fatalf("late binding: %v", err)
	}
}

func TestDynamic_StaticMembersFirst(t *testing.T) {
	kind := Getter("Kind", func(v any) string { return reflect.TypeOf(v).Kind().String() })

	tests := []struct {
		name  string
		it    *Interpreter
		param *Parameter
		text  string
		want  any
		node  Node
	}{
		{"dynamic method", New(), dyn("d", int32(5)), "d.ToString()", "5", (*Call)(nil)},
		{"dynamic equals", New(), dyn("d", int32(5)), "d.Equals(5)", true, (*Call)(nil)},
		{"dynamic fallback", New(), dyn("d", "abc"), "d.ToUpper()", "ABC", (*DynamicOp)(nil)},
		{
			"object property",
			New(WithLateBinding(true), WithTypeInfo(Describe(typeObject, kind))),
			obj("v", "abc"), "v.Kind", "string", (*MemberAccess)(nil),
		},
		{
			"object fallback",
			New(WithLateBinding(true), WithTypeInfo(Describe(typeObject, kind))),
			obj("v", order{Qty: 4}), "v.Qty", int32(4), (*DynamicOp)(nil),
		},
		{"object method", New(WithLateBinding(true)), obj("v", int32(7)), "v.ToString()", "7", (*Call)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := tt.it.Parse(t.Context(), tt.text, tt.param)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			if got, want := reflect.TypeOf(l.Expression()), reflect.TypeOf(tt.node); got != want {
				t.Errorf("%s resolved to %v, want %v", tt.text, got, want)
			}

			got, err := l.Invoke(t.Context())
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}
