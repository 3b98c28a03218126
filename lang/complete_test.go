package lang

import (
	"reflect"
	"slices"
	"testing"
)

func TestInterpreter_LookupType(t *testing.T) {
	it := New()

	if typ, ok := it.LookupType("int"); !ok || typ != typeInt32 {
		t.Errorf("LookupType(int) = %v, %v", typ, ok)
	}

	if _, ok := it.LookupType("Nope"); ok {
		t.Error("LookupType(Nope) succeeded")
	}

	if _, ok := New(WithCaseInsensitive(true)).LookupType("MATH"); !ok {
		t.Error("case-insensitive LookupType(MATH) failed")
	}
}

func TestInterpreter_Members(t *testing.T) {
	it := New()

	tests := []struct {
		name   string
		typ    reflect.Type
		static bool
		want   []string
		absent []string
	}{
		{"struct", reflect.TypeFor[point](), false, []string{"X", "Y", "Kind", "Scale", "ToString"}, []string{"Length"}},
		{"string", typeString, false, []string{"Length", "ToUpper", "Where"}, []string{"HasValue"}},
		{"slice", reflect.TypeFor[[]int32](), false, []string{"Length", "Count", "Sum", "Where"}, []string{"ToUpper"}},
		{"nullable", reflect.TypeFor[*int32](), false, []string{"HasValue", "Value", "GetValueOrDefault"}, nil},
		{"map", reflect.TypeFor[map[string]int32](), false, []string{"Count", "ContainsKey"}, nil},
		{"static", typeMath, true, []string{"Abs", "Max", "PI"}, []string{"ToString"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := it.Members(tt.typ, tt.static)

			if !slices.IsSorted(got) {
				t.Errorf("members not sorted: %v", got)
			}

			for _, name := range tt.want {
				if !slices.Contains(got, name) {
					t.Errorf("missing %q in %v", name, got)
				}
			}

			for _, name := range tt.absent {
				if slices.Contains(got, name) {
					t.Errorf("unexpected %q in %v", name, got)
				}
			}
		})
	}

	if slices.Contains(it.Members(typeInt32, false), "GetType") {
		t.Error("GetType listed without reflection")
	}

	if !slices.Contains(New(WithReflection(true)).Members(typeInt32, false), "GetType") {
		t.Error("GetType not listed with reflection")
	}
}

func TestInterpreter_Signatures(t *testing.T) {
	it := New(WithFunction("twice", func(x int32) int32 { return x * 2 }, func(s string) string { return s + s }))

	if got := it.Signatures(typeMath, "Abs", true); len(got) < 2 {
		t.Errorf("Math.Abs overloads = %d", len(got))
	}

	if got := it.Signatures(nil, "twice", false); len(got) != 2 {
		t.Errorf("twice overloads = %d", len(got))
	}

	got := it.Signatures(reflect.TypeFor[[]int32](), "Where", false)
	if len(got) == 0 {
		t.Fatal("no Where overloads for a slice")
	}

	if got[0].Name != "Where" || len(got[0].Params) < 2 {
		t.Errorf("Where = %v", got[0])
	}

	if got := it.Signatures(nil, "missing", false); got != nil {
		t.Errorf("missing = %v", got)
	}
}
