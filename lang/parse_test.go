package lang

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestParse_ReturnType(t *testing.T) {
	tests := []struct {
		text string
		want reflect.Type
	}{
		{"1", typeInt32},
		{"1 + 1L", typeInt64},
		{"1.5", typeFloat64},
		{"1.5m", typeDecimal},
		{`"s"`, typeString},
		{"'c'", typeChar},
		{"1 < 2", typeBool},
		{"new int[] { 1 }", reflect.TypeFor[[]int32]()},
		{"new List<string>()", reflect.TypeFor[[]string]()},
		{"new Dictionary<string, double>()", reflect.TypeFor[map[string]float64]()},
		{"DateTime.Now", typeTime},
		{"TimeSpan.FromSeconds(1)", typeDuration},
	}

	it := New()

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			l, err := it.Parse(t.Context(), tt.text)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			if l.ReturnType() != tt.want {
				t.Errorf("got %v, want %v", l.ReturnType(), tt.want)
			}
		})
	}
}

func TestParse_UnknownIdentifier(t *testing.T) {
	_, err := New().Parse(t.Context(), "x + y", Arg("x", 10.0))
	if !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("got %v, want ErrUnknownIdentifier", err)
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("got %T, want *Error", err)
	}

	if e.Position() != 4 {
		t.Errorf("position = %d, want 4", e.Position())
	}

	if name, _ := e.Attr("name"); name.String() != "y" {
		t.Errorf("name = %q, want y", name.String())
	}

	if got := err.Error(); got != "Unknown identifier 'y' (at index 4)." {
		t.Errorf("message = %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts []Option
		want *Error
	}{
		{"empty", "", nil, ErrSyntax},
		{"dangling operator", "1 +", nil, ErrSyntax},
		{"trailing token", "1 2", nil, ErrSyntax},
		{"unclosed paren", "(1 + 2", nil, ErrSyntax},
		{"type as value", "int", nil, ErrSyntax},
		{"bad operands", `1 - "a"`, nil, ErrTypeConversion},
		{"bad condition", `1 ? 2 : 3`, nil, ErrTypeConversion},
		{"unrelated branches", `true ? 1 : "a"`, nil, ErrTypeConversion},
		{"impossible cast", `(int)"a"`, nil, ErrTypeConversion},
		{"no such method", `"a".Frobnicate()`, nil, ErrNoApplicableMethod},
		{"wrong arity", `Math.Sqrt(1, 2)`, nil, ErrNoApplicableMethod},
		{"not writable", "1 = 2", nil, ErrNotWritable},
		{"assignment disabled", "x = 1", []Option{WithAssignment(false)}, ErrAssignmentDisabled},
		{"reflection", "typeof(int).Name", nil, ErrReflectionNotAllowed},
		{"multi-rank array", "new int[1, 2]", nil, ErrSyntax},
		{"lambda without target", "n => n", nil, ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := New(tt.opts...)

			_, err := it.Parse(t.Context(), tt.text, Arg("x", int32(0)))
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_MaxDepth(t *testing.T) {
	text := strings.Repeat("(", 40) + "1" + strings.Repeat(")", 40)

	if _, err := New().Parse(t.Context(), text); err != nil {
		t.Fatalf("default depth: %v", err)
	}

	_, err := New(WithMaxDepth(10)).Parse(t.Context(), text)
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("got %v, want ErrMaxDepthExceeded", err)
	}
}

func TestParse_DuplicateParameter(t *testing.T) {
	_, err := New().Parse(t.Context(), "x", Arg("x", 1), Arg("x", 2))
	if !errors.Is(err, ErrDuplicateParameter) {
		t.Fatalf("got %v, want ErrDuplicateParameter", err)
	}
}

func TestParse_UsedParameters(t *testing.T) {
	it := New()
	typ := reflect.TypeFor[int32]()

	l, err := it.Parse(t.Context(), "y + x",
		NewParameter("x", typ), NewParameter("y", typ), NewParameter("z", typ))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var names []string
	for _, p := range l.UsedParameters() {
		names = append(names, p.Name)
	}

	if !slices.Equal(names, []string{"x", "y"}) {
		t.Errorf("used = %v, want [x y]", names)
	}

	if n := len(l.DeclaredParameters()); n != 3 {
		t.Errorf("declared = %d, want 3", n)
	}

	got, err := l.Invoke(t.Context(), Arg("x", int32(1)), Arg("y", int32(2)))
	if err != nil {
		t.Fatalf("Invoke without z: %v", err)
	}

	if got != int32(3) {
		t.Errorf("got %#v, want 3", got)
	}
}

func TestParse_UsedTypesAndIdentifiers(t *testing.T) {
	it := New(WithVariable("rate", 0.5))

	l, err := it.Parse(t.Context(), "Math.Round(rate * 3) + (double)Convert.ToInt32(\"2\")")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var types []string
	for _, rt := range l.UsedTypes() {
		types = append(types, rt.Name)
	}

	slices.Sort(types)

	if !slices.Equal(types, []string{"Convert", "Math", "double"}) {
		t.Errorf("types = %v", types)
	}

	ids := l.UsedIdentifiers()
	if len(ids) != 1 || ids[0].Name != "rate" {
		t.Errorf("identifiers = %v", ids)
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	it := New(WithCaseInsensitive(true), WithVariable("Limit", int32(4)))

	got, err := it.Eval(t.Context(), "LIMIT + X", Arg("x", int32(1)))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}

	if got != int32(5) {
		t.Errorf("got %#v, want 5", got)
	}

	if _, err := New().Parse(t.Context(), "TRUE"); !errors.Is(err, ErrUnknownIdentifier) {
		t.Errorf("case-sensitive lookup: got %v, want ErrUnknownIdentifier", err)
	}
}

func TestParse_LambdasDisabled(t *testing.T) {
	it := New(WithLambdas(false))

	_, err := it.Parse(t.Context(), "xs.Any(n => n > 1)", Arg("xs", []int32{1}))
	if err == nil {
		t.Fatal("expected an error with lambdas disabled")
	}
}

func TestParse_String(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"1+2*3", "(1 + (2 * 3))"},
		{"x > 1 ? 1.5 : 2", "((x > 1) ? 1.5 : 2)"},
		{`"a" + 'b'`, `("a" + 'b')`},
		{"-x", "-x"},
		{"(long)x", "((long)x)"},
		{"Math.Abs(x)", "Math.Abs(x)"},
	}

	it := New()

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			l, err := it.Parse(t.Context(), tt.text, NewParameter("x", typeInt32))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			if got := l.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	it := New()
	x := NewParameter("x", typeFloat64)

	a := it.MustParse(t.Context(), "x * 2 + Math.Sqrt(x)", x)
	b := it.MustParse(t.Context(), "x * 2 + Math.Sqrt(x)", x)

	if a.ReturnType() != b.ReturnType() || a.String() != b.String() {
		t.Fatalf("parses differ: %s (%v) vs %s (%v)", a, a.ReturnType(), b, b.ReturnType())
	}

	va, _ := a.Invoke(t.Context(), Arg("x", 4.0))
	vb, _ := b.Invoke(t.Context(), Arg("x", 4.0))

	if va != vb || va != 10.0 {
		t.Errorf("results differ: %v vs %v", va, vb)
	}
}

func TestParse_MustParsePanics(t *testing.T) {
	defer func() {
		r := recover()

		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrSyntax) {
			t.Errorf("recovered %v, want a syntax error", r)
		}
	}()

	New().MustParse(t.Context(), "1 +")
}

func TestParseAs(t *testing.T) {
	it := New()

	l, err := it.ParseAs(t.Context(), "1 + 2", typeFloat64)
	if err != nil {
		t.Fatalf("ParseAs: %v", err)
	}

	if l.ReturnType() != typeFloat64 {
		t.Errorf("type = %v, want double", l.ReturnType())
	}

	got, err := l.Invoke(t.Context())
	if err != nil || got != 3.0 {
		t.Errorf("got %#v, %v; want 3.0", got, err)
	}

	if _, err := it.ParseAs(t.Context(), `"a"`, typeInt32); !errors.Is(err, ErrTypeConversion) {
		t.Errorf("got %v, want ErrTypeConversion", err)
	}
}

func TestParseAs_Lambda(t *testing.T) {
	it := New()

	l, err := it.ParseAs(t.Context(), "(a, b) => a * b + 1", reflect.TypeFor[func(int32, int32) int32]())
	if err != nil {
		t.Fatalf("ParseAs: %v", err)
	}

	v, err := l.Invoke(t.Context())
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	fn, ok := v.(func(int32, int32) int32)
	if !ok {
		t.Fatalf("got %T", v)
	}

	if got := fn(3, 4); got != 13 {
		t.Errorf("fn(3, 4) = %d, want 13", got)
	}
}

func TestParseReader(t *testing.T) {
	l, err := New().ParseReader(t.Context(), strings.NewReader("x * 3"), NewParameter("x", typeInt32))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	got, err := l.InvokeValues(t.Context(), int32(5))
	if err != nil || got != int32(15) {
		t.Errorf("got %#v, %v; want 15", got, err)
	}
}
