package lang

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestLambda_InvokeByName(t *testing.T) {
	l := New().MustParse(t.Context(), "a - b", Arg("a", int32(0)), Arg("b", int32(0)))

	// Order of the passed parameters does not matter.
	got, err := l.Invoke(t.Context(), Arg("b", int32(3)), Arg("a", int32(10)))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if got != int32(7) {
		t.Errorf("got %#v, want 7", got)
	}

	// Unknown names are ignored.
	if _, err := l.Invoke(t.Context(), Arg("a", int32(1)), Arg("zzz", "x")); err != nil {
		t.Errorf("Invoke with extra parameter: %v", err)
	}
}

func TestLambda_ParseTimeDefaults(t *testing.T) {
	l := New().MustParse(t.Context(), "a * b", Arg("a", int32(6)), Arg("b", int32(7)))

	got, err := l.Invoke(t.Context())
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if got != int32(42) {
		t.Errorf("got %#v, want 42", got)
	}

	got, err = l.Invoke(t.Context(), Arg("b", int32(2)))
	if err != nil || got != int32(12) {
		t.Errorf("got %#v, %v; want 12", got, err)
	}
}

func TestLambda_MissingParameter(t *testing.T) {
	l := New().MustParse(t.Context(), "s.Length", NewParameter("s", typeString))

	_, err := l.Invoke(t.Context())
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("got %v, want ErrMissingParameter", err)
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("got %T, want *Error", err)
	}

	if name, _ := e.Attr("name"); name.String() != "s" {
		t.Errorf("name = %q, want s", name.String())
	}
}

func TestLambda_ArgumentConversion(t *testing.T) {
	l := New().MustParse(t.Context(), "x * 2", NewParameter("x", typeInt64))

	got, err := l.Invoke(t.Context(), Arg("x", int32(21)))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if got != int64(42) {
		t.Errorf("got %#v, want int64 42", got)
	}

	if _, err := l.Invoke(t.Context(), Arg("x", "nope")); !errors.Is(err, ErrInvalidCast) {
		t.Errorf("got %v, want ErrInvalidCast", err)
	}
}

func TestLambda_WriteBack(t *testing.T) {
	l := New().MustParse(t.Context(), "x = x * 2",
		NewParameter("x", typeInt32), NewParameter("y", typeInt32))

	x, y := Arg("x", int32(4)), Arg("y", int32(9))

	got, err := l.Invoke(t.Context(), x, y)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if got != int32(8) {
		t.Errorf("result = %#v, want 8", got)
	}

	if x.Value != int32(8) {
		t.Errorf("x = %#v, want 8", x.Value)
	}

	if y.Value != int32(9) {
		t.Errorf("y = %#v, want untouched 9", y.Value)
	}
}

func TestLambda_InvokeValues(t *testing.T) {
	typ := reflect.TypeFor[int32]()
	l := New().MustParse(t.Context(), "a * 10 + b", NewParameter("a", typ), NewParameter("b", typ))

	got, err := l.InvokeValues(t.Context(), int32(4), int32(2))
	if err != nil || got != int32(42) {
		t.Fatalf("got %#v, %v; want 42", got, err)
	}

	_, err = l.InvokeValues(t.Context(), int32(4))
	if !errors.Is(err, ErrParamCount) {
		t.Fatalf("got %v, want ErrParamCount", err)
	}
}

func TestLambda_Canceled(t *testing.T) {
	l := New().MustParse(t.Context(), "1 + 1")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := l.Invoke(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestFunc(t *testing.T) {
	typ := reflect.TypeFor[int32]()
	l := New().MustParse(t.Context(), "100 / d", NewParameter("d", typ))

	div, err := Func[func(int32) int32](l)
	if err != nil {
		t.Fatalf("Func: %v", err)
	}

	if got := div(4); got != 25 {
		t.Errorf("div(4) = %d, want 25", got)
	}

	checked, err := Func[func(int32) (int32, error)](l)
	if err != nil {
		t.Fatalf("Func: %v", err)
	}

	if got, err := checked(5); err != nil || got != 20 {
		t.Errorf("checked(5) = %d, %v; want 20", got, err)
	}

	if _, err := checked(0); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("checked(0): got %v, want ErrDivideByZero", err)
	}

	// Results convert implicitly to the func's result type.
	wide, err := Func[func(int32) float64](l)
	if err != nil {
		t.Fatalf("Func: %v", err)
	}

	if got := wide(8); got != 12 {
		t.Errorf("wide(8) = %v, want 12", got)
	}
}

func TestFunc_Mismatch(t *testing.T) {
	l := New().MustParse(t.Context(), "x", NewParameter("x", typeInt32))

	if _, err := Func[func() int32](l); !errors.Is(err, ErrInvalidType) {
		t.Errorf("arity: got %v, want ErrInvalidType", err)
	}

	if _, err := Func[func(int32) (int32, int32)](l); !errors.Is(err, ErrInvalidType) {
		t.Errorf("results: got %v, want ErrInvalidType", err)
	}

	if _, err := Func[int](l); !errors.Is(err, ErrInvalidType) {
		t.Errorf("non-func: got %v, want ErrInvalidType", err)
	}
}

func TestLambda_Accessors(t *testing.T) {
	l := New().MustParse(t.Context(), "x + 1", Arg("x", int32(2)))

	if l.ExpressionText() != "x + 1" {
		t.Errorf("text = %q", l.ExpressionText())
	}

	if _, ok := l.Expression().(*Binary); !ok {
		t.Errorf("root = %T, want *Binary", l.Expression())
	}

	ps := l.DeclaredParameters()
	if len(ps) != 1 || ps[0].Name != "x" || ps[0].Value != int32(2) {
		t.Errorf("declared = %+v", ps)
	}

	// Mutating the returned parameter does not alter the lambda.
	ps[0].Value = int32(100)

	if got, _ := l.Invoke(t.Context()); got != int32(3) {
		t.Errorf("got %#v, want 3", got)
	}
}
