package lang

import (
	"errors"
	"reflect"
	"slices"
	"sync"
	"testing"
)

func TestInterpreter_With(t *testing.T) {
	base := New(WithVariable("a", int32(1)))
	ext := base.With(WithVariable("b", int32(2)))

	if got := evalText(t, ext, "a + b"); got != int32(3) {
		t.Errorf("got %#v, want 3", got)
	}

	if _, err := base.Parse(t.Context(), "b"); !errors.Is(err, ErrUnknownIdentifier) {
		t.Errorf("base saw the derived registration: %v", err)
	}

	// Settings carry over.
	strict := New(WithAssignment(false)).With(WithVariable("c", int32(0)))
	if _, err := strict.Parse(t.Context(), "x = 1", Arg("x", int32(0))); !errors.Is(err, ErrAssignmentDisabled) {
		t.Errorf("got %v, want ErrAssignmentDisabled", err)
	}
}

func TestInterpreter_Err(t *testing.T) {
	it := New(WithFunction("f", 42))

	if !errors.Is(it.Err(), ErrInvalidType) {
		t.Fatalf("Err = %v, want ErrInvalidType", it.Err())
	}

	if _, err := it.Parse(t.Context(), "1"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Parse = %v, want the registration error", err)
	}

	if err := New(WithType("list", reflect.TypeFor[[]int]())).Err(); err != nil {
		t.Errorf("slice type registration: %v", err)
	}

	if err := New(WithType("nothing", nil)).Err(); !errors.Is(err, ErrInvalidType) {
		t.Errorf("nil type: got %v, want ErrInvalidType", err)
	}
}

func TestInterpreter_KnownTypes(t *testing.T) {
	type widget struct{ Name string }

	it := New(WithType("Widget", reflect.TypeFor[widget]()))
	names := it.KnownTypes()

	for _, want := range []string{"int", "string", "Math", "List", "Dictionary", "Widget"} {
		if !slices.Contains(names, want) {
			t.Errorf("KnownTypes missing %q", want)
		}
	}

	if !slices.IsSorted(names) {
		t.Error("KnownTypes not sorted")
	}

	got := evalText(t, it, `new Widget { Name = "w" }.Name`)
	if got != "w" {
		t.Errorf("got %#v, want w", got)
	}
}

func TestInterpreter_Identifiers(t *testing.T) {
	it := New(WithVariable("pi2", 6.28), WithFunction("sq", func(x float64) float64 { return x * x }))
	ids := it.Identifiers()

	for _, want := range []string{"true", "false", "null", "pi2", "sq"} {
		if !slices.Contains(ids, want) {
			t.Errorf("Identifiers missing %q", want)
		}
	}
}

func TestInterpreter_WithoutDefaults(t *testing.T) {
	it := New(WithoutDefaults())

	if n := len(it.KnownTypes()); n != 0 {
		t.Errorf("KnownTypes = %d names, want 0", n)
	}

	if got := evalText(t, it, "1 + 2"); got != int32(3) {
		t.Errorf("got %#v, want 3", got)
	}

	if _, err := it.Parse(t.Context(), "Math.Abs(1)"); !errors.Is(err, ErrUnknownIdentifier) {
		t.Errorf("got %v, want ErrUnknownIdentifier", err)
	}
}

func TestInterpreter_DefaultNumberType(t *testing.T) {
	tests := []struct {
		n    NumberType
		want reflect.Type
	}{
		{NumberDefault, typeInt32},
		{NumberDouble, typeFloat64},
		{NumberLong, typeInt64},
		{NumberDecimal, typeDecimal},
	}

	for _, tt := range tests {
		t.Run(tt.n.String(), func(t *testing.T) {
			l, err := New(WithDefaultNumberType(tt.n)).Parse(t.Context(), "7")
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			if l.ReturnType() != tt.want {
				t.Errorf("got %v, want %v", l.ReturnType(), tt.want)
			}
		})
	}
}

func TestInterpreter_Concurrent(t *testing.T) {
	it := New(WithCache(true))
	x := NewParameter("x", typeInt32)
	l := it.MustParse(t.Context(), "x * x", x)

	var wg sync.WaitGroup

	errs := make(chan error, 16)

	for i := range 16 {
		wg.Add(1)

		go func(n int32) {
			defer wg.Done()

			got, err := l.InvokeValues(t.Context(), n)
			if err != nil {
				errs <- err

				return
			}

			if got != n*n {
				errs <- errors.New("wrong square")
			}

			if _, err := it.Parse(t.Context(), "x + 1", x); err != nil {
				errs <- err
			}
		}(int32(i))
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
