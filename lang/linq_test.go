package lang

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSequence_Operators(t *testing.T) {
	xs := Arg("xs", []int32{5, 3, 8, 3, 1})
	words := Arg("words", []string{"apple", "kiwi", "fig"})

	tests := []struct {
		text string
		want any
	}{
		{"xs.Any()", true},
		{"xs.Any(x => x > 7)", true},
		{"xs.All(x => x > 1)", false},
		{"xs.Count()", int32(5)},
		{"xs.Count(x => x == 3)", int32(2)},
		{"xs.Contains(8)", true},
		{"xs.First()", int32(5)},
		{"xs.First(x => x > 5)", int32(8)},
		{"xs.FirstOrDefault(x => x > 100)", int32(0)},
		{"xs.Last()", int32(1)},
		{"xs.LastOrDefault(x => x > 4)", int32(8)},
		{"xs.ElementAt(2)", int32(8)},
		{"xs.Skip(3).ToArray()", []int32{3, 1}},
		{"xs.Take(2).ToArray()", []int32{5, 3}},
		{"xs.Take(0).ToArray()", []int32{}},
		{"xs.SkipWhile(x => x > 2).ToArray()", []int32{1}},
		{"xs.TakeWhile(x => x > 4).ToArray()", []int32{5}},
		{"xs.Distinct().ToArray()", []int32{5, 3, 8, 1}},
		{"xs.Reverse().ToList()", []int32{1, 3, 8, 3, 5}},
		{"xs.OrderBy(x => x).ToArray()", []int32{1, 3, 3, 5, 8}},
		{"xs.OrderByDescending(x => x).ToArray()", []int32{8, 5, 3, 3, 1}},
		{"xs.Concat(xs).Count()", int32(10)},
		{"xs.Min()", int32(1)},
		{"xs.Max()", int32(8)},
		{"xs.Sum()", int32(20)},
		{"xs.Average()", 4.0},
		{"xs.Aggregate((a, b) => a * b)", int32(360)},
		{"xs.Aggregate(100, (acc, x) => acc - x)", int32(80)},
		{"words.Select(w => w.Length).Max()", int32(5)},
		{"words.Min(w => w.Length)", int32(3)},
		{"words.OrderBy(w => w.Length).First()", "fig"},
		{"words.ToDictionary(w => w.Length)[4]", "kiwi"},
		{`words.Where(w => w.Contains("i")).Count()`, int32(2)},
	}

	it := New()

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := evalText(t, it, tt.text, xs, words)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSequence_Errors(t *testing.T) {
	tests := []struct {
		text string
		want *Error
	}{
		{"empty.First()", ErrInvalidOperation},
		{"empty.Max()", ErrInvalidOperation},
		{"empty.Average()", ErrInvalidOperation},
		{"xs.First(x => x > 100)", ErrInvalidOperation},
		{"xs.ElementAt(10)", ErrIndexOutOfRange},
		{"xs.ToDictionary(x => x % 2)", ErrInvalidOperation},
	}

	it := New()
	params := []*Parameter{Arg("xs", []int32{1, 2, 3}), Arg("empty", []int32{})}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			l, err := it.Parse(t.Context(), tt.text, params...)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			if _, err := l.Invoke(t.Context()); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSequence_Lazy(t *testing.T) {
	var calls int

	it := New(WithFunction("seen", func(x int32) bool {
		calls++

		return x > 1
	}))

	l := it.MustParse(t.Context(), "xs.Where(x => seen(x))", Arg("xs", []int32{1, 2, 3}))

	v, err := l.Invoke(t.Context())
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if calls != 0 {
		t.Fatalf("predicate ran %d times before enumeration", calls)
	}

	seq, ok := v.(func(func(int32) bool))
	if !ok {
		t.Fatalf("got %T, want a sequence of int", v)
	}

	var got []int32

	seq(func(x int32) bool {
		got = append(got, x)
		return true
	})

	if calls != 3 || !reflect.DeepEqual(got, []int32{2, 3}) {
		t.Errorf("calls = %d, got %v", calls, got)
	}
}

func TestSequence_Decimal(t *testing.T) {
	it := New()
	prices := Arg("prices", []float64{1.25, 2.5})

	got := evalText(t, it, "prices.Select(p => (decimal)p).Sum()", prices)
	if d, ok := got.(interface{ String() string }); !ok || d.String() != "3.75" {
		t.Errorf("got %#v, want 3.75", got)
	}
}

func TestSequence_DecimalAggregates(t *testing.T) {
	ds := Arg("ds", []decimal.Decimal{
		decimal.RequireFromString("1.25"),
		decimal.RequireFromString("2.5"),
	})

	tests := []struct {
		text string
		want string
	}{
		{"ds.Sum()", "3.75"},
		{"ds.Average()", "1.875"},
		{"ds.Sum(d => d * 2m)", "7.5"},
		{"ds.Max()", "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := evalText(t, New(), tt.text, ds).(decimal.Decimal)
			if !ok {
				t.Fatalf("%s did not yield a decimal", tt.text)
			}

			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("%s = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}
