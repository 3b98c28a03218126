package lang

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func TestBuiltin_Members(t *testing.T) {
	params := []*Parameter{
		Arg("n", int32(7)),
		Arg("xs", []int32{1, 2, 3}),
		Arg("m", map[string]int32{"a": 1}),
		Arg("opt", new(int32)),
		NewParameter("none", reflect.TypeFor[*int32]()),
	}

	tests := []struct {
		text string
		want any
	}{
		// string
		{`"Hello".ToUpper()`, "HELLO"},
		{`"  x ".Trim()`, "x"},
		{`"abc".Contains("b")`, true},
		{`"abc".StartsWith("ab")`, true},
		{`"héllo".IndexOf("l")`, int32(2)},
		{`"héllo".IndexOf('o')`, int32(4)},
		{`"hello".Substring(1, 3)`, "ell"},
		{`"hello".Substring(3)`, "lo"},
		{`"a-b-a".Replace("a", "x")`, "x-b-x"},
		{`"a,b,c".Split(',')`, []string{"a", "b", "c"}},
		{`"a::b".Split("::")`, []string{"a", "b"}},
		{`"x".PadLeft(3)`, "  x"},
		{`"x".PadRight(3)`, "x  "},
		{`"héllo".Length`, int32(5)},
		{`string.IsNullOrEmpty("")`, true},
		{`String.Empty`, ""},
		{`string.Concat("a", 1, true)`, "a1true"},
		{`string.Join("-", xs)`, "1-2-3"},
		{`string.Format("{0}-{1:F2}", 1, 2.5)`, "1-2.50"},
		{`string.Format("[{0,4}]", n)`, "[   7]"},
		{`string.Format("{0:D3}", n)`, "007"},
		{`string.Format("{{{0}}}", n)`, "{7}"},

		// char
		{`char.IsDigit('7')`, true},
		{`Char.ToUpper('a')`, Char('A')},

		// numeric
		{"int.MaxValue", int32(math.MaxInt32)},
		{"byte.MaxValue", uint8(255)},
		{`int.Parse("12")`, int32(12)},
		{`double.Parse("1.5")`, 1.5},
		{`bool.Parse("true")`, true},
		{"double.IsNaN(double.NaN)", true},

		// Math
		{"Math.Abs(-5)", int32(5)},
		{"Math.Abs(-2.5)", 2.5},
		{"Math.Max(2, 3L)", int64(3)},
		{"Math.Min(2, 1.5)", 1.5},
		{"Math.Round(2.5)", 2.0},
		{"Math.Round(1.25, 1)", 1.2},
		{"Math.Floor(-1.5)", -2.0},
		{"Math.Pow(2, 10)", 1024.0},
		{"Math.Sign(-3)", int32(-1)},

		// Convert
		{`Convert.ToInt32("42")`, int32(42)},
		{"Convert.ToInt32(2.5)", int32(2)},
		{"Convert.ToInt32(3.5)", int32(4)},
		{"Convert.ToBoolean(1)", true},
		{"Convert.ToString(12)", "12"},
		{"Convert.ToInt32(null)", int32(0)},

		// collections and nullables
		{"xs.Length", int32(3)},
		{"xs.Count", int32(3)},
		{"m.Count", int32(1)},
		{`m.ContainsKey("a")`, true},
		{"opt.HasValue", true},
		{"none.HasValue", false},
		{"none.GetValueOrDefault(9)", int32(9)},
		{"opt.Value", int32(0)},

		// universal members
		{"n.ToString()", "7"},
		{"n.Equals(7)", true},
		{"xs.Equals(n)", false},
	}

	it := New()

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := evalText(t, it, tt.text, params...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBuiltin_Time(t *testing.T) {
	tests := []struct {
		text string
		want any
	}{
		{"new DateTime(2024, 2, 29).DayOfYear", int32(60)},
		{"new DateTime(2024, 2, 29).AddDays(1).Month", int32(3)},
		{"DateTime.DaysInMonth(2023, 2)", int32(28)},
		{"new DateTime(2024, 1, 7).DayOfWeek", int32(time.Sunday)},
		{`new DateTime(2024, 1, 2, 3, 4, 5).ToString("2006-01-02 15:04")`, "2024-01-02 03:04"},
		{"new DateTime(2024, 1, 2).Subtract(new DateTime(2024, 1, 1)).TotalHours", 24.0},
		{"(new DateTime(2024, 1, 2) - new DateTime(2024, 1, 1)).Days", int32(1)},
		{"new DateTime(2024, 1, 1) < new DateTime(2024, 1, 2)", true},
		{"TimeSpan.FromMinutes(90).Hours", int32(1)},
		{"TimeSpan.FromMinutes(90).TotalMinutes", 90.0},
		{"new TimeSpan(1, 30, 0).Minutes", int32(30)},
		{"(TimeSpan.FromHours(1) + TimeSpan.FromMinutes(5)).TotalMinutes", 65.0},
		{`TimeSpan.Parse("1h30m").Minutes`, int32(30)},
		{`DateTime.Parse("2024-03-04").Day`, int32(4)},
	}

	it := New()

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := evalText(t, it, tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBuiltin_Errors(t *testing.T) {
	tests := []struct {
		text string
		want *Error
	}{
		{`"hello".Substring(9)`, ErrIndexOutOfRange},
		{`int.Parse("x")`, ErrInvalidCast},
		{`Convert.ToInt32("1.5")`, ErrInvalidCast},
		{`string.Format("{1}", 0)`, ErrInvalidOperation},
		{"none.Value", ErrInvalidOperation},
	}

	it := New()
	none := NewParameter("none", reflect.TypeFor[*int32]())

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			l, err := it.Parse(t.Context(), tt.text, none)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			_, err = l.Invoke(t.Context(), &Parameter{Name: "none", Type: none.Type, Value: (*int32)(nil)})
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuiltin_GetType(t *testing.T) {
	x := Arg("x", int32(1))

	if _, err := New().Parse(t.Context(), "x.GetType()", x); !errors.Is(err, ErrReflectionNotAllowed) {
		t.Fatalf("got %v, want ErrReflectionNotAllowed", err)
	}

	got := evalText(t, New(WithReflection(true)), "x.GetType()", x)
	if got != reflect.TypeFor[int32]() {
		t.Errorf("got %v, want int32", got)
	}
}
