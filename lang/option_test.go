package lang

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/ardnew/aexpr/log"
)

func TestWithDefaultNumberType(t *testing.T) {
	tests := []struct {
		number NumberType
		text   string
		want   any
	}{
		{NumberDefault, "2", int32(2)},
		{NumberDefault, "2.5", 2.5},
		{NumberInt, "2", int32(2)},
		{NumberLong, "2", int64(2)},
		{NumberLong, "-2", int64(-2)},
		{NumberSingle, "2", float32(2)},
		{NumberSingle, "2.5", float32(2.5)},
		{NumberDouble, "2", float64(2)},
		{NumberSingle, "2L", int64(2)},
	}

	for _, tt := range tests {
		t.Run(tt.number.String()+"/"+tt.text, func(t *testing.T) {
			it := New(WithDefaultNumberType(tt.number))

			if got := evalText(t, it, tt.text); got != tt.want {
				t.Errorf("%q = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseNumberType(t *testing.T) {
	for _, name := range []string{"default", "int", "long", "single", "double", "decimal"} {
		n, ok := ParseNumberType(name)
		if !ok || n.String() != name {
			t.Errorf("ParseNumberType(%q) = %v, %v", name, n, ok)
		}
	}

	if _, ok := ParseNumberType("quad"); ok {
		t.Error("ParseNumberType accepted an unknown name")
	}
}

func TestWithIdentifier(t *testing.T) {
	it := New(WithIdentifier("Answer", newConstant(int32(42), -1)))

	if got := evalText(t, it, "Answer / 2"); got != int32(21) {
		t.Errorf("got %#v, want 21", got)
	}
}

func TestWithGenericType(t *testing.T) {
	pair := &GenericType{
		Name:  "Pair",
		Arity: 1,
		Make: func(args []reflect.Type) (reflect.Type, error) {
			return reflect.ArrayOf(2, args[0]), nil
		},
	}

	it := New(WithGenericType(pair))

	if got := evalText(t, it, "default(Pair<int>)"); got != [2]int32{} {
		t.Errorf("got %#v, want [2]int32{}", got)
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
	)

	it := New(WithLogger(logger))
	evalText(t, it, "1 + 2")

	for _, want := range []string{"parse start", "parse complete"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q:\n%s", want, buf.String())
		}
	}
}
