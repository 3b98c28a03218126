package repl

import (
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no function call", "greeting", 8, "", 0, false},
		{"simple function first arg", "add(", 4, "add", 0, true},
		{"simple function with first arg", "add(1", 5, "add", 0, true},
		{"simple function second arg", "add(1,", 6, "add", 1, true},
		{"simple function second arg with value", "add(1, 2", 8, "add", 1, true},
		{"member function", "Math.Max(", 9, "Math.Max", 0, true},
		{"member function second arg", "Math.Max(5, ", 12, "Math.Max", 1, true},
		{"after closed call", "add(1, 2)", 9, "", 0, false},
		{"nested call inner", "add(twice(3", 11, "twice", 0, true},
		{"nested call outer", "add(twice(3), ", 14, "add", 1, true},
		{"comma in string", `Join("a,b", `, 12, "Join", 1, true},
		{"comma in array", "Max(new[] {1, 2}, ", 18, "Max", 1, true},
		{"chained owner", "xs.Where(x => x > 1).Select(", 28, "xs.Where(x => x > 1).Select", 0, true},
		{"grouping paren", "(1 + 2", 6, "", 0, false},
		{"cursor mid input", "add(1, 2)", 5, "add", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.inCall != tt.wantInCall {
				t.Fatalf("inCall = %v, want %v", got.inCall, tt.wantInCall)
			}

			if !got.inCall {
				return
			}

			if got.name != tt.wantName {
				t.Errorf("name = %q, want %q", got.name, tt.wantName)
			}

			if got.argIndex != tt.wantIndex {
				t.Errorf("argIndex = %d, want %d", got.argIndex, tt.wantIndex)
			}
		})
	}
}

func TestSession_Signature(t *testing.T) {
	s := newTestSession()

	tests := []struct {
		name          string
		call          functionCall
		wantOK        bool
		wantName      string
		wantParams    []string
		wantOverloads int
	}{
		{"identifier", functionCall{name: "twice", inCall: true}, true, "twice", []string{"int"}, 0},
		{"instance overload by arity", functionCall{name: "name.Substring", argIndex: 1, inCall: true}, true, "Substring", []string{"int", "int"}, 1},
		{"instance first overload", functionCall{name: "name.Substring", inCall: true}, true, "Substring", []string{"int"}, 1},
		{"unknown function", functionCall{name: "nope", inCall: true}, false, "", nil, 0},
		{"unknown owner", functionCall{name: "nope.Max", inCall: true}, false, "", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.signature(t.Context(), tt.call)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}

			if !ok {
				return
			}

			if got.name != tt.wantName {
				t.Errorf("name = %q, want %q", got.name, tt.wantName)
			}

			if strings.Join(got.params, "|") != strings.Join(tt.wantParams, "|") {
				t.Errorf("params = %q, want %q", got.params, tt.wantParams)
			}

			if got.overloads != tt.wantOverloads {
				t.Errorf("overloads = %d, want %d", got.overloads, tt.wantOverloads)
			}
		})
	}
}

func TestSession_SignatureExtension(t *testing.T) {
	s := newTestSession()

	got, ok := s.signature(t.Context(), functionCall{name: "xs.Where", inCall: true})
	if !ok {
		t.Fatal("no signature for xs.Where")
	}

	// The sequence receiver is implied by the owner.
	if len(got.params) != 1 {
		t.Errorf("params = %q, want the predicate only", got.params)
	}
}

func TestSession_SignatureStatic(t *testing.T) {
	s := newTestSession()

	got, ok := s.signature(t.Context(), functionCall{name: "Math.Max", argIndex: 1, inCall: true})
	if !ok {
		t.Fatal("no signature for Math.Max")
	}

	if len(got.params) != 2 || got.overloads < 1 {
		t.Errorf("Math.Max = %+v", got)
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name    string
		sig     signature
		current int
		want    []string
	}{
		{"empty", signature{}, 0, nil},
		{"no params", signature{name: "Now"}, 0, []string{"Now", "()"}},
		{"params", signature{name: "Max", params: []string{"int", "int"}}, 1, []string{"Max", "int", ", "}},
		{"one overload", signature{name: "f", overloads: 1}, 0, []string{"+1 overload"}},
		{"overloads", signature{name: "f", overloads: 3}, 0, []string{"+3 overloads"}},
		{"variadic", signature{name: "Join", params: []string{"string", "params object[]"}}, 4, []string{"params object[]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.sig, tt.current)

			if tt.want == nil && got != "" {
				t.Errorf("hint = %q, want empty", got)
			}

			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("hint %q does not contain %q", got, w)
				}
			}
		})
	}
}
