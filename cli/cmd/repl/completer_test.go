package repl

import (
	"slices"
	"strings"
	"testing"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/aexpr/lang"
)

func TestWordBounds_ExprOperators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_minus", "a-fo", 4, "fo", 2, 4},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"in_ternary", "x ? fo", 6, "fo", 4, 6},
		{"after_comparison", "a > fo", 6, "fo", 4, 6},
		{"after_brace", "new[] {fo", 9, "fo", 7, 9},
		{"in_string", `"fo`, 3, "fo", 1, 3},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"underscore", "max_len", 7, "max_len", 0, 7},
		{"empty_after_dot", "Math.", 5, "", 5, 5},
		{"cursor_past_end", "foo", 10, "foo", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath_WithOperators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_equals", "x = a.b.", 8, "a.b"},
		{"call_result", "xs.Where(x => x > 1).", 21, "xs.Where(x => x > 1)"},
		{"call_after_operator", "1 + s.Trim().", 13, "s.Trim()"},
		{"index", "xs[0].", 6, "xs[0]"},
		{"argument", "Math.Max(a.", 11, "a"},
		{"unbalanced", "a).", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentPath(tt.input, tt.wordStart)
			if got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func newTestSession() *session {
	it := lang.New(
		lang.WithFunction("twice", func(x int32) int32 { return x * 2 }),
		lang.WithVariable("answer", int32(42)),
	)

	return newSession(it, []*lang.Parameter{
		lang.Arg("name", "world"),
		lang.Arg("xs", []int32{1, 2, 3}),
	})
}

func TestSession_Candidates(t *testing.T) {
	s := newTestSession()

	tests := []struct {
		name     string
		parent   string
		want     []string
		absent   []string
		callable []string
	}{
		{"top_level", "", []string{"name", "xs", "twice", "answer", "Math", "new", "typeof"}, nil, []string{"twice"}},
		{"static", "Math", []string{"Max", "Abs", "PI"}, []string{"ToUpper"}, []string{"Max"}},
		{"string_var", "name", []string{"Length", "ToUpper", "Substring"}, []string{"PI"}, []string{"ToUpper"}},
		{"slice_var", "xs", []string{"Length", "Where", "Sum"}, nil, []string{"Where"}},
		{"call_result", "xs.Where(x => x > 1)", []string{"Count", "Sum"}, nil, nil},
		{"unknown", "nope", nil, []string{"Length"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, callable := s.candidates(t.Context(), tt.parent)

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

			for _, name := range tt.callable {
				if !callable[name] {
					t.Errorf("%q not callable", name)
				}
			}
		})
	}
}

func TestSession_CandidatesShadowType(t *testing.T) {
	it := lang.New()
	s := newSession(it, []*lang.Parameter{lang.Arg("Math", "not a type")})

	got, _ := s.candidates(t.Context(), "Math")
	if !slices.Contains(got, "ToUpper") {
		t.Errorf("variable Math did not resolve to string members: %v", got)
	}
}

func TestRenderCandidateBar(t *testing.T) {
	if got := renderCandidateBar(nil, nil, -1, false, 80); got != "" {
		t.Errorf("empty matches = %q", got)
	}

	matches := fuzzy.Find("tw", []string{"twice", "two"})
	if len(matches) != 2 {
		t.Fatalf("matches = %v", matches)
	}

	got := renderCandidateBar(matches, map[string]bool{"twice": true}, -1, false, 80)
	if !strings.Contains(got, "()") {
		t.Errorf("callable candidate without suffix: %q", got)
	}

	if got := renderCandidateBar(matches, nil, 0, true, 0); got != "" {
		t.Errorf("zero width = %q", got)
	}
}

func TestRenderCandidateBar_Ellipsis(t *testing.T) {
	var names []string
	for range 40 {
		names = append(names, "candidate")
	}

	matches := make(fuzzy.Matches, len(names))
	for i, c := range names {
		matches[i] = fuzzy.Match{Str: c, Index: i}
	}

	got := renderCandidateBar(matches, nil, -1, false, 40)
	if !strings.Contains(got, "...") {
		t.Errorf("long bar not ellipsized: %q", got)
	}
}
