package repl

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// ctrlCommands are the names completed in command mode.
var ctrlCommands = func() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}

	return names
}()

// keywords are offered at the start of every top-level word.
var keywords = []string{
	"as", "default", "false", "is", "new", "null", "true", "typeof",
}

// isWordBoundary reports whether r ends a word for completion: whitespace,
// the member-access dot, and operator or punctuation characters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%', '^', '~',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '\'':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits on a
// boundary (after a space, after a dot, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the current word.
// For "x + xs.Where(v => v > 1).Fi" with the word "Fi", the parent path is
// "xs.Where(v => v > 1)". Balanced parentheses and brackets are part of the
// chain. Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, ".")
	end := len(prefix)
	pos := end
	depth := 0

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])

		switch {
		case r == ')' || r == ']':
			depth++
		case r == '(' || r == '[':
			if depth == 0 {
				return strings.TrimSpace(prefix[pos:end])
			}

			depth--
		case depth > 0 || r == '.':
		case isWordBoundary(r):
			return strings.TrimSpace(prefix[pos:end])
		}

		pos -= size
	}

	if depth > 0 {
		return ""
	}

	return strings.TrimSpace(prefix[:end])
}

// candidates returns the completion candidates for the word following
// parent, and which of them are callable. A parent naming a known type
// offers its static members; any other parent is parsed over the session
// variables and offers the instance members of its type.
func (s *session) candidates(ctx context.Context, parent string) (names []string, callable map[string]bool) {
	callable = make(map[string]bool)

	if parent == "" {
		names = append(names, s.names...)

		for _, id := range s.it.Identifiers() {
			names = append(names, id)

			if len(s.it.Signatures(nil, id, false)) > 0 {
				callable[id] = true
			}
		}

		names = append(names, s.it.KnownTypes()...)
		names = append(names, keywords...)

		slices.Sort(names)

		return slices.Compact(names), callable
	}

	t, static := s.typeOf(ctx, parent)
	if t == nil {
		return nil, callable
	}

	names = s.it.Members(t, static)

	for _, name := range names {
		if len(s.it.Signatures(t, name, static)) > 0 {
			callable[name] = true
		}
	}

	return names, callable
}

// completion is the ranked candidates for the word spanning [start, end)
// of the input.
type completion struct {
	matches    fuzzy.Matches
	callable   map[string]bool
	start, end int
}

// complete ranks the candidates for the word at the cursor. An empty word at
// the top level has no matches; an empty word after a dot matches every
// member in order.
func (m model) complete() completion {
	input := m.input.Value()

	word, start, end := wordBounds(input, m.input.Position())
	c := completion{start: start, end: end}

	var names []string

	if m.mode == modeCtrl {
		if word == "" {
			return c
		}

		names = ctrlCommands
	} else {
		parent := parentPath(input, start)
		names, c.callable = m.session.candidates(m.ctxFunc(), parent)

		if word == "" && parent == "" {
			return c
		}

		if word == "" {
			for i, name := range names {
				c.matches = append(c.matches, fuzzy.Match{Str: name, Index: i})
			}

			return c
		}
	}

	if len(names) > 0 {
		c.matches = fuzzy.Find(word, names)
	}

	return c
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. While cycling, the candidate at index selected is
// highlighted.
func renderCandidateBar(
	matches fuzzy.Matches,
	callable map[string]bool,
	selected int,
	cycling bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, callable[match.Str], cycling && i == selected)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && i < len(matches)-1 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Callable candidates get a "()" suffix that completion does
// not insert.
func renderCandidate(match fuzzy.Match, call, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if call {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}
