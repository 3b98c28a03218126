package repl

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/aexpr/lang"
)

// signatureHintStyle styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // callee including its owner chain (e.g., "Path.Join")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall reports whether the cursor is inside the argument list
// of a call, which callee it belongs to, and the index of the argument under
// the cursor.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	open := -1
	depth := 0

scan:
	for i := cursor; i > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')', ']', '}':
			depth++
		case '[', '{':
			depth--
		case '(':
			if depth == 0 {
				open = i

				break scan
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		start -= size
	}

	name := input[start:open]
	if strings.HasPrefix(name, ".") {
		// A member of a call or index result: "xs.Where(...).Select(".
		if owner := parentPath(input, start+1); owner != "" {
			name = owner + name
		}
	}

	name = strings.Trim(name, ".")
	if name == "" {
		return functionCall{}
	}

	argIndex := 0
	depth = 0
	quote := rune(0)

	for _, r := range input[open+1 : cursor] {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == ',' && depth == 0:
			argIndex++
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// signature is the rendered form of one overload of a callee.
type signature struct {
	name      string
	params    []string
	overloads int // number of other overloads
}

// signature returns the overload of call that fits its argument index. The
// owner of a member call is resolved as completion resolves a parent path.
func (s *session) signature(ctx context.Context, call functionCall) (signature, bool) {
	owner, name := "", call.name
	if i := strings.LastIndexByte(call.name, '.'); i >= 0 {
		owner, name = call.name[:i], call.name[i+1:]
	}

	var methods []*lang.Method

	instance := false

	if owner == "" {
		methods = s.it.Signatures(nil, name, false)
	} else {
		t, static := s.typeOf(ctx, owner)
		if t == nil {
			return signature{}, false
		}

		methods = s.it.Signatures(t, name, static)
		instance = !static
	}

	if len(methods) == 0 {
		return signature{}, false
	}

	best := methods[0]

	for _, m := range methods {
		n := len(m.Params)
		if instance && m.Static {
			n--
		}

		if n > call.argIndex || (n > 0 && m.Params[len(m.Params)-1].Variadic) {
			best = m

			break
		}
	}

	params := best.Params
	if instance && best.Static && len(params) > 0 {
		params = params[1:] // extension receiver
	}

	sig := signature{name: best.Name, overloads: len(methods) - 1}

	for _, p := range params {
		sig.params = append(sig.params, formatParam(p))
	}

	return sig, true
}

func formatParam(p lang.Param) string {
	var b strings.Builder

	if p.Variadic {
		b.WriteString("params ")
	}

	b.WriteString(lang.TypeName(p.Type))

	if p.Name != "" {
		b.WriteString(" " + p.Name)
	}

	if p.HasDefault() {
		b.WriteString(" = " + lang.Stringify(p.Default.Interface()))
	}

	return b.String()
}

// renderSignatureHint renders sig with the parameter at argument index
// current highlighted.
func renderSignatureHint(sig signature, current int) string {
	if sig.name == "" {
		return ""
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(sig.name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range sig.params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "params ")
		if current == i || (variadic && current > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	switch sig.overloads {
	case 0:
	case 1:
		b.WriteString(hintStyle.Render("  +1 overload"))
	default:
		b.WriteString(hintStyle.Render("  +" + strconv.Itoa(sig.overloads) + " overloads"))
	}

	return b.String()
}
