package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexer produces tokens on demand from a window of the source text.
// Offsets are always relative to the full text so that a lambda body lexed
// from a sub-window reports positions in the original expression.
type lexer struct {
	text string
	pos  int // next byte to read
	end  int // exclusive window limit
	done bool
}

// lexerState is a checkpoint restored by [lexer.restore].
type lexerState struct {
	pos  int
	done bool
}

func newLexer(text string) *lexer {
	return &lexer{text: text, end: len(text)}
}

// window returns a lexer over text[start:end].
func window(text string, start, end int) *lexer {
	return &lexer{text: text, pos: start, end: end}
}

func (l *lexer) save() lexerState { return lexerState{pos: l.pos, done: l.done} }

func (l *lexer) restore(s lexerState) { l.pos, l.done = s.pos, s.done }

func (l *lexer) peekByte(off int) byte {
	if i := l.pos + off; i < l.end {
		return l.text[i]
	}

	return 0
}

func (l *lexer) peekRune() (rune, int) {
	if l.pos >= l.end {
		return utf8.RuneError, 0
	}

	return utf8.DecodeRuneInString(l.text[l.pos:l.end])
}

// next scans the next token. The End token is produced exactly once;
// scanning past it is a programming error.
func (l *lexer) next() (Token, error) {
	if l.done {
		panic("lang: token requested past end of expression")
	}

	for l.pos < l.end {
		r, n := l.peekRune()
		if !unicode.IsSpace(r) {
			break
		}

		l.pos += n
	}

	if l.pos >= l.end {
		l.done = true

		return Token{Kind: TokenEnd, Pos: l.end}, nil
	}

	start := l.pos
	c := l.text[l.pos]

	switch {
	case c == '"':
		return l.scanString(start)
	case c == '\'':
		return l.scanChar(start)
	case isDigit(c), c == '.' && isDigit(l.peekByte(1)):
		return l.scanNumber(start)
	case c == '@' || c == '_' || isLetterAt(l.text[l.pos:l.end]):
		return l.scanIdent(start)
	}

	kind, width := punct(c, l.peekByte(1), l.peekByte(2))
	if width == 0 {
		r, _ := l.peekRune()

		return Token{}, syntaxError(start, "Syntax error '"+string(r)+"'")
	}

	l.pos += width

	return Token{Kind: kind, Text: l.text[start:l.pos], Pos: start}, nil
}

// punct classifies operator and punctuation tokens by their leading bytes.
func punct(c, d, e byte) (TokenKind, int) {
	switch c {
	case '!':
		if d == '=' {
			return TokenNotEqual, 2
		}

		return TokenBang, 1
	case '%':
		return TokenPercent, 1
	case '&':
		if d == '&' {
			return TokenAndAnd, 2
		}

		return TokenAmp, 1
	case '(':
		return TokenLParen, 1
	case ')':
		return TokenRParen, 1
	case '*':
		return TokenStar, 1
	case '+':
		return TokenPlus, 1
	case ',':
		return TokenComma, 1
	case '-':
		return TokenMinus, 1
	case '.':
		return TokenDot, 1
	case '/':
		return TokenSlash, 1
	case ':':
		return TokenColon, 1
	case '<':
		if d == '=' {
			return TokenLessEqual, 2
		}

		return TokenLess, 1
	case '=':
		switch d {
		case '=':
			return TokenEqual, 2
		case '>':
			return TokenArrow, 2
		}

		return TokenAssign, 1
	case '>':
		if d == '=' {
			return TokenGreaterEqual, 2
		}

		return TokenGreater, 1
	case '?':
		switch {
		case d == '?':
			return TokenCoalesce, 2
		case d == '.' && !isDigit(e):
			return TokenQuestionDot, 2
		case d == '[':
			return TokenQuestionIndex, 2
		}

		return TokenQuestion, 1
	case '[':
		return TokenLBracket, 1
	case ']':
		return TokenRBracket, 1
	case '|':
		if d == '|' {
			return TokenOrOr, 2
		}

		return TokenBar, 1
	case '^':
		return TokenCaret, 1
	case '~':
		return TokenTilde, 1
	case '{':
		return TokenLBrace, 1
	case '}':
		return TokenRBrace, 1
	}

	return TokenEnd, 0
}

func (l *lexer) scanIdent(start int) (Token, error) {
	if l.text[l.pos] == '@' {
		l.pos++

		if l.pos >= l.end || !(l.text[l.pos] == '_' || isLetterAt(l.text[l.pos:l.end])) {
			return Token{}, syntaxError(start, "Identifier expected")
		}
	}

	for l.pos < l.end {
		r, n := l.peekRune()
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		l.pos += n
	}

	return Token{Kind: TokenIdent, Text: l.text[start:l.pos], Pos: start}, nil
}

func (l *lexer) scanNumber(start int) (Token, error) {
	kind := TokenInt

	if l.text[l.pos] == '0' && (l.peekByte(1)|0x20 == 'x' || l.peekByte(1)|0x20 == 'b') {
		hex := l.peekByte(1)|0x20 == 'x'
		l.pos += 2

		digits := l.pos
		for l.pos < l.end && (isHexDigit(l.text[l.pos]) && hex ||
			(l.text[l.pos] == '0' || l.text[l.pos] == '1') || l.text[l.pos] == '_') {
			l.pos++
		}

		if l.pos == digits {
			return Token{}, syntaxError(start, "Invalid integer literal")
		}

		if err := l.scanIntSuffix(start); err != nil {
			return Token{}, err
		}

		return l.finishNumber(start, kind)
	}

	l.digits()

	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		kind = TokenReal
		l.pos++
		l.digits()
	}

	if l.peekByte(0)|0x20 == 'e' {
		off := 1
		if s := l.peekByte(1); s == '+' || s == '-' {
			off++
		}

		if !isDigit(l.peekByte(off)) {
			return Token{}, syntaxError(start, "Invalid real literal")
		}

		kind = TokenReal
		l.pos += off
		l.digits()
	}

	switch l.peekByte(0) {
	case 'f', 'F', 'd', 'D', 'm', 'M':
		kind = TokenReal
		l.pos++
	default:
		if kind == TokenInt {
			if err := l.scanIntSuffix(start); err != nil {
				return Token{}, err
			}
		}
	}

	return l.finishNumber(start, kind)
}

// scanIntSuffix consumes an optional u/l suffix in either order without
// repetition.
func (l *lexer) scanIntSuffix(start int) error {
	var seenU, seenL bool

	for {
		switch l.peekByte(0) | 0x20 {
		case 'u':
			if seenU {
				return syntaxError(start, "Invalid integer literal")
			}

			seenU = true
		case 'l':
			if seenL {
				return syntaxError(start, "Invalid integer literal")
			}

			seenL = true
		default:
			return nil
		}

		l.pos++
	}
}

func (l *lexer) finishNumber(start int, kind TokenKind) (Token, error) {
	if l.pos < l.end {
		if r, _ := l.peekRune(); r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return Token{}, syntaxError(start, "Invalid numeric literal")
		}
	}

	return Token{Kind: kind, Text: l.text[start:l.pos], Pos: start}, nil
}

func (l *lexer) digits() {
	for l.pos < l.end && (isDigit(l.text[l.pos]) ||
		l.text[l.pos] == '_' && l.pos > 0 && isDigit(l.text[l.pos-1])) {
		l.pos++
	}
}

func (l *lexer) scanString(start int) (Token, error) {
	l.pos++

	for l.pos < l.end {
		switch l.text[l.pos] {
		case '"':
			l.pos++

			return Token{Kind: TokenString, Text: l.text[start:l.pos], Pos: start}, nil
		case '\\':
			l.pos += 2
		default:
			l.pos++
		}
	}

	return Token{}, syntaxError(start, "Unterminated string literal")
}

func (l *lexer) scanChar(start int) (Token, error) {
	l.pos++

	for l.pos < l.end {
		switch l.text[l.pos] {
		case '\'':
			l.pos++

			return Token{Kind: TokenChar, Text: l.text[start:l.pos], Pos: start}, nil
		case '\\':
			l.pos += 2
		default:
			l.pos++
		}
	}

	return Token{}, syntaxError(start, "Unterminated character literal")
}

// unquote decodes the body of a string or char literal token.
func unquote(tok Token) (string, error) {
	body := tok.Text[1 : len(tok.Text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var sb strings.Builder

	sb.Grow(len(body))

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)

			continue
		}

		i++
		if i >= len(body) {
			return "", syntaxError(tok.Pos+i, "Invalid escape sequence")
		}

		switch body[i] {
		case '\\':
			sb.WriteByte('\\')
		case '\'':
			sb.WriteByte('\'')
		case '"':
			sb.WriteByte('"')
		case '0':
			sb.WriteByte(0)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case 'u':
			r, ok := hexRune(body[i+1:])
			if !ok {
				return "", syntaxError(tok.Pos+i, "Invalid escape sequence")
			}

			sb.WriteRune(r)

			i += 4
		default:
			return "", syntaxError(tok.Pos+i, "Invalid escape sequence")
		}
	}

	return sb.String(), nil
}

func hexRune(s string) (rune, bool) {
	const width = 4
	if len(s) < width {
		return 0, false
	}

	var r rune

	for _, c := range []byte(s[:width]) {
		if !isHexDigit(c) {
			return 0, false
		}

		r = r<<4 | rune(hexVal(c))
	}

	return r, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'f')
}

func hexVal(c byte) byte {
	if isDigit(c) {
		return c - '0'
	}

	return c|0x20 - 'a' + 10
}

func isLetterAt(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r)
}
