package lang

import "strconv"

// TokenKind identifies the lexical class of a [Token].
type TokenKind int

// Token kinds.
const (
	TokenEnd TokenKind = iota
	TokenIdent
	TokenChar
	TokenString
	TokenInt
	TokenReal

	TokenBang          // !
	TokenPercent       // %
	TokenAmp           // &
	TokenLParen        // (
	TokenRParen        // )
	TokenStar          // *
	TokenPlus          // +
	TokenComma         // ,
	TokenMinus         // -
	TokenDot           // .
	TokenSlash         // /
	TokenColon         // :
	TokenLess          // <
	TokenAssign        // =
	TokenGreater       // >
	TokenQuestion      // ?
	TokenLBracket      // [
	TokenRBracket      // ]
	TokenBar           // |
	TokenCaret         // ^
	TokenTilde         // ~
	TokenLBrace        // {
	TokenRBrace        // }
	TokenNotEqual      // !=
	TokenAndAnd        // &&
	TokenOrOr          // ||
	TokenEqual         // ==
	TokenLessEqual     // <=
	TokenGreaterEqual  // >=
	TokenCoalesce      // ??
	TokenArrow         // =>
	TokenQuestionDot   // ?.
	TokenQuestionIndex // ?[
)

var tokenNames = [...]string{
	TokenEnd:           "end of expression",
	TokenIdent:         "identifier",
	TokenChar:          "character literal",
	TokenString:        "string literal",
	TokenInt:           "integer literal",
	TokenReal:          "real literal",
	TokenBang:          "!",
	TokenPercent:       "%",
	TokenAmp:           "&",
	TokenLParen:        "(",
	TokenRParen:        ")",
	TokenStar:          "*",
	TokenPlus:          "+",
	TokenComma:         ",",
	TokenMinus:         "-",
	TokenDot:           ".",
	TokenSlash:         "/",
	TokenColon:         ":",
	TokenLess:          "<",
	TokenAssign:        "=",
	TokenGreater:       ">",
	TokenQuestion:      "?",
	TokenLBracket:      "[",
	TokenRBracket:      "]",
	TokenBar:           "|",
	TokenCaret:         "^",
	TokenTilde:         "~",
	TokenLBrace:        "{",
	TokenRBrace:        "}",
	TokenNotEqual:      "!=",
	TokenAndAnd:        "&&",
	TokenOrOr:          "||",
	TokenEqual:         "==",
	TokenLessEqual:     "<=",
	TokenGreaterEqual:  ">=",
	TokenCoalesce:      "??",
	TokenArrow:         "=>",
	TokenQuestionDot:   "?.",
	TokenQuestionIndex: "?[",
}

// String returns the punctuation text or a description of the kind.
func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenNames) {
		return tokenNames[k]
	}

	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// Token is a lexical unit: its kind, the exact source text, and the 0-based
// offset of its first character.
type Token struct {
	Text string
	Pos  int
	Kind TokenKind
}

// is reports whether the token is the identifier (or keyword) name.
func (t Token) is(name string) bool {
	return t.Kind == TokenIdent && t.Text == name
}
