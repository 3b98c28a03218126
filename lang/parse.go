package lang

import (
	"context"
	"log/slog"
	"reflect"
	"strconv"
)

// parser is a recursive-descent parser producing typed nodes. Names are
// resolved and overloads chosen while parsing, so the result is a fully
// bound tree.
type parser struct {
	ctx   context.Context
	lex   *lexer
	env   *Environment
	set   *settings
	text  string
	tok   Token
	depth int
	temps int
}

// checkpoint captures the token stream position for speculative parsing.
type checkpoint struct {
	lex lexerState
	tok Token
}

func newParser(ctx context.Context, lex *lexer, env *Environment, set *settings) *parser {
	return &parser{ctx: ctx, lex: lex, env: env, set: set, text: lex.text}
}

func (p *parser) save() checkpoint { return checkpoint{lex: p.lex.save(), tok: p.tok} }

func (p *parser) restore(c checkpoint) {
	p.lex.restore(c.lex)
	p.tok = c.tok
}

func (p *parser) next() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}

	p.tok = tok

	return nil
}

// peek returns the token after the current one without consuming it.
func (p *parser) peek() (Token, error) {
	if p.tok.Kind == TokenEnd {
		return p.tok, nil
	}

	c := p.save()
	defer p.restore(c)

	if err := p.next(); err != nil {
		return Token{}, err
	}

	return p.tok, nil
}

func (p *parser) expect(kind TokenKind) error {
	if p.tok.Kind != kind {
		return syntaxError(p.tok.Pos, "'"+kind.String()+"' expected")
	}

	return p.next()
}

// adjacent reports whether the byte right after the current single-char
// token is c, which distinguishes shift operators from comparisons.
func (p *parser) adjacent(c byte) bool {
	i := p.tok.Pos + 1
	return i < len(p.text) && p.text[i] == c
}

func (p *parser) enter() error {
	if err := p.ctx.Err(); err != nil {
		return err
	}

	p.depth++
	if p.depth > p.set.maxDepth {
		return syntaxError(p.tok.Pos, "Maximum nesting depth of "+
			strconv.Itoa(p.set.maxDepth)+" exceeded").Wrap(ErrMaxDepthExceeded)
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

// parse reads one complete expression from the token stream. A non-nil to
// converts the result to that type.
func (p *parser) parse(to reflect.Type) (Node, error) {
	if err := p.ctx.Err(); err != nil {
		return nil, err
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.tok.Kind != TokenEnd {
		return nil, syntaxError(p.tok.Pos, "Syntax error '"+p.tok.Text+"'")
	}

	if to == nil {
		return p.value(n)
	}

	return p.coerce(n, to)
}

// value rejects nodes that cannot stand alone as values.
func (p *parser) value(n Node) (Node, error) {
	switch n := n.(type) {
	case *typeRef:
		return nil, syntaxError(n.pos, "'"+TypeName(n.typ)+"' is a type, which is not valid in the given context")
	case *lambdaPlaceholder:
		return nil, syntaxError(n.pos, "Lambda expression requires a target func type")
	case *MethodGroup:
		if n.Type() == typeVoid {
			return nil, syntaxError(n.pos, "Method group '"+n.Name+"' requires an invocation")
		}
	}

	return n, nil
}

func (p *parser) parseExpr() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.set.lambdas {
		if ph, ok, err := p.tryLambda(); err != nil || ok {
			return ph, err
		}
	}

	return p.parseAssignment()
}

func (p *parser) parseAssignment() (Node, error) {
	left, err := p.parseConditional()
	if err != nil || p.tok.Kind != TokenAssign {
		return left, err
	}

	pos := p.tok.Pos

	if !p.set.assignment {
		return nil, ErrAssignmentDisabled.Detail("Assignment operator disabled").At(pos)
	}

	if !writable(left) {
		return nil, ErrNotWritable.Detail("Expression must be writable").At(pos)
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	right, err = p.coerce(right, left.Type())
	if err != nil {
		return nil, err
	}

	return &Assign{Target: left, Value: right, pos: pos}, nil
}

// writable reports whether n denotes a storage location.
func writable(n Node) bool {
	switch n := n.(type) {
	case *ParamRef:
		return true
	case *MemberAccess:
		return n.Property.Writable()
	case *Element:
		return n.Instance.Type().Kind() != reflect.String
	case *Index:
		return n.Indexer.set != nil
	case *DynamicOp:
		return n.Kind == DynamicGetMember || n.Kind == DynamicGetIndex
	}

	return false
}

// coerce converts n to type to for storage, resolving lambdas against func
// types.
func (p *parser) coerce(n Node, to reflect.Type) (Node, error) {
	if ph, ok := n.(*lambdaPlaceholder); ok {
		lam, err := p.lambdaFor(ph, to)
		if err != nil {
			return nil, err
		}

		return lam, nil
	}

	n, err := p.value(n)
	if err != nil {
		return nil, err
	}

	if c, ok := p.promote(n, to, true); ok {
		return c, nil
	}

	return nil, conversionError(TypeName(n.Type()), TypeName(to), n.Pos())
}

func (p *parser) parseConditional() (Node, error) {
	expr, err := p.parseOrElse()
	if err != nil {
		return nil, err
	}

	for p.tok.Kind == TokenCoalesce || p.tok.Kind == TokenQuestion {
		pos := p.tok.Pos
		kind := p.tok.Kind

		if err := p.next(); err != nil {
			return nil, err
		}

		if kind == TokenCoalesce {
			right, err := p.parseConditional()
			if err != nil {
				return nil, err
			}

			if expr, err = p.coalesce(expr, right, pos); err != nil {
				return nil, err
			}

			continue
		}

		then, err := p.parseConditional()
		if err != nil {
			return nil, err
		}

		if err := p.expect(TokenColon); err != nil {
			return nil, err
		}

		els, err := p.parseConditional()
		if err != nil {
			return nil, err
		}

		if expr, err = p.conditional(expr, then, els, pos); err != nil {
			return nil, err
		}
	}

	return expr, nil
}

func (p *parser) conditional(test, then, els Node, pos int) (Node, error) {
	test, err := p.condition(test)
	if err != nil {
		return nil, err
	}

	if then, err = p.value(then); err != nil {
		return nil, err
	}

	if els, err = p.value(els); err != nil {
		return nil, err
	}

	then, els, err = p.unifyBranches(then, els, pos)
	if err != nil {
		return nil, err
	}

	return &Conditional{Test: test, Then: then, Else: els, typ: then.Type(), pos: pos}, nil
}

// condition converts a test expression to bool.
func (p *parser) condition(test Node) (Node, error) {
	test, err := p.value(test)
	if err != nil {
		return nil, err
	}

	if c, ok := p.promote(test, typeBool, true); ok {
		return c, nil
	}

	return nil, conversionError(TypeName(test.Type()), "bool", test.Pos())
}

// unifyBranches gives both branches a common type: exactly one must convert
// to the type of the other.
func (p *parser) unifyBranches(a, b Node, pos int) (Node, Node, error) {
	if a.Type() == b.Type() {
		return a, b, nil
	}

	// null meets a string as a nullable string.
	if (isNull(a) && b.Type() == typeString) || (isNull(b) && a.Type() == typeString) {
		ns := nullableOf(typeString)
		a, _ = p.promote(a, ns, true)
		b, _ = p.promote(b, ns, true)

		return a, b, nil
	}

	var aAsB, bAsA Node

	if !isNull(b) {
		aAsB, _ = p.promote(a, b.Type(), true)
	}

	if !isNull(a) {
		bAsA, _ = p.promote(b, a.Type(), true)
	}

	switch {
	case aAsB != nil && bAsA == nil:
		return aAsB, b, nil
	case bAsA != nil && aAsB == nil:
		return a, bAsA, nil
	case aAsB != nil:
		return nil, nil, ErrTypeConversion.Detail(
			"Both of the types '"+TypeName(a.Type())+"' and '"+TypeName(b.Type())+
				"' convert to the other").At(pos)
	}

	return nil, nil, ErrTypeConversion.Detail(
		"Neither of the types '"+TypeName(a.Type())+"' and '"+TypeName(b.Type())+
			"' converts to the other").At(pos).
		With(slog.String("from", TypeName(a.Type())), slog.String("to", TypeName(b.Type())))
}

func (p *parser) coalesce(left, right Node, pos int) (Node, error) {
	left, err := p.value(left)
	if err != nil {
		return nil, err
	}

	if right, err = p.value(right); err != nil {
		return nil, err
	}

	if isNull(left) {
		return right, nil
	}

	lt := left.Type()
	if !isNilable(lt) && lt != typeNull {
		return nil, incompatibleOperand("??", TypeName(lt), pos)
	}

	if lt == typeDynamic {
		r, ok := p.promote(right, typeDynamic, true)
		if ok {
			return &Coalesce{Left: left, Right: r, typ: typeDynamic, pos: pos}, nil
		}
	}

	if elem, ok := nullableElem(lt); ok && !isNull(right) {
		if r, ok := p.promote(right, elem, true); ok {
			return &Coalesce{Left: left, Right: r, typ: elem, Unwrap: true, pos: pos}, nil
		}
	}

	l, r, err := p.unifyBranches(left, right, pos)
	if err != nil {
		return nil, err
	}

	return &Coalesce{Left: l, Right: r, typ: l.Type(), pos: pos}, nil
}

// binaryLevel parses a left-associative chain of operators at one
// precedence level.
func (p *parser) binaryLevel(ops map[TokenKind]Op, operand func() (Node, error)) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := ops[p.tok.Kind]
		if !ok {
			return left, nil
		}

		pos := p.tok.Pos

		if err := p.next(); err != nil {
			return nil, err
		}

		right, err := operand()
		if err != nil {
			return nil, err
		}

		if left, err = p.binary(op, left, right, pos); err != nil {
			return nil, err
		}
	}
}

var (
	orElseOps         = map[TokenKind]Op{TokenOrOr: OpOrElse}
	andAlsoOps        = map[TokenKind]Op{TokenAndAnd: OpAndAlso}
	bitOrOps          = map[TokenKind]Op{TokenBar: OpOr}
	bitXorOps         = map[TokenKind]Op{TokenCaret: OpXor}
	bitAndOps         = map[TokenKind]Op{TokenAmp: OpAnd}
	additiveOps       = map[TokenKind]Op{TokenPlus: OpAdd, TokenMinus: OpSub}
	multiplicativeOps = map[TokenKind]Op{TokenStar: OpMul, TokenSlash: OpDiv, TokenPercent: OpMod}
	comparisonOps     = map[TokenKind]Op{
		TokenEqual: OpEq, TokenNotEqual: OpNe,
		TokenLess: OpLt, TokenGreater: OpGt,
		TokenLessEqual: OpLe, TokenGreaterEqual: OpGe,
	}
)

func (p *parser) parseOrElse() (Node, error) {
	return p.binaryLevel(orElseOps, p.parseAndAlso)
}

func (p *parser) parseAndAlso() (Node, error) {
	return p.binaryLevel(andAlsoOps, p.parseBitOr)
}

func (p *parser) parseBitOr() (Node, error) {
	return p.binaryLevel(bitOrOps, p.parseBitXor)
}

func (p *parser) parseBitXor() (Node, error) {
	return p.binaryLevel(bitXorOps, p.parseBitAnd)
}

func (p *parser) parseBitAnd() (Node, error) {
	return p.binaryLevel(bitAndOps, p.parseComparison)
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}

	for {
		pos := p.tok.Pos

		switch {
		case p.tok.is("is"), p.tok.is("as"):
			as := p.tok.is("as")

			if err := p.next(); err != nil {
				return nil, err
			}

			t, err := p.requireType()
			if err != nil {
				return nil, err
			}

			if left, err = p.typeTest(left, t, as, pos); err != nil {
				return nil, err
			}

			continue
		}

		op, ok := comparisonOps[p.tok.Kind]
		if !ok {
			return left, nil
		}

		if err := p.next(); err != nil {
			return nil, err
		}

		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}

		if left, err = p.binary(op, left, right, pos); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseShift() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		var op Op

		switch {
		case p.tok.Kind == TokenLess && p.adjacent('<'):
			op = OpShl
		case p.tok.Kind == TokenGreater && p.adjacent('>'):
			op = OpShr
		default:
			return left, nil
		}

		pos := p.tok.Pos

		if err := p.next(); err != nil {
			return nil, err
		}

		if err := p.next(); err != nil {
			return nil, err
		}

		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}

		if left, err = p.binary(op, left, right, pos); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseAdditive() (Node, error) {
	return p.binaryLevel(additiveOps, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (Node, error) {
	return p.binaryLevel(multiplicativeOps, p.parseUnary)
}

func (p *parser) parseUnary() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	pos := p.tok.Pos

	var op Op

	switch p.tok.Kind {
	case TokenMinus:
		op = OpNeg
	case TokenPlus:
		op = OpPlus
	case TokenBang:
		op = OpNot
	case TokenTilde:
		op = OpComplement
	case TokenLParen:
		if n, ok, err := p.tryCast(); err != nil || ok {
			return n, err
		}

		return p.parsePrimary()
	default:
		return p.parsePrimary()
	}

	if err := p.next(); err != nil {
		return nil, err
	}

	// A sign directly preceding a numeric literal is part of the literal.
	if (op == OpNeg || op == OpPlus) && (p.tok.Kind == TokenInt || p.tok.Kind == TokenReal) {
		lit, err := p.parseNumber(op == OpNeg, pos)
		if err != nil {
			return nil, err
		}

		return p.parsePostfix(lit)
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return p.unary(op, operand, pos)
}

// tryCast parses "(T)operand" when the parenthesized text is a type and the
// token after ')' can begin an operand.
func (p *parser) tryCast() (Node, bool, error) {
	c := p.save()
	pos := p.tok.Pos

	if err := p.next(); err != nil {
		p.restore(c)

		return nil, false, nil //nolint:nilerr // not a cast; reparse as primary
	}

	t, ok, err := p.parseType(true)
	if err != nil || !ok || p.tok.Kind != TokenRParen {
		p.restore(c)

		return nil, false, nil //nolint:nilerr // not a cast; reparse as primary
	}

	nt, err := p.peek()
	if err != nil || !startsOperand(nt) {
		p.restore(c)

		return nil, false, nil //nolint:nilerr // not a cast; reparse as primary
	}

	if err := p.next(); err != nil {
		return nil, false, err
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, false, err
	}

	n, err := p.cast(operand, t, pos)

	return n, true, err
}

// startsOperand reports whether tok can begin a unary expression.
func startsOperand(tok Token) bool {
	switch tok.Kind {
	case TokenIdent:
		return !tok.is("is") && !tok.is("as")
	case TokenInt, TokenReal, TokenChar, TokenString, TokenLParen,
		TokenBang, TokenTilde, TokenMinus, TokenPlus:
		return true
	}

	return false
}

// cast applies an explicit conversion.
func (p *parser) cast(operand Node, t reflect.Type, pos int) (Node, error) {
	operand, err := p.value(operand)
	if err != nil {
		return nil, err
	}

	from := operand.Type()
	if from == t {
		return operand, nil
	}

	if isNull(operand) {
		if c, ok := p.promote(operand, t, true); ok {
			return c, nil
		}
	}

	if c, ok := operand.(*Constant); ok && c.literal {
		if v, ok := fitLiteral(c.Value, t); ok {
			return &Constant{Value: v, pos: c.pos, text: c.text}, nil
		}
	}

	if !explicitType(from, t) {
		return nil, conversionError(TypeName(from), TypeName(t), pos)
	}

	if c, ok := operand.(*Constant); ok {
		v, err := convertValue(c.Value, t, true)
		if err != nil {
			if e, ok := err.(*Error); ok {
				return nil, e.root().Detail(e.Message()).At(pos)
			}

			return nil, err
		}

		return &Constant{Value: v, pos: pos}, nil
	}

	return &Convert{Operand: operand, To: t, Explicit: true, pos: pos}, nil
}

func (p *parser) typeTest(operand Node, t reflect.Type, as bool, pos int) (Node, error) {
	operand, err := p.value(operand)
	if err != nil {
		return nil, err
	}

	// Strings are references, so "as string" yields a nullable string.
	if as && t == typeString {
		t = nullableOf(t)
	}

	if as && !isNilable(t) {
		return nil, ErrTypeConversion.Detail(
			"The as operator must be used with a nullable type ('"+TypeName(t)+"' is a value type)").
			At(pos)
	}

	return &TypeTest{Operand: operand, Target: t, As: as, pos: pos}, nil
}

// parseArgs parses a comma-separated argument list after the opening
// delimiter up to and including close.
func (p *parser) parseArgs(closer TokenKind) ([]Node, error) {
	var args []Node

	if p.tok.Kind == closer {
		return nil, p.next()
	}

	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		if p.tok.Kind != TokenComma {
			break
		}

		if err := p.next(); err != nil {
			return nil, err
		}
	}

	return args, p.expect(closer)
}

func (p *parser) trace(msg string, attrs ...slog.Attr) {
	p.set.logger.TraceContext(p.ctx, msg, attrs...)
}
