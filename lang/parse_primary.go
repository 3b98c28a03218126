package lang

import (
	"log/slog"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// keywords cannot be used as identifiers without a leading '@'.
var keywords = map[string]bool{
	"new":     true,
	"typeof":  true,
	"default": true,
	"is":      true,
	"as":      true,
}

func (p *parser) parsePrimary() (Node, error) {
	n, err := p.parsePrimaryStart()
	if err != nil {
		return nil, err
	}

	return p.parsePostfix(n)
}

func (p *parser) parsePrimaryStart() (Node, error) {
	tok := p.tok

	switch tok.Kind {
	case TokenIdent:
		return p.parseIdentifier()
	case TokenInt, TokenReal:
		return p.parseNumber(false, tok.Pos)
	case TokenString:
		s, err := unquote(tok)
		if err != nil {
			return nil, err
		}

		return &Constant{Value: reflect.ValueOf(s), pos: tok.Pos, text: tok.Text}, p.next()
	case TokenChar:
		s, err := unquote(tok)
		if err != nil {
			return nil, err
		}

		if n := len([]rune(s)); n != 1 {
			return nil, syntaxError(tok.Pos, "Character literal must contain exactly one character")
		}

		r := []rune(s)[0]

		return &Constant{Value: reflect.ValueOf(Char(r)), pos: tok.Pos, text: tok.Text}, p.next()
	case TokenLParen:
		if err := p.next(); err != nil {
			return nil, err
		}

		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}

		return n, nil
	}

	return nil, syntaxError(tok.Pos, "Expression expected")
}

func (p *parser) parseIdentifier() (Node, error) {
	tok := p.tok
	name := tok.Text

	if strings.HasPrefix(name, "@") {
		name = name[1:]
	} else {
		switch name {
		case "new":
			return p.parseNew()
		case "typeof":
			return p.parseTypeOf()
		case "default":
			return p.parseDefault()
		case "is", "as":
			return nil, syntaxError(tok.Pos, "Expression expected")
		}
	}

	if param, ok := p.env.resolveParameter(name); ok {
		return &ParamRef{Param: param, pos: tok.Pos}, p.next()
	}

	if id, ok := p.env.resolveIdentifier(name); ok {
		if err := p.next(); err != nil {
			return nil, err
		}

		switch e := id.Expr.(type) {
		case *Constant:
			return &Constant{Value: e.Value, pos: tok.Pos, text: e.text}, nil
		case *MethodGroup:
			return e.at(tok.Pos), nil
		}

		return id.Expr, nil
	}

	if _, ok := p.env.resolveGenericType(name); ok {
		if nt, err := p.peek(); err == nil && nt.Kind == TokenLess {
			t, err := p.requireType()
			if err != nil {
				return nil, err
			}

			return &typeRef{typ: t, pos: tok.Pos}, nil
		}
	}

	if rt, ok := p.env.resolveType(name); ok {
		return &typeRef{typ: rt.Type, pos: tok.Pos}, p.next()
	}

	return nil, unknownIdentifier(name, tok.Pos)
}

// hasValue reports whether name resolves to a parameter or identifier,
// without recording use.
func (p *parser) hasValue(name string) bool {
	for e := p.env; e != nil; e = e.parent {
		for _, q := range e.params {
			if e.equal(q.Name, name) {
				return true
			}
		}
	}

	_, ok := p.env.idents[p.env.key(name)]

	return ok
}

// parseNumber converts the current numeric literal token.
func (p *parser) parseNumber(negative bool, pos int) (Node, error) {
	tok := p.tok

	text := tok.Text
	if negative {
		text = "-" + text
	} else if pos != tok.Pos {
		text = "+" + text
	}

	var (
		v   reflect.Value
		lit bool
		err error
	)

	if tok.Kind == TokenInt {
		v, lit, err = p.integerLiteral(tok.Text, negative, pos)
	} else {
		v, err = p.realLiteral(tok.Text, negative, pos)
	}

	if err != nil {
		return nil, err
	}

	return &Constant{Value: v, pos: pos, text: text, literal: lit}, p.next()
}

// integerLiteral types an integer literal: suffixes select unsigned and
// long forms; unsuffixed values take the first of int, uint, long, ulong
// that holds them unless another default number type is configured.
func (p *parser) integerLiteral(text string, negative bool, pos int) (reflect.Value, bool, error) {
	body := strings.ReplaceAll(text, "_", "")

	var unsigned, long bool

	for len(body) > 0 {
		switch body[len(body)-1] | 0x20 {
		case 'u':
			unsigned = true
		case 'l':
			long = true
		default:
			goto digits
		}

		body = body[:len(body)-1]
	}

digits:
	base := 10

	switch {
	case len(body) > 2 && body[0] == '0' && body[1]|0x20 == 'x':
		base, body = 16, body[2:]
	case len(body) > 2 && body[0] == '0' && body[1]|0x20 == 'b':
		base, body = 2, body[2:]
	}

	u, err := strconv.ParseUint(body, base, 64)
	if err != nil {
		return reflect.Value{}, false, syntaxError(pos, "Invalid integer literal '"+text+"'")
	}

	if negative {
		if unsigned {
			return reflect.Value{}, false, syntaxError(pos, "Invalid integer literal '-"+text+"'")
		}

		if u > 1<<63 {
			return reflect.Value{}, false, syntaxError(pos, "Invalid integer literal '-"+text+"'")
		}

		i := -int64(u)

		switch {
		case long || p.set.numberType == NumberLong:
			return reflect.ValueOf(i), false, nil
		case p.set.numberType == NumberSingle:
			return reflect.ValueOf(float32(i)), false, nil
		case p.set.numberType == NumberDouble:
			return reflect.ValueOf(float64(i)), false, nil
		case p.set.numberType == NumberDecimal:
			return reflect.ValueOf(decimal.NewFromInt(i)), false, nil
		case i >= math.MinInt32:
			return reflect.ValueOf(int32(i)), true, nil
		}

		return reflect.ValueOf(i), true, nil
	}

	switch {
	case unsigned && long:
		return reflect.ValueOf(u), false, nil
	case unsigned:
		if u <= math.MaxUint32 {
			return reflect.ValueOf(uint32(u)), false, nil
		}

		return reflect.ValueOf(u), false, nil
	case long:
		if u <= math.MaxInt64 {
			return reflect.ValueOf(int64(u)), false, nil
		}

		return reflect.ValueOf(u), false, nil
	}

	switch p.set.numberType {
	case NumberLong:
		if u <= math.MaxInt64 {
			return reflect.ValueOf(int64(u)), false, nil
		}

		return reflect.ValueOf(u), false, nil
	case NumberSingle:
		return reflect.ValueOf(float32(u)), false, nil
	case NumberDouble:
		return reflect.ValueOf(float64(u)), false, nil
	case NumberDecimal:
		return reflect.ValueOf(decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)), false, nil
	}

	switch {
	case u <= math.MaxInt32:
		return reflect.ValueOf(int32(u)), true, nil
	case u <= math.MaxUint32:
		return reflect.ValueOf(uint32(u)), true, nil
	case u <= math.MaxInt64:
		return reflect.ValueOf(int64(u)), true, nil
	}

	return reflect.ValueOf(u), true, nil
}

// realLiteral types a real literal by suffix: f for float, m for decimal,
// d (or none) for double unless another default is configured.
func (p *parser) realLiteral(text string, negative bool, pos int) (reflect.Value, error) {
	body := strings.ReplaceAll(text, "_", "")
	if negative {
		body = "-" + body
	}

	suffix := byte(0)
	if c := body[len(body)-1] | 0x20; c == 'f' || c == 'd' || c == 'm' {
		suffix = c
		body = body[:len(body)-1]
	}

	if suffix == 0 {
		switch p.set.numberType {
		case NumberSingle:
			suffix = 'f'
		case NumberDecimal:
			suffix = 'm'
		}
	}

	switch suffix {
	case 'f':
		f, err := strconv.ParseFloat(body, 32)
		if err != nil {
			return reflect.Value{}, syntaxError(pos, "Invalid real literal '"+text+"'")
		}

		return reflect.ValueOf(float32(f)), nil
	case 'm':
		d, err := decimal.NewFromString(body)
		if err != nil {
			return reflect.Value{}, syntaxError(pos, "Invalid real literal '"+text+"'")
		}

		return reflect.ValueOf(d), nil
	}

	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return reflect.Value{}, syntaxError(pos, "Invalid real literal '"+text+"'")
	}

	return reflect.ValueOf(f), nil
}

// parsePostfix applies member access, indexing, and invocation.
func (p *parser) parsePostfix(n Node) (Node, error) {
	for {
		pos := p.tok.Pos

		switch p.tok.Kind {
		case TokenDot:
			if err := p.next(); err != nil {
				return nil, err
			}

			m, err := p.parseMember(n)
			if err != nil {
				return nil, err
			}

			n = m
		case TokenQuestionDot, TokenQuestionIndex:
			return p.parseNullConditional(n, pos)
		case TokenLBracket:
			if err := p.next(); err != nil {
				return nil, err
			}

			args, err := p.parseArgs(TokenRBracket)
			if err != nil {
				return nil, err
			}

			if n, err = p.index(n, args, pos); err != nil {
				return nil, err
			}
		case TokenLParen:
			if err := p.next(); err != nil {
				return nil, err
			}

			args, err := p.parseArgs(TokenRParen)
			if err != nil {
				return nil, err
			}

			if n, err = p.invoke(n, args, pos); err != nil {
				return nil, err
			}
		default:
			return n, nil
		}
	}
}

// parseMember parses the name after '.' and an optional argument list.
func (p *parser) parseMember(n Node) (Node, error) {
	if p.tok.Kind != TokenIdent {
		return nil, syntaxError(p.tok.Pos, "Identifier expected")
	}

	name := strings.TrimPrefix(p.tok.Text, "@")
	namePos := p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	if p.tok.Kind == TokenLParen {
		if err := p.next(); err != nil {
			return nil, err
		}

		args, err := p.parseArgs(TokenRParen)
		if err != nil {
			return nil, err
		}

		return p.callMember(n, name, args, namePos)
	}

	return p.member(n, name, namePos)
}

// parseNullConditional lowers "t?.rest" to a Let binding t once and
// yielding null when it is null, otherwise the nullable of rest.
func (p *parser) parseNullConditional(target Node, pos int) (Node, error) {
	target, err := p.value(target)
	if err != nil {
		return nil, err
	}

	tt := target.Type()
	if !isNilable(tt) {
		return nil, incompatibleOperand("?", TypeName(tt), pos)
	}

	p.temps++
	tmp := &Parameter{Name: "$" + strconv.Itoa(p.temps), Type: tt}
	ref := &ParamRef{Param: tmp, pos: target.Pos()}

	var inner Node

	if p.tok.Kind == TokenQuestionDot {
		if err := p.next(); err != nil {
			return nil, err
		}

		inner, err = p.parseMember(ref)
	} else {
		if err := p.next(); err != nil {
			return nil, err
		}

		var args []Node

		if args, err = p.parseArgs(TokenRBracket); err == nil {
			inner, err = p.index(ref, args, pos)
		}
	}

	if err != nil {
		return nil, err
	}

	if inner, err = p.parsePostfix(inner); err != nil {
		return nil, err
	}

	if inner, err = p.value(inner); err != nil {
		return nil, err
	}

	rt := inner.Type()
	if rt != typeVoid {
		rt = nullableOf(rt)

		if inner, err = p.coerce(inner, rt); err != nil {
			return nil, err
		}
	}

	test := &Binary{Op: OpEq, Left: ref, Right: &Constant{Value: reflect.Zero(tt), pos: pos}, typ: typeBool, pos: pos}

	var then Node = &Constant{Value: reflect.Zero(rt), pos: pos, text: "null"}
	if rt == typeVoid {
		then = &Constant{Value: reflect.ValueOf(void{}), pos: pos}
	}

	return &Let{
		Var:   tmp,
		Value: target,
		Body:  &Conditional{Test: test, Then: then, Else: inner, typ: rt, pos: pos},
		text:  target.String() + strings.Replace(inner.String(), tmp.Name, "?", 1),
		pos:   target.Pos(),
	}, nil
}

// parseType parses a type name with generic arguments and '?' and '[]'
// suffixes. It reports false without error when the tokens do not form a
// known type; the caller restores its checkpoint in that case.
func (p *parser) parseType(arraySuffix bool) (reflect.Type, bool, error) {
	if p.tok.Kind != TokenIdent {
		return nil, false, nil
	}

	name := p.tok.Text

	if strings.HasPrefix(name, "@") {
		name = name[1:]
	} else if keywords[name] {
		return nil, false, nil
	}

	if p.hasValue(name) {
		return nil, false, nil
	}

	var t reflect.Type

	if err := p.next(); err != nil {
		return nil, false, err
	}

	if g, ok := p.env.resolveGenericType(name); ok && p.tok.Kind == TokenLess {
		if err := p.next(); err != nil {
			return nil, false, err
		}

		var args []reflect.Type

		for {
			a, ok, err := p.parseType(true)
			if err != nil || !ok {
				return nil, false, err
			}

			args = append(args, a)

			if p.tok.Kind != TokenComma {
				break
			}

			if err := p.next(); err != nil {
				return nil, false, err
			}
		}

		if p.tok.Kind != TokenGreater {
			return nil, false, nil
		}

		if err := p.next(); err != nil {
			return nil, false, err
		}

		if g.Arity >= 0 && len(args) != g.Arity {
			return nil, false, nil
		}

		made, err := g.Make(args)
		if err != nil {
			return nil, false, nil //nolint:nilerr // invalid instantiation is not a type
		}

		t = made
	} else {
		rt, ok := p.env.resolveType(name)
		if !ok {
			return nil, false, nil
		}

		t = rt.Type
	}

	for {
		switch p.tok.Kind {
		case TokenQuestion:
			nt, err := p.peek()
			if err != nil {
				return nil, false, err
			}

			if startsOperand(nt) && nt.Kind != TokenLParen {
				return t, true, nil
			}

			t = nullableOf(t)

			if err := p.next(); err != nil {
				return nil, false, err
			}

			continue
		case TokenLBracket:
			if !arraySuffix {
				return t, true, nil
			}

			nt, err := p.peek()
			if err != nil {
				return nil, false, err
			}

			switch nt.Kind {
			case TokenRBracket:
				t = reflect.SliceOf(t)

				if err := p.next(); err != nil {
					return nil, false, err
				}

				if err := p.next(); err != nil {
					return nil, false, err
				}

				continue
			case TokenComma:
				return nil, false, syntaxError(p.tok.Pos, "Multi-dimensional arrays are not supported")
			}
		}

		return t, true, nil
	}
}

// requireType parses a type in a position where one is mandatory.
func (p *parser) requireType() (reflect.Type, error) {
	pos := p.tok.Pos
	tok := p.tok

	t, ok, err := p.parseType(true)
	if err != nil {
		return nil, err
	}

	if !ok {
		if tok.Kind == TokenIdent && !keywords[tok.Text] && !p.hasValue(tok.Text) {
			name := strings.TrimPrefix(tok.Text, "@")
			if _, isGeneric := p.env.resolveGenericType(name); !isGeneric {
				return nil, unknownIdentifier(name, pos)
			}
		}

		return nil, syntaxError(pos, "Type identifier expected")
	}

	return t, nil
}

func (p *parser) parseTypeOf() (Node, error) {
	pos := p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	t, err := p.requireType()
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	v := reflect.New(typeType).Elem()
	v.Set(reflect.ValueOf(t))

	return &Constant{Value: v, pos: pos, text: "typeof(" + TypeName(t) + ")"}, nil
}

func (p *parser) parseDefault() (Node, error) {
	pos := p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	t, err := p.requireType()
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return &Constant{Value: reflect.Zero(t), pos: pos, text: "default(" + TypeName(t) + ")"}, nil
}

// parseNew parses object, collection, and array creation.
func (p *parser) parseNew() (Node, error) {
	pos := p.tok.Pos

	if err := p.next(); err != nil {
		return nil, err
	}

	if p.tok.Kind == TokenLBracket {
		return p.parseImplicitArray(pos)
	}

	t, err := p.requireTypeNoArray()
	if err != nil {
		return nil, err
	}

	if p.tok.Kind == TokenLBracket {
		return p.parseNewArray(t, pos)
	}

	var args []Node

	if p.tok.Kind == TokenLParen {
		if err := p.next(); err != nil {
			return nil, err
		}

		if args, err = p.parseArgs(TokenRParen); err != nil {
			return nil, err
		}
	} else if p.tok.Kind != TokenLBrace {
		return nil, syntaxError(p.tok.Pos, "'(' or '{' expected")
	}

	n, err := p.construct(t, args, pos)
	if err != nil {
		return nil, err
	}

	if p.tok.Kind == TokenLBrace {
		if err := p.parseInitializer(n); err != nil {
			return nil, err
		}
	}

	return n, nil
}

func (p *parser) requireTypeNoArray() (reflect.Type, error) {
	pos := p.tok.Pos

	t, ok, err := p.parseType(false)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, syntaxError(pos, "Type identifier expected")
	}

	return t, nil
}

// construct resolves a constructor call, or a zero value for types without
// registered constructors.
func (p *parser) construct(t reflect.Type, args []Node, pos int) (*NewExpr, error) {
	ctors := p.constructors(t)

	if len(ctors) == 0 {
		if len(args) > 0 {
			return nil, ErrNoApplicableMethod.
				Detail("No applicable constructor exists in type '"+TypeName(t)+"'").
				At(pos).
				With(slog.String("owner", TypeName(t)))
		}

		return &NewExpr{typ: t, pos: pos}, nil
	}

	c, err := p.pick(ctors, args, ".ctor", t, pos)
	if err != nil {
		return nil, err
	}

	return &NewExpr{typ: t, Ctor: c.method, Args: c.args, Bindings: c.bindings, pos: pos}, nil
}

// parseInitializer parses "{ Member = v, ... }" or "{ item, ... }".
func (p *parser) parseInitializer(n *NewExpr) error {
	if err := p.next(); err != nil {
		return err
	}

	for p.tok.Kind != TokenRBrace {
		if err := p.parseInitItem(n); err != nil {
			return err
		}

		if p.tok.Kind != TokenComma {
			break
		}

		if err := p.next(); err != nil {
			return err
		}
	}

	return p.expect(TokenRBrace)
}

func (p *parser) parseInitItem(n *NewExpr) error {
	t := n.typ
	pos := p.tok.Pos

	if p.tok.Kind == TokenIdent {
		if nt, err := p.peek(); err == nil && nt.Kind == TokenAssign {
			if len(n.Elems) > 0 || len(n.Pairs) > 0 {
				return syntaxError(pos, "Invalid initializer member declarator")
			}

			name := strings.TrimPrefix(p.tok.Text, "@")

			prop := p.findProperty(t, name, false)
			if prop == nil {
				return unknownMember(name, t, pos)
			}

			if !prop.Writable() {
				return ErrNotWritable.Detail("Property or field '"+name+"' is read only").At(pos)
			}

			if err := p.next(); err != nil {
				return err
			}

			if err := p.next(); err != nil {
				return err
			}

			v, err := p.parseExpr()
			if err != nil {
				return err
			}

			if v, err = p.coerce(v, prop.Type); err != nil {
				return err
			}

			n.Inits = append(n.Inits, MemberInit{Property: prop, Value: v})

			return nil
		}
	}

	if len(n.Inits) > 0 {
		return syntaxError(pos, "Invalid initializer member declarator")
	}

	switch t.Kind() {
	case reflect.Slice:
		v, err := p.parseExpr()
		if err != nil {
			return err
		}

		if v, err = p.coerce(v, t.Elem()); err != nil {
			return err
		}

		n.Elems = append(n.Elems, v)

		return nil
	case reflect.Map:
		if err := p.expect(TokenLBrace); err != nil {
			return err
		}

		k, err := p.parseExpr()
		if err != nil {
			return err
		}

		if k, err = p.coerce(k, t.Key()); err != nil {
			return err
		}

		if err := p.expect(TokenComma); err != nil {
			return err
		}

		v, err := p.parseExpr()
		if err != nil {
			return err
		}

		if v, err = p.coerce(v, t.Elem()); err != nil {
			return err
		}

		n.Pairs = append(n.Pairs, [2]Node{k, v})

		return p.expect(TokenRBrace)
	}

	return syntaxError(pos, "Type '"+TypeName(t)+"' does not support collection initializers")
}

// parseNewArray parses "new T[] { ... }", "new T[n]", and jagged forms
// after the element type.
func (p *parser) parseNewArray(elem reflect.Type, pos int) (Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}

	var length Node

	switch p.tok.Kind {
	case TokenComma:
		return nil, syntaxError(p.tok.Pos, "Multi-dimensional arrays are not supported")
	case TokenRBracket:
	default:
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if length, err = p.coerce(n, typeInt); err != nil {
			return nil, err
		}
	}

	if err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}

	// Remaining rank specifiers make the element itself a slice.
	for p.tok.Kind == TokenLBracket {
		nt, err := p.peek()
		if err != nil {
			return nil, err
		}

		if nt.Kind == TokenComma {
			return nil, syntaxError(nt.Pos, "Multi-dimensional arrays are not supported")
		}

		if nt.Kind != TokenRBracket {
			return nil, syntaxError(nt.Pos, "']' expected")
		}

		elem = reflect.SliceOf(elem)

		if err := p.next(); err != nil {
			return nil, err
		}

		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if p.tok.Kind != TokenLBrace {
		if length == nil {
			return nil, syntaxError(p.tok.Pos, "Array creation must have array size or array initializer")
		}

		return &NewArray{Elem: elem, Len: length, pos: pos}, nil
	}

	items, err := p.parseArrayItems(elem)
	if err != nil {
		return nil, err
	}

	if c, ok := length.(*Constant); ok && c.Value.Int() != int64(len(items)) {
		return nil, syntaxError(pos, "An array initializer of length "+
			strconv.FormatInt(c.Value.Int(), 10)+" is expected")
	} else if length != nil && !ok {
		return nil, syntaxError(length.Pos(), "A constant value is expected")
	}

	return &NewArray{Elem: elem, Items: items, pos: pos}, nil
}

// parseArrayItems parses "{ e, ... }" where nested braces initialize
// jagged element slices.
func (p *parser) parseArrayItems(elem reflect.Type) ([]Node, error) {
	if err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}

	var items []Node

	for p.tok.Kind != TokenRBrace {
		var (
			item Node
			err  error
		)

		if p.tok.Kind == TokenLBrace && elem.Kind() == reflect.Slice {
			pos := p.tok.Pos

			var sub []Node

			if sub, err = p.parseArrayItems(elem.Elem()); err != nil {
				return nil, err
			}

			item = &NewArray{Elem: elem.Elem(), Items: sub, pos: pos}
		} else {
			if item, err = p.parseExpr(); err != nil {
				return nil, err
			}

			if item, err = p.coerce(item, elem); err != nil {
				return nil, err
			}
		}

		items = append(items, item)

		if p.tok.Kind != TokenComma {
			break
		}

		if err := p.next(); err != nil {
			return nil, err
		}
	}

	return items, p.expect(TokenRBrace)
}

// parseImplicitArray parses "new[] { ... }", typing the elements by the
// unique element type every other element converts to.
func (p *parser) parseImplicitArray(pos int) (Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}

	if err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}

	if err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}

	var raw []Node

	for p.tok.Kind != TokenRBrace {
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if item, err = p.value(item); err != nil {
			return nil, err
		}

		raw = append(raw, item)

		if p.tok.Kind != TokenComma {
			break
		}

		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, syntaxError(pos, "No best type found for implicitly-typed array")
	}

	for _, cand := range raw {
		elem := cand.Type()
		if elem == typeNull {
			continue
		}

		items := make([]Node, len(raw))
		ok := true

		for i, r := range raw {
			if items[i], ok = p.promote(r, elem, true); !ok {
				break
			}
		}

		if ok {
			return &NewArray{Elem: elem, Items: items, pos: pos}, nil
		}
	}

	return nil, syntaxError(pos, "No best type found for implicitly-typed array")
}

func unknownMember(name string, t reflect.Type, pos int) *Error {
	return ErrUnknownIdentifier.
		Detail("No property or field '"+name+"' exists in type '"+TypeName(t)+"'").
		At(pos).
		With(slog.String("name", name), slog.String("owner", TypeName(t)))
}
