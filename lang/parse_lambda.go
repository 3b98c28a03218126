package lang

import (
	"log/slog"
	"reflect"
	"strings"
)

// tryLambda recognizes a lambda parameter list followed by "=>". On any
// structural mismatch it restores the token position and reports false.
// The body is only delimited here; it is parsed once a target func type
// supplies the parameter types.
func (p *parser) tryLambda() (Node, bool, error) {
	switch p.tok.Kind {
	case TokenIdent:
		if keywords[p.tok.Text] {
			return nil, false, nil
		}

		nt, err := p.peek()
		if err != nil || nt.Kind != TokenArrow {
			return nil, false, nil //nolint:nilerr // not a lambda
		}

		pos := p.tok.Pos
		params := []lambdaParam{{name: strings.TrimPrefix(p.tok.Text, "@")}}

		if err := p.next(); err != nil {
			return nil, false, err
		}

		n, err := p.lambdaBody(params, pos)

		return n, true, err
	case TokenLParen:
	default:
		return nil, false, nil
	}

	c := p.save()
	pos := p.tok.Pos

	params, ok := p.lambdaParams()
	if !ok || p.tok.Kind != TokenArrow {
		p.restore(c)

		return nil, false, nil
	}

	n, err := p.lambdaBody(params, pos)

	return n, true, err
}

// lambdaParams parses "(a, b)", "(int a, string b)", or "()".
func (p *parser) lambdaParams() ([]lambdaParam, bool) {
	if p.next() != nil {
		return nil, false
	}

	var params []lambdaParam

	if p.tok.Kind == TokenRParen {
		return params, p.next() == nil
	}

	for {
		if p.tok.Kind != TokenIdent || keywords[p.tok.Text] {
			return nil, false
		}

		var lp lambdaParam

		if nt, err := p.peek(); err != nil {
			return nil, false
		} else if nt.Kind == TokenComma || nt.Kind == TokenRParen {
			lp.name = strings.TrimPrefix(p.tok.Text, "@")

			if p.next() != nil {
				return nil, false
			}
		} else {
			t, ok, err := p.parseType(true)
			if err != nil || !ok || p.tok.Kind != TokenIdent {
				return nil, false
			}

			lp.typ, lp.name = t, strings.TrimPrefix(p.tok.Text, "@")

			if p.next() != nil {
				return nil, false
			}
		}

		params = append(params, lp)

		switch p.tok.Kind {
		case TokenComma:
			if p.next() != nil {
				return nil, false
			}
		case TokenRParen:
			return params, p.next() == nil
		default:
			return nil, false
		}
	}
}

// lambdaBody consumes "=>" and the body tokens, up to the first unmatched
// ',' or closing delimiter.
func (p *parser) lambdaBody(params []lambdaParam, pos int) (Node, error) {
	if err := p.expect(TokenArrow); err != nil {
		return nil, err
	}

	start := p.tok.Pos
	depth := 0

scan:
	for {
		switch p.tok.Kind {
		case TokenEnd:
			break scan
		case TokenLParen, TokenLBracket, TokenLBrace, TokenQuestionIndex:
			depth++
		case TokenRParen, TokenRBracket, TokenRBrace:
			if depth == 0 {
				break scan
			}

			depth--
		case TokenComma:
			if depth == 0 {
				break scan
			}
		}

		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if p.tok.Pos == start {
		return nil, syntaxError(start, "Expression expected")
	}

	return &lambdaPlaceholder{
		env:    p.env,
		params: params,
		text:   p.text,
		start:  start,
		end:    p.tok.Pos,
		pos:    pos,
	}, nil
}

// lambdaFor parses the body of ph against the func type to.
func (p *parser) lambdaFor(ph *lambdaPlaceholder, to reflect.Type) (*LambdaExpr, error) {
	if to.Kind() != reflect.Func || to.NumIn() != len(ph.params) || to.NumOut() > 1 {
		return nil, ErrTypeConversion.
			Detail("Lambda expression cannot be converted to type '"+TypeName(to)+"'").
			At(ph.pos).
			With(slog.String("to", TypeName(to)))
	}

	in := make([]reflect.Type, to.NumIn())
	for i := range in {
		in[i] = to.In(i)
	}

	out := typeVoid
	if to.NumOut() == 1 {
		out = to.Out(0)
	}

	lam, err := p.resolveLambda(ph, in, out)
	if err != nil {
		return nil, err
	}

	lam.typ = to

	return lam, nil
}

// resolveLambda parses the body of ph with parameters of types in. A nil
// out infers the result type from the body; void discards the body value.
func (p *parser) resolveLambda(ph *lambdaPlaceholder, in []reflect.Type, out reflect.Type) (*LambdaExpr, error) {
	params := make([]*Parameter, len(ph.params))

	for i, lp := range ph.params {
		t := in[i]
		if lp.typ != nil {
			if lp.typ != t {
				return nil, conversionError(TypeName(lp.typ), TypeName(t), ph.pos)
			}
		}

		params[i] = &Parameter{Name: lp.name, Type: t}
	}

	env, err := ph.env.child(params)
	if err != nil {
		return nil, err
	}

	sub := &parser{
		ctx:   p.ctx,
		lex:   window(ph.text, ph.start, ph.end),
		env:   env,
		set:   p.set,
		text:  ph.text,
		depth: p.depth,
		temps: p.temps,
	}

	if err := sub.next(); err != nil {
		return nil, err
	}

	body, err := sub.parseExpr()
	if err != nil {
		return nil, err
	}

	p.temps = sub.temps

	if sub.tok.Kind != TokenEnd {
		return nil, syntaxError(sub.tok.Pos, "Syntax error '"+sub.tok.Text+"'")
	}

	if body, err = sub.value(body); err != nil {
		return nil, err
	}

	natural := body.Type()

	switch {
	case out == nil:
		out = body.Type()
	case out != typeVoid:
		if body, err = sub.coerce(body, out); err != nil {
			return nil, err
		}
	}

	var outs []reflect.Type
	if out != typeVoid {
		outs = []reflect.Type{out}
	}

	p.trace("lambda resolved",
		slog.String("lambda", ph.String()),
		slog.Int("params", len(params)),
		slog.String("result", TypeName(out)),
	)

	return &LambdaExpr{
		Body:    body,
		typ:     reflect.FuncOf(in, outs, false),
		natural: natural,
		Params:  params,
		pos:     ph.pos,
	}, nil
}
