package parser

import (
	"strconv"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/lexer"
)

// parseExpr parses a full expression, including pipeline composition
// (the lowest-binding operator: `stage1 |> stage2 |> stage3`).
func (p *Parser) parseExpr() (ast.Expr, error) {
	first, err := p.parseOrExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.Pipe) {
		return first, nil
	}
	stages := []ast.Expr{first}
	for p.at(lexer.Pipe) {
		p.advance()
		next, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		stages = append(stages, next)
	}
	return &ast.PipelineExpr{Stages: stages, Location: first.Loc()}, nil
}

func (p *Parser) parseOrExpr() (ast.Expr, error) {
	return p.parseBinaryLevel(lexer.Or, p.parseAndExpr)
}

func (p *Parser) parseAndExpr() (ast.Expr, error) {
	return p.parseBinaryLevel(lexer.And, p.parseEqualityExpr)
}

func (p *Parser) parseEqualityExpr() (ast.Expr, error) {
	return p.parseBinaryLevel2(p.parseRelationalExpr, lexer.Eq, lexer.Ne)
}

func (p *Parser) parseRelationalExpr() (ast.Expr, error) {
	return p.parseBinaryLevel2(p.parseRangeExpr, lexer.Lt, lexer.Gt, lexer.Ge, lexer.Le)
}

func (p *Parser) parseRangeExpr() (ast.Expr, error) {
	left, err := p.parseAdditiveExpr()
	if err != nil {
		return nil, err
	}
	if p.at(lexer.DotDot) {
		p.advance()
		right, err := p.parseAdditiveExpr()
		if err != nil {
			return nil, err
		}
		return &ast.RangeExpr{Start: left, End: right, Location: left.Loc()}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditiveExpr() (ast.Expr, error) {
	return p.parseBinaryLevel2(p.parseMultiplicativeExpr, lexer.Plus, lexer.Minus)
}

func (p *Parser) parseMultiplicativeExpr() (ast.Expr, error) {
	return p.parseBinaryLevel2(p.parseUnaryExpr, lexer.Star, lexer.Slash, lexer.Percent)
}

func (p *Parser) parseBinaryLevel(op lexer.Kind, next func() (ast.Expr, error)) (ast.Expr, error) {
	return p.parseBinaryLevel2(next, op)
}

func (p *Parser) parseBinaryLevel2(next func() (ast.Expr, error), ops ...lexer.Kind) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.matchesAny(ops...) {
		opTok := p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: opTok.Lit, Left: left, Right: right, Location: left.Loc()}
	}
	return left, nil
}

func (p *Parser) matchesAny(kinds ...lexer.Kind) bool {
	for _, k := range kinds {
		if p.at(k) {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnaryExpr() (ast.Expr, error) {
	if p.at(lexer.Not) || p.at(lexer.Minus) {
		tok := p.advance()
		operand, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: tok.Lit, Operand: operand, Location: p.loc(tok)}, nil
	}
	return p.parsePostfixExpr()
}

// genericBuiltinCallNames are the bulk builtins that take a type
// argument the same way think<T>/infer<T> do, spelled name<T>(args)
// instead of a keyword form since they are ordinary calls.
var genericBuiltinCallNames = map[string]bool{
	"mapThink": true, "reduceThink": true, "streamThink": true, "streamInfer": true,
}

func (p *Parser) parsePostfixExpr() (ast.Expr, error) {
	expr, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case lexer.Dot:
			p.advance()
			name, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpr{Object: expr, Property: name.Lit, Location: expr.Loc()}
		case lexer.Lt:
			ident, ok := expr.(*ast.Identifier)
			if !ok || !genericBuiltinCallNames[ident.Name] {
				return expr, nil
			}
			p.advance()
			typeArg, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.Gt); err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.LParen); err != nil {
				return nil, err
			}
			var args []ast.Expr
			for !p.at(lexer.RParen) {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.at(lexer.Comma) {
					p.advance()
				}
			}
			rparen, err := p.expect(lexer.RParen)
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Callee: expr, Args: args, TypeArg: typeArg, Location: p.spanFrom(expr.Loc(), rparen)}
		case lexer.LParen:
			p.advance()
			var args []ast.Expr
			for !p.at(lexer.RParen) {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.at(lexer.Comma) {
					p.advance()
				}
			}
			rparen, err := p.expect(lexer.RParen)
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Callee: expr, Args: args, Location: p.spanFrom(expr.Loc(), rparen)}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimaryExpr() (ast.Expr, error) {
	tok := p.cur()
	loc := p.loc(tok)
	switch tok.Kind {
	case lexer.String:
		p.advance()
		return &ast.StringLit{Value: tok.Lit, Location: loc}, nil
	case lexer.Number:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lit, 64)
		if err != nil {
			return nil, p.errorf("invalid number literal %q", tok.Lit)
		}
		return &ast.NumberLit{Value: v, Location: loc}, nil
	case lexer.KwTrue:
		p.advance()
		return &ast.BoolLit{Value: true, Location: loc}, nil
	case lexer.KwFalse:
		p.advance()
		return &ast.BoolLit{Value: false, Location: loc}, nil
	case lexer.KwNull:
		p.advance()
		return &ast.NullLit{Location: loc}, nil
	case lexer.LBracket:
		return p.parseArrayLit()
	case lexer.LBrace:
		return p.parseObjectLit()
	case lexer.LParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.KwMatch:
		return p.parseMatchExpr()
	case lexer.KwThink, lexer.KwInfer, lexer.KwReason, lexer.KwAgent:
		return p.parseAICallExpr()
	case lexer.Ident:
		p.advance()
		return &ast.Identifier{Name: tok.Lit, Location: loc}, nil
	}
	return nil, p.errorf("expected an expression, got %s %q", kindName(tok.Kind), tok.Lit)
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	start := p.loc(p.cur())
	p.advance() // [
	var elems []ast.Expr
	for !p.at(lexer.RBracket) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.at(lexer.Comma) {
			p.advance()
		}
	}
	end, err := p.expect(lexer.RBracket)
	if err != nil {
		return nil, err
	}
	return &ast.ArrayLit{Elements: elems, Location: p.spanFrom(start, end)}, nil
}

func (p *Parser) parseObjectLit() (ast.Expr, error) {
	start := p.loc(p.cur())
	p.advance() // {
	var fields []ast.ObjectField
	for !p.at(lexer.RBrace) {
		key, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		var value ast.Expr
		if p.at(lexer.Colon) {
			p.advance()
			value, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		} else {
			// shorthand { a, b.c } -> { a: a, b_c: b.c } is handled by codegen;
			// here we keep the parsed expression form so the shape survives.
			value = &ast.Identifier{Name: key.Lit, Location: p.loc(key)}
			for p.at(lexer.Dot) {
				p.advance()
				prop, err := p.expect(lexer.Ident)
				if err != nil {
					return nil, err
				}
				value = &ast.MemberExpr{Object: value, Property: prop.Lit, Location: value.Loc()}
			}
		}
		fields = append(fields, ast.ObjectField{Key: key.Lit, Value: value})
		if p.at(lexer.Comma) {
			p.advance()
		}
	}
	end, err := p.expect(lexer.RBrace)
	if err != nil {
		return nil, err
	}
	return &ast.ObjectLit{Fields: fields, Location: p.spanFrom(start, end)}, nil
}

// ---- match ----

func (p *Parser) parseMatchExpr() (ast.Expr, error) {
	start := p.loc(p.cur())
	p.advance() // match
	subject, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var arms []ast.MatchArm
	for !p.at(lexer.RBrace) {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Arrow); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{Pattern: pat, Body: body, Location: pat.Location})
		if p.at(lexer.Comma) {
			p.advance()
		}
	}
	end, err := p.expect(lexer.RBrace)
	if err != nil {
		return nil, err
	}
	return &ast.MatchExpr{Subject: subject, Arms: arms, Location: p.spanFrom(start, end)}, nil
}

func (p *Parser) parsePattern() (ast.Pattern, error) {
	start := p.loc(p.cur())
	if p.at(lexer.Underscore) {
		p.advance()
		return ast.Pattern{Kind: ast.PatternWildcard, Location: start}, nil
	}
	if p.at(lexer.LBrace) {
		p.advance()
		var constraints []ast.FieldConstraint
		for !p.at(lexer.RBrace) {
			cname, err := p.expect(lexer.Ident)
			if err != nil {
				return ast.Pattern{}, err
			}
			if _, err := p.expect(lexer.Colon); err != nil {
				return ast.Pattern{}, err
			}
			op, err := p.parseConstraintOp()
			if err != nil {
				return ast.Pattern{}, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return ast.Pattern{}, err
			}
			constraints = append(constraints, ast.FieldConstraint{Name: cname.Lit, Op: op, Value: val, Location: p.loc(cname)})
			if p.at(lexer.Comma) {
				p.advance()
			}
		}
		end, err := p.expect(lexer.RBrace)
		if err != nil {
			return ast.Pattern{}, err
		}
		return ast.Pattern{Kind: ast.PatternObject, Constraints: constraints, Location: p.spanFrom(start, end)}, nil
	}
	lit, err := p.parseExpr()
	if err != nil {
		return ast.Pattern{}, err
	}
	return ast.Pattern{Kind: ast.PatternLiteral, Literal: lit, Location: start}, nil
}

// parseConstraintOp reads an optional comparison operator before a
// pattern field's value; bare `name: expr` defaults to ==.
func (p *Parser) parseConstraintOp() (ast.FieldConstraintOp, error) {
	switch p.cur().Kind {
	case lexer.Eq:
		p.advance()
		return ast.ConstraintEq, nil
	case lexer.Ne:
		p.advance()
		return ast.ConstraintNe, nil
	case lexer.Ge:
		p.advance()
		return ast.ConstraintGe, nil
	case lexer.Le:
		p.advance()
		return ast.ConstraintLe, nil
	default:
		return ast.ConstraintEq, nil
	}
}

// ---- AI-call forms ----

func (p *Parser) parseAICallExpr() (ast.Expr, error) {
	start := p.loc(p.cur())
	kindTok := p.advance()
	var kind ast.AICallKind
	switch kindTok.Kind {
	case lexer.KwThink:
		kind = ast.CallThink
	case lexer.KwInfer:
		kind = ast.CallInfer
	case lexer.KwReason:
		kind = ast.CallReason
	case lexer.KwAgent:
		kind = ast.CallAgent
	}

	var typeArg ast.TypeExpr
	if p.at(lexer.Lt) {
		p.advance()
		t, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		typeArg = t
		if _, err := p.expect(lexer.Gt); err != nil {
			return nil, err
		}
	}

	call := &ast.AICallExpr{Kind: kind, TypeArg: typeArg, Location: start}

	switch kind {
	case ast.CallReason:
		if err := p.parseReasonBody(call); err != nil {
			return nil, err
		}
	default:
		if _, err := p.expect(lexer.LParen); err != nil {
			return nil, err
		}
		switch kind {
		case ast.CallThink, ast.CallAgent:
			prompt, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Prompt = prompt
		case ast.CallInfer:
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Value = val
			if p.at(lexer.Comma) {
				p.advance()
				hint, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				call.Hint = hint
			}
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
	}

	if kind == ast.CallAgent {
		if err := p.parseAgentOptions(call); err != nil {
			return nil, err
		}
	}

	if err := p.parseTrailingClauses(call); err != nil {
		return nil, err
	}

	call.Location = p.spanFrom(start, p.cur())
	return call, nil
}

// parseReasonBody parses `{ goal: "..."; steps: 1. "..." 2. "..." ; [with context: ...] }`.
func (p *Parser) parseReasonBody(call *ast.AICallExpr) error {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return err
	}
	for !p.at(lexer.RBrace) {
		switch p.cur().Kind {
		case lexer.KwGoal:
			p.advance()
			if _, err := p.expect(lexer.Colon); err != nil {
				return err
			}
			goal, err := p.parseExpr()
			if err != nil {
				return err
			}
			call.Goal = goal
		case lexer.KwSteps:
			p.advance()
			if _, err := p.expect(lexer.Colon); err != nil {
				return err
			}
			for p.at(lexer.Number) {
				numTok := p.advance()
				if _, err := p.expect(lexer.Dot); err != nil {
					return err
				}
				textTok, err := p.expect(lexer.String)
				if err != nil {
					return err
				}
				n, _ := strconv.Atoi(numTok.Lit)
				call.Steps = append(call.Steps, ast.ReasonStep{Number: n, Text: textTok.Lit})
			}
		case lexer.KwWith:
			if err := p.parseWithContextClause(call); err != nil {
				return err
			}
		default:
			return p.errorf("unexpected token in reason block: %s %q", kindName(p.cur().Kind), p.cur().Lit)
		}
		if p.at(lexer.Semicolon) {
			p.advance()
		}
	}
	_, err := p.expect(lexer.RBrace)
	return err
}

// parseAgentOptions parses the `agent<T>(prompt) { tools: [a, b]; maxTurns: n }` tail.
func (p *Parser) parseAgentOptions(call *ast.AICallExpr) error {
	if !p.at(lexer.LBrace) {
		return nil
	}
	p.advance()
	for !p.at(lexer.RBrace) {
		key, err := p.expect(lexer.Ident)
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return err
		}
		switch key.Lit {
		case "tools":
			if _, err := p.expect(lexer.LBracket); err != nil {
				return err
			}
			for !p.at(lexer.RBracket) {
				id, err := p.expect(lexer.Ident)
				if err != nil {
					return err
				}
				call.Tools = append(call.Tools, &ast.Identifier{Name: id.Lit, Location: p.loc(id)})
				if p.at(lexer.Comma) {
					p.advance()
				}
			}
			if _, err := p.expect(lexer.RBracket); err != nil {
				return err
			}
		case "maxTurns":
			n, err := p.parseExpr()
			if err != nil {
				return err
			}
			call.MaxTurns = n
		default:
			return p.errorf("unknown agent option %q", key.Lit)
		}
		if p.at(lexer.Semicolon) {
			p.advance()
		}
	}
	_, err := p.expect(lexer.RBrace)
	return err
}

// parseTrailingClauses parses the common `with context:`, `without
// context:`, `guard { ... }`, `on_fail: retry(N) [then fallback(e)]`
// clauses shared across think/infer/reason/agent.
func (p *Parser) parseTrailingClauses(call *ast.AICallExpr) error {
	for {
		switch p.cur().Kind {
		case lexer.KwWith:
			if err := p.parseWithContextClause(call); err != nil {
				return err
			}
		case lexer.KwWithout:
			p.advance()
			if _, err := p.expect(lexer.KwContext); err != nil {
				return err
			}
			if _, err := p.expect(lexer.Colon); err != nil {
				return err
			}
			if _, err := p.expect(lexer.LBrace); err != nil {
				return err
			}
			for !p.at(lexer.RBrace) {
				id, err := p.expect(lexer.Ident)
				if err != nil {
					return err
				}
				call.WithoutContext = append(call.WithoutContext, id.Lit)
				if p.at(lexer.Comma) {
					p.advance()
				}
			}
			if _, err := p.expect(lexer.RBrace); err != nil {
				return err
			}
		case lexer.KwGuard:
			p.advance()
			if _, err := p.expect(lexer.LBrace); err != nil {
				return err
			}
			for !p.at(lexer.RBrace) {
				gstart := p.loc(p.cur())
				name, err := p.expect(lexer.Ident)
				if err != nil {
					return err
				}
				if _, err := p.expect(lexer.Colon); err != nil {
					return err
				}
				constraint, err := p.parseAdditiveExpr()
				if err != nil {
					return err
				}
				var rangeEnd ast.Expr
				if p.at(lexer.DotDot) {
					p.advance()
					rangeEnd, err = p.parseAdditiveExpr()
					if err != nil {
						return err
					}
				}
				call.Guards = append(call.Guards, ast.GuardClause{Name: name.Lit, Constraint: constraint, RangeEnd: rangeEnd, Location: p.spanFrom(gstart, p.cur())})
				if p.at(lexer.Comma) {
					p.advance()
				}
			}
			if _, err := p.expect(lexer.RBrace); err != nil {
				return err
			}
		case lexer.KwOnFail:
			onstart := p.loc(p.cur())
			p.advance()
			if _, err := p.expect(lexer.Colon); err != nil {
				return err
			}
			if _, err := p.expect(lexer.KwRetry); err != nil {
				return err
			}
			if _, err := p.expect(lexer.LParen); err != nil {
				return err
			}
			n, err := p.parseIntLit()
			if err != nil {
				return err
			}
			if _, err := p.expect(lexer.RParen); err != nil {
				return err
			}
			onFail := &ast.OnFailClause{RetryCount: n, Location: p.spanFrom(onstart, p.cur())}
			if p.at(lexer.Ident) && p.cur().Lit == "then" {
				p.advance()
				if _, err := p.expect(lexer.KwFallback); err != nil {
					return err
				}
				if _, err := p.expect(lexer.LParen); err != nil {
					return err
				}
				fb, err := p.parseExpr()
				if err != nil {
					return err
				}
				onFail.Fallback = fb
				if _, err := p.expect(lexer.RParen); err != nil {
					return err
				}
			}
			call.OnFail = onFail
		default:
			return nil
		}
	}
}

func (p *Parser) parseWithContextClause(call *ast.AICallExpr) error {
	p.advance() // with
	if _, err := p.expect(lexer.KwContext); err != nil {
		return err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return err
	}
	ctx, err := p.parseExpr()
	if err != nil {
		return err
	}
	call.WithContext = ctx
	return nil
}
