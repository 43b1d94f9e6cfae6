package parser

import (
	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/lexer"
)

// parseTypeExpr parses the closed type-expression grammar of spec §3:
// primitives, named types, T[], T?, T1|T2|..., Confident<T>. Postfix
// `[]` and `?` bind tighter than the union `|`.
func (p *Parser) parseTypeExpr() (ast.TypeExpr, error) {
	first, err := p.parsePostfixTypeExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.PipeType) {
		return first, nil
	}
	options := []ast.TypeExpr{first}
	for p.at(lexer.PipeType) {
		p.advance()
		next, err := p.parsePostfixTypeExpr()
		if err != nil {
			return nil, err
		}
		options = append(options, next)
	}
	return &ast.UnionType{Options: options, Location: first.Loc()}, nil
}

func (p *Parser) parsePostfixTypeExpr() (ast.TypeExpr, error) {
	base, err := p.parsePrimaryTypeExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case lexer.LBracket:
			p.advance()
			if _, err := p.expect(lexer.RBracket); err != nil {
				return nil, err
			}
			base = &ast.ArrayType{Elem: base, Location: base.Loc()}
		case lexer.Question:
			p.advance()
			base = &ast.OptionalType{Inner: base, Location: base.Loc()}
		default:
			return base, nil
		}
	}
}

func (p *Parser) parsePrimaryTypeExpr() (ast.TypeExpr, error) {
	tok := p.cur()
	loc := p.loc(tok)
	switch tok.Kind {
	case lexer.KwString:
		p.advance()
		return &ast.PrimitiveType{Kind: ast.PrimitiveString, Location: loc}, nil
	case lexer.KwInt:
		p.advance()
		return &ast.PrimitiveType{Kind: ast.PrimitiveInt, Location: loc}, nil
	case lexer.KwFloat:
		p.advance()
		return &ast.PrimitiveType{Kind: ast.PrimitiveFloat, Location: loc}, nil
	case lexer.KwBool:
		p.advance()
		return &ast.PrimitiveType{Kind: ast.PrimitiveBool, Location: loc}, nil
	case lexer.KwNull:
		p.advance()
		return &ast.PrimitiveType{Kind: ast.PrimitiveNull, Location: loc}, nil
	case lexer.KwConfident:
		p.advance()
		if _, err := p.expect(lexer.Lt); err != nil {
			return nil, err
		}
		inner, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Gt); err != nil {
			return nil, err
		}
		return &ast.ConfidentType{Inner: inner, Location: loc}, nil
	case lexer.Ident:
		p.advance()
		return &ast.NamedType{Name: tok.Lit, Location: loc}, nil
	case lexer.LParen:
		p.advance()
		inner, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, p.errorf("expected a type expression, got %s %q", kindName(tok.Kind), tok.Lit)
}
