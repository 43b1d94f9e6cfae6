// Package parser implements the ThinkLang recursive-descent parser of
// spec §4.1: one-token lookahead, eager (no error recovery), producing
// the pkg/ast tree.
package parser

import (
	"fmt"
	"strconv"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/lexer"
)

// ParseError reports a malformed-input failure with its source location.
type ParseError struct {
	Location ast.Location
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location.String(), e.Message)
}

// Parser consumes a token stream and builds a *ast.Program. It is not
// safe for concurrent use; each call site should construct a fresh one.
type Parser struct {
	file string
	toks []lexer.Token
	pos  int
}

// Parse tokenizes and parses a complete source file into a Program.
func Parse(file, src string) (*ast.Program, error) {
	toks, err := lexer.All(file, src)
	if err != nil {
		if lerr, ok := err.(*lexer.Error); ok {
			return nil, &ParseError{
				Location: ast.Location{File: file, Start: ast.Position{Line: lerr.Line, Column: lerr.Column}, End: ast.Position{Line: lerr.Line, Column: lerr.Column}},
				Message:  lerr.Message,
			}
		}
		return nil, err
	}
	p := &Parser{file: file, toks: toks}
	return p.parseProgram()
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) loc(tok lexer.Token) ast.Location {
	pos := ast.Position{Line: tok.Line, Column: tok.Column}
	return ast.Location{File: p.file, Start: pos, End: pos}
}

func (p *Parser) spanFrom(start ast.Location, end lexer.Token) ast.Location {
	start.End = ast.Position{Line: end.Line, Column: end.Column}
	return start
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Location: p.loc(p.cur()), Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, p.errorf("expected %s, got %s %q", kindName(k), kindName(p.cur().Kind), p.cur().Lit)
	}
	return p.advance(), nil
}

func kindName(k lexer.Kind) string { return k.String() }

// ---- Program ----

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{File: p.file}
	for p.at(lexer.KwImport) {
		imp, err := p.parseImport()
		if err != nil {
			return nil, err
		}
		prog.Imports = append(prog.Imports, imp)
	}
	for !p.at(lexer.EOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

func (p *Parser) parseImport() (*ast.ImportDecl, error) {
	start := p.loc(p.cur())
	p.advance() // import
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var names []string
	for !p.at(lexer.RBrace) {
		id, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		names = append(names, id.Lit)
		if p.at(lexer.Comma) {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwFrom); err != nil {
		return nil, err
	}
	pathTok, err := p.expect(lexer.String)
	if err != nil {
		return nil, err
	}
	loc := p.spanFrom(start, pathTok)
	return &ast.ImportDecl{Names: names, Path: pathTok.Lit, Location: loc}, nil
}

// ---- Statements ----

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur().Kind {
	case lexer.KwType:
		return p.parseTypeDecl()
	case lexer.KwFunc:
		return p.parseFuncDecl()
	case lexer.KwTool:
		return p.parseToolDecl()
	case lexer.KwLet:
		return p.parseLetStmt()
	case lexer.KwPrint:
		return p.parsePrintStmt()
	case lexer.KwTry:
		return p.parseTryStmt()
	case lexer.KwIf:
		return p.parseIfStmt()
	case lexer.KwTest:
		return p.parseTestBlock()
	case lexer.KwAssert:
		return p.parseAssertStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.at(lexer.RBrace) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseTypeDecl() (ast.Stmt, error) {
	start := p.loc(p.cur())
	p.advance() // type
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if p.at(lexer.Assign) {
		p.advance()
		alias, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		return &ast.TypeDecl{Name: name.Lit, Alias: alias, Location: p.spanFrom(start, p.cur())}, nil
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var fields []*ast.FieldDecl
	for !p.at(lexer.RBrace) {
		field, err := p.parseFieldDecl()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		if p.at(lexer.Comma) || p.at(lexer.Semicolon) {
			p.advance()
		}
	}
	end, err := p.expect(lexer.RBrace)
	if err != nil {
		return nil, err
	}
	return &ast.TypeDecl{Name: name.Lit, Fields: fields, Location: p.spanFrom(start, end)}, nil
}

func (p *Parser) parseFieldDecl() (*ast.FieldDecl, error) {
	start := p.loc(p.cur())
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	optional := false
	if p.at(lexer.Question) {
		p.advance()
		optional = true
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	typ, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	ann := ast.FieldAnnotations{}
	if p.at(lexer.LParen) {
		p.advance()
		if err := p.parseFieldAnnotations(&ann); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
	}
	return &ast.FieldDecl{Name: name.Lit, Type: typ, Optional: optional, Annotations: ann, Location: p.spanFrom(start, p.cur())}, nil
}

// parseFieldAnnotations parses a comma-separated list of
// `description: "..."`, `range a..b`, `minLength: n`, `maxLength: n`,
// `minItems: n`, `maxItems: n`, `pattern: "..."` entries.
func (p *Parser) parseFieldAnnotations(ann *ast.FieldAnnotations) error {
	for !p.at(lexer.RParen) {
		key, err := p.expect(lexer.Ident)
		if err != nil {
			return err
		}
		switch key.Lit {
		case "range":
			lo, err := p.parseNumberLit()
			if err != nil {
				return err
			}
			if _, err := p.expect(lexer.DotDot); err != nil {
				return err
			}
			hi, err := p.parseNumberLit()
			if err != nil {
				return err
			}
			ann.RangeMin = &lo
			ann.RangeMax = &hi
		default:
			if _, err := p.expect(lexer.Colon); err != nil {
				return err
			}
			switch key.Lit {
			case "description":
				s, err := p.expect(lexer.String)
				if err != nil {
					return err
				}
				ann.Description = &s.Lit
			case "pattern":
				s, err := p.expect(lexer.String)
				if err != nil {
					return err
				}
				ann.Pattern = &s.Lit
			case "minLength":
				n, err := p.parseIntLit()
				if err != nil {
					return err
				}
				ann.MinLength = &n
			case "maxLength":
				n, err := p.parseIntLit()
				if err != nil {
					return err
				}
				ann.MaxLength = &n
			case "minItems":
				n, err := p.parseIntLit()
				if err != nil {
					return err
				}
				ann.MinItems = &n
			case "maxItems":
				n, err := p.parseIntLit()
				if err != nil {
					return err
				}
				ann.MaxItems = &n
			default:
				return p.errorf("unknown field annotation %q", key.Lit)
			}
		}
		if p.at(lexer.Comma) {
			p.advance()
		}
	}
	return nil
}

func (p *Parser) parseNumberLit() (float64, error) {
	tok, err := p.expect(lexer.Number)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok.Lit, 64)
	if err != nil {
		return 0, p.errorf("invalid number literal %q", tok.Lit)
	}
	return v, nil
}

func (p *Parser) parseIntLit() (int, error) {
	v, err := p.parseNumberLit()
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func (p *Parser) parseFuncDecl() (ast.Stmt, error) {
	start := p.loc(p.cur())
	p.advance() // func
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	var ret ast.TypeExpr
	if p.at(lexer.Colon) {
		p.advance()
		ret, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Name: name.Lit, Params: params, ReturnType: ret, Body: body, Location: p.spanFrom(start, p.toks[p.pos-1])}, nil
}

// parseToolDecl parses `tool name(params): RetType { description: "..."; stmt* }`.
// The leading `description: "..."` statement (if present as the first
// line) is lifted out of Body into Description.
func (p *Parser) parseToolDecl() (ast.Stmt, error) {
	start := p.loc(p.cur())
	p.advance() // tool
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	var ret ast.TypeExpr
	if p.at(lexer.Colon) {
		p.advance()
		ret, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	description := ""
	if p.at(lexer.Ident) && p.cur().Lit == "description" && p.peekAt(1).Kind == lexer.Colon {
		p.advance()
		p.advance()
		s, err := p.expect(lexer.String)
		if err != nil {
			return nil, err
		}
		description = s.Lit
		if p.at(lexer.Semicolon) {
			p.advance()
		}
	}
	var body []ast.Stmt
	for !p.at(lexer.RBrace) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
	end, err := p.expect(lexer.RBrace)
	if err != nil {
		return nil, err
	}
	return &ast.ToolDecl{Name: name.Lit, Description: description, Params: params, ReturnType: ret, Body: body, Location: p.spanFrom(start, end)}, nil
}

func (p *Parser) parseParams() ([]ast.Param, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.at(lexer.RParen) {
		start := p.loc(p.cur())
		name, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		typ, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: name.Lit, Type: typ, Location: p.spanFrom(start, p.cur())})
		if p.at(lexer.Comma) {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseLetStmt() (ast.Stmt, error) {
	start := p.loc(p.cur())
	p.advance() // let
	uncertain := false
	if p.at(lexer.KwUncertain) {
		p.advance()
		uncertain = true
	}
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	var annotation ast.TypeExpr
	if p.at(lexer.Colon) {
		p.advance()
		annotation, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{Name: name.Lit, Uncertain: uncertain, Annotation: annotation, Value: value, Location: p.spanFrom(start, p.cur())}, nil
}

func (p *Parser) parsePrintStmt() (ast.Stmt, error) {
	start := p.loc(p.cur())
	p.advance() // print
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.PrintStmt{Value: value, Location: p.spanFrom(start, p.cur())}, nil
}

func (p *Parser) parseExprStmt() (ast.Stmt, error) {
	start := p.loc(p.cur())
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Value: value, Location: p.spanFrom(start, p.cur())}, nil
}

func (p *Parser) parseTryStmt() (ast.Stmt, error) {
	start := p.loc(p.cur())
	p.advance() // try
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var catches []ast.CatchClause
	for p.at(lexer.KwCatch) {
		cstart := p.loc(p.cur())
		p.advance() // catch
		if _, err := p.expect(lexer.LParen); err != nil {
			return nil, err
		}
		kind, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		binding := ""
		if p.at(lexer.Ident) {
			b := p.advance()
			binding = b.Lit
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		cbody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		catches = append(catches, ast.CatchClause{ErrorKind: kind.Lit, Binding: binding, Body: cbody, Location: p.spanFrom(cstart, p.cur())})
	}
	return &ast.TryStmt{Body: body, Catches: catches, Location: p.spanFrom(start, p.cur())}, nil
}

func (p *Parser) parseIfStmt() (ast.Stmt, error) {
	start := p.loc(p.cur())
	p.advance() // if
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBody []ast.Stmt
	if p.at(lexer.KwElse) {
		p.advance()
		if p.at(lexer.KwIf) {
			elif, err := p.parseIfStmt()
			if err != nil {
				return nil, err
			}
			elseBody = []ast.Stmt{elif}
		} else {
			elseBody, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseBody, Location: p.spanFrom(start, p.cur())}, nil
}

func (p *Parser) parseTestBlock() (ast.Stmt, error) {
	start := p.loc(p.cur())
	p.advance() // test
	name, err := p.expect(lexer.String)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var mode *ast.TestMode
	if p.at(lexer.KwMode) {
		mstart := p.loc(p.cur())
		p.advance()
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		switch p.cur().Kind {
		case lexer.KwReplay:
			p.advance()
			if _, err := p.expect(lexer.LParen); err != nil {
				return nil, err
			}
			path, err := p.expect(lexer.String)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RParen); err != nil {
				return nil, err
			}
			mode = &ast.TestMode{Replay: true, SnapshotPath: path.Lit, Location: p.spanFrom(mstart, p.cur())}
		case lexer.KwRecord:
			p.advance()
			mode = &ast.TestMode{Record: true, Location: p.spanFrom(mstart, p.cur())}
		default:
			return nil, p.errorf("expected replay(...) or record after mode:")
		}
		if p.at(lexer.Semicolon) {
			p.advance()
		}
	}
	var body []ast.Stmt
	for !p.at(lexer.RBrace) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
	end, err := p.expect(lexer.RBrace)
	if err != nil {
		return nil, err
	}
	return &ast.TestBlock{Name: name.Lit, Mode: mode, Body: body, Location: p.spanFrom(start, end)}, nil
}

func (p *Parser) parseAssertStmt() (ast.Stmt, error) {
	start := p.loc(p.cur())
	p.advance() // assert
	if p.at(lexer.Dot) {
		p.advance()
		if _, err := p.expect(lexer.KwSemantic); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.LParen); err != nil {
			return nil, err
		}
		subject, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Comma); err != nil {
			return nil, err
		}
		criteria, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.RParen)
		if err != nil {
			return nil, err
		}
		return &ast.AssertStmt{Semantic: true, Subject: subject, Criteria: criteria, Location: p.spanFrom(start, end)}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.AssertStmt{Semantic: false, Expr: expr, Location: p.spanFrom(start, p.cur())}, nil
}
