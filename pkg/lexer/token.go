// Package lexer tokenizes ThinkLang source text for pkg/parser (spec
// §4.1). It is a single-pass, hand-written scanner — no lexer
// generator — written for a from-scratch grammar rather than an
// existing host language.
package lexer

import "fmt"

// Kind identifies a lexical token category.
type Kind int

const (
	EOF Kind = iota
	Illegal

	Ident
	String
	Number

	// Keywords
	KwThink
	KwInfer
	KwReason
	KwAgent
	KwWith
	KwWithout
	KwContext
	KwGuard
	KwOnFail
	KwRetry
	KwFallback
	KwGoal
	KwSteps
	KwMatch
	KwLet
	KwUncertain
	KwIf
	KwElse
	KwTry
	KwCatch
	KwTest
	KwMode
	KwReplay
	KwRecord
	KwAssert
	KwSemantic
	KwImport
	KwFrom
	KwType
	KwFunc
	KwTool
	KwReturn
	KwPrint
	KwTrue
	KwFalse
	KwNull
	KwConfident
	KwString
	KwInt
	KwFloat
	KwBool

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Colon
	Semicolon
	Dot
	DotDot
	Arrow   // =>
	Pipe    // |>
	Question
	Underscore

	// Operators
	Assign
	Eq
	Ne
	Ge
	Le
	Lt
	Gt
	Plus
	Minus
	Star
	Slash
	Percent
	And
	Or
	Not
	PipeType // | inside a union type expression
)

var keywords = map[string]Kind{
	"think":     KwThink,
	"infer":     KwInfer,
	"reason":    KwReason,
	"agent":     KwAgent,
	"with":      KwWith,
	"without":   KwWithout,
	"context":   KwContext,
	"guard":     KwGuard,
	"on_fail":   KwOnFail,
	"retry":     KwRetry,
	"fallback":  KwFallback,
	"goal":      KwGoal,
	"steps":     KwSteps,
	"match":     KwMatch,
	"let":       KwLet,
	"uncertain": KwUncertain,
	"if":        KwIf,
	"else":      KwElse,
	"try":       KwTry,
	"catch":     KwCatch,
	"test":      KwTest,
	"mode":      KwMode,
	"replay":    KwReplay,
	"record":    KwRecord,
	"assert":    KwAssert,
	"semantic":  KwSemantic,
	"import":    KwImport,
	"from":      KwFrom,
	"type":      KwType,
	"func":      KwFunc,
	"tool":      KwTool,
	"return":    KwReturn,
	"print":     KwPrint,
	"true":      KwTrue,
	"false":     KwFalse,
	"null":      KwNull,
	"Confident": KwConfident,
	"string":    KwString,
	"int":       KwInt,
	"float":     KwFloat,
	"bool":      KwBool,
}

// LookupIdent classifies an identifier as a keyword token kind, or
// returns Ident if it isn't one.
func LookupIdent(s string) Kind {
	if k, ok := keywords[s]; ok {
		return k
	}
	return Ident
}

// Token is one lexical unit with its originating position.
type Token struct {
	Kind   Kind
	Lit    string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%d %s %q", t.Line, t.Column, t.Kind.name(), t.Lit)
}

func (k Kind) name() string { return k.String() }

// String renders a Kind for diagnostics (parser error messages, token dumps).
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

var kindNames = map[Kind]string{
	EOF: "EOF", Illegal: "ILLEGAL", Ident: "IDENT", String: "STRING", Number: "NUMBER",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Comma: ",", Colon: ":", Semicolon: ";", Dot: ".", DotDot: "..", Arrow: "=>", Pipe: "|>",
	Question: "?", Underscore: "_", Assign: "=", Eq: "==", Ne: "!=", Ge: ">=", Le: "<=",
	Lt: "<", Gt: ">", Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	And: "&&", Or: "||", Not: "!", PipeType: "|",
}

func init() {
	for lit, kind := range keywords {
		kindNames[kind] = lit
	}
}
