// Package ast defines the ThinkLang abstract syntax tree: the node
// shapes of spec §3, each carrying a source Location for diagnostics
// and the LSP adapter.
package ast

import "fmt"

// Position is a 1-based line/column, matching source text directly
// (LSP positions are 0-based and are converted at the LSP boundary,
// never here).
type Position struct {
	Line   int
	Column int
}

// Location spans from Start to End in the originating source file.
type Location struct {
	File  string
	Start Position
	End   Position
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Start.Line, l.Start.Column)
}

// Node is implemented by every AST node; it exposes the node's source
// span for diagnostics, hover, and go-to-definition.
type Node interface {
	Loc() Location
}
