package ast

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl marks declarations (type/function/tool), which the code
// generator binds at top scope before the remaining top-level
// statements run as Program.Body (spec §4.5).
type Decl interface {
	Stmt
	declNode()
}

// Param is one function/tool parameter.
type Param struct {
	Name     string
	Type     TypeExpr
	Location Location
}

type FuncDecl struct {
	Name       string
	Params     []Param
	ReturnType TypeExpr // nil if unannotated
	Body       []Stmt
	Location   Location
}

func (d *FuncDecl) Loc() Location { return d.Location }
func (*FuncDecl) stmtNode()       {}
func (*FuncDecl) declNode()       {}

// ToolDecl declares a tool: a named, described, schema-checked callable
// an agent loop may invoke (spec §3 Tool entity).
type ToolDecl struct {
	Name        string
	Description string
	Params      []Param
	ReturnType  TypeExpr
	Body        []Stmt
	Location    Location
}

func (d *ToolDecl) Loc() Location { return d.Location }
func (*ToolDecl) stmtNode()       {}
func (*ToolDecl) declNode()       {}

// LetStmt binds a name, optionally flagged `uncertain` and/or annotated
// with a static type (spec §3 invariant I1).
type LetStmt struct {
	Name       string
	Uncertain  bool
	Annotation TypeExpr // nil if unannotated
	Value      Expr
	Location   Location
}

func (s *LetStmt) Loc() Location { return s.Location }
func (*LetStmt) stmtNode()       {}

type PrintStmt struct {
	Value    Expr
	Location Location
}

func (s *PrintStmt) Loc() Location { return s.Location }
func (*PrintStmt) stmtNode()       {}

type ExprStmt struct {
	Value    Expr
	Location Location
}

func (s *ExprStmt) Loc() Location { return s.Location }
func (*ExprStmt) stmtNode()       {}

// CatchClause names a recognized error kind (spec §7 taxonomy, or a
// user-declared one) and binds the caught error to Binding in Body.
type CatchClause struct {
	ErrorKind string
	Binding   string
	Body      []Stmt
	Location  Location
}

type TryStmt struct {
	Body     []Stmt
	Catches  []CatchClause
	Location Location
}

func (s *TryStmt) Loc() Location { return s.Location }
func (*TryStmt) stmtNode()       {}

type IfStmt struct {
	Cond     Expr
	Then     []Stmt
	Else     []Stmt // may itself be a single-element []Stmt{*IfStmt} for else-if chains
	Location Location
}

func (s *IfStmt) Loc() Location { return s.Location }
func (*IfStmt) stmtNode()       {}

// TestMode selects how a test block's provider is sourced (spec §4.11).
type TestMode struct {
	Replay       bool
	SnapshotPath string // set when Replay
	Record       bool
	Location     Location
}

// TestBlock is one `test "name" { ... }` block of a .test.tl file.
type TestBlock struct {
	Name     string
	Mode     *TestMode // nil uses the live current provider unmodified
	Body     []Stmt
	Location Location
}

func (s *TestBlock) Loc() Location { return s.Location }
func (*TestBlock) stmtNode()       {}

// AssertStmt is `assert <expr>` or `assert.semantic(subject, criteria)`.
type AssertStmt struct {
	Semantic bool
	Expr     Expr // non-nil when !Semantic
	Subject  Expr // non-nil when Semantic
	Criteria Expr // non-nil when Semantic
	Location Location
}

func (s *AssertStmt) Loc() Location { return s.Location }
func (*AssertStmt) stmtNode()       {}

// Import

type ImportDecl struct {
	Names    []string
	Path     string
	Location Location
}

func (d *ImportDecl) Loc() Location { return d.Location }

// Program is the top of a parsed source file (spec §3: an ordered
// sequence of imports and statements).
type Program struct {
	Imports    []*ImportDecl
	Statements []Stmt
	File       string
}
