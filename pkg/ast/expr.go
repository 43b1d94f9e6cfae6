package ast

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Literals

type StringLit struct {
	Value    string
	Location Location
}

func (e *StringLit) Loc() Location { return e.Location }
func (*StringLit) exprNode()       {}

type NumberLit struct {
	Value    float64
	Location Location
}

func (e *NumberLit) Loc() Location { return e.Location }
func (*NumberLit) exprNode()       {}

type BoolLit struct {
	Value    bool
	Location Location
}

func (e *BoolLit) Loc() Location { return e.Location }
func (*BoolLit) exprNode()       {}

type NullLit struct {
	Location Location
}

func (e *NullLit) Loc() Location { return e.Location }
func (*NullLit) exprNode()       {}

type ArrayLit struct {
	Elements []Expr
	Location Location
}

func (e *ArrayLit) Loc() Location { return e.Location }
func (*ArrayLit) exprNode()       {}

// ObjectField is one key:value pair of an object literal, in source
// order (order matters for deterministic codegen output, not semantics).
type ObjectField struct {
	Key   string
	Value Expr
}

type ObjectLit struct {
	Fields   []ObjectField
	Location Location
}

func (e *ObjectLit) Loc() Location { return e.Location }
func (*ObjectLit) exprNode()       {}

// Identifier

type Identifier struct {
	Name     string
	Location Location
}

func (e *Identifier) Loc() Location { return e.Location }
func (*Identifier) exprNode()       {}

// MemberExpr is object.property — on an uncertain value this is
// restricted to the capability set of spec §4.3.
type MemberExpr struct {
	Object   Expr
	Property string
	Location Location
}

func (e *MemberExpr) Loc() Location { return e.Location }
func (*MemberExpr) exprNode()       {}

// CallExpr is callee(args...) — function calls, tool calls, and the
// capability methods (.unwrap(), .map(fn), ...) lower through the same
// node (the callee is typically a MemberExpr for capability calls).
type CallExpr struct {
	Callee   Expr
	Args     []Expr
	TypeArg  TypeExpr // non-nil only for mapThink<T>/reduceThink<T>/streamThink<T>/streamInfer<T>
	Location Location
}

func (e *CallExpr) Loc() Location { return e.Location }
func (*CallExpr) exprNode()       {}

// PipelineExpr is an ordered sequence of stages; each stage receives
// the previous stage's value (source's `|>`-style composition).
type PipelineExpr struct {
	Stages   []Expr
	Location Location
}

func (e *PipelineExpr) Loc() Location { return e.Location }
func (*PipelineExpr) exprNode()       {}

type BinaryExpr struct {
	Op       string
	Left     Expr
	Right    Expr
	Location Location
}

func (e *BinaryExpr) Loc() Location { return e.Location }
func (*BinaryExpr) exprNode()       {}

type UnaryExpr struct {
	Op       string
	Operand  Expr
	Location Location
}

func (e *UnaryExpr) Loc() Location { return e.Location }
func (*UnaryExpr) exprNode()       {}

type RangeExpr struct {
	Start    Expr
	End      Expr
	Location Location
}

func (e *RangeExpr) Loc() Location { return e.Location }
func (*RangeExpr) exprNode()       {}

// Match

// PatternKind distinguishes the three pattern shapes spec §4.1 allows.
type PatternKind int

const (
	PatternLiteral PatternKind = iota
	PatternWildcard
	PatternObject
)

// FieldConstraintOp is one of ==, !=, >=, <= on an object-pattern field.
type FieldConstraintOp string

const (
	ConstraintEq FieldConstraintOp = "=="
	ConstraintNe FieldConstraintOp = "!="
	ConstraintGe FieldConstraintOp = ">="
	ConstraintLe FieldConstraintOp = "<="
)

type FieldConstraint struct {
	Name     string
	Op       FieldConstraintOp
	Value    Expr
	Location Location
}

type Pattern struct {
	Kind        PatternKind
	Literal     Expr              // PatternLiteral
	Constraints []FieldConstraint // PatternObject
	Location    Location
}

type MatchArm struct {
	Pattern  Pattern
	Body     Expr
	Location Location
}

type MatchExpr struct {
	Subject  Expr
	Arms     []MatchArm
	Location Location
}

func (e *MatchExpr) Loc() Location { return e.Location }
func (*MatchExpr) exprNode()       {}

// HasWildcard reports whether any arm is the wildcard `_` pattern.
func (e *MatchExpr) HasWildcard() bool {
	for _, arm := range e.Arms {
		if arm.Pattern.Kind == PatternWildcard {
			return true
		}
	}
	return false
}

// AI-call expressions

// AICallKind is one of think, infer, reason, agent.
type AICallKind string

const (
	CallThink AICallKind = "think"
	CallInfer AICallKind = "infer"
	CallReason AICallKind = "reason"
	CallAgent  AICallKind = "agent"
)

// GuardClause is one entry of a `guard { ... }` block (spec §4.1, §4.7.2).
type GuardClause struct {
	Name     string
	Constraint Expr
	RangeEnd   Expr // non-nil for range-shaped guards (length, numeric range)
	Location   Location
}

// OnFailClause lowers `on_fail: retry(N) [then fallback(expr)]`.
type OnFailClause struct {
	RetryCount int
	Fallback   Expr // nil if no fallback given
	Location   Location
}

// ReasonStep is one numbered step of a `reason<T> { steps: ... }` block.
type ReasonStep struct {
	Number int
	Text   string
}

// AICallExpr is the think/infer/reason/agent call form. Only the
// fields relevant to Kind are populated:
//   - think:  Prompt
//   - infer:  Value, Hint (optional)
//   - reason: Goal, Steps
//   - agent:  Prompt, Tools, MaxTurns
type AICallExpr struct {
	Kind     AICallKind
	TypeArg  TypeExpr
	Prompt   Expr
	Value    Expr
	Hint     Expr
	Goal     Expr
	Steps    []ReasonStep
	Tools    []Expr // identifiers referring to tool declarations (agent)
	MaxTurns Expr   // agent only; nil uses the runtime default

	WithContext    Expr     // identifier, member expr, or object-literal block
	WithoutContext []string // keys dropped before the call
	Guards         []GuardClause
	OnFail         *OnFailClause
	Uncertain      bool // true when the binding used `uncertain` or TypeArg isn't already Confident<T>

	Location Location
}

func (e *AICallExpr) Loc() Location { return e.Location }
func (*AICallExpr) exprNode()       {}
