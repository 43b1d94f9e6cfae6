package checker

import (
	"strings"
	"testing"

	"github.com/thinklang/thinklang/pkg/ast"
	"github.com/thinklang/thinklang/pkg/parser"
	"github.com/thinklang/thinklang/pkg/symtab"
)

func parseOrFatal(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse("t.tl", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestCheck_UncertainMemberAccessIsError(t *testing.T) {
	prog := parseOrFatal(t, `
type Review { score: int }
let r = think<Review>("rate this")
print r.score
`)
	res := Check(prog, symtab.NewTypeTable())
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d: %+v", len(res.Errors), res.Errors)
	}
	if !strings.Contains(res.Errors[0].Message, "uncertain-member-access") {
		t.Errorf("expected uncertain-member-access error, got %q", res.Errors[0].Message)
	}
}

func TestCheck_CapabilityAccessIsAllowed(t *testing.T) {
	prog := parseOrFatal(t, `
type Review { score: int }
let r = think<Review>("rate this")
print r.value
print r.confidence
print r.reasoning
print r.isConfident
`)
	res := Check(prog, symtab.NewTypeTable())
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got %+v", res.Errors)
	}
}

func TestCheck_ConfidentAnnotatedStillUncertain(t *testing.T) {
	prog := parseOrFatal(t, `
let r: Confident<string> = think<string>("rate this")
print r.whatever
`)
	res := Check(prog, symtab.NewTypeTable())
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, "uncertain-member-access") {
		t.Fatalf("expected uncertain-member-access error, got %+v", res.Errors)
	}
}

func TestCheck_NonExhaustiveMatchWarns(t *testing.T) {
	prog := parseOrFatal(t, `
type Review { score: int }
let x: Review = think<Review>("rate")
let y = match x { { score: >= 1 } => "h" }
`)
	res := Check(prog, symtab.NewTypeTable())
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %+v", len(res.Warnings), res.Warnings)
	}
	if !strings.Contains(res.Warnings[0].Message, "exhaustive") {
		t.Errorf("expected warning mentioning exhaustive, got %q", res.Warnings[0].Message)
	}
}

func TestCheck_WildcardMatchHasNoWarning(t *testing.T) {
	prog := parseOrFatal(t, `
type Review { score: int }
let x: Review = think<Review>("rate")
let y = match x { { score: >= 1 } => "h", _ => "l" }
`)
	res := Check(prog, symtab.NewTypeTable())
	if len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", res.Warnings)
	}
}

func TestCheck_CatchUnrecognizedErrorKind(t *testing.T) {
	prog := parseOrFatal(t, `
try {
  print "x"
} catch (NotARealError e) {
  print e
}
`)
	res := Check(prog, symtab.NewTypeTable())
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %+v", res.Errors)
	}
}

func TestCheck_CatchRecognizedErrorKindOK(t *testing.T) {
	prog := parseOrFatal(t, `
try {
  print "x"
} catch (ConfidenceTooLow e) {
  print e
}
`)
	res := Check(prog, symtab.NewTypeTable())
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got %+v", res.Errors)
	}
}

func TestCheck_UndefinedTypeArgument(t *testing.T) {
	prog := parseOrFatal(t, `let r = think<DoesNotExist>("x")`)
	res := Check(prog, symtab.NewTypeTable())
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %+v", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Message, "does not resolve") {
		t.Errorf("unexpected message: %q", res.Errors[0].Message)
	}
}

func TestCheck_UndefinedNameIsError(t *testing.T) {
	prog := parseOrFatal(t, `print undefinedVar`)
	res := Check(prog, symtab.NewTypeTable())
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0].Message, "undefined name") {
		t.Fatalf("expected undefined name error, got %+v", res.Errors)
	}
}

func TestCheck_FunctionArityMismatch(t *testing.T) {
	prog := parseOrFatal(t, `
func add(a: int, b: int): int {
  print a
}
let x = add(1)
`)
	res := Check(prog, symtab.NewTypeTable())
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e.Message, "expects 2 argument") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected arity mismatch error, got %+v", res.Errors)
	}
}
