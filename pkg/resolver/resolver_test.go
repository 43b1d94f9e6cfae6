package resolver

import (
	"strings"
	"testing"
)

func TestResolve_MergesImportedTypeAndFunction(t *testing.T) {
	loader := MapLoader{
		"main.tl": `
import { Review, rate } from "./shared"
let r: Review = think<Review>("go")
print rate(1)
`,
		"shared.tl": `
type Review { score: int }
func rate(n: int): int {
  print n
}
`,
	}
	r := New(loader)
	res, err := r.Resolve("main.tl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Types.Lookup("Review"); !ok {
		t.Errorf("expected Review to be merged into importer's type table")
	}
	if _, ok := res.Funcs["rate"]; !ok {
		t.Errorf("expected rate to be merged into importer's func table")
	}
}

func TestResolve_TransitiveImportsNotReExported(t *testing.T) {
	loader := MapLoader{
		"main.tl": `
import { Mid } from "./mid"
type Dummy { x: int }
`,
		"mid.tl": `
import { Base } from "./base"
type Mid { y: int }
`,
		"base.tl": `
type Base { z: int }
`,
	}
	r := New(loader)
	res, err := r.Resolve("main.tl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Types.Lookup("Mid"); !ok {
		t.Errorf("expected Mid to be merged")
	}
	if _, ok := res.Types.Lookup("Base"); ok {
		t.Errorf("Base is transitive through mid.tl and must not be re-exported to main")
	}
}

func TestResolve_CircularImportErrors(t *testing.T) {
	loader := MapLoader{
		"a.tl": `import { B } from "./b"` + "\n" + `type A { x: int }`,
		"b.tl": `import { A } from "./a"` + "\n" + `type B { y: int }`,
	}
	r := New(loader)
	_, err := r.Resolve("a.tl")
	if err == nil {
		t.Fatal("expected circular-import error")
	}
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != "circular-import" {
		t.Fatalf("expected *Error{Kind: circular-import}, got %v", err)
	}
}

func TestResolve_NotExportedNameErrors(t *testing.T) {
	loader := MapLoader{
		"main.tl": `import { DoesNotExist } from "./shared"`,
		"shared.tl": `type Review { score: int }`,
	}
	r := New(loader)
	_, err := r.Resolve("main.tl")
	if err == nil {
		t.Fatal("expected not-exported error")
	}
	if !strings.Contains(err.Error(), "not-exported") {
		t.Fatalf("expected not-exported error, got %v", err)
	}
}

func TestResolve_ExtensionAppendedWhenMissing(t *testing.T) {
	loader := MapLoader{
		"main.tl": `import { Review } from "./shared"`,
		"shared.tl": `type Review { score: int }`,
	}
	r := New(loader)
	res, err := r.Resolve("main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != "main.tl" {
		t.Errorf("expected normalized path main.tl, got %s", res.Path)
	}
}

func TestResolve_NestedPathJoin(t *testing.T) {
	loader := MapLoader{
		"pkg/main.tl": `import { Review } from "./util/shared"`,
		"pkg/util/shared.tl": `type Review { score: int }`,
	}
	r := New(loader)
	_, err := r.Resolve("pkg/main.tl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
