package lexer

import "testing"

func TestAll_KeywordsAndPunctuation(t *testing.T) {
	src := `let x: int = think<Review>("rate this") with context: { a, b.c } guard { len: 1..10 } on_fail: retry(2) then fallback("x")`
	toks, err := All("t.tl", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[len(toks)-1].Kind != EOF {
		t.Fatalf("expected trailing EOF token")
	}
	want := []Kind{KwLet, Ident, Colon, KwInt, Assign, KwThink, Lt}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v want %v", i, toks[i].Kind, k)
		}
	}
}

func TestAll_StringEscapes(t *testing.T) {
	toks, err := All("t.tl", `"a\nb" 'c\td'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Lit != "a\nb" {
		t.Errorf("got %q", toks[0].Lit)
	}
	if toks[1].Lit != "c\td" {
		t.Errorf("got %q", toks[1].Lit)
	}
}

func TestAll_Number(t *testing.T) {
	toks, err := All("t.tl", "42 3.14 1e10 2.5e-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"42", "3.14", "1e10", "2.5e-3"}
	for i, w := range want {
		if toks[i].Lit != w {
			t.Errorf("token %d: got %q want %q", i, toks[i].Lit, w)
		}
	}
}

func TestAll_CommentsSkipped(t *testing.T) {
	toks, err := All("t.tl", "let x = 1 // trailing\n/* block */ let y = 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var lets int
	for _, tok := range toks {
		if tok.Kind == KwLet {
			lets++
		}
	}
	if lets != 2 {
		t.Errorf("expected 2 let tokens, got %d", lets)
	}
}

func TestAll_UnterminatedStringErrors(t *testing.T) {
	_, err := All("t.tl", `"unterminated`)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestAll_MatchOperators(t *testing.T) {
	toks, err := All("t.tl", "match x { { v: >= 1, w: != 2 } => 1 _ => 0 }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	foundGe, foundNe, foundArrow, foundWildcard := false, false, false, false
	for _, k := range kinds {
		switch k {
		case Ge:
			foundGe = true
		case Ne:
			foundNe = true
		case Arrow:
			foundArrow = true
		case Underscore:
			foundWildcard = true
		}
	}
	if !foundGe || !foundNe || !foundArrow || !foundWildcard {
		t.Errorf("missing expected tokens: %+v", kinds)
	}
}
