package grammar

import (
	"testing"

	"github.com/ysakai/lrforge/grammar/symbol"
)

// nullableFollowGrammarSrc exercises the nullable-suffix propagation case in genFollowSet:
// FOLLOW(C) only picks up FOLLOW(S) because the entire remaining suffix "D A" is nullable.
const nullableFollowGrammarSrc = `
%name nullablefollow
%token t "t"
%token n "n"
%token b "b"
%token e "e"
%token i "i"
%token p "p"
%token f "f"
%start S

S
    : B C D A
    ;

A
    : n A
    |
    ;

B
    : t
    ;

C
    : b D e
    |
    ;

D
    : i E
    |
    ;

E
    : S f
    | p
    ;
`

func TestGenFollowSet_NullableFollow(t *testing.T) {
	gram := buildTestGrammar(t, nullableFollowGrammarSrc)

	first, err := genFirstSet(gram.productionSet)
	if err != nil {
		t.Fatalf("genFirstSet failed: %v", err)
	}
	follow, err := genFollowSet(gram.productionSet, first)
	if err != nil {
		t.Fatalf("genFollowSet failed: %v", err)
	}

	r := gram.symTab.Reader()
	sym := func(name string) symbol.Symbol {
		s, ok := r.ToSymbol(name)
		if !ok {
			t.Fatalf("undefined symbol %v", name)
		}
		return s
	}

	nullable := map[string]bool{"A": true, "C": true, "D": true, "B": false, "E": false}
	for name, want := range nullable {
		e := first.findBySymbol(sym(name))
		if e == nil {
			t.Fatalf("no FIRST entry for %v", name)
		}
		if e.empty != want {
			t.Errorf("nullable(%v) = %v, want %v", name, e.empty, want)
		}
	}

	wantFollowC := map[string]bool{"i": true, "n": true, "f": true}
	flw, err := follow.find(sym("C"))
	if err != nil {
		t.Fatalf("follow.find(C) failed: %v", err)
	}
	if !flw.eof {
		t.Error("expected FOLLOW(C) to contain $")
	}
	for name := range wantFollowC {
		if _, ok := flw.symbols[sym(name)]; !ok {
			t.Errorf("expected FOLLOW(C) to contain %v", name)
		}
	}
	if len(flw.symbols) != len(wantFollowC) {
		t.Errorf("expected FOLLOW(C) to have exactly %v terminals, got %v", len(wantFollowC), len(flw.symbols))
	}
}
