package dsl

import (
	"strings"
	"testing"
)

func TestParse_DirectivesAndProductions(t *testing.T) {
	src := `
%name expr
%token num "[0-9]+"
%token eq "=="
%nonassoc eq
%left num
%start expr

expr
    : expr eq expr
    | num
    ;
`
	f, err := Parse("test", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if f.Name != "expr" {
		t.Errorf("expected name %q, got %q", "expr", f.Name)
	}
	if f.Start != "expr" {
		t.Errorf("expected start %q, got %q", "expr", f.Start)
	}
	if len(f.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %v", len(f.Tokens))
	}
	if f.Tokens[0].Name != "num" || f.Tokens[0].Pattern != "[0-9]+" {
		t.Errorf("unexpected first token: %+v", f.Tokens[0])
	}

	if len(f.PrecGroups) != 2 {
		t.Fatalf("expected 2 precedence groups, got %v", len(f.PrecGroups))
	}
	if f.PrecGroups[0].Assoc != "nonassoc" || f.PrecGroups[0].Names[0] != "eq" {
		t.Errorf("unexpected first precedence group: %+v", f.PrecGroups[0])
	}

	if len(f.Productions) != 1 {
		t.Fatalf("expected 1 production, got %v", len(f.Productions))
	}
	if len(f.Productions[0].Alts) != 2 {
		t.Fatalf("expected 2 alternatives, got %v", len(f.Productions[0].Alts))
	}
}

func TestParse_PrecOverride(t *testing.T) {
	src := `
%name expr
%token num "[0-9]+"
%token minus "-"
%left minus
%start expr

expr
    : minus expr %prec minus
    | num
    ;
`
	f, err := Parse("test", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Productions[0].Alts[0].PrecSymbol != "minus" {
		t.Errorf("expected %%prec override %q, got %q", "minus", f.Productions[0].Alts[0].PrecSymbol)
	}
}

func TestParse_UndefinedDirectiveIsAnError(t *testing.T) {
	src := `%bogus foo` + "\n" + `expr : a ;`
	if _, err := Parse("test", strings.NewReader(src)); err == nil {
		t.Fatal("expected an error for an unknown directive")
	}
}

func TestParse_MissingSemicolonIsAnError(t *testing.T) {
	src := `expr : a`
	if _, err := Parse("test", strings.NewReader(src)); err == nil {
		t.Fatal("expected an error for a missing terminating semicolon")
	}
}
