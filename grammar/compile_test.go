package grammar

import (
	"strings"
	"testing"

	"github.com/ysakai/lrforge/dsl"
)

func buildTestGrammar(t *testing.T, src string) *Grammar {
	t.Helper()
	f, err := dsl.Parse("test", strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to parse grammar source: %v", err)
	}
	gram, err := NewGrammarBuilder("test").Build(f)
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	return gram
}

const exprGrammarSrc = `
%name expr
%token num "[0-9]+"
%token plus "\+"
%token star "\*"
%token eq "=="
%nonassoc eq
%left plus
%left star
%start expr

expr
    : expr eq expr
    | expr plus expr
    | expr star expr
    | num
    ;
`

func TestCompile_AllFlavoursSucceed(t *testing.T) {
	for _, flavour := range []Flavour{FlavourSLR1, FlavourLALR1, FlavourLR1} {
		gram := buildTestGrammar(t, exprGrammarSrc)
		cgram, err := Compile(gram, flavour, WithReport())
		if err != nil {
			t.Fatalf("%v: Compile failed: %v", flavour, err)
		}
		if cgram.Flavour != flavour {
			t.Errorf("%v: got flavour %v", flavour, cgram.Flavour)
		}
		if cgram.Table == nil {
			t.Errorf("%v: expected a compiled table", flavour)
		}
		if cgram.Report == nil {
			t.Errorf("%v: expected a report when WithReport is set", flavour)
		}
	}
}

func TestCompile_ExpectedConflictsDiagnostic(t *testing.T) {
	// expr's three binary operators all shift/reduce against each other at the item-set
	// level; precedence resolves every one of them, but the builder still records each
	// resolution as a conflict, so asking for zero must fail with a *ConflictDiagnostic.
	gram := buildTestGrammar(t, exprGrammarSrc)
	_, err := Compile(gram, FlavourLALR1, WithExpectedConflicts(0))
	if err == nil {
		t.Fatal("expected a conflict diagnostic, got nil error")
	}
	diag, ok := err.(*ConflictDiagnostic)
	if !ok {
		t.Fatalf("expected a *ConflictDiagnostic, got %T: %v", err, err)
	}
	if diag.ShiftReduce == 0 {
		t.Fatal("expected at least one recorded shift/reduce conflict")
	}
}

func TestComputeFingerprint_StableAndSensitive(t *testing.T) {
	g1 := buildTestGrammar(t, exprGrammarSrc)
	g2 := buildTestGrammar(t, exprGrammarSrc)
	if g1.ComputeFingerprint() != g2.ComputeFingerprint() {
		t.Fatal("identical grammar sources produced different fingerprints")
	}

	changed := strings.Replace(exprGrammarSrc, "%nonassoc eq", "%left eq", 1)
	g3 := buildTestGrammar(t, changed)
	if g1.ComputeFingerprint() == g3.ComputeFingerprint() {
		t.Fatal("changing a precedence entry did not change the fingerprint")
	}
}

func TestCompile_FingerprintDependsOnFlavour(t *testing.T) {
	gram := buildTestGrammar(t, exprGrammarSrc)
	slr, err := Compile(gram, FlavourSLR1)
	if err != nil {
		t.Fatalf("Compile(SLR1) failed: %v", err)
	}
	lalr, err := Compile(gram, FlavourLALR1)
	if err != nil {
		t.Fatalf("Compile(LALR1) failed: %v", err)
	}
	if slr.Fingerprint == lalr.Fingerprint {
		t.Fatal("compiling the same grammar under two flavours produced the same artifact fingerprint")
	}
}

func TestCompile_UnknownFlavour(t *testing.T) {
	gram := buildTestGrammar(t, exprGrammarSrc)
	if _, err := Compile(gram, Flavour("bogus")); err == nil {
		t.Fatal("expected an error for an unknown flavour")
	}
}
