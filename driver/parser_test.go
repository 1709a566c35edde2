package driver

import (
	"strconv"
	"strings"
	"testing"

	"github.com/ysakai/lrforge/dsl"
	"github.com/ysakai/lrforge/grammar"
)

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

func compileExprGrammar(t *testing.T) *grammar.CompiledGrammar {
	t.Helper()
	f, err := dsl.Parse("test", strings.NewReader(exprGrammarSrc))
	if err != nil {
		t.Fatalf("failed to parse grammar source: %v", err)
	}
	gram, err := grammar.NewGrammarBuilder("test").Build(f)
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	cgram, err := grammar.Compile(gram, grammar.FlavourLALR1)
	if err != nil {
		t.Fatalf("failed to compile grammar: %v", err)
	}
	return cgram
}

// sumAction treats every production but the leaf "num" rule as a binary operator and adds
// its two operands; this is enough to prove semantic actions see the values the driver
// pushed for each symbol, in the order they appeared on the right-hand side.
func sumAction(prodNum int, values []interface{}) (interface{}, error) {
	if len(values) == 1 {
		return strconv.Atoi(values[0].(string))
	}
	lhs := values[0].(int)
	rhs := values[2].(int)
	return lhs + rhs, nil
}

func TestParser_AcceptsSingleEquality(t *testing.T) {
	cgram := compileExprGrammar(t)
	p, err := NewParser(cgram, strings.NewReader("1==1"), WithSemanticAction(sumAction))
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	v, err := p.Parse()
	if err != nil {
		t.Fatalf("expected acceptance, got error: %v", err)
	}
	if v.(int) != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestParser_RejectsChainedEquality(t *testing.T) {
	// prec(==) is NonAssoc, so "1==1==1" must be rejected at the second "==" rather than
	// silently associating either left or right.
	cgram := compileExprGrammar(t)
	p, err := NewParser(cgram, strings.NewReader("1==1==1"), WithSemanticAction(sumAction))
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	_, err = p.Parse()
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected a *ParseError, got %T: %v", err, err)
	}
	if perr.Token != "==" {
		t.Fatalf("expected the rejected token to be the second \"==\", got %q", perr.Token)
	}
}

// emptyGrammarSrc's only production is an ε-production for the start symbol; "junk" is
// declared but never referenced so the lexical specification has at least one pattern to
// compile against, without changing what the grammar itself accepts.
const emptyGrammarSrc = `
%name empty
%token junk "junk"
%start S

S
    :
    ;
`

func compileEmptyGrammar(t *testing.T) *grammar.CompiledGrammar {
	t.Helper()
	f, err := dsl.Parse("test", strings.NewReader(emptyGrammarSrc))
	if err != nil {
		t.Fatalf("failed to parse grammar source: %v", err)
	}
	gram, err := grammar.NewGrammarBuilder("test").Build(f)
	if err != nil {
		t.Fatalf("failed to build grammar: %v", err)
	}
	cgram, err := grammar.Compile(gram, grammar.FlavourLALR1)
	if err != nil {
		t.Fatalf("failed to compile grammar: %v", err)
	}
	return cgram
}

func TestParser_AcceptsEmptyInput(t *testing.T) {
	cgram := compileEmptyGrammar(t)

	epsilonAction := func(prodNum int, values []interface{}) (interface{}, error) {
		return "epsilon", nil
	}
	p, err := NewParser(cgram, strings.NewReader(""), WithSemanticAction(epsilonAction))
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	v, err := p.Parse()
	if err != nil {
		t.Fatalf("expected the empty input to be accepted, got error: %v", err)
	}
	if v.(string) != "epsilon" {
		t.Fatalf("expected the ε-production's semantic value to survive to Accept, got %v", v)
	}
}

func TestParser_RejectsNonemptyInputAgainstEmptyGrammar(t *testing.T) {
	cgram := compileEmptyGrammar(t)

	p, err := NewParser(cgram, strings.NewReader("junk"))
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected a nonempty prefix to be rejected against a grammar whose start symbol is only ever ε")
	}
}

func TestParser_AcceptsLeftAssociativeChain(t *testing.T) {
	cgram := compileExprGrammar(t)
	p, err := NewParser(cgram, strings.NewReader("1+2+3"), WithSemanticAction(sumAction))
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	v, err := p.Parse()
	if err != nil {
		t.Fatalf("expected acceptance, got error: %v", err)
	}
	if v.(int) != 6 {
		t.Fatalf("expected 6, got %v", v)
	}
}
