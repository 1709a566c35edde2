package grammar

import (
	"crypto/sha256"
	"fmt"

	"github.com/ysakai/lrforge/compressor"
	"github.com/ysakai/lrforge/grammar/symbol"
)

// fingerprintForFlavour folds the requested Flavour into a grammar's base fingerprint. Two
// flavours of the same grammar produce different ACTION/GOTO tables, so the persisted
// artifact's cache key must depend on both, even though Grammar.ComputeFingerprint itself is
// a property of the grammar alone.
func fingerprintForFlavour(base Fingerprint, flavour Flavour) Fingerprint {
	h := sha256.New()
	h.Write(base[:])
	h.Write([]byte(flavour))
	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}

// Flavour selects which construction Compile uses to assign look-ahead sets to reducible
// items: SLR(1) derives them from FOLLOW, LALR(1) merges the LR(0) skeleton's states and
// propagates look-ahead along it, and LR(1) builds the canonical collection directly.
type Flavour string

const (
	FlavourSLR1  Flavour = "slr1"
	FlavourLALR1 Flavour = "lalr1"
	FlavourLR1   Flavour = "lr1"
)

// ConflictDiagnostic reports how many shift/reduce and reduce/reduce conflicts a compiled
// grammar has. Compile returns it as an error only when the actual total exceeds the
// caller's expected count (set via WithExpectedConflicts). When Compile succeeds, the same
// conflicts are also listed per state on the Report (WithReport); when it returns this error,
// no CompiledGrammar and no Report are produced.
type ConflictDiagnostic struct {
	ShiftReduce  int
	ReduceReduce int
	Expected     int
}

func (e *ConflictDiagnostic) Error() string {
	return fmt.Sprintf("grammar has %v shift/reduce and %v reduce/reduce conflicts, expected at most %v", e.ShiftReduce, e.ReduceReduce, e.Expected)
}

func countConflicts(conflicts []conflict) (int, int) {
	var sr, rr int
	for _, c := range conflicts {
		switch c.(type) {
		case *shiftReduceConflict:
			sr++
		case *reduceReduceConflict:
			rr++
		}
	}
	return sr, rr
}

type compileOptions struct {
	expectedConflicts int
	withReport        bool
}

// CompileOption customizes a Compile call.
type CompileOption func(*compileOptions)

// WithExpectedConflicts tells Compile how many shift/reduce and reduce/reduce conflicts,
// combined, the grammar author expects. Compile returns a *ConflictDiagnostic when the
// actual sum exceeds it. Without this option, Compile never fails on conflicts; it still
// resolves every one of them by precedence, associativity, a default shift, or production
// order.
func WithExpectedConflicts(n int) CompileOption {
	return func(o *compileOptions) { o.expectedConflicts = n }
}

// WithReport tells Compile to also build the diagnostics Report alongside the table.
func WithReport() CompileOption {
	return func(o *compileOptions) { o.withReport = true }
}

const compiledGrammarVersion = "1"

// CompiledGrammar is the artifact Compile produces: a compressed parsing table plus enough
// symbol and lexical metadata for a Parser to drive it without holding onto the Grammar
// that built it. It is also exactly what the table cache façade persists and reloads.
type CompiledGrammar struct {
	Version           string
	Fingerprint       Fingerprint
	Flavour           Flavour
	Name              string
	Terminals         []string
	NonTerminals      []string
	Table             *CompiledTable
	LexSpec           *LexicalSpec
	Report            *Report
	LHSSymbols        []int
	ProductionLengths []int
	StartProduction   int
	EOFSymbol         int
}

// Compile runs grammar analysis through table compression for the requested flavour:
// FIRST/FOLLOW, the automaton the flavour calls for, the ACTION/GOTO table, its
// compression, and the source grammar's fingerprint. The conflict-count check sums
// len(sr) + len(rr) directly from the table builder's own conflict slice; sr and rr are
// always present, possibly-empty partitions, never a map lookup that could silently omit
// one of them.
func Compile(gram *Grammar, flavour Flavour, opts ...CompileOption) (*CompiledGrammar, error) {
	o := compileOptions{expectedConflicts: -1}
	for _, opt := range opts {
		opt(&o)
	}

	r := gram.symTab.Reader()
	termCount := len(r.TerminalSymbols()) + 1
	nonTermCount := len(r.NonTerminalSymbols()) + 1

	first, err := genFirstSet(gram.productionSet)
	if err != nil {
		return nil, fmt.Errorf("failed to compute FIRST sets: %w", err)
	}

	var ptab *ParsingTable
	var conflicts []conflict
	var genReport func() (*Report, error)

	switch flavour {
	case FlavourSLR1:
		lr0, err := genLR0Automaton(gram.productionSet, gram.startSym)
		if err != nil {
			return nil, fmt.Errorf("failed to build the LR(0) automaton: %w", err)
		}
		follow, err := genFollowSet(gram.productionSet, first)
		if err != nil {
			return nil, fmt.Errorf("failed to compute FOLLOW sets: %w", err)
		}
		if err := genSLRLookAhead(lr0, gram.productionSet, follow); err != nil {
			return nil, fmt.Errorf("failed to compute SLR(1) look-ahead: %w", err)
		}

		b := &lrTableBuilder{
			automaton:    lr0,
			prods:        gram.productionSet,
			termCount:    termCount,
			nonTermCount: nonTermCount,
			symTab:       r,
			precAndAssoc: gram.precAndAssoc,
		}
		ptab, err = b.build()
		if err != nil {
			return nil, fmt.Errorf("failed to build the SLR(1) table: %w", err)
		}
		conflicts = b.conflicts
		genReport = func() (*Report, error) { return b.genReport(ptab, gram) }

	case FlavourLALR1:
		lr0, err := genLR0Automaton(gram.productionSet, gram.startSym)
		if err != nil {
			return nil, fmt.Errorf("failed to build the LR(0) automaton: %w", err)
		}
		if _, err := genLALR1Automaton(lr0, gram.productionSet, first); err != nil {
			return nil, fmt.Errorf("failed to build the LALR(1) automaton: %w", err)
		}

		b := &lrTableBuilder{
			automaton:    lr0,
			prods:        gram.productionSet,
			termCount:    termCount,
			nonTermCount: nonTermCount,
			symTab:       r,
			precAndAssoc: gram.precAndAssoc,
		}
		ptab, err = b.build()
		if err != nil {
			return nil, fmt.Errorf("failed to build the LALR(1) table: %w", err)
		}
		conflicts = b.conflicts
		genReport = func() (*Report, error) { return b.genReport(ptab, gram) }

	case FlavourLR1:
		lr1, err := genLR1Automaton(gram.productionSet, gram.startSym, first)
		if err != nil {
			return nil, fmt.Errorf("failed to build the LR(1) automaton: %w", err)
		}

		b := &lr1TableBuilder{
			automaton:    lr1,
			prods:        gram.productionSet,
			termCount:    termCount,
			nonTermCount: nonTermCount,
			symTab:       r,
			precAndAssoc: gram.precAndAssoc,
		}
		ptab, err = b.build()
		if err != nil {
			return nil, fmt.Errorf("failed to build the LR(1) table: %w", err)
		}
		conflicts = b.conflicts
		genReport = func() (*Report, error) { return b.genReport(ptab, gram) }

	default:
		return nil, fmt.Errorf("unknown flavour: %v", flavour)
	}

	if o.expectedConflicts >= 0 {
		sr, rr := countConflicts(conflicts)
		if sr+rr > o.expectedConflicts {
			return nil, &ConflictDiagnostic{ShiftReduce: sr, ReduceReduce: rr, Expected: o.expectedConflicts}
		}
	}

	var report *Report
	if o.withReport {
		report, err = genReport()
		if err != nil {
			return nil, fmt.Errorf("failed to build the diagnostics report: %w", err)
		}
	}

	ctab, err := compileTable(ptab)
	if err != nil {
		return nil, fmt.Errorf("failed to compress the parsing table: %w", err)
	}

	termTexts, err := r.TerminalTexts()
	if err != nil {
		return nil, fmt.Errorf("failed to read terminal names: %w", err)
	}
	nonTermTexts, err := r.NonTerminalTexts()
	if err != nil {
		return nil, fmt.Errorf("failed to read non-terminal names: %w", err)
	}

	allProds := gram.productionSet.getAllProductions()
	maxNum := productionNumStart
	for _, p := range allProds {
		if p.num > maxNum {
			maxNum = p.num
		}
	}
	lhsSymbols := make([]int, maxNum+1)
	prodLengths := make([]int, maxNum+1)
	for _, p := range allProds {
		lhsSymbols[p.num] = int(p.lhs)
		prodLengths[p.num] = p.rhsLen
	}

	return &CompiledGrammar{
		Version:           compiledGrammarVersion,
		Fingerprint:       fingerprintForFlavour(gram.ComputeFingerprint(), flavour),
		Flavour:           flavour,
		Name:              gram.name,
		Terminals:         termTexts,
		NonTerminals:      nonTermTexts,
		Table:             ctab,
		LexSpec:           gram.lexSpec,
		Report:            report,
		LHSSymbols:        lhsSymbols,
		ProductionLengths: prodLengths,
		StartProduction:   productionNumStart.Int(),
		EOFSymbol:         int(symbol.SymbolEOF.Num()),
	}, nil
}

// CompiledTable is the compressed form of a ParsingTable the parser driver reads from and
// the table cache façade persists. Both the action and goto rows already encode "no entry"
// as 0 (actionEntryEmpty / goToEntryEmpty), exactly the empty value
// compressor.RowDisplacementTable expects, so no re-encoding is needed going in or out.
type CompiledTable struct {
	ActionTable      *compressor.RowDisplacementTable
	GoToTable        *compressor.RowDisplacementTable
	TerminalCount    int
	NonTerminalCount int
	InitialState     int
}

func (t *ParsingTable) actionEntries() []int {
	es := make([]int, len(t.actionTable))
	for i, a := range t.actionTable {
		es[i] = int(a)
	}
	return es
}

func (t *ParsingTable) goToEntries() []int {
	es := make([]int, len(t.goToTable))
	for i, g := range t.goToTable {
		es[i] = int(g)
	}
	return es
}

func compileTable(tab *ParsingTable) (*CompiledTable, error) {
	actionOrig, err := compressor.NewOriginalTable(tab.actionEntries(), tab.terminalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out the action table: %w", err)
	}
	action := compressor.NewRowDisplacementTable(int(actionEntryEmpty))
	if err := action.Compress(actionOrig); err != nil {
		return nil, fmt.Errorf("failed to compress the action table: %w", err)
	}

	goToOrig, err := compressor.NewOriginalTable(tab.goToEntries(), tab.nonTerminalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out the goto table: %w", err)
	}
	goTo := compressor.NewRowDisplacementTable(int(goToEntryEmpty))
	if err := goTo.Compress(goToOrig); err != nil {
		return nil, fmt.Errorf("failed to compress the goto table: %w", err)
	}

	return &CompiledTable{
		ActionTable:      action,
		GoToTable:        goTo,
		TerminalCount:    tab.terminalCount,
		NonTerminalCount: tab.nonTerminalCount,
		InitialState:     tab.InitialState.Int(),
	}, nil
}

// Action looks up the ACTION table entry for a state and terminal number.
func (t *CompiledTable) Action(state, term int) (ActionType, int, int, error) {
	v, err := t.ActionTable.Lookup(state, term)
	if err != nil {
		return ActionTypeError, 0, 0, err
	}
	ty, s, p := actionEntry(v).describe()
	return ty, s.Int(), p.Int(), nil
}

// GoTo looks up the GOTO table entry for a state and non-terminal number.
func (t *CompiledTable) GoTo(state, nonTerm int) (GoToType, int, error) {
	v, err := t.GoToTable.Lookup(state, nonTerm)
	if err != nil {
		return GoToTypeError, 0, err
	}
	ty, s := goToEntry(v).describe()
	return ty, s.Int(), nil
}
