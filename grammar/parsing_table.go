package grammar

import (
	"fmt"
	"sort"

	"github.com/ysakai/lrforge/grammar/symbol"
)

type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
	ActionTypeError  = ActionType("error")
)

type actionEntry int

const actionEntryEmpty = actionEntry(0)

func newShiftActionEntry(state stateNum) actionEntry {
	return actionEntry(state * -1)
}

func newReduceActionEntry(prod productionNum) actionEntry {
	return actionEntry(prod)
}

func (e actionEntry) isEmpty() bool {
	return e == actionEntryEmpty
}

func (e actionEntry) describe() (ActionType, stateNum, productionNum) {
	if e == actionEntryEmpty {
		return ActionTypeError, stateNumInitial, productionNumNil
	}
	if e < 0 {
		return ActionTypeShift, stateNum(e * -1), productionNumNil
	}
	return ActionTypeReduce, stateNumInitial, productionNum(e)
}

type GoToType string

const (
	GoToTypeRegistered = GoToType("registered")
	GoToTypeError      = GoToType("error")
)

type goToEntry uint

const goToEntryEmpty = goToEntry(0)

func newGoToEntry(state stateNum) goToEntry {
	return goToEntry(state)
}

func (e goToEntry) describe() (GoToType, stateNum) {
	if e == goToEntryEmpty {
		return GoToTypeError, stateNumInitial
	}
	return GoToTypeRegistered, stateNum(e)
}

type conflictResolutionMethod int

func (m conflictResolutionMethod) Int() int {
	return int(m)
}

const (
	ResolvedByPrec      conflictResolutionMethod = 1
	ResolvedByAssoc     conflictResolutionMethod = 2
	ResolvedByShift     conflictResolutionMethod = 3
	ResolvedByProdOrder conflictResolutionMethod = 4
)

type conflict interface {
	conflict()
}

type shiftReduceConflict struct {
	state      stateNum
	sym        symbol.Symbol
	nextState  stateNum
	prodNum    productionNum
	resolvedBy conflictResolutionMethod
}

func (c *shiftReduceConflict) conflict() {
}

type reduceReduceConflict struct {
	state      stateNum
	sym        symbol.Symbol
	prodNum1   productionNum
	prodNum2   productionNum
	resolvedBy conflictResolutionMethod
}

func (c *reduceReduceConflict) conflict() {
}

var (
	_ conflict = &shiftReduceConflict{}
	_ conflict = &reduceReduceConflict{}
)

// ParsingTable is the flattened ACTION/GOTO table a Parser drives. Both tables are stored
// as row-major slices indexed by (state, symbol number) to keep the representation close to
// what the table compressor in the compressor package consumes.
type ParsingTable struct {
	actionTable      []actionEntry
	goToTable        []goToEntry
	stateCount       int
	terminalCount    int
	nonTerminalCount int

	InitialState stateNum
}

func (t *ParsingTable) getAction(state stateNum, sym symbol.SymbolNum) (ActionType, stateNum, productionNum) {
	pos := state.Int()*t.terminalCount + sym.Int()
	return t.actionTable[pos].describe()
}

func (t *ParsingTable) getGoTo(state stateNum, sym symbol.SymbolNum) (GoToType, stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Int()
	return t.goToTable[pos].describe()
}

func (t *ParsingTable) readAction(row int, col int) actionEntry {
	return t.actionTable[row*t.terminalCount+col]
}

func (t *ParsingTable) writeAction(row int, col int, act actionEntry) {
	t.actionTable[row*t.terminalCount+col] = act
}

func (t *ParsingTable) writeGoTo(state stateNum, sym symbol.Symbol, nextState stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Num().Int()
	t.goToTable[pos] = newGoToEntry(nextState)
}

// lrTableBuilder walks the canonical collection computed by the automaton builder and
// writes shift, reduce and goto actions into a dense ParsingTable, recording every conflict
// it resolves along the way. The same builder serves SLR(1) and LALR(1) construction; only
// the look-ahead sets attached to the reducible items of the LR(0) automaton differ between
// them. Canonical LR(1) tables are written by lr1TableBuilder instead.
type lrTableBuilder struct {
	automaton    *lr0Automaton
	prods        *productionSet
	termCount    int
	nonTermCount int
	symTab       *symbol.SymbolTableReader
	precAndAssoc *precAndAssoc

	conflicts []conflict
}

func (b *lrTableBuilder) build() (*ParsingTable, error) {
	var ptab *ParsingTable
	{
		initialState := b.automaton.states[b.automaton.initialState]
		ptab = &ParsingTable{
			actionTable:      make([]actionEntry, len(b.automaton.states)*b.termCount),
			goToTable:        make([]goToEntry, len(b.automaton.states)*b.nonTermCount),
			stateCount:       len(b.automaton.states),
			terminalCount:    b.termCount,
			nonTerminalCount: b.nonTermCount,
			InitialState:     initialState.num,
		}
	}

	for _, state := range b.automaton.states {
		for sym, kID := range state.next {
			nextState := b.automaton.states[kID]
			if sym.IsTerminal() {
				b.writeShiftAction(ptab, state.num, sym, nextState.num)
			} else {
				ptab.writeGoTo(state.num, sym, nextState.num)
			}
		}

		for prodID := range state.reducible {
			reducibleProd, ok := b.prods.findByID(prodID)
			if !ok {
				return nil, fmt.Errorf("reducible production not found: %v", prodID)
			}

			var reducibleItem *lrItem
			for _, item := range state.items {
				if item.prod != reducibleProd.id {
					continue
				}

				reducibleItem = item
				break
			}
			if reducibleItem == nil {
				for _, item := range state.emptyProdItems {
					if item.prod != reducibleProd.id {
						continue
					}

					reducibleItem = item
					break
				}
				if reducibleItem == nil {
					return nil, fmt.Errorf("reducible item not found; state: %v, production: %v", state.num, reducibleProd.num)
				}
			}

			for a := range reducibleItem.lookAhead.symbols {
				b.writeReduceAction(ptab, state.num, a, reducibleProd.num)
			}
		}
	}

	return ptab, nil
}

// writeShiftAction writes a shift action to the parsing table. When a shift/reduce conflict
// occurs, the conflict is resolved by precedence and associativity, defaulting to shift when
// either side has no precedence assigned.
func (b *lrTableBuilder) writeShiftAction(tab *ParsingTable, state stateNum, sym symbol.Symbol, nextState stateNum) {
	act := tab.readAction(state.Int(), sym.Num().Int())
	if !act.isEmpty() {
		ty, _, p := act.describe()
		if ty == ActionTypeReduce {
			act, method := b.resolveSRConflict(sym.Num(), p)
			b.conflicts = append(b.conflicts, &shiftReduceConflict{
				state:      state,
				sym:        sym,
				nextState:  nextState,
				prodNum:    p,
				resolvedBy: method,
			})
			switch act {
			case ActionTypeShift:
				tab.writeAction(state.Int(), sym.Num().Int(), newShiftActionEntry(nextState))
			case ActionTypeError:
				tab.writeAction(state.Int(), sym.Num().Int(), actionEntryEmpty)
			}
			return
		}
	}
	tab.writeAction(state.Int(), sym.Num().Int(), newShiftActionEntry(nextState))
}

// writeReduceAction writes a reduce action to the parsing table. Shift/reduce conflicts are
// resolved by precedence and associativity; reduce/reduce conflicts favor the production
// defined earlier in the grammar source.
func (b *lrTableBuilder) writeReduceAction(tab *ParsingTable, state stateNum, sym symbol.Symbol, prod productionNum) {
	act := tab.readAction(state.Int(), sym.Num().Int())
	if !act.isEmpty() {
		ty, s, p := act.describe()
		switch ty {
		case ActionTypeReduce:
			if p == prod {
				return
			}

			b.conflicts = append(b.conflicts, &reduceReduceConflict{
				state:      state,
				sym:        sym,
				prodNum1:   p,
				prodNum2:   prod,
				resolvedBy: ResolvedByProdOrder,
			})
			if p < prod {
				tab.writeAction(state.Int(), sym.Num().Int(), newReduceActionEntry(p))
			} else {
				tab.writeAction(state.Int(), sym.Num().Int(), newReduceActionEntry(prod))
			}
		case ActionTypeShift:
			act, method := b.resolveSRConflict(sym.Num(), prod)
			b.conflicts = append(b.conflicts, &shiftReduceConflict{
				state:      state,
				sym:        sym,
				nextState:  s,
				prodNum:    prod,
				resolvedBy: method,
			})
			switch act {
			case ActionTypeReduce:
				tab.writeAction(state.Int(), sym.Num().Int(), newReduceActionEntry(prod))
			case ActionTypeError:
				tab.writeAction(state.Int(), sym.Num().Int(), actionEntryEmpty)
			}
		}
		return
	}
	tab.writeAction(state.Int(), sym.Num().Int(), newReduceActionEntry(prod))
}

func (b *lrTableBuilder) resolveSRConflict(sym symbol.SymbolNum, prod productionNum) (ActionType, conflictResolutionMethod) {
	return resolveSRConflict(b.precAndAssoc, sym, prod)
}

// resolveSRConflict decides a shift/reduce conflict by precedence and associativity: a
// terminal or production with no assigned precedence defaults to shift, equal precedence
// defers to the production's associativity (left associative reduces, right associative
// shifts, nonassoc rejects the input outright), and otherwise the higher-precedence side wins.
func resolveSRConflict(pa *precAndAssoc, sym symbol.SymbolNum, prod productionNum) (ActionType, conflictResolutionMethod) {
	symPrec := pa.terminalPrecedence(sym)
	prodPrec := pa.productionPredence(prod)
	if symPrec == 0 || prodPrec == 0 {
		return ActionTypeShift, ResolvedByShift
	}
	if symPrec == prodPrec {
		switch pa.productionAssociativity(prod) {
		case assocTypeLeft:
			return ActionTypeReduce, ResolvedByAssoc
		case assocTypeNonAssoc:
			return ActionTypeError, ResolvedByAssoc
		default:
			return ActionTypeShift, ResolvedByAssoc
		}
	}
	if symPrec > prodPrec {
		return ActionTypeShift, ResolvedByPrec
	}
	return ActionTypeReduce, ResolvedByPrec
}

func (b *lrTableBuilder) genReport(tab *ParsingTable, gram *Grammar) (*Report, error) {
	terms, nonTerms, prods, err := describeSymbolsAndProductions(b.symTab, b.precAndAssoc, gram)
	if err != nil {
		return nil, err
	}

	srConflicts := map[stateNum][]*shiftReduceConflict{}
	rrConflicts := map[stateNum][]*reduceReduceConflict{}
	for _, con := range b.conflicts {
		switch c := con.(type) {
		case *shiftReduceConflict:
			srConflicts[c.state] = append(srConflicts[c.state], c)
		case *reduceReduceConflict:
			rrConflicts[c.state] = append(rrConflicts[c.state], c)
		}
	}

	states := make([]*State, len(b.automaton.states))
	for _, s := range b.automaton.states {
		kernel := make([]*Item, len(s.items))
		for i, item := range s.items {
			p, ok := b.prods.findByID(item.prod)
			if !ok {
				return nil, fmt.Errorf("failed to generate states: production of kernel item not found: %v", item.prod)
			}
			kernel[i] = &Item{Production: p.num.Int(), Dot: item.dot}
		}
		sort.Slice(kernel, func(i, j int) bool {
			if kernel[i].Production != kernel[j].Production {
				return kernel[i].Production < kernel[j].Production
			}
			return kernel[i].Dot < kernel[j].Dot
		})

		shift, reduce, goTo := describeTransitions(tab, b.symTab, s.num)
		sr, rr := describeConflicts(tab, s.num, srConflicts[s.num], rrConflicts[s.num])

		states[s.num.Int()] = &State{
			Number:     s.num.Int(),
			Kernel:     kernel,
			Shift:      shift,
			Reduce:     reduce,
			GoTo:       goTo,
			SRConflict: sr,
			RRConflict: rr,
		}
	}

	return &Report{
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prods,
		States:       states,
	}, nil
}

// describeSymbolsAndProductions builds the symbol- and production-level parts of a Report.
// It is shared by the LR(0)/SLR(1)/LALR(1) table builder and the canonical LR(1) table
// builder, which otherwise walk different automaton and state representations.
func describeSymbolsAndProductions(symTab *symbol.SymbolTableReader, pa *precAndAssoc, gram *Grammar) ([]*Terminal, []*NonTerminal, []*Production, error) {
	termSyms := symTab.TerminalSymbols()
	terms := make([]*Terminal, len(termSyms)+1)
	for _, sym := range termSyms {
		name, ok := symTab.ToText(sym)
		if !ok {
			return nil, nil, nil, fmt.Errorf("failed to generate terminals: symbol not found: %v", sym)
		}

		term := &Terminal{Number: sym.Num().Int(), Name: name}
		if prec := pa.terminalPrecedence(sym.Num()); prec != precNil {
			term.Precedence = prec
		}
		switch pa.terminalAssociativity(sym.Num()) {
		case assocTypeLeft:
			term.Associativity = "l"
		case assocTypeRight:
			term.Associativity = "r"
		case assocTypeNonAssoc:
			term.Associativity = "n"
		}
		terms[sym.Num()] = term
	}

	nonTermSyms := symTab.NonTerminalSymbols()
	nonTerms := make([]*NonTerminal, len(nonTermSyms)+1)
	for _, sym := range nonTermSyms {
		name, ok := symTab.ToText(sym)
		if !ok {
			return nil, nil, nil, fmt.Errorf("failed to generate non-terminals: symbol not found: %v", sym)
		}
		nonTerms[sym.Num()] = &NonTerminal{Number: sym.Num().Int(), Name: name}
	}

	ps := gram.productionSet.getAllProductions()
	prods := make([]*Production, len(ps)+1)
	for _, p := range ps {
		rhs := make([]int, len(p.rhs))
		for i, e := range p.rhs {
			if e.IsTerminal() {
				rhs[i] = e.Num().Int()
			} else {
				rhs[i] = e.Num().Int() * -1
			}
		}

		prod := &Production{Number: p.num.Int(), LHS: p.lhs.Num().Int(), RHS: rhs}
		if prec := pa.productionPredence(p.num); prec != precNil {
			prod.Precedence = prec
		}
		switch pa.productionAssociativity(p.num) {
		case assocTypeLeft:
			prod.Associativity = "l"
		case assocTypeRight:
			prod.Associativity = "r"
		case assocTypeNonAssoc:
			prod.Associativity = "n"
		}
		prods[p.num.Int()] = prod
	}

	return terms, nonTerms, prods, nil
}

// describeTransitions reads every shift, reduce and goto action out of a built ParsingTable
// for a single state.
func describeTransitions(tab *ParsingTable, symTab *symbol.SymbolTableReader, state stateNum) ([]*Transition, []*Reduce, []*Transition) {
	var shift []*Transition
	var reduce []*Reduce
	var goTo []*Transition

TERMINALS_LOOP:
	for _, t := range symTab.TerminalSymbols() {
		act, next, prod := tab.getAction(state, t.Num())
		switch act {
		case ActionTypeShift:
			shift = append(shift, &Transition{Symbol: t.Num().Int(), State: next.Int()})
		case ActionTypeReduce:
			for _, r := range reduce {
				if r.Production == prod.Int() {
					r.LookAhead = append(r.LookAhead, t.Num().Int())
					continue TERMINALS_LOOP
				}
			}
			reduce = append(reduce, &Reduce{LookAhead: []int{t.Num().Int()}, Production: prod.Int()})
		}
	}

	for _, n := range symTab.NonTerminalSymbols() {
		ty, next := tab.getGoTo(state, n.Num())
		if ty == GoToTypeRegistered {
			goTo = append(goTo, &Transition{Symbol: n.Num().Int(), State: next.Int()})
		}
	}

	sort.Slice(shift, func(i, j int) bool { return shift[i].State < shift[j].State })
	sort.Slice(reduce, func(i, j int) bool { return reduce[i].Production < reduce[j].Production })
	sort.Slice(goTo, func(i, j int) bool { return goTo[i].State < goTo[j].State })

	return shift, reduce, goTo
}

// describeConflicts renders the conflicts recorded for a single state alongside the action
// the table builder actually adopted for each one.
func describeConflicts(tab *ParsingTable, state stateNum, srs []*shiftReduceConflict, rrs []*reduceReduceConflict) ([]*SRConflict, []*RRConflict) {
	sr := []*SRConflict{}
	for _, c := range srs {
		con := &SRConflict{
			Symbol:     c.sym.Num().Int(),
			State:      c.nextState.Int(),
			Production: c.prodNum.Int(),
			ResolvedBy: c.resolvedBy.Int(),
		}
		ty, ns, p := tab.getAction(state, c.sym.Num())
		switch ty {
		case ActionTypeShift:
			n := ns.Int()
			con.AdoptedState = &n
		case ActionTypeReduce:
			n := p.Int()
			con.AdoptedProduction = &n
		}
		sr = append(sr, con)
	}
	sort.Slice(sr, func(i, j int) bool { return sr[i].Symbol < sr[j].Symbol })

	rr := []*RRConflict{}
	for _, c := range rrs {
		con := &RRConflict{
			Symbol:      c.sym.Num().Int(),
			Production1: c.prodNum1.Int(),
			Production2: c.prodNum2.Int(),
			ResolvedBy:  c.resolvedBy.Int(),
		}
		_, _, p := tab.getAction(state, c.sym.Num())
		con.AdoptedProduction = p.Int()
		rr = append(rr, con)
	}
	sort.Slice(rr, func(i, j int) bool { return rr[i].Symbol < rr[j].Symbol })

	return sr, rr
}
