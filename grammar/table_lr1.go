package grammar

import (
	"fmt"

	"github.com/ysakai/lrforge/grammar/symbol"
)

// lr1TableBuilder writes a ParsingTable from a canonical LR(1) automaton. It mirrors
// lrTableBuilder's shift/reduce/goto construction, differing only in how it reads look-ahead:
// an lr1State already carries a concrete look-ahead set per reducible item, so no FOLLOW set
// or propagation pass is needed.
type lr1TableBuilder struct {
	automaton    *lr1Automaton
	prods        *productionSet
	termCount    int
	nonTermCount int
	symTab       *symbol.SymbolTableReader
	precAndAssoc *precAndAssoc

	conflicts []conflict
}

func (b *lr1TableBuilder) build() (*ParsingTable, error) {
	initialState := b.automaton.states[b.automaton.initialState]
	tab := &ParsingTable{
		actionTable:      make([]actionEntry, len(b.automaton.states)*b.termCount),
		goToTable:        make([]goToEntry, len(b.automaton.states)*b.nonTermCount),
		stateCount:       len(b.automaton.states),
		terminalCount:    b.termCount,
		nonTerminalCount: b.nonTermCount,
		InitialState:     initialState.num,
	}

	for _, state := range b.automaton.states {
		for sym, kID := range state.next {
			nextState := b.automaton.states[kID]
			if sym.IsTerminal() {
				b.writeShiftAction(tab, state.num, sym, nextState.num)
			} else {
				tab.writeGoTo(state.num, sym, nextState.num)
			}
		}

		for prodID, items := range state.reducible {
			reducibleProd, ok := b.prods.findByID(prodID)
			if !ok {
				return nil, fmt.Errorf("reducible production not found: %v", prodID)
			}
			for _, item := range items {
				for a := range item.lookAhead {
					b.writeReduceAction(tab, state.num, a, reducibleProd.num)
				}
			}
		}
	}

	return tab, nil
}

func (b *lr1TableBuilder) writeShiftAction(tab *ParsingTable, state stateNum, sym symbol.Symbol, nextState stateNum) {
	act := tab.readAction(state.Int(), sym.Num().Int())
	if !act.isEmpty() {
		ty, _, p := act.describe()
		if ty == ActionTypeReduce {
			act, method := resolveSRConflict(b.precAndAssoc, sym.Num(), p)
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

func (b *lr1TableBuilder) writeReduceAction(tab *ParsingTable, state stateNum, sym symbol.Symbol, prod productionNum) {
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
			act, method := resolveSRConflict(b.precAndAssoc, sym.Num(), prod)
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

// genReport builds the same Report shape lrTableBuilder produces, sourced from the canonical
// LR(1) automaton's states instead of the LR(0)/LALR(1) ones.
func (b *lr1TableBuilder) genReport(tab *ParsingTable, gram *Grammar) (*Report, error) {
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
