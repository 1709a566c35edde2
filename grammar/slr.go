package grammar

import (
	"fmt"

	"github.com/ysakai/lrforge/grammar/symbol"
)

// genSLRLookAhead assigns each reducible item's look-ahead set to FOLLOW of the production's
// LHS, the one part of table construction where SLR(1) differs from LALR(1). Once every
// reducible item carries its look-ahead set, the same lrTableBuilder used for LALR(1) builds
// the table: the builder never cares how a reduce item's look-ahead was computed, only that
// it is populated.
func genSLRLookAhead(lr0 *lr0Automaton, prods *productionSet, follow *followSet) error {
	for _, state := range lr0.states {
		for _, item := range state.items {
			if !item.reducible {
				continue
			}
			if err := setSLRLookAhead(item, prods, follow); err != nil {
				return err
			}
		}
		for _, item := range state.emptyProdItems {
			if err := setSLRLookAhead(item, prods, follow); err != nil {
				return err
			}
		}
	}
	return nil
}

func setSLRLookAhead(item *lrItem, prods *productionSet, follow *followSet) error {
	prod, ok := prods.findByID(item.prod)
	if !ok {
		return fmt.Errorf("production not found: %v", item.prod)
	}
	e, err := follow.find(prod.lhs)
	if err != nil {
		return err
	}
	item.lookAhead.symbols = map[symbol.Symbol]struct{}{}
	for a := range e.symbols {
		item.lookAhead.symbols[a] = struct{}{}
	}
	if e.eof {
		item.lookAhead.symbols[symbol.SymbolEOF] = struct{}{}
	}
	return nil
}
