package grammar

import (
	"github.com/ysakai/lrforge/grammar/symbol"
)

type assocType string

const (
	assocTypeNil      = assocType("")
	assocTypeLeft     = assocType("left")
	assocTypeRight    = assocType("right")
	assocTypeNonAssoc = assocType("nonassoc")
)

const (
	precNil = 0
	precMin = 1
)

// precGroup is one %left/%right/%nonassoc declaration line; its symbols all share a single
// precedence level, and the order the groups are declared in the grammar source gives
// increasing precedence, matching how Yacc-family tools assign priorities.
type precGroup struct {
	assoc   assocType
	symbols []symbol.Symbol
}

// precAndAssoc holds the precedence and associativity of every terminal symbol that appears
// in a precedence declaration, together with the precedence and associativity every
// production inherits from it. A production inherits the precedence and associativity of
// its right-most terminal symbol unless an explicit override names a different symbol.
type precAndAssoc struct {
	termPrec  map[symbol.SymbolNum]int
	termAssoc map[symbol.SymbolNum]assocType

	prodPrec  map[productionNum]int
	prodAssoc map[productionNum]assocType
}

func (pa *precAndAssoc) terminalPrecedence(sym symbol.SymbolNum) int {
	prec, ok := pa.termPrec[sym]
	if !ok {
		return precNil
	}
	return prec
}

func (pa *precAndAssoc) terminalAssociativity(sym symbol.SymbolNum) assocType {
	assoc, ok := pa.termAssoc[sym]
	if !ok {
		return assocTypeNil
	}
	return assoc
}

func (pa *precAndAssoc) productionPredence(prod productionNum) int {
	prec, ok := pa.prodPrec[prod]
	if !ok {
		return precNil
	}
	return prec
}

func (pa *precAndAssoc) productionAssociativity(prod productionNum) assocType {
	assoc, ok := pa.prodAssoc[prod]
	if !ok {
		return assocTypeNil
	}
	return assoc
}

// genPrecAndAssoc assigns increasing precedence levels to the groups in declaration order,
// then propagates each production's precedence and associativity from prodPrecTerms, falling
// back to the production's right-most terminal when no override was given.
func genPrecAndAssoc(groups []*precGroup, prods *productionSet, prodPrecTerms map[productionID]symbol.Symbol) *precAndAssoc {
	termPrec := map[symbol.SymbolNum]int{}
	termAssoc := map[symbol.SymbolNum]assocType{}
	level := precMin
	for _, g := range groups {
		for _, sym := range g.symbols {
			termPrec[sym.Num()] = level
			termAssoc[sym.Num()] = g.assoc
		}
		level++
	}

	prodPrec := map[productionNum]int{}
	prodAssoc := map[productionNum]assocType{}
	for _, prod := range prods.getAllProductions() {
		var precTerm symbol.Symbol
		if term, ok := prodPrecTerms[prod.id]; ok {
			precTerm = term
		} else if term, ok := prod.precedentTerminal(); ok {
			precTerm = term
		} else {
			continue
		}

		if prec, ok := termPrec[precTerm.Num()]; ok {
			prodPrec[prod.num] = prec
		}
		if assoc, ok := termAssoc[precTerm.Num()]; ok {
			prodAssoc[prod.num] = assoc
		}
	}

	return &precAndAssoc{
		termPrec:  termPrec,
		termAssoc: termAssoc,
		prodPrec:  prodPrec,
		prodAssoc: prodAssoc,
	}
}
