package grammar

import (
	"fmt"

	"github.com/ysakai/lrforge/dsl"
	verr "github.com/ysakai/lrforge/error"
	"github.com/ysakai/lrforge/grammar/symbol"
)

// Grammar is the fully resolved, symbol-numbered form of a parsed grammar source: every
// terminal and non-terminal has been assigned a stable symbol.Symbol, every production has
// been assigned a productionNum in declaration order, and precedence has been computed for
// every production that needs it to resolve a conflict.
type Grammar struct {
	symTab        *symbol.SymbolTable
	productionSet *productionSet
	startSym      symbol.Symbol
	precAndAssoc  *precAndAssoc
	lexSpec       *LexicalSpec
	name          string
}

// GrammarBuilder turns a parsed dsl.File into a Grammar, collecting every semantic error it
// finds along the way rather than stopping at the first one.
type GrammarBuilder struct {
	sourceName string
	errs       verr.SpecErrors
}

func NewGrammarBuilder(sourceName string) *GrammarBuilder {
	return &GrammarBuilder{sourceName: sourceName}
}

func (b *GrammarBuilder) err(cause error, row int) {
	b.errs = append(b.errs, &verr.SpecError{
		Cause:      cause,
		SourceName: b.sourceName,
		Row:        row,
	})
}

func (b *GrammarBuilder) Build(f *dsl.File) (*Grammar, error) {
	start := f.Start
	if start == "" && len(f.Productions) > 0 {
		start = f.Productions[0].LHS
	}
	if start == "" {
		b.err(semErrNoStartSymbol, 0)
		return nil, b.errs
	}

	symTab := symbol.NewSymbolTable()
	w := symTab.Writer()

	termNames := map[string]struct{}{}
	for _, t := range f.Tokens {
		if t.Pattern == "" {
			b.err(semErrEmptyPattern, t.Row)
			continue
		}
		if _, dup := termNames[t.Name]; dup {
			b.err(fmt.Errorf("%w: %v", semErrDuplicateToken, t.Name), t.Row)
			continue
		}
		termNames[t.Name] = struct{}{}
		if _, err := w.RegisterTerminalSymbol(t.Name); err != nil {
			b.err(err, t.Row)
		}
	}

	skip := map[string]bool{}
	for _, name := range f.Skip {
		if _, ok := termNames[name]; !ok {
			b.err(fmt.Errorf("%w: %v", semErrUndefinedSymbol, name), 0)
			continue
		}
		skip[name] = true
	}

	nonTermNames := map[string]struct{}{}
	for _, prod := range f.Productions {
		if _, isTerm := termNames[prod.LHS]; isTerm {
			b.err(fmt.Errorf("%w: %v", semErrTermAsNonTerm, prod.LHS), prod.Row)
			continue
		}
		if _, ok := nonTermNames[prod.LHS]; ok {
			continue
		}
		nonTermNames[prod.LHS] = struct{}{}
		if _, err := w.RegisterNonTerminalSymbol(prod.LHS); err != nil {
			b.err(err, prod.Row)
		}
	}

	if _, ok := nonTermNames[start]; !ok {
		b.err(semErrUndefinedStart, 0)
	}

	startSym, err := w.RegisterStartSymbol(start + "'")
	if err != nil {
		b.err(err, 0)
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}

	r := symTab.Reader()
	toSym := func(name string, row int) (symbol.Symbol, bool) {
		if sym, ok := r.ToSymbol(name); ok {
			return sym, true
		}
		b.err(fmt.Errorf("%w: %v", semErrUndefinedSymbol, name), row)
		return symbol.SymbolNil, false
	}

	prods := newProductionSet()

	// Augmented start production: S' → start.
	{
		declaredStart, ok := toSym(start, 0)
		if ok {
			p, err := newProduction(startSym, []symbol.Symbol{declaredStart})
			if err != nil {
				b.err(err, 0)
			} else {
				prods.append(p)
			}
		}
	}

	prodPrecTerms := map[productionID]symbol.Symbol{}
	for _, prod := range f.Productions {
		lhs, ok := toSym(prod.LHS, prod.Row)
		if !ok {
			continue
		}
		for _, alt := range prod.Alts {
			rhs := make([]symbol.Symbol, 0, len(alt.Symbols))
			ok := true
			for _, name := range alt.Symbols {
				sym, found := toSym(name, alt.Row)
				if !found {
					ok = false
					continue
				}
				rhs = append(rhs, sym)
			}
			if !ok {
				continue
			}

			p, err := newProduction(lhs, rhs)
			if err != nil {
				b.err(err, alt.Row)
				continue
			}
			if !prods.append(p) {
				b.err(fmt.Errorf("%w: %v", semErrDuplicateProd, prod.LHS), alt.Row)
				continue
			}

			if alt.PrecSymbol != "" {
				precSym, found := toSym(alt.PrecSymbol, alt.Row)
				if !found || !precSym.IsTerminal() {
					b.err(fmt.Errorf("%w: %v", semErrUndefinedPrecTerm, alt.PrecSymbol), alt.Row)
					continue
				}
				prodPrecTerms[p.id] = precSym
			}
		}
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}

	var groups []*precGroup
	for _, g := range f.PrecGroups {
		var assoc assocType
		switch g.Assoc {
		case "left":
			assoc = assocTypeLeft
		case "right":
			assoc = assocTypeRight
		case "nonassoc":
			assoc = assocTypeNonAssoc
		default:
			assoc = assocTypeNil
		}
		syms := make([]symbol.Symbol, 0, len(g.Names))
		for _, name := range g.Names {
			sym, found := toSym(name, g.Row)
			if !found || !sym.IsTerminal() {
				b.err(fmt.Errorf("%w: %v", semErrPrecGroupUndefined, name), g.Row)
				continue
			}
			syms = append(syms, sym)
		}
		groups = append(groups, &precGroup{assoc: assoc, symbols: syms})
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}

	lexSpec, err := buildLexSpec(f.Tokens, skip, r)
	if err != nil {
		b.err(err, 0)
		return nil, b.errs
	}

	return &Grammar{
		symTab:        symTab,
		productionSet: prods,
		startSym:      startSym,
		precAndAssoc:  genPrecAndAssoc(groups, prods, prodPrecTerms),
		lexSpec:       lexSpec,
		name:          f.Name,
	}, nil
}
