package grammar

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/ysakai/lrforge/grammar/symbol"
)

// lr1Item is a dotted production paired with a concrete look-ahead set. Unlike the LR(0)/LALR(1)
// item, its identity (lr1ItemID) folds in the look-ahead symbols: two items with the same core
// but different look-ahead are different items, which is exactly what lets canonical LR(1)
// split states that SLR(1) and LALR(1) would otherwise merge.
type lr1ItemID [32]byte

func (id lr1ItemID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

type lr1Item struct {
	id           lr1ItemID
	prod         productionID
	dot          int
	dottedSymbol symbol.Symbol
	initial      bool
	reducible    bool
	lookAhead    map[symbol.Symbol]struct{}
}

func genLR1ItemID(prod productionID, dot int, lookAhead map[symbol.Symbol]struct{}) lr1ItemID {
	las := make([]symbol.Symbol, 0, len(lookAhead))
	for a := range lookAhead {
		las = append(las, a)
	}
	sort.Slice(las, func(i, j int) bool { return las[i] < las[j] })

	b := make([]byte, 0, 32+8+2*len(las))
	b = append(b, prod[:]...)
	bDot := make([]byte, 8)
	binary.LittleEndian.PutUint64(bDot, uint64(dot))
	b = append(b, bDot...)
	for _, a := range las {
		bSym := make([]byte, 2)
		binary.LittleEndian.PutUint16(bSym, uint16(a))
		b = append(b, bSym...)
	}
	return sha256.Sum256(b)
}

func newLR1Item(prod *production, dot int, lookAhead map[symbol.Symbol]struct{}) (*lr1Item, error) {
	if dot < 0 || dot > prod.rhsLen {
		return nil, fmt.Errorf("dot must be between 0 and %v", prod.rhsLen)
	}

	dottedSymbol := symbol.SymbolNil
	if dot < prod.rhsLen {
		dottedSymbol = prod.rhs[dot]
	}

	return &lr1Item{
		id:           genLR1ItemID(prod.id, dot, lookAhead),
		prod:         prod.id,
		dot:          dot,
		dottedSymbol: dottedSymbol,
		initial:      prod.lhs.IsStart() && dot == 0,
		reducible:    dot == prod.rhsLen,
		lookAhead:    lookAhead,
	}, nil
}

type lr1KernelID [32]byte

func (id lr1KernelID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

type lr1Kernel struct {
	id    lr1KernelID
	items []*lr1Item
}

func newLR1Kernel(items []*lr1Item) *lr1Kernel {
	sorted := append([]*lr1Item{}, items...)
	sort.Slice(sorted, func(i, j int) bool {
		return binary.LittleEndian.Uint32(sorted[i].id[:]) < binary.LittleEndian.Uint32(sorted[j].id[:])
	})

	b := []byte{}
	for _, item := range sorted {
		b = append(b, item.id[:]...)
	}

	return &lr1Kernel{
		id:    sha256.Sum256(b),
		items: sorted,
	}
}

type lr1State struct {
	*lr1Kernel
	num       stateNum
	next      map[symbol.Symbol]lr1KernelID
	reducible map[productionID][]*lr1Item
}

type lr1Automaton struct {
	initialState lr1KernelID
	states       map[lr1KernelID]*lr1State
}

// genLR1Automaton computes the canonical collection of LR(1) item sets: a worklist over
// kernels exactly like genLR0Automaton, except that closure and GOTO both carry concrete
// look-ahead sets, so two states sharing a core but disagreeing on look-ahead are kept apart
// instead of merged. This is what distinguishes full LR(1) from the LALR(1) automaton built
// by genLALR1Automaton, which starts from the LR(0) skeleton and merges by core before
// propagating look-ahead.
func genLR1Automaton(prods *productionSet, startSym symbol.Symbol, first *firstSet) (*lr1Automaton, error) {
	if !startSym.IsStart() {
		return nil, fmt.Errorf("passed symbol is not a start symbol")
	}

	automaton := &lr1Automaton{states: map[lr1KernelID]*lr1State{}}

	currentState := stateNumInitial
	knownKernels := map[lr1KernelID]struct{}{}
	uncheckedKernels := []*lr1Kernel{}

	{
		startProds, _ := prods.findByLHS(startSym)
		iniItem, err := newLR1Item(startProds[0], 0, map[symbol.Symbol]struct{}{symbol.SymbolEOF: {}})
		if err != nil {
			return nil, err
		}
		k := newLR1Kernel([]*lr1Item{iniItem})
		automaton.initialState = k.id
		knownKernels[k.id] = struct{}{}
		uncheckedKernels = append(uncheckedKernels, k)
	}

	for len(uncheckedKernels) > 0 {
		next := []*lr1Kernel{}
		for _, k := range uncheckedKernels {
			state, neighbours, err := genLR1StateAndNeighbours(k, prods, first)
			if err != nil {
				return nil, err
			}
			state.num = currentState
			currentState = currentState.next()
			automaton.states[state.id] = state

			for _, nk := range neighbours {
				if _, known := knownKernels[nk.id]; known {
					continue
				}
				knownKernels[nk.id] = struct{}{}
				next = append(next, nk)
			}
		}
		uncheckedKernels = next
	}

	return automaton, nil
}

func genLR1Closure(k *lr1Kernel, prods *productionSet, first *firstSet) ([]*lr1Item, error) {
	items := append([]*lr1Item{}, k.items...)
	known := map[lr1ItemID]struct{}{}
	for _, item := range items {
		known[item.id] = struct{}{}
	}
	unchecked := append([]*lr1Item{}, k.items...)

	for len(unchecked) > 0 {
		nextUnchecked := []*lr1Item{}
		for _, item := range unchecked {
			if item.dottedSymbol.IsTerminal() || item.dottedSymbol.IsNil() {
				continue
			}

			p, ok := prods.findByID(item.prod)
			if !ok {
				return nil, fmt.Errorf("production not found: %v", item.prod)
			}

			fst, err := first.find(p, item.dot+1)
			if err != nil {
				return nil, err
			}
			lookAhead := map[symbol.Symbol]struct{}{}
			for a := range fst.symbols {
				lookAhead[a] = struct{}{}
			}
			if fst.empty {
				for a := range item.lookAhead {
					lookAhead[a] = struct{}{}
				}
			}

			ps, _ := prods.findByLHS(item.dottedSymbol)
			for _, prod := range ps {
				newItem, err := newLR1Item(prod, 0, lookAhead)
				if err != nil {
					return nil, err
				}
				if _, exist := known[newItem.id]; exist {
					continue
				}
				items = append(items, newItem)
				known[newItem.id] = struct{}{}
				nextUnchecked = append(nextUnchecked, newItem)
			}
		}
		unchecked = nextUnchecked
	}

	return items, nil
}

func genLR1StateAndNeighbours(k *lr1Kernel, prods *productionSet, first *firstSet) (*lr1State, []*lr1Kernel, error) {
	items, err := genLR1Closure(k, prods, first)
	if err != nil {
		return nil, nil, err
	}

	kItemMap := map[symbol.Symbol][]*lr1Item{}
	for _, item := range items {
		if item.dottedSymbol.IsNil() {
			continue
		}
		p, ok := prods.findByID(item.prod)
		if !ok {
			return nil, nil, fmt.Errorf("production not found: %v", item.prod)
		}
		kItem, err := newLR1Item(p, item.dot+1, item.lookAhead)
		if err != nil {
			return nil, nil, err
		}
		kItemMap[item.dottedSymbol] = append(kItemMap[item.dottedSymbol], kItem)
	}

	nextSyms := make([]symbol.Symbol, 0, len(kItemMap))
	for sym := range kItemMap {
		nextSyms = append(nextSyms, sym)
	}
	sort.Slice(nextSyms, func(i, j int) bool { return nextSyms[i] < nextSyms[j] })

	next := map[symbol.Symbol]lr1KernelID{}
	kernels := []*lr1Kernel{}
	for _, sym := range nextSyms {
		nk := newLR1Kernel(kItemMap[sym])
		next[sym] = nk.id
		kernels = append(kernels, nk)
	}

	reducible := map[productionID][]*lr1Item{}
	for _, item := range items {
		if item.reducible {
			reducible[item.prod] = append(reducible[item.prod], item)
		}
	}

	return &lr1State{
		lr1Kernel: k,
		next:      next,
		reducible: reducible,
	}, kernels, nil
}
