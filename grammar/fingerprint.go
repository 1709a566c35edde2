package grammar

import (
	"crypto/sha256"
	"strconv"
	"strings"

	"github.com/cnf/structhash"
	"golang.org/x/exp/slices"
)

// Fingerprint is a stable digest of a Grammar's semantic content: its productions,
// precedence table, and start symbol. Two grammars with the same fingerprint produce
// identical parsing tables for a given flavour; it is the cache key the table cache façade
// keys stored artifacts on, and the value a CacheMismatchError compares against on load.
type Fingerprint [32]byte

func (f Fingerprint) String() string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 0, 64)
	for _, c := range f {
		b = append(b, hexDigits[c>>4], hexDigits[c&0x0f])
	}
	return string(b)
}

// ComputeFingerprint serializes a grammar's productions and precedence table into a
// canonical form - sorted by production number, each entry keyed by its symbol.Symbol
// sequence rather than a joined string - and hashes it with SHA-256. Serializing the
// canonical sequence directly, instead of joining symbol names into a string key, avoids
// the join/collision hazard a stringly-keyed representation would have.
func (g *Grammar) ComputeFingerprint() Fingerprint {
	var b strings.Builder

	prods := g.productionSet.getAllProductions()
	nums := make([]productionNum, 0, len(prods))
	byNum := make(map[productionNum]*production, len(prods))
	for _, p := range prods {
		nums = append(nums, p.num)
		byNum[p.num] = p
	}
	slices.Sort(nums)

	for _, num := range nums {
		p := byNum[num]
		b.WriteString(strconv.Itoa(int(p.lhs)))
		b.WriteByte('|')
		for _, sym := range p.rhs {
			b.WriteString(strconv.Itoa(int(sym)))
			b.WriteByte(',')
		}
		prec := g.precAndAssoc.productionPredence(p.num)
		assoc := g.precAndAssoc.productionAssociativity(p.num)
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(prec))
		b.WriteByte(':')
		b.WriteString(string(assoc))
		b.WriteByte('\n')
	}

	termSyms := g.symTab.Reader().TerminalSymbols()
	slices.Sort(termSyms)
	for _, sym := range termSyms {
		prec := g.precAndAssoc.terminalPrecedence(sym.Num())
		assoc := g.precAndAssoc.terminalAssociativity(sym.Num())
		b.WriteString(strconv.Itoa(int(sym)))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(prec))
		b.WriteByte(':')
		b.WriteString(string(assoc))
		b.WriteByte('\n')
	}

	b.WriteString("start:")
	b.WriteString(strconv.Itoa(int(g.startSym)))

	return sha256.Sum256([]byte(b.String()))
}

// TableChecksum computes an integrity checksum of a compressed CompiledTable using structhash,
// independent of ComputeFingerprint's grammar-level digest. The table cache façade stores
// both: the fingerprint identifies which grammar a cached artifact belongs to, and the
// checksum catches a corrupted or hand-edited table surviving under a fingerprint that still
// matches. CompiledTable's fields are already exported, so structhash can walk it directly.
func TableChecksum(tab *CompiledTable) (string, error) {
	return structhash.Hash(tab, 1)
}
