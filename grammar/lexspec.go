package grammar

import (
	"fmt"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"

	"github.com/ysakai/lrforge/dsl"
	"github.com/ysakai/lrforge/grammar/symbol"
)

// LexicalSpec bridges a compiled grammar to the maleeni lexer: it carries the compiled DFA
// table maleeni produces together with the symbol-numbering translations the parser driver
// needs to turn a maleeni token kind into a terminal symbol and back.
type LexicalSpec struct {
	Spec           *mlspec.CompiledLexSpec
	KindToTerminal []symbol.SymbolNum
	TerminalToKind []mlspec.LexKindID
	Skip           []bool
}

// buildLexSpec compiles the %token patterns collected from the source into a maleeni lexical
// specification and records the bidirectional symbol/kind translation tables. Tokens named in
// a %skip directive are marked so the driver silently discards them between significant
// tokens (typically whitespace and comments).
func buildLexSpec(tokens []*dsl.TokenDecl, skip map[string]bool, symTab *symbol.SymbolTableReader) (*LexicalSpec, error) {
	entries := make([]*mlspec.LexEntry, 0, len(tokens))
	for _, t := range tokens {
		entries = append(entries, &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(t.Name),
			Pattern: mlspec.LexPattern(t.Pattern),
		})
	}

	compiled, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    "lrforge",
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) > 0 {
			return nil, fmt.Errorf("failed to compile lexical specification: %v (and %v more)", cErrs[0], len(cErrs)-1)
		}
		return nil, fmt.Errorf("failed to compile lexical specification: %w", err)
	}

	kindToTerm := make([]symbol.SymbolNum, len(compiled.KindNames))
	termToKind := make([]mlspec.LexKindID, len(tokens)+2)
	skipByKind := make([]bool, len(compiled.KindNames))
	for kindID, name := range compiled.KindNames {
		if kindID == mlspec.LexKindIDNil.Int() {
			continue
		}
		sym, ok := symTab.ToSymbol(name.String())
		if !ok {
			return nil, fmt.Errorf("compiled lexical kind %v has no corresponding terminal symbol", name)
		}
		kindToTerm[kindID] = sym.Num()
		termToKind[sym.Num().Int()] = mlspec.LexKindID(kindID)
		skipByKind[kindID] = skip[string(name)]
	}

	return &LexicalSpec{
		Spec:           compiled,
		KindToTerminal: kindToTerm,
		TerminalToKind: termToKind,
		Skip:           skipByKind,
	}, nil
}
