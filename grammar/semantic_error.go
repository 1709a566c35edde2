package grammar

import "fmt"

// The following causes are wrapped in a verr.SpecError by the grammar builder, which also
// attaches the source file and row where the problem was found.
var (
	semErrNoStartSymbol      = fmt.Errorf("a grammar must have a %%start directive or at least one production")
	semErrUndefinedStart     = fmt.Errorf("the start symbol is not defined as a non-terminal")
	semErrDuplicateToken     = fmt.Errorf("a token is defined multiple times")
	semErrDuplicateProd      = fmt.Errorf("an identical production is defined multiple times")
	semErrUndefinedSymbol    = fmt.Errorf("an undefined symbol is used")
	semErrUndefinedPrecTerm  = fmt.Errorf("a %%prec directive names an undefined terminal")
	semErrTermAsNonTerm      = fmt.Errorf("a terminal symbol is used as a non-terminal's LHS")
	semErrEmptyPattern       = fmt.Errorf("a token pattern must not be empty")
	semErrPrecGroupUndefined = fmt.Errorf("a precedence group names an undefined terminal")
)
