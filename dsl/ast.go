// Package dsl implements a hand-written lexer and recursive-descent parser for the grammar
// description language: a small Yacc-like source format combining directive lines
// (%name, %token, %start, %left, %right, %nonassoc, %skip) with production rules of the
// form `lhs : alt1 | alt2 ;`.
package dsl

// File is the parsed form of a single grammar source file.
type File struct {
	Name        string
	Start       string
	Tokens      []*TokenDecl
	Skip        []string
	PrecGroups  []*PrecGroup
	Productions []*ProductionDecl
}

// TokenDecl is a %token declaration: a terminal name bound to a regular expression pattern
// that the lexer bridge compiles into a maleeni lexical specification entry.
type TokenDecl struct {
	Name    string
	Pattern string
	Row     int
}

// PrecGroup is one %left/%right/%nonassoc line. Groups are listed in increasing precedence
// order, matching their order of declaration in the source.
type PrecGroup struct {
	Assoc string // "left", "right", or "nonassoc"
	Names []string
	Row   int
}

// ProductionDecl is a single `lhs : alt1 | alt2 ;` rule.
type ProductionDecl struct {
	LHS  string
	Alts []*Alt
	Row  int
}

// Alt is one alternative of a production's RHS, optionally tagged with an explicit
// %prec override naming the terminal whose precedence and associativity the alternative
// should inherit instead of its right-most terminal.
type Alt struct {
	Symbols    []string
	PrecSymbol string
	Row        int
}
